package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus counts lifecycle outcomes reported by the auth service.
type Prometheus struct {
	logins      *prometheus.CounterVec
	refreshes   *prometheus.CounterVec
	revocations *prometheus.CounterVec
}

func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "auth",
			Name:      "login_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "auth",
			Name:      "refresh_total",
			Help:      "Refresh attempts by outcome.",
		}, []string{"outcome"}),
		revocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "auth",
			Name:      "session_revocations_total",
			Help:      "Refresh slots cleared, by reason.",
		}, []string{"reason"}),
	}
	for _, c := range []prometheus.Collector{p.logins, p.refreshes, p.revocations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prometheus) ObserveLogin(outcome string) {
	p.logins.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) ObserveRefresh(outcome string) {
	p.refreshes.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) ObserveRevocation(reason string) {
	p.revocations.WithLabelValues(reason).Inc()
}
