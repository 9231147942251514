package service

const (
	OutcomeSuccess            = "success"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeInactive           = "inactive"
	OutcomeRevoked            = "revoked"
	OutcomeError              = "error"

	RevocationLogout = "logout"
	RevocationReuse  = "reuse"
	RevocationRace   = "race"
)

// Metrics receives lifecycle outcomes. Implementations must be safe for
// concurrent use.
type Metrics interface {
	ObserveLogin(outcome string)
	ObserveRefresh(outcome string)
	ObserveRevocation(reason string)
}

type nopMetrics struct{}

func (nopMetrics) ObserveLogin(string)      {}
func (nopMetrics) ObserveRefresh(string)    {}
func (nopMetrics) ObserveRevocation(string) {}
