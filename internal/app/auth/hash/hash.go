// Package hash is the one-way hashing capability shared by passwords and
// refresh tokens.
package hash

import (
	customErrors "github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/infra/config"
	"github.com/alexedwards/argon2id"
)

type Hasher interface {
	Hash(secret string) (string, error)
	// Verify never errors: a malformed digest simply does not match.
	Verify(secret, digest string) bool
	// DummyVerify costs the same as a failed Verify.
	DummyVerify(secret string)
}

var DefaultParams = &argon2id.Params{
	Memory:      64 * 1024, // 64 MiB
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

type Argon2Hasher struct {
	params *argon2id.Params
	pepper string
	dummy  string
}

func NewArgon2Hasher(params *argon2id.Params, pepper string) (*Argon2Hasher, error) {
	if params == nil {
		params = DefaultParams
	}
	if !usable(params) {
		return nil, customErrors.NewConfiguration("argon2 iterations, parallelism and key length must be positive")
	}
	h := &Argon2Hasher{params: params, pepper: pepper}
	dummy, err := argon2id.CreateHash("dummy-password", params)
	if err != nil {
		return nil, customErrors.WrapInternal(err, "create dummy hash")
	}
	h.dummy = dummy
	return h, nil
}

// NewFromConfig keeps DefaultParams for any knob left at zero.
func NewFromConfig(cfg *config.Config) (*Argon2Hasher, error) {
	p := *DefaultParams
	if cfg.Argon2MemoryKiB > 0 {
		p.Memory = cfg.Argon2MemoryKiB
	}
	if cfg.Argon2Iterations > 0 {
		p.Iterations = cfg.Argon2Iterations
	}
	if cfg.Argon2Parallelism > 0 {
		p.Parallelism = cfg.Argon2Parallelism
	}
	return NewArgon2Hasher(&p, cfg.PasswordPepper)
}

func (h *Argon2Hasher) Hash(secret string) (string, error) {
	digest, err := argon2id.CreateHash(secret+h.pepper, h.params)
	if err != nil {
		return "", customErrors.WrapInternal(err, "hash")
	}
	return digest, nil
}

func (h *Argon2Hasher) Verify(secret, digest string) bool {
	if digest == "" {
		return false
	}
	// x/crypto/argon2 panics on zero rounds or lanes, so stored parameters
	// are checked before the digest is recomputed.
	params, _, _, err := argon2id.DecodeHash(digest)
	if err != nil || !usable(params) {
		return false
	}
	ok, err := argon2id.ComparePasswordAndHash(secret+h.pepper, digest)
	if err != nil {
		return false
	}
	return ok
}

func (h *Argon2Hasher) DummyVerify(secret string) {
	h.Verify(secret, h.dummy)
}

func usable(p *argon2id.Params) bool {
	return p.Iterations > 0 && p.Parallelism > 0 && p.KeyLength > 0
}
