package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInternal           = errors.New("internal error")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrForbidden          = errors.New("forbidden")
	ErrConfiguration      = errors.New("configuration error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account inactive")
	ErrSessionRevoked     = errors.New("session revoked")

	// ErrStaleSession is returned by the repository when a refresh-slot
	// compare-and-swap finds a different hash than expected.
	ErrStaleSession = errors.New("stale session")

	ErrInvalidToken = errors.New("invalid token")
	// Token kinds below all match ErrInvalidToken with errors.Is.
	ErrTokenSignature      = fmt.Errorf("%w: signature mismatch", ErrInvalidToken)
	ErrTokenExpired        = fmt.Errorf("%w: expired", ErrInvalidToken)
	ErrTokenMalformed      = fmt.Errorf("%w: malformed", ErrInvalidToken)
	ErrTokenMissingSubject = fmt.Errorf("%w: missing subject", ErrInvalidToken)
	ErrTokenRevoked        = fmt.Errorf("%w: revoked", ErrInvalidToken)
)

func NewInvalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

func NewConfiguration(msg string) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, msg)
}

func WrapInternal(err error, context string) error {
	return fmt.Errorf("%w: %s: %v", ErrInternal, context, err)
}

func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func IsInvalidCredentials(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}

func IsAccountInactive(err error) bool {
	return errors.Is(err, ErrAccountInactive)
}

func IsSessionRevoked(err error) bool {
	return errors.Is(err, ErrSessionRevoked)
}

func IsStaleSession(err error) bool {
	return errors.Is(err, ErrStaleSession)
}

func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}
