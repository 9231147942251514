package errors

import (
	"errors"
	"testing"
)

func TestErrorHelpers(t *testing.T) {
	err := NewInvalidArgument("bad")
	if !IsInvalidArgument(err) {
		t.Fatal("expected invalid argument")
	}

	wrapped := WrapInternal(err, "ctx")
	if !IsInternal(wrapped) {
		t.Fatal("expected internal")
	}
	if IsInvalidArgument(wrapped) {
		t.Fatal("internal wrapper must not leak the wrapped kind")
	}

	if !IsConfiguration(NewConfiguration("ACCESS_TOKEN_SECRET missing")) {
		t.Fatal("expected configuration")
	}
}

func TestTokenKindsAreInvalidToken(t *testing.T) {
	for _, err := range []error{
		ErrTokenSignature,
		ErrTokenExpired,
		ErrTokenMalformed,
		ErrTokenMissingSubject,
		ErrTokenRevoked,
	} {
		if !IsInvalidToken(err) {
			t.Fatalf("%v should match ErrInvalidToken", err)
		}
	}
	if errors.Is(ErrTokenExpired, ErrTokenSignature) {
		t.Fatal("token kinds must stay distinguishable")
	}
}
