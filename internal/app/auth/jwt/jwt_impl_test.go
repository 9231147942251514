package jwt

import (
	"testing"
	"time"

	customErrors "github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/errors"
	jwt2 "github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/jwt"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/infra/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func testConfig() *config.Config {
	return &config.Config{
		AccessTokenSecret:  "access-secret",
		AccessTokenTTL:     time.Minute,
		RefreshTokenSecret: "refresh-secret",
		RefreshTokenTTL:    time.Hour,
		Issuer:             "test",
		Audience:           "test",
	}
}

func newSigner(t *testing.T, cfg *config.Config) *SignerImpl {
	t.Helper()
	s, err := NewSigner(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSigner_AccessRoundTrip(t *testing.T) {
	s := newSigner(t, testConfig())
	uid := uuid.New()

	token, exp, err := s.IssueAccess(uid, "alice", []string{"USER"})
	if err != nil || exp.IsZero() {
		t.Fatalf("bad issue: %v", err)
	}
	claims, err := s.VerifyAccess(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.AccountID() != uid || claims.Username != "alice" || claims.Roles[0] != "USER" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ID == "" {
		t.Fatal("access token must carry a jti")
	}
}

func TestSigner_RefreshRoundTrip(t *testing.T) {
	s := newSigner(t, testConfig())
	uid := uuid.New()

	token, exp, err := s.IssueRefresh(uid, "alice")
	if err != nil || exp.IsZero() {
		t.Fatalf("bad issue: %v", err)
	}
	claims, err := s.VerifyRefresh(token)
	if err != nil || claims.AccountID() != uid || claims.Username != "alice" {
		t.Fatalf("validate error: %v", err)
	}
}

func TestSigner_TokensAreUnique(t *testing.T) {
	s := newSigner(t, testConfig())
	uid := uuid.New()
	a, _, _ := s.IssueRefresh(uid, "alice")
	b, _, _ := s.IssueRefresh(uid, "alice")
	if a == b {
		t.Fatal("two refresh tokens issued in the same second must differ")
	}
}

func TestSigner_PurposesDoNotCrossValidate(t *testing.T) {
	s := newSigner(t, testConfig())
	uid := uuid.New()

	access, _, _ := s.IssueAccess(uid, "alice", []string{"USER"})
	if _, err := s.VerifyRefresh(access); err != customErrors.ErrTokenSignature {
		t.Fatalf("access token accepted as refresh: %v", err)
	}
	refresh, _, _ := s.IssueRefresh(uid, "alice")
	if _, err := s.VerifyAccess(refresh); err != customErrors.ErrTokenSignature {
		t.Fatalf("refresh token accepted as access: %v", err)
	}
}

func TestSigner_PurposeClaimChecked(t *testing.T) {
	// Same secret for both purposes is rejected by config, but the typ
	// claim must hold the line on its own.
	s := newSigner(t, testConfig())
	s.refresh.secret = s.access.secret

	access, _, _ := s.IssueAccess(uuid.New(), "alice", []string{"USER"})
	if _, err := s.VerifyRefresh(access); err != customErrors.ErrTokenSignature {
		t.Fatalf("want signature error, got %v", err)
	}
}

func TestSigner_Expired(t *testing.T) {
	s := newSigner(t, testConfig())
	s.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, _ := s.IssueAccess(uuid.New(), "alice", []string{"USER"})

	s.now = time.Now
	if _, err := s.VerifyAccess(token); err != customErrors.ErrTokenExpired {
		t.Fatalf("want expired, got %v", err)
	}
}

func TestSigner_Malformed(t *testing.T) {
	s := newSigner(t, testConfig())
	if _, err := s.VerifyAccess("bad"); err != customErrors.ErrTokenMalformed {
		t.Fatalf("want malformed, got %v", err)
	}
	if _, err := s.VerifyRefresh(""); err != customErrors.ErrTokenMalformed {
		t.Fatalf("want malformed, got %v", err)
	}
}

func TestSigner_InvalidAlg(t *testing.T) {
	s := newSigner(t, testConfig())
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": uuid.NewString()}).
		SignedString(s.access.secret)
	if _, err := s.VerifyAccess(token); !customErrors.IsInvalidToken(err) {
		t.Fatalf("expected invalid alg to be rejected, got %v", err)
	}
}

func TestSigner_WrongIssuerAndAudience(t *testing.T) {
	s := newSigner(t, testConfig())

	otherIss := testConfig()
	otherIss.Issuer = "wrong"
	tok, _, _ := newSigner(t, otherIss).IssueAccess(uuid.New(), "alice", []string{"USER"})
	if _, err := s.VerifyAccess(tok); !customErrors.IsInvalidToken(err) {
		t.Fatal("expected issuer error")
	}

	otherAud := testConfig()
	otherAud.Audience = "other"
	tok, _, _ = newSigner(t, otherAud).IssueRefresh(uuid.New(), "alice")
	if _, err := s.VerifyRefresh(tok); !customErrors.IsInvalidToken(err) {
		t.Fatal("expected audience error")
	}
}

func signRaw(t *testing.T, secret []byte, claims jwt.Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func TestSigner_MissingSubject(t *testing.T) {
	s := newSigner(t, testConfig())
	now := time.Now()
	token := signRaw(t, s.refresh.secret, jwt2.RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test",
			Audience:  jwt.ClaimStrings{"test"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
		Purpose:  jwt2.PurposeRefresh,
		Username: "alice",
	})
	if _, err := s.VerifyRefresh(token); err != customErrors.ErrTokenMissingSubject {
		t.Fatalf("want missing subject, got %v", err)
	}
}

func TestSigner_RejectsIncompletePayload(t *testing.T) {
	s := newSigner(t, testConfig())
	now := time.Now()
	base := jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		Issuer:    "test",
		Audience:  jwt.ClaimStrings{"test"},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
	}

	noRoles := signRaw(t, s.access.secret, jwt2.AccessClaims{RegisteredClaims: base, Purpose: jwt2.PurposeAccess, Username: "alice"})
	if _, err := s.VerifyAccess(noRoles); err != customErrors.ErrTokenMalformed {
		t.Fatalf("want malformed for missing roles, got %v", err)
	}

	badSub := base
	badSub.Subject = "42"
	notUUID := signRaw(t, s.access.secret, jwt2.AccessClaims{RegisteredClaims: badSub, Purpose: jwt2.PurposeAccess, Username: "alice", Roles: []string{"USER"}})
	if _, err := s.VerifyAccess(notUUID); err != customErrors.ErrTokenMalformed {
		t.Fatalf("want malformed for non-uuid subject, got %v", err)
	}

	noExp := base
	noExp.ExpiresAt = nil
	forever := signRaw(t, s.refresh.secret, jwt2.RefreshClaims{RegisteredClaims: noExp, Purpose: jwt2.PurposeRefresh, Username: "alice"})
	if _, err := s.VerifyRefresh(forever); !customErrors.IsInvalidToken(err) {
		t.Fatalf("token without exp must be rejected, got %v", err)
	}
}

func TestNewSigner_ConfigErrors(t *testing.T) {
	cfg := testConfig()
	cfg.RefreshTokenSecret = ""
	if _, err := NewSigner(cfg); !customErrors.IsConfiguration(err) {
		t.Fatalf("want configuration error, got %v", err)
	}
}
