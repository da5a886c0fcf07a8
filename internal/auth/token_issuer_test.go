package auth

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndValidateRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("test-secret"),
		TokenTTL:      time.Hour,
	})

	token, expiresIn, err := issuer.Issue("companion-app")
	if err != nil {
		t.Fatalf("unexpected issue error: %v", err)
	}
	if expiresIn != int64(time.Hour.Seconds()) {
		t.Fatalf("unexpected expiry %d", expiresIn)
	}

	subject, err := issuer.Validate(token)
	if err != nil {
		t.Fatalf("unexpected validate error: %v", err)
	}
	if subject != "companion-app" {
		t.Fatalf("unexpected subject %q", subject)
	}
}

func TestIssueRequiresSecretAndSubject(t *testing.T) {
	issuer := NewTokenIssuer(TokenIssuerConfig{})
	if _, _, err := issuer.Issue("companion-app"); !errors.Is(err, ErrMissingSigningSecret) {
		t.Fatalf("expected missing secret error, got %v", err)
	}

	issuer = NewTokenIssuer(TokenIssuerConfig{SigningSecret: []byte("test-secret")})
	if _, _, err := issuer.Issue(""); !errors.Is(err, ErrMissingSubject) {
		t.Fatalf("expected missing subject error, got %v", err)
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	issued := time.Unix(1700000000, 0).UTC()
	issuer := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("test-secret"),
		TokenTTL:      time.Minute,
		Clock:         func() time.Time { return issued },
	})

	token, _, err := issuer.Issue("companion-app")
	if err != nil {
		t.Fatalf("unexpected issue error: %v", err)
	}

	later := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("test-secret"),
		Clock:         func() time.Time { return issued.Add(2 * time.Minute) },
	})
	if _, err := later.Validate(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	issuer := NewTokenIssuer(TokenIssuerConfig{SigningSecret: []byte("test-secret")})
	token, _, err := issuer.Issue("companion-app")
	if err != nil {
		t.Fatalf("unexpected issue error: %v", err)
	}

	other := NewTokenIssuer(TokenIssuerConfig{SigningSecret: []byte("other-secret")})
	if _, err := other.Validate(token); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}
}
