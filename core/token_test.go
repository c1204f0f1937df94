package core

import (
	"errors"
	"strings"
	"testing"
)

func testIssuer(lifetimeSeconds int) *TokenIssuer {
	return NewTokenIssuer(Config{
		JWTSecret:            "test-secret",
		TokenLifetimeSeconds: lifetimeSeconds,
	})
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := testIssuer(3600)

	token, err := issuer.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	userID, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if userID != "user-123" {
		t.Fatalf("verified id = %q, want user-123", userID)
	}
}

func TestTokenExpired(t *testing.T) {
	issuer := testIssuer(-60)

	token, err := issuer.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := issuer.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expired token verified, err = %v", err)
	}
}

func TestTokenTampered(t *testing.T) {
	issuer := testIssuer(3600)
	token, err := issuer.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	// Flip a character in the signature segment.
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", token)
	}
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if _, err := issuer.Verify(tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("tampered token verified, err = %v", err)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := testIssuer(3600).Issue("user-123")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	other := NewTokenIssuer(Config{JWTSecret: "different-secret", TokenLifetimeSeconds: 3600})
	if _, err := other.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("token signed with another secret verified, err = %v", err)
	}
}

func TestTokenGarbage(t *testing.T) {
	issuer := testIssuer(3600)
	for _, tok := range []string{"", "garbage", "a.b.c"} {
		if _, err := issuer.Verify(tok); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("garbage token %q verified, err = %v", tok, err)
		}
	}
}

func TestTokenEmptySecret(t *testing.T) {
	issuer := NewTokenIssuer(Config{TokenLifetimeSeconds: 3600})
	if _, err := issuer.Issue("user-123"); !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("Issue with empty secret, err = %v", err)
	}
}
