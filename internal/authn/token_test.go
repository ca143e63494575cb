package authn

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskcollab/internal/models"
)

func TestIssueAndVerify(t *testing.T) {
	signer, err := NewSigner("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	actor := models.Actor{ID: "u-1", Name: "Ada", Email: "ada@example.com"}

	token, expiresAt, err := signer.Issue(actor)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if expiresAt.IsZero() {
		t.Fatal("expected expiry")
	}

	claims, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got := claims.Actor(); got != actor {
		t.Fatalf("expected %+v, got %+v", actor, got)
	}
}

func TestVerifyRejects(t *testing.T) {
	signer, err := NewSigner("test-secret", time.Minute)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	other, err := NewSigner("other-secret", time.Minute)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	actor := models.Actor{ID: "u-1"}

	foreign, _, err := other.Issue(actor)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	base := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	signer.now = func() time.Time { return base }
	expiring, _, err := signer.Issue(actor)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer, Subject: "u-1"}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	signer.now = func() time.Time { return base.Add(2 * time.Minute) }

	cases := map[string]string{
		"empty":        "",
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"expired":      expiring,
		"alg none":     unsigned,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := signer.Verify(token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected invalid token, got %v", err)
			}
		})
	}
}

func TestNewSignerRequiresSecret(t *testing.T) {
	if _, err := NewSigner("  ", time.Hour); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected missing secret, got %v", err)
	}
}

func TestIssueRequiresUserID(t *testing.T) {
	signer, err := NewSigner("s", 0)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	if _, _, err := signer.Issue(models.Actor{Email: "x@example.com"}); err == nil {
		t.Fatal("expected error without user id")
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer   abc ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := BearerToken(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("BearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

func TestActorContext(t *testing.T) {
	if _, ok := ActorFromContext(context.Background()); ok {
		t.Fatal("expected no actor in empty context")
	}
	actor := models.Actor{ID: "u-2"}
	got, ok := ActorFromContext(WithActor(context.Background(), actor))
	if !ok || got != actor {
		t.Fatalf("expected %+v, got %+v (%v)", actor, got, ok)
	}
}
