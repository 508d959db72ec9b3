package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/writeflow/backend/internal/models"
)

func TestIssueAndValidate(t *testing.T) {
	svc := NewService("test-secret", time.Hour)
	want := Caller{ID: uuid.New(), Role: models.RoleWriter}

	token, err := svc.IssueToken(want)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	got, err := svc.ValidateToken(context.Background(), token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if got.IsAdmin() {
		t.Error("writer reported as admin")
	}
}

func TestValidate_Rejects(t *testing.T) {
	ctx := context.Background()
	svc := NewService("test-secret", time.Hour)
	caller := Caller{ID: uuid.New(), Role: models.RoleAdmin}

	other, _ := NewService("other-secret", time.Hour).IssueToken(caller)
	expired := &service{secret: []byte("test-secret"), ttl: time.Minute, now: func() time.Time { return time.Now().Add(-time.Hour) }}
	old, _ := expired.IssueToken(caller)
	badRole, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: caller.ID.String(), ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		Role:             "SUPERUSER",
	}).SignedString([]byte("test-secret"))
	noneAlg, _ := jwt.NewWithClaims(jwt.SigningMethodNone, claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: caller.ID.String()},
		Role:             "ADMIN",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": other,
		"expired":      old,
		"unknown role": badRole,
		"alg none":     noneAlg,
	} {
		if _, err := svc.ValidateToken(ctx, token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}
