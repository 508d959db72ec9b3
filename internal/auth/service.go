// Package auth verifies the bearer tokens issued by the identity service and
// turns them into a caller identity.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/writeflow/backend/internal/models"
)

const DefaultTokenTTL = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// Caller is the authenticated actor behind a request.
type Caller struct {
	ID   uuid.UUID
	Role models.Role
}

func (c Caller) IsAdmin() bool { return c.Role == models.RoleAdmin }

type Service interface {
	// IssueToken signs a token for c. Production tokens come from the identity
	// service; this exists for tooling and tests.
	IssueToken(c Caller) (string, error)
	ValidateToken(ctx context.Context, token string) (Caller, error)
}

type service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewService(secret string, ttl time.Duration) Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &service{secret: []byte(secret), ttl: ttl, now: time.Now}
}

var _ Service = (*service)(nil)

type claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

func (s *service) IssueToken(c Caller) (string, error) {
	now := s.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: string(c.Role),
	})
	return tok.SignedString(s.secret)
}

func (s *service) ValidateToken(_ context.Context, token string) (Caller, error) {
	tok, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return Caller{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	c, ok := tok.Claims.(*claims)
	if !ok || !tok.Valid {
		return Caller{}, ErrInvalidToken
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return Caller{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	role, err := models.ParseRole(c.Role)
	if err != nil {
		return Caller{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return Caller{ID: id, Role: role}, nil
}
