// Package token issues and validates the gateway's HS256 access tokens.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/smallbiznis/fieldwatch/internal/auth/domain"
	"github.com/smallbiznis/fieldwatch/internal/clock"
	"github.com/smallbiznis/fieldwatch/internal/config"
)

// Manager signs tokens whose subject is the username.
type Manager struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func NewManager(cfg config.Config, clk clock.Clock) (*Manager, error) {
	if strings.TrimSpace(cfg.AuthJWTSecret) == "" {
		return nil, errors.New("token secret is empty")
	}
	ttl := cfg.AccessTokenTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Manager{secret: []byte(cfg.AuthJWTSecret), ttl: ttl, clock: clk}, nil
}

func (m *Manager) Issue(username string) (string, time.Time, error) {
	now := m.clock.Now()
	expiresAt := now.Add(m.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse returns the token subject. Failures map onto the auth domain errors.
func (m *Manager) Parse(raw string) (string, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithTimeFunc(m.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", domain.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", domain.ErrInvalidSignature
		default:
			return "", domain.ErrInvalidToken
		}
	}
	if !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return "", domain.ErrInvalidToken
	}
	return claims.Subject, nil
}
