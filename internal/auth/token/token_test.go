package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/smallbiznis/fieldwatch/internal/auth/domain"
	"github.com/smallbiznis/fieldwatch/internal/clock"
	"github.com/smallbiznis/fieldwatch/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, secret string, clk clock.Clock) *Manager {
	t.Helper()
	m, err := NewManager(config.Config{AuthJWTSecret: secret, AccessTokenTTL: 30 * time.Minute}, clk)
	require.NoError(t, err)
	return m
}

func TestIssueAndParse(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	m := newManager(t, "s3cret", fake)

	raw, expiresAt, err := m.Issue("alice")
	require.NoError(t, err)
	assert.Equal(t, fake.Now().Add(30*time.Minute), expiresAt)

	subject, err := m.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)
}

func TestParseExpired(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	m := newManager(t, "s3cret", fake)
	raw, _, err := m.Issue("alice")
	require.NoError(t, err)

	fake.Advance(31 * time.Minute)
	_, err = m.Parse(raw)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestParseWrongSecret(t *testing.T) {
	fake := clock.NewFakeClock(time.Now())
	raw, _, err := newManager(t, "one", fake).Issue("alice")
	require.NoError(t, err)

	_, err = newManager(t, "two", fake).Parse(raw)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestParseMalformedAndForeignAlgorithms(t *testing.T) {
	fake := clock.NewFakeClock(time.Now())
	m := newManager(t, "s3cret", fake)

	_, err := m.Parse("not.a.token")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(fake.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Parse(unsigned)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestNewManagerRequiresSecret(t *testing.T) {
	_, err := NewManager(config.Config{}, clock.SystemClock{})
	assert.Error(t, err)
}
