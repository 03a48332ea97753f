package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	svc := NewTokenService("super-secret", 0)
	assert.Equal(t, time.Hour, svc.TTL())

	tok, err := svc.Issue("user-123", "alice")
	require.NoError(t, err)

	claims, err := svc.Verify(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	require.NotNil(t, claims.IssuedAt)
	require.NotNil(t, claims.ExpiresAt)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestVerifyRespectsTTLWindow(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewTokenService("secret", time.Hour).WithClock(clock.Now)

	tok, err := svc.Issue("u1", "alice")
	require.NoError(t, err)

	clock.t = clock.t.Add(59 * time.Minute)
	_, err = svc.Verify(tok.Token)
	require.NoError(t, err)

	clock.t = clock.t.Add(2 * time.Minute)
	_, err = svc.Verify(tok.Token)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.ErrorIs(t, err, ErrToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenService("right-secret", time.Hour).Issue("u2", "bob")
	require.NoError(t, err)

	_, err = NewTokenService("wrong-secret", time.Hour).Verify(tok.Token)
	assert.ErrorIs(t, err, ErrTokenBadSignature)
}

func TestVerifySignatureCheckedBeforeExpiry(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenService("right-secret", time.Hour).IssueWithTTL("u2", "bob", -time.Minute)
	require.NoError(t, err)

	_, err = NewTokenService("wrong-secret", time.Hour).Verify(tok.Token)
	assert.ErrorIs(t, err, ErrTokenBadSignature)
}

func TestVerifyMalformed(t *testing.T) {
	t.Parallel()

	svc := NewTokenService("k", time.Hour)
	for _, raw := range []string{"", "not.a.jwt", "garbage"} {
		_, err := svc.Verify(raw)
		assert.ErrorIs(t, err, ErrTokenMalformed, "raw=%q", raw)
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	claims := Claims{
		Username: "mallory",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u3",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = NewTokenService("k", time.Hour).Verify(raw)
	assert.ErrorIs(t, err, ErrTokenBadSignature)
}

func TestVerifyRequiresSubject(t *testing.T) {
	t.Parallel()

	svc := NewTokenService("k", time.Hour)
	tok, err := svc.Issue("", "nobody")
	require.NoError(t, err)

	_, err = svc.Verify(tok.Token)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}
