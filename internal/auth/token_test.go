package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-tracker/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)

	token, exp, err := tm.GenerateToken(domain.Principal{ID: "a1", Name: "Ada"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), exp, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, domain.Principal{ID: "a1", Name: "Ada"}, claims.Principal())
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenManager("secret", 5).GenerateToken(domain.Principal{ID: "a1"})
	require.NoError(t, err)

	_, err = NewTokenManager("other", 5).ParseToken(token)
	assert.Error(t, err)
}

func TestTokenExpires(t *testing.T) {
	tm := NewTokenManager("secret", 1)
	start := time.Now()
	tm.now = func() time.Time { return start }
	token, _, err := tm.GenerateToken(domain.Principal{ID: "a1"})
	require.NoError(t, err)

	tm.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = tm.ParseToken(token)
	assert.Error(t, err)
}

func TestGenerateTokenRequiresID(t *testing.T) {
	_, _, err := NewTokenManager("secret", 5).GenerateToken(domain.Principal{Name: "nobody"})
	assert.Error(t, err)
}

func TestDefaultTTL(t *testing.T) {
	tm := NewTokenManager("secret", 0)
	start := time.Now()
	tm.now = func() time.Time { return start }
	_, exp, err := tm.GenerateToken(domain.Principal{ID: "a1"})
	require.NoError(t, err)
	assert.Equal(t, start.Add(time.Hour), exp)
}
