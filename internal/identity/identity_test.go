package identity

import (
	"io"
	"log/slog"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campfireapp/campfire-server/internal/domain"
)

func newTestResolver(t *testing.T, secret string) *Resolver {
	t.Helper()
	return NewResolver(secret, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestResolve_ValidToken(t *testing.T) {
	r := newTestResolver(t, "test-secret")

	token, err := r.Sign(domain.Participant{ID: "user-1", DisplayName: "Sarah Chen"})
	require.NoError(t, err)

	p, err := r.Resolve(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", p.ID)
	assert.Equal(t, "Sarah Chen", p.DisplayName)
	assert.False(t, p.IsGuest())
}

func TestResolve_DisplayNameFallsBackToSubject(t *testing.T) {
	r := newTestResolver(t, "test-secret")

	token, err := r.Sign(domain.Participant{ID: "user-1"})
	require.NoError(t, err)

	p, err := r.Resolve(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", p.DisplayName)
}

func TestResolve_RejectsWrongSecret(t *testing.T) {
	issuer := newTestResolver(t, "other-secret")
	token, err := issuer.Sign(domain.Participant{ID: "user-1"})
	require.NoError(t, err)

	r := newTestResolver(t, "test-secret")
	_, err = r.Resolve(token)
	assert.Error(t, err)
}

func TestResolve_RejectsWrongAlgorithm(t *testing.T) {
	// Token signed with none must never verify.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-1"})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	r := newTestResolver(t, "test-secret")
	_, err = r.Resolve(token)
	assert.Error(t, err)
}

func TestResolveOrGuest(t *testing.T) {
	r := newTestResolver(t, "test-secret")

	t.Run("empty token is a guest", func(t *testing.T) {
		p := r.ResolveOrGuest("")
		assert.True(t, p.IsGuest())
	})

	t.Run("garbage token is a guest", func(t *testing.T) {
		p := r.ResolveOrGuest("not-a-token")
		assert.True(t, p.IsGuest())
	})

	t.Run("valid token resolves", func(t *testing.T) {
		token, err := r.Sign(domain.Participant{ID: "user-1", DisplayName: "Sarah"})
		require.NoError(t, err)
		p := r.ResolveOrGuest(token)
		assert.Equal(t, "user-1", p.ID)
	})
}

func TestResolveOrGuest_NoSecretConfigured(t *testing.T) {
	r := newTestResolver(t, "")

	p := r.ResolveOrGuest("anything")
	assert.True(t, p.IsGuest())
}
