package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryList(t *testing.T) {
	ctx := context.Background()
	list := NewMemoryList()

	t.Run("unknown jti is not revoked", func(t *testing.T) {
		revoked, err := list.IsRevoked(ctx, "unknown")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("revoked jti is revoked until expiry", func(t *testing.T) {
		require.NoError(t, list.Revoke(ctx, "jti-1", time.Hour))
		revoked, err := list.IsRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("expired entry is forgotten", func(t *testing.T) {
		require.NoError(t, list.Revoke(ctx, "jti-2", -time.Second))
		revoked, err := list.IsRevoked(ctx, "jti-2")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("empty jti is a no-op", func(t *testing.T) {
		require.NoError(t, list.Revoke(ctx, "", time.Hour))
		revoked, err := list.IsRevoked(ctx, "")
		require.NoError(t, err)
		assert.False(t, revoked)
	})
}
