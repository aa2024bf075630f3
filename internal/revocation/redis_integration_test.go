//go:build integration

package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factgate/pkg/testutil/containers"
)

func TestRedisList(t *testing.T) {
	rc := containers.NewRedisContainer(t)

	ctx := context.Background()
	list := NewRedisList(rc.Client)

	t.Run("revoked jti round trips", func(t *testing.T) {
		require.NoError(t, list.Revoke(ctx, "jti-redis-1", time.Minute))

		revoked, err := list.IsRevoked(ctx, "jti-redis-1")
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("unknown jti is not revoked", func(t *testing.T) {
		revoked, err := list.IsRevoked(ctx, "never-revoked")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("entry expires with its ttl", func(t *testing.T) {
		require.NoError(t, list.Revoke(ctx, "jti-redis-2", 100*time.Millisecond))

		require.Eventually(t, func() bool {
			revoked, err := list.IsRevoked(ctx, "jti-redis-2")
			return err == nil && !revoked
		}, 5*time.Second, 50*time.Millisecond)
	})
}
