package shared

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/vpants/bookkeeper/internal/platform/httpx"
)

func TestRedisKeyStoreClaimAndRelease(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()
	keys := NewRedisKeyStore(client, time.Hour)

	require.NoError(t, keys.Claim(ctx, "sales", "abc"))
	err := keys.Claim(ctx, "sales", "abc")
	require.ErrorIs(t, err, ErrIdempotencyReplay)
	require.ErrorIs(t, err, httpx.ErrConflict)
	require.NoError(t, keys.Claim(ctx, "production", "abc"), "scopes are independent")

	require.NoError(t, keys.Release(ctx, "sales", "abc"))
	require.NoError(t, keys.Claim(ctx, "sales", "abc"))

	mr.FastForward(2 * time.Hour)
	require.NoError(t, keys.Claim(ctx, "sales", "abc"), "claims expire")
}

func TestKeyStoreRejectsBlankKey(t *testing.T) {
	keys := NewRedisKeyStore(nil, 0)
	require.ErrorIs(t, keys.Claim(context.Background(), "sales", ""), ErrIdempotencyKeyRequired)
}
