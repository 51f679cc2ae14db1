package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/evolutio/automated-orders/pkg/redis"
)

func TestOpen(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := redis.Open(ctx, redis.Config{URL: "redis://" + mr.Addr(), RetryAttempts: 1})
	require.NoError(t, err)

	require.NoError(t, redis.Healthcheck(client)(ctx))
	require.NoError(t, redis.Shutdown(client)(ctx))
	require.ErrorIs(t, redis.Healthcheck(client)(ctx), redis.ErrHealthcheckFailed)
}

func TestOpen_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := redis.Open(ctx, redis.Config{})
	require.ErrorIs(t, err, redis.ErrEmptyURL)

	_, err = redis.Open(ctx, redis.Config{URL: "mysql://nope"})
	require.ErrorIs(t, err, redis.ErrParseURL)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err = redis.Open(ctx, redis.Config{URL: "redis://" + addr, RetryAttempts: 1})
	require.ErrorIs(t, err, redis.ErrConnect)
}
