//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/diagnosis/gatepass/services/passes/internal/domain"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	addr, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(addr)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisHandoffStore(t *testing.T) {
	ctx := context.Background()
	client := newRedisClient(t)
	s := NewRedisHandoffStore(client, "test")

	fields := map[string]string{"v": "1", "pass_id": "A-101-20250501-1000", "db_record_id": "42"}
	require.NoError(t, s.Put(ctx, "tok", fields, time.Minute))

	ttl, err := client.TTL(ctx, "test:handoff:tok").Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))

	got, err := s.Take(ctx, "tok")
	require.NoError(t, err)
	require.Equal(t, fields, got)

	_, err = s.Take(ctx, "tok")
	require.ErrorIs(t, err, domain.ErrHandoffNotFound)

	exists, err := client.Exists(ctx, "test:handoff:tok").Result()
	require.NoError(t, err)
	require.Zero(t, exists)
}
