package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/pkg/config"
)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestStore_ReserveYRelease(t *testing.T) {
	mr, client := newMiniredis(t)
	s := NewStore(client)
	ctx := context.Background()

	ok, err := s.Reserve(ctx, "withdraw:u1:k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists(keyPrefix+"withdraw:u1:k1"))

	ok, err = s.Reserve(ctx, "withdraw:u1:k1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "la segunda reserva de la misma clave debe fallar")

	require.NoError(t, s.Release(ctx, "withdraw:u1:k1"))
	ok, err = s.Reserve(ctx, "withdraw:u1:k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "tras liberar la clave se puede reservar otra vez")
}

func TestStore_ReserveExpira(t *testing.T) {
	mr, client := newMiniredis(t)
	s := NewStore(client)
	ctx := context.Background()

	ok, err := s.Reserve(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = s.Reserve(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_ErrorDeRedis(t *testing.T) {
	mr, client := newMiniredis(t)
	s := NewStore(client)
	mr.Close()

	_, err := s.Reserve(context.Background(), "k", time.Minute)
	require.Error(t, err)
}

func TestMemoryStore_ReserveReleaseYExpiracion(t *testing.T) {
	m := NewMemoryStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.clock = func() time.Time { return now }
	ctx := context.Background()

	ok, _ := m.Reserve(ctx, "k", time.Minute)
	assert.True(t, ok)
	ok, _ = m.Reserve(ctx, "k", time.Minute)
	assert.False(t, ok)

	now = now.Add(time.Minute)
	ok, _ = m.Reserve(ctx, "k", time.Minute)
	assert.True(t, ok, "la clave vence al cumplirse el TTL")

	require.NoError(t, m.Release(ctx, "k"))
	ok, _ = m.Reserve(ctx, "k", time.Minute)
	assert.True(t, ok)
}

func TestNewIdempotencyStore_Fallback(t *testing.T) {
	ctx := context.Background()
	assert.IsType(t, &MemoryStore{}, NewIdempotencyStore(ctx, nil))

	unreachable := goredis.NewClient(&goredis.Options{
		Addr:         "127.0.0.1:1",
		DialTimeout:  5 * time.Millisecond,
		ReadTimeout:  5 * time.Millisecond,
		WriteTimeout: 5 * time.Millisecond,
		MaxRetries:   -1,
	})
	defer unreachable.Close()
	assert.IsType(t, &MemoryStore{}, NewIdempotencyStore(ctx, unreachable))

	_, client := newMiniredis(t)
	assert.IsType(t, &Store{}, NewIdempotencyStore(ctx, client))
}

func TestNewClient(t *testing.T) {
	assert.Nil(t, NewClient(config.RedisConfig{}))
	c := NewClient(config.RedisConfig{Addr: "localhost:6379", DB: 2})
	require.NotNil(t, c)
	assert.Equal(t, 2, c.Options().DB)
	_ = c.Close()
}
