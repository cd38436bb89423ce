package loadingstore

import (
	"context"
	"farm-delivery-service/internal/domain"
	"farm-delivery-service/internal/ports"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, 24*time.Hour), mr
}

// exerciseStore runs the same contract checks against any LoadingStore.
func exerciseStore(t *testing.T, s ports.LoadingStore) {
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 7, 30, 0, 0, time.UTC)

	_, ok, err := s.Get(ctx, "day-1", "100")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "day-1", domain.LoadedEntry{OrderID: "100", LoadedAt: at, Section: domain.SectionFreezer}))
	require.NoError(t, s.Put(ctx, "day-1", domain.LoadedEntry{OrderID: "101", LoadedAt: at, Section: domain.SectionFridge}))
	require.NoError(t, s.Put(ctx, "day-2", domain.LoadedEntry{OrderID: "100", LoadedAt: at, Section: domain.SectionFreezer}))

	e, ok, err := s.Get(ctx, "day-1", "100")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.SectionFreezer, e.Section)
	assert.True(t, at.Equal(e.LoadedAt))

	all, err := s.All(ctx, "day-1")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, s.Delete(ctx, "day-1", "100"))
	_, ok, err = s.Get(ctx, "day-1", "100")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Clear(ctx, "day-1"))
	all, err = s.All(ctx, "day-1")
	require.NoError(t, err)
	assert.Empty(t, all)

	other, err := s.All(ctx, "day-2")
	require.NoError(t, err)
	assert.Len(t, other, 1, "tables are independent")
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	s, _ := newRedisStore(t)
	exerciseStore(t, s)
}

func TestRedisStoreExpiresTables(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "day-1", domain.LoadedEntry{OrderID: "1", Section: domain.SectionFridge}))
	assert.Equal(t, 24*time.Hour, mr.TTL(keyPrefix+"day-1"))

	mr.FastForward(25 * time.Hour)
	all, err := s.All(ctx, "day-1")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRedisStoreRejectsCorruptEntry(t *testing.T) {
	s, mr := newRedisStore(t)
	mr.HSet(keyPrefix+"day-1", "1", "{not json")

	_, _, err := s.Get(context.Background(), "day-1", "1")
	require.Error(t, err)
	_, err = s.All(context.Background(), "day-1")
	require.Error(t, err)
}
