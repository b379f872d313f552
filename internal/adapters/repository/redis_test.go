package repository

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient spins up a miniredis server and returns a client plus cleanup.
func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}
	return client, mr, cleanup
}

func TestRedisStore_SaveLoad(t *testing.T) {
	client, mr, cleanup := newTestClient(t)
	defer cleanup()

	store := NewRedisStoreWithClient(client, "test:")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "weekly", []Entry{
		{Member: "alice", Score: 10},
		{Member: "bob", Score: 4.5},
	}))

	assert.True(t, mr.Exists("test:board:weekly"))
	score, err := mr.ZScore("test:board:weekly", "bob")
	require.NoError(t, err)
	assert.Equal(t, 4.5, score)

	entries, err := store.Load(ctx, "weekly")
	require.NoError(t, err)
	assert.ElementsMatch(t, []Entry{{Member: "alice", Score: 10}, {Member: "bob", Score: 4.5}}, entries)

	names, err := store.Boards(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"weekly"}, names)
}

func TestRedisStore_SaveReplaces(t *testing.T) {
	client, _, cleanup := newTestClient(t)
	defer cleanup()

	store := NewRedisStoreWithClient(client, "test:")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "weekly", []Entry{{Member: "alice", Score: 1}, {Member: "bob", Score: 2}}))
	require.NoError(t, store.Save(ctx, "weekly", []Entry{{Member: "carol", Score: 3}}))

	entries, err := store.Load(ctx, "weekly")
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Member: "carol", Score: 3}}, entries)
}

func TestRedisStore_Delete(t *testing.T) {
	client, mr, cleanup := newTestClient(t)
	defer cleanup()

	store := NewRedisStoreWithClient(client, "test:")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "daily", []Entry{{Member: "alice", Score: 1}}))
	require.NoError(t, store.Save(ctx, "weekly", []Entry{{Member: "alice", Score: 1}}))
	require.NoError(t, store.Delete(ctx, "weekly"))

	assert.False(t, mr.Exists("test:board:weekly"))
	names, err := store.Boards(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"daily"}, names)

	// saving nothing drops the board too
	require.NoError(t, store.Save(ctx, "daily", nil))
	names, err = store.Boards(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestRedisStore_LoadUnknown(t *testing.T) {
	client, _, cleanup := newTestClient(t)
	defer cleanup()

	entries, err := NewRedisStoreWithClient(client, "").Load(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := NewRedisStore(context.Background(), RedisConfig{Addr: mr.Addr(), KeyPrefix: "sb:"})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(context.Background(), "b", []Entry{{Member: "m", Score: 1}}))
	assert.True(t, mr.Exists("sb:board:b"))

	mr.Close()
	_, err = NewRedisStore(context.Background(), RedisConfig{Addr: mr.Addr()})
	assert.Error(t, err)
}
