package interrupt

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	store, err := NewRedisStore(RedisOptions{
		URL: fmt.Sprintf("redis://%s", mr.Addr()),
		TTL: time.Hour,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = store.Close()
	})
	return store, mr
}

func TestNewRedisStore(t *testing.T) {
	t.Run("invalid URL", func(t *testing.T) {
		_, err := NewRedisStore(RedisOptions{URL: "invalid://url"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse Redis URL")
	})

	t.Run("connection failure", func(t *testing.T) {
		_, err := NewRedisStore(RedisOptions{
			URL:            "redis://localhost:99999",
			ConnectTimeout: 100 * time.Millisecond,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to connect to Redis")
	})
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := setupRedisStore(t)

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	rec := Record{RootPlanID: "root-1", DesiredState: StateStop, LastUpdated: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, store.Put(ctx, rec))

	assert.True(t, mr.Exists("planexec:interrupt:root-1"))
	assert.Equal(t, time.Hour, mr.TTL("planexec:interrupt:root-1"))

	got, err := store.Get(ctx, "root-1")
	require.NoError(t, err)
	assert.Equal(t, StateStop, got.DesiredState)
	assert.True(t, rec.LastUpdated.Equal(got.LastUpdated))

	require.NoError(t, store.Delete(ctx, "root-1"))
	_, err = store.Get(ctx, "root-1")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Put(ctx, Record{}), ErrInvalidPlanID)
}

func TestRedisStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := setupRedisStore(t)

	require.NoError(t, store.Put(ctx, Record{RootPlanID: "r", DesiredState: StateCancel}))
	mr.FastForward(2 * time.Hour)

	_, err := store.Get(ctx, "r")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGateOverRedisSharesState(t *testing.T) {
	ctx := context.Background()
	store, mr := setupRedisStore(t)

	other, err := NewRedisStore(RedisOptions{URL: fmt.Sprintf("redis://%s", mr.Addr())})
	require.NoError(t, err)
	defer other.Close()

	stopper := NewGate(store)
	checker := NewGate(other)

	require.NoError(t, stopper.Stop(ctx, "root-x"))
	assert.False(t, checker.CheckInterruptionAndContinue(ctx, "root-x"))
}

func TestEtcdKey(t *testing.T) {
	assert.Equal(t, "/planexec/interrupt/root-1", etcdKey("planexec", "root-1"))
	_, err := NewEtcdStore(EtcdConfig{})
	assert.Error(t, err)
}
