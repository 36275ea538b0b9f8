package health

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/planexec/interrupt"
	"github.com/zero-day-ai/planexec/pool"
)

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (interrupt.Record, error) {
	return interrupt.Record{}, errors.New("connection refused")
}
func (brokenStore) Put(context.Context, interrupt.Record) error { return nil }
func (brokenStore) Delete(context.Context, string) error { return nil }

func TestStoreCheck(t *testing.T) {
	ctx := context.Background()

	assert.True(t, StoreCheck(ctx, interrupt.NewMemoryStore()).IsHealthy())
	assert.True(t, StoreCheck(ctx, nil).IsUnhealthy())

	status := StoreCheck(ctx, brokenStore{})
	require.True(t, status.IsUnhealthy())
	assert.Equal(t, "connection refused", status.Details["error"])
}

func TestDirCheck(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	assert.True(t, DirCheck(dir).IsHealthy())
	assert.Equal(t, "not a directory", DirCheck(file).Message)
	assert.Equal(t, "directory missing", DirCheck(filepath.Join(dir, "missing")).Message)
	assert.True(t, DirCheck("").IsUnhealthy())
}

func TestPoolCheck(t *testing.T) {
	assert.True(t, PoolCheck(nil).IsHealthy())

	status := PoolCheck([]pool.Stats{
		{Depth: 0, Size: 2, Active: 2, Queued: 3},
		{Depth: 1, Size: 2, Active: 2, Queued: 0},
		{Depth: 2, Size: 2, Active: 1, Queued: 5},
	})
	require.True(t, status.IsDegraded())
	assert.Equal(t, []int{0}, status.Details["depths"])
	assert.Equal(t, "1 of 3 depth(s) saturated", status.Message)
}

func TestReport(t *testing.T) {
	r := NewReport()
	assert.True(t, r.IsHealthy())
	assert.Empty(t, r.Failing())

	r.Add("store", healthy("ok"))
	r.Add("pools", degraded("busy", nil))
	assert.Equal(t, LevelDegraded, r.Level)
	assert.Equal(t, "degraded: pools (busy)", r.Summary())

	r.Add("upload_root", unhealthy("directory missing", nil))
	r.Add("plan_root", unhealthy("not a directory", nil))
	assert.Equal(t, LevelUnhealthy, r.Level)
	assert.Equal(t, []string{"plan_root", "upload_root"}, r.Failing())

	r.Add("upload_root", healthy("directory /tmp"))
	r.Add("plan_root", healthy("directory /tmp"))
	assert.Equal(t, LevelDegraded, r.Level, "replacing a status recomputes the level")

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"level":"degraded"`)
}
