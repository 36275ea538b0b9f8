package health

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/zero-day-ai/planexec/interrupt"
	"github.com/zero-day-ai/planexec/pool"
)

// probeID is looked up to test store connectivity. It never exists.
const probeID = "__health_probe__"

// StoreCheck verifies the interruption store answers reads.
// A missing record is the expected answer.
func StoreCheck(ctx context.Context, store interrupt.Store) Status {
	if store == nil {
		return unhealthy("interrupt store is not configured", nil)
	}

	_, err := store.Get(ctx, probeID)
	if err == nil || errors.Is(err, interrupt.ErrNotFound) {
		return healthy("interrupt store reachable")
	}
	return unhealthy("interrupt store unreachable", map[string]any{"error": err.Error()})
}

// DirCheck verifies that path is an existing directory.
func DirCheck(path string) Status {
	if path == "" {
		return unhealthy("directory not configured", nil)
	}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return unhealthy("directory missing", map[string]any{"path": path})
	case err != nil:
		return unhealthy("directory unreadable", map[string]any{"path": path, "error": err.Error()})
	case !info.IsDir():
		return unhealthy("not a directory", map[string]any{"path": path})
	}
	return healthy("directory " + path)
}

// PoolCheck reports depths whose workers are all busy with work still queued as degraded.
func PoolCheck(stats []pool.Stats) Status {
	var saturated []int
	for _, s := range stats {
		if s.Size > 0 && s.Active >= int64(s.Size) && s.Queued > 0 {
			saturated = append(saturated, s.Depth)
		}
	}
	if len(saturated) > 0 {
		return degraded(fmt.Sprintf("%d of %d depth(s) saturated", len(saturated), len(stats)),
			map[string]any{"depths": saturated})
	}
	return healthy(fmt.Sprintf("%d depth(s) accepting work", len(stats)))
}

// Report is the engine-wide view: one Status per component and the worst level among them.
type Report struct {
	Level      Level             `json:"level"`
	Components map[string]Status `json:"components"`
}

// NewReport returns an empty, healthy report.
func NewReport() *Report {
	return &Report{Components: make(map[string]Status)}
}

// Add records the status of component, replacing an earlier one.
func (r *Report) Add(component string, s Status) {
	r.Components[component] = s
	r.Level = LevelHealthy
	for _, c := range r.Components {
		if c.Level > r.Level {
			r.Level = c.Level
		}
	}
}

// IsHealthy reports whether every component is healthy.
func (r *Report) IsHealthy() bool { return r.Level == LevelHealthy }

// Failing returns the names of components at the report's level, sorted.
// It is empty for a healthy report.
func (r *Report) Failing() []string {
	if r.Level == LevelHealthy {
		return nil
	}
	var names []string
	for name, c := range r.Components {
		if c.Level == r.Level {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Summary is a one-line description such as "degraded: pools (1 of 2 depth(s) saturated)".
func (r *Report) Summary() string {
	if r.Level == LevelHealthy {
		return fmt.Sprintf("healthy: %d component(s)", len(r.Components))
	}
	parts := make([]string, 0, len(r.Components))
	for _, name := range r.Failing() {
		parts = append(parts, fmt.Sprintf("%s (%s)", name, r.Components[name].Message))
	}
	return r.Level.String() + ": " + strings.Join(parts, ", ")
}
