package agent

import "context"

// Lineage identifies where a plan sits in its tree.
type Lineage struct {
	CurrentPlanID string
	RootPlanID    string
	Depth         int
}

// ToolCallback invokes a tool on behalf of an agent.
type ToolCallback func(ctx context.Context, input string) (string, error)

// ToolCatalog looks up tool callbacks for a plan lineage.
// Tools such as file operators keep per-plan state, so lookups are scoped.
type ToolCatalog interface {
	Lookup(lineage Lineage, key string) (ToolCallback, bool)
}

// ScopedTools binds a catalog to one lineage.
type ScopedTools struct {
	catalog ToolCatalog
	lineage Lineage
}

// NewScopedTools returns a lookup restricted to lineage. A nil catalog yields nil.
func NewScopedTools(catalog ToolCatalog, lineage Lineage) *ScopedTools {
	if catalog == nil {
		return nil
	}
	return &ScopedTools{catalog: catalog, lineage: lineage}
}

// Lineage returns the lineage the lookup is bound to.
func (s *ScopedTools) Lineage() Lineage {
	return s.lineage
}

// Lookup finds a tool callback by key.
func (s *ScopedTools) Lookup(key string) (ToolCallback, bool) {
	if s == nil {
		return nil, false
	}
	return s.catalog.Lookup(s.lineage, key)
}

// Resolve returns the callbacks for keys, skipping unknown ones.
func (s *ScopedTools) Resolve(keys []string) map[string]ToolCallback {
	out := make(map[string]ToolCallback, len(keys))
	for _, k := range keys {
		if cb, ok := s.Lookup(k); ok {
			out[k] = cb
		}
	}
	return out
}

// MapCatalog is a ToolCatalog backed by a static map; every lineage sees the same tools.
type MapCatalog map[string]ToolCallback

// Lookup returns the callback registered under key.
func (m MapCatalog) Lookup(_ Lineage, key string) (ToolCallback, bool) {
	cb, ok := m[key]
	return cb, ok
}
