// Package cache provides the institution-id → name lookup map used by
// listings. The map is the only state the core keeps between operations; it
// is advisory, rebuilt on demand, and callers tolerate it being up to one TTL
// stale.
package cache

import "context"

// Loader rebuilds the full lookup map from the directory.
type Loader func(ctx context.Context) (map[string]string, error)

// Names serves the institution name map.
type Names interface {
	// Names returns the current map, rebuilding it if the cached copy
	// expired.
	Names(ctx context.Context) (map[string]string, error)
	// Invalidate drops the cached copy; the next call rebuilds.
	Invalidate(ctx context.Context) error
}
