// Package assets manages the optional image blob attached to a directory
// record. The only ordering the core guarantees across remote calls lives
// here: a new blob is durably stored before the old one is reclaimed, so a
// crash can leak a blob but never leave a record pointing at nothing.
package assets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"

	"github.com/google/uuid"

	"furgon/pkg/platform/sentinel"
)

// BlobStore is the external blob storage contract.
type BlobStore interface {
	// Put stores bytes under the given object path and returns the blob's
	// stable URL.
	Put(ctx context.Context, objectPath string, data []byte) (string, error)
	// Delete removes the blob behind a URL. Deleting an absent blob must
	// return sentinel.ErrNotFound.
	Delete(ctx context.Context, url string) error
}

// Manager implements the record-image lifecycle: at most one live blob per
// record, previous blob reclaimed exactly once on replacement or deletion.
type Manager struct {
	blobs  BlobStore
	logger *slog.Logger
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

func NewManager(blobs BlobStore, opts ...Option) *Manager {
	m := &Manager{blobs: blobs, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Replace stores a new image blob for a record and returns its URL. The
// caller must persist the returned reference on the record and only then
// reclaim prevRef; Replace itself never touches the previous blob, keeping
// the store-then-reclaim ordering in one obvious place (the directory
// mutation path).
func (m *Manager) Replace(ctx context.Context, entity, key, filename string, data []byte) (string, error) {
	// A fresh object name per upload; replacing never overwrites in place,
	// otherwise a failed write could corrupt the live blob.
	objectPath := path.Join(entity, key, uuid.NewString()+path.Ext(filename))
	url, err := m.blobs.Put(ctx, objectPath, data)
	if err != nil {
		return "", fmt.Errorf("store image %s: %w", objectPath, err)
	}
	return url, nil
}

// Reclaim deletes the blob behind ref. An empty or already-absent reference
// is a no-op, not an error, which is what makes reclaim idempotent under the
// crash-replay and double-call cases.
func (m *Manager) Reclaim(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	err := m.blobs.Delete(ctx, ref)
	if errors.Is(err, sentinel.ErrNotFound) {
		m.logger.DebugContext(ctx, "blob already absent", "ref", ref)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reclaim image %s: %w", ref, err)
	}
	return nil
}
