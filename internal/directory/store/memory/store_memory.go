// Package memory implements the document store over in-process maps. It backs
// unit tests and local development; semantics mirror the remote store:
// upserts, no-op deletes of missing keys, snapshot scans.
package memory

import (
	"context"
	"sync"

	"furgon/pkg/platform/sentinel"
)

type DocStore struct {
	mu   sync.RWMutex
	cols map[string]map[string][]byte
}

func New() *DocStore {
	return &DocStore{cols: make(map[string]map[string][]byte)}
}

func (s *DocStore) Get(_ context.Context, collection, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.cols[collection][key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return append([]byte(nil), doc...), nil
}

func (s *DocStore) Put(_ context.Context, collection, key string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.cols[collection]
	if !ok {
		col = make(map[string][]byte)
		s.cols[collection] = col
	}
	col[key] = append([]byte(nil), doc...)
	return nil
}

func (s *DocStore) Delete(_ context.Context, collection, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cols[collection], key)
	return nil
}

func (s *DocStore) Scan(_ context.Context, collection string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]byte, len(s.cols[collection]))
	for k, doc := range s.cols[collection] {
		out[k] = append([]byte(nil), doc...)
	}
	return out, nil
}
