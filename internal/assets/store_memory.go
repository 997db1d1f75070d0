package assets

import (
	"context"
	"sync"

	"furgon/pkg/platform/sentinel"
)

// InMemoryBlobStore backs tests. It records every delete so suites can assert
// the exactly-once reclamation property.
type InMemoryBlobStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	deletes []string
}

func NewInMemoryBlobStore() *InMemoryBlobStore {
	return &InMemoryBlobStore{blobs: make(map[string][]byte)}
}

func (s *InMemoryBlobStore) Put(_ context.Context, objectPath string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	url := "mem://" + objectPath
	s.blobs[url] = append([]byte(nil), data...)
	return url, nil
}

func (s *InMemoryBlobStore) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, url)
	if _, ok := s.blobs[url]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.blobs, url)
	return nil
}

// Exists reports whether a blob is live.
func (s *InMemoryBlobStore) Exists(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[url]
	return ok
}

// Deletes returns every delete call seen, in order, including those that hit
// absent blobs.
func (s *InMemoryBlobStore) Deletes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deletes...)
}
