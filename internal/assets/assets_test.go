package assets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ManagerSuite struct {
	suite.Suite
	blobs   *InMemoryBlobStore
	manager *Manager
	ctx     context.Context
}

func (s *ManagerSuite) SetupTest() {
	s.blobs = NewInMemoryBlobStore()
	s.manager = NewManager(s.blobs)
	s.ctx = context.Background()
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) TestReplace() {
	s.Run("stores the blob and returns a stable reference", func() {
		url, err := s.manager.Replace(s.ctx, "guardians", "12345678-5", "photo.png", []byte("img"))
		s.Require().NoError(err)
		s.True(s.blobs.Exists(url))
		s.Contains(url, "guardians/12345678-5/")
		s.Contains(url, ".png")
	})

	s.Run("never reuses object names across replacements", func() {
		first, err := s.manager.Replace(s.ctx, "vehicles", "AB-12", "bus.jpg", []byte("one"))
		s.Require().NoError(err)
		second, err := s.manager.Replace(s.ctx, "vehicles", "AB-12", "bus.jpg", []byte("two"))
		s.Require().NoError(err)

		s.NotEqual(first, second)
		s.True(s.blobs.Exists(first), "replace must not touch the previous blob")
		s.True(s.blobs.Exists(second))
	})
}

func (s *ManagerSuite) TestReclaim() {
	s.Run("deletes the blob exactly once", func() {
		url, err := s.manager.Replace(s.ctx, "drivers", "1-9", "face.jpg", []byte("img"))
		s.Require().NoError(err)

		s.Require().NoError(s.manager.Reclaim(s.ctx, url))
		s.False(s.blobs.Exists(url))
		s.Len(s.blobs.Deletes(), 1)
	})

	s.Run("empty reference is a no-op", func() {
		blobs := NewInMemoryBlobStore()
		manager := NewManager(blobs)

		s.Require().NoError(manager.Reclaim(s.ctx, ""))
		s.Empty(blobs.Deletes())
	})

	s.Run("already-absent blob is a no-op, not an error", func() {
		s.Require().NoError(s.manager.Reclaim(s.ctx, "mem://gone"))
		s.Require().NoError(s.manager.Reclaim(s.ctx, "mem://gone"))
	})
}
