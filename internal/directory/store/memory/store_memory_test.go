package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"furgon/pkg/platform/sentinel"
)

type DocStoreSuite struct {
	suite.Suite
	store *DocStore
	ctx   context.Context
}

func (s *DocStoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
}

func TestDocStoreSuite(t *testing.T) {
	suite.Run(t, new(DocStoreSuite))
}

func (s *DocStoreSuite) TestPointReads() {
	s.Run("returns stored document", func() {
		s.Require().NoError(s.store.Put(s.ctx, "guardians", "1-9", []byte(`{"name":"Ana"}`)))

		doc, err := s.store.Get(s.ctx, "guardians", "1-9")
		s.Require().NoError(err)
		s.JSONEq(`{"name":"Ana"}`, string(doc))
	})

	s.Run("returns ErrNotFound for missing key", func() {
		_, err := s.store.Get(s.ctx, "guardians", "missing")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("collections are independent", func() {
		s.Require().NoError(s.store.Put(s.ctx, "students", "2-7", []byte(`{}`)))

		_, err := s.store.Get(s.ctx, "drivers", "2-7")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *DocStoreSuite) TestUpsertSemantics() {
	s.Run("put overwrites existing document", func() {
		s.Require().NoError(s.store.Put(s.ctx, "vehicles", "AB-12", []byte(`{"model":"old"}`)))
		s.Require().NoError(s.store.Put(s.ctx, "vehicles", "AB-12", []byte(`{"model":"new"}`)))

		doc, err := s.store.Get(s.ctx, "vehicles", "AB-12")
		s.Require().NoError(err)
		s.JSONEq(`{"model":"new"}`, string(doc))
	})

	s.Run("callers cannot mutate stored bytes", func() {
		doc := []byte(`{"model":"sprinter"}`)
		s.Require().NoError(s.store.Put(s.ctx, "vehicles", "CD-34", doc))
		doc[2] = 'X'

		stored, err := s.store.Get(s.ctx, "vehicles", "CD-34")
		s.Require().NoError(err)
		s.JSONEq(`{"model":"sprinter"}`, string(stored))
	})
}

func (s *DocStoreSuite) TestDelete() {
	s.Run("removes document", func() {
		s.Require().NoError(s.store.Put(s.ctx, "drivers", "3-5", []byte(`{}`)))
		s.Require().NoError(s.store.Delete(s.ctx, "drivers", "3-5"))

		_, err := s.store.Get(s.ctx, "drivers", "3-5")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("deleting a missing key is a no-op", func() {
		s.Require().NoError(s.store.Delete(s.ctx, "drivers", "never-there"))
	})
}

func (s *DocStoreSuite) TestScan() {
	s.Run("returns every document in the collection", func() {
		s.Require().NoError(s.store.Put(s.ctx, "institutions", "a", []byte(`{"n":1}`)))
		s.Require().NoError(s.store.Put(s.ctx, "institutions", "b", []byte(`{"n":2}`)))

		docs, err := s.store.Scan(s.ctx, "institutions")
		s.Require().NoError(err)
		s.Len(docs, 2)
		s.Contains(docs, "a")
		s.Contains(docs, "b")
	})

	s.Run("empty collection scans to empty map", func() {
		docs, err := s.store.Scan(s.ctx, "empty")
		s.Require().NoError(err)
		s.Empty(docs)
	})
}
