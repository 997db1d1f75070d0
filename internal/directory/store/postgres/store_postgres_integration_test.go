//go:build integration

package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"furgon/internal/directory/store/postgres"
	"furgon/pkg/platform/sentinel"
	"furgon/pkg/testutil/containers"
)

type PostgresDocStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *postgres.DocStore
	ctx   context.Context
}

func TestPostgresDocStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresDocStoreSuite))
}

func (s *PostgresDocStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())

	_, err := s.pg.DB.ExecContext(s.ctx, postgres.Schema)
	s.Require().NoError(err)

	s.store = postgres.New(s.pg.DB)
}

func (s *PostgresDocStoreSuite) SetupTest() {
	_, err := s.pg.DB.ExecContext(s.ctx, `TRUNCATE TABLE documents`)
	s.Require().NoError(err)
}

func (s *PostgresDocStoreSuite) TestRoundTrip() {
	s.Run("put then get returns the document", func() {
		s.Require().NoError(s.store.Put(s.ctx, "guardians", "12345678-5", []byte(`{"name":"Ana"}`)))

		doc, err := s.store.Get(s.ctx, "guardians", "12345678-5")
		s.Require().NoError(err)
		s.JSONEq(`{"name":"Ana"}`, string(doc))
	})

	s.Run("get of missing key returns ErrNotFound", func() {
		_, err := s.store.Get(s.ctx, "guardians", "missing")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("put upserts over an existing document", func() {
		s.Require().NoError(s.store.Put(s.ctx, "vehicles", "AB-12", []byte(`{"model":"old"}`)))
		s.Require().NoError(s.store.Put(s.ctx, "vehicles", "AB-12", []byte(`{"model":"new"}`)))

		doc, err := s.store.Get(s.ctx, "vehicles", "AB-12")
		s.Require().NoError(err)
		s.JSONEq(`{"model":"new"}`, string(doc))
	})
}

func (s *PostgresDocStoreSuite) TestDeleteAndScan() {
	s.Run("delete removes the document and tolerates misses", func() {
		s.Require().NoError(s.store.Put(s.ctx, "drivers", "1-9", []byte(`{}`)))
		s.Require().NoError(s.store.Delete(s.ctx, "drivers", "1-9"))
		s.Require().NoError(s.store.Delete(s.ctx, "drivers", "1-9"))

		_, err := s.store.Get(s.ctx, "drivers", "1-9")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("scan returns only the requested collection", func() {
		s.Require().NoError(s.store.Put(s.ctx, "students", "a", []byte(`{"n":1}`)))
		s.Require().NoError(s.store.Put(s.ctx, "students", "b", []byte(`{"n":2}`)))
		s.Require().NoError(s.store.Put(s.ctx, "drivers", "c", []byte(`{"n":3}`)))

		docs, err := s.store.Scan(s.ctx, "students")
		s.Require().NoError(err)
		s.Len(docs, 2)
		s.Contains(docs, "a")
		s.Contains(docs, "b")
	})
}
