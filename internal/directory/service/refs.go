package service

import (
	"context"
	"errors"
	"strings"

	"furgon/internal/directory/models"
	"furgon/internal/directory/store"
	dErrors "furgon/pkg/domain-errors"
	"furgon/pkg/platform/sentinel"
	"furgon/pkg/rut"
)

// canonRUT adapts rut.Normalize to the string-keyed pipeline.
func canonRUT(raw string) (string, error) {
	key, err := rut.Normalize(raw)
	if err != nil {
		return "", err
	}
	return key.String(), nil
}

// anyMatch scans a collection and reports whether any record satisfies pred.
func anyMatch[E any](ctx context.Context, s *Service, collection string, pred func(E) bool) (bool, error) {
	docs, err := s.docs.Scan(ctx, collection)
	if err != nil {
		return false, translateStore(err, "scan "+collection)
	}
	for _, doc := range docs {
		rec, err := decode[E](doc)
		if err != nil {
			return false, err
		}
		if pred(rec) {
			return true, nil
		}
	}
	return false, nil
}

// requireInstitution fails with DanglingReference unless the institution
// exists.
func (s *Service) requireInstitution(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "institution reference is required")
	}
	_, err := s.docs.Get(ctx, store.ColInstitutions, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Newf(dErrors.CodeDanglingReference, "institution %s does not exist", id)
	}
	if err != nil {
		return translateStore(err, "resolve institution reference")
	}
	return nil
}

// requireEmailAvailable enforces case-insensitive email uniqueness across
// administrators, excluding the record identified by prevKey.
func (s *Service) requireEmailAvailable(ctx context.Context, email, prevKey string) error {
	want := strings.ToLower(strings.TrimSpace(email))
	taken, err := anyMatch(ctx, s, store.ColAdministrators, func(a models.Administrator) bool {
		return strings.ToLower(a.Email) == want && a.Key() != prevKey
	})
	if err != nil {
		return err
	}
	if taken {
		return dErrors.Newf(dErrors.CodeDuplicateKey, "email %s is already in use", email)
	}
	return nil
}
