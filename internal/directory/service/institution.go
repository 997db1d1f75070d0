package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"furgon/internal/directory/models"
	"furgon/internal/directory/store"
	"furgon/internal/scope"
	dErrors "furgon/pkg/domain-errors"
)

func institutionDef() entity[models.Institution] {
	return entity[models.Institution]{
		collection: store.ColInstitutions,
		keyJSON:    "id",
		canonKey: func(raw string) (string, error) {
			id := strings.TrimSpace(raw)
			if id == "" {
				return "", dErrors.New(dErrors.CodeMalformedKey, "institution id is empty")
			}
			return id, nil
		},
		prepare: func(ctx context.Context, s *Service, rec *models.Institution, prevKey string) error {
			rec.Name = strings.TrimSpace(rec.Name)
			if rec.Name == "" {
				return dErrors.New(dErrors.CodeInvalidInput, "institution name is required")
			}
			if prevKey == "" {
				rec.ID = uuid.NewString()
				next, err := s.nextDisplayID(ctx)
				if err != nil {
					return err
				}
				rec.DisplayID = next
			}
			return nil
		},
		beforeDelete: func(ctx context.Context, s *Service, rec *models.Institution) error {
			return s.requireNoDependents(ctx, rec.ID)
		},
		stampCreate: func(rec *models.Institution, now time.Time) {
			rec.CreatedAt = now
			rec.UpdatedAt = now
		},
		stampUpdate:  func(rec *models.Institution, now time.Time) { rec.UpdatedAt = now },
		touchesNames: true,
	}
}

// CreateInstitution registers a new tenant root. The id and sequential
// display id are generated here; caller-supplied values are ignored.
func (s *Service) CreateInstitution(ctx context.Context, sc scope.Scope, inst models.Institution) (models.Institution, error) {
	return create(ctx, s, institutionDef(), sc, inst)
}

func (s *Service) GetInstitution(ctx context.Context, sc scope.Scope, id string) (models.Institution, error) {
	return get(ctx, s, institutionDef(), sc, id)
}

func (s *Service) ListInstitutions(ctx context.Context, sc scope.Scope, institutionFilter string) ([]models.Institution, error) {
	return list(ctx, s, institutionDef(), sc, institutionFilter)
}

func (s *Service) UpdateInstitution(ctx context.Context, sc scope.Scope, id string, patch map[string]any) (models.Institution, error) {
	return update(ctx, s, institutionDef(), sc, id, patch)
}

// DeleteInstitution removes an institution with no remaining records. While
// any administrator, guardian, student, driver or vehicle still references
// it, deletion fails with DanglingReference.
func (s *Service) DeleteInstitution(ctx context.Context, sc scope.Scope, id string) error {
	return del(ctx, s, institutionDef(), sc, id)
}

// nextDisplayID assigns sequential human-facing numbers. Concurrent creates
// can collide on the same number; display ids are presentation only and the
// real key is the uuid.
func (s *Service) nextDisplayID(ctx context.Context) (int, error) {
	docs, err := s.docs.Scan(ctx, store.ColInstitutions)
	if err != nil {
		return 0, translateStore(err, "scan institutions")
	}
	max := 0
	for _, doc := range docs {
		inst, err := decode[models.Institution](doc)
		if err != nil {
			return 0, err
		}
		if inst.DisplayID > max {
			max = inst.DisplayID
		}
	}
	return max + 1, nil
}

func (s *Service) requireNoDependents(ctx context.Context, institutionID string) error {
	owned := func(ref string) bool { return ref == institutionID }
	checks := []struct {
		collection string
		match      func(ctx context.Context) (bool, error)
	}{
		{store.ColAdministrators, func(ctx context.Context) (bool, error) {
			// Soft-deleted administrators do not block: they are audit
			// residue, not live records.
			return anyMatch(ctx, s, store.ColAdministrators, func(a models.Administrator) bool {
				return owned(a.InstitutionID) && !a.IsDeleted()
			})
		}},
		{store.ColGuardians, func(ctx context.Context) (bool, error) {
			return anyMatch(ctx, s, store.ColGuardians, func(g models.Guardian) bool { return owned(g.InstitutionID) })
		}},
		{store.ColStudents, func(ctx context.Context) (bool, error) {
			return anyMatch(ctx, s, store.ColStudents, func(st models.Student) bool { return owned(st.InstitutionID) })
		}},
		{store.ColDrivers, func(ctx context.Context) (bool, error) {
			return anyMatch(ctx, s, store.ColDrivers, func(d models.Driver) bool { return owned(d.InstitutionID) })
		}},
		{store.ColVehicles, func(ctx context.Context) (bool, error) {
			return anyMatch(ctx, s, store.ColVehicles, func(v models.Vehicle) bool { return owned(v.InstitutionID) })
		}},
	}
	for _, c := range checks {
		found, err := c.match(ctx)
		if err != nil {
			return err
		}
		if found {
			return dErrors.Newf(dErrors.CodeDanglingReference,
				"institution %s still has records in %s", institutionID, c.collection)
		}
	}
	return nil
}
