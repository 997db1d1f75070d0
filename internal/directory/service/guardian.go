package service

import (
	"context"
	"time"

	"furgon/internal/directory/models"
	"furgon/internal/directory/store"
	"furgon/internal/scope"
	dErrors "furgon/pkg/domain-errors"
	"furgon/pkg/rut"
)

func guardianDef() entity[models.Guardian] {
	return entity[models.Guardian]{
		collection: store.ColGuardians,
		keyJSON:    "rut",
		canonKey:   canonRUT,
		prepare: func(ctx context.Context, s *Service, rec *models.Guardian, prevKey string) error {
			key, err := rut.Normalize(rec.RUT.String())
			if err != nil {
				return err
			}
			rec.RUT = key
			return s.requireInstitution(ctx, rec.InstitutionID)
		},
		beforeDelete: func(ctx context.Context, s *Service, rec *models.Guardian) error {
			key := rec.RUT.String()
			referenced, err := anyMatch(ctx, s, store.ColStudents, func(st models.Student) bool {
				return st.GuardianRef == key
			})
			if err != nil {
				return err
			}
			if referenced {
				return dErrors.Newf(dErrors.CodeDanglingReference,
					"guardian %s still has students assigned", key)
			}
			return nil
		},
		stampCreate: func(rec *models.Guardian, now time.Time) {
			rec.CreatedAt = now
			rec.UpdatedAt = now
		},
		stampUpdate: func(rec *models.Guardian, now time.Time) { rec.UpdatedAt = now },
	}
}

func (s *Service) CreateGuardian(ctx context.Context, sc scope.Scope, rec models.Guardian) (models.Guardian, error) {
	return create(ctx, s, guardianDef(), sc, rec)
}

func (s *Service) GetGuardian(ctx context.Context, sc scope.Scope, key string) (models.Guardian, error) {
	return get(ctx, s, guardianDef(), sc, key)
}

func (s *Service) ListGuardians(ctx context.Context, sc scope.Scope, institutionFilter string) ([]models.Guardian, error) {
	return list(ctx, s, guardianDef(), sc, institutionFilter)
}

func (s *Service) UpdateGuardian(ctx context.Context, sc scope.Scope, key string, patch map[string]any) (models.Guardian, error) {
	return update(ctx, s, guardianDef(), sc, key, patch)
}

// DeleteGuardian refuses while any student still references the guardian.
func (s *Service) DeleteGuardian(ctx context.Context, sc scope.Scope, key string) error {
	return del(ctx, s, guardianDef(), sc, key)
}
