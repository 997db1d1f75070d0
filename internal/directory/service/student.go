package service

import (
	"context"
	"errors"
	"time"

	"furgon/internal/directory/models"
	"furgon/internal/directory/store"
	"furgon/internal/scope"
	dErrors "furgon/pkg/domain-errors"
	"furgon/pkg/platform/sentinel"
	"furgon/pkg/rut"
)

func studentDef() entity[models.Student] {
	return entity[models.Student]{
		collection: store.ColStudents,
		keyJSON:    "rut",
		canonKey:   canonRUT,
		prepare: func(ctx context.Context, s *Service, rec *models.Student, prevKey string) error {
			key, err := rut.Normalize(rec.RUT.String())
			if err != nil {
				return err
			}
			rec.RUT = key

			// With a guardian assigned, the student's institution is the
			// guardian's. A caller-supplied institution is overwritten, not
			// rejected.
			if rec.GuardianRef != "" {
				gkey, err := canonRUT(rec.GuardianRef)
				if err != nil {
					return err
				}
				rec.GuardianRef = gkey
				doc, err := s.docs.Get(ctx, store.ColGuardians, gkey)
				if errors.Is(err, sentinel.ErrNotFound) {
					return dErrors.Newf(dErrors.CodeDanglingReference, "guardian %s does not exist", gkey)
				}
				if err != nil {
					return translateStore(err, "resolve guardian reference")
				}
				guardian, err := decode[models.Guardian](doc)
				if err != nil {
					return err
				}
				rec.InstitutionID = guardian.InstitutionID
				return nil
			}
			return s.requireInstitution(ctx, rec.InstitutionID)
		},
		stampCreate: func(rec *models.Student, now time.Time) {
			rec.CreatedAt = now
			rec.UpdatedAt = now
		},
		stampUpdate: func(rec *models.Student, now time.Time) { rec.UpdatedAt = now },
	}
}

func (s *Service) CreateStudent(ctx context.Context, sc scope.Scope, rec models.Student) (models.Student, error) {
	return create(ctx, s, studentDef(), sc, rec)
}

func (s *Service) GetStudent(ctx context.Context, sc scope.Scope, key string) (models.Student, error) {
	return get(ctx, s, studentDef(), sc, key)
}

func (s *Service) ListStudents(ctx context.Context, sc scope.Scope, institutionFilter string) ([]models.Student, error) {
	return list(ctx, s, studentDef(), sc, institutionFilter)
}

func (s *Service) UpdateStudent(ctx context.Context, sc scope.Scope, key string, patch map[string]any) (models.Student, error) {
	return update(ctx, s, studentDef(), sc, key, patch)
}

func (s *Service) DeleteStudent(ctx context.Context, sc scope.Scope, key string) error {
	return del(ctx, s, studentDef(), sc, key)
}
