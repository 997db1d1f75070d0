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

func driverDef() entity[models.Driver] {
	return entity[models.Driver]{
		collection: store.ColDrivers,
		keyJSON:    "rut",
		canonKey:   canonRUT,
		prepare: func(ctx context.Context, s *Service, rec *models.Driver, prevKey string) error {
			key, err := rut.Normalize(rec.RUT.String())
			if err != nil {
				return err
			}
			rec.RUT = key

			if err := s.requireInstitution(ctx, rec.InstitutionID); err != nil {
				return err
			}
			if rec.VehicleRef == "" {
				return nil
			}
			plate, err := canonPlate(rec.VehicleRef)
			if err != nil {
				return err
			}
			rec.VehicleRef = plate
			doc, err := s.docs.Get(ctx, store.ColVehicles, plate)
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Newf(dErrors.CodeDanglingReference, "vehicle %s does not exist", plate)
			}
			if err != nil {
				return translateStore(err, "resolve vehicle reference")
			}
			vehicle, err := decode[models.Vehicle](doc)
			if err != nil {
				return err
			}
			if vehicle.InstitutionID != rec.InstitutionID {
				return dErrors.Newf(dErrors.CodeDanglingReference,
					"vehicle %s belongs to another institution", plate)
			}
			return nil
		},
		beforeDelete: func(ctx context.Context, s *Service, rec *models.Driver) error {
			key := rec.RUT.String()
			referenced, err := anyMatch(ctx, s, store.ColVehicles, func(v models.Vehicle) bool {
				return v.DriverRef == key
			})
			if err != nil {
				return err
			}
			if referenced {
				return dErrors.Newf(dErrors.CodeDanglingReference,
					"driver %s is still assigned to a vehicle", key)
			}
			return nil
		},
		stampCreate: func(rec *models.Driver, now time.Time) {
			rec.CreatedAt = now
			rec.UpdatedAt = now
		},
		stampUpdate: func(rec *models.Driver, now time.Time) { rec.UpdatedAt = now },
	}
}

func (s *Service) CreateDriver(ctx context.Context, sc scope.Scope, rec models.Driver) (models.Driver, error) {
	return create(ctx, s, driverDef(), sc, rec)
}

func (s *Service) GetDriver(ctx context.Context, sc scope.Scope, key string) (models.Driver, error) {
	return get(ctx, s, driverDef(), sc, key)
}

func (s *Service) ListDrivers(ctx context.Context, sc scope.Scope, institutionFilter string) ([]models.Driver, error) {
	return list(ctx, s, driverDef(), sc, institutionFilter)
}

func (s *Service) UpdateDriver(ctx context.Context, sc scope.Scope, key string, patch map[string]any) (models.Driver, error) {
	return update(ctx, s, driverDef(), sc, key, patch)
}

// DeleteDriver refuses while a vehicle still lists the driver.
func (s *Service) DeleteDriver(ctx context.Context, sc scope.Scope, key string) error {
	return del(ctx, s, driverDef(), sc, key)
}
