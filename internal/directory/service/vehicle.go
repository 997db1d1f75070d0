package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"furgon/internal/directory/models"
	"furgon/internal/directory/store"
	"furgon/internal/scope"
	dErrors "furgon/pkg/domain-errors"
	"furgon/pkg/platform/sentinel"
)

// canonPlate canonicalizes a license plate: uppercase, no surrounding or
// interior whitespace.
func canonPlate(raw string) (string, error) {
	plate := strings.ToUpper(strings.Join(strings.Fields(raw), ""))
	if plate == "" {
		return "", dErrors.New(dErrors.CodeMalformedKey, "license plate is empty")
	}
	return plate, nil
}

func vehicleDef() entity[models.Vehicle] {
	return entity[models.Vehicle]{
		collection: store.ColVehicles,
		keyJSON:    "plate",
		canonKey:   canonPlate,
		prepare: func(ctx context.Context, s *Service, rec *models.Vehicle, prevKey string) error {
			plate, err := canonPlate(rec.Plate)
			if err != nil {
				return err
			}
			rec.Plate = plate

			if err := s.requireInstitution(ctx, rec.InstitutionID); err != nil {
				return err
			}
			if rec.DriverRef == "" {
				return nil
			}
			dkey, err := canonRUT(rec.DriverRef)
			if err != nil {
				return err
			}
			rec.DriverRef = dkey
			doc, err := s.docs.Get(ctx, store.ColDrivers, dkey)
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Newf(dErrors.CodeDanglingReference, "driver %s does not exist", dkey)
			}
			if err != nil {
				return translateStore(err, "resolve driver reference")
			}
			driver, err := decode[models.Driver](doc)
			if err != nil {
				return err
			}
			if driver.InstitutionID != rec.InstitutionID {
				return dErrors.Newf(dErrors.CodeDanglingReference,
					"driver %s belongs to another institution", dkey)
			}
			return nil
		},
		beforeDelete: func(ctx context.Context, s *Service, rec *models.Vehicle) error {
			referenced, err := anyMatch(ctx, s, store.ColDrivers, func(d models.Driver) bool {
				return d.VehicleRef == rec.Plate
			})
			if err != nil {
				return err
			}
			if referenced {
				return dErrors.Newf(dErrors.CodeDanglingReference,
					"vehicle %s is still assigned to a driver", rec.Plate)
			}
			return nil
		},
		stampCreate: func(rec *models.Vehicle, now time.Time) {
			rec.CreatedAt = now
			rec.UpdatedAt = now
		},
		stampUpdate: func(rec *models.Vehicle, now time.Time) { rec.UpdatedAt = now },
	}
}

func (s *Service) CreateVehicle(ctx context.Context, sc scope.Scope, rec models.Vehicle) (models.Vehicle, error) {
	return create(ctx, s, vehicleDef(), sc, rec)
}

func (s *Service) GetVehicle(ctx context.Context, sc scope.Scope, key string) (models.Vehicle, error) {
	return get(ctx, s, vehicleDef(), sc, key)
}

func (s *Service) ListVehicles(ctx context.Context, sc scope.Scope, institutionFilter string) ([]models.Vehicle, error) {
	return list(ctx, s, vehicleDef(), sc, institutionFilter)
}

func (s *Service) UpdateVehicle(ctx context.Context, sc scope.Scope, key string, patch map[string]any) (models.Vehicle, error) {
	return update(ctx, s, vehicleDef(), sc, key, patch)
}

// DeleteVehicle refuses while a driver still lists the vehicle.
func (s *Service) DeleteVehicle(ctx context.Context, sc scope.Scope, key string) error {
	return del(ctx, s, vehicleDef(), sc, key)
}
