package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"furgon/internal/audit"
	"furgon/internal/directory/models"
	"furgon/internal/directory/store"
	"furgon/internal/scope"
	dErrors "furgon/pkg/domain-errors"
	"furgon/pkg/email"
	"furgon/pkg/platform/sentinel"
	"furgon/pkg/rut"
)

func administratorDef() entity[models.Administrator] {
	return entity[models.Administrator]{
		collection: store.ColAdministrators,
		keyJSON:    "rut",
		canonKey:   canonRUT,
		prepare: func(ctx context.Context, s *Service, rec *models.Administrator, prevKey string) error {
			key, err := rut.Normalize(rec.RUT.String())
			if err != nil {
				return err
			}
			rec.RUT = key

			rec.Email = strings.TrimSpace(rec.Email)
			if rec.Email == "" {
				return dErrors.New(dErrors.CodeInvalidInput, "administrator email is required")
			}
			if err := s.requireEmailAvailable(ctx, rec.Email, prevKey); err != nil {
				return err
			}
			if rec.Name == "" && rec.Surname == "" {
				rec.Name, rec.Surname = email.DeriveName(rec.Email)
			}

			// Super administrators belong to no single institution; everyone
			// else must reference a real one.
			if rec.IsSuperAdmin {
				rec.InstitutionID = ""
				return nil
			}
			return s.requireInstitution(ctx, rec.InstitutionID)
		},
		stampCreate: func(rec *models.Administrator, now time.Time) {
			// Every administrator is born active; the only way into any
			// other status is a lifecycle transition.
			rec.Status = models.AdminStatusActive
			rec.DeletedAt = nil
			rec.CreatedAt = now
			rec.UpdatedAt = now
		},
		stampUpdate: func(rec *models.Administrator, now time.Time) { rec.UpdatedAt = now },
	}
}

func (s *Service) CreateAdministrator(ctx context.Context, sc scope.Scope, rec models.Administrator) (models.Administrator, error) {
	return create(ctx, s, administratorDef(), sc, rec)
}

func (s *Service) GetAdministrator(ctx context.Context, sc scope.Scope, key string) (models.Administrator, error) {
	return get(ctx, s, administratorDef(), sc, key)
}

// ListAdministrators never returns soft-deleted records. Inactive ones are
// included only when includeInactive is set.
func (s *Service) ListAdministrators(ctx context.Context, sc scope.Scope, institutionFilter string, includeInactive bool) ([]models.Administrator, error) {
	all, err := list(ctx, s, administratorDef(), sc, institutionFilter)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, a := range all {
		if a.IsDeleted() {
			continue
		}
		if !includeInactive && !a.IsActive() {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// UpdateAdministrator patches profile fields. Status and account linkage are
// controlled by the lifecycle transitions below, never by patch.
func (s *Service) UpdateAdministrator(ctx context.Context, sc scope.Scope, key string, patch map[string]any) (models.Administrator, error) {
	for _, locked := range []string{"status", "account_id", "deleted_at"} {
		if _, ok := patch[locked]; ok {
			return models.Administrator{}, dErrors.Newf(dErrors.CodeInvalidInput,
				"field %q cannot be patched directly", locked)
		}
	}
	return update(ctx, s, administratorDef(), sc, key, patch)
}

// DeactivateAdministrator suspends sign-in without destroying the record.
func (s *Service) DeactivateAdministrator(ctx context.Context, sc scope.Scope, key string) (models.Administrator, error) {
	return s.transitionAdministrator(ctx, sc, key, audit.ActionDeactivate,
		(*models.Administrator).CanDeactivate, (*models.Administrator).ApplyDeactivation)
}

// ReactivateAdministrator restores a deactivated account.
func (s *Service) ReactivateAdministrator(ctx context.Context, sc scope.Scope, key string) (models.Administrator, error) {
	return s.transitionAdministrator(ctx, sc, key, audit.ActionReactivate,
		(*models.Administrator).CanReactivate, (*models.Administrator).ApplyReactivation)
}

// SoftDeleteAdministrator retires the record permanently. The document stays
// in the collection so the audit trail keeps resolving the actor; there is
// no physical delete for administrators.
func (s *Service) SoftDeleteAdministrator(ctx context.Context, sc scope.Scope, key string) (models.Administrator, error) {
	return s.transitionAdministrator(ctx, sc, key, audit.ActionSoftDelete,
		(*models.Administrator).CanSoftDelete, (*models.Administrator).ApplySoftDelete)
}

func (s *Service) transitionAdministrator(
	ctx context.Context,
	sc scope.Scope,
	rawKey string,
	action audit.Action,
	check func(*models.Administrator) error,
	apply func(*models.Administrator, time.Time),
) (models.Administrator, error) {
	ctx, span := s.tracer.Start(ctx, "directory.administrators."+string(action))
	defer span.End()

	key, err := canonRUT(rawKey)
	if err != nil {
		return models.Administrator{}, s.reject(span, store.ColAdministrators, string(action), err)
	}
	doc, err := s.docs.Get(ctx, store.ColAdministrators, key)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.Administrator{}, s.reject(span, store.ColAdministrators, string(action),
			dErrors.Newf(dErrors.CodeNotFound, "administrator %s not found", key))
	}
	if err != nil {
		return models.Administrator{}, s.reject(span, store.ColAdministrators, string(action), translateStore(err, "load administrator"))
	}
	rec, err := decode[models.Administrator](doc)
	if err != nil {
		return models.Administrator{}, s.reject(span, store.ColAdministrators, string(action), err)
	}
	if !sc.CanMutate(rec.InstitutionID) {
		return models.Administrator{}, s.denyScope(span, store.ColAdministrators, string(action))
	}
	if err := check(&rec); err != nil {
		return models.Administrator{}, s.reject(span, store.ColAdministrators, string(action), err)
	}
	apply(&rec, time.Now().UTC())

	out, err := json.Marshal(rec)
	if err != nil {
		return models.Administrator{}, s.reject(span, store.ColAdministrators, string(action),
			dErrors.Wrap(err, dErrors.CodeInternal, "encode administrator"))
	}
	if err := s.docs.Put(ctx, store.ColAdministrators, key, out); err != nil {
		return models.Administrator{}, s.reject(span, store.ColAdministrators, string(action), translateStore(err, "persist administrator"))
	}

	s.recordMutation(ctx, sc, store.ColAdministrators, false, action, key)
	return rec, nil
}
