package scope

import (
	"context"
	"errors"
	"log/slog"

	"furgon/internal/directory/models"
	dErrors "furgon/pkg/domain-errors"
	"furgon/pkg/platform/sentinel"
)

// AdministratorSource looks up administrator records by actor email. The
// directory service implements it; the indirection keeps this package free of
// storage concerns.
type AdministratorSource interface {
	FindAdministratorByEmail(ctx context.Context, email string) (models.Administrator, error)
}

// Resolver turns an actor identity into a Scope.
type Resolver struct {
	admins AdministratorSource
	logger *slog.Logger
}

type ResolverOption func(*Resolver)

func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = logger }
}

func NewResolver(admins AdministratorSource, opts ...ResolverOption) *Resolver {
	r := &Resolver{admins: admins, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve computes the Scope for the actor behind the given email.
//
// Soft-deleted administrators resolve exactly like unknown ones: callers
// cannot distinguish "never existed" from "deleted", which keeps deletion
// from leaking account history. An inactive administrator still yields a
// Scope (IsActive=false) so admin screens can display the account; sign-in
// paths must refuse it.
func (r *Resolver) Resolve(ctx context.Context, actorEmail string) (Scope, error) {
	rec, err := r.admins.FindAdministratorByEmail(ctx, actorEmail)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Scope{}, dErrors.New(dErrors.CodeUnknownActor, "no administrator for actor")
		}
		if errors.Is(err, sentinel.ErrUnavailable) {
			return Scope{}, dErrors.Wrap(err, dErrors.CodeTransient, "administrator lookup failed")
		}
		return Scope{}, dErrors.Wrap(err, dErrors.CodeInternal, "administrator lookup failed")
	}
	if rec.IsDeleted() {
		r.logger.DebugContext(ctx, "deleted administrator treated as unknown", "email", actorEmail)
		return Scope{}, dErrors.New(dErrors.CodeUnknownActor, "no administrator for actor")
	}

	return Scope{
		ActorEmail:    rec.Email,
		IsSuperAdmin:  rec.IsSuperAdmin,
		InstitutionID: rec.InstitutionID,
		IsActive:      rec.IsActive(),
	}, nil
}
