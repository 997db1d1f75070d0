// Package service owns the administrator account lifecycle: provisioning an
// identity-provider account together with the directory record, the
// activation transitions, and sign-in. Directory CRUD stays in the directory
// service; this layer adds the credential side.
package service

import (
	"context"
	"errors"
	"log/slog"

	"furgon/internal/audit"
	"furgon/internal/directory/models"
	"furgon/internal/directory/store"
	"furgon/internal/idp"
	"furgon/internal/platform/metrics"
	"furgon/internal/scope"
	dErrors "furgon/pkg/domain-errors"
	"furgon/pkg/platform/sentinel"
)

// Directory is the slice of the directory service this lifecycle needs.
type Directory interface {
	CreateAdministrator(ctx context.Context, sc scope.Scope, rec models.Administrator) (models.Administrator, error)
	GetAdministrator(ctx context.Context, sc scope.Scope, key string) (models.Administrator, error)
	ListAdministrators(ctx context.Context, sc scope.Scope, institutionFilter string, includeInactive bool) ([]models.Administrator, error)
	DeactivateAdministrator(ctx context.Context, sc scope.Scope, key string) (models.Administrator, error)
	ReactivateAdministrator(ctx context.Context, sc scope.Scope, key string) (models.Administrator, error)
	SoftDeleteAdministrator(ctx context.Context, sc scope.Scope, key string) (models.Administrator, error)
	FindAdministratorByEmail(ctx context.Context, email string) (models.Administrator, error)
}

// ScopeResolver computes the authorization scope for an actor email.
type ScopeResolver interface {
	Resolve(ctx context.Context, actorEmail string) (scope.Scope, error)
}

// AuditPublisher records sign-in events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	dir      Directory
	provider idp.Provider
	resolver ScopeResolver
	audit    AuditPublisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAudit(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func New(dir Directory, provider idp.Provider, resolver ScopeResolver, opts ...Option) *Service {
	s := &Service{
		dir:      dir,
		provider: provider,
		resolver: resolver,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAccount provisions the identity-provider account first, then writes
// the directory record carrying the account id. If the record write fails the
// provider account is left in place: deleting a third-party account is not
// guaranteed available, so the error carries OrphanedProviderAccount and the
// account id for operators to reconcile instead of a silent rollback.
func (s *Service) CreateAccount(ctx context.Context, sc scope.Scope, rec models.Administrator, secret string) (models.Administrator, error) {
	accountID, err := s.provider.CreateAccount(ctx, rec.Email, secret)
	if errors.Is(err, sentinel.ErrConflict) {
		return models.Administrator{}, dErrors.Newf(dErrors.CodeDuplicateKey, "email %s already has an account", rec.Email)
	}
	if errors.Is(err, sentinel.ErrUnavailable) {
		return models.Administrator{}, dErrors.Wrap(err, dErrors.CodeTransient, "provision provider account")
	}
	if err != nil {
		return models.Administrator{}, dErrors.Wrap(err, dErrors.CodeInternal, "provision provider account")
	}

	rec.AccountID = accountID
	created, err := s.dir.CreateAdministrator(ctx, sc, rec)
	if err != nil {
		if s.metrics != nil {
			s.metrics.OrphanedAccounts.Inc()
		}
		s.logger.ErrorContext(ctx, "provider account orphaned",
			"account_id", accountID, "email", rec.Email, "error", err)
		return models.Administrator{}, dErrors.Wrap(err, dErrors.CodeOrphanedProviderAccount,
			"administrator record failed after provisioning account "+accountID)
	}

	if s.metrics != nil {
		s.metrics.AdminsProvisioned.Inc()
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, sc scope.Scope, key string) (models.Administrator, error) {
	return s.dir.GetAdministrator(ctx, sc, key)
}

func (s *Service) List(ctx context.Context, sc scope.Scope, institutionFilter string, includeInactive bool) ([]models.Administrator, error) {
	return s.dir.ListAdministrators(ctx, sc, institutionFilter, includeInactive)
}

func (s *Service) Deactivate(ctx context.Context, sc scope.Scope, key string) (models.Administrator, error) {
	return s.dir.DeactivateAdministrator(ctx, sc, key)
}

func (s *Service) Reactivate(ctx context.Context, sc scope.Scope, key string) (models.Administrator, error) {
	return s.dir.ReactivateAdministrator(ctx, sc, key)
}

// SoftDelete retires the administrator and removes the provider account. A
// lingering account is harmless for authorization, since deleted
// administrators resolve as unknown, but it is cleaned up eagerly anyway.
func (s *Service) SoftDelete(ctx context.Context, sc scope.Scope, key string) (models.Administrator, error) {
	rec, err := s.dir.SoftDeleteAdministrator(ctx, sc, key)
	if err != nil {
		return models.Administrator{}, err
	}
	if rec.AccountID != "" {
		if err := s.provider.DeleteAccount(ctx, rec.AccountID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "provider account not removed on soft delete",
				"account_id", rec.AccountID, "error", err)
		}
	}
	return rec, nil
}

// SignIn authenticates the credential pair and resolves the actor's scope.
// Bad credentials and unknown or deleted administrators all answer
// UnknownActor; a valid credential on a deactivated account answers
// AccountInactive.
func (s *Service) SignIn(ctx context.Context, email, secret string) (scope.Scope, error) {
	if _, err := s.provider.Authenticate(ctx, email, secret); err != nil {
		if errors.Is(err, idp.ErrBadCredentials) {
			return scope.Scope{}, dErrors.New(dErrors.CodeUnknownActor, "credentials rejected")
		}
		if errors.Is(err, sentinel.ErrUnavailable) {
			return scope.Scope{}, dErrors.Wrap(err, dErrors.CodeTransient, "identity provider unavailable")
		}
		return scope.Scope{}, dErrors.Wrap(err, dErrors.CodeInternal, "authenticate")
	}

	sc, err := s.resolver.Resolve(ctx, email)
	if err != nil {
		return scope.Scope{}, err
	}
	if !sc.IsActive {
		return scope.Scope{}, dErrors.New(dErrors.CodeAccountInactive, "account is deactivated")
	}

	if s.audit != nil {
		if err := s.audit.Emit(ctx, audit.Event{
			Actor:  sc.ActorEmail,
			Action: audit.ActionSignIn,
			Entity: store.ColAdministrators,
			Key:    sc.ActorEmail,
		}); err != nil {
			s.logger.WarnContext(ctx, "audit publish failed", "action", audit.ActionSignIn, "error", err)
		}
	}
	return sc, nil
}

// ChangeSecret rotates a credential. The current secret must be presented
// again even inside an authenticated session.
func (s *Service) ChangeSecret(ctx context.Context, email, currentSecret, newSecret string) error {
	accountID, err := s.provider.Authenticate(ctx, email, currentSecret)
	if err != nil {
		if errors.Is(err, idp.ErrBadCredentials) {
			return dErrors.New(dErrors.CodeUnknownActor, "credentials rejected")
		}
		if errors.Is(err, sentinel.ErrUnavailable) {
			return dErrors.Wrap(err, dErrors.CodeTransient, "identity provider unavailable")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "authenticate")
	}
	sc, err := s.resolver.Resolve(ctx, email)
	if err != nil {
		return err
	}
	if !sc.IsActive {
		return dErrors.New(dErrors.CodeAccountInactive, "account is deactivated")
	}
	if err := s.provider.SetSecret(ctx, accountID, newSecret); err != nil {
		if errors.Is(err, sentinel.ErrUnavailable) {
			return dErrors.Wrap(err, dErrors.CodeTransient, "rotate secret")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "rotate secret")
	}
	return nil
}
