// Package service implements the directory: scope-checked CRUD over the six
// entity collections, with key validation, uniqueness and reference checks,
// image reclamation and audit emission. The per-entity surface is thin; the
// shared pipeline in records.go does the work once, parameterized by entity
// type.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"furgon/internal/audit"
	"furgon/internal/directory/cache"
	"furgon/internal/directory/models"
	"furgon/internal/directory/store"
	"furgon/internal/platform/metrics"
	dErrors "furgon/pkg/domain-errors"
	"furgon/pkg/platform/sentinel"
)

// AssetReclaimer releases the blob behind an image reference. Satisfied by
// *assets.Manager.
type AssetReclaimer interface {
	Reclaim(ctx context.Context, ref string) error
}

// AuditPublisher records directory mutations. Satisfied by *audit.Publisher
// and *audit.KafkaPublisher.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the directory core. All reads and mutations take an explicit
// scope; nothing here resolves or caches actor identity.
type Service struct {
	docs    store.DocStore
	assets  AssetReclaimer
	audit   AuditPublisher
	names   cache.Names
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Service)

func WithAssets(reclaimer AssetReclaimer) Option {
	return func(s *Service) { s.assets = reclaimer }
}

func WithAudit(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithNameCache installs the institution-name lookup cache. Without it,
// InstitutionNames falls through to a collection scan on every call.
func WithNameCache(names cache.Names) Option {
	return func(s *Service) { s.names = names }
}

func New(docs store.DocStore, opts ...Option) *Service {
	s := &Service{
		docs:   docs,
		logger: slog.Default(),
		tracer: otel.Tracer("furgon/internal/directory"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UseNameCache installs the cache after construction. The loader a cache
// wraps usually comes from this same service, so wiring is two-step.
func (s *Service) UseNameCache(names cache.Names) { s.names = names }

// FindAdministratorByEmail looks up an administrator by actor email,
// including soft-deleted records; the scope resolver decides how those
// present to callers. Returns sentinel.ErrNotFound when no record matches.
func (s *Service) FindAdministratorByEmail(ctx context.Context, email string) (models.Administrator, error) {
	docs, err := s.docs.Scan(ctx, store.ColAdministrators)
	if err != nil {
		return models.Administrator{}, err
	}
	want := strings.ToLower(strings.TrimSpace(email))
	for _, doc := range docs {
		rec, err := decode[models.Administrator](doc)
		if err != nil {
			return models.Administrator{}, err
		}
		if strings.ToLower(rec.Email) == want {
			return rec, nil
		}
	}
	return models.Administrator{}, sentinel.ErrNotFound
}

// InstitutionNameLoader rebuilds the id → name lookup map from the
// institutions collection. Handed to the cache at wiring time.
func (s *Service) InstitutionNameLoader() cache.Loader {
	return func(ctx context.Context) (map[string]string, error) {
		docs, err := s.docs.Scan(ctx, store.ColInstitutions)
		if err != nil {
			return nil, err
		}
		out := make(map[string]string, len(docs))
		for _, doc := range docs {
			inst, err := decode[models.Institution](doc)
			if err != nil {
				return nil, err
			}
			out[inst.ID] = inst.Name
		}
		return out, nil
	}
}

// InstitutionNames returns the display-name lookup map, possibly up to one
// cache TTL stale.
func (s *Service) InstitutionNames(ctx context.Context) (map[string]string, error) {
	if s.names != nil {
		return s.names.Names(ctx)
	}
	return s.InstitutionNameLoader()(ctx)
}

func (s *Service) invalidateNames(ctx context.Context) {
	if s.names == nil {
		return
	}
	if err := s.names.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "name cache invalidation failed", "error", err)
	}
}

// translateStore maps store sentinels onto domain error codes for paths where
// "not found" is not expected.
func translateStore(err error, what string) error {
	if errors.Is(err, sentinel.ErrUnavailable) {
		return dErrors.Wrap(err, dErrors.CodeTransient, what)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, what)
}
