// Command server wires the directory core to its backing services and runs
// the API and ops listeners. Business logic lives in the internal services;
// this file only selects implementations from configuration and composes
// them.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	adminsvc "furgon/internal/admin/service"
	"furgon/internal/assets"
	"furgon/internal/audit"
	"furgon/internal/directory/cache"
	dirsvc "furgon/internal/directory/service"
	"furgon/internal/directory/store"
	"furgon/internal/directory/store/firestoredoc"
	"furgon/internal/directory/store/memory"
	"furgon/internal/directory/store/postgres"
	"furgon/internal/idp"
	"furgon/internal/platform/config"
	"furgon/internal/platform/httpserver"
	"furgon/internal/platform/logger"
	"furgon/internal/platform/metrics"
	platformredis "furgon/internal/platform/redis"
	"furgon/internal/scope"
	httptransport "furgon/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Local development reads a .env file; absence is fine.
	_ = godotenv.Load()
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	docs, closeDocs, err := openDocStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDocs()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	var blobs assets.BlobStore
	if cfg.GCSBucket != "" {
		gcs, err := assets.NewGCSBlobStore(ctx, cfg.GCSBucket, cfg.CredentialsFile)
		if err != nil {
			return err
		}
		defer gcs.Close()
		blobs = gcs
	} else {
		log.Warn("no blob bucket configured, images stay in process")
		blobs = assets.NewInMemoryBlobStore()
	}
	manager := assets.NewManager(blobs, assets.WithLogger(log))

	var publisher dirsvc.AuditPublisher
	var auditDrain func(context.Context) error
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := audit.NewKafkaPublisher(audit.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
		}, log)
		if err != nil {
			return err
		}
		defer kafka.Close()
		publisher = kafka
	} else {
		async := audit.NewAsyncPublisher(audit.NewInMemoryStore(), 256, log)
		auditDrain = async.Run
		publisher = async
	}

	dir := dirsvc.New(docs,
		dirsvc.WithAssets(manager),
		dirsvc.WithAudit(publisher),
		dirsvc.WithLogger(log),
		dirsvc.WithMetrics(m),
	)

	checks := []httpserver.ReadyCheck{{
		Name: "docstore",
		Check: func(ctx context.Context) error {
			_, err := docs.Scan(ctx, store.ColInstitutions)
			return err
		},
	}}

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		dir.UseNameCache(cache.NewRedis(redisClient.Client, dir.InstitutionNameLoader(), cfg.NameCacheTTL))
		checks = append(checks, httpserver.ReadyCheck{Name: "redis", Check: redisClient.Health})
	} else {
		dir.UseNameCache(cache.NewMemory(dir.InstitutionNameLoader(), cfg.NameCacheTTL))
	}

	var provider idp.Provider
	if cfg.FirebaseAPIKey != "" {
		provider, err = idp.NewFirebaseProvider(ctx, idp.FirebaseConfig{
			ProjectID:       cfg.FirestoreProject,
			APIKey:          cfg.FirebaseAPIKey,
			CredentialsFile: cfg.CredentialsFile,
		})
		if err != nil {
			return err
		}
	} else {
		log.Warn("no identity provider configured, using in-memory accounts")
		provider = idp.NewInMemoryProvider()
	}

	admin := adminsvc.New(dir, provider, scope.NewResolver(dir, scope.WithLogger(log)),
		adminsvc.WithLogger(log),
		adminsvc.WithMetrics(m),
		adminsvc.WithAudit(publisher),
	)

	api := httpserver.New(cfg.Addr, httptransport.NewRouter(httptransport.NewAuthHandler(admin), log))
	ops := httpserver.New(cfg.OpsAddr, httpserver.NewRouter(reg, log, checks...))

	log.Info("starting furgon directory",
		"addr", cfg.Addr, "ops_addr", cfg.OpsAddr, "backend", cfg.Backend)

	g, gctx := errgroup.WithContext(ctx)
	if auditDrain != nil {
		g.Go(func() error { return auditDrain(gctx) })
	}
	for _, srv := range []*http.Server{api, ops} {
		g.Go(func() error {
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for _, srv := range []*http.Server{api, ops} {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn("graceful shutdown failed", "addr", srv.Addr, "error", err)
			}
		}
		return nil
	})
	return g.Wait()
}

func openDocStore(ctx context.Context, cfg config.Server) (store.DocStore, func(), error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.New(), func() {}, nil
	case config.BackendPostgres:
		pg, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return pg, func() { _ = pg.Close() }, nil
	case config.BackendFirestore:
		fs, err := firestoredoc.New(ctx, firestoredoc.Config{
			ProjectID:        cfg.FirestoreProject,
			CollectionPrefix: cfg.CollectionPrefix,
			CredentialsFile:  cfg.CredentialsFile,
		})
		if err != nil {
			return nil, nil, err
		}
		return fs, func() { _ = fs.Close() }, nil
	default:
		return nil, nil, errors.New("unknown doc backend: " + string(cfg.Backend))
	}
}
