// Package config reads process configuration from the environment so main
// stays lean. Every knob has a development default; production deployments
// set the FURGON_* variables explicitly.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "furgon/pkg/platform/strings"
)

// DocBackend selects the document store implementation.
type DocBackend string

const (
	BackendMemory    DocBackend = "memory"
	BackendPostgres  DocBackend = "postgres"
	BackendFirestore DocBackend = "firestore"
)

// Server is the full process configuration.
type Server struct {
	// Addr is the API listener; OpsAddr serves health, readiness and
	// metrics.
	Addr    string
	OpsAddr string

	Backend     DocBackend
	PostgresDSN string

	// Firestore settings, used when Backend is firestore. CredentialsFile
	// may be empty to use application default credentials.
	FirestoreProject string
	CollectionPrefix string
	CredentialsFile  string

	// GCSBucket holds record images. Empty disables blob storage.
	GCSBucket string

	// FirebaseAPIKey authenticates password sign-in calls against the
	// identity provider. Empty switches to the in-memory provider.
	FirebaseAPIKey string

	// Kafka audit publishing. No brokers means audit stays in process.
	KafkaBrokers []string
	KafkaTopic   string

	Redis        RedisConfig
	NameCacheTTL time.Duration
}

// RedisConfig tunes the optional institution-name cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr:             envOr("FURGON_ADDR", ":8080"),
		OpsAddr:          envOr("FURGON_OPS_ADDR", ":9090"),
		Backend:          DocBackend(envOr("FURGON_DOC_BACKEND", string(BackendMemory))),
		PostgresDSN:      os.Getenv("FURGON_POSTGRES_DSN"),
		FirestoreProject: os.Getenv("FURGON_FIRESTORE_PROJECT"),
		CollectionPrefix: envOr("FURGON_COLLECTION_PREFIX", "furgon"),
		CredentialsFile:  os.Getenv("FURGON_CREDENTIALS_FILE"),
		GCSBucket:        os.Getenv("FURGON_GCS_BUCKET"),
		FirebaseAPIKey:   os.Getenv("FURGON_FIREBASE_API_KEY"),
		KafkaBrokers:     splitList(os.Getenv("FURGON_KAFKA_BROKERS")),
		KafkaTopic:       envOr("FURGON_KAFKA_TOPIC", "furgon.audit"),
		Redis: RedisConfig{
			URL:          os.Getenv("FURGON_REDIS_URL"),
			PoolSize:     envInt("FURGON_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("FURGON_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("FURGON_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("FURGON_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("FURGON_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		NameCacheTTL: envDuration("FURGON_NAME_CACHE_TTL", 5*time.Minute),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	return platformstrings.DedupeAndTrim(strings.Split(v, ","))
}
