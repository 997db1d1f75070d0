// Package metrics registers the Prometheus instruments exposed on the ops
// endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the directory's Prometheus instruments.
type Metrics struct {
	Mutations         *prometheus.CounterVec
	MutationFailures  *prometheus.CounterVec
	ScopeDenials      prometheus.Counter
	BlobsReclaimed    prometheus.Counter
	AdminsProvisioned prometheus.Counter
	OrphanedAccounts  prometheus.Counter
}

// New creates and registers all instruments with a private registerer when
// given, or the default one when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "furgon_directory_mutations_total",
			Help: "Directory mutations that were persisted, by entity and operation.",
		}, []string{"entity", "op"}),
		MutationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "furgon_directory_mutation_failures_total",
			Help: "Directory mutations rejected by validation, integrity or scope checks.",
		}, []string{"entity", "op"}),
		ScopeDenials: factory.NewCounter(prometheus.CounterOpts{
			Name: "furgon_scope_denials_total",
			Help: "Operations refused because the actor's scope did not cover the record.",
		}),
		BlobsReclaimed: factory.NewCounter(prometheus.CounterOpts{
			Name: "furgon_blobs_reclaimed_total",
			Help: "Image blobs reclaimed after replacement or record deletion.",
		}),
		AdminsProvisioned: factory.NewCounter(prometheus.CounterOpts{
			Name: "furgon_admins_provisioned_total",
			Help: "Administrator accounts provisioned at the identity provider.",
		}),
		OrphanedAccounts: factory.NewCounter(prometheus.CounterOpts{
			Name: "furgon_orphaned_provider_accounts_total",
			Help: "Provider accounts left without a directory record after a partial failure.",
		}),
	}
}
