// Package telemetry exposes Prometheus metrics for the sync pipeline.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MutationsApplied counts mutator executions by mutation name and
	// side ("client" for optimistic application, "server" for
	// authoritative replay).
	MutationsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripsync_mutations_applied_total",
		Help: "Mutations applied, by mutation name and side.",
	}, []string{"name", "side"})

	// PushBatches counts push batches the server accepted.
	PushBatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripsync_push_batches_total",
		Help: "Push batches processed by the server.",
	})

	// Pulls counts pull requests served.
	Pulls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripsync_pulls_total",
		Help: "Pull requests served.",
	})

	// PullPatchOps observes the size of pull patches.
	PullPatchOps = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tripsync_pull_patch_ops",
		Help:    "Number of patch operations per pull response.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	// Pokes counts invalidation signals delivered to subscribers.
	Pokes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripsync_pokes_delivered_total",
		Help: "Poke signals delivered to SSE subscribers.",
	})
)

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
