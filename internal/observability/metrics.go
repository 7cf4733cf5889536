package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "virtuefeed_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// RedisCommandDuration records Redis command latency by command name.
	RedisCommandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "virtuefeed_redis_command_duration_seconds",
		Help:    "Redis command latency in seconds",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
	}, []string{"command"})

	// ReactionsTotal counts reaction mutations by action (added, removed, upserted).
	ReactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "virtuefeed_reactions_total",
		Help: "Total number of reaction mutations by action",
	}, []string{"action"})

	// RewriteDuration records content rewrite latency by provider and outcome.
	RewriteDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "virtuefeed_rewrite_duration_seconds",
		Help:    "Content rewrite latency in seconds",
		Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"provider", "outcome"})

	// UploadBytesTotal counts stored image bytes by storage driver.
	UploadBytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "virtuefeed_upload_bytes_total",
		Help: "Total bytes of images stored",
	}, []string{"driver"})

	// OrphanUploadsRemoved counts images deleted by the cleanup job.
	OrphanUploadsRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "virtuefeed_orphan_uploads_removed_total",
		Help: "Total number of unreferenced uploads removed by the cleanup job",
	})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// ObserveRewrite records one rewrite call.
func ObserveRewrite(provider string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	RewriteDuration.WithLabelValues(provider, outcome).Observe(time.Since(start).Seconds())
}
