package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MutationsTotal counts Mutation API calls by operation and result.
	MutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bitsconnect_mutations_total",
		Help: "Total number of store mutations by operation and result",
	}, []string{"operation", "result"})

	// PersistenceSaves counts snapshot saves by collection and result.
	PersistenceSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bitsconnect_persistence_saves_total",
		Help: "Total number of collection snapshot saves by collection and result",
	}, []string{"collection", "result"})

	// PersistenceFailures counts failed snapshot saves by collection.
	PersistenceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bitsconnect_persistence_failures_total",
		Help: "Total number of failed collection snapshot saves",
	}, []string{"collection"})

	// MediaUploads counts media uploads by media type and result.
	MediaUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bitsconnect_media_uploads_total",
		Help: "Total number of media uploads by type and result",
	}, []string{"type", "result"})

	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bitsconnect_redis_errors_total",
		Help: "Total number of Redis command errors",
	}, []string{"command"})

	// DBQueryDuration observes SQL statement latency, split by failure.
	DBQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bitsconnect_db_query_duration_seconds",
		Help:    "SQL statement latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"failed"})

	// StoreSubscribers is the gauge of live store subscriptions.
	StoreSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bitsconnect_store_subscribers",
		Help: "Number of active store change subscribers",
	})
)

// Result label values.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// ResultLabel converts an operation outcome into a metrics label.
// rejected reports input errors, error reports infrastructure failures.
func ResultLabel(err error, rejected bool) string {
	switch {
	case err == nil:
		return ResultOK
	case rejected:
		return ResultRejected
	default:
		return ResultError
	}
}
