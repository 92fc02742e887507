package metrics

import (
	"github.com/Dhoini/customer-console/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "invalid"
)

// ConsoleMetrics records record store traffic and workflow outcomes
type ConsoleMetrics interface {
	ObserveRemoteCall(entity, op, outcome string, seconds float64)
	IncMutation(entity, op, outcome string)
	SetCollectionSize(entity string, size int)
	IncStaleLoad(entity string)
}

type consoleMetrics struct {
	log           *logger.Logger
	remoteCalls   *prometheus.HistogramVec
	mutations     *prometheus.CounterVec
	collectionLen *prometheus.GaugeVec
	staleLoads    *prometheus.CounterVec
}

// NewConsoleMetrics registers the console metrics on registry
func NewConsoleMetrics(registry prometheus.Registerer, namespace string, log *logger.Logger) ConsoleMetrics {
	factory := promauto.With(registry)

	remoteCalls := factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_call_duration_seconds",
			Help:      "Duration of record store calls",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 6), // 10ms .. ~10s
		},
		[]string{"entity", "op", "outcome"},
	)

	mutations := factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Workflow mutations by entity, operation and outcome",
		},
		[]string{"entity", "op", "outcome"},
	)

	collectionLen := factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "collection_records",
			Help:      "Records currently held in each local collection",
		},
		[]string{"entity"},
	)

	staleLoads := factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_loads_total",
			Help:      "Collection loads discarded because a newer state was already applied",
		},
		[]string{"entity"},
	)

	log.Debugw("Console metrics registered", "namespace", namespace)

	return &consoleMetrics{
		log:           log,
		remoteCalls:   remoteCalls,
		mutations:     mutations,
		collectionLen: collectionLen,
		staleLoads:    staleLoads,
	}
}

// ObserveRemoteCall records the duration of a record store call
func (m *consoleMetrics) ObserveRemoteCall(entity, op, outcome string, seconds float64) {
	m.remoteCalls.WithLabelValues(entity, op, outcome).Observe(seconds)
}

// IncMutation counts a finished workflow mutation
func (m *consoleMetrics) IncMutation(entity, op, outcome string) {
	m.mutations.WithLabelValues(entity, op, outcome).Inc()
}

// SetCollectionSize publishes the size of a local collection
func (m *consoleMetrics) SetCollectionSize(entity string, size int) {
	m.collectionLen.WithLabelValues(entity).Set(float64(size))
}

// IncStaleLoad counts a discarded out-of-order load
func (m *consoleMetrics) IncStaleLoad(entity string) {
	m.staleLoads.WithLabelValues(entity).Inc()
}

type nopMetrics struct{}

// NewNop returns metrics that record nothing
func NewNop() ConsoleMetrics { return nopMetrics{} }

func (nopMetrics) ObserveRemoteCall(string, string, string, float64) {}
func (nopMetrics) IncMutation(string, string, string)                {}
func (nopMetrics) SetCollectionSize(string, int)                      {}
func (nopMetrics) IncStaleLoad(string)                                {}
