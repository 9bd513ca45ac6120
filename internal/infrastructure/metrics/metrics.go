package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/bankcore/internal/domain"
)

// Metrics holds all Prometheus metrics. It implements usecase.EngineMetrics
// so the transfer engine can report outcomes without importing this package.
type Metrics struct {
	// Transfer metrics
	TransfersCommitted *prometheus.CounterVec
	TransfersFailed    *prometheus.CounterVec
	TransferRetries    prometheus.Counter
	Compensations      prometheus.Counter
	TransferAmount     prometheus.Histogram

	// Account metrics
	AccountsCreated prometheus.Counter
	UsersRegistered prometheus.Counter

	// Database metrics
	DBErrors *prometheus.CounterVec

	// Redis metrics
	RedisErrors *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Transfer metrics
		TransfersCommitted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankcore_transfers_committed_total",
				Help: "Total number of committed transfers by kind",
			},
			[]string{"kind"},
		),
		TransfersFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankcore_transfers_failed_total",
				Help: "Total number of failed transfers by kind and reason",
			},
			[]string{"kind", "reason"},
		),
		TransferRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bankcore_transfer_retries_total",
			Help: "Total number of optimistic-concurrency retries",
		}),
		Compensations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bankcore_transfer_compensations_total",
			Help: "Total number of compensation runs after a partial apply",
		}),
		TransferAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "bankcore_transfer_amount",
			Help:    "Transfer amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),

		// Account metrics
		AccountsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bankcore_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		UsersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bankcore_users_registered_total",
			Help: "Total number of users registered",
		}),

		// Database metrics
		DBErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankcore_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),

		// Redis metrics
		RedisErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankcore_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),
	}
}

// TransferCommitted records a committed transfer.
func (m *Metrics) TransferCommitted(kind domain.TransferKind) {
	m.TransfersCommitted.WithLabelValues(string(kind)).Inc()
}

// TransferFailed records a failed transfer with its reason label.
func (m *Metrics) TransferFailed(kind domain.TransferKind, reason string) {
	m.TransfersFailed.WithLabelValues(string(kind), reason).Inc()
}

// RetryObserved records a version-conflict retry.
func (m *Metrics) RetryObserved() {
	m.TransferRetries.Inc()
}

// CompensationRun records a compensation after a partially applied transfer.
func (m *Metrics) CompensationRun() {
	m.Compensations.Inc()
}
