// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Normalization metrics
	RecordsNormalized *prometheus.CounterVec
	ParseErrors       *prometheus.CounterVec
	RecordsSkipped    prometheus.Counter

	// Backtest metrics
	TokensProcessed  prometheus.Counter
	TokensFailed     prometheus.Counter
	SignalsEmitted   prometheus.Counter
	TradesSimulated  prometheus.Counter
	DuplicatesSeen   prometheus.Counter
	BacktestRuns     *prometheus.CounterVec
	BacktestDuration prometheus.Histogram
	TokenDuration    prometheus.Histogram

	// Feed metrics
	FeedRecordsReceived prometheus.Counter
	FeedReconnects      prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Reporting metrics
	ReportsGenerated *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_strategy_lab"
	}

	return &Metrics{
		// Normalization metrics
		RecordsNormalized: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalize",
			Name:      "records_normalized_total",
			Help:      "Total number of raw records normalized by venue and kind",
		}, []string{"venue", "kind"}),
		ParseErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalize",
			Name:      "parse_errors_total",
			Help:      "Total number of unparseable raw records by venue and reason",
		}, []string{"venue", "reason"}),
		RecordsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalize",
			Name:      "records_skipped_total",
			Help:      "Total number of raw records skipped during batch normalization",
		}),

		// Backtest metrics
		TokensProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "tokens_processed_total",
			Help:      "Total number of token timelines replayed",
		}),
		TokensFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "tokens_failed_total",
			Help:      "Total number of tokens aborted by per-token errors",
		}),
		SignalsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "signals_emitted_total",
			Help:      "Total number of strategy signals emitted",
		}),
		TradesSimulated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "trades_simulated_total",
			Help:      "Total number of trades simulated",
		}),
		DuplicatesSeen: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "duplicate_events_total",
			Help:      "Total number of duplicate-signature events skipped",
		}),
		BacktestRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "runs_total",
			Help:      "Total number of backtest runs by status",
		}, []string{"status"}),
		BacktestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "run_duration_seconds",
			Help:      "Backtest run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		TokenDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "token_duration_seconds",
			Help:      "Per-token replay duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Feed metrics
		FeedRecordsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "records_received_total",
			Help:      "Total number of raw records received over the feed",
		}),
		FeedReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "reconnects_total",
			Help:      "Total number of feed reconnect attempts",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Reporting metrics
		ReportsGenerated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reporting",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated by format",
		}, []string{"format"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordNormalized increments the normalized-records counter.
func RecordNormalized(venue, kind string) {
	DefaultMetrics.RecordsNormalized.WithLabelValues(venue, kind).Inc()
}

// RecordParseError records an unparseable raw record.
func RecordParseError(venue, reason string) {
	DefaultMetrics.ParseErrors.WithLabelValues(venue, reason).Inc()
	DefaultMetrics.RecordsSkipped.Inc()
}

// RecordTokenProcessed increments the tokens processed counter.
func RecordTokenProcessed(failed bool) {
	DefaultMetrics.TokensProcessed.Inc()
	if failed {
		DefaultMetrics.TokensFailed.Inc()
	}
}

// RecordBacktestRun records a completed backtest run.
func RecordBacktestRun(status string, durationSeconds float64) {
	DefaultMetrics.BacktestRuns.WithLabelValues(status).Inc()
	DefaultMetrics.BacktestDuration.Observe(durationSeconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordReportGenerated increments the reports generated counter.
func RecordReportGenerated(format string) {
	DefaultMetrics.ReportsGenerated.WithLabelValues(format).Inc()
}
