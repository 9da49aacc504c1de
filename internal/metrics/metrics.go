package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label value constants to prevent typos
const (
	// Results
	ResultSuccess = "success"
	ResultFailure = "failure"

	// HTTP endpoints
	EndpointSync   = "sync"
	EndpointHealth = "health"

	// Backfill metric streams
	StreamGlucose  = "glucose"
	StreamInsulin  = "insulin"
	StreamActivity = "activity"

	// Diacloud API operations
	OpLogin         = "login"
	OpFetchReadings = "fetch_readings"

	// Database operations
	DBOpGetCursor  = "get_sync_cursor"
	DBOpTableCount = "table_count"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint", "status_code"},
	)
)

// Push Sync Metrics
var (
	PushPayloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_payloads_total",
			Help: "Total number of push sync payloads by result",
		},
		[]string{"result"},
	)

	PushRecordsAcceptedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_records_accepted_total",
			Help: "Total number of records accepted per metric kind",
		},
		[]string{"kind"},
	)

	PushValidationErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "push_validation_errors_total",
			Help: "Total number of push payloads rejected by validation",
		},
	)
)

// Batch Executor Metrics
var (
	BatchesExecutedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batches_executed_total",
			Help: "Total number of statement batches submitted by result",
		},
		[]string{"result"},
	)

	StatementsExecutedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "statements_executed_total",
			Help: "Total number of write statements durably committed",
		},
	)

	DuplicatesSwallowedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duplicates_swallowed_total",
			Help: "Natural-key collisions swallowed as expected no-ops",
		},
		[]string{"table"},
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "batch_duration_seconds",
			Help:    "Statement batch submission latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		},
	)
)

// Backfill Metrics
var (
	BackfillWindowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backfill_windows_total",
			Help: "Total number of backfill windows processed per stream",
		},
		[]string{"stream", "result"},
	)

	BackfillRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backfill_records_total",
			Help: "Total number of records fetched per backfill stream",
		},
		[]string{"stream"},
	)

	BackfillRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "backfill_run_duration_seconds",
			Help:    "Wall clock duration of complete backfill runs",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 3600, 7200},
		},
	)
)

// Diacloud API Metrics
var (
	DiacloudRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diacloud_api_requests_total",
			Help: "Total number of Diacloud API requests",
		},
		[]string{"operation", "status_code"},
	)

	DiacloudRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "diacloud_api_request_duration_seconds",
			Help:    "Diacloud API request latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"operation", "status_code"},
	)
)

// Database Metrics
var (
	DBOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_operation_duration_seconds",
			Help:    "Database operation latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)

	DBOperationErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_operation_errors_total",
			Help: "Total number of database operation errors",
		},
		[]string{"operation"},
	)
)
