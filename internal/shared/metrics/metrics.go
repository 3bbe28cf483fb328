package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	windowChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvopt_window_checks_total",
			Help: "Window counter checks by run type, path and result",
		},
		[]string{"run_type", "path", "result"},
	)

	quotaChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvopt_quota_checks_total",
			Help: "Monthly quota checks by run type and result",
		},
		[]string{"run_type", "result"},
	)

	runsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvopt_runs_recorded_total",
			Help: "Run records written to the ledger",
		},
		[]string{"run_type", "status"},
	)

	ledgerWriteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvopt_ledger_write_failures_total",
			Help: "Run ledger writes that failed and were swallowed",
		},
		[]string{"run_type"},
	)

	sectionReviews = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvopt_section_reviews_total",
			Help: "Section review transitions by action",
		},
		[]string{"action"},
	)

	exports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvopt_exports_total",
			Help: "Generated CV exports by format and status",
		},
		[]string{"format", "status"},
	)

	llmDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cvopt_llm_request_duration_seconds",
			Help:    "LLM request duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"operation"},
	)
)

// ObserveWindowCheck counts a window check. path is cache, ledger or unlimited.
func ObserveWindowCheck(runType, path string, allowed bool) {
	windowChecks.WithLabelValues(runType, path, result(allowed)).Inc()
}

// ObserveQuotaCheck counts a monthly quota check.
func ObserveQuotaCheck(runType string, allowed bool) {
	quotaChecks.WithLabelValues(runType, result(allowed)).Inc()
}

// IncRunRecorded counts a ledger row written.
func IncRunRecorded(runType, status string) {
	runsRecorded.WithLabelValues(runType, status).Inc()
}

// IncLedgerWriteFailure counts a swallowed ledger write failure.
func IncLedgerWriteFailure(runType string) {
	ledgerWriteFailures.WithLabelValues(runType).Inc()
}

// IncSectionReview counts a section review transition.
func IncSectionReview(action string) {
	sectionReviews.WithLabelValues(action).Inc()
}

// IncExport counts an export attempt.
func IncExport(format, status string) {
	exports.WithLabelValues(format, status).Inc()
}

// ObserveLLMDuration records the time spent in one LLM call.
func ObserveLLMDuration(operation string, d time.Duration) {
	if d < 0 {
		d = 0
	}
	llmDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func result(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "denied"
}
