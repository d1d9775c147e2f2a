package observability

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	types "github.com/yungbote/suggestion-engine/internal/domain"
	"github.com/yungbote/suggestion-engine/internal/platform/envutil"
	"github.com/yungbote/suggestion-engine/internal/platform/logger"
)

type Metrics struct {
	apiRequests          *prometheus.CounterVec
	apiLatency           *prometheus.HistogramVec
	feedbackCollected    *prometheus.CounterVec
	patternsUpserted     *prometheus.CounterVec
	preferencesExtracted *prometheus.CounterVec
	suggestionsCreated   *prometheus.CounterVec
	suggestionsDropped   *prometheus.CounterVec
	suggestionLifecycle  *prometheus.CounterVec
	jobRuns              *prometheus.CounterVec
	jobDuration          *prometheus.HistogramVec
	llmRequests          *prometheus.CounterVec
	llmLatency           *prometheus.HistogramVec
	queueDepth           *prometheus.GaugeVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", true)
}

// Current returns the process metrics, or nil before Init. All methods are
// nil-safe so callers never check.
func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = &Metrics{
			apiRequests: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "se_api_requests_total",
				Help: "API requests by method/route/status.",
			}, []string{"method", "route", "status"}),
			apiLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "se_api_request_duration_seconds",
				Help:    "API request latency in seconds.",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			}, []string{"method", "route", "status"}),
			feedbackCollected: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "se_feedback_collected_total",
				Help: "Feedback events persisted by type.",
			}, []string{"feedback_type"}),
			patternsUpserted: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "se_patterns_upserted_total",
				Help: "Pattern upserts by type and outcome (created, advanced, unchanged, failed).",
			}, []string{"pattern_type", "outcome"}),
			preferencesExtracted: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "se_preferences_extracted_total",
				Help: "Extracted preference items by outcome (stored, invalid, failed).",
			}, []string{"outcome"}),
			suggestionsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "se_suggestions_created_total",
				Help: "Suggestions persisted by source.",
			}, []string{"source"}),
			suggestionsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "se_suggestions_dropped_total",
				Help: "Candidates dropped before or during persistence by reason.",
			}, []string{"reason"}),
			suggestionLifecycle: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "se_suggestion_transitions_total",
				Help: "Execute/dismiss calls by transition and whether state changed.",
			}, []string{"transition", "changed"}),
			jobRuns: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "se_job_runs_total",
				Help: "Finished job handler runs by type and status.",
			}, []string{"job_type", "status"}),
			jobDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "se_job_duration_seconds",
				Help:    "Job handler duration in seconds.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
			}, []string{"job_type", "status"}),
			llmRequests: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "se_llm_requests_total",
				Help: "LLM requests by model/endpoint/status.",
			}, []string{"model", "endpoint", "status"}),
			llmLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "se_llm_request_duration_seconds",
				Help:    "LLM request latency in seconds.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
			}, []string{"model", "endpoint", "status"}),
			queueDepth: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Name: "se_job_queue_depth",
				Help: "job_run rows by status.",
			}, []string{"status"}),
		}
		if log != nil {
			log.Info("Prometheus metrics enabled")
		}
	})
	return instance
}

// Handler serves the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

func label(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	route = label(route, "unmatched")
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) IncFeedback(feedbackType string) {
	if m == nil {
		return
	}
	m.feedbackCollected.WithLabelValues(label(feedbackType, "unknown")).Inc()
}

func (m *Metrics) IncPatternUpsert(patternType, outcome string) {
	if m == nil {
		return
	}
	m.patternsUpserted.WithLabelValues(label(patternType, "unknown"), label(outcome, "unknown")).Inc()
}

func (m *Metrics) AddPreferences(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.preferencesExtracted.WithLabelValues(label(outcome, "unknown")).Add(float64(n))
}

func (m *Metrics) IncSuggestionCreated(source string) {
	if m == nil {
		return
	}
	m.suggestionsCreated.WithLabelValues(label(source, "unknown")).Inc()
}

func (m *Metrics) AddSuggestionsDropped(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.suggestionsDropped.WithLabelValues(label(reason, "unknown")).Add(float64(n))
}

func (m *Metrics) IncSuggestionTransition(transition string, changed bool) {
	if m == nil {
		return
	}
	c := "false"
	if changed {
		c = "true"
	}
	m.suggestionLifecycle.WithLabelValues(transition, c).Inc()
}

func (m *Metrics) ObserveJob(jobType, status string, dur time.Duration) {
	if m == nil {
		return
	}
	jobType = label(jobType, "unknown")
	status = label(status, "unknown")
	m.jobRuns.WithLabelValues(jobType, status).Inc()
	if dur > 0 {
		m.jobDuration.WithLabelValues(jobType, status).Observe(dur.Seconds())
	}
}

func (m *Metrics) ObserveLLMRequest(model, endpoint, status string, dur time.Duration) {
	if m == nil {
		return
	}
	model = label(model, "unknown")
	endpoint = label(endpoint, "unknown")
	status = label(status, "0")
	m.llmRequests.WithLabelValues(model, endpoint, status).Inc()
	if dur > 0 {
		m.llmLatency.WithLabelValues(model, endpoint, status).Observe(dur.Seconds())
	}
}

// StartJobQueueCollector samples job_run depth per status until ctx ends.
func (m *Metrics) StartJobQueueCollector(ctx context.Context, log *logger.Logger, db *gorm.DB, interval time.Duration) {
	if m == nil || db == nil {
		return
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	statuses := []string{"queued", "running", "succeeded", "failed"}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, s := range statuses {
					m.queueDepth.WithLabelValues(s).Set(0)
				}
				var rows []struct {
					Status string
					Count  int64
				}
				if err := db.WithContext(ctx).
					Model(&types.JobRun{}).
					Select("status, count(*) as count").
					Group("status").
					Scan(&rows).Error; err != nil {
					if log != nil {
						log.Warn("metrics: job queue depth query failed", "error", err)
					}
					continue
				}
				for _, row := range rows {
					m.queueDepth.WithLabelValues(label(row.Status, "unknown")).Set(float64(row.Count))
				}
			}
		}
	}()
}
