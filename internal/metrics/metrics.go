package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "codecraft"

var (
	// HTTPRequests counts handled requests by route and status
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes request latency
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// Generations counts orchestrated generations by language and outcome
	Generations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "generations_total",
		Help:      "Code generations by language and outcome (responded, validation, network, internal).",
	}, []string{"language", "outcome"})

	// CompletionDuration observes completion service round trips
	CompletionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "completion_duration_seconds",
		Help:      "Completion service latency by provider and outcome.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"provider", "outcome"})

	// FormatterRuns counts formatter dispatches by language and outcome
	FormatterRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "formatter_runs_total",
		Help:      "Formatter dispatches by language and outcome (ok, unsupported, not_found, exit, timeout, error).",
	}, []string{"language", "outcome"})
)

var knownLanguages = map[string]bool{
	"python":     true,
	"javascript": true,
	"typescript": true,
	"go":         true,
	"java":       true,
	"rust":       true,
}

// LanguageLabel keeps label cardinality bounded for caller supplied tags
func LanguageLabel(tag string) string {
	tag = strings.ToLower(tag)
	if knownLanguages[tag] {
		return tag
	}
	return "other"
}
