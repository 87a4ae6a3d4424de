package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Generation outcomes recorded by the question generation flow.
const (
	OutcomeSuccess            = "success"
	OutcomeInsufficientFunds  = "insufficient_funds"
	OutcomeTimeout            = "timeout"
	OutcomeParseError         = "parse_error"
	OutcomeEmpty              = "empty"
	OutcomePersistenceFailure = "persistence_failure"
	OutcomeDependencyError    = "dependency_error"
	OutcomeRejected           = "rejected"
)

// GenerationMetrics records generation latency, outcomes and spend.
type GenerationMetrics struct {
	duration  *prometheus.HistogramVec
	outcomes  *prometheus.CounterVec
	questions *prometheus.CounterVec
	coins     *prometheus.CounterVec
}

// NewGenerationMetrics registers the generation metrics on the provided registerer.
func NewGenerationMetrics(reg prometheus.Registerer) *GenerationMetrics {
	if reg == nil {
		return &GenerationMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "generation_duration_seconds",
		Help:    "Duration of question generation requests in seconds.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"outcome"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "generation_requests_total",
		Help: "Question generation requests by outcome.",
	}, []string{"outcome"})
	questions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "generation_questions_total",
		Help: "Questions committed by generation requests.",
	}, []string{"bloom_level"})
	coins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "generation_coins_debited_total",
		Help: "Coins debited by generation requests.",
	}, []string{"bloom_level"})
	reg.MustRegister(duration, outcomes, questions, coins)
	return &GenerationMetrics{
		duration:  duration,
		outcomes:  outcomes,
		questions: questions,
		coins:     coins,
	}
}

// Observe records one finished request.
func (g *GenerationMetrics) Observe(outcome string, duration time.Duration) {
	if g == nil || g.outcomes == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	g.outcomes.WithLabelValues(outcome).Inc()
	g.duration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// AddCommitted records questions and coins charged for a committed request.
func (g *GenerationMetrics) AddCommitted(bloomLevel string, questions int, coins int64) {
	if g == nil || g.questions == nil {
		return
	}
	level := normalizeLabel(bloomLevel)
	g.questions.WithLabelValues(level).Add(float64(questions))
	g.coins.WithLabelValues(level).Add(float64(coins))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
