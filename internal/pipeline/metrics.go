package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	QuestionsTotal *prometheus.CounterVec
	StageDuration  *prometheus.HistogramVec
	FailuresTotal  *prometheus.CounterVec
	CacheHits      prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		QuestionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "attendq_questions_total",
			Help: "Total number of questions answered, by outcome",
		}, []string{"outcome"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "attendq_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"stage"}),
		FailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "attendq_failures_total",
			Help: "Total number of failed questions, by failure kind",
		}, []string{"kind"}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "attendq_expression_cache_hits_total",
			Help: "Total number of synthesized expressions served from cache",
		}),
	}
}
