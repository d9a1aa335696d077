package expert

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/fwexpert/framework"
	"github.com/c360studio/fwexpert/retriever"
)

// Metrics collects Prometheus metrics for the expert service.
type Metrics struct {
	analysesTotal      *prometheus.CounterVec
	analysisDuration   *prometheus.HistogramVec
	generationsTotal   *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	demoFallbacksTotal *prometheus.CounterVec
}

// NewMetrics creates and registers the expert metrics set.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		analysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fwexpert_analyses_total",
			Help: "Framework analyses run, by framework type and outcome.",
		}, []string{"framework", "outcome"}),
		analysisDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fwexpert_analysis_duration_seconds",
			Help:    "Wall time of framework analyses.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"framework"}),
		generationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fwexpert_generations_total",
			Help: "Script generations, by framework type, context source and outcome.",
		}, []string{"framework", "context_source", "outcome"}),
		generationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fwexpert_generation_duration_seconds",
			Help:    "Wall time of script generation calls.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"framework"}),
		demoFallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fwexpert_demo_fallbacks_total",
			Help: "Generations that ran on the demo corpus because no analyzed knowledge existed.",
		}, []string{"framework"}),
	}

	reg.MustRegister(
		m.analysesTotal,
		m.analysisDuration,
		m.generationsTotal,
		m.generationDuration,
		m.demoFallbacksTotal,
	)
	return m
}

// ObserveAnalysis records one analysis attempt.
func (m *Metrics) ObserveAnalysis(ft framework.Type, d time.Duration, err error) {
	m.analysesTotal.WithLabelValues(ft.String(), outcome(err)).Inc()
	if err == nil {
		m.analysisDuration.WithLabelValues(ft.String()).Observe(d.Seconds())
	}
}

// ObserveGeneration records one generation attempt.
func (m *Metrics) ObserveGeneration(ft framework.Type, source retriever.Source, d time.Duration, err error) {
	m.generationsTotal.WithLabelValues(ft.String(), string(source), outcome(err)).Inc()
	if err == nil {
		m.generationDuration.WithLabelValues(ft.String()).Observe(d.Seconds())
	}
	if source == retriever.SourceDemo {
		m.demoFallbacksTotal.WithLabelValues(ft.String()).Inc()
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
