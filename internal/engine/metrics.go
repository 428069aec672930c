package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	modelsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "llmcore",
			Subsystem: "engine",
			Name:      "models_loaded",
			Help:      "Number of live model handles",
		},
	)

	loadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llmcore",
			Subsystem: "engine",
			Name:      "loads_total",
			Help:      "Model load attempts by result",
		},
		[]string{"result"},
	)

	tokensGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "llmcore",
			Subsystem: "engine",
			Name:      "tokens_generated_total",
			Help:      "Tokens accepted by generate and stream calls",
		},
	)

	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llmcore",
			Subsystem: "engine",
			Name:      "generations_total",
			Help:      "Completed generate/stream calls by mode and finish reason",
		},
		[]string{"mode", "reason"},
	)

	generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "llmcore",
			Subsystem: "engine",
			Name:      "generation_duration_seconds",
			Help:      "Wall time of generate/stream calls",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llmcore",
			Subsystem: "engine",
			Name:      "errors_total",
			Help:      "Engine errors by operation and kind",
		},
		[]string{"op", "kind"},
	)
)

func init() {
	prometheus.MustRegister(modelsLoaded, loadsTotal, tokensGenerated, generationsTotal, generationDuration, errorsTotal)
}

// countError records err if it is an engine error and returns it unchanged.
func countError(err error) error {
	if e, ok := err.(*Error); ok {
		errorsTotal.WithLabelValues(e.Op, e.Kind.String()).Inc()
	}
	return err
}
