package manager

import "github.com/prometheus/client_golang/prometheus"

var (
	admissionRejects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llmcore",
			Subsystem: "manager",
			Name:      "admission_rejects_total",
			Help:      "Requests rejected with 429 by the per-model queue",
		},
		[]string{"reason"},
	)

	queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "llmcore",
			Subsystem: "manager",
			Name:      "queue_depth",
			Help:      "Queued and in-flight requests per loaded model",
		},
		[]string{"handle"},
	)
)

func init() {
	prometheus.MustRegister(admissionRejects, queueDepth)
}
