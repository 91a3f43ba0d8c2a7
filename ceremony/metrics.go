package ceremony

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsOnce     sync.Once
	operationHist   *prometheus.HistogramVec
	operationErrors *prometheus.CounterVec
)

func ensureMetrics() {
	metricsOnce.Do(func() {
		operationHist = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "frost",
			Subsystem: "ceremony",
			Name:      "operation_duration_seconds",
			Help:      "Latency of ceremony operations, including the cryptographic work",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}, []string{"operation", "outcome"})
		operationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "frost",
			Subsystem: "ceremony",
			Name:      "operation_errors_total",
			Help:      "Rejected ceremony operations by error kind",
		}, []string{"operation", "kind"})
	})
}
