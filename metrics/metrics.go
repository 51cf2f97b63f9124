// Package metrics exposes Prometheus instrumentation for the payout engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CalculationDuration tracks how long a full monthly payout calculation
	// takes, including the snapshot load.
	CalculationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "agency",
		Subsystem: "payouts",
		Name:      "calculation_duration_seconds",
		Help:      "Duration of monthly payout calculations.",
		Buckets:   prometheus.DefBuckets,
	})

	// PaymentsRecorded counts payment records written, labeled by the
	// resulting status (paid, pending, completed).
	PaymentsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agency",
		Subsystem: "payouts",
		Name:      "payments_recorded_total",
		Help:      "Payment records written, by resulting status.",
	}, []string{"status"})

	// ExportsGenerated counts CSV exports served.
	ExportsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agency",
		Subsystem: "payouts",
		Name:      "exports_generated_total",
		Help:      "CSV payout exports generated.",
	})
)

// ObserveCalculation records one calculation's elapsed time.
func ObserveCalculation(start time.Time) {
	CalculationDuration.Observe(time.Since(start).Seconds())
}
