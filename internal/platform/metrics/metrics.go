package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	AllocationsCreated  prometheus.Counter
	Checkouts           prometheus.Counter
	AllocationConflicts prometheus.Counter
	PaymentsSettled     *prometheus.CounterVec
	ApplicationsDecided *prometheus.CounterVec
	OccupancyDrift      prometheus.Gauge
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		AllocationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hostelcore_allocations_created_total",
			Help: "Total number of bed allocations created",
		}),
		Checkouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hostelcore_checkouts_total",
			Help: "Total number of allocations completed via checkout",
		}),
		AllocationConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hostelcore_allocation_conflicts_total",
			Help: "Serialization conflicts observed while allocating beds",
		}),
		PaymentsSettled: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hostelcore_payments_settled_total",
			Help: "Payments transitioned out of pending, by outcome",
		}, []string{"status"}),
		ApplicationsDecided: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hostelcore_applications_decided_total",
			Help: "Admission decisions recorded, by outcome",
		}, []string{"status"}),
		OccupancyDrift: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "hostelcore_occupancy_drift_rooms",
			Help: "Rooms whose cached occupancy disagreed with allocation rows at last audit",
		}),
	}
}

func (m *Metrics) IncrementAllocationsCreated() {
	m.AllocationsCreated.Inc()
}

func (m *Metrics) IncrementCheckouts() {
	m.Checkouts.Inc()
}

func (m *Metrics) IncrementAllocationConflicts() {
	m.AllocationConflicts.Inc()
}

func (m *Metrics) IncrementPaymentsSettled(status string) {
	m.PaymentsSettled.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrementApplicationsDecided(status string) {
	m.ApplicationsDecided.WithLabelValues(status).Inc()
}

func (m *Metrics) SetOccupancyDrift(rooms int) {
	m.OccupancyDrift.Set(float64(rooms))
}
