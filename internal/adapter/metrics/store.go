package metrics

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/KJ87SAT/Fortify-DashBoard/internal/domain"
)

// StoreMetrics tracks settings store operations.
type StoreMetrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		OperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settings_store",
			Name:      "operations_total",
			Help:      "Total number of settings store operations, by backend, operation and outcome.",
		}, []string{"backend", "op", "outcome"}),
		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "settings_store",
			Name:      "operation_duration_seconds",
			Help:      "Latency of settings store operations in seconds.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"backend", "op"}),
	}

	reg.MustRegister(m.OperationsTotal, m.OperationDuration)
	return m
}

// InstrumentedStore wraps a domain.SettingsStore with StoreMetrics.
type InstrumentedStore struct {
	next    domain.SettingsStore
	backend string
	metrics *StoreMetrics
	clock   clockwork.Clock
}

func NewInstrumentedStore(next domain.SettingsStore, backend string, m *StoreMetrics, clock clockwork.Clock) *InstrumentedStore {
	return &InstrumentedStore{next: next, backend: backend, metrics: m, clock: clock}
}

func (s *InstrumentedStore) Load(ctx context.Context, guildID string) (*domain.GuildSettings, error) {
	start := s.clock.Now()
	settings, err := s.next.Load(ctx, guildID)
	s.record("load", start, err)
	return settings, err
}

func (s *InstrumentedStore) Save(ctx context.Context, guildID string, settings *domain.GuildSettings) error {
	start := s.clock.Now()
	err := s.next.Save(ctx, guildID, settings)
	s.record("save", start, err)
	return err
}

func (s *InstrumentedStore) record(op string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.metrics.OperationsTotal.WithLabelValues(s.backend, op, outcome).Inc()
	s.metrics.OperationDuration.WithLabelValues(s.backend, op).Observe(s.clock.Since(start).Seconds())
}
