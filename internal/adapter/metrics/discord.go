package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DiscordMetrics counts and times Discord REST calls. It satisfies
// discord.CallObserver.
type DiscordMetrics struct {
	CallsTotal   *prometheus.CounterVec
	CallDuration *prometheus.HistogramVec
}

func NewDiscordMetrics(reg prometheus.Registerer) *DiscordMetrics {
	m := &DiscordMetrics{
		CallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discord",
			Name:      "calls_total",
			Help:      "Total number of Discord API calls, by call and outcome.",
		}, []string{"call", "outcome"}),
		CallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "discord",
			Name:      "call_duration_seconds",
			Help:      "Latency of Discord API calls in seconds.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"call"}),
	}

	reg.MustRegister(m.CallsTotal, m.CallDuration)
	return m
}

func (m *DiscordMetrics) ObserveDiscordCall(call, outcome string, d time.Duration) {
	m.CallsTotal.WithLabelValues(call, outcome).Inc()
	m.CallDuration.WithLabelValues(call).Observe(d.Seconds())
}
