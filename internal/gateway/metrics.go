package gateway

import (
	"time"

	"github.com/mmeshcher/proxypanel/internal/model"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	mutations *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "proxypanel",
			Subsystem: "gateway",
			Name:      "mutations_total",
			Help:      "Mutations performed through the gateway by outcome.",
		}, []string{"action", "entity", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "proxypanel",
			Subsystem: "gateway",
			Name:      "mutation_duration_seconds",
			Help:      "Time spent performing a mutation, including validation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action", "entity"}),
	}
	if reg != nil {
		reg.MustRegister(m.mutations, m.duration)
	}
	return m
}

func (m *metrics) observe(action model.Action, entity model.EntityType, outcome string, elapsed time.Duration) {
	m.mutations.WithLabelValues(string(action), string(entity), outcome).Inc()
	m.duration.WithLabelValues(string(action), string(entity)).Observe(elapsed.Seconds())
}
