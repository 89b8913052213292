package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	ticks        prometheus.Counter
	tickDuration prometheus.Histogram
	chunks       prometheus.Gauge
	interactions *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		return nil
	}

	m := &metrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "engine",
			Name:      "ticks_total",
			Help:      "Число выполненных тиков симуляции.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "engine",
			Name:      "tick_duration_seconds",
			Help:      "Длительность тика симуляции.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.0167, 0.033, 0.1},
		}),
		chunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "engine",
			Name:      "chunks_loaded",
			Help:      "Количество загруженных чанков.",
		}),
		interactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "engine",
			Name:      "interactions_total",
			Help:      "Взаимодействия игрока с блоками.",
		}, []string{"action", "result"}),
	}

	reg.MustRegister(m.ticks, m.tickDuration, m.chunks, m.interactions)
	return m
}

func (m *metrics) observeTick(d time.Duration, chunks int) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	m.tickDuration.Observe(d.Seconds())
	m.chunks.Set(float64(chunks))
}

func (m *metrics) observeInteraction(action Action, changed bool) {
	if m == nil {
		return
	}
	result := "miss"
	if changed {
		result = "changed"
	}
	m.interactions.WithLabelValues(string(action), result).Inc()
}
