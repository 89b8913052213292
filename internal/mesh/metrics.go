package mesh

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics содержит Prometheus-метрики перестройки мешей.
// Нулевой указатель допустим: наблюдения просто не записываются.
type Metrics struct {
	passes   prometheus.Counter
	chunks   prometheus.Counter
	faces    prometheus.Counter
	duration prometheus.Histogram
}

// NewMetrics создаёт метрики и регистрирует их в reg (если reg не nil)
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		passes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mesh",
			Name:      "rebuild_passes_total",
			Help:      "Число проходов перестройки, в которых был хотя бы один грязный чанк.",
		}),
		chunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mesh",
			Name:      "chunks_rebuilt_total",
			Help:      "Общее число перестроенных мешей чанков.",
		}),
		faces: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mesh",
			Name:      "faces_emitted_total",
			Help:      "Общее число сгенерированных видимых граней.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mesh",
			Name:      "rebuild_duration_seconds",
			Help:      "Длительность прохода перестройки мешей.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}),
	}

	if reg != nil {
		reg.MustRegister(m.passes, m.chunks, m.faces, m.duration)
	}
	return m
}

func (m *Metrics) observe(stats Stats) {
	if m == nil || stats.Chunks == 0 {
		return
	}
	m.passes.Inc()
	m.chunks.Add(float64(stats.Chunks))
	m.faces.Add(float64(stats.Faces))
	m.duration.Observe(stats.Duration.Seconds())
}
