package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "voxel"

// Collector содержит Prometheus-метрики симуляции.
// Нулевой указатель допустим: все методы становятся no-op, что удобно в тестах.
type Collector struct {
	chunksGenerated   *prometheus.CounterVec
	generationSeconds *prometheus.HistogramVec
	chunksEvicted     prometheus.Counter
	blockEdits        prometheus.Counter
	physicsSteps      prometheus.Counter
	collisions        prometheus.Counter
	capTrips          prometheus.Counter
	persistence       *prometheus.CounterVec
}

// NewCollector создаёт метрики и регистрирует их в reg.
// Для каждого реестра Collector создаётся один раз, повторная регистрация паникует.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		chunksGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_generated_total",
			Help:      "Количество сгенерированных чанков.",
		}, []string{"kind"}),
		generationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_generation_seconds",
			Help:      "Длительность генерации чанка от запуска до наложения правок.",
			Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"kind"}),
		chunksEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_evicted_total",
			Help:      "Участки земли, выгруженные за пределами дистанции выгрузки.",
		}),
		blockEdits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "block_edits_total",
			Help:      "Изменения блоков, записанные в хранилище правок.",
		}),
		physicsSteps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "physics_steps_total",
			Help:      "Выполненные шаги физики.",
		}),
		collisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "physics_collisions_total",
			Help:      "Столкновения, найденные узкой фазой.",
		}),
		capTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "physics_cap_trips_total",
			Help:      "Сколько раз срабатывал лимит итераций и аккумулятор отбрасывался.",
		}),
		persistence: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_operations_total",
			Help:      "Операции сохранения и загрузки мира по результату.",
		}, []string{"op", "result"}),
	}

	reg.MustRegister(
		c.chunksGenerated,
		c.generationSeconds,
		c.chunksEvicted,
		c.blockEdits,
		c.physicsSteps,
		c.collisions,
		c.capTrips,
		c.persistence,
	)
	return c
}

// ChunkGenerated учитывает завершённую генерацию чанка
func (c *Collector) ChunkGenerated(kind string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.chunksGenerated.WithLabelValues(kind).Inc()
	c.generationSeconds.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (c *Collector) ChunkEvicted() {
	if c == nil {
		return
	}
	c.chunksEvicted.Inc()
}

func (c *Collector) BlockEdited() {
	if c == nil {
		return
	}
	c.blockEdits.Inc()
}

// PhysicsStep учитывает шаг физики и число найденных столкновений
func (c *Collector) PhysicsStep(collisions int) {
	if c == nil {
		return
	}
	c.physicsSteps.Inc()
	if collisions > 0 {
		c.collisions.Add(float64(collisions))
	}
}

func (c *Collector) CapTripped() {
	if c == nil {
		return
	}
	c.capTrips.Inc()
}

// Persistence учитывает операцию save/load; result = ok | error | fallback
func (c *Collector) Persistence(op, result string) {
	if c == nil {
		return
	}
	c.persistence.WithLabelValues(op, result).Inc()
}
