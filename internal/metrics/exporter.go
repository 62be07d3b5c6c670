package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/annel0/voxel-sim/internal/logging"
)

// Snapshot — мгновенное состояние мира для gauge-метрик
type Snapshot struct {
	Plots        int
	Islands      int
	PendingTasks int
	Overrides    int
}

// SnapshotProvider отдаёт текущее состояние. Экспортер не зависит от конкретного мира.
type SnapshotProvider interface {
	MetricsSnapshot() Snapshot
}

// Exporter периодически обновляет gauge-метрики и обслуживает /metrics.
type Exporter struct {
	source   SnapshotProvider
	gatherer prometheus.Gatherer
	interval time.Duration

	loadedChunks *prometheus.GaugeVec
	pending      prometheus.Gauge
	overrides    prometheus.Gauge

	server *http.Server
	quit   chan struct{}
	done   chan struct{}
}

// NewExporter создаёт экспортер и регистрирует его gauge-метрики в reg
func NewExporter(source SnapshotProvider, reg prometheus.Registerer, gatherer prometheus.Gatherer, interval time.Duration) *Exporter {
	if interval <= 0 {
		interval = time.Second
	}
	e := &Exporter{
		source:   source,
		gatherer: gatherer,
		interval: interval,
		loadedChunks: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chunks_loaded",
			Help:      "Количество живых чанков по типу.",
		}, []string{"kind"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_pending_tasks",
			Help:      "Единицы генерации, ожидающие в idle-планировщике.",
		}),
		overrides: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "overrides",
			Help:      "Количество правок игрока в хранилище правок.",
		}),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	reg.MustRegister(e.loadedChunks, e.pending, e.overrides)
	return e
}

// Handler возвращает HTTP-обработчик /metrics для gatherer экспортера
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.gatherer, promhttp.HandlerOpts{})
}

// Refresh переносит текущий Snapshot в gauge-метрики
func (e *Exporter) Refresh() {
	s := e.source.MetricsSnapshot()
	e.loadedChunks.WithLabelValues("plot").Set(float64(s.Plots))
	e.loadedChunks.WithLabelValues("island").Set(float64(s.Islands))
	e.pending.Set(float64(s.PendingTasks))
	e.overrides.Set(float64(s.Overrides))
}

// Start запускает HTTP-эндпоинт на addr (например, ":2112") и цикл обновления.
// Метод неблокирующий.
func (e *Exporter) Start(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	e.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
		if err := e.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
	go e.loop()
}

// Stop останавливает цикл обновления и HTTP-сервер
func (e *Exporter) Stop(ctx context.Context) error {
	close(e.quit)
	<-e.done
	if e.server == nil {
		return nil
	}
	return e.server.Shutdown(ctx)
}

func (e *Exporter) loop() {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	defer close(e.done)

	for {
		select {
		case <-ticker.C:
			e.Refresh()
		case <-e.quit:
			return
		}
	}
}
