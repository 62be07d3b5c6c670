package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/annel0/voxel-sim/internal/api"
	"github.com/annel0/voxel-sim/internal/config"
	"github.com/annel0/voxel-sim/internal/eventbus"
	"github.com/annel0/voxel-sim/internal/logging"
	"github.com/annel0/voxel-sim/internal/metrics"
	"github.com/annel0/voxel-sim/internal/observability"
	"github.com/annel0/voxel-sim/internal/physics"
	"github.com/annel0/voxel-sim/internal/storage"
	"github.com/annel0/voxel-sim/internal/world"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию $VOXEL_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	logging.Configure(cfg.Logging.Dir, logging.ParseLevel(cfg.Logging.Level))
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	logging.Info("🎮 Запуск воксельной симуляции (seed=%d)...", cfg.World.Seed)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === ИНИЦИАЛИЗАЦИЯ КОМПОНЕНТОВ ===

	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled)
	if err != nil {
		logging.Warn("⚠️ OpenTelemetry недоступен: %v", err)
		shutdownTelemetry = func(context.Context) error { return nil }
	}

	kv, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		logging.Error("❌ Не удалось открыть хранилище %s: %v", cfg.Storage.Backend, err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	bus, err := eventbus.Open(cfg.Events)
	if err != nil {
		logging.Warn("⚠️ Шина событий недоступна, события отключены: %v", err)
	}
	var busMetrics *eventbus.MetricsExporter
	if bus != nil {
		if _, err := eventbus.StartLoggingListener(bus, nil); err != nil {
			logging.Warn("⚠️ Не удалось подписать логгер событий: %v", err)
		}
		busMetrics = eventbus.NewMetricsExporter(bus, registry, time.Second)
		busMetrics.Start()
	}

	sched := world.NewIdleScheduler(nil)
	opts := world.OptionsFrom(cfg)
	opts.Scheduler = sched
	opts.Store = kv
	opts.Metrics = collector
	opts.Events = bus

	wm, err := world.NewWorldManager(opts)
	if err != nil {
		logging.Error("❌ Не удалось создать мир: %v", err)
		os.Exit(1)
	}

	res, err := wm.Load(ctx)
	if err != nil {
		logging.Error("❌ Ошибка загрузки мира: %v", err)
	} else {
		logging.Info("💾 Мир загружен: правок %d (параметры по умолчанию: %t, правки по умолчанию: %t)",
			res.Overrides, res.ParamsDefaulted, res.OverlayDefaulted)
	}
	wm.Run(ctx, cfg.World.AutoSave)

	engine := physics.NewEngine(physics.ConfigFrom(cfg.Physics),
		physics.WithLogger(logging.GetPhysicsLogger()),
		physics.WithMetrics(collector),
	)
	spawn := mgl64.Vec3{cfg.Player.Spawn[0], cfg.Player.Spawn[1], cfg.Player.Spawn[2]}
	player := physics.NewPlayer(physics.PlayerConfigFrom(cfg.Player), spawn)

	restPort := fmt.Sprintf(":%d", cfg.Server.GetRESTPort())
	metricsPort := fmt.Sprintf(":%d", cfg.Server.GetMetricsPort())

	rest := api.NewRestServer(api.Config{
		Addr:     restPort,
		World:    wm,
		Registry: registry,
		Gatherer: registry,
	})
	go func() {
		if err := rest.Start(); err != nil {
			logging.Error("❌ Ошибка REST API: %v", err)
		}
	}()

	exporter := metrics.NewExporter(wm, registry, registry, time.Second)
	exporter.Start(metricsPort)

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   🌐 REST API: http://localhost%s", restPort)
	logging.Info("   ❤️  Health check: http://localhost%s/health", restPort)
	logging.Info("   📈 Метрики: http://localhost%s/metrics", metricsPort)

	// Канал для получения сигналов ОС
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	runFrames(ctx, sigCh, cfg, engine, player, wm, sched)

	// === GRACEFUL SHUTDOWN ===
	cancel()
	logging.Debug("Остановка сервисов...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()

	if err := rest.Stop(stopCtx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}
	if err := exporter.Stop(stopCtx); err != nil {
		logging.Error("❌ Ошибка остановки экспортера метрик: %v", err)
	}
	if err := wm.Save(stopCtx); err != nil && !errors.Is(err, world.ErrNoStorage) {
		logging.Error("❌ Финальное сохранение мира не удалось: %v", err)
	}
	if bus != nil {
		busMetrics.Stop()
		if err := bus.Close(); err != nil {
			logging.Error("❌ Ошибка закрытия шины событий: %v", err)
		}
	}
	if err := kv.Close(); err != nil {
		logging.Error("❌ Ошибка закрытия хранилища: %v", err)
	}
	if err := shutdownTelemetry(stopCtx); err != nil {
		logging.Error("❌ Ошибка остановки OpenTelemetry: %v", err)
	}

	logging.Info("👋 Сервер успешно остановлен")
}

// runFrames крутит кадровый цикл до сигнала ОС: ввод, физика, подгрузка участков,
// затем оставшееся время кадра отдаётся idle-планировщику.
func runFrames(ctx context.Context, sigCh <-chan os.Signal, cfg *config.Config,
	engine *physics.Engine, player *physics.Player, wm *world.WorldManager, sched *world.IdleScheduler) {

	frameRate := cfg.Scheduler.FrameRate
	if frameRate <= 0 {
		frameRate = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(frameRate))
	defer ticker.Stop()

	driver := newPilot()
	last := time.Now()
	frames := 0

	for {
		select {
		case sig := <-sigCh:
			logging.Info("📡 Получен сигнал %v, завершение работы...", sig)
			return
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now

			driver.drive(player, dt)
			engine.Update(dt, player, wm)
			if wm.Update(player.Position()) {
				pos := player.Position()
				logging.Debug("Игрок перешёл в новый участок: (%.1f, %.1f, %.1f)", pos.X(), pos.Y(), pos.Z())
			}
			sched.RunIdle(cfg.Scheduler.IdleBudget)

			frames++
			if frames%(frameRate*30) == 0 {
				s := wm.Stats()
				logging.Info("📊 Участков %d (сгенерировано %d), островов %d, правок %d, в очереди %d",
					s.Plots, s.GeneratedPlots, s.Islands, s.Overrides, s.PendingTasks)
			}
		}
	}
}
