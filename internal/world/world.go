package world

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/voxel-sim/internal/config"
	"github.com/annel0/voxel-sim/internal/eventbus"
	"github.com/annel0/voxel-sim/internal/logging"
	"github.com/annel0/voxel-sim/internal/metrics"
	"github.com/annel0/voxel-sim/internal/observability"
	"github.com/annel0/voxel-sim/internal/storage"
	"github.com/annel0/voxel-sim/internal/vec"
	"github.com/annel0/voxel-sim/internal/world/block"
	"github.com/annel0/voxel-sim/internal/world/terrain"
)

var (
	// ErrChunkNotLoaded возвращается при правке координаты, не покрытой ни одним живым чанком
	ErrChunkNotLoaded = errors.New("чанк не загружен")
	// ErrUnknownBlock возвращается при попытке записать незарегистрированный блок
	ErrUnknownBlock = errors.New("неизвестный блок")
	// ErrNoStorage возвращается Save/Load, если хранилище не задано
	ErrNoStorage = errors.New("хранилище мира не задано")
)

// Options задаёт параметры мира
type Options struct {
	Params        terrain.Params
	ChunkWidth    int
	ChunkHeight   int
	DrawDistance  int
	EvictDistance int // 0 — участки не выгружаются
	AsyncLoading  bool
	Islands       IslandOptions

	Scheduler   Scheduler // Используется при AsyncLoading; по умолчанию InlineScheduler
	TaskTimeout time.Duration
	Sources     *terrain.Sources // Подмена шума; nil — шум Перлина по сиду
	Mods        *ModificationStore
	Store       storage.KV
	Metrics     *metrics.Collector
	Events      eventbus.EventBus // nil — события не публикуются
	Logger      *logging.Logger
}

// OptionsFrom переносит секции world и islands конфигурации в Options.
// Планировщик, хранилище и метрики вызывающий задаёт сам.
func OptionsFrom(cfg *config.Config) Options {
	return Options{
		Params:        terrain.DefaultParams().WithSeed(cfg.World.Seed),
		ChunkWidth:    cfg.World.ChunkWidth,
		ChunkHeight:   cfg.World.ChunkHeight,
		DrawDistance:  cfg.World.DrawDistance,
		EvictDistance: cfg.World.EvictDistance,
		AsyncLoading:  cfg.World.AsyncLoading,
		Islands: IslandOptions{
			Count:         cfg.Islands.Count,
			Width:         cfg.Islands.Width,
			Height:        cfg.Islands.Height,
			Spread:        cfg.Islands.Spread,
			MinAltitude:   cfg.Islands.MinAltitude,
			AltitudeRange: cfg.Islands.AltitudeRange,
		},
		TaskTimeout: cfg.Scheduler.TaskTimeout,
	}
}

// Stats — сводка состояния мира
type Stats struct {
	ID             string `json:"id"`
	Seed           int64  `json:"seed"`
	Plots          int    `json:"plots"`
	GeneratedPlots int    `json:"generated_plots"`
	Islands        int    `json:"islands"`
	Overrides      int    `json:"overrides"`
	PendingTasks   int    `json:"pending_tasks"`
}

// WorldManager владеет живыми чанками: участками земли, подгружаемыми вокруг игрока,
// и летающими островами, созданными один раз при построении мира.
type WorldManager struct {
	id     uuid.UUID
	opts   Options
	mods   *ModificationStore
	logger *logging.Logger
	tracer trace.Tracer

	mu          sync.RWMutex
	params      terrain.Params
	groundGen   *terrain.Generator
	islandGen   *terrain.Generator
	plots       map[vec.Vec2]*Chunk
	islands     []*Chunk
	placements  []IslandPlacement
	islandIndex *islandIndex
	lastCell    vec.Vec2
	hasCell     bool

	saveMu sync.Mutex
}

// NewWorldManager создаёт мир, размещает острова и генерирует участки в пределах дистанции прорисовки
func NewWorldManager(opts Options) (*WorldManager, error) {
	if err := opts.Params.Validate(); err != nil {
		return nil, err
	}
	if opts.ChunkWidth <= 0 || opts.ChunkHeight <= 0 {
		return nil, fmt.Errorf("некорректный размер чанка %dx%d", opts.ChunkWidth, opts.ChunkHeight)
	}
	if opts.Islands.Count > 0 && (opts.Islands.Width <= 0 || opts.Islands.Height <= 0) {
		return nil, fmt.Errorf("некорректный размер острова %dx%d", opts.Islands.Width, opts.Islands.Height)
	}
	if opts.Scheduler == nil {
		opts.Scheduler = InlineScheduler{}
	}
	if opts.Mods == nil {
		opts.Mods = NewModificationStore()
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetWorldLogger()
	}

	wm := &WorldManager{
		id:     uuid.New(),
		opts:   opts,
		mods:   opts.Mods,
		logger: opts.Logger,
		tracer: observability.Tracer("world"),
		plots:  make(map[vec.Vec2]*Chunk),
	}
	wm.applyParams(opts.Params)
	wm.Regenerate(context.Background(), false)

	wm.logger.Info("🌍 Мир %s создан: seed=%d, чанк %dx%d, островов %d",
		wm.id, opts.Params.Seed, opts.ChunkWidth, opts.ChunkHeight, len(wm.placements))
	return wm, nil
}

// applyParams пересоздаёт генераторы и расстановку островов. Вызывается под mu или до публикации.
func (wm *WorldManager) applyParams(params terrain.Params) {
	var genOpts []terrain.Option
	if wm.opts.Sources != nil {
		genOpts = append(genOpts, terrain.WithSources(*wm.opts.Sources))
	}
	wm.params = params
	wm.groundGen = terrain.NewGenerator(params, terrain.Shape{Height: wm.opts.ChunkHeight, Clouds: true}, genOpts...)
	wm.islandGen = terrain.NewGenerator(params, terrain.Shape{Height: wm.opts.Islands.Height}, genOpts...)
	wm.placements = drawIslandPlacements(params.Seed, wm.opts.Islands)
	wm.islandIndex = newIslandIndex(wm.opts.ChunkWidth*2, wm.placements, wm.opts.Islands.Width)
}

// ID возвращает идентификатор экземпляра мира
func (wm *WorldManager) ID() string {
	return wm.id.String()
}

// Params возвращает текущие параметры генерации
func (wm *WorldManager) Params() terrain.Params {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	return wm.params
}

// Modifications возвращает хранилище правок мира
func (wm *WorldManager) Modifications() *ModificationStore {
	return wm.mods
}

// IslandPlacements возвращает копию расстановки островов
func (wm *WorldManager) IslandPlacements() []IslandPlacement {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	out := make([]IslandPlacement, len(wm.placements))
	copy(out, wm.placements)
	return out
}

func (wm *WorldManager) newPlot(cell vec.Vec2) *Chunk {
	return NewChunk(ChunkConfig{
		Key:       cell.String(),
		Kind:      KindPlot,
		Origin:    vec.Vec3{X: cell.X * wm.opts.ChunkWidth, Y: 0, Z: cell.Z * wm.opts.ChunkWidth},
		Width:     wm.opts.ChunkWidth,
		Generator: wm.groundGen,
		Mods:      wm.mods,
		Metrics:   wm.opts.Metrics,
		Logger:    wm.logger,
	})
}

func (wm *WorldManager) newIsland(p IslandPlacement) *Chunk {
	return NewChunk(ChunkConfig{
		Key:       p.Key(),
		Kind:      KindIsland,
		Origin:    p.Origin,
		Width:     wm.opts.Islands.Width,
		Generator: wm.islandGen,
		Mods:      wm.mods,
		Metrics:   wm.opts.Metrics,
		Logger:    wm.logger,
	})
}

// generate запускает генерацию синхронно или через планировщик
func (wm *WorldManager) generate(chunks ...*Chunk) {
	var sched Scheduler
	if wm.opts.AsyncLoading {
		sched = wm.opts.Scheduler
	}
	for _, c := range chunks {
		c.Generate(sched, wm.opts.TaskTimeout)
	}
}

// Update подгружает участок под позицией игрока и выгружает далёкие участки.
// Возвращает true, если был создан новый участок.
func (wm *WorldManager) Update(pos mgl64.Vec3) bool {
	cell := vec.CellOf(pos.X(), pos.Z(), wm.opts.ChunkWidth)

	wm.mu.Lock()
	var created *Chunk
	if _, ok := wm.plots[cell]; !ok {
		created = wm.newPlot(cell)
		wm.plots[cell] = created
	}
	var evicted []*Chunk
	if !wm.hasCell || wm.lastCell != cell {
		wm.lastCell, wm.hasCell = cell, true
		evicted = wm.evictLocked(cell)
	}
	wm.mu.Unlock()

	for _, c := range evicted {
		c.Dispose()
		wm.opts.Metrics.ChunkEvicted()
		wm.publish(context.Background(), eventbus.TypeChunkEvicted, eventbus.PriorityLow,
			eventbus.ChunkEvicted{Chunk: c.Key(), Kind: c.Kind()})
	}
	if len(evicted) > 0 {
		wm.logger.Debug("Выгружено участков: %d (ячейка игрока %s)", len(evicted), cell)
	}
	if created == nil {
		return false
	}
	wm.generate(created)
	return true
}

func (wm *WorldManager) evictLocked(center vec.Vec2) []*Chunk {
	if wm.opts.EvictDistance <= 0 {
		return nil
	}
	var out []*Chunk
	for cell, c := range wm.plots {
		if cell.Chebyshev(center) > wm.opts.EvictDistance {
			out = append(out, c)
			delete(wm.plots, cell)
		}
	}
	return out
}

// Regenerate удаляет все живые чанки, при clearOverlay очищает правки и создаёт заново
// участки в пределах дистанции прорисовки от начала координат и все острова.
func (wm *WorldManager) Regenerate(ctx context.Context, clearOverlay bool) {
	ctx, span := wm.tracer.Start(ctx, "world.Regenerate",
		trace.WithAttributes(attribute.Bool("clear_overlay", clearOverlay)))
	defer span.End()

	wm.mu.Lock()
	wm.regenerateLocked(clearOverlay)
	chunks := make([]*Chunk, 0, len(wm.plots)+len(wm.islands))
	for _, c := range wm.plots {
		chunks = append(chunks, c)
	}
	chunks = append(chunks, wm.islands...)
	plots, islands := len(wm.plots), len(wm.islands)
	wm.mu.Unlock()

	wm.generate(chunks...)
	span.SetAttributes(attribute.Int("plots", plots), attribute.Int("islands", islands))
	wm.logger.Info("Мир перегенерирован: участков %d, островов %d, clearOverlay=%v", plots, islands, clearOverlay)
	wm.publish(ctx, eventbus.TypeWorldRegenerated, eventbus.PriorityHigh,
		eventbus.WorldRegenerated{Plots: plots, Islands: islands, ClearOverlay: clearOverlay})
}

func (wm *WorldManager) regenerateLocked(clearOverlay bool) {
	for _, c := range wm.plots {
		c.Dispose()
	}
	for _, c := range wm.islands {
		c.Dispose()
	}
	if clearOverlay {
		wm.mods.Clear()
	}

	wm.plots = make(map[vec.Vec2]*Chunk)
	r := wm.opts.DrawDistance
	for cx := -r; cx <= r; cx++ {
		for cz := -r; cz <= r; cz++ {
			cell := vec.Vec2{X: cx, Z: cz}
			wm.plots[cell] = wm.newPlot(cell)
		}
	}
	wm.hasCell = false

	wm.islands = make([]*Chunk, len(wm.placements))
	for i, p := range wm.placements {
		wm.islands[i] = wm.newIsland(p)
	}
}

// chunkAt находит живой чанк, содержащий координату: сначала участок, затем острова
func (wm *WorldManager) chunkAt(x, y, z int) *Chunk {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	cell := vec.Vec2{X: x, Z: z}.ToCell(wm.opts.ChunkWidth)
	if c, ok := wm.plots[cell]; ok && c.Contains(x, y, z) {
		return c
	}
	for _, i := range wm.islandIndex.candidates(x, z) {
		if i < len(wm.islands) && wm.islands[i].Contains(x, y, z) {
			return wm.islands[i]
		}
	}
	return nil
}

// GetBlock возвращает блок по мировой координате; пустой блок, если чанка нет или он не готов
func (wm *WorldManager) GetBlock(x, y, z int) block.BlockID {
	if c := wm.chunkAt(x, y, z); c != nil {
		return c.GetBlock(x, y, z)
	}
	return block.EmptyBlockID
}

// SetBlock записывает блок в чанк, содержащий координату, и в хранилище правок.
// Возвращает false без ошибки, если блок уже был таким.
func (wm *WorldManager) SetBlock(x, y, z int, id block.BlockID) (bool, error) {
	if !block.IsValidBlockID(id) {
		return false, fmt.Errorf("%w: %d", ErrUnknownBlock, id)
	}
	c := wm.chunkAt(x, y, z)
	if c == nil {
		return false, fmt.Errorf("%w: (%d, %d, %d)", ErrChunkNotLoaded, x, y, z)
	}
	changed := c.SetBlock(x, y, z, id)
	if changed {
		wm.opts.Metrics.BlockEdited()
		wm.publish(context.Background(), eventbus.TypeBlockEdited, eventbus.PriorityLow,
			eventbus.BlockEdited{Chunk: c.Key(), X: x, Y: y, Z: z, Block: uint16(id)})
	}
	return changed, nil
}

// Plot возвращает участок по ячейке
func (wm *WorldManager) Plot(cell vec.Vec2) (*Chunk, bool) {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	c, ok := wm.plots[cell]
	return c, ok
}

// PlotCells возвращает отсортированные ячейки живых участков
func (wm *WorldManager) PlotCells() []vec.Vec2 {
	wm.mu.RLock()
	cells := make([]vec.Vec2, 0, len(wm.plots))
	for cell := range wm.plots {
		cells = append(cells, cell)
	}
	wm.mu.RUnlock()

	sort.Slice(cells, func(i, j int) bool {
		if cells[i].X != cells[j].X {
			return cells[i].X < cells[j].X
		}
		return cells[i].Z < cells[j].Z
	})
	return cells
}

// Island возвращает чанк острова по номеру
func (wm *WorldManager) Island(index int) (*Chunk, bool) {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	if index < 0 || index >= len(wm.islands) {
		return nil, false
	}
	return wm.islands[index], true
}

// Column возвращает характеристики колонки наземного рельефа
func (wm *WorldManager) Column(x, z int) terrain.Column {
	wm.mu.RLock()
	gen := wm.groundGen
	wm.mu.RUnlock()
	return gen.Column(x, z)
}

// Save сохраняет параметры и правки в хранилище мира
func (wm *WorldManager) Save(ctx context.Context) error {
	if wm.opts.Store == nil {
		return ErrNoStorage
	}
	ctx, span := wm.tracer.Start(ctx, "world.Save")
	defer span.End()

	wm.saveMu.Lock()
	defer wm.saveMu.Unlock()

	if err := wm.mods.Save(ctx, wm.opts.Store, wm.Params()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		wm.opts.Metrics.Persistence("save", "error")
		return fmt.Errorf("сохранение мира: %w", err)
	}
	span.SetAttributes(attribute.Int("overrides", wm.mods.Len()))
	wm.opts.Metrics.Persistence("save", "ok")
	wm.logger.Info("💾 Мир сохранён: правок %d", wm.mods.Len())
	wm.publish(ctx, eventbus.TypeWorldSaved, eventbus.PriorityHigh,
		eventbus.WorldPersisted{Seed: wm.Params().Seed, Overrides: wm.mods.Len()})
	return nil
}

// Load восстанавливает параметры и правки, затем перегенерирует мир, сохраняя правки.
// Повреждённые или отсутствующие записи заменяются значениями по умолчанию.
func (wm *WorldManager) Load(ctx context.Context) (LoadResult, error) {
	if wm.opts.Store == nil {
		return LoadResult{}, ErrNoStorage
	}
	ctx, span := wm.tracer.Start(ctx, "world.Load")
	defer span.End()

	wm.saveMu.Lock()
	res := wm.mods.Load(ctx, wm.opts.Store, wm.opts.Params)
	wm.saveMu.Unlock()

	result := "ok"
	if res.ParamsErr != nil {
		result = "fallback"
		wm.logger.Warn("Параметры мира заменены значениями по умолчанию: %v", res.ParamsErr)
	}
	if res.OverlayErr != nil {
		result = "fallback"
		wm.logger.Warn("Правки мира не восстановлены: %v", res.OverlayErr)
	}
	wm.opts.Metrics.Persistence("load", result)
	span.SetAttributes(
		attribute.Int64("seed", res.Params.Seed),
		attribute.Int("overrides", res.Overrides),
		attribute.String("result", result),
	)

	wm.mu.Lock()
	wm.applyParams(res.Params)
	wm.mu.Unlock()
	wm.Regenerate(ctx, false)
	wm.publish(ctx, eventbus.TypeWorldLoaded, eventbus.PriorityHigh, eventbus.WorldPersisted{
		Seed:      res.Params.Seed,
		Overrides: res.Overrides,
		Defaulted: res.ParamsDefaulted || res.OverlayDefaulted,
	})
	return res, nil
}

// publish отправляет событие мира в шину. Ошибки шины не влияют на операцию мира.
func (wm *WorldManager) publish(ctx context.Context, eventType string, priority int, payload any) {
	if wm.opts.Events == nil {
		return
	}
	ev, err := eventbus.NewEnvelope(wm.id.String(), eventType, priority, payload)
	if err == nil {
		err = wm.opts.Events.Publish(ctx, ev)
	}
	if err != nil {
		wm.logger.Warn("Событие %s не опубликовано: %v", eventType, err)
	}
}

// Run запускает автосохранение с интервалом interval до отмены ctx
func (wm *WorldManager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 || wm.opts.Store == nil {
		return
	}
	go wm.autoSaveLoop(ctx, interval)
}

func (wm *WorldManager) autoSaveLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := wm.Save(ctx); err != nil {
				wm.logger.Error("Автосохранение не удалось: %v", err)
			}
		}
	}
}

// Stats возвращает сводку состояния мира
func (wm *WorldManager) Stats() Stats {
	wm.mu.RLock()
	s := Stats{
		ID:      wm.id.String(),
		Seed:    wm.params.Seed,
		Plots:   len(wm.plots),
		Islands: len(wm.islands),
	}
	plots := make([]*Chunk, 0, len(wm.plots))
	for _, c := range wm.plots {
		plots = append(plots, c)
	}
	wm.mu.RUnlock()

	for _, c := range plots {
		if c.State() == Generated {
			s.GeneratedPlots++
		}
	}
	s.Overrides = wm.mods.Len()
	if p, ok := wm.opts.Scheduler.(interface{ Pending() int }); ok {
		s.PendingTasks = p.Pending()
	}
	return s
}

// MetricsSnapshot реализует metrics.SnapshotProvider
func (wm *WorldManager) MetricsSnapshot() metrics.Snapshot {
	s := wm.Stats()
	return metrics.Snapshot{
		Plots:        s.Plots,
		Islands:      s.Islands,
		PendingTasks: s.PendingTasks,
		Overrides:    s.Overrides,
	}
}
