package world

import (
	"sync"
	"time"

	"github.com/annel0/voxel-sim/internal/logging"
	"github.com/annel0/voxel-sim/internal/metrics"
	"github.com/annel0/voxel-sim/internal/vec"
	"github.com/annel0/voxel-sim/internal/world/block"
	"github.com/annel0/voxel-sim/internal/world/terrain"
)

// GenerationState — стадия генерации чанка
type GenerationState int

const (
	Ungenerated GenerationState = iota
	Generating
	Generated
)

func (s GenerationState) String() string {
	switch s {
	case Ungenerated:
		return "ungenerated"
	case Generating:
		return "generating"
	case Generated:
		return "generated"
	default:
		return "unknown"
	}
}

// Типы чанков
const (
	KindPlot   = "plot"
	KindIsland = "island"
)

// ChunkConfig задаёт параметры нового чанка
type ChunkConfig struct {
	Key       string   // Ключ в хранилище правок
	Kind      string   // KindPlot или KindIsland
	Origin    vec.Vec3 // Мировая координата угла (min x, min y, min z)
	Width     int
	Generator *terrain.Generator // Высота чанка равна высоте профиля генератора
	Mods      *ModificationStore
	Metrics   *metrics.Collector
	Logger    *logging.Logger
}

// Chunk — плотная сетка вокселей размером width × height × width.
// Пока чанк не сгенерирован, любое чтение возвращает пустой блок.
type Chunk struct {
	key     string
	kind    string
	origin  vec.Vec3
	width   int
	height  int
	gen     *terrain.Generator
	mods    *ModificationStore
	metrics *metrics.Collector
	logger  *logging.Logger

	mu       sync.RWMutex
	blocks   []block.BlockID // индекс (x*height + y)*width + z
	state    GenerationState
	epoch    uint64
	pending  int
	started  time.Time
	disposed bool
	dirty    bool
}

// NewChunk создаёт пустой (не сгенерированный) чанк
func NewChunk(cfg ChunkConfig) *Chunk {
	return &Chunk{
		key:     cfg.Key,
		kind:    cfg.Kind,
		origin:  cfg.Origin,
		width:   cfg.Width,
		height:  cfg.Generator.Shape().Height,
		gen:     cfg.Generator,
		mods:    cfg.Mods,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}
}

func (c *Chunk) Key() string      { return c.key }
func (c *Chunk) Kind() string     { return c.kind }
func (c *Chunk) Origin() vec.Vec3 { return c.origin }
func (c *Chunk) Width() int       { return c.width }
func (c *Chunk) Height() int      { return c.height }

// State возвращает текущую стадию генерации
func (c *Chunk) State() GenerationState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Contains проверяет, лежит ли мировая координата внутри чанка
func (c *Chunk) Contains(x, y, z int) bool {
	lx, ly, lz := x-c.origin.X, y-c.origin.Y, z-c.origin.Z
	return c.inBounds(lx, ly, lz)
}

func (c *Chunk) inBounds(lx, ly, lz int) bool {
	return lx >= 0 && lx < c.width && lz >= 0 && lz < c.width && ly >= 0 && ly < c.height
}

func (c *Chunk) index(lx, ly, lz int) int {
	return (lx*c.height+ly)*c.width + lz
}

// Generate заполняет сетку: рельеф → вода → деревья → облака, правки накладываются последними.
// При sched == nil генерация выполняется синхронно; иначе каждая колонка становится
// отдельной единицей планировщика, а последняя завершившаяся единица накладывает правки.
// Повторный вызов отменяет единицы предыдущего запуска.
func (c *Chunk) Generate(sched Scheduler, timeout time.Duration) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.epoch++
	epoch := c.epoch
	c.state = Generating
	c.blocks = make([]block.BlockID, c.width*c.height*c.width)
	c.pending = c.width * c.width
	c.started = time.Now()
	c.mu.Unlock()

	job := &columnJob{cache: terrain.NewColumnCache(c.gen)}
	for lx := 0; lx < c.width; lx++ {
		for lz := 0; lz < c.width; lz++ {
			if sched == nil {
				c.runColumn(epoch, lx, lz, job)
				continue
			}
			sched.Schedule(func() { c.runColumn(epoch, lx, lz, job) }, timeout)
		}
	}
}

// columnJob — общее состояние единиц одного запуска генерации
type columnJob struct {
	mu    sync.Mutex
	cache *terrain.ColumnCache
}

func (c *Chunk) stale(epoch uint64) bool {
	return c.disposed || c.epoch != epoch
}

// runColumn генерирует одну колонку; единица устаревшего запуска ничего не делает
func (c *Chunk) runColumn(epoch uint64, lx, lz int, job *columnJob) {
	c.mu.RLock()
	stale := c.stale(epoch)
	c.mu.RUnlock()
	if stale {
		return
	}

	column := make([]block.BlockID, c.height)
	job.mu.Lock()
	c.gen.FillColumn(c.origin.X+lx, c.origin.Z+lz, column, job.cache.Column)
	job.mu.Unlock()

	c.mu.Lock()
	if c.stale(epoch) {
		c.mu.Unlock()
		return
	}
	for ly, id := range column {
		c.blocks[c.index(lx, ly, lz)] = id
	}
	c.pending--
	if c.pending > 0 {
		c.mu.Unlock()
		return
	}

	applied := 0
	if c.mods != nil {
		applied = c.mods.Apply(c.key, func(local vec.Vec3, id block.BlockID) {
			if c.inBounds(local.X, local.Y, local.Z) {
				c.blocks[c.index(local.X, local.Y, local.Z)] = id
			}
		})
	}
	c.state = Generated
	c.dirty = true
	elapsed := time.Since(c.started)
	c.mu.Unlock()

	c.metrics.ChunkGenerated(c.kind, elapsed)
	if c.logger != nil {
		logging.LogChunkGenerated(c.logger, c.key, c.width*c.width, elapsed)
		if applied > 0 {
			c.logger.Debug("Чанк %s: наложено правок: %d", c.key, applied)
		}
	}
}

// GetBlock возвращает блок по мировой координате.
// Вне чанка и до завершения генерации возвращает пустой блок.
func (c *Chunk) GetBlock(x, y, z int) block.BlockID {
	return c.GetLocal(x-c.origin.X, y-c.origin.Y, z-c.origin.Z)
}

// GetLocal возвращает блок по локальной координате
func (c *Chunk) GetLocal(lx, ly, lz int) block.BlockID {
	if !c.inBounds(lx, ly, lz) {
		return block.EmptyBlockID
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != Generated {
		return block.EmptyBlockID
	}
	return c.blocks[c.index(lx, ly, lz)]
}

// SetBlock записывает блок по мировой координате и сохраняет правку в хранилище.
// Возвращает false, если ничего не изменилось или координата вне чанка.
// Во время генерации правка попадает только в хранилище и будет наложена по завершении.
func (c *Chunk) SetBlock(x, y, z int, id block.BlockID) bool {
	local := vec.Vec3{X: x - c.origin.X, Y: y - c.origin.Y, Z: z - c.origin.Z}
	if !c.inBounds(local.X, local.Y, local.Z) {
		return false
	}

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return false
	}
	cellChanged := false
	if c.state == Generated {
		idx := c.index(local.X, local.Y, local.Z)
		if c.blocks[idx] != id {
			c.blocks[idx] = id
			c.dirty = true
			cellChanged = true
		}
	}
	c.mu.Unlock()

	stored := false
	if c.mods != nil {
		stored = c.mods.Set(c.key, local, id)
	}
	return cellChanged || stored
}

// HasChanges сообщает, менялась ли сетка с последнего ClearChanges
func (c *Chunk) HasChanges() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dirty
}

// ClearChanges сбрасывает флаг изменений (вызывается потребителем, строящим меш)
func (c *Chunk) ClearChanges() {
	c.mu.Lock()
	c.dirty = false
	c.mu.Unlock()
}

// Snapshot возвращает копию сетки; false, если чанк ещё не сгенерирован
func (c *Chunk) Snapshot() ([]block.BlockID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != Generated {
		return nil, false
	}
	out := make([]block.BlockID, len(c.blocks))
	copy(out, c.blocks)
	return out, true
}

// Dispose освобождает сетку и отменяет ожидающие единицы генерации
func (c *Chunk) Dispose() {
	c.mu.Lock()
	c.disposed = true
	c.epoch++
	c.blocks = nil
	c.state = Ungenerated
	c.pending = 0
	c.mu.Unlock()
}
