package physics

import (
	"reflect"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/annel0/voxel-sim/internal/config"
	"github.com/annel0/voxel-sim/internal/logging"
	"github.com/annel0/voxel-sim/internal/metrics"
)

// Config задаёт параметры интегратора
type Config struct {
	Gravity       float64 // Ускорение свободного падения, блоков/с²
	StepSize      float64 // Длительность шага, с
	MaxIterations int     // Максимум шагов за один Update
}

// DefaultConfig возвращает параметры по умолчанию: g = 32, 250 шагов в секунду, лимит 100
func DefaultConfig() Config {
	return Config{
		Gravity:       32,
		StepSize:      1.0 / 250.0,
		MaxIterations: 100,
	}
}

// ConfigFrom переводит секцию physics файла конфигурации
func ConfigFrom(pc config.PhysicsConfig) Config {
	return Config{
		Gravity:       pc.Gravity,
		StepSize:      pc.StepSize(),
		MaxIterations: pc.MaxIterations,
	}
}

// StepReport — итог одного Update
type StepReport struct {
	Steps      int  // Выполнено шагов
	Collisions int  // Найдено столкновений за все шаги
	CapTripped bool // Сработал лимит итераций, остаток аккумулятора отброшен
}

// Engine — интегратор с фиксированным шагом и конвейером столкновений.
// Шаги выполняются строго последовательно; Engine не безопасен для параллельного использования.
type Engine struct {
	cfg         Config
	accumulator float64
	logger      *logging.Logger
	metrics     *metrics.Collector
}

// Option настраивает Engine
type Option func(*Engine)

func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithMetrics(m *metrics.Collector) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine создаёт интегратор. Некорректные значения заменяются значениями по умолчанию.
func NewEngine(cfg Config, opts ...Option) *Engine {
	def := DefaultConfig()
	if !(cfg.StepSize > 0) {
		cfg.StepSize = def.StepSize
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = def.MaxIterations
	}
	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.GetPhysicsLogger()
	}
	return e
}

// Config возвращает параметры интегратора
func (e *Engine) Config() Config {
	return e.cfg
}

// Accumulator возвращает неизрасходованное время кадра
func (e *Engine) Accumulator() float64 {
	return e.accumulator
}

// Update добавляет dt к аккумулятору и выполняет целое число шагов.
// После вызова 0 ≤ Accumulator() < StepSize.
func (e *Engine) Update(dt float64, avatar Avatar, world BlockSource) StepReport {
	var report StepReport
	if !(dt > 0) {
		return report
	}

	validWorld := !isNilWorld(world)
	if !validWorld {
		e.logger.Error("Физика: некорректный мир (%T), столкновения пропущены", world)
	}

	e.accumulator += dt
	for e.accumulator >= e.cfg.StepSize {
		if report.Steps >= e.cfg.MaxIterations {
			e.logger.Warn("Физика: превышен лимит %d шагов, отброшено %.4f с", e.cfg.MaxIterations, e.accumulator)
			e.accumulator = 0
			report.CapTripped = true
			e.metrics.CapTripped()
			break
		}
		n := e.step(avatar, world, validWorld)
		e.accumulator -= e.cfg.StepSize
		report.Steps++
		report.Collisions += n
	}
	return report
}

// Step выполняет ровно один шаг симуляции и возвращает число найденных столкновений
func (e *Engine) Step(avatar Avatar, world BlockSource) int {
	validWorld := !isNilWorld(world)
	if !validWorld {
		e.logger.Error("Физика: некорректный мир (%T), столкновения пропущены", world)
	}
	return e.step(avatar, world, validWorld)
}

func (e *Engine) step(avatar Avatar, world BlockSource, validWorld bool) int {
	dt := e.cfg.StepSize

	v := avatar.Velocity()
	avatar.SetVelocity(mgl64.Vec3{v.X(), v.Y() - e.cfg.Gravity*dt, v.Z()})
	avatar.ApplyInputs(dt)

	if !validWorld {
		e.metrics.PhysicsStep(0)
		return 0
	}

	collisions := e.DetectCollisions(avatar, world)
	e.ResolveCollisions(avatar, collisions)
	e.metrics.PhysicsStep(len(collisions))
	return len(collisions)
}

// DetectCollisions выполняет широкую и узкую фазы и обновляет флаг опоры аватара
func (e *Engine) DetectCollisions(avatar Avatar, world BlockSource) []Collision {
	cyl := CylinderOf(avatar)
	collisions, grounded := NarrowPhase(cyl, BroadPhase(world, cyl))
	avatar.SetGrounded(grounded)
	return collisions
}

// ResolveCollisions разрешает столкновения по возрастанию глубины.
// Контакт, уже покинувший цилиндр после предыдущих сдвигов, пропускается.
// Возвращает число применённых разрешений.
func (e *Engine) ResolveCollisions(avatar Avatar, collisions []Collision) int {
	sort.SliceStable(collisions, func(i, j int) bool {
		return collisions[i].Overlap < collisions[j].Overlap
	})

	applied := 0
	for _, c := range collisions {
		if !CylinderOf(avatar).Contains(c.Contact) {
			continue
		}

		avatar.SetPosition(avatar.Position().Add(c.Normal.Mul(c.Overlap)))

		// Убираем только составляющую скорости вдоль нормали: скольжение вдоль поверхности сохраняется
		magnitude := avatar.WorldVelocity().Dot(c.Normal)
		avatar.ApplyWorldDeltaVelocity(c.Normal.Mul(-magnitude))
		applied++
	}
	return applied
}

// isNilWorld распознаёт и nil, и типизированный nil внутри интерфейса
func isNilWorld(world BlockSource) bool {
	if world == nil {
		return true
	}
	v := reflect.ValueOf(world)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}
