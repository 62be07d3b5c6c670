package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-sim/internal/config"
	"github.com/annel0/voxel-sim/internal/metrics"
	"github.com/annel0/voxel-sim/internal/world/block"
)

const frame = 1.0 / 60.0

func newTestPlayer(spawn mgl64.Vec3) *Player {
	return NewPlayer(DefaultPlayerConfig(), spawn)
}

func TestEngineSettlesOnFloor(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	player := newTestPlayer(mgl64.Vec3{8, 20, 8})
	world := floorWorld(6)

	for i := 0; i < 300; i++ {
		engine.Update(frame, player, world)
	}

	assert.True(t, player.Grounded())
	assert.InDelta(t, 6.5+player.Height()/2, player.Position().Y(), 1e-6)
	assert.InDelta(t, 0, player.WorldVelocity().Y(), 1e-9)
	assert.InDelta(t, 8, player.Position().X(), 1e-9)
	assert.InDelta(t, 8, player.Position().Z(), 1e-9)
}

func TestEngineFreeFall(t *testing.T) {
	cfg := DefaultConfig()
	engine := NewEngine(cfg)
	player := newTestPlayer(mgl64.Vec3{0, 100, 0})

	report := engine.Update(0.101, player, floorWorld(-100))

	assert.Equal(t, 25, report.Steps)
	assert.Zero(t, report.Collisions)
	assert.False(t, player.Grounded())
	assert.InDelta(t, -cfg.Gravity*0.1, player.Velocity().Y(), 1e-9)
	assert.Less(t, player.Position().Y(), 100.0)
}

func TestEngineAccumulatorStaysBelowStep(t *testing.T) {
	cfg := DefaultConfig()
	engine := NewEngine(cfg)
	player := newTestPlayer(mgl64.Vec3{0, 50, 0})
	world := floorWorld(-100)

	for _, dt := range []float64{0.0123, 0.001, 0.017, 0.5, 0.00001, frame} {
		engine.Update(dt, player, world)
		assert.GreaterOrEqual(t, engine.Accumulator(), 0.0)
		assert.Less(t, engine.Accumulator(), cfg.StepSize)
	}
}

func TestEngineStepCountMatchesElapsedTime(t *testing.T) {
	engine := NewEngine(Config{Gravity: 0, StepSize: 0.01, MaxIterations: 1000})
	player := newTestPlayer(mgl64.Vec3{0, 0, 0})

	report := engine.Update(0.0375, player, floorWorld(-100))
	assert.Equal(t, 3, report.Steps)
	assert.InDelta(t, 0.0075, engine.Accumulator(), 1e-9)

	report = engine.Update(0.003, player, floorWorld(-100))
	assert.Equal(t, 1, report.Steps)
	assert.InDelta(t, 0.0005, engine.Accumulator(), 1e-9)
}

func TestEngineIgnoresNonPositiveDelta(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	player := newTestPlayer(mgl64.Vec3{0, 10, 0})

	for _, dt := range []float64{0, -1, math.NaN()} {
		report := engine.Update(dt, player, floorWorld(0))
		assert.Zero(t, report.Steps)
	}
	assert.Zero(t, engine.Accumulator())
	assert.Equal(t, mgl64.Vec3{0, 10, 0}, player.Position())
}

func TestEngineCapTripDiscardsBacklog(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	engine := NewEngine(Config{Gravity: 32, StepSize: 0.01, MaxIterations: 5}, WithMetrics(collector))
	player := newTestPlayer(mgl64.Vec3{0, 50, 0})

	report := engine.Update(1.0, player, floorWorld(-100))

	assert.True(t, report.CapTripped)
	assert.Equal(t, 5, report.Steps)
	assert.Zero(t, engine.Accumulator())
	assert.Equal(t, 1.0, counterValue(t, reg, "voxel_physics_cap_trips_total"))

	// Следующий кадр работает как обычно
	report = engine.Update(0.025, player, floorWorld(-100))
	assert.False(t, report.CapTripped)
	assert.Equal(t, 2, report.Steps)
}

// counterValue читает значение счётчика без меток из реестра
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			require.NotEmpty(t, mf.GetMetric())
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("метрика %s не найдена", name)
	return 0
}

func TestEngineStopsAtWall(t *testing.T) {
	engine := NewEngine(Config{Gravity: 0, StepSize: 1.0 / 250.0, MaxIterations: 100})
	player := newTestPlayer(mgl64.Vec3{0, 10, 0})
	player.SetInput(0, 1) // вбок по +X при нулевом yaw

	wall := funcWorld(func(x, _, _ int) block.BlockID {
		if x >= 3 {
			return block.StoneBlockID
		}
		return block.EmptyBlockID
	})

	for i := 0; i < 60; i++ {
		engine.Update(frame, player, wall)
	}

	assert.InDelta(t, 2.0, player.Position().X(), 1e-9)
	assert.InDelta(t, 0, player.WorldVelocity().X(), 1e-9)
	assert.InDelta(t, 10, player.Position().Y(), 1e-9)
	assert.False(t, player.Grounded())
}

func TestEngineSlidesAlongFloor(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	player := newTestPlayer(mgl64.Vec3{0, 6.5 + 0.875, 0})
	player.SetGrounded(true)
	player.SetInput(1, 0) // вперёд, то есть по -Z при нулевом yaw

	for i := 0; i < 30; i++ {
		engine.Update(frame, player, floorWorld(6))
	}

	assert.True(t, player.Grounded())
	assert.InDelta(t, 6.5+0.875, player.Position().Y(), 1e-6)
	assert.Less(t, player.Position().Z(), -4.0)
}

func TestEngineNilWorldSkipsCollisions(t *testing.T) {
	var nilFunc funcWorld
	var nilPtr *ptrWorld

	for name, world := range map[string]BlockSource{
		"nil":         nil,
		"nil func":    nilFunc,
		"nil pointer": nilPtr,
	} {
		t.Run(name, func(t *testing.T) {
			engine := NewEngine(DefaultConfig())
			player := newTestPlayer(mgl64.Vec3{0, 10, 0})

			var report StepReport
			require.NotPanics(t, func() {
				report = engine.Update(0.101, player, world)
			})
			assert.Equal(t, 25, report.Steps)
			assert.Zero(t, report.Collisions)
			assert.Less(t, player.Position().Y(), 10.0)
		})
	}
}

type ptrWorld struct{}

func (w *ptrWorld) GetBlock(_, _, _ int) block.BlockID { return block.StoneBlockID }

func TestEngineResolveSkipsContactsLeftBehind(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	// На стыке блоков (0,0,0) и (1,0,0) оба дают один и тот же контакт
	player := newTestPlayer(mgl64.Vec3{0.5, 0.5 + 0.875 - 0.125, 0})
	player.SetVelocity(mgl64.Vec3{0, -5, 0})

	collisions := engine.DetectCollisions(player, floorWorld(0))
	require.Len(t, collisions, 2)
	applied := engine.ResolveCollisions(player, collisions)

	assert.Equal(t, 1, applied)
	assert.InDelta(t, 0.5+0.875, player.Position().Y(), 1e-9)
	assert.InDelta(t, 0, player.Velocity().Y(), 1e-9)
}

func TestConfigFromSettings(t *testing.T) {
	cfg := ConfigFrom(config.Default().Physics)
	assert.Equal(t, DefaultConfig(), cfg)

	engine := NewEngine(Config{Gravity: 9.8})
	assert.Equal(t, DefaultConfig().StepSize, engine.Config().StepSize)
	assert.Equal(t, DefaultConfig().MaxIterations, engine.Config().MaxIterations)
}
