package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"

	"github.com/annel0/voxel-sim/internal/config"
)

func assertVecInDelta(t *testing.T, expected, actual mgl64.Vec3, delta float64) {
	t.Helper()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, expected[i], actual[i], delta, "компонента %d", i)
	}
}

func TestPlayerWorldVelocityFollowsYaw(t *testing.T) {
	p := newTestPlayer(mgl64.Vec3{})
	p.SetInput(1, 0)
	p.ApplyInputs(0)

	assertVecInDelta(t, mgl64.Vec3{0, 0, -10}, p.WorldVelocity(), 1e-9)

	p.SetYaw(math.Pi / 2)
	assertVecInDelta(t, mgl64.Vec3{-10, 0, 0}, p.WorldVelocity(), 1e-9)
	// Локальная скорость от поворота не меняется
	assertVecInDelta(t, mgl64.Vec3{0, 0, -10}, p.Velocity(), 1e-9)
}

func TestPlayerApplyWorldDeltaVelocity(t *testing.T) {
	p := newTestPlayer(mgl64.Vec3{})
	p.SetYaw(0.7)
	p.SetVelocity(mgl64.Vec3{3, -2, 5})

	p.ApplyWorldDeltaVelocity(p.WorldVelocity().Mul(-1))
	assertVecInDelta(t, mgl64.Vec3{}, p.Velocity(), 1e-9)

	p.ApplyWorldDeltaVelocity(mgl64.Vec3{0, 4, 0})
	assertVecInDelta(t, mgl64.Vec3{0, 4, 0}, p.WorldVelocity(), 1e-9)
}

func TestPlayerApplyInputsMovesPosition(t *testing.T) {
	p := newTestPlayer(mgl64.Vec3{1, 2, 3})
	p.SetInput(0, 2) // ограничивается до 1

	p.ApplyInputs(0.5)
	assertVecInDelta(t, mgl64.Vec3{6, 2, 3}, p.Position(), 1e-9)
}

func TestPlayerJumpRequiresGround(t *testing.T) {
	p := newTestPlayer(mgl64.Vec3{})

	p.Jump()
	p.ApplyInputs(0.01)
	assert.Zero(t, p.Velocity().Y())

	p.SetGrounded(true)
	p.Jump()
	p.ApplyInputs(0.01)
	assert.Equal(t, DefaultPlayerConfig().JumpSpeed, p.Velocity().Y())
	assert.False(t, p.Grounded())

	// Запрос прыжка одноразовый
	p.SetGrounded(true)
	p.SetVelocity(mgl64.Vec3{})
	p.ApplyInputs(0.01)
	assert.Zero(t, p.Velocity().Y())
}

func TestPlayerConfigFromSettings(t *testing.T) {
	assert.Equal(t, DefaultPlayerConfig(), PlayerConfigFrom(config.Default().Player))
}
