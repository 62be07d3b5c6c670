package physics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/annel0/voxel-sim/internal/world/block"
)

// BlockSource отвечает на запросы блоков по мировой координате
type BlockSource interface {
	GetBlock(x, y, z int) block.BlockID
}

// Avatar — кинематическое состояние управляемого персонажа.
// Position — центр цилиндра столкновений; Velocity — в локальной системе аватара.
type Avatar interface {
	Position() mgl64.Vec3
	SetPosition(p mgl64.Vec3)
	Velocity() mgl64.Vec3
	SetVelocity(v mgl64.Vec3)
	WorldVelocity() mgl64.Vec3
	Radius() float64
	Height() float64
	Grounded() bool
	SetGrounded(grounded bool)
	// ApplyInputs интегрирует пробную позицию за dt по текущему управлению
	ApplyInputs(dt float64)
	// ApplyWorldDeltaVelocity добавляет приращение скорости в мировой системе
	ApplyWorldDeltaVelocity(dv mgl64.Vec3)
}
