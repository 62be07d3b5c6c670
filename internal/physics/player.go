package physics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/annel0/voxel-sim/internal/config"
)

// PlayerConfig задаёт габариты и управление персонажа
type PlayerConfig struct {
	Radius    float64
	Height    float64
	MaxSpeed  float64
	JumpSpeed float64
}

// DefaultPlayerConfig: цилиндр 0.5 × 1.75, скорость 10 блоков/с
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{Radius: 0.5, Height: 1.75, MaxSpeed: 10, JumpSpeed: 10}
}

// PlayerConfigFrom переводит секцию player файла конфигурации
func PlayerConfigFrom(pc config.PlayerConfig) PlayerConfig {
	return PlayerConfig{
		Radius:    pc.Radius,
		Height:    pc.Height,
		MaxSpeed:  pc.MaxSpeed,
		JumpSpeed: pc.JumpSpeed,
	}
}

// Player — эталонная реализация Avatar.
// Скорость хранится в локальной системе, повёрнутой на yaw вокруг оси Y.
type Player struct {
	cfg      PlayerConfig
	position mgl64.Vec3
	velocity mgl64.Vec3
	yaw      float64
	grounded bool

	forward float64
	strafe  float64
	jump    bool
}

// NewPlayer создаёт персонажа в точке spawn (центр цилиндра)
func NewPlayer(cfg PlayerConfig, spawn mgl64.Vec3) *Player {
	return &Player{cfg: cfg, position: spawn}
}

func (p *Player) Position() mgl64.Vec3       { return p.position }
func (p *Player) SetPosition(pos mgl64.Vec3) { p.position = pos }
func (p *Player) Velocity() mgl64.Vec3       { return p.velocity }
func (p *Player) SetVelocity(v mgl64.Vec3)   { p.velocity = v }
func (p *Player) Radius() float64            { return p.cfg.Radius }
func (p *Player) Height() float64            { return p.cfg.Height }
func (p *Player) Grounded() bool             { return p.grounded }
func (p *Player) SetGrounded(grounded bool)  { p.grounded = grounded }
func (p *Player) Yaw() float64               { return p.yaw }
func (p *Player) SetYaw(yaw float64)         { p.yaw = yaw }

// SetInput задаёт управление в диапазоне [-1, 1] по осям вперёд и вбок
func (p *Player) SetInput(forward, strafe float64) {
	p.forward = clamp(forward, -1, 1)
	p.strafe = clamp(strafe, -1, 1)
}

// Jump запрашивает прыжок; он сработает на ближайшем шаге, если персонаж стоит на опоре
func (p *Player) Jump() {
	p.jump = true
}

// WorldVelocity поворачивает локальную скорость на yaw
func (p *Player) WorldVelocity() mgl64.Vec3 {
	return mgl64.Rotate3DY(p.yaw).Mul3x1(p.velocity)
}

// ApplyWorldDeltaVelocity переводит мировую скорость с приращением обратно в локальную систему
func (p *Player) ApplyWorldDeltaVelocity(dv mgl64.Vec3) {
	p.velocity = mgl64.Rotate3DY(-p.yaw).Mul3x1(p.WorldVelocity().Add(dv))
}

// ApplyInputs обновляет горизонтальную скорость из управления и сдвигает позицию на dt
func (p *Player) ApplyInputs(dt float64) {
	p.velocity[0] = p.strafe * p.cfg.MaxSpeed
	p.velocity[2] = -p.forward * p.cfg.MaxSpeed
	if p.jump {
		if p.grounded {
			p.velocity[1] = p.cfg.JumpSpeed
			p.grounded = false
		}
		p.jump = false
	}
	p.position = p.position.Add(p.WorldVelocity().Mul(dt))
}
