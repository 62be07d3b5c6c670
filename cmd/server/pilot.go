package main

import (
	"math"

	"github.com/annel0/voxel-sim/internal/physics"
)

// pilot управляет аватаром без клиента: идёт вперёд, плавно поворачивает
// и периодически прыгает.
type pilot struct {
	elapsed    float64
	turnRate   float64 // рад/с
	jumpEvery  float64 // с
	nextJumpAt float64
}

func newPilot() *pilot {
	return &pilot{turnRate: 0.15, jumpEvery: 2.5, nextJumpAt: 2.5}
}

func (p *pilot) drive(player *physics.Player, dt float64) {
	p.elapsed += dt
	player.SetYaw(player.Yaw() + p.turnRate*dt)
	player.SetInput(1, 0.3*math.Sin(p.elapsed*0.5))
	if p.elapsed >= p.nextJumpAt {
		player.Jump()
		p.nextJumpAt += p.jumpEvery
	}
}
