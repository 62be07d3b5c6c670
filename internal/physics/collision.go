package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/annel0/voxel-sim/internal/vec"
	"github.com/annel0/voxel-sim/internal/world/block"
)

// Половина ребра блока: блок — единичный куб с центром в целой координате
const blockHalfExtent = 0.5

// Collision описывает контакт с одним блоком в пределах шага. Не сохраняется.
type Collision struct {
	Block   vec.Vec3   // Координата блока
	Contact mgl64.Vec3 // Ближайшая к центру цилиндра точка блока
	Normal  mgl64.Vec3 // Единичная нормаль выталкивания
	Overlap float64    // Глубина проникновения вдоль нормали
}

// Cylinder — вертикальный цилиндр столкновений аватара. Center — центр цилиндра.
type Cylinder struct {
	Center mgl64.Vec3
	Radius float64
	Height float64
}

// CylinderOf возвращает цилиндр аватара
func CylinderOf(a Avatar) Cylinder {
	return Cylinder{Center: a.Position(), Radius: a.Radius(), Height: a.Height()}
}

// Contains проверяет строгое попадание точки внутрь цилиндра
func (c Cylinder) Contains(p mgl64.Vec3) bool {
	dx := p.X() - c.Center.X()
	dy := p.Y() - c.Center.Y()
	dz := p.Z() - c.Center.Z()
	return math.Abs(dy) < c.Height/2 && dx*dx+dz*dz < c.Radius*c.Radius
}

// closestPointOnBlock возвращает точку куба блока, ближайшую к p
func closestPointOnBlock(b vec.Vec3, p mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		clamp(p.X(), float64(b.X)-blockHalfExtent, float64(b.X)+blockHalfExtent),
		clamp(p.Y(), float64(b.Y)-blockHalfExtent, float64(b.Y)+blockHalfExtent),
		clamp(p.Z(), float64(b.Z)-blockHalfExtent, float64(b.Z)+blockHalfExtent),
	}
}

// BroadPhase перечисляет все сталкивающиеся блоки внутри AABB цилиндра
func BroadPhase(world BlockSource, cyl Cylinder) []vec.Vec3 {
	minX := int(math.Floor(cyl.Center.X() - cyl.Radius))
	maxX := int(math.Ceil(cyl.Center.X() + cyl.Radius))
	minY := int(math.Floor(cyl.Center.Y() - cyl.Height/2))
	maxY := int(math.Ceil(cyl.Center.Y() + cyl.Height/2))
	minZ := int(math.Floor(cyl.Center.Z() - cyl.Radius))
	maxZ := int(math.Ceil(cyl.Center.Z() + cyl.Radius))

	var candidates []vec.Vec3
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				if block.Collides(world.GetBlock(x, y, z)) {
					candidates = append(candidates, vec.Vec3{X: x, Y: y, Z: z})
				}
			}
		}
	}
	return candidates
}

// NarrowPhase проверяет кандидатов точно и возвращает столкновения.
// grounded == true, если хотя бы одна нормаль направлена вверх по вертикали.
func NarrowPhase(cyl Cylinder, candidates []vec.Vec3) (collisions []Collision, grounded bool) {
	for _, b := range candidates {
		contact := closestPointOnBlock(b, cyl.Center)
		if !cyl.Contains(contact) {
			continue
		}

		dx := contact.X() - cyl.Center.X()
		dy := contact.Y() - cyl.Center.Y()
		dz := contact.Z() - cyl.Center.Z()
		radial := math.Sqrt(dx*dx + dz*dz)

		overlapY := cyl.Height/2 - math.Abs(dy)
		overlapXZ := cyl.Radius - radial

		var normal mgl64.Vec3
		var overlap float64
		// При равенстве выбирается вертикальная ось
		if overlapY <= overlapXZ || radial == 0 {
			overlap = overlapY
			if dy > 0 {
				normal = mgl64.Vec3{0, -1, 0}
			} else {
				normal = mgl64.Vec3{0, 1, 0}
			}
		} else {
			overlap = overlapXZ
			normal = mgl64.Vec3{-dx / radial, 0, -dz / radial}
		}
		if normal.Y() > 0 {
			grounded = true
		}

		collisions = append(collisions, Collision{
			Block:   b,
			Contact: contact,
			Normal:  normal,
			Overlap: overlap,
		})
	}
	return collisions, grounded
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
