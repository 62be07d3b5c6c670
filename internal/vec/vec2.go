package vec

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Vec2 представляет ячейку горизонтальной сетки (X, Z)
type Vec2 struct {
	X, Z int
}

// FloorDiv делит с округлением вниз (корректно для отрицательных координат)
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// CellOf возвращает ячейку сетки шириной width, содержащую блок с мировой точкой (x, z).
// Блоки центрированы на целых координатах, поэтому точка принадлежит блоку round(p).
func CellOf(x, z float64, width int) Vec2 {
	return Vec2{X: int(math.Round(x)), Z: int(math.Round(z))}.ToCell(width)
}

// ToCell преобразует мировые координаты блока в координаты ячейки шириной width
func (v Vec2) ToCell(width int) Vec2 {
	return Vec2{X: FloorDiv(v.X, width), Z: FloorDiv(v.Z, width)}
}

// Chebyshev возвращает расстояние Чебышёва до другой ячейки
func (v Vec2) Chebyshev(other Vec2) int {
	dx := v.X - other.X
	if dx < 0 {
		dx = -dx
	}
	dz := v.Z - other.Z
	if dz < 0 {
		dz = -dz
	}
	if dx > dz {
		return dx
	}
	return dz
}

// DistanceTo вычисляет расстояние до другой точки
func (v Vec2) DistanceTo(other Vec2) float64 {
	dx := float64(v.X - other.X)
	dz := float64(v.Z - other.Z)
	return math.Sqrt(dx*dx + dz*dz)
}

// String возвращает ключ вида "x,z"
func (v Vec2) String() string {
	return strconv.Itoa(v.X) + "," + strconv.Itoa(v.Z)
}

// ParseVec2 разбирает ключ "x,z"
func ParseVec2(s string) (Vec2, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Vec2{}, fmt.Errorf("некорректный ключ ячейки %q", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Vec2{}, fmt.Errorf("некорректный ключ ячейки %q: %w", s, err)
	}
	z, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Vec2{}, fmt.Errorf("некорректный ключ ячейки %q: %w", s, err)
	}
	return Vec2{X: x, Z: z}, nil
}
