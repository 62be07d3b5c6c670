package world

import (
	"math"
	"math/rand"
	"strconv"

	"github.com/annel0/voxel-sim/internal/vec"
)

// Соль, отделяющая ГПСЧ островов от сида рельефа
const islandSeedSalt int64 = 0x15_1A_4D

// IslandOptions задаёт популяцию летающих островов
type IslandOptions struct {
	Count         int
	Width         int
	Height        int
	Spread        float64 // Острова равномерно распределены в ±Spread/2 по X и Z
	MinAltitude   float64
	AltitudeRange float64
}

// IslandPlacement — положение острова, выбранное при создании мира
type IslandPlacement struct {
	Index  int
	Origin vec.Vec3
}

// Key возвращает ключ острова в хранилище правок
func (p IslandPlacement) Key() string {
	return IslandKey(p.Index)
}

// IslandKey возвращает ключ острова с номером index
func IslandKey(index int) string {
	return "island:" + strconv.Itoa(index)
}

// drawIslandPlacements детерминированно выбирает положения островов по сиду мира
func drawIslandPlacements(seed int64, opts IslandOptions) []IslandPlacement {
	rng := rand.New(rand.NewSource(seed ^ islandSeedSalt))
	out := make([]IslandPlacement, opts.Count)
	for i := range out {
		x := (rng.Float64() - 0.5) * opts.Spread
		z := (rng.Float64() - 0.5) * opts.Spread
		y := opts.MinAltitude + rng.Float64()*opts.AltitudeRange
		out[i] = IslandPlacement{
			Index: i,
			Origin: vec.Vec3{
				X: int(math.Floor(x)),
				Y: int(math.Floor(y)),
				Z: int(math.Floor(z)),
			},
		}
	}
	return out
}

// islandIndex — пространственный хеш островов по горизонтальным ячейкам.
// Остров заносится во все ячейки, которые пересекает его основание.
type islandIndex struct {
	cellSize int
	cells    map[vec.Vec2][]int
}

func newIslandIndex(cellSize int, placements []IslandPlacement, width int) *islandIndex {
	if cellSize <= 0 {
		cellSize = 64
	}
	idx := &islandIndex{
		cellSize: cellSize,
		cells:    make(map[vec.Vec2][]int),
	}
	for _, p := range placements {
		minCell := vec.Vec2{X: p.Origin.X, Z: p.Origin.Z}.ToCell(cellSize)
		maxCell := vec.Vec2{X: p.Origin.X + width - 1, Z: p.Origin.Z + width - 1}.ToCell(cellSize)
		for cx := minCell.X; cx <= maxCell.X; cx++ {
			for cz := minCell.Z; cz <= maxCell.Z; cz++ {
				key := vec.Vec2{X: cx, Z: cz}
				idx.cells[key] = append(idx.cells[key], p.Index)
			}
		}
	}
	return idx
}

// candidates возвращает номера островов, чьё основание может содержать колонку (x, z)
func (idx *islandIndex) candidates(x, z int) []int {
	return idx.cells[vec.Vec2{X: x, Z: z}.ToCell(idx.cellSize)]
}
