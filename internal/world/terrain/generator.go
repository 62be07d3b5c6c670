package terrain

import (
	"math"

	"github.com/annel0/voxel-sim/internal/world/block"
)

// Соли независимых розыгрышей RandomSource
const (
	saltTreePlacement uint64 = iota + 1
	saltTrunkHeight
	saltCanopyRadius
	saltLeaf
)

// Количество подповерхностных слоёв над камнем
const subsurfaceDepth = 3

// Shape описывает вертикальный профиль, который строит генератор
type Shape struct {
	Height int  // Высота колонки в блоках
	Clouds bool // Ставить ли облака на верхний слой
}

// Tree описывает растение, растущее из колонки
type Tree struct {
	Kind         TreeKind
	Base         int // Нижний блок ствола
	Top          int // Верхний блок ствола, центр кроны
	CanopyRadius int
}

// Column — вычисленные характеристики одной колонки
type Column struct {
	X, Z    int
	Surface int
	Biome   Biome
	Tree    *Tree
}

// ColumnLookup возвращает характеристики колонки (x, z)
type ColumnLookup func(x, z int) Column

// Generator — чистая функция (параметры, координата) → BlockID.
// После создания не изменяется и безопасен для параллельного использования.
type Generator struct {
	params Params
	shape  Shape
	src    Sources
}

// Option настраивает Generator
type Option func(*Generator)

// WithSources подменяет источники шума и случайности
func WithSources(src Sources) Option {
	return func(g *Generator) {
		g.src = src
	}
}

// NewGenerator создаёт генератор. Параметры должны быть проверены Validate.
func NewGenerator(params Params, shape Shape, opts ...Option) *Generator {
	if shape.Height < 1 {
		shape.Height = 1
	}
	g := &Generator{
		params: params,
		shape:  shape,
		src:    DefaultSources(params.Seed),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Params возвращает параметры генератора
func (g *Generator) Params() Params {
	return g.params
}

// Shape возвращает профиль генератора
func (g *Generator) Shape() Shape {
	return g.shape
}

// Column вычисляет высоту, биом и дерево колонки
func (g *Generator) Column(x, z int) Column {
	fx, fz := float64(x), float64(z)
	p := g.params

	n := clampUnit(g.src.Height.Noise2D(fx/p.Terrain.Scale, fz/p.Terrain.Scale))
	surface := int(math.Floor(p.Terrain.Offset + p.Terrain.Magnitude*n))
	surface = clampInt(surface, 0, g.shape.Height-1)

	value := 0.5*clampUnit(g.src.Biome.Noise2D(fx/p.Biomes.Scale, fz/p.Biomes.Scale)) + 0.5 +
		p.Biomes.Variation.Amplitude*clampUnit(g.src.Variation.Noise2D(fx/p.Biomes.Variation.Scale, fz/p.Biomes.Variation.Scale))

	col := Column{
		X:       x,
		Z:       z,
		Surface: surface,
		Biome:   classifyBiome(value, p.Biomes),
	}
	col.Tree = g.treeAt(col)
	return col
}

func (g *Generator) treeAt(col Column) *Tree {
	tp := g.params.Trees
	if tp.Frequency <= 0 {
		return nil
	}
	if g.src.Random.Float64(col.X, 0, col.Z, saltTreePlacement) >= tp.Frequency {
		return nil
	}
	base := col.Surface + 1
	// Ствол не растёт из-под воды и за пределами колонки
	if float64(base) < g.params.Terrain.WaterOffset || base >= g.shape.Height {
		return nil
	}

	kind := treeKindFor(col.Biome)
	height := tp.Trunk.MinHeight + pick(g.src.Random.Float64(col.X, 1, col.Z, saltTrunkHeight), tp.Trunk.MaxHeight-tp.Trunk.MinHeight+1)
	radius := 0
	if kind != TreeCactus {
		radius = tp.Canopy.MinRadius + pick(g.src.Random.Float64(col.X, 2, col.Z, saltCanopyRadius), tp.Canopy.MaxRadius-tp.Canopy.MinRadius+1)
	}
	return &Tree{
		Kind:         kind,
		Base:         base,
		Top:          base + height - 1,
		CanopyRadius: radius,
	}
}

// BlockAt возвращает блок в координате (x, y, z). y отсчитывается от пола колонки.
func (g *Generator) BlockAt(x, y, z int) block.BlockID {
	if y < 0 || y >= g.shape.Height {
		return block.EmptyBlockID
	}
	col := g.Column(x, z)
	if id := groundBlock(col, y); id != block.EmptyBlockID {
		return id
	}
	if float64(y) < g.params.Terrain.WaterOffset {
		return block.WaterBlockID
	}
	if t := col.Tree; t != nil && y >= t.Base && y <= t.Top {
		return t.Kind.Log()
	}
	if id := g.leafAt(x, y, z, g.canopiesAround(x, z, g.Column)); id != block.EmptyBlockID {
		return id
	}
	if g.cloudAt(x, y, z) {
		return block.CloudBlockID
	}
	return block.EmptyBlockID
}

// FillColumn заполняет out (длиной не меньше высоты профиля) блоками колонки снизу вверх.
// Проходы идут в порядке рельеф → вода → деревья → облака; результат совпадает с BlockAt.
// lookup может быть nil, тогда соседние колонки вычисляются заново.
func (g *Generator) FillColumn(x, z int, out []block.BlockID, lookup ColumnLookup) {
	if lookup == nil {
		lookup = g.Column
	}
	h := g.shape.Height
	col := lookup(x, z)

	for y := 0; y < h; y++ {
		out[y] = groundBlock(col, y)
	}
	for y := 0; y < h && float64(y) < g.params.Terrain.WaterOffset; y++ {
		if out[y] == block.EmptyBlockID {
			out[y] = block.WaterBlockID
		}
	}

	if t := col.Tree; t != nil {
		for y := t.Base; y <= t.Top && y < h; y++ {
			if out[y] == block.EmptyBlockID {
				out[y] = t.Kind.Log()
			}
		}
	}
	if canopies := g.canopiesAround(x, z, lookup); len(canopies) > 0 {
		for y := 0; y < h; y++ {
			if out[y] == block.EmptyBlockID {
				out[y] = g.leafAt(x, y, z, canopies)
			}
		}
	}

	if g.shape.Clouds && out[h-1] == block.EmptyBlockID && g.cloudAt(x, h-1, z) {
		out[h-1] = block.CloudBlockID
	}
}

// groundBlock возвращает блок рельефа или пустоту над поверхностью
func groundBlock(col Column, y int) block.BlockID {
	switch {
	case y > col.Surface:
		return block.EmptyBlockID
	case y == col.Surface:
		return col.Biome.Surface()
	case y >= col.Surface-subsurfaceDepth:
		return col.Biome.Subsurface()
	default:
		return block.StoneBlockID
	}
}

// canopy — крона соседней колонки, смещённая относительно текущей
type canopy struct {
	dx, dz int
	tree   *Tree
}

// canopiesAround собирает кроны, способные дотянуться до колонки (x, z).
// Порядок обхода фиксирован: dx, затем dz по возрастанию.
func (g *Generator) canopiesAround(x, z int, lookup ColumnLookup) []canopy {
	tp := g.params.Trees
	if tp.Frequency <= 0 || tp.Canopy.Density <= 0 {
		return nil
	}
	r := tp.Canopy.MaxRadius
	var out []canopy
	for dx := -r; dx <= r; dx++ {
		for dz := -r; dz <= r; dz++ {
			col := lookup(x+dx, z+dz)
			if col.Tree == nil || col.Tree.CanopyRadius == 0 {
				continue
			}
			if dx*dx+dz*dz > col.Tree.CanopyRadius*col.Tree.CanopyRadius {
				continue
			}
			out = append(out, canopy{dx: dx, dz: dz, tree: col.Tree})
		}
	}
	return out
}

// leafAt возвращает листву первой кроны, покрывающей воксель, либо пустоту.
// Розыгрыш плотности зависит только от координаты вокселя.
func (g *Generator) leafAt(x, y, z int, canopies []canopy) block.BlockID {
	if len(canopies) == 0 {
		return block.EmptyBlockID
	}
	if g.src.Random.Float64(x, y, z, saltLeaf) >= g.params.Trees.Canopy.Density {
		return block.EmptyBlockID
	}
	for _, c := range canopies {
		dy := y - c.tree.Top
		r := c.tree.CanopyRadius
		if c.dx*c.dx+dy*dy+c.dz*c.dz <= r*r {
			return c.tree.Kind.Leaves()
		}
	}
	return block.EmptyBlockID
}

func (g *Generator) cloudAt(x, y, z int) bool {
	cp := g.params.Clouds
	if !g.shape.Clouds || y != g.shape.Height-1 || cp.Density <= 0 {
		return false
	}
	n := clampUnit(g.src.Cloud.Noise2D(float64(x)/cp.Scale, float64(z)/cp.Scale))
	return 0.5*n+0.5 > 1-cp.Density
}

// pick переводит u ∈ [0, 1) в целое из [0, n)
func pick(u float64, n int) int {
	if n <= 1 {
		return 0
	}
	i := int(u * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
