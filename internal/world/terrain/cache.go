package terrain

import (
	"github.com/annel0/voxel-sim/internal/vec"
)

// ColumnCache запоминает вычисленные колонки на время генерации одного чанка.
// Не безопасен для параллельного использования.
type ColumnCache struct {
	gen     *Generator
	columns map[vec.Vec2]Column
}

// NewColumnCache создаёт пустой кеш для генератора
func NewColumnCache(gen *Generator) *ColumnCache {
	return &ColumnCache{
		gen:     gen,
		columns: make(map[vec.Vec2]Column),
	}
}

// Column возвращает колонку из кеша, вычисляя её при промахе
func (c *ColumnCache) Column(x, z int) Column {
	key := vec.Vec2{X: x, Z: z}
	if col, ok := c.columns[key]; ok {
		return col
	}
	col := c.gen.Column(x, z)
	c.columns[key] = col
	return col
}

// Len возвращает количество закешированных колонок
func (c *ColumnCache) Len() int {
	return len(c.columns)
}
