package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-sim/internal/vec"
	"github.com/annel0/voxel-sim/internal/world/block"
	"github.com/annel0/voxel-sim/internal/world/terrain"
)

// flatSources даёт ровный рельеф джунглей с поверхностью на y = 6, без облаков
func flatSources() *terrain.Sources {
	return &terrain.Sources{
		Height:    terrain.ConstantNoise(0),
		Biome:     terrain.ConstantNoise(0),
		Variation: terrain.ConstantNoise(0),
		Cloud:     terrain.ConstantNoise(-1),
		Random:    terrain.NewHashRandom(1),
	}
}

func flatParams() terrain.Params {
	params := terrain.DefaultParams().WithSeed(12345)
	params.Trees.Frequency = 0
	return params
}

func newFlatGenerator(height int) *terrain.Generator {
	return terrain.NewGenerator(flatParams(), terrain.Shape{Height: height},
		terrain.WithSources(*flatSources()))
}

func newTestChunk(gen *terrain.Generator, mods *ModificationStore) *Chunk {
	return NewChunk(ChunkConfig{
		Key:       "0,0",
		Kind:      KindPlot,
		Origin:    vec.Vec3{},
		Width:     8,
		Generator: gen,
		Mods:      mods,
	})
}

func TestChunkReadsEmptyUntilGenerated(t *testing.T) {
	sched := NewIdleScheduler(nil)
	chunk := newTestChunk(newFlatGenerator(16), NewModificationStore())

	assert.Equal(t, Ungenerated, chunk.State())
	assert.Equal(t, 16, chunk.Height())

	chunk.Generate(sched, 0)
	assert.Equal(t, Generating, chunk.State())
	assert.Equal(t, 64, sched.Pending())
	assert.Equal(t, block.EmptyBlockID, chunk.GetLocal(0, 0, 0))
	_, ok := chunk.Snapshot()
	assert.False(t, ok)

	assert.Equal(t, 64, sched.Drain())
	assert.Equal(t, Generated, chunk.State())
	assert.Equal(t, block.StoneBlockID, chunk.GetLocal(0, 0, 0))
	assert.Equal(t, block.DirtBlockID, chunk.GetLocal(3, 4, 5))
	assert.Equal(t, block.JungleGrassBlockID, chunk.GetLocal(7, 6, 7))
	assert.Equal(t, block.EmptyBlockID, chunk.GetLocal(7, 7, 7))
	assert.True(t, chunk.HasChanges())
}

func TestChunkOutOfRangeReadsEmpty(t *testing.T) {
	chunk := newTestChunk(newFlatGenerator(16), nil)
	chunk.Generate(nil, 0)

	assert.Equal(t, block.EmptyBlockID, chunk.GetLocal(-1, 0, 0))
	assert.Equal(t, block.EmptyBlockID, chunk.GetLocal(8, 0, 0))
	assert.Equal(t, block.EmptyBlockID, chunk.GetLocal(0, 16, 0))
	assert.Equal(t, block.EmptyBlockID, chunk.GetBlock(0, -1, 0))
	assert.False(t, chunk.Contains(8, 0, 0))
	assert.True(t, chunk.Contains(7, 15, 7))
}

func TestChunkAsyncMatchesSync(t *testing.T) {
	gen := terrain.NewGenerator(terrain.DefaultParams().WithSeed(12345), terrain.Shape{Height: 32, Clouds: true})

	syncChunk := NewChunk(ChunkConfig{Key: "3,-2", Kind: KindPlot, Origin: vec.Vec3{X: 24, Z: -16}, Width: 8, Generator: gen})
	syncChunk.Generate(nil, 0)

	sched := NewIdleScheduler(nil)
	asyncChunk := NewChunk(ChunkConfig{Key: "3,-2", Kind: KindPlot, Origin: vec.Vec3{X: 24, Z: -16}, Width: 8, Generator: gen})
	asyncChunk.Generate(sched, 0)
	sched.Drain()

	want, ok := syncChunk.Snapshot()
	require.True(t, ok)
	got, ok := asyncChunk.Snapshot()
	require.True(t, ok)
	assert.Equal(t, want, got)

	// Повторная генерация даёт тот же результат
	syncChunk.Generate(nil, 0)
	again, _ := syncChunk.Snapshot()
	assert.Equal(t, want, again)

	// Каждая клетка совпадает с генератором
	for lx := 0; lx < 8; lx++ {
		for lz := 0; lz < 8; lz++ {
			for ly := 0; ly < 32; ly++ {
				require.Equal(t, gen.BlockAt(24+lx, ly, -16+lz), asyncChunk.GetLocal(lx, ly, lz),
					"клетка (%d, %d, %d)", lx, ly, lz)
			}
		}
	}
}

func TestChunkOverridesWinOverGeneration(t *testing.T) {
	mods := NewModificationStore()
	mods.Set("0,0", vec.Vec3{X: 1, Y: 6, Z: 1}, block.EmptyBlockID)
	mods.Set("0,0", vec.Vec3{X: 2, Y: 9, Z: 2}, block.OakLogBlockID)
	mods.Set("0,0", vec.Vec3{X: 2, Y: 99, Z: 2}, block.OakLogBlockID) // вне сетки, пропускается
	mods.Set("1,0", vec.Vec3{X: 3, Y: 3, Z: 3}, block.EmptyBlockID)   // чужой чанк

	chunk := newTestChunk(newFlatGenerator(16), mods)
	chunk.Generate(nil, 0)

	assert.Equal(t, block.EmptyBlockID, chunk.GetLocal(1, 6, 1))
	assert.Equal(t, block.OakLogBlockID, chunk.GetLocal(2, 9, 2))
	assert.Equal(t, block.DirtBlockID, chunk.GetLocal(3, 3, 3))
}

func TestChunkSetBlock(t *testing.T) {
	mods := NewModificationStore()
	chunk := newTestChunk(newFlatGenerator(16), mods)
	chunk.Generate(nil, 0)
	chunk.ClearChanges()

	assert.True(t, chunk.SetBlock(4, 7, 4, block.StoneBlockID))
	assert.Equal(t, block.StoneBlockID, chunk.GetBlock(4, 7, 4))
	assert.True(t, chunk.HasChanges())

	id, ok := mods.Get("0,0", vec.Vec3{X: 4, Y: 7, Z: 4})
	require.True(t, ok)
	assert.Equal(t, block.StoneBlockID, id)

	// Повторная запись того же блока ничего не меняет
	chunk.ClearChanges()
	assert.False(t, chunk.SetBlock(4, 7, 4, block.StoneBlockID))
	assert.False(t, chunk.HasChanges())
	assert.Equal(t, 1, mods.Len())

	// Запись, совпадающая с рельефом, всё равно фиксируется как правка
	assert.True(t, chunk.SetBlock(0, 0, 0, block.StoneBlockID))
	assert.False(t, chunk.HasChanges())
	assert.Equal(t, 2, mods.Len())

	assert.False(t, chunk.SetBlock(8, 0, 0, block.StoneBlockID))
}

func TestChunkSetBlockDuringGeneration(t *testing.T) {
	mods := NewModificationStore()
	sched := NewIdleScheduler(nil)
	chunk := newTestChunk(newFlatGenerator(16), mods)
	chunk.Generate(sched, 0)

	assert.True(t, chunk.SetBlock(5, 6, 5, block.SandBlockID))
	assert.Equal(t, block.EmptyBlockID, chunk.GetBlock(5, 6, 5))

	sched.Drain()
	assert.Equal(t, block.SandBlockID, chunk.GetBlock(5, 6, 5))
}

func TestChunkRegenerationSupersedesPendingUnits(t *testing.T) {
	clock := newFakeClock()
	sched := NewIdleScheduler(clock.Now)
	chunk := newTestChunk(newFlatGenerator(16), nil)

	chunk.Generate(sched, 0)
	chunk.Generate(sched, 0)
	require.Equal(t, 128, sched.Pending())

	// Единицы первого запуска устарели и не продвигают генерацию
	for i := 0; i < 64; i++ {
		assert.Equal(t, 1, sched.RunIdle(0))
	}
	assert.Equal(t, Generating, chunk.State())

	sched.Drain()
	assert.Equal(t, Generated, chunk.State())
	assert.Equal(t, block.JungleGrassBlockID, chunk.GetLocal(0, 6, 0))
}

func TestChunkDisposeCancelsGeneration(t *testing.T) {
	sched := NewIdleScheduler(nil)
	chunk := newTestChunk(newFlatGenerator(16), NewModificationStore())
	chunk.Generate(sched, 0)

	chunk.Dispose()
	sched.Drain()

	assert.Equal(t, Ungenerated, chunk.State())
	assert.Equal(t, block.EmptyBlockID, chunk.GetLocal(0, 0, 0))
	assert.False(t, chunk.SetBlock(0, 7, 0, block.StoneBlockID))

	// Выгруженный чанк не генерируется заново
	chunk.Generate(nil, 0)
	assert.Equal(t, Ungenerated, chunk.State())
}

func TestGenerationStateString(t *testing.T) {
	assert.Equal(t, "ungenerated", Ungenerated.String())
	assert.Equal(t, "generating", Generating.String())
	assert.Equal(t, "generated", Generated.String())
	assert.Equal(t, "unknown", GenerationState(42).String())
}
