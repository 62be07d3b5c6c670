package terrain

import (
	"github.com/annel0/voxel-sim/internal/util"
)

// NoiseSource — двумерный когерентный шум в диапазоне [-1, 1]
type NoiseSource interface {
	Noise2D(x, y float64) float64
}

// RandomSource — детерминированное равномерное значение в [0, 1) для целочисленной
// координаты. salt разделяет независимые розыгрыши в одной точке.
type RandomSource interface {
	Float64(x, y, z int, salt uint64) float64
}

// Sources объединяет все источники случайности генератора
type Sources struct {
	Height    NoiseSource
	Biome     NoiseSource
	Variation NoiseSource
	Cloud     NoiseSource
	Random    RandomSource
}

// DefaultSources возвращает шум Перлина и хеш-ГПСЧ, засеянные от seed
func DefaultSources(seed int64) Sources {
	return Sources{
		Height:    util.NewPerlinNoise(seed),
		Biome:     util.NewPerlinNoise(seed + 1),
		Variation: util.NewPerlinNoise(seed + 2),
		Cloud:     util.NewPerlinNoise(seed + 3),
		Random:    NewHashRandom(seed),
	}
}

// ConstantNoise всегда возвращает одно и то же значение. Используется для плоских миров.
type ConstantNoise float64

// Noise2D реализует NoiseSource
func (c ConstantNoise) Noise2D(_, _ float64) float64 {
	return float64(c)
}

// HashRandom — целочисленный хеш координаты (splitmix64), не хранит состояния
type HashRandom struct {
	seed uint64
}

// NewHashRandom создаёт источник с указанным сидом
func NewHashRandom(seed int64) HashRandom {
	return HashRandom{seed: mix64(uint64(seed))}
}

// Float64 реализует RandomSource
func (h HashRandom) Float64(x, y, z int, salt uint64) float64 {
	v := h.seed ^ mix64(salt+0x632BE59BD9B4E019)
	v = mix64(v ^ uint64(int64(x)))
	v = mix64(v ^ uint64(int64(y)))
	v = mix64(v ^ uint64(int64(z)))
	return float64(v>>11) / (1 << 53)
}

func mix64(v uint64) uint64 {
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	return v ^ (v >> 31)
}
