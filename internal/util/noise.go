package util

import (
	"github.com/aquilax/go-perlin"
)

// Параметры шума Перлина
const (
	perlinAlpha   = 2.0 // Сглаживание шума
	perlinBeta    = 2.0 // Частота шума
	perlinOctaves = 3   // Количество октав
	noiseLimit    = 1.0 // Шум ограничивается диапазоном [-1, 1]
)

// PerlinNoise — детерминированный многооктавный шум Перлина с собственным сидом.
// Экземпляр не хранит изменяемого состояния и безопасен для параллельного чтения.
type PerlinNoise struct {
	seed int64
	p    *perlin.Perlin
}

// NewPerlinNoise создаёт генератор шума Перлина с указанным сидом
func NewPerlinNoise(seed int64) *PerlinNoise {
	return &PerlinNoise{
		seed: seed,
		p:    perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, seed),
	}
}

// Seed возвращает сид генератора
func (pn *PerlinNoise) Seed() int64 {
	return pn.seed
}

// Noise2D возвращает значение шума в диапазоне [-1, 1]
func (pn *PerlinNoise) Noise2D(x, y float64) float64 {
	n := pn.p.Noise2D(x, y)
	if n > noiseLimit {
		return noiseLimit
	}
	if n < -noiseLimit {
		return -noiseLimit
	}
	return n
}

// Noise01 возвращает значение шума в диапазоне [0, 1]
func (pn *PerlinNoise) Noise01(x, y float64) float64 {
	return (pn.Noise2D(x, y) + 1.0) / 2.0
}
