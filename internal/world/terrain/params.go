package terrain

import (
	"errors"
	"fmt"
)

// ErrInvalidParams возвращается Validate для некорректных параметров генерации
var ErrInvalidParams = errors.New("некорректные параметры генерации")

// TerrainParams задаёт рельеф
type TerrainParams struct {
	Scale       float64 `json:"scale"`
	Magnitude   float64 `json:"magnitude"`
	Offset      float64 `json:"offset"`
	WaterOffset float64 `json:"waterOffset"`
}

// VariationParams задаёт полосовую добавку к шуму биомов
type VariationParams struct {
	Amplitude float64 `json:"amplitude"`
	Scale     float64 `json:"scale"`
}

// BiomeParams задаёт распределение биомов.
// Пороги должны строго возрастать.
type BiomeParams struct {
	Scale             float64         `json:"scale"`
	Variation         VariationParams `json:"variation"`
	TundraToTemperate float64         `json:"tundraToTemperate"`
	TemperateToJungle float64         `json:"temperateToJungle"`
	JungleToDesert    float64         `json:"jungleToDesert"`
}

// TrunkParams задаёт высоту ствола
type TrunkParams struct {
	MinHeight int `json:"minHeight"`
	MaxHeight int `json:"maxHeight"`
}

// CanopyParams задаёт крону
type CanopyParams struct {
	MinRadius int     `json:"minRadius"`
	MaxRadius int     `json:"maxRadius"`
	Density   float64 `json:"density"`
}

// TreeParams задаёт деревья
type TreeParams struct {
	Frequency float64      `json:"frequency"`
	Trunk     TrunkParams  `json:"trunk"`
	Canopy    CanopyParams `json:"canopy"`
}

// CloudParams задаёт облака
type CloudParams struct {
	Scale   float64 `json:"scale"`
	Density float64 `json:"density"`
}

// Params содержит все параметры генерации мира.
// Значение неизменяемо в пределах одного экземпляра мира и сохраняется в запись world_params.
type Params struct {
	Seed    int64         `json:"seed"`
	Terrain TerrainParams `json:"terrain"`
	Biomes  BiomeParams   `json:"biomes"`
	Trees   TreeParams    `json:"trees"`
	Clouds  CloudParams   `json:"clouds"`
}

// DefaultParams возвращает параметры по умолчанию
func DefaultParams() Params {
	return Params{
		Seed: 0,
		Terrain: TerrainParams{
			Scale:       100,
			Magnitude:   8,
			Offset:      6,
			WaterOffset: 4,
		},
		Biomes: BiomeParams{
			Scale: 500,
			Variation: VariationParams{
				Amplitude: 0.2,
				Scale:     50,
			},
			TundraToTemperate: 0.25,
			TemperateToJungle: 0.5,
			JungleToDesert:    0.75,
		},
		Trees: TreeParams{
			Frequency: 0.005,
			Trunk:     TrunkParams{MinHeight: 4, MaxHeight: 7},
			Canopy:    CanopyParams{MinRadius: 3, MaxRadius: 3, Density: 0.7},
		},
		Clouds: CloudParams{
			Scale:   30,
			Density: 0.3,
		},
	}
}

// WithSeed возвращает копию параметров с другим сидом
func (p Params) WithSeed(seed int64) Params {
	p.Seed = seed
	return p
}

// Validate проверяет параметры. Все ошибки оборачивают ErrInvalidParams.
func (p Params) Validate() error {
	if !(p.Terrain.Scale > 0) {
		return fmt.Errorf("%w: terrain.scale должен быть положительным", ErrInvalidParams)
	}
	if !(p.Biomes.Scale > 0) {
		return fmt.Errorf("%w: biomes.scale должен быть положительным", ErrInvalidParams)
	}
	if !(p.Biomes.Variation.Scale > 0) {
		return fmt.Errorf("%w: biomes.variation.scale должен быть положительным", ErrInvalidParams)
	}
	if !(p.Clouds.Scale > 0) {
		return fmt.Errorf("%w: clouds.scale должен быть положительным", ErrInvalidParams)
	}
	if !(p.Biomes.TundraToTemperate < p.Biomes.TemperateToJungle && p.Biomes.TemperateToJungle < p.Biomes.JungleToDesert) {
		return fmt.Errorf("%w: пороги биомов должны строго возрастать (%.3f, %.3f, %.3f)",
			ErrInvalidParams, p.Biomes.TundraToTemperate, p.Biomes.TemperateToJungle, p.Biomes.JungleToDesert)
	}
	if !isProbability(p.Trees.Frequency) {
		return fmt.Errorf("%w: trees.frequency вне [0, 1]: %v", ErrInvalidParams, p.Trees.Frequency)
	}
	if !isProbability(p.Trees.Canopy.Density) {
		return fmt.Errorf("%w: trees.canopy.density вне [0, 1]: %v", ErrInvalidParams, p.Trees.Canopy.Density)
	}
	if !isProbability(p.Clouds.Density) {
		return fmt.Errorf("%w: clouds.density вне [0, 1]: %v", ErrInvalidParams, p.Clouds.Density)
	}
	if p.Trees.Trunk.MinHeight < 1 || p.Trees.Trunk.MinHeight > p.Trees.Trunk.MaxHeight {
		return fmt.Errorf("%w: trees.trunk: minHeight=%d, maxHeight=%d",
			ErrInvalidParams, p.Trees.Trunk.MinHeight, p.Trees.Trunk.MaxHeight)
	}
	if p.Trees.Canopy.MinRadius < 0 || p.Trees.Canopy.MinRadius > p.Trees.Canopy.MaxRadius {
		return fmt.Errorf("%w: trees.canopy: minRadius=%d, maxRadius=%d",
			ErrInvalidParams, p.Trees.Canopy.MinRadius, p.Trees.Canopy.MaxRadius)
	}
	return nil
}

func isProbability(v float64) bool {
	return v >= 0 && v <= 1
}
