package terrain

import (
	"github.com/annel0/voxel-sim/internal/world/block"
)

// Biome — тип биома
type Biome int

const (
	BiomeTundra Biome = iota
	BiomeTemperate
	BiomeJungle
	BiomeDesert
)

// String возвращает имя биома
func (b Biome) String() string {
	switch b {
	case BiomeTundra:
		return "tundra"
	case BiomeTemperate:
		return "temperate"
	case BiomeJungle:
		return "jungle"
	case BiomeDesert:
		return "desert"
	default:
		return "unknown"
	}
}

// Surface возвращает блок поверхности биома
func (b Biome) Surface() block.BlockID {
	switch b {
	case BiomeTundra:
		return block.SnowBlockID
	case BiomeJungle:
		return block.JungleGrassBlockID
	case BiomeDesert:
		return block.SandBlockID
	default:
		return block.GrassBlockID
	}
}

// Subsurface возвращает блок подповерхностных слоёв биома
func (b Biome) Subsurface() block.BlockID {
	if b == BiomeDesert {
		return block.SandBlockID
	}
	return block.DirtBlockID
}

// classifyBiome переводит значение биома в тип по трём порогам
func classifyBiome(value float64, p BiomeParams) Biome {
	switch {
	case value < p.TundraToTemperate:
		return BiomeTundra
	case value < p.TemperateToJungle:
		return BiomeTemperate
	case value < p.JungleToDesert:
		return BiomeJungle
	default:
		return BiomeDesert
	}
}

// TreeKind — вид растения на колонке
type TreeKind int

const (
	TreeOak TreeKind = iota
	TreeJungle
	TreeCactus
)

func (k TreeKind) String() string {
	switch k {
	case TreeOak:
		return "oak"
	case TreeJungle:
		return "jungle"
	case TreeCactus:
		return "cactus"
	default:
		return "unknown"
	}
}

// treeKindFor выбирает вид дерева по биому
func treeKindFor(b Biome) TreeKind {
	switch b {
	case BiomeDesert:
		return TreeCactus
	case BiomeJungle:
		return TreeJungle
	default:
		return TreeOak
	}
}

// Log возвращает блок ствола
func (k TreeKind) Log() block.BlockID {
	switch k {
	case TreeJungle:
		return block.JungleLogBlockID
	case TreeCactus:
		return block.CactusBlockID
	default:
		return block.OakLogBlockID
	}
}

// Leaves возвращает блок листвы; у кактуса листвы нет
func (k TreeKind) Leaves() block.BlockID {
	switch k {
	case TreeJungle:
		return block.JungleLeavesBlockID
	case TreeCactus:
		return block.EmptyBlockID
	default:
		return block.OakLeavesBlockID
	}
}
