package block

// BlockID представляет идентификатор блока
type BlockID uint16

// Константы ID блоков
const (
	// Пустой блок: нет меша, нет столкновений
	EmptyBlockID BlockID = iota // 0

	// Поверхность и грунт
	GrassBlockID       // 1
	DirtBlockID        // 2
	StoneBlockID       // 3
	SandBlockID        // 4
	SnowBlockID        // 5
	JungleGrassBlockID // 6

	WaterBlockID // 7

	// Деревья
	OakLogBlockID       // 8
	OakLeavesBlockID    // 9
	JungleLogBlockID    // 10
	JungleLeavesBlockID // 11
	CactusBlockID       // 12

	// Облака не участвуют в столкновениях
	CloudBlockID // 13
)
