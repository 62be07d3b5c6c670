package block

import "sync"

var (
	registryMu sync.RWMutex
	registry   = make(map[BlockID]BlockBehavior)
)

// Register добавляет поведение блока в регистр
func Register(id BlockID, behavior BlockBehavior) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[id] = behavior
}

// Get возвращает поведение для указанного ID
func Get(id BlockID) (BlockBehavior, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	behavior, exists := registry[id]
	return behavior, exists
}

// IsValidBlockID проверяет, является ли ID допустимым идентификатором блока
func IsValidBlockID(id BlockID) bool {
	_, exists := Get(id)
	return exists
}

// Collides возвращает true, если блок с данным ID участвует в столкновениях.
// Пустой и незарегистрированные блоки не сталкиваются.
func Collides(id BlockID) bool {
	if id == EmptyBlockID {
		return false
	}
	behavior, exists := Get(id)
	return exists && behavior.Collides()
}

// Name возвращает имя блока или "Unknown"
func Name(id BlockID) string {
	if behavior, exists := Get(id); exists {
		return behavior.Name()
	}
	return "Unknown"
}

// Регистрируем все типы блоков при импорте пакета
func init() {
	Register(EmptyBlockID, Passable(EmptyBlockID, "Empty"))

	Register(GrassBlockID, Solid(GrassBlockID, "Grass"))
	Register(DirtBlockID, Solid(DirtBlockID, "Dirt"))
	Register(StoneBlockID, Solid(StoneBlockID, "Stone"))
	Register(SandBlockID, Solid(SandBlockID, "Sand"))
	Register(SnowBlockID, Solid(SnowBlockID, "Snow"))
	Register(JungleGrassBlockID, Solid(JungleGrassBlockID, "JungleGrass"))

	Register(WaterBlockID, SolidTransparent(WaterBlockID, "Water"))

	Register(OakLogBlockID, Solid(OakLogBlockID, "OakLog"))
	Register(OakLeavesBlockID, SolidTransparent(OakLeavesBlockID, "OakLeaves"))
	Register(JungleLogBlockID, Solid(JungleLogBlockID, "JungleLog"))
	Register(JungleLeavesBlockID, SolidTransparent(JungleLeavesBlockID, "JungleLeaves"))
	Register(CactusBlockID, Solid(CactusBlockID, "Cactus"))

	Register(CloudBlockID, Passable(CloudBlockID, "Cloud"))
}
