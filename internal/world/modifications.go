package world

import (
	"fmt"
	"sort"
	"sync"

	"github.com/annel0/voxel-sim/internal/vec"
	"github.com/annel0/voxel-sim/internal/world/block"
)

// OverlaySnapshot — плоская сериализуемая форма правок: ключ чанка → "x,y,z" → BlockID
type OverlaySnapshot map[string]map[string]block.BlockID

// ModificationStore хранит правки игрока отдельно от сгенерированного рельефа.
// Правки всегда имеют приоритет над генерацией. Безопасен для параллельного использования.
type ModificationStore struct {
	mu     sync.RWMutex
	chunks map[string]map[vec.Vec3]block.BlockID
}

// NewModificationStore создаёт пустое хранилище правок
func NewModificationStore() *ModificationStore {
	return &ModificationStore{
		chunks: make(map[string]map[vec.Vec3]block.BlockID),
	}
}

// Set записывает правку по локальной координате чанка.
// Возвращает false, если такая правка уже записана.
func (m *ModificationStore) Set(chunkKey string, local vec.Vec3, id block.BlockID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	overrides, ok := m.chunks[chunkKey]
	if !ok {
		overrides = make(map[vec.Vec3]block.BlockID)
		m.chunks[chunkKey] = overrides
	}
	if prev, exists := overrides[local]; exists && prev == id {
		return false
	}
	overrides[local] = id
	return true
}

// Get возвращает правку, если она есть
func (m *ModificationStore) Get(chunkKey string, local vec.Vec3) (block.BlockID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.chunks[chunkKey][local]
	return id, ok
}

// Overrides возвращает копию правок одного чанка
func (m *ModificationStore) Overrides(chunkKey string) map[vec.Vec3]block.BlockID {
	m.mu.RLock()
	defer m.mu.RUnlock()

	src := m.chunks[chunkKey]
	out := make(map[vec.Vec3]block.BlockID, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Apply вызывает set для каждой правки чанка. Порядок обхода не важен:
// каждая координата встречается один раз.
func (m *ModificationStore) Apply(chunkKey string, set func(local vec.Vec3, id block.BlockID)) int {
	overrides := m.Overrides(chunkKey)
	for local, id := range overrides {
		set(local, id)
	}
	return len(overrides)
}

// Clear удаляет все правки
func (m *ModificationStore) Clear() {
	m.mu.Lock()
	m.chunks = make(map[string]map[vec.Vec3]block.BlockID)
	m.mu.Unlock()
}

// Len возвращает общее количество правок
func (m *ModificationStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, overrides := range m.chunks {
		n += len(overrides)
	}
	return n
}

// ChunkKeys возвращает отсортированные ключи чанков, у которых есть правки
func (m *ModificationStore) ChunkKeys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.chunks))
	for k, overrides := range m.chunks {
		if len(overrides) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Snapshot возвращает плоскую копию всех правок
func (m *ModificationStore) Snapshot() OverlaySnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(OverlaySnapshot, len(m.chunks))
	for chunkKey, overrides := range m.chunks {
		if len(overrides) == 0 {
			continue
		}
		flat := make(map[string]block.BlockID, len(overrides))
		for local, id := range overrides {
			flat[local.String()] = id
		}
		out[chunkKey] = flat
	}
	return out
}

// Restore заменяет содержимое хранилища снимком.
// При некорректной координате хранилище не изменяется.
func (m *ModificationStore) Restore(snap OverlaySnapshot) error {
	chunks := make(map[string]map[vec.Vec3]block.BlockID, len(snap))
	for chunkKey, flat := range snap {
		overrides := make(map[vec.Vec3]block.BlockID, len(flat))
		for key, id := range flat {
			local, err := vec.ParseVec3(key)
			if err != nil {
				return fmt.Errorf("правки чанка %s: %w", chunkKey, err)
			}
			if !block.IsValidBlockID(id) {
				return fmt.Errorf("правки чанка %s: неизвестный блок %d в %s", chunkKey, id, key)
			}
			overrides[local] = id
		}
		chunks[chunkKey] = overrides
	}

	m.mu.Lock()
	m.chunks = chunks
	m.mu.Unlock()
	return nil
}
