package eventbus

import "errors"

// ErrClosed возвращается при публикации в закрытую шину
var ErrClosed = errors.New("шина событий закрыта")

// Типы событий мира
const (
	TypeBlockEdited      = "block_edited"
	TypeChunkEvicted     = "chunk_evicted"
	TypeWorldSaved       = "world_saved"
	TypeWorldLoaded      = "world_loaded"
	TypeWorldRegenerated = "world_regenerated"
)

// BlockEdited — правка игрока, записанная в хранилище правок
type BlockEdited struct {
	Chunk string `json:"chunk"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Z     int    `json:"z"`
	Block uint16 `json:"block"`
}

// ChunkEvicted — участок выгружен из-за удаления от игрока
type ChunkEvicted struct {
	Chunk string `json:"chunk"`
	Kind  string `json:"kind"`
}

// WorldPersisted сопровождает сохранение и загрузку мира
type WorldPersisted struct {
	Seed      int64 `json:"seed"`
	Overrides int   `json:"overrides"`
	Defaulted bool  `json:"defaulted,omitempty"` // При загрузке хотя бы одна запись заменена значением по умолчанию
}

// WorldRegenerated — мир пересоздан
type WorldRegenerated struct {
	Plots        int  `json:"plots"`
	Islands      int  `json:"islands"`
	ClearOverlay bool `json:"clear_overlay"`
}
