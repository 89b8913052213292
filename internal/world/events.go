package world

import (
	"github.com/annel0/voxelcore/internal/vec"
	"github.com/annel0/voxelcore/internal/world/block"
)

// EventType определяет тип события мира
type EventType uint8

const (
	EventTypeBlockChange EventType = iota // Изменение блока
	EventTypeChunkMeshed                  // Меш чанка перестроен
)

// String возвращает имя типа события для шины
func (t EventType) String() string {
	switch t {
	case EventTypeBlockChange:
		return "block.changed"
	case EventTypeChunkMeshed:
		return "chunk.meshed"
	default:
		return "unknown"
	}
}

// Event представляет собой интерфейс для всех событий
type Event interface {
	GetType() EventType
}

// BlockEvent представляет запись блока в загруженный чанк
type BlockEvent struct {
	Position vec.Vec3      `json:"position"` // Мировые координаты блока
	Chunk    vec.Vec3      `json:"chunk"`    // Координаты чанка
	Old      block.BlockID `json:"old"`      // Прежний блок
	New      block.BlockID `json:"new"`      // Новый блок
}

// GetType возвращает тип события
func (e BlockEvent) GetType() EventType {
	return EventTypeBlockChange
}

// ChunkMeshedEvent сообщает, что меш чанка перестроен
type ChunkMeshedEvent struct {
	Chunk       vec.Vec3 `json:"chunk"`
	Handle      string   `json:"handle"`
	VertexCount int      `json:"vertex_count"`
}

// GetType возвращает тип события
func (e ChunkMeshedEvent) GetType() EventType {
	return EventTypeChunkMeshed
}
