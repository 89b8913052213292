package world

import (
	"math/rand"
	"sort"

	"github.com/annel0/voxelcore/internal/vec"
	"github.com/annel0/voxelcore/internal/world/block"
)

// World отображает бесконечные целочисленные координаты мира на загруженные чанки.
// Доступ только из горутины-владельца (см. engine.Engine).
type World struct {
	chunks   map[vec.Vec3]*Chunk  // Загруженные чанки по координатам чанка
	onChange func(ev BlockEvent) // Слушатель изменений блоков (может быть nil)
}

// NewWorld создаёт пустой мир без загруженных чанков
func NewWorld() *World {
	return &World{
		chunks: make(map[vec.Vec3]*Chunk),
	}
}

// SetChangeListener устанавливает функцию, вызываемую после каждой записи блока
func (w *World) SetChangeListener(fn func(ev BlockEvent)) {
	w.onChange = fn
}

// LoadChunk добавляет чанк в мир, заменяя существующий
func (w *World) LoadChunk(coord vec.Vec3, c *Chunk) {
	w.chunks[coord] = c
}

// Chunk возвращает чанк по координатам чанка
func (w *World) Chunk(coord vec.Vec3) (*Chunk, bool) {
	c, ok := w.chunks[coord]
	return c, ok
}

// Len возвращает количество загруженных чанков
func (w *World) Len() int {
	return len(w.chunks)
}

// Range обходит загруженные чанки в произвольном порядке, пока fn возвращает true
func (w *World) Range(fn func(coord vec.Vec3, c *Chunk) bool) {
	for coord, c := range w.chunks {
		if !fn(coord, c) {
			return
		}
	}
}

// Coords возвращает координаты загруженных чанков в детерминированном порядке
func (w *World) Coords() []vec.Vec3 {
	coords := make([]vec.Vec3, 0, len(w.chunks))
	for coord := range w.chunks {
		coords = append(coords, coord)
	}
	sort.Slice(coords, func(i, j int) bool { return coords[i].Less(coords[j]) })
	return coords
}

// GetBlock возвращает блок по мировым координатам.
// false означает, что чанк не загружен; это не то же самое, что воздух.
func (w *World) GetBlock(x, y, z int) (block.BlockID, bool) {
	chunkPos, local := SplitCoords(x, y, z)
	c, ok := w.chunks[chunkPos]
	if !ok {
		return block.AirBlockID, false
	}
	return c.GetBlock(local.X, local.Y, local.Z), true
}

// GetBlockAt то же, что GetBlock, для вектора
func (w *World) GetBlockAt(pos vec.Vec3) (block.BlockID, bool) {
	return w.GetBlock(pos.X, pos.Y, pos.Z)
}

// SetBlock устанавливает блок по мировым координатам.
// Если чанк не загружен, ничего не делает и возвращает false.
func (w *World) SetBlock(x, y, z int, id block.BlockID) bool {
	chunkPos, local := SplitCoords(x, y, z)
	c, ok := w.chunks[chunkPos]
	if !ok {
		return false
	}

	old := c.GetBlock(local.X, local.Y, local.Z)
	c.SetBlock(local.X, local.Y, local.Z, id)

	if w.onChange != nil {
		w.onChange(BlockEvent{
			Position: vec.Vec3{X: x, Y: y, Z: z},
			Chunk:    chunkPos,
			Old:      old,
			New:      id,
		})
	}
	return true
}

// SetBlockAt то же, что SetBlock, для вектора
func (w *World) SetBlockAt(pos vec.Vec3, id block.BlockID) bool {
	return w.SetBlock(pos.X, pos.Y, pos.Z, id)
}

// IsSolid сообщает, занят ли блок твёрдым материалом. Незагруженное пространство не твёрдое.
func (w *World) IsSolid(x, y, z int) bool {
	id, ok := w.GetBlock(x, y, z)
	return ok && id.IsSolid()
}

// PreloadEmpty загружает пустые чанки в объёме x,z ∈ [-radius, radius], y ∈ [0, height)
func (w *World) PreloadEmpty(radius, height int) {
	for y := 0; y < height; y++ {
		for z := -radius; z <= radius; z++ {
			for x := -radius; x <= radius; x++ {
				w.LoadChunk(vec.Vec3{X: x, Y: y, Z: z}, NewEmptyChunk())
			}
		}
	}
}

// PreloadRandom загружает куб size^3 чанков со случайным содержимым (демо)
func (w *World) PreloadRandom(rng *rand.Rand, size int) {
	for y := 0; y < size; y++ {
		for z := 0; z < size; z++ {
			for x := 0; x < size; x++ {
				w.LoadChunk(vec.Vec3{X: x, Y: y, Z: z}, NewRandomChunk(rng))
			}
		}
	}
}
