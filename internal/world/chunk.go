package world

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/annel0/voxelcore/internal/vec"
	"github.com/annel0/voxelcore/internal/world/block"
)

const (
	// ChunkSize длина ребра чанка в блоках
	ChunkSize = 16
	// ChunkVolume количество блоков в чанке
	ChunkVolume = ChunkSize * ChunkSize * ChunkSize
)

// Chunk представляет куб мира размером 16x16x16 блоков.
// Чанк не синхронизирован: им владеет World, а World владеет цикл симуляции.
type Chunk struct {
	blocks [ChunkVolume]block.BlockID

	dirty           bool                  // Собственный меш устарел
	dirtyNeighbours map[vec.Vec3]struct{} // Соседи, которым нужно перестроить меш

	mesh        *MeshBuffer // Буфер вершин для рендера
	vertexCount int         // Сколько вершин в буфере сейчас валидно
}

func newChunk(dirty bool) *Chunk {
	c := &Chunk{
		dirty:           dirty,
		dirtyNeighbours: make(map[vec.Vec3]struct{}, 6),
		mesh:            NewMeshBuffer(),
	}
	// Новый чанк меняет видимость граней у всех соседей
	for _, d := range vec.Directions() {
		c.dirtyNeighbours[d] = struct{}{}
	}
	return c
}

// NewEmptyChunk создаёт чанк, заполненный воздухом
func NewEmptyChunk() *Chunk {
	return newChunk(false)
}

// NewFilledChunk создаёт чанк, целиком заполненный одним видом блока
func NewFilledChunk(id block.BlockID) *Chunk {
	c := newChunk(true)
	for i := range c.blocks {
		c.blocks[i] = id
	}
	return c
}

// NewRandomChunk заполняет чанк случайными не-воздушными блоками (тесты и демо)
func NewRandomChunk(rng *rand.Rand) *Chunk {
	c := newChunk(true)
	for i := range c.blocks {
		c.blocks[i] = block.Random(rng)
	}
	return c
}

// index переводит локальные координаты в индекс массива (y, затем z, затем x)
func index(x, y, z int) int {
	if uint(x) >= ChunkSize || uint(y) >= ChunkSize || uint(z) >= ChunkSize {
		panic(fmt.Sprintf("world: local coordinate (%d,%d,%d) out of chunk range", x, y, z))
	}
	return y*ChunkSize*ChunkSize + z*ChunkSize + x
}

// GetBlock возвращает ID блока по локальным координатам
func (c *Chunk) GetBlock(x, y, z int) block.BlockID {
	return c.blocks[index(x, y, z)]
}

// SetBlock устанавливает блок по локальным координатам и помечает чанк грязным.
// Запись на граничную плоскость помечает и соседа с той стороны.
func (c *Chunk) SetBlock(x, y, z int, id block.BlockID) {
	c.blocks[index(x, y, z)] = id
	c.dirty = true

	if x == 0 {
		c.dirtyNeighbours[vec.NegX] = struct{}{}
	} else if x == ChunkSize-1 {
		c.dirtyNeighbours[vec.PosX] = struct{}{}
	}

	if y == 0 {
		c.dirtyNeighbours[vec.NegY] = struct{}{}
	} else if y == ChunkSize-1 {
		c.dirtyNeighbours[vec.PosY] = struct{}{}
	}

	if z == 0 {
		c.dirtyNeighbours[vec.NegZ] = struct{}{}
	} else if z == ChunkSize-1 {
		c.dirtyNeighbours[vec.PosZ] = struct{}{}
	}
}

// Dirty возвращает true, если меш чанка устарел
func (c *Chunk) Dirty() bool {
	return c.dirty
}

// MarkDirty принудительно помечает меш чанка устаревшим
func (c *Chunk) MarkDirty() {
	c.dirty = true
}

// DirtyNeighbours возвращает отсортированную копию направлений грязных соседей
func (c *Chunk) DirtyNeighbours() []vec.Vec3 {
	dirs := make([]vec.Vec3, 0, len(c.dirtyNeighbours))
	for d := range c.dirtyNeighbours {
		dirs = append(dirs, d)
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Less(dirs[j]) })
	return dirs
}

// HasDirtyNeighbour проверяет наличие направления в множестве грязных соседей
func (c *Chunk) HasDirtyNeighbour(d vec.Vec3) bool {
	_, ok := c.dirtyNeighbours[d]
	return ok
}

// NeedsRebuild сообщает, затрагивает ли чанк следующий проход перестройки мешей
func (c *Chunk) NeedsRebuild() bool {
	return c.dirty || len(c.dirtyNeighbours) > 0
}

// ClearDirty сбрасывает флаг и множество грязных соседей
func (c *Chunk) ClearDirty() {
	c.dirty = false
	for d := range c.dirtyNeighbours {
		delete(c.dirtyNeighbours, d)
	}
}

// Mesh возвращает буфер вершин чанка
func (c *Chunk) Mesh() *MeshBuffer {
	return c.mesh
}

// VertexCount возвращает количество валидных вершин в буфере
func (c *Chunk) VertexCount() int {
	return c.vertexCount
}

// UploadMesh заменяет содержимое буфера и запоминает число вершин
func (c *Chunk) UploadMesh(vertices []float32, vertexCount int) {
	c.mesh.Upload(vertices)
	c.vertexCount = vertexCount
}

// CountSolid возвращает количество не-воздушных блоков
func (c *Chunk) CountSolid() int {
	n := 0
	for _, id := range c.blocks {
		if !id.IsAir() {
			n++
		}
	}
	return n
}
