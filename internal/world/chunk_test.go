package world

import (
	"math/rand"
	"testing"

	"github.com/annel0/voxelcore/internal/vec"
	"github.com/annel0/voxelcore/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkCreateAndGetBlock(t *testing.T) {
	chunk := NewEmptyChunk()

	// Проверяем, что блоки инициализированы как воздух
	assert.Equal(t, block.AirBlockID, chunk.GetBlock(3, 4, 5))
	assert.False(t, chunk.Dirty(), "Пустой чанк не должен быть грязным")
	assert.Len(t, chunk.DirtyNeighbours(), 6, "Новый чанк должен пометить всех соседей")

	// Устанавливаем и проверяем блок
	chunk.SetBlock(3, 4, 5, block.CobblestoneBlockID)
	assert.Equal(t, block.CobblestoneBlockID, chunk.GetBlock(3, 4, 5))
	assert.True(t, chunk.Dirty())
}

func TestChunkFilledAndRandom(t *testing.T) {
	full := NewFilledChunk(block.ObsidianBlockID)
	assert.True(t, full.Dirty())
	assert.Equal(t, ChunkVolume, full.CountSolid())
	assert.Equal(t, block.ObsidianBlockID, full.GetBlock(15, 15, 15))

	random := NewRandomChunk(rand.New(rand.NewSource(1)))
	assert.True(t, random.Dirty())
	assert.Equal(t, ChunkVolume, random.CountSolid(), "Случайный чанк не содержит воздуха")
}

func TestChunkIndexLayout(t *testing.T) {
	// y-major: y*S*S + z*S + x
	assert.Equal(t, 0, index(0, 0, 0))
	assert.Equal(t, 1, index(1, 0, 0))
	assert.Equal(t, ChunkSize, index(0, 0, 1))
	assert.Equal(t, ChunkSize*ChunkSize, index(0, 1, 0))
	assert.Equal(t, ChunkVolume-1, index(15, 15, 15))

	seen := make(map[int]bool, ChunkVolume)
	for y := 0; y < ChunkSize; y++ {
		for z := 0; z < ChunkSize; z++ {
			for x := 0; x < ChunkSize; x++ {
				i := index(x, y, z)
				require.False(t, seen[i], "Индекс %d повторяется", i)
				seen[i] = true
			}
		}
	}
	assert.Len(t, seen, ChunkVolume)
}

func TestChunkOutOfRangePanics(t *testing.T) {
	chunk := NewEmptyChunk()
	assert.Panics(t, func() { chunk.GetBlock(16, 0, 0) })
	assert.Panics(t, func() { chunk.GetBlock(0, -1, 0) })
	assert.Panics(t, func() { chunk.SetBlock(0, 0, 16, block.DirtBlockID) })
}

func TestChunkBoundaryDirtyNeighbours(t *testing.T) {
	cases := []struct {
		name    string
		x, y, z int
		want    []vec.Vec3
	}{
		{"min x", 0, 5, 5, []vec.Vec3{vec.NegX}},
		{"max x", 15, 5, 5, []vec.Vec3{vec.PosX}},
		{"min y", 5, 0, 5, []vec.Vec3{vec.NegY}},
		{"max y", 5, 15, 5, []vec.Vec3{vec.PosY}},
		{"min z", 5, 5, 0, []vec.Vec3{vec.NegZ}},
		{"max z", 5, 5, 15, []vec.Vec3{vec.PosZ}},
		{"corner", 0, 15, 0, []vec.Vec3{vec.NegX, vec.NegZ, vec.PosY}},
		{"inside", 5, 5, 5, []vec.Vec3{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chunk := NewEmptyChunk()
			chunk.ClearDirty()

			chunk.SetBlock(tc.x, tc.y, tc.z, block.DirtBlockID)

			assert.True(t, chunk.Dirty())
			assert.ElementsMatch(t, tc.want, chunk.DirtyNeighbours())
		})
	}
}

func TestChunkClearDirty(t *testing.T) {
	chunk := NewFilledChunk(block.DirtBlockID)
	chunk.ClearDirty()

	assert.False(t, chunk.Dirty())
	assert.Empty(t, chunk.DirtyNeighbours())
	assert.False(t, chunk.HasDirtyNeighbour(vec.PosX))
}

func TestChunkUploadMesh(t *testing.T) {
	chunk := NewEmptyChunk()
	handle := chunk.Mesh().Handle

	chunk.UploadMesh([]float32{1, 2, 3, 4, 5}, 1)
	assert.Equal(t, 1, chunk.VertexCount())
	assert.Equal(t, []float32{1, 2, 3, 4, 5}, chunk.Mesh().Data())
	assert.Equal(t, handle, chunk.Mesh().Handle, "Дескриптор буфера не меняется при загрузке")

	chunk.UploadMesh(nil, 0)
	assert.Equal(t, 0, chunk.VertexCount())
	assert.Equal(t, 0, chunk.Mesh().Len())
}
