package engine

import (
	"github.com/annel0/voxelcore/internal/vec"
	"github.com/annel0/voxelcore/internal/world"
	"github.com/go-gl/mathgl/mgl32"
)

// DrawCall содержит всё, что нужно рендеру для отрисовки одного чанка
type DrawCall struct {
	Coord       vec.Vec3   `json:"coord"`
	Handle      string     `json:"handle"`
	VertexCount int        `json:"vertex_count"`
	Model       mgl32.Mat4 `json:"model"`
	Vertices    []float32  `json:"-"`
}

// ChunkModel матрица модели чанка: перенос на coord*ChunkSize
func ChunkModel(coord vec.Vec3) mgl32.Mat4 {
	origin := coord.Scale(world.ChunkSize)
	return mgl32.Translate3D(float32(origin.X), float32(origin.Y), float32(origin.Z))
}

// DrawList возвращает копии буферов всех чанков с видимыми вершинами.
// Пустые чанки пропускаются.
func (s *State) DrawList() []DrawCall {
	var calls []DrawCall
	for _, coord := range s.e.world.Coords() {
		c, _ := s.e.world.Chunk(coord)
		if c.VertexCount() == 0 {
			continue
		}
		calls = append(calls, DrawCall{
			Coord:       coord,
			Handle:      c.Mesh().Handle.String(),
			VertexCount: c.VertexCount(),
			Model:       ChunkModel(coord),
			Vertices:    c.Mesh().Snapshot(),
		})
	}
	return calls
}

// ChunkMesh возвращает копию меша одного чанка
func (s *State) ChunkMesh(coord vec.Vec3) (DrawCall, bool) {
	c, ok := s.e.world.Chunk(coord)
	if !ok {
		return DrawCall{}, false
	}
	return DrawCall{
		Coord:       coord,
		Handle:      c.Mesh().Handle.String(),
		VertexCount: c.VertexCount(),
		Model:       ChunkModel(coord),
		Vertices:    c.Mesh().Snapshot(),
	}, true
}
