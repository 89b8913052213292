package engine

import (
	"github.com/annel0/voxelcore/internal/mesh"
	"github.com/annel0/voxelcore/internal/physics"
	"github.com/annel0/voxelcore/internal/vec"
	"github.com/annel0/voxelcore/internal/world"
	"github.com/annel0/voxelcore/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
)

// PlayerInput удерживаемый ввод игрока; Jump срабатывает один раз
type PlayerInput struct {
	Forward float32 `json:"forward"` // -1..1
	Strafe  float32 `json:"strafe"`  // -1..1, положительное вправо
	Yaw     float32 `json:"yaw"`     // Радианы, 0 смотрит вдоль +x
	Pitch   float32 `json:"pitch"`   // Радианы
	Jump    bool    `json:"jump"`
}

// PlayerState снимок состояния игрока
type PlayerState struct {
	Position mgl32.Vec3   `json:"position"`
	Camera   mgl32.Vec3   `json:"camera"`
	Look     mgl32.Vec3   `json:"look"`
	Velocity mgl32.Vec3   `json:"velocity"`
	OnGround bool         `json:"on_ground"`
	Box      physics.AABB `json:"box"`
}

// ChunkInfo краткое описание загруженного чанка
type ChunkInfo struct {
	Coord       vec.Vec3 `json:"coord"`
	Solid       int      `json:"solid"`
	VertexCount int      `json:"vertex_count"`
	Handle      string   `json:"handle"`
	Dirty       bool     `json:"dirty"`
}

// State даёт доступ к состоянию движка внутри Do. Ссылки нельзя сохранять после выхода из fn.
type State struct {
	e *Engine
}

// World возвращает мир
func (s *State) World() *world.World {
	return s.e.world
}

// Player возвращает тело игрока
func (s *State) Player() *physics.Body {
	return s.e.player
}

// Ticks возвращает число выполненных тиков
func (s *State) Ticks() uint64 {
	return s.e.ticks
}

// LastRebuild итог последнего непустого прохода перестройки
func (s *State) LastRebuild() mesh.Stats {
	return s.e.lastRebuild
}

// Policy текущая политика незагруженных соседей
func (s *State) Policy() mesh.UnloadedPolicy {
	return s.e.rebuilder.Policy()
}

// SetInput заменяет удерживаемый ввод игрока
func (s *State) SetInput(in PlayerInput) {
	s.e.input = in
}

// Input возвращает текущий ввод
func (s *State) Input() PlayerInput {
	return s.e.input
}

// PlayerState возвращает копию состояния игрока
func (s *State) PlayerState() PlayerState {
	p := s.e.player
	return PlayerState{
		Position: p.Position(),
		Camera:   p.CameraPosition(),
		Look:     physics.Forward(s.e.input.Yaw, s.e.input.Pitch),
		Velocity: p.Velocity,
		OnGround: p.OnGround,
		Box:      p.Box,
	}
}

// GetBlock читает блок по мировым координатам
func (s *State) GetBlock(pos vec.Vec3) (block.BlockID, bool) {
	return s.e.world.GetBlockAt(pos)
}

// SetBlock пишет блок по мировым координатам; false, если чанк не загружен
func (s *State) SetBlock(pos vec.Vec3, id block.BlockID) (bool, error) {
	if !block.IsValidBlockID(id) {
		return false, ErrInvalidBlock
	}
	return s.e.world.SetBlockAt(pos, id), nil
}

// Chunks возвращает описание загруженных чанков в детерминированном порядке
func (s *State) Chunks() []ChunkInfo {
	coords := s.e.world.Coords()
	out := make([]ChunkInfo, 0, len(coords))
	for _, coord := range coords {
		c, _ := s.e.world.Chunk(coord)
		out = append(out, ChunkInfo{
			Coord:       coord,
			Solid:       c.CountSolid(),
			VertexCount: c.VertexCount(),
			Handle:      c.Mesh().Handle.String(),
			Dirty:       c.NeedsRebuild(),
		})
	}
	return out
}
