package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/annel0/voxelcore/internal/physics"
	"github.com/annel0/voxelcore/internal/raycast"
	"github.com/annel0/voxelcore/internal/vec"
	"github.com/annel0/voxelcore/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
)

// ReachDistance дальность луча взаимодействия и верхняя граница дальности любого луча
const ReachDistance = 400

// MaxRayCoordinate ограничивает модуль координат начала луча: выше float32 теряет целые
const MaxRayCoordinate = 1 << 24

// Допуск на длину направления после нормализации
const unitTolerance = 1e-4

// DefaultPlaceBlock блок, который ставится, если вид не указан
const DefaultPlaceBlock = block.Debug2BlockID

var (
	// ErrInvalidBlock неизвестный или не размещаемый блок
	ErrInvalidBlock = errors.New("engine: invalid block")
	// ErrInvalidAction неизвестное действие
	ErrInvalidAction = errors.New("engine: invalid action")
	// ErrZeroDirection нулевое направление луча
	ErrZeroDirection = errors.New("engine: zero direction")
	// ErrInvalidDirection направление луча нельзя нормализовать
	ErrInvalidDirection = errors.New("engine: invalid direction")
	// ErrInvalidOrigin начало луча не конечно или слишком далеко
	ErrInvalidOrigin = errors.New("engine: invalid origin")
)

// Action действие игрока над блоком
type Action string

const (
	ActionBreak Action = "break"
	ActionPlace Action = "place"
)

// BlockHit результат луча по миру
type BlockHit struct {
	Block    block.BlockID `json:"block"`
	Position vec.Vec3      `json:"position"`
	Normal   vec.Vec3      `json:"normal"`
	Distance float32       `json:"distance"`
}

// InteractResult результат взаимодействия
type InteractResult struct {
	Hit     bool     `json:"hit"`
	Target  BlockHit `json:"target"`
	Changed bool     `json:"changed"`
	Affects vec.Vec3 `json:"affects"` // Изменённая (или отклонённая) ячейка
}

// solidVoxel определяет занятость ячейки для луча: незагруженное и воздух пропускаются
func (s *State) solidVoxel(x, y, z int) (block.BlockID, bool) {
	id, ok := s.e.world.GetBlock(x, y, z)
	return id, ok && !id.IsAir()
}

// Raycast ищет первый не-воздушный блок вдоль dir (нормализуется) не дальше distance.
// Дальность ограничена ReachDistance.
func (s *State) Raycast(origin, dir mgl32.Vec3, distance float32) (BlockHit, bool, error) {
	if err := checkOrigin(origin); err != nil {
		return BlockHit{}, false, err
	}
	unit, err := normalizeDirection(dir)
	if err != nil {
		return BlockHit{}, false, err
	}
	if math.IsNaN(float64(distance)) || distance > ReachDistance {
		distance = ReachDistance
	}

	hit, ok := raycast.Cast(s.solidVoxel, origin, unit, distance)
	if !ok {
		return BlockHit{}, false, nil
	}
	return BlockHit{
		Block:    hit.Value,
		Position: hit.Position,
		Normal:   hit.Normal,
		Distance: hit.Distance,
	}, true, nil
}

func checkOrigin(origin mgl32.Vec3) error {
	for _, c := range origin {
		f := float64(c)
		if math.IsNaN(f) || math.Abs(f) > MaxRayCoordinate {
			return fmt.Errorf("%w: %v", ErrInvalidOrigin, origin)
		}
	}
	return nil
}

// normalizeDirection нормализует в float64, чтобы квадрат длины не переполнялся и не терял точность
func normalizeDirection(dir mgl32.Vec3) (mgl32.Vec3, error) {
	x, y, z := float64(dir[0]), float64(dir[1]), float64(dir[2])
	l := math.Sqrt(x*x + y*y + z*z)
	if l == 0 {
		return mgl32.Vec3{}, ErrZeroDirection
	}
	if math.IsNaN(l) || math.IsInf(l, 0) {
		return mgl32.Vec3{}, fmt.Errorf("%w: %v", ErrInvalidDirection, dir)
	}

	unit := mgl32.Vec3{float32(x / l), float32(y / l), float32(z / l)}
	if math.Abs(float64(unit.Len())-1) > unitTolerance {
		return mgl32.Vec3{}, fmt.Errorf("%w: %v", ErrInvalidDirection, dir)
	}
	return unit, nil
}

// Interact ломает блок, в который смотрит луч, или ставит блок place перед ним
func (s *State) Interact(origin, dir mgl32.Vec3, action Action, place block.BlockID) (InteractResult, error) {
	if action != ActionBreak && action != ActionPlace {
		return InteractResult{}, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	if action == ActionPlace && (place.IsAir() || !block.IsValidBlockID(place)) {
		return InteractResult{}, fmt.Errorf("%w: %s", ErrInvalidBlock, place)
	}

	hit, ok, err := s.Raycast(origin, dir, ReachDistance)
	if err != nil {
		return InteractResult{}, err
	}

	res := InteractResult{Hit: ok, Target: hit}
	if ok {
		switch action {
		case ActionBreak:
			res.Affects = hit.Position
			res.Changed = s.e.world.SetBlockAt(hit.Position, block.AirBlockID)
		case ActionPlace:
			res.Affects = hit.Position.Add(hit.Normal)
			res.Changed = s.canPlace(hit) && s.e.world.SetBlockAt(res.Affects, place)
		}
	}

	s.e.metrics.observeInteraction(action, res.Changed)
	return res, nil
}

// canPlace запрещает ставить блок внутрь начальной ячейки луча и внутрь игрока
func (s *State) canPlace(hit BlockHit) bool {
	if hit.Normal.IsZero() {
		return false
	}
	target := hit.Position.Add(hit.Normal)
	return !s.e.player.Box.Intersects(physics.BlockAABB(target.X, target.Y, target.Z))
}

// InteractFromCamera выполняет Interact из глаз игрока по направлению его взгляда
func (s *State) InteractFromCamera(action Action, place block.BlockID) (InteractResult, error) {
	origin := s.e.player.CameraPosition()
	dir := physics.Forward(s.e.input.Yaw, s.e.input.Pitch)
	return s.Interact(origin, dir, action, place)
}
