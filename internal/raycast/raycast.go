// Package raycast реализует обход целочисленной сетки лучом (Amanatides-Woo).
// Пакет не знает о мире: занятость ячейки задаёт функция VoxelFunc.
package raycast

import (
	"errors"
	"fmt"
	"math"

	"github.com/annel0/voxelcore/internal/vec"
	"github.com/go-gl/mathgl/mgl32"
)

// Допуск на длину направления
const unitTolerance = 1e-4

// ErrDirectionNotNormalized передаётся в panic при ненормализованном направлении луча
var ErrDirectionNotNormalized = errors.New("raycast: direction is not normalized")

// VoxelFunc возвращает содержимое ячейки и true, если луч в ней останавливается
type VoxelFunc[T any] func(x, y, z int) (T, bool)

// Hit описывает попадание луча
type Hit[T any] struct {
	Value    T        // Что вернула VoxelFunc
	Position vec.Vec3 // Ячейка попадания
	Normal   vec.Vec3 // Нормаль грани входа; нулевая, если луч начался внутри ячейки
	Distance float32  // Расстояние от начала луча до грани входа
}

// Cast ведёт луч из origin вдоль нормализованного dir не дальше distance.
// При равенстве расстояний до границ шаг делается по оси с приоритетом x, затем z, затем y.
// Ненормализованное направление - ошибка вызывающего, вызывается паника.
func Cast[T any](getVoxel VoxelFunc[T], origin, dir mgl32.Vec3, distance float32) (Hit[T], bool) {
	if l := dir.Len(); math.Abs(float64(l)-1) > unitTolerance {
		panic(fmt.Errorf("%w: %v (length %f)", ErrDirectionNotNormalized, dir, l))
	}

	cell := [3]int{}
	var step [3]int
	var tDelta, tMax [3]float32

	for i := 0; i < 3; i++ {
		o := origin[i]
		d := dir[i]
		cell[i] = int(math.Floor(float64(o)))

		switch {
		case d > 0:
			step[i] = 1
			tDelta[i] = 1 / d
			tMax[i] = (float32(cell[i]+1) - o) / d
		case d < 0:
			step[i] = -1
			tDelta[i] = -1 / d
			tMax[i] = (o - float32(cell[i])) / -d
		default:
			// Ось не пересекается никогда
			tDelta[i] = float32(math.Inf(1))
			tMax[i] = float32(math.Inf(1))
		}
	}

	var t float32
	var normal vec.Vec3

	for t <= distance {
		if v, ok := getVoxel(cell[0], cell[1], cell[2]); ok {
			return Hit[T]{
				Value:    v,
				Position: vec.Vec3{X: cell[0], Y: cell[1], Z: cell[2]},
				Normal:   normal,
				Distance: t,
			}, true
		}

		axis := nextAxis(tMax)
		t = tMax[axis]
		cell[axis] += step[axis]
		tMax[axis] += tDelta[axis]

		normal = vec.Vec3{}
		switch axis {
		case 0:
			normal.X = -step[0]
		case 1:
			normal.Y = -step[1]
		default:
			normal.Z = -step[2]
		}
	}

	return Hit[T]{}, false
}

// nextAxis выбирает ось ближайшей границы: x, если не дальше остальных, иначе z, иначе y
func nextAxis(tMax [3]float32) int {
	if tMax[0] <= tMax[1] && tMax[0] <= tMax[2] {
		return 0
	}
	if tMax[2] <= tMax[1] {
		return 2
	}
	return 1
}
