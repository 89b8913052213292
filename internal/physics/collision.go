package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// BlockSource сообщает, занята ли ячейка твёрдым блоком.
// Незагруженное пространство должно считаться не твёрдым.
type BlockSource interface {
	IsSolid(x, y, z int) bool
}

// BlockSourceFunc позволяет использовать функцию как BlockSource
type BlockSourceFunc func(x, y, z int) bool

// IsSolid вызывает f(x, y, z)
func (f BlockSourceFunc) IsSolid(x, y, z int) bool {
	return f(x, y, z)
}

// Оси для SweepAxis
const (
	AxisX = 0
	AxisY = 1
	AxisZ = 2
)

// AABB это выровненный по осям параллелепипед
type AABB struct {
	Min mgl32.Vec3 `json:"min"`
	Max mgl32.Vec3 `json:"max"`
}

// NewAABB создаёт AABB по двум углам
func NewAABB(min, max mgl32.Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// BoxAt строит коробку шириной width и высотой height, стоящую основанием в точке feet
func BoxAt(feet mgl32.Vec3, width, height float32) AABB {
	half := width / 2
	return AABB{
		Min: mgl32.Vec3{feet.X() - half, feet.Y(), feet.Z() - half},
		Max: mgl32.Vec3{feet.X() + half, feet.Y() + height, feet.Z() + half},
	}
}

// BlockAABB возвращает единичный куб блока (x, y, z)
func BlockAABB(x, y, z int) AABB {
	min := mgl32.Vec3{float32(x), float32(y), float32(z)}
	return AABB{Min: min, Max: min.Add(mgl32.Vec3{1, 1, 1})}
}

// Size возвращает размеры коробки
func (b AABB) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Translate сдвигает коробку на d
func (b AABB) Translate(d mgl32.Vec3) AABB {
	return AABB{Min: b.Min.Add(d), Max: b.Max.Add(d)}
}

// Intersects проверяет строгое пересечение: касание гранями пересечением не считается
func (b AABB) Intersects(o AABB) bool {
	return b.Min.X() < o.Max.X() && b.Max.X() > o.Min.X() &&
		b.Min.Y() < o.Max.Y() && b.Max.Y() > o.Min.Y() &&
		b.Min.Z() < o.Max.Z() && b.Max.Z() > o.Min.Z()
}

func floorInt(v float32) int {
	return int(math.Floor(float64(v)))
}

// SweepAxis сдвигает коробку на delta вдоль оси axis целиком, затем ищет твёрдые блоки,
// пересекающие сдвинутую коробку. Если такие есть, ведущая грань прижимается к ближайшему из них.
// Возвращает итоговую коробку и признак столкновения.
func SweepAxis(box AABB, axis int, delta float32, src BlockSource) (AABB, bool) {
	if delta == 0 {
		return box, false
	}

	var shift mgl32.Vec3
	shift[axis] = delta
	moved := box.Translate(shift)

	lo := [3]int{floorInt(moved.Min[0]), floorInt(moved.Min[1]), floorInt(moved.Min[2])}
	hi := [3]int{floorInt(moved.Max[0]), floorInt(moved.Max[1]), floorInt(moved.Max[2])}

	found := false
	contact := 0 // координата ближайшего блока вдоль axis

	for y := lo[1]; y <= hi[1]; y++ {
		for z := lo[2]; z <= hi[2]; z++ {
			for x := lo[0]; x <= hi[0]; x++ {
				if !src.IsSolid(x, y, z) {
					continue
				}
				if !moved.Intersects(BlockAABB(x, y, z)) {
					continue
				}

				c := [3]int{x, y, z}[axis]
				if !found || (delta > 0 && c < contact) || (delta < 0 && c > contact) {
					contact = c
					found = true
				}
			}
		}
	}

	if !found {
		return moved, false
	}

	size := box.Size()[axis]
	if delta > 0 {
		moved.Max[axis] = float32(contact)
		moved.Min[axis] = float32(contact) - size
	} else {
		moved.Min[axis] = float32(contact + 1)
		moved.Max[axis] = float32(contact+1) + size
	}
	return moved, true
}

// Sweep перемещает коробку на velocity*dt по осям x, y, z по очереди.
// Компонента скорости по оси со столкновением обнуляется.
func Sweep(box AABB, velocity mgl32.Vec3, dt float32, src BlockSource) (AABB, mgl32.Vec3) {
	for _, axis := range [3]int{AxisX, AxisY, AxisZ} {
		var hit bool
		box, hit = SweepAxis(box, axis, velocity[axis]*dt, src)
		if hit {
			velocity[axis] = 0
		}
	}
	return box, velocity
}
