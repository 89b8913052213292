package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Параметры тела игрока
const (
	PlayerWidth       = 0.6  // Ширина коробки
	PlayerHeight      = 1.8  // Высота коробки
	PlayerEyesHeight  = 1.6  // Высота глаз над ступнями
	Gravity           = -32  // Ускорение свободного падения
	MaxFallSpeed      = 90   // Ограничение вертикальной скорости
	JumpVelocity      = 10   // Начальная скорость прыжка
	MoveAcceleration  = 6    // Ускорение от ввода
	HorizontalDamping = 0.96 // Затухание горизонтальной скорости за шаг
)

// Body описывает тело игрока: коробка, скорость и накопленное за шаг ускорение
type Body struct {
	Box          AABB       `json:"box"`
	Velocity     mgl32.Vec3 `json:"velocity"`
	Acceleration mgl32.Vec3 `json:"acceleration"`
	OnGround     bool       `json:"on_ground"`
}

// NewPlayerBody ставит игрока ступнями в точку feet
func NewPlayerBody(feet mgl32.Vec3) *Body {
	return &Body{Box: BoxAt(feet, PlayerWidth, PlayerHeight)}
}

// Position возвращает точку ступней (центр нижней грани)
func (b *Body) Position() mgl32.Vec3 {
	size := b.Box.Size()
	return mgl32.Vec3{
		b.Box.Min.X() + size.X()/2,
		b.Box.Min.Y(),
		b.Box.Min.Z() + size.Z()/2,
	}
}

// CameraPosition возвращает положение глаз
func (b *Body) CameraPosition() mgl32.Vec3 {
	return b.Position().Add(mgl32.Vec3{0, PlayerEyesHeight, 0})
}

// Teleport переносит тело, сохраняя размеры и сбрасывая скорость
func (b *Body) Teleport(feet mgl32.Vec3) {
	size := b.Box.Size()
	b.Box = BoxAt(feet, size.X(), size.Y())
	b.Velocity = mgl32.Vec3{}
	b.Acceleration = mgl32.Vec3{}
	b.OnGround = false
}

// Move добавляет ускорение от ввода: forward и strafe в диапазоне [-1, 1], yaw в радианах
func (b *Body) Move(forward, strafe, yaw float32) {
	f := Forward(yaw, 0)
	right := f.Cross(mgl32.Vec3{0, 1, 0})
	b.Acceleration = b.Acceleration.
		Add(f.Mul(forward * MoveAcceleration)).
		Add(right.Mul(strafe * MoveAcceleration))
}

// Jump придаёт вертикальную скорость, если тело стоит на земле
func (b *Body) Jump() bool {
	if !b.OnGround {
		return false
	}
	b.Velocity[1] = JumpVelocity
	b.OnGround = false
	return true
}

// Step продвигает тело на dt секунд сквозь мир src
func (b *Body) Step(dt float32, src BlockSource) {
	b.Acceleration[1] = Gravity
	b.Velocity = b.Velocity.Add(b.Acceleration.Mul(dt))
	b.Velocity[1] = mgl32.Clamp(b.Velocity[1], -MaxFallSpeed, MaxFallSpeed)

	falling := b.Velocity.Y() < 0
	b.Box, b.Velocity = Sweep(b.Box, b.Velocity, dt, src)
	b.OnGround = falling && b.Velocity.Y() == 0

	b.Velocity[0] *= HorizontalDamping
	b.Velocity[2] *= HorizontalDamping
	b.Acceleration = mgl32.Vec3{}
}

// Forward возвращает единичный вектор взгляда. При yaw = 0 и pitch = 0 взгляд направлен вдоль +x.
func Forward(yaw, pitch float32) mgl32.Vec3 {
	cy, sy := math.Cos(float64(yaw)), math.Sin(float64(yaw))
	cp, sp := math.Cos(float64(pitch)), math.Sin(float64(pitch))
	return mgl32.Vec3{float32(cp * cy), float32(sp), float32(cp * sy)}.Normalize()
}
