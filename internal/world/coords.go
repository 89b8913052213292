package world

import "github.com/annel0/voxelcore/internal/vec"

// floorDiv делит с округлением вниз (b > 0)
func floorDiv(a, b int) int {
	q := a / b
	if a%b < 0 {
		q--
	}
	return q
}

// mod возвращает евклидов остаток в диапазоне [0, b) (b > 0)
func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// SplitCoords раскладывает мировые координаты на координаты чанка и локальные внутри него.
// Для любых целых: chunk*ChunkSize + local == world и 0 <= local < ChunkSize.
func SplitCoords(x, y, z int) (chunk vec.Vec3, local vec.Vec3) {
	chunk = vec.Vec3{
		X: floorDiv(x, ChunkSize),
		Y: floorDiv(y, ChunkSize),
		Z: floorDiv(z, ChunkSize),
	}
	local = vec.Vec3{
		X: mod(x, ChunkSize),
		Y: mod(y, ChunkSize),
		Z: mod(z, ChunkSize),
	}
	return chunk, local
}

// ToWorldCoords собирает мировые координаты из координат чанка и локальных
func ToWorldCoords(chunk, local vec.Vec3) vec.Vec3 {
	return chunk.Scale(ChunkSize).Add(local)
}

// ChunkOf возвращает координаты чанка, содержащего мировую позицию
func ChunkOf(pos vec.Vec3) vec.Vec3 {
	chunk, _ := SplitCoords(pos.X, pos.Y, pos.Z)
	return chunk
}
