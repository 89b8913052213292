package world

import "github.com/google/uuid"

// FloatsPerVertex число float32 в одной вершине: позиция (x, y, z) и текстура (u, v)
const FloatsPerVertex = 5

// MeshBuffer это непрозрачный дескриптор буфера вершин чанка.
// Рендер сопоставляет Handle со своим GPU-буфером; перестройщик меша единственный, кто пишет.
type MeshBuffer struct {
	Handle uuid.UUID
	data   []float32
}

// NewMeshBuffer создаёт пустой буфер с новым дескриптором
func NewMeshBuffer() *MeshBuffer {
	return &MeshBuffer{Handle: uuid.New()}
}

// Upload заменяет содержимое буфера, подгоняя размер точно под данные
func (b *MeshBuffer) Upload(vertices []float32) {
	if cap(b.data) >= len(vertices) && cap(b.data) <= 2*len(vertices) {
		b.data = b.data[:len(vertices)]
	} else {
		b.data = make([]float32, len(vertices))
	}
	copy(b.data, vertices)
}

// Data возвращает содержимое буфера только для чтения
func (b *MeshBuffer) Data() []float32 {
	return b.data
}

// Snapshot возвращает копию содержимого для потребителей вне владельца мира
func (b *MeshBuffer) Snapshot() []float32 {
	out := make([]float32, len(b.data))
	copy(out, b.data)
	return out
}

// Len возвращает количество float32 в буфере
func (b *MeshBuffer) Len() int {
	return len(b.data)
}
