package mesh

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestAppendFace_WindingFacesOutward(t *testing.T) {
	for f := Face(0); f < FaceCount; f++ {
		buf := appendFace(nil, f, 0, 0, 0, UVRect{})
		assert.Len(t, buf, VerticesPerFace*5)

		vertex := func(i int) mgl32.Vec3 {
			return mgl32.Vec3{buf[i*5], buf[i*5+1], buf[i*5+2]}
		}

		for tri := 0; tri < 2; tri++ {
			a, b, c := vertex(tri*3), vertex(tri*3+1), vertex(tri*3+2)
			normal := b.Sub(a).Cross(c.Sub(a)).Normalize()
			assert.True(t, normal.ApproxEqual(f.Normal().ToFloat()), "Грань %s, треугольник %d: нормаль %v", f, tri, normal)
		}
	}
}

func TestAppendFace_UVAndOffset(t *testing.T) {
	uv := UVRect{U0: 0.25, V0: 0.5, U1: 0.375, V1: 0.625}
	buf := appendFace(nil, FaceFront, 2, 3, 4, uv)

	assert.Equal(t, []float32{2, 3, 5, 0.25, 0.5}, buf[0:5])
	assert.Equal(t, []float32{3, 3, 5, 0.375, 0.5}, buf[5:10])
	assert.Equal(t, []float32{3, 4, 5, 0.375, 0.625}, buf[10:15])
	assert.Equal(t, []float32{2, 4, 5, 0.25, 0.625}, buf[20:25])
	assert.Equal(t, buf[0:5], buf[25:30], "Последняя вершина замыкает квадрат")
}
