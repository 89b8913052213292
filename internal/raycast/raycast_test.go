package raycast

import (
	"testing"

	"github.com/annel0/voxelcore/internal/vec"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// grid хранит набор занятых ячеек для тестов
type grid map[vec.Vec3]string

func (g grid) voxel(x, y, z int) (string, bool) {
	v, ok := g[vec.Vec3{X: x, Y: y, Z: z}]
	return v, ok
}

func TestCast_ExactHit(t *testing.T) {
	g := grid{{X: 0, Y: 0, Z: 0}: "stone"}

	hit, ok := Cast(g.voxel, mgl32.Vec3{0.5, 0.5, -2}, mgl32.Vec3{0, 0, 1}, 10)
	require.True(t, ok, "Луч должен попасть в блок")
	assert.Equal(t, "stone", hit.Value)
	assert.Equal(t, vec.Vec3{}, hit.Position)
	assert.Equal(t, vec.Vec3{Z: -1}, hit.Normal)
	assert.InDelta(t, 2.0, hit.Distance, 1e-6)
}

func TestCast_MissWhenTooShort(t *testing.T) {
	g := grid{{X: 0, Y: 0, Z: 0}: "stone"}

	_, ok := Cast(g.voxel, mgl32.Vec3{0.5, 0.5, -2}, mgl32.Vec3{0, 0, 1}, 1)
	assert.False(t, ok, "Луч длиной 1 не достаёт до блока")
}

func TestCast_MissInEmptyGrid(t *testing.T) {
	_, ok := Cast(grid{}.voxel, mgl32.Vec3{0.5, 0.5, 0.5}, mgl32.Vec3{1, 0, 0}, 50)
	assert.False(t, ok)
}

func TestCast_OriginCellHit(t *testing.T) {
	g := grid{{X: 2, Y: -1, Z: 3}: "inside"}

	hit, ok := Cast(g.voxel, mgl32.Vec3{2.2, -0.3, 3.9}, mgl32.Vec3{0, 1, 0}, 5)
	require.True(t, ok)
	assert.Equal(t, vec.Vec3{}, hit.Normal, "Внутри начальной ячейки нормали нет")
	assert.Equal(t, float32(0), hit.Distance)
}

func TestCast_ZeroComponents(t *testing.T) {
	cases := []struct {
		name   string
		origin mgl32.Vec3
		dir    mgl32.Vec3
		block  vec.Vec3
		normal vec.Vec3
		dist   float32
	}{
		{"+x", mgl32.Vec3{0.5, 0.5, 0.5}, mgl32.Vec3{1, 0, 0}, vec.Vec3{X: 5}, vec.Vec3{X: -1}, 4.5},
		{"-y", mgl32.Vec3{0.5, 0.5, 0.5}, mgl32.Vec3{0, -1, 0}, vec.Vec3{Y: -3}, vec.Vec3{Y: 1}, 2.5},
		{"-z negative origin", mgl32.Vec3{-0.5, 0.5, -0.25}, mgl32.Vec3{0, 0, -1}, vec.Vec3{X: -1, Z: -4}, vec.Vec3{Z: 1}, 2.75},
		{"-x", mgl32.Vec3{-7.5, 1.5, 0.5}, mgl32.Vec3{-1, 0, 0}, vec.Vec3{X: -10, Y: 1}, vec.Vec3{X: 1}, 1.5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := grid{tc.block: "b"}
			hit, ok := Cast(g.voxel, tc.origin, tc.dir, 20)
			require.True(t, ok)
			assert.Equal(t, tc.block, hit.Position)
			assert.Equal(t, tc.normal, hit.Normal)
			assert.InDelta(t, tc.dist, hit.Distance, 1e-5)
		})
	}
}

func TestCast_TieBreakOrder(t *testing.T) {
	origin := mgl32.Vec3{0.5, 0.5, 0.5}

	// x раньше y
	g := grid{{X: 1}: "x", {Y: 1}: "y"}
	hit, ok := Cast(g.voxel, origin, mgl32.Vec3{1, 1, 0}.Normalize(), 10)
	require.True(t, ok)
	assert.Equal(t, "x", hit.Value)
	assert.Equal(t, vec.Vec3{X: -1}, hit.Normal)

	// x раньше z
	g = grid{{X: 1}: "x", {Z: 1}: "z"}
	hit, ok = Cast(g.voxel, origin, mgl32.Vec3{1, 0, 1}.Normalize(), 10)
	require.True(t, ok)
	assert.Equal(t, "x", hit.Value)

	// z раньше y
	g = grid{{Y: 1}: "y", {Z: 1}: "z"}
	hit, ok = Cast(g.voxel, origin, mgl32.Vec3{0, 1, 1}.Normalize(), 10)
	require.True(t, ok)
	assert.Equal(t, "z", hit.Value)
	assert.Equal(t, vec.Vec3{Z: -1}, hit.Normal)
}

func TestCast_VisitsEveryCell(t *testing.T) {
	var visited []vec.Vec3
	record := func(x, y, z int) (struct{}, bool) {
		visited = append(visited, vec.Vec3{X: x, Y: y, Z: z})
		return struct{}{}, false
	}

	dir := mgl32.Vec3{3, 1, 0}.Normalize()
	Cast(record, mgl32.Vec3{0.5, 0.5, 0.5}, dir, 6)

	require.NotEmpty(t, visited)
	for i := 1; i < len(visited); i++ {
		d := visited[i].Add(visited[i-1].Neg())
		assert.Equal(t, 1, abs(d.X)+abs(d.Y)+abs(d.Z), "Соседние ячейки должны иметь общую грань")
	}
}

func TestCast_NotNormalizedPanics(t *testing.T) {
	assert.Panics(t, func() {
		Cast(grid{}.voxel, mgl32.Vec3{}, mgl32.Vec3{}, 10)
	})

	defer func() {
		err, ok := recover().(error)
		assert.True(t, ok, "паника должна нести error")
		assert.ErrorIs(t, err, ErrDirectionNotNormalized)
	}()
	Cast(grid{}.voxel, mgl32.Vec3{}, mgl32.Vec3{0, 0, 2}, 10)
	t.Fatal("ожидалась паника")
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
