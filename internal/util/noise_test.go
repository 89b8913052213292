package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoiseDeterministic(t *testing.T) {
	a := NewNoise2D(1296)
	b := NewNoise2D(1296)

	for i := 0; i < 50; i++ {
		x := float64(i) * 0.37
		z := float64(i) * -0.91
		assert.Equal(t, a.At(x, z), b.At(x, z), "Один сид должен давать одинаковый шум")
	}
}

func TestNoiseRange(t *testing.T) {
	n := NewNoise2D(7)
	for x := -20; x <= 20; x++ {
		for z := -20; z <= 20; z++ {
			v := n.At(float64(x)/16, float64(z)/16)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestHash2(t *testing.T) {
	assert.Equal(t, Hash2(1, 10, -3), Hash2(1, 10, -3))
	assert.NotEqual(t, Hash2(1, 10, -3), Hash2(2, 10, -3))
	assert.NotEqual(t, Hash2(1, 10, -3), Hash2(1, -3, 10))
}
