package grid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVector3(t *testing.T) {
	a := NewVector3(1, 2, 3)
	b := NewVector3(4, 6, 8)

	require.True(t, a.Equal(Vector3{X: 1, Y: 2, Z: 3}))
	require.False(t, a.Equal(b))

	require.Equal(t, Vector3{X: 5, Y: 8, Z: 11}, Add(a, b))
	require.Equal(t, Vector3{X: 3, Y: 4, Z: 5}, Sub(b, a))
	require.Equal(t, Vector3{X: 2, Y: 4, Z: 6}, Mul(a, 2))

	require.Equal(t, float64(25), Sub(b, a).LengthSquared())
	require.Equal(t, float64(5), Sub(b, a).Length())
	require.Equal(t, float64(25), DistSquared(a, b))
}

func TestBoxContains(t *testing.T) {
	box := NewBox(Vector3{X: -10, Y: -10, Z: -10}, Vector3{X: 10, Y: 10, Z: 10})

	require.True(t, box.Contains(Vector3{}))
	require.True(t, box.Contains(Vector3{X: 10, Y: -10, Z: 10}))
	require.False(t, box.Contains(Vector3{X: 10.1}))
	require.False(t, box.Contains(Vector3{Z: -11}))
}
