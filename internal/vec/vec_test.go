package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloorDiv(t *testing.T) {
	assert.Equal(t, 0, FloorDiv(0, 32))
	assert.Equal(t, 0, FloorDiv(31, 32))
	assert.Equal(t, 1, FloorDiv(32, 32))
	assert.Equal(t, -1, FloorDiv(-1, 32))
	assert.Equal(t, -1, FloorDiv(-32, 32))
	assert.Equal(t, -2, FloorDiv(-33, 32))
}

func TestCellOf(t *testing.T) {
	assert.Equal(t, Vec2{X: 0, Z: 0}, CellOf(0.4, 7.4, 8))
	assert.Equal(t, Vec2{X: -1, Z: 1}, CellOf(-0.6, 7.6, 8))
	assert.Equal(t, Vec2{X: 0, Z: -1}, CellOf(-0.4, -0.6, 8))
}

func TestChebyshev(t *testing.T) {
	assert.Equal(t, 3, Vec2{X: 1, Z: -2}.Chebyshev(Vec2{X: -2, Z: 0}))
	assert.Equal(t, 0, Vec2{}.Chebyshev(Vec2{}))
}

func TestKeysRoundTrip(t *testing.T) {
	c, err := ParseVec2(Vec2{X: -4, Z: 9}.String())
	require.NoError(t, err)
	assert.Equal(t, Vec2{X: -4, Z: 9}, c)

	v, err := ParseVec3(Vec3{X: 1, Y: -2, Z: 3}.String())
	require.NoError(t, err)
	assert.Equal(t, Vec3{X: 1, Y: -2, Z: 3}, v)

	_, err = ParseVec3("1,2")
	assert.Error(t, err)
	_, err = ParseVec2("a,b")
	assert.Error(t, err)
}
