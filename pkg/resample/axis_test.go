package resample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maskheatmap/internal/models"
)

func TestBuildAxisMappingExamples(t *testing.T) {
	assert.Equal(t, AxisMapping{0, 3}, BuildAxisMapping(2, 4))
	assert.Equal(t, AxisMapping{0, 1, 2, 3}, BuildAxisMapping(4, 4))
	assert.Equal(t, AxisMapping{0, 0, 1, 1}, BuildAxisMapping(4, 2))
	// i=1 of 3 onto 2 is a tie, round(0.5) sends it away from zero
	assert.Equal(t, AxisMapping{0, 1, 1}, BuildAxisMapping(3, 2))
}

func TestBuildAxisMappingDegenerate(t *testing.T) {
	assert.Empty(t, BuildAxisMapping(0, 5))
	assert.Equal(t, AxisMapping{0, 0, 0}, BuildAxisMapping(3, 0))
	assert.Equal(t, AxisMapping{0, 0, 0}, BuildAxisMapping(3, 1))
	assert.Equal(t, AxisMapping{0}, BuildAxisMapping(1, 7))
}

func TestBuildAxisMappingIdentity(t *testing.T) {
	for n := 1; n <= 64; n++ {
		m := BuildAxisMapping(n, n)
		require.Len(t, m, n)
		for i, v := range m {
			require.Equal(t, i, v, "length %d", n)
		}
	}
}

func TestBuildAxisMappingRangeAndOrder(t *testing.T) {
	for src := 1; src <= 40; src++ {
		for dst := 1; dst <= 40; dst++ {
			m := BuildAxisMapping(src, dst)
			require.Len(t, m, src)
			for i, v := range m {
				require.GreaterOrEqual(t, v, 0)
				require.LessOrEqual(t, v, dst-1)
				if i > 0 {
					require.GreaterOrEqual(t, v, m[i-1], "src %d dst %d", src, dst)
				}
			}
			if src > 1 && dst > 1 {
				assert.Equal(t, 0, m[0])
				assert.Equal(t, dst-1, m[src-1])
			}
		}
	}
}

func TestBuildMappings(t *testing.T) {
	m := BuildMappings(models.Dims{X: 2, Y: 4, Z: 1}, models.Dims{X: 4, Y: 4, Z: 3})
	assert.Equal(t, AxisMapping{0, 3}, m.X)
	assert.Equal(t, AxisMapping{0, 1, 2, 3}, m.Y)
	assert.Equal(t, AxisMapping{0}, m.Z)
	assert.True(t, m.matches(models.Dims{X: 2, Y: 4, Z: 1}))
	assert.False(t, m.empty())
}
