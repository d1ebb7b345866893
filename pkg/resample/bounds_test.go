package resample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maskheatmap/internal/models"
)

func TestComputeBoundsEmptySlices(t *testing.T) {
	d := models.Dims{X: 4, Y: 4, Z: 3}
	vol := models.NewLabelVolume(d)
	vol.Set(3, 0, 1, 1)

	bounds, err := ComputeBounds(vol, BuildMappings(d, d), d)
	require.NoError(t, err)
	require.Len(t, bounds, 3)
	assert.Equal(t, models.EmptyBounds, bounds[0])
	assert.Equal(t, models.SliceBounds{MinX: 3, MaxX: 3, MinY: 0, MaxY: 0}, bounds[1])
	assert.Equal(t, models.EmptyBounds, bounds[2])
}

func TestComputeBoundsTightAfterMapping(t *testing.T) {
	src := models.Dims{X: 2, Y: 3, Z: 2}
	target := models.Dims{X: 4, Y: 5, Z: 2}
	vol := models.NewLabelVolume(src)
	vol.Set(0, 1, 0, 1)
	vol.Set(1, 2, 0, 1)
	vol.Set(1, 0, 1, 1)

	bounds, err := ComputeBounds(vol, BuildMappings(src, target), target)
	require.NoError(t, err)
	// x: 0->0, 1->3; y: 0->0, 1->2, 2->4
	assert.Equal(t, models.SliceBounds{MinX: 0, MaxX: 3, MinY: 2, MaxY: 4}, bounds[0])
	assert.Equal(t, models.SliceBounds{MinX: 3, MaxX: 3, MinY: 0, MaxY: 0}, bounds[1])
}

func TestComputeBoundsMatchesSampler(t *testing.T) {
	vol := sphereMask(9, 3)
	target := models.Dims{X: 6, Y: 5, Z: 4}
	m := BuildMappings(vol.Dims(), target)

	fromSampler := models.NewBoundsSet(target.Z)
	require.NoError(t, AccumulateVotes(vol, m, make([]float64, target.Len()), target, fromSampler))
	models.FinalizeBounds(fromSampler)

	bounds, err := ComputeBounds(vol, m, target)
	require.NoError(t, err)
	assert.Equal(t, fromSampler, bounds)
}

func TestComputeBoundsErrors(t *testing.T) {
	d := models.Dims{X: 2, Y: 2, Z: 2}
	_, err := ComputeBounds(nil, Mappings{}, d)
	assert.ErrorIs(t, err, ErrEmptyVolume)

	vol := models.NewLabelVolume(d)
	_, err = ComputeBounds(vol, BuildMappings(models.Dims{X: 3, Y: 2, Z: 2}, d), d)
	assert.ErrorIs(t, err, ErrInvariant)

	short := &shortVolume{dims: d, values: []int32{1}}
	_, err = ComputeBounds(short, BuildMappings(d, d), d)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
