package resample

import (
	"fmt"

	"maskheatmap/internal/models"
)

// ComputeBounds returns, for every target z-slice, the bounding box of the
// mapped positions of the nonzero voxels of vol. Slices receiving no voxel are
// set to models.EmptyBounds.
//
// It walks the volume exactly like Sampler.Accumulate but never touches a
// vote buffer, which makes it the cheaper call when only the spatial extent of
// a mask is needed.
func ComputeBounds(vol models.Volume, m Mappings, target models.Dims) ([]models.SliceBounds, error) {
	if vol == nil {
		return nil, ErrEmptyVolume
	}
	source := vol.Dims()
	if source.IsZero() || target.IsZero() || m.empty() {
		return nil, fmt.Errorf("%w: source %s, target %s", ErrEmptyVolume, source, target)
	}
	if !m.matches(source) || !m.inRange(target) {
		return nil, fmt.Errorf("%w: mappings do not send source %s onto target %s", ErrInvariant, source, target)
	}

	bounds := models.NewBoundsSet(target.Z)
	total := source.Len()
	i := 0
	err := vol.Scan(func(value int32) {
		if i < total && value != 0 {
			x, y, z := source.Coords(i)
			bounds[m.Z[z]].Expand(m.X[x], m.Y[y])
		}
		i++
	})
	if err != nil {
		return nil, fmt.Errorf("scan volume: %w", err)
	}
	if i != total {
		return nil, fmt.Errorf("%w: got %d voxels, dimensions %s announce %d", ErrDimensionMismatch, i, source, total)
	}

	models.FinalizeBounds(bounds)
	return bounds, nil
}
