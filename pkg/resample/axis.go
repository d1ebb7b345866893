// Package resample maps label volumes of arbitrary size onto a shared target
// grid by nearest-neighbor index mapping.
//
// Each axis is mapped independently: source index i on an axis of length n is
// sent to round(i/(n-1) * (m-1)) on a target axis of length m, so the first and
// last source voxels always land on the first and last target voxels. Rounding
// uses math.Round, which sends ties away from zero.
package resample

import (
	"math"

	"maskheatmap/internal/models"
)

// AxisMapping holds, for every source index along one axis, the target index
// it is sent to
type AxisMapping []int

// BuildAxisMapping builds the nearest-neighbor mapping from an axis of
// sourceLen voxels onto an axis of targetLen voxels.
//
// The mapping always has sourceLen entries. Equal lengths give the identity;
// a degenerate target of length 0 gives all zeros, which callers must treat as
// an empty grid.
func BuildAxisMapping(sourceLen, targetLen int) AxisMapping {
	if sourceLen <= 0 {
		return AxisMapping{}
	}
	m := make(AxisMapping, sourceLen)
	if targetLen <= 0 {
		return m
	}

	// Identical lengths skip the float path so no rounding drift can creep in
	if sourceLen == targetLen {
		for i := range m {
			m[i] = i
		}
		return m
	}

	if targetLen == 1 || sourceLen <= 1 {
		return m
	}

	last := targetLen - 1
	span := float64(sourceLen - 1)
	for i := range m {
		ratio := float64(i) / span
		mapped := int(math.Round(ratio * float64(last)))
		if mapped > last {
			mapped = last
		}
		m[i] = mapped
	}
	return m
}

// Mappings groups the three per-axis tables of one source volume
type Mappings struct {
	X, Y, Z AxisMapping
}

// BuildMappings builds the X, Y and Z tables sending source onto target
func BuildMappings(source, target models.Dims) Mappings {
	return Mappings{
		X: BuildAxisMapping(source.X, target.X),
		Y: BuildAxisMapping(source.Y, target.Y),
		Z: BuildAxisMapping(source.Z, target.Z),
	}
}

// empty reports whether any table has no entries
func (m Mappings) empty() bool {
	return len(m.X) == 0 || len(m.Y) == 0 || len(m.Z) == 0
}

// matches reports whether the table lengths agree with the source dimensions
func (m Mappings) matches(source models.Dims) bool {
	return len(m.X) == source.X && len(m.Y) == source.Y && len(m.Z) == source.Z
}
