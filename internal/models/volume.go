package models

import (
	"fmt"
	"math"
)

// Dims holds the voxel-grid dimensions of a volume along X, Y and Z
type Dims struct {
	X, Y, Z int
}

// Len returns the number of voxels in a grid of these dimensions
func (d Dims) Len() int {
	return d.X * d.Y * d.Z
}

// IsZero reports whether any axis is non-positive
func (d Dims) IsZero() bool {
	return d.X <= 0 || d.Y <= 0 || d.Z <= 0
}

// Index returns the linear index of (x, y, z), X fastest then Y then Z
func (d Dims) Index(x, y, z int) int {
	return z*d.X*d.Y + y*d.X + x
}

// Coords decomposes a linear index back into (x, y, z)
func (d Dims) Coords(i int) (x, y, z int) {
	plane := d.X * d.Y
	z = i / plane
	rem := i - z*plane
	y = rem / d.X
	x = rem - y*d.X
	return x, y, z
}

func (d Dims) String() string {
	return fmt.Sprintf("%dx%dx%d", d.X, d.Y, d.Z)
}

// MaxDims returns the per-axis maximum of the dimensions of all volumes.
// A nil entry is ignored.
func MaxDims(vols []Volume) Dims {
	var out Dims
	for _, v := range vols {
		if v == nil {
			continue
		}
		d := v.Dims()
		out.X = max(out.X, d.X)
		out.Y = max(out.Y, d.Y)
		out.Z = max(out.Z, d.Z)
	}
	return out
}

// Volume is a 3D label mask. Only presence matters to the heatmap engine:
// a voxel is labeled when its value is nonzero.
type Volume interface {
	// Dims returns the voxel-grid dimensions of the volume
	Dims() Dims

	// Scan calls fn with every voxel value in linear order (X fastest, then Y,
	// then Z). It returns an error if the voxel data cannot be read.
	Scan(fn func(value int32)) error
}

// LabelVolume is a dense in-memory Volume stored as a 1D array in the same
// linear order Scan walks
type LabelVolume struct {
	// Data holds one label per voxel
	Data []int32

	dims Dims
}

// NewLabelVolume allocates an all-zero label volume
func NewLabelVolume(d Dims) *LabelVolume {
	n := 0
	if !d.IsZero() {
		n = d.Len()
	}
	return &LabelVolume{Data: make([]int32, n), dims: d}
}

// Dims implements Volume
func (v *LabelVolume) Dims() Dims {
	return v.dims
}

// Set stores a label at (x, y, z). Out of range coordinates are ignored.
func (v *LabelVolume) Set(x, y, z int, value int32) {
	if !v.inside(x, y, z) {
		return
	}
	v.Data[v.dims.Index(x, y, z)] = value
}

// At returns the label at (x, y, z), or 0 outside the volume
func (v *LabelVolume) At(x, y, z int) int32 {
	if !v.inside(x, y, z) {
		return 0
	}
	return v.Data[v.dims.Index(x, y, z)]
}

// Scan implements Volume
func (v *LabelVolume) Scan(fn func(value int32)) error {
	for _, value := range v.Data {
		fn(value)
	}
	return nil
}

// CountNonzero returns the number of labeled voxels
func (v *LabelVolume) CountNonzero() int {
	n := 0
	for _, value := range v.Data {
		if value != 0 {
			n++
		}
	}
	return n
}

func (v *LabelVolume) inside(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < v.dims.X && y < v.dims.Y && z < v.dims.Z
}

// SliceBounds is the 2D bounding box of labeled voxels inside one z-slice.
// An empty slice is represented by all four fields set to -1.
type SliceBounds struct {
	MinX, MaxX, MinY, MaxY int
}

// EmptyBounds is the sentinel for a slice with no labeled voxels
var EmptyBounds = SliceBounds{MinX: -1, MaxX: -1, MinY: -1, MaxY: -1}

// NewBoundsSet returns n slice bounds ready to be expanded: minimums at the
// plus-infinity sentinel and maximums at -1
func NewBoundsSet(n int) []SliceBounds {
	out := make([]SliceBounds, n)
	for i := range out {
		out[i] = SliceBounds{MinX: math.MaxInt, MaxX: -1, MinY: math.MaxInt, MaxY: -1}
	}
	return out
}

// Expand grows the box to include (x, y)
func (b *SliceBounds) Expand(x, y int) {
	if b.MaxX < 0 {
		*b = SliceBounds{MinX: x, MaxX: x, MinY: y, MaxY: y}
		return
	}
	b.MinX = min(b.MinX, x)
	b.MaxX = max(b.MaxX, x)
	b.MinY = min(b.MinY, y)
	b.MaxY = max(b.MaxY, y)
}

// Empty reports whether no voxel was ever added to the box
func (b SliceBounds) Empty() bool {
	return b.MaxX < 0
}

// Width returns the number of voxels covered along X, 0 when empty
func (b SliceBounds) Width() int {
	if b.Empty() {
		return 0
	}
	return b.MaxX - b.MinX + 1
}

// Height returns the number of voxels covered along Y, 0 when empty
func (b SliceBounds) Height() int {
	if b.Empty() {
		return 0
	}
	return b.MaxY - b.MinY + 1
}

// FinalizeBounds collapses every untouched box in place to EmptyBounds
func FinalizeBounds(bounds []SliceBounds) {
	for i := range bounds {
		if bounds[i].MaxX < 0 {
			bounds[i] = EmptyBounds
		}
	}
}
