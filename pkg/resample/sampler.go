package resample

import (
	"errors"
	"fmt"

	"maskheatmap/internal/models"
)

var (
	// ErrInvariant marks a caller defect: a vote buffer or mapping whose size
	// disagrees with the grid it is meant for. Runs hitting it abort as failed.
	ErrInvariant = errors.New("resample: invariant violation")

	// ErrEmptyVolume is returned for a volume, mapping or target grid with a
	// zero-length axis
	ErrEmptyVolume = errors.New("resample: empty volume")

	// ErrDimensionMismatch is returned when a volume yields a different number
	// of voxels than its dimensions announce
	ErrDimensionMismatch = errors.New("resample: voxel count does not match dimensions")
)

// Sampler accumulates label presence votes of source volumes into a target
// vote buffer.
//
// A Sampler stages one volume's votes before writing them, so a volume that
// fails halfway through its scan leaves the buffer untouched. The staging area
// holds one counter per target voxel whatever the source size, and is reused
// between calls. A Sampler must not be used concurrently.
type Sampler struct {
	staged  []uint32
	touched []int
	bounds  []models.SliceBounds
}

// NewSampler creates a sampler with an empty staging area
func NewSampler() *Sampler {
	return &Sampler{}
}

// Accumulate adds one vote to votes for every nonzero voxel of vol, at the
// target voxel its coordinates map to. When bounds is non-nil it must hold one
// entry per target z-slice, and each slice's box is grown to include the mapped
// (x, y) of every vote landing in it.
//
// On any error neither votes nor bounds are modified.
func (s *Sampler) Accumulate(vol models.Volume, m Mappings, votes []float64, target models.Dims, bounds []models.SliceBounds) error {
	if vol == nil {
		return ErrEmptyVolume
	}
	source := vol.Dims()
	if source.IsZero() || target.IsZero() || m.empty() {
		return fmt.Errorf("%w: source %s, target %s", ErrEmptyVolume, source, target)
	}
	if len(votes) != target.Len() {
		return fmt.Errorf("%w: vote buffer holds %d voxels, target grid %s needs %d",
			ErrInvariant, len(votes), target, target.Len())
	}
	if !m.matches(source) {
		return fmt.Errorf("%w: mappings %dx%dx%d do not cover source %s",
			ErrInvariant, len(m.X), len(m.Y), len(m.Z), source)
	}
	if bounds != nil && len(bounds) != target.Z {
		return fmt.Errorf("%w: %d slice bounds for %d target slices", ErrInvariant, len(bounds), target.Z)
	}
	if !m.inRange(target) {
		return fmt.Errorf("%w: mapping points outside target %s", ErrInvariant, target)
	}

	s.prepare(target.Len())
	defer s.clear()
	if bounds != nil {
		s.bounds = append(s.bounds[:0], bounds...)
	}

	// Walk the linear order with explicit (x, y, z) counters advanced per voxel
	total := source.Len()
	seen := 0
	x, y, z := 0, 0, 0
	err := vol.Scan(func(value int32) {
		if seen >= total {
			seen++
			return
		}
		if value != 0 {
			tx, ty, tz := m.X[x], m.Y[y], m.Z[z]
			idx := target.Index(tx, ty, tz)
			if s.staged[idx] == 0 {
				s.touched = append(s.touched, idx)
			}
			s.staged[idx]++
			if bounds != nil {
				s.bounds[tz].Expand(tx, ty)
			}
		}
		seen++
		x++
		if x == source.X {
			x = 0
			y++
			if y == source.Y {
				y = 0
				z++
			}
		}
	})
	if err != nil {
		return fmt.Errorf("scan volume: %w", err)
	}
	if seen != total {
		return fmt.Errorf("%w: got %d voxels, dimensions %s announce %d", ErrDimensionMismatch, seen, source, total)
	}

	for _, idx := range s.touched {
		votes[idx] += float64(s.staged[idx])
	}
	if bounds != nil {
		copy(bounds, s.bounds)
	}
	return nil
}

// prepare sizes the staging area for a target of n voxels. Counters are zero
// between calls.
func (s *Sampler) prepare(n int) {
	if cap(s.staged) < n {
		s.staged = make([]uint32, n)
	} else {
		s.staged = s.staged[:n]
	}
	if cap(s.touched) < n {
		s.touched = make([]int, 0, n)
	}
	s.touched = s.touched[:0]
}

// clear zeroes the counters the last scan touched
func (s *Sampler) clear() {
	for _, idx := range s.touched {
		s.staged[idx] = 0
	}
	s.touched = s.touched[:0]
}

// AccumulateVotes is a one-shot Accumulate with a fresh Sampler
func AccumulateVotes(vol models.Volume, m Mappings, votes []float64, target models.Dims, bounds []models.SliceBounds) error {
	return NewSampler().Accumulate(vol, m, votes, target, bounds)
}

// inRange reports whether every entry of every table lies inside target.
// Tables are nondecreasing, so checking the ends is enough.
func (m Mappings) inRange(target models.Dims) bool {
	check := func(a AxisMapping, n int) bool {
		return a[0] >= 0 && a[len(a)-1] < n
	}
	return check(m.X, target.X) && check(m.Y, target.Y) && check(m.Z, target.Z)
}
