package heatmap

import (
	"image/color"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"maskheatmap/internal/models"
)

// Status is the lifecycle state of a heatmap run
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusCompleted
	StatusCanceled
	StatusFailed
	StatusEmpty
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusCanceled:
		return "canceled"
	case StatusFailed:
		return "failed"
	case StatusEmpty:
		return "empty"
	}
	return "unknown"
}

// Terminal reports whether a run in this state has stopped
func (s Status) Terminal() bool {
	return s >= StatusCompleted
}

// Result is the snapshot a run publishes when it ends. It is never modified
// after publication; callers own it and must not write to its slices.
type Result struct {
	// Status is how the run ended
	Status Status

	// Dims is the target grid the heat values live on
	Dims models.Dims

	// Heat holds votes divided by Contributors, clamped to [0, 1], in the
	// linear order of Dims. It is only set for StatusCompleted.
	Heat []float64

	// Bounds holds the union of the per-slice bounds of all contributing
	// masks when bounds tracking was enabled
	Bounds []models.SliceBounds

	// Contributors is the number of masks whose votes were counted
	Contributors int

	// Processed is the number of masks visited, skipped ones included
	Processed int

	// Total is the number of masks requested
	Total int

	// Skipped is the number of masks that could not be sampled
	Skipped int

	// Err is set when the run failed
	Err error

	// Elapsed is the wall time the run took
	Elapsed time.Duration
}

// HeatAt returns the heat value at (x, y, z), or 0 when there is no heat grid
// or the coordinates fall outside it
func (r *Result) HeatAt(x, y, z int) float64 {
	if r == nil || r.Heat == nil {
		return 0
	}
	if x < 0 || y < 0 || z < 0 || x >= r.Dims.X || y >= r.Dims.Y || z >= r.Dims.Z {
		return 0
	}
	return r.Heat[r.Dims.Index(x, y, z)]
}

// ColorAt returns the palette color of the heat value at (x, y, z)
func (r *Result) ColorAt(x, y, z int) color.RGBA {
	return Color(r.HeatAt(x, y, z))
}

// Stats summarizes the voxels of a heat grid that at least one mask marked
type Stats struct {
	Occupied int
	Mean     float64
	StdDev   float64
	Max      float64
}

// Stats computes summary statistics over the occupied voxels of the heat grid
func (r *Result) Stats() Stats {
	if r == nil || len(r.Heat) == 0 {
		return Stats{}
	}
	occupied := make([]float64, 0, len(r.Heat)/4)
	for _, h := range r.Heat {
		if h > 0 {
			occupied = append(occupied, h)
		}
	}
	if len(occupied) == 0 {
		return Stats{}
	}
	s := Stats{Occupied: len(occupied), Max: floats.Max(occupied)}
	s.Mean, s.StdDev = stat.MeanStdDev(occupied, nil)
	if len(occupied) == 1 {
		s.StdDev = 0
	}
	return s
}
