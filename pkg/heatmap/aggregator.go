// Package heatmap aggregates label masks of arbitrary resolution into a single
// occupancy heat field on a shared target grid.
//
// Every mask is resampled onto the target grid with nearest-neighbor index
// mapping and votes once for each target voxel it marks. Once all masks are
// in, the votes are divided by the number of masks that contributed, giving a
// heat value in [0, 1]: the fraction of masks marking that voxel.
package heatmap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gonum.org/v1/gonum/floats"

	"maskheatmap/internal/logging"
	"maskheatmap/internal/models"
	"maskheatmap/pkg/resample"
)

// ProgressSink receives progress reports after each mask. Percent is
// processed/total*100 rounded down.
type ProgressSink func(percent, processed, total int)

// Options configures an Aggregator
type Options struct {
	// TrackBounds enables per-slice bounds of the contributing masks
	TrackBounds bool

	// Logger receives skip and failure messages; nil discards them
	Logger *slog.Logger
}

// Aggregator runs heatmap aggregations. It holds no per-run state, so one
// Aggregator can serve many sequential runs.
type Aggregator struct {
	trackBounds bool
	logger      *slog.Logger

	// sampler is swappable for tests that need to force sampling errors
	sampler func(s *resample.Sampler, vol models.Volume, m resample.Mappings, votes []float64, target models.Dims, bounds []models.SliceBounds) error
}

// NewAggregator creates an aggregator with the given options
func NewAggregator(opts Options) *Aggregator {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Aggregator{
		trackBounds: opts.TrackBounds,
		logger:      logger,
		sampler:     (*resample.Sampler).Accumulate,
	}
}

// Run aggregates masks, in order, onto the target grid.
//
// Cancellation of ctx is observed between masks: a mask already being sampled
// is finished first. A canceled run returns StatusCanceled with no heat grid.
// Masks that cannot be sampled are skipped and counted in Result.Skipped; they
// count as processed for progress but not as contributors. A vote buffer or
// mapping inconsistency aborts the run with StatusFailed.
func (a *Aggregator) Run(ctx context.Context, masks []models.Volume, target models.Dims, progress ProgressSink) *Result {
	start := time.Now()
	res := &Result{Dims: target, Total: len(masks)}
	finish := func(status Status) *Result {
		res.Status = status
		res.Elapsed = time.Since(start)
		return res
	}

	if len(masks) == 0 || target.IsZero() {
		return finish(StatusEmpty)
	}
	if ctx.Err() != nil {
		return finish(StatusCanceled)
	}

	votes := make([]float64, target.Len())
	var bounds []models.SliceBounds
	if a.trackBounds {
		bounds = models.NewBoundsSet(target.Z)
	}
	sampler := resample.NewSampler()

	for i, mask := range masks {
		err := a.sampleMask(sampler, mask, votes, target, bounds)
		switch {
		case err == nil:
			res.Contributors++
		case errors.Is(err, resample.ErrInvariant):
			a.logger.Error("aborting heatmap run", "mask", i, "error", err)
			res.Processed++
			res.Err = fmt.Errorf("mask %d: %w", i, err)
			return finish(StatusFailed)
		default:
			a.logger.Warn("skipping mask", "mask", i, "error", err)
			res.Skipped++
		}
		res.Processed++

		if progress != nil {
			progress(res.Processed*100/res.Total, res.Processed, res.Total)
		}
		if ctx.Err() != nil {
			return finish(StatusCanceled)
		}
	}

	if res.Contributors == 0 {
		a.logger.Warn("no mask contributed to the heatmap", "skipped", res.Skipped)
		return finish(StatusEmpty)
	}

	floats.Scale(1/float64(res.Contributors), votes)
	// A finer mask can put several votes into one voxel
	for i, v := range votes {
		if v > 1 {
			votes[i] = 1
		}
	}
	res.Heat = votes
	if bounds != nil {
		models.FinalizeBounds(bounds)
		res.Bounds = bounds
	}
	return finish(StatusCompleted)
}

// sampleMask builds the mask's axis tables and accumulates its votes
func (a *Aggregator) sampleMask(s *resample.Sampler, mask models.Volume, votes []float64, target models.Dims, bounds []models.SliceBounds) error {
	if mask == nil {
		return resample.ErrEmptyVolume
	}
	m := resample.BuildMappings(mask.Dims(), target)
	return a.sampler(s, mask, m, votes, target, bounds)
}
