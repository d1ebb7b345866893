// Package runner drives heatmap aggregations in the background, one at a time,
// and exposes their progress and results to a polling caller.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"maskheatmap/internal/logging"
	"maskheatmap/internal/models"
	"maskheatmap/pkg/heatmap"
	"maskheatmap/pkg/metrics"
)

// Options configures a Controller
type Options struct {
	// Aggregator performs the runs; nil uses a default aggregator
	Aggregator *heatmap.Aggregator

	// Logger receives run lifecycle messages; nil discards them
	Logger *slog.Logger

	// Metrics records run outcomes; nil records nothing
	Metrics *metrics.Recorder
}

// Controller owns at most one in-flight heatmap run.
//
// The caller and the worker share exactly three things: the run's cancel
// function, an atomic progress counter, and the result slot the worker writes
// once when the run ends. The vote buffer never leaves the worker until the
// finished Result is published.
type Controller struct {
	agg     *heatmap.Aggregator
	logger  *slog.Logger
	metrics *metrics.Recorder

	// startMu serializes Start so two callers cannot both join the same worker
	startMu sync.Mutex

	mu     sync.Mutex
	status heatmap.Status
	cancel context.CancelFunc
	done   chan struct{}
	result *heatmap.Result
	last   *heatmap.Result
	runs   uint64

	progress atomic.Int32
}

// New creates an idle controller
func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	agg := opts.Aggregator
	if agg == nil {
		agg = heatmap.NewAggregator(heatmap.Options{Logger: logger})
	}
	return &Controller{
		agg:     agg,
		logger:  logger,
		metrics: opts.Metrics,
		status:  heatmap.StatusIdle,
	}
}

// Start begins aggregating masks onto target in the background and returns the
// run number. If a run is still going it is canceled first, and Start blocks
// until that worker has stopped, so votes of two runs never mix. Any result not
// yet taken is discarded.
func (c *Controller) Start(masks []models.Volume, target models.Dims) uint64 {
	c.startMu.Lock()
	defer c.startMu.Unlock()

	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.mu.Unlock()
	if cancel != nil {
		c.logger.Info("preempting running heatmap", "run", c.runs)
		cancel()
		<-done
	}

	// The worker reads its own copy of the list
	owned := make([]models.Volume, len(masks))
	copy(owned, masks)

	ctx, cancel := context.WithCancel(context.Background())
	done = make(chan struct{})

	c.mu.Lock()
	c.runs++
	id := c.runs
	c.status = heatmap.StatusRunning
	c.result = nil
	c.cancel = cancel
	c.done = done
	c.progress.Store(0)
	c.mu.Unlock()

	c.metrics.RunStarted()
	c.logger.Info("heatmap run started", "run", id, "masks", len(owned), "target", target.String())

	go c.work(ctx, id, owned, target, done)
	return id
}

// Cancel asks the running worker to stop at its next mask boundary. It does
// not wait; poll or Wait to observe the canceled result.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

// PollProgress returns the percent of masks processed by the current or last
// run, and the controller status
func (c *Controller) PollProgress() (int, heatmap.Status) {
	c.mu.Lock()
	status := c.status
	c.mu.Unlock()
	return int(c.progress.Load()), status
}

// TakeResult returns the published result of the last run exactly once. It
// returns nil while a run is going or when there is nothing to take. Taking a
// result returns the controller to idle.
func (c *Controller) TakeResult() *heatmap.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == heatmap.StatusRunning || c.result == nil {
		return nil
	}
	res := c.result
	c.result = nil
	c.status = heatmap.StatusIdle
	return res
}

// LastCompleted returns the most recent result with StatusCompleted. Canceled
// and failed runs do not replace it.
func (c *Controller) LastCompleted() *heatmap.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Wait blocks until the current run has stopped or ctx is done
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) work(ctx context.Context, id uint64, masks []models.Volume, target models.Dims, done chan struct{}) {
	defer close(done)
	start := time.Now()

	var res *heatmap.Result
	func() {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("heatmap worker panicked", "run", id, "panic", r)
				res = &heatmap.Result{
					Status:  heatmap.StatusFailed,
					Dims:    target,
					Total:   len(masks),
					Err:     fmt.Errorf("heatmap worker panicked: %v", r),
					Elapsed: time.Since(start),
				}
			}
		}()
		res = c.agg.Run(ctx, masks, target, func(percent, processed, total int) {
			c.progress.Store(int32(percent))
			c.metrics.Progress(percent)
		})
	}()

	c.publish(id, res)
}

// publish stores res in the result slot and releases the run's context
func (c *Controller) publish(id uint64, res *heatmap.Result) {
	c.mu.Lock()
	c.result = res
	c.status = res.Status
	if res.Status == heatmap.StatusCompleted {
		c.last = res
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()

	c.metrics.RunFinished(res.Status.String(), res.Contributors, res.Skipped, res.Elapsed.Seconds())
	attrs := []any{
		"run", id,
		"status", res.Status.String(),
		"contributors", res.Contributors,
		"skipped", res.Skipped,
		"elapsed", res.Elapsed,
	}
	if res.Err != nil {
		attrs = append(attrs, "error", res.Err)
	}
	c.logger.Info("heatmap run finished", attrs...)
}
