package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"maskheatmap/internal/logging"
	"maskheatmap/internal/models"
	"maskheatmap/pkg/config"
	"maskheatmap/pkg/heatmap"
	"maskheatmap/pkg/maskio"
	"maskheatmap/pkg/metrics"
	"maskheatmap/pkg/runner"
	"maskheatmap/pkg/stl"
	"maskheatmap/pkg/visualization"
)

var runCmd = &cobra.Command{
	Use:   "run <mask-dir>...",
	Short: "Build a heatmap from mask directories",
	Long: `Each argument is a directory of 2D slice images forming one mask.
Masks may have different sizes; all of them are resampled onto the target grid.
Press Ctrl+C to cancel a run; it stops after the mask being processed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if out, _ := cmd.Flags().GetString("out"); out != "" {
			cfg.Output.Dir = out
		}
		if crop, _ := cmd.Flags().GetBool("crop"); crop {
			cfg.Output.CropToBounds = true
		}
		if noSlices, _ := cmd.Flags().GetBool("no-slices"); noSlices {
			cfg.Output.SaveSlices = false
		}
		if stlFile, _ := cmd.Flags().GetString("stl"); stlFile != "" {
			cfg.Output.STLFile = stlFile
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runHeatmap(ctx, cfg, args)
	},
}

func init() {
	runCmd.Flags().String("out", "", "Directory for rendered heat slices (overrides the config)")
	runCmd.Flags().Bool("crop", false, "Crop rendered slices to the occupied bounds")
	runCmd.Flags().Bool("no-slices", false, "Do not render heat slices")
	runCmd.Flags().String("stl", "", "Write the surface of the voxels at or above the iso level to this STL file")
	rootCmd.AddCommand(runCmd)
}

func runHeatmap(ctx context.Context, cfg *config.Config, dirs []string) error {
	level, _ := logging.ParseLevel(cfg.Logging.Level)
	logger := logging.New(level)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	rec := metrics.New(reg)
	if cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
		defer srv.Close()
		logger.Info("serving metrics", "addr", cfg.Metrics.Addr)
	}

	masks, opened := openMasks(ctx, cfg, dirs, logger)
	if opened == 0 {
		return fmt.Errorf("none of the %d mask directories could be opened", len(dirs))
	}

	target := cfg.TargetDims()
	if target == (models.Dims{}) {
		target = models.MaxDims(masks)
	}
	fmt.Printf("Aggregating %d masks onto a %s grid...\n", len(masks), target)

	ctl := runner.New(runner.Options{
		Aggregator: heatmap.NewAggregator(heatmap.Options{
			TrackBounds: cfg.Processing.TrackBounds || cfg.Output.CropToBounds,
			Logger:      logger,
		}),
		Logger:  logger,
		Metrics: rec,
	})
	ctl.Start(masks, target)

	res := pollUntilDone(ctx, ctl, cfg.Progress.PollInterval)
	return report(cfg, res)
}

// openMasks opens every directory; the ones that fail stay in the list as nil
// so the run counts them as skipped
func openMasks(ctx context.Context, cfg *config.Config, dirs []string, logger *slog.Logger) ([]models.Volume, int) {
	vols, errs := maskio.OpenAll(ctx, dirs, uint8(cfg.Processing.Threshold), cfg.Processing.LoadWorkers)
	masks := make([]models.Volume, len(vols))
	opened := 0
	for i, v := range vols {
		if errs[i] != nil {
			logger.Warn("cannot open mask", "dir", dirs[i], "error", errs[i])
			continue
		}
		masks[i] = v
		opened++
	}
	return masks, opened
}

// pollUntilDone polls the controller on a fixed cadence, printing progress,
// and cancels the run once ctx is done
func pollUntilDone(ctx context.Context, ctl *runner.Controller, every time.Duration) *heatmap.Result {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	done := ctx.Done()
	for {
		select {
		case <-done:
			fmt.Println("\nCanceling after the current mask...")
			ctl.Cancel()
			done = nil
		case <-ticker.C:
		}

		percent, status := ctl.PollProgress()
		fmt.Printf("\rProgress: %3d%% (%s)", percent, status)
		if status.Terminal() {
			fmt.Println()
			return ctl.TakeResult()
		}
	}
}

func report(cfg *config.Config, res *heatmap.Result) error {
	if res == nil {
		return fmt.Errorf("run ended without a result")
	}
	fmt.Printf("Status: %s after %.2f seconds\n", res.Status, res.Elapsed.Seconds())
	fmt.Printf("Masks: %d requested, %d processed, %d contributed, %d skipped\n",
		res.Total, res.Processed, res.Contributors, res.Skipped)

	switch res.Status {
	case heatmap.StatusCompleted:
	case heatmap.StatusCanceled:
		return fmt.Errorf("run canceled")
	case heatmap.StatusEmpty:
		return fmt.Errorf("nothing to aggregate")
	default:
		return fmt.Errorf("run failed: %w", res.Err)
	}

	s := res.Stats()
	fmt.Printf("Occupied voxels: %d, mean heat %.3f (sd %.3f), max %.3f\n", s.Occupied, s.Mean, s.StdDev, s.Max)

	if cfg.Output.STLFile != "" {
		surface := stl.NewSurface(res.Heat, res.Dims.X, res.Dims.Y, res.Dims.Z, cfg.Output.IsoLevel)
		triangles := surface.GenerateTriangles()
		if err := stl.SaveToSTL(cfg.Output.STLFile, triangles); err != nil {
			return fmt.Errorf("save surface: %w", err)
		}
		fmt.Printf("Saved %d triangles at iso level %.2f to: %s\n", len(triangles), cfg.Output.IsoLevel, cfg.Output.STLFile)
	}

	if !cfg.Output.SaveSlices {
		return nil
	}
	viewer, err := visualization.NewViewer(res)
	if err != nil {
		return err
	}
	n, err := viewer.SaveSliceSequence(cfg.Output.Dir, cfg.Output.CropToBounds)
	if err != nil {
		return fmt.Errorf("save heat slices: %w", err)
	}
	fmt.Printf("Saved %d heat slices to: %s\n", n, cfg.Output.Dir)
	return nil
}
