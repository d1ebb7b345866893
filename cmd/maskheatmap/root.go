package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"maskheatmap/internal/models"
	"maskheatmap/pkg/config"
)

var rootCmd = &cobra.Command{
	Use:   "maskheatmap",
	Short: "Aggregate label masks of any resolution into an occupancy heatmap",
	Long: `maskheatmap resamples label masks onto one shared grid with nearest-neighbor
index mapping, counts per voxel how many masks mark it, and renders the
normalized result as colored slices.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "maskheatmap.yaml", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().String("target", "", "Target grid as XxYxZ (overrides the config; empty keeps it)")
}

// loadConfig reads the config file named by --config and applies --target
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if target, _ := cmd.Flags().GetString("target"); target != "" {
		d, err := parseDims(target)
		if err != nil {
			return nil, err
		}
		cfg.Target.X, cfg.Target.Y, cfg.Target.Z = d.X, d.Y, d.Z
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// parseDims parses "64x64x32"
func parseDims(s string) (models.Dims, error) {
	parts := strings.Split(strings.ToLower(s), "x")
	if len(parts) != 3 {
		return models.Dims{}, fmt.Errorf("target %q must look like 64x64x32", s)
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n <= 0 {
			return models.Dims{}, fmt.Errorf("target %q: axis %d must be a positive integer", s, i)
		}
		v[i] = n
	}
	return models.Dims{X: v[0], Y: v[1], Z: v[2]}, nil
}
