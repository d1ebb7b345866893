package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"maskheatmap/internal/models"
	"maskheatmap/pkg/maskio"
	"maskheatmap/pkg/resample"
)

var boundsCmd = &cobra.Command{
	Use:   "bounds <mask-dir>",
	Short: "Print the per-slice bounds of one mask on the target grid",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		vol, err := maskio.Open(args[0], uint8(cfg.Processing.Threshold))
		if err != nil {
			return err
		}

		target := cfg.TargetDims()
		if target == (models.Dims{}) {
			target = vol.Dims()
		}
		bounds, err := resample.ComputeBounds(vol, resample.BuildMappings(vol.Dims(), target), target)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "mask %s (%s) on %s\n", args[0], vol.Dims(), target)
		for z, b := range bounds {
			if b.Empty() {
				fmt.Fprintf(out, "z=%d empty\n", z)
				continue
			}
			fmt.Fprintf(out, "z=%d x=[%d,%d] y=[%d,%d] %dx%d\n", z, b.MinX, b.MaxX, b.MinY, b.MaxY, b.Width(), b.Height())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(boundsCmd)
}
