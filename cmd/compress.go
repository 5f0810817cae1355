package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"pixpress/internal/imagekit"
	"pixpress/internal/metrics"
	"pixpress/internal/processor"
	"pixpress/internal/report"
	"pixpress/internal/tui"
)

var (
	compressInput      string
	compressOutput     string
	compressNoParallel bool
	compressOpts       compressOptions
)

var compressCmd = &cobra.Command{
	Use:   "compress -i <path> [flags]",
	Short: "Compress an image or a folder of images",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := compressOpts.config()
		if err != nil {
			return err
		}

		batch, err := processor.BuildBatch(compressInput, compressOutput, cfg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		banner := fmt.Sprintf("Starting compression for %d image(s)...", len(batch))
		if !compressNoParallel && len(batch) > 1 {
			banner += bannerDimStyle.Render(fmt.Sprintf(" (%d workers)", processor.WorkerCount(compressOpts.workers, len(batch))))
		}
		fmt.Fprintln(out, bannerStyle.Render(banner))

		recorder := metrics.NewRecorder()
		text := report.NewText(out)
		sink := report.Multi{text, recorder}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		_, summary := processor.Run(ctx, imagekit.New(), batch, processor.RunOptions{
			Parallel: !compressNoParallel,
			Workers:  compressOpts.workers,
		}, sink)

		if n := text.Skipped(); n > 0 {
			fmt.Fprintln(out, bannerDimStyle.Render(fmt.Sprintf("%d image(s) skipped (missing or unreadable).", n)))
		}
		fmt.Fprintln(out, tui.RenderSummary(tui.SummaryRows(summary)))
		if summary.Succeeded > 0 {
			fmt.Fprintf(out, "Compressed files written to: %s\n", outputLocation(batch))
		}
		fmt.Fprintln(out, bannerStyle.Render("Compression complete."))

		if compressOpts.metricsFile != "" {
			if err := recorder.WriteTextfile(compressOpts.metricsFile); err != nil {
				return fmt.Errorf("write metrics: %w", err)
			}
		}

		if summary.Failed > 0 {
			return fmt.Errorf("%d of %d image(s) failed to compress", summary.Failed, summary.Total)
		}
		return nil
	},
}

func outputLocation(batch processor.Batch) string {
	dir := filepath.Dir(batch[0].Output)
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

var (
	bannerStyle    = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	bannerDimStyle = lipgloss.NewStyle().Foreground(tui.ColorDim)
)

func init() {
	compressCmd.Flags().StringVarP(&compressInput, "input", "i", "", "image file or folder to compress")
	compressCmd.Flags().StringVarP(&compressOutput, "output", "o", "", "output file or folder (default \""+processor.DefaultOutputDir+"\")")
	compressCmd.Flags().BoolVar(&compressNoParallel, "no-parallel", false, "process images one at a time")
	compressOpts.register(compressCmd)
	_ = compressCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(compressCmd)
}
