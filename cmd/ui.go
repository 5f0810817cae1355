package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"pixpress/internal/imagekit"
	"pixpress/internal/metrics"
	"pixpress/internal/processor"
	"pixpress/internal/report"
	"pixpress/internal/tui"
)

var (
	uiOutputDir string
	uiOpts      compressOptions
)

var uiCmd = &cobra.Command{
	Use:   "ui [flags] <path>...",
	Short: "Compress files and folders with a live terminal dashboard",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := uiOpts.config()
		if err != nil {
			return err
		}

		batch, err := processor.BuildListBatch(args, uiOutputDir, cfg)
		if err != nil {
			return err
		}

		names := make([]string, len(batch))
		for i, job := range batch {
			names[i] = filepath.Base(job.Input)
		}

		updates := make(chan processor.Progress, 64)
		program := tea.NewProgram(tui.NewModel(updates, names))

		recorder := metrics.NewRecorder()
		sink := report.Multi{report.NewChannel(updates, len(batch)), recorder}
		summary, err := runDashboard(program, updates, func(ctx context.Context) processor.Summary {
			_, summary := processor.Run(ctx, imagekit.New(), batch, processor.RunOptions{
				Parallel: true,
				Workers:  uiOpts.workers,
				Ordered:  true,
			}, sink)
			return summary
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, tui.RenderSummary(tui.SummaryRows(summary)))
		if summary.Succeeded > 0 {
			fmt.Fprintf(out, "Compressed files written to: %s\n", outputLocation(batch))
		}
		fmt.Fprintln(out, bannerStyle.Render("Compression complete."))

		if uiOpts.metricsFile != "" {
			if err := recorder.WriteTextfile(uiOpts.metricsFile); err != nil {
				return fmt.Errorf("write metrics: %w", err)
			}
		}
		if summary.Failed > 0 {
			return fmt.Errorf("%d of %d image(s) failed to compress", summary.Failed, summary.Total)
		}
		return nil
	},
}

type dashboard interface {
	Run() (tea.Model, error)
}

// runDashboard runs work while program owns the terminal and closes updates
// once work returns. Quitting the program early cancels the context handed
// to work and drains updates so the batch can finish.
func runDashboard(program dashboard, updates chan processor.Progress, work func(context.Context) processor.Summary) (processor.Summary, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var uiErr error
	uiDone := make(chan struct{})
	go func() {
		_, uiErr = program.Run()
		cancel()
		close(uiDone)
		for range updates {
		}
	}()

	summary := work(ctx)
	close(updates)
	<-uiDone
	if uiErr != nil {
		return summary, fmt.Errorf("terminal ui: %w", uiErr)
	}
	return summary, nil
}

func init() {
	uiCmd.Flags().StringVarP(&uiOutputDir, "output", "o", processor.DefaultOutputDir, "destination folder")
	uiOpts.register(uiCmd)

	rootCmd.AddCommand(uiCmd)
}
