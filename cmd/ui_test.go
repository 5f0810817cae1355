package cmd

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"pixpress/internal/processor"
)

type fakeDashboard struct {
	updates <-chan processor.Progress
	err     error
	seen    int
}

func (f *fakeDashboard) Run() (tea.Model, error) {
	if f.err != nil {
		return nil, f.err
	}
	for range f.updates {
		f.seen++
	}
	return nil, nil
}

func TestRunDashboardReportsUIFailure(t *testing.T) {
	updates := make(chan processor.Progress, 4)
	failure := errors.New("open /dev/tty: no such device")
	program := &fakeDashboard{updates: updates, err: failure}

	var workCtx context.Context
	_, err := runDashboard(program, updates, func(ctx context.Context) processor.Summary {
		<-ctx.Done()
		workCtx = ctx
		return processor.Summary{Total: 2, Skipped: 2}
	})
	if !errors.Is(err, failure) {
		t.Fatalf("expected the ui error, got %v", err)
	}
	if workCtx.Err() == nil {
		t.Fatal("work context was not cancelled")
	}
}

func TestRunDashboardDeliversUpdates(t *testing.T) {
	updates := make(chan processor.Progress)
	program := &fakeDashboard{updates: updates}

	summary, err := runDashboard(program, updates, func(ctx context.Context) processor.Summary {
		for i := 1; i <= 3; i++ {
			updates <- processor.Progress{Completed: i, Total: 3}
		}
		return processor.Summary{Total: 3, Succeeded: 3}
	})
	if err != nil {
		t.Fatalf("runDashboard: %v", err)
	}
	if summary.Succeeded != 3 || program.seen != 3 {
		t.Fatalf("summary %+v, ui saw %d updates", summary, program.seen)
	}
}
