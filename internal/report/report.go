// Package report holds the processor.Sink implementations: a line-oriented
// text sink for the CLI, a channel sink feeding the TUI, and Multi to fan
// results out to several sinks.
package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"pixpress/internal/processor"
	"pixpress/internal/tui"
)

// Describe renders res as one line of plain text.
func Describe(res processor.Result) string {
	switch res.Status {
	case processor.StatusSuccess:
		return fmt.Sprintf("  - Input: %s (%s) -> Output: %s (%s)",
			res.InputName, processor.HumanSize(res.InputSize),
			res.OutputName, processor.HumanSize(res.OutputSize))
	case processor.StatusSkipped:
		return fmt.Sprintf("Skipping %s: %s", res.InputName, res.Reason)
	default:
		return fmt.Sprintf("Error compressing %v", res.Err)
	}
}

// Text writes one line per success or failure. Skipped results are counted
// but not printed. Each line is written with a single call under a mutex.
type Text struct {
	mu      sync.Mutex
	w       io.Writer
	skipped int
}

func NewText(w io.Writer) *Text {
	return &Text{w: w}
}

func (t *Text) Emit(res processor.Result) {
	var line string
	switch res.Status {
	case processor.StatusSuccess:
		line = successStyle.Render(Describe(res))
		if res.MetadataDropped > 0 {
			line += dimStyle.Render(fmt.Sprintf(" [%d metadata entries dropped]", res.MetadataDropped))
		}
	case processor.StatusFailed:
		line = errorStyle.Render(Describe(res))
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if res.Status == processor.StatusSkipped {
		t.skipped++
		return
	}
	fmt.Fprintln(t.w, line)
}

func (t *Text) Skipped() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.skipped
}

// Channel forwards each result to a TUI together with a running
// completed/total count. The count never exceeds total.
type Channel struct {
	mu        sync.Mutex
	out       chan<- processor.Progress
	total     int
	completed int
}

func NewChannel(out chan<- processor.Progress, total int) *Channel {
	return &Channel{out: out, total: total}
}

func (c *Channel) Emit(res processor.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.completed < c.total {
		c.completed++
	}
	c.out <- processor.Progress{Result: res, Completed: c.completed, Total: c.total}
}

// Multi emits to every sink in order.
type Multi []processor.Sink

func (m Multi) Emit(res processor.Result) {
	for _, s := range m {
		if s != nil {
			s.Emit(res)
		}
	}
}

var (
	successStyle = lipgloss.NewStyle().Foreground(tui.ColorInk)
	errorStyle   = lipgloss.NewStyle().Foreground(tui.ColorWarn)
	dimStyle     = lipgloss.NewStyle().Foreground(tui.ColorDim)
)
