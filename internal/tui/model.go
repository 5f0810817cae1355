package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pixpress/internal/processor"
)

const (
	logLines   = 10
	queueLines = 5
)

// Model renders a running batch: progress bar, upcoming jobs and a log
// panel. It reads processor.Progress values from a channel the batch
// goroutine writes to and quits when that channel closes.
type Model struct {
	updates    <-chan processor.Progress
	jobs       []string
	started    time.Time
	width      int
	total      int
	completed  int
	failed     int
	skipped    int
	bytesSaved int64
	log        []string
	quitting   bool
}

type doneMsg struct{}

type progressMsg processor.Progress

func NewModel(updates <-chan processor.Progress, jobs []string) Model {
	return Model{updates: updates, jobs: jobs, total: len(jobs), started: time.Now()}
}

func (m Model) Init() tea.Cmd {
	return listenForUpdates(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.apply(processor.Progress(msg))
		return m, listenForUpdates(m.updates)
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) apply(p processor.Progress) {
	m.total = p.Total
	m.completed = p.Completed

	res := p.Result
	switch res.Status {
	case processor.StatusSuccess:
		m.bytesSaved += res.InputSize - res.OutputSize
	case processor.StatusSkipped:
		m.skipped++
	case processor.StatusFailed:
		m.failed++
	}

	m.log = append(m.log, LogLine(res))
	if len(m.log) > logLines {
		m.log = m.log[len(m.log)-logLines:]
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = int(math.Min(60, float64(m.width-10)))
		if barWidth < 20 {
			barWidth = 20
		}
	}

	ratio := 0.0
	if m.total > 0 {
		ratio = math.Min(1, float64(m.completed)/float64(m.total))
	}

	elapsed := time.Since(m.started).Round(time.Millisecond)

	lines := []string{
		titleStyle.Render("pixpress"),
		labelStyle.Render(fmt.Sprintf("Files: %d/%d", m.completed, m.total)) +
			dimStyle.Render(fmt.Sprintf("  errors:%d skipped:%d", m.failed, m.skipped)),
		labelStyle.Render("Space saved: " + processor.HumanSize(max(m.bytesSaved, 0))),
		dimStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed)),
		barStyle.Render(renderBar(barWidth, ratio)),
	}

	if queue := m.queue(); len(queue) > 0 {
		lines = append(lines, "", headingStyle.Render("Queue"))
		for _, name := range queue {
			lines = append(lines, dimStyle.Render("  "+name))
		}
	}

	if len(m.log) > 0 {
		lines = append(lines, "", headingStyle.Render("Log"))
		lines = append(lines, m.log...)
	}

	return strings.Join(lines, "\n")
}

// queue lists the next few jobs still waiting for a result.
func (m Model) queue() []string {
	if m.completed >= len(m.jobs) {
		return nil
	}
	rest := m.jobs[m.completed:]
	if len(rest) > queueLines {
		rest = rest[:queueLines]
	}
	return rest
}

// LogLine is the log-panel rendering of one result.
func LogLine(res processor.Result) string {
	switch res.Status {
	case processor.StatusSuccess:
		return successStyle.Render(fmt.Sprintf("SUCCESS: %s -> %s", res.InputName, res.OutputName))
	case processor.StatusSkipped:
		return warnStyle.Render(fmt.Sprintf("SKIPPED: %s (%s)", res.InputName, res.Reason))
	default:
		return warnStyle.Render(fmt.Sprintf("ERROR: Compressing %v", res.Err))
	}
}

func listenForUpdates(updates <-chan processor.Progress) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return progressMsg(update)
	}
}

func renderBar(width int, ratio float64) string {
	filled := int(math.Round(ratio * float64(width)))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	headingStyle = lipgloss.NewStyle().Foreground(ColorAccentAlt)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	barStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	successStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	warnStyle    = lipgloss.NewStyle().Foreground(ColorWarn)
)
