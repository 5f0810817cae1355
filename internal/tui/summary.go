package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"pixpress/internal/processor"
)

type SummaryRow struct {
	Label string
	Value string
}

// SummaryRows is the standard end-of-run table for a batch.
func SummaryRows(s processor.Summary) []SummaryRow {
	saved := s.BytesSaved()
	savedLabel := processor.HumanSize(saved)
	if saved < 0 {
		savedLabel = "-" + processor.HumanSize(-saved)
	}

	ratio := "n/a"
	if s.BytesIn > 0 {
		ratio = fmt.Sprintf("%.1f%%", 100*float64(s.BytesOut)/float64(s.BytesIn))
	}

	return []SummaryRow{
		{Label: "Images compressed", Value: fmt.Sprintf("%d/%d", s.Succeeded, s.Total)},
		{Label: "Skipped", Value: fmt.Sprintf("%d", s.Skipped)},
		{Label: "Failed", Value: fmt.Sprintf("%d", s.Failed)},
		{Label: "Space saved", Value: savedLabel},
		{Label: "Output/input size", Value: ratio},
		{Label: "Elapsed", Value: s.Elapsed.Round(time.Millisecond).String()},
	}
}

func RenderSummary(rows []SummaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		labelWidth = max(labelWidth, len(row.Label))
		valueWidth = max(valueWidth, len(row.Value))
	}

	hline := strings.Repeat("-", labelWidth+valueWidth+3)
	lines := []string{hline}

	for _, row := range rows {
		label := padRight(row.Label, labelWidth)
		value := padRight(row.Value, valueWidth)
		lines = append(lines, fmt.Sprintf("%s | %s", labelStyle.Render(label), valueStyle.Render(value)))
	}

	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

var valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
