package cmd

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"pixpress/internal/metadata"
	"pixpress/internal/tui"
	"pixpress/pkg/imgutil"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <path>",
	Short: "List the metadata --strip-exif would drop, without modifying files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := inspectTargets(args[0])
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no images found in %s", args[0])
		}

		out := cmd.OutOrStdout()
		for i, path := range files {
			if i > 0 {
				fmt.Fprintln(out)
			}
			report, err := metadata.InspectFile(path)
			if err != nil {
				fmt.Fprintf(out, "%s\n  %s %s\n", inspectFileStyle.Render(path),
					inspectBulletStyle.Render("-"), inspectWarnStyle.Render(err.Error()))
				continue
			}
			printReport(out, path, report)
		}
		return nil
	},
}

// inspectTargets expands path into the image files below it. A plain file
// is returned as-is so unsupported types still get an error line.
func inspectTargets(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if kind, err := imgutil.SniffFile(p); err == nil && kind != imgutil.KindUnknown {
			files = append(files, p)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

func printReport(out io.Writer, path string, report metadata.Report) {
	fmt.Fprintf(out, "%s %s\n", inspectFileStyle.Render(path), inspectDimStyle.Render("("+report.Kind.String()+")"))
	if report.Empty() {
		fmt.Fprintf(out, "  %s %s\n", inspectBulletStyle.Render("-"), inspectDimStyle.Render("none"))
		return
	}

	fmt.Fprintf(out, "  %s\n", inspectDimStyle.Render(fmt.Sprintf("%d EXIF tag(s), %d text chunk(s)", report.ExifTags, report.TextChunks)))
	for _, category := range report.Categories {
		if len(category.Values) == 0 {
			continue
		}
		fmt.Fprintf(out, "  %s\n", inspectCategoryStyle.Render(category.Name+":"))
		for _, value := range category.Values {
			fmt.Fprintf(out, "    %s %s\n", inspectBulletStyle.Render("-"), inspectValueStyle.Render(value))
		}
	}
	for _, insight := range report.Insights() {
		fmt.Fprintf(out, "  %s %s\n", inspectWarnStyle.Render(insight.Kind+":"), inspectValueStyle.Render(insight.Message))
	}
}

var (
	inspectFileStyle     = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	inspectCategoryStyle = lipgloss.NewStyle().Foreground(tui.ColorAccentAlt)
	inspectValueStyle    = lipgloss.NewStyle().Foreground(tui.ColorInk)
	inspectWarnStyle     = lipgloss.NewStyle().Foreground(tui.ColorWarn)
	inspectDimStyle      = lipgloss.NewStyle().Foreground(tui.ColorDim)
	inspectBulletStyle   = lipgloss.NewStyle().Foreground(tui.ColorDim)
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}
