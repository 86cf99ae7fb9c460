package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/unbound-force/metricsbar/internal/collector"
	"github.com/unbound-force/metricsbar/internal/engine"
	"github.com/unbound-force/metricsbar/internal/metric"
)

// TextOptions controls optional text report sections.
type TextOptions struct {
	// MinMaintainability colors MI values below it as failing.
	// Zero disables coloring.
	MinMaintainability float64

	// Verbose lists every violation with its description.
	Verbose bool
}

// WriteText writes the panel as human-readable styled text using the
// default maintainability threshold.
func WriteText(w io.Writer, view *collector.View) error {
	return WriteTextOptions(w, view, TextOptions{
		MinMaintainability: engine.DefaultThresholds().MinMaintainability,
	})
}

// WriteTextOptions writes the panel as styled text. Output uses
// lipgloss for color and formatting when the output is a TTY; degrades
// gracefully for pipes and CI.
func WriteTextOptions(w io.Writer, view *collector.View, opts TextOptions) error {
	if view == nil {
		return fmt.Errorf("no panel to report")
	}
	s := DefaultStyles()

	fmt.Fprintln(w, s.Header.Render(fmt.Sprintf("=== Code metrics (%s) ===", view.Name)))
	if !view.CollectedAt.IsZero() {
		fmt.Fprintln(w, s.SubHeader.Render(fmt.Sprintf("    collected %s",
			view.CollectedAt.Format("2006-01-02 15:04:05"))))
	}
	fmt.Fprintln(w)

	writeSummary(w, view, s)

	if len(view.Records) == 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, s.Muted.Render("    No files analyzed."))
	} else {
		fmt.Fprintln(w)
		writeRecords(w, view.Records, opts, s)
	}

	if opts.Verbose {
		writeViolations(w, view.Records, s)
	}

	fmt.Fprintf(w, "\n%s\n", s.Header.Render(fmt.Sprintf(
		"%d file(s) analyzed, %d violation(s) detected",
		view.FileCount, view.Violations.Total())))
	return nil
}

func writeSummary(w io.Writer, view *collector.View, s Styles) {
	line := func(label, value string) {
		fmt.Fprintf(w, "    %s%s\n", s.SummaryLabel.Render(label), s.SummaryValue.Render(value))
	}
	line("Maintainability index", fmt.Sprintf("%.2f", view.MaintainabilityIndex))
	line("Complexity", fmt.Sprintf("%.2f", view.Complexity))
	line("Comment weight", fmt.Sprintf("%.2f", view.CommentWeight))
	line("Lines of code", fmt.Sprintf("%d", view.LinesOfCode))
	line("Logical lines of code", fmt.Sprintf("%d", view.LogicalLinesOfCode))
	line("Comment lines of code", fmt.Sprintf("%d", view.CommentLinesOfCode))
	line("Bugs", fmt.Sprintf("%.3f", view.Bugs))
	line("Difficulty", fmt.Sprintf("%.2f", view.Difficulty))
	line("Intelligent content", fmt.Sprintf("%.2f", view.IntelligentContent))
	line("Vocabulary", fmt.Sprintf("%.2f", view.Vocabulary))
}

// shortenPath keeps the tail of p within max runes.
func shortenPath(p string, max int) string {
	r := []rune(filepath.ToSlash(p))
	if len(r) <= max {
		return string(r)
	}
	return "..." + string(r[len(r)-(max-3):])
}

func writeRecords(w io.Writer, records []*metric.Record, opts TextOptions, s Styles) {
	// Budget: 76 cols. Borders take 7, cell padding 6.
	// FILE=30, LOC=6, LLOC=6, CCN=5, MI=7, BUGS=6, VIOL=5.
	const maxFile = 30
	rows := make([][]string, 0, len(records))
	failing := make([]bool, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			shortenPath(r.Name, maxFile),
			fmt.Sprintf("%d", r.LOC),
			fmt.Sprintf("%d", r.LLOC),
			fmt.Sprintf("%d", r.CCN),
			fmt.Sprintf("%.1f", r.MI),
			fmt.Sprintf("%.2f", r.Halstead.Bugs),
			fmt.Sprintf("%d", len(r.Violations)),
		})
		failing = append(failing, opts.MinMaintainability > 0 && r.MI < opts.MinMaintainability)
	}

	t := table.New().
		Width(76).
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.TableHeader
			}
			if col == 4 && row >= 0 && row < len(rows) && opts.MinMaintainability > 0 {
				if failing[row] {
					return s.MIBad
				}
				return s.MIGood
			}
			return s.TableCell
		}).
		Headers("FILE", "LOC", "LLOC", "CCN", "MI", "BUGS", "VIOL").
		Rows(rows...)

	fmt.Fprintln(w, t)
}

func writeViolations(w io.Writer, records []*metric.Record, s Styles) {
	var lines []string
	for _, r := range records {
		for _, v := range r.Violations {
			level := s.LevelStyle(v.Level).Render(fmt.Sprintf("%-8s", v.Level))
			lines = append(lines, fmt.Sprintf("    %s %s: %s",
				level, shortenPath(r.Name, 40), v.Name))
			if v.Description != "" {
				lines = append(lines, s.Muted.Render("             "+v.Description))
			}
		}
	}
	if len(lines) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, s.Header.Render("Violations"))
	fmt.Fprintln(w, strings.Join(lines, "\n"))
}
