package report

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/unbound-force/metricsbar/internal/metric"
)

// Styles defines the visual theme for terminal report output.
// Lipgloss automatically degrades to no-color when output is not a TTY.
type Styles struct {
	// Header is used for section headers.
	Header lipgloss.Style

	// SubHeader is used for secondary information lines.
	SubHeader lipgloss.Style

	// LevelInfo through LevelCritical color-code violations.
	LevelInfo     lipgloss.Style
	LevelWarning  lipgloss.Style
	LevelError    lipgloss.Style
	LevelCritical lipgloss.Style

	// TableHeader styles the header row of tables.
	TableHeader lipgloss.Style

	// TableCell styles regular table cells.
	TableCell lipgloss.Style

	// MIBad styles maintainability below the configured minimum.
	MIBad lipgloss.Style

	// MIGood styles maintainability at or above the minimum.
	MIGood lipgloss.Style

	SummaryLabel lipgloss.Style
	SummaryValue lipgloss.Style

	// Border is used for table borders.
	Border lipgloss.Style

	// Muted is used for de-emphasized text.
	Muted lipgloss.Style
}

// DefaultStyles returns the default color scheme for terminal reports.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		SubHeader: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),

		LevelInfo:     lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
		LevelWarning:  lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		LevelError:    lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		LevelCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),

		TableHeader: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		TableCell:   lipgloss.NewStyle().PaddingRight(1),

		MIBad:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true).PaddingRight(1),
		MIGood: lipgloss.NewStyle().Foreground(lipgloss.Color("40")).PaddingRight(1),

		SummaryLabel: lipgloss.NewStyle().Bold(true).Width(24),
		SummaryValue: lipgloss.NewStyle(),

		Border: lipgloss.NewStyle().Foreground(lipgloss.Color("63")),

		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// LevelStyle returns the style for a violation level.
func (s Styles) LevelStyle(l metric.Level) lipgloss.Style {
	switch l {
	case metric.LevelInfo:
		return s.LevelInfo
	case metric.LevelWarning:
		return s.LevelWarning
	case metric.LevelError:
		return s.LevelError
	case metric.LevelCritical:
		return s.LevelCritical
	default:
		return s.Muted
	}
}
