package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/unbound-force/metricsbar/internal/collector"
	"github.com/unbound-force/metricsbar/internal/metric"
)

// keyMap defines keybindings for the interactive TUI.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Quit     key.Binding
	Help     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Quit, k.Help},
	}
}

var defaultKeyMap = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("^/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("v/j", "down")),
	PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

// Styles for the TUI.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	tuiHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63"))

	tuiBorderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63"))

	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

// analyzeModel is the Bubble Tea model for browsing a collected panel.
type analyzeModel struct {
	view     *collector.View
	viewport viewport.Model
	help     help.Model
	keys     keyMap
	ready    bool
	content  string
}

func newAnalyzeModel(view *collector.View) analyzeModel {
	return analyzeModel{
		view:    view,
		help:    help.New(),
		keys:    defaultKeyMap,
		content: renderAnalyzeContent(view),
	}
}

// worstLevel returns the most severe violation level of r.
func worstLevel(r *metric.Record) (metric.Level, bool) {
	if len(r.Violations) == 0 {
		return 0, false
	}
	worst := r.Violations[0].Level
	for _, v := range r.Violations[1:] {
		if v.Level > worst {
			worst = v.Level
		}
	}
	return worst, true
}

func renderAnalyzeContent(view *collector.View) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(
		fmt.Sprintf("Code metrics: %d file(s), %d violation(s)",
			view.FileCount, view.Violations.Total())))
	sb.WriteString("\n\n")

	sb.WriteString(statusStyle.Render(fmt.Sprintf(
		"    MI %.2f  CCN %.2f  LOC %d  LLOC %d  CLOC %d  bugs %.3f  vocabulary %.2f",
		view.MaintainabilityIndex, view.Complexity,
		view.LinesOfCode, view.LogicalLinesOfCode, view.CommentLinesOfCode,
		view.Bugs, view.Vocabulary)))
	sb.WriteString("\n\n")

	if len(view.Records) == 0 {
		sb.WriteString(statusStyle.Render("    No files analyzed."))
		sb.WriteString("\n")
		return sb.String()
	}

	rows := make([][]string, 0, len(view.Records))
	levels := make([]metric.Level, 0, len(view.Records))
	flagged := make([]bool, 0, len(view.Records))
	for _, r := range view.Records {
		names := make([]string, 0, len(r.Violations))
		for _, v := range r.Violations {
			names = append(names, v.Name)
		}
		rows = append(rows, []string{
			r.Name,
			fmt.Sprintf("%d", r.LOC),
			fmt.Sprintf("%d", r.CCN),
			fmt.Sprintf("%.1f", r.MI),
			strings.Join(names, ", "),
		})
		lvl, ok := worstLevel(r)
		levels = append(levels, lvl)
		flagged = append(flagged, ok)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tuiBorderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tuiHeaderStyle
			}
			if col == 4 && row >= 0 && row < len(rows) && flagged[row] {
				if levels[row] >= metric.LevelError {
					return errorStyle
				}
				return warningStyle
			}
			return lipgloss.NewStyle()
		}).
		Headers("FILE", "LOC", "CCN", "MI", "VIOLATIONS").
		Rows(rows...)

	sb.WriteString(t.String())
	sb.WriteString("\n")
	return sb.String()
}

func (m analyzeModel) Init() tea.Cmd {
	return nil
}

func (m analyzeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		footerHeight := 2

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-footerHeight)
			m.viewport.SetContent(m.content)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - footerHeight
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m analyzeModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	footer := statusStyle.Render(
		fmt.Sprintf(" %3.f%% ", m.viewport.ScrollPercent()*100)) +
		" " + m.help.View(m.keys)

	return m.viewport.View() + "\n" + footer
}

// runInteractiveAnalyze launches the Bubble Tea TUI for browsing a
// collected panel.
func runInteractiveAnalyze(view *collector.View) error {
	model := newAnalyzeModel(view)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
