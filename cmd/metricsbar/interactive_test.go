package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unbound-force/metricsbar/internal/collector"
	"github.com/unbound-force/metricsbar/internal/metric"
)

func sampleView() *collector.View {
	return &collector.View{
		Name:      collector.Name,
		FileCount: 2,
		Files:     []string{"/src/a.go", "/src/b.php"},
		Records: []*metric.Record{
			{Name: "/src/a.go", LOC: 40, CCN: 3, MI: 88.5},
			{
				Name: "/src/b.php", LOC: 900, CCN: 61, MI: 31.2,
				Violations: []metric.Violation{
					{Name: "Too complex code", Level: metric.LevelError},
					{Name: "Low maintainability", Level: metric.LevelWarning},
				},
			},
		},
		Violations: metric.ViolationCounts{Warning: 1, Error: 1},
	}
}

// TestRenderAnalyzeContent_EmptyView verifies that a panel without
// files reports zero files and zero violations.
func TestRenderAnalyzeContent_EmptyView(t *testing.T) {
	output := renderAnalyzeContent(&collector.View{Name: collector.Name, Files: []string{}})

	if !strings.Contains(output, "0 file(s)") {
		t.Errorf("expected output to contain '0 file(s)', got:\n%s", output)
	}
	if !strings.Contains(output, "0 violation(s)") {
		t.Errorf("expected output to contain '0 violation(s)', got:\n%s", output)
	}
	if !strings.Contains(output, "No files analyzed") {
		t.Errorf("expected empty notice, got:\n%s", output)
	}
}

// TestRenderAnalyzeContent_WithRecords verifies that every record and
// its violations are rendered.
func TestRenderAnalyzeContent_WithRecords(t *testing.T) {
	output := renderAnalyzeContent(sampleView())

	for _, want := range []string{
		"2 file(s)", "2 violation(s)",
		"/src/a.go", "/src/b.php",
		"88.5", "31.2",
		"Too complex code, Low maintainability",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, output)
		}
	}
}

func TestWorstLevel(t *testing.T) {
	v := sampleView()
	if _, ok := worstLevel(v.Records[0]); ok {
		t.Error("record without violations has no worst level")
	}
	lvl, ok := worstLevel(v.Records[1])
	if !ok || lvl != metric.LevelError {
		t.Errorf("worstLevel = %v, %v; want error, true", lvl, ok)
	}
}

func TestAnalyzeModel_Lifecycle(t *testing.T) {
	m := newAnalyzeModel(sampleView())
	if m.View() != "Initializing..." {
		t.Errorf("View before sizing = %q", m.View())
	}

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = updated.(analyzeModel)
	if !m.ready {
		t.Fatal("model should be ready after a window size message")
	}
	if !strings.Contains(m.View(), "/src/a.go") {
		t.Errorf("viewport should show content, got:\n%s", m.View())
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	m = updated.(analyzeModel)
	if !m.help.ShowAll {
		t.Error("'?' should toggle full help")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("'q' should return a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("'q' should quit")
	}
}
