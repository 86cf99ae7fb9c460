// Package report renders a collected code metrics panel as JSON or as
// human-readable text.
package report

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/unbound-force/metricsbar/internal/collector"
)

// JSONReport is the top-level JSON output structure.
type JSONReport struct {
	Version string          `json:"version"`
	Panel   *collector.View `json:"panel"`
}

// WriteJSON writes the panel as formatted JSON to the writer.
func WriteJSON(w io.Writer, view *collector.View, version string) error {
	if view == nil {
		return errors.New("no panel to report")
	}
	report := JSONReport{
		Version: version,
		Panel:   view,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
