package collector

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/unbound-force/metricsbar/internal/metric"
)

// MarshalJSON encodes the stored snapshot.
func (c *Collector) MarshalJSON() ([]byte, error) {
	s, err := c.Snapshot()
	if err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

// errEmptySnapshot is returned when decoded data carries neither files
// nor metrics, as for JSON null or an empty object.
var errEmptySnapshot = errors.New("code metrics snapshot has no files and no metrics")

// UnmarshalJSON restores a snapshot encoded by MarshalJSON, leaving the
// collector in the collected state.
func (c *Collector) UnmarshalJSON(data []byte) error {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding code metrics snapshot: %w", err)
	}
	if s.Files == nil && s.Metrics == nil {
		return errEmptySnapshot
	}
	if s.Files == nil {
		s.Files = []string{}
	}
	if s.Metrics == nil {
		s.Metrics = metric.NewCollection()
	}
	if s.Consolidated == nil {
		s.Consolidated = metric.NewConsolidated(s.Metrics)
	}
	c.snap.Store(&s)
	return nil
}

// Decode restores a serialized collector and returns its View. It is
// the toolbar panel decoder for Name.
func Decode(raw json.RawMessage) (any, error) {
	var c Collector
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return c.View()
}
