package metric

import (
	"encoding/json"
	"fmt"
)

// Level is the severity of a violation.
type Level int

// Violation levels, from least to most severe.
const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
	LevelCritical
)

var levelNames = map[Level]string{
	LevelInfo:     "info",
	LevelWarning:  "warning",
	LevelError:    "error",
	LevelCritical: "critical",
}

func (l Level) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// MarshalJSON encodes the level by name.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON decodes a level name.
func (l *Level) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for lvl, name := range levelNames {
		if name == s {
			*l = lvl
			return nil
		}
	}
	return fmt.Errorf("unknown violation level %q", s)
}

// Violation is a rule breach attached to a record.
type Violation struct {
	Name        string `json:"name"`
	Level       Level  `json:"level"`
	Description string `json:"description"`
}

// ViolationCounts tallies violations by level.
type ViolationCounts struct {
	Info     int `json:"info"`
	Warning  int `json:"warning"`
	Error    int `json:"error"`
	Critical int `json:"critical"`
}

// Add counts one violation of the given level.
func (c *ViolationCounts) Add(l Level) {
	switch l {
	case LevelInfo:
		c.Info++
	case LevelWarning:
		c.Warning++
	case LevelError:
		c.Error++
	case LevelCritical:
		c.Critical++
	}
}

// Total returns the number of violations across all levels.
func (c ViolationCounts) Total() int {
	return c.Info + c.Warning + c.Error + c.Critical
}
