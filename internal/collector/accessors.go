package collector

import (
	"time"

	"github.com/unbound-force/metricsbar/internal/metric"
)

// average reads one measure of the average aggregate.
func (c *Collector) average(get func(metric.Aggregate) float64) (float64, error) {
	s, err := c.Snapshot()
	if err != nil {
		return 0, err
	}
	return get(s.Average), nil
}

// sum reads one measure of the sum aggregate.
func (c *Collector) sum(get func(metric.Aggregate) float64) (int, error) {
	s, err := c.Snapshot()
	if err != nil {
		return 0, err
	}
	return int(get(s.Sum)), nil
}

// Metrics returns the per-file metrics collection.
func (c *Collector) Metrics() (*metric.Collection, error) {
	s, err := c.Snapshot()
	if err != nil {
		return nil, err
	}
	return s.Metrics, nil
}

// Summary returns the consolidated average and sum.
func (c *Collector) Summary() (*metric.Consolidated, error) {
	s, err := c.Snapshot()
	if err != nil {
		return nil, err
	}
	return s.Consolidated, nil
}

// MaintainabilityIndex returns the average maintainability index.
func (c *Collector) MaintainabilityIndex() (float64, error) {
	return c.average(func(a metric.Aggregate) float64 { return a.MI })
}

// Complexity returns the average cyclomatic complexity.
func (c *Collector) Complexity() (float64, error) {
	return c.average(func(a metric.Aggregate) float64 { return a.CCN })
}

// CommentWeight returns the average comment weight.
func (c *Collector) CommentWeight() (float64, error) {
	return c.average(func(a metric.Aggregate) float64 { return a.CommentWeight })
}

// LinesOfCode returns the total number of lines.
func (c *Collector) LinesOfCode() (int, error) {
	return c.sum(func(a metric.Aggregate) float64 { return a.LOC })
}

// LogicalLinesOfCode returns the total number of logical lines.
func (c *Collector) LogicalLinesOfCode() (int, error) {
	return c.sum(func(a metric.Aggregate) float64 { return a.LLOC })
}

// CommentLinesOfCode returns the total number of comment lines.
func (c *Collector) CommentLinesOfCode() (int, error) {
	return c.sum(func(a metric.Aggregate) float64 { return a.CLOC })
}

// Bugs returns the average estimated number of bugs.
func (c *Collector) Bugs() (float64, error) {
	return c.average(func(a metric.Aggregate) float64 { return a.Bugs })
}

// Difficulty returns the average Halstead difficulty.
func (c *Collector) Difficulty() (float64, error) {
	return c.average(func(a metric.Aggregate) float64 { return a.Difficulty })
}

// IntelligentContent returns the average Halstead intelligent content.
func (c *Collector) IntelligentContent() (float64, error) {
	return c.average(func(a metric.Aggregate) float64 { return a.IntelligentContent })
}

// Vocabulary returns the Halstead vocabulary summed over every record
// and divided by the number of filtered files, or 0 when no file was
// kept.
func (c *Collector) Vocabulary() (float64, error) {
	s, err := c.Snapshot()
	if err != nil {
		return 0, err
	}
	return vocabulary(s), nil
}

func vocabulary(s *Snapshot) float64 {
	if len(s.Files) == 0 {
		return 0
	}
	total := 0
	for _, r := range s.Metrics.All() {
		total += r.Halstead.Vocabulary
	}
	return float64(total) / float64(len(s.Files))
}

// FileCount returns the number of filtered files.
func (c *Collector) FileCount() (int, error) {
	s, err := c.Snapshot()
	if err != nil {
		return 0, err
	}
	return len(s.Files), nil
}

// Files returns a copy of the filtered file list.
func (c *Collector) Files() ([]string, error) {
	s, err := c.Snapshot()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(s.Files))
	copy(out, s.Files)
	return out, nil
}

// View is every readout of a collected panel, computed from one
// snapshot.
type View struct {
	Name string `json:"name"`

	FileCount int      `json:"file_count"`
	Files     []string `json:"files"`

	MaintainabilityIndex float64 `json:"maintainability_index"`
	Complexity           float64 `json:"complexity"`
	CommentWeight        float64 `json:"comment_weight"`
	LinesOfCode          int     `json:"lines_of_code"`
	LogicalLinesOfCode   int     `json:"logical_lines_of_code"`
	CommentLinesOfCode   int     `json:"comment_lines_of_code"`
	Bugs                 float64 `json:"bugs"`
	Difficulty           float64 `json:"difficulty"`
	IntelligentContent   float64 `json:"intelligent_content"`
	Vocabulary           float64 `json:"vocabulary"`

	Average    metric.Aggregate       `json:"average"`
	Sum        metric.Aggregate       `json:"sum"`
	Violations metric.ViolationCounts `json:"violations"`
	Records    []*metric.Record       `json:"records"`

	CollectedAt time.Time `json:"collected_at"`
}

// View returns every readout of the stored snapshot.
func (c *Collector) View() (*View, error) {
	s, err := c.Snapshot()
	if err != nil {
		return nil, err
	}
	files := make([]string, len(s.Files))
	copy(files, s.Files)

	return &View{
		Name:                 Name,
		FileCount:            len(s.Files),
		Files:                files,
		MaintainabilityIndex: s.Average.MI,
		Complexity:           s.Average.CCN,
		CommentWeight:        s.Average.CommentWeight,
		LinesOfCode:          int(s.Sum.LOC),
		LogicalLinesOfCode:   int(s.Sum.LLOC),
		CommentLinesOfCode:   int(s.Sum.CLOC),
		Bugs:                 s.Average.Bugs,
		Difficulty:           s.Average.Difficulty,
		IntelligentContent:   s.Average.IntelligentContent,
		Vocabulary:           vocabulary(s),
		Average:              s.Average,
		Sum:                  s.Sum,
		Violations:           s.Consolidated.Violations,
		Records:              s.Metrics.All(),
		CollectedAt:          s.CollectedAt,
	}, nil
}
