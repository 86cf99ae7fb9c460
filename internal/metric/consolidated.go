package metric

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Aggregate is an average or sum record over a collection. Only numeric
// measures are kept.
type Aggregate struct {
	LOC            float64 `json:"loc"`
	LLOC           float64 `json:"lloc"`
	CLOC           float64 `json:"cloc"`
	Blank          float64 `json:"blank"`
	Functions      float64 `json:"functions"`
	CCN            float64 `json:"ccn"`
	MaxFunctionCCN float64 `json:"max_function_ccn"`

	Length             float64 `json:"length"`
	Vocabulary         float64 `json:"vocabulary"`
	Volume             float64 `json:"volume"`
	Difficulty         float64 `json:"difficulty"`
	Effort             float64 `json:"effort"`
	Time               float64 `json:"time"`
	Bugs               float64 `json:"bugs"`
	IntelligentContent float64 `json:"intelligent_content"`

	MI            float64 `json:"mi"`
	MIwoC         float64 `json:"mi_without_comments"`
	CommentWeight float64 `json:"comment_weight"`
}

// Consolidated holds the average and sum of a collection together with
// violation totals. An empty collection consolidates to all-zero
// aggregates.
type Consolidated struct {
	Files      int             `json:"files"`
	Avg        Aggregate       `json:"avg"`
	Total      Aggregate       `json:"sum"`
	Violations ViolationCounts `json:"violations"`
}

// Average returns the average record.
func (c *Consolidated) Average() Aggregate { return c.Avg }

// Sum returns the sum record.
func (c *Consolidated) Sum() Aggregate { return c.Total }

// field extracts one measure from a record.
type field struct {
	get func(r *Record) float64
	set func(a *Aggregate, v float64)
}

var fields = []field{
	{func(r *Record) float64 { return float64(r.LOC) }, func(a *Aggregate, v float64) { a.LOC = v }},
	{func(r *Record) float64 { return float64(r.LLOC) }, func(a *Aggregate, v float64) { a.LLOC = v }},
	{func(r *Record) float64 { return float64(r.CLOC) }, func(a *Aggregate, v float64) { a.CLOC = v }},
	{func(r *Record) float64 { return float64(r.Blank) }, func(a *Aggregate, v float64) { a.Blank = v }},
	{func(r *Record) float64 { return float64(r.Functions) }, func(a *Aggregate, v float64) { a.Functions = v }},
	{func(r *Record) float64 { return float64(r.CCN) }, func(a *Aggregate, v float64) { a.CCN = v }},
	{func(r *Record) float64 { return float64(r.MaxFunctionCCN) }, func(a *Aggregate, v float64) { a.MaxFunctionCCN = v }},
	{func(r *Record) float64 { return float64(r.Halstead.Length) }, func(a *Aggregate, v float64) { a.Length = v }},
	{func(r *Record) float64 { return float64(r.Halstead.Vocabulary) }, func(a *Aggregate, v float64) { a.Vocabulary = v }},
	{func(r *Record) float64 { return r.Halstead.Volume }, func(a *Aggregate, v float64) { a.Volume = v }},
	{func(r *Record) float64 { return r.Halstead.Difficulty }, func(a *Aggregate, v float64) { a.Difficulty = v }},
	{func(r *Record) float64 { return r.Halstead.Effort }, func(a *Aggregate, v float64) { a.Effort = v }},
	{func(r *Record) float64 { return r.Halstead.Time }, func(a *Aggregate, v float64) { a.Time = v }},
	{func(r *Record) float64 { return r.Halstead.Bugs }, func(a *Aggregate, v float64) { a.Bugs = v }},
	{func(r *Record) float64 { return r.Halstead.IntelligentContent }, func(a *Aggregate, v float64) { a.IntelligentContent = v }},
	{func(r *Record) float64 { return r.MI }, func(a *Aggregate, v float64) { a.MI = v }},
	{func(r *Record) float64 { return r.MIwoC }, func(a *Aggregate, v float64) { a.MIwoC = v }},
	{func(r *Record) float64 { return r.CommentWeight }, func(a *Aggregate, v float64) { a.CommentWeight = v }},
}

// NewConsolidated computes the average and sum of every record in c.
func NewConsolidated(c *Collection) *Consolidated {
	records := c.All()
	out := &Consolidated{Files: len(records)}

	for _, r := range records {
		for _, v := range r.Violations {
			out.Violations.Add(v.Level)
		}
	}

	if len(records) == 0 {
		return out
	}

	values := make([]float64, len(records))
	for _, f := range fields {
		for i, r := range records {
			values[i] = f.get(r)
		}
		f.set(&out.Total, floats.Sum(values))
		f.set(&out.Avg, stat.Mean(values, nil))
	}

	return out
}
