// Package metric holds the per-file metrics record produced by the
// analysis engine and the aggregates computed over a set of records.
//
// Formulas follow the classic definitions:
//
//	Halstead:  N = N1 + N2, n = n1 + n2, V = N log2 n,
//	           D = (n1/2)(N2/n2), L = 1/D, E = V·D,
//	           T = E/18, B = E^(2/3)/3000, I = L·V
//	MI:        MIwoC = max((171 - 5.2 ln V - 0.23 CCN - 16.2 ln LLOC)·100/171, 0)
//	           CW    = 50 sin(sqrt(2.4 · CLOC/LOC))
//	           MI    = MIwoC + CW
package metric

// Language identifies the source language of an analyzed file.
type Language string

// Supported languages.
const (
	LangGo  Language = "go"
	LangPHP Language = "php"
)

// Record is the metrics record for a single analyzed file.
type Record struct {
	// Name is the absolute path of the file.
	Name string `json:"name"`

	Language Language `json:"language"`

	// LOC is the total number of lines.
	LOC int `json:"loc"`

	// LLOC counts lines carrying at least one code token.
	LLOC int `json:"lloc"`

	// CLOC counts lines carrying at least one comment.
	CLOC int `json:"cloc"`

	Blank int `json:"blank"`

	// Functions is the number of functions and methods declared.
	Functions int `json:"functions"`

	// CCN is the cyclomatic complexity of the file: one plus every
	// decision point of every function.
	CCN int `json:"ccn"`

	// MaxFunctionCCN is the highest complexity of a single function.
	MaxFunctionCCN int `json:"max_function_ccn"`

	Halstead Halstead `json:"halstead"`

	MI            float64 `json:"mi"`
	MIwoC         float64 `json:"mi_without_comments"`
	CommentWeight float64 `json:"comment_weight"`

	Violations []Violation `json:"violations"`
}

// Halstead holds Halstead size and complexity measures.
type Halstead struct {
	DistinctOperators int `json:"distinct_operators"`
	DistinctOperands  int `json:"distinct_operands"`
	TotalOperators    int `json:"total_operators"`
	TotalOperands     int `json:"total_operands"`

	Length     int `json:"length"`
	Vocabulary int `json:"vocabulary"`

	Volume             float64 `json:"volume"`
	Difficulty         float64 `json:"difficulty"`
	Level              float64 `json:"level"`
	Effort             float64 `json:"effort"`
	Time               float64 `json:"time"`
	Bugs               float64 `json:"bugs"`
	IntelligentContent float64 `json:"intelligent_content"`
}

// Finish derives the maintainability measures from the record's
// counts and Halstead volume. Analyzers call it once all counts are set.
func (r *Record) Finish() {
	r.MIwoC, r.CommentWeight, r.MI = Maintainability(r.Halstead.Volume, r.CCN, r.LLOC, r.CLOC, r.LOC)
}
