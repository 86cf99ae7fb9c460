package metric

import "math"

// HalsteadCounter accumulates operator and operand occurrences.
type HalsteadCounter struct {
	operators map[string]int
	operands  map[string]int
	nOps      int
	nOpnds    int
}

// NewHalsteadCounter returns an empty counter.
func NewHalsteadCounter() *HalsteadCounter {
	return &HalsteadCounter{
		operators: make(map[string]int),
		operands:  make(map[string]int),
	}
}

// Operator records one occurrence of an operator.
func (c *HalsteadCounter) Operator(op string) {
	c.operators[op]++
	c.nOps++
}

// Operand records one occurrence of an operand.
func (c *HalsteadCounter) Operand(v string) {
	c.operands[v]++
	c.nOpnds++
}

// Compute returns the Halstead measures for the counted occurrences.
func (c *HalsteadCounter) Compute() Halstead {
	return ComputeHalstead(len(c.operators), len(c.operands), c.nOps, c.nOpnds)
}

// ComputeHalstead derives the Halstead measures from distinct (n1, n2)
// and total (N1, N2) operator and operand counts. Without operands every
// measure is zero.
func ComputeHalstead(n1, n2, bigN1, bigN2 int) Halstead {
	if n2 == 0 || bigN2 == 0 {
		return Halstead{}
	}

	h := Halstead{
		DistinctOperators: n1,
		DistinctOperands:  n2,
		TotalOperators:    bigN1,
		TotalOperands:     bigN2,
		Length:            bigN1 + bigN2,
		Vocabulary:        n1 + n2,
	}

	h.Volume = float64(h.Length) * math.Log2(float64(h.Vocabulary))
	h.Difficulty = (float64(n1) / 2) * (float64(bigN2) / float64(n2))
	if h.Difficulty > 0 {
		h.Level = 1 / h.Difficulty
	}
	h.Effort = h.Volume * h.Difficulty
	h.Time = h.Effort / 18
	h.Bugs = math.Pow(h.Effort, 2.0/3.0) / 3000
	h.IntelligentContent = h.Level * h.Volume
	return h
}

// Maintainability computes the maintainability index without comments,
// the comment weight and the full index.
func Maintainability(volume float64, ccn, lloc, cloc, loc int) (miwoc, commentWeight, mi float64) {
	miwoc = (171 - 5.2*math.Log(volume) - 0.23*float64(ccn) - 16.2*math.Log(float64(lloc))) * 100 / 171
	switch {
	case math.IsInf(miwoc, 0) || math.IsNaN(miwoc):
		// ln(0): an empty file or a file without operands.
		miwoc = 171
	case miwoc < 0:
		miwoc = 0
	}

	if loc > 0 {
		cm := float64(cloc) / float64(loc)
		commentWeight = 50 * math.Sin(math.Sqrt(2.4*cm))
	}

	return miwoc, commentWeight, miwoc + commentWeight
}
