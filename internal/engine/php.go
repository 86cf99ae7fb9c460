package engine

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"

	"github.com/unbound-force/metricsbar/internal/metric"
)

// PHPAnalyzer measures PHP source files using the tree-sitter PHP
// grammar. Syntax errors do not fail the analysis; the recovered tree
// is measured as is.
type PHPAnalyzer struct{}

// NewPHPAnalyzer returns the PHP file analyzer.
func NewPHPAnalyzer() *PHPAnalyzer { return &PHPAnalyzer{} }

func (a *PHPAnalyzer) Language() metric.Language { return metric.LangPHP }

func (a *PHPAnalyzer) Extensions() []string { return []string{".php", ".inc"} }

// phpDecisionNodes add one path each to the enclosing function.
var phpDecisionNodes = map[string]bool{
	"if_statement":                 true,
	"else_if_clause":               true,
	"while_statement":              true,
	"do_statement":                 true,
	"for_statement":                true,
	"foreach_statement":            true,
	"case_statement":               true,
	"catch_clause":                 true,
	"conditional_expression":       true,
	"match_conditional_expression": true,
}

// phpLogicalOperators are the binary operators that short-circuit.
var phpLogicalOperators = map[string]bool{
	"&&": true, "||": true, "and": true, "or": true, "xor": true, "??": true,
}

var phpFunctionNodes = map[string]bool{
	"function_definition":                    true,
	"method_declaration":                     true,
	"anonymous_function":                     true,
	"anonymous_function_creation_expression": true,
	"arrow_function":                         true,
}

// phpIgnoredLeaves are tokens that are neither operators nor operands.
var phpIgnoredLeaves = map[string]bool{
	"php_tag": true,
	"?>":      true,
	"text":    true,
	"$":       true,
}

// AnalyzeFile parses src and computes its record.
func (a *PHPAnalyzer) AnalyzeFile(ctx context.Context, path string, src []byte) (*metric.Record, error) {
	p := sitter.NewParser()
	p.SetLanguage(php.GetLanguage())

	tree, err := p.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	w := &phpWalker{
		src:      src,
		counter:  metric.NewHalsteadCounter(),
		code:     make(map[uint32]bool),
		comments: make(map[uint32]bool),
	}
	w.walk(tree.RootNode())

	rec := &metric.Record{Name: path, Language: metric.LangPHP}
	rec.LOC, rec.Blank = countLines(src)
	rec.LLOC = len(w.code)
	rec.CLOC = len(w.comments)
	rec.Functions = w.functions
	rec.CCN = 1 + w.decisions
	rec.MaxFunctionCCN = w.maxFunction
	rec.Halstead = w.counter.Compute()

	return rec, nil
}

// phpWalker accumulates counts over a PHP syntax tree.
type phpWalker struct {
	src      []byte
	counter  *metric.HalsteadCounter
	code     map[uint32]bool
	comments map[uint32]bool

	decisions   int
	functions   int
	maxFunction int

	// stack holds the decision count of each enclosing function.
	stack []int
}

func (w *phpWalker) walk(n *sitter.Node) {
	typ := n.Type()

	if typ == "comment" {
		markRows(w.comments, n)
		return
	}

	isFunc := phpFunctionNodes[typ]
	if isFunc {
		w.functions++
		w.stack = append(w.stack, 0)
	}

	if w.isDecision(n) {
		w.decisions++
		if len(w.stack) > 0 {
			w.stack[len(w.stack)-1]++
		}
	}

	if n.ChildCount() == 0 {
		w.leaf(n)
	} else {
		for i := 0; i < int(n.ChildCount()); i++ {
			w.walk(n.Child(i))
		}
	}

	if isFunc {
		ccn := 1 + w.stack[len(w.stack)-1]
		w.stack = w.stack[:len(w.stack)-1]
		if ccn > w.maxFunction {
			w.maxFunction = ccn
		}
	}
}

func (w *phpWalker) isDecision(n *sitter.Node) bool {
	typ := n.Type()
	if phpDecisionNodes[typ] {
		return true
	}
	if typ != "binary_expression" {
		return false
	}
	op := n.ChildByFieldName("operator")
	return op != nil && phpLogicalOperators[op.Type()]
}

func (w *phpWalker) leaf(n *sitter.Node) {
	typ := n.Type()
	if phpIgnoredLeaves[typ] || n.IsMissing() {
		return
	}
	content := n.Content(w.src)
	if content == "" {
		return
	}

	markRows(w.code, n)
	if n.IsNamed() {
		w.counter.Operand(content)
		return
	}
	w.counter.Operator(typ)
}

func markRows(set map[uint32]bool, n *sitter.Node) {
	for r := n.StartPoint().Row; r <= n.EndPoint().Row; r++ {
		set[r] = true
	}
}
