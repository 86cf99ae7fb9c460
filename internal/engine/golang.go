package engine

import (
	"context"
	"fmt"
	"go/parser"
	"go/scanner"
	"go/token"
	"strings"

	"github.com/fzipp/gocyclo"

	"github.com/unbound-force/metricsbar/internal/metric"
)

// GoAnalyzer measures Go source files. Complexity comes from gocyclo;
// Halstead counts and line classes come from a token scan.
type GoAnalyzer struct{}

// NewGoAnalyzer returns the Go file analyzer.
func NewGoAnalyzer() *GoAnalyzer { return &GoAnalyzer{} }

func (a *GoAnalyzer) Language() metric.Language { return metric.LangGo }

func (a *GoAnalyzer) Extensions() []string { return []string{".go"} }

// AnalyzeFile parses src and computes its record. Files that do not
// parse are reported as errors.
func (a *GoAnalyzer) AnalyzeFile(_ context.Context, path string, src []byte) (*metric.Record, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	rec := &metric.Record{Name: path, Language: metric.LangGo}
	rec.LOC, rec.Blank = countLines(src)

	stats := gocyclo.AnalyzeASTFile(f, fset, nil)
	rec.Functions = len(stats)
	rec.CCN = 1
	for _, s := range stats {
		rec.CCN += s.Complexity - 1
		if s.Complexity > rec.MaxFunctionCCN {
			rec.MaxFunctionCCN = s.Complexity
		}
	}

	counter, code, comments := scanGo(path, src)
	rec.Halstead = counter.Compute()
	rec.LLOC = len(code)
	rec.CLOC = len(comments)

	return rec, nil
}

// scanGo tokenizes src, counting operators and operands and recording
// which lines carry code and which carry comments. Keywords and
// operator or delimiter tokens are operators; identifiers and literals
// are operands. Automatically inserted semicolons are ignored.
func scanGo(path string, src []byte) (*metric.HalsteadCounter, map[int]bool, map[int]bool) {
	counter := metric.NewHalsteadCounter()
	code := make(map[int]bool)
	comments := make(map[int]bool)

	fset := token.NewFileSet()
	file := fset.AddFile(path, fset.Base(), len(src))

	var s scanner.Scanner
	s.Init(file, src, nil, scanner.ScanComments)

	mark := func(set map[int]bool, line int, lit string) {
		end := line + strings.Count(lit, "\n")
		for l := line; l <= end; l++ {
			set[l] = true
		}
	}

	for {
		pos, tok, lit := s.Scan()
		if tok == token.EOF {
			break
		}
		line := file.Line(pos)

		switch {
		case tok == token.COMMENT:
			mark(comments, line, lit)
		case tok == token.SEMICOLON && lit == "\n":
			continue
		case tok.IsLiteral():
			counter.Operand(lit)
			mark(code, line, lit)
		case tok.IsOperator() || tok.IsKeyword():
			counter.Operator(tok.String())
			code[line] = true
		}
	}

	return counter, code, comments
}
