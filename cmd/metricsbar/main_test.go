package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	charmlog "github.com/charmbracelet/log"

	"github.com/unbound-force/metricsbar/internal/collector"
	"github.com/unbound-force/metricsbar/internal/report"
	"github.com/unbound-force/metricsbar/internal/toolbar"
)

const fixtureGo = `package shop

// Total sums the cart.
func Total(prices []int) int {
	sum := 0
	for _, p := range prices {
		if p > 0 {
			sum += p
		}
	}
	return sum
}
`

const fixturePHP = `<?php
function discount($price) {
    return $price > 100 ? $price * 0.9 : $price;
}
`

// setupProject writes a small project and a config whose markers only
// exclude vendor directories. Temporary directories carry the test
// name, which the default markers would exclude.
func setupProject(t *testing.T) (dir, cfgPath string) {
	t.Helper()
	dir = t.TempDir()
	files := map[string]string{
		"shop/total.go":          fixtureGo,
		"web/discount.php":       fixturePHP,
		"vendor/lib/ignored.php": fixturePHP,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	cfgPath = filepath.Join(dir, ".metricsbar.yaml")
	cfg := "exclude:\n  markers: [\"vendor\"]\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o600); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return dir, cfgPath
}

// ---------------------------------------------------------------------------
// runAnalyze tests
// ---------------------------------------------------------------------------

func TestRunAnalyze_InvalidFormat(t *testing.T) {
	err := runAnalyze(context.Background(), analyzeParams{
		format: "yaml",
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	})
	if err == nil {
		t.Fatal("expected error for invalid format")
	}
	if !strings.Contains(err.Error(), `invalid format "yaml"`) {
		t.Errorf("unexpected error message: %s", err)
	}
}

func TestRunAnalyze_TextFormat(t *testing.T) {
	dir, cfgPath := setupProject(t)
	var stdout, stderr bytes.Buffer
	err := runAnalyze(context.Background(), analyzeParams{
		cfgPath: cfgPath,
		roots:   []string{dir},
		format:  "text",
		stdout:  &stdout,
		stderr:  &stderr,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := stdout.String()
	for _, want := range []string{"total.go", "discount.php", "2 file(s) analyzed"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "ignored.php") {
		t.Errorf("vendor file should be excluded, got:\n%s", out)
	}
}

func TestRunAnalyze_JSONFormat(t *testing.T) {
	dir, cfgPath := setupProject(t)
	var stdout, stderr bytes.Buffer
	err := runAnalyze(context.Background(), analyzeParams{
		cfgPath: cfgPath,
		roots:   []string{dir},
		format:  "json",
		stdout:  &stdout,
		stderr:  &stderr,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var rpt report.JSONReport
	if err := json.Unmarshal(stdout.Bytes(), &rpt); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, stdout.String())
	}
	if rpt.Version != version {
		t.Errorf("version = %q, want %q", rpt.Version, version)
	}
	if rpt.Panel.FileCount != 2 || len(rpt.Panel.Files) != 2 {
		t.Errorf("panel has %d files, want 2: %v", rpt.Panel.FileCount, rpt.Panel.Files)
	}
	if rpt.Panel.Complexity <= 1 {
		t.Errorf("complexity = %v, want > 1", rpt.Panel.Complexity)
	}
}

func TestRunAnalyze_EmptyAfterExclusion(t *testing.T) {
	dir, _ := setupProject(t)
	// The default markers exclude the test-named temporary directory.
	t.Chdir(t.TempDir())
	var stdout bytes.Buffer
	err := runAnalyze(context.Background(), analyzeParams{
		roots:  []string{dir},
		format: "json",
		stdout: &stdout,
		stderr: &bytes.Buffer{},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rpt report.JSONReport
	if err := json.Unmarshal(stdout.Bytes(), &rpt); err != nil {
		t.Fatal(err)
	}
	if rpt.Panel.FileCount != 0 || rpt.Panel.Vocabulary != 0 {
		t.Errorf("panel = %d files, vocabulary %v; want 0, 0",
			rpt.Panel.FileCount, rpt.Panel.Vocabulary)
	}
}

func TestRunAnalyze_InvalidStrategy(t *testing.T) {
	err := runAnalyze(context.Background(), analyzeParams{
		strategy: "magic",
		format:   "text",
		stdout:   &bytes.Buffer{},
		stderr:   &bytes.Buffer{},
	})
	if err == nil {
		t.Fatal("expected error for invalid strategy")
	}
	if !strings.Contains(err.Error(), "sources.strategy") {
		t.Errorf("unexpected error message: %s", err)
	}
}

// ---------------------------------------------------------------------------
// loadConfig tests
// ---------------------------------------------------------------------------

func TestLoadConfig_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := loadConfig("", overrides{literal: true, roots: []string{"/src"}})
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if !cfg.Exclude.Literal {
		t.Error("literal override not applied")
	}
	if cfg.Sources.Strategy != "walk" || cfg.Sources.Roots[0] != "/src" {
		t.Errorf("roots should select the walk strategy, got %+v", cfg.Sources)
	}
}

func TestLoadConfig_NoOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := loadConfig("", overrides{})
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if cfg.Sources.Strategy != "binary" || cfg.Exclude.Literal {
		t.Errorf("expected defaults, got %+v", cfg.Sources)
	}
}

// ---------------------------------------------------------------------------
// runFiles tests
// ---------------------------------------------------------------------------

func TestRunFiles(t *testing.T) {
	dir, cfgPath := setupProject(t)

	for _, excluded := range []bool{false, true} {
		var stdout bytes.Buffer
		err := runFiles(context.Background(), filesParams{
			cfgPath:  cfgPath,
			roots:    []string{dir},
			excluded: excluded,
			stdout:   &stdout,
		})
		if err != nil {
			t.Fatalf("runFiles(excluded=%v): %v", excluded, err)
		}
		out := stdout.String()
		if got := strings.Contains(out, "ignored.php"); got != excluded {
			t.Errorf("excluded=%v: vendor file listed = %v\n%s", excluded, got, out)
		}
		if got := strings.Contains(out, "total.go"); got == excluded {
			t.Errorf("excluded=%v: total.go listed = %v\n%s", excluded, got, out)
		}
	}
}

// ---------------------------------------------------------------------------
// schema and serve tests
// ---------------------------------------------------------------------------

func TestSchemaCmd(t *testing.T) {
	cmd := newSchemaCmd()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !json.Valid(stdout.Bytes()) {
		t.Error("schema output is not valid JSON")
	}
	if stdout.String() != report.Schema {
		t.Error("schema output differs from report.Schema")
	}
}

func TestServeHandler_ProfilesRequests(t *testing.T) {
	dir, cfgPath := setupProject(t)
	cfg, err := loadConfig(cfgPath, overrides{roots: []string{dir}})
	if err != nil {
		t.Fatal(err)
	}

	_, handler, err := newServeHandler(cfg, toolbar.NewMemoryStorage(10), charmlog.New(io.Discard))
	if err != nil {
		t.Fatalf("newServeHandler: %v", err)
	}
	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/hello/gopher")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "hello, gopher") {
		t.Errorf("unexpected body %q", body)
	}
	token := resp.Header.Get(toolbar.TokenHeader)
	if token == "" {
		t.Fatal("missing debug token header")
	}

	resp, err = http.Get(srv.URL + cfg.Profiler.Prefix + "/" + token + "/" + collector.Name)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("panel status = %d", resp.StatusCode)
	}
	var view collector.View
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decoding panel: %v", err)
	}
	if view.FileCount != 2 {
		t.Errorf("panel FileCount = %d, want 2", view.FileCount)
	}
}

func TestInitCmd(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cmd := newInitCmd()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig("", overrides{}); err != nil {
		t.Errorf("scaffolded config does not load: %v", err)
	}
	if !strings.Contains(stdout.String(), "created:") {
		t.Errorf("unexpected output:\n%s", stdout.String())
	}
}
