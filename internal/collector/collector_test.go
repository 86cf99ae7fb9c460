package collector

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/unbound-force/metricsbar/internal/engine"
	"github.com/unbound-force/metricsbar/internal/filter"
	"github.com/unbound-force/metricsbar/internal/metric"
	"github.com/unbound-force/metricsbar/internal/sources"
	"github.com/unbound-force/metricsbar/internal/toolbar"
)

// fakeAnalyzer returns one record per configured file.
type fakeAnalyzer struct {
	calls         int
	files         []string
	quiet         bool
	analyzeErr    error
	violationsErr error
	violated      bool
}

func (f *fakeAnalyzer) Analyze(_ context.Context, cfg *engine.Config) (*metric.Collection, error) {
	f.calls++
	f.files = append([]string(nil), cfg.Files...)
	f.quiet = cfg.Quiet
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	coll := metric.NewCollection()
	for i, path := range cfg.Files {
		coll.Add(&metric.Record{
			Name:     path,
			LOC:      10 * (i + 1),
			LLOC:     6 * (i + 1),
			CLOC:     2 * (i + 1),
			CCN:      i + 2,
			MI:       100,
			Halstead: metric.Halstead{Vocabulary: 4 * (i + 1), Bugs: 0.1, Difficulty: 3},
		})
	}
	return coll, nil
}

func (f *fakeAnalyzer) ApplyViolations(_ *engine.Config, coll *metric.Collection) error {
	if f.violationsErr != nil {
		return f.violationsErr
	}
	f.violated = true
	return nil
}

// sourceTree creates empty files at rels below a fresh directory and
// returns the directory and the absolute paths in order. t.TempDir is
// not used: its path carries the test name, which the default markers
// exclude.
func sourceTree(t *testing.T, rels ...string) (string, []string) {
	t.Helper()
	root, err := os.MkdirTemp("", "src")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(root) })

	paths := make([]string, len(rels))
	for i, rel := range rels {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			t.Fatal(err)
		}
		paths[i] = path
	}
	return root, paths
}

// tails strips root from every path.
func tails(root string, paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.ToSlash(strings.TrimPrefix(p, root))
	}
	return out
}

var scenarioA = []string{"src/app/Foo.php", "vendor/bar/Baz.php", "src/app/FooTest.php"}

func TestCollect_ScenarioA(t *testing.T) {
	root, paths := sourceTree(t, scenarioA...)
	fa := &fakeAnalyzer{}
	c := New(WithLister(sources.Static(paths)), WithAnalyzer(fa))

	if err := c.CollectContext(context.Background()); err != nil {
		t.Fatalf("CollectContext: %v", err)
	}

	want := []string{"/src/app/Foo.php"}
	if got := tails(root, fa.files); !reflect.DeepEqual(got, want) {
		t.Errorf("engine received %v, want %v", got, want)
	}
	if !fa.quiet {
		t.Error("engine must run in quiet mode")
	}
	if !fa.violated {
		t.Error("violation pass not run")
	}
	files, err := c.Files()
	if err != nil {
		t.Fatal(err)
	}
	if got := tails(root, files); !reflect.DeepEqual(got, want) {
		t.Errorf("Files = %v, want %v", got, want)
	}
}

func TestCollect_ScenarioB_EmptyFileSet(t *testing.T) {
	fa := &fakeAnalyzer{}
	c := New(WithLister(sources.Static{"/vendor/a.php"}), WithAnalyzer(fa))

	if err := c.CollectContext(context.Background()); err != nil {
		t.Fatalf("CollectContext: %v", err)
	}
	if fa.calls != 1 {
		t.Errorf("engine called %d times, want 1", fa.calls)
	}

	vocab, err := c.Vocabulary()
	if err != nil || vocab != 0 {
		t.Errorf("Vocabulary = %v, %v; want 0, nil", vocab, err)
	}
	n, err := c.FileCount()
	if err != nil || n != 0 {
		t.Errorf("FileCount = %v, %v; want 0, nil", n, err)
	}
	files, err := c.Files()
	if err != nil {
		t.Fatal(err)
	}
	if files == nil || len(files) != 0 {
		t.Errorf("Files = %#v, want empty non-nil slice", files)
	}
	cc, err := c.Complexity()
	if err != nil || cc != 0 {
		t.Errorf("Complexity = %v, %v; want 0, nil", cc, err)
	}
}

func TestAccessors_ScenarioC_NotCollected(t *testing.T) {
	c := New(WithLister(sources.Static{}), WithAnalyzer(&fakeAnalyzer{}))

	if _, err := c.Complexity(); !errors.Is(err, ErrNotCollected) {
		t.Fatalf("Complexity before collect: got %v, want ErrNotCollected", err)
	}

	checks := map[string]func() error{
		"Metrics":              func() error { _, err := c.Metrics(); return err },
		"Summary":              func() error { _, err := c.Summary(); return err },
		"MaintainabilityIndex": func() error { _, err := c.MaintainabilityIndex(); return err },
		"CommentWeight":        func() error { _, err := c.CommentWeight(); return err },
		"LinesOfCode":          func() error { _, err := c.LinesOfCode(); return err },
		"LogicalLinesOfCode":   func() error { _, err := c.LogicalLinesOfCode(); return err },
		"CommentLinesOfCode":   func() error { _, err := c.CommentLinesOfCode(); return err },
		"Bugs":                 func() error { _, err := c.Bugs(); return err },
		"Difficulty":           func() error { _, err := c.Difficulty(); return err },
		"IntelligentContent":   func() error { _, err := c.IntelligentContent(); return err },
		"Vocabulary":           func() error { _, err := c.Vocabulary(); return err },
		"FileCount":            func() error { _, err := c.FileCount(); return err },
		"Files":                func() error { _, err := c.Files(); return err },
		"View":                 func() error { _, err := c.View(); return err },
		"MarshalJSON":          func() error { _, err := c.MarshalJSON(); return err },
	}
	for name, call := range checks {
		if err := call(); !errors.Is(err, ErrNotCollected) {
			t.Errorf("%s before collect: got %v, want ErrNotCollected", name, err)
		}
	}
	if c.Collected() {
		t.Error("Collected() = true before collect")
	}
}

func TestAccessors_ReadOneSnapshot(t *testing.T) {
	_, paths := sourceTree(t, "a.go", "b.go")
	c := New(WithLister(sources.Static(paths)), WithAnalyzer(&fakeAnalyzer{}))
	if err := c.CollectContext(context.Background()); err != nil {
		t.Fatal(err)
	}

	v, err := c.View()
	if err != nil {
		t.Fatal(err)
	}

	// Records: LOC 10/20, LLOC 6/12, CLOC 2/4, CCN 2/3, vocabulary 4/8.
	if v.LinesOfCode != 30 || v.LogicalLinesOfCode != 18 || v.CommentLinesOfCode != 6 {
		t.Errorf("sums = %d/%d/%d, want 30/18/6",
			v.LinesOfCode, v.LogicalLinesOfCode, v.CommentLinesOfCode)
	}
	if v.Complexity != 2.5 {
		t.Errorf("Complexity = %v, want 2.5", v.Complexity)
	}
	if v.Vocabulary != 6 {
		t.Errorf("Vocabulary = %v, want 6", v.Vocabulary)
	}
	if v.FileCount != len(v.Files) {
		t.Errorf("FileCount %d != len(Files) %d", v.FileCount, len(v.Files))
	}
	if v.Name != Name {
		t.Errorf("Name = %q, want %q", v.Name, Name)
	}

	loc, _ := c.LinesOfCode()
	cc, _ := c.Complexity()
	vocab, _ := c.Vocabulary()
	mi, _ := c.MaintainabilityIndex()
	if loc != v.LinesOfCode || cc != v.Complexity || vocab != v.Vocabulary || mi != v.MaintainabilityIndex {
		t.Error("accessors disagree with View")
	}
}

func TestAccessors_ForwardEngineValues(t *testing.T) {
	// LOC is deliberately unrelated to LLOC + CLOC.
	_, paths := sourceTree(t, "a.go")
	a := &recordAnalyzer{rec: &metric.Record{Name: paths[0], LOC: 3, LLOC: 40, CLOC: 50}}
	c := New(WithLister(sources.Static(paths)), WithAnalyzer(a))
	if err := c.CollectContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	loc, _ := c.LinesOfCode()
	lloc, _ := c.LogicalLinesOfCode()
	cloc, _ := c.CommentLinesOfCode()
	if loc != 3 || lloc != 40 || cloc != 50 {
		t.Errorf("got %d/%d/%d, want 3/40/50", loc, lloc, cloc)
	}
}

type recordAnalyzer struct{ rec *metric.Record }

func (a *recordAnalyzer) Analyze(context.Context, *engine.Config) (*metric.Collection, error) {
	coll := metric.NewCollection()
	coll.Add(a.rec)
	return coll, nil
}

func (a *recordAnalyzer) ApplyViolations(*engine.Config, *metric.Collection) error { return nil }

func TestCollect_Failures(t *testing.T) {
	tests := []struct {
		name   string
		lister sources.Lister
		fa     *fakeAnalyzer
	}{
		{"lister", errLister{}, &fakeAnalyzer{}},
		{"validation", sources.Static{"/does/not/exist.go"}, &fakeAnalyzer{}},
		{"analysis", sources.Static{}, &fakeAnalyzer{analyzeErr: errors.New("parse error")}},
		{"violations", sources.Static{}, &fakeAnalyzer{violationsErr: errors.New("rule error")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(WithLister(tt.lister), WithAnalyzer(tt.fa))
			if err := c.CollectContext(context.Background()); err == nil {
				t.Fatal("expected error")
			}
			if c.Collected() {
				t.Error("failed collect must not store a snapshot")
			}
			if _, err := c.FileCount(); !errors.Is(err, ErrNotCollected) {
				t.Errorf("FileCount after failure: %v, want ErrNotCollected", err)
			}
		})
	}
}

type errLister struct{}

func (errLister) Files(context.Context) ([]string, error) {
	return nil, errors.New("no line table")
}

func TestCollect_ValidationErrorIsNotExist(t *testing.T) {
	fa := &fakeAnalyzer{}
	c := New(WithLister(sources.Static{"/does/not/exist.go"}), WithAnalyzer(fa))
	err := c.CollectContext(context.Background())
	if err == nil {
		t.Fatal("expected validation error")
	}
	if fa.calls != 0 {
		t.Error("engine must not run when validation fails")
	}
}

func TestCollect_HostHook(t *testing.T) {
	_, paths := sourceTree(t, scenarioA...)
	c := New(WithLister(sources.Static(paths)), WithAnalyzer(&fakeAnalyzer{}))
	var _ toolbar.DataCollector = c

	r := httptest.NewRequest("GET", "/", nil)
	ctx, cancel := context.WithCancel(r.Context())
	cancel()
	if err := c.Collect(r.WithContext(ctx), &toolbar.Response{Status: 200}, errors.New("ignored")); err != nil {
		t.Fatalf("Collect with canceled request context: %v", err)
	}
	if n, _ := c.FileCount(); n != 1 {
		t.Errorf("FileCount = %d, want 1", n)
	}
	if c.Name() != "metricsbar.code_metrics" {
		t.Errorf("Name = %q", c.Name())
	}
}

func TestCollect_ConcurrentReaders(t *testing.T) {
	_, paths := sourceTree(t, "a.go", "b.go")
	c := New(WithLister(sources.Static(paths)), WithAnalyzer(&fakeAnalyzer{}))
	if err := c.CollectContext(context.Background()); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := c.FileCount()
			files, _ := c.Files()
			if err != nil || n != 2 || n != len(files) {
				t.Errorf("FileCount %d, len(Files) %d, err %v", n, len(files), err)
			}
		}()
	}
	wg.Wait()
}

func TestJSON_RoundTrip(t *testing.T) {
	_, paths := sourceTree(t, "a.go", "b.go")
	c := New(WithLister(sources.Static(paths)), WithAnalyzer(&fakeAnalyzer{}))
	c.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	if err := c.CollectContext(context.Background()); err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var restored Collector
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	want, _ := c.View()
	got, err := restored.View()
	if err != nil {
		t.Fatalf("View after restore: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("restored view differs:\n got %+v\nwant %+v", got, want)
	}
	if got.FileCount != 2 {
		t.Errorf("restored FileCount = %d, want 2", got.FileCount)
	}
}

func TestJSON_UnmarshalRejectsEmpty(t *testing.T) {
	for _, data := range []string{`null`, `{}`, `{"collected_at": "2024-05-01T12:00:00Z"}`} {
		var c Collector
		if err := c.UnmarshalJSON([]byte(data)); err == nil {
			t.Errorf("UnmarshalJSON(%s): expected error", data)
		}
		if c.Collected() {
			t.Errorf("UnmarshalJSON(%s) marked the collector collected", data)
		}
	}
	if _, err := Decode(json.RawMessage(`null`)); err == nil {
		t.Error("Decode(null): expected error")
	}
}

func TestDecode(t *testing.T) {
	_, paths := sourceTree(t, "a.go")
	c := New(WithLister(sources.Static(paths)), WithAnalyzer(&fakeAnalyzer{}))
	if err := c.CollectContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}

	v, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	view, ok := v.(*View)
	if !ok {
		t.Fatalf("Decode returned %T, want *View", v)
	}
	if view.FileCount != 1 || view.Files[0] != paths[0] {
		t.Errorf("unexpected view %+v", view)
	}

	if _, err := Decode(json.RawMessage(`{"files": 3}`)); err == nil {
		t.Error("expected error for malformed snapshot")
	}
}

func TestCollect_RealEngine(t *testing.T) {
	dir := t.TempDir()
	goFile := filepath.Join(dir, "calc.go")
	src := "package calc\n\n// Abs returns |x|.\nfunc Abs(x int) int {\n\tif x < 0 {\n\t\treturn -x\n\t}\n\treturn x\n}\n"
	if err := os.WriteFile(goFile, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	vendored := filepath.Join(dir, "vendor.go")
	if err := os.WriteFile(vendored, []byte("package calc\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	// Temporary directories carry the test name, which the default
	// markers exclude.
	f, err := filter.New([]string{"vendor"}, false)
	if err != nil {
		t.Fatal(err)
	}
	c := New(WithLister(sources.Static{goFile, vendored}), WithFilter(f))
	if err := c.CollectContext(context.Background()); err != nil {
		t.Fatalf("CollectContext: %v", err)
	}

	coll, err := c.Metrics()
	if err != nil {
		t.Fatal(err)
	}
	if coll.Len() != 1 {
		t.Fatalf("records = %d, want 1", coll.Len())
	}
	rec, ok := coll.Get(goFile)
	if !ok {
		t.Fatalf("no record for %s", goFile)
	}
	if rec.CCN != 2 || rec.Functions != 1 || rec.CLOC != 1 {
		t.Errorf("record = ccn %d, functions %d, cloc %d; want 2, 1, 1", rec.CCN, rec.Functions, rec.CLOC)
	}
	cc, _ := c.Complexity()
	if cc != 2 {
		t.Errorf("Complexity = %v, want 2", cc)
	}
	if vocab, _ := c.Vocabulary(); vocab != float64(rec.Halstead.Vocabulary) {
		t.Errorf("Vocabulary = %v, want %d", vocab, rec.Halstead.Vocabulary)
	}
}

func TestFactory_NewInstancePerCall(t *testing.T) {
	f := Factory(WithLister(sources.Static{}), WithAnalyzer(&fakeAnalyzer{}))
	a, b := f(), f()
	if a == b {
		t.Error("factory must return a fresh collector per call")
	}
	if a.Name() != Name {
		t.Errorf("Name = %q, want %q", a.Name(), Name)
	}
}
