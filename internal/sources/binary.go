package sources

import (
	"context"
	"debug/buildinfo"
	"debug/elf"
	"debug/gosym"
	"debug/macho"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrUnsupportedBinary is returned when the executable format carries
// no line table this package can read.
var ErrUnsupportedBinary = errors.New("unsupported executable format")

// Binary lists the source files compiled into an executable, in the
// order their functions appear in the line table. Only functions of
// package main and of the modules recorded in the executable's build
// info are kept. Files under GOROOT and paths recorded without a
// directory (-trimpath builds) are skipped.
type Binary struct {
	// Path is the executable to read. Empty means the running program.
	Path string
}

// Files reads the executable's line table.
func (b *Binary) Files(ctx context.Context) ([]string, error) {
	path := b.Path
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locating executable: %w", err)
		}
		path = exe
	}

	table, err := readLineTable(path)
	if err != nil {
		return nil, err
	}
	keep := packageMatcher(path)
	goroot := gorootSource()

	seen := make(map[string]bool)
	var files []string
	for i := range table.Funcs {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		fn := &table.Funcs[i]
		if !keep(fn.PackageName()) {
			continue
		}
		file, _, _ := table.PCToLine(fn.Entry)
		if file == "" || seen[file] || !filepath.IsAbs(file) {
			continue
		}
		if goroot != "" && strings.HasPrefix(file, goroot) {
			continue
		}
		seen[file] = true
		files = append(files, filepath.Clean(file))
	}
	return files, nil
}

// readLineTable opens an ELF or Mach-O executable and decodes its Go
// line table.
func readLineTable(path string) (*gosym.Table, error) {
	var (
		pclntab  []byte
		symtab   []byte
		textAddr uint64
	)

	if f, err := elf.Open(path); err == nil {
		defer f.Close()
		pcln := f.Section(".gopclntab")
		text := f.Section(".text")
		if pcln == nil || text == nil {
			return nil, fmt.Errorf("%s: no Go line table: %w", path, ErrUnsupportedBinary)
		}
		if pclntab, err = pcln.Data(); err != nil {
			return nil, fmt.Errorf("reading line table: %w", err)
		}
		if s := f.Section(".gosymtab"); s != nil {
			symtab, _ = s.Data()
		}
		textAddr = text.Addr
	} else if f, err := macho.Open(path); err == nil {
		defer f.Close()
		pcln := f.Section("__gopclntab")
		text := f.Section("__text")
		if pcln == nil || text == nil {
			return nil, fmt.Errorf("%s: no Go line table: %w", path, ErrUnsupportedBinary)
		}
		if pclntab, err = pcln.Data(); err != nil {
			return nil, fmt.Errorf("reading line table: %w", err)
		}
		if s := f.Section("__gosymtab"); s != nil {
			symtab, _ = s.Data()
		}
		textAddr = text.Addr
	} else {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedBinary)
	}

	table, err := gosym.NewTable(symtab, gosym.NewLineTable(pclntab, textAddr))
	if err != nil {
		return nil, fmt.Errorf("decoding line table: %w", err)
	}
	return table, nil
}

// packageMatcher returns the predicate selecting the packages whose
// files are listed. With build info the executable's own module paths
// decide; without it any package whose first path element has a dot
// is kept.
func packageMatcher(path string) func(pkg string) bool {
	info, err := buildinfo.ReadFile(path)
	if err != nil || info.Main.Path == "" {
		return func(pkg string) bool {
			return pkg == "main" || (pkg != "" && !isStdPackage(pkg))
		}
	}

	modules := []string{info.Main.Path}
	for _, dep := range info.Deps {
		modules = append(modules, dep.Path)
	}
	return func(pkg string) bool {
		return pkg == "main" || inModules(pkg, modules)
	}
}

// inModules reports whether pkg is one of modules or a package below
// one of them.
func inModules(pkg string, modules []string) bool {
	if pkg == "" {
		return false
	}
	for _, m := range modules {
		if pkg == m || strings.HasPrefix(pkg, m+"/") {
			return true
		}
	}
	return false
}

// isStdPackage reports whether pkg looks like a standard library
// package: its first path element has no dot and it is not package
// main.
func isStdPackage(pkg string) bool {
	if pkg == "" || pkg == "main" {
		return false
	}
	first, _, _ := strings.Cut(pkg, "/")
	return !strings.Contains(first, ".")
}

// gorootSource returns the toolchain's source directory with a
// trailing separator, or "" when GOROOT is unknown.
func gorootSource() string {
	root := runtime.GOROOT()
	if root == "" {
		return ""
	}
	return filepath.Join(filepath.Clean(root), "src") + string(filepath.Separator)
}
