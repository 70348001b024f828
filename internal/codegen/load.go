package codegen

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/packages"
)

// Options configures a generator run.
type Options struct {
	// Patterns are package patterns as understood by go list.
	// Defaults to ".".
	Patterns []string
	// Dir is the working directory for package loading.
	Dir string
	// Types restricts generation to the named dispatch types. Empty means
	// every dispatch set found.
	Types []string
	// Output overrides the default output file name. Only valid when the
	// run produces exactly one file.
	Output string
	// Tags are build tags forwarded to the package loader.
	Tags []string
}

// File is one rendered dispatch file with its destination path.
type File struct {
	Path     string
	Dispatch string
	Content  []byte
}

// Generate loads the requested packages, scans them for dispatch
// declarations, and renders one file per dispatch set. Nothing is written
// to disk; the caller decides whether to write or print the results.
func Generate(opts Options) ([]File, error) {
	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax,
		Dir:  opts.Dir,
	}
	if len(opts.Tags) > 0 {
		cfg.BuildFlags = []string{"-tags=" + strings.Join(opts.Tags, ",")}
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}

	want := map[string]bool{}
	for _, t := range opts.Types {
		want[t] = true
	}
	seen := map[string]bool{}

	var files []File
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, fmt.Errorf("load %s: %v", pkg.PkgPath, pkg.Errors[0])
		}
		if len(pkg.GoFiles) == 0 {
			continue
		}

		dispatches, err := Scan(pkg.Fset, pkg.Syntax)
		if err != nil {
			return nil, err
		}

		dir := filepath.Dir(pkg.GoFiles[0])
		for _, d := range dispatches {
			if len(want) > 0 && !want[d.TypeName] {
				continue
			}
			seen[d.TypeName] = true

			src, err := Emit(pkg.Name, d)
			if err != nil {
				return nil, err
			}
			files = append(files, File{
				Path:     filepath.Join(dir, d.FileName()),
				Dispatch: d.TypeName,
				Content:  src,
			})
		}
	}

	for _, t := range opts.Types {
		if !seen[t] {
			return nil, fmt.Errorf("dispatch type %s not found in %s", t, strings.Join(patterns, " "))
		}
	}

	if opts.Output != "" {
		if len(files) != 1 {
			return nil, fmt.Errorf("output override requires exactly one generated file, run produced %d", len(files))
		}
		if filepath.IsAbs(opts.Output) {
			files[0].Path = opts.Output
		} else {
			files[0].Path = filepath.Join(filepath.Dir(files[0].Path), opts.Output)
		}
	}

	return files, nil
}
