package main

import (
	"flag"
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "agora"

// layerRule lists the module-relative package prefixes a layer may import.
// Anything outside the list that is not standard library is a violation.
type layerRule struct {
	layer   string
	imports []string
}

var layerRules = map[string]layerRule{
	"domain":      {layer: "domain", imports: []string{"domain"}},
	"ports":       {layer: "ports", imports: []string{"domain"}},
	"application": {layer: "application", imports: []string{"application", "domain", "ports"}},
}

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

func (v violation) String() string {
	if v.Import == "" {
		return fmt.Sprintf("%s:%d %s", v.File, v.Line, v.Rule)
	}
	return fmt.Sprintf("%s:%d imports %q (%s)", v.File, v.Line, v.Import, v.Rule)
}

func main() {
	root := flag.String("root", "contexts", "directory holding <context>/<service>/<layer> packages")
	flag.Parse()

	violations, err := checkTree(*root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "boundary check failed: %v\n", err)
		os.Exit(2)
	}
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}
	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Println("- " + v.String())
	}
	os.Exit(1)
}

// checkTree parses the imports of every non-test Go file below root and
// returns the violations sorted by file and line.
func checkTree(root string) ([]violation, error) {
	var violations []violation
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) < 3 {
			return nil
		}
		service := fmt.Sprintf("%s/contexts/%s/%s", modulePath, parts[0], parts[1])
		layer := ""
		if len(parts) > 3 {
			layer = parts[2]
		}
		violations = append(violations, checkFile(path, filepath.ToSlash(path), service, layer)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(violations, func(i, j int) bool {
		a, b := violations[i], violations[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Import < b.Import
	})
	return violations, nil
}

func checkFile(path string, display string, service string, layer string) []violation {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: display, Line: 1, Rule: "file must parse"}}
	}
	rule, layered := layerRules[layer]

	var violations []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)
		line := fset.Position(imp.Pos()).Line
		report := func(reason string) {
			violations = append(violations, violation{File: display, Line: line, Import: importPath, Rule: reason})
		}

		if within(importPath, modulePath+"/contexts") && !within(importPath, service) {
			report("cross-module imports are forbidden")
			continue
		}
		if !layered || isStdlib(importPath) {
			continue
		}
		switch {
		case strings.Contains(importPath, "/adapters/"):
			report(rule.layer + " must not import adapters")
		case within(importPath, modulePath+"/internal"):
			report(rule.layer + " must not import runtime infrastructure")
		case !rule.admits(service, importPath):
			report(rule.layer + " import is outside explicit allowlist")
		}
	}
	return violations
}

func (r layerRule) admits(service string, importPath string) bool {
	for _, layer := range r.imports {
		if within(importPath, service+"/"+layer) {
			return true
		}
	}
	return false
}

func within(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// isStdlib treats any import whose first element has no dot as standard
// library, except the module's own packages.
func isStdlib(importPath string) bool {
	if within(importPath, modulePath) {
		return false
	}
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}
