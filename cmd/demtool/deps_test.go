package main

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

const modulePath = "github.com/Faultbox/relief"

// moduleImports walks the in-module packages reachable from dir and
// returns every import path they use, test files excluded.
func moduleImports(t *testing.T, root, dir string) map[string]bool {
	t.Helper()
	seen := map[string]bool{}
	imports := map[string]bool{}
	var visit func(string)
	visit = func(dir string) {
		if seen[dir] {
			return
		}
		seen[dir] = true
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("ReadDir(%s): %v", dir, err)
		}
		fset := token.NewFileSet()
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
				continue
			}
			f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
			if err != nil {
				t.Fatalf("parse %s: %v", name, err)
			}
			for _, spec := range f.Imports {
				path, _ := strconv.Unquote(spec.Path.Value)
				imports[path] = true
				if rel, ok := strings.CutPrefix(path, modulePath+"/"); ok {
					visit(filepath.Join(root, filepath.FromSlash(rel)))
				}
			}
		}
	}
	visit(dir)
	return imports
}

func TestDemtoolBuildsWithoutWindowing(t *testing.T) {
	root := filepath.Join("..", "..")
	for path := range moduleImports(t, root, ".") {
		for _, banned := range []string{
			"github.com/veandco/go-sdl2",
			"github.com/go-gl/",
			modulePath + "/internal/gfx/opengl",
			modulePath + "/internal/input",
			modulePath + "/internal/viewer/glview",
		} {
			if strings.HasPrefix(path, banned) {
				t.Errorf("demtool depends on %s", path)
			}
		}
	}
}
