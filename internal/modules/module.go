package modules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/funvibe/vellum/internal/analyzer"
	"github.com/funvibe/vellum/internal/ast"
	"github.com/funvibe/vellum/internal/diagnostics"
)

// Module is one decoded interchange file of the checked set.
type Module struct {
	Name   string
	Path   string
	Source []byte
	AST    *ast.Module
	// Imports lists the imported module names, sorted and deduplicated.
	Imports []string
}

func newModule(path string, source []byte, m *ast.Module) *Module {
	seen := make(map[string]bool)
	var imports []string
	for _, def := range m.Definitions {
		if use, ok := def.(*ast.Use); ok && !seen[use.Module] {
			seen[use.Module] = true
			imports = append(imports, use.Module)
		}
	}
	sort.Strings(imports)
	return &Module{Name: m.Name, Path: path, Source: source, AST: m, Imports: imports}
}

// Result is a successfully checked module.
type Result struct {
	Path     string
	Source   []byte
	Typed    *analyzer.TypedModule
	Warnings []diagnostics.Warning
	// BuildID identifies the cached interface; empty without a cache.
	BuildID string
}

// ModuleError is a failure attached to the file it happened in.
type ModuleError struct {
	Path   string
	Source []byte
	Err    error
}

func (e *ModuleError) Error() string {
	if derr, ok := e.Err.(*diagnostics.DiagnosticError); ok && derr.File == "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ModuleError) Unwrap() error { return e.Err }

// ImportCycleError reports modules of the checked set importing each other.
type ImportCycleError struct {
	// Cycle starts and ends with the same module.
	Cycle []string
}

func (e *ImportCycleError) Error() string {
	return "import cycle: " + strings.Join(e.Cycle, " -> ")
}

// DuplicateModuleError reports two files declaring the same module name.
type DuplicateModuleError struct {
	Name  string
	Paths [2]string
}

func (e *DuplicateModuleError) Error() string {
	return fmt.Sprintf("module %q is declared by both %s and %s", e.Name, e.Paths[0], e.Paths[1])
}
