package analyzer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/funvibe/vellum/internal/ast"
	"github.com/funvibe/vellum/internal/config"
	"github.com/funvibe/vellum/internal/diagnostics"
	"github.com/funvibe/vellum/internal/modfile"
	"github.com/funvibe/vellum/internal/symbols"
	"github.com/funvibe/vellum/internal/typesystem"
)

// checkModules decodes and checks every source in order. Each module may
// import the ones before it; the result is the one of the last module.
func checkModules(t *testing.T, srcs ...string) (*TypedModule, []diagnostics.Warning, error) {
	t.Helper()
	ids := typesystem.NewIDGen()
	importable := make(map[string]*symbols.TypeInfo)

	var typed *TypedModule
	var warnings []diagnostics.Warning
	for i, src := range srcs {
		module, err := modfile.Decode(fmt.Sprintf("m%d.vl.yaml", i), []byte(src))
		require.NoError(t, err)

		warnings = nil
		typed, err = Infer(module, ids, importable, Options{Tracing: config.TracingVerbose}, &warnings)
		if err != nil {
			if i < len(srcs)-1 {
				t.Fatalf("dependency %s failed: %v", module.Name, err)
			}
			return nil, nil, err
		}
		importable[typed.Name] = typed.TypeInfo
	}
	return typed, warnings, nil
}

// registeredChecker decodes src and runs the registration passes, leaving
// every body to the test.
func registeredChecker(t *testing.T, src string) *moduleChecker {
	t.Helper()
	module, err := modfile.Decode("m.vl.yaml", []byte(src))
	require.NoError(t, err)

	c := newModuleChecker(module, typesystem.NewIDGen(), nil, Options{Tracing: config.TracingVerbose})
	if derr := c.register(); derr != nil {
		t.Fatalf("registration failed: %v", derr)
	}
	return c
}

// expectInferError asserts that checking the last source fails with code.
func expectInferError(t *testing.T, code diagnostics.ErrorCode, srcs ...string) *diagnostics.DiagnosticError {
	t.Helper()
	_, _, err := checkModules(t, srcs...)
	require.Error(t, err, "expected %s", code)

	derr, ok := err.(*diagnostics.DiagnosticError)
	require.True(t, ok, "expected a diagnostic, got %T: %v", err, err)
	require.Equal(t, code, derr.Code, "got: %v", derr)
	return derr
}

// expectNoErrors asserts that every source checks.
func expectNoErrors(t *testing.T, srcs ...string) (*TypedModule, []diagnostics.Warning) {
	t.Helper()
	typed, warnings, err := checkModules(t, srcs...)
	require.NoError(t, err)
	return typed, warnings
}

func show(t typesystem.Type) string {
	return typesystem.NewPrinter(nil).Print(t)
}

// fnType renders the inferred signature of a module function, public or
// not.
func fnType(t *testing.T, typed *TypedModule, name string) string {
	t.Helper()
	for _, def := range typed.Definitions {
		fn, ok := def.(*ast.Function)
		if !ok || fn.Name != name {
			continue
		}
		args := make([]typesystem.Type, len(fn.Arguments))
		for i, arg := range fn.Arguments {
			args[i] = arg.Type
		}
		return show(typesystem.Function(args, fn.ReturnType))
	}
	t.Fatalf("no function %s", name)
	return ""
}

func warningKinds(warnings []diagnostics.Warning) []diagnostics.WarningKind {
	kinds := make([]diagnostics.WarningKind, len(warnings))
	for i, w := range warnings {
		kinds[i] = w.Kind
	}
	return kinds
}
