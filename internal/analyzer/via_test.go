package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/vellum/internal/ast"
	"github.com/funvibe/vellum/internal/diagnostics"
)

const fuzzers = `
  - fn: ints
    returns: Fuzzer<Int>
    body: {todo: ~}
  - fn: anything
    returns: Fuzzer<a>
    body: {todo: ~}
  - fn: sizes
    args: ["_size: Int"]
    returns: Fuzzer<Int>
    body: {todo: ~}
  - fn: functions
    returns: "Fuzzer<fn(Int) -> Int>"
    body: {todo: ~}
`

func suite(defs string) string {
	return "module: props\nkind: test\ndefinitions:" + fuzzers + defs
}

func TestPropertyTakesFuzzedType(t *testing.T) {
	typed, _ := expectNoErrors(t, suite(`
  - test: non_negative
    args:
      - {name: n, via: {call: ints, args: []}}
    body: {op: ">=", args: [{op: "*", args: [n, n]}, 0]}
`))
	var test *ast.Test
	for _, def := range typed.Definitions {
		if d, ok := def.(*ast.Test); ok {
			test = d
		}
	}
	if assert.NotNil(t, test) {
		assert.Equal(t, "Int", show(test.Arguments[0].Arg.Type))
		assert.Equal(t, "Bool", show(test.ReturnType))
	}
}

func TestPlainTests(t *testing.T) {
	expectNoErrors(t, suite(`
  - test: unit
    body: {op: "==", args: [1, 1]}
  - test: returns_void
    body: Void
`))

	expectInferError(t, diagnostics.ErrIllegalTestType, suite(`
  - test: returns_int
    body: 1
`))
}

func TestFuzzerMustBeConcrete(t *testing.T) {
	expectInferError(t, diagnostics.ErrGenericLeftAtBoundary, suite(`
  - test: generic
    args:
      - {name: x, via: {call: anything, args: []}}
    body: True
`))

	expectInferError(t, diagnostics.ErrIllegalTypeInData, suite(`
  - test: fns
    args:
      - {name: f, via: {call: functions, args: []}}
    body: True
`))

	expectInferError(t, diagnostics.ErrCouldNotUnify, suite(`
  - test: not_a_fuzzer
    args:
      - {name: x, via: 42}
    body: True
`))
}

func TestFuzzerAnnotationMismatch(t *testing.T) {
	derr := expectInferError(t, diagnostics.ErrCouldNotUnify, suite(`
  - test: annotated
    args:
      - {name: s, type: String, via: {call: ints, args: []}}
    body: True
`))
	assert.Equal(t, diagnostics.FuzzerAnnotationMismatch, derr.Situation)

	expectNoErrors(t, suite(`
  - test: annotated
    args:
      - {name: n, type: Int, via: {call: ints, args: []}}
    body: {op: ">", args: [n, 0]}
`))
}

func TestTestArity(t *testing.T) {
	derr := expectInferError(t, diagnostics.ErrIncorrectTestArity, suite(`
  - test: two
    args:
      - {name: a, via: {call: ints, args: []}}
      - {name: b, via: {call: ints, args: []}}
    body: True
`))
	assert.Contains(t, derr.Error(), "got 2")
}

func TestBenchmarks(t *testing.T) {
	typed, _ := expectNoErrors(t, suite(`
  - bench: sum
    args:
      - {name: n, via: sizes}
    body: {op: "+", args: [n, 1]}
`))
	for _, def := range typed.Definitions {
		if b, ok := def.(*ast.Benchmark); ok {
			assert.Equal(t, "Int", show(b.Arguments[0].Arg.Type))
		}
	}

	noArgs := suite(`
  - bench: nothing
    body: 1
`)
	derr := expectInferError(t, diagnostics.ErrIncorrectBenchmarkArity, noArgs)
	start := strings.Index(noArgs, "bench: nothing")
	assert.Equal(t, start+len("bench")+1, derr.Span.Start, "the span starts after the keyword")

	expectInferError(t, diagnostics.ErrCouldNotUnify, suite(`
  - bench: wrong_sampler
    args:
      - {name: n, via: {call: ints, args: []}}
    body: n
`))
}

func TestPropertyErrorsCloseTheirScope(t *testing.T) {
	c := registeredChecker(t, suite(`
  - test: two
    args:
      - {name: a, via: {call: ints, args: []}}
      - {name: b, via: {call: ints, args: []}}
    body: True
  - bench: nothing
    body: 1
  - test: not_bool
    body: 1
`))
	depth := len(c.env.scopes)
	for _, def := range c.module.Definitions {
		var err *diagnostics.DiagnosticError
		switch d := def.(type) {
		case *ast.Test:
			err = c.inferTest(d)
		case *ast.Benchmark:
			err = c.inferBenchmark(d)
		default:
			continue
		}
		require.NotNil(t, err)
		assert.Len(t, c.env.scopes, depth)
		assert.Len(t, c.env.entityUsages, depth)
	}
}
