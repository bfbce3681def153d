package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/vellum/internal/ast"
	"github.com/funvibe/vellum/internal/config"
	"github.com/funvibe/vellum/internal/diagnostics"
)

const allHandlers = `
module: exhaustive
kind: validator
definitions:
  - validator: all
    handlers:
      - {name: spend, args: ["_d: Option<Data>", _r, _o, _tx], body: True}
      - {name: mint, args: [_r, _p, _tx], body: True}
      - {name: withdraw, args: [_r, _c, _tx], body: True}
      - {name: publish, args: [_r, _c, _tx], body: True}
      - {name: vote, args: [_r, _v, _a, _tx], body: True}
      - {name: propose, args: [_r, _p, _tx], body: True}
`

func TestValidatorExhaustiveWithDefaultFallback(t *testing.T) {
	typed, _ := expectNoErrors(t, allHandlers)

	v := typed.Definitions[0].(*ast.Validator)
	require.NotNil(t, v.Fallback)
	assert.Equal(t, config.FallbackName, v.Fallback.Name)
	assert.Equal(t, "Bool", show(v.Fallback.ReturnType))
	for _, h := range v.Handlers {
		assert.Equal(t, "Bool", show(h.ReturnType), h.Name)
	}
}

func TestValidatorExhaustiveRejectsExplicitFallback(t *testing.T) {
	expectInferError(t, diagnostics.ErrUnexpectedValidatorFallback, allHandlers+`    else:
      args: [_ctx]
      body: False
`)
}

func TestValidatorFallbackAllowedWhenNotExhaustive(t *testing.T) {
	typed, _ := expectNoErrors(t, `
module: partial
kind: validator
definitions:
  - validator: gate
    handlers:
      - {name: mint, args: [_r, _p, _tx], body: True}
    else:
      args: [ctx]
      body: {op: "==", args: [ctx, ctx]}
`)
	v := typed.Definitions[0].(*ast.Validator)
	assert.Equal(t, "Data", show(v.Fallback.Arguments[0].Type))
}

func TestValidatorParamsAndDefaults(t *testing.T) {
	typed, warnings := expectNoErrors(t, `
module: params
kind: validator
definitions:
  - validator: owned
    params: ["owner: ByteArray", unused]
    handlers:
      - name: spend
        args: ["datum: Option<ByteArray>", redeemer, _ref, _tx]
        body: {op: "==", args: [datum, {call: Some, args: [owner]}]}
`)
	v := typed.Definitions[0].(*ast.Validator)
	spend := v.Handlers[0]
	assert.Equal(t, "Option<ByteArray>", show(spend.Arguments[0].Type))
	assert.Equal(t, "Data", show(spend.Arguments[1].Type), "unconstrained arguments default to Data")
	assert.Equal(t, "ByteArray", show(v.Params[0].Type))
	assert.Equal(t, "Data", show(v.Params[1].Type))

	for _, w := range warnings {
		assert.NotEqual(t, "unused", w.Name, "validator params are never reported unused")
	}
	assert.Contains(t, warningKinds(warnings), diagnostics.WarnUnusedVariable, "redeemer is unused")
}

func TestValidatorHandlerChecks(t *testing.T) {
	derr := expectInferError(t, diagnostics.ErrUnknownPurpose, `
module: v
kind: validator
definitions:
  - validator: v
    handlers:
      - {name: spendd, args: [_d, _r, _o, _tx], body: True}
`)
	assert.Equal(t, config.Purposes, derr.Names)
	assert.Equal(t, len("spendd"), derr.Span.End-derr.Span.Start)

	derr = expectInferError(t, diagnostics.ErrIncorrectValidatorArity, `
module: v
kind: validator
definitions:
  - validator: v
    handlers:
      - {name: mint, args: [_r, _tx], body: True}
`)
	assert.Contains(t, derr.Error(), "expected 3")

	expectInferError(t, diagnostics.ErrValidatorMustReturnBool, `
module: v
kind: validator
definitions:
  - validator: v
    handlers:
      - {name: mint, args: [_r, _p, _tx], body: 1}
`)

	expectInferError(t, diagnostics.ErrIncorrectValidatorArity, `
module: v
kind: validator
definitions:
  - validator: v
    else:
      args: [_a, _b]
      body: True
`)
}

func TestSpendDatumMustBeOptional(t *testing.T) {
	derr := expectInferError(t, diagnostics.ErrCouldNotUnify, `
module: v
kind: validator
definitions:
  - validator: v
    handlers:
      - {name: spend, args: ["_d: Int", _r, _o, _tx], body: True}
`)
	assert.Equal(t, "Option<Int>", show(derr.Expected))
	assert.Equal(t, "Int", show(derr.Given))
}

func TestDuplicateHandler(t *testing.T) {
	derr := expectInferError(t, diagnostics.ErrDuplicateHandler, `
module: v
kind: validator
definitions:
  - validator: v
    handlers:
      - {name: mint, args: [_r, _p, _tx], body: True}
      - {name: mint, args: [_r, _p, _tx], body: False}
`)
	assert.True(t, derr.HasRelated)
}

func TestValidatorsIgnoredOutsideValidatorModules(t *testing.T) {
	typed, _ := expectNoErrors(t, `
module: lib
definitions:
  - validator: v
    handlers:
      - {name: nonsense, body: 1}
`)
	assert.Empty(t, typed.TypeInfo.Values)
}

func TestHandlersAreExported(t *testing.T) {
	typed, _ := expectNoErrors(t, `
module: v
kind: validator
definitions:
  - validator: gate
    params: ["limit: Int"]
    handlers:
      - {name: mint, args: ["r: Int", _p, _tx], body: {op: "<", args: [r, limit]}}
`)
	mint, ok := typed.TypeInfo.Values[config.HandlerName("gate", "mint")]
	require.True(t, ok)
	assert.Equal(t, "fn(Int, Int, Data, Data) -> Bool", show(mint.Type))
}

func TestImportingValidatorModuleFails(t *testing.T) {
	expectInferError(t, diagnostics.ErrValidatorImported, allHandlers, `
module: user
definitions:
  - use: exhaustive
`)
}
