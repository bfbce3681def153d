package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/vellum/internal/diagnostics"
	"github.com/funvibe/vellum/internal/symbols"
	"github.com/funvibe/vellum/internal/typesystem"
)

func TestRecordAccess(t *testing.T) {
	typed, _ := expectNoErrors(t, `
module: records
definitions:
  - type: Datum
    pub: true
    constructors:
      - name: Datum
        fields:
          - {label: owner, type: ByteArray}
          - {label: amount, type: Int}
  - type: Box
    pub: true
    params: [a]
    constructors:
      - name: Box
        fields:
          - {label: inner, type: a}
  - fn: amount_of
    pub: true
    args: ["d: Datum"]
    body: {field: amount, of: d}
  - fn: unbox
    pub: true
    args: ["b: Box<ByteArray>"]
    body: {field: inner, of: b}
  - fn: make
    pub: true
    body: {call: Box, args: [1]}
`)
	assert.Equal(t, "fn(Datum) -> Int", fnType(t, typed, "amount_of"))
	assert.Equal(t, "fn(Box<ByteArray>) -> ByteArray", fnType(t, typed, "unbox"))
	assert.Equal(t, "fn() -> Box<Int>", fnType(t, typed, "make"))

	accessors := typed.TypeInfo.Accessors["Datum"]
	require.NotNil(t, accessors)
	assert.Equal(t, 1, accessors.Accessors["amount"].Index)

	ctor := typed.TypeInfo.Values["Datum"]
	require.NotNil(t, ctor)
	record := ctor.Variant.(symbols.Record)
	assert.Equal(t, map[string]int{"owner": 0, "amount": 1}, record.FieldMap)
}

func TestRecordAccessErrors(t *testing.T) {
	derr := expectInferError(t, diagnostics.ErrUnknownRecordField, `
module: records
definitions:
  - type: Datum
    constructors:
      - name: Datum
        fields:
          - {label: owner, type: ByteArray}
  - fn: f
    args: ["d: Datum"]
    body: {field: ownr, of: d}
`)
	assert.Equal(t, []string{"owner"}, derr.Names)

	expectInferError(t, diagnostics.ErrUnknownRecordField, `
module: records
definitions:
  - type: Choice
    constructors:
      - name: Left
        fields: [{label: value, type: Int}]
      - name: Right
        fields: [{label: value, type: Int}]
  - fn: f
    args: ["c: Choice"]
    body: {field: value, of: c}
`)
}

func TestDataTypeFieldRestrictions(t *testing.T) {
	expectInferError(t, diagnostics.ErrFunctionTypeInData, `
module: data
definitions:
  - type: Handler
    constructors:
      - name: Handler
        fields: [{label: run, type: "fn(Int) -> Int"}]
`)
	expectInferError(t, diagnostics.ErrIllegalTypeInData, `
module: data
definitions:
  - type: Pairing
    constructors:
      - name: Pairing
        fields: [{label: r, type: MillerLoopResult}]
`)
	derr := expectInferError(t, diagnostics.ErrIncorrectTypeArity, `
module: data
definitions:
  - type: Bad
    constructors:
      - name: Bad
        fields: [{label: v, type: "Option<Int, Int>"}]
`)
	assert.Contains(t, derr.Error(), "expects 1")

	expectInferError(t, diagnostics.ErrUnknownType, `
module: data
definitions:
  - type: Bad
    constructors:
      - name: Bad
        fields: [{label: v, type: b}]
`)
}

func TestOpacityIsContagious(t *testing.T) {
	typed, _ := expectNoErrors(t, `
module: secrets
definitions:
  - type: Secret
    pub: true
    opaque: true
    constructors:
      - name: Secret
        fields: [{label: bytes, type: ByteArray}]
  - type: Wrapper
    pub: true
    constructors:
      - name: Wrapper
        fields: [{label: secret, type: Secret}]
  - type: Plain
    pub: true
    constructors:
      - name: Plain
        fields: [{label: n, type: Int}]
`)
	wrapper := typed.TypeInfo.Types["Wrapper"].Type.(*typesystem.App)
	assert.True(t, wrapper.Opaque)
	plain := typed.TypeInfo.Types["Plain"].Type.(*typesystem.App)
	assert.False(t, plain.Opaque)

	_, exported := typed.TypeInfo.Values["Secret"]
	assert.False(t, exported, "opaque constructors stay private")
	_, exported = typed.TypeInfo.Accessors["Secret"]
	assert.False(t, exported)
}

func TestTypeAliases(t *testing.T) {
	typed, _ := expectNoErrors(t, `
module: aliases
definitions:
  - alias: Pairs
    pub: true
    params: [k]
    type: List<Pair<k, Amount>>
  - alias: Amount
    pub: true
    type: Int
  - fn: total
    pub: true
    args: ["ps: Pairs<ByteArray>"]
    returns: Amount
    body: {todo: ~}
`)
	assert.Equal(t, "fn(List<Pair<ByteArray, Int>>) -> Int", fnType(t, typed, "total"))
	assert.Equal(t, "List<Pair<a, Int>>", show(typed.TypeInfo.Types["Pairs"].Type))

	derr := expectInferError(t, diagnostics.ErrCyclicTypeDefinitions, `
module: aliases
definitions:
  - alias: A
    type: List<B>
  - alias: B
    type: Option<A>
`)
	assert.Equal(t, []string{"A", "B"}, derr.Names)

	expectInferError(t, diagnostics.ErrUnknownType, `
module: aliases
definitions:
  - alias: A
    type: Missing
`)
}

func TestTagDecorators(t *testing.T) {
	expectNoErrors(t, `
module: tags
definitions:
  - type: Action
    pub: true
    constructors:
      - {name: Mint, decorators: [{tag: 1}]}
      - {name: Burn, decorators: [{tag: 0}]}
`)

	derr := expectInferError(t, diagnostics.ErrDecoratorTagOverlap, `
module: tags
definitions:
  - type: Action
    pub: true
    constructors:
      - {name: Mint, decorators: [{tag: 1}]}
      - Burn
`)
	assert.Equal(t, 1, derr.Tag)
	assert.True(t, derr.HasRelated)
	assert.Less(t, derr.Related.Start, derr.Span.Start)

	expectInferError(t, diagnostics.ErrDecoratorValidation, `
module: tags
definitions:
  - type: Action
    constructors:
      - {name: Mint, decorators: [{tag: -1}]}
`)
}

func TestDecoratorContexts(t *testing.T) {
	expectNoErrors(t, `
module: tags
definitions:
  - type: Wrapped
    pub: true
    decorators: [list]
    constructors:
      - {name: Wrapped, fields: [{label: n, type: Int}]}
`)

	derr := expectInferError(t, diagnostics.ErrDecoratorValidation, `
module: tags
definitions:
  - type: Action
    decorators: [{tag: 2}]
    constructors: [Mint, Burn]
`)
	assert.Contains(t, derr.Error(), "enum")

	expectInferError(t, diagnostics.ErrDecoratorValidation, `
module: tags
definitions:
  - type: Action
    constructors:
      - {name: Mint, decorators: [list]}
      - Burn
`)

	expectInferError(t, diagnostics.ErrConflictingDecorators, `
module: tags
definitions:
  - type: Wrapped
    decorators: [list, {tag: 1}]
    constructors:
      - {name: Wrapped, fields: [{label: n, type: Int}]}
`)
}
