package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/vellum/internal/ast"
	"github.com/funvibe/vellum/internal/diagnostics"
	"github.com/funvibe/vellum/internal/symbols"
)

const leaky = `
module: leaky
definitions:
  - type: Secret
    constructors:
      - {name: Secret, fields: [{label: n, type: Int}]}
  - fn: reveal
    pub: true
    returns: Secret
    body: {call: Secret, args: [1]}
`

func TestPrivateTypeLeak(t *testing.T) {
	derr := expectInferError(t, diagnostics.ErrPrivateTypeLeak, leaky)
	assert.Contains(t, derr.Error(), "Secret")
	assert.True(t, derr.HasRelated, "points at the private type")
}

func TestPublicTypeDoesNotLeak(t *testing.T) {
	fixed := `
module: leaky
definitions:
  - type: Secret
    pub: true
    constructors:
      - {name: Secret, fields: [{label: n, type: Int}]}
  - fn: reveal
    pub: true
    returns: Secret
    body: {call: Secret, args: [1]}
`
	typed, _ := expectNoErrors(t, fixed)
	assert.Contains(t, typed.TypeInfo.Values, "reveal")
	assert.Contains(t, typed.TypeInfo.Types, "Secret")
}

func TestPrivateValuesMayUsePrivateTypes(t *testing.T) {
	expectNoErrors(t, `
module: internal
definitions:
  - type: Secret
    constructors:
      - {name: Secret, fields: [{label: n, type: Int}]}
  - fn: make
    returns: Secret
    body: {call: Secret, args: [1]}
  - fn: reveal
    pub: true
    returns: Int
    body: {field: n, of: {call: make, args: []}}
`)
}

const library = `
module: lib/util
definitions:
  - type: Amount
    pub: true
    constructors:
      - {name: Amount, fields: [{label: value, type: Int}]}
  - type: Hidden
    constructors: [Hidden]
  - alias: Count
    pub: true
    type: Int
  - fn: inc
    pub: true
    args: ["n: Int"]
    body: {op: "+", args: [n, 1]}
  - fn: helper
    body: {call: Hidden, args: []}
  - const: zero
    pub: true
    value: 0
  - fn: use_helper
    pub: true
    returns: Bool
    body: {op: "==", args: [{call: helper, args: []}, Hidden]}
`

func TestInterfaceIsPruned(t *testing.T) {
	typed, _ := expectNoErrors(t, library)
	info := typed.TypeInfo

	assert.Equal(t, "lib/util", info.Name)
	assert.Equal(t, ast.Lib, info.Kind)
	assert.Equal(t, []string{"Amount", "inc", "use_helper", "zero"}, info.ValueNames())
	assert.Equal(t, []string{"Amount", "Count"}, info.TypeNames())
	assert.Contains(t, info.TypesConstructors, "Amount")
	assert.NotContains(t, info.TypesConstructors, "Hidden")
	assert.NotContains(t, info.Types, "Int", "prelude types are not re-exported")
}

func TestPruneInterfaceIsIdempotent(t *testing.T) {
	typed, _ := expectNoErrors(t, library)
	info := typed.TypeInfo

	snapshot := func(info *symbols.TypeInfo) [4]int {
		return [4]int{len(info.Values), len(info.Types), len(info.TypesConstructors), len(info.Accessors)}
	}
	values, types := info.ValueNames(), info.TypeNames()
	before := snapshot(info)

	PruneInterface(info)
	assert.Equal(t, before, snapshot(info))
	PruneInterface(info)
	assert.Equal(t, before, snapshot(info))
	assert.Equal(t, values, info.ValueNames())
	assert.Equal(t, types, info.TypeNames())
}

func TestQualifiedImports(t *testing.T) {
	typed, warnings := expectNoErrors(t, library, `
module: app
definitions:
  - use: lib/util
  - fn: next
    pub: true
    args: ["a: util.Amount"]
    returns: util.Count
    body: {call: {field: inc, of: util}, args: [{field: value, of: a}]}
`)
	assert.Empty(t, warnings)
	assert.Equal(t, "fn(Amount) -> Int", fnType(t, typed, "next"))

	fn := typed.Definitions[1].(*ast.Function)
	call := fn.Body.(*ast.Call)
	assert.Equal(t, "lib/util", call.Fun.(*ast.FieldAccess).Module)
}

func TestUnqualifiedImports(t *testing.T) {
	typed, warnings := expectNoErrors(t, library, `
module: app
definitions:
  - use: lib/util
    as: u
    unqualified: [Amount, {name: inc, as: plus_one}, zero]
  - fn: bump
    pub: true
    args: ["a: Amount"]
    body: {call: Amount, args: [{call: plus_one, args: [{field: value, of: a}]}]}
`)
	assert.Equal(t, "fn(Amount) -> Amount", fnType(t, typed, "bump"))
	require.Len(t, warnings, 1)
	assert.Equal(t, diagnostics.WarnUnusedImportedValue, warnings[0].Kind)
	assert.Equal(t, "zero", warnings[0].Name)
}

func TestImportErrors(t *testing.T) {
	derr := expectInferError(t, diagnostics.ErrUnknownModule, library, `
module: app
definitions:
  - use: lib/utils
`)
	assert.Equal(t, []string{"lib/util"}, derr.Names)

	expectInferError(t, diagnostics.ErrUnknownModuleField, library, `
module: app
definitions:
  - use: lib/util
    unqualified: [helper]
`)

	expectInferError(t, diagnostics.ErrDuplicateImport, library, `
module: app
definitions:
  - use: lib/util
  - use: lib/util
`)

	expectInferError(t, diagnostics.ErrUnknownModuleValue, library, `
module: app
definitions:
  - use: lib/util
  - fn: f
    body: {field: helper, of: util}
`)

	expectInferError(t, diagnostics.ErrUnknownModuleType, library, `
module: app
definitions:
  - use: lib/util
  - fn: f
    args: ["h: util.Hidden"]
    body: h
`)

	expectInferError(t, diagnostics.ErrUnknownModule, `
module: app
definitions:
  - fn: f
    args: ["h: nowhere.Thing"]
    body: h
`)
}
