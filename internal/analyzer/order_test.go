package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/vellum/internal/ast"
	"github.com/funvibe/vellum/internal/modfile"
)

func TestInferenceOrder(t *testing.T) {
	module, err := modfile.Decode("order.vl.yaml", []byte(`
module: order
definitions:
  - fn: f
    args: [x]
    body: {call: g, args: [x]}
  - const: k
    value: {call: f, args: [1]}
  - fn: g
    args: [x]
    body: x
  - fn: h
    args: [n]
    body: {call: i, args: [n]}
  - fn: i
    args: [n]
    body: {call: h, args: [n]}
  - fn: m
    args: [g]
    body: g
  - fn: n
    body:
      - {let: f, value: 1}
      - {lambda: [h], body: {tuple: [f, h]}}
`))
	require.NoError(t, err)

	var names [][]string
	for _, group := range inferenceOrder(module.Definitions) {
		var members []string
		for _, def := range group {
			members = append(members, valueName(def))
		}
		names = append(names, members)
	}
	assert.Equal(t, [][]string{{"g"}, {"f"}, {"k"}, {"h", "i"}, {"m"}, {"n"}}, names)
}

const chain = `
module: chain
definitions:
  - fn: a
    args: [x]
    body: {call: b, args: [x]}
  - fn: c
    pub: true
    args: [z]
    body: {call: a, args: [z]}
  - fn: b
    args: [y]
    body: {op: "+", args: [y, 1]}
`

func TestGeneralisationWaitsForDependencies(t *testing.T) {
	c := registeredChecker(t, chain)
	env := c.env

	// Textual order: a and c use values that are not generalised yet.
	for _, def := range c.module.Definitions {
		require.Nil(t, c.inferGroup([]ast.Definition{def}))
	}
	assert.True(t, env.ungeneralised["a"])
	assert.True(t, env.ungeneralised["c"])
	assert.False(t, env.ungeneralised["b"])

	for _, def := range c.module.Definitions {
		c.generaliseDefinition(def)
	}
	for _, name := range []string{"a", "b", "c"} {
		assert.Equal(t, "fn(Int) -> Int", show(env.moduleValues[name].Type), name)
	}
}

func TestChainedForwardReferences(t *testing.T) {
	typed, _ := expectNoErrors(t, chain)
	for _, name := range []string{"a", "b", "c"} {
		assert.Equal(t, "fn(Int) -> Int", fnType(t, typed, name), name)
	}
	assert.Equal(t, "fn(Int) -> Int", show(typed.TypeInfo.Values["c"].Type))
}

func TestGenericFunctionUsedBeforeDeclaration(t *testing.T) {
	before := `
module: poly
definitions:
  - const: one
    pub: true
    value: {call: id, args: [1]}
  - fn: both
    pub: true
    body: {pair: [{call: id, args: [1]}, {call: id, args: [{str: two}]}]}
  - fn: id
    pub: true
    args: [x]
    body: x
`
	after := `
module: poly
definitions:
  - fn: id
    pub: true
    args: [x]
    body: x
  - const: one
    pub: true
    value: {call: id, args: [1]}
  - fn: both
    pub: true
    body: {pair: [{call: id, args: [1]}, {call: id, args: [{str: two}]}]}
`
	for _, src := range []string{before, after} {
		typed, _ := expectNoErrors(t, src)
		values := typed.TypeInfo.Values
		assert.Equal(t, "fn(a) -> a", show(values["id"].Type))
		assert.Equal(t, "fn() -> Pair<Int, String>", show(values["both"].Type))
		assert.Equal(t, "Int", show(values["one"].Type))
		assert.Equal(t, "fn(a) -> a", fnType(t, typed, "id"))
	}
}
