package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/vellum/internal/analyzer"
	"github.com/funvibe/vellum/internal/ast"
	"github.com/funvibe/vellum/internal/diagnostics"
	"github.com/funvibe/vellum/internal/modfile"
	"github.com/funvibe/vellum/internal/symbols"
	"github.com/funvibe/vellum/internal/typesystem"
)

const library = `
module: lib/coins
definitions:
  - type: Coin
    pub: true
    params: [a]
    constructors:
      - name: Coin
        fields:
          - {label: policy, type: ByteArray}
          - {label: amount, type: a}
  - fn: amount
    pub: true
    args: ["c: Coin<a>"]
    body: {field: amount, of: c}
  - const: zero
    pub: true
    value: 0
`

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "interfaces.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func compile(t *testing.T, src string, ids *typesystem.IDGen, importable map[string]*symbols.TypeInfo) *analyzer.TypedModule {
	t.Helper()
	module, err := modfile.Decode("m.vl.yaml", []byte(src))
	require.NoError(t, err)
	var warnings []diagnostics.Warning
	typed, err := analyzer.Infer(module, ids, importable, analyzer.Options{Package: "acme/coins"}, &warnings)
	require.NoError(t, err)
	return typed
}

func show(t typesystem.Type) string {
	return typesystem.NewPrinter(nil).Print(t)
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	info := compile(t, library, typesystem.NewIDGen(), nil).TypeInfo

	put, err := store.Put(ctx, info)
	require.NoError(t, err)
	assert.NotEmpty(t, put.BuildID)

	got, err := store.Get(ctx, "lib/coins")
	require.NoError(t, err)
	assert.Equal(t, put.BuildID, got.BuildID)
	assert.Equal(t, "acme/coins", got.Package)
	assert.Equal(t, put.CreatedAt, got.CreatedAt)

	decoded := got.Info
	assert.Equal(t, ast.Lib, decoded.Kind)
	assert.Equal(t, info.ValueNames(), decoded.ValueNames())
	assert.Equal(t, info.TypeNames(), decoded.TypeNames())
	assert.Equal(t, show(info.Values["amount"].Type), show(decoded.Values["amount"].Type))
	assert.Equal(t, "fn(Coin<a>) -> a", show(decoded.Values["amount"].Type))

	record, ok := decoded.Values["Coin"].Variant.(symbols.Record)
	require.True(t, ok)
	assert.Equal(t, 1, record.FieldMap["amount"])
	assert.Equal(t, 1, decoded.Accessors["Coin"].Accessors["amount"].Index)
}

func TestPutReplacesEntry(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	info := compile(t, library, typesystem.NewIDGen(), nil).TypeInfo

	first, err := store.Put(ctx, info)
	require.NoError(t, err)
	second, err := store.Put(ctx, info)
	require.NoError(t, err)
	assert.NotEqual(t, first.BuildID, second.BuildID)

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, second.BuildID, entries[0].BuildID)
	assert.Nil(t, entries[0].Info)
}

func TestGetMissing(t *testing.T) {
	store := openStore(t)
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	info := compile(t, library, typesystem.NewIDGen(), nil).TypeInfo
	_, err := store.Put(ctx, info)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "lib/coins"))
	require.NoError(t, store.Delete(ctx, "lib/coins"))
	_, err = store.Get(ctx, "lib/coins")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachedInterfaceIsImportable(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	ids := typesystem.NewIDGen()
	_, err := store.Put(ctx, compile(t, library, ids, nil).TypeInfo)
	require.NoError(t, err)

	importable, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Contains(t, importable, "lib/coins")

	typed := compile(t, `
module: app
definitions:
  - use: lib/coins
  - fn: total
    pub: true
    args: ["c: coins.Coin<Int>"]
    body: {op: "+", args: [{call: {field: amount, of: coins}, args: [c]}, {field: zero, of: coins}]}
`, ids, importable)
	assert.Equal(t, "fn(Coin<Int>) -> Int", show(typed.TypeInfo.Values["total"].Type))
}

func TestDecodeEmptyInterface(t *testing.T) {
	payload, err := Encode(&symbols.TypeInfo{Name: "empty"})
	require.NoError(t, err)
	info, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, "empty", info.Name)
	assert.NotNil(t, info.Values)
	assert.NotNil(t, info.Types)

	_, err = Decode([]byte("not gob"))
	assert.Error(t, err)
}
