package modules

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/funvibe/vellum/internal/cache"
	"github.com/funvibe/vellum/internal/config"
	"github.com/funvibe/vellum/internal/diagnostics"
	"github.com/funvibe/vellum/internal/modfile"
	"github.com/funvibe/vellum/internal/typesystem"
)

const (
	baseSrc = `
module: base
definitions:
  - alias: Amount
    pub: true
    type: Int
`
	mathSrc = `
module: lib/math
definitions:
  - use: base
  - fn: double
    pub: true
    args: ["n: base.Amount"]
    body: {op: "*", args: [n, 2]}
`
	textSrc = `
module: lib/text
definitions:
  - fn: greeting
    pub: true
    body: {str: hello}
`
	appSrc = `
module: app
definitions:
  - use: lib/math
  - use: lib/text
  - fn: run
    pub: true
    returns: Int
    body:
      - {let: _g, value: {call: {field: greeting, of: text}, args: []}}
      - {call: {field: double, of: math}, args: [21]}
`
)

func writeModules(t *testing.T, srcs map[string]string) []string {
	t.Helper()
	dir := t.TempDir()
	var files []string
	for name, src := range srcs {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
		files = append(files, path)
	}
	return files
}

func newTestLoader(t *testing.T, store *cache.Store) *Loader {
	cfg := &config.Config{Package: "acme/app", Jobs: 2, Tracing: config.TracingVerbose}
	return NewLoader(cfg, store, zaptest.NewLogger(t))
}

func resultNames(results []*Result) []string {
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Typed.Name
	}
	return names
}

func TestCheckAllFollowsImports(t *testing.T) {
	files := writeModules(t, map[string]string{
		"app.vl.yaml":  appSrc,
		"math.vl.yaml": mathSrc,
		"text.vl.yaml": textSrc,
		"base.vl.yaml": baseSrc,
	})

	results, err := newTestLoader(t, nil).CheckAll(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "lib/text", "lib/math", "app"}, resultNames(results))

	app := results[3]
	run := app.Typed.TypeInfo.Values["run"]
	require.NotNil(t, run)
	assert.Equal(t, "fn() -> Int", typesystem.NewPrinter(nil).Print(run.Type))
	assert.Equal(t, "acme/app", app.Typed.TypeInfo.Package)
	assert.NotEmpty(t, app.Typed.Definitions)
	assert.Empty(t, app.BuildID)
}

func TestCheckAllReportsModuleErrors(t *testing.T) {
	files := writeModules(t, map[string]string{
		"base.vl.yaml": baseSrc,
		"bad.vl.yaml": `
module: bad
definitions:
  - use: base
  - fn: f
    pub: true
    args: ["n: base.Amount"]
    returns: String
    body: n
`,
	})

	_, err := newTestLoader(t, nil).CheckAll(context.Background(), files)
	require.Error(t, err)

	var merr *ModuleError
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, "bad.vl.yaml", filepath.Base(merr.Path))
	assert.NotEmpty(t, merr.Source)

	var derr *diagnostics.DiagnosticError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, diagnostics.ErrCouldNotUnify, derr.Code)
	assert.Equal(t, merr.Path, derr.File)
}

func TestCheckAllReportsDecodeErrors(t *testing.T) {
	files := writeModules(t, map[string]string{
		"broken.vl.yaml": "module: broken\ndefinitions:\n  - fn: f\n    body: {call: }\n",
	})
	_, err := newTestLoader(t, nil).CheckAll(context.Background(), files)

	var serr *modfile.SyntaxError
	require.True(t, errors.As(err, &serr), "got %v", err)
	assert.Equal(t, 4, serr.Pos.Line)
}

func TestCheckAllRejectsCycles(t *testing.T) {
	files := writeModules(t, map[string]string{
		"a.vl.yaml": "module: a\ndefinitions:\n  - use: b\n",
		"b.vl.yaml": "module: b\ndefinitions:\n  - use: a\n",
		"c.vl.yaml": "module: c\ndefinitions: []\n",
	})
	_, err := newTestLoader(t, nil).CheckAll(context.Background(), files)

	var cycle *ImportCycleError
	require.True(t, errors.As(err, &cycle), "got %v", err)
	assert.Equal(t, []string{"a", "b", "a"}, cycle.Cycle)
	assert.Equal(t, "import cycle: a -> b -> a", cycle.Error())
}

func TestCheckAllRejectsDuplicateModules(t *testing.T) {
	files := writeModules(t, map[string]string{
		"one.vl.yaml": baseSrc,
		"two.vl.yaml": baseSrc,
	})
	_, err := newTestLoader(t, nil).CheckAll(context.Background(), files)

	var dup *DuplicateModuleError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "base", dup.Name)
}

func TestCheckAllUsesCache(t *testing.T) {
	ctx := context.Background()
	store, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"), nil)
	require.NoError(t, err)
	defer store.Close()

	deps := writeModules(t, map[string]string{
		"base.vl.yaml": baseSrc,
		"math.vl.yaml": mathSrc,
		"text.vl.yaml": textSrc,
	})
	results, err := newTestLoader(t, store).CheckAll(ctx, deps)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEmpty(t, r.BuildID, r.Typed.Name)
	}

	app := writeModules(t, map[string]string{"app.vl.yaml": appSrc})
	results, err = newTestLoader(t, store).CheckAll(ctx, app)
	require.NoError(t, err)
	assert.Equal(t, []string{"app"}, resultNames(results))

	entries, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestCheckAllUnknownImport(t *testing.T) {
	files := writeModules(t, map[string]string{"app.vl.yaml": appSrc})
	_, err := newTestLoader(t, nil).CheckAll(context.Background(), files)

	var derr *diagnostics.DiagnosticError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, diagnostics.ErrUnknownModule, derr.Code)
}

func TestModuleFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.vl.yaml", "a.vl.yml", "notes.md", "c.yaml"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	files, err := ModuleFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.vl.yml"), filepath.Join(dir, "b.vl.yaml")}, files)
}

func TestLayers(t *testing.T) {
	mods := map[string]*Module{
		"a": {Name: "a", Imports: []string{"b", "c", "external"}},
		"b": {Name: "b", Imports: []string{"c"}},
		"c": {Name: "c"},
		"d": {Name: "d"},
	}
	order, err := layers(mods)
	require.NoError(t, err)

	var names [][]string
	for _, layer := range order {
		var ln []string
		for _, m := range layer {
			ln = append(ln, m.Name)
		}
		names = append(names, ln)
	}
	assert.Equal(t, [][]string{{"c", "d"}, {"b"}, {"a"}}, names)

	mods["c"].Imports = []string{"c"}
	_, err = layers(mods)
	var cycle *ImportCycleError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, []string{"c", "c"}, cycle.Cycle)
}
