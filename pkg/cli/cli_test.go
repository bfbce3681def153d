package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/vellum/internal/config"
)

const projectYAML = `
package: acme/tokens
modules:
  - modules/base.vl.yaml
  - modules/app.vl.yaml
log_level: error
color: never
jobs: 2
`

const baseModule = `
module: base
definitions:
  - type: Token
    pub: true
    opaque: true
    constructors:
      - {name: Token, fields: [{label: id, type: ByteArray}]}
  - alias: Amount
    pub: true
    type: Int
  - fn: mint
    pub: true
    args: ["id: ByteArray"]
    returns: Token
    body: {call: Token, args: [id]}
`

const appModule = `
module: app
definitions:
  - use: base
  - fn: issue
    pub: true
    args: [unused]
    returns: base.Token
    body: {call: {field: mint, of: base}, args: [{bytes: "00ff"}]}
`

func writeProject(t *testing.T, app string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "modules"), 0o755))
	files := map[string]string{
		"vellum.yaml":          projectYAML,
		"modules/base.vl.yaml": baseModule,
		"modules/app.vl.yaml":  app,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return filepath.Join(dir, "vellum.yaml")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand(&out, &out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCheckPrintsWarnings(t *testing.T) {
	cfg := writeProject(t, appModule)
	out, err := run(t, "check", "-c", cfg)
	require.NoError(t, err, out)

	assert.Contains(t, out, "app.vl.yaml:7:12: warning[W001]: unused variable \"unused\"")
	assert.Contains(t, out, "checked 2 module(s), 1 warning(s)")
}

func TestCheckFailsWithLocation(t *testing.T) {
	broken := strings.Replace(appModule, "returns: base.Token", "returns: Int", 1)
	cfg := writeProject(t, broken)
	out, err := run(t, "check", "-c", cfg)
	require.ErrorIs(t, err, ErrCheckFailed)

	assert.Contains(t, out, "app.vl.yaml:")
	assert.Contains(t, out, ": error[T201]: type mismatch: expected Int, got Token")
	assert.NotContains(t, out, "checked")
}

func TestCheckExplicitPaths(t *testing.T) {
	cfg := writeProject(t, appModule)
	base := filepath.Join(filepath.Dir(cfg), "modules", "base.vl.yaml")
	out, err := run(t, "check", "-c", cfg, "--no-cache", base)
	require.NoError(t, err, out)
	assert.Contains(t, out, "checked 1 module(s), 0 warning(s)")

	_, err = os.Stat(filepath.Join(filepath.Dir(cfg), config.DefaultCachePath))
	assert.True(t, os.IsNotExist(err), "no cache is written with --no-cache")
}

func TestInterfaceCommand(t *testing.T) {
	cfg := writeProject(t, appModule)
	_, err := run(t, "check", "-c", cfg)
	require.NoError(t, err)

	out, err := run(t, "interface", "-c", cfg, "base")
	require.NoError(t, err)
	assert.Contains(t, out, "module base (lib)")
	assert.Contains(t, out, "package acme/tokens")
	assert.Contains(t, out, "opaque Token")
	assert.Contains(t, out, "Amount = Int")
	assert.Contains(t, out, "mint: fn(ByteArray) -> Token")
	assert.NotContains(t, out, "  Token: ", "opaque constructors are not exported")

	out, err = run(t, "interface", "-c", cfg, "--raw", "app")
	require.NoError(t, err)
	assert.Contains(t, out, "symbols.TypeInfo")

	_, err = run(t, "interface", "-c", cfg, "missing")
	assert.Error(t, err)
}

func TestUseColor(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, useColor(config.ColorAlways, &buf))
	assert.False(t, useColor(config.ColorNever, &buf))
	assert.False(t, useColor(config.ColorAuto, &buf), "buffers are not terminals")
}
