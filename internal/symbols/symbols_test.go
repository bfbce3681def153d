package symbols

import (
	"testing"

	"github.com/funvibe/vellum/internal/ast"
	"github.com/funvibe/vellum/internal/token"
	"github.com/funvibe/vellum/internal/typesystem"
	"github.com/stretchr/testify/assert"
)

func TestTypeInfoNames(t *testing.T) {
	ti := NewTypeInfo("acme/types", "acme", ast.Lib)
	ti.Values["zeta"] = &ValueConstructor{Public: true, Variant: ModuleFn{Name: "zeta"}, Type: typesystem.Int()}
	ti.Values["alpha"] = &ValueConstructor{Public: true, Variant: ModuleConstant{Name: "alpha"}, Type: typesystem.Int()}
	ti.Types["Datum"] = &TypeConstructor{Public: true, Type: typesystem.Data()}

	assert.Equal(t, []string{"alpha", "zeta"}, ti.ValueNames())
	assert.Equal(t, []string{"Datum"}, ti.TypeNames())
}

func TestIsModuleLevel(t *testing.T) {
	assert.False(t, IsModuleLevel(LocalVariable{Span: token.Span{Start: 1, End: 2}}))
	assert.True(t, IsModuleLevel(ModuleFn{}))
	assert.True(t, IsModuleLevel(Record{}))
	assert.True(t, IsModuleLevel(ModuleConstant{}))
}
