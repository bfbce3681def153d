// Package symbols holds the registries a module check produces and
// consumes: value and type constructors, record accessors, and the
// TypeInfo bundle exported by every compiled module.
package symbols

import (
	"sort"

	"github.com/funvibe/vellum/internal/ast"
	"github.com/funvibe/vellum/internal/token"
	"github.com/funvibe/vellum/internal/typesystem"
)

// ValueVariant tells where a value comes from.
type ValueVariant interface {
	Location() token.Span
	valueVariant()
}

// LocalVariable is a function argument or a let binding.
type LocalVariable struct {
	Span token.Span
}

type ModuleConstant struct {
	Span   token.Span
	Module string
	Name   string
}

type ModuleFn struct {
	Span   token.Span
	Module string
	Name   string
	Arity  int
}

// Record is a data type constructor used as a value.
type Record struct {
	Span              token.Span
	Module            string
	Name              string
	Arity             int
	ConstructorsCount int
	// FieldMap maps labels to argument positions, when fields are labelled.
	FieldMap map[string]int
}

func (v LocalVariable) Location() token.Span  { return v.Span }
func (v ModuleConstant) Location() token.Span { return v.Span }
func (v ModuleFn) Location() token.Span       { return v.Span }
func (v Record) Location() token.Span         { return v.Span }

func (LocalVariable) valueVariant()  {}
func (ModuleConstant) valueVariant() {}
func (ModuleFn) valueVariant()       {}
func (Record) valueVariant()         {}

// IsModuleLevel reports whether values of this variant are instantiated at
// every reference.
func IsModuleLevel(v ValueVariant) bool {
	_, local := v.(LocalVariable)
	return !local
}

// ValueConstructor is a named value with its type.
type ValueConstructor struct {
	Public  bool
	Variant ValueVariant
	Type    typesystem.Type
}

// TypeConstructor describes a named type: its generic parameters and the
// type those parameters appear in.
type TypeConstructor struct {
	Public     bool
	Span       token.Span
	Module     string
	Parameters []typesystem.Type
	Type       typesystem.Type
}

// RecordAccessor gives access to one labelled field of a record.
type RecordAccessor struct {
	Index int
	Label string
	Type  typesystem.Type
}

// AccessorsMap holds the field accessors of a single-constructor type.
// Type is the record type the accessors apply to; it shares generics with
// the accessor types.
type AccessorsMap struct {
	Public    bool
	Type      typesystem.Type
	Accessors map[string]RecordAccessor
}

// TypeInfo is the public interface of a compiled module.
type TypeInfo struct {
	Name              string
	Package           string
	Kind              ast.ModuleKind
	Types             map[string]*TypeConstructor
	TypesConstructors map[string][]string
	Values            map[string]*ValueConstructor
	Accessors         map[string]*AccessorsMap
}

func NewTypeInfo(name, pkg string, kind ast.ModuleKind) *TypeInfo {
	return &TypeInfo{
		Name:              name,
		Package:           pkg,
		Kind:              kind,
		Types:             make(map[string]*TypeConstructor),
		TypesConstructors: make(map[string][]string),
		Values:            make(map[string]*ValueConstructor),
		Accessors:         make(map[string]*AccessorsMap),
	}
}

// ValueNames returns the value names in sorted order.
func (ti *TypeInfo) ValueNames() []string {
	return sortedKeys(ti.Values)
}

// TypeNames returns the type names in sorted order.
func (ti *TypeInfo) TypeNames() []string {
	return sortedKeys(ti.Types)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
