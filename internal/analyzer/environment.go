package analyzer

import (
	"sort"

	"go.uber.org/zap"

	"github.com/funvibe/vellum/internal/ast"
	"github.com/funvibe/vellum/internal/config"
	"github.com/funvibe/vellum/internal/diagnostics"
	"github.com/funvibe/vellum/internal/symbols"
	"github.com/funvibe/vellum/internal/token"
	"github.com/funvibe/vellum/internal/typesystem"
)

// entityKind classifies a usage-tracked name. It decides which warning an
// unused entity turns into.
type entityKind int

const (
	entityVariable entityKind = iota
	entityPrivateConstant
	entityPrivateFunction
	entityPrivateType
	entityPrivateTypeConstructor
	entityImportedModule
	entityImportedConstructor
	entityImportedType
	entityImportedTypeAndConstructor
	entityImportedValue
)

type entityUsage struct {
	kind entityKind
	span token.Span
	used bool
}

type importedModule struct {
	span token.Span
	name string
}

type paramKey struct {
	name string
	span token.Span
}

// Environment is the mutable state of one module check.
type Environment struct {
	moduleName string
	moduleKind ast.ModuleKind
	vt         *typesystem.VarTable
	// rank of the variables created while inferring definitions.
	rank int

	importable      map[string]*symbols.TypeInfo
	importedModules map[string]importedModule

	moduleTypes             map[string]*symbols.TypeConstructor
	moduleTypesConstructors map[string][]string
	moduleValues            map[string]*symbols.ValueConstructor
	accessors               map[string]*symbols.AccessorsMap

	// scopes and entityUsages are parallel stacks; frame 0 is the module.
	scopes       []map[string]*symbols.ValueConstructor
	entityUsages []map[string]*entityUsage

	// ungeneralised holds the module functions and constants whose
	// types are not generalised yet.
	ungeneralised   map[string]bool
	// group holds the constants and functions inferred together with the
	// current definition.
	group           map[string]bool
	validatorParams map[paramKey]bool

	warnings []diagnostics.Warning
	logger   *zap.Logger
}

// NewEnvironment prepares an environment seeded with the prelude.
func NewEnvironment(ids *typesystem.IDGen, moduleName string, kind ast.ModuleKind, importable map[string]*symbols.TypeInfo, logger *zap.Logger) *Environment {
	if logger == nil {
		logger = zap.NewNop()
	}
	env := &Environment{
		moduleName:              moduleName,
		moduleKind:              kind,
		vt:                      typesystem.NewVarTable(ids),
		rank:                    1,
		importable:              importable,
		importedModules:         make(map[string]importedModule),
		moduleTypes:             make(map[string]*symbols.TypeConstructor),
		moduleTypesConstructors: make(map[string][]string),
		moduleValues:            make(map[string]*symbols.ValueConstructor),
		accessors:               make(map[string]*symbols.AccessorsMap),
		scopes:                  []map[string]*symbols.ValueConstructor{{}},
		entityUsages:            []map[string]*entityUsage{{}},
		ungeneralised:           make(map[string]bool),
		validatorParams:         make(map[paramKey]bool),
		logger:                  logger.With(zap.String("module", moduleName)),
	}

	prelude := Prelude(ids)
	for name, tc := range prelude.Types {
		env.moduleTypes[name] = tc
	}
	for name, ctors := range prelude.TypesConstructors {
		env.moduleTypesConstructors[name] = ctors
	}
	for name, vc := range prelude.Values {
		env.scopes[0][name] = &symbols.ValueConstructor{Public: vc.Public, Variant: vc.Variant, Type: vc.Type}
	}
	return env
}

// VarTable exposes the unification variables of this check.
func (e *Environment) VarTable() *typesystem.VarTable { return e.vt }

// NewUnboundVar creates a fresh variable at the inference rank.
func (e *Environment) NewUnboundVar() typesystem.Type {
	return e.vt.Fresh(e.rank)
}

// OpenScope pushes a scope frame and returns the depth to close back to.
func (e *Environment) OpenScope() int {
	depth := len(e.scopes)
	e.scopes = append(e.scopes, map[string]*symbols.ValueConstructor{})
	e.entityUsages = append(e.entityUsages, map[string]*entityUsage{})
	return depth
}

// CloseScope pops every frame opened since OpenScope returned depth and
// reports the entities that were never used.
func (e *Environment) CloseScope(depth int) {
	for len(e.scopes) > depth {
		last := len(e.scopes) - 1
		e.handleUnused(e.entityUsages[last])
		e.scopes = e.scopes[:last]
		e.entityUsages = e.entityUsages[:last]
	}
}

// InNewScope runs fn inside a fresh scope.
func (e *Environment) InNewScope(fn func() *diagnostics.DiagnosticError) *diagnostics.DiagnosticError {
	depth := e.OpenScope()
	err := fn()
	e.CloseScope(depth)
	return err
}

func (e *Environment) insertVariable(name string, variant symbols.ValueVariant, t typesystem.Type) {
	e.scopes[len(e.scopes)-1][name] = &symbols.ValueConstructor{Public: false, Variant: variant, Type: t}
}

// insertModuleValue registers a top-level value both in scope and in the
// module registry.
func (e *Environment) insertModuleValue(name string, vc *symbols.ValueConstructor) {
	e.scopes[0][name] = &symbols.ValueConstructor{Public: vc.Public, Variant: vc.Variant, Type: vc.Type}
	e.moduleValues[name] = vc
}

// updateModuleValueType replaces the type a top-level value is known by.
func (e *Environment) updateModuleValueType(name string, t typesystem.Type) {
	if vc, ok := e.scopes[0][name]; ok {
		vc.Type = t
	}
	if vc, ok := e.moduleValues[name]; ok {
		vc.Type = t
	}
}

// getVariable looks a name up without counting it as a use.
func (e *Environment) getVariable(name string) (*symbols.ValueConstructor, bool) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if vc, ok := e.scopes[i][name]; ok {
			return vc, true
		}
	}
	return nil, false
}

func (e *Environment) scopeNames() []string {
	seen := make(map[string]bool)
	for _, frame := range e.scopes {
		for name := range frame {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetValueConstructor resolves a possibly module-qualified value and
// records the use.
func (e *Environment) GetValueConstructor(module, name string, span token.Span) (*symbols.ValueConstructor, *diagnostics.DiagnosticError) {
	if module == "" {
		vc, ok := e.getVariable(name)
		if !ok {
			err := diagnostics.NewError(diagnostics.ErrUnknownVariable, span, name)
			err.Names = e.scopeNames()
			return nil, err
		}
		e.incrementUsage(name)
		return vc, nil
	}

	info, err := e.importedModule(module, span)
	if err != nil {
		return nil, err
	}
	vc, ok := info.Values[name]
	if !ok {
		derr := diagnostics.NewError(diagnostics.ErrUnknownModuleValue, span, info.Name, name)
		derr.Names = info.ValueNames()
		return nil, derr
	}
	return vc, nil
}

// GetTypeConstructor resolves a possibly module-qualified type name.
func (e *Environment) GetTypeConstructor(module, name string, span token.Span) (*symbols.TypeConstructor, *diagnostics.DiagnosticError) {
	if module == "" {
		tc, ok := e.moduleTypes[name]
		if !ok {
			err := diagnostics.NewError(diagnostics.ErrUnknownType, span, name)
			err.Names = []string{name}
			return nil, err
		}
		e.incrementUsage(name)
		return tc, nil
	}

	info, err := e.importedModule(module, span)
	if err != nil {
		return nil, err
	}
	tc, ok := info.Types[name]
	if !ok {
		derr := diagnostics.NewError(diagnostics.ErrUnknownModuleType, span, info.Name, name)
		derr.Names = info.TypeNames()
		return nil, derr
	}
	return tc, nil
}

// importedModule resolves an import alias and records its use.
func (e *Environment) importedModule(alias string, span token.Span) (*symbols.TypeInfo, *diagnostics.DiagnosticError) {
	imp, ok := e.importedModules[alias]
	if !ok {
		return nil, e.unknownModule(alias, span)
	}
	e.incrementUsage(alias)
	return e.importable[imp.name], nil
}

// findModule resolves a full module path among the importable modules.
func (e *Environment) findModule(name string, span token.Span) (*symbols.TypeInfo, *diagnostics.DiagnosticError) {
	info, ok := e.importable[name]
	if !ok {
		return nil, e.unknownModule(name, span)
	}
	return info, nil
}

func (e *Environment) unknownModule(name string, span token.Span) *diagnostics.DiagnosticError {
	err := diagnostics.NewError(diagnostics.ErrUnknownModule, span, name)
	for known := range e.importable {
		err.Names = append(err.Names, known)
	}
	sort.Strings(err.Names)
	return err
}

// initUsage starts tracking name in the innermost frame. Tracking an
// entity again before it was used reports the first one as unused, except
// for a private type shadowed by its own constructor.
func (e *Environment) initUsage(name string, kind entityKind, span token.Span) {
	frame := e.entityUsages[len(e.entityUsages)-1]
	if prev, ok := frame[name]; ok && !prev.used && prev.kind != entityPrivateType {
		e.handleUnused(map[string]*entityUsage{name: prev})
	}
	frame[name] = &entityUsage{kind: kind, span: span}
}

func (e *Environment) incrementUsage(name string) {
	for i := len(e.entityUsages) - 1; i >= 0; i-- {
		if u, ok := e.entityUsages[i][name]; ok {
			u.used = true
			return
		}
	}
}

func (e *Environment) handleUnused(usages map[string]*entityUsage) {
	names := make([]string, 0, len(usages))
	for name, u := range usages {
		if !u.used {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return usages[names[i]].span.Start < usages[names[j]].span.Start
	})

	for _, name := range names {
		u := usages[name]
		w := diagnostics.Warning{Span: u.span, Name: name}
		switch u.kind {
		case entityVariable:
			if len(name) > 0 && name[:1] == config.DiscardPrefix {
				continue
			}
			w.Kind = diagnostics.WarnUnusedVariable
		case entityPrivateConstant:
			w.Kind = diagnostics.WarnUnusedPrivateModuleConstant
		case entityPrivateFunction:
			w.Kind = diagnostics.WarnUnusedPrivateFunction
		case entityPrivateType:
			w.Kind = diagnostics.WarnUnusedType
		case entityImportedType, entityImportedTypeAndConstructor:
			w.Kind = diagnostics.WarnUnusedType
			w.Imported = true
		case entityPrivateTypeConstructor:
			w.Kind = diagnostics.WarnUnusedConstructor
		case entityImportedConstructor:
			w.Kind = diagnostics.WarnUnusedConstructor
			w.Imported = true
		case entityImportedModule:
			w.Kind = diagnostics.WarnUnusedImportedModule
		case entityImportedValue:
			w.Kind = diagnostics.WarnUnusedImportedValue
		}
		e.warnings = append(e.warnings, w)
	}
}

// convertUnusedToWarnings closes every remaining frame, the module frame
// included.
func (e *Environment) convertUnusedToWarnings() {
	for i := len(e.entityUsages) - 1; i >= 0; i-- {
		e.handleUnused(e.entityUsages[i])
	}
	e.entityUsages = e.entityUsages[:1]
	e.entityUsages[0] = map[string]*entityUsage{}
}

// Unify solves expected = given and reports failures at span.
func (e *Environment) Unify(expected, given typesystem.Type, span token.Span, allowSubsumption bool) *diagnostics.DiagnosticError {
	err := typesystem.Unify(e.vt, expected, given, allowSubsumption)
	if err == nil {
		return nil
	}
	uerr, ok := err.(*typesystem.UnifyError)
	if !ok {
		return diagnostics.NewUnifyError(diagnostics.ErrCouldNotUnify, span, e.vt.Zonk(expected), e.vt.Zonk(given), diagnostics.NoSituation)
	}
	if uerr.Kind == typesystem.RecursiveType {
		p := typesystem.NewPrinter(e.vt)
		derr := diagnostics.NewError(diagnostics.ErrRecursiveType, span, p.Print(uerr.Expected), p.Print(uerr.Given))
		derr.Expected = e.vt.Zonk(uerr.Expected)
		derr.Given = e.vt.Zonk(uerr.Given)
		return derr
	}
	return diagnostics.NewUnifyError(diagnostics.ErrCouldNotUnify, span, uerr.Expected, uerr.Given, diagnostics.NoSituation)
}

// instantiate gives a module-level value fresh variables for its generics.
func (e *Environment) instantiate(t typesystem.Type) typesystem.Type {
	return typesystem.Instantiate(e.vt, t, e.rank, make(map[uint64]typesystem.Type))
}

// printer renders types resolved against this environment.
func (e *Environment) printer() *typesystem.Printer {
	return typesystem.NewPrinter(e.vt)
}
