package analyzer

import (
	"sort"
	"strings"

	"github.com/funvibe/vellum/internal/ast"
	"github.com/funvibe/vellum/internal/config"
	"github.com/funvibe/vellum/internal/diagnostics"
	"github.com/funvibe/vellum/internal/symbols"
	"github.com/funvibe/vellum/internal/token"
	"github.com/funvibe/vellum/internal/typesystem"
)

func (c *moduleChecker) registerImport(def ast.Definition) *diagnostics.DiagnosticError {
	use, ok := def.(*ast.Use)
	if !ok {
		return nil
	}
	env := c.env

	info, err := env.findModule(use.Module, use.Span)
	if err != nil {
		return err
	}
	if info.Kind.IsValidator() {
		return diagnostics.NewError(diagnostics.ErrValidatorImported, use.Span, use.Module)
	}

	for _, u := range use.Unqualified {
		name := u.Variable()
		tc, isType := info.Types[u.Name]
		vc, isValue := info.Values[u.Name]

		if !isType && !isValue {
			derr := diagnostics.NewError(diagnostics.ErrUnknownModuleField, u.Span, use.Module, u.Name)
			derr.Names = append(info.ValueNames(), info.TypeNames()...)
			return derr
		}
		if isType {
			env.moduleTypes[name] = tc
		}
		if isValue {
			env.insertVariable(name, vc.Variant, vc.Type)
		}

		var kind entityKind
		switch {
		case isType && isValue:
			kind = entityImportedTypeAndConstructor
		case isType:
			kind = entityImportedType
		default:
			if _, isRecord := vc.Variant.(symbols.Record); isRecord {
				kind = entityImportedConstructor
			} else {
				kind = entityImportedValue
			}
		}
		env.initUsage(name, kind, u.Span)
	}

	alias := use.Alias()
	if prev, dup := env.importedModules[alias]; dup {
		return diagnostics.NewError(diagnostics.ErrDuplicateImport, use.Span, use.Module, alias).WithRelated(prev.span)
	}
	env.importedModules[alias] = importedModule{span: use.Span, name: use.Module}

	// A module imported only for some of its names is used through them.
	if len(use.Unqualified) == 0 {
		env.initUsage(alias, entityImportedModule, use.Span)
	}
	return nil
}

// registerTypes registers data types, then aliases until none is left.
// Aliases may refer to aliases declared later in the module.
func (c *moduleChecker) registerTypes() *diagnostics.DiagnosticError {
	var aliases []*ast.TypeAlias
	for _, def := range c.module.Definitions {
		switch d := def.(type) {
		case *ast.DataType:
			if err := c.registerDataType(d); err != nil {
				return err
			}
		case *ast.TypeAlias:
			if err := c.checkTypeName(d.Alias, d.Span); err != nil {
				return err
			}
			aliases = append(aliases, d)
		}
	}

	for len(aliases) > 0 {
		var pending []*ast.TypeAlias
		var firstErr *diagnostics.DiagnosticError
		for _, a := range aliases {
			if err := c.registerTypeAlias(a); err != nil {
				if firstErr == nil {
					firstErr = err
				}
				pending = append(pending, a)
			}
		}
		if len(pending) == len(aliases) {
			return c.aliasResolutionError(pending, firstErr)
		}
		aliases = pending
	}
	return nil
}

// aliasResolutionError tells a cycle between aliases apart from a plain
// unknown type.
func (c *moduleChecker) aliasResolutionError(pending []*ast.TypeAlias, err *diagnostics.DiagnosticError) *diagnostics.DiagnosticError {
	if err.Code != diagnostics.ErrUnknownType || len(err.Names) == 0 {
		return err
	}
	names := make([]string, len(pending))
	isPending := false
	for i, a := range pending {
		names[i] = a.Alias
		if a.Alias == err.Names[0] {
			isPending = true
		}
	}
	if !isPending {
		return err
	}
	sort.Strings(names)
	cycle := diagnostics.NewError(diagnostics.ErrCyclicTypeDefinitions, pending[0].Span, strings.Join(names, ", "))
	cycle.Names = names
	return cycle
}

func (c *moduleChecker) checkTypeName(name string, span token.Span) *diagnostics.DiagnosticError {
	if prev, ok := c.typeNames[name]; ok {
		return diagnostics.NewError(diagnostics.ErrDuplicateTypeName, span, name).WithRelated(prev)
	}
	c.typeNames[name] = span
	return nil
}

func (c *moduleChecker) registerDataType(d *ast.DataType) *diagnostics.DiagnosticError {
	env := c.env
	if err := c.checkTypeName(d.Name, d.Span); err != nil {
		return err
	}

	hydrator := NewHydrator()
	params := make([]typesystem.Type, len(d.Parameters))
	for i, p := range d.Parameters {
		g := env.vt.NewGeneric()
		hydrator.AddTypeVariable(p, g)
		params[i] = g
	}
	hydrator.DisallowNewTypeVariables()

	env.moduleTypes[d.Name] = &symbols.TypeConstructor{
		Public:     d.Public,
		Span:       d.Span,
		Module:     env.moduleName,
		Parameters: params,
		Type: &typesystem.App{
			Public: d.Public,
			Opaque: d.Opaque,
			Module: env.moduleName,
			Name:   d.Name,
			Args:   params,
		},
	}
	c.hydrators[d.Name] = hydrator

	ctors := make([]string, len(d.Constructors))
	for i, ctor := range d.Constructors {
		ctors[i] = ctor.Name
	}
	env.moduleTypesConstructors[d.Name] = ctors

	if !d.Public {
		env.initUsage(d.Name, entityPrivateType, d.Span)
	}
	return nil
}

func (c *moduleChecker) registerTypeAlias(a *ast.TypeAlias) *diagnostics.DiagnosticError {
	env := c.env
	hydrator := NewHydrator()
	params := make([]typesystem.Type, len(a.Parameters))
	for i, p := range a.Parameters {
		g := env.vt.NewGeneric()
		hydrator.AddTypeVariable(p, g)
		params[i] = g
	}
	hydrator.DisallowNewTypeVariables()

	t, err := hydrator.Type(a.Annotation, env)
	if err != nil {
		return err
	}
	env.moduleTypes[a.Alias] = &symbols.TypeConstructor{
		Public:     a.Public,
		Span:       a.Span,
		Module:     env.moduleName,
		Parameters: params,
		Type:       t,
	}
	if !a.Public {
		env.initUsage(a.Alias, entityPrivateType, a.Span)
	}
	return nil
}

func (c *moduleChecker) checkValueName(name string, span token.Span) *diagnostics.DiagnosticError {
	if prev, ok := c.valueNames[name]; ok {
		return diagnostics.NewError(diagnostics.ErrDuplicateName, span, name).WithRelated(prev)
	}
	c.valueNames[name] = span
	return nil
}

func (c *moduleChecker) registerValues(def ast.Definition) *diagnostics.DiagnosticError {
	switch d := def.(type) {
	case *ast.Function:
		if err := c.checkValueName(d.Name, d.Span); err != nil {
			return err
		}
		return c.registerFunction(d.Name, d.Span, d.Public, d.Arguments, d.ReturnAnnotation)

	case *ast.Validator:
		if !c.env.moduleKind.IsValidator() {
			return nil
		}
		if d.Fallback == nil {
			d.Fallback = ast.DefaultFallback(d.Span)
		}
		for _, h := range append(append([]*ast.Function{}, d.Handlers...), d.Fallback) {
			name := config.HandlerName(d.Name, h.Name)
			if prev, ok := c.valueNames[name]; ok {
				return diagnostics.NewError(diagnostics.ErrDuplicateHandler, h.Span, d.Name, h.Name).WithRelated(prev)
			}
			c.valueNames[name] = h.Span
			args := append(append([]*ast.Arg{}, d.Params...), h.Arguments...)
			if err := c.registerFunction(name, h.Span, h.Public, args, h.ReturnAnnotation); err != nil {
				return err
			}
		}
		return nil

	case *ast.Test:
		return c.registerProperty(&d.Property)

	case *ast.Benchmark:
		return c.registerProperty(&d.Property)

	case *ast.DataType:
		return c.registerConstructors(d)

	case *ast.ModuleConstant:
		return c.registerConstant(d)
	}
	return nil
}

func (c *moduleChecker) registerFunction(name string, span token.Span, public bool, args []*ast.Arg, ret ast.Annotation) *diagnostics.DiagnosticError {
	env := c.env
	hydrator := NewHydrator()

	argTypes := make([]typesystem.Type, len(args))
	for i, arg := range args {
		t, err := hydrator.TypeFromOptionAnnotation(arg.Annotation, env)
		if err != nil {
			return err
		}
		argTypes[i] = t
	}
	retType, err := hydrator.TypeFromOptionAnnotation(ret, env)
	if err != nil {
		return err
	}
	c.hydrators[name] = hydrator

	env.insertModuleValue(name, &symbols.ValueConstructor{
		Public: public,
		Variant: symbols.ModuleFn{
			Span:   span,
			Module: env.moduleName,
			Name:   name,
			Arity:  len(args),
		},
		Type: typesystem.Function(argTypes, retType),
	})
	env.ungeneralised[name] = true
	if !public {
		env.initUsage(name, entityPrivateFunction, span)
	}
	return nil
}

// registerProperty gives a test or benchmark a function signature. It is
// kept out of the module registry.
func (c *moduleChecker) registerProperty(p *ast.Property) *diagnostics.DiagnosticError {
	env := c.env
	if err := c.checkValueName(p.Name, p.Span); err != nil {
		return err
	}
	hydrator := NewHydrator()

	argTypes := make([]typesystem.Type, len(p.Arguments))
	for i, av := range p.Arguments {
		t, err := hydrator.TypeFromOptionAnnotation(av.Arg.Annotation, env)
		if err != nil {
			return err
		}
		argTypes[i] = t
	}
	retType, err := hydrator.TypeFromOptionAnnotation(p.ReturnAnnotation, env)
	if err != nil {
		return err
	}
	c.hydrators[p.Name] = hydrator

	env.scopes[0][p.Name] = &symbols.ValueConstructor{
		Variant: symbols.ModuleFn{
			Span:   p.Span,
			Module: env.moduleName,
			Name:   p.Name,
			Arity:  len(p.Arguments),
		},
		Type: typesystem.Function(argTypes, retType),
	}
	return nil
}

func (c *moduleChecker) registerConstructors(d *ast.DataType) *diagnostics.DiagnosticError {
	env := c.env
	tc := env.moduleTypes[d.Name]
	hydrator := c.hydrators[d.Name]
	ctorPublic := d.Public && !d.Opaque

	for _, ctor := range d.Constructors {
		if err := c.checkValueName(ctor.Name, ctor.Span); err != nil {
			return err
		}

		fields := make([]typesystem.Type, len(ctor.Arguments))
		fieldMap := make(map[string]int)
		for i, arg := range ctor.Arguments {
			t, err := hydrator.Type(arg.Annotation, env)
			if err != nil {
				return err
			}
			fields[i] = t
			if arg.Label != "" {
				fieldMap[arg.Label] = i
			}
		}

		ctorType := tc.Type
		if len(fields) > 0 {
			ctorType = typesystem.Function(fields, tc.Type)
		}

		if len(d.Constructors) == 1 && len(fieldMap) > 0 && len(fieldMap) == len(fields) {
			accessors := make(map[string]symbols.RecordAccessor, len(fields))
			for label, index := range fieldMap {
				accessors[label] = symbols.RecordAccessor{Index: index, Label: label, Type: fields[index]}
			}
			env.accessors[d.Name] = &symbols.AccessorsMap{
				Public:    ctorPublic,
				Type:      tc.Type,
				Accessors: accessors,
			}
		}

		if len(fieldMap) == 0 {
			fieldMap = nil
		}
		env.insertModuleValue(ctor.Name, &symbols.ValueConstructor{
			Public: ctorPublic,
			Variant: symbols.Record{
				Span:              ctor.Span,
				Module:            env.moduleName,
				Name:              ctor.Name,
				Arity:             len(fields),
				ConstructorsCount: len(d.Constructors),
				FieldMap:          fieldMap,
			},
			Type: ctorType,
		})
		if !d.Public {
			env.initUsage(ctor.Name, entityPrivateTypeConstructor, ctor.Span)
		}
	}
	return nil
}

// registerConstant makes a constant visible to every definition. Its type
// is refined when the constant is inferred.
func (c *moduleChecker) registerConstant(k *ast.ModuleConstant) *diagnostics.DiagnosticError {
	env := c.env
	if err := c.checkValueName(k.Name, k.Span); err != nil {
		return err
	}
	hydrator := NewHydrator()
	t, err := hydrator.TypeFromOptionAnnotation(k.Annotation, env)
	if err != nil {
		return err
	}
	c.hydrators[k.Name] = hydrator

	env.insertModuleValue(k.Name, &symbols.ValueConstructor{
		Public: k.Public,
		Variant: symbols.ModuleConstant{
			Span:   k.Span,
			Module: env.moduleName,
			Name:   k.Name,
		},
		Type: t,
	})
	env.ungeneralised[k.Name] = true
	if !k.Public {
		env.initUsage(k.Name, entityPrivateConstant, k.Span)
	}
	return nil
}
