package analyzer

import (
	"github.com/funvibe/vellum/internal/ast"
	"github.com/funvibe/vellum/internal/diagnostics"
	"github.com/funvibe/vellum/internal/typesystem"
)

func (c *moduleChecker) inferDefinition(def ast.Definition) *diagnostics.DiagnosticError {
	env := c.env
	switch d := def.(type) {
	case *ast.Validator:
		if !env.moduleKind.IsValidator() {
			return nil
		}
		return c.inferValidator(d)

	case *ast.Test:
		return c.inferTest(d)

	case *ast.Benchmark:
		return c.inferBenchmark(d)

	case *ast.TypeAlias:
		d.Type = env.moduleTypes[d.Alias].Type
		return nil

	case *ast.DataType:
		return c.inferDataType(d)

	case *ast.Use:
		info, err := env.findModule(d.Module, d.Span)
		if err != nil {
			return err
		}
		d.Package = info.Package
		return nil

	}
	return nil
}

// inferGroup infers constants and functions that refer to each other, then
// generalises them together unless one of them used a value that is still
// waiting for the module-end pass.
func (c *moduleChecker) inferGroup(group []ast.Definition) *diagnostics.DiagnosticError {
	env := c.env
	env.group = make(map[string]bool, len(group))
	for _, def := range group {
		env.group[valueName(def)] = true
	}
	defer func() { env.group = nil }()

	safe := true
	for _, def := range group {
		var ok bool
		var err *diagnostics.DiagnosticError
		switch d := def.(type) {
		case *ast.Function:
			err = env.InNewScope(func() *diagnostics.DiagnosticError {
				var err *diagnostics.DiagnosticError
				ok, err = c.inferFunction(d, d.Name)
				return err
			})
		case *ast.ModuleConstant:
			ok, err = c.inferConstant(d)
		}
		if err != nil {
			return err
		}
		safe = safe && ok
	}
	if !safe {
		return nil
	}

	for _, def := range group {
		c.generaliseFunction(valueName(def))
		if k, ok := def.(*ast.ModuleConstant); ok {
			k.Type = env.moduleValues[k.Name].Type
		}
	}
	return nil
}

// inferFunction checks fn against the signature registered under name. It
// reports whether the function may be generalised once its group is done,
// which is the case unless its body used a value outside the group that is
// not generalised yet.
func (c *moduleChecker) inferFunction(fn *ast.Function, name string) (bool, *diagnostics.DiagnosticError) {
	env := c.env
	binding, ok := env.getVariable(name)
	if !ok {
		return false, diagnostics.NewError(diagnostics.ErrUnknownVariable, fn.Span, name)
	}
	argTypes, retType, ok := typesystem.FunctionTypes(env.vt.Resolve(binding.Type))
	if !ok || len(argTypes) != len(fn.Arguments) {
		return false, diagnostics.NewError(diagnostics.ErrIncorrectFunctionCallArity, fn.Span, len(argTypes), len(fn.Arguments))
	}

	typer := newExprTyper(env, c.hydrators[name], c.tracing)
	err := env.InNewScope(func() *diagnostics.DiagnosticError {
		for i, arg := range fn.Arguments {
			arg.Type = argTypes[i]
			typer.bindArg(arg)
		}

		body, err := typer.inferBody(fn.Body)
		if err != nil {
			return err
		}
		if err := env.Unify(retType, body, fn.Body.GetSpan(), false); err != nil {
			if fn.ReturnAnnotation != nil {
				err.WithSituation(diagnostics.ReturnAnnotationMismatch)
			}
			return err
		}
		fn.ReturnType = retType
		return nil
	})
	if err != nil {
		return false, err
	}

	return !typer.ungeneralisedUsed, nil
}

// generaliseFunction quantifies what is left unbound in the type of a
// module function or constant. From then on its users may instantiate it.
func (c *moduleChecker) generaliseFunction(name string) {
	env := c.env
	delete(env.ungeneralised, name)
	binding, ok := env.scopes[0][name]
	if !ok {
		return
	}
	env.updateModuleValueType(name, typesystem.Generalize(env.vt, binding.Type, 0))
}

func (c *moduleChecker) inferDataType(d *ast.DataType) *diagnostics.DiagnosticError {
	env := c.env
	tc := env.moduleTypes[d.Name]

	for _, ctor := range d.Constructors {
		binding, ok := env.getVariable(ctor.Name)
		if !ok {
			return diagnostics.NewError(diagnostics.ErrUnknownVariable, ctor.Span, ctor.Name)
		}
		fields, _, _ := typesystem.FunctionTypes(binding.Type)
		for i, arg := range ctor.Arguments {
			if i >= len(fields) {
				break
			}
			t := fields[i]
			if typesystem.IsFunction(env.vt.Resolve(t)) {
				return diagnostics.NewError(diagnostics.ErrFunctionTypeInData, arg.Span)
			}
			if typesystem.IsMLResult(env.vt.Resolve(t)) {
				return diagnostics.NewError(diagnostics.ErrIllegalTypeInData, arg.Span, env.printer().Print(t))
			}
			if typesystem.ContainsOpaque(env.vt, t) {
				tc.Type = typesystem.WithOpaque(tc.Type, true)
			}
			arg.Type = t
		}
	}
	d.TypedParameters = tc.Parameters

	return checkDecorators(d)
}

// inferConstant refines the registered type of a constant with the type of
// its value. Like inferFunction it reports whether the constant may be
// generalised.
func (c *moduleChecker) inferConstant(k *ast.ModuleConstant) (bool, *diagnostics.DiagnosticError) {
	env := c.env
	binding := env.moduleValues[k.Name]

	typer := newExprTyper(env, c.hydrators[k.Name], c.tracing)
	value, err := typer.infer(k.Value)
	if err != nil {
		return false, err
	}
	if err := env.Unify(binding.Type, value, k.Value.GetSpan(), false); err != nil {
		return false, err
	}

	if typesystem.IsFunction(env.vt.Resolve(value)) && !typesystem.IsMonomorphic(env.vt, value) {
		return false, diagnostics.NewError(diagnostics.ErrGenericLeftAtBoundary, k.Span)
	}

	k.Type = binding.Type
	return !typer.ungeneralisedUsed, nil
}
