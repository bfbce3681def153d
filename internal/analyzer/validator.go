package analyzer

import (
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/funvibe/vellum/internal/ast"
	"github.com/funvibe/vellum/internal/config"
	"github.com/funvibe/vellum/internal/diagnostics"
	"github.com/funvibe/vellum/internal/symbols"
	"github.com/funvibe/vellum/internal/token"
	"github.com/funvibe/vellum/internal/typesystem"
)

func (c *moduleChecker) inferValidator(v *ast.Validator) *diagnostics.DiagnosticError {
	env := c.env
	if v.Fallback == nil {
		v.Fallback = ast.DefaultFallback(v.Span)
	}

	depth := env.OpenScope()
	err := env.InNewScope(func() *diagnostics.DiagnosticError {
		c.putParamsInScope(config.HandlerName(v.Name, v.Fallback.Name), v.Params)

		for _, h := range v.Handlers {
			if err := env.InNewScope(func() *diagnostics.DiagnosticError {
				return c.inferHandler(v, h)
			}); err != nil {
				return err
			}
		}

		// Handlers are unique, so covering every purpose but the fallback
		// leaves the fallback unreachable.
		exhaustive := len(v.Handlers) >= len(config.Purposes)-1
		if exhaustive && !cmp.Equal(v.Fallback, ast.DefaultFallback(v.Fallback.Span)) {
			return diagnostics.NewError(diagnostics.ErrUnexpectedValidatorFallback, v.Fallback.Span)
		}

		return env.InNewScope(func() *diagnostics.DiagnosticError {
			return c.inferFallback(v)
		})
	})
	if err != nil {
		return err
	}
	env.CloseScope(depth)
	return nil
}

// withParams returns the handler as a function taking the validator
// parameters first, registered under its qualified name.
func withParams(v *ast.Validator, h *ast.Function) (*ast.Function, []*ast.Arg) {
	params := make([]*ast.Arg, len(v.Params))
	for i, p := range v.Params {
		params[i] = p.Clone()
	}
	fn := *h
	fn.Name = config.HandlerName(v.Name, h.Name)
	fn.Arguments = append(params, h.Arguments...)
	return &fn, params
}

func (c *moduleChecker) inferHandler(v *ast.Validator, h *ast.Function) *diagnostics.DiagnosticError {
	env := c.env
	fn, _ := withParams(v, h)
	safe, err := c.inferFunction(fn, fn.Name)
	if err != nil {
		return err
	}
	h.ReturnType = fn.ReturnType

	if err := env.Unify(typesystem.Bool(), fn.ReturnType, h.Span, false); err != nil {
		return diagnostics.NewError(diagnostics.ErrValidatorMustReturnBool, h.Span, env.printer().Print(fn.ReturnType))
	}

	if !config.IsPurpose(h.Name) || h.Name == config.FallbackName {
		span := token.Span{Start: h.Span.Start, End: h.Span.Start + len(h.Name)}
		err := diagnostics.NewError(diagnostics.ErrUnknownPurpose, span, strings.Join(config.Purposes, ", "))
		err.Names = append([]string{}, config.Purposes...)
		return err
	}

	arity, _ := config.PurposeArity(h.Name)
	if len(h.Arguments) != arity {
		return diagnostics.NewError(diagnostics.ErrIncorrectValidatorArity, h.Span, len(h.Arguments), arity)
	}

	if h.Name == config.SpendPurpose {
		datum := h.Arguments[0]
		if !typesystem.IsOption(env.vt.Resolve(datum.Type)) {
			given := env.vt.Zonk(datum.Type)
			return diagnostics.NewUnifyError(diagnostics.ErrCouldNotUnify, datum.Span, typesystem.Option(given), given, diagnostics.NoSituation)
		}
	}

	if err := defaultToData(env, h.Arguments); err != nil {
		return err
	}
	if safe {
		c.generaliseFunction(fn.Name)
	}
	return nil
}

func (c *moduleChecker) inferFallback(v *ast.Validator) *diagnostics.DiagnosticError {
	env := c.env
	fallback := v.Fallback
	fn, params := withParams(v, fallback)
	safe, err := c.inferFunction(fn, fn.Name)
	if err != nil {
		return err
	}
	fallback.ReturnType = fn.ReturnType

	if err := env.Unify(typesystem.Bool(), fn.ReturnType, fallback.Span, false); err != nil {
		return diagnostics.NewError(diagnostics.ErrValidatorMustReturnBool, fallback.Span, env.printer().Print(fn.ReturnType))
	}

	if err := defaultToData(env, params); err != nil {
		return err
	}
	for i, p := range v.Params {
		p.Type = params[i].Type
	}

	arity, _ := config.PurposeArity(config.FallbackName)
	if len(fallback.Arguments) != arity {
		return diagnostics.NewError(diagnostics.ErrIncorrectValidatorArity, fallback.Span, len(fallback.Arguments), arity)
	}
	if err := defaultToData(env, fallback.Arguments); err != nil {
		return err
	}
	if safe {
		c.generaliseFunction(fn.Name)
	}
	return nil
}

// defaultToData settles arguments nothing constrained as Data.
func defaultToData(env *Environment, args []*ast.Arg) *diagnostics.DiagnosticError {
	for _, arg := range args {
		if env.vt.IsUnbound(arg.Type) {
			if err := env.Unify(typesystem.Data(), arg.Type, arg.Span, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// putParamsInScope binds the named validator parameters with the types of
// the registered fallback signature. They are never reported unused.
func (c *moduleChecker) putParamsInScope(fallbackName string, params []*ast.Arg) {
	env := c.env
	binding, ok := env.getVariable(fallbackName)
	if !ok {
		return
	}
	argTypes, _, ok := typesystem.FunctionTypes(env.vt.Resolve(binding.Type))
	if !ok || len(argTypes) < len(params) {
		return
	}
	for i, p := range params {
		if p.IsDiscarded() || !p.IsValidatorParam {
			continue
		}
		env.insertVariable(p.Name, symbols.LocalVariable{Span: p.Span}, argTypes[i])
		env.validatorParams[paramKey{name: p.Name, span: p.Span}] = true
		env.initUsage(p.Name, entityVariable, p.Span)
	}
}
