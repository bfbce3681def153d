package analyzer

import (
	"github.com/funvibe/vellum/internal/ast"
	"github.com/funvibe/vellum/internal/config"
	"github.com/funvibe/vellum/internal/diagnostics"
	"github.com/funvibe/vellum/internal/token"
	"github.com/funvibe/vellum/internal/typesystem"
)

// viaInferrer extracts the type of the values a generator produces.
type viaInferrer func(expected, via typesystem.Type, span token.Span) (typesystem.Type, *diagnostics.DiagnosticError)

func (c *moduleChecker) inferTest(t *ast.Test) *diagnostics.DiagnosticError {
	env := c.env
	return env.InNewScope(func() *diagnostics.DiagnosticError {
		var inner typesystem.Type
		if len(t.Arguments) > 0 {
			if len(t.Arguments) > 1 {
				return diagnostics.NewError(diagnostics.ErrIncorrectTestArity, t.Arguments[1].Arg.Span, len(t.Arguments))
			}
			var err *diagnostics.DiagnosticError
			inner, err = c.extractVia(&t.Property, t.Arguments[0], c.inferFuzzer)
			if err != nil {
				return err
			}
		}

		fn := t.AsFunction()
		if _, err := c.inferFunction(fn, t.Name); err != nil {
			return err
		}
		t.ReturnType = fn.ReturnType

		isBool := env.Unify(fn.ReturnType, typesystem.Bool(), t.Span, false)
		isVoid := env.Unify(fn.ReturnType, typesystem.Void(), t.Span, false)
		if isBool != nil && isVoid != nil {
			return diagnostics.NewError(diagnostics.ErrIllegalTestType, t.Span)
		}

		if inner != nil {
			t.Arguments[0].Arg.Type = inner
		}
		return nil
	})
}

func (c *moduleChecker) inferBenchmark(b *ast.Benchmark) *diagnostics.DiagnosticError {
	env := c.env
	return env.InNewScope(func() *diagnostics.DiagnosticError {
		if len(b.Arguments) != 1 {
			return diagnostics.NewError(diagnostics.ErrIncorrectBenchmarkArity, afterKeyword(b.Span, ast.BenchKeyword))
		}
		inner, err := c.extractVia(&b.Property, b.Arguments[0], c.inferSampler)
		if err != nil {
			return err
		}

		fn := b.AsFunction()
		if _, err := c.inferFunction(fn, b.Name); err != nil {
			return err
		}
		b.ReturnType = fn.ReturnType
		b.Arguments[0].Arg.Type = inner
		return nil
	})
}

// afterKeyword narrows span to what follows a leading keyword and a space.
func afterKeyword(span token.Span, keyword string) token.Span {
	start := span.Start + len(keyword) + 1
	if start > span.End {
		start = span.End
	}
	return token.Span{Start: start, End: span.End}
}

// extractVia types the generator of a property argument, checks it against
// the argument annotation and makes the registered signature of the
// property take the generated type.
func (c *moduleChecker) extractVia(p *ast.Property, av *ast.ArgVia, inferVia viaInferrer) (typesystem.Type, *diagnostics.DiagnosticError) {
	env := c.env
	hydrator := c.hydrators[p.Name]

	via, err := newExprTyper(env, hydrator, c.tracing).infer(av.Via)
	if err != nil {
		return nil, err
	}

	var provided typesystem.Type
	if av.Arg.Annotation != nil {
		provided, err = hydrator.Type(av.Arg.Annotation, env)
		if err != nil {
			return nil, err
		}
	}

	inner, err := inferVia(provided, via, av.Via.GetSpan())
	if err != nil {
		return nil, err
	}

	if provided != nil {
		if err := env.Unify(inner, provided, av.Via.GetSpan(), false); err != nil {
			return nil, err.WithSituation(diagnostics.FuzzerAnnotationMismatch)
		}
	}

	if binding, ok := env.scopes[0][p.Name]; ok {
		if fn, ok := env.vt.Resolve(binding.Type).(*typesystem.Fn); ok {
			binding.Type = typesystem.Function([]typesystem.Type{inner}, fn.Ret)
		}
	}
	return inner, nil
}

// inferFuzzer expects via to be fn(PRNG) -> Option<(PRNG, a)> and returns a.
func (c *moduleChecker) inferFuzzer(expected, via typesystem.Type, span token.Span) (typesystem.Type, *diagnostics.DiagnosticError) {
	env := c.env
	couldNotUnify := func() *diagnostics.DiagnosticError {
		want := expected
		if want == nil {
			want = env.vt.NewGeneric()
		}
		return diagnostics.NewUnifyError(diagnostics.ErrCouldNotUnify, span, typesystem.Fuzzer(want), env.vt.Zonk(via), diagnostics.NoSituation)
	}

	switch fn := env.vt.Resolve(via).(type) {
	case *typesystem.Fn:
		ret, ok := env.vt.Resolve(fn.Ret).(*typesystem.App)
		if !ok || ret.Module != PreludeModule || ret.Name != config.OptionTypeName || len(ret.Args) != 1 {
			return nil, couldNotUnify()
		}
		tuple, ok := env.vt.Resolve(ret.Args[0]).(*typesystem.Tuple)
		if !ok || len(tuple.Elems) != 2 {
			return nil, couldNotUnify()
		}
		wrapped := tuple.Elems[1]
		if err := c.isValidFuzzer(wrapped, span); err != nil {
			return nil, err
		}
		if err := env.Unify(fn, typesystem.Fuzzer(wrapped), span, false); err != nil {
			return nil, err
		}
		return wrapped, nil

	case *typesystem.Var, *typesystem.Generic:
		return nil, diagnostics.NewError(diagnostics.ErrGenericLeftAtBoundary, span)
	}
	return nil, couldNotUnify()
}

// inferSampler expects via to be fn(Int) -> Fuzzer<a> and returns a.
func (c *moduleChecker) inferSampler(expected, via typesystem.Type, span token.Span) (typesystem.Type, *diagnostics.DiagnosticError) {
	env := c.env
	switch fn := env.vt.Resolve(via).(type) {
	case *typesystem.Fn:
		if len(fn.Args) == 1 && typesystem.IsInt(env.vt.Resolve(fn.Args[0])) {
			return c.inferFuzzer(expected, fn.Ret, span)
		}
	case *typesystem.Var, *typesystem.Generic:
		return nil, diagnostics.NewError(diagnostics.ErrGenericLeftAtBoundary, span)
	}

	want := expected
	if want == nil {
		want = env.vt.NewGeneric()
	}
	return nil, diagnostics.NewUnifyError(diagnostics.ErrCouldNotUnify, span, typesystem.Sampler(want), env.vt.Zonk(via), diagnostics.NoSituation)
}

// isValidFuzzer accepts only fully known types without functions.
func (c *moduleChecker) isValidFuzzer(t typesystem.Type, span token.Span) *diagnostics.DiagnosticError {
	env := c.env
	switch t := env.vt.Resolve(t).(type) {
	case *typesystem.App:
		for _, arg := range t.Args {
			if err := c.isValidFuzzer(arg, span); err != nil {
				return err
			}
		}
	case *typesystem.Tuple:
		for _, el := range t.Elems {
			if err := c.isValidFuzzer(el, span); err != nil {
				return err
			}
		}
	case *typesystem.Pair:
		if err := c.isValidFuzzer(t.Fst, span); err != nil {
			return err
		}
		return c.isValidFuzzer(t.Snd, span)
	case *typesystem.Var, *typesystem.Generic:
		return diagnostics.NewError(diagnostics.ErrGenericLeftAtBoundary, span)
	case *typesystem.Fn:
		return diagnostics.NewError(diagnostics.ErrIllegalTypeInData, span, env.printer().Print(t))
	}
	return nil
}
