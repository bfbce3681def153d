package analyzer

import (
	"sort"

	"github.com/funvibe/vellum/internal/ast"
	"github.com/funvibe/vellum/internal/config"
	"github.com/funvibe/vellum/internal/diagnostics"
	"github.com/funvibe/vellum/internal/symbols"
	"github.com/funvibe/vellum/internal/token"
	"github.com/funvibe/vellum/internal/typesystem"
)

// exprTyper infers the expressions of one definition body and records the
// type of every node it visits.
type exprTyper struct {
	env      *Environment
	hydrator *Hydrator
	tracing  config.Tracing
	// ungeneralisedUsed is set when the body refers to a module
	// function or constant whose type is not generalised yet.
	ungeneralisedUsed bool
}

func newExprTyper(env *Environment, hydrator *Hydrator, tracing config.Tracing) *exprTyper {
	if hydrator == nil {
		hydrator = NewHydrator()
	}
	return &exprTyper{env: env, hydrator: hydrator.forBody(), tracing: tracing}
}

func (t *exprTyper) infer(expr ast.Expression) (typesystem.Type, *diagnostics.DiagnosticError) {
	typ, err := t.inferExpr(expr)
	if err != nil {
		return nil, err
	}
	expr.SetType(typ)
	return typ, nil
}

// inferBody infers a definition body. A sequence at the top of a body
// shares the scope of the arguments.
func (t *exprTyper) inferBody(body ast.Expression) (typesystem.Type, *diagnostics.DiagnosticError) {
	seq, ok := body.(*ast.Sequence)
	if !ok {
		return t.infer(body)
	}
	typ, err := t.inferSequence(seq)
	if err != nil {
		return nil, err
	}
	seq.SetType(typ)
	return typ, nil
}

func (t *exprTyper) inferExpr(expr ast.Expression) (typesystem.Type, *diagnostics.DiagnosticError) {
	env := t.env
	switch e := expr.(type) {
	case *ast.Int:
		return typesystem.Int(), nil
	case *ast.ByteArray:
		return typesystem.ByteArray(), nil
	case *ast.String:
		return typesystem.String(), nil

	case *ast.Var:
		return t.inferVar(e.Name, e.Span)

	case *ast.Call:
		return t.inferCall(e)

	case *ast.Fn:
		return t.inferLambda(e)

	case *ast.Assignment:
		return t.inferAssignment(e)

	case *ast.Sequence:
		var typ typesystem.Type
		err := env.InNewScope(func() *diagnostics.DiagnosticError {
			var err *diagnostics.DiagnosticError
			typ, err = t.inferSequence(e)
			return err
		})
		return typ, err

	case *ast.If:
		return t.inferIf(e)

	case *ast.BinOp:
		return t.inferBinOp(e)

	case *ast.UnOp:
		operand := typesystem.Bool()
		if e.Op == ast.Negate {
			operand = typesystem.Int()
		}
		if err := t.expect(operand, e.Value, diagnostics.OperatorSituation); err != nil {
			return nil, err
		}
		return operand, nil

	case *ast.Tuple:
		elems := make([]typesystem.Type, len(e.Elements))
		for i, el := range e.Elements {
			typ, err := t.infer(el)
			if err != nil {
				return nil, err
			}
			elems[i] = typ
		}
		return typesystem.NewTuple(elems...), nil

	case *ast.Pair:
		fst, err := t.infer(e.Fst)
		if err != nil {
			return nil, err
		}
		snd, err := t.infer(e.Snd)
		if err != nil {
			return nil, err
		}
		return typesystem.NewPair(fst, snd), nil

	case *ast.List:
		elem := env.NewUnboundVar()
		for _, el := range e.Elements {
			if err := t.expect(elem, el, diagnostics.NoSituation); err != nil {
				return nil, err
			}
		}
		list := typesystem.List(elem)
		if e.Tail != nil {
			if err := t.expect(list, e.Tail, diagnostics.NoSituation); err != nil {
				return nil, err
			}
		}
		return list, nil

	case *ast.TupleIndex:
		return t.inferTupleIndex(e)

	case *ast.FieldAccess:
		return t.inferFieldAccess(e)

	case *ast.Todo:
		if e.Label != nil {
			if err := t.expect(typesystem.String(), e.Label, diagnostics.NoSituation); err != nil {
				return nil, err
			}
		}
		typ := env.NewUnboundVar()
		env.warnings = append(env.warnings, diagnostics.Warning{Kind: diagnostics.WarnTodo, Span: e.Span, Type: typ})
		return typ, nil

	case *ast.Fail:
		if e.Reason != nil {
			if err := t.expect(typesystem.String(), e.Reason, diagnostics.NoSituation); err != nil {
				return nil, err
			}
		}
		return env.NewUnboundVar(), nil

	case *ast.Trace:
		if t.tracing != config.TracingSilent {
			if err := t.expect(typesystem.String(), e.Text, diagnostics.NoSituation); err != nil {
				return nil, err
			}
		}
		return t.infer(e.Then)
	}
	return nil, diagnostics.NewError(diagnostics.ErrUnsupportedExpression, expr.GetSpan(), expr)
}

// expect infers expr and unifies it with want.
func (t *exprTyper) expect(want typesystem.Type, expr ast.Expression, situation diagnostics.UnifySituation) *diagnostics.DiagnosticError {
	got, err := t.infer(expr)
	if err != nil {
		return err
	}
	if err := t.env.Unify(want, got, expr.GetSpan(), false); err != nil {
		return err.WithSituation(situation)
	}
	return nil
}

func (t *exprTyper) inferVar(name string, span token.Span) (typesystem.Type, *diagnostics.DiagnosticError) {
	vc, err := t.env.GetValueConstructor("", name, span)
	if err != nil {
		return nil, err
	}
	if t.env.ungeneralised[name] && !t.env.group[name] {
		switch vc.Variant.(type) {
		case symbols.ModuleFn, symbols.ModuleConstant:
			t.ungeneralisedUsed = true
		}
	}
	if symbols.IsModuleLevel(vc.Variant) {
		return t.env.instantiate(vc.Type), nil
	}
	return vc.Type, nil
}

func (t *exprTyper) inferSequence(seq *ast.Sequence) (typesystem.Type, *diagnostics.DiagnosticError) {
	var last typesystem.Type = typesystem.Void()
	for _, expr := range seq.Expressions {
		typ, err := t.infer(expr)
		if err != nil {
			return nil, err
		}
		last = typ
	}
	return last, nil
}

func (t *exprTyper) inferCall(e *ast.Call) (typesystem.Type, *diagnostics.DiagnosticError) {
	env := t.env
	callee, err := t.infer(e.Fun)
	if err != nil {
		return nil, err
	}

	switch fn := env.vt.Resolve(callee).(type) {
	case *typesystem.Fn:
		if len(fn.Args) != len(e.Args) {
			return nil, diagnostics.NewError(diagnostics.ErrIncorrectFunctionCallArity, e.Span, len(fn.Args), len(e.Args))
		}
		for i, arg := range e.Args {
			if err := t.expect(fn.Args[i], arg, diagnostics.NoSituation); err != nil {
				return nil, err
			}
		}
		return fn.Ret, nil

	case *typesystem.Var:
		args := make([]typesystem.Type, len(e.Args))
		for i, arg := range e.Args {
			typ, err := t.infer(arg)
			if err != nil {
				return nil, err
			}
			args[i] = typ
		}
		ret := env.NewUnboundVar()
		if err := env.Unify(fn, typesystem.Function(args, ret), e.Fun.GetSpan(), false); err != nil {
			return nil, err
		}
		return ret, nil
	}
	return nil, diagnostics.NewError(diagnostics.ErrNotFn, e.Fun.GetSpan(), env.printer().Print(callee))
}

func (t *exprTyper) inferLambda(e *ast.Fn) (typesystem.Type, *diagnostics.DiagnosticError) {
	env := t.env
	hydrator := t.hydrator.forBody()
	var typ typesystem.Type

	err := env.InNewScope(func() *diagnostics.DiagnosticError {
		args := make([]typesystem.Type, len(e.Arguments))
		for i, arg := range e.Arguments {
			at, err := hydrator.TypeFromOptionAnnotation(arg.Annotation, env)
			if err != nil {
				return err
			}
			arg.Type = at
			args[i] = at
			t.bindArg(arg)
		}

		body, err := t.inferBody(e.Body)
		if err != nil {
			return err
		}
		if e.ReturnAnnotation != nil {
			ret, err := hydrator.Type(e.ReturnAnnotation, env)
			if err != nil {
				return err
			}
			if err := env.Unify(ret, body, e.Body.GetSpan(), false); err != nil {
				return err.WithSituation(diagnostics.ReturnAnnotationMismatch)
			}
		}
		typ = typesystem.Function(args, body)
		return nil
	})
	return typ, err
}

// bindArg puts a typed argument in the current scope.
func (t *exprTyper) bindArg(arg *ast.Arg) {
	if arg.IsDiscarded() {
		return
	}
	t.env.insertVariable(arg.Name, symbols.LocalVariable{Span: arg.Span}, arg.Type)
	t.env.initUsage(arg.Name, entityVariable, arg.Span)
}

func (t *exprTyper) inferAssignment(e *ast.Assignment) (typesystem.Type, *diagnostics.DiagnosticError) {
	env := t.env
	value, err := t.infer(e.Value)
	if err != nil {
		return nil, err
	}

	typ := value
	if e.Annotation != nil {
		ann, err := t.hydrator.Type(e.Annotation, env)
		if err != nil {
			return nil, err
		}
		if err := env.Unify(ann, value, e.Value.GetSpan(), e.Kind == ast.Expect); err != nil {
			return nil, err
		}
		typ = ann
	}

	if err := t.bindPattern(e.Pattern, typ); err != nil {
		return nil, err
	}
	return typ, nil
}

func (t *exprTyper) inferIf(e *ast.If) (typesystem.Type, *diagnostics.DiagnosticError) {
	var first typesystem.Type
	for i, branch := range e.Branches {
		if err := t.expect(typesystem.Bool(), branch.Condition, diagnostics.NoSituation); err != nil {
			return nil, err
		}
		if i == 0 {
			typ, err := t.infer(branch.Body)
			if err != nil {
				return nil, err
			}
			first = typ
			continue
		}
		if err := t.expect(first, branch.Body, diagnostics.IfBranchMismatch); err != nil {
			return nil, err
		}
	}
	if first == nil {
		first = t.env.NewUnboundVar()
	}

	// An if without else can only produce Void.
	if e.FinalElse == nil {
		if err := t.env.Unify(first, typesystem.Void(), e.Span, false); err != nil {
			return nil, err.WithSituation(diagnostics.IfBranchMismatch)
		}
		return first, nil
	}
	if err := t.expect(first, e.FinalElse, diagnostics.IfBranchMismatch); err != nil {
		return nil, err
	}
	return first, nil
}

func (t *exprTyper) inferBinOp(e *ast.BinOp) (typesystem.Type, *diagnostics.DiagnosticError) {
	switch e.Op {
	case ast.And, ast.Or:
		return t.operands(typesystem.Bool(), typesystem.Bool(), e)
	case ast.LtInt, ast.LtEq, ast.GtInt, ast.GtEq:
		return t.operands(typesystem.Int(), typesystem.Bool(), e)
	case ast.Add, ast.Sub, ast.Mul, ast.Div, ast.Mod:
		return t.operands(typesystem.Int(), typesystem.Int(), e)
	}

	// == and != compare any two values of the same type.
	left, err := t.infer(e.Left)
	if err != nil {
		return nil, err
	}
	if err := t.expect(left, e.Right, diagnostics.OperatorSituation); err != nil {
		return nil, err
	}
	return typesystem.Bool(), nil
}

func (t *exprTyper) operands(operand, result typesystem.Type, e *ast.BinOp) (typesystem.Type, *diagnostics.DiagnosticError) {
	if err := t.expect(operand, e.Left, diagnostics.OperatorSituation); err != nil {
		return nil, err
	}
	if err := t.expect(operand, e.Right, diagnostics.OperatorSituation); err != nil {
		return nil, err
	}
	return result, nil
}

func (t *exprTyper) inferTupleIndex(e *ast.TupleIndex) (typesystem.Type, *diagnostics.DiagnosticError) {
	env := t.env
	tuple, err := t.infer(e.Tuple)
	if err != nil {
		return nil, err
	}
	switch tt := env.vt.Resolve(tuple).(type) {
	case *typesystem.Tuple:
		if e.Index < 0 || e.Index >= len(tt.Elems) {
			return nil, diagnostics.NewError(diagnostics.ErrTupleIndexOutOfBound, e.Span, e.Index, len(tt.Elems))
		}
		return tt.Elems[e.Index], nil
	case *typesystem.Pair:
		switch e.Index {
		case 0:
			return tt.Fst, nil
		case 1:
			return tt.Snd, nil
		}
		return nil, diagnostics.NewError(diagnostics.ErrTupleIndexOutOfBound, e.Span, e.Index, 2)
	}
	return nil, diagnostics.NewError(diagnostics.ErrNotATuple, e.Tuple.GetSpan(), env.printer().Print(tuple))
}

func (t *exprTyper) inferFieldAccess(e *ast.FieldAccess) (typesystem.Type, *diagnostics.DiagnosticError) {
	env := t.env

	if v, ok := e.Container.(*ast.Var); ok {
		if _, shadowed := env.getVariable(v.Name); !shadowed {
			if imp, ok := env.importedModules[v.Name]; ok {
				vc, err := env.GetValueConstructor(v.Name, e.Label, e.Span)
				if err != nil {
					return nil, err
				}
				e.Module = imp.name
				return env.instantiate(vc.Type), nil
			}
		}
	}

	container, err := t.infer(e.Container)
	if err != nil {
		return nil, err
	}
	unknownField := func() *diagnostics.DiagnosticError {
		return diagnostics.NewError(diagnostics.ErrUnknownRecordField, e.Span, env.printer().Print(container), e.Label)
	}

	app, ok := env.vt.Resolve(container).(*typesystem.App)
	if !ok {
		return nil, unknownField()
	}
	var accessors *symbols.AccessorsMap
	if app.Module == env.moduleName {
		accessors = env.accessors[app.Name]
	} else if info, ok := env.importable[app.Module]; ok {
		accessors = info.Accessors[app.Name]
	}
	if accessors == nil {
		return nil, unknownField()
	}
	accessor, ok := accessors.Accessors[e.Label]
	if !ok {
		derr := unknownField()
		for label := range accessors.Accessors {
			derr.Names = append(derr.Names, label)
		}
		sort.Strings(derr.Names)
		return nil, derr
	}

	mapping := make(map[uint64]typesystem.Type)
	record := typesystem.Instantiate(env.vt, accessors.Type, env.rank, mapping)
	field := typesystem.Instantiate(env.vt, accessor.Type, env.rank, mapping)
	if err := env.Unify(record, container, e.Container.GetSpan(), false); err != nil {
		return nil, err
	}
	return field, nil
}
