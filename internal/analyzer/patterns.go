package analyzer

import (
	"github.com/funvibe/vellum/internal/ast"
	"github.com/funvibe/vellum/internal/diagnostics"
	"github.com/funvibe/vellum/internal/symbols"
	"github.com/funvibe/vellum/internal/typesystem"
)

// bindPattern brings the variables of p into scope, matching p against typ.
func (t *exprTyper) bindPattern(p ast.Pattern, typ typesystem.Type) *diagnostics.DiagnosticError {
	env := t.env
	switch p := p.(type) {
	case *ast.PVar:
		env.insertVariable(p.Name, symbols.LocalVariable{Span: p.Span}, typ)
		env.initUsage(p.Name, entityVariable, p.Span)
		return nil

	case *ast.PDiscard:
		return nil

	case *ast.PTuple:
		elems := make([]typesystem.Type, len(p.Elems))
		for i := range elems {
			elems[i] = env.NewUnboundVar()
		}
		if err := env.Unify(typesystem.NewTuple(elems...), typ, p.Span, false); err != nil {
			return err
		}
		for i, sub := range p.Elems {
			if err := t.bindPattern(sub, elems[i]); err != nil {
				return err
			}
		}
		return nil

	case *ast.PPair:
		fst, snd := env.NewUnboundVar(), env.NewUnboundVar()
		if err := env.Unify(typesystem.NewPair(fst, snd), typ, p.Span, false); err != nil {
			return err
		}
		if err := t.bindPattern(p.Fst, fst); err != nil {
			return err
		}
		return t.bindPattern(p.Snd, snd)
	}
	return nil
}
