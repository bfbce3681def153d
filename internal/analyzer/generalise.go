package analyzer

import (
	"github.com/funvibe/vellum/internal/ast"
	"github.com/funvibe/vellum/internal/config"
	"github.com/funvibe/vellum/internal/typesystem"
)

// generaliseDefinition settles every type recorded in def: links are
// removed and variables nothing constrained become generics.
func (c *moduleChecker) generaliseDefinition(def ast.Definition) {
	g := generaliser{vt: c.env.vt}
	switch d := def.(type) {
	case *ast.Function:
		c.generaliseFunction(d.Name)
		g.function(d)

	case *ast.Validator:
		for _, h := range d.Handlers {
			c.generaliseFunction(config.HandlerName(d.Name, h.Name))
			g.function(h)
		}
		if d.Fallback != nil {
			c.generaliseFunction(config.HandlerName(d.Name, d.Fallback.Name))
			g.function(d.Fallback)
		}
		g.args(d.Params)

	case *ast.Test:
		g.property(&d.Property)

	case *ast.Benchmark:
		g.property(&d.Property)

	case *ast.DataType:
		for _, ctor := range d.Constructors {
			for _, arg := range ctor.Arguments {
				arg.Type = g.t(arg.Type)
			}
		}

	case *ast.TypeAlias:
		d.Type = g.t(d.Type)
		if tc, ok := c.env.moduleTypes[d.Alias]; ok {
			tc.Type = d.Type
		}

	case *ast.ModuleConstant:
		c.generaliseFunction(d.Name)
		d.Type = g.t(d.Type)
		g.expr(d.Value)
	}
}

type generaliser struct {
	vt *typesystem.VarTable
}

func (g generaliser) t(t typesystem.Type) typesystem.Type {
	if t == nil {
		return nil
	}
	return typesystem.Generalize(g.vt, t, 0)
}

func (g generaliser) args(args []*ast.Arg) {
	for _, arg := range args {
		arg.Type = g.t(arg.Type)
	}
}

func (g generaliser) function(fn *ast.Function) {
	g.args(fn.Arguments)
	fn.ReturnType = g.t(fn.ReturnType)
	g.expr(fn.Body)
}

func (g generaliser) property(p *ast.Property) {
	for _, av := range p.Arguments {
		av.Arg.Type = g.t(av.Arg.Type)
		g.expr(av.Via)
	}
	p.ReturnType = g.t(p.ReturnType)
	g.expr(p.Body)
}

func (g generaliser) expr(expr ast.Expression) {
	if expr == nil {
		return
	}
	expr.SetType(g.t(expr.GetType()))

	switch e := expr.(type) {
	case *ast.Call:
		g.expr(e.Fun)
		g.exprs(e.Args)
	case *ast.Fn:
		g.args(e.Arguments)
		g.expr(e.Body)
	case *ast.Assignment:
		g.expr(e.Value)
	case *ast.Sequence:
		g.exprs(e.Expressions)
	case *ast.If:
		for _, b := range e.Branches {
			g.expr(b.Condition)
			g.expr(b.Body)
		}
		g.expr(e.FinalElse)
	case *ast.BinOp:
		g.expr(e.Left)
		g.expr(e.Right)
	case *ast.UnOp:
		g.expr(e.Value)
	case *ast.Tuple:
		g.exprs(e.Elements)
	case *ast.Pair:
		g.expr(e.Fst)
		g.expr(e.Snd)
	case *ast.List:
		g.exprs(e.Elements)
		g.expr(e.Tail)
	case *ast.TupleIndex:
		g.expr(e.Tuple)
	case *ast.FieldAccess:
		g.expr(e.Container)
	case *ast.Todo:
		g.expr(e.Label)
	case *ast.Fail:
		g.expr(e.Reason)
	case *ast.Trace:
		g.expr(e.Text)
		g.expr(e.Then)
	}
}

func (g generaliser) exprs(exprs []ast.Expression) {
	for _, e := range exprs {
		g.expr(e)
	}
}
