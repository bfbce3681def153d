package analyzer

import (
	"github.com/funvibe/vellum/internal/ast"
	"github.com/funvibe/vellum/internal/diagnostics"
	"github.com/funvibe/vellum/internal/typesystem"
)

// Hydrator turns annotations into types for one definition. The same type
// variable name always maps to the same type within a hydrator.
type Hydrator struct {
	createdTypeVariables   map[string]typesystem.Type
	permitNewTypeVariables bool
	// rigid makes new named variables quantified generics. Signatures are
	// rigid; annotations inside bodies are not.
	rigid bool
}

func NewHydrator() *Hydrator {
	return &Hydrator{
		createdTypeVariables:   make(map[string]typesystem.Type),
		permitNewTypeVariables: true,
		rigid:                  true,
	}
}

// DisallowNewTypeVariables makes unknown variable names an error, as in
// data type fields and aliases.
func (h *Hydrator) DisallowNewTypeVariables() {
	h.permitNewTypeVariables = false
}

// AddTypeVariable binds name to t.
func (h *Hydrator) AddTypeVariable(name string, t typesystem.Type) {
	h.createdTypeVariables[name] = t
}

// forBody copies the hydrator for annotations inside a body: names of the
// signature keep their types, new names become flexible variables.
func (h *Hydrator) forBody() *Hydrator {
	cp := &Hydrator{
		createdTypeVariables:   make(map[string]typesystem.Type, len(h.createdTypeVariables)),
		permitNewTypeVariables: true,
	}
	for name, t := range h.createdTypeVariables {
		cp.createdTypeVariables[name] = t
	}
	return cp
}

// TypeFromOptionAnnotation hydrates ann, or returns a fresh variable when
// there is none.
func (h *Hydrator) TypeFromOptionAnnotation(ann ast.Annotation, env *Environment) (typesystem.Type, *diagnostics.DiagnosticError) {
	if ann == nil {
		return env.NewUnboundVar(), nil
	}
	return h.Type(ann, env)
}

func (h *Hydrator) Type(ann ast.Annotation, env *Environment) (typesystem.Type, *diagnostics.DiagnosticError) {
	switch a := ann.(type) {
	case *ast.ConstructorAnnotation:
		tc, err := env.GetTypeConstructor(a.Module, a.Name, a.Span)
		if err != nil {
			return nil, err
		}
		if len(a.Args) != len(tc.Parameters) {
			return nil, diagnostics.NewError(diagnostics.ErrIncorrectTypeArity, a.Span, a.Name, len(tc.Parameters), len(a.Args))
		}
		if len(a.Args) == 0 {
			return tc.Type, nil
		}
		subst := make(map[uint64]typesystem.Type, len(a.Args))
		for i, argAnn := range a.Args {
			arg, err := h.Type(argAnn, env)
			if err != nil {
				return nil, err
			}
			if g, ok := tc.Parameters[i].(*typesystem.Generic); ok {
				subst[g.ID] = arg
			}
		}
		return typesystem.Substitute(tc.Type, subst), nil

	case *ast.FnAnnotation:
		args, err := h.types(a.Args, env)
		if err != nil {
			return nil, err
		}
		ret, err := h.Type(a.Ret, env)
		if err != nil {
			return nil, err
		}
		return typesystem.Function(args, ret), nil

	case *ast.VarAnnotation:
		if t, ok := h.createdTypeVariables[a.Name]; ok {
			return t, nil
		}
		if !h.permitNewTypeVariables {
			err := diagnostics.NewError(diagnostics.ErrUnknownType, a.Span, a.Name)
			err.Names = []string{a.Name}
			return nil, err
		}
		var t typesystem.Type
		if h.rigid {
			t = env.vt.NewGeneric()
		} else {
			t = env.NewUnboundVar()
		}
		h.createdTypeVariables[a.Name] = t
		return t, nil

	case *ast.Hole:
		return env.NewUnboundVar(), nil

	case *ast.TupleAnnotation:
		elems, err := h.types(a.Elems, env)
		if err != nil {
			return nil, err
		}
		return typesystem.NewTuple(elems...), nil

	case *ast.PairAnnotation:
		fst, err := h.Type(a.Fst, env)
		if err != nil {
			return nil, err
		}
		snd, err := h.Type(a.Snd, env)
		if err != nil {
			return nil, err
		}
		return typesystem.NewPair(fst, snd), nil
	}
	return env.NewUnboundVar(), nil
}

func (h *Hydrator) types(anns []ast.Annotation, env *Environment) ([]typesystem.Type, *diagnostics.DiagnosticError) {
	out := make([]typesystem.Type, len(anns))
	for i, ann := range anns {
		t, err := h.Type(ann, env)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}
