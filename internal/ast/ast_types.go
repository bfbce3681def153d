package ast

import (
	"github.com/funvibe/vellum/internal/token"
)

// Annotation is a type as written in source.
type Annotation interface {
	GetSpan() token.Span
	annotationNode()
}

// ConstructorAnnotation is a named type, optionally module-qualified:
// `Int`, `Option<a>`, `types.Datum`.
type ConstructorAnnotation struct {
	Span   token.Span
	Module string
	Name   string
	Args   []Annotation
}

type FnAnnotation struct {
	Span token.Span
	Args []Annotation
	Ret  Annotation
}

// VarAnnotation is a lowercase type variable such as `a`.
type VarAnnotation struct {
	Span token.Span
	Name string
}

// Hole is `_`: a type left for inference to fill in.
type Hole struct {
	Span token.Span
	Name string
}

type TupleAnnotation struct {
	Span  token.Span
	Elems []Annotation
}

type PairAnnotation struct {
	Span token.Span
	Fst  Annotation
	Snd  Annotation
}

func (a *ConstructorAnnotation) GetSpan() token.Span { return a.Span }
func (a *FnAnnotation) GetSpan() token.Span          { return a.Span }
func (a *VarAnnotation) GetSpan() token.Span         { return a.Span }
func (a *Hole) GetSpan() token.Span                  { return a.Span }
func (a *TupleAnnotation) GetSpan() token.Span       { return a.Span }
func (a *PairAnnotation) GetSpan() token.Span        { return a.Span }

func (*ConstructorAnnotation) annotationNode() {}
func (*FnAnnotation) annotationNode()          {}
func (*VarAnnotation) annotationNode()         {}
func (*Hole) annotationNode()                  {}
func (*TupleAnnotation) annotationNode()       {}
func (*PairAnnotation) annotationNode()        {}

// Pattern appears on the left of an assignment.
type Pattern interface {
	GetSpan() token.Span
	patternNode()
}

type PVar struct {
	Span token.Span
	Name string
}

type PDiscard struct {
	Span token.Span
	Name string
}

type PTuple struct {
	Span  token.Span
	Elems []Pattern
}

type PPair struct {
	Span token.Span
	Fst  Pattern
	Snd  Pattern
}

func (p *PVar) GetSpan() token.Span     { return p.Span }
func (p *PDiscard) GetSpan() token.Span { return p.Span }
func (p *PTuple) GetSpan() token.Span   { return p.Span }
func (p *PPair) GetSpan() token.Span    { return p.Span }

func (*PVar) patternNode()     {}
func (*PDiscard) patternNode() {}
func (*PTuple) patternNode()   {}
func (*PPair) patternNode()    {}

// DecoratorKind selects how a data type or constructor is encoded on chain.
type DecoratorKind int

const (
	// DecoratorTag overrides the constructor index: @tag(n).
	DecoratorTag DecoratorKind = iota
	// DecoratorList encodes a record as a plain list of its fields: @list.
	DecoratorList
)

func (k DecoratorKind) String() string {
	switch k {
	case DecoratorTag:
		return "tag"
	case DecoratorList:
		return "list"
	}
	return "unknown"
}

type Decorator struct {
	Span token.Span
	Kind DecoratorKind
	// Value is the tag number as written, for DecoratorTag.
	Value string
}
