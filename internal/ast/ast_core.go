package ast

import (
	"github.com/funvibe/vellum/internal/config"
	"github.com/funvibe/vellum/internal/token"
	"github.com/funvibe/vellum/internal/typesystem"
)

// ModuleKind tells what a module may contain and who may import it.
type ModuleKind int

const (
	Lib ModuleKind = iota
	ValidatorModule
	TestSuite
)

func (k ModuleKind) String() string {
	switch k {
	case Lib:
		return "lib"
	case ValidatorModule:
		return "validator"
	case TestSuite:
		return "test"
	}
	return "unknown"
}

func (k ModuleKind) IsValidator() bool { return k == ValidatorModule }

// ParseModuleKind is the inverse of String.
func ParseModuleKind(s string) (ModuleKind, bool) {
	switch s {
	case "lib", "":
		return Lib, true
	case "validator":
		return ValidatorModule, true
	case "test":
		return TestSuite, true
	}
	return Lib, false
}

// Module is the root node handed over by the parser. Inference fills the
// Type fields of its nodes in place.
type Module struct {
	Name        string
	Kind        ModuleKind
	Definitions []Definition
}

// Definition is a top-level definition.
type Definition interface {
	GetSpan() token.Span
	definitionNode()
}

// Arg is a function, handler or validator parameter.
type Arg struct {
	Span             token.Span
	Name             string
	Label            string
	Annotation       Annotation
	IsValidatorParam bool
	Doc              string

	Type typesystem.Type
}

// IsDiscarded reports whether the argument name starts with an underscore.
func (a *Arg) IsDiscarded() bool {
	return len(a.Name) == 0 || a.Name[:1] == config.DiscardPrefix
}

// Clone returns a shallow copy without the inferred type.
func (a *Arg) Clone() *Arg {
	cp := *a
	cp.Type = nil
	return &cp
}

// ArgVia is a property argument with the generator its values come from.
type ArgVia struct {
	Arg *Arg
	Via Expression
}

// Function is a top-level function or a validator handler.
type Function struct {
	Doc              string
	Span             token.Span
	Name             string
	Public           bool
	Arguments        []*Arg
	ReturnAnnotation Annotation
	Body             Expression

	ReturnType typesystem.Type
}

// Keywords introducing tests and benchmarks.
const (
	TestKeyword  = "test"
	BenchKeyword = "bench"
)

// Property is the shared shape of tests and benchmarks.
type Property struct {
	Doc              string
	Span             token.Span
	Name             string
	Arguments        []*ArgVia
	ReturnAnnotation Annotation
	Body             Expression
	// OnTestFailure is "fail_immediately", "succeed_eventually" or
	// "succeed_immediately"; it does not affect typing.
	OnTestFailure string

	ReturnType typesystem.Type
}

// AsFunction views the property as the function it is inferred as.
func (p *Property) AsFunction() *Function {
	args := make([]*Arg, len(p.Arguments))
	for i, a := range p.Arguments {
		args[i] = a.Arg
	}
	return &Function{
		Doc:              p.Doc,
		Span:             p.Span,
		Name:             p.Name,
		Arguments:        args,
		ReturnAnnotation: p.ReturnAnnotation,
		Body:             p.Body,
	}
}

type Test struct {
	Property
}

type Benchmark struct {
	Property
}

// Validator bundles purpose handlers that share leading parameters.
type Validator struct {
	Doc      string
	Span     token.Span
	Name     string
	Params   []*Arg
	Handlers []*Function
	Fallback *Function
}

// DefaultFallback is the fallback synthesized when a validator does not
// declare one: it accepts any context and fails.
func DefaultFallback(span token.Span) *Function {
	return &Function{
		Span:   span,
		Name:   config.FallbackName,
		Public: true,
		Arguments: []*Arg{{
			Span: span,
			Name: "_",
		}},
		ReturnAnnotation: &ConstructorAnnotation{Span: span, Name: config.BoolTypeName},
		Body:             &Fail{Span: span},
	}
}

type TypeAlias struct {
	Doc        string
	Span       token.Span
	Public     bool
	Alias      string
	Parameters []string
	Annotation Annotation

	Type typesystem.Type
}

type RecordConstructorArg struct {
	Doc        string
	Span       token.Span
	Label      string
	Annotation Annotation

	Type typesystem.Type
}

type RecordConstructor struct {
	Doc        string
	Span       token.Span
	Name       string
	Arguments  []*RecordConstructorArg
	Decorators []Decorator
}

type DataType struct {
	Doc          string
	Span         token.Span
	Public       bool
	Opaque       bool
	Name         string
	Parameters   []string
	Constructors []*RecordConstructor
	Decorators   []Decorator

	TypedParameters []typesystem.Type
}

// UnqualifiedImport is one name in `use a/b.{x, y as z}`.
type UnqualifiedImport struct {
	Span   token.Span
	Name   string
	AsName string
}

// Variable returns the name the import is bound to.
func (u UnqualifiedImport) Variable() string {
	if u.AsName != "" {
		return u.AsName
	}
	return u.Name
}

type Use struct {
	Span        token.Span
	Module      string
	AsName      string
	Unqualified []UnqualifiedImport

	// Package is resolved during inference.
	Package string
}

// Alias returns the name the imported module is bound to.
func (u *Use) Alias() string {
	if u.AsName != "" {
		return u.AsName
	}
	for i := len(u.Module) - 1; i >= 0; i-- {
		if u.Module[i] == '/' {
			return u.Module[i+1:]
		}
	}
	return u.Module
}

type ModuleConstant struct {
	Doc        string
	Span       token.Span
	Public     bool
	Name       string
	Annotation Annotation
	Value      Expression

	Type typesystem.Type
}

func (d *Function) GetSpan() token.Span       { return d.Span }
func (d *Validator) GetSpan() token.Span      { return d.Span }
func (d *Test) GetSpan() token.Span           { return d.Span }
func (d *Benchmark) GetSpan() token.Span      { return d.Span }
func (d *TypeAlias) GetSpan() token.Span      { return d.Span }
func (d *DataType) GetSpan() token.Span       { return d.Span }
func (d *Use) GetSpan() token.Span            { return d.Span }
func (d *ModuleConstant) GetSpan() token.Span { return d.Span }

func (*Function) definitionNode()       {}
func (*Validator) definitionNode()      {}
func (*Test) definitionNode()           {}
func (*Benchmark) definitionNode()      {}
func (*TypeAlias) definitionNode()      {}
func (*DataType) definitionNode()       {}
func (*Use) definitionNode()            {}
func (*ModuleConstant) definitionNode() {}
