package ast

import (
	"github.com/funvibe/vellum/internal/token"
	"github.com/funvibe/vellum/internal/typesystem"
)

// Expression is a Node that evaluates to a value. Its type is recorded on
// the node by inference.
type Expression interface {
	GetSpan() token.Span
	GetType() typesystem.Type
	SetType(typesystem.Type)
	expressionNode()
}

// Typed holds the inferred type of an expression.
type Typed struct {
	Type typesystem.Type
}

func (t *Typed) GetType() typesystem.Type     { return t.Type }
func (t *Typed) SetType(tipo typesystem.Type) { t.Type = tipo }

type Int struct {
	Typed
	Span  token.Span
	Value string
}

type ByteArray struct {
	Typed
	Span  token.Span
	Bytes []byte
}

type String struct {
	Typed
	Span  token.Span
	Value string
}

type Var struct {
	Typed
	Span token.Span
	Name string
}

type Call struct {
	Typed
	Span token.Span
	Fun  Expression
	Args []Expression
}

// Fn is an anonymous function.
type Fn struct {
	Typed
	Span             token.Span
	Arguments        []*Arg
	ReturnAnnotation Annotation
	Body             Expression
}

// AssignmentKind distinguishes plain bindings from casts out of Data.
type AssignmentKind int

const (
	Let AssignmentKind = iota
	Expect
)

type Assignment struct {
	Typed
	Span       token.Span
	Kind       AssignmentKind
	Pattern    Pattern
	Annotation Annotation
	Value      Expression
}

// Sequence is a block of expressions; its value is the last one.
type Sequence struct {
	Typed
	Span        token.Span
	Expressions []Expression
}

type IfBranch struct {
	Span      token.Span
	Condition Expression
	Body      Expression
}

type If struct {
	Typed
	Span      token.Span
	Branches  []IfBranch
	FinalElse Expression
}

type BinOperator string

const (
	And   BinOperator = "&&"
	Or    BinOperator = "||"
	Eq    BinOperator = "=="
	NotEq BinOperator = "!="
	LtInt BinOperator = "<"
	LtEq  BinOperator = "<="
	GtInt BinOperator = ">"
	GtEq  BinOperator = ">="
	Add   BinOperator = "+"
	Sub   BinOperator = "-"
	Mul   BinOperator = "*"
	Div   BinOperator = "/"
	Mod   BinOperator = "%"
)

type BinOp struct {
	Typed
	Span  token.Span
	Op    BinOperator
	Left  Expression
	Right Expression
}

type UnOperator string

const (
	Not    UnOperator = "!"
	Negate UnOperator = "-"
)

type UnOp struct {
	Typed
	Span  token.Span
	Op    UnOperator
	Value Expression
}

type Tuple struct {
	Typed
	Span     token.Span
	Elements []Expression
}

type Pair struct {
	Typed
	Span token.Span
	Fst  Expression
	Snd  Expression
}

type List struct {
	Typed
	Span     token.Span
	Elements []Expression
	Tail     Expression
}

type TupleIndex struct {
	Typed
	Span  token.Span
	Index int
	Tuple Expression
}

// FieldAccess is `container.label`. When the container names an imported
// module it is resolved as a module select.
type FieldAccess struct {
	Typed
	Span      token.Span
	Label     string
	Container Expression

	// Module is set by inference when the access selects a module value.
	Module string
}

type Todo struct {
	Typed
	Span  token.Span
	Label Expression
}

type Fail struct {
	Typed
	Span   token.Span
	Reason Expression
}

type Trace struct {
	Typed
	Span token.Span
	Text Expression
	Then Expression
}

func (e *Int) GetSpan() token.Span         { return e.Span }
func (e *ByteArray) GetSpan() token.Span   { return e.Span }
func (e *String) GetSpan() token.Span      { return e.Span }
func (e *Var) GetSpan() token.Span         { return e.Span }
func (e *Call) GetSpan() token.Span        { return e.Span }
func (e *Fn) GetSpan() token.Span          { return e.Span }
func (e *Assignment) GetSpan() token.Span  { return e.Span }
func (e *Sequence) GetSpan() token.Span    { return e.Span }
func (e *If) GetSpan() token.Span          { return e.Span }
func (e *BinOp) GetSpan() token.Span       { return e.Span }
func (e *UnOp) GetSpan() token.Span        { return e.Span }
func (e *Tuple) GetSpan() token.Span       { return e.Span }
func (e *Pair) GetSpan() token.Span        { return e.Span }
func (e *List) GetSpan() token.Span        { return e.Span }
func (e *TupleIndex) GetSpan() token.Span  { return e.Span }
func (e *FieldAccess) GetSpan() token.Span { return e.Span }
func (e *Todo) GetSpan() token.Span        { return e.Span }
func (e *Fail) GetSpan() token.Span        { return e.Span }
func (e *Trace) GetSpan() token.Span       { return e.Span }

func (*Int) expressionNode()         {}
func (*ByteArray) expressionNode()   {}
func (*String) expressionNode()      {}
func (*Var) expressionNode()         {}
func (*Call) expressionNode()        {}
func (*Fn) expressionNode()          {}
func (*Assignment) expressionNode()  {}
func (*Sequence) expressionNode()    {}
func (*If) expressionNode()          {}
func (*BinOp) expressionNode()       {}
func (*UnOp) expressionNode()        {}
func (*Tuple) expressionNode()       {}
func (*Pair) expressionNode()        {}
func (*List) expressionNode()        {}
func (*TupleIndex) expressionNode()  {}
func (*FieldAccess) expressionNode() {}
func (*Todo) expressionNode()        {}
func (*Fail) expressionNode()        {}
func (*Trace) expressionNode()       {}
