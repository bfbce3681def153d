package typesystem

import (
	"github.com/funvibe/vellum/internal/config"
)

// Type is the interface for all types in our system.
//
// A type is either concrete (App, Fn, Tuple, Pair), a quantified
// variable (Generic) or a reference to a unification variable (Var) whose
// state lives in a VarTable.
type Type interface {
	String() string
	isType()
}

// App is a named type applied to arguments, e.g. Int or Option<a>.
type App struct {
	Public bool
	// Opaque marks a type whose shape must not be relied upon outside its
	// defining module. It is set for declared opaque types and for types
	// that carry an opaque type in one of their fields.
	Opaque bool
	Module string
	Name   string
	Args   []Type
}

// Fn is a function type.
type Fn struct {
	Args []Type
	Ret  Type
}

// Tuple is an anonymous product of two or more elements.
type Tuple struct {
	Elems []Type
}

// Pair is the builtin 2-element product, distinct from a 2-tuple.
type Pair struct {
	Fst Type
	Snd Type
}

// Var references a unification variable in a VarTable.
type Var struct {
	ID uint64
}

// Generic is a universally quantified type variable. It unifies only with
// itself and is replaced with fresh variables on instantiation.
type Generic struct {
	ID uint64
}

func (*App) isType()     {}
func (*Fn) isType()      {}
func (*Tuple) isType()   {}
func (*Pair) isType()    {}
func (*Var) isType()     {}
func (*Generic) isType() {}

func (t *App) String() string     { return NewPrinter(nil).Print(t) }
func (t *Fn) String() string      { return NewPrinter(nil).Print(t) }
func (t *Tuple) String() string   { return NewPrinter(nil).Print(t) }
func (t *Pair) String() string    { return NewPrinter(nil).Print(t) }
func (t *Var) String() string     { return NewPrinter(nil).Print(t) }
func (t *Generic) String() string { return NewPrinter(nil).Print(t) }

func prelude(name string, args ...Type) *App {
	return &App{Public: true, Name: name, Args: args}
}

func Int() Type       { return prelude(config.IntTypeName) }
func ByteArray() Type { return prelude(config.ByteArrayTypeName) }
func String() Type    { return prelude(config.StringTypeName) }
func Bool() Type      { return prelude(config.BoolTypeName) }
func Void() Type      { return prelude(config.VoidTypeName) }
func Data() Type      { return prelude(config.DataTypeName) }
func PRNG() Type      { return prelude(config.PRNGTypeName) }
func Ordering() Type  { return prelude(config.OrderingTypeName) }
func G1Element() Type { return prelude(config.G1ElementTypeName) }
func G2Element() Type { return prelude(config.G2ElementTypeName) }

func MillerLoopResult() Type { return prelude(config.MillerLoopResultTypeName) }

func List(elem Type) Type   { return prelude(config.ListTypeName, elem) }
func Option(elem Type) Type { return prelude(config.OptionTypeName, elem) }

// Function builds a function type.
func Function(args []Type, ret Type) Type {
	return &Fn{Args: args, Ret: ret}
}

// NewTuple builds a tuple type.
func NewTuple(elems ...Type) Type {
	return &Tuple{Elems: elems}
}

// NewPair builds a pair type.
func NewPair(fst, snd Type) Type {
	return &Pair{Fst: fst, Snd: snd}
}

// Fuzzer is the type of value generators: fn(PRNG) -> Option<(PRNG, a)>.
func Fuzzer(a Type) Type {
	return Function([]Type{PRNG()}, Option(NewTuple(PRNG(), a)))
}

// Sampler is a size-indexed fuzzer: fn(Int) -> Fuzzer<a>.
func Sampler(a Type) Type {
	return Function([]Type{Int()}, Fuzzer(a))
}

// FunctionTypes splits a (resolved) function type into its parts.
func FunctionTypes(t Type) ([]Type, Type, bool) {
	if fn, ok := t.(*Fn); ok {
		return fn.Args, fn.Ret, true
	}
	return nil, nil, false
}

// WithOpaque returns a copy of an App type with the opaque flag set.
func WithOpaque(t Type, opaque bool) Type {
	app, ok := t.(*App)
	if !ok {
		return t
	}
	cp := *app
	cp.Opaque = opaque
	return &cp
}

// Equal reports structural equality of two types, ignoring visibility
// flags. Variables are equal when they share an id. Callers should zonk
// both sides first.
func Equal(a, b Type) bool {
	switch a := a.(type) {
	case *App:
		b, ok := b.(*App)
		return ok && a.Name == b.Name && a.Module == b.Module && equalAll(a.Args, b.Args)
	case *Fn:
		b, ok := b.(*Fn)
		return ok && equalAll(a.Args, b.Args) && Equal(a.Ret, b.Ret)
	case *Tuple:
		b, ok := b.(*Tuple)
		return ok && equalAll(a.Elems, b.Elems)
	case *Pair:
		b, ok := b.(*Pair)
		return ok && Equal(a.Fst, b.Fst) && Equal(a.Snd, b.Snd)
	case *Var:
		b, ok := b.(*Var)
		return ok && a.ID == b.ID
	case *Generic:
		b, ok := b.(*Generic)
		return ok && a.ID == b.ID
	}
	return false
}

func equalAll(as, bs []Type) bool {
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if !Equal(as[i], bs[i]) {
			return false
		}
	}
	return true
}
