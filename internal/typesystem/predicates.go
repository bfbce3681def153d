package typesystem

import "github.com/funvibe/vellum/internal/config"

func isPrelude(t Type, name string) bool {
	app, ok := t.(*App)
	return ok && app.Module == "" && app.Name == name
}

// The predicates below inspect an already resolved type.

func IsBool(t Type) bool      { return isPrelude(t, config.BoolTypeName) }
func IsInt(t Type) bool       { return isPrelude(t, config.IntTypeName) }
func IsString(t Type) bool    { return isPrelude(t, config.StringTypeName) }
func IsData(t Type) bool      { return isPrelude(t, config.DataTypeName) }
func IsVoid(t Type) bool      { return isPrelude(t, config.VoidTypeName) }
func IsMLResult(t Type) bool  { return isPrelude(t, config.MillerLoopResultTypeName) }
func IsByteArray(t Type) bool { return isPrelude(t, config.ByteArrayTypeName) }

func IsOption(t Type) bool {
	app, ok := t.(*App)
	return ok && app.Module == "" && app.Name == config.OptionTypeName && len(app.Args) == 1
}

func IsFunction(t Type) bool {
	_, ok := t.(*Fn)
	return ok
}

// ContainsOpaque reports whether an opaque type is reachable from t.
func ContainsOpaque(vt *VarTable, t Type) bool {
	switch t := vt.Resolve(t).(type) {
	case *App:
		if t.Opaque {
			return true
		}
		for _, a := range t.Args {
			if ContainsOpaque(vt, a) {
				return true
			}
		}
	case *Tuple:
		for _, e := range t.Elems {
			if ContainsOpaque(vt, e) {
				return true
			}
		}
	case *Pair:
		return ContainsOpaque(vt, t.Fst) || ContainsOpaque(vt, t.Snd)
	}
	return false
}

// FindPrivateType returns the first non-public named type inside t.
func FindPrivateType(vt *VarTable, t Type) (*App, bool) {
	switch t := vt.Resolve(t).(type) {
	case *App:
		if !t.Public {
			return t, true
		}
		return findPrivateIn(vt, t.Args)
	case *Fn:
		if app, ok := findPrivateIn(vt, t.Args); ok {
			return app, true
		}
		return FindPrivateType(vt, t.Ret)
	case *Tuple:
		return findPrivateIn(vt, t.Elems)
	case *Pair:
		if app, ok := FindPrivateType(vt, t.Fst); ok {
			return app, true
		}
		return FindPrivateType(vt, t.Snd)
	}
	return nil, false
}

func findPrivateIn(vt *VarTable, ts []Type) (*App, bool) {
	for _, t := range ts {
		if app, ok := FindPrivateType(vt, t); ok {
			return app, true
		}
	}
	return nil, false
}

// IsMonomorphic reports whether t contains neither unbound variables nor
// generics.
func IsMonomorphic(vt *VarTable, t Type) bool {
	switch t := vt.Resolve(t).(type) {
	case *Var, *Generic:
		return false
	case *App:
		return allMonomorphic(vt, t.Args)
	case *Fn:
		return allMonomorphic(vt, t.Args) && IsMonomorphic(vt, t.Ret)
	case *Tuple:
		return allMonomorphic(vt, t.Elems)
	case *Pair:
		return IsMonomorphic(vt, t.Fst) && IsMonomorphic(vt, t.Snd)
	}
	return true
}

func allMonomorphic(vt *VarTable, ts []Type) bool {
	for _, t := range ts {
		if !IsMonomorphic(vt, t) {
			return false
		}
	}
	return true
}
