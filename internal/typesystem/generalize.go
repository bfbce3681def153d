package typesystem

// Generalize removes links from t and quantifies every unbound variable
// whose rank is above rank. A variable keeps its id as a Generic, so the
// same variable generalizes identically across calls.
func Generalize(vt *VarTable, t Type, rank int) Type {
	t = vt.Resolve(t)
	switch t := t.(type) {
	case *Var:
		if vt.Rank(t.ID) > rank {
			return &Generic{ID: t.ID}
		}
		return t
	case *App:
		if len(t.Args) == 0 {
			return t
		}
		cp := *t
		cp.Args = generalizeAll(vt, t.Args, rank)
		return &cp
	case *Fn:
		return &Fn{Args: generalizeAll(vt, t.Args, rank), Ret: Generalize(vt, t.Ret, rank)}
	case *Tuple:
		return &Tuple{Elems: generalizeAll(vt, t.Elems, rank)}
	case *Pair:
		return &Pair{Fst: Generalize(vt, t.Fst, rank), Snd: Generalize(vt, t.Snd, rank)}
	}
	return t
}

func generalizeAll(vt *VarTable, ts []Type, rank int) []Type {
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = Generalize(vt, t, rank)
	}
	return out
}

// Instantiate replaces every Generic in t with a fresh unbound variable of
// the given rank. The mapping keeps one variable per generic id and may be
// shared between related types (a record and its field, say).
func Instantiate(vt *VarTable, t Type, rank int, mapping map[uint64]Type) Type {
	t = vt.Resolve(t)
	switch t := t.(type) {
	case *Generic:
		if v, ok := mapping[t.ID]; ok {
			return v
		}
		v := vt.Fresh(rank)
		mapping[t.ID] = v
		return v
	case *App:
		if len(t.Args) == 0 {
			return t
		}
		cp := *t
		cp.Args = make([]Type, len(t.Args))
		for i, a := range t.Args {
			cp.Args[i] = Instantiate(vt, a, rank, mapping)
		}
		return &cp
	case *Fn:
		args := make([]Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = Instantiate(vt, a, rank, mapping)
		}
		return &Fn{Args: args, Ret: Instantiate(vt, t.Ret, rank, mapping)}
	case *Tuple:
		elems := make([]Type, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = Instantiate(vt, e, rank, mapping)
		}
		return &Tuple{Elems: elems}
	case *Pair:
		return &Pair{
			Fst: Instantiate(vt, t.Fst, rank, mapping),
			Snd: Instantiate(vt, t.Snd, rank, mapping),
		}
	}
	return t
}

// Substitute replaces generics by id. Types passed here come from
// registries and carry no links.
func Substitute(t Type, subst map[uint64]Type) Type {
	switch t := t.(type) {
	case *Generic:
		if r, ok := subst[t.ID]; ok {
			return r
		}
		return t
	case *App:
		if len(t.Args) == 0 {
			return t
		}
		cp := *t
		cp.Args = make([]Type, len(t.Args))
		for i, a := range t.Args {
			cp.Args[i] = Substitute(a, subst)
		}
		return &cp
	case *Fn:
		args := make([]Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = Substitute(a, subst)
		}
		return &Fn{Args: args, Ret: Substitute(t.Ret, subst)}
	case *Tuple:
		elems := make([]Type, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = Substitute(e, subst)
		}
		return &Tuple{Elems: elems}
	case *Pair:
		return &Pair{Fst: Substitute(t.Fst, subst), Snd: Substitute(t.Snd, subst)}
	}
	return t
}
