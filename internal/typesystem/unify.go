package typesystem

// Unify makes expected and given equal by linking unbound variables in vt.
// Links made before a failure are kept: there is no rollback.
//
// With allowSubsumption, Data is accepted in place of (or as) any other
// serialisable type.
func Unify(vt *VarTable, expected, given Type, allowSubsumption bool) error {
	u := unifier{vt: vt, allowSubsumption: allowSubsumption}
	if err := u.unify(expected, given); err != nil {
		if err.Kind == CouldNotUnify {
			err.Expected = vt.Zonk(expected)
			err.Given = vt.Zonk(given)
		}
		return err
	}
	return nil
}

type unifier struct {
	vt               *VarTable
	allowSubsumption bool
}

func (u *unifier) mismatch(t1, t2 Type) *UnifyError {
	return &UnifyError{Kind: CouldNotUnify, Expected: t1, Given: t2}
}

func (u *unifier) unify(t1, t2 Type) *UnifyError {
	t1 = u.vt.Resolve(t1)
	t2 = u.vt.Resolve(t2)

	if u.allowSubsumption && u.castable(t1, t2) {
		return nil
	}

	if v, ok := t1.(*Var); ok {
		return u.bind(v, t2)
	}
	if v, ok := t2.(*Var); ok {
		return u.bind(v, t1)
	}

	switch a := t1.(type) {
	case *Generic:
		if b, ok := t2.(*Generic); ok && a.ID == b.ID {
			return nil
		}
		return u.mismatch(t1, t2)

	case *App:
		b, ok := t2.(*App)
		if !ok || a.Name != b.Name || a.Module != b.Module || len(a.Args) != len(b.Args) {
			return u.mismatch(t1, t2)
		}
		for i := range a.Args {
			if err := u.unify(a.Args[i], b.Args[i]); err != nil {
				return err
			}
		}
		return nil

	case *Fn:
		b, ok := t2.(*Fn)
		if !ok || len(a.Args) != len(b.Args) {
			return u.mismatch(t1, t2)
		}
		for i := range a.Args {
			if err := u.unify(a.Args[i], b.Args[i]); err != nil {
				return err
			}
		}
		return u.unify(a.Ret, b.Ret)

	case *Tuple:
		b, ok := t2.(*Tuple)
		if !ok || len(a.Elems) != len(b.Elems) {
			return u.mismatch(t1, t2)
		}
		for i := range a.Elems {
			if err := u.unify(a.Elems[i], b.Elems[i]); err != nil {
				return err
			}
		}
		return nil

	case *Pair:
		b, ok := t2.(*Pair)
		if !ok {
			return u.mismatch(t1, t2)
		}
		if err := u.unify(a.Fst, b.Fst); err != nil {
			return err
		}
		return u.unify(a.Snd, b.Snd)
	}

	return u.mismatch(t1, t2)
}

// bind links v to t after the occurs check. The ranks of variables in t are
// lowered to v's rank so generalization never quantifies them too early.
func (u *unifier) bind(v *Var, t Type) *UnifyError {
	if other, ok := t.(*Var); ok && other.ID == v.ID {
		return nil
	}
	if u.occurs(v.ID, u.vt.Rank(v.ID), t) {
		return &UnifyError{Kind: RecursiveType, Expected: v, Given: u.vt.Zonk(t)}
	}
	u.vt.Link(v.ID, t)
	return nil
}

func (u *unifier) occurs(id uint64, rank int, t Type) bool {
	t = u.vt.Resolve(t)
	switch t := t.(type) {
	case *Var:
		if t.ID == id {
			return true
		}
		u.vt.setRank(t.ID, rank)
		return false
	case *App:
		return u.occursAny(id, rank, t.Args)
	case *Fn:
		return u.occursAny(id, rank, t.Args) || u.occurs(id, rank, t.Ret)
	case *Tuple:
		return u.occursAny(id, rank, t.Elems)
	case *Pair:
		return u.occurs(id, rank, t.Fst) || u.occurs(id, rank, t.Snd)
	}
	return false
}

func (u *unifier) occursAny(id uint64, rank int, ts []Type) bool {
	for _, t := range ts {
		if u.occurs(id, rank, t) {
			return true
		}
	}
	return false
}

func (u *unifier) castable(t1, t2 Type) bool {
	if !IsData(t1) && !IsData(t2) {
		return false
	}
	for _, t := range []Type{t1, t2} {
		switch t.(type) {
		case *Var, *Generic, *Fn:
			return false
		}
		if IsString(t) || IsMLResult(t) {
			return false
		}
	}
	return true
}
