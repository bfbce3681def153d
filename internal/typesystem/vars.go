package typesystem

import "sync/atomic"

// IDGen mints unique ids for unification variables and generics. One
// generator may be shared by modules checked concurrently.
type IDGen struct {
	next atomic.Uint64
}

func NewIDGen() *IDGen {
	return &IDGen{}
}

func (g *IDGen) Next() uint64 {
	return g.next.Add(1)
}

// varCell is the state of one unification variable: unbound at a rank, or
// linked to another type.
type varCell struct {
	link Type
	rank int
}

// VarTable is the arena of unification variables of one module check.
// Types reference cells by id; all solving mutates this table only.
type VarTable struct {
	ids   *IDGen
	cells map[uint64]*varCell
}

func NewVarTable(ids *IDGen) *VarTable {
	return &VarTable{ids: ids, cells: make(map[uint64]*varCell)}
}

// IDs returns the generator backing the table.
func (vt *VarTable) IDs() *IDGen {
	return vt.ids
}

// Fresh allocates an unbound variable at the given rank.
func (vt *VarTable) Fresh(rank int) *Var {
	id := vt.ids.Next()
	vt.cells[id] = &varCell{rank: rank}
	return &Var{ID: id}
}

// NewGeneric allocates a quantified variable.
func (vt *VarTable) NewGeneric() *Generic {
	return &Generic{ID: vt.ids.Next()}
}

// Unbound reports whether id names a variable that is not linked.
// Variables unknown to the table count as unbound.
func (vt *VarTable) Unbound(id uint64) bool {
	c, ok := vt.cells[id]
	return !ok || c.link == nil
}

// Rank returns the rank of an unbound variable.
func (vt *VarTable) Rank(id uint64) int {
	if c, ok := vt.cells[id]; ok {
		return c.rank
	}
	return 0
}

func (vt *VarTable) setRank(id uint64, rank int) {
	if c, ok := vt.cells[id]; ok && c.link == nil && c.rank > rank {
		c.rank = rank
	}
}

// Link solves an unbound variable. Linking an already linked variable is a
// programming error and panics.
func (vt *VarTable) Link(id uint64, t Type) {
	c, ok := vt.cells[id]
	if !ok {
		c = &varCell{}
		vt.cells[id] = c
	}
	if c.link != nil {
		panic("typesystem: variable linked twice")
	}
	c.link = t
}

// Resolve follows links until it reaches a non-variable type or an
// unbound variable. Chains are re-linked straight to their end.
func (vt *VarTable) Resolve(t Type) Type {
	if vt == nil {
		return t
	}
	v, ok := t.(*Var)
	if !ok {
		return t
	}
	c, ok := vt.cells[v.ID]
	if !ok || c.link == nil {
		return t
	}
	end := vt.Resolve(c.link)
	c.link = end
	return end
}

// Zonk resolves t deeply, removing every link. Unbound variables remain.
func (vt *VarTable) Zonk(t Type) Type {
	t = vt.Resolve(t)
	switch t := t.(type) {
	case *App:
		if len(t.Args) == 0 {
			return t
		}
		cp := *t
		cp.Args = vt.zonkAll(t.Args)
		return &cp
	case *Fn:
		return &Fn{Args: vt.zonkAll(t.Args), Ret: vt.Zonk(t.Ret)}
	case *Tuple:
		return &Tuple{Elems: vt.zonkAll(t.Elems)}
	case *Pair:
		return &Pair{Fst: vt.Zonk(t.Fst), Snd: vt.Zonk(t.Snd)}
	}
	return t
}

func (vt *VarTable) zonkAll(ts []Type) []Type {
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = vt.Zonk(t)
	}
	return out
}

// IsUnbound reports whether t resolves to an unbound variable.
func (vt *VarTable) IsUnbound(t Type) bool {
	_, ok := vt.Resolve(t).(*Var)
	return ok
}
