package typesystem

import (
	"strings"
)

// Printer renders types, naming variables a, b, c, ... in order of first
// appearance. A printer shared across several types keeps names consistent.
type Printer struct {
	vt    *VarTable
	names map[uint64]string
}

func NewPrinter(vt *VarTable) *Printer {
	return &Printer{vt: vt, names: make(map[uint64]string)}
}

func (p *Printer) Print(t Type) string {
	var sb strings.Builder
	p.write(&sb, t)
	return sb.String()
}

func (p *Printer) write(sb *strings.Builder, t Type) {
	if p.vt != nil {
		t = p.vt.Resolve(t)
	}
	switch t := t.(type) {
	case nil:
		sb.WriteString("?")
	case *App:
		sb.WriteString(t.Name)
		if len(t.Args) > 0 {
			sb.WriteByte('<')
			p.writeAll(sb, t.Args)
			sb.WriteByte('>')
		}
	case *Fn:
		sb.WriteString("fn(")
		p.writeAll(sb, t.Args)
		sb.WriteString(") -> ")
		p.write(sb, t.Ret)
	case *Tuple:
		sb.WriteByte('(')
		p.writeAll(sb, t.Elems)
		sb.WriteByte(')')
	case *Pair:
		sb.WriteString("Pair<")
		p.write(sb, t.Fst)
		sb.WriteString(", ")
		p.write(sb, t.Snd)
		sb.WriteByte('>')
	case *Var:
		sb.WriteString(p.name(t.ID))
	case *Generic:
		sb.WriteString(p.name(t.ID))
	}
}

func (p *Printer) writeAll(sb *strings.Builder, ts []Type) {
	for i, t := range ts {
		if i > 0 {
			sb.WriteString(", ")
		}
		p.write(sb, t)
	}
}

func (p *Printer) name(id uint64) string {
	if n, ok := p.names[id]; ok {
		return n
	}
	n := letters(len(p.names))
	p.names[id] = n
	return n
}

// letters maps 0 -> a, 25 -> z, 26 -> aa, ...
func letters(i int) string {
	var out []byte
	for {
		out = append([]byte{byte('a' + i%26)}, out...)
		i = i/26 - 1
		if i < 0 {
			return string(out)
		}
	}
}
