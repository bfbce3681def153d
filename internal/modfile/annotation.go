package modfile

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/funvibe/vellum/internal/ast"
	"github.com/funvibe/vellum/internal/token"
)

// annotationParser reads type annotations written as strings:
//
//	Int  Option<a>  types.Datum  fn(Int, a) -> Bool  (Int, ByteArray)  Pair<a, b>  _
type annotationParser struct {
	src  string
	pos  int
	base int // offset of src in the file
}

func parseAnnotation(src string, base int) (ast.Annotation, error) {
	p := &annotationParser{src: src, base: base}
	ann, err := p.annotation()
	if err != nil {
		return nil, err
	}
	p.skipSpaces()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return ann, nil
}

func (p *annotationParser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("annotation %q at %d: %s", p.src, p.pos, fmt.Sprintf(format, args...))
}

func (p *annotationParser) span(start int) token.Span {
	return token.Span{Start: p.base + start, End: p.base + p.pos}
}

func (p *annotationParser) skipSpaces() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *annotationParser) accept(s string) bool {
	p.skipSpaces()
	if strings.HasPrefix(p.src[p.pos:], s) {
		p.pos += len(s)
		return true
	}
	return false
}

func (p *annotationParser) expect(s string) error {
	if !p.accept(s) {
		return p.errorf("expected %q", s)
	}
	return nil
}

func (p *annotationParser) ident() string {
	p.skipSpaces()
	start := p.pos
	for p.pos < len(p.src) {
		r := rune(p.src[p.pos])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *annotationParser) annotation() (ast.Annotation, error) {
	p.skipSpaces()
	start := p.pos

	if p.accept("fn(") {
		args, err := p.list(")")
		if err != nil {
			return nil, err
		}
		if err := p.expect("->"); err != nil {
			return nil, err
		}
		ret, err := p.annotation()
		if err != nil {
			return nil, err
		}
		return &ast.FnAnnotation{Span: p.span(start), Args: args, Ret: ret}, nil
	}

	if p.accept("(") {
		elems, err := p.list(")")
		if err != nil {
			return nil, err
		}
		if len(elems) < 2 {
			return nil, p.errorf("a tuple needs at least two elements")
		}
		return &ast.TupleAnnotation{Span: p.span(start), Elems: elems}, nil
	}

	name := p.ident()
	if name == "" {
		return nil, p.errorf("expected a type")
	}
	if strings.HasPrefix(name, "_") {
		return &ast.Hole{Span: p.span(start), Name: name}, nil
	}

	module := ""
	if p.pos < len(p.src) && p.src[p.pos] == '.' {
		p.pos++
		module = name
		name = p.ident()
		if name == "" {
			return nil, p.errorf("expected a type name after %q", module+".")
		}
	}

	if module == "" && !unicode.IsUpper(rune(name[0])) {
		return &ast.VarAnnotation{Span: p.span(start), Name: name}, nil
	}

	var args []ast.Annotation
	if p.accept("<") {
		var err error
		if args, err = p.list(">"); err != nil {
			return nil, err
		}
	}

	if module == "" && name == "Pair" {
		if len(args) != 2 {
			return nil, p.errorf("Pair takes two arguments")
		}
		return &ast.PairAnnotation{Span: p.span(start), Fst: args[0], Snd: args[1]}, nil
	}
	return &ast.ConstructorAnnotation{Span: p.span(start), Module: module, Name: name, Args: args}, nil
}

// list reads comma separated annotations up to and including closing.
func (p *annotationParser) list(closing string) ([]ast.Annotation, error) {
	var out []ast.Annotation
	if p.accept(closing) {
		return out, nil
	}
	for {
		ann, err := p.annotation()
		if err != nil {
			return nil, err
		}
		out = append(out, ann)
		if p.accept(",") {
			continue
		}
		if err := p.expect(closing); err != nil {
			return nil, err
		}
		return out, nil
	}
}
