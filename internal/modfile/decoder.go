// Package modfile reads the YAML interchange form of a parsed module into
// the untyped syntax tree the analyzer consumes.
package modfile

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/vellum/internal/ast"
	"github.com/funvibe/vellum/internal/config"
	"github.com/funvibe/vellum/internal/token"
)

// SyntaxError is a malformed interchange file.
type SyntaxError struct {
	File string
	Pos  token.Position
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
	}
	return fmt.Sprintf("%s:%s: %s", e.File, e.Pos, e.Msg)
}

type decoder struct {
	file  string
	lines *token.LineIndex
}

// Decode reads one module from src. path is only used in error messages.
func Decode(path string, src []byte) (*ast.Module, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	d := &decoder{file: path, lines: token.NewLineIndex(src)}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &SyntaxError{File: path, Pos: token.Position{Line: 1, Column: 1}, Msg: "empty module file"}
	}
	return d.module(doc.Content[0])
}

func (d *decoder) errorf(n *yaml.Node, format string, args ...interface{}) error {
	return &SyntaxError{
		File: d.file,
		Pos:  token.Position{Line: n.Line, Column: n.Column},
		Msg:  fmt.Sprintf(format, args...),
	}
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func (d *decoder) start(n *yaml.Node) int {
	return d.lines.Offset(n.Line, n.Column)
}

// contentStart is the offset of the first character of a scalar's value.
func (d *decoder) contentStart(n *yaml.Node) int {
	offset := d.start(n)
	if n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 {
		offset++
	}
	return offset
}

func (d *decoder) span(n *yaml.Node) token.Span {
	n = resolve(n)
	start := d.start(n)
	switch n.Kind {
	case yaml.ScalarNode:
		end := d.contentStart(n) + len(n.Value)
		if n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 {
			end++
		}
		return token.Span{Start: start, End: end}
	case yaml.MappingNode, yaml.SequenceNode:
		if len(n.Content) == 0 {
			return token.Span{Start: start, End: start + 2}
		}
		last := d.span(n.Content[len(n.Content)-1])
		return token.Span{Start: start, End: last.End}
	}
	return token.Span{Start: start, End: start}
}

// mapping indexes the keys of a mapping node.
type mapping struct {
	node   *yaml.Node
	keys   map[string]*yaml.Node
	values map[string]*yaml.Node
}

func (d *decoder) mapping(n *yaml.Node) (*mapping, error) {
	n = resolve(n)
	if n.Kind != yaml.MappingNode {
		return nil, d.errorf(n, "expected a mapping")
	}
	m := &mapping{node: n, keys: make(map[string]*yaml.Node), values: make(map[string]*yaml.Node)}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i]
		if _, dup := m.values[k.Value]; dup {
			return nil, d.errorf(k, "duplicate key %q", k.Value)
		}
		m.keys[k.Value] = k
		m.values[k.Value] = resolve(n.Content[i+1])
	}
	return m, nil
}

func (m *mapping) get(key string) *yaml.Node { return m.values[key] }

func (d *decoder) str(n *yaml.Node) (string, error) {
	n = resolve(n)
	if n == nil {
		return "", nil
	}
	if n.Kind != yaml.ScalarNode {
		return "", d.errorf(n, "expected a scalar")
	}
	return n.Value, nil
}

func (d *decoder) flag(m *mapping, key string) (bool, error) {
	n := m.get(key)
	if n == nil {
		return false, nil
	}
	b, err := strconv.ParseBool(n.Value)
	if err != nil {
		return false, d.errorf(n, "%s must be true or false", key)
	}
	return b, nil
}

func (d *decoder) names(n *yaml.Node) ([]string, error) {
	n = resolve(n)
	if n == nil {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, d.errorf(n, "expected a list")
	}
	out := make([]string, 0, len(n.Content))
	for _, item := range n.Content {
		s, err := d.str(item)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (d *decoder) annotation(n *yaml.Node) (ast.Annotation, error) {
	n = resolve(n)
	if n == nil {
		return nil, nil
	}
	if n.Kind != yaml.ScalarNode {
		return nil, d.errorf(n, "expected a type annotation")
	}
	ann, err := parseAnnotation(n.Value, d.contentStart(n))
	if err != nil {
		return nil, d.errorf(n, "%v", err)
	}
	return ann, nil
}

func (d *decoder) module(n *yaml.Node) (*ast.Module, error) {
	m, err := d.mapping(n)
	if err != nil {
		return nil, err
	}
	name, err := d.str(m.get("module"))
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, d.errorf(n, "missing module name")
	}
	kindName, err := d.str(m.get("kind"))
	if err != nil {
		return nil, err
	}
	kind, ok := ast.ParseModuleKind(kindName)
	if !ok {
		return nil, d.errorf(m.get("kind"), "unknown module kind %q", kindName)
	}

	module := &ast.Module{Name: name, Kind: kind}
	defs := m.get("definitions")
	if defs == nil {
		return module, nil
	}
	if defs.Kind != yaml.SequenceNode {
		return nil, d.errorf(defs, "definitions must be a list")
	}
	for _, item := range defs.Content {
		def, err := d.definition(item)
		if err != nil {
			return nil, err
		}
		module.Definitions = append(module.Definitions, def)
	}
	return module, nil
}

// Constants and aliases also carry a type key, so data types are tried last.
var definitionKeys = []string{"use", "alias", "const", "fn", "validator", "test", "bench", "type"}

func (d *decoder) definition(n *yaml.Node) (ast.Definition, error) {
	m, err := d.mapping(n)
	if err != nil {
		return nil, err
	}
	for _, key := range definitionKeys {
		if m.get(key) == nil {
			continue
		}
		switch key {
		case "use":
			return d.use(m)
		case "type":
			return d.dataType(m)
		case "alias":
			return d.typeAlias(m)
		case "const":
			return d.constant(m)
		case "fn":
			return d.function(m, "fn")
		case "validator":
			return d.validator(m)
		case "test":
			p, err := d.property(m, ast.TestKeyword)
			if err != nil {
				return nil, err
			}
			return &ast.Test{Property: *p}, nil
		case "bench":
			p, err := d.property(m, ast.BenchKeyword)
			if err != nil {
				return nil, err
			}
			return &ast.Benchmark{Property: *p}, nil
		}
	}
	return nil, d.errorf(n, "unknown definition, expected one of: %s", strings.Join(definitionKeys, ", "))
}

func (d *decoder) use(m *mapping) (*ast.Use, error) {
	use := &ast.Use{Span: d.span(m.node)}
	var err error
	if use.Module, err = d.str(m.get("use")); err != nil {
		return nil, err
	}
	if use.AsName, err = d.str(m.get("as")); err != nil {
		return nil, err
	}
	if use.Package, err = d.str(m.get("package")); err != nil {
		return nil, err
	}

	list := m.get("unqualified")
	if list == nil {
		return use, nil
	}
	if list.Kind != yaml.SequenceNode {
		return nil, d.errorf(list, "unqualified must be a list")
	}
	for _, item := range list.Content {
		item = resolve(item)
		imp := ast.UnqualifiedImport{Span: d.span(item)}
		if item.Kind == yaml.ScalarNode {
			imp.Name = item.Value
		} else {
			im, err := d.mapping(item)
			if err != nil {
				return nil, err
			}
			if imp.Name, err = d.str(im.get("name")); err != nil {
				return nil, err
			}
			if imp.AsName, err = d.str(im.get("as")); err != nil {
				return nil, err
			}
		}
		use.Unqualified = append(use.Unqualified, imp)
	}
	return use, nil
}

func (d *decoder) decorators(n *yaml.Node) ([]ast.Decorator, error) {
	n = resolve(n)
	if n == nil {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, d.errorf(n, "decorators must be a list")
	}
	var out []ast.Decorator
	for _, item := range n.Content {
		item = resolve(item)
		dec := ast.Decorator{Span: d.span(item)}
		switch {
		case item.Kind == yaml.ScalarNode && item.Value == "list":
			dec.Kind = ast.DecoratorList
		case item.Kind == yaml.MappingNode:
			dm, err := d.mapping(item)
			if err != nil {
				return nil, err
			}
			tag := dm.get("tag")
			if tag == nil {
				return nil, d.errorf(item, "unknown decorator")
			}
			dec.Kind = ast.DecoratorTag
			dec.Value = tag.Value
		default:
			return nil, d.errorf(item, "unknown decorator")
		}
		out = append(out, dec)
	}
	return out, nil
}

func (d *decoder) dataType(m *mapping) (*ast.DataType, error) {
	dt := &ast.DataType{Span: d.span(m.node)}
	var err error
	if dt.Name, err = d.str(m.get("type")); err != nil {
		return nil, err
	}
	if dt.Doc, err = d.str(m.get("doc")); err != nil {
		return nil, err
	}
	if dt.Public, err = d.flag(m, "pub"); err != nil {
		return nil, err
	}
	if dt.Opaque, err = d.flag(m, "opaque"); err != nil {
		return nil, err
	}
	if dt.Parameters, err = d.names(m.get("params")); err != nil {
		return nil, err
	}
	if dt.Decorators, err = d.decorators(m.get("decorators")); err != nil {
		return nil, err
	}

	ctors := m.get("constructors")
	if ctors == nil || ctors.Kind != yaml.SequenceNode || len(ctors.Content) == 0 {
		return nil, d.errorf(m.keys["type"], "type %s needs a list of constructors", dt.Name)
	}
	for _, item := range ctors.Content {
		ctor, err := d.constructor(item)
		if err != nil {
			return nil, err
		}
		dt.Constructors = append(dt.Constructors, ctor)
	}
	return dt, nil
}

func (d *decoder) constructor(n *yaml.Node) (*ast.RecordConstructor, error) {
	n = resolve(n)
	if n.Kind == yaml.ScalarNode {
		return &ast.RecordConstructor{Span: d.span(n), Name: n.Value}, nil
	}
	m, err := d.mapping(n)
	if err != nil {
		return nil, err
	}
	ctor := &ast.RecordConstructor{Span: d.span(n)}
	if ctor.Name, err = d.str(m.get("name")); err != nil {
		return nil, err
	}
	if ctor.Doc, err = d.str(m.get("doc")); err != nil {
		return nil, err
	}
	if ctor.Decorators, err = d.decorators(m.get("decorators")); err != nil {
		return nil, err
	}

	fields := m.get("fields")
	if fields == nil {
		return ctor, nil
	}
	if fields.Kind != yaml.SequenceNode {
		return nil, d.errorf(fields, "fields must be a list")
	}
	for _, item := range fields.Content {
		item = resolve(item)
		arg := &ast.RecordConstructorArg{Span: d.span(item)}
		if item.Kind == yaml.ScalarNode {
			// Positional field written as a bare annotation.
			if arg.Annotation, err = d.annotation(item); err != nil {
				return nil, err
			}
		} else {
			fm, err := d.mapping(item)
			if err != nil {
				return nil, err
			}
			if arg.Label, err = d.str(fm.get("label")); err != nil {
				return nil, err
			}
			if arg.Doc, err = d.str(fm.get("doc")); err != nil {
				return nil, err
			}
			if arg.Annotation, err = d.annotation(fm.get("type")); err != nil {
				return nil, err
			}
			if arg.Annotation == nil {
				return nil, d.errorf(item, "field needs a type")
			}
		}
		ctor.Arguments = append(ctor.Arguments, arg)
	}
	return ctor, nil
}

func (d *decoder) typeAlias(m *mapping) (*ast.TypeAlias, error) {
	alias := &ast.TypeAlias{Span: d.span(m.node)}
	var err error
	if alias.Alias, err = d.str(m.get("alias")); err != nil {
		return nil, err
	}
	if alias.Doc, err = d.str(m.get("doc")); err != nil {
		return nil, err
	}
	if alias.Public, err = d.flag(m, "pub"); err != nil {
		return nil, err
	}
	if alias.Parameters, err = d.names(m.get("params")); err != nil {
		return nil, err
	}
	if alias.Annotation, err = d.annotation(m.get("type")); err != nil {
		return nil, err
	}
	if alias.Annotation == nil {
		return nil, d.errorf(m.keys["alias"], "alias %s needs a type", alias.Alias)
	}
	return alias, nil
}

func (d *decoder) constant(m *mapping) (*ast.ModuleConstant, error) {
	c := &ast.ModuleConstant{Span: d.span(m.node)}
	var err error
	if c.Name, err = d.str(m.get("const")); err != nil {
		return nil, err
	}
	if c.Doc, err = d.str(m.get("doc")); err != nil {
		return nil, err
	}
	if c.Public, err = d.flag(m, "pub"); err != nil {
		return nil, err
	}
	if c.Annotation, err = d.annotation(m.get("type")); err != nil {
		return nil, err
	}
	value := m.get("value")
	if value == nil {
		return nil, d.errorf(m.keys["const"], "constant %s needs a value", c.Name)
	}
	if c.Value, err = d.expr(value); err != nil {
		return nil, err
	}
	return c, nil
}

func (d *decoder) function(m *mapping, key string) (*ast.Function, error) {
	fn := &ast.Function{Span: d.span(m.node)}
	var err error
	if fn.Name, err = d.str(m.get(key)); err != nil {
		return nil, err
	}
	if fn.Doc, err = d.str(m.get("doc")); err != nil {
		return nil, err
	}
	if fn.Public, err = d.flag(m, "pub"); err != nil {
		return nil, err
	}
	if fn.Arguments, err = d.args(m.get("args")); err != nil {
		return nil, err
	}
	if fn.ReturnAnnotation, err = d.annotation(m.get("returns")); err != nil {
		return nil, err
	}
	if fn.Body, err = d.body(m.get("body"), m.node); err != nil {
		return nil, err
	}
	return fn, nil
}

func (d *decoder) validator(m *mapping) (*ast.Validator, error) {
	v := &ast.Validator{Span: d.span(m.node)}
	var err error
	if v.Name, err = d.str(m.get("validator")); err != nil {
		return nil, err
	}
	if v.Doc, err = d.str(m.get("doc")); err != nil {
		return nil, err
	}
	if v.Params, err = d.args(m.get("params")); err != nil {
		return nil, err
	}
	for _, p := range v.Params {
		p.IsValidatorParam = true
	}

	if handlers := m.get("handlers"); handlers != nil {
		if handlers.Kind != yaml.SequenceNode {
			return nil, d.errorf(handlers, "handlers must be a list")
		}
		for _, item := range handlers.Content {
			hm, err := d.mapping(item)
			if err != nil {
				return nil, err
			}
			h, err := d.function(hm, "name")
			if err != nil {
				return nil, err
			}
			h.Public = true
			v.Handlers = append(v.Handlers, h)
		}
	}

	if fallback := m.get(config.FallbackName); fallback != nil {
		fm, err := d.mapping(fallback)
		if err != nil {
			return nil, err
		}
		h, err := d.function(fm, "name")
		if err != nil {
			return nil, err
		}
		h.Name = config.FallbackName
		h.Public = true
		v.Fallback = h
	}
	return v, nil
}

func (d *decoder) property(m *mapping, key string) (*ast.Property, error) {
	p := &ast.Property{Span: d.span(m.node)}
	var err error
	if p.Name, err = d.str(m.get(key)); err != nil {
		return nil, err
	}
	if p.Doc, err = d.str(m.get("doc")); err != nil {
		return nil, err
	}
	if p.OnTestFailure, err = d.str(m.get("on_failure")); err != nil {
		return nil, err
	}
	if p.ReturnAnnotation, err = d.annotation(m.get("returns")); err != nil {
		return nil, err
	}

	if args := m.get("args"); args != nil {
		if args.Kind != yaml.SequenceNode {
			return nil, d.errorf(args, "args must be a list")
		}
		for _, item := range args.Content {
			arg, via, err := d.arg(item)
			if err != nil {
				return nil, err
			}
			if via == nil {
				return nil, d.errorf(item, "argument %s needs a via expression", arg.Name)
			}
			p.Arguments = append(p.Arguments, &ast.ArgVia{Arg: arg, Via: via})
		}
	}

	if p.Body, err = d.body(m.get("body"), m.node); err != nil {
		return nil, err
	}
	return p, nil
}

func (d *decoder) args(n *yaml.Node) ([]*ast.Arg, error) {
	n = resolve(n)
	if n == nil {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, d.errorf(n, "args must be a list")
	}
	out := make([]*ast.Arg, 0, len(n.Content))
	for _, item := range n.Content {
		arg, via, err := d.arg(item)
		if err != nil {
			return nil, err
		}
		if via != nil {
			return nil, d.errorf(item, "via is only allowed on test arguments")
		}
		out = append(out, arg)
	}
	return out, nil
}

// arg reads either "name" / "name: Type" or a mapping with name, label,
// type and via keys.
func (d *decoder) arg(n *yaml.Node) (*ast.Arg, ast.Expression, error) {
	n = resolve(n)
	arg := &ast.Arg{Span: d.span(n)}
	if n.Kind == yaml.ScalarNode {
		name, annotation, found := strings.Cut(n.Value, ":")
		arg.Name = strings.TrimSpace(name)
		if found {
			offset := len(name) + 1
			offset += len(annotation) - len(strings.TrimLeft(annotation, " "))
			ann, err := parseAnnotation(strings.TrimSpace(annotation), d.contentStart(n)+offset)
			if err != nil {
				return nil, nil, d.errorf(n, "%v", err)
			}
			arg.Annotation = ann
		}
		if arg.Name == "" {
			return nil, nil, d.errorf(n, "argument needs a name")
		}
		return arg, nil, nil
	}

	m, err := d.mapping(n)
	if err != nil {
		return nil, nil, err
	}
	if arg.Name, err = d.str(m.get("name")); err != nil {
		return nil, nil, err
	}
	if arg.Label, err = d.str(m.get("label")); err != nil {
		return nil, nil, err
	}
	if arg.Doc, err = d.str(m.get("doc")); err != nil {
		return nil, nil, err
	}
	if arg.Annotation, err = d.annotation(m.get("type")); err != nil {
		return nil, nil, err
	}
	var via ast.Expression
	if viaNode := m.get("via"); viaNode != nil {
		if via, err = d.expr(viaNode); err != nil {
			return nil, nil, err
		}
	}
	return arg, via, nil
}

// body reads a function body. A list is a sequence; a missing body is a
// todo.
func (d *decoder) body(n *yaml.Node, owner *yaml.Node) (ast.Expression, error) {
	n = resolve(n)
	if n == nil {
		return &ast.Todo{Span: d.span(owner)}, nil
	}
	if n.Kind == yaml.SequenceNode {
		return d.sequence(n)
	}
	return d.expr(n)
}

func (d *decoder) sequence(n *yaml.Node) (*ast.Sequence, error) {
	seq := &ast.Sequence{Span: d.span(n)}
	for _, item := range n.Content {
		e, err := d.expr(item)
		if err != nil {
			return nil, err
		}
		seq.Expressions = append(seq.Expressions, e)
	}
	return seq, nil
}

func (d *decoder) exprs(n *yaml.Node) ([]ast.Expression, error) {
	n = resolve(n)
	if n == nil {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, d.errorf(n, "expected a list of expressions")
	}
	out := make([]ast.Expression, 0, len(n.Content))
	for _, item := range n.Content {
		e, err := d.expr(item)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// optionalExpr reads n unless it is absent or null.
func (d *decoder) optionalExpr(n *yaml.Node) (ast.Expression, error) {
	n = resolve(n)
	if n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null") {
		return nil, nil
	}
	return d.expr(n)
}

var expressionKeys = []string{
	"str", "bytes", "var", "call", "lambda", "let", "expect", "do", "if",
	"op", "tuple", "pair", "list", "index", "field", "todo", "fail", "trace",
}

func (d *decoder) expr(n *yaml.Node) (ast.Expression, error) {
	n = resolve(n)
	span := d.span(n)

	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!int" {
			if _, ok := new(big.Int).SetString(n.Value, 0); !ok {
				return nil, d.errorf(n, "invalid integer %q", n.Value)
			}
			return &ast.Int{Span: span, Value: n.Value}, nil
		}
		if n.Value == "" || n.Tag == "!!null" {
			return nil, d.errorf(n, "expected an expression")
		}
		return &ast.Var{Span: span, Name: n.Value}, nil
	case yaml.SequenceNode:
		return d.sequence(n)
	case yaml.MappingNode:
	default:
		return nil, d.errorf(n, "expected an expression")
	}

	m, err := d.mapping(n)
	if err != nil {
		return nil, err
	}
	for _, key := range expressionKeys {
		if m.get(key) != nil {
			return d.form(key, m, span)
		}
	}
	return nil, d.errorf(n, "unknown expression, expected one of: %s", strings.Join(expressionKeys, ", "))
}

func (d *decoder) form(key string, m *mapping, span token.Span) (ast.Expression, error) {
	v := m.get(key)
	switch key {
	case "str":
		return &ast.String{Span: span, Value: v.Value}, nil

	case "bytes":
		b, err := hex.DecodeString(v.Value)
		if err != nil {
			return nil, d.errorf(v, "bytes must be hex encoded")
		}
		return &ast.ByteArray{Span: span, Bytes: b}, nil

	case "var":
		return &ast.Var{Span: span, Name: v.Value}, nil

	case "call":
		fun, err := d.expr(v)
		if err != nil {
			return nil, err
		}
		args, err := d.exprs(m.get("args"))
		if err != nil {
			return nil, err
		}
		return &ast.Call{Span: span, Fun: fun, Args: args}, nil

	case "lambda":
		args, err := d.args(v)
		if err != nil {
			return nil, err
		}
		ret, err := d.annotation(m.get("returns"))
		if err != nil {
			return nil, err
		}
		body, err := d.body(m.get("body"), m.node)
		if err != nil {
			return nil, err
		}
		return &ast.Fn{Span: span, Arguments: args, ReturnAnnotation: ret, Body: body}, nil

	case "let", "expect":
		kind := ast.Let
		if key == "expect" {
			kind = ast.Expect
		}
		pattern, err := d.pattern(v)
		if err != nil {
			return nil, err
		}
		ann, err := d.annotation(m.get("type"))
		if err != nil {
			return nil, err
		}
		valueNode := m.get("value")
		if valueNode == nil {
			return nil, d.errorf(m.keys[key], "%s needs a value", key)
		}
		value, err := d.expr(valueNode)
		if err != nil {
			return nil, err
		}
		return &ast.Assignment{Span: span, Kind: kind, Pattern: pattern, Annotation: ann, Value: value}, nil

	case "do":
		if v.Kind != yaml.SequenceNode {
			return nil, d.errorf(v, "do takes a list of expressions")
		}
		return d.sequence(v)

	case "if":
		return d.ifExpr(m, span)

	case "op":
		return d.operator(m, span)

	case "tuple":
		elems, err := d.exprs(v)
		if err != nil {
			return nil, err
		}
		if len(elems) < 2 {
			return nil, d.errorf(v, "a tuple needs at least two elements")
		}
		return &ast.Tuple{Span: span, Elements: elems}, nil

	case "pair":
		elems, err := d.exprs(v)
		if err != nil {
			return nil, err
		}
		if len(elems) != 2 {
			return nil, d.errorf(v, "a pair needs exactly two elements")
		}
		return &ast.Pair{Span: span, Fst: elems[0], Snd: elems[1]}, nil

	case "list":
		elems, err := d.exprs(v)
		if err != nil {
			return nil, err
		}
		tail, err := d.optionalExpr(m.get("tail"))
		if err != nil {
			return nil, err
		}
		return &ast.List{Span: span, Elements: elems, Tail: tail}, nil

	case "index":
		index, err := strconv.Atoi(v.Value)
		if err != nil || index < 0 {
			return nil, d.errorf(v, "index must be a non-negative integer")
		}
		of, err := d.of(m, key)
		if err != nil {
			return nil, err
		}
		return &ast.TupleIndex{Span: span, Index: index, Tuple: of}, nil

	case "field":
		of, err := d.of(m, key)
		if err != nil {
			return nil, err
		}
		return &ast.FieldAccess{Span: span, Label: v.Value, Container: of}, nil

	case "todo":
		label, err := d.optionalExpr(v)
		if err != nil {
			return nil, err
		}
		return &ast.Todo{Span: span, Label: label}, nil

	case "fail":
		reason, err := d.optionalExpr(v)
		if err != nil {
			return nil, err
		}
		return &ast.Fail{Span: span, Reason: reason}, nil

	case "trace":
		text, err := d.expr(v)
		if err != nil {
			return nil, err
		}
		thenNode := m.get("then")
		if thenNode == nil {
			return nil, d.errorf(m.keys[key], "trace needs a then expression")
		}
		then, err := d.body(thenNode, m.node)
		if err != nil {
			return nil, err
		}
		return &ast.Trace{Span: span, Text: text, Then: then}, nil
	}
	return nil, d.errorf(m.node, "unknown expression %q", key)
}

func (d *decoder) of(m *mapping, key string) (ast.Expression, error) {
	n := m.get("of")
	if n == nil {
		return nil, d.errorf(m.keys[key], "%s needs an of expression", key)
	}
	return d.expr(n)
}

func (d *decoder) ifExpr(m *mapping, span token.Span) (ast.Expression, error) {
	branches := m.get("if")
	if branches.Kind != yaml.SequenceNode || len(branches.Content) == 0 {
		return nil, d.errorf(branches, "if takes a list of branches")
	}
	e := &ast.If{Span: span}
	for _, item := range branches.Content {
		bm, err := d.mapping(item)
		if err != nil {
			return nil, err
		}
		condNode, thenNode := bm.get("cond"), bm.get("then")
		if condNode == nil || thenNode == nil {
			return nil, d.errorf(item, "a branch needs cond and then")
		}
		cond, err := d.expr(condNode)
		if err != nil {
			return nil, err
		}
		body, err := d.body(thenNode, item)
		if err != nil {
			return nil, err
		}
		e.Branches = append(e.Branches, ast.IfBranch{Span: d.span(item), Condition: cond, Body: body})
	}
	if elseNode := m.get(config.FallbackName); elseNode != nil {
		body, err := d.body(elseNode, m.node)
		if err != nil {
			return nil, err
		}
		e.FinalElse = body
	}
	return e, nil
}

var binOperators = map[string]ast.BinOperator{
	"&&": ast.And, "||": ast.Or, "==": ast.Eq, "!=": ast.NotEq,
	"<": ast.LtInt, "<=": ast.LtEq, ">": ast.GtInt, ">=": ast.GtEq,
	"+": ast.Add, "-": ast.Sub, "*": ast.Mul, "/": ast.Div, "%": ast.Mod,
}

func (d *decoder) operator(m *mapping, span token.Span) (ast.Expression, error) {
	opNode := m.get("op")
	args, err := d.exprs(m.get("args"))
	if err != nil {
		return nil, err
	}
	switch len(args) {
	case 1:
		switch opNode.Value {
		case string(ast.Not):
			return &ast.UnOp{Span: span, Op: ast.Not, Value: args[0]}, nil
		case string(ast.Negate):
			return &ast.UnOp{Span: span, Op: ast.Negate, Value: args[0]}, nil
		}
		return nil, d.errorf(opNode, "%q is not a unary operator", opNode.Value)
	case 2:
		op, ok := binOperators[opNode.Value]
		if !ok {
			return nil, d.errorf(opNode, "unknown operator %q", opNode.Value)
		}
		return &ast.BinOp{Span: span, Op: op, Left: args[0], Right: args[1]}, nil
	}
	return nil, d.errorf(opNode, "operator %q takes one or two arguments, got %d", opNode.Value, len(args))
}

func (d *decoder) pattern(n *yaml.Node) (ast.Pattern, error) {
	n = resolve(n)
	span := d.span(n)
	switch n.Kind {
	case yaml.ScalarNode:
		if strings.HasPrefix(n.Value, config.DiscardPrefix) {
			return &ast.PDiscard{Span: span, Name: n.Value}, nil
		}
		return &ast.PVar{Span: span, Name: n.Value}, nil

	case yaml.SequenceNode:
		if len(n.Content) < 2 {
			return nil, d.errorf(n, "a tuple pattern needs at least two elements")
		}
		p := &ast.PTuple{Span: span}
		for _, item := range n.Content {
			elem, err := d.pattern(item)
			if err != nil {
				return nil, err
			}
			p.Elems = append(p.Elems, elem)
		}
		return p, nil

	case yaml.MappingNode:
		m, err := d.mapping(n)
		if err != nil {
			return nil, err
		}
		pair := m.get("pair")
		if pair == nil || pair.Kind != yaml.SequenceNode || len(pair.Content) != 2 {
			return nil, d.errorf(n, "expected a pair pattern with two elements")
		}
		fst, err := d.pattern(pair.Content[0])
		if err != nil {
			return nil, err
		}
		snd, err := d.pattern(pair.Content[1])
		if err != nil {
			return nil, err
		}
		return &ast.PPair{Span: span, Fst: fst, Snd: snd}, nil
	}
	return nil, d.errorf(n, "expected a pattern")
}
