package analyzer

import (
	"go.uber.org/zap"

	"github.com/funvibe/vellum/internal/ast"
	"github.com/funvibe/vellum/internal/config"
	"github.com/funvibe/vellum/internal/diagnostics"
	"github.com/funvibe/vellum/internal/symbols"
	"github.com/funvibe/vellum/internal/token"
	"github.com/funvibe/vellum/internal/typesystem"
)

// Options configure one module check.
type Options struct {
	// Package is stamped on the produced TypeInfo.
	Package string
	Tracing config.Tracing
	Logger  *zap.Logger
}

// TypedModule is a checked module: its definitions carry their types and
// TypeInfo is its public interface.
type TypedModule struct {
	Name        string
	Kind        ast.ModuleKind
	Definitions []ast.Definition
	TypeInfo    *symbols.TypeInfo
}

type moduleChecker struct {
	env        *Environment
	module     *ast.Module
	tracing    config.Tracing
	hydrators  map[string]*Hydrator
	typeNames  map[string]token.Span
	valueNames map[string]token.Span
}

func newModuleChecker(module *ast.Module, ids *typesystem.IDGen, importable map[string]*symbols.TypeInfo, opts Options) *moduleChecker {
	return &moduleChecker{
		env:        NewEnvironment(ids, module.Name, module.Kind, importable, opts.Logger),
		module:     module,
		tracing:    opts.Tracing,
		hydrators:  make(map[string]*Hydrator),
		typeNames:  make(map[string]token.Span),
		valueNames: make(map[string]token.Span),
	}
}

// Infer type-checks module. importable holds the interfaces of modules it
// may import, keyed by module name. Warnings are appended to warnings only
// when the check succeeds; the first error aborts the check.
func Infer(module *ast.Module, ids *typesystem.IDGen, importable map[string]*symbols.TypeInfo, opts Options, warnings *[]diagnostics.Warning) (*TypedModule, error) {
	c := newModuleChecker(module, ids, importable, opts)
	env := c.env

	typed, err := c.check(opts.Package)
	if err != nil {
		env.logger.Debug("check failed", zap.String("code", string(err.Code)))
		return nil, err
	}
	if warnings != nil {
		*warnings = append(*warnings, env.warnings...)
	}
	return typed, nil
}

// register runs the passes that make every name of the module known
// before any body is inferred.
func (c *moduleChecker) register() *diagnostics.DiagnosticError {
	env := c.env
	defs := c.module.Definitions

	env.logger.Debug("register imports")
	for _, def := range defs {
		if err := c.registerImport(def); err != nil {
			return err
		}
	}

	env.logger.Debug("register types")
	if err := c.registerTypes(); err != nil {
		return err
	}

	env.logger.Debug("register values")
	for _, def := range defs {
		if err := c.registerValues(def); err != nil {
			return err
		}
	}
	return nil
}

func (c *moduleChecker) check(pkg string) (*TypedModule, *diagnostics.DiagnosticError) {
	env := c.env
	defs := c.module.Definitions

	if err := c.register(); err != nil {
		return nil, err
	}

	// Constants and functions go in reference order, so that a definition
	// sees the generalised types of everything it uses.
	env.logger.Debug("infer", zap.Int("definitions", len(defs)))
	for _, group := range inferenceOrder(defs) {
		if err := c.inferGroup(group); err != nil {
			return nil, err
		}
	}
	definitions := make([]ast.Definition, 0, len(defs))
	for _, def := range defs {
		switch d := def.(type) {
		case *ast.ModuleConstant, *ast.Function:
			// Inferred above.
		case *ast.Validator:
			if !env.moduleKind.IsValidator() {
				continue
			}
			if err := c.inferDefinition(d); err != nil {
				return nil, err
			}
		default:
			if err := c.inferDefinition(d); err != nil {
				return nil, err
			}
		}
		definitions = append(definitions, def)
	}

	env.logger.Debug("generalise")
	for _, def := range definitions {
		c.generaliseDefinition(def)
	}
	for i := range env.warnings {
		if env.warnings[i].Type != nil {
			env.warnings[i].Type = typesystem.Generalize(env.vt, env.warnings[i].Type, 0)
		}
	}

	kept := env.warnings[:0]
	for _, w := range env.warnings {
		if w.Kind == diagnostics.WarnUnusedVariable && env.validatorParams[paramKey{name: w.Name, span: w.Span}] {
			continue
		}
		kept = append(kept, w)
	}
	env.warnings = kept
	env.convertUnusedToWarnings()

	info := &symbols.TypeInfo{
		Name:              env.moduleName,
		Package:           pkg,
		Kind:              env.moduleKind,
		Types:             env.moduleTypes,
		TypesConstructors: env.moduleTypesConstructors,
		Values:            env.moduleValues,
		Accessors:         env.accessors,
	}

	pruneValues(info)
	if err := c.checkPrivateTypeLeaks(info); err != nil {
		return nil, err
	}
	pruneTypes(info)

	return &TypedModule{
		Name:        env.moduleName,
		Kind:        env.moduleKind,
		Definitions: definitions,
		TypeInfo:    info,
	}, nil
}

// checkPrivateTypeLeaks rejects public values whose type mentions a type
// that is not public. Values are visited in name order.
func (c *moduleChecker) checkPrivateTypeLeaks(info *symbols.TypeInfo) *diagnostics.DiagnosticError {
	env := c.env
	for _, name := range info.ValueNames() {
		vc := info.Values[name]
		leaked, ok := typesystem.FindPrivateType(env.vt, vc.Type)
		if !ok {
			continue
		}
		err := diagnostics.NewError(diagnostics.ErrPrivateTypeLeak, vc.Variant.Location(), env.printer().Print(leaked))
		err.Given = leaked
		if tc, ok := info.Types[leaked.Name]; ok && tc.Module == leaked.Module {
			err.WithRelated(tc.Span)
		}
		return err
	}
	return nil
}

// PruneInterface reduces info to what other modules may see. It is a pure
// filter: pruning an already pruned interface changes nothing.
func PruneInterface(info *symbols.TypeInfo) {
	pruneValues(info)
	pruneTypes(info)
}

func pruneValues(info *symbols.TypeInfo) {
	for name, vc := range info.Values {
		if !vc.Public {
			delete(info.Values, name)
		}
	}
}

// pruneTypes keeps the public types the module declares itself, their
// constructor lists and the public accessors.
func pruneTypes(info *symbols.TypeInfo) {
	for name, tc := range info.Types {
		if !tc.Public || tc.Module != info.Name {
			delete(info.Types, name)
		}
	}
	for name := range info.TypesConstructors {
		if _, ok := info.Types[name]; !ok {
			delete(info.TypesConstructors, name)
		}
	}
	for name, acc := range info.Accessors {
		if !acc.Public {
			delete(info.Accessors, name)
		}
	}
}
