package analyzer

import (
	"fmt"
	"strconv"

	"github.com/funvibe/vellum/internal/ast"
	"github.com/funvibe/vellum/internal/diagnostics"
	"github.com/funvibe/vellum/internal/token"
)

// decoratorContext is where a decorator is written.
type decoratorContext int

const (
	contextRecord decoratorContext = iota
	contextEnum
	contextConstructor
)

func (c decoratorContext) String() string {
	switch c {
	case contextRecord:
		return "record"
	case contextEnum:
		return "enum"
	}
	return "constructor"
}

func allowedContexts(kind ast.DecoratorKind) []decoratorContext {
	switch kind {
	case ast.DecoratorTag:
		return []decoratorContext{contextRecord, contextConstructor}
	case ast.DecoratorList:
		return []decoratorContext{contextRecord}
	}
	return nil
}

// conflictsWith reports whether two decorators may not share a list. Every
// pair of known kinds conflicts, two tags included.
func conflictsWith(a, b ast.DecoratorKind) bool {
	switch {
	case a == ast.DecoratorTag && b == ast.DecoratorTag,
		a == ast.DecoratorTag && b == ast.DecoratorList,
		a == ast.DecoratorList && b == ast.DecoratorTag,
		a == ast.DecoratorList && b == ast.DecoratorList:
		return true
	}
	return false
}

// checkDecorators validates the decorators of a data type and makes sure
// no two constructors share an encoding tag.
func checkDecorators(d *ast.DataType) *diagnostics.DiagnosticError {
	context := contextRecord
	if len(d.Constructors) > 1 {
		context = contextEnum
	}
	if err := validateDecoratorsInContext(d.Decorators, context); err != nil {
		return err
	}

	seen := make(map[int]token.Span)
	for index, ctor := range d.Constructors {
		if err := validateDecoratorsInContext(ctor.Decorators, contextConstructor); err != nil {
			return err
		}

		tag, span := index, ctor.Span
		for _, dec := range ctor.Decorators {
			if dec.Kind != ast.DecoratorTag {
				continue
			}
			n, err := strconv.Atoi(dec.Value)
			if err != nil || n < 0 {
				return diagnostics.NewError(diagnostics.ErrDecoratorValidation, dec.Span,
					fmt.Sprintf("tag must be a non-negative integer, got %q", dec.Value))
			}
			tag, span = n, dec.Span
			break
		}

		if first, ok := seen[tag]; ok {
			err := diagnostics.NewError(diagnostics.ErrDecoratorTagOverlap, span, tag).WithRelated(first)
			err.Tag = tag
			return err
		}
		seen[tag] = span
	}
	return nil
}

func validateDecoratorsInContext(decorators []ast.Decorator, context decoratorContext) *diagnostics.DiagnosticError {
	for i, d1 := range decorators {
		allowed := false
		for _, c := range allowedContexts(d1.Kind) {
			if c == context {
				allowed = true
				break
			}
		}
		if !allowed {
			return diagnostics.NewError(diagnostics.ErrDecoratorValidation, d1.Span,
				fmt.Sprintf("this decorator not allowed in a %s context", context))
		}

		for _, d2 := range decorators[i+1:] {
			if conflictsWith(d1.Kind, d2.Kind) {
				return diagnostics.NewError(diagnostics.ErrConflictingDecorators, d1.Span).WithRelated(d2.Span)
			}
		}
	}
	return nil
}
