package diagnostics

import (
	"fmt"
	"strings"

	"github.com/funvibe/vellum/internal/token"
	"github.com/funvibe/vellum/internal/typesystem"
)

// ErrorCode identifies the kind of a hard error.
type ErrorCode string

// Resolution errors
const (
	ErrUnknownModule         ErrorCode = "T101"
	ErrUnknownModuleField    ErrorCode = "T102"
	ErrUnknownModuleValue    ErrorCode = "T103"
	ErrUnknownModuleType     ErrorCode = "T104"
	ErrUnknownVariable       ErrorCode = "T105"
	ErrUnknownType           ErrorCode = "T106"
	ErrUnknownRecordField    ErrorCode = "T107"
	ErrDuplicateName         ErrorCode = "T108"
	ErrDuplicateTypeName     ErrorCode = "T109"
	ErrDuplicateImport       ErrorCode = "T110"
	ErrDuplicateHandler      ErrorCode = "T111"
	ErrValidatorImported     ErrorCode = "T112"
	ErrIncorrectTypeArity    ErrorCode = "T113"
	ErrCyclicTypeDefinitions ErrorCode = "T114"
)

// Unification errors
const (
	ErrCouldNotUnify              ErrorCode = "T201"
	ErrRecursiveType              ErrorCode = "T202"
	ErrIncorrectFunctionCallArity ErrorCode = "T203"
	ErrNotFn                      ErrorCode = "T204"
	ErrNotATuple                  ErrorCode = "T205"
	ErrTupleIndexOutOfBound       ErrorCode = "T206"
)

// Structural errors
const (
	ErrIncorrectValidatorArity     ErrorCode = "T301"
	ErrValidatorMustReturnBool     ErrorCode = "T302"
	ErrUnknownPurpose              ErrorCode = "T303"
	ErrUnexpectedValidatorFallback ErrorCode = "T304"
	ErrIncorrectTestArity          ErrorCode = "T305"
	ErrIncorrectBenchmarkArity     ErrorCode = "T306"
	ErrIllegalTestType             ErrorCode = "T307"
	ErrFunctionTypeInData          ErrorCode = "T308"
	ErrIllegalTypeInData           ErrorCode = "T309"
	ErrGenericLeftAtBoundary       ErrorCode = "T310"
	ErrDecoratorValidation         ErrorCode = "T311"
	ErrConflictingDecorators       ErrorCode = "T312"
	ErrDecoratorTagOverlap         ErrorCode = "T313"
	ErrPrivateTypeLeak             ErrorCode = "T314"
	ErrUnsupportedExpression       ErrorCode = "T315"
)

var errorTemplates = map[ErrorCode]string{
	ErrUnknownModule:         "unknown module %q",
	ErrUnknownModuleField:    "module %q has no public value or type named %q",
	ErrUnknownModuleValue:    "module %q has no public value named %q",
	ErrUnknownModuleType:     "module %q has no public type named %q",
	ErrUnknownVariable:       "unknown variable %q",
	ErrUnknownType:           "unknown type %q",
	ErrUnknownRecordField:    "type %s has no field %q",
	ErrDuplicateName:         "duplicate definition of %q",
	ErrDuplicateTypeName:     "duplicate type definition %q",
	ErrDuplicateImport:       "module %q imported twice under the name %q",
	ErrDuplicateHandler:      "validator %q defines handler %q twice",
	ErrValidatorImported:     "validator module %q cannot be imported",
	ErrIncorrectTypeArity:    "type %q expects %d argument(s), got %d",
	ErrCyclicTypeDefinitions: "type aliases form a cycle: %s",

	ErrCouldNotUnify:              "type mismatch: expected %s, got %s",
	ErrRecursiveType:              "recursive type: %s would have to contain itself in %s",
	ErrIncorrectFunctionCallArity: "function expects %d argument(s), got %d",
	ErrNotFn:                      "%s is not a function",
	ErrNotATuple:                  "%s is not a tuple",
	ErrTupleIndexOutOfBound:       "index %d is out of bounds for a tuple of size %d",

	ErrIncorrectValidatorArity:     "handler takes %d argument(s), expected %d",
	ErrValidatorMustReturnBool:     "validator handlers must return Bool, got %s",
	ErrUnknownPurpose:              "unknown handler purpose, expected one of: %s",
	ErrUnexpectedValidatorFallback: "fallback is unreachable: every purpose already has a handler",
	ErrIncorrectTestArity:          "tests take at most one argument, got %d",
	ErrIncorrectBenchmarkArity:     "benchmarks take exactly one argument",
	ErrIllegalTestType:             "tests must return Bool or Void",
	ErrFunctionTypeInData:          "data types cannot hold functions",
	ErrIllegalTypeInData:           "type %s cannot be stored in data",
	ErrGenericLeftAtBoundary:       "generic type left at a boundary: the type must be fully known here",
	ErrDecoratorValidation:         "invalid decorator: %s",
	ErrConflictingDecorators:       "decorators conflict with each other",
	ErrDecoratorTagOverlap:         "tag %d is already used by another constructor",
	ErrPrivateTypeLeak:             "public value exposes private type %s",
	ErrUnsupportedExpression:       "expression %T cannot be typed",
}

// UnifySituation records why two types were unified. It only changes how a
// mismatch is reported.
type UnifySituation int

const (
	NoSituation UnifySituation = iota
	ReturnAnnotationMismatch
	FuzzerAnnotationMismatch
	IfBranchMismatch
	OperatorSituation
)

func (s UnifySituation) String() string {
	switch s {
	case ReturnAnnotationMismatch:
		return "the body does not match the return annotation"
	case FuzzerAnnotationMismatch:
		return "the type produced by the fuzzer must match the argument annotation"
	case IfBranchMismatch:
		return "all branches of an if expression must have the same type"
	case OperatorSituation:
		return "operand type does not fit the operator"
	}
	return ""
}

// DiagnosticError is a hard error found while checking a module.
type DiagnosticError struct {
	Code ErrorCode
	Span token.Span
	// Related is a second location when the error involves two places.
	Related    token.Span
	HasRelated bool
	File       string
	Message    string

	Expected  typesystem.Type
	Given     typesystem.Type
	Situation UnifySituation
	Names     []string
	Tag       int
}

// NewError formats the message template of code with args.
func NewError(code ErrorCode, span token.Span, args ...interface{}) *DiagnosticError {
	msg := string(code)
	if tmpl, ok := errorTemplates[code]; ok {
		msg = fmt.Sprintf(tmpl, args...)
	}
	return &DiagnosticError{Code: code, Span: span, Message: msg}
}

// NewUnifyError reports a mismatch between expected and given. Both types
// are printed with one printer so their variables share names.
func NewUnifyError(code ErrorCode, span token.Span, expected, given typesystem.Type, situation UnifySituation) *DiagnosticError {
	p := typesystem.NewPrinter(nil)
	e := NewError(code, span, p.Print(expected), p.Print(given))
	e.Expected = expected
	e.Given = given
	e.Situation = situation
	return e
}

// WithRelated attaches a second location.
func (e *DiagnosticError) WithRelated(span token.Span) *DiagnosticError {
	e.Related = span
	e.HasRelated = true
	return e
}

// WithSituation re-tags a unification error.
func (e *DiagnosticError) WithSituation(s UnifySituation) *DiagnosticError {
	e.Situation = s
	return e
}

func (e *DiagnosticError) Error() string {
	var sb strings.Builder
	sb.WriteString("error[")
	sb.WriteString(string(e.Code))
	sb.WriteString("]: ")
	sb.WriteString(e.Message)
	if hint := e.Situation.String(); hint != "" {
		sb.WriteString(" (")
		sb.WriteString(hint)
		sb.WriteString(")")
	}
	return sb.String()
}
