package typesystem

import "fmt"

// UnifyErrorKind distinguishes structural mismatches from occurs-check
// failures.
type UnifyErrorKind int

const (
	CouldNotUnify UnifyErrorKind = iota
	RecursiveType
)

// UnifyError is returned by Unify. Expected and Given are the types of the
// outermost call, in call order.
type UnifyError struct {
	Kind     UnifyErrorKind
	Expected Type
	Given    Type
}

func (e *UnifyError) Error() string {
	if e.Kind == RecursiveType {
		return fmt.Sprintf("recursive type: %s occurs in %s", e.Expected, e.Given)
	}
	return fmt.Sprintf("could not unify: expected %s, given %s", e.Expected, e.Given)
}
