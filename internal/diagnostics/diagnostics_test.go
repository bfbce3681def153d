package diagnostics

import (
	"testing"

	"github.com/funvibe/vellum/internal/token"
	"github.com/funvibe/vellum/internal/typesystem"
	"github.com/stretchr/testify/assert"
)

func TestNewErrorFormatsTemplate(t *testing.T) {
	err := NewError(ErrIncorrectTypeArity, token.Span{Start: 3, End: 9}, "Option", 1, 2)
	assert.Equal(t, "error[T113]: type \"Option\" expects 1 argument(s), got 2", err.Error())
	assert.False(t, err.HasRelated)

	err.WithRelated(token.Span{Start: 20, End: 24})
	assert.True(t, err.HasRelated)
}

func TestUnifyErrorSharesVariableNames(t *testing.T) {
	vt := typesystem.NewVarTable(typesystem.NewIDGen())
	a := vt.Fresh(1)
	err := NewUnifyError(ErrCouldNotUnify, token.Empty(),
		typesystem.Fuzzer(a), typesystem.List(a), FuzzerAnnotationMismatch)

	assert.Equal(t,
		"error[T201]: type mismatch: expected fn(PRNG) -> Option<(PRNG, a)>, got List<a> "+
			"(the type produced by the fuzzer must match the argument annotation)",
		err.Error())
}

func TestWarningMessages(t *testing.T) {
	w := Warning{Kind: WarnUnusedVariable, Name: "datum"}
	assert.Equal(t, "warning[W001]: unused variable \"datum\"", w.String())

	todo := Warning{Kind: WarnTodo, Type: typesystem.Bool()}
	assert.Equal(t, "todo left in code, expected type Bool", todo.Message())
}
