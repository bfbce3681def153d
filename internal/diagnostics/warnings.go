package diagnostics

import (
	"fmt"

	"github.com/funvibe/vellum/internal/token"
	"github.com/funvibe/vellum/internal/typesystem"
)

// WarningKind identifies a non-fatal finding.
type WarningKind string

const (
	WarnUnusedVariable              WarningKind = "W001"
	WarnUnusedPrivateFunction       WarningKind = "W002"
	WarnUnusedPrivateModuleConstant WarningKind = "W003"
	WarnUnusedType                  WarningKind = "W004"
	WarnUnusedConstructor           WarningKind = "W005"
	WarnUnusedImportedModule        WarningKind = "W006"
	WarnUnusedImportedValue         WarningKind = "W007"
	WarnTodo                        WarningKind = "W008"
)

var warningTemplates = map[WarningKind]string{
	WarnUnusedVariable:              "unused variable %q",
	WarnUnusedPrivateFunction:       "unused private function %q",
	WarnUnusedPrivateModuleConstant: "unused private constant %q",
	WarnUnusedType:                  "unused type %q",
	WarnUnusedConstructor:           "unused constructor %q",
	WarnUnusedImportedModule:        "unused imported module %q",
	WarnUnusedImportedValue:         "unused imported value %q",
	WarnTodo:                        "todo left in code, expected type %s",
}

type Warning struct {
	Kind WarningKind
	Span token.Span
	Name string
	// Imported is set for unused types and constructors brought in by a use.
	Imported bool
	// Type is the expected type at a todo.
	Type typesystem.Type
	File string
}

func (w Warning) Message() string {
	tmpl, ok := warningTemplates[w.Kind]
	if !ok {
		return string(w.Kind)
	}
	if w.Kind == WarnTodo {
		return fmt.Sprintf(tmpl, typesystem.NewPrinter(nil).Print(w.Type))
	}
	return fmt.Sprintf(tmpl, w.Name)
}

func (w Warning) String() string {
	return fmt.Sprintf("warning[%s]: %s", w.Kind, w.Message())
}
