package pipeline

import (
	"go.uber.org/zap"

	"github.com/funvibe/vellum/internal/ast"
	"github.com/funvibe/vellum/internal/config"
	"github.com/funvibe/vellum/internal/diagnostics"
	"github.com/funvibe/vellum/internal/symbols"
	"github.com/funvibe/vellum/internal/typesystem"
)

// Processor is one stage of a pipeline.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// PipelineContext carries one module through the stages: the interchange
// file is decoded into Module, which is then checked in place.
type PipelineContext struct {
	FilePath string
	Source   []byte

	Module *ast.Module

	// Inputs of the check.
	IDs        *typesystem.IDGen
	Importable map[string]*symbols.TypeInfo
	Package    string
	Tracing    config.Tracing
	Logger     *zap.Logger

	// Outputs of the check. Definitions carry their inferred types.
	Definitions []ast.Definition
	TypeInfo    *symbols.TypeInfo
	Warnings    []diagnostics.Warning
	Errors      []error
}

func NewContext(path string, source []byte) *PipelineContext {
	return &PipelineContext{
		FilePath: path,
		Source:   source,
		Tracing:  config.TracingVerbose,
		Logger:   zap.NewNop(),
	}
}

// Failed reports whether an earlier stage recorded an error.
func (ctx *PipelineContext) Failed() bool {
	return len(ctx.Errors) > 0
}
