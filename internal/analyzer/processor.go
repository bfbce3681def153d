package analyzer

import (
	"go.uber.org/zap"

	"github.com/funvibe/vellum/internal/diagnostics"
	"github.com/funvibe/vellum/internal/pipeline"
	"github.com/funvibe/vellum/internal/typesystem"
)

// SemanticAnalyzerProcessor checks the decoded module of a pipeline.
type SemanticAnalyzerProcessor struct{}

func (sap *SemanticAnalyzerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Module == nil || ctx.Failed() {
		return ctx
	}
	if ctx.IDs == nil {
		ctx.IDs = typesystem.NewIDGen()
	}

	var warnings []diagnostics.Warning
	typed, err := Infer(ctx.Module, ctx.IDs, ctx.Importable, Options{
		Package: ctx.Package,
		Tracing: ctx.Tracing,
		Logger:  ctx.Logger,
	}, &warnings)
	if err != nil {
		if derr, ok := err.(*diagnostics.DiagnosticError); ok {
			derr.File = ctx.FilePath
		}
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}

	for i := range warnings {
		warnings[i].File = ctx.FilePath
	}
	ctx.Definitions = typed.Definitions
	ctx.TypeInfo = typed.TypeInfo
	ctx.Warnings = append(ctx.Warnings, warnings...)
	if ctx.Logger != nil {
		ctx.Logger.Debug("module checked",
			zap.String("module", typed.Name),
			zap.Int("warnings", len(warnings)))
	}
	return ctx
}
