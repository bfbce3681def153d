package modfile

import (
	"go.uber.org/zap"

	"github.com/funvibe/vellum/internal/pipeline"
)

// DecodeProcessor fills ctx.Module from ctx.Source.
type DecodeProcessor struct{}

func (dp *DecodeProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Module != nil {
		return ctx
	}
	module, err := Decode(ctx.FilePath, ctx.Source)
	if err != nil {
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}
	ctx.Module = module
	if ctx.Logger != nil {
		ctx.Logger.Debug("module decoded",
			zap.String("file", ctx.FilePath),
			zap.String("module", module.Name),
			zap.Int("definitions", len(module.Definitions)))
	}
	return ctx
}
