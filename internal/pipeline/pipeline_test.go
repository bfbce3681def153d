package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordStage struct {
	name string
	seen *[]string
	fail bool
}

func (r recordStage) Process(ctx *PipelineContext) *PipelineContext {
	*r.seen = append(*r.seen, r.name)
	if r.fail {
		ctx.Errors = append(ctx.Errors, errors.New(r.name))
	}
	return ctx
}

func TestRunVisitsEveryStage(t *testing.T) {
	var seen []string
	p := New(
		recordStage{name: "decode", seen: &seen, fail: true},
		recordStage{name: "check", seen: &seen},
	)
	ctx := p.Run(NewContext("a.vl.yaml", nil))

	assert.Equal(t, []string{"decode", "check"}, seen)
	assert.True(t, ctx.Failed())
	assert.Len(t, ctx.Errors, 1)
}
