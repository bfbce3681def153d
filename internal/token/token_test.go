package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineIndexRoundTrip(t *testing.T) {
	src := []byte("name: a\nkind: lib\n  definitions: []\n")
	li := NewLineIndex(src)

	tests := []struct {
		line, col int
	}{
		{1, 1},
		{1, 7},
		{2, 1},
		{3, 3},
	}
	for _, tt := range tests {
		off := li.Offset(tt.line, tt.col)
		assert.Equal(t, Position{Line: tt.line, Column: tt.col}, li.Position(off))
	}
}

func TestSpanMerge(t *testing.T) {
	a := Span{Start: 4, End: 9}
	b := Span{Start: 2, End: 6}
	assert.Equal(t, Span{Start: 2, End: 9}, a.Merge(b))
	assert.Equal(t, a, Empty().Merge(a))
	assert.True(t, a.Contains(4))
	assert.False(t, a.Contains(9))
}
