package token

import (
	"fmt"
	"sort"
)

// Span is a half-open byte range [Start, End) in the source of a module.
type Span struct {
	Start int
	End   int
}

// Empty is the zero span, used for synthesized nodes.
func Empty() Span { return Span{} }

func (s Span) IsEmpty() bool { return s.Start == 0 && s.End == 0 }

// Contains reports whether the byte offset falls inside the span.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// Map returns a new span computed from the start and end of s.
func (s Span) Map(f func(start, end int) (int, int)) Span {
	start, end := f(s.Start, s.End)
	return Span{Start: start, End: end}
}

// Merge returns the smallest span covering both s and other.
func (s Span) Merge(other Span) Span {
	if s.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return s
	}
	return Span{Start: min(s.Start, other.Start), End: max(s.End, other.End)}
}

func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}

// Position is a 1-based line and column.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// LineIndex converts byte offsets into line/column positions.
type LineIndex struct {
	starts []int
}

func NewLineIndex(src []byte) *LineIndex {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{starts: starts}
}

// Offset returns the byte offset of a 1-based line and column.
func (li *LineIndex) Offset(line, column int) int {
	if line < 1 || len(li.starts) == 0 {
		return 0
	}
	if line > len(li.starts) {
		line = len(li.starts)
	}
	return li.starts[line-1] + column - 1
}

func (li *LineIndex) Position(offset int) Position {
	line := sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset }) - 1
	if line < 0 {
		line = 0
	}
	return Position{Line: line + 1, Column: offset - li.starts[line] + 1}
}
