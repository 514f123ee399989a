package jtable

import (
	"bytes"
	"fmt"
)

// A Span describes a contiguous span of a source input.
type Span struct {
	Pos int // the start offset, 0-based
	End int // the end offset, 0-based (noninclusive)
}

func (s Span) String() string { return fmt.Sprintf("%d-%d", s.Pos, s.End) }

// A LineCol describes the line number and column offset of a location in
// source text.
type LineCol struct {
	Line   int // line number, 1-based
	Column int // byte offset of column in line, 0-based
}

func (lc LineCol) String() string { return fmt.Sprintf("%d:%d", lc.Line, lc.Column) }

// lineColAt reports the line and column of the given byte offset in src.
// Offsets past the end of src are clamped to the end.
func lineColAt(src []byte, offset int) LineCol {
	offset = min(max(offset, 0), len(src))
	head := src[:offset]
	line := bytes.Count(head, []byte("\n")) + 1
	col := offset
	if i := bytes.LastIndexByte(head, '\n'); i >= 0 {
		col = offset - i - 1
	}
	return LineCol{Line: line, Column: col}
}
