package segment

import (
	"fmt"
	"strings"
)

// Kind classifies a contiguous span of response text.
type Kind string

const (
	KindProse      Kind = "prose"
	KindCodeBlock  Kind = "code_block"
	KindQuestion   Kind = "question"
	KindBulletList Kind = "bullet_list"
	KindHeading    Kind = "heading"
)

// Segment is one classified span of a response. Text is the exact slice of the
// original input, line terminators included, so concatenating all segments in
// order reproduces the input byte for byte. Segments are never mutated after
// tokenization.
type Segment struct {
	Kind      Kind
	Text      string
	Position  int // byte offset of the first character in the original input
	LineStart int // 1-based, inclusive
	LineEnd   int // 1-based, inclusive
}

// IsBlank reports whether the segment contains only whitespace.
func (s Segment) IsBlank() bool {
	return strings.TrimSpace(s.Text) == ""
}

// CodeLineCount returns the number of lines between the fences of a code block
// segment. The fence lines themselves are not counted. Returns 0 for any other
// segment kind.
func (s Segment) CodeLineCount() int {
	if s.Kind != KindCodeBlock {
		return 0
	}
	n := s.LineEnd - s.LineStart - 1
	if n < 0 {
		return 0
	}
	return n
}

// CodeBody returns the text between the fences of a code block segment,
// fence lines excluded.
func (s Segment) CodeBody() string {
	if s.Kind != KindCodeBlock {
		return ""
	}
	lines := strings.SplitAfter(s.Text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) <= 2 {
		return ""
	}
	return strings.Join(lines[1:len(lines)-1], "")
}

// MalformedInputError reports unbalanced code fences in the input.
type MalformedInputError struct {
	Line int // line of the fence that was never closed
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input: code fence opened at line %d is never closed", e.Line)
}
