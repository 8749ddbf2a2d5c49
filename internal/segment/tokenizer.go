package segment

import (
	"regexp"
	"strings"
)

var (
	headingRe = regexp.MustCompile(`^ {0,3}#{1,6}\s`)
	bulletRe  = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s`)
)

// Tokenize splits raw response text into an ordered sequence of classified
// segments. It is a pure function of its input: no side effects, no shared
// state. The only failure mode is an unbalanced code fence, reported as
// *MalformedInputError; any other input tokenizes with best-effort
// classification.
func Tokenize(raw string) ([]Segment, error) {
	if raw == "" {
		return nil, nil
	}

	lines := strings.SplitAfter(raw, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	var (
		segments []Segment
		acc      strings.Builder
		accKind  Kind
		accPos   int
		accLine  int

		inFence   bool
		fenceLine int
	)

	offset := 0

	flush := func(endLine int) {
		if acc.Len() == 0 {
			return
		}
		segments = append(segments, Segment{
			Kind:      accKind,
			Text:      acc.String(),
			Position:  accPos,
			LineStart: accLine,
			LineEnd:   endLine,
		})
		acc.Reset()
	}

	for i, line := range lines {
		lineNo := i + 1

		if isFenceLine(line) {
			if !inFence {
				flush(lineNo - 1)
				inFence = true
				fenceLine = lineNo
				accKind = KindCodeBlock
				accPos = offset
				accLine = lineNo
				acc.WriteString(line)
			} else {
				acc.WriteString(line)
				inFence = false
				flush(lineNo)
			}
			offset += len(line)
			continue
		}

		if inFence {
			acc.WriteString(line)
			offset += len(line)
			continue
		}

		kind := classifyLine(line)
		switch kind {
		case KindQuestion, KindHeading:
			// single-line segments, never merged
			flush(lineNo - 1)
			segments = append(segments, Segment{
				Kind:      kind,
				Text:      line,
				Position:  offset,
				LineStart: lineNo,
				LineEnd:   lineNo,
			})
		default:
			// prose and bullet lines merge with a preceding line of the
			// same kind
			if acc.Len() > 0 && accKind != kind {
				flush(lineNo - 1)
			}
			if acc.Len() == 0 {
				accKind = kind
				accPos = offset
				accLine = lineNo
			}
			acc.WriteString(line)
		}
		offset += len(line)
	}

	if inFence {
		return nil, &MalformedInputError{Line: fenceLine}
	}
	flush(len(lines))

	return segments, nil
}

func isFenceLine(line string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " \t"), "```")
}

func classifyLine(line string) Kind {
	if headingRe.MatchString(line) {
		return KindHeading
	}
	if isQuestionLine(line) {
		return KindQuestion
	}
	if bulletRe.MatchString(line) {
		return KindBulletList
	}
	return KindProse
}

// isQuestionLine reports whether the line, with markdown list and emphasis
// markers stripped, ends in a question mark.
func isQuestionLine(line string) bool {
	s := strings.TrimSpace(line)
	s = bulletRe.ReplaceAllString(s, "")
	s = strings.Trim(s, "*_")
	s = strings.TrimSpace(s)
	return strings.HasSuffix(s, "?")
}
