package pattern

import (
	"fmt"
	"regexp"

	"github.com/socraticlabs/elenchus/internal/segment"
)

// Default thresholds for the built-in patterns. Below these sizes, short
// illustrative snippets are tolerated.
const (
	DefaultCodeBlockLines = 8
	DefaultProseSentences = 3
)

// Thresholds tune how tolerant the built-in patterns are.
type Thresholds struct {
	CodeBlockLines int // code blocks up to this many lines pass as snippets
	ProseSentences int // prose/code shorter than this is not "a solution"
}

func (t Thresholds) withDefaults() Thresholds {
	if t.CodeBlockLines <= 0 {
		t.CodeBlockLines = DefaultCodeBlockLines
	}
	if t.ProseSentences <= 0 {
		t.ProseSentences = DefaultProseSentences
	}
	return t
}

// All detection regexes for the built-in patterns live here. The detection is
// deliberately rule-based: paraphrased violations that dodge these phrasings
// are known false negatives.
var (
	decisiveStartRe = regexp.MustCompile(
		`(?i)(?:^|[.!?:]\s+)(?:use|add|implement|install|create|switch to|go with|pick|choose|stick with)\s+\S`,
	)
	decisivePhraseRe = regexp.MustCompile(
		`(?i)\b(?:you should|you need to|you must|i recommend|i'd go with|the best (?:approach|option|way) is)\b`,
	)
	announceRe = regexp.MustCompile(
		`(?i)\bhere'?s the (?:complete|full|final|finished)\b|\b(?:complete|full|finished) implementation\b`,
	)
	securityCodeRe = regexp.MustCompile(
		`(?i)\b(?:password|passwd|secret|token|api[_-]?key|auth|login|session|cookie|jwt|bcrypt|sha256|sha512|md5|crypt|sql|sanitiz|escape|csrf|xss|tls|ssl|certificate|privilege)`,
	)
	securityQuestionRe = regexp.MustCompile(
		`(?i)\b(?:secur|threat|attack|auth|password|token|encrypt|inject|sanitiz|validat|risk|privilege|permission)`,
	)
	testCodeRe = regexp.MustCompile(
		`func Test\w+\s*\(|\b(?:it|describe|test)\(\s*['"]|@Test\b|\bdef test_\w+\s*\(|\bassert\w*\(|\bexpect\(`,
	)
	sentenceEndRe = regexp.MustCompile(`[.!?](?:\s|$)`)
)

// Builtin returns the built-in pattern library with the given thresholds
// applied. Registration order is fixed; it determines reported match order.
func Builtin(t Thresholds) *Library {
	t = t.withDefaults()
	lib, err := NewLibrary(
		unpromptedCodeBlock(t),
		completionAnnouncement(),
		noGuidingQuestion(t),
		decisiveDirective(),
		securitySensitiveCode(),
		authoredTests(),
	)
	if err != nil {
		// the built-in set is validated by its own tests; an error here is a
		// programming bug, not an input condition
		panic(err)
	}
	return lib
}

// unpromptedCodeBlock flags fenced code blocks above the line threshold whose
// preceding non-blank segment is not a question.
func unpromptedCodeBlock(t Thresholds) Pattern {
	return Pattern{
		ID:       "unprompted-code-block",
		Category: CategoryFinishedCode,
		Severity: SeverityHigh,
		Detect: func(segs []segment.Segment) []Match {
			var matches []Match
			for i, s := range segs {
				if s.Kind != segment.KindCodeBlock {
					continue
				}
				lines := s.CodeLineCount()
				if lines <= t.CodeBlockLines {
					continue
				}
				if prev, ok := precedingNonBlank(segs, i); ok && prev.Kind == segment.KindQuestion {
					continue
				}
				matches = append(matches, Match{
					PatternID:    "unprompted-code-block",
					Category:     CategoryFinishedCode,
					Severity:     SeverityHigh,
					SegmentIndex: i,
					Explanation:  fmt.Sprintf("fenced code block of %d lines (threshold %d) with no preceding question", lines, t.CodeBlockLines),
				})
			}
			return matches
		},
	}
}

// completionAnnouncement flags prose announcing a complete implementation
// immediately before a code block of any size.
func completionAnnouncement() Pattern {
	return Pattern{
		ID:       "completion-announcement",
		Category: CategoryFinishedCode,
		Severity: SeverityMedium,
		Detect: func(segs []segment.Segment) []Match {
			var matches []Match
			for i, s := range segs {
				if s.Kind != segment.KindProse || !announceRe.MatchString(s.Text) {
					continue
				}
				next, ok := followingNonBlank(segs, i)
				if !ok || next.Kind != segment.KindCodeBlock {
					continue
				}
				matches = append(matches, Match{
					PatternID:    "completion-announcement",
					Category:     CategoryFinishedCode,
					Severity:     SeverityMedium,
					SegmentIndex: i,
					Explanation:  "prose announces a complete implementation followed by a code block",
				})
			}
			return matches
		},
	}
}

// noGuidingQuestion flags responses with no question at all that still carry
// a substantial prose or code segment.
func noGuidingQuestion(t Thresholds) Pattern {
	return Pattern{
		ID:       "no-guiding-question",
		Category: CategoryNoReasoning,
		Severity: SeverityMedium,
		Detect: func(segs []segment.Segment) []Match {
			for _, s := range segs {
				if s.Kind == segment.KindQuestion {
					return nil
				}
			}
			for i, s := range segs {
				substantial := false
				switch s.Kind {
				case segment.KindProse:
					substantial = sentenceCount(s.Text) > t.ProseSentences
				case segment.KindCodeBlock:
					substantial = s.CodeLineCount() > t.ProseSentences
				}
				if !substantial {
					continue
				}
				return []Match{{
					PatternID:    "no-guiding-question",
					Category:     CategoryNoReasoning,
					Severity:     SeverityMedium,
					SegmentIndex: i,
					Explanation:  "substantial answer with no guiding question anywhere in the response",
				}}
			}
			return nil
		},
	}
}

// decisiveDirective flags prose that makes a decision for the developer
// without a question within the next two segments.
func decisiveDirective() Pattern {
	return Pattern{
		ID:       "decisive-directive",
		Category: CategoryDecidedForUser,
		Severity: SeverityMedium,
		Detect: func(segs []segment.Segment) []Match {
			var matches []Match
			for i, s := range segs {
				if s.Kind != segment.KindProse {
					continue
				}
				if !decisiveStartRe.MatchString(s.Text) && !decisivePhraseRe.MatchString(s.Text) {
					continue
				}
				if questionWithin(segs, i+1, 2) {
					continue
				}
				matches = append(matches, Match{
					PatternID:    "decisive-directive",
					Category:     CategoryDecidedForUser,
					Severity:     SeverityMedium,
					SegmentIndex: i,
					Explanation:  "decisive imperative phrasing with no follow-up question within the next 2 segments",
				})
			}
			return matches
		},
	}
}

// securitySensitiveCode flags code touching security-sensitive APIs when no
// question in the response raises the security topic.
func securitySensitiveCode() Pattern {
	return Pattern{
		ID:       "security-sensitive-code",
		Category: CategorySkippedSecurity,
		Severity: SeverityHigh,
		Detect: func(segs []segment.Segment) []Match {
			for _, s := range segs {
				if s.Kind == segment.KindQuestion && securityQuestionRe.MatchString(s.Text) {
					return nil
				}
			}
			var matches []Match
			for i, s := range segs {
				if s.Kind != segment.KindCodeBlock || !securityCodeRe.MatchString(s.CodeBody()) {
					continue
				}
				matches = append(matches, Match{
					PatternID:    "security-sensitive-code",
					Category:     CategorySkippedSecurity,
					Severity:     SeverityHigh,
					SegmentIndex: i,
					Explanation:  "code touches security-sensitive APIs but no question raises the security topic",
				})
			}
			return matches
		},
	}
}

// authoredTests flags code blocks that contain test code.
func authoredTests() Pattern {
	return Pattern{
		ID:       "authored-tests",
		Category: CategoryWroteTests,
		Severity: SeverityMedium,
		Detect: func(segs []segment.Segment) []Match {
			var matches []Match
			for i, s := range segs {
				if s.Kind != segment.KindCodeBlock || !testCodeRe.MatchString(s.CodeBody()) {
					continue
				}
				matches = append(matches, Match{
					PatternID:    "authored-tests",
					Category:     CategoryWroteTests,
					Severity:     SeverityMedium,
					SegmentIndex: i,
					Explanation:  "code block contains finished test code",
				})
			}
			return matches
		},
	}
}

func precedingNonBlank(segs []segment.Segment, i int) (segment.Segment, bool) {
	for j := i - 1; j >= 0; j-- {
		if !segs[j].IsBlank() {
			return segs[j], true
		}
	}
	return segment.Segment{}, false
}

func followingNonBlank(segs []segment.Segment, i int) (segment.Segment, bool) {
	for j := i + 1; j < len(segs); j++ {
		if !segs[j].IsBlank() {
			return segs[j], true
		}
	}
	return segment.Segment{}, false
}

// questionWithin reports whether one of the next n non-blank segments
// starting at index i is a question.
func questionWithin(segs []segment.Segment, i, n int) bool {
	seen := 0
	for j := i; j < len(segs) && seen < n; j++ {
		if segs[j].IsBlank() {
			continue
		}
		if segs[j].Kind == segment.KindQuestion {
			return true
		}
		seen++
	}
	return false
}

func sentenceCount(text string) int {
	return len(sentenceEndRe.FindAllString(text, -1))
}
