package pattern

import (
	"fmt"

	"github.com/socraticlabs/elenchus/internal/segment"
)

// Category names the kind of Socratic-policy violation a pattern detects.
type Category string

const (
	CategoryFinishedCode    Category = "gave-finished-code"
	CategoryNoReasoning     Category = "solved-without-reasoning"
	CategoryDecidedForUser  Category = "made-decision-for-user"
	CategorySkippedSecurity Category = "skipped-security-question"
	CategoryWroteTests      Category = "wrote-tests-for-user"
	CategoryOther           Category = "other"
)

// Categories returns every declared category in a stable order. Reports are
// zero-filled against this list so their shape is identical across calls.
func Categories() []Category {
	return []Category{
		CategoryFinishedCode,
		CategoryNoReasoning,
		CategoryDecidedForUser,
		CategorySkippedSecurity,
		CategoryWroteTests,
		CategoryOther,
	}
}

// KnownCategory reports whether c is one of the declared categories.
func KnownCategory(c Category) bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Severity grades a violation.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// KnownSeverity reports whether s is a declared severity.
func KnownSeverity(s Severity) bool {
	return s == SeverityLow || s == SeverityMedium || s == SeverityHigh
}

// Match records one pattern hit against a segment.
type Match struct {
	PatternID    string   `json:"pattern_id"`
	Category     Category `json:"category"`
	Severity     Severity `json:"severity"`
	SegmentIndex int      `json:"segment_index"`
	Explanation  string   `json:"explanation"`
}

// DetectFunc inspects the full segment sequence and returns zero or more
// matches in segment source order. Implementations must be pure: no shared
// mutable state, no time-varying inputs, segments treated as read-only.
type DetectFunc func(segments []segment.Segment) []Match

// Pattern is one declared detection rule.
type Pattern struct {
	ID       string
	Category Category
	Severity Severity
	Detect   DetectFunc
}

// Library is an ordered, immutable catalog of patterns. Evaluation runs
// patterns in registration order, which fixes the reported match order.
type Library struct {
	patterns []Pattern
}

// NewLibrary validates and registers the given patterns in order.
func NewLibrary(patterns ...Pattern) (*Library, error) {
	seen := make(map[string]struct{}, len(patterns))
	for _, p := range patterns {
		if p.ID == "" {
			return nil, fmt.Errorf("pattern with empty id")
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("duplicate pattern id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
		if !KnownCategory(p.Category) {
			return nil, fmt.Errorf("pattern %q has unknown category %q", p.ID, p.Category)
		}
		if !KnownSeverity(p.Severity) {
			return nil, fmt.Errorf("pattern %q has unknown severity %q", p.ID, p.Severity)
		}
		if p.Detect == nil {
			return nil, fmt.Errorf("pattern %q has no detect function", p.ID)
		}
	}
	lib := &Library{patterns: make([]Pattern, len(patterns))}
	copy(lib.patterns, patterns)
	return lib, nil
}

// Patterns returns the registered patterns in order.
func (l *Library) Patterns() []Pattern {
	out := make([]Pattern, len(l.patterns))
	copy(out, l.patterns)
	return out
}

// UsedCategories returns the distinct categories of the registered patterns
// in registration order.
func (l *Library) UsedCategories() []Category {
	seen := make(map[Category]struct{})
	var out []Category
	for _, p := range l.patterns {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}
