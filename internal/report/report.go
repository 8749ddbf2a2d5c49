package report

import (
	"fmt"

	"github.com/socraticlabs/elenchus/internal/pattern"
)

// Verdict is the overall outcome of a classification.
type Verdict string

const (
	VerdictCompliant    Verdict = "compliant"
	VerdictNonCompliant Verdict = "non_compliant"
)

// Report is the aggregate outcome of one classification call. CategoryCounts
// always carries every declared category, zero-filled, so the report shape is
// stable across calls for the same ruleset.
type Report struct {
	Verdict            Verdict                  `json:"verdict"`
	Matches            []pattern.Match          `json:"matches"`
	CategoryCounts     map[pattern.Category]int `json:"category_counts"`
	SuggestedQuestions []string                 `json:"suggested_questions"`
}

// UnknownCategoryError reports a match category that has no question bank
// entry. This is a configuration-time defect: libraries and banks must be
// validated against each other before any classification runs.
type UnknownCategoryError struct {
	Category pattern.Category
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("no question bank entry for category %q", e.Category)
}

// Builder aggregates matches into reports using a question bank.
type Builder struct {
	bank QuestionBank
}

// NewBuilder wraps a question bank. The bank is treated as immutable after
// construction.
func NewBuilder(bank QuestionBank) *Builder {
	return &Builder{bank: bank}
}

// Build aggregates matches into a report. The match order is preserved as
// given (source order). Suggested questions are appended per distinct
// category in first-occurrence order and deduplicated.
func (b *Builder) Build(matches []pattern.Match) (*Report, error) {
	counts := make(map[pattern.Category]int, len(pattern.Categories()))
	for _, c := range pattern.Categories() {
		counts[c] = 0
	}

	var questions []string
	seenCategory := make(map[pattern.Category]struct{})
	seenQuestion := make(map[string]struct{})

	ordered := make([]pattern.Match, len(matches))
	copy(ordered, matches)

	for _, m := range ordered {
		counts[m.Category]++
		if _, ok := seenCategory[m.Category]; ok {
			continue
		}
		seenCategory[m.Category] = struct{}{}

		qs, ok := b.bank[m.Category]
		if !ok {
			return nil, &UnknownCategoryError{Category: m.Category}
		}
		for _, q := range qs {
			if _, dup := seenQuestion[q]; dup {
				continue
			}
			seenQuestion[q] = struct{}{}
			questions = append(questions, q)
		}
	}

	verdict := VerdictCompliant
	if len(ordered) > 0 {
		verdict = VerdictNonCompliant
	}

	return &Report{
		Verdict:            verdict,
		Matches:            ordered,
		CategoryCounts:     counts,
		SuggestedQuestions: questions,
	}, nil
}
