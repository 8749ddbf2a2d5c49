package report

import (
	"github.com/socraticlabs/elenchus/internal/pattern"
)

// QuestionBank maps a violation category to suggested Socratic follow-up
// questions. Built once at startup and read-only afterwards.
type QuestionBank map[pattern.Category][]string

// DefaultQuestionBank covers every declared category.
func DefaultQuestionBank() QuestionBank {
	return QuestionBank{
		pattern.CategoryFinishedCode: {
			"What made you decide this approach is the simplest one?",
			"Which part of this would you want to write yourself first?",
			"What would break if the requirements changed next week?",
		},
		pattern.CategoryNoReasoning: {
			"What alternatives did you consider before settling on this?",
			"What trade-off are you accepting with this solution?",
		},
		pattern.CategoryDecidedForUser: {
			"What constraints led you toward this choice?",
			"How does this option compare to the one you had in mind?",
		},
		pattern.CategorySkippedSecurity: {
			"What's your threat model for this code path?",
			"Which inputs here could an attacker control?",
		},
		pattern.CategoryWroteTests: {
			"What behavior would you test first, and why that one?",
			"Which edge case worries you the most here?",
		},
		pattern.CategoryOther: {
			"What would you try next if this turned out wrong?",
		},
	}
}

// Merge overlays extra questions per category onto a copy of the bank.
// Neither receiver nor argument is mutated.
func (qb QuestionBank) Merge(extra map[pattern.Category][]string) QuestionBank {
	out := make(QuestionBank, len(qb))
	for c, qs := range qb {
		cp := make([]string, len(qs))
		copy(cp, qs)
		out[c] = cp
	}
	for c, qs := range extra {
		out[c] = append(out[c], qs...)
	}
	return out
}

// Validate checks that the bank holds at least one question for every given
// category. Returns *UnknownCategoryError for the first gap. Called at engine
// construction so a library/bank mismatch never surfaces mid-classification.
func (qb QuestionBank) Validate(categories []pattern.Category) error {
	for _, c := range categories {
		if len(qb[c]) == 0 {
			return &UnknownCategoryError{Category: c}
		}
	}
	return nil
}
