package report

import (
	"errors"
	"testing"

	"github.com/socraticlabs/elenchus/internal/pattern"
)

func TestBuildEmptyMatches(t *testing.T) {
	rep, err := NewBuilder(DefaultQuestionBank()).Build(nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if rep.Verdict != VerdictCompliant {
		t.Errorf("verdict = %s, want compliant", rep.Verdict)
	}
	if len(rep.Matches) != 0 {
		t.Errorf("matches = %+v, want empty", rep.Matches)
	}
	if len(rep.SuggestedQuestions) != 0 {
		t.Errorf("suggested questions = %v, want empty", rep.SuggestedQuestions)
	}
	for _, c := range pattern.Categories() {
		n, ok := rep.CategoryCounts[c]
		if !ok {
			t.Errorf("category %s missing from counts", c)
		}
		if n != 0 {
			t.Errorf("category %s count = %d, want 0", c, n)
		}
	}
	if len(rep.CategoryCounts) != len(pattern.Categories()) {
		t.Errorf("counts carry %d categories, want %d", len(rep.CategoryCounts), len(pattern.Categories()))
	}
}

func TestBuildAggregation(t *testing.T) {
	matches := []pattern.Match{
		{PatternID: "a", Category: pattern.CategoryDecidedForUser, Severity: pattern.SeverityMedium, SegmentIndex: 0},
		{PatternID: "b", Category: pattern.CategoryFinishedCode, Severity: pattern.SeverityHigh, SegmentIndex: 2},
		{PatternID: "c", Category: pattern.CategoryDecidedForUser, Severity: pattern.SeverityMedium, SegmentIndex: 4},
	}

	bank := DefaultQuestionBank()
	rep, err := NewBuilder(bank).Build(matches)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if rep.Verdict != VerdictNonCompliant {
		t.Errorf("verdict = %s, want non_compliant", rep.Verdict)
	}
	if len(rep.Matches) != 3 || rep.Matches[0].PatternID != "a" || rep.Matches[2].PatternID != "c" {
		t.Errorf("match order not preserved: %+v", rep.Matches)
	}
	if rep.CategoryCounts[pattern.CategoryDecidedForUser] != 2 {
		t.Errorf("decided count = %d, want 2", rep.CategoryCounts[pattern.CategoryDecidedForUser])
	}
	if rep.CategoryCounts[pattern.CategoryFinishedCode] != 1 {
		t.Errorf("finished count = %d, want 1", rep.CategoryCounts[pattern.CategoryFinishedCode])
	}
	if rep.CategoryCounts[pattern.CategoryWroteTests] != 0 {
		t.Errorf("unrelated categories must stay zero-filled")
	}

	// first-occurrence category order: decided-for-user questions first
	wantFirst := bank[pattern.CategoryDecidedForUser][0]
	if len(rep.SuggestedQuestions) == 0 || rep.SuggestedQuestions[0] != wantFirst {
		t.Errorf("suggested questions = %v, want %q first", rep.SuggestedQuestions, wantFirst)
	}
	wantLen := len(bank[pattern.CategoryDecidedForUser]) + len(bank[pattern.CategoryFinishedCode])
	if len(rep.SuggestedQuestions) != wantLen {
		t.Errorf("suggested questions len = %d, want %d", len(rep.SuggestedQuestions), wantLen)
	}
}

func TestBuildDeduplicatesQuestions(t *testing.T) {
	shared := "What trade-off are you accepting?"
	bank := QuestionBank{
		pattern.CategoryFinishedCode:   {shared},
		pattern.CategoryDecidedForUser: {shared, "What else did you weigh?"},
	}
	matches := []pattern.Match{
		{PatternID: "a", Category: pattern.CategoryFinishedCode},
		{PatternID: "b", Category: pattern.CategoryDecidedForUser},
	}
	rep, err := NewBuilder(bank).Build(matches)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	want := []string{shared, "What else did you weigh?"}
	if len(rep.SuggestedQuestions) != len(want) {
		t.Fatalf("suggested questions = %v, want %v", rep.SuggestedQuestions, want)
	}
	for i := range want {
		if rep.SuggestedQuestions[i] != want[i] {
			t.Errorf("question %d = %q, want %q", i, rep.SuggestedQuestions[i], want[i])
		}
	}
}

func TestBuildUnknownCategory(t *testing.T) {
	bank := QuestionBank{
		pattern.CategoryFinishedCode: {"q"},
	}
	matches := []pattern.Match{
		{PatternID: "a", Category: pattern.CategoryOther},
	}
	_, err := NewBuilder(bank).Build(matches)
	if err == nil {
		t.Fatal("expected UnknownCategoryError, got nil")
	}
	var unknown *UnknownCategoryError
	if !errors.As(err, &unknown) {
		t.Fatalf("error %T is not *UnknownCategoryError", err)
	}
	if unknown.Category != pattern.CategoryOther {
		t.Errorf("error category = %s, want other", unknown.Category)
	}
}

func TestQuestionBankValidate(t *testing.T) {
	if err := DefaultQuestionBank().Validate(pattern.Categories()); err != nil {
		t.Errorf("default bank should cover every category: %v", err)
	}

	partial := QuestionBank{pattern.CategoryFinishedCode: {"q"}}
	err := partial.Validate(pattern.Categories())
	var unknown *UnknownCategoryError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected *UnknownCategoryError, got %v", err)
	}
}

func TestQuestionBankMerge(t *testing.T) {
	base := DefaultQuestionBank()
	before := len(base[pattern.CategoryOther])
	merged := base.Merge(map[pattern.Category][]string{
		pattern.CategoryOther: {"What would falsify this?"},
	})
	if len(merged[pattern.CategoryOther]) != before+1 {
		t.Errorf("merged other count = %d, want %d", len(merged[pattern.CategoryOther]), before+1)
	}
	if len(base[pattern.CategoryOther]) != before {
		t.Errorf("merge mutated the receiver")
	}
}
