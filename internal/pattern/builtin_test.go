package pattern

import (
	"reflect"
	"strings"
	"testing"

	"github.com/socraticlabs/elenchus/internal/segment"
)

func evaluate(t *testing.T, th Thresholds, input string) []Match {
	t.Helper()
	segs, err := segment.Tokenize(input)
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	return NewEvaluator(Builtin(th)).Evaluate(segs)
}

func categoriesOf(matches []Match) map[Category]int {
	out := make(map[Category]int)
	for _, m := range matches {
		out[m.Category]++
	}
	return out
}

func codeBlock(lines int) string {
	var b strings.Builder
	b.WriteString("```\n")
	for i := 1; i <= lines; i++ {
		b.WriteString("line of code\n")
	}
	b.WriteString("```\n")
	return b.String()
}

func TestUnpromptedCodeBlock(t *testing.T) {
	cases := []struct {
		name  string
		input string
		hit   bool
	}{
		{
			name:  "long block without preceding question",
			input: "Some context first.\n" + codeBlock(9),
			hit:   true,
		},
		{
			name:  "long block opens the response",
			input: codeBlock(9),
			hit:   true,
		},
		{
			name:  "long block preceded by question",
			input: "Shall we look at a sketch together?\n" + codeBlock(9),
			hit:   false,
		},
		{
			name:  "question separated by blank line still counts",
			input: "Shall we look at a sketch together?\n\n" + codeBlock(9),
			hit:   false,
		},
		{
			name:  "short snippet is tolerated",
			input: "Some context first.\n" + codeBlock(8),
			hit:   false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			matches := evaluate(t, Thresholds{}, tc.input)
			got := false
			for _, m := range matches {
				if m.PatternID == "unprompted-code-block" {
					got = true
				}
			}
			if got != tc.hit {
				t.Errorf("unprompted-code-block hit = %v, want %v (matches=%+v)", got, tc.hit, matches)
			}
		})
	}
}

func TestCompletionAnnouncement(t *testing.T) {
	input := "Here's the complete implementation:\n" + codeBlock(3)
	matches := evaluate(t, Thresholds{}, input)
	found := false
	for _, m := range matches {
		if m.PatternID == "completion-announcement" && m.Category == CategoryFinishedCode {
			found = true
			if m.SegmentIndex != 0 {
				t.Errorf("announcement segment index = %d, want 0", m.SegmentIndex)
			}
		}
	}
	if !found {
		t.Fatalf("completion-announcement not found in %+v", matches)
	}
}

func TestNoGuidingQuestion(t *testing.T) {
	cases := []struct {
		name  string
		input string
		hit   bool
	}{
		{
			name:  "long prose with no question",
			input: "First sentence here. Second one follows. A third one too. And a fourth to finish.\n",
			hit:   true,
		},
		{
			name:  "short prose with no question",
			input: "Just a remark. Nothing more.\n",
			hit:   false,
		},
		{
			name:  "long prose with a question",
			input: "First sentence here. Second one follows. A third one too. And a fourth to finish.\nWhat would you change?\n",
			hit:   false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			matches := evaluate(t, Thresholds{}, tc.input)
			got := categoriesOf(matches)[CategoryNoReasoning] > 0
			if got != tc.hit {
				t.Errorf("solved-without-reasoning hit = %v, want %v (matches=%+v)", got, tc.hit, matches)
			}
		})
	}
}

func TestDecisiveDirective(t *testing.T) {
	cases := []struct {
		name  string
		input string
		hit   bool
	}{
		{
			name:  "imperative choice with no follow-up",
			input: "Use the Repository pattern with dependency injection.",
			hit:   true,
		},
		{
			name:  "you should phrasing",
			input: "You should switch the whole service to gRPC.\n",
			hit:   true,
		},
		{
			name:  "imperative followed by question within two segments",
			input: "Use PostgreSQL for this.\nWhat constraints pushed you away from SQLite?\n",
			hit:   false,
		},
		{
			name:  "neutral prose",
			input: "There are several storage options worth weighing.\nWhich have you already ruled out?\n",
			hit:   false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			matches := evaluate(t, Thresholds{}, tc.input)
			got := categoriesOf(matches)[CategoryDecidedForUser] > 0
			if got != tc.hit {
				t.Errorf("made-decision-for-user hit = %v, want %v (matches=%+v)", got, tc.hit, matches)
			}
		})
	}
}

func TestSecuritySensitiveCode(t *testing.T) {
	secureCode := "What is this for?\n```\npassword := r.FormValue(\"password\")\n```\n"
	matches := evaluate(t, Thresholds{}, secureCode)
	if categoriesOf(matches)[CategorySkippedSecurity] == 0 {
		t.Errorf("expected skipped-security-question for password-handling code, got %+v", matches)
	}

	withSecurityQuestion := "What's your threat model for the login flow?\n```\npassword := r.FormValue(\"password\")\n```\n"
	matches = evaluate(t, Thresholds{}, withSecurityQuestion)
	if categoriesOf(matches)[CategorySkippedSecurity] != 0 {
		t.Errorf("security question should suppress the match, got %+v", matches)
	}
}

func TestAuthoredTests(t *testing.T) {
	input := "How would you verify it?\n```\nfunc TestSum(t *testing.T) {\n\tgot := Sum(1, 2)\n}\n```\n"
	matches := evaluate(t, Thresholds{}, input)
	if categoriesOf(matches)[CategoryWroteTests] == 0 {
		t.Errorf("expected wrote-tests-for-user, got %+v", matches)
	}
}

func TestQuestionOnlyResponseIsClean(t *testing.T) {
	matches := evaluate(t, Thresholds{}, "What's your threat model? What attacks concern you most?")
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %+v", matches)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	input := "Here's the complete implementation:\n" + codeBlock(12)
	first := evaluate(t, Thresholds{}, input)
	second := evaluate(t, Thresholds{}, input)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("evaluation not deterministic:\n first=%+v\nsecond=%+v", first, second)
	}
	if len(first) == 0 {
		t.Fatal("expected matches for the announcement + long code block")
	}
}

func TestThresholdOverrides(t *testing.T) {
	input := "Some context notes.\n" + codeBlock(9) + "What do you think?\n"

	strict := evaluate(t, Thresholds{}, input)
	if categoriesOf(strict)[CategoryFinishedCode] == 0 {
		t.Errorf("default threshold should flag a 9-line block, got %+v", strict)
	}

	lenient := evaluate(t, Thresholds{CodeBlockLines: 20}, input)
	if len(lenient) != 0 {
		t.Errorf("lenient threshold should tolerate the block, got %+v", lenient)
	}
}
