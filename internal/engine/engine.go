// Package engine wires the tokenizer, pattern library, and report builder
// into a single classification entry point. An Engine is immutable after
// construction and safe for concurrent use: every call operates on its own
// input and produces its own report.
package engine

import (
	"fmt"

	"github.com/socraticlabs/elenchus/internal/pattern"
	"github.com/socraticlabs/elenchus/internal/report"
	"github.com/socraticlabs/elenchus/internal/segment"
)

// DefaultMaxInputLength bounds input size; oversized input is rejected rather
// than degrading unbounded.
const DefaultMaxInputLength = 100000

// Options configures one engine. The zero value applies defaults. Multiple
// engines with different options (stricter vs lenient rulesets) can coexist
// in one process.
type Options struct {
	CodeBlockLineThreshold int
	ProseSentenceThreshold int
	MaxInputLength         int

	// ExtraPatterns extends the built-in library, e.g. from a rule bundle.
	ExtraPatterns []pattern.Pattern

	// ExtraQuestions overlays additional question templates per category.
	ExtraQuestions map[pattern.Category][]string
}

// InputTooLargeError reports input exceeding the configured maximum length.
type InputTooLargeError struct {
	Length int
	Limit  int
}

func (e *InputTooLargeError) Error() string {
	return fmt.Sprintf("input of %d characters exceeds configured maximum of %d", e.Length, e.Limit)
}

// Engine classifies raw AI responses against the Socratic interaction policy.
type Engine struct {
	maxInput int
	eval     *pattern.Evaluator
	builder  *report.Builder
}

// New builds an engine. The library/question-bank correspondence is asserted
// here, once, so a mismatch is a construction error rather than a
// classification-time surprise.
func New(opts Options) (*Engine, error) {
	maxInput := opts.MaxInputLength
	if maxInput <= 0 {
		maxInput = DefaultMaxInputLength
	}

	base := pattern.Builtin(pattern.Thresholds{
		CodeBlockLines: opts.CodeBlockLineThreshold,
		ProseSentences: opts.ProseSentenceThreshold,
	})

	patterns := base.Patterns()
	patterns = append(patterns, opts.ExtraPatterns...)
	lib, err := pattern.NewLibrary(patterns...)
	if err != nil {
		return nil, fmt.Errorf("build pattern library: %w", err)
	}

	bank := report.DefaultQuestionBank()
	if len(opts.ExtraQuestions) > 0 {
		bank = bank.Merge(opts.ExtraQuestions)
	}
	if err := bank.Validate(lib.UsedCategories()); err != nil {
		return nil, err
	}

	return &Engine{
		maxInput: maxInput,
		eval:     pattern.NewEvaluator(lib),
		builder:  report.NewBuilder(bank),
	}, nil
}

// Classify tokenizes and evaluates one raw response, returning the full
// report. Any failure aborts the call; there is no partial report. Calling
// twice with identical input yields identical reports.
func (e *Engine) Classify(raw string) (*report.Report, error) {
	if len(raw) > e.maxInput {
		return nil, &InputTooLargeError{Length: len(raw), Limit: e.maxInput}
	}

	segs, err := segment.Tokenize(raw)
	if err != nil {
		return nil, err
	}

	matches := e.eval.Evaluate(segs)
	return e.builder.Build(matches)
}

// MaxInputLength returns the configured input bound.
func (e *Engine) MaxInputLength() int {
	return e.maxInput
}
