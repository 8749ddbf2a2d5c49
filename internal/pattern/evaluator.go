package pattern

import (
	"github.com/socraticlabs/elenchus/internal/segment"
)

// Evaluator runs every pattern of a library against a segment sequence.
type Evaluator struct {
	lib *Library
}

// NewEvaluator wraps a library. The library is treated as immutable
// configuration; the evaluator keeps no other state, so a single evaluator is
// safe for concurrent use.
func NewEvaluator(lib *Library) *Evaluator {
	return &Evaluator{lib: lib}
}

// Evaluate runs each registered pattern in registration order and
// concatenates their matches. It never fails: a pattern that cannot apply to
// the given segments yields no matches. Two calls with identical input return
// identical, identically ordered match lists.
func (e *Evaluator) Evaluate(segs []segment.Segment) []Match {
	matches := []Match{}
	for _, p := range e.lib.patterns {
		matches = append(matches, p.Detect(segs)...)
	}
	return matches
}
