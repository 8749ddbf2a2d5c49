package engine

import (
	"fmt"

	"github.com/socraticlabs/elenchus/internal/config"
	"github.com/socraticlabs/elenchus/internal/pattern"
)

// OptionsFromConfig converts file-level configuration plus an optional rule
// bundle into engine options. Bundle question categories are validated here
// so a library/bank mismatch fails at startup.
func OptionsFromConfig(ec config.EngineConfig, bundle *pattern.Bundle) (Options, error) {
	opts := Options{
		CodeBlockLineThreshold: ec.CodeBlockLineThreshold,
		ProseSentenceThreshold: ec.ProseSentenceThreshold,
		MaxInputLength:         ec.MaxInputLength,
	}
	if bundle == nil {
		return opts, nil
	}

	extra, err := bundle.Compile()
	if err != nil {
		return Options{}, fmt.Errorf("compile rule bundle: %w", err)
	}
	opts.ExtraPatterns = extra

	if len(bundle.Questions) > 0 {
		extraQuestions := make(map[pattern.Category][]string, len(bundle.Questions))
		for name, qs := range bundle.Questions {
			c := pattern.Category(name)
			if !pattern.KnownCategory(c) {
				return Options{}, fmt.Errorf("rule bundle questions reference unknown category %q", name)
			}
			extraQuestions[c] = qs
		}
		opts.ExtraQuestions = extraQuestions
	}

	return opts, nil
}
