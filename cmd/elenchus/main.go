package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/socraticlabs/elenchus/internal/audit"
	"github.com/socraticlabs/elenchus/internal/config"
	"github.com/socraticlabs/elenchus/internal/engine"
	"github.com/socraticlabs/elenchus/internal/pattern"
	"github.com/socraticlabs/elenchus/internal/report"
	"github.com/socraticlabs/elenchus/internal/segment"
)

// Exit codes: 0 compliant, 1 non-compliant, 2 any error.
const (
	exitCompliant    = 0
	exitNonCompliant = 1
	exitError        = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "elenchus.yaml", "Path to Elenchus config file")
	filePath := flag.String("file", "", "Response text file to classify (default: stdin)")
	codeLines := flag.Int("code-lines", 0, "Code block line threshold (overrides config)")
	proseSentences := flag.Int("prose-sentences", 0, "Prose sentence threshold (overrides config)")
	maxInput := flag.Int("max-input", 0, "Maximum input length in characters (overrides config)")
	bundlePath := flag.String("bundle", "", "Rule bundle file (overrides config)")
	jsonOut := flag.Bool("json", false, "Print the report as JSON")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "elenchus: failed to load config: %v\n", err)
		return exitError
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "elenchus: invalid config: %v\n", err)
		return exitError
	}

	ec := cfg.Engine
	if *codeLines > 0 {
		ec.CodeBlockLineThreshold = *codeLines
	}
	if *proseSentences > 0 {
		ec.ProseSentenceThreshold = *proseSentences
	}
	if *maxInput > 0 {
		ec.MaxInputLength = *maxInput
	}

	bundleFile := cfg.Bundle.Path
	if *bundlePath != "" {
		bundleFile = *bundlePath
	}
	var bundle *pattern.Bundle
	if bundleFile != "" {
		bundle, err = pattern.LoadBundle(bundleFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "elenchus: failed to load rule bundle: %v\n", err)
			return exitError
		}
	}

	opts, err := engine.OptionsFromConfig(ec, bundle)
	if err != nil {
		fmt.Fprintf(os.Stderr, "elenchus: %v\n", err)
		return exitError
	}
	eng, err := engine.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "elenchus: failed to build engine: %v\n", err)
		return exitError
	}

	text, err := readInput(*filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "elenchus: failed to read input: %v\n", err)
		return exitError
	}

	start := time.Now()
	rep, err := eng.Classify(text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "elenchus: %v\n", err)
		return exitError
	}

	emitAudit(cfg, rep, text, time.Since(start))

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			fmt.Fprintf(os.Stderr, "elenchus: failed to encode report: %v\n", err)
			return exitError
		}
	} else {
		printReport(os.Stdout, rep)
	}

	if rep.Verdict == report.VerdictNonCompliant {
		return exitNonCompliant
	}
	return exitCompliant
}

func readInput(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

func printReport(w io.Writer, rep *report.Report) {
	for _, m := range rep.Matches {
		fmt.Fprintf(w, "[%s] %s %s segment=%d: %s\n",
			m.Severity, m.Category, m.PatternID, m.SegmentIndex, m.Explanation)
	}

	fmt.Fprintf(w, "verdict: %s (%d matches)\n", rep.Verdict, len(rep.Matches))

	categories := make([]string, 0, len(rep.CategoryCounts))
	for c := range rep.CategoryCounts {
		categories = append(categories, string(c))
	}
	sort.Strings(categories)
	for _, c := range categories {
		fmt.Fprintf(w, "  %s: %d\n", c, rep.CategoryCounts[pattern.Category(c)])
	}

	if len(rep.SuggestedQuestions) > 0 {
		fmt.Fprintln(w, "suggested questions:")
		for _, q := range rep.SuggestedQuestions {
			fmt.Fprintf(w, "  - %s\n", q)
		}
	}
}

// emitAudit writes one audit event for a one-shot CLI run. The emitter drains
// on close so delivery finishes before the process exits.
func emitAudit(cfg *config.Config, rep *report.Report, text string, duration time.Duration) {
	if !cfg.Audit.Enabled {
		return
	}
	sinks := make([]audit.Sink, 0, 2)
	if cfg.Audit.File != "" {
		fs, err := audit.NewFileSink(cfg.Audit.File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "elenchus: audit sink unavailable: %v\n", err)
			return
		}
		sinks = append(sinks, fs)
	}
	if cfg.Audit.WebhookURL != "" {
		ws, err := audit.NewWebhookSink(cfg.Audit.WebhookURL, cfg.Audit.WebhookHeaders, 2*time.Second)
		if err != nil {
			fmt.Fprintf(os.Stderr, "elenchus: audit sink unavailable: %v\n", err)
			return
		}
		sinks = append(sinks, ws)
	}
	if len(sinks) == 0 {
		return
	}

	segs, err := segment.Tokenize(text)
	if err != nil {
		return
	}

	emitter := audit.NewEmitter(audit.EmitterConfig{QueueSize: 1, Workers: 1}, sinks)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	emitter.Emit(ctx, audit.BuildEvent(audit.BuildParams{
		Report:     rep,
		Segments:   segs,
		Source:     audit.SourceCLI,
		InputBytes: len(text),
		Duration:   duration,
	}))
	emitter.Close(ctx)
}
