// Package audit emits one structured event per classification to the
// configured sinks. Events carry verdicts, category counts, and redacted
// evidence excerpts, never the full classified response.
package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/socraticlabs/elenchus/internal/pattern"
	"github.com/socraticlabs/elenchus/internal/redact"
	"github.com/socraticlabs/elenchus/internal/report"
	"github.com/socraticlabs/elenchus/internal/segment"
)

const (
	SourceCLI  = "cli"
	SourceHTTP = "http"
)

// MatchEntry is the audit view of one violation match.
type MatchEntry struct {
	PatternID    string `json:"pattern_id"`
	Category     string `json:"category"`
	Severity     string `json:"severity"`
	SegmentIndex int    `json:"segment_index"`
	Evidence     string `json:"evidence,omitempty"`
}

// Event is the canonical audit payload.
type Event struct {
	Version        string             `json:"version"`
	Timestamp      time.Time          `json:"timestamp"`
	EventID        string             `json:"event_id"`
	ProjectID      string             `json:"project_id,omitempty"`
	Source         string             `json:"source"`
	Verdict        string             `json:"verdict"`
	Categories     []string           `json:"categories,omitempty"`
	CategoryCounts map[string]int     `json:"category_counts"`
	Matches        []MatchEntry       `json:"matches,omitempty"`
	Scores         map[string]float32 `json:"scores,omitempty"`
	InputBytes     int                `json:"input_bytes"`
	DurationMs     float64            `json:"duration_ms"`
}

// BuildParams collects inputs needed to assemble an audit event.
type BuildParams struct {
	Report     *report.Report
	Segments   []segment.Segment
	ProjectID  string
	Source     string
	Scores     map[string]float32
	InputBytes int
	Duration   time.Duration
}

// BuildEvent creates an audit event from a finished classification.
func BuildEvent(params BuildParams) *Event {
	if params.Report == nil {
		return nil
	}
	rep := params.Report

	matches := make([]MatchEntry, 0, len(rep.Matches))
	var categories []string
	seen := make(map[pattern.Category]struct{})
	for _, m := range rep.Matches {
		evidence := ""
		if m.SegmentIndex >= 0 && m.SegmentIndex < len(params.Segments) {
			evidence = redact.Evidence(params.Segments[m.SegmentIndex].Text)
		}
		matches = append(matches, MatchEntry{
			PatternID:    m.PatternID,
			Category:     string(m.Category),
			Severity:     string(m.Severity),
			SegmentIndex: m.SegmentIndex,
			Evidence:     evidence,
		})
		if _, ok := seen[m.Category]; !ok {
			seen[m.Category] = struct{}{}
			categories = append(categories, string(m.Category))
		}
	}

	counts := make(map[string]int, len(rep.CategoryCounts))
	for c, n := range rep.CategoryCounts {
		counts[string(c)] = n
	}

	return &Event{
		Version:        "1",
		Timestamp:      time.Now().UTC(),
		EventID:        uuid.NewString(),
		ProjectID:      params.ProjectID,
		Source:         params.Source,
		Verdict:        string(rep.Verdict),
		Categories:     categories,
		CategoryCounts: counts,
		Matches:        matches,
		Scores:         params.Scores,
		InputBytes:     params.InputBytes,
		DurationMs:     float64(params.Duration) / float64(time.Millisecond),
	}
}
