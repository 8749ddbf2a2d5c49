package pattern

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/socraticlabs/elenchus/internal/segment"
)

// Bundle is a declarative rule bundle loaded at startup. It can extend the
// built-in library with phrase or regex patterns and add question templates
// per category.
type Bundle struct {
	Version   string              `yaml:"version"`
	Patterns  []BundleRecord      `yaml:"patterns"`
	Questions map[string][]string `yaml:"questions"`
}

// BundleRecord is one declarative pattern definition.
type BundleRecord struct {
	ID       string   `yaml:"id"`
	Category string   `yaml:"category"`
	Severity string   `yaml:"severity"`
	Kind     string   `yaml:"kind"`  // phrase | regex
	Scope    string   `yaml:"scope"` // prose | code_block | question | any
	Phrases  []string `yaml:"phrases"`
	Regex    string   `yaml:"regex"`
}

// LoadBundle reads a rule bundle from a YAML file.
func LoadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}
	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	return &b, nil
}

// Compile turns the bundle records into patterns, in file order.
func (b *Bundle) Compile() ([]Pattern, error) {
	out := make([]Pattern, 0, len(b.Patterns))
	for _, rec := range b.Patterns {
		p, err := compileRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func compileRecord(rec BundleRecord) (Pattern, error) {
	id := strings.TrimSpace(rec.ID)
	if id == "" {
		return Pattern{}, fmt.Errorf("bundle record with empty id")
	}
	category := Category(rec.Category)
	if !KnownCategory(category) {
		return Pattern{}, fmt.Errorf("bundle record %q: unknown category %q", id, rec.Category)
	}
	severity := Severity(rec.Severity)
	if !KnownSeverity(severity) {
		return Pattern{}, fmt.Errorf("bundle record %q: unknown severity %q", id, rec.Severity)
	}

	scope, err := scopeKind(rec.Scope)
	if err != nil {
		return Pattern{}, fmt.Errorf("bundle record %q: %w", id, err)
	}

	var re *regexp.Regexp
	switch strings.ToLower(strings.TrimSpace(rec.Kind)) {
	case "regex":
		if rec.Regex == "" {
			return Pattern{}, fmt.Errorf("bundle record %q: kind regex requires a regex", id)
		}
		re, err = regexp.Compile(rec.Regex)
		if err != nil {
			return Pattern{}, fmt.Errorf("bundle record %q: compile regex: %w", id, err)
		}
	case "", "phrase":
		if len(rec.Phrases) == 0 {
			return Pattern{}, fmt.Errorf("bundle record %q: kind phrase requires phrases", id)
		}
		quoted := make([]string, 0, len(rec.Phrases))
		for _, ph := range rec.Phrases {
			ph = strings.TrimSpace(ph)
			if ph == "" {
				continue
			}
			quoted = append(quoted, regexp.QuoteMeta(ph))
		}
		if len(quoted) == 0 {
			return Pattern{}, fmt.Errorf("bundle record %q: phrases are all empty", id)
		}
		re = regexp.MustCompile(`(?i)` + strings.Join(quoted, "|"))
	default:
		return Pattern{}, fmt.Errorf("bundle record %q: unknown kind %q", id, rec.Kind)
	}

	return Pattern{
		ID:       id,
		Category: category,
		Severity: severity,
		Detect: func(segs []segment.Segment) []Match {
			var matches []Match
			for i, s := range segs {
				if scope != "" && s.Kind != scope {
					continue
				}
				text := s.Text
				if s.Kind == segment.KindCodeBlock {
					text = s.CodeBody()
				}
				if !re.MatchString(text) {
					continue
				}
				matches = append(matches, Match{
					PatternID:    id,
					Category:     category,
					Severity:     severity,
					SegmentIndex: i,
					Explanation:  fmt.Sprintf("bundle rule %s matched", id),
				})
			}
			return matches
		},
	}, nil
}

func scopeKind(scope string) (segment.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(scope)) {
	case "", "any":
		return "", nil
	case "prose":
		return segment.KindProse, nil
	case "code_block":
		return segment.KindCodeBlock, nil
	case "question":
		return segment.KindQuestion, nil
	case "bullet_list":
		return segment.KindBulletList, nil
	case "heading":
		return segment.KindHeading, nil
	default:
		return "", fmt.Errorf("unknown scope %q", scope)
	}
}
