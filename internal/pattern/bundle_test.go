package pattern

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/socraticlabs/elenchus/internal/segment"
)

func writeBundle(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bundle.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write bundle: %v", err)
	}
	return path
}

func TestLoadBundleAndCompile(t *testing.T) {
	path := writeBundle(t, `
version: "1"
patterns:
  - id: hand-waving
    category: other
    severity: low
    kind: phrase
    scope: prose
    phrases: ["trust me", "obviously correct"]
  - id: silver-bullet
    category: made-decision-for-user
    severity: medium
    kind: regex
    regex: '(?i)\bthe only (?:sane|correct) choice\b'
questions:
  other:
    - "What evidence supports that?"
`)

	b, err := LoadBundle(path)
	if err != nil {
		t.Fatalf("LoadBundle failed: %v", err)
	}
	if b.Version != "1" {
		t.Errorf("version = %q, want 1", b.Version)
	}
	if got := b.Questions["other"]; len(got) != 1 {
		t.Errorf("questions[other] = %v, want one entry", got)
	}

	patterns, err := b.Compile()
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if len(patterns) != 2 {
		t.Fatalf("got %d patterns, want 2", len(patterns))
	}

	segs, err := segment.Tokenize("Trust me, this design holds up.\n")
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	matches := patterns[0].Detect(segs)
	if len(matches) != 1 || matches[0].PatternID != "hand-waving" || matches[0].Category != CategoryOther {
		t.Errorf("phrase pattern matches = %+v, want one hand-waving hit", matches)
	}

	segs, err = segment.Tokenize("Postgres is the only sane choice here.\n")
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	matches = patterns[1].Detect(segs)
	if len(matches) != 1 || matches[0].Severity != SeverityMedium {
		t.Errorf("regex pattern matches = %+v, want one medium hit", matches)
	}
}

func TestBundleScopeFilter(t *testing.T) {
	path := writeBundle(t, `
patterns:
  - id: code-only
    category: other
    severity: low
    kind: phrase
    scope: code_block
    phrases: ["panic("]
`)
	b, err := LoadBundle(path)
	if err != nil {
		t.Fatalf("LoadBundle failed: %v", err)
	}
	patterns, err := b.Compile()
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	segs, err := segment.Tokenize("mentioning panic( in prose\n```\npanic(\"boom\")\n```\n")
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	matches := patterns[0].Detect(segs)
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1 (code scope only): %+v", len(matches), matches)
	}
	if matches[0].SegmentIndex != 1 {
		t.Errorf("match segment = %d, want the code block", matches[0].SegmentIndex)
	}
}

func TestBundleCompileErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{
			name: "unknown category",
			content: `
patterns:
  - id: x
    category: not-a-category
    severity: low
    kind: phrase
    phrases: ["y"]
`,
		},
		{
			name: "unknown severity",
			content: `
patterns:
  - id: x
    category: other
    severity: fatal
    kind: phrase
    phrases: ["y"]
`,
		},
		{
			name: "bad regex",
			content: `
patterns:
  - id: x
    category: other
    severity: low
    kind: regex
    regex: "("
`,
		},
		{
			name: "phrase without phrases",
			content: `
patterns:
  - id: x
    category: other
    severity: low
    kind: phrase
`,
		},
		{
			name: "unknown scope",
			content: `
patterns:
  - id: x
    category: other
    severity: low
    kind: phrase
    scope: paragraph
    phrases: ["y"]
`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := LoadBundle(writeBundle(t, tc.content))
			if err != nil {
				t.Fatalf("LoadBundle failed: %v", err)
			}
			if _, err := b.Compile(); err == nil {
				t.Error("expected compile error, got nil")
			}
		})
	}
}
