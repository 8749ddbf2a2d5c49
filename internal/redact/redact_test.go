package redact

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "empty",
			in:   "",
			want: "",
		},
		{
			name: "plain prose untouched",
			in:   "have you thought about the edge cases?",
			want: "have you thought about the edge cases?",
		},
		{
			name: "api key assignment",
			in:   "set api_key=sk-12345 in the env",
			want: "set [REDACTED] in the env",
		},
		{
			name: "bearer token",
			in:   "send bearer abc123xyz to the API",
			want: "send [REDACTED] to the API",
		},
		{
			name: "long opaque run",
			in:   "id is d41d8cd98f00b204e9800998ecf8427e here",
			want: "id is [REDACTED] here",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := String(tt.in); got != tt.want {
				t.Errorf("String(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEvidenceTruncates(t *testing.T) {
	in := strings.Repeat("word ", 100)
	got := Evidence(in)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("long evidence should end with ellipsis: %q", got)
	}
	if len(got) > evidenceLimit+3 {
		t.Errorf("evidence length = %d, want <= %d", len(got), evidenceLimit+3)
	}
	if strings.HasSuffix(strings.TrimSuffix(got, "..."), " ") {
		t.Errorf("truncation should land on a word boundary: %q", got)
	}
}

func TestEvidenceShortPassesThrough(t *testing.T) {
	if got := Evidence("  what would you try first?  "); got != "what would you try first?" {
		t.Errorf("got %q", got)
	}
}

func TestEvidenceMasksBeforeTruncating(t *testing.T) {
	in := "the password=hunter2 " + strings.Repeat("filler ", 40)
	got := Evidence(in)
	if strings.Contains(got, "hunter2") {
		t.Errorf("credential leaked into evidence: %q", got)
	}
}
