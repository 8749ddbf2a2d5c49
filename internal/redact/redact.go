// Package redact keeps response text out of logs and audit trails. Audit
// events carry short evidence excerpts, never the full classified response,
// and anything that looks like a credential is masked first.
package redact

import (
	"fmt"
	"log"
	"regexp"
	"strings"
)

const evidenceLimit = 160

var (
	keyValueRe = regexp.MustCompile(`(?i)\b(api[_-]?key|token|secret|password|authorization|bearer)\b\s*[=:]?\s*\S+`)
	longRunRe  = regexp.MustCompile(`[A-Za-z0-9_\-]{24,}`)
)

// String masks credential-shaped content in s.
func String(s string) string {
	if s == "" {
		return s
	}
	out := keyValueRe.ReplaceAllString(s, "[REDACTED]")
	out = longRunRe.ReplaceAllString(out, "[REDACTED]")
	return out
}

// Evidence masks and truncates a segment excerpt for audit payloads.
func Evidence(s string) string {
	out := String(strings.TrimSpace(s))
	if len(out) <= evidenceLimit {
		return out
	}
	cut := out[:evidenceLimit]
	if i := strings.LastIndexByte(cut, ' '); i > evidenceLimit/2 {
		cut = cut[:i]
	}
	return cut + "..."
}

// Logf logs with redaction applied to the formatted message.
func Logf(format string, args ...any) {
	log.Print(String(strings.TrimRight(fmt.Sprintf(format, args...), "\n")))
}
