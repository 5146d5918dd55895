package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

const redacted = "***"

// Redactor masks credentials in log attributes. Attributes whose key names
// a credential are replaced entirely; other string values have API keys
// and bearer tokens masked in place.
type Redactor struct {
	sensitiveKeys map[string]struct{}
	patterns      []redactPattern
}

type redactPattern struct {
	regex       *regexp.Regexp
	replacement string
}

// NewRedactor creates a redactor with the built-in patterns.
func NewRedactor() *Redactor {
	return &Redactor{
		sensitiveKeys: map[string]struct{}{
			"api_key":       {},
			"apikey":        {},
			"api-key":       {},
			"authorization": {},
			"password":      {},
			"secret":        {},
			"token":         {},
		},
		patterns: []redactPattern{
			{regex: regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-._~+/]+=*`), replacement: "Bearer " + redacted},
			{regex: regexp.MustCompile(`sk-[a-zA-Z0-9_\-]{8,}`), replacement: "sk-" + redacted},
		},
	}
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook.
func (r *Redactor) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if _, ok := r.sensitiveKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, redacted)
	}
	if a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, r.Redact(a.Value.String()))
	}
	return a
}

// Redact masks credentials found in s.
func (r *Redactor) Redact(s string) string {
	for _, p := range r.patterns {
		s = p.regex.ReplaceAllString(s, p.replacement)
	}
	return s
}
