package logger

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailPattern  = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	bearerPattern = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._\-]+`)
	apiKeyPattern = regexp.MustCompile(`\bsk-[A-Za-z0-9_\-]{8,}`)
)

// Redact masks email addresses and credentials in s. Email local parts keep
// their first character so log lines stay correlatable.
func Redact(s string) string {
	s = bearerPattern.ReplaceAllString(s, "Bearer [redacted]")
	s = apiKeyPattern.ReplaceAllString(s, "sk-[redacted]")
	s = emailPattern.ReplaceAllStringFunc(s, maskEmail)
	return s
}

// RedactFields returns a copy of fields with string values redacted.
// Non-string values pass through untouched.
func RedactFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if s, ok := v.(string); ok {
			out[k] = Redact(s)
		} else {
			out[k] = v
		}
	}
	return out
}

func maskEmail(addr string) string {
	at := strings.Index(addr, "@")
	if at < 1 {
		return "[redacted-email]"
	}
	return fmt.Sprintf("%c***%s", addr[0], addr[at:])
}
