package util

import "regexp"

const maxNameLen = 120

var unsafeRun = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// SanitizeName maps an arbitrary caller-supplied string into a bounded
// filesystem-safe token: every run of characters outside [A-Za-z0-9_.-]
// collapses to a single underscore and the result is capped at 120
// characters. The empty string maps to itself; callers that need a
// non-empty token must supply their own fallback.
func SanitizeName(raw string) string {
	s := unsafeRun.ReplaceAllString(raw, "_")
	if len(s) > maxNameLen {
		s = s[:maxNameLen]
	}
	return s
}
