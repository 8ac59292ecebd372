package logger

import "strings"

// RedactEmail masks the local part of an email address so subscriber
// addresses can be logged without storing them in full, e.g.
// "jane@example.com" becomes "ja***@example.com". The kept prefix is counted
// in runes so multi-byte characters are never split.
func RedactEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || domain == "" || strings.Contains(domain, "@") {
		return "***@***"
	}
	if runes := []rune(local); len(runes) > 2 {
		return string(runes[:2]) + "***@" + domain
	}

	return "***@" + domain
}
