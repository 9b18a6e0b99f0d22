package util

import (
	"fmt"
	"strings"
)

// DefaultLogMaxLen caps provider response bodies written to the log (1KB).
const DefaultLogMaxLen = 1024

// TruncateLog truncates long strings for logging.
func TruncateLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + fmt.Sprintf("... [truncated, %d bytes total]", len(s))
}

// TruncateBytes is TruncateLog for []byte with DefaultLogMaxLen.
func TruncateBytes(b []byte) string {
	return TruncateLog(string(b), DefaultLogMaxLen)
}

// MaskToken keeps only the last few characters of a bearer or refresh token.
func MaskToken(t string) string {
	if len(t) < 20 {
		return "***"
	}
	return "..." + t[len(t)-6:]
}

// RedactEmail turns "alice@example.com" into "a***@example.com".
func RedactEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		if email == "" {
			return ""
		}
		return "***"
	}
	return local[:1] + "***@" + domain
}
