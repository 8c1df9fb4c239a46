package engine

import (
	"strings"

	"github.com/anatolykoptev/go-kit/strutil"
)

// User-Agent for all outbound HTTP requests.
const UserAgentBot = "ksbot/1.0"

// Truncate returns the first n bytes of s.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// TruncateRunes caps s at limit runes, appending suffix if truncated.
// Pass suffix="" for no suffix. Safe for UTF-8 (Thai, CJK, emoji).
func TruncateRunes(s string, limit int, suffix string) string {
	return strutil.TruncateWith(s, limit, suffix)
}

// MaskKey redacts an API key for logging, keeping the first and last four
// characters of anything long enough to stay unguessable.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "***"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// MaskURL redacts the last path segment of a URL (webhook ids/tokens live
// there) for logging.
func MaskURL(u string) string {
	idx := strings.LastIndex(u, "/")
	if idx <= len("https:/") {
		return "***"
	}
	return u[:idx] + "/***"
}
