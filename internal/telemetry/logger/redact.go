// Package logger provides structured logging for cryptogen.
package logger

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/yndnr/cryptogen-go/pkg/token"
)

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"secret",
	"seed",
	"key",
	"token",
	"entropy",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive replaces token material with a fingerprint or a size
// summary, and fully redacts string values under sensitive keys.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case token.Token:
			return slog.String(a.Key, RedactToken(v))
		case []token.Token:
			return slog.String(a.Key, fmt.Sprintf("[%d tokens]", len(v)))
		case [][]byte:
			return slog.String(a.Key, fmt.Sprintf("[%d tokens]", len(v)))
		case []byte:
			return slog.String(a.Key, fmt.Sprintf("[%d bytes]", len(v)))
		}

	case slog.KindString:
		if a.Value.String() != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}

	case slog.KindGroup:
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// RedactToken returns the log-safe form of a token: "fp:" followed by
// its fingerprint.
func RedactToken(t token.Token) string {
	return "fp:" + token.Fingerprint(t)
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
