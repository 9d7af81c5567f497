package logging

import (
	"log/slog"
	"strings"
)

var secretKeys = map[string]bool{
	"access_token":  true,
	"authorization": true,
	"password":      true,
	"private_key":   true,
	"refresh_token": true,
	"secret":        true,
	"token":         true,
	"value":         true,
}

// RedactValue keeps a short prefix of a secret so log lines stay
// correlatable.
func RedactValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(trimmed), "bearer ") {
		return "Bearer " + mask(trimmed[7:])
	}
	return mask(trimmed)
}

func mask(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "***"
}

func redactAttr(_ []string, a slog.Attr) slog.Attr {
	if secretKeys[strings.ToLower(a.Key)] && a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, RedactValue(a.Value.String()))
	}
	return a
}
