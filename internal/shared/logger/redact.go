package logger

import (
	"log/slog"
	"strings"
)

// RedactedValue replaces the value of any block-listed attribute.
const RedactedValue = "[REDACTED]"

// sensitiveKeys is matched case-insensitively against the full key and
// against its suffix after the last '_' or '.'.
var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"passwd":        {},
	"secret":        {},
	"token":         {},
	"access_token":  {},
	"refresh_token": {},
	"authorization": {},
	"cookie":        {},
	"set-cookie":    {},
	"api_key":       {},
	"apikey":        {},
	"credential":    {},
	"credentials":   {},
}

// IsSensitiveKey reports whether a log attribute key must never be emitted verbatim.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	if _, ok := sensitiveKeys[k]; ok {
		return true
	}
	if i := strings.LastIndexAny(k, "_."); i >= 0 && i < len(k)-1 {
		_, ok := sensitiveKeys[k[i+1:]]
		return ok
	}
	return false
}

// RedactAttr is a slog ReplaceAttr func masking sensitive attributes.
func RedactAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		return a
	}
	if IsSensitiveKey(a.Key) {
		return slog.String(a.Key, RedactedValue)
	}
	return a
}
