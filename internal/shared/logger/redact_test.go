package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSensitiveKey(t *testing.T) {
	tests := []struct {
		key       string
		sensitive bool
	}{
		{"password", true},
		{"Authorization", true},
		{"user.password", true},
		{"session_token", true},
		{"smtp_secret", true},
		{"api_key", true},
		{"email", false},
		{"tenant_id", false},
		{"request_id", false},
		{"token_count_", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.sensitive, IsSensitiveKey(tt.key))
		})
	}
}

func TestRedactAttr_JSONHandler(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{ReplaceAttr: RedactAttr}))

	log.Info("login", "email", "a@b.c", "password", "hunter2", "access_token", "abc.def")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "a@b.c", entry["email"])
	assert.Equal(t, RedactedValue, entry["password"])
	assert.Equal(t, RedactedValue, entry["access_token"])
}
