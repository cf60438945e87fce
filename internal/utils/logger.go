package utils

import (
	"context"
	"log/slog"
	"strings"
)

// LogEvent emits one structured line tagged with module/action/request_id.
// Keep payloads out of msg; pass identifiers as attrs.
func LogEvent(requestID, module, action, msg string, attrs ...any) {
	logAt(slog.LevelInfo, requestID, module, action, msg, attrs...)
}

// LogWarn is LogEvent at WARN, used for security events and degraded paths.
func LogWarn(requestID, module, action, msg string, attrs ...any) {
	logAt(slog.LevelWarn, requestID, module, action, msg, attrs...)
}

func LogError(requestID, module, action, msg string, attrs ...any) {
	logAt(slog.LevelError, requestID, module, action, msg, attrs...)
}

func logAt(level slog.Level, requestID, module, action, msg string, attrs ...any) {
	args := append([]any{
		"module", strings.ToUpper(module),
		"action", action,
		"request_id", strings.TrimSpace(requestID),
	}, attrs...)
	slog.Log(context.Background(), level, msg, args...)
}
