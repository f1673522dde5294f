// Package obs provides the ambient observability stack: a redacting slog
// JSON logger and an OpenTelemetry tracer/meter provider wrapper that is a
// true no-op when disabled.
package obs

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aad-go/aad/internal/shared"
)

// NewLogger creates a JSON slog.Logger that writes to homeDir/logs/aad.jsonl,
// additionally echoing to stdout unless quiet is set. Secret-shaped
// attribute keys and values are redacted before being written. The logger
// is tagged with the trace_id carried on ctx, generating a fresh one if
// ctx carries none.
func NewLogger(ctx context.Context, homeDir, level string, quiet bool) (*slog.Logger, io.Closer, error) {
	logDir := filepath.Join(homeDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, nil, err
	}

	logFilePath := filepath.Join(logDir, "aad.jsonl")
	file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}

	var w io.Writer = file
	if !quiet {
		w = io.MultiWriter(os.Stdout, file)
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "timestamp"
			}
			if a.Value.Kind() == slog.KindString {
				redacted := shared.RedactEnvValue(a.Key, a.Value.String())
				return slog.String(a.Key, shared.Redact(redacted))
			}
			return a
		},
	})

	traceID := shared.TraceID(ctx)
	if traceID == "-" {
		traceID = shared.NewTraceID()
	}
	return slog.New(handler).With("component", "orchestrator", "trace_id", traceID), file, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
