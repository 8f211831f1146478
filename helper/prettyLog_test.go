package helper

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewPrettyHandler(t *testing.T) {
	t.Run("Create PrettyHandler with empty options", func(t *testing.T) {
		var buf bytes.Buffer
		handler := NewPrettyHandler(&buf, PrettyHandlerOptions{})

		assert.NotNil(t, handler, "Expected NewPrettyHandler to return a non-nil handler")
		assert.NotNil(t, handler.Handler, "Expected handler to have a non-nil Handler field")
		assert.NotNil(t, handler.l, "Expected handler to have a non-nil logger field")
	})
}

func TestPrettyHandlerHandle(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		level    slog.Level
		message  string
		attrs    []slog.Attr
		expected []string
	}{
		{
			name:     "Debug record with string attribute",
			level:    slog.LevelDebug,
			message:  "embedding question",
			attrs:    []slog.Attr{slog.String("index", "finance_articles")},
			expected: []string{"DEBUG:", "embedding question", "index", "finance_articles"},
		},
		{
			name:     "Info record with int attribute",
			level:    slog.LevelInfo,
			message:  "retrieved articles",
			attrs:    []slog.Attr{slog.Int("count", 3)},
			expected: []string{"INFO:", "retrieved articles", "count", "3"},
		},
		{
			name:     "Warn record with error attribute",
			level:    slog.LevelWarn,
			message:  "retrieval failed",
			attrs:    []slog.Attr{slog.String("error", "connection refused")},
			expected: []string{"WARN:", "retrieval failed", "connection refused"},
		},
		{
			name:     "Error record with bool attribute",
			level:    slog.LevelError,
			message:  "generation failed",
			attrs:    []slog.Attr{slog.Bool("timeout", true)},
			expected: []string{"ERROR:", "generation failed", "timeout", "true"},
		},
		{
			name:     "Record without attributes",
			level:    slog.LevelInfo,
			message:  "simple message",
			expected: []string{"INFO:", "simple message", "{}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := NewPrettyHandler(&buf, PrettyHandlerOptions{
				SlogOpts: slog.HandlerOptions{Level: slog.LevelDebug},
			})

			record := slog.NewRecord(time.Now(), tt.level, tt.message, 0)
			record.AddAttrs(tt.attrs...)

			err := handler.Handle(ctx, record)
			assert.NoError(t, err, "Expected Handle to not return an error")

			output := buf.String()
			for _, e := range tt.expected {
				assert.Contains(t, output, e)
			}
			assert.Regexp(t, `\[\d{2}:\d{2}:\d{2}\.\d{3}\]`, output, "Expected output to contain formatted timestamp")
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("Non-verbose logger drops debug records", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, false)

		logger.Debug("hidden")
		logger.Info("visible")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "visible")
	})

	t.Run("Verbose logger keeps debug records", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, true)

		logger.Debug("shown", slog.String("question", "What about Tesla?"))

		assert.Contains(t, buf.String(), "shown")
		assert.Contains(t, buf.String(), "What about Tesla?")
	})
}
