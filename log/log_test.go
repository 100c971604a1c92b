package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func newCapturingLogger(buf *bytes.Buffer) Logger {
	return NewLogger(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: LevelTrace}))
}

func TestLoggerWritesMessageAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newCapturingLogger(&buf)

	l.Error("something failed", "code", 42)

	out := buf.String()
	require.Contains(t, out, "something failed")
	require.Contains(t, out, "code=42")
	require.Contains(t, out, "level=ERROR")
}

func TestLoggerWithAttachesPersistentContext(t *testing.T) {
	var buf bytes.Buffer
	l := newCapturingLogger(&buf)

	child := l.With("component", "dispatch")
	child.Info("starting")

	require.Contains(t, buf.String(), "component=dispatch")
}

func TestLoggerTraceLevelBelowDebugIsEmitted(t *testing.T) {
	var buf bytes.Buffer
	l := newCapturingLogger(&buf)

	l.Trace("fine-grained event")

	require.Contains(t, buf.String(), "fine-grained event")
}

func TestSetDefaultRedirectsPackageLevelHelpers(t *testing.T) {
	orig := root
	defer func() { root = orig }()

	var buf bytes.Buffer
	SetDefault(newCapturingLogger(&buf))

	Warn("package level warning")

	require.Contains(t, buf.String(), "package level warning")
}
