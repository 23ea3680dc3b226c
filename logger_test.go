package blizzard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingLogger struct {
	calls [][]any
}

func (r *recordingLogger) Debug(msg string, args ...any) { r.record(msg, args) }
func (r *recordingLogger) Info(msg string, args ...any)  { r.record(msg, args) }
func (r *recordingLogger) Warn(msg string, args ...any)  { r.record(msg, args) }
func (r *recordingLogger) Error(msg string, args ...any) { r.record(msg, args) }

func (r *recordingLogger) record(msg string, args []any) {
	r.calls = append(r.calls, append([]any{msg}, args...))
}

func TestWithSessionTagsEveryCall(t *testing.T) {
	rec := &recordingLogger{}
	logger := withSession(rec, "sess-1")

	logger.Info("ready", "peer", "10.0.0.1")
	logger.Error("boom")

	require := assert.New(t)
	require.Len(rec.calls, 2)
	require.Equal([]any{"ready", "session", "sess-1", "peer", "10.0.0.1"}, rec.calls[0])
	require.Equal([]any{"boom", "session", "sess-1"}, rec.calls[1])
}
