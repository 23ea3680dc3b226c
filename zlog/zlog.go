// Package zlog adapts github.com/rs/zerolog to the blizzard.Logger
// interface, for hosts that want structured, leveled logging richer than
// the default slog.Logger without the core protocol package depending on
// zerolog directly.
package zlog

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/blizzardproto/blizzard"
)

// adapter wraps a zerolog.Logger to satisfy blizzard.Logger.
type adapter struct {
	logger zerolog.Logger
}

// New returns a console-formatted zerolog-backed blizzard.Logger, in the
// shape of danmuck-edgectl's observability.InitLogger: RFC3339 timestamps,
// a fixed "component" field, writing to stdout.
func New(component string) blizzard.Logger {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Str("component", component).Logger()
	return &adapter{logger: logger}
}

// Wrap adapts an existing zerolog.Logger.
func Wrap(logger zerolog.Logger) blizzard.Logger {
	return &adapter{logger: logger}
}

func (a *adapter) Debug(msg string, args ...any) { a.event(a.logger.Debug(), msg, args) }
func (a *adapter) Info(msg string, args ...any)  { a.event(a.logger.Info(), msg, args) }
func (a *adapter) Warn(msg string, args ...any)  { a.event(a.logger.Warn(), msg, args) }
func (a *adapter) Error(msg string, args ...any) { a.event(a.logger.Error(), msg, args) }

// event applies args as alternating key/value pairs, mirroring the
// slog.Logger calling convention blizzard.Logger is documented against.
func (a *adapter) event(e *zerolog.Event, msg string, args []any) {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, args[i+1])
	}
	e.Msg(msg)
}
