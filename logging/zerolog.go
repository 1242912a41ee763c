package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// ZerologAdapter wraps a zerolog.Logger to implement the Logger interface.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter creates a Logger from a zerolog.Logger.
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

// Zerolog returns the wrapped zerolog.Logger (used by HTTP middleware).
func (z *ZerologAdapter) Zerolog() zerolog.Logger { return z.logger }

// Debug logs a debug message.
func (z *ZerologAdapter) Debug(msg string, args ...any) { z.log(z.logger.Debug(), msg, args) }

// Info logs an informational message.
func (z *ZerologAdapter) Info(msg string, args ...any) { z.log(z.logger.Info(), msg, args) }

// Warn logs a warning message.
func (z *ZerologAdapter) Warn(msg string, args ...any) { z.log(z.logger.Warn(), msg, args) }

// Error logs an error message.
func (z *ZerologAdapter) Error(msg string, args ...any) { z.log(z.logger.Error(), msg, args) }

func (z *ZerologAdapter) log(ev *zerolog.Event, msg string, args []any) {
	if ev == nil { // level disabled
		return
	}

	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}

		if i+1 >= len(args) {
			ev = ev.Interface("!BADKEY", key)
			break
		}

		switch v := args[i+1].(type) {
		case error:
			ev = ev.AnErr(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}

	ev.Msg(msg)
}

// ZerologConfig configures NewZerolog.
type ZerologConfig struct {
	Level  LogLevel
	Pretty bool      // human readable console output
	Output io.Writer // defaults to os.Stderr
}

// NewZerolog builds a zerolog backed Logger writing to stderr.
func NewZerolog(optFns ...func(c *ZerologConfig)) *ZerologAdapter {
	cfg := ZerologConfig{Level: LogLevelInfo, Output: os.Stderr}
	for _, fn := range optFns {
		fn(&cfg)
	}

	out := cfg.Output
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: cfg.Output}
	}

	zl := zerolog.New(out).Level(zerologLevel(cfg.Level)).With().Timestamp().Logger()

	return NewZerologAdapter(zl)
}

func zerologLevel(l LogLevel) zerolog.Level {
	switch l {
	case LogLevelDebug:
		return zerolog.DebugLevel
	case LogLevelInfo:
		return zerolog.InfoLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
