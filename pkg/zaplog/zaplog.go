// Package zaplog adapts phpfile log events to a zap logger.
package zaplog

import (
	phpfile "github.com/goliatone/go-phpfile"
	"go.uber.org/zap"
)

// Logger writes phpfile events to a zap.Logger. Successful operations log
// at debug level and failures at warn.
type Logger struct {
	log *zap.Logger
}

var _ phpfile.Logger = (*Logger)(nil)

// New wraps log. A nil logger falls back to zap.NewNop.
func New(log *zap.Logger) *Logger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Logger{log: log.Named("phpfile")}
}

// Log implements phpfile.Logger.
func (l *Logger) Log(event phpfile.LogEvent) {
	fields := []zap.Field{
		zap.String("op", event.Op),
		zap.Duration("duration", event.Duration),
	}
	if event.Path != "" {
		fields = append(fields, zap.String("path", event.Path))
	}
	if event.Engine != "" {
		fields = append(fields, zap.String("engine", event.Engine))
	}
	if event.Expr != "" {
		fields = append(fields, zap.String("expr", event.Expr))
	}
	if event.Bytes > 0 {
		fields = append(fields, zap.Int("bytes", event.Bytes))
	}

	if event.Err != nil {
		l.log.Warn("phpfile "+event.Op+" failed", append(fields, zap.Error(event.Err))...)
		return
	}
	l.log.Debug("phpfile "+event.Op, fields...)
}
