package phpfile

import "time"

// LogEvent describes one file operation or expression evaluation.
type LogEvent struct {
	// Op is "load", "save", "evaluate", "activity" or "configure".
	Op       string
	Path     string
	Engine   string
	Expr     string
	Bytes    int
	Duration time.Duration
	Err      error
}

// Logger records file and evaluator events.
type Logger interface {
	Log(LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEvent)

// Log implements Logger.
func (f LoggerFunc) Log(event LogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) Log(LogEvent) {}

// WithLogger attaches a logger to the File.
func WithLogger(logger Logger) Option {
	return func(cfg *fileConfig) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}
