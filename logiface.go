package schedrt

import "github.com/joeycumines/logiface"

// logifaceLogger adapts a *logiface.Logger[logiface.Event] (the
// type-erased form every logiface backend — logiface-zerolog,
// logiface-slog, logiface-stumpy, etc. — produces via Logger.Logger())
// into the schedrt.Logger interface, so callers who already standardized
// on logiface elsewhere in their process can reuse that sink here
// instead of wiring a second logging framework.
type logifaceLogger struct {
	l *logiface.Logger[logiface.Event]
}

// NewLogifaceLogger wraps an existing logiface logger for use via
// WithLogger.
func NewLogifaceLogger(l *logiface.Logger[logiface.Event]) Logger {
	return &logifaceLogger{l: l}
}

func (a *logifaceLogger) Debugf(format string, args ...any) {
	a.l.Debug().Logf(format, args...)
}

func (a *logifaceLogger) Infof(format string, args ...any) {
	a.l.Info().Logf(format, args...)
}

func (a *logifaceLogger) Warnf(format string, args ...any) {
	a.l.Warning().Logf(format, args...)
}

func (a *logifaceLogger) Errorf(format string, args ...any) {
	a.l.Err().Logf(format, args...)
}
