package trace

import (
	"io"

	"go.uber.org/zap"
)

// Option configures a trace Emitter.
type Option func(*Emitter)

// WithWriter sets where trace lines are written. Nil disables text output.
func WithWriter(w io.Writer) Option {
	return func(e *Emitter) {
		e.out = w
	}
}

// WithLogger logs every event at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(e *Emitter) {
		if l != nil {
			e.log = l
		}
	}
}

// WithStyles enables terminal colouring of trace lines.
func WithStyles(on bool) Option {
	return func(e *Emitter) {
		e.styled = on
	}
}

// WithBreakpoint registers a hook called after every event, including
// failed ones.
func WithBreakpoint(fn func(Event)) Option {
	return func(e *Emitter) {
		e.breakpoint = fn
	}
}
