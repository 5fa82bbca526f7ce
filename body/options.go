package body

import (
	"go.uber.org/zap"

	"github.com/wippyai/cil-emit/meta"
)

// Option configures a MethodBody.
type Option func(*config)

type config struct {
	logger      *zap.Logger
	writeLine   *meta.Method
	faultFilter bool
	initLocals  bool
}

func defaultConfig() config {
	return config{
		writeLine:   meta.ConsoleWriteLine,
		faultFilter: true,
		initLocals:  true,
	}
}

// WithLogger sets the logger for this body, overriding the package logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithoutFaultFilter models a dynamic method container that cannot encode
// fault or filter blocks. BeginFault and BeginFilter fail with
// KindPlatformUnsupported.
func WithoutFaultFilter() Option {
	return func(c *config) {
		c.faultFilter = false
	}
}

// WithInitLocals controls the InitLocals header flag. Default true.
func WithInitLocals(v bool) Option {
	return func(c *config) {
		c.initLocals = v
	}
}

// WithWriteLineMethod sets the static method WriteLine calls. It must take
// a single string argument. Default is System.Console::WriteLine(string).
func WithWriteLineMethod(m *meta.Method) Option {
	return func(c *config) {
		if m != nil {
			c.writeLine = m
		}
	}
}
