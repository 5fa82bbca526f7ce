package main

import (
	"bytes"
	"encoding/hex"
	stderrors "errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/cil-emit/body"
	"github.com/wippyai/cil-emit/emit"
	"github.com/wippyai/cil-emit/errors"
	"github.com/wippyai/cil-emit/trace"
)

// settings are the flags that affect how samples are assembled.
type settings struct {
	log     *zap.Logger
	color   bool
	noFault bool
}

// assembly is the outcome of building one sample.
type assembly struct {
	err     error
	trace   string
	listing string
	image   []byte
	sample  sample
	noFault bool
}

// ok reports whether the sample behaved as the catalogue expects. Without
// fault/filter support the container may refuse those blocks.
func (a *assembly) ok() bool {
	if a.noFault && stderrors.Is(a.err, errors.ErrPlatformUnsupported) {
		return true
	}
	return (a.err != nil) == a.sample.fails
}

func (a *assembly) hex() string {
	if len(a.image) == 0 {
		return ""
	}
	return hex.Dump(a.image)
}

func assemble(s sample, cfg settings) *assembly {
	a := &assembly{sample: s, noFault: cfg.noFault}

	opts := []body.Option{body.WithLogger(cfg.log)}
	if cfg.noFault {
		opts = append(opts, body.WithoutFaultFilter())
	}
	b := body.New(s.name, opts...)

	var buf bytes.Buffer
	root := emit.NewRoot(trace.New(b,
		trace.WithWriter(&buf),
		trace.WithStyles(cfg.color),
		trace.WithLogger(cfg.log),
	))
	defer func() { a.trace = buf.String() }()

	if err := s.build(root); err != nil {
		a.err = fmt.Errorf("build %s: %w", s.name, err)
		return a
	}
	m, err := b.Finish()
	if err != nil {
		a.err = fmt.Errorf("finish %s: %w", s.name, err)
		return a
	}
	listing, err := body.Disassemble(m)
	if err != nil {
		a.err = fmt.Errorf("disassemble %s: %w", s.name, err)
		return a
	}
	a.listing = listing
	a.image = m.Bytes()
	return a
}

func assembleAll(samples []sample, cfg settings) []*assembly {
	out := make([]*assembly, len(samples))
	for i, s := range samples {
		out[i] = assemble(s, cfg)
	}
	return out
}
