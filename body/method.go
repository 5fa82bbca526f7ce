package body

import (
	"slices"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/wippyai/cil-emit/emit"
	"github.com/wippyai/cil-emit/errors"
	"github.com/wippyai/cil-emit/meta"
)

// Method is a finished, immutable method body.
type Method struct {
	tokens      *tokenTable
	Name        string
	Code        []byte
	Locals      []emit.Local
	Clauses     []Clause
	Scopes      []Scope
	MaxStack    int
	LocalsToken Token
	InitLocals  bool
}

// Finish validates the body and returns the finished method. Every open
// region or scope and every branch to a label that was never marked is
// reported; the errors are aggregated.
func (b *MethodBody) Finish() (*Method, error) {
	if err := b.checkOpen("finish"); err != nil {
		return nil, err
	}

	var result *multierror.Error
	if n := len(b.regions); n > 0 {
		result = multierror.Append(result, errors.Unclosed("protected region(s)", n))
	}
	if n := len(b.scopes); n > 0 {
		result = multierror.Append(result, errors.Unclosed("scope(s)", n))
	}
	seen := make(map[emit.Label]bool)
	for _, f := range b.fixups {
		if seen[f.label] {
			continue
		}
		seen[f.label] = true
		result = multierror.Append(result,
			errors.UndefinedLabel(errors.PhaseFinish, int(f.label), "is referenced but never marked"))
	}
	if err := result.ErrorOrNil(); err != nil {
		b.log.Debug("finish failed", zap.Error(err))
		return nil, err
	}

	b.finished = true
	m := &Method{
		tokens:     b.tokens,
		Name:       b.name,
		Code:       slices.Clone(b.w.Bytes()),
		Locals:     slices.Clone(b.locals),
		Clauses:    slices.Clone(b.clauses),
		Scopes:     slices.Clone(b.closed),
		MaxStack:   b.maxStack,
		InitLocals: b.cfg.initLocals,
	}
	if len(m.Locals) > 0 {
		sig := &localsSig{types: make([]*meta.Type, len(m.Locals))}
		for i, l := range m.Locals {
			sig.types[i] = l.Type
		}
		m.LocalsToken = b.tokens.add(TableStandAloneSig, sig)
	}
	b.log.Debug("finished",
		zap.Int("code_size", len(m.Code)),
		zap.Int("max_stack", m.MaxStack),
		zap.Int("clauses", len(m.Clauses)))
	return m, nil
}

// Resolve returns the metadata value behind a token emitted into m: a
// *meta.Type, *meta.Method, *meta.Field, *meta.Signature or string.
func (m *Method) Resolve(tok Token) (any, bool) {
	if m.tokens == nil {
		return nil, false
	}
	v, ok := m.tokens.resolve(tok)
	if _, isSig := v.(*localsSig); isSig {
		return nil, false
	}
	return v, ok
}

// Instructions decodes m's code.
func (m *Method) Instructions() ([]Instruction, error) {
	return Decode(m.Code)
}
