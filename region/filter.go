package region

import (
	"go.uber.org/zap"

	"github.com/wippyai/cil-emit/emit"
	"github.com/wippyai/cil-emit/errors"
)

// FilterBlock is returned by CatchWhen. Its only continuation is OnPass,
// which adds the handler the filter guards.
type FilterBlock struct {
	b *Block
}

// Err returns the first error recorded by the chain.
func (f *FilterBlock) Err() error { return f.b.err }

// OnPass adds the handler run when the filter yields non-zero. If h leaves
// the stack untouched the exception object is popped after it.
func (f *FilterBlock) OnPass(h func(emit.Emitter) error) *Block {
	b := f.b
	if !b.ready("on_pass") {
		return b
	}
	if b.state != StateInFilter {
		return b.fail(errors.InvalidNesting(errors.PhaseRegion, "on_pass", "no filter is waiting for its handler"))
	}
	if err := b.sink.BeginCatch(nil); err != nil {
		return b.fail(err)
	}
	if err := b.handler(emit.ContextCatch, h, true); err != nil {
		return b.fail(err)
	}
	b.state = StateHasHandler
	Logger().Debug("filter handler added", zap.Stringer("state", b.state))
	return b
}
