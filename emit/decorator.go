package emit

import (
	"go.uber.org/zap"

	"github.com/wippyai/cil-emit/errors"
	"github.com/wippyai/cil-emit/meta"
	"github.com/wippyai/cil-emit/opcode"
)

// Decorator wraps a sink and rejects instructions its context forbids.
//
// A Decorator never wraps another Decorator: Wrap collapses the chain onto
// the innermost sink, so flags and checks are never duplicated.
type Decorator struct {
	sink         Emitter
	forbidden    opcode.Set
	context      Context
	opened       int // regions opened through d and still open
	restricted   bool
	emitted      bool
	stackChanged bool
}

var _ Tracker = (*Decorator)(nil)

// Wrap returns a decorator enforcing ctx over e's underlying sink.
func Wrap(e Emitter, ctx Context) *Decorator {
	d := &Decorator{sink: Unwrap(e), context: ctx}
	d.forbidden, d.restricted = ctx.Forbidden()
	return d
}

// Unwrap returns the underlying sink.
func (d *Decorator) Unwrap() Emitter { return d.sink }

// Context returns the guarded context.
func (d *Decorator) Context() Context { return d.context }

func (d *Decorator) Emitted() bool      { return d.emitted }
func (d *Decorator) StackChanged() bool { return d.stackChanged }

// Reset clears the emission flags.
func (d *Decorator) Reset() {
	d.emitted = false
	d.stackChanged = false
}

// Allows reports whether op may be emitted in this context.
func (d *Decorator) Allows(op opcode.Code) bool {
	return !d.restricted || !d.forbidden.Has(op)
}

func (d *Decorator) Emit(op opcode.Code, args ...any) error {
	if !d.Allows(op) {
		Logger().Debug("rejected instruction",
			zap.Stringer("op", op),
			zap.Stringer("context", d.context))
		return errors.UnsupportedInstruction(op.String(), d.context.String())
	}
	if err := d.sink.Emit(op, args...); err != nil {
		return err
	}
	d.emitted = true
	if info := op.Info(); info != nil && info.AffectsStack() {
		d.stackChanged = true
	}
	return nil
}

func (d *Decorator) DeclareLocal(t *meta.Type, pinned bool) (Local, error) {
	return d.sink.DeclareLocal(t, pinned)
}

func (d *Decorator) DefineLabel() Label { return d.sink.DefineLabel() }

func (d *Decorator) MarkLabel(l Label) error { return d.sink.MarkLabel(l) }

func (d *Decorator) BeginScope() error { return d.structural(d.sink.BeginScope()) }

func (d *Decorator) EndScope() error { return d.structural(d.sink.EndScope()) }

// BeginRegion opens a nested region. In a catch body that has not yet
// touched the stack, the exception object is popped first so the nested
// try starts on an empty stack.
func (d *Decorator) BeginRegion() (Label, error) {
	if !d.context.opensRegions() {
		return NoLabel, errors.UnsupportedCall(errors.PhaseRegion, "begin_region", d.context.String(),
			"protected regions cannot be nested in a filter")
	}
	if d.context == ContextCatch && !d.stackChanged {
		if err := d.sink.Emit(opcode.Pop); err != nil {
			return NoLabel, err
		}
		d.emitted = true
		d.stackChanged = true
	}
	l, err := d.sink.BeginRegion()
	if err != nil {
		return NoLabel, err
	}
	d.opened++
	d.emitted = true
	return l, nil
}

// EndRegion closes a region. Try and handler bodies may only close regions
// they opened themselves.
func (d *Decorator) EndRegion() error {
	if d.context.guardsRegions() && d.opened == 0 {
		return errors.InvalidNesting(errors.PhaseRegion, "end_region",
			"no region was opened in this "+d.context.String()+" body")
	}
	if err := d.sink.EndRegion(); err != nil {
		return err
	}
	if d.opened > 0 {
		d.opened--
	}
	d.emitted = true
	return nil
}

func (d *Decorator) BeginCatch(t *meta.Type) error {
	if err := d.checkHandler("begin_catch"); err != nil {
		return err
	}
	return d.structural(d.sink.BeginCatch(t))
}

func (d *Decorator) BeginFinally() error {
	if err := d.checkHandler("begin_finally"); err != nil {
		return err
	}
	return d.structural(d.sink.BeginFinally())
}

func (d *Decorator) BeginFault() error {
	if err := d.checkHandler("begin_fault"); err != nil {
		return err
	}
	return d.structural(d.sink.BeginFault())
}

func (d *Decorator) BeginFilter() error {
	if err := d.checkHandler("begin_filter"); err != nil {
		return err
	}
	return d.structural(d.sink.BeginFilter())
}

func (d *Decorator) Throw(t *meta.Type) error {
	if err := d.sink.Throw(t); err != nil {
		return err
	}
	d.emitted = true
	d.stackChanged = true
	return nil
}

func (d *Decorator) WriteLine(msg string) error {
	if err := d.sink.WriteLine(msg); err != nil {
		return err
	}
	d.emitted = true
	d.stackChanged = true
	return nil
}

func (d *Decorator) Offset() int { return d.sink.Offset() }

// RegionDepth reports the sink's open-region depth, or 0 when the sink
// does not track it.
func (d *Decorator) RegionDepth() int {
	depth, _ := RegionDepth(d.sink)
	return depth
}

func (d *Decorator) checkHandler(call string) error {
	if d.context.opensHandlers() {
		return nil
	}
	return errors.UnsupportedCall(errors.PhaseHandler, call, d.context.String(),
		"handlers must be opened through the region builder")
}

func (d *Decorator) structural(err error) error {
	if err != nil {
		return err
	}
	d.emitted = true
	return nil
}
