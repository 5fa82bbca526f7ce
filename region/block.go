package region

import (
	"go.uber.org/zap"

	"github.com/wippyai/cil-emit/emit"
	"github.com/wippyai/cil-emit/errors"
	"github.com/wippyai/cil-emit/meta"
	"github.com/wippyai/cil-emit/opcode"
)

// State is the builder's position in the region lifecycle.
type State uint8

const (
	StateNoHandler  State = iota // region open, no handler yet
	StateHasHandler              // at least one catch, filter or finally
	StateHasFault                // a fault handler; nothing else may follow
	StateInFilter                // filter emitted, waiting for OnPass
	StateClosed
)

var stateNames = [...]string{
	StateNoHandler:  "no-handler",
	StateHasHandler: "has-handler",
	StateHasFault:   "has-fault",
	StateInFilter:   "in-filter",
	StateClosed:     "closed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Block builds one protected region. Calls chain; the first failure is
// kept and every later call becomes a no-op, so the chain is checked once
// at End:
//
//	_, err := region.Begin(root, tryBody).
//		Catch(meta.DivideByZeroException, onDivide).
//		Finally(cleanup).
//		End()
type Block struct {
	origin emit.Emitter
	sink   emit.Emitter
	err    error
	end    emit.Label
	depth  int
	state  State
	guards map[emit.Context]*emit.Decorator

	tracksDepth bool
	hasFinally  bool
}

// Begin opens a protected region on e and runs try with a try-body
// emitter before returning.
func Begin(e emit.Emitter, try func(emit.Emitter) error) *Block {
	b := &Block{origin: e, sink: emit.Unwrap(e), end: emit.NoLabel}
	end, err := e.BeginRegion()
	if err != nil {
		b.err = err
		return b
	}
	b.end = end
	b.depth, b.tracksDepth = emit.RegionDepth(e)
	Logger().Debug("region begin", zap.Stringer("end", end), zap.Int("depth", b.depth))

	if err := run(b.guard(emit.ContextTry), try); err != nil {
		b.err = err
	}
	return b
}

// Err returns the first error recorded by the chain.
func (b *Block) Err() error { return b.err }

// State returns the current lifecycle state.
func (b *Block) State() State { return b.state }

// EndLabel returns the region end label, or emit.NoLabel if the region
// could not be opened.
func (b *Block) EndLabel() emit.Label { return b.end }

// Catch adds a catch handler for t. A nil t catches every exception.
// If h leaves the evaluation stack untouched the exception object is
// popped after it.
func (b *Block) Catch(t *meta.Type, h func(emit.Emitter) error) *Block {
	if !b.ready("catch") {
		return b
	}
	if b.state == StateHasFault {
		return b.fail(faultOnly("catch"))
	}
	if t == nil {
		t = meta.Object
	} else if !t.CanCatch() {
		return b.fail(errors.InvalidHandlerType(t.FullName()))
	}
	if err := b.sink.BeginCatch(t); err != nil {
		return b.fail(err)
	}
	if err := b.handler(emit.ContextCatch, h, true); err != nil {
		return b.fail(err)
	}
	b.state = StateHasHandler
	Logger().Debug("catch added", zap.Stringer("type", t))
	return b
}

// CatchWhen adds a filter whose predicate is emitted by pred. pred starts
// with the exception object on the stack and must leave an int32 verdict;
// if it leaves the stack untouched the object is replaced by 1.
func (b *Block) CatchWhen(pred func(emit.Emitter) error) *FilterBlock {
	return b.CatchWhenType(nil, pred)
}

// CatchWhenType adds a filter that first tests the exception against t.
// On mismatch the filter yields 0 without reaching pred's code; on match
// pred runs with the exception cast to t on the stack.
func (b *Block) CatchWhenType(t *meta.Type, pred func(emit.Emitter) error) *FilterBlock {
	f := &FilterBlock{b: b}
	if !b.ready("catch_when") {
		return f
	}
	if b.state == StateHasFault {
		b.fail(faultOnly("catch_when"))
		return f
	}
	if t != nil && !t.CanCatch() {
		b.fail(errors.InvalidHandlerType(t.FullName()))
		return f
	}
	if err := b.sink.BeginFilter(); err != nil {
		b.fail(err)
		return f
	}
	if err := b.filter(t, pred); err != nil {
		b.fail(err)
		return f
	}
	b.state = StateInFilter
	Logger().Debug("filter added", zap.Stringer("type", t))
	return f
}

// Finally adds the region's finally handler. A region has at most one.
//
// Handlers keep call order. The finally clause covers the try block and
// the handlers added before it; catch and filter handlers added after it
// protect the try block together with the finally handler:
//
//	.try { try } finally { ... }      // inner clause
//	.try { ...  } catch T { ... }     // outer clause, same start
func (b *Block) Finally(h func(emit.Emitter) error) *Block {
	if !b.ready("finally") {
		return b
	}
	switch {
	case b.state == StateHasFault:
		return b.fail(faultOnly("finally"))
	case b.hasFinally:
		return b.fail(errors.InvalidNesting(errors.PhaseRegion, "finally", "region already has a finally handler"))
	}
	if err := b.sink.BeginFinally(); err != nil {
		return b.fail(err)
	}
	if err := b.handler(emit.ContextFinally, h, false); err != nil {
		return b.fail(err)
	}
	b.hasFinally = true
	b.state = StateHasHandler
	Logger().Debug("finally added")
	return b
}

// Fault adds a fault handler. It must be the region's only handler.
// Containers that cannot encode fault blocks report KindPlatformUnsupported.
func (b *Block) Fault(h func(emit.Emitter) error) *Block {
	if !b.ready("fault") {
		return b
	}
	if b.state != StateNoHandler {
		return b.fail(faultOnly("fault"))
	}
	if err := b.sink.BeginFault(); err != nil {
		return b.fail(err)
	}
	if err := b.handler(emit.ContextFault, h, false); err != nil {
		return b.fail(err)
	}
	b.state = StateHasFault
	Logger().Debug("fault added")
	return b
}

// End closes the region and returns the emitter passed to Begin.
func (b *Block) End() (emit.Emitter, error) {
	if !b.ready("end") {
		return b.origin, b.err
	}
	if b.state == StateNoHandler {
		b.fail(errors.MissingHandler())
		return b.origin, b.err
	}
	if err := b.origin.EndRegion(); err != nil {
		b.fail(err)
		return b.origin, b.err
	}
	b.state = StateClosed
	Logger().Debug("region end", zap.Stringer("end", b.end))
	return b.origin, nil
}

// ready reports whether op may proceed, recording an error if not.
func (b *Block) ready(op string) bool {
	if b.err != nil {
		return false
	}
	switch b.state {
	case StateClosed:
		b.fail(errors.Closed(op))
		return false
	case StateInFilter:
		if op != "on_pass" {
			b.fail(errors.InvalidNesting(errors.PhaseRegion, op, "a filter must be followed by OnPass"))
			return false
		}
	}
	if b.tracksDepth {
		depth, _ := emit.RegionDepth(b.sink)
		switch {
		case depth > b.depth:
			b.fail(errors.New(errors.PhaseRegion, errors.KindInvalidNesting).
				Op(op).
				Value(depth - b.depth).
				Detail("%d nested region(s) still open", depth-b.depth).
				Build())
			return false
		case depth < b.depth:
			b.fail(errors.New(errors.PhaseRegion, errors.KindInvalidNesting).
				Op(op).
				Value(b.depth - depth).
				Detail("region was closed underneath the builder").
				Build())
			return false
		}
	}
	return true
}

func (b *Block) fail(err error) *Block {
	if b.err == nil {
		b.err = err
		Logger().Debug("region failed", zap.Stringer("state", b.state), zap.Error(err))
	}
	return b
}

// handler runs h under ctx restrictions. With discard set, the exception
// object is popped when h did not touch the stack.
func (b *Block) handler(ctx emit.Context, h func(emit.Emitter) error, discard bool) error {
	d := b.guard(ctx)
	if err := run(d, h); err != nil {
		return err
	}
	if !discard {
		return nil
	}
	return b.discard(d)
}

// discard pops the exception object when the handler body left the stack
// untouched.
func (b *Block) discard(t emit.Tracker) error {
	if t.StackChanged() {
		return nil
	}
	Logger().Debug("discarding exception object", zap.Bool("empty", !t.Emitted()))
	return b.sink.Emit(opcode.Pop)
}

// guard returns the block's decorator for ctx with cleared flags. Handlers
// of the same kind share one decorator.
func (b *Block) guard(ctx emit.Context) *emit.Decorator {
	if d, ok := b.guards[ctx]; ok {
		d.Reset()
		return d
	}
	if b.guards == nil {
		b.guards = make(map[emit.Context]*emit.Decorator)
	}
	d := emit.Wrap(b.sink, ctx)
	b.guards[ctx] = d
	return d
}

// filter emits the filter expression. The endfilter is added by the sink
// when the pass handler opens.
func (b *Block) filter(t *meta.Type, pred func(emit.Emitter) error) error {
	var done emit.Label
	if t != nil {
		match := b.sink.DefineLabel()
		done = b.sink.DefineLabel()
		prologue := []struct {
			arg any
			op  opcode.Code
		}{
			{op: opcode.Isinst, arg: t},
			{op: opcode.Dup},
			{op: opcode.Brtrue, arg: match},
			{op: opcode.Pop},
			{op: opcode.LdcI40},
			{op: opcode.Br, arg: done},
		}
		for _, in := range prologue {
			var err error
			if in.arg != nil {
				err = b.sink.Emit(in.op, in.arg)
			} else {
				err = b.sink.Emit(in.op)
			}
			if err != nil {
				return err
			}
		}
		if err := b.sink.MarkLabel(match); err != nil {
			return err
		}
	}

	d := b.guard(emit.ContextFilter)
	if err := run(d, pred); err != nil {
		return err
	}
	if !d.StackChanged() {
		if err := b.sink.Emit(opcode.Pop); err != nil {
			return err
		}
		if err := b.sink.Emit(opcode.LdcI41); err != nil {
			return err
		}
	}
	if t != nil {
		return b.sink.MarkLabel(done)
	}
	return nil
}

func run(e emit.Emitter, fn func(emit.Emitter) error) error {
	if fn == nil {
		return nil
	}
	return fn(e)
}

func faultOnly(op string) error {
	return errors.InvalidNesting(errors.PhaseRegion, op, "a fault handler must be the only handler")
}
