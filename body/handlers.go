package body

import (
	"go.uber.org/zap"

	"github.com/wippyai/cil-emit/emit"
	"github.com/wippyai/cil-emit/errors"
	"github.com/wippyai/cil-emit/meta"
	"github.com/wippyai/cil-emit/opcode"
)

// ClauseKind is the kind of an exception handling clause.
type ClauseKind uint8

const (
	ClauseCatch ClauseKind = iota
	ClauseFilter
	ClauseFinally
	ClauseFault
)

var clauseNames = [...]string{
	ClauseCatch:   "catch",
	ClauseFilter:  "filter",
	ClauseFinally: "finally",
	ClauseFault:   "fault",
}

func (k ClauseKind) String() string {
	if int(k) < len(clauseNames) {
		return clauseNames[k]
	}
	return "unknown"
}

// Flags returns the clause flags as encoded in the method's EH section.
func (k ClauseKind) Flags() uint32 {
	switch k {
	case ClauseFilter:
		return 0x1
	case ClauseFinally:
		return 0x2
	case ClauseFault:
		return 0x4
	}
	return 0
}

// Clause is one exception handling clause. Clauses are stored in the order
// their handlers were closed, so nested clauses precede enclosing ones.
type Clause struct {
	CatchType     *meta.Type
	Kind          ClauseKind
	ClassToken    Token
	TryOffset     int
	TryLength     int
	HandlerOffset int
	HandlerLength int
	FilterOffset  int
}

type blockKind uint8

const (
	blockTry blockKind = iota
	blockCatch
	blockFilter
	blockFilterHandler
	blockFinally
	blockFault
)

// frame tracks one open protected region.
type frame struct {
	catchType   *meta.Type
	end         emit.Label
	start       int
	tryEnd      int
	blockStart  int
	filterStart int
	finallyEnd  int
	handlers    int
	block       blockKind
	hasFinally  bool
	hasFault    bool
}

// BeginRegion opens a protected region and returns its end label.
func (b *MethodBody) BeginRegion() (emit.Label, error) {
	if err := b.checkOpen("begin_region"); err != nil {
		return emit.NoLabel, err
	}
	f := &frame{start: b.w.Len(), end: b.DefineLabel(), tryEnd: -1}
	b.regions = append(b.regions, f)
	b.log.Debug("begin region", zap.Int("offset", f.start), zap.Int("depth", len(b.regions)))
	return f.end, nil
}

// EndRegion terminates the current handler and closes the innermost region.
func (b *MethodBody) EndRegion() error {
	f, err := b.current("end_region")
	if err != nil {
		return err
	}
	if f.handlers == 0 {
		return errors.New(errors.PhaseRegion, errors.KindMissingHandler).
			Op("end_region").
			Detail("no handler was started").
			Build()
	}
	if f.block == blockFilter {
		return errors.InvalidNesting(errors.PhaseRegion, "end_region", "filter has no handler")
	}
	if err := b.closeBlock(f); err != nil {
		return err
	}
	b.regions = b.regions[:len(b.regions)-1]
	if err := b.MarkLabel(f.end); err != nil {
		return err
	}
	b.stack = 0
	b.log.Debug("end region", zap.Int("offset", b.w.Len()), zap.Int("depth", len(b.regions)))
	return nil
}

// BeginCatch opens a catch handler for t. A nil t opens the handler of the
// preceding filter; meta.Object catches everything.
func (b *MethodBody) BeginCatch(t *meta.Type) error {
	f, err := b.current("begin_catch")
	if err != nil {
		return err
	}
	if t == nil {
		if f.block != blockFilter {
			return errors.InvalidNesting(errors.PhaseHandler, "begin_catch", "an untyped catch must follow a filter")
		}
		if err := b.Emit(opcode.Endfilter); err != nil {
			return err
		}
		f.block = blockFilterHandler
		f.blockStart = b.w.Len()
		b.enterHandler(1)
		b.log.Debug("begin filter handler", zap.Int("offset", f.blockStart))
		return nil
	}
	if f.hasFault {
		return errors.InvalidNesting(errors.PhaseHandler, "begin_catch", "a fault handler must be the only handler")
	}
	if f.block == blockFilter {
		return errors.InvalidNesting(errors.PhaseHandler, "begin_catch", "a filter must be followed by its handler")
	}
	if t != meta.Object && !t.CanCatch() {
		return errors.InvalidHandlerType(t.FullName())
	}
	if err := b.closeBlock(f); err != nil {
		return err
	}
	f.block = blockCatch
	f.catchType = t
	f.blockStart = b.w.Len()
	f.handlers++
	b.enterHandler(1)
	b.log.Debug("begin catch", zap.Int("offset", f.blockStart), zap.Stringer("type", t))
	return nil
}

func (b *MethodBody) BeginFinally() error {
	f, err := b.current("begin_finally")
	if err != nil {
		return err
	}
	switch {
	case f.hasFault:
		return errors.InvalidNesting(errors.PhaseHandler, "begin_finally", "a fault handler must be the only handler")
	case f.hasFinally:
		return errors.InvalidNesting(errors.PhaseHandler, "begin_finally", "region already has a finally handler")
	case f.block == blockFilter:
		return errors.InvalidNesting(errors.PhaseHandler, "begin_finally", "a filter must be followed by its handler")
	}
	if err := b.closeBlock(f); err != nil {
		return err
	}
	f.block = blockFinally
	f.blockStart = b.w.Len()
	f.handlers++
	f.hasFinally = true
	b.enterHandler(0)
	b.log.Debug("begin finally", zap.Int("offset", f.blockStart))
	return nil
}

func (b *MethodBody) BeginFault() error {
	if !b.cfg.faultFilter {
		return errors.PlatformUnsupported("begin_fault")
	}
	f, err := b.current("begin_fault")
	if err != nil {
		return err
	}
	if f.handlers > 0 {
		return errors.InvalidNesting(errors.PhaseHandler, "begin_fault", "a fault handler must be the only handler")
	}
	if err := b.closeBlock(f); err != nil {
		return err
	}
	f.block = blockFault
	f.blockStart = b.w.Len()
	f.handlers++
	f.hasFault = true
	b.enterHandler(0)
	b.log.Debug("begin fault", zap.Int("offset", f.blockStart))
	return nil
}

func (b *MethodBody) BeginFilter() error {
	if !b.cfg.faultFilter {
		return errors.PlatformUnsupported("begin_filter")
	}
	f, err := b.current("begin_filter")
	if err != nil {
		return err
	}
	switch {
	case f.hasFault:
		return errors.InvalidNesting(errors.PhaseHandler, "begin_filter", "a fault handler must be the only handler")
	case f.block == blockFilter:
		return errors.InvalidNesting(errors.PhaseHandler, "begin_filter", "a filter must be followed by its handler")
	}
	if err := b.closeBlock(f); err != nil {
		return err
	}
	f.block = blockFilter
	f.filterStart = b.w.Len()
	f.handlers++
	b.enterHandler(1)
	b.log.Debug("begin filter", zap.Int("offset", f.filterStart))
	return nil
}

func (b *MethodBody) current(op string) (*frame, error) {
	if err := b.checkOpen(op); err != nil {
		return nil, err
	}
	if len(b.regions) == 0 {
		return nil, errors.OutsideRegion(op)
	}
	return b.regions[len(b.regions)-1], nil
}

// closeBlock terminates the block f is in and records its clause.
func (b *MethodBody) closeBlock(f *frame) error {
	switch f.block {
	case blockTry:
		if err := b.Emit(opcode.Leave, f.end); err != nil {
			return err
		}
		f.tryEnd = b.w.Len()
		return nil
	case blockCatch, blockFilterHandler:
		if err := b.Emit(opcode.Leave, f.end); err != nil {
			return err
		}
	case blockFinally, blockFault:
		if err := b.Emit(opcode.Endfinally); err != nil {
			return err
		}
		if f.block == blockFinally {
			f.finallyEnd = b.w.Len()
		}
	case blockFilter:
		return errors.InvalidNesting(errors.PhaseHandler, "close", "a filter must be followed by its handler")
	}
	b.clauses = append(b.clauses, b.clause(f))
	return nil
}

func (b *MethodBody) clause(f *frame) Clause {
	c := Clause{
		TryOffset:     f.start,
		TryLength:     f.tryEnd - f.start,
		HandlerOffset: f.blockStart,
		HandlerLength: b.w.Len() - f.blockStart,
	}
	if f.finallyEnd > f.start {
		// Handlers opened after the finally protect the try-finally pair,
		// so the finally clause nests inside theirs.
		c.TryLength = f.finallyEnd - f.start
	}
	switch f.block {
	case blockCatch:
		c.Kind = ClauseCatch
		c.CatchType = f.catchType
		c.ClassToken = b.tokens.typeRef(f.catchType)
	case blockFilterHandler:
		c.Kind = ClauseFilter
		c.FilterOffset = f.filterStart
	case blockFinally:
		// A finally protects the try block and every handler before it.
		c.Kind = ClauseFinally
		c.TryLength = f.blockStart - f.start
	case blockFault:
		c.Kind = ClauseFault
	}
	return c
}
