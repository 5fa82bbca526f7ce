package body

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/cil-emit/emit"
	"github.com/wippyai/cil-emit/errors"
	"github.com/wippyai/cil-emit/internal/binary"
	"github.com/wippyai/cil-emit/meta"
	"github.com/wippyai/cil-emit/opcode"
)

// MethodBody is an in-memory method container. It implements emit.Emitter
// with no context restrictions; wrap it with emit.NewRoot before handing it
// to code generators.
//
// Protected regions follow the usual container discipline: every handler
// opening terminates the previous block (leave for try and catch blocks,
// endfinally for finally and fault, endfilter for a filter expression) and
// EndRegion terminates the last handler and marks the region end label.
type MethodBody struct {
	log    *zap.Logger
	w      *binary.Writer
	tokens *tokenTable
	name   string
	cfg    config

	labels     []int
	labelStack map[emit.Label]int
	fixups     []fixup

	locals  []emit.Local
	scopes  []*Scope
	closed  []Scope
	regions []*frame
	clauses []Clause

	stack    int
	maxStack int
	finished bool
}

type fixup struct {
	label emit.Label
	op    opcode.Code
	pos   int // operand position
	base  int // offset of the following instruction
	short bool
}

// Scope is a lexical scope recorded between BeginScope and EndScope.
type Scope struct {
	Locals []int
	Start  int
	End    int
	Depth  int
}

// New creates an empty method body.
func New(name string, opts ...Option) *MethodBody {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	log := cfg.logger
	if log == nil {
		log = Logger()
	}
	return &MethodBody{
		log:        log.With(zap.String("method", name)),
		w:          binary.NewWriter(),
		tokens:     newTokenTable(),
		name:       name,
		cfg:        cfg,
		labelStack: make(map[emit.Label]int),
	}
}

// Name returns the method name.
func (b *MethodBody) Name() string { return b.name }

// Offset returns the current code size in bytes.
func (b *MethodBody) Offset() int { return b.w.Len() }

// RegionDepth returns the number of open protected regions.
func (b *MethodBody) RegionDepth() int { return len(b.regions) }

// ScopeDepth returns the number of open lexical scopes.
func (b *MethodBody) ScopeDepth() int { return len(b.scopes) }

// MaxStack returns the running evaluation stack estimate.
func (b *MethodBody) MaxStack() int { return b.maxStack }

func (b *MethodBody) Emit(op opcode.Code, args ...any) error {
	if err := b.checkOpen(op.String()); err != nil {
		return err
	}
	info := op.Info()
	if info == nil {
		return errors.InvalidOperand(op.String(), uint16(op), "unknown opcode")
	}
	if info.Operand == opcode.OperandNone {
		if len(args) != 0 {
			return errors.InvalidOperand(info.Name, args, "instruction takes no operand")
		}
	} else if len(args) != 1 {
		return errors.InvalidOperand(info.Name, len(args),
			fmt.Sprintf("instruction takes exactly one %s operand", info.Operand))
	}

	var arg any
	if len(args) == 1 {
		arg = args[0]
	}

	// Encode into a scratch buffer so a rejected operand writes nothing.
	start := b.w.Len()
	ins := binary.NewWriter()
	ins.WriteBytes(op.Bytes())
	pending, err := b.encodeOperand(ins, info, arg, start)
	if err != nil {
		return err
	}
	b.w.WriteBytes(ins.Bytes())
	b.fixups = append(b.fixups, pending...)
	b.track(info, arg)

	b.log.Debug("emit",
		zap.Int("offset", start),
		zap.String("op", info.Name),
		zap.Int("stack", b.stack))
	return nil
}

func (b *MethodBody) DeclareLocal(t *meta.Type, pinned bool) (emit.Local, error) {
	if err := b.checkOpen("declare_local"); err != nil {
		return emit.Local{}, err
	}
	if t == nil {
		return emit.Local{}, errors.InvalidOperand("declare_local", nil, "local type is required")
	}
	if len(b.locals) > 0xFFFE {
		return emit.Local{}, errors.OutOfBounds(errors.PhaseEmit, len(b.locals), 0xFFFF)
	}
	l := emit.Local{Type: t, Index: len(b.locals), Pinned: pinned}
	b.locals = append(b.locals, l)
	if n := len(b.scopes); n > 0 {
		s := b.scopes[n-1]
		s.Locals = append(s.Locals, l.Index)
	}
	return l, nil
}

func (b *MethodBody) DefineLabel() emit.Label {
	b.labels = append(b.labels, -1)
	return emit.Label(len(b.labels) - 1)
}

// MarkLabel binds l to the current offset and patches every pending
// branch to it.
func (b *MethodBody) MarkLabel(l emit.Label) error {
	if err := b.checkOpen("mark_label"); err != nil {
		return err
	}
	if err := b.checkLabel(errors.PhaseEmit, l); err != nil {
		return err
	}
	if b.labels[l] >= 0 {
		return errors.InvalidOperand("mark_label", int(l), "label is already marked")
	}
	target := b.w.Len()
	b.labels[l] = target

	var firstErr error
	kept := b.fixups[:0]
	for _, f := range b.fixups {
		if f.label != l {
			kept = append(kept, f)
			continue
		}
		delta := target - f.base
		if f.short {
			if delta < -128 || delta > 127 {
				if firstErr == nil {
					firstErr = errors.InvalidOperand(f.op.String(), delta,
						fmt.Sprintf("branch to %s at IL_%04x does not fit a short offset", l, target))
				}
				continue
			}
			b.w.PatchByte(f.pos, byte(int8(delta)))
			continue
		}
		b.w.PatchU32(f.pos, uint32(int32(delta)))
	}
	b.fixups = kept

	if s, ok := b.labelStack[l]; ok && s > b.stack {
		b.stack = s
	}
	return firstErr
}

func (b *MethodBody) BeginScope() error {
	if err := b.checkOpen("begin_scope"); err != nil {
		return err
	}
	b.scopes = append(b.scopes, &Scope{Start: b.w.Len(), Depth: len(b.scopes)})
	return nil
}

func (b *MethodBody) EndScope() error {
	if err := b.checkOpen("end_scope"); err != nil {
		return err
	}
	n := len(b.scopes)
	if n == 0 {
		return errors.InvalidNesting(errors.PhaseEmit, "end_scope", "no open scope")
	}
	s := b.scopes[n-1]
	b.scopes = b.scopes[:n-1]
	s.End = b.w.Len()
	b.closed = append(b.closed, *s)
	return nil
}

// Throw emits newobj on t's parameterless constructor followed by throw.
func (b *MethodBody) Throw(t *meta.Type) error {
	if t == nil || !t.IsException() {
		return errors.InvalidOperand("throw", t, "type is not an exception")
	}
	ctor := t.Constructor()
	if ctor == nil {
		return errors.InvalidOperand("throw", t, "type has no parameterless constructor")
	}
	if err := b.Emit(opcode.Newobj, ctor); err != nil {
		return err
	}
	return b.Emit(opcode.Throw)
}

// WriteLine emits ldstr msg and a call to the configured write method.
func (b *MethodBody) WriteLine(msg string) error {
	if err := b.Emit(opcode.Ldstr, msg); err != nil {
		return err
	}
	return b.Emit(opcode.Call, b.cfg.writeLine)
}

func (b *MethodBody) checkOpen(op string) error {
	if b.finished {
		return errors.New(errors.PhaseEmit, errors.KindInvalidNesting).
			Op(op).
			Detail("method body %q is already finished", b.name).
			Build()
	}
	return nil
}

func (b *MethodBody) checkLabel(phase errors.Phase, l emit.Label) error {
	if l < 0 || int(l) >= len(b.labels) {
		return errors.UndefinedLabel(phase, int(l), "was not defined by this body")
	}
	return nil
}

// track updates the evaluation stack estimate after an instruction.
func (b *MethodBody) track(info *opcode.Info, arg any) {
	pop, push := info.Pop, info.Push
	if info.IsVariable() {
		pop, push = b.variableEffect(info.Code, arg)
	}
	b.stack -= pop
	if b.stack < 0 {
		b.stack = 0
	}
	b.stack += push
	b.raiseMax()

	switch v := arg.(type) {
	case emit.Label:
		b.noteTarget(v, info)
	case []emit.Label:
		for _, l := range v {
			b.noteTarget(l, info)
		}
	}

	switch info.Flow {
	case opcode.FlowBranch, opcode.FlowReturn, opcode.FlowThrow:
		b.stack = 0
	}
}

func (b *MethodBody) noteTarget(l emit.Label, info *opcode.Info) {
	depth := b.stack
	if info.Code == opcode.Leave || info.Code == opcode.LeaveS {
		depth = 0
	}
	if depth > b.labelStack[l] {
		b.labelStack[l] = depth
	}
}

func (b *MethodBody) variableEffect(op opcode.Code, arg any) (pop, push int) {
	switch v := arg.(type) {
	case *meta.Method:
		if op == opcode.Newobj {
			return v.NewobjEffect()
		}
		return v.CallEffect()
	case *meta.Signature:
		return v.CallEffect()
	}
	if op == opcode.Ret {
		return b.stack, 0
	}
	return 0, 0
}

func (b *MethodBody) raiseMax() {
	if b.stack > b.maxStack {
		b.maxStack = b.stack
	}
}

// enterHandler resets the stack estimate at a handler entry point.
func (b *MethodBody) enterHandler(depth int) {
	b.stack = depth
	b.raiseMax()
}
