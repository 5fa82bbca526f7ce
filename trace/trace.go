package trace

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/wippyai/cil-emit/emit"
	"github.com/wippyai/cil-emit/meta"
	"github.com/wippyai/cil-emit/opcode"
)

// Kind identifies the emitter call an Event records.
type Kind uint8

const (
	KindInstruction Kind = iota
	KindLocal
	KindLabel
	KindScopeBegin
	KindScopeEnd
	KindRegionBegin
	KindRegionEnd
	KindCatch
	KindFinally
	KindFault
	KindFilter
	KindThrow
	KindWriteLine
)

var kindNames = [...]string{
	KindInstruction: "instruction",
	KindLocal:       "local",
	KindLabel:       "label",
	KindScopeBegin:  "scope_begin",
	KindScopeEnd:    "scope_end",
	KindRegionBegin: "region_begin",
	KindRegionEnd:   "region_end",
	KindCatch:       "catch",
	KindFinally:     "finally",
	KindFault:       "fault",
	KindFilter:      "filter",
	KindThrow:       "throw",
	KindWriteLine:   "write_line",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Event describes one call made through the trace Emitter.
type Event struct {
	Operand any
	Err     error
	Text    string
	Offset  int
	Kind    Kind
	Op      opcode.Code
}

var (
	offsetStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	opStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	blockStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	operandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

// Emitter writes a readable trace of every call and delegates it to the
// wrapped emitter unchanged.
//
// Emitter deliberately does not implement emit.Unwrapper: restriction
// decorators wrap it as if it were the sink, so code emitted inside
// handler bodies is traced too.
type Emitter struct {
	inner      emit.Emitter
	out        io.Writer
	log        *zap.Logger
	breakpoint func(Event)
	indent     int
	styled     bool
}

// New wraps e.
func New(e emit.Emitter, opts ...Option) *Emitter {
	t := &Emitter{inner: e, log: zap.NewNop()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RegionDepth reports the open-region depth of the traced emitter.
func (t *Emitter) RegionDepth() int {
	depth, _ := emit.RegionDepth(t.inner)
	return depth
}

func (t *Emitter) Emit(op opcode.Code, args ...any) error {
	at := t.inner.Offset()
	err := t.inner.Emit(op, args...)
	ev := Event{Kind: KindInstruction, Offset: at, Op: op, Err: err}
	text := t.style(opStyle, op.String())
	if len(args) > 0 {
		ev.Operand = args[0]
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = FormatOperand(a)
		}
		text += " " + t.style(operandStyle, strings.Join(parts, ", "))
	}
	ev.Text = t.style(offsetStyle, fmt.Sprintf("IL_%04x:", at)) + " " + text
	t.record(ev)
	return err
}

func (t *Emitter) DeclareLocal(typ *meta.Type, pinned bool) (emit.Local, error) {
	l, err := t.inner.DeclareLocal(typ, pinned)
	text := fmt.Sprintf(".locals [%d] %s", l.Index, typ)
	if pinned {
		text += " pinned"
	}
	t.record(Event{Kind: KindLocal, Offset: t.inner.Offset(), Operand: l, Err: err, Text: t.style(blockStyle, text)})
	return l, err
}

func (t *Emitter) DefineLabel() emit.Label { return t.inner.DefineLabel() }

func (t *Emitter) MarkLabel(l emit.Label) error {
	err := t.inner.MarkLabel(l)
	t.record(Event{Kind: KindLabel, Offset: t.inner.Offset(), Operand: l, Err: err, Text: t.style(operandStyle, l.String()+":")})
	return err
}

func (t *Emitter) BeginScope() error {
	err := t.inner.BeginScope()
	t.open(Event{Kind: KindScopeBegin, Offset: t.inner.Offset(), Err: err}, "{")
	return err
}

func (t *Emitter) EndScope() error {
	err := t.inner.EndScope()
	t.close(Event{Kind: KindScopeEnd, Offset: t.inner.Offset(), Err: err}, "}")
	return err
}

func (t *Emitter) BeginRegion() (emit.Label, error) {
	l, err := t.inner.BeginRegion()
	t.open(Event{Kind: KindRegionBegin, Offset: t.inner.Offset(), Operand: l, Err: err}, ".try {")
	return l, err
}

func (t *Emitter) EndRegion() error {
	err := t.inner.EndRegion()
	t.close(Event{Kind: KindRegionEnd, Offset: t.inner.Offset(), Err: err}, "}")
	return err
}

func (t *Emitter) BeginCatch(typ *meta.Type) error {
	err := t.inner.BeginCatch(typ)
	header := "} catch " + typ.String() + " {"
	if typ == nil {
		header = "} {"
	}
	t.handler(Event{Kind: KindCatch, Offset: t.inner.Offset(), Operand: typ, Err: err}, header)
	return err
}

func (t *Emitter) BeginFinally() error {
	err := t.inner.BeginFinally()
	t.handler(Event{Kind: KindFinally, Offset: t.inner.Offset(), Err: err}, "} finally {")
	return err
}

func (t *Emitter) BeginFault() error {
	err := t.inner.BeginFault()
	t.handler(Event{Kind: KindFault, Offset: t.inner.Offset(), Err: err}, "} fault {")
	return err
}

func (t *Emitter) BeginFilter() error {
	err := t.inner.BeginFilter()
	t.handler(Event{Kind: KindFilter, Offset: t.inner.Offset(), Err: err}, "} filter {")
	return err
}

func (t *Emitter) Throw(typ *meta.Type) error {
	at := t.inner.Offset()
	err := t.inner.Throw(typ)
	text := t.style(offsetStyle, fmt.Sprintf("IL_%04x:", at)) + " " +
		t.style(opStyle, "throw") + " " + t.style(operandStyle, typ.String())
	t.record(Event{Kind: KindThrow, Offset: at, Operand: typ, Err: err, Text: text})
	return err
}

func (t *Emitter) WriteLine(msg string) error {
	at := t.inner.Offset()
	err := t.inner.WriteLine(msg)
	text := t.style(offsetStyle, fmt.Sprintf("IL_%04x:", at)) + " " +
		t.style(opStyle, "writeline") + " " + t.style(operandStyle, strconv.Quote(msg))
	t.record(Event{Kind: KindWriteLine, Offset: at, Operand: msg, Err: err, Text: text})
	return err
}

func (t *Emitter) Offset() int { return t.inner.Offset() }

func (t *Emitter) open(ev Event, text string) {
	ev.Text = t.style(blockStyle, text)
	t.record(ev)
	if ev.Err == nil {
		t.indent++
	}
}

func (t *Emitter) close(ev Event, text string) {
	if ev.Err == nil && t.indent > 0 {
		t.indent--
	}
	ev.Text = t.style(blockStyle, text)
	t.record(ev)
}

// handler prints a block header one level out, at the region's own depth.
func (t *Emitter) handler(ev Event, text string) {
	ev.Text = t.style(blockStyle, text)
	if t.indent > 0 {
		t.indent--
		t.record(ev)
		t.indent++
		return
	}
	t.record(ev)
}

func (t *Emitter) record(ev Event) {
	if t.out != nil {
		line := strings.Repeat("  ", t.indent) + ev.Text
		if ev.Err != nil {
			line += "  " + t.style(errorStyle, "// failed: "+ev.Err.Error())
		}
		fmt.Fprintln(t.out, line)
	}

	fields := []zap.Field{
		zap.Stringer("kind", ev.Kind),
		zap.Int("offset", ev.Offset),
	}
	if ev.Kind == KindInstruction {
		fields = append(fields, zap.Stringer("op", ev.Op))
	}
	if ev.Err != nil {
		fields = append(fields, zap.Error(ev.Err))
	}
	t.log.Debug("trace", fields...)

	if t.breakpoint != nil {
		t.breakpoint(ev)
	}
}

func (t *Emitter) style(s lipgloss.Style, text string) string {
	if !t.styled {
		return text
	}
	return s.Render(text)
}

// FormatOperand renders an instruction operand the way trace lines show it.
func FormatOperand(v any) string {
	switch v := v.(type) {
	case string:
		return strconv.Quote(v)
	case []emit.Label:
		parts := make([]string, len(v))
		for i, l := range v {
			parts[i] = l.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(v)
}
