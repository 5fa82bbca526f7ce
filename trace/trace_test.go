package trace_test

import (
	"bytes"
	stderrors "errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/cil-emit/body"
	"github.com/wippyai/cil-emit/emit"
	"github.com/wippyai/cil-emit/errors"
	"github.com/wippyai/cil-emit/meta"
	"github.com/wippyai/cil-emit/opcode"
	"github.com/wippyai/cil-emit/region"
	"github.com/wippyai/cil-emit/trace"
)

func TestTraceRegion(t *testing.T) {
	var buf bytes.Buffer
	b := body.New("m")
	root := emit.NewRoot(trace.New(b, trace.WithWriter(&buf)))

	_, err := region.Begin(root, func(e emit.Emitter) error {
		return e.Emit(opcode.LdcI4S, int8(7))
	}).
		Catch(meta.DivideByZeroException, func(e emit.Emitter) error {
			return e.WriteLine("caught")
		}).
		End()
	if err != nil {
		t.Fatal(err)
	}
	if err := root.Emit(opcode.Ret); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Finish(); err != nil {
		t.Fatal(err)
	}

	want := []string{
		".try {",
		"  IL_0000: ldc.i4.s 7",
		"} catch class System.DivideByZeroException {",
		`  IL_0007: writeline "caught"`,
		"}",
		"IL_0016: ret",
	}
	got := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(got) != len(want) {
		t.Fatalf("trace:\n%s", buf.String())
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTraceKeepsRestrictions(t *testing.T) {
	var buf bytes.Buffer
	root := emit.NewRoot(trace.New(body.New("m"), trace.WithWriter(&buf)))

	blk := region.Begin(root, nil).Finally(func(e emit.Emitter) error {
		return e.Emit(opcode.Ret)
	})
	if !stderrors.Is(blk.Err(), errors.ErrUnsupportedInstruction) {
		t.Fatalf("got %v, want unsupported instruction", blk.Err())
	}
	if strings.Contains(buf.String(), "ret") {
		t.Errorf("rejected instruction reached the trace:\n%s", buf.String())
	}
}

func TestTraceReportsFailures(t *testing.T) {
	var buf bytes.Buffer
	var events []trace.Event
	tr := trace.New(body.New("m"),
		trace.WithWriter(&buf),
		trace.WithBreakpoint(func(ev trace.Event) { events = append(events, ev) }))

	err := tr.Emit(opcode.LdcI4S, 1000)
	if err == nil {
		t.Fatal("expected operand error")
	}
	if len(events) != 1 || events[0].Err == nil || events[0].Op != opcode.LdcI4S {
		t.Fatalf("events = %+v", events)
	}
	if !strings.Contains(buf.String(), "// failed:") {
		t.Errorf("failure not marked:\n%s", buf.String())
	}
}

func TestTraceBreakpointKinds(t *testing.T) {
	var kinds []trace.Kind
	tr := trace.New(body.New("m"), trace.WithBreakpoint(func(ev trace.Event) {
		kinds = append(kinds, ev.Kind)
	}))

	l := tr.DefineLabel()
	_ = tr.BeginScope()
	_, _ = tr.DeclareLocal(meta.Int32, false)
	_ = tr.MarkLabel(l)
	_ = tr.EndScope()
	_, _ = tr.BeginRegion()
	_ = tr.BeginFilter()
	_ = tr.BeginCatch(nil)
	_ = tr.BeginFinally()
	_ = tr.Throw(meta.Exception)
	_ = tr.EndRegion()

	want := []trace.Kind{
		trace.KindScopeBegin, trace.KindLocal, trace.KindLabel, trace.KindScopeEnd,
		trace.KindRegionBegin, trace.KindFilter, trace.KindCatch, trace.KindFinally,
		trace.KindThrow, trace.KindRegionEnd,
	}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, kinds[i], want[i])
		}
	}
}

func TestTraceLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tr := trace.New(body.New("m"), trace.WithLogger(zap.New(core)))

	_ = tr.Emit(opcode.Nop)
	_ = tr.Emit(opcode.Ldloc, 3)

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d log entries, want 2", len(entries))
	}
	if op := entries[0].ContextMap()["op"]; op != "nop" {
		t.Errorf("op field = %v", op)
	}
	if _, ok := entries[1].ContextMap()["error"]; !ok {
		t.Error("failed call should log its error")
	}
}

func TestTraceStyles(t *testing.T) {
	var plain, styled bytes.Buffer
	_ = trace.New(body.New("m"), trace.WithWriter(&plain)).Emit(opcode.Nop)
	_ = trace.New(body.New("m"), trace.WithWriter(&styled), trace.WithStyles(true)).Emit(opcode.Nop)
	if plain.String() != "IL_0000: nop\n" {
		t.Errorf("plain = %q", plain.String())
	}
	if !strings.Contains(styled.String(), "nop") {
		t.Errorf("styled = %q", styled.String())
	}
}

func TestRegionDepthThroughTrace(t *testing.T) {
	b := body.New("m")
	tr := trace.New(b)
	_, _ = tr.BeginRegion()
	if depth, ok := emit.RegionDepth(emit.NewRoot(tr)); !ok || depth != 1 {
		t.Errorf("RegionDepth = %d, %v", depth, ok)
	}
}

func TestFormatOperand(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{in: "a\"b", want: `"a\"b"`},
		{in: int8(-3), want: "-3"},
		{in: emit.Label(2), want: "L2"},
		{in: []emit.Label{0, 1}, want: "(L0, L1)"},
		{in: meta.Exception, want: "class System.Exception"},
		{in: emit.Local{Index: 1, Type: meta.Int32}, want: "V_1"},
	}
	for _, tt := range tests {
		if got := trace.FormatOperand(tt.in); got != tt.want {
			t.Errorf("FormatOperand(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
