package region_test

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/wippyai/cil-emit/body"
	"github.com/wippyai/cil-emit/emit"
	"github.com/wippyai/cil-emit/errors"
	"github.com/wippyai/cil-emit/meta"
	"github.com/wippyai/cil-emit/opcode"
	"github.com/wippyai/cil-emit/region"
)

func newRoot(opts ...body.Option) (*body.MethodBody, *emit.Root) {
	b := body.New("test", opts...)
	return b, emit.NewRoot(b)
}

func emitOp(op opcode.Code, args ...any) func(emit.Emitter) error {
	return func(e emit.Emitter) error {
		return e.Emit(op, args...)
	}
}

func finish(t *testing.T, b *body.MethodBody) *body.Method {
	t.Helper()
	m, err := b.Finish()
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	return m
}

func decode(t *testing.T, code []byte) []body.Instruction {
	t.Helper()
	instrs, err := body.Decode(code)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return instrs
}

// span returns the opcodes decoded in [from, to).
func span(t *testing.T, m *body.Method, from, to int) []opcode.Code {
	t.Helper()
	var out []opcode.Code
	for _, in := range decode(t, m.Code) {
		if in.Offset >= from && in.Offset < to {
			out = append(out, in.Op)
		}
	}
	return out
}

func sameOps(a, b []opcode.Code) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestHandlersInCallOrder(t *testing.T) {
	catchA := func(blk *region.Block) *region.Block {
		return blk.Catch(meta.ArgumentException, emitOp(opcode.Pop))
	}
	catchB := func(blk *region.Block) *region.Block {
		return blk.Catch(meta.Exception, nil)
	}
	fin := func(blk *region.Block) *region.Block {
		return blk.Finally(emitOp(opcode.Nop))
	}

	tests := []struct {
		name  string
		steps []func(*region.Block) *region.Block
		kinds []body.ClauseKind
	}{
		{name: "single catch", steps: []func(*region.Block) *region.Block{catchA}, kinds: []body.ClauseKind{body.ClauseCatch}},
		{name: "finally only", steps: []func(*region.Block) *region.Block{fin}, kinds: []body.ClauseKind{body.ClauseFinally}},
		{
			name:  "two catches and finally",
			steps: []func(*region.Block) *region.Block{catchA, catchB, fin},
			kinds: []body.ClauseKind{body.ClauseCatch, body.ClauseCatch, body.ClauseFinally},
		},
		{
			name:  "finally between catches",
			steps: []func(*region.Block) *region.Block{catchA, fin, catchB},
			kinds: []body.ClauseKind{body.ClauseCatch, body.ClauseFinally, body.ClauseCatch},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, root := newRoot()
			blk := region.Begin(root, emitOp(opcode.Nop))
			for _, step := range tt.steps {
				blk = step(blk)
			}
			e, err := blk.End()
			if err != nil {
				t.Fatalf("End: %v", err)
			}
			if e != root {
				t.Error("End must return the emitter passed to Begin")
			}
			if blk.State() != region.StateClosed {
				t.Errorf("state = %s, want closed", blk.State())
			}

			m := finish(t, b)
			if len(m.Clauses) != len(tt.kinds) {
				t.Fatalf("got %d clauses, want %d", len(m.Clauses), len(tt.kinds))
			}
			prev := -1
			for i, c := range m.Clauses {
				if c.Kind != tt.kinds[i] {
					t.Errorf("clause %d kind = %s, want %s", i, c.Kind, tt.kinds[i])
				}
				if c.HandlerOffset <= prev {
					t.Errorf("clause %d handler at %d is not after %d", i, c.HandlerOffset, prev)
				}
				prev = c.HandlerOffset
			}
		})
	}
}

func TestFaultExclusive(t *testing.T) {
	tests := []struct {
		name   string
		before func(*region.Block) *region.Block
		after  func(*region.Block) *region.Block
	}{
		{
			name:   "fault after catch",
			before: func(blk *region.Block) *region.Block { return blk.Catch(meta.Exception, nil) },
			after:  func(blk *region.Block) *region.Block { return blk.Fault(nil) },
		},
		{
			name:   "fault after finally",
			before: func(blk *region.Block) *region.Block { return blk.Finally(nil) },
			after:  func(blk *region.Block) *region.Block { return blk.Fault(nil) },
		},
		{
			name:   "fault after filter",
			before: func(blk *region.Block) *region.Block { return blk.CatchWhen(nil).OnPass(nil) },
			after:  func(blk *region.Block) *region.Block { return blk.Fault(nil) },
		},
		{
			name:   "catch after fault",
			before: func(blk *region.Block) *region.Block { return blk.Fault(nil) },
			after:  func(blk *region.Block) *region.Block { return blk.Catch(meta.Exception, nil) },
		},
		{
			name:   "finally after fault",
			before: func(blk *region.Block) *region.Block { return blk.Fault(nil) },
			after:  func(blk *region.Block) *region.Block { return blk.Finally(nil) },
		},
		{
			name:   "filter after fault",
			before: func(blk *region.Block) *region.Block { return blk.Fault(nil) },
			after: func(blk *region.Block) *region.Block {
				f := blk.CatchWhen(nil)
				if f.Err() == nil {
					return f.OnPass(nil)
				}
				return blk
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, root := newRoot()
			blk := tt.before(region.Begin(root, nil))
			if err := blk.Err(); err != nil {
				t.Fatalf("setup: %v", err)
			}
			offset := b.Offset()
			tt.after(blk)
			if !stderrors.Is(blk.Err(), errors.ErrInvalidNesting) {
				t.Fatalf("got %v, want invalid nesting", blk.Err())
			}
			if b.Offset() != offset {
				t.Errorf("rejected call emitted %d bytes", b.Offset()-offset)
			}
		})
	}
}

func TestEndWithoutHandler(t *testing.T) {
	_, root := newRoot()
	_, err := region.Begin(root, emitOp(opcode.Nop)).End()
	if !stderrors.Is(err, errors.ErrMissingHandler) {
		t.Errorf("got %v, want missing handler", err)
	}
}

func TestCallsAfterEnd(t *testing.T) {
	calls := map[string]func(*region.Block) error{
		"catch":      func(blk *region.Block) error { return blk.Catch(meta.Exception, nil).Err() },
		"finally":    func(blk *region.Block) error { return blk.Finally(nil).Err() },
		"fault":      func(blk *region.Block) error { return blk.Fault(nil).Err() },
		"catch when": func(blk *region.Block) error { return blk.CatchWhen(nil).Err() },
		"end": func(blk *region.Block) error {
			_, err := blk.End()
			return err
		},
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			b, root := newRoot()
			blk := region.Begin(root, nil).Finally(nil)
			if _, err := blk.End(); err != nil {
				t.Fatal(err)
			}
			offset := b.Offset()
			err := call(blk)
			if !stderrors.Is(err, errors.ErrInvalidNesting) {
				t.Fatalf("got %v, want invalid nesting", err)
			}
			if b.Offset() != offset {
				t.Error("call after End emitted code")
			}
		})
	}
}

func TestCatchDiscard(t *testing.T) {
	tests := []struct {
		handler func(emit.Emitter) error
		name    string
		want    []opcode.Code
	}{
		{
			name: "nil callback",
			want: []opcode.Code{opcode.Pop, opcode.Leave},
		},
		{
			name:    "nothing emitted",
			handler: func(emit.Emitter) error { return nil },
			want:    []opcode.Code{opcode.Pop, opcode.Leave},
		},
		{
			name:    "only non-stack instructions",
			handler: emitOp(opcode.Nop),
			want:    []opcode.Code{opcode.Nop, opcode.Pop, opcode.Leave},
		},
		{
			name: "exception stored",
			handler: func(e emit.Emitter) error {
				l, err := e.DeclareLocal(meta.Exception, false)
				if err != nil {
					return err
				}
				return e.Emit(opcode.StlocS, l)
			},
			want: []opcode.Code{opcode.StlocS, opcode.Leave},
		},
		{
			name:    "write line",
			handler: func(e emit.Emitter) error { return e.WriteLine("caught") },
			want:    []opcode.Code{opcode.Ldstr, opcode.Call, opcode.Leave},
		},
		{
			name: "only a nested region",
			handler: func(e emit.Emitter) error {
				_, err := region.Begin(e, emitOp(opcode.Nop)).Finally(nil).End()
				return err
			},
			want: []opcode.Code{opcode.Pop, opcode.Nop, opcode.Leave, opcode.Endfinally, opcode.Leave},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, root := newRoot()
			_, err := region.Begin(root, emitOp(opcode.Nop)).
				Catch(meta.Exception, tt.handler).
				End()
			if err != nil {
				t.Fatal(err)
			}
			m := finish(t, b)
			c := m.Clauses[len(m.Clauses)-1]
			got := span(t, m, c.HandlerOffset, c.HandlerOffset+c.HandlerLength)
			if !sameOps(got, tt.want) {
				t.Errorf("handler = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPassHandlerNestedRegion(t *testing.T) {
	b, root := newRoot()
	_, err := region.Begin(root, emitOp(opcode.Nop)).
		CatchWhen(nil).
		OnPass(func(e emit.Emitter) error {
			_, err := region.Begin(e, emitOp(opcode.Nop)).Fault(nil).End()
			return err
		}).
		End()
	if err != nil {
		t.Fatal(err)
	}
	m := finish(t, b)
	c := m.Clauses[len(m.Clauses)-1]
	if c.Kind != body.ClauseFilter {
		t.Fatalf("outer clause kind = %s, want filter", c.Kind)
	}
	got := span(t, m, c.HandlerOffset, c.HandlerOffset+c.HandlerLength)
	want := []opcode.Code{opcode.Pop, opcode.Nop, opcode.Leave, opcode.Endfinally, opcode.Leave}
	if !sameOps(got, want) {
		t.Errorf("pass handler = %v, want %v", got, want)
	}
}

func TestBodiesCannotCloseEnclosingRegion(t *testing.T) {
	closeRegion := func(e emit.Emitter) error { return e.EndRegion() }
	tests := []struct {
		name  string
		build func(*region.Block) error
	}{
		{"try", nil},
		{"catch", func(blk *region.Block) error { return blk.Catch(meta.Exception, closeRegion).Err() }},
		{"finally", func(blk *region.Block) error { return blk.Finally(closeRegion).Err() }},
		{"fault", func(blk *region.Block) error { return blk.Fault(closeRegion).Err() }},
		{"filter", func(blk *region.Block) error { return blk.CatchWhen(closeRegion).Err() }},
		{"pass", func(blk *region.Block) error { return blk.CatchWhen(nil).OnPass(closeRegion).Err() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, root := newRoot()
			var err error
			if tt.build == nil {
				err = region.Begin(root, closeRegion).Err()
			} else {
				err = tt.build(region.Begin(root, emitOp(opcode.Nop)))
			}
			if !stderrors.Is(err, errors.ErrInvalidNesting) {
				t.Fatalf("got %v, want invalid nesting", err)
			}
			if b.RegionDepth() != 1 || root.Depth() != 1 {
				t.Errorf("body depth %d, root depth %d; want both 1", b.RegionDepth(), root.Depth())
			}
		})
	}
}

func TestBodyMayCloseRegionItOpened(t *testing.T) {
	_, root := newRoot()
	blk := region.Begin(root, emitOp(opcode.Nop)).
		Catch(meta.Exception, func(e emit.Emitter) error {
			if _, err := e.BeginRegion(); err != nil {
				return err
			}
			return e.EndRegion()
		})
	// The decorator lets the call through; the container then refuses a
	// region without handlers.
	if !stderrors.Is(blk.Err(), errors.ErrMissingHandler) {
		t.Fatalf("got %v, want missing handler", blk.Err())
	}
}

func TestRegionClosedUnderneath(t *testing.T) {
	b, root := newRoot()
	blk := region.Begin(root, emitOp(opcode.Nop)).Catch(meta.Exception, nil)
	if err := b.EndRegion(); err != nil {
		t.Fatal(err)
	}
	_, err := blk.End()
	if !stderrors.Is(err, errors.ErrInvalidNesting) {
		t.Fatalf("got %v, want invalid nesting", err)
	}
	if !strings.Contains(err.Error(), "closed underneath") {
		t.Errorf("error %q should say the region was closed underneath", err)
	}
}

func TestCatchAll(t *testing.T) {
	b, root := newRoot()
	if _, err := region.Begin(root, nil).Catch(nil, nil).End(); err != nil {
		t.Fatal(err)
	}
	m := finish(t, b)
	if m.Clauses[0].CatchType != meta.Object {
		t.Errorf("catch type = %v, want object", m.Clauses[0].CatchType)
	}
}

func TestInvalidHandlerType(t *testing.T) {
	custom := meta.NewInterface("App", "IFailure")
	tests := []struct {
		typ *meta.Type
		ok  bool
	}{
		{typ: meta.Exception, ok: true},
		{typ: meta.OverflowException, ok: true},
		{typ: custom, ok: true},
		{typ: meta.String},
		{typ: meta.Int32},
		{typ: meta.Object},
	}

	for _, tt := range tests {
		t.Run(tt.typ.FullName(), func(t *testing.T) {
			b, root := newRoot()
			blk := region.Begin(root, nil)
			offset := b.Offset()
			blk.Catch(tt.typ, nil)
			if tt.ok {
				if blk.Err() != nil {
					t.Fatalf("unexpected error: %v", blk.Err())
				}
				return
			}
			if !stderrors.Is(blk.Err(), errors.ErrInvalidHandlerType) {
				t.Fatalf("got %v, want invalid handler type", blk.Err())
			}
			if b.Offset() != offset {
				t.Error("rejected catch emitted code")
			}
		})
	}
}

func TestFilterRequiresOnPass(t *testing.T) {
	next := map[string]func(*region.Block) error{
		"catch":      func(blk *region.Block) error { return blk.Catch(meta.Exception, nil).Err() },
		"finally":    func(blk *region.Block) error { return blk.Finally(nil).Err() },
		"fault":      func(blk *region.Block) error { return blk.Fault(nil).Err() },
		"catch when": func(blk *region.Block) error { return blk.CatchWhen(nil).Err() },
		"end": func(blk *region.Block) error {
			_, err := blk.End()
			return err
		},
	}

	for name, call := range next {
		t.Run(name, func(t *testing.T) {
			_, root := newRoot()
			blk := region.Begin(root, nil)
			blk.CatchWhen(nil)
			if blk.State() != region.StateInFilter {
				t.Fatalf("state = %s, want in-filter", blk.State())
			}
			if err := call(blk); !stderrors.Is(err, errors.ErrInvalidNesting) {
				t.Errorf("got %v, want invalid nesting", err)
			}
		})
	}
}

func TestFilterThenOnPass(t *testing.T) {
	b, root := newRoot()
	_, err := region.Begin(root, emitOp(opcode.Nop)).
		CatchWhen(nil).
		OnPass(nil).
		Catch(meta.Exception, nil).
		Finally(nil).
		End()
	if err != nil {
		t.Fatal(err)
	}
	m := finish(t, b)

	kinds := []body.ClauseKind{body.ClauseFilter, body.ClauseCatch, body.ClauseFinally}
	if len(m.Clauses) != len(kinds) {
		t.Fatalf("got %d clauses", len(m.Clauses))
	}
	for i, k := range kinds {
		if m.Clauses[i].Kind != k {
			t.Errorf("clause %d = %s, want %s", i, m.Clauses[i].Kind, k)
		}
	}

	f := m.Clauses[0]
	filterOps := span(t, m, f.FilterOffset, f.HandlerOffset)
	want := []opcode.Code{opcode.Pop, opcode.LdcI41, opcode.Endfilter}
	if !sameOps(filterOps, want) {
		t.Errorf("default filter = %v, want %v", filterOps, want)
	}
	handlerOps := span(t, m, f.HandlerOffset, f.HandlerOffset+f.HandlerLength)
	if !sameOps(handlerOps, []opcode.Code{opcode.Pop, opcode.Leave}) {
		t.Errorf("pass handler = %v", handlerOps)
	}
}

func TestOnPassTwice(t *testing.T) {
	_, root := newRoot()
	blk := region.Begin(root, nil)
	f := blk.CatchWhen(nil)
	f.OnPass(nil)
	f.OnPass(nil)
	if !stderrors.Is(blk.Err(), errors.ErrInvalidNesting) {
		t.Errorf("got %v, want invalid nesting", blk.Err())
	}
}

func TestTypedFilterSkipsPredicateOnMismatch(t *testing.T) {
	b, root := newRoot()
	calls := 0
	var predStart int
	pred := func(e emit.Emitter) error {
		calls++
		predStart = e.Offset()
		if err := e.Emit(opcode.Pop); err != nil {
			return err
		}
		return e.Emit(opcode.LdcI41)
	}

	_, err := region.Begin(root, emitOp(opcode.Nop)).
		CatchWhenType(meta.ArgumentException, pred).
		OnPass(nil).
		End()
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("predicate emitted %d times, want 1", calls)
	}

	m := finish(t, b)
	c := m.Clauses[0]
	var filter []body.Instruction
	for _, in := range decode(t, m.Code) {
		if in.Offset >= c.FilterOffset && in.Offset < c.HandlerOffset {
			filter = append(filter, in)
		}
	}
	want := []opcode.Code{
		opcode.Isinst, opcode.Dup, opcode.Brtrue, opcode.Pop, opcode.LdcI40, opcode.Br,
		opcode.Pop, opcode.LdcI41, opcode.Endfilter,
	}
	got := make([]opcode.Code, len(filter))
	for i, in := range filter {
		got[i] = in.Op
	}
	if !sameOps(got, want) {
		t.Fatalf("filter = %v, want %v", got, want)
	}

	match := filter[2].Targets()[0]
	done := filter[5].Targets()[0]
	if match != predStart {
		t.Errorf("match branch targets IL_%04x, predicate starts at IL_%04x", match, predStart)
	}
	if done != filter[8].Offset {
		t.Errorf("mismatch path targets IL_%04x, want endfilter at IL_%04x", done, filter[8].Offset)
	}
	if done <= predStart {
		t.Error("mismatch path must jump over the predicate")
	}

	if v, ok := m.Resolve(filter[0].Operand.(body.Token)); !ok || v != meta.ArgumentException {
		t.Errorf("isinst type = %v", v)
	}
}

func TestTypedFilterDefaultVerdict(t *testing.T) {
	b, root := newRoot()
	_, err := region.Begin(root, nil).
		CatchWhenType(meta.ArgumentException, nil).
		OnPass(nil).
		End()
	if err != nil {
		t.Fatal(err)
	}
	m := finish(t, b)
	c := m.Clauses[0]
	got := span(t, m, c.FilterOffset, c.HandlerOffset)
	tail := got[len(got)-3:]
	if !sameOps(tail, []opcode.Code{opcode.Pop, opcode.LdcI41, opcode.Endfilter}) {
		t.Errorf("filter tail = %v", tail)
	}
}

func TestContextRestrictions(t *testing.T) {
	tests := []struct {
		build func(root emit.Emitter, h func(emit.Emitter) error) *region.Block
		name  string
		op    opcode.Code
	}{
		{
			name: "ret in try",
			op:   opcode.Ret,
			build: func(root emit.Emitter, h func(emit.Emitter) error) *region.Block {
				return region.Begin(root, h)
			},
		},
		{
			name: "ret in finally",
			op:   opcode.Ret,
			build: func(root emit.Emitter, h func(emit.Emitter) error) *region.Block {
				return region.Begin(root, nil).Finally(h)
			},
		},
		{
			name: "rethrow in finally",
			op:   opcode.Rethrow,
			build: func(root emit.Emitter, h func(emit.Emitter) error) *region.Block {
				return region.Begin(root, nil).Finally(h)
			},
		},
		{
			name: "rethrow in fault",
			op:   opcode.Rethrow,
			build: func(root emit.Emitter, h func(emit.Emitter) error) *region.Block {
				return region.Begin(root, nil).Fault(h)
			},
		},
		{
			name: "localloc in catch",
			op:   opcode.Localloc,
			build: func(root emit.Emitter, h func(emit.Emitter) error) *region.Block {
				return region.Begin(root, nil).Catch(meta.Exception, h)
			},
		},
		{
			name: "endfilter in filter",
			op:   opcode.Endfilter,
			build: func(root emit.Emitter, h func(emit.Emitter) error) *region.Block {
				return region.Begin(root, nil).CatchWhen(h).OnPass(nil)
			},
		},
		{
			name: "endfinally in pass handler",
			op:   opcode.Endfinally,
			build: func(root emit.Emitter, h func(emit.Emitter) error) *region.Block {
				return region.Begin(root, nil).CatchWhen(nil).OnPass(h)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, root := newRoot()
			var before, after int
			blk := tt.build(root, func(e emit.Emitter) error {
				before = e.Offset()
				err := e.Emit(tt.op)
				after = e.Offset()
				return err
			})
			if !stderrors.Is(blk.Err(), errors.ErrUnsupportedInstruction) {
				t.Fatalf("got %v, want unsupported instruction", blk.Err())
			}
			if before != after {
				t.Error("forbidden instruction produced output")
			}
			if _, err := blk.End(); !stderrors.Is(err, errors.ErrUnsupportedInstruction) {
				t.Errorf("End returned %v, want the first error", err)
			}
		})
	}
}

func TestRetAllowedAtRoot(t *testing.T) {
	b, root := newRoot()
	if err := root.Emit(opcode.Ret); err != nil {
		t.Fatalf("ret at root: %v", err)
	}
	finish(t, b)
}

func TestDivideByZeroScenario(t *testing.T) {
	tests := []struct {
		handler func(emit.Emitter) error
		name    string
		want    []opcode.Code
	}{
		{name: "empty handler", want: []opcode.Code{opcode.Pop, opcode.Leave}},
		{
			name:    "handler consumes exception",
			handler: emitOp(opcode.Pop),
			want:    []opcode.Code{opcode.Pop, opcode.Leave},
		},
		{
			name:    "handler reports",
			handler: func(e emit.Emitter) error { return e.WriteLine("div by zero") },
			want:    []opcode.Code{opcode.Ldstr, opcode.Call, opcode.Leave},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, root := newRoot()
			try := func(e emit.Emitter) error {
				for _, op := range []opcode.Code{opcode.Ldarg0, opcode.Ldarg1, opcode.Div, opcode.Pop} {
					if err := e.Emit(op); err != nil {
						return err
					}
				}
				return nil
			}
			if _, err := region.Begin(root, try).Catch(meta.DivideByZeroException, tt.handler).End(); err != nil {
				t.Fatal(err)
			}
			m := finish(t, b)
			if len(m.Clauses) != 1 {
				t.Fatalf("got %d clauses", len(m.Clauses))
			}
			c := m.Clauses[0]
			if c.Kind != body.ClauseCatch || c.CatchType != meta.DivideByZeroException {
				t.Errorf("clause = %+v", c)
			}
			tryOps := span(t, m, c.TryOffset, c.TryOffset+c.TryLength)
			wantTry := []opcode.Code{opcode.Ldarg0, opcode.Ldarg1, opcode.Div, opcode.Pop, opcode.Leave}
			if !sameOps(tryOps, wantTry) {
				t.Errorf("try = %v, want %v", tryOps, wantTry)
			}
			handlerOps := span(t, m, c.HandlerOffset, c.HandlerOffset+c.HandlerLength)
			if !sameOps(handlerOps, tt.want) {
				t.Errorf("handler = %v, want %v", handlerOps, tt.want)
			}
		})
	}
}

func TestFaultScenario(t *testing.T) {
	b, root := newRoot()
	blk := region.Begin(root, emitOp(opcode.Nop)).Fault(emitOp(opcode.Nop))
	if blk.State() != region.StateHasFault {
		t.Fatalf("state = %s", blk.State())
	}
	if _, err := blk.End(); err != nil {
		t.Fatal(err)
	}
	m := finish(t, b)
	if len(m.Clauses) != 1 || m.Clauses[0].Kind != body.ClauseFault {
		t.Fatalf("clauses = %+v", m.Clauses)
	}

	_, root2 := newRoot()
	blk2 := region.Begin(root2, nil).Fault(nil)
	if err := blk2.Catch(meta.Exception, nil).Err(); !stderrors.Is(err, errors.ErrInvalidNesting) {
		t.Errorf("catch after fault: %v", err)
	}
}

func TestPlatformUnsupportedSurfaces(t *testing.T) {
	tests := []struct {
		call func(*region.Block) error
		name string
	}{
		{name: "fault", call: func(blk *region.Block) error { return blk.Fault(nil).Err() }},
		{name: "filter", call: func(blk *region.Block) error { return blk.CatchWhen(nil).Err() }},
		{name: "typed filter", call: func(blk *region.Block) error {
			return blk.CatchWhenType(meta.Exception, nil).Err()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, root := newRoot(body.WithoutFaultFilter())
			err := tt.call(region.Begin(root, nil))
			if !stderrors.Is(err, errors.ErrPlatformUnsupported) {
				t.Errorf("got %v, want platform unsupported", err)
			}
		})
	}
}

func TestNestedRegions(t *testing.T) {
	t.Run("closed inner", func(t *testing.T) {
		b, root := newRoot()
		_, err := region.Begin(root, func(e emit.Emitter) error {
			_, err := region.Begin(e, emitOp(opcode.Nop)).
				Catch(meta.ArgumentException, nil).
				End()
			return err
		}).
			Finally(nil).
			End()
		if err != nil {
			t.Fatal(err)
		}
		m := finish(t, b)
		if len(m.Clauses) != 2 || m.Clauses[0].Kind != body.ClauseCatch || m.Clauses[1].Kind != body.ClauseFinally {
			t.Errorf("clauses = %+v", m.Clauses)
		}
		if root.Depth() != 0 {
			t.Errorf("root depth = %d, want 0", root.Depth())
		}
	})

	t.Run("inner left open", func(t *testing.T) {
		_, root := newRoot()
		blk := region.Begin(root, func(e emit.Emitter) error {
			region.Begin(e, emitOp(opcode.Nop)).Catch(meta.Exception, nil)
			return nil
		})
		blk.Finally(nil)
		if !stderrors.Is(blk.Err(), errors.ErrInvalidNesting) {
			t.Fatalf("got %v, want invalid nesting", blk.Err())
		}
		if _, err := blk.End(); err == nil {
			t.Error("End must fail while a nested region is open")
		}
	})

	t.Run("in handler", func(t *testing.T) {
		b, root := newRoot()
		_, err := region.Begin(root, nil).
			Catch(meta.Exception, func(e emit.Emitter) error {
				if err := e.Emit(opcode.Pop); err != nil {
					return err
				}
				_, err := region.Begin(e, nil).Finally(nil).End()
				return err
			}).
			End()
		if err != nil {
			t.Fatal(err)
		}
		finish(t, b)
	})

	t.Run("not in filter", func(t *testing.T) {
		_, root := newRoot()
		blk := region.Begin(root, nil).CatchWhen(func(e emit.Emitter) error {
			return region.Begin(e, nil).Finally(nil).Err()
		})
		if !stderrors.Is(blk.Err(), errors.ErrUnsupportedInstruction) {
			t.Errorf("got %v, want unsupported", blk.Err())
		}
	})
}

func TestRootDepth(t *testing.T) {
	_, root := newRoot()
	blk := region.Begin(root, func(emit.Emitter) error {
		if root.Depth() != 1 {
			t.Errorf("depth inside try = %d, want 1", root.Depth())
		}
		return nil
	})
	blk.Catch(meta.Exception, nil)
	if _, err := blk.End(); err != nil {
		t.Fatal(err)
	}
	if root.Depth() != 0 {
		t.Errorf("depth after End = %d, want 0", root.Depth())
	}
}

func TestStickyError(t *testing.T) {
	b, root := newRoot()
	blk := region.Begin(root, nil).Catch(meta.String, nil)
	first := blk.Err()
	if first == nil {
		t.Fatal("expected an error")
	}
	offset := b.Offset()
	blk.Finally(emitOp(opcode.Nop)).Catch(meta.Exception, nil)
	if b.Offset() != offset {
		t.Error("calls after a failure emitted code")
	}
	if _, err := blk.End(); err != first {
		t.Errorf("End = %v, want first error %v", err, first)
	}
}

func TestCallbackErrorStops(t *testing.T) {
	_, root := newRoot()
	boom := stderrors.New("boom")
	_, err := region.Begin(root, func(emit.Emitter) error { return boom }).
		Catch(meta.Exception, nil).
		End()
	if !stderrors.Is(err, boom) {
		t.Errorf("got %v, want callback error", err)
	}
}
