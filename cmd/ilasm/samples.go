package main

import (
	"github.com/wippyai/cil-emit/emit"
	"github.com/wippyai/cil-emit/meta"
	"github.com/wippyai/cil-emit/opcode"
	"github.com/wippyai/cil-emit/ops"
	"github.com/wippyai/cil-emit/region"
)

// sample is one method in the catalogue.
type sample struct {
	build   func(emit.Emitter) error
	name    string
	summary string
	fails   bool // the sample demonstrates a rejected construct
}

var getMessage = meta.NewVirtualMethod(meta.Exception, "get_Message", meta.String)

var catalogue = []sample{
	{
		name:    "divide",
		summary: "integer division by zero caught by type",
		build:   divideByZero,
	},
	{
		name:    "finally",
		summary: "cleanup that runs on every exit path",
		build:   tryFinally,
	},
	{
		name:    "fault",
		summary: "cleanup that runs only when the protected block throws",
		build:   tryFault,
	},
	{
		name:    "filter",
		summary: "typed filter inspecting the exception message",
		build:   typedFilter,
	},
	{
		name:    "catch-all",
		summary: "untyped filter with the default verdict",
		build:   catchAllFilter,
	},
	{
		name:    "nested",
		summary: "try/finally nested inside try/catch",
		build:   nested,
	},
	{
		name:    "loop",
		summary: "sum of 0..9 using locals, a scope and backward branches",
		build:   loop,
	},
	{
		name:    "ret-in-finally",
		summary: "return from a finally block is rejected",
		build:   retInFinally,
		fails:   true,
	},
	{
		name:    "unclosed-filter",
		summary: "a filter without its pass handler cannot be closed",
		build:   unclosedFilter,
		fails:   true,
	},
}

func lookup(name string) (sample, bool) {
	for _, s := range catalogue {
		if s.name == name {
			return s, true
		}
	}
	return sample{}, false
}

// seq runs steps in order and stops at the first error.
func seq(steps ...func(emit.Emitter) error) func(emit.Emitter) error {
	return func(e emit.Emitter) error {
		for _, step := range steps {
			if err := step(e); err != nil {
				return err
			}
		}
		return nil
	}
}

func op(code opcode.Code, args ...any) func(emit.Emitter) error {
	return func(e emit.Emitter) error { return e.Emit(code, args...) }
}

func int32Const(v int32) func(emit.Emitter) error {
	return func(e emit.Emitter) error { return ops.LoadInt32(e, v) }
}

func writeLine(msg string) func(emit.Emitter) error {
	return func(e emit.Emitter) error { return e.WriteLine(msg) }
}

func throw(t *meta.Type) func(emit.Emitter) error {
	return func(e emit.Emitter) error { return e.Throw(t) }
}

func divideByZero(e emit.Emitter) error {
	_, err := region.Begin(e, seq(int32Const(10), int32Const(0), op(opcode.Div), op(opcode.Pop))).
		Catch(meta.DivideByZeroException, writeLine("division by zero")).
		End()
	if err != nil {
		return err
	}
	return ops.Return(e)
}

func tryFinally(e emit.Emitter) error {
	_, err := region.Begin(e, writeLine("working")).
		Finally(writeLine("cleanup")).
		End()
	if err != nil {
		return err
	}
	return ops.Return(e)
}

func tryFault(e emit.Emitter) error {
	_, err := region.Begin(e, throw(meta.InvalidOperationException)).
		Fault(writeLine("faulted")).
		End()
	if err != nil {
		return err
	}
	return ops.Return(e)
}

// typedFilter accepts ArgumentExceptions that carry a message.
func typedFilter(e emit.Emitter) error {
	_, err := region.Begin(e, throw(meta.ArgumentException)).
		CatchWhenType(meta.ArgumentException, seq(
			func(e emit.Emitter) error { return ops.Call(e, getMessage) },
			ops.LoadNull,
			op(opcode.CgtUn),
		)).
		OnPass(writeLine("argument rejected")).
		End()
	if err != nil {
		return err
	}
	return ops.Return(e)
}

func catchAllFilter(e emit.Emitter) error {
	_, err := region.Begin(e, throw(meta.NullReferenceException)).
		CatchWhen(nil).
		OnPass(writeLine("anything goes")).
		End()
	if err != nil {
		return err
	}
	return ops.Return(e)
}

func nested(e emit.Emitter) error {
	inner := func(e emit.Emitter) error {
		_, err := region.Begin(e, seq(writeLine("inner"), throw(meta.OverflowException))).
			Finally(writeLine("inner cleanup")).
			End()
		return err
	}
	_, err := region.Begin(e, inner).
		Catch(meta.ArithmeticException, writeLine("outer caught")).
		Catch(meta.Exception, op(opcode.Pop)).
		End()
	if err != nil {
		return err
	}
	return ops.Return(e)
}

func loop(e emit.Emitter) error {
	if err := e.BeginScope(); err != nil {
		return err
	}
	i, err := e.DeclareLocal(meta.Int32, false)
	if err != nil {
		return err
	}
	sum, err := e.DeclareLocal(meta.Int32, false)
	if err != nil {
		return err
	}
	load := func(l emit.Local) func(emit.Emitter) error {
		return func(e emit.Emitter) error { return ops.LoadLocal(e, l) }
	}
	store := func(l emit.Local) func(emit.Emitter) error {
		return func(e emit.Emitter) error { return ops.StoreLocal(e, l) }
	}

	top, cond := e.DefineLabel(), e.DefineLabel()
	mark := func(l emit.Label) func(emit.Emitter) error {
		return func(e emit.Emitter) error { return e.MarkLabel(l) }
	}
	return seq(
		int32Const(0), store(i),
		int32Const(0), store(sum),
		op(opcode.BrS, cond),
		mark(top),
		load(sum), load(i), op(opcode.Add), store(sum),
		load(i), int32Const(1), op(opcode.Add), store(i),
		mark(cond),
		load(i), int32Const(10), op(opcode.BltS, top),
		func(e emit.Emitter) error { return e.EndScope() },
		load(sum), ops.Return,
	)(e)
}

func retInFinally(e emit.Emitter) error {
	_, err := region.Begin(e, writeLine("working")).
		Finally(ops.Return).
		End()
	return err
}

func unclosedFilter(e emit.Emitter) error {
	blk := region.Begin(e, throw(meta.Exception))
	blk.CatchWhen(nil)
	_, err := blk.End()
	return err
}
