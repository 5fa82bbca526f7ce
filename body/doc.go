// Package body provides an in-memory method container that implements
// emit.Emitter, plus decoding and disassembly of the code it produces.
//
// A MethodBody encodes instructions as they are emitted. Operands are
// checked against the opcode's operand kind before any byte is written,
// branches to labels not yet marked are patched when the label is marked,
// and every metadata reference is interned into a per-body token table.
//
//	b := body.New("Divide")
//	root := emit.NewRoot(b)
//	root.Emit(opcode.Ldarg0)
//	root.Emit(opcode.Ldarg1)
//	root.Emit(opcode.Div)
//	root.Emit(opcode.Ret)
//	m, err := b.Finish()
//
// # Protected regions
//
// BeginRegion opens a region and returns its end label. Opening a handler
// terminates the previous block: try and catch blocks with leave, finally
// and fault blocks with endfinally, and a filter expression with endfilter
// (BeginCatch(nil) opens the filter's handler). EndRegion terminates the
// last handler and marks the end label. A clause is recorded when its
// handler is terminated, so inner clauses always precede outer ones.
//
// # Finishing
//
// Finish reports every region or scope still open and every branch to a
// label that was never marked, aggregated in one error. The resulting
// Method can be encoded with Method.Bytes (tiny or fat header, small or
// fat EH section) and decoded again with DecodeBody.
package body
