// Package emit defines the emitter abstraction and the decorators that
// enforce instruction legality per structural context.
//
// # Emitter
//
// [Emitter] is the minimal surface a bytecode sink implements: raw
// instruction emission, locals, labels, lexical scopes, protected regions,
// handler openings, throw and a diagnostic write hook.
//
// # Decorators
//
// A [Decorator] wraps a sink for one [Context] and rejects the
// instructions that are invalid there before anything reaches the sink:
//
//	root      endfilter, endfinally, rethrow, raw prefixes
//	try       + ret, jmp, tail.; no direct handler opening
//	catch     ret, jmp, tail., endfinally, endfilter, localloc, raw prefixes
//	finally   catch + rethrow
//	fault     catch + rethrow
//	filter    ret, jmp, tail., endfinally, endfilter, rethrow, localloc;
//	          no nested protected region
//
// Decorators never stack: [Wrap] collapses any decorator chain onto the
// innermost sink. Each decorator records whether anything was emitted
// through it and whether any of it touched the evaluation stack.
//
// # Root
//
// [Root] is the decorator handed out for a new method body. It counts open
// protected regions and refuses to open a handler when none is open.
//
//	root := emit.NewRoot(body)
//	root.BeginCatch(meta.Exception) // fails: must be inside a protected region
//
// Structured exception blocks are normally built with the region package,
// which drives these primitives in the right order.
package emit
