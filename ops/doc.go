// Package ops provides shorthand emission helpers that pick the most compact
// encoding of common instructions.
//
// Integer constants, local slots and argument indices each have several
// encodings: dedicated one-byte opcodes for small values, short forms with
// a one-byte operand, and long forms. The helpers choose among them so
// callers can write
//
//	ops.LoadInt32(e, 7)   // ldc.i4.7
//	ops.LoadLocal(e, l)   // ldloc.0 ... ldloc.3, ldloc.s or ldloc
//	ops.Call(e, m)        // call, or callvirt for virtual methods
//
// Every helper goes through the given [emit.Emitter], so context
// restrictions apply unchanged.
package ops
