// Package opcode defines the instruction set of the managed stack machine.
//
// Every opcode has an immutable [Info] descriptor: its mnemonic, encoding
// width, inline operand kind, evaluation-stack effect and control-flow class.
// One-byte opcodes are encoded directly; two-byte opcodes are the [Escape]
// byte followed by a second byte.
//
//	info := opcode.Ldstr.Info()
//	info.Operand    // OperandString
//	info.Pop, info.Push // 0, 1
//
// Call-like instructions report [Variable] for the side of the stack effect
// that depends on the referenced method or signature.
//
// [Set] is a small immutable bitmap over opcodes, used for per-context
// forbidden-instruction sets.
package opcode
