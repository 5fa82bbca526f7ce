// Package errors provides structured error types for the cil-emit module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the offending opcode or call, the emitter context, and a
// cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEmit, errors.KindUnsupportedInstruction).
//		Op("ret").
//		Context("finally").
//		Detail("instruction is not supported in this context").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnsupportedInstruction("ret", "finally")
//	err := errors.OutsideRegion("begin_catch")
//
// Kinds can be matched regardless of phase through the sentinels:
//
//	if errors.Is(err, cilerrors.ErrUnsupportedInstruction) { ... }
package errors
