// Package meta models the runtime metadata referenced by emitted code:
// types, methods, fields and call site signatures.
//
// The model is deliberately small. It knows type hierarchy and interface
// lists (enough to decide whether a type may be caught), parameter counts
// (enough to compute the stack effect of calls), and how to render itself
// as disassembler text.
//
//	myErr := meta.NewClass("App", "MyError", meta.Exception)
//	myErr.CanCatch()                         // true
//	meta.String.CanCatch()                   // false
//	meta.ConsoleWriteLine.CallEffect()       // 1, 0
package meta
