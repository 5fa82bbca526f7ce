// Package trace provides a diagnostics decorator for emit.Emitter.
//
// The trace Emitter prints one line per call, logs each call as a zap
// debug event, and can stop in a breakpoint hook. It carries no emission
// rules of its own and is substitutable anywhere an emit.Emitter is used:
//
//	b := body.New("Main")
//	root := emit.NewRoot(trace.New(b, trace.WithWriter(os.Stderr)))
//
// Output looks like:
//
//	.try {
//	  IL_0000: ldarg.0
//	  IL_0001: ldarg.1
//	  IL_0002: div
//	} catch class System.DivideByZeroException {
//	  IL_0008: pop
//	}
package trace
