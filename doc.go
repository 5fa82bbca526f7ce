// Package cilemit is a runtime bytecode assembler for an ECMA-335 style
// stack machine, with a structured builder for exception handling blocks.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	cilemit/          Root package with the Assemble convenience
//	├── opcode/       Instruction table: encodings, operand kinds, stack effects
//	├── meta/         Type and member references used as operands
//	├── emit/         Emitter interface and per-context restriction decorators
//	├── body/         Concrete method body: encoding, labels, clauses, headers
//	├── region/       Exception block builder (catch, filter, finally, fault)
//	├── ops/          Compact encodings of constants, locals and arguments
//	├── trace/        Diagnostic emitter that prints every call
//	├── errors/       Structured error types for debugging
//	└── cmd/ilasm/    Sample catalogue and interactive viewer
//
// # Quick Start
//
// Build a method that catches a division by zero:
//
//	m, err := cilemit.Assemble("divide", func(e emit.Emitter) error {
//	    _, err := region.Begin(e, func(e emit.Emitter) error {
//	        ops.LoadInt32(e, 1)
//	        ops.LoadInt32(e, 0)
//	        e.Emit(opcode.Div)
//	        return e.Emit(opcode.Pop)
//	    }).
//	        Catch(meta.DivideByZeroException, func(e emit.Emitter) error {
//	            return e.WriteLine("caught")
//	        }).
//	        End()
//	    if err != nil {
//	        return err
//	    }
//	    return ops.Return(e)
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	listing, _ := body.Disassemble(m)
//	fmt.Print(listing)
//
// # Restrictions
//
// Each handler body runs under a decorator that rejects instructions
// invalid in its position, for example ret inside a catch or rethrow inside
// a finally. Violations surface as *errors.Error values whose Kind can be
// matched with errors.Is against the package sentinels.
//
// # Encoding
//
// Finished methods are encoded with tiny or fat headers and small or fat
// exception sections as the content requires. body.DecodeBody reads them
// back and body.Disassemble renders an assembler listing.
package cilemit
