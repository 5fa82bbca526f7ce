// Package region builds structured exception handling regions on top of an
// emit.Emitter.
//
// A region is opened with Begin, which runs the try body immediately, and
// then populated by chained handler calls:
//
//	_, err := region.Begin(root, func(e emit.Emitter) error {
//		return e.Emit(opcode.Div)
//	}).
//		Catch(meta.DivideByZeroException, func(e emit.Emitter) error {
//			return e.WriteLine("division by zero")
//		}).
//		Finally(func(e emit.Emitter) error {
//			return e.WriteLine("done")
//		}).
//		End()
//
// Each callback receives an emitter restricted to its block (see
// emit.Context), so a ret inside a finally or an endfilter in a catch fails
// at the offending call.
//
// # Lifecycle
//
//	no-handler --Catch/Finally--> has-handler --End--> closed
//	no-handler --Fault--> has-fault --End--> closed
//	no-handler, has-handler --CatchWhen--> in-filter --OnPass--> has-handler
//
// A fault handler is exclusive, a region has at most one finally, a filter
// must be followed by its OnPass handler, and End needs at least one
// handler. The first failure sticks: later calls do nothing and End
// returns it.
//
// # Stack fix-up
//
// Catch and filter handlers start with the exception object on the stack.
// When a Catch or OnPass callback emits nothing that touches the stack the
// builder pops the object. A filter predicate that leaves the stack
// untouched is completed with pop; ldc.i4.1.
package region
