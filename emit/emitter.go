package emit

import (
	"fmt"

	"github.com/wippyai/cil-emit/meta"
	"github.com/wippyai/cil-emit/opcode"
)

// Emitter is the capability surface every bytecode sink exposes.
//
// Emit takes at most one operand whose Go type must match the opcode's
// operand kind (see opcode.OperandKind). Handler openings follow the
// container's protected-region discipline: BeginRegion opens a region,
// each Begin* call closes the previous block and opens a handler, and
// EndRegion closes the last handler and the region.
type Emitter interface {
	Emit(op opcode.Code, args ...any) error
	DeclareLocal(t *meta.Type, pinned bool) (Local, error)
	DefineLabel() Label
	MarkLabel(l Label) error
	BeginScope() error
	EndScope() error
	BeginRegion() (Label, error)
	EndRegion() error
	// BeginCatch opens a catch handler; t == nil opens the handler paired
	// with a preceding filter.
	BeginCatch(t *meta.Type) error
	BeginFinally() error
	BeginFault() error
	BeginFilter() error
	// Throw constructs t with its parameterless constructor and throws it.
	Throw(t *meta.Type) error
	// WriteLine emits code that prints msg through the container's
	// diagnostic write method.
	WriteLine(msg string) error
	// Offset is the current code size in bytes.
	Offset() int
}

// Label is an opaque branch target created by DefineLabel and bound by
// MarkLabel.
type Label int

// NoLabel is returned when a label could not be created.
const NoLabel Label = -1

func (l Label) String() string {
	return fmt.Sprintf("L%d", int(l))
}

// Local is a typed local variable slot.
type Local struct {
	Type   *meta.Type
	Index  int
	Pinned bool
}

func (l Local) String() string {
	return fmt.Sprintf("V_%d", l.Index)
}

// Tracker reports whether anything has been emitted through a decorator.
type Tracker interface {
	// Emitted reports whether any instruction or structural call went through.
	Emitted() bool
	// StackChanged reports whether a stack-affecting instruction went through.
	StackChanged() bool
}

// Unwrapper is implemented by decorators that can be collapsed onto the
// emitter they wrap.
type Unwrapper interface {
	Unwrap() Emitter
}

// RegionDepther is implemented by sinks that track how many protected
// regions are currently open.
type RegionDepther interface {
	RegionDepth() int
}

// Unwrap reduces a chain of decorators to the innermost emitter that is
// not itself a decorator.
func Unwrap(e Emitter) Emitter {
	for {
		u, ok := e.(Unwrapper)
		if !ok {
			return e
		}
		inner := u.Unwrap()
		if inner == nil {
			return e
		}
		e = inner
	}
}

// RegionDepth returns the open-region depth of e's underlying sink, if the
// sink tracks it.
func RegionDepth(e Emitter) (int, bool) {
	if d, ok := Unwrap(e).(RegionDepther); ok {
		return d.RegionDepth(), true
	}
	return 0, false
}
