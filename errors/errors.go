package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in emission the error occurred
type Phase string

const (
	PhaseEmit    Phase = "emit"    // raw instruction emission
	PhaseRegion  Phase = "region"  // protected region lifecycle
	PhaseHandler Phase = "handler" // handler opening and bodies
	PhaseFinish  Phase = "finish"  // method body finalisation
	PhaseDecode  Phase = "decode"  // bytecode to instructions
)

// Kind categorizes the error
type Kind string

const (
	KindUnsupportedInstruction Kind = "unsupported_instruction"
	KindInvalidNesting         Kind = "invalid_nesting"
	KindInvalidHandlerType     Kind = "invalid_handler_type"
	KindMissingHandler         Kind = "missing_handler"
	KindPlatformUnsupported    Kind = "platform_unsupported"
	KindInvalidOperand         Kind = "invalid_operand"
	KindUndefinedLabel         Kind = "undefined_label"
	KindUnclosed               Kind = "unclosed"
	KindInvalidData            Kind = "invalid_data"
	KindOutOfBounds            Kind = "out_of_bounds"
)

// Sentinels for errors.Is. They match any phase.
var (
	ErrUnsupportedInstruction = &Error{Kind: KindUnsupportedInstruction}
	ErrInvalidNesting         = &Error{Kind: KindInvalidNesting}
	ErrInvalidHandlerType     = &Error{Kind: KindInvalidHandlerType}
	ErrMissingHandler         = &Error{Kind: KindMissingHandler}
	ErrPlatformUnsupported    = &Error{Kind: KindPlatformUnsupported}
	ErrInvalidOperand         = &Error{Kind: KindInvalidOperand}
	ErrUndefinedLabel         = &Error{Kind: KindUndefinedLabel}
	ErrUnclosed               = &Error{Kind: KindUnclosed}
	ErrInvalidData            = &Error{Kind: KindInvalidData}
	ErrOutOfBounds            = &Error{Kind: KindOutOfBounds}
)

// Error is the structured error type used throughout the module
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	Op      string // opcode or operation name
	Context string // emitter context (root, try, catch, ...)
	Detail  string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Op != "" {
		b.WriteString(" ")
		b.WriteString(e.Op)
	}
	if e.Context != "" {
		b.WriteString(" in ")
		b.WriteString(e.Context)
		b.WriteString(" context")
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// An empty Phase on the target matches every phase.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Op sets the opcode or operation name
func (b *Builder) Op(op string) *Builder {
	b.err.Op = op
	return b
}

// Context sets the emitter context name
func (b *Builder) Context(ctx string) *Builder {
	b.err.Context = ctx
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// UnsupportedInstruction reports an opcode that is forbidden in the given context
func UnsupportedInstruction(op, context string) *Error {
	return &Error{
		Phase:   PhaseEmit,
		Kind:    KindUnsupportedInstruction,
		Op:      op,
		Context: context,
		Detail:  "instruction is not supported in this context",
	}
}

// UnsupportedCall reports a structural call (handler or region opening)
// that the given context does not permit
func UnsupportedCall(phase Phase, call, context, detail string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindUnsupportedInstruction,
		Op:      call,
		Context: context,
		Detail:  detail,
	}
}

// InvalidNesting creates a nesting error
func InvalidNesting(phase Phase, op, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidNesting,
		Op:     op,
		Detail: detail,
	}
}

// OutsideRegion reports a handler opening with no enclosing protected region
func OutsideRegion(op string) *Error {
	return InvalidNesting(PhaseHandler, op, "must be inside a protected region")
}

// Closed reports use of a region builder after End
func Closed(op string) *Error {
	return InvalidNesting(PhaseRegion, op, "builder already closed")
}

// InvalidHandlerType reports a catch type that is neither an interface nor
// derived from the base exception type
func InvalidHandlerType(typeName string) *Error {
	return &Error{
		Phase:  PhaseHandler,
		Kind:   KindInvalidHandlerType,
		Op:     "catch",
		Value:  typeName,
		Detail: fmt.Sprintf("type %s is neither an interface nor derived from System.Exception", typeName),
	}
}

// MissingHandler reports End on a region with no handlers
func MissingHandler() *Error {
	return &Error{
		Phase:  PhaseRegion,
		Kind:   KindMissingHandler,
		Op:     "end",
		Detail: "no handler was started",
	}
}

// PlatformUnsupported reports a block kind the container cannot encode
func PlatformUnsupported(what string) *Error {
	return &Error{
		Phase:  PhaseHandler,
		Kind:   KindPlatformUnsupported,
		Op:     what,
		Detail: "not supported in this container",
	}
}

// InvalidOperand creates an operand mismatch error
func InvalidOperand(op string, value any, detail string) *Error {
	return &Error{
		Phase:  PhaseEmit,
		Kind:   KindInvalidOperand,
		Op:     op,
		Value:  value,
		Detail: detail,
	}
}

// UndefinedLabel creates a label error
func UndefinedLabel(phase Phase, label int, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUndefinedLabel,
		Value:  label,
		Detail: fmt.Sprintf("label %d %s", label, detail),
	}
}

// Unclosed reports a structure left open at finalisation
func Unclosed(what string, count int) *Error {
	return &Error{
		Phase:  PhaseFinish,
		Kind:   KindUnclosed,
		Value:  count,
		Detail: fmt.Sprintf("%d %s still open", count, what),
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, offset int, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Value:  offset,
		Detail: fmt.Sprintf("at offset %d: %s", offset, detail),
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Value:  index,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
