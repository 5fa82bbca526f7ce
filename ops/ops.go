package ops

import (
	"math"

	"github.com/wippyai/cil-emit/emit"
	"github.com/wippyai/cil-emit/errors"
	"github.com/wippyai/cil-emit/meta"
	"github.com/wippyai/cil-emit/opcode"
)

var smallInts = [...]opcode.Code{
	opcode.LdcI4M1, opcode.LdcI40, opcode.LdcI41, opcode.LdcI42, opcode.LdcI43,
	opcode.LdcI44, opcode.LdcI45, opcode.LdcI46, opcode.LdcI47, opcode.LdcI48,
}

// LoadInt32 pushes v using the shortest encoding.
//
// Values -1 through 8 have dedicated one-byte opcodes (ldc.i4.m1,
// ldc.i4.0 ... ldc.i4.8). Anything else that fits a signed byte uses
// ldc.i4.s with a one-byte operand, and the rest fall back to ldc.i4 with
// a four-byte operand.
func LoadInt32(e emit.Emitter, v int32) error {
	switch {
	case v >= -1 && v <= 8:
		return e.Emit(smallInts[v+1])
	case v >= math.MinInt8 && v <= math.MaxInt8:
		return e.Emit(opcode.LdcI4S, int8(v))
	default:
		return e.Emit(opcode.LdcI4, v)
	}
}

// LoadInt64 pushes v. Values that fit in 32 bits are loaded as int32 and
// widened with conv.i8, which is never longer than ldc.i8.
func LoadInt64(e emit.Emitter, v int64) error {
	if v >= math.MinInt32 && v <= math.MaxInt32 {
		if err := LoadInt32(e, int32(v)); err != nil {
			return err
		}
		return e.Emit(opcode.ConvI8)
	}
	return e.Emit(opcode.LdcI8, v)
}

// LoadBool pushes 1 or 0.
func LoadBool(e emit.Emitter, v bool) error {
	if v {
		return e.Emit(opcode.LdcI41)
	}
	return e.Emit(opcode.LdcI40)
}

// LoadString pushes a string literal.
func LoadString(e emit.Emitter, s string) error {
	return e.Emit(opcode.Ldstr, s)
}

// LoadNull pushes a null reference.
func LoadNull(e emit.Emitter) error {
	return e.Emit(opcode.Ldnull)
}

// varForms holds the encodings of one local or argument access.
type varForms struct {
	numbered []opcode.Code // index 0..3, may be empty
	short    opcode.Code
	long     opcode.Code
}

var (
	ldloc  = varForms{numbered: []opcode.Code{opcode.Ldloc0, opcode.Ldloc1, opcode.Ldloc2, opcode.Ldloc3}, short: opcode.LdlocS, long: opcode.Ldloc}
	stloc  = varForms{numbered: []opcode.Code{opcode.Stloc0, opcode.Stloc1, opcode.Stloc2, opcode.Stloc3}, short: opcode.StlocS, long: opcode.Stloc}
	ldloca = varForms{short: opcode.LdlocaS, long: opcode.Ldloca}
	ldarg  = varForms{numbered: []opcode.Code{opcode.Ldarg0, opcode.Ldarg1, opcode.Ldarg2, opcode.Ldarg3}, short: opcode.LdargS, long: opcode.Ldarg}
	starg  = varForms{short: opcode.StargS, long: opcode.Starg}
	ldarga = varForms{short: opcode.LdargaS, long: opcode.Ldarga}
)

func (f varForms) local(e emit.Emitter, l emit.Local) error {
	switch {
	case l.Index < len(f.numbered):
		return e.Emit(f.numbered[l.Index])
	case l.Index <= math.MaxUint8:
		return e.Emit(f.short, l)
	default:
		return e.Emit(f.long, l)
	}
}

func (f varForms) arg(e emit.Emitter, index int) error {
	switch {
	case index < 0 || index > math.MaxUint16:
		return errors.OutOfBounds(errors.PhaseEmit, index, math.MaxUint16+1)
	case index < len(f.numbered):
		return e.Emit(f.numbered[index])
	case index <= math.MaxUint8:
		return e.Emit(f.short, uint8(index))
	default:
		return e.Emit(f.long, uint16(index))
	}
}

// LoadLocal pushes the value of l.
func LoadLocal(e emit.Emitter, l emit.Local) error { return ldloc.local(e, l) }

// StoreLocal pops into l.
func StoreLocal(e emit.Emitter, l emit.Local) error { return stloc.local(e, l) }

// LoadLocalAddress pushes the address of l.
func LoadLocalAddress(e emit.Emitter, l emit.Local) error { return ldloca.local(e, l) }

// LoadArg pushes argument index.
func LoadArg(e emit.Emitter, index int) error { return ldarg.arg(e, index) }

// StoreArg pops into argument index.
func StoreArg(e emit.Emitter, index int) error { return starg.arg(e, index) }

// LoadArgAddress pushes the address of argument index.
func LoadArgAddress(e emit.Emitter, index int) error { return ldarga.arg(e, index) }

// Call invokes m, using callvirt for virtual methods.
func Call(e emit.Emitter, m *meta.Method) error {
	if m != nil && m.IsVirtual() {
		return e.Emit(opcode.Callvirt, m)
	}
	return e.Emit(opcode.Call, m)
}

// New constructs an instance of t with its parameterless constructor.
func New(e emit.Emitter, t *meta.Type) error {
	if t == nil || t.Constructor() == nil {
		return errors.InvalidOperand("newobj", t, "type has no parameterless constructor")
	}
	return e.Emit(opcode.Newobj, t.Constructor())
}

// Box boxes a value type; reference types are left alone.
func Box(e emit.Emitter, t *meta.Type) error {
	if t == nil || !t.IsValueType() {
		return nil
	}
	return e.Emit(opcode.Box, t)
}

// Return emits ret.
func Return(e emit.Emitter) error {
	return e.Emit(opcode.Ret)
}
