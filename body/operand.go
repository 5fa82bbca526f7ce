package body

import (
	"fmt"
	"math"

	"github.com/wippyai/cil-emit/emit"
	"github.com/wippyai/cil-emit/errors"
	"github.com/wippyai/cil-emit/internal/binary"
	"github.com/wippyai/cil-emit/meta"
	"github.com/wippyai/cil-emit/opcode"
)

// localOps take a local slot rather than an argument index.
var localOps = opcode.NewSet(
	opcode.Ldloc, opcode.LdlocS, opcode.Ldloca, opcode.LdlocaS,
	opcode.Stloc, opcode.StlocS,
)

// encodeOperand validates arg against the operand kind of info and writes
// it to w. Branches to unmarked labels are returned as pending fixups.
func (b *MethodBody) encodeOperand(w *binary.Writer, info *opcode.Info, arg any, start int) ([]fixup, error) {
	bad := func(detail string) error {
		return errors.InvalidOperand(info.Name, arg, detail)
	}
	want := func() error {
		return bad(fmt.Sprintf("expected %s operand, got %T", info.Operand, arg))
	}

	switch info.Operand {
	case opcode.OperandNone:
		return nil, nil

	case opcode.OperandShortInt:
		v, ok := asInt(arg, math.MinInt8, math.MaxInt8, func(x any) (int64, bool) {
			i, ok := x.(int8)
			return int64(i), ok
		})
		if !ok {
			return nil, want()
		}
		w.Byte(byte(int8(v)))

	case opcode.OperandInt32:
		v, ok := asInt(arg, math.MinInt32, math.MaxInt32, func(x any) (int64, bool) {
			i, ok := x.(int32)
			return int64(i), ok
		})
		if !ok {
			return nil, want()
		}
		w.WriteU32(uint32(int32(v)))

	case opcode.OperandInt64:
		v, ok := asInt(arg, math.MinInt64, math.MaxInt64, func(x any) (int64, bool) {
			i, ok := x.(int64)
			return i, ok
		})
		if !ok {
			return nil, want()
		}
		w.WriteU64(uint64(v))

	case opcode.OperandFloat32:
		v, ok := arg.(float32)
		if !ok {
			return nil, want()
		}
		w.WriteF32(v)

	case opcode.OperandFloat64:
		v, ok := arg.(float64)
		if !ok {
			return nil, want()
		}
		w.WriteF64(v)

	case opcode.OperandString:
		s, ok := arg.(string)
		if !ok {
			return nil, want()
		}
		w.WriteU32(uint32(b.tokens.userString(s)))

	case opcode.OperandShortBranch, opcode.OperandBranch:
		l, ok := arg.(emit.Label)
		if !ok {
			return nil, want()
		}
		if err := b.checkLabel(errors.PhaseEmit, l); err != nil {
			return nil, err
		}
		short := info.Operand == opcode.OperandShortBranch
		size := 4
		if short {
			size = 1
		}
		base := start + w.Len() + size
		return b.writeBranch(w, info, l, start+w.Len(), base, short)

	case opcode.OperandSwitch:
		targets, ok := arg.([]emit.Label)
		if !ok {
			return nil, want()
		}
		for _, l := range targets {
			if err := b.checkLabel(errors.PhaseEmit, l); err != nil {
				return nil, err
			}
		}
		w.WriteU32(uint32(len(targets)))
		base := start + w.Len() + 4*len(targets)
		var pending []fixup
		for _, l := range targets {
			fix, err := b.writeBranch(w, info, l, start+w.Len(), base, false)
			if err != nil {
				return nil, err
			}
			pending = append(pending, fix...)
		}
		return pending, nil

	case opcode.OperandShortVar, opcode.OperandVar:
		limit := math.MaxUint16
		if info.Operand == opcode.OperandShortVar {
			limit = math.MaxUint8
		}
		idx, err := b.varIndex(info, arg, limit)
		if err != nil {
			return nil, err
		}
		if info.Operand == opcode.OperandShortVar {
			w.Byte(byte(idx))
		} else {
			w.WriteU16(uint16(idx))
		}

	case opcode.OperandType:
		t, ok := arg.(*meta.Type)
		if !ok || t == nil {
			return nil, want()
		}
		w.WriteU32(uint32(b.tokens.typeRef(t)))

	case opcode.OperandMethod:
		m, ok := arg.(*meta.Method)
		if !ok || m == nil {
			return nil, want()
		}
		if info.Code == opcode.Newobj && !m.IsConstructor() {
			return nil, bad("newobj requires a constructor")
		}
		w.WriteU32(uint32(b.tokens.methodRef(m)))

	case opcode.OperandField:
		f, ok := arg.(*meta.Field)
		if !ok || f == nil {
			return nil, want()
		}
		w.WriteU32(uint32(b.tokens.fieldRef(f)))

	case opcode.OperandToken:
		var tok Token
		switch v := arg.(type) {
		case *meta.Type:
			tok = b.tokens.typeRef(v)
		case *meta.Method:
			tok = b.tokens.methodRef(v)
		case *meta.Field:
			tok = b.tokens.fieldRef(v)
		default:
			return nil, want()
		}
		w.WriteU32(uint32(tok))

	case opcode.OperandSignature:
		s, ok := arg.(*meta.Signature)
		if !ok || s == nil {
			return nil, want()
		}
		w.WriteU32(uint32(b.tokens.signature(s)))

	default:
		return nil, bad("unsupported operand kind")
	}
	return nil, nil
}

// writeBranch writes a relative offset to l, or a placeholder plus a fixup
// when l is not yet marked.
func (b *MethodBody) writeBranch(w *binary.Writer, info *opcode.Info, l emit.Label, pos, base int, short bool) ([]fixup, error) {
	target := b.labels[l]
	if target < 0 {
		if short {
			w.Byte(0)
		} else {
			w.WriteU32(0)
		}
		return []fixup{{label: l, op: info.Code, pos: pos, base: base, short: short}}, nil
	}
	delta := target - base
	if short {
		if delta < math.MinInt8 || delta > math.MaxInt8 {
			return nil, errors.InvalidOperand(info.Name, delta,
				fmt.Sprintf("branch to %s does not fit a short offset", l))
		}
		w.Byte(byte(int8(delta)))
		return nil, nil
	}
	w.WriteU32(uint32(int32(delta)))
	return nil, nil
}

// varIndex resolves a local or argument operand to its slot index.
func (b *MethodBody) varIndex(info *opcode.Info, arg any, limit int) (int, error) {
	isLocal := localOps.Has(info.Code)
	var idx int
	switch v := arg.(type) {
	case emit.Local:
		if !isLocal {
			return 0, errors.InvalidOperand(info.Name, v, "argument instruction given a local")
		}
		if v.Index < 0 || v.Index >= len(b.locals) || b.locals[v.Index].Type != v.Type {
			return 0, errors.InvalidOperand(info.Name, v, "local was not declared by this body")
		}
		idx = v.Index
	case uint8:
		idx = int(v)
	case uint16:
		idx = int(v)
	case int:
		idx = v
	default:
		return 0, errors.InvalidOperand(info.Name, arg,
			fmt.Sprintf("expected %s operand, got %T", info.Operand, arg))
	}
	if idx < 0 || idx > limit {
		return 0, errors.InvalidOperand(info.Name, idx,
			fmt.Sprintf("index does not fit a %s operand", info.Operand))
	}
	if isLocal && idx >= len(b.locals) {
		return 0, errors.OutOfBounds(errors.PhaseEmit, idx, len(b.locals))
	}
	return idx, nil
}

// asInt accepts the exact Go type for an integer kind, or a plain int that
// fits [lo, hi].
func asInt(arg any, lo, hi int64, exact func(any) (int64, bool)) (int64, bool) {
	if v, ok := exact(arg); ok {
		return v, true
	}
	if v, ok := arg.(int); ok && int64(v) >= lo && int64(v) <= hi {
		return int64(v), true
	}
	return 0, false
}
