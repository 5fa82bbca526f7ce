package body

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/cil-emit/errors"
	"github.com/wippyai/cil-emit/internal/binary"
	"github.com/wippyai/cil-emit/opcode"
)

// Instruction is a decoded instruction.
//
// Operand holds int8, int32, int64, float32 or float64 for constants,
// uint8 or uint16 for variable indices, Token for metadata references and
// strings, int (absolute target offset) for branches, and []int for switch.
type Instruction struct {
	Operand any
	Offset  int
	Size    int
	Op      opcode.Code
}

// Targets returns the absolute branch targets of a branch or switch.
func (i Instruction) Targets() []int {
	switch v := i.Operand.(type) {
	case int:
		return []int{v}
	case []int:
		return v
	}
	return nil
}

func (i Instruction) String() string {
	return fmt.Sprintf("IL_%04x: %s", i.Offset, i.text(nil))
}

func (i Instruction) text(m *Method) string {
	name := i.Op.String()
	if i.Operand == nil {
		return name
	}
	return name + " " + formatOperand(i.Operand, m)
}

func formatOperand(v any, m *Method) string {
	switch v := v.(type) {
	case int:
		return label(v)
	case []int:
		parts := make([]string, len(v))
		for i, t := range v {
			parts[i] = label(t)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case Token:
		if m != nil {
			if r, ok := m.Resolve(v); ok {
				if s, isStr := r.(string); isStr {
					return strconv.Quote(s)
				}
				return fmt.Sprint(r)
			}
		}
		return v.String()
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return fmt.Sprint(v)
}

func label(offset int) string {
	return fmt.Sprintf("IL_%04x", offset)
}

// Decode decodes a code stream into instructions.
func Decode(code []byte) ([]Instruction, error) {
	r := binary.NewReader(code)
	var out []Instruction
	for r.Len() > 0 {
		at := r.Position()
		b, _ := r.ReadByte()
		op := opcode.Code(b)
		if b == opcode.Escape {
			second, err := r.ReadByte()
			if err != nil {
				return out, errors.InvalidData(errors.PhaseDecode, at, "truncated two-byte opcode")
			}
			op = opcode.Code(opcode.Escape)<<8 | opcode.Code(second)
		}
		info := op.Info()
		if info == nil {
			return out, errors.InvalidData(errors.PhaseDecode, at, fmt.Sprintf("unknown opcode %#x", uint16(op)))
		}
		operand, err := readOperand(r, info.Operand)
		if err != nil {
			return out, errors.New(errors.PhaseDecode, errors.KindInvalidData).
				Op(info.Name).
				Value(at).
				Cause(err).
				Detail("operand at offset %d", at).
				Build()
		}
		out = append(out, Instruction{
			Operand: operand,
			Offset:  at,
			Size:    r.Position() - at,
			Op:      op,
		})
	}
	return out, nil
}

func readOperand(r *binary.Reader, kind opcode.OperandKind) (any, error) {
	switch kind {
	case opcode.OperandNone:
		return nil, nil
	case opcode.OperandShortInt:
		b, err := r.ReadByte()
		return int8(b), err
	case opcode.OperandInt32:
		v, err := r.ReadU32()
		return int32(v), err
	case opcode.OperandInt64:
		v, err := r.ReadU64()
		return int64(v), err
	case opcode.OperandFloat32:
		return r.ReadF32()
	case opcode.OperandFloat64:
		return r.ReadF64()
	case opcode.OperandShortBranch:
		b, err := r.ReadByte()
		return r.Position() + int(int8(b)), err
	case opcode.OperandBranch:
		v, err := r.ReadU32()
		return r.Position() + int(int32(v)), err
	case opcode.OperandSwitch:
		n, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		if int(n) > r.Len()/4 {
			return nil, errors.OutOfBounds(errors.PhaseDecode, int(n), r.Len()/4)
		}
		deltas := make([]int32, n)
		for i := range deltas {
			v, _ := r.ReadU32()
			deltas[i] = int32(v)
		}
		base := r.Position()
		targets := make([]int, n)
		for i, d := range deltas {
			targets[i] = base + int(d)
		}
		return targets, nil
	case opcode.OperandShortVar:
		b, err := r.ReadByte()
		return b, err
	case opcode.OperandVar:
		return r.ReadU16()
	default:
		v, err := r.ReadU32()
		return Token(v), err
	}
}

// Disassemble renders m as an assembler-style listing with resolved
// metadata references and the exception clause table.
func Disassemble(m *Method) (string, error) {
	instrs, err := m.Instructions()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, ".method %s\n", m.Name)
	fmt.Fprintf(&b, ".maxstack %d\n", m.MaxStack)
	if len(m.Locals) > 0 {
		b.WriteString(".locals ")
		if m.InitLocals {
			b.WriteString("init ")
		}
		b.WriteByte('(')
		for i, l := range m.Locals {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(l.Type.String())
			if l.Pinned {
				b.WriteString(" pinned")
			}
			b.WriteByte(' ')
			b.WriteString(l.String())
		}
		b.WriteString(")\n")
	}
	for _, in := range instrs {
		fmt.Fprintf(&b, "%s: %s\n", label(in.Offset), in.text(m))
	}
	for _, c := range m.Clauses {
		b.WriteString(c.String())
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// String renders the clause in ilasm's raw clause form.
func (c Clause) String() string {
	try := fmt.Sprintf(".try %s to %s", label(c.TryOffset), label(c.TryOffset+c.TryLength))
	handler := fmt.Sprintf("handler %s to %s", label(c.HandlerOffset), label(c.HandlerOffset+c.HandlerLength))
	switch c.Kind {
	case ClauseCatch:
		name := c.ClassToken.String()
		if c.CatchType != nil {
			name = c.CatchType.String()
		}
		return fmt.Sprintf("%s catch %s %s", try, name, handler)
	case ClauseFilter:
		return fmt.Sprintf("%s filter %s %s", try, label(c.FilterOffset), handler)
	}
	return fmt.Sprintf("%s %s %s", try, c.Kind, handler)
}
