package opcode

import "fmt"

// OperandKind describes the inline operand that follows an opcode.
type OperandKind byte

const (
	OperandNone        OperandKind = iota
	OperandShortInt                // int8
	OperandInt32                   // int32
	OperandInt64                   // int64
	OperandFloat32                 // float32
	OperandFloat64                 // float64
	OperandString                  // user string token
	OperandShortBranch             // int8 relative offset
	OperandBranch                  // int32 relative offset
	OperandSwitch                  // uint32 count + int32 offsets
	OperandShortVar                // uint8 local or argument index
	OperandVar                     // uint16 local or argument index
	OperandType                    // type token
	OperandMethod                  // method token
	OperandField                   // field token
	OperandToken                   // type, method or field token
	OperandSignature               // stand-alone signature token
)

var operandNames = [...]string{
	OperandNone:        "none",
	OperandShortInt:    "int8",
	OperandInt32:       "int32",
	OperandInt64:       "int64",
	OperandFloat32:     "float32",
	OperandFloat64:     "float64",
	OperandString:      "string",
	OperandShortBranch: "short label",
	OperandBranch:      "label",
	OperandSwitch:      "label table",
	OperandShortVar:    "short variable",
	OperandVar:         "variable",
	OperandType:        "type",
	OperandMethod:      "method",
	OperandField:       "field",
	OperandToken:       "token",
	OperandSignature:   "signature",
}

func (k OperandKind) String() string {
	if int(k) < len(operandNames) {
		return operandNames[k]
	}
	return fmt.Sprintf("operand(%d)", k)
}

// Size returns the encoded operand width in bytes. Switch returns the
// width of its count only; each target adds 4 more.
func (k OperandKind) Size() int {
	switch k {
	case OperandNone:
		return 0
	case OperandShortInt, OperandShortBranch, OperandShortVar:
		return 1
	case OperandVar:
		return 2
	case OperandInt64, OperandFloat64:
		return 8
	default:
		return 4
	}
}

// IsBranch reports whether the operand is a label reference.
func (k OperandKind) IsBranch() bool {
	return k == OperandShortBranch || k == OperandBranch || k == OperandSwitch
}

// Flow classifies how control leaves an instruction.
type Flow byte

const (
	FlowNext Flow = iota
	FlowBranch
	FlowCondBranch
	FlowCall
	FlowReturn
	FlowThrow
	FlowMeta // prefixes
	FlowBreak
)

// Variable marks a stack effect that depends on the operand (calls, ret).
const Variable = -1

// Info is the immutable descriptor of an opcode.
type Info struct {
	Name    string
	Code    Code
	Operand OperandKind
	Pop     int // Variable when operand dependent
	Push    int // Variable when operand dependent
	Flow    Flow
}

// AffectsStack reports whether the instruction pops or pushes anything.
func (i *Info) AffectsStack() bool {
	return i.Pop != 0 || i.Push != 0
}

// IsVariable reports whether the stack effect depends on the operand.
func (i *Info) IsVariable() bool {
	return i.Pop == Variable || i.Push == Variable
}

// Size returns the opcode width in bytes (operand excluded).
func (c Code) Size() int {
	if c > 0xFF {
		return 2
	}
	return 1
}

// Bytes returns the encoded opcode.
func (c Code) Bytes() []byte {
	if c > 0xFF {
		return []byte{Escape, byte(c)}
	}
	return []byte{byte(c)}
}

// Info returns the descriptor for c, or nil if c is not a known opcode.
func (c Code) Info() *Info {
	if c <= 0xFF {
		return oneByte[c]
	}
	if c>>8 == Code(Escape) {
		return twoByte[c&0xFF]
	}
	return nil
}

// Valid reports whether c is a known opcode.
func (c Code) Valid() bool {
	return c.Info() != nil
}

// String returns the assembler mnemonic.
func (c Code) String() string {
	if info := c.Info(); info != nil {
		return info.Name
	}
	return fmt.Sprintf("unknown(%#x)", uint16(c))
}

// Lookup returns the opcode with the given mnemonic.
func Lookup(name string) (Code, bool) {
	c, ok := byName[name]
	return c, ok
}

// All returns every known opcode in encoding order.
func All() []Code {
	out := make([]Code, 0, len(byName))
	for _, info := range oneByte {
		if info != nil {
			out = append(out, info.Code)
		}
	}
	for _, info := range twoByte {
		if info != nil {
			out = append(out, info.Code)
		}
	}
	return out
}

var (
	oneByte [256]*Info
	twoByte [256]*Info
	byName  = make(map[string]Code)
)

func def(c Code, name string, operand OperandKind, pop, push int, flow Flow) {
	info := &Info{Name: name, Code: c, Operand: operand, Pop: pop, Push: push, Flow: flow}
	if c <= 0xFF {
		oneByte[c] = info
	} else {
		twoByte[c&0xFF] = info
	}
	byName[name] = c
}

func init() {
	v := Variable

	def(Nop, "nop", OperandNone, 0, 0, FlowNext)
	def(Break, "break", OperandNone, 0, 0, FlowBreak)
	def(Ldarg0, "ldarg.0", OperandNone, 0, 1, FlowNext)
	def(Ldarg1, "ldarg.1", OperandNone, 0, 1, FlowNext)
	def(Ldarg2, "ldarg.2", OperandNone, 0, 1, FlowNext)
	def(Ldarg3, "ldarg.3", OperandNone, 0, 1, FlowNext)
	def(Ldloc0, "ldloc.0", OperandNone, 0, 1, FlowNext)
	def(Ldloc1, "ldloc.1", OperandNone, 0, 1, FlowNext)
	def(Ldloc2, "ldloc.2", OperandNone, 0, 1, FlowNext)
	def(Ldloc3, "ldloc.3", OperandNone, 0, 1, FlowNext)
	def(Stloc0, "stloc.0", OperandNone, 1, 0, FlowNext)
	def(Stloc1, "stloc.1", OperandNone, 1, 0, FlowNext)
	def(Stloc2, "stloc.2", OperandNone, 1, 0, FlowNext)
	def(Stloc3, "stloc.3", OperandNone, 1, 0, FlowNext)
	def(LdargS, "ldarg.s", OperandShortVar, 0, 1, FlowNext)
	def(LdargaS, "ldarga.s", OperandShortVar, 0, 1, FlowNext)
	def(StargS, "starg.s", OperandShortVar, 1, 0, FlowNext)
	def(LdlocS, "ldloc.s", OperandShortVar, 0, 1, FlowNext)
	def(LdlocaS, "ldloca.s", OperandShortVar, 0, 1, FlowNext)
	def(StlocS, "stloc.s", OperandShortVar, 1, 0, FlowNext)
	def(Ldnull, "ldnull", OperandNone, 0, 1, FlowNext)
	def(LdcI4M1, "ldc.i4.m1", OperandNone, 0, 1, FlowNext)
	def(LdcI40, "ldc.i4.0", OperandNone, 0, 1, FlowNext)
	def(LdcI41, "ldc.i4.1", OperandNone, 0, 1, FlowNext)
	def(LdcI42, "ldc.i4.2", OperandNone, 0, 1, FlowNext)
	def(LdcI43, "ldc.i4.3", OperandNone, 0, 1, FlowNext)
	def(LdcI44, "ldc.i4.4", OperandNone, 0, 1, FlowNext)
	def(LdcI45, "ldc.i4.5", OperandNone, 0, 1, FlowNext)
	def(LdcI46, "ldc.i4.6", OperandNone, 0, 1, FlowNext)
	def(LdcI47, "ldc.i4.7", OperandNone, 0, 1, FlowNext)
	def(LdcI48, "ldc.i4.8", OperandNone, 0, 1, FlowNext)
	def(LdcI4S, "ldc.i4.s", OperandShortInt, 0, 1, FlowNext)
	def(LdcI4, "ldc.i4", OperandInt32, 0, 1, FlowNext)
	def(LdcI8, "ldc.i8", OperandInt64, 0, 1, FlowNext)
	def(LdcR4, "ldc.r4", OperandFloat32, 0, 1, FlowNext)
	def(LdcR8, "ldc.r8", OperandFloat64, 0, 1, FlowNext)
	def(Dup, "dup", OperandNone, 1, 2, FlowNext)
	def(Pop, "pop", OperandNone, 1, 0, FlowNext)
	def(Jmp, "jmp", OperandMethod, 0, 0, FlowCall)
	def(Call, "call", OperandMethod, v, v, FlowCall)
	def(Calli, "calli", OperandSignature, v, v, FlowCall)
	def(Ret, "ret", OperandNone, v, 0, FlowReturn)

	def(BrS, "br.s", OperandShortBranch, 0, 0, FlowBranch)
	def(BrfalseS, "brfalse.s", OperandShortBranch, 1, 0, FlowCondBranch)
	def(BrtrueS, "brtrue.s", OperandShortBranch, 1, 0, FlowCondBranch)
	def(BeqS, "beq.s", OperandShortBranch, 2, 0, FlowCondBranch)
	def(BgeS, "bge.s", OperandShortBranch, 2, 0, FlowCondBranch)
	def(BgtS, "bgt.s", OperandShortBranch, 2, 0, FlowCondBranch)
	def(BleS, "ble.s", OperandShortBranch, 2, 0, FlowCondBranch)
	def(BltS, "blt.s", OperandShortBranch, 2, 0, FlowCondBranch)
	def(BneUnS, "bne.un.s", OperandShortBranch, 2, 0, FlowCondBranch)
	def(BgeUnS, "bge.un.s", OperandShortBranch, 2, 0, FlowCondBranch)
	def(BgtUnS, "bgt.un.s", OperandShortBranch, 2, 0, FlowCondBranch)
	def(BleUnS, "ble.un.s", OperandShortBranch, 2, 0, FlowCondBranch)
	def(BltUnS, "blt.un.s", OperandShortBranch, 2, 0, FlowCondBranch)
	def(Br, "br", OperandBranch, 0, 0, FlowBranch)
	def(Brfalse, "brfalse", OperandBranch, 1, 0, FlowCondBranch)
	def(Brtrue, "brtrue", OperandBranch, 1, 0, FlowCondBranch)
	def(Beq, "beq", OperandBranch, 2, 0, FlowCondBranch)
	def(Bge, "bge", OperandBranch, 2, 0, FlowCondBranch)
	def(Bgt, "bgt", OperandBranch, 2, 0, FlowCondBranch)
	def(Ble, "ble", OperandBranch, 2, 0, FlowCondBranch)
	def(Blt, "blt", OperandBranch, 2, 0, FlowCondBranch)
	def(BneUn, "bne.un", OperandBranch, 2, 0, FlowCondBranch)
	def(BgeUn, "bge.un", OperandBranch, 2, 0, FlowCondBranch)
	def(BgtUn, "bgt.un", OperandBranch, 2, 0, FlowCondBranch)
	def(BleUn, "ble.un", OperandBranch, 2, 0, FlowCondBranch)
	def(BltUn, "blt.un", OperandBranch, 2, 0, FlowCondBranch)
	def(Switch, "switch", OperandSwitch, 1, 0, FlowCondBranch)

	for _, d := range []struct {
		c    Code
		name string
	}{
		{LdindI1, "ldind.i1"}, {LdindU1, "ldind.u1"}, {LdindI2, "ldind.i2"}, {LdindU2, "ldind.u2"},
		{LdindI4, "ldind.i4"}, {LdindU4, "ldind.u4"}, {LdindI8, "ldind.i8"}, {LdindI, "ldind.i"},
		{LdindR4, "ldind.r4"}, {LdindR8, "ldind.r8"}, {LdindRef, "ldind.ref"},
	} {
		def(d.c, d.name, OperandNone, 1, 1, FlowNext)
	}
	for _, d := range []struct {
		c    Code
		name string
	}{
		{StindRef, "stind.ref"}, {StindI1, "stind.i1"}, {StindI2, "stind.i2"}, {StindI4, "stind.i4"},
		{StindI8, "stind.i8"}, {StindR4, "stind.r4"}, {StindR8, "stind.r8"}, {StindI, "stind.i"},
	} {
		def(d.c, d.name, OperandNone, 2, 0, FlowNext)
	}

	for _, d := range []struct {
		c    Code
		name string
	}{
		{Add, "add"}, {Sub, "sub"}, {Mul, "mul"}, {Div, "div"}, {DivUn, "div.un"},
		{Rem, "rem"}, {RemUn, "rem.un"}, {And, "and"}, {Or, "or"}, {Xor, "xor"},
		{Shl, "shl"}, {Shr, "shr"}, {ShrUn, "shr.un"},
		{AddOvf, "add.ovf"}, {AddOvfUn, "add.ovf.un"}, {MulOvf, "mul.ovf"},
		{MulOvfUn, "mul.ovf.un"}, {SubOvf, "sub.ovf"}, {SubOvfUn, "sub.ovf.un"},
		{Ceq, "ceq"}, {Cgt, "cgt"}, {CgtUn, "cgt.un"}, {Clt, "clt"}, {CltUn, "clt.un"},
	} {
		def(d.c, d.name, OperandNone, 2, 1, FlowNext)
	}
	for _, d := range []struct {
		c    Code
		name string
	}{
		{Neg, "neg"}, {Not, "not"}, {ConvI1, "conv.i1"}, {ConvI2, "conv.i2"}, {ConvI4, "conv.i4"},
		{ConvI8, "conv.i8"}, {ConvR4, "conv.r4"}, {ConvR8, "conv.r8"}, {ConvU4, "conv.u4"},
		{ConvU8, "conv.u8"}, {ConvRUn, "conv.r.un"}, {ConvU2, "conv.u2"}, {ConvU1, "conv.u1"},
		{ConvI, "conv.i"}, {ConvU, "conv.u"}, {Ckfinite, "ckfinite"}, {Ldlen, "ldlen"},
		{Refanytype, "refanytype"},
	} {
		def(d.c, d.name, OperandNone, 1, 1, FlowNext)
	}

	def(Callvirt, "callvirt", OperandMethod, v, v, FlowCall)
	def(Cpobj, "cpobj", OperandType, 2, 0, FlowNext)
	def(Ldobj, "ldobj", OperandType, 1, 1, FlowNext)
	def(Ldstr, "ldstr", OperandString, 0, 1, FlowNext)
	def(Newobj, "newobj", OperandMethod, v, 1, FlowCall)
	def(Castclass, "castclass", OperandType, 1, 1, FlowNext)
	def(Isinst, "isinst", OperandType, 1, 1, FlowNext)
	def(Unbox, "unbox", OperandType, 1, 1, FlowNext)
	def(Throw, "throw", OperandNone, 1, 0, FlowThrow)
	def(Ldfld, "ldfld", OperandField, 1, 1, FlowNext)
	def(Ldflda, "ldflda", OperandField, 1, 1, FlowNext)
	def(Stfld, "stfld", OperandField, 2, 0, FlowNext)
	def(Ldsfld, "ldsfld", OperandField, 0, 1, FlowNext)
	def(Ldsflda, "ldsflda", OperandField, 0, 1, FlowNext)
	def(Stsfld, "stsfld", OperandField, 1, 0, FlowNext)
	def(Stobj, "stobj", OperandType, 2, 0, FlowNext)
	def(Box, "box", OperandType, 1, 1, FlowNext)
	def(Newarr, "newarr", OperandType, 1, 1, FlowNext)
	def(Ldelema, "ldelema", OperandType, 2, 1, FlowNext)
	for _, d := range []struct {
		c    Code
		name string
	}{
		{LdelemI1, "ldelem.i1"}, {LdelemU1, "ldelem.u1"}, {LdelemI2, "ldelem.i2"},
		{LdelemU2, "ldelem.u2"}, {LdelemI4, "ldelem.i4"}, {LdelemU4, "ldelem.u4"},
		{LdelemI8, "ldelem.i8"}, {LdelemI, "ldelem.i"}, {LdelemR4, "ldelem.r4"},
		{LdelemR8, "ldelem.r8"}, {LdelemRef, "ldelem.ref"},
	} {
		def(d.c, d.name, OperandNone, 2, 1, FlowNext)
	}
	for _, d := range []struct {
		c    Code
		name string
	}{
		{StelemI, "stelem.i"}, {StelemI1, "stelem.i1"}, {StelemI2, "stelem.i2"},
		{StelemI4, "stelem.i4"}, {StelemI8, "stelem.i8"}, {StelemR4, "stelem.r4"},
		{StelemR8, "stelem.r8"}, {StelemRef, "stelem.ref"},
	} {
		def(d.c, d.name, OperandNone, 3, 0, FlowNext)
	}
	def(Ldelem, "ldelem", OperandType, 2, 1, FlowNext)
	def(Stelem, "stelem", OperandType, 3, 0, FlowNext)
	def(UnboxAny, "unbox.any", OperandType, 1, 1, FlowNext)
	def(Refanyval, "refanyval", OperandType, 1, 1, FlowNext)
	def(Mkrefany, "mkrefany", OperandType, 1, 1, FlowNext)
	def(Ldtoken, "ldtoken", OperandToken, 0, 1, FlowNext)

	def(Endfinally, "endfinally", OperandNone, 0, 0, FlowReturn)
	def(Leave, "leave", OperandBranch, 0, 0, FlowBranch)
	def(LeaveS, "leave.s", OperandShortBranch, 0, 0, FlowBranch)

	def(Prefix7, "prefix7", OperandNone, 0, 0, FlowMeta)
	def(Prefix6, "prefix6", OperandNone, 0, 0, FlowMeta)
	def(Prefix5, "prefix5", OperandNone, 0, 0, FlowMeta)
	def(Prefix4, "prefix4", OperandNone, 0, 0, FlowMeta)
	def(Prefix3, "prefix3", OperandNone, 0, 0, FlowMeta)
	def(Prefix2, "prefix2", OperandNone, 0, 0, FlowMeta)
	def(Prefix1, "prefix1", OperandNone, 0, 0, FlowMeta)
	def(Prefixref, "prefixref", OperandNone, 0, 0, FlowMeta)

	def(Arglist, "arglist", OperandNone, 0, 1, FlowNext)
	def(Ldftn, "ldftn", OperandMethod, 0, 1, FlowNext)
	def(Ldvirtftn, "ldvirtftn", OperandMethod, 1, 1, FlowNext)
	def(Ldarg, "ldarg", OperandVar, 0, 1, FlowNext)
	def(Ldarga, "ldarga", OperandVar, 0, 1, FlowNext)
	def(Starg, "starg", OperandVar, 1, 0, FlowNext)
	def(Ldloc, "ldloc", OperandVar, 0, 1, FlowNext)
	def(Ldloca, "ldloca", OperandVar, 0, 1, FlowNext)
	def(Stloc, "stloc", OperandVar, 1, 0, FlowNext)
	def(Localloc, "localloc", OperandNone, 1, 1, FlowNext)
	def(Endfilter, "endfilter", OperandNone, 1, 0, FlowReturn)
	def(Unaligned, "unaligned.", OperandShortInt, 0, 0, FlowMeta)
	def(Volatile, "volatile.", OperandNone, 0, 0, FlowMeta)
	def(Tail, "tail.", OperandNone, 0, 0, FlowMeta)
	def(Initobj, "initobj", OperandType, 1, 0, FlowNext)
	def(Constrained, "constrained.", OperandType, 0, 0, FlowMeta)
	def(Cpblk, "cpblk", OperandNone, 3, 0, FlowNext)
	def(Initblk, "initblk", OperandNone, 3, 0, FlowNext)
	def(No, "no.", OperandShortInt, 0, 0, FlowMeta)
	def(Rethrow, "rethrow", OperandNone, 0, 0, FlowThrow)
	def(Sizeof, "sizeof", OperandType, 0, 1, FlowNext)
	def(ReadonlyPref, "readonly.", OperandNone, 0, 0, FlowMeta)
}
