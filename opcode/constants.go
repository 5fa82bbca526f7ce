package opcode

// Code identifies an instruction. One-byte opcodes use their byte value;
// two-byte opcodes are encoded as Escape followed by the low byte and are
// represented here as 0xFE00|low.
type Code uint16

// Escape is the first byte of every two-byte opcode.
const Escape byte = 0xFE

// Base instructions
const (
	Nop      Code = 0x00
	Break    Code = 0x01
	Ldarg0   Code = 0x02
	Ldarg1   Code = 0x03
	Ldarg2   Code = 0x04
	Ldarg3   Code = 0x05
	Ldloc0   Code = 0x06
	Ldloc1   Code = 0x07
	Ldloc2   Code = 0x08
	Ldloc3   Code = 0x09
	Stloc0   Code = 0x0A
	Stloc1   Code = 0x0B
	Stloc2   Code = 0x0C
	Stloc3   Code = 0x0D
	LdargS   Code = 0x0E
	LdargaS  Code = 0x0F
	StargS   Code = 0x10
	LdlocS   Code = 0x11
	LdlocaS  Code = 0x12
	StlocS   Code = 0x13
	Ldnull   Code = 0x14
	LdcI4M1  Code = 0x15
	LdcI40   Code = 0x16
	LdcI41   Code = 0x17
	LdcI42   Code = 0x18
	LdcI43   Code = 0x19
	LdcI44   Code = 0x1A
	LdcI45   Code = 0x1B
	LdcI46   Code = 0x1C
	LdcI47   Code = 0x1D
	LdcI48   Code = 0x1E
	LdcI4S   Code = 0x1F
	LdcI4    Code = 0x20
	LdcI8    Code = 0x21
	LdcR4    Code = 0x22
	LdcR8    Code = 0x23
	Dup      Code = 0x25
	Pop      Code = 0x26
	Jmp      Code = 0x27
	Call     Code = 0x28
	Calli    Code = 0x29
	Ret      Code = 0x2A
	BrS      Code = 0x2B
	BrfalseS Code = 0x2C
	BrtrueS  Code = 0x2D
	BeqS     Code = 0x2E
	BgeS     Code = 0x2F
	BgtS     Code = 0x30
	BleS     Code = 0x31
	BltS     Code = 0x32
	BneUnS   Code = 0x33
	BgeUnS   Code = 0x34
	BgtUnS   Code = 0x35
	BleUnS   Code = 0x36
	BltUnS   Code = 0x37
	Br       Code = 0x38
	Brfalse  Code = 0x39
	Brtrue   Code = 0x3A
	Beq      Code = 0x3B
	Bge      Code = 0x3C
	Bgt      Code = 0x3D
	Ble      Code = 0x3E
	Blt      Code = 0x3F
	BneUn    Code = 0x40
	BgeUn    Code = 0x41
	BgtUn    Code = 0x42
	BleUn    Code = 0x43
	BltUn    Code = 0x44
	Switch   Code = 0x45
)

// Indirect load/store
const (
	LdindI1  Code = 0x46
	LdindU1  Code = 0x47
	LdindI2  Code = 0x48
	LdindU2  Code = 0x49
	LdindI4  Code = 0x4A
	LdindU4  Code = 0x4B
	LdindI8  Code = 0x4C
	LdindI   Code = 0x4D
	LdindR4  Code = 0x4E
	LdindR8  Code = 0x4F
	LdindRef Code = 0x50
	StindRef Code = 0x51
	StindI1  Code = 0x52
	StindI2  Code = 0x53
	StindI4  Code = 0x54
	StindI8  Code = 0x55
	StindR4  Code = 0x56
	StindR8  Code = 0x57
	StindI   Code = 0xDF
)

// Arithmetic, bitwise and conversion
const (
	Add      Code = 0x58
	Sub      Code = 0x59
	Mul      Code = 0x5A
	Div      Code = 0x5B
	DivUn    Code = 0x5C
	Rem      Code = 0x5D
	RemUn    Code = 0x5E
	And      Code = 0x5F
	Or       Code = 0x60
	Xor      Code = 0x61
	Shl      Code = 0x62
	Shr      Code = 0x63
	ShrUn    Code = 0x64
	Neg      Code = 0x65
	Not      Code = 0x66
	ConvI1   Code = 0x67
	ConvI2   Code = 0x68
	ConvI4   Code = 0x69
	ConvI8   Code = 0x6A
	ConvR4   Code = 0x6B
	ConvR8   Code = 0x6C
	ConvU4   Code = 0x6D
	ConvU8   Code = 0x6E
	ConvRUn  Code = 0x76
	ConvU2   Code = 0xD1
	ConvU1   Code = 0xD2
	ConvI    Code = 0xD3
	ConvU    Code = 0xE0
	AddOvf   Code = 0xD6
	AddOvfUn Code = 0xD7
	MulOvf   Code = 0xD8
	MulOvfUn Code = 0xD9
	SubOvf   Code = 0xDA
	SubOvfUn Code = 0xDB
	Ckfinite Code = 0xC3
)

// Object model
const (
	Callvirt  Code = 0x6F
	Cpobj     Code = 0x70
	Ldobj     Code = 0x71
	Ldstr     Code = 0x72
	Newobj    Code = 0x73
	Castclass Code = 0x74
	Isinst    Code = 0x75
	Unbox     Code = 0x79
	Throw     Code = 0x7A
	Ldfld     Code = 0x7B
	Ldflda    Code = 0x7C
	Stfld     Code = 0x7D
	Ldsfld    Code = 0x7E
	Ldsflda   Code = 0x7F
	Stsfld    Code = 0x80
	Stobj     Code = 0x81
	Box       Code = 0x8C
	Newarr    Code = 0x8D
	Ldlen     Code = 0x8E
	Ldelema   Code = 0x8F
	LdelemI1  Code = 0x90
	LdelemU1  Code = 0x91
	LdelemI2  Code = 0x92
	LdelemU2  Code = 0x93
	LdelemI4  Code = 0x94
	LdelemU4  Code = 0x95
	LdelemI8  Code = 0x96
	LdelemI   Code = 0x97
	LdelemR4  Code = 0x98
	LdelemR8  Code = 0x99
	LdelemRef Code = 0x9A
	StelemI   Code = 0x9B
	StelemI1  Code = 0x9C
	StelemI2  Code = 0x9D
	StelemI4  Code = 0x9E
	StelemI8  Code = 0x9F
	StelemR4  Code = 0xA0
	StelemR8  Code = 0xA1
	StelemRef Code = 0xA2
	Ldelem    Code = 0xA3
	Stelem    Code = 0xA4
	UnboxAny  Code = 0xA5
	Refanyval Code = 0xC2
	Mkrefany  Code = 0xC6
	Ldtoken   Code = 0xD0
)

// Exception handling
const (
	Endfinally Code = 0xDC
	Leave      Code = 0xDD
	LeaveS     Code = 0xDE
)

// Raw prefix escapes. Emitting one of these directly corrupts the stream,
// since the decoder pairs it with the following byte.
const (
	Prefix7   Code = 0xF8
	Prefix6   Code = 0xF9
	Prefix5   Code = 0xFA
	Prefix4   Code = 0xFB
	Prefix3   Code = 0xFC
	Prefix2   Code = 0xFD
	Prefix1   Code = 0xFE
	Prefixref Code = 0xFF
)

// Two-byte instructions
const (
	Arglist      Code = 0xFE00
	Ceq          Code = 0xFE01
	Cgt          Code = 0xFE02
	CgtUn        Code = 0xFE03
	Clt          Code = 0xFE04
	CltUn        Code = 0xFE05
	Ldftn        Code = 0xFE06
	Ldvirtftn    Code = 0xFE07
	Ldarg        Code = 0xFE09
	Ldarga       Code = 0xFE0A
	Starg        Code = 0xFE0B
	Ldloc        Code = 0xFE0C
	Ldloca       Code = 0xFE0D
	Stloc        Code = 0xFE0E
	Localloc     Code = 0xFE0F
	Endfilter    Code = 0xFE11
	Unaligned    Code = 0xFE12
	Volatile     Code = 0xFE13
	Tail         Code = 0xFE14
	Initobj      Code = 0xFE15
	Constrained  Code = 0xFE16
	Cpblk        Code = 0xFE17
	Initblk      Code = 0xFE18
	No           Code = 0xFE19
	Rethrow      Code = 0xFE1A
	Sizeof       Code = 0xFE1C
	Refanytype   Code = 0xFE1D
	ReadonlyPref Code = 0xFE1E
)
