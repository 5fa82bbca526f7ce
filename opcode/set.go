package opcode

import "strings"

// Set is a compact immutable set of opcodes backed by a bitmap.
// One-byte opcodes occupy bits 0-255, two-byte opcodes bits 256-511.
type Set struct {
	bits [8]uint64
}

func slot(c Code) (int, bool) {
	if c <= 0xFF {
		return int(c), true
	}
	if c>>8 == Code(Escape) {
		return 256 + int(c&0xFF), true
	}
	return 0, false
}

// NewSet builds a set containing codes.
func NewSet(codes ...Code) Set {
	var s Set
	for _, c := range codes {
		if i, ok := slot(c); ok {
			s.bits[i/64] |= 1 << (i % 64)
		}
	}
	return s
}

// Has returns true if c is in the set.
func (s Set) Has(c Code) bool {
	i, ok := slot(c)
	if !ok {
		return false
	}
	return s.bits[i/64]&(1<<(i%64)) != 0
}

// Union returns a new set with the members of both.
func (s Set) Union(other Set) Set {
	for i := range s.bits {
		s.bits[i] |= other.bits[i]
	}
	return s
}

// With returns a new set with codes added.
func (s Set) With(codes ...Code) Set {
	return s.Union(NewSet(codes...))
}

// Codes returns the members in encoding order.
func (s Set) Codes() []Code {
	var result []Code
	for i, word := range s.bits {
		if word == 0 {
			continue
		}
		for bit := 0; bit < 64; bit++ {
			if word&(1<<bit) == 0 {
				continue
			}
			n := i*64 + bit
			if n < 256 {
				result = append(result, Code(n))
			} else {
				result = append(result, Code(Escape)<<8|Code(n-256))
			}
		}
	}
	return result
}

// Len returns the number of members.
func (s Set) Len() int {
	count := 0
	for _, word := range s.bits {
		for word != 0 {
			word &= word - 1
			count++
		}
	}
	return count
}

// String lists the member mnemonics.
func (s Set) String() string {
	codes := s.Codes()
	names := make([]string, len(codes))
	for i, c := range codes {
		names[i] = c.String()
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// Prefixes is the set of raw prefix escape opcodes.
var Prefixes = NewSet(Prefix1, Prefix2, Prefix3, Prefix4, Prefix5, Prefix6, Prefix7, Prefixref)
