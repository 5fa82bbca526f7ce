package body

import (
	"fmt"

	"github.com/wippyai/cil-emit/errors"
	"github.com/wippyai/cil-emit/internal/binary"
)

// Method header and EH section constants.
const (
	headerTiny       byte   = 0x02
	headerFat        uint16 = 0x03
	headerMoreSects  uint16 = 0x08
	headerInitLocals uint16 = 0x10
	fatHeaderWords   uint16 = 3

	sectEHTable   byte = 0x01
	sectFatFormat byte = 0x40
	sectMoreSects byte = 0x80

	tinyMaxCode  = 64
	tinyMaxStack = 8

	smallClauseSize = 12
	fatClauseSize   = 24
)

// Bytes encodes m as a method body: tiny or fat header, code, and the
// exception handling section when m has clauses.
func (m *Method) Bytes() []byte {
	w := binary.NewWriter()
	if m.isTiny() {
		w.Byte(byte(len(m.Code))<<2 | headerTiny)
		w.WriteBytes(m.Code)
		return w.Bytes()
	}

	flags := headerFat
	if len(m.Clauses) > 0 {
		flags |= headerMoreSects
	}
	if m.InitLocals && len(m.Locals) > 0 {
		flags |= headerInitLocals
	}
	w.WriteU16(flags | fatHeaderWords<<12)
	w.WriteU16(uint16(m.MaxStack))
	w.WriteU32(uint32(len(m.Code)))
	w.WriteU32(uint32(m.LocalsToken))
	w.WriteBytes(m.Code)

	if len(m.Clauses) == 0 {
		return w.Bytes()
	}
	w.Align(4)
	if m.smallClauses() {
		w.Byte(sectEHTable)
		w.Byte(byte(4 + smallClauseSize*len(m.Clauses)))
		w.WriteU16(0)
		for _, c := range m.Clauses {
			w.WriteU16(uint16(c.Kind.Flags()))
			w.WriteU16(uint16(c.TryOffset))
			w.Byte(byte(c.TryLength))
			w.WriteU16(uint16(c.HandlerOffset))
			w.Byte(byte(c.HandlerLength))
			w.WriteU32(c.extra())
		}
		return w.Bytes()
	}

	size := 4 + fatClauseSize*len(m.Clauses)
	w.Byte(sectEHTable | sectFatFormat)
	w.Byte(byte(size))
	w.Byte(byte(size >> 8))
	w.Byte(byte(size >> 16))
	for _, c := range m.Clauses {
		w.WriteU32(c.Kind.Flags())
		w.WriteU32(uint32(c.TryOffset))
		w.WriteU32(uint32(c.TryLength))
		w.WriteU32(uint32(c.HandlerOffset))
		w.WriteU32(uint32(c.HandlerLength))
		w.WriteU32(c.extra())
	}
	return w.Bytes()
}

func (m *Method) isTiny() bool {
	return len(m.Code) < tinyMaxCode &&
		m.MaxStack <= tinyMaxStack &&
		len(m.Locals) == 0 &&
		len(m.Clauses) == 0
}

func (m *Method) smallClauses() bool {
	if 4+smallClauseSize*len(m.Clauses) > 0xFF {
		return false
	}
	for _, c := range m.Clauses {
		if c.TryOffset > 0xFFFF || c.HandlerOffset > 0xFFFF ||
			c.TryLength > 0xFF || c.HandlerLength > 0xFF {
			return false
		}
	}
	return true
}

// extra is the last clause word: the class token or the filter offset.
func (c Clause) extra() uint32 {
	switch c.Kind {
	case ClauseCatch:
		return uint32(c.ClassToken)
	case ClauseFilter:
		return uint32(c.FilterOffset)
	}
	return 0
}

// Image is a method body decoded from its binary form. Catch clauses carry
// their class token only.
type Image struct {
	Code        []byte
	Clauses     []Clause
	MaxStack    int
	LocalsToken Token
	InitLocals  bool
	Tiny        bool
}

// DecodeBody parses an encoded method body.
func DecodeBody(data []byte) (*Image, error) {
	r := binary.NewReader(data)
	first, err := r.ReadByte()
	if err != nil {
		return nil, errors.InvalidData(errors.PhaseDecode, 0, "empty method body")
	}

	if first&0x03 == headerTiny {
		code, err := r.ReadBytes(int(first >> 2))
		if err != nil {
			return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "tiny body code")
		}
		return &Image{Code: code, MaxStack: tinyMaxStack, Tiny: true}, nil
	}
	if uint16(first)&0x03 != headerFat {
		return nil, errors.InvalidData(errors.PhaseDecode, 0, fmt.Sprintf("bad header format %#x", first&0x03))
	}

	if err := r.Seek(0); err != nil {
		return nil, err
	}
	flags, err := r.ReadU16()
	if err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "fat header")
	}
	if flags>>12 != fatHeaderWords {
		return nil, errors.InvalidData(errors.PhaseDecode, 0, fmt.Sprintf("fat header size %d", flags>>12))
	}
	maxStack, err := r.ReadU16()
	if err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "max stack")
	}
	codeSize, err := r.ReadU32()
	if err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "code size")
	}
	localsTok, err := r.ReadU32()
	if err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "locals token")
	}
	code, err := r.ReadBytes(int(codeSize))
	if err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "code")
	}

	img := &Image{
		Code:        code,
		MaxStack:    int(maxStack),
		LocalsToken: Token(localsTok),
		InitLocals:  flags&headerInitLocals != 0,
	}
	more := flags&headerMoreSects != 0
	for more {
		if pad := r.Position() % 4; pad != 0 {
			if err := r.Seek(r.Position() + 4 - pad); err != nil {
				return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "section alignment")
			}
		}
		clauses, next, err := readSection(r)
		if err != nil {
			return nil, err
		}
		img.Clauses = append(img.Clauses, clauses...)
		more = next
	}
	return img, nil
}

func readSection(r *binary.Reader) ([]Clause, bool, error) {
	at := r.Position()
	kind, err := r.ReadByte()
	if err != nil {
		return nil, false, errors.InvalidData(errors.PhaseDecode, at, "missing section header")
	}
	if kind&sectEHTable == 0 {
		return nil, false, errors.InvalidData(errors.PhaseDecode, at, fmt.Sprintf("unknown section kind %#x", kind))
	}
	more := kind&sectMoreSects != 0

	if kind&sectFatFormat == 0 {
		size, err := r.ReadByte()
		if err != nil {
			return nil, false, errors.InvalidData(errors.PhaseDecode, at, "section size")
		}
		if _, err := r.ReadU16(); err != nil {
			return nil, false, errors.InvalidData(errors.PhaseDecode, at, "section padding")
		}
		n := (int(size) - 4) / smallClauseSize
		clauses := make([]Clause, 0, n)
		for range n {
			c, err := readSmallClause(r)
			if err != nil {
				return nil, false, err
			}
			clauses = append(clauses, c)
		}
		return clauses, more, nil
	}

	raw, err := r.ReadBytes(3)
	if err != nil {
		return nil, false, errors.InvalidData(errors.PhaseDecode, at, "section size")
	}
	size := int(raw[0]) | int(raw[1])<<8 | int(raw[2])<<16
	n := (size - 4) / fatClauseSize
	clauses := make([]Clause, 0, n)
	for range n {
		var v [6]uint32
		for i := range v {
			if v[i], err = r.ReadU32(); err != nil {
				return nil, false, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "fat clause")
			}
		}
		clauses = append(clauses, newClause(v[0], int(v[1]), int(v[2]), int(v[3]), int(v[4]), v[5]))
	}
	return clauses, more, nil
}

func readSmallClause(r *binary.Reader) (Clause, error) {
	fail := func(err error) (Clause, error) {
		return Clause{}, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "small clause")
	}
	flags, err := r.ReadU16()
	if err != nil {
		return fail(err)
	}
	tryOff, err := r.ReadU16()
	if err != nil {
		return fail(err)
	}
	tryLen, err := r.ReadByte()
	if err != nil {
		return fail(err)
	}
	hOff, err := r.ReadU16()
	if err != nil {
		return fail(err)
	}
	hLen, err := r.ReadByte()
	if err != nil {
		return fail(err)
	}
	extra, err := r.ReadU32()
	if err != nil {
		return fail(err)
	}
	return newClause(uint32(flags), int(tryOff), int(tryLen), int(hOff), int(hLen), extra), nil
}

func newClause(flags uint32, tryOff, tryLen, hOff, hLen int, extra uint32) Clause {
	c := Clause{TryOffset: tryOff, TryLength: tryLen, HandlerOffset: hOff, HandlerLength: hLen}
	switch {
	case flags&0x1 != 0:
		c.Kind = ClauseFilter
		c.FilterOffset = int(extra)
	case flags&0x2 != 0:
		c.Kind = ClauseFinally
	case flags&0x4 != 0:
		c.Kind = ClauseFault
	default:
		c.Kind = ClauseCatch
		c.ClassToken = Token(extra)
	}
	return c
}
