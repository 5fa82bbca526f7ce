package body

import (
	"fmt"

	"github.com/wippyai/cil-emit/meta"
)

// Token is a metadata token: table id in the high byte, 1-based row in the
// low three bytes.
type Token uint32

// Metadata tables a body references.
const (
	TableTypeRef       byte = 0x01
	TableMemberRef     byte = 0x0A
	TableStandAloneSig byte = 0x11
	TableUserString    byte = 0x70
)

func makeToken(table byte, row int) Token {
	return Token(uint32(table)<<24 | uint32(row))
}

// Table returns the metadata table id.
func (t Token) Table() byte { return byte(t >> 24) }

// Row returns the 1-based row index.
func (t Token) Row() int { return int(t & 0x00FFFFFF) }

func (t Token) String() string {
	return fmt.Sprintf("0x%08X", uint32(t))
}

// localsSig is the stand-alone signature describing a body's locals.
type localsSig struct {
	types []*meta.Type
}

// tokenTable interns every metadata reference a body emits.
type tokenTable struct {
	index   map[any]Token
	strings map[string]Token
	rows    map[byte][]any
}

func newTokenTable() *tokenTable {
	return &tokenTable{
		index:   make(map[any]Token),
		strings: make(map[string]Token),
		rows:    make(map[byte][]any),
	}
}

func (t *tokenTable) add(table byte, v any) Token {
	t.rows[table] = append(t.rows[table], v)
	return makeToken(table, len(t.rows[table]))
}

func (t *tokenTable) intern(table byte, v any) Token {
	if tok, ok := t.index[v]; ok {
		return tok
	}
	tok := t.add(table, v)
	t.index[v] = tok
	return tok
}

func (t *tokenTable) typeRef(v *meta.Type) Token        { return t.intern(TableTypeRef, v) }
func (t *tokenTable) methodRef(v *meta.Method) Token    { return t.intern(TableMemberRef, v) }
func (t *tokenTable) fieldRef(v *meta.Field) Token      { return t.intern(TableMemberRef, v) }
func (t *tokenTable) signature(v *meta.Signature) Token { return t.intern(TableStandAloneSig, v) }

func (t *tokenTable) userString(s string) Token {
	if tok, ok := t.strings[s]; ok {
		return tok
	}
	tok := t.add(TableUserString, s)
	t.strings[s] = tok
	return tok
}

// resolve returns the value behind tok.
func (t *tokenTable) resolve(tok Token) (any, bool) {
	rows := t.rows[tok.Table()]
	i := tok.Row() - 1
	if i < 0 || i >= len(rows) {
		return nil, false
	}
	return rows[i], true
}
