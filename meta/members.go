package meta

import (
	"fmt"
	"strings"
)

// Method is a method reference: owner, name and signature.
type Method struct {
	owner   *Type
	ret     *Type
	name    string
	params  []*Type
	hasThis bool
	virtual bool
}

// NewMethod creates an instance method reference. ret is nil for void.
func NewMethod(owner *Type, name string, ret *Type, params ...*Type) *Method {
	return &Method{owner: owner, name: name, ret: ret, params: append([]*Type(nil), params...), hasThis: true}
}

// NewStaticMethod creates a static method reference. ret is nil for void.
func NewStaticMethod(owner *Type, name string, ret *Type, params ...*Type) *Method {
	return &Method{owner: owner, name: name, ret: ret, params: append([]*Type(nil), params...)}
}

// NewVirtualMethod creates a virtual instance method reference.
func NewVirtualMethod(owner *Type, name string, ret *Type, params ...*Type) *Method {
	m := NewMethod(owner, name, ret, params...)
	m.virtual = true
	return m
}

// NewConstructor creates a constructor reference taking params.
func NewConstructor(owner *Type, params ...*Type) *Method {
	return &Method{owner: owner, name: ".ctor", params: append([]*Type(nil), params...), hasThis: true}
}

func (m *Method) Owner() *Type      { return m.owner }
func (m *Method) Name() string      { return m.name }
func (m *Method) Return() *Type     { return m.ret }
func (m *Method) HasThis() bool     { return m.hasThis }
func (m *Method) IsVirtual() bool   { return m.virtual }
func (m *Method) NumParams() int    { return len(m.params) }
func (m *Method) Param(i int) *Type { return m.params[i] }
func (m *Method) IsConstructor() bool {
	return m.name == ".ctor"
}

// CallEffect returns the stack effect of calling m with call or callvirt.
func (m *Method) CallEffect() (pop, push int) {
	pop = len(m.params)
	if m.hasThis {
		pop++
	}
	if m.ret != nil {
		push = 1
	}
	return pop, push
}

// NewobjEffect returns the stack effect of newobj on constructor m.
func (m *Method) NewobjEffect() (pop, push int) {
	return len(m.params), 1
}

// String renders the method as a member reference.
func (m *Method) String() string {
	var b strings.Builder
	if !m.hasThis {
		b.WriteString("static ")
	}
	b.WriteString(m.ret.String())
	b.WriteByte(' ')
	if m.owner != nil {
		b.WriteString(m.owner.String())
		b.WriteString("::")
	}
	b.WriteString(m.name)
	writeParams(&b, m.params)
	return b.String()
}

// Field is a field reference.
type Field struct {
	owner  *Type
	typ    *Type
	name   string
	static bool
}

// NewField creates an instance field reference.
func NewField(owner *Type, name string, typ *Type) *Field {
	return &Field{owner: owner, name: name, typ: typ}
}

// NewStaticField creates a static field reference.
func NewStaticField(owner *Type, name string, typ *Type) *Field {
	return &Field{owner: owner, name: name, typ: typ, static: true}
}

func (f *Field) Owner() *Type   { return f.owner }
func (f *Field) Name() string   { return f.name }
func (f *Field) Type() *Type    { return f.typ }
func (f *Field) IsStatic() bool { return f.static }

func (f *Field) String() string {
	return fmt.Sprintf("%s %s::%s", f.typ, f.owner, f.name)
}

// Signature is a stand-alone call site signature for calli.
type Signature struct {
	ret     *Type
	params  []*Type
	hasThis bool
}

// NewSignature creates a call site signature.
func NewSignature(hasThis bool, ret *Type, params ...*Type) *Signature {
	return &Signature{ret: ret, params: append([]*Type(nil), params...), hasThis: hasThis}
}

// CallEffect returns the stack effect of calli through s, including the
// function pointer operand.
func (s *Signature) CallEffect() (pop, push int) {
	pop = len(s.params) + 1
	if s.hasThis {
		pop++
	}
	if s.ret != nil {
		push = 1
	}
	return pop, push
}

func (s *Signature) String() string {
	var b strings.Builder
	if s.hasThis {
		b.WriteString("instance ")
	}
	b.WriteString(s.ret.String())
	writeParams(&b, s.params)
	return b.String()
}

func writeParams(b *strings.Builder, params []*Type) {
	b.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteByte(')')
}
