package meta

// TypeKind distinguishes reference classes, interfaces and value types.
type TypeKind uint8

const (
	KindClass TypeKind = iota
	KindInterface
	KindValueType
)

// Type describes a runtime type referenced by emitted code.
// Types are immutable once constructed.
type Type struct {
	base       *Type
	ctor       *Method
	namespace  string
	name       string
	interfaces []*Type
	kind       TypeKind
}

// NewClass creates a reference type deriving from base (Object when nil).
// The type gets a public parameterless constructor.
func NewClass(namespace, name string, base *Type, interfaces ...*Type) *Type {
	if base == nil {
		base = Object
	}
	t := &Type{
		namespace:  namespace,
		name:       name,
		base:       base,
		kind:       KindClass,
		interfaces: append([]*Type(nil), interfaces...),
	}
	t.ctor = &Method{owner: t, name: ".ctor", hasThis: true}
	return t
}

// NewInterface creates an interface type.
func NewInterface(namespace, name string) *Type {
	return &Type{namespace: namespace, name: name, kind: KindInterface}
}

// NewValueType creates a value type.
func NewValueType(namespace, name string) *Type {
	return &Type{namespace: namespace, name: name, base: ValueType, kind: KindValueType}
}

func (t *Type) Name() string      { return t.name }
func (t *Type) Namespace() string { return t.namespace }
func (t *Type) Kind() TypeKind    { return t.kind }
func (t *Type) Base() *Type       { return t.base }

// FullName returns the namespace-qualified name.
func (t *Type) FullName() string {
	if t.namespace == "" {
		return t.name
	}
	return t.namespace + "." + t.name
}

// String renders the type the way a disassembler would.
func (t *Type) String() string {
	switch {
	case t == nil:
		return "void"
	case t == Object:
		return "object"
	case t == String:
		return "string"
	case t.kind == KindValueType:
		return "valuetype " + t.FullName()
	default:
		return "class " + t.FullName()
	}
}

func (t *Type) IsInterface() bool { return t.kind == KindInterface }
func (t *Type) IsValueType() bool { return t.kind == KindValueType }

// Constructor returns the parameterless constructor, or nil for
// interfaces and value types.
func (t *Type) Constructor() *Method {
	return t.ctor
}

// IsSubclassOf reports whether t derives, directly or transitively, from u.
// A type is not a subclass of itself.
func (t *Type) IsSubclassOf(u *Type) bool {
	if t == nil || u == nil {
		return false
	}
	for b := t.base; b != nil; b = b.base {
		if b == u {
			return true
		}
	}
	return false
}

// Implements reports whether t or one of its bases lists iface.
func (t *Type) Implements(iface *Type) bool {
	for c := t; c != nil; c = c.base {
		for _, i := range c.interfaces {
			if i == iface {
				return true
			}
		}
	}
	return false
}

// IsAssignableTo reports whether a value of type t can be stored in a
// location of type u.
func (t *Type) IsAssignableTo(u *Type) bool {
	if t == nil || u == nil {
		return false
	}
	if t == u || u == Object {
		return true
	}
	if u.IsInterface() {
		return t.Implements(u)
	}
	return t.IsSubclassOf(u)
}

// IsException reports whether t is the base exception type or derives from it.
func (t *Type) IsException() bool {
	return t == Exception || t.IsSubclassOf(Exception)
}

// CanCatch reports whether t is a legal catch or filter type: an interface
// or an exception-derived class.
func (t *Type) CanCatch() bool {
	return t != nil && (t.IsInterface() || t.IsException())
}
