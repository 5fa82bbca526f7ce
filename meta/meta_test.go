package meta

import "testing"

func TestType_Hierarchy(t *testing.T) {
	appErr := NewClass("App", "AppError", Exception)
	leaf := NewClass("App", "LeafError", appErr)

	tests := []struct {
		name string
		t    *Type
		u    *Type
		sub  bool
	}{
		{"direct", appErr, Exception, true},
		{"transitive", leaf, Exception, true},
		{"wellknown chain", DivideByZeroException, Exception, true},
		{"self", Exception, Exception, false},
		{"unrelated", String, Exception, false},
		{"reverse", Exception, appErr, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.t.IsSubclassOf(tt.u); got != tt.sub {
				t.Errorf("%s.IsSubclassOf(%s) = %v, want %v", tt.t, tt.u, got, tt.sub)
			}
		})
	}
}

func TestType_CanCatch(t *testing.T) {
	marker := NewInterface("App", "IMarker")

	tests := []struct {
		t    *Type
		want bool
	}{
		{Exception, true},
		{DivideByZeroException, true},
		{marker, true},
		{String, false},
		{Int32, false},
		{Object, false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := tt.t.CanCatch(); got != tt.want {
			t.Errorf("%s.CanCatch() = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestType_IsAssignableTo(t *testing.T) {
	disposable := NewClass("App", "Handle", Object, IDisposable)
	derived := NewClass("App", "FileHandle", disposable)

	if !derived.IsAssignableTo(IDisposable) {
		t.Error("interface should be inherited from the base")
	}
	if !derived.IsAssignableTo(Object) {
		t.Error("everything is assignable to object")
	}
	if String.IsAssignableTo(IDisposable) {
		t.Error("string does not implement IDisposable")
	}
	if !ArithmeticException.IsAssignableTo(ArithmeticException) {
		t.Error("a type is assignable to itself")
	}
}

func TestMethod_Effects(t *testing.T) {
	tests := []struct {
		name string
		m    *Method
		pop  int
		push int
	}{
		{"static void(string)", ConsoleWriteLine, 1, 0},
		{"instance void()", DisposeMethod, 1, 0},
		{"instance int32(int32,int32)", NewMethod(Object, "Add", Int32, Int32, Int32), 3, 1},
		{"static int32()", NewStaticMethod(Object, "Zero", Int32), 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pop, push := tt.m.CallEffect()
			if pop != tt.pop || push != tt.push {
				t.Errorf("CallEffect = %d/%d, want %d/%d", pop, push, tt.pop, tt.push)
			}
		})
	}

	pop, push := Exception.Constructor().NewobjEffect()
	if pop != 0 || push != 1 {
		t.Errorf("NewobjEffect = %d/%d, want 0/1", pop, push)
	}

	sig := NewSignature(false, Int32, Int32)
	pop, push = sig.CallEffect()
	if pop != 2 || push != 1 {
		t.Errorf("calli effect = %d/%d, want 2/1", pop, push)
	}
}

func TestFormatting(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{DivideByZeroException.String(), "class System.DivideByZeroException"},
		{Int32.String(), "valuetype System.Int32"},
		{Object.String(), "object"},
		{ConsoleWriteLine.String(), "static void class System.Console::WriteLine(string)"},
		{NewField(Console, "Out", Object).String(), "object class System.Console::Out"},
		{NewSignature(true, nil, Int32).String(), "instance void(valuetype System.Int32)"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
