package meta

// Well-known runtime types.
var (
	Object    = &Type{namespace: "System", name: "Object", kind: KindClass}
	ValueType = &Type{namespace: "System", name: "ValueType", base: Object, kind: KindClass}

	Int32   = NewValueType("System", "Int32")
	Int64   = NewValueType("System", "Int64")
	Boolean = NewValueType("System", "Boolean")
	Double  = NewValueType("System", "Double")
	String  = NewClass("System", "String", Object)

	IDisposable = NewInterface("System", "IDisposable")

	Exception                 = NewClass("System", "Exception", Object)
	SystemException           = NewClass("System", "SystemException", Exception)
	ArithmeticException       = NewClass("System", "ArithmeticException", SystemException)
	DivideByZeroException     = NewClass("System", "DivideByZeroException", ArithmeticException)
	OverflowException         = NewClass("System", "OverflowException", ArithmeticException)
	InvalidOperationException = NewClass("System", "InvalidOperationException", SystemException)
	ArgumentException         = NewClass("System", "ArgumentException", SystemException)
	NullReferenceException    = NewClass("System", "NullReferenceException", SystemException)

	Console = NewClass("System", "Console", Object)

	// ConsoleWriteLine is the default diagnostic write target.
	ConsoleWriteLine = NewStaticMethod(Console, "WriteLine", nil, String)

	// DisposeMethod is IDisposable.Dispose.
	DisposeMethod = NewVirtualMethod(IDisposable, "Dispose", nil)
)

func init() {
	Object.ctor = &Method{owner: Object, name: ".ctor", hasThis: true}
}
