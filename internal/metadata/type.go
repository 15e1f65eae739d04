// Package metadata models the slice of the managed runtime's type and method
// metadata that the jit front end reads: runtime type descriptors, method
// signatures, field layout, and the decoded instruction stream. A real build
// of this runtime sources these from an assembly loader and a bytecode
// disassembler; both are external collaborators the jit consumes through this
// package's types, never constructs itself.
package metadata

// RuntimeTypeInfo describes a managed type as the jit needs to see it:
// identity, storage shape, and the handful of predicates the translator and
// classifier branch on. Two RuntimeTypeInfo values denote the same type iff
// they are the same pointer — callers must intern these, never copy them.
type RuntimeTypeInfo struct {
	Name string

	// StackSize and StackAlignment describe the storage a value of this type
	// occupies once materialized into a stack slot.
	StackSize      uint32
	StackAlignment uint32

	// IsByRef marks a managed pointer into an object or a stack slot, as
	// opposed to an unmanaged pointer or a value of the pointee type.
	IsByRef bool

	valueType     bool
	referenceType bool

	// IsEnum and EnumUnderlyingType let the classifier recurse to the
	// underlying integer type without threading a full BaseType chain.
	IsEnum             bool
	EnumUnderlyingType *RuntimeTypeInfo
}

// IsValueType reports whether instances of this type are copied by value.
func (t *RuntimeTypeInfo) IsValueType() bool { return t.valueType }

// IsReferenceType reports whether instances of this type are heap-allocated
// and referred to through a managed pointer.
func (t *RuntimeTypeInfo) IsReferenceType() bool { return t.referenceType }

func valueType(name string, size, align uint32) *RuntimeTypeInfo {
	return &RuntimeTypeInfo{Name: name, StackSize: size, StackAlignment: align, valueType: true}
}

// Canonical primitive singletons. Classifier and translator logic compares
// against these by pointer, matching the source runtime's `tInt32`-style globals.
var (
	SByte   = valueType("SByte", 1, 1)
	Byte    = valueType("Byte", 1, 1)
	Int16   = valueType("Int16", 2, 2)
	UInt16  = valueType("UInt16", 2, 2)
	Int32   = valueType("Int32", 4, 4)
	UInt32  = valueType("UInt32", 4, 4)
	Int64   = valueType("Int64", 8, 8)
	UInt64  = valueType("UInt64", 8, 8)
	IntPtr  = valueType("IntPtr", 8, 8)
	UIntPtr = valueType("UIntPtr", 8, 8)
	Boolean = valueType("Boolean", 1, 1)
	Void    = &RuntimeTypeInfo{Name: "Void"}

	String = &RuntimeTypeInfo{Name: "String", StackSize: 8, StackAlignment: 8, referenceType: true}
)

// NewReferenceType declares a heap-allocated type (a class); its jit-visible
// storage is always a single pointer.
func NewReferenceType(name string) *RuntimeTypeInfo {
	return &RuntimeTypeInfo{Name: name, StackSize: 8, StackAlignment: 8, referenceType: true}
}

// NewValueType declares a value type (a struct) with the given stack layout.
func NewValueType(name string, size, align uint32) *RuntimeTypeInfo {
	return valueType(name, size, align)
}

// NewEnumType declares an enum over the given underlying integer type.
func NewEnumType(name string, underlying *RuntimeTypeInfo) *RuntimeTypeInfo {
	t := valueType(name, underlying.StackSize, underlying.StackAlignment)
	t.IsEnum = true
	t.EnumUnderlyingType = underlying
	return t
}

// ByRef returns the by-reference (managed pointer) variant of t. Each call
// allocates a fresh descriptor; callers that need identity-stable byref types
// should cache the result, mirroring the source runtime's interned byref table.
func ByRef(t *RuntimeTypeInfo) *RuntimeTypeInfo {
	return &RuntimeTypeInfo{
		Name:           t.Name + "&",
		StackSize:      8,
		StackAlignment: 8,
		IsByRef:        true,
	}
}

// IntermediateType returns the stack-normalized type a value of type t takes
// once pushed onto the evaluation stack: sub-integers widen to Int32, enums
// widen to their underlying type, everything else is unchanged.
func IntermediateType(t *RuntimeTypeInfo) *RuntimeTypeInfo {
	switch t {
	case SByte, Byte, Int16, UInt16, Boolean:
		return Int32
	}
	if t.IsEnum {
		return IntermediateType(t.EnumUnderlyingType)
	}
	return t
}

// VerifiedAssignableTo reports whether a value of type from may be used where
// a value of type to is expected. The real runtime additionally walks
// inheritance and interface implementation; the jit only ever calls this on
// the intermediate types already agreeing in kind, so it accepts identity
// (before or after intermediate normalization), any mix of Int32 and IntPtr,
// and any reference type for any other reference type.
func VerifiedAssignableTo(from, to *RuntimeTypeInfo) bool {
	if from == to {
		return true
	}
	it, ito := IntermediateType(from), IntermediateType(to)
	if it == ito {
		return true
	}
	if (it == IntPtr || it == Int32) && (ito == IntPtr || ito == Int32) {
		return true
	}
	return it.referenceType && ito.referenceType
}
