// Package classify implements the jit's type classifier: the pure mappings
// from a metadata.RuntimeTypeInfo to the IR calling-convention slot kind a
// value of that type occupies, grounded on get_spidir_argument_type and
// get_spidir_return_type in the source runtime's jit.c.
package classify

import (
	"github.com/TomatOrg/tinydotnet/internal/engine/jit/ir"
	"github.com/TomatOrg/tinydotnet/internal/metadata"
)

// ArgumentKind returns the IR type a parameter of type t occupies in a
// callee's signature. typeInvalid (ir's zero Type) signals NONE, the sentinel
// for an illegal argument type (void).
func ArgumentKind(t *metadata.RuntimeTypeInfo) ir.Type {
	switch t {
	case metadata.SByte, metadata.Byte, metadata.Int16, metadata.UInt16,
		metadata.Int32, metadata.UInt32, metadata.Boolean:
		return ir.TypeI32
	}
	if t.IsEnum {
		return ArgumentKind(t.EnumUnderlyingType)
	}
	switch t {
	case metadata.Int64, metadata.UInt64, metadata.IntPtr, metadata.UIntPtr:
		return ir.TypeI64
	case metadata.Void:
		return ir.TypeNone // illegal as an argument, valid only as a sentinel
	}
	// Every other value type is passed by implicit reference (caller owns
	// the copy); every reference type is already a pointer.
	return ir.TypePtr
}

// ReturnKind returns the IR type a method returning t yields directly.
// A value-type result returns NONE: the signature instead gains an implicit
// leading pointer parameter the callee writes the result through, observable
// both at call sites and in the prologue of the translated function.
func ReturnKind(t *metadata.RuntimeTypeInfo) ir.Type {
	switch t {
	case metadata.SByte, metadata.Byte, metadata.Int16, metadata.UInt16,
		metadata.Int32, metadata.UInt32, metadata.Boolean:
		return ir.TypeI32
	}
	if t.IsEnum {
		return ReturnKind(t.EnumUnderlyingType)
	}
	switch t {
	case metadata.Int64, metadata.UInt64, metadata.IntPtr, metadata.UIntPtr:
		return ir.TypeI64
	case metadata.Void:
		return ir.TypeNone
	}
	if t.IsValueType() {
		return ir.TypeNone // returned via the implicit out-pointer instead
	}
	return ir.TypePtr
}

// IsStructType reports whether t needs memcpy semantics: a value type other
// than the three that fit directly in an IR register (Int32, Int64, IntPtr).
func IsStructType(t *metadata.RuntimeTypeInfo) bool {
	it := metadata.IntermediateType(t)
	return it.IsValueType() && it != metadata.Int32 && it != metadata.Int64 && it != metadata.IntPtr
}

// IsReturnedByOutPointer reports whether a method returning t gains an
// implicit leading PTR parameter instead of an IR-level return value.
func IsReturnedByOutPointer(t *metadata.RuntimeTypeInfo) bool {
	return t != metadata.Void && ReturnKind(t) == ir.TypeNone
}
