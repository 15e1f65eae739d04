package ir

import (
	"fmt"
	"math"
)

// Value represents an IR value produced by some Instruction, carrying its Type
// in the upper 32 bits and a dense ValueID in the lower 32 bits.
type Value uint64

// ValueID is the identifier portion of a Value, ignoring its Type.
type ValueID uint32

const (
	valueIDInvalid ValueID = math.MaxUint32
	// ValueInvalid is returned by operations with no result, e.g. a void call.
	ValueInvalid Value = Value(valueIDInvalid)
)

// Valid reports whether v refers to a real value.
func (v Value) Valid() bool {
	return v.ID() != valueIDInvalid
}

// Type returns the Type of this value.
func (v Value) Type() Type {
	return Type(v >> 32)
}

// ID returns the dense identifier of this value.
func (v Value) ID() ValueID {
	return ValueID(v)
}

func (v Value) withType(t Type) Value {
	return Value(v.ID()) | Value(t)<<32
}

// String implements fmt.Stringer for debugging.
func (v Value) String() string {
	if !v.Valid() {
		return "<invalid>"
	}
	return fmt.Sprintf("v%d", v.ID())
}

func (v Value) formatWithType() string {
	if !v.Valid() {
		return "<invalid>"
	}
	return fmt.Sprintf("v%d:%s", v.ID(), v.Type())
}
