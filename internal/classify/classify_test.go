package classify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TomatOrg/tinydotnet/internal/engine/jit/ir"
	"github.com/TomatOrg/tinydotnet/internal/metadata"
)

func TestArgumentKind(t *testing.T) {
	box := metadata.NewReferenceType("Box")
	point := metadata.NewValueType("Point", 16, 8)
	color := metadata.NewEnumType("Color", metadata.Int32)

	cases := []struct {
		name string
		typ  *metadata.RuntimeTypeInfo
		want ir.Type
	}{
		{"SByte", metadata.SByte, ir.TypeI32},
		{"Boolean", metadata.Boolean, ir.TypeI32},
		{"Int32", metadata.Int32, ir.TypeI32},
		{"Int64", metadata.Int64, ir.TypeI64},
		{"IntPtr", metadata.IntPtr, ir.TypeI64},
		{"Void", metadata.Void, ir.TypeNone},
		{"Enum", color, ir.TypeI32},
		{"ReferenceType", box, ir.TypePtr},
		{"ValueType", point, ir.TypePtr},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, ArgumentKind(c.typ))
		})
	}
}

func TestReturnKind_StructGoesToOutPointer(t *testing.T) {
	point := metadata.NewValueType("Point", 16, 8)
	require.Equal(t, ir.TypeNone, ReturnKind(point))
	require.True(t, IsReturnedByOutPointer(point))

	require.Equal(t, ir.TypeI32, ReturnKind(metadata.Int32))
	require.False(t, IsReturnedByOutPointer(metadata.Int32))

	require.Equal(t, ir.TypeNone, ReturnKind(metadata.Void))
	require.False(t, IsReturnedByOutPointer(metadata.Void))
}

func TestIsStructType(t *testing.T) {
	point := metadata.NewValueType("Point", 16, 8)
	require.True(t, IsStructType(point))
	require.False(t, IsStructType(metadata.Int32))
	require.False(t, IsStructType(metadata.Int64))
	require.False(t, IsStructType(metadata.IntPtr))
	require.False(t, IsStructType(metadata.NewReferenceType("Box")))
}
