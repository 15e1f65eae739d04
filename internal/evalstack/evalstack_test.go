package evalstack

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TomatOrg/tinydotnet/internal/engine/jit/ir"
	"github.com/TomatOrg/tinydotnet/internal/metadata"
)

func newBuilder(t *testing.T) ir.Builder {
	t.Helper()
	mb := ir.NewModuleBuilder()
	b := mb.CreateFunction("test", ir.Signature{})
	blk := b.CreateBlock()
	b.SetBlock(blk)
	return b
}

func TestStack_PushPop(t *testing.T) {
	b := newBuilder(t)
	s := New(8)

	v := b.Iconst32(42)
	require.NoError(t, s.Push(metadata.Int32, v))
	require.Equal(t, 1, s.Len())

	typ, got, err := s.Pop(b)
	require.NoError(t, err)
	require.Equal(t, metadata.Int32, typ)
	require.Equal(t, v, got)
	require.Equal(t, 0, s.Len())
}

func TestStack_PushRejectsValueType(t *testing.T) {
	b := newBuilder(t)
	s := New(8)
	point := metadata.NewValueType("Point", 16, 8)
	err := s.Push(point, b.StackSlot(16, 8))
	require.ErrorIs(t, err, ErrPushValueType)
}

func TestStack_Overflow(t *testing.T) {
	b := newBuilder(t)
	s := New(1)
	require.NoError(t, s.Push(metadata.Int32, b.Iconst32(1)))
	require.ErrorIs(t, s.Push(metadata.Int32, b.Iconst32(2)), ErrStackOverflow)
}

func TestStack_Underflow(t *testing.T) {
	b := newBuilder(t)
	s := New(8)
	_, _, err := s.Pop(b)
	require.ErrorIs(t, err, ErrStackUnderflow)
}

func TestStack_AllocReusesSlotsAcrossClear(t *testing.T) {
	b := newBuilder(t)
	s := New(8)
	point := metadata.NewValueType("Point", 16, 8)

	slot1, err := s.Alloc(b, point)
	require.NoError(t, err)
	_, _, err = s.Pop(b)
	require.NoError(t, err)

	s.Clear()

	slot2, err := s.Alloc(b, point)
	require.NoError(t, err)
	require.Equal(t, slot1, slot2, "pool slots must be reused, not reallocated, across Clear")
}

func TestStack_MoveToSlotsIsIdempotent(t *testing.T) {
	b := newBuilder(t)
	s := New(8)
	require.NoError(t, s.Push(metadata.Int32, b.Iconst32(7)))

	s.MoveToSlots(b)
	require.True(t, s.items[0].InSlot)
	firstSlot := s.items[0].Value

	s.MoveToSlots(b)
	require.Equal(t, firstSlot, s.items[0].Value, "a second MoveToSlots must not move an already-slotted item")
}
