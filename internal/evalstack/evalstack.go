// Package evalstack implements the jit's evaluation stack manager: the
// abstract (value, type) stack the method translator maintains while walking
// bytecode, including the per-width-class slot pools used to materialize it
// across basic-block boundaries. Grounded on eval_stack_t and its operations
// in the source runtime's jit_internal.c.
package evalstack

import (
	"github.com/pkg/errors"

	"github.com/TomatOrg/tinydotnet/internal/engine/jit/ir"
	"github.com/TomatOrg/tinydotnet/internal/metadata"
)

// ErrStackOverflow is returned by Push/Alloc when the stack is already at its
// method-declared maximum depth.
var ErrStackOverflow = errors.New("evalstack: stack overflow")

// ErrStackUnderflow is returned by Pop when the stack is empty.
var ErrStackUnderflow = errors.New("evalstack: stack underflow")

// ErrPushValueType is returned by Push when asked to push a value-type item
// directly; value types must go through Alloc so their copy lives in a slot.
var ErrPushValueType = errors.New("evalstack: value types must be pushed via Alloc")

// Item is one entry of the abstract evaluation stack. InSlot true means Value
// is a pointer to an IR stack slot rather than a usable SSA value; consumers
// must go through Pop to get a loaded value (or the slot pointer, for structs).
type Item struct {
	Value  ir.Value
	Type   *metadata.RuntimeTypeInfo
	InSlot bool
}

type structPool struct {
	slots []ir.Value
	depth int
}

// Stack is the per-method abstract evaluation stack plus its slot pools.
// MaxDepth comes from the method body's verifier-computed MaxStackSize; Push
// and Alloc enforce it.
type Stack struct {
	items    []Item
	maxDepth int

	i32Pool, i64Pool, ptrPool []ir.Value
	i32Depth, i64Depth, ptrDepth int

	structPools map[*metadata.RuntimeTypeInfo]*structPool
}

// New returns an empty Stack bounded by maxDepth.
func New(maxDepth uint32) *Stack {
	return &Stack{
		maxDepth:    int(maxDepth),
		structPools: make(map[*metadata.RuntimeTypeInfo]*structPool),
	}
}

// Len returns the current number of items on the abstract stack.
func (s *Stack) Len() int { return len(s.items) }

// scalarWidth reports the IR type and pool a scalar/reference intermediate
// type materializes through, or ok=false if t needs the per-type struct pool
// instead (i.e. IsStructType(t)).
func scalarWidth(t *metadata.RuntimeTypeInfo) (irType ir.Type, ok bool) {
	switch {
	case t == metadata.Int32:
		return ir.TypeI32, true
	case t == metadata.Int64 || t == metadata.IntPtr:
		return ir.TypeI64, true
	case t.IsReferenceType() || t.IsByRef:
		return ir.TypePtr, true
	default:
		return ir.TypeNone, false
	}
}

// Push appends a scalar or reference-typed value produced directly as an IR
// value (not yet materialized to a slot). t is normalized to its intermediate
// type first; pushing an un-normalized value-type is a programming error the
// source guards against with the same check.
func (s *Stack) Push(t *metadata.RuntimeTypeInfo, v ir.Value) error {
	it := metadata.IntermediateType(t)
	if it != metadata.Int32 && it != metadata.Int64 && it != metadata.IntPtr {
		if it.IsValueType() {
			return ErrPushValueType
		}
	}
	if len(s.items)+1 > s.maxDepth {
		return ErrStackOverflow
	}
	s.items = append(s.items, Item{Value: v, Type: it})
	return nil
}

// Alloc reserves (or reuses) a slot from the per-type struct pool, pushes it
// as an in-slot item, and returns the slot pointer for the caller to memcpy
// the value's bytes into.
func (s *Stack) Alloc(b ir.Builder, t *metadata.RuntimeTypeInfo) (ir.Value, error) {
	if len(s.items)+1 > s.maxDepth {
		return ir.ValueInvalid, ErrStackOverflow
	}
	pool, ok := s.structPools[t]
	if !ok {
		pool = &structPool{}
		s.structPools[t] = pool
	}
	if pool.depth == len(pool.slots) {
		pool.slots = append(pool.slots, b.StackSlot(t.StackSize, t.StackAlignment))
	}
	slot := pool.slots[pool.depth]
	pool.depth++
	s.items = append(s.items, Item{Value: slot, Type: t, InSlot: true})
	return slot, nil
}

// Pop removes and returns the top item. If it was materialized into a slot,
// Pop frees that slot back to its pool and, for scalars, emits the load that
// recovers the SSA value (struct items are returned as the bare slot pointer —
// the caller typically memcpys out of it instead of loading).
func (s *Stack) Pop(b ir.Builder) (*metadata.RuntimeTypeInfo, ir.Value, error) {
	if len(s.items) == 0 {
		return nil, ir.ValueInvalid, ErrStackUnderflow
	}
	item := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]

	if !item.InSlot {
		return item.Type, item.Value, nil
	}

	if irType, ok := scalarWidth(item.Type); ok {
		switch irType {
		case ir.TypeI32:
			s.i32Depth--
		case ir.TypeI64:
			s.i64Depth--
		case ir.TypePtr:
			s.ptrDepth--
		}
		return item.Type, b.Load(irType, item.Value), nil
	}

	pool, ok := s.structPools[item.Type]
	if !ok {
		return nil, ir.ValueInvalid, errors.Errorf("evalstack: pop of %s with no matching struct pool", item.Type.Name)
	}
	pool.depth--
	return item.Type, item.Value, nil
}

func (s *Stack) moveOne(b ir.Builder, item *Item) {
	if item.InSlot {
		return
	}

	irType, ok := scalarWidth(item.Type)
	if !ok {
		// Structs are never pushed directly (Push rejects them) so a
		// not-in-slot struct item can't occur; guard explicitly rather than
		// silently mishandling it if that invariant is ever broken upstream.
		panic("evalstack: move_to_slots on a non-scalar, non-in-slot item")
	}

	old := item.Value
	var slot ir.Value
	switch irType {
	case ir.TypeI32:
		if s.i32Depth == len(s.i32Pool) {
			s.i32Pool = append(s.i32Pool, b.StackSlot(4, 4))
		}
		slot = s.i32Pool[s.i32Depth]
		s.i32Depth++
	case ir.TypeI64:
		if s.i64Depth == len(s.i64Pool) {
			s.i64Pool = append(s.i64Pool, b.StackSlot(8, 8))
		}
		slot = s.i64Pool[s.i64Depth]
		s.i64Depth++
	case ir.TypePtr:
		if s.ptrDepth == len(s.ptrPool) {
			s.ptrPool = append(s.ptrPool, b.StackSlot(8, 8))
		}
		slot = s.ptrPool[s.ptrDepth]
		s.ptrDepth++
	}

	b.Store(old, slot)
	item.Value = slot
	item.InSlot = true
}

// MoveToSlots materializes every not-yet-slotted item into its width-class
// slot pool, emitting a store for each. This is the protocol for crossing a
// basic-block boundary: it leaves the abstract stack entirely in memory so a
// successor block can reload it without phi insertion. Idempotent: items
// already in a slot are left untouched, so calling it twice in a row is a
// no-op the second time.
func (s *Stack) MoveToSlots(b ir.Builder) {
	for i := range s.items {
		s.moveOne(b, &s.items[i])
	}
}

// Clear empties the abstract stack and resets every pool's depth cursor to
// zero, without discarding the underlying IR stack slots — they are reused
// by the next block that needs them.
func (s *Stack) Clear() {
	s.items = s.items[:0]
	s.i32Depth, s.i64Depth, s.ptrDepth = 0, 0, 0
	for _, p := range s.structPools {
		p.depth = 0
	}
}
