package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModuleBuilder_StraightLineFunction(t *testing.T) {
	mb := NewModuleBuilder()
	b := mb.CreateFunction("Add", Signature{Params: []Type{TypeI32, TypeI32}, Result: TypeI32})

	entry := b.CreateBlock()
	b.SetBlock(entry)

	sum := b.Iadd(b.ParamRef(0), b.ParamRef(1))
	b.Return(sum)

	fn := b.Function()
	require.Len(t, fn.Blocks(), 1)
	require.Equal(t, OpcodeReturn, entry.Terminator().Opcode())
	require.True(t, sum.Valid())
	require.Equal(t, TypeI32, sum.Type())
}

func TestModuleBuilder_BranchRecordsPredecessors(t *testing.T) {
	mb := NewModuleBuilder()
	b := mb.CreateFunction("Max", Signature{Params: []Type{TypeI32, TypeI32}, Result: TypeI32})

	entry := b.CreateBlock()
	thenBlk := b.CreateBlock()
	elseBlk := b.CreateBlock()

	b.SetBlock(entry)
	cond := b.Icmp(CondSignedLessThan, b.ParamRef(0), b.ParamRef(1))
	b.Brcond(cond, thenBlk, elseBlk)

	b.SetBlock(thenBlk)
	b.Return(b.ParamRef(1))

	b.SetBlock(elseBlk)
	b.Return(b.ParamRef(0))

	require.ElementsMatch(t, []*Block{entry}, thenBlk.Preds())
	require.ElementsMatch(t, []*Block{entry}, elseBlk.Preds())
}

func TestModuleBuilder_VoidCallProducesNoValue(t *testing.T) {
	mb := NewModuleBuilder()
	barrier := mb.CreateExternFunction("write_barrier", Signature{Params: []Type{TypePtr}})

	b := mb.CreateFunction("Store", Signature{Params: []Type{TypePtr, TypePtr}})
	entry := b.CreateBlock()
	b.SetBlock(entry)

	b.Store(b.ParamRef(0), b.ParamRef(1))
	result := b.Call(barrier, []Value{b.ParamRef(1)})
	require.False(t, result.Valid())
	b.Return(ValueInvalid)
}

func TestModule_Dump(t *testing.T) {
	mb := NewModuleBuilder()
	b := mb.CreateFunction("Identity", Signature{Params: []Type{TypeI64}, Result: TypeI64})
	entry := b.CreateBlock()
	b.SetBlock(entry)
	b.Return(b.ParamRef(0))

	dump := mb.Dump()
	require.Contains(t, dump, "function Identity(i64) -> i64:")
	require.Contains(t, dump, "blk0:")
	require.Contains(t, dump, "Return")
}
