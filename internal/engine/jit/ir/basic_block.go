package ir

import (
	"fmt"
	"strings"
)

// BasicBlockID is a dense identifier for a Block, assigned in creation order.
type BasicBlockID uint32

// String implements fmt.Stringer for debugging.
func (bid BasicBlockID) String() string {
	return fmt.Sprintf("blk%d", uint32(bid))
}

// Block is a linear run of Instructions ending in exactly one control-flow
// instruction (Jump, Brcond, or Return). Blocks are created with
// Builder.CreateBlock and populated by making them current with Builder.SetBlock.
//
// There is no block-parameter/phi concept here, unlike a textbook SSA block:
// values live across block boundaries via stack slots instead (see the
// evalstack package), so a block is nothing more than an ID plus an
// instruction list plus the predecessors discovered as branches targeting it
// are inserted.
type Block struct {
	id   BasicBlockID
	root *Instruction
	tail *Instruction

	preds []*Block
}

// ID returns this block's dense identifier.
func (b *Block) ID() BasicBlockID { return b.id }

// Name returns the block's label as it appears in IR dumps, e.g. "blk0".
func (b *Block) Name() string { return b.id.String() }

// Preds returns the blocks with an edge into this one. Populated lazily: a
// block gains a predecessor only when some other block's Jump or Brcond
// targeting it is inserted.
func (b *Block) Preds() []*Block { return b.preds }

func (b *Block) addPred(from *Block) {
	for _, p := range b.preds {
		if p == from {
			return
		}
	}
	b.preds = append(b.preds, from)
}

func (b *Block) insertInstruction(instr *Instruction) {
	if b.root == nil {
		b.root = instr
	} else {
		b.tail.next = instr
		instr.prev = b.tail
	}
	b.tail = instr

	switch instr.opcode {
	case OpcodeJump:
		instr.blk.addPred(b)
	case OpcodeBrcond:
		instr.blk.addPred(b)
		instr.blk2.addPred(b)
	}
}

// Terminator returns the block's final instruction, or nil for a still-empty
// block. A well-formed function has every reachable block ending in Jump,
// Brcond, or Return by the time the front end's TranslateMethod returns.
func (b *Block) Terminator() *Instruction {
	return b.tail
}

// EachInstruction calls fn for every instruction in the block in program order.
func (b *Block) EachInstruction(fn func(*Instruction)) {
	for cur := b.root; cur != nil; cur = cur.next {
		fn(cur)
	}
}

func (b *Block) reset() {
	b.root, b.tail = nil, nil
	b.preds = b.preds[:0]
}

// Format renders the block's label header followed by its instructions, one
// per line, in the textual form the IR dump snapshot tests compare against.
func (b *Block) Format() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:\n", b.Name())
	b.EachInstruction(func(instr *Instruction) {
		fmt.Fprintf(&sb, "\t%s\n", instr.Format())
	})
	return sb.String()
}
