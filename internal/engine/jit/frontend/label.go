package frontend

import (
	"sort"

	"github.com/TomatOrg/tinydotnet/internal/engine/jit/ir"
)

// label pairs a bytecode position with the IR block translation jumps to when
// control reaches that position, per spec's "Label" data type.
type label struct {
	address uint32
	block   *ir.Block
}

// labelSet is a flat vector of labels sorted by address, built by pass one and
// then binary-searched by pass two — the design notes' suggested alternative
// to a sorted dynamic array with linear insert.
type labelSet struct {
	entries []*label
}

func (ls *labelSet) find(addr uint32) (int, bool) {
	i := sort.Search(len(ls.entries), func(i int) bool { return ls.entries[i].address >= addr })
	if i < len(ls.entries) && ls.entries[i].address == addr {
		return i, true
	}
	return i, false
}

// get returns the label at addr, or nil if none exists.
func (ls *labelSet) get(addr uint32) *label {
	if i, ok := ls.find(addr); ok {
		return ls.entries[i]
	}
	return nil
}

// insert records a label at addr with an already-known block (used for the
// entry label, whose block the caller creates before pass one starts).
func (ls *labelSet) insert(addr uint32, blk *ir.Block) *label {
	i, ok := ls.find(addr)
	if ok {
		ls.entries[i].block = blk
		return ls.entries[i]
	}
	l := &label{address: addr, block: blk}
	ls.entries = append(ls.entries, nil)
	copy(ls.entries[i+1:], ls.entries[i:])
	ls.entries[i] = l
	return l
}

// ensure returns the label at addr, creating both the label and its block via
// newBlock if one does not already exist at that address. Insertion is
// idempotent: a second ensure at the same address returns the first label.
func (ls *labelSet) ensure(addr uint32, newBlock func() *ir.Block) *label {
	if l := ls.get(addr); l != nil {
		return l
	}
	return ls.insert(addr, newBlock())
}
