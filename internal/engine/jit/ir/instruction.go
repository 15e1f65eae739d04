package ir

import (
	"fmt"
	"strings"
)

// Opcode identifies the operation an Instruction performs.
type Opcode uint32

const (
	OpcodeInvalid Opcode = iota

	OpcodeIconst32
	OpcodeIconst64
	OpcodeStackSlot

	OpcodeLoad
	OpcodeStore
	OpcodePtroff

	OpcodeIadd
	OpcodeIsub
	OpcodeImul
	OpcodeSdiv
	OpcodeUdiv
	OpcodeAnd
	OpcodeOr
	OpcodeXor
	OpcodeShl
	OpcodeAshr
	OpcodeLshr

	OpcodeIcmp

	OpcodeJump
	OpcodeBrcond
	OpcodeReturn
	OpcodeCall
)

var opcodeNames = map[Opcode]string{
	OpcodeIconst32:  "Iconst32",
	OpcodeIconst64:  "Iconst64",
	OpcodeStackSlot: "StackSlot",
	OpcodeLoad:     "Load",
	OpcodeStore:    "Store",
	OpcodePtroff:   "Ptroff",
	OpcodeIadd:     "Iadd",
	OpcodeIsub:     "Isub",
	OpcodeImul:     "Imul",
	OpcodeSdiv:     "Sdiv",
	OpcodeUdiv:     "Udiv",
	OpcodeAnd:      "And",
	OpcodeOr:       "Or",
	OpcodeXor:      "Xor",
	OpcodeShl:      "Shl",
	OpcodeAshr:     "Ashr",
	OpcodeLshr:     "Lshr",
	OpcodeIcmp:     "Icmp",
	OpcodeJump:     "Jump",
	OpcodeBrcond:   "Brcond",
	OpcodeReturn:   "Return",
	OpcodeCall:     "Call",
}

func (o Opcode) String() string {
	if n, ok := opcodeNames[o]; ok {
		return n
	}
	return "Invalid"
}

// IntegerCmpCond is the condition code carried by an Icmp instruction.
type IntegerCmpCond byte

const (
	CondEqual IntegerCmpCond = iota
	CondNotEqual
	CondSignedLessThan
	CondSignedLessThanOrEqual
	CondUnsignedLessThan
	CondUnsignedLessThanOrEqual
)

func (c IntegerCmpCond) String() string {
	switch c {
	case CondEqual:
		return "eq"
	case CondNotEqual:
		return "ne"
	case CondSignedLessThan:
		return "slt"
	case CondSignedLessThanOrEqual:
		return "sle"
	case CondUnsignedLessThan:
		return "ult"
	case CondUnsignedLessThanOrEqual:
		return "ule"
	default:
		return "invalid-cond"
	}
}

// Instruction is a single IR operation. Only the fields relevant to its Opcode
// are meaningful; this flattened layout (one struct for every opcode) avoids an
// interface-per-opcode hierarchy and keeps allocation in the builder's pool.
type Instruction struct {
	opcode     Opcode
	v1, v2     Value
	imm1, imm2 uint64
	cond       IntegerCmpCond
	typ        Type
	blk, blk2  *Block
	args       []Value
	callee     *ExternFunction

	rValue     Value
	prev, next *Instruction
}

func (i *Instruction) reset() {
	*i = Instruction{rValue: ValueInvalid, v1: ValueInvalid, v2: ValueInvalid}
}

// Opcode returns the opcode of this instruction.
func (i *Instruction) Opcode() Opcode { return i.opcode }

// Return returns the Value produced by this instruction, or ValueInvalid for
// instructions with no result (store, jump, void return, void call).
func (i *Instruction) Return() Value { return i.rValue }

// Insert appends the instruction to the builder's current block and returns it,
// enabling the `AsFoo(...).Insert(b)` chaining style used throughout the front end.
func (i *Instruction) Insert(b Builder) *Instruction {
	b.InsertInstruction(i)
	return i
}

// --- constructors -----------------------------------------------------------

func (i *Instruction) AsIconst32(v uint32) *Instruction {
	i.opcode = OpcodeIconst32
	i.imm1 = uint64(v)
	i.typ = TypeI32
	return i
}

func (i *Instruction) AsIconst64(v uint64) *Instruction {
	i.opcode = OpcodeIconst64
	i.imm1 = v
	i.typ = TypeI64
	return i
}

func (i *Instruction) AsStackSlot(size, align uint32) *Instruction {
	i.opcode = OpcodeStackSlot
	i.imm1, i.imm2 = uint64(size), uint64(align)
	i.typ = TypePtr
	return i
}

func (i *Instruction) AsLoad(t Type, ptr Value) *Instruction {
	i.opcode = OpcodeLoad
	i.v1 = ptr
	i.typ = t
	return i
}

func (i *Instruction) AsStore(value, ptr Value) *Instruction {
	i.opcode = OpcodeStore
	i.v1, i.v2 = value, ptr
	return i
}

func (i *Instruction) AsPtroff(base, offset Value) *Instruction {
	i.opcode = OpcodePtroff
	i.v1, i.v2 = base, offset
	i.typ = TypePtr
	return i
}

func (i *Instruction) asBinary(op Opcode, a, b Value) *Instruction {
	i.opcode = op
	i.v1, i.v2 = a, b
	i.typ = a.Type()
	return i
}

func (i *Instruction) AsIadd(a, b Value) *Instruction { return i.asBinary(OpcodeIadd, a, b) }
func (i *Instruction) AsIsub(a, b Value) *Instruction { return i.asBinary(OpcodeIsub, a, b) }
func (i *Instruction) AsImul(a, b Value) *Instruction { return i.asBinary(OpcodeImul, a, b) }
func (i *Instruction) AsSdiv(a, b Value) *Instruction { return i.asBinary(OpcodeSdiv, a, b) }
func (i *Instruction) AsUdiv(a, b Value) *Instruction { return i.asBinary(OpcodeUdiv, a, b) }
func (i *Instruction) AsAnd(a, b Value) *Instruction  { return i.asBinary(OpcodeAnd, a, b) }
func (i *Instruction) AsOr(a, b Value) *Instruction   { return i.asBinary(OpcodeOr, a, b) }
func (i *Instruction) AsXor(a, b Value) *Instruction  { return i.asBinary(OpcodeXor, a, b) }
func (i *Instruction) AsShl(a, b Value) *Instruction  { return i.asBinary(OpcodeShl, a, b) }
func (i *Instruction) AsAshr(a, b Value) *Instruction { return i.asBinary(OpcodeAshr, a, b) }
func (i *Instruction) AsLshr(a, b Value) *Instruction { return i.asBinary(OpcodeLshr, a, b) }

func (i *Instruction) AsIcmp(a, b Value, cond IntegerCmpCond) *Instruction {
	i.opcode = OpcodeIcmp
	i.v1, i.v2 = a, b
	i.cond = cond
	i.typ = TypeI32
	return i
}

func (i *Instruction) AsJump(target *Block) *Instruction {
	i.opcode = OpcodeJump
	i.blk = target
	return i
}

func (i *Instruction) AsBrcond(cond Value, thenBlk, elseBlk *Block) *Instruction {
	i.opcode = OpcodeBrcond
	i.v1 = cond
	i.blk, i.blk2 = thenBlk, elseBlk
	return i
}

func (i *Instruction) AsReturn(v Value) *Instruction {
	i.opcode = OpcodeReturn
	i.v1 = v
	return i
}

func (i *Instruction) AsCall(callee *ExternFunction, args []Value) *Instruction {
	i.opcode = OpcodeCall
	i.callee = callee
	i.args = args
	i.typ = callee.Signature.Result
	return i
}

// Format renders the instruction using already-assigned Value numbers; used by
// Block.Format to build a whole-function dump.
func (i *Instruction) Format() string {
	var b strings.Builder
	if i.rValue.Valid() {
		fmt.Fprintf(&b, "%s = ", i.rValue.formatWithType())
	}
	switch i.opcode {
	case OpcodeIconst32, OpcodeIconst64:
		fmt.Fprintf(&b, "%s 0x%x", i.opcode, i.imm1)
	case OpcodeStackSlot:
		fmt.Fprintf(&b, "%s size=%d align=%d", i.opcode, i.imm1, i.imm2)
	case OpcodeLoad:
		fmt.Fprintf(&b, "%s %s, %s", i.opcode, i.typ, i.v1)
	case OpcodeStore:
		fmt.Fprintf(&b, "%s %s, %s", i.opcode, i.v1, i.v2)
	case OpcodePtroff:
		fmt.Fprintf(&b, "%s %s, %s", i.opcode, i.v1, i.v2)
	case OpcodeIadd, OpcodeIsub, OpcodeImul, OpcodeSdiv, OpcodeUdiv,
		OpcodeAnd, OpcodeOr, OpcodeXor, OpcodeShl, OpcodeAshr, OpcodeLshr:
		fmt.Fprintf(&b, "%s %s, %s", i.opcode, i.v1, i.v2)
	case OpcodeIcmp:
		fmt.Fprintf(&b, "%s.%s %s, %s", i.opcode, i.cond, i.v1, i.v2)
	case OpcodeJump:
		fmt.Fprintf(&b, "%s %s", i.opcode, i.blk.Name())
	case OpcodeBrcond:
		fmt.Fprintf(&b, "%s %s, %s, %s", i.opcode, i.v1, i.blk.Name(), i.blk2.Name())
	case OpcodeReturn:
		if i.v1.Valid() {
			fmt.Fprintf(&b, "%s %s", i.opcode, i.v1)
		} else {
			b.WriteString(i.opcode.String())
		}
	case OpcodeCall:
		fmt.Fprintf(&b, "%s %s(", i.opcode, i.callee.Name)
		for j, a := range i.args {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.String())
		}
		b.WriteString(")")
	default:
		b.WriteString(i.opcode.String())
	}
	return b.String()
}
