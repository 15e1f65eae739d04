package metadata

// OperandType tags which field of Instruction's operand is meaningful.
type OperandType int

const (
	OperandNone OperandType = iota
	OperandVariable
	OperandInt8
	OperandInt32
	OperandInt64
	OperandFloat32
	OperandFloat64
	OperandMethod
	OperandField
	OperandTypeToken
	OperandString
	OperandBranchTarget
	OperandSwitch
)

// ControlFlow classifies how an instruction affects the flow of execution,
// independent of its specific opcode.
type ControlFlow int

const (
	FlowNext ControlFlow = iota
	FlowBranch
	FlowCondBranch
	FlowReturn
	FlowCall
	FlowThrow
	FlowBreak
	FlowMeta
)

// Opcode enumerates the instruction set the translator dispatches on. This is
// a working subset of ECMA-335, not the full instruction set: opcodes the
// core does not implement (newobj, callvirt, ldelem, box/unbox, ...) are
// deliberately absent rather than mapped to a "not implemented" stub, since
// the decoder producing Instructions is an external collaborator and is free
// to reject them before the jit ever sees them.
type Opcode int

const (
	OpNop Opcode = iota
	OpPop

	OpLdarg
	OpLdarga
	OpStarg

	OpLdcI4
	OpLdcI8

	OpLdfld

	OpAdd
	OpSub
	OpAnd
	OpOr
	OpXor
	OpMul
	OpDiv
	OpDivUn

	OpShl
	OpShr
	OpShrUn

	OpNot
	OpNeg

	OpBeq
	OpBge
	OpBgt
	OpBle
	OpBlt
	OpBneUn
	OpBgeUn
	OpBgtUn
	OpBleUn
	OpBltUn

	OpCeq
	OpCgt
	OpCgtUn
	OpClt
	OpCltUn

	OpBrtrue
	OpBrfalse
	OpBr

	OpRet

	OpSwitch
)

var opcodeNames = [...]string{
	OpNop: "nop", OpPop: "pop",
	OpLdarg: "ldarg", OpLdarga: "ldarga", OpStarg: "starg",
	OpLdcI4: "ldc.i4", OpLdcI8: "ldc.i8",
	OpLdfld: "ldfld",
	OpAdd:   "add", OpSub: "sub", OpAnd: "and", OpOr: "or", OpXor: "xor",
	OpMul: "mul", OpDiv: "div", OpDivUn: "div.un",
	OpShl: "shl", OpShr: "shr", OpShrUn: "shr.un",
	OpNot: "not", OpNeg: "neg",
	OpBeq: "beq", OpBge: "bge", OpBgt: "bgt", OpBle: "ble", OpBlt: "blt",
	OpBneUn: "bne.un", OpBgeUn: "bge.un", OpBgtUn: "bgt.un", OpBleUn: "ble.un", OpBltUn: "blt.un",
	OpCeq: "ceq", OpCgt: "cgt", OpCgtUn: "cgt.un", OpClt: "clt", OpCltUn: "clt.un",
	OpBrtrue: "brtrue", OpBrfalse: "brfalse", OpBr: "br",
	OpRet:    "ret",
	OpSwitch: "switch",
}

func (o Opcode) String() string {
	if int(o) >= 0 && int(o) < len(opcodeNames) && opcodeNames[o] != "" {
		return opcodeNames[o]
	}
	return "unknown"
}

// Instruction is one decoded bytecode instruction. Decoding raw bytecode
// bytes into this shape is the assembly loader's disassembler, an external
// collaborator (§1); the jit only ever walks an already-decoded
// MethodBody.Instructions slice, addressed by position rather than byte offset.
type Instruction struct {
	Opcode      Opcode
	OperandType OperandType
	ControlFlow ControlFlow

	// Length is the number of positions this instruction occupies in
	// MethodBody.Instructions; program counters advance by it. It is always
	// 1 for the pre-decoded form this package models.
	Length uint32

	Variable     uint16
	Int32        uint32 // ldc.i4 operand, held unsigned to avoid sign-extension on push
	Int64        uint64
	Field        *FieldInfo
	BranchTarget uint32
	SwitchTargets []uint32
}
