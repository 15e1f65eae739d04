package ir

import (
	"fmt"
	"strings"

	"github.com/TomatOrg/tinydotnet/internal/engine/jit/jitapi"
)

// Signature describes a function's calling convention in terms of this
// package's Types: parameter kinds in order, plus a result kind (the zero
// Type for void). It mirrors the register-width classification the classify
// package derives from managed argument/return types, not the managed types
// themselves.
type Signature struct {
	Params []Type
	Result Type
}

func (s Signature) String() string {
	ps := make([]string, len(s.Params))
	for i, p := range s.Params {
		ps[i] = p.String()
	}
	if s.Result.valid() {
		return fmt.Sprintf("(%s) -> %s", strings.Join(ps, ", "), s.Result)
	}
	return fmt.Sprintf("(%s)", strings.Join(ps, ", "))
}

// ExternFunction is a function the module calls but does not define the body
// of: a host helper (allocation, a write barrier, a slow-path cast check) or
// another already-jitted method reached by direct call.
type ExternFunction struct {
	Name      string
	Signature Signature
}

// Function is one compiled method's IR: its signature and the blocks that make
// up its body, in creation order.
type Function struct {
	Name      string
	Signature Signature

	paramValues []Value
	blocks      []*Block
}

// Param returns the Value carrying the i-th parameter, valid in the entry block.
func (f *Function) Param(i int) Value { return f.paramValues[i] }

// Blocks returns the function's blocks in the order CreateBlock produced them.
func (f *Function) Blocks() []*Block { return f.blocks }

// Format renders the whole function as a label followed by its blocks' dumps,
// the text form compared against in IR-dump snapshot tests.
func (f *Function) Format() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "function %s%s:\n", f.Name, f.Signature)
	for _, b := range f.blocks {
		sb.WriteString(b.Format())
	}
	return sb.String()
}

// Module is the output of translating a batch of methods: their IR bodies plus
// the extern functions they reference. A backend code generator consumes one
// Module per compilation unit.
type Module struct {
	Functions []*Function
	Externs   []*ExternFunction
}

// Dump renders every function in the module, in the order they were created.
func (m *Module) Dump() string {
	var sb strings.Builder
	for _, f := range m.Functions {
		sb.WriteString(f.Format())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Builder incrementally constructs one Function's IR. A new Builder is
// obtained per method via ModuleBuilder.CreateFunction; CurrentBlock tracks
// where InsertInstruction appends next.
type Builder interface {
	// CreateBlock allocates a new, empty Block not yet reachable from anywhere.
	// The caller wires it in by ending some other block with a Jump or Brcond
	// that targets it.
	CreateBlock() *Block

	// SetBlock makes blk the target of subsequent InsertInstruction calls.
	SetBlock(blk *Block)

	// CurrentBlock returns the block set by the most recent SetBlock.
	CurrentBlock() *Block

	// AllocateInstruction returns a zeroed Instruction ready for one of its
	// AsFoo constructors, pulled from the function's instruction pool.
	AllocateInstruction() *Instruction

	// InsertInstruction appends instr to the current block, assigning it a
	// fresh Value if its opcode produces one.
	InsertInstruction(instr *Instruction)

	// Iconst32 emits a 32-bit integer constant.
	Iconst32(v uint32) Value
	// Iconst64 emits a 64-bit integer constant.
	Iconst64(v uint64) Value
	// ParamRef returns the Value carrying the i-th parameter of the function
	// being built. Parameters are produced by the implicit prologue, not by
	// an instruction in the block stream.
	ParamRef(index int) Value
	// StackSlot reserves size bytes of aligned stack storage, returning a
	// pointer to it.
	StackSlot(size, align uint32) Value

	// Load reads a value of type t from the address ptr.
	Load(t Type, ptr Value) Value
	// Store writes value to the address ptr.
	Store(value, ptr Value)
	// Ptroff computes base+offset as a pointer.
	Ptroff(base, offset Value) Value

	Iadd(a, b Value) Value
	Isub(a, b Value) Value
	Imul(a, b Value) Value
	Sdiv(a, b Value) Value
	Udiv(a, b Value) Value
	And(a, b Value) Value
	Or(a, b Value) Value
	Xor(a, b Value) Value
	Shl(a, b Value) Value
	Ashr(a, b Value) Value
	Lshr(a, b Value) Value

	// Icmp evaluates a op b under cond, producing a TypeI32 boolean (0 or 1).
	Icmp(cond IntegerCmpCond, a, b Value) Value

	// Jump terminates the current block with an unconditional branch.
	Jump(target *Block)
	// Brcond terminates the current block, branching to thenBlk if cond is
	// non-zero and to elseBlk otherwise.
	Brcond(cond Value, thenBlk, elseBlk *Block)
	// Return terminates the current block, optionally returning v. Pass
	// ValueInvalid for a void return.
	Return(v Value)
	// Call invokes callee, returning its result (or ValueInvalid if void).
	Call(callee *ExternFunction, args []Value) Value

	// Function returns the Function under construction.
	Function() *Function
}

type functionBuilder struct {
	fn        *Function
	instrs    jitapi.Pool[Instruction]
	blocks    jitapi.Pool[Block]
	nextValue ValueID
	current   *Block
}

func (b *functionBuilder) Function() *Function { return b.fn }

func (b *functionBuilder) CreateBlock() *Block {
	blk := b.blocks.Allocate()
	blk.id = BasicBlockID(b.blocks.Allocated() - 1)
	b.fn.blocks = append(b.fn.blocks, blk)
	return blk
}

func (b *functionBuilder) SetBlock(blk *Block) { b.current = blk }

func (b *functionBuilder) CurrentBlock() *Block { return b.current }

func (b *functionBuilder) AllocateInstruction() *Instruction {
	instr := b.instrs.Allocate()
	instr.reset()
	return instr
}

func (b *functionBuilder) allocateValue(t Type) Value {
	id := b.nextValue
	b.nextValue++
	return Value(id).withType(t)
}

func producesValue(op Opcode) bool {
	switch op {
	case OpcodeStore, OpcodeJump, OpcodeBrcond, OpcodeReturn:
		return false
	default:
		return true
	}
}

func (b *functionBuilder) InsertInstruction(instr *Instruction) {
	if producesValue(instr.opcode) {
		if instr.opcode == OpcodeCall && !instr.typ.valid() {
			instr.rValue = ValueInvalid
		} else {
			instr.rValue = b.allocateValue(instr.typ)
		}
	}
	b.current.insertInstruction(instr)
}

func (b *functionBuilder) Iconst32(v uint32) Value {
	return b.AllocateInstruction().AsIconst32(v).Insert(b).Return()
}

func (b *functionBuilder) Iconst64(v uint64) Value {
	return b.AllocateInstruction().AsIconst64(v).Insert(b).Return()
}

func (b *functionBuilder) ParamRef(index int) Value {
	return b.fn.paramValues[index]
}

func (b *functionBuilder) StackSlot(size, align uint32) Value {
	return b.AllocateInstruction().AsStackSlot(size, align).Insert(b).Return()
}

func (b *functionBuilder) Load(t Type, ptr Value) Value {
	return b.AllocateInstruction().AsLoad(t, ptr).Insert(b).Return()
}

func (b *functionBuilder) Store(value, ptr Value) {
	b.AllocateInstruction().AsStore(value, ptr).Insert(b)
}

func (b *functionBuilder) Ptroff(base, offset Value) Value {
	return b.AllocateInstruction().AsPtroff(base, offset).Insert(b).Return()
}

func (b *functionBuilder) Iadd(a, c Value) Value {
	return b.AllocateInstruction().AsIadd(a, c).Insert(b).Return()
}
func (b *functionBuilder) Isub(a, c Value) Value {
	return b.AllocateInstruction().AsIsub(a, c).Insert(b).Return()
}
func (b *functionBuilder) Imul(a, c Value) Value {
	return b.AllocateInstruction().AsImul(a, c).Insert(b).Return()
}
func (b *functionBuilder) Sdiv(a, c Value) Value {
	return b.AllocateInstruction().AsSdiv(a, c).Insert(b).Return()
}
func (b *functionBuilder) Udiv(a, c Value) Value {
	return b.AllocateInstruction().AsUdiv(a, c).Insert(b).Return()
}
func (b *functionBuilder) And(a, c Value) Value {
	return b.AllocateInstruction().AsAnd(a, c).Insert(b).Return()
}
func (b *functionBuilder) Or(a, c Value) Value {
	return b.AllocateInstruction().AsOr(a, c).Insert(b).Return()
}
func (b *functionBuilder) Xor(a, c Value) Value {
	return b.AllocateInstruction().AsXor(a, c).Insert(b).Return()
}
func (b *functionBuilder) Shl(a, c Value) Value {
	return b.AllocateInstruction().AsShl(a, c).Insert(b).Return()
}
func (b *functionBuilder) Ashr(a, c Value) Value {
	return b.AllocateInstruction().AsAshr(a, c).Insert(b).Return()
}
func (b *functionBuilder) Lshr(a, c Value) Value {
	return b.AllocateInstruction().AsLshr(a, c).Insert(b).Return()
}

func (b *functionBuilder) Icmp(cond IntegerCmpCond, a, c Value) Value {
	return b.AllocateInstruction().AsIcmp(a, c, cond).Insert(b).Return()
}

func (b *functionBuilder) Jump(target *Block) {
	b.AllocateInstruction().AsJump(target).Insert(b)
}

func (b *functionBuilder) Brcond(cond Value, thenBlk, elseBlk *Block) {
	b.AllocateInstruction().AsBrcond(cond, thenBlk, elseBlk).Insert(b)
}

func (b *functionBuilder) Return(v Value) {
	b.AllocateInstruction().AsReturn(v).Insert(b)
}

func (b *functionBuilder) Call(callee *ExternFunction, args []Value) Value {
	return b.AllocateInstruction().AsCall(callee, args).Insert(b).Return()
}

// ModuleBuilder accumulates Functions and ExternFunctions into a Module.
// One ModuleBuilder is created per compilation batch; CreateFunction is called
// once per method, and the returned Builder is discarded once its Function is
// fully populated.
type ModuleBuilder struct {
	mod *Module
}

// NewModuleBuilder returns an empty ModuleBuilder.
func NewModuleBuilder() *ModuleBuilder {
	return &ModuleBuilder{mod: &Module{}}
}

// CreateExternFunction declares an external callee by name and signature,
// returning a handle later passed to Builder.Call.
func (m *ModuleBuilder) CreateExternFunction(name string, sig Signature) *ExternFunction {
	ext := &ExternFunction{Name: name, Signature: sig}
	m.mod.Externs = append(m.mod.Externs, ext)
	return ext
}

// CreateFunction declares a new function with the given name and signature,
// pre-allocating a Value for each parameter, and returns a Builder positioned
// to build its body.
func (m *ModuleBuilder) CreateFunction(name string, sig Signature) Builder {
	fn := &Function{Name: name, Signature: sig}
	m.mod.Functions = append(m.mod.Functions, fn)

	b := &functionBuilder{
		fn:     fn,
		instrs: jitapi.NewPool[Instruction](),
		blocks: jitapi.NewPool[Block](),
	}
	fn.paramValues = make([]Value, len(sig.Params))
	for i, t := range sig.Params {
		fn.paramValues[i] = b.allocateValue(t)
	}
	return b
}

// Module returns the module accumulated so far.
func (m *ModuleBuilder) Module() *Module { return m.mod }

// Dump renders every function built so far.
func (m *ModuleBuilder) Dump() string { return m.mod.Dump() }
