// Package frontend implements the jit's method translator: the component that
// walks one method's decoded bytecode and emits the equivalent ir.Function,
// using classify for calling-convention decisions and evalstack to carry
// values across basic-block boundaries without phi nodes. Grounded on
// jit_method/jit_method_callback in the source runtime's jit.c.
package frontend

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/TomatOrg/tinydotnet/internal/classify"
	"github.com/TomatOrg/tinydotnet/internal/engine/jit/ir"
	"github.com/TomatOrg/tinydotnet/internal/engine/jit/jitapi"
	"github.com/TomatOrg/tinydotnet/internal/evalstack"
	"github.com/TomatOrg/tinydotnet/internal/metadata"
)

// ErrNotImplemented marks a bytecode shape the translator recognizes but
// deliberately does not lower, e.g. a switch instruction or a struct-valued ret.
var ErrNotImplemented = errors.New("frontend: not implemented")

// ErrInvalidBytecode marks a shape that should never occur in verified input:
// a stack type mismatch, an out-of-range argument index, a label invariant
// violation in pass two.
var ErrInvalidBytecode = errors.New("frontend: invalid bytecode")

// Translator lowers methods into a shared ir.Module. NewTranslator declares
// the runtime helpers it calls as extern functions up front: currently just
// memcpy, used for struct-valued argument spills, argument loads and field loads.
type Translator struct {
	log    *zap.Logger
	mod    *ir.ModuleBuilder
	memcpy *ir.ExternFunction
}

// NewTranslator returns a Translator that emits into mod, logging at log.
func NewTranslator(mod *ir.ModuleBuilder, log *zap.Logger) *Translator {
	return &Translator{
		log: log,
		mod: mod,
		memcpy: mod.CreateExternFunction("memcpy", ir.Signature{
			Params: []ir.Type{ir.TypePtr, ir.TypePtr, ir.TypeI64},
			Result: ir.TypePtr,
		}),
	}
}

// argRecord tracks one logical argument slot (the implicit this or a declared
// parameter; the implicit out-pointer has no record) across both passes.
type argRecord struct {
	typ     *metadata.RuntimeTypeInfo
	slot    ir.Value // valid only once spilled
	spilled bool
}

// methodName derives the symbol the translated function is emitted under.
// Unlike the source runtime's placeholder "test0", "test1", ... counter (see
// jit_method), every method here has a real declaring type and name to build
// a stable, collision-resistant symbol from.
func methodName(m *metadata.RuntimeMethodBase) string {
	return m.DeclaringType.Name + "::" + m.Name
}

// buildSignature computes the ir.Signature for m, per get_spidir_argument_type
// and get_spidir_return_type: a struct-valued return gains an implicit leading
// PTR out-parameter, instance methods gain an implicit leading PTR this.
func buildSignature(m *metadata.RuntimeMethodBase) (sig ir.Signature, retOut bool) {
	retOut = classify.IsReturnedByOutPointer(m.ReturnParameter.ParameterType)
	if retOut {
		sig.Params = append(sig.Params, ir.TypePtr)
	}
	if !m.Attributes.Static {
		sig.Params = append(sig.Params, ir.TypePtr)
	}
	for _, p := range m.Parameters {
		sig.Params = append(sig.Params, classify.ArgumentKind(p.ParameterType))
	}
	sig.Result = classify.ReturnKind(m.ReturnParameter.ParameterType)
	return sig, retOut
}

// buildArgs resolves the logical type of every argument slot (this, then the
// declared parameters), per jit_resolve_parameter_type. argsOffset is the
// index of args[0] in the IR signature: 1 when the implicit out-pointer comes
// first, else 0, so args[i] is IR parameter argsOffset+i.
func buildArgs(m *metadata.RuntimeMethodBase, retOut bool) (args []argRecord, argsOffset int) {
	argsOffset = 0
	if retOut {
		argsOffset = 1
	}
	n := len(m.Parameters)
	if !m.Attributes.Static {
		n++
	}
	args = make([]argRecord, n)
	i := 0
	if !m.Attributes.Static {
		thisType := m.DeclaringType
		if thisType.IsValueType() {
			thisType = metadata.ByRef(thisType)
		}
		args[0].typ = thisType
		i = 1
	}
	for _, p := range m.Parameters {
		args[i].typ = p.ParameterType
		i++
	}
	return args, argsOffset
}

// TranslateMethod lowers m into a new function in t's module, returning the
// ir.Function it built.
func (t *Translator) TranslateMethod(m *metadata.RuntimeMethodBase) (*ir.Function, error) {
	name := methodName(m)
	if jitapi.FrontEndLoggingEnabled {
		t.log.Debug("translating method", zap.String("method", name))
	}

	sig, retOut := buildSignature(m)
	args, argsOffset := buildArgs(m, retOut)

	b := t.mod.CreateFunction(name, sig)
	entry := b.CreateBlock()
	b.SetBlock(entry)

	labels := &labelSet{}
	entryLabel := labels.insert(0, entry)

	if err := t.discoverLabelsAndSpills(b, m, args, argsOffset, labels); err != nil {
		return nil, err
	}

	if anySpilled(args) {
		real := b.CreateBlock()
		b.Jump(real)
		b.SetBlock(real)
		entryLabel.block = real
	}

	if err := t.emitBody(b, m, args, argsOffset, labels); err != nil {
		return nil, err
	}

	if jitapi.IRLoggingEnabled || jitapi.PrintIR {
		t.log.Debug("translated function", zap.String("ir", b.Function().Format()))
	}
	return b.Function(), nil
}

func anySpilled(args []argRecord) bool {
	for _, a := range args {
		if a.spilled {
			return true
		}
	}
	return false
}

// spill materializes args[idx]'s incoming value into a fresh stack slot, the
// first time either ldarga or starg is seen for that argument. Emitted into
// whatever block is current — pass one runs entirely in the entry block, per
// jit_method_callback's handling of CEE_LDARGA/CEE_STARG.
func (t *Translator) spill(b ir.Builder, args []argRecord, idx int, argsOffset int) error {
	if int(idx) >= len(args) {
		return errors.Wrap(ErrInvalidBytecode, "argument index out of range")
	}
	rec := &args[idx]
	if rec.spilled {
		return nil
	}
	slot := b.StackSlot(rec.typ.StackSize, rec.typ.StackAlignment)
	param := b.ParamRef(argsOffset + idx)
	if classify.IsStructType(rec.typ) {
		t.emitMemcpy(b, slot, param, rec.typ.StackSize)
	} else {
		b.Store(param, slot)
	}
	rec.slot = slot
	rec.spilled = true
	return nil
}

func (t *Translator) emitMemcpy(b ir.Builder, dst, src ir.Value, size uint32) {
	b.Call(t.memcpy, []ir.Value{dst, src, b.Iconst64(uint64(size))})
}

// discoverLabelsAndSpills is pass one: a single linear walk recording every
// position that needs a block (a branch target, or the instruction following
// a terminator) and spilling any argument whose address is taken or which is
// reassigned. Grounded on jit_method_callback's first loop over the IL stream.
func (t *Translator) discoverLabelsAndSpills(b ir.Builder, m *metadata.RuntimeMethodBase, args []argRecord, argsOffset int, labels *labelSet) error {
	instrs := m.MethodBody.Instructions
	ilSize := m.MethodBody.ILSize
	flow := metadata.FlowNext

	for pc := uint32(0); pc != ilSize; {
		// The instruction immediately following a terminator starts a new
		// basic block even with no explicit branch into it, since the
		// terminator itself cuts off fall-through from above.
		switch flow {
		case metadata.FlowReturn, metadata.FlowBranch, metadata.FlowCondBranch, metadata.FlowThrow:
			labels.ensure(pc, b.CreateBlock)
		}

		inst := instrs[pc]

		if inst.Opcode == metadata.OpLdarga || inst.Opcode == metadata.OpStarg {
			if err := t.spill(b, args, int(inst.Variable), argsOffset); err != nil {
				return err
			}
		}

		switch inst.OperandType {
		case metadata.OperandBranchTarget:
			labels.ensure(inst.BranchTarget, b.CreateBlock)
		case metadata.OperandSwitch:
			return errors.Wrap(ErrNotImplemented, "switch")
		}

		pc += inst.Length
		flow = inst.ControlFlow
	}
	return nil
}

// emitBody is pass two: walk the IL stream again, this time emitting IR,
// switching the current block whenever a previously-discovered label is
// reached and materializing the evaluation stack to slots at every block exit.
// Grounded on jit_method_callback's second loop and its per-opcode switch.
func (t *Translator) emitBody(b ir.Builder, m *metadata.RuntimeMethodBase, args []argRecord, argsOffset int, labels *labelSet) error {
	instrs := m.MethodBody.Instructions
	ilSize := m.MethodBody.ILSize
	stack := evalstack.New(m.MethodBody.MaxStackSize)

	flow := metadata.FlowNext
	labelIdx := 1 // entries[0] is the address-0 sentinel, already current.

	for pc := uint32(0); pc != ilSize; {
		switch flow {
		case metadata.FlowReturn, metadata.FlowBranch, metadata.FlowThrow:
			stack.Clear()
		}

		if labelIdx < len(labels.entries) && labels.entries[labelIdx].address == pc {
			l := labels.entries[labelIdx]
			if flow == metadata.FlowMeta {
				return errors.Wrap(ErrInvalidBytecode, "label at a prefix boundary")
			}
			switch flow {
			case metadata.FlowNext, metadata.FlowBreak, metadata.FlowCall:
				stack.MoveToSlots(b)
				b.Jump(l.block)
			}
			b.SetBlock(l.block)
			labelIdx++
		}
		if labelIdx < len(labels.entries) && labels.entries[labelIdx].address < pc {
			return errors.Wrap(ErrInvalidBytecode, "label ordering violated")
		}

		inst := instrs[pc]
		nextPC := pc + inst.Length

		var target, next *label
		if inst.OperandType == metadata.OperandBranchTarget {
			target = labels.get(inst.BranchTarget)
			if target == nil {
				return errors.Wrap(ErrInvalidBytecode, "branch to undiscovered label")
			}
		}
		if inst.ControlFlow == metadata.FlowCondBranch {
			next = labels.get(nextPC)
			if next == nil {
				return errors.Wrap(ErrInvalidBytecode, "fallthrough of conditional branch has no label")
			}
		}

		if err := t.emitOpcode(b, m, args, argsOffset, stack, inst, target, next); err != nil {
			return err
		}

		pc = nextPC
		flow = inst.ControlFlow
	}

	if labelIdx != len(labels.entries) {
		return errors.Wrap(ErrInvalidBytecode, "not every label was reached")
	}
	return nil
}

func scalarIRType(t *metadata.RuntimeTypeInfo) ir.Type {
	switch t {
	case metadata.Int32:
		return ir.TypeI32
	case metadata.Int64, metadata.IntPtr:
		return ir.TypeI64
	default:
		return ir.TypePtr
	}
}

func (t *Translator) emitOpcode(b ir.Builder, m *metadata.RuntimeMethodBase, args []argRecord, argsOffset int, stack *evalstack.Stack, inst metadata.Instruction, target, next *label) error {
	switch inst.Opcode {
	case metadata.OpNop:
		return nil

	case metadata.OpPop:
		_, _, err := stack.Pop(b)
		return err

	case metadata.OpLdarg:
		idx := int(inst.Variable)
		if idx >= len(args) {
			return errors.Wrap(ErrInvalidBytecode, "ldarg index out of range")
		}
		rec := &args[idx]
		if rec.spilled {
			if classify.IsStructType(rec.typ) {
				dst, err := stack.Alloc(b, rec.typ)
				if err != nil {
					return err
				}
				t.emitMemcpy(b, dst, rec.slot, rec.typ.StackSize)
				return nil
			}
			return stack.Push(rec.typ, b.Load(scalarIRType(metadata.IntermediateType(rec.typ)), rec.slot))
		}
		param := b.ParamRef(argsOffset + idx)
		if classify.IsStructType(rec.typ) {
			dst, err := stack.Alloc(b, rec.typ)
			if err != nil {
				return err
			}
			t.emitMemcpy(b, dst, param, rec.typ.StackSize)
			return nil
		}
		return stack.Push(rec.typ, param)

	case metadata.OpLdcI4:
		return stack.Push(metadata.Int32, b.Iconst32(inst.Int32))

	case metadata.OpLdcI8:
		return stack.Push(metadata.Int64, b.Iconst64(inst.Int64))

	case metadata.OpLdfld:
		return t.emitLdfld(b, stack, inst)

	case metadata.OpAdd, metadata.OpSub, metadata.OpAnd, metadata.OpOr, metadata.OpXor,
		metadata.OpMul, metadata.OpDiv, metadata.OpDivUn:
		return t.emitBinary(b, stack, inst.Opcode)

	case metadata.OpShl, metadata.OpShr, metadata.OpShrUn:
		return t.emitShift(b, stack, inst.Opcode)

	case metadata.OpNot:
		return t.emitNot(b, stack)

	case metadata.OpNeg:
		return t.emitNeg(b, stack)

	case metadata.OpBeq, metadata.OpBge, metadata.OpBgt, metadata.OpBle, metadata.OpBlt,
		metadata.OpBneUn, metadata.OpBgeUn, metadata.OpBgtUn, metadata.OpBleUn, metadata.OpBltUn,
		metadata.OpCeq, metadata.OpCgt, metadata.OpCgtUn, metadata.OpClt, metadata.OpCltUn:
		return t.emitCompare(b, stack, inst.Opcode, target, next)

	case metadata.OpBrtrue, metadata.OpBrfalse:
		return t.emitBranchOnValue(b, stack, inst.Opcode, target, next)

	case metadata.OpBr:
		stack.MoveToSlots(b)
		b.Jump(target.block)
		return nil

	case metadata.OpRet:
		return t.emitRet(b, m, stack)

	default:
		return errors.Wrapf(ErrNotImplemented, "opcode %s", inst.Opcode)
	}
}

func (t *Translator) emitLdfld(b ir.Builder, stack *evalstack.Stack, inst metadata.Instruction) error {
	f := inst.Field
	if f.Static {
		return errors.Wrap(ErrNotImplemented, "static fields")
	}
	recvType, recv, err := stack.Pop(b)
	if err != nil {
		return err
	}
	if !(recvType.IsByRef || recvType.IsReferenceType() || classify.IsStructType(recvType)) {
		return errors.Wrap(ErrInvalidBytecode, "ldfld on a non-reference, non-byref, non-struct receiver")
	}

	fieldPtr := recv
	if f.FieldOffset != 0 {
		fieldPtr = b.Ptroff(recv, b.Iconst32(f.FieldOffset))
	}

	valueType := metadata.IntermediateType(f.FieldType)
	if classify.IsStructType(valueType) {
		dst, err := stack.Alloc(b, valueType)
		if err != nil {
			return err
		}
		t.emitMemcpy(b, dst, fieldPtr, f.FieldType.StackSize)
		return nil
	}
	return stack.Push(valueType, b.Load(scalarIRType(valueType), fieldPtr))
}

func (t *Translator) emitBinary(b ir.Builder, stack *evalstack.Stack, op metadata.Opcode) error {
	t2, v2, err := stack.Pop(b)
	if err != nil {
		return err
	}
	t1, v1, err := stack.Pop(b)
	if err != nil {
		return err
	}

	var result *metadata.RuntimeTypeInfo
	switch {
	case t1 == metadata.Int32 && t2 == metadata.Int32:
		result = metadata.Int32
	case t1 == metadata.Int32 && t2 == metadata.IntPtr:
		result = metadata.IntPtr
	case t1 == metadata.Int64 && t2 == metadata.Int64:
		result = metadata.Int64
	case t1 == metadata.IntPtr && (t2 == metadata.Int32 || t2 == metadata.IntPtr):
		result = metadata.IntPtr
	default:
		return errors.Wrap(ErrInvalidBytecode, "binary op on incompatible operand types")
	}

	var v ir.Value
	switch op {
	case metadata.OpAdd:
		v = b.Iadd(v1, v2)
	case metadata.OpSub:
		v = b.Isub(v1, v2)
	case metadata.OpAnd:
		v = b.And(v1, v2)
	case metadata.OpOr:
		v = b.Or(v1, v2)
	case metadata.OpXor:
		v = b.Xor(v1, v2)
	case metadata.OpMul:
		v = b.Imul(v1, v2)
	case metadata.OpDiv:
		v = b.Sdiv(v1, v2)
	case metadata.OpDivUn:
		v = b.Udiv(v1, v2)
	}
	return stack.Push(result, v)
}

func (t *Translator) emitShift(b ir.Builder, stack *evalstack.Stack, op metadata.Opcode) error {
	shiftType, shiftVal, err := stack.Pop(b)
	if err != nil {
		return err
	}
	valType, val, err := stack.Pop(b)
	if err != nil {
		return err
	}
	if valType != metadata.Int32 && valType != metadata.Int64 && valType != metadata.IntPtr {
		return errors.Wrap(ErrInvalidBytecode, "shift of a non-integer value")
	}
	if shiftType != metadata.Int32 && shiftType != metadata.IntPtr {
		return errors.Wrap(ErrInvalidBytecode, "shift amount must be Int32 or IntPtr")
	}

	var v ir.Value
	switch op {
	case metadata.OpShl:
		v = b.Shl(val, shiftVal)
	case metadata.OpShr:
		v = b.Ashr(val, shiftVal)
	case metadata.OpShrUn:
		v = b.Lshr(val, shiftVal)
	}
	return stack.Push(valType, v)
}

func (t *Translator) emitNot(b ir.Builder, stack *evalstack.Stack) error {
	valType, val, err := stack.Pop(b)
	if err != nil {
		return err
	}
	var ones ir.Value
	switch valType {
	case metadata.Int32:
		ones = b.Iconst32(^uint32(0))
	case metadata.Int64, metadata.IntPtr:
		ones = b.Iconst64(^uint64(0))
	default:
		return errors.Wrap(ErrInvalidBytecode, "not of a non-integer value")
	}
	return stack.Push(valType, b.Xor(val, ones))
}

func (t *Translator) emitNeg(b ir.Builder, stack *evalstack.Stack) error {
	valType, val, err := stack.Pop(b)
	if err != nil {
		return err
	}
	var zero ir.Value
	switch valType {
	case metadata.Int32:
		zero = b.Iconst32(0)
	case metadata.Int64, metadata.IntPtr:
		zero = b.Iconst64(0)
	default:
		return errors.Wrap(ErrInvalidBytecode, "neg of a non-integer value")
	}
	return stack.Push(valType, b.Isub(zero, val))
}

// compareSpec describes one comparison/conditional-branch opcode: the IR
// condition it evaluates, whether its two popped operands must be swapped
// first (the source runtime always compiles "greater than" as a swapped
// "less than", since spidir's icmp only has eq/ne/lt/le variants), and
// whether it pushes a boolean (ceq/cgt/clt family) rather than branching.
type compareSpec struct {
	cond  ir.IntegerCmpCond
	swap  bool
	isSet bool
}

var compareSpecs = map[metadata.Opcode]compareSpec{
	metadata.OpCeq:    {ir.CondEqual, false, true},
	metadata.OpBeq:    {ir.CondEqual, false, false},
	metadata.OpBge:    {ir.CondSignedLessThanOrEqual, true, false},
	metadata.OpCgt:    {ir.CondSignedLessThan, true, true},
	metadata.OpBgt:    {ir.CondSignedLessThan, true, false},
	metadata.OpBle:    {ir.CondSignedLessThanOrEqual, false, false},
	metadata.OpClt:    {ir.CondSignedLessThan, false, true},
	metadata.OpBlt:    {ir.CondSignedLessThan, false, false},
	metadata.OpBneUn:  {ir.CondNotEqual, false, false},
	metadata.OpBgeUn:  {ir.CondUnsignedLessThanOrEqual, true, false},
	metadata.OpCgtUn:  {ir.CondUnsignedLessThan, true, true},
	metadata.OpBgtUn:  {ir.CondUnsignedLessThan, true, false},
	metadata.OpBleUn:  {ir.CondUnsignedLessThanOrEqual, false, false},
	metadata.OpCltUn:  {ir.CondUnsignedLessThan, false, true},
	metadata.OpBltUn:  {ir.CondUnsignedLessThan, false, false},
}

func compatibleForCompare(op metadata.Opcode, t1, t2 *metadata.RuntimeTypeInfo) bool {
	switch {
	case t1 == metadata.Int32:
		return t2 == metadata.Int32 || t2 == metadata.IntPtr
	case t1 == metadata.Int64:
		return t2 == metadata.Int64
	case t1 == metadata.IntPtr:
		return t2 == metadata.Int32 || t2 == metadata.IntPtr
	case t1.IsByRef:
		return t2 == t1
	case t1.IsReferenceType() && t2.IsReferenceType():
		switch op {
		case metadata.OpBeq, metadata.OpBneUn, metadata.OpCeq, metadata.OpCgtUn:
			return true
		}
		return false
	}
	return false
}

func (t *Translator) emitCompare(b ir.Builder, stack *evalstack.Stack, op metadata.Opcode, target, next *label) error {
	spec := compareSpecs[op]

	t2, v2, err := stack.Pop(b)
	if err != nil {
		return err
	}
	t1, v1, err := stack.Pop(b)
	if err != nil {
		return err
	}
	if !compatibleForCompare(op, t1, t2) {
		return errors.Wrapf(ErrInvalidBytecode, "%s on incompatible operand types", op)
	}

	if spec.swap {
		v1, v2 = v2, v1
	}
	cmp := b.Icmp(spec.cond, v1, v2)

	if spec.isSet {
		return stack.Push(metadata.Int32, cmp)
	}
	stack.MoveToSlots(b)
	b.Brcond(cmp, target.block, next.block)
	return nil
}

func (t *Translator) emitBranchOnValue(b ir.Builder, stack *evalstack.Stack, op metadata.Opcode, target, next *label) error {
	valType, val, err := stack.Pop(b)
	if err != nil {
		return err
	}
	irType := scalarIRType(valType)
	if !valType.IsReferenceType() && valType != metadata.Int32 && valType != metadata.Int64 && valType != metadata.IntPtr {
		return errors.Wrap(ErrInvalidBytecode, "brtrue/brfalse of a non-integer, non-reference value")
	}

	var zero ir.Value
	switch irType {
	case ir.TypeI32:
		zero = b.Iconst32(0)
	default:
		zero = b.Iconst64(0)
	}

	cond := ir.CondNotEqual
	if op == metadata.OpBrfalse {
		cond = ir.CondEqual
	}
	cmp := b.Icmp(cond, val, zero)

	stack.MoveToSlots(b)
	b.Brcond(cmp, target.block, next.block)
	return nil
}

func (t *Translator) emitRet(b ir.Builder, m *metadata.RuntimeMethodBase, stack *evalstack.Stack) error {
	retType := m.ReturnParameter.ParameterType
	if retType == metadata.Void {
		b.Return(ir.ValueInvalid)
		return nil
	}

	valType, val, err := stack.Pop(b)
	if err != nil {
		return err
	}
	if classify.IsStructType(retType) {
		return errors.Wrap(ErrNotImplemented, "struct-valued ret")
	}
	if !metadata.VerifiedAssignableTo(valType, retType) {
		return errors.Wrap(ErrInvalidBytecode, "ret value not assignable to declared return type")
	}
	b.Return(val)
	return nil
}
