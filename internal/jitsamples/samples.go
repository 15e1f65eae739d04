// Package jitsamples provides a handful of hand-built RuntimeMethodBase
// fixtures for exercising the translator outside of a real assembly loader,
// used by cmd/tdnjit's "translate" subcommand and mirroring the shape of the
// end-to-end scenarios the translator's own tests cover.
package jitsamples

import "github.com/TomatOrg/tinydotnet/internal/metadata"

// Sample pairs a built-in method fixture with its name. The CLI's translate
// command translates every sample in All(); it does not select one by name.
type Sample struct {
	Name   string
	Method *metadata.RuntimeMethodBase
}

func method(name string, declType *metadata.RuntimeTypeInfo, static bool, params []*metadata.ParameterInfo, ret *metadata.RuntimeTypeInfo, maxStack uint32, instrs []metadata.Instruction) *metadata.RuntimeMethodBase {
	return &metadata.RuntimeMethodBase{
		DeclaringType:   declType,
		Name:            name,
		Attributes:      metadata.MethodAttributes{Static: static},
		Parameters:      params,
		ReturnParameter: &metadata.ParameterInfo{ParameterType: ret},
		MethodBody: &metadata.MethodBody{
			ILSize:       uint32(len(instrs)),
			MaxStackSize: maxStack,
			Instructions: instrs,
		},
	}
}

func param(n string, t *metadata.RuntimeTypeInfo) *metadata.ParameterInfo {
	return &metadata.ParameterInfo{Name: n, ParameterType: t}
}

// All returns every built-in sample, in a stable order.
func All() []Sample {
	program := metadata.NewReferenceType("Program")

	constantReturn := method("ConstantReturn", program, true, nil, metadata.Int32, 1, []metadata.Instruction{
		{Opcode: metadata.OpLdcI4, Int32: 42, Length: 1, ControlFlow: metadata.FlowNext},
		{Opcode: metadata.OpRet, Length: 1, ControlFlow: metadata.FlowReturn},
	})

	simpleBranch := method("SimpleBranch", program, true, []*metadata.ParameterInfo{param("flag", metadata.Int32)}, metadata.Int32, 1, []metadata.Instruction{
		{Opcode: metadata.OpLdarg, Variable: 0, Length: 1, ControlFlow: metadata.FlowNext},
		{Opcode: metadata.OpBrtrue, OperandType: metadata.OperandBranchTarget, BranchTarget: 4, Length: 1, ControlFlow: metadata.FlowCondBranch},
		{Opcode: metadata.OpLdcI4, Int32: 0, Length: 1, ControlFlow: metadata.FlowNext},
		{Opcode: metadata.OpRet, Length: 1, ControlFlow: metadata.FlowReturn},
		{Opcode: metadata.OpLdcI4, Int32: 1, Length: 1, ControlFlow: metadata.FlowNext},
		{Opcode: metadata.OpRet, Length: 1, ControlFlow: metadata.FlowReturn},
	})

	addNativeInt := method("AddNativeInt", program, true, []*metadata.ParameterInfo{
		param("a", metadata.IntPtr),
		param("b", metadata.Int32),
	}, metadata.IntPtr, 2, []metadata.Instruction{
		{Opcode: metadata.OpLdarg, Variable: 0, Length: 1, ControlFlow: metadata.FlowNext},
		{Opcode: metadata.OpLdarg, Variable: 1, Length: 1, ControlFlow: metadata.FlowNext},
		{Opcode: metadata.OpAdd, Length: 1, ControlFlow: metadata.FlowNext},
		{Opcode: metadata.OpRet, Length: 1, ControlFlow: metadata.FlowReturn},
	})

	return []Sample{
		{Name: "ConstantReturn", Method: constantReturn},
		{Name: "SimpleBranch", Method: simpleBranch},
		{Name: "AddNativeInt", Method: addNativeInt},
	}
}
