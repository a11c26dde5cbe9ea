package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstructionString(t *testing.T) {
	tests := []struct {
		name        string
		instruction Instruction
		want        string
	}{
		{name: "const", instruction: MakeConst(42), want: "OP_CONST 42"},
		{name: "const fraction", instruction: MakeConst(3.14), want: "OP_CONST 3.14"},
		{name: "str", instruction: MakeStr("hi"), want: `OP_STR "hi"`},
		{name: "plain", instruction: MakeOp(OP_ADD), want: "OP_ADD"},
		{name: "jump", instruction: MakeJump(OP_JMP, 7), want: "OP_JMP 7"},
		{name: "jz", instruction: MakeJump(OP_JZ, 9), want: "OP_JZ 9"},
		{name: "invoke", instruction: MakeInvoke(2, 0), want: "OP_INVOKE 2 0"},
		{name: "deepget", instruction: MakeSlot(OP_DEEPGET, 1), want: "OP_DEEPGET 1"},
		{name: "deepset", instruction: MakeSlot(OP_DEEPSET, 3), want: "OP_DEEPSET 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.instruction.String())
		})
	}
}

func TestOpcodeDefinitions(t *testing.T) {
	// every opcode of the instruction set has a definition
	opcodes := []Opcode{
		OP_CONST, OP_STR, OP_PRINT,
		OP_ADD, OP_SUB, OP_MUL, OP_DIV,
		OP_LESS, OP_EQ, OP_NOT, OP_FALSE, OP_NULL,
		OP_JMP, OP_JZ, OP_INVOKE, OP_RET,
		OP_DEEPGET, OP_DEEPSET, OP_POP,
	}
	for _, op := range opcodes {
		def, err := Get(op)
		require.NoError(t, err)
		assert.NotEmpty(t, def.Name)
	}

	_, err := Get(Opcode(250))
	assert.Error(t, err)
}

func TestDisassemble(t *testing.T) {
	bytecode := Bytecode{
		MakeConst(1),
		MakeConst(2),
		MakeOp(OP_ADD),
		MakeOp(OP_PRINT),
	}

	want := "0000 OP_CONST 1\n" +
		"0001 OP_CONST 2\n" +
		"0002 OP_ADD\n" +
		"0003 OP_PRINT\n"
	assert.Equal(t, want, bytecode.Disassemble())
}
