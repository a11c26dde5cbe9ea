package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// Opcode identifies one of the fixed, closed set of instructions the
// virtual machine understands.
type Opcode uint8

// opcodes
// iota generates a distinct value for each opcode
const (
	// pushes its float operand onto the operand stack
	OP_CONST Opcode = iota

	// pushes its string operand onto the operand stack
	OP_STR

	// pops the top value and writes its display form to the output,
	// followed by a newline
	OP_PRINT

	// arithmetic opcodes. Each pops b, pops a and pushes a <op> b.
	// Defined on numbers only.
	OP_ADD
	OP_SUB
	OP_MUL
	OP_DIV

	// pops b, pops a and pushes the bool a < b. Defined on numbers only.
	OP_LESS

	// pops b, pops a and pushes the bool a == b. Defined on two values
	// of the same kind.
	OP_EQ

	// negates the bool at the top of the stack
	OP_NOT

	// pushes the bool false. The compiler lowers `true` to OP_FALSE
	// followed by OP_NOT.
	OP_FALSE

	// pushes null
	OP_NULL

	// unconditional jump to the absolute index held in Target
	OP_JMP

	// pops a bool and jumps to the absolute index held in Target when
	// it is false
	OP_JZ

	// begins a call: inserts the return address below the ArgCount
	// arguments already on the stack, pushes a new frame pointer and
	// jumps into the callee whose header index is held in Target
	OP_INVOKE

	// ends a call: leaves the return value on the stack, removes the
	// return address, pops the frame pointer and resumes the caller
	OP_RET

	// pushes a copy of the frame-relative slot held in Slot
	OP_DEEPGET

	// pops the top of the stack into the frame-relative slot held in Slot
	OP_DEEPSET

	// discards the top of the stack
	OP_POP
)

// Represents a definition of an opcode.
// Fields:
//   - Name: The human-readable name for the opcode e.g "OP_CONST"
//   - HasOperand: Whether the opcode carries an operand that the
//     disassembler should render.
type OpCodeDefinition struct {
	Name       string
	HasOperand bool
}

var definitions = map[Opcode]*OpCodeDefinition{
	OP_CONST:   {Name: "OP_CONST", HasOperand: true},
	OP_STR:     {Name: "OP_STR", HasOperand: true},
	OP_PRINT:   {Name: "OP_PRINT"},
	OP_ADD:     {Name: "OP_ADD"},
	OP_SUB:     {Name: "OP_SUB"},
	OP_MUL:     {Name: "OP_MUL"},
	OP_DIV:     {Name: "OP_DIV"},
	OP_LESS:    {Name: "OP_LESS"},
	OP_EQ:      {Name: "OP_EQ"},
	OP_NOT:     {Name: "OP_NOT"},
	OP_FALSE:   {Name: "OP_FALSE"},
	OP_NULL:    {Name: "OP_NULL"},
	OP_JMP:     {Name: "OP_JMP", HasOperand: true},
	OP_JZ:      {Name: "OP_JZ", HasOperand: true},
	OP_INVOKE:  {Name: "OP_INVOKE", HasOperand: true},
	OP_RET:     {Name: "OP_RET"},
	OP_DEEPGET: {Name: "OP_DEEPGET", HasOperand: true},
	OP_DEEPSET: {Name: "OP_DEEPSET", HasOperand: true},
	OP_POP:     {Name: "OP_POP"},
}

// Get retrieves the definition of the provided opcode.
func Get(op Opcode) (*OpCodeDefinition, error) {
	def, ok := definitions[op]
	if !ok {
		return nil, fmt.Errorf("opcode: '%d' undefined", op)
	}
	return def, nil
}

func (op Opcode) String() string {
	def, err := Get(op)
	if err != nil {
		return fmt.Sprintf("OP_UNKNOWN(%d)", uint8(op))
	}
	return def.Name
}

// Instruction is one element of the bytecode stream: an opcode together
// with its operands. Only the operand fields an opcode defines are
// meaningful; the rest stay at their zero value.
//
// Fields:
//   - Opcode: The instruction's opcode.
//   - Target: The absolute bytecode index for OP_JMP and OP_JZ, and the
//     callee's header index for OP_INVOKE. Offsets are positions within
//     the same in-process instruction stream, never relocated.
//   - Slot: The 1-based frame-relative slot for OP_DEEPGET and OP_DEEPSET.
//   - ArgCount: The number of call arguments for OP_INVOKE.
//   - Number: The float operand of OP_CONST.
//   - Text: The string operand of OP_STR.
type Instruction struct {
	Opcode   Opcode
	Target   int
	Slot     int
	ArgCount int
	Number   float64
	Text     string
}

// String renders the instruction the way the disassembler shows it,
// e.g. "OP_INVOKE 2 0" or "OP_CONST 42".
func (instruction Instruction) String() string {
	def, err := Get(instruction.Opcode)
	if err != nil {
		return fmt.Sprintf("OP_UNKNOWN(%d)", uint8(instruction.Opcode))
	}
	if !def.HasOperand {
		return def.Name
	}

	switch instruction.Opcode {
	case OP_CONST:
		return fmt.Sprintf("%s %s", def.Name, strconv.FormatFloat(instruction.Number, 'g', -1, 64))
	case OP_STR:
		return fmt.Sprintf("%s %q", def.Name, instruction.Text)
	case OP_JMP, OP_JZ:
		return fmt.Sprintf("%s %d", def.Name, instruction.Target)
	case OP_INVOKE:
		return fmt.Sprintf("%s %d %d", def.Name, instruction.ArgCount, instruction.Target)
	case OP_DEEPGET, OP_DEEPSET:
		return fmt.Sprintf("%s %d", def.Name, instruction.Slot)
	}
	return def.Name
}

// Bytecode is the flat, append-only instruction stream the compiler
// produces and the VM executes, indexed from 0. An instruction pointer
// equal to its length denotes normal termination.
type Bytecode []Instruction

// MakeOp constructs an operand-less instruction.
func MakeOp(op Opcode) Instruction {
	return Instruction{Opcode: op}
}

// MakeConst constructs an OP_CONST instruction pushing the number n.
func MakeConst(n float64) Instruction {
	return Instruction{Opcode: OP_CONST, Number: n}
}

// MakeStr constructs an OP_STR instruction pushing the string s.
func MakeStr(s string) Instruction {
	return Instruction{Opcode: OP_STR, Text: s}
}

// MakeJump constructs an OP_JMP or OP_JZ instruction with the provided
// absolute target.
func MakeJump(op Opcode, target int) Instruction {
	return Instruction{Opcode: op, Target: target}
}

// MakeInvoke constructs an OP_INVOKE instruction calling the function
// whose header sits at entry with argCount arguments.
func MakeInvoke(argCount int, entry int) Instruction {
	return Instruction{Opcode: OP_INVOKE, ArgCount: argCount, Target: entry}
}

// MakeSlot constructs an OP_DEEPGET or OP_DEEPSET instruction addressing
// the provided 1-based frame-relative slot.
func MakeSlot(op Opcode, slot int) Instruction {
	return Instruction{Opcode: op, Slot: slot}
}

// Disassemble renders the whole bytecode stream in a human readable
// format, one instruction per line prefixed with its index.
//
// Example:
//
//	0000 OP_CONST 1
//	0001 OP_CONST 2
//	0002 OP_ADD
//	0003 OP_PRINT
func (bytecode Bytecode) Disassemble() string {
	var builder strings.Builder
	for i, instruction := range bytecode {
		builder.WriteString(fmt.Sprintf("%04d %s\n", i, instruction))
	}
	return builder.String()
}
