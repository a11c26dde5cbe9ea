package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/cehteh/reaper/compiler"
)

// VM represents the stack based virtual machine Reaper bytecode gets
// executed on.
//
// Execution is strictly single-threaded and sequential: there is exactly
// one operand stack, one frame-pointer stack and one instruction pointer,
// mutated in place. The bytecode is immutable for the duration of Run.
type VM struct {
	// The operand stack. Grows on push, shrinks on pop and on scope
	// cleanup.
	stack []Value

	// The frame-pointer stack. The top entry is the index into the
	// operand stack where the current call's locals begin.
	framePtrs []int

	// The instruction pointer. Advanced by one after every non-jumping
	// instruction; equal to the bytecode length on normal termination.
	ip int

	// Where OP_PRINT writes to.
	out io.Writer

	// Where the execution trace is written when Trace is set.
	traceOut io.Writer

	// Trace switches on the per-instruction execution trace: every
	// fetched instruction and the stack after it are written to the
	// trace output.
	Trace bool
}

// New creates a VM that prints to standard output and traces to
// standard error.
func New() *VM {
	return &VM{
		out:      os.Stdout,
		traceOut: os.Stderr,
	}
}

// NewWithOutput creates a VM that prints to the provided writer. Used by
// the tests.
func NewWithOutput(out io.Writer) *VM {
	return &VM{
		out:      out,
		traceOut: os.Stderr,
	}
}

// push places a value on top of the operand stack.
func (vm *VM) push(value Value) {
	vm.stack = append(vm.stack, value)
}

// pop removes and returns the top of the operand stack. Popping from an
// empty stack is a runtime fault.
func (vm *VM) pop() (Value, error) {
	if len(vm.stack) == 0 {
		return Value{}, RuntimeError{Message: "popped an empty stack"}
	}
	index := len(vm.stack) - 1
	value := vm.stack[index]
	vm.stack = vm.stack[:index]
	return value, nil
}

// slotIndex translates a 1-based frame-relative slot into an index into
// the operand stack: frame base + slot - 1 inside a call, slot - 1 at the
// top level where no frame pointer exists.
func (vm *VM) slotIndex(slot int) (int, error) {
	var index int
	if len(vm.framePtrs) > 0 {
		index = vm.framePtrs[len(vm.framePtrs)-1] + slot - 1
	} else {
		index = slot - 1
	}
	if index < 0 || index >= len(vm.stack) {
		return 0, RuntimeError{Message: fmt.Sprintf("slot %d is out of range", slot)}
	}
	return index, nil
}

// operator symbols for runtime fault messages
var binaryOpSymbols = map[compiler.Opcode]string{
	compiler.OP_ADD:  "+",
	compiler.OP_SUB:  "-",
	compiler.OP_MUL:  "*",
	compiler.OP_DIV:  "/",
	compiler.OP_LESS: "<",
}

// binaryOp executes an arithmetic or relational opcode: pops b, pops a
// and pushes a <op> b. Both operands must be numbers.
func (vm *VM) binaryOp(op compiler.Opcode) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	if a.Kind() != NUMBER || b.Kind() != NUMBER {
		return RuntimeError{
			Message: fmt.Sprintf("unsupported operand types for '%s': %s and %s",
				binaryOpSymbols[op], a.Kind(), b.Kind()),
		}
	}

	switch op {
	case compiler.OP_ADD:
		vm.push(NumberValue(a.Number() + b.Number()))
	case compiler.OP_SUB:
		vm.push(NumberValue(a.Number() - b.Number()))
	case compiler.OP_MUL:
		vm.push(NumberValue(a.Number() * b.Number()))
	case compiler.OP_DIV:
		vm.push(NumberValue(a.Number() / b.Number()))
	case compiler.OP_LESS:
		vm.push(BoolValue(a.Number() < b.Number()))
	}
	return nil
}

// Run executes the provided bytecode on the virtual machine.
//
// It fetches the instruction at the VM's current instruction pointer,
// dispatches on its opcode and modifies the VM's state accordingly. The
// instruction pointer is incremented by one after every instruction
// except a taken jump, which sets it directly.
//
// Execution terminates normally when the instruction pointer reaches the
// bytecode length. Runtime faults (type mismatches, empty-stack pops, an
// instruction pointer out of range) terminate execution with a
// RuntimeError.
//
// Parameters:
//   - bytecode: The compiled instructions to execute.
//
// Returns:
//   - error: The runtime fault that stopped execution, or nil.
func (vm *VM) Run(bytecode compiler.Bytecode) error {
	for vm.ip != len(bytecode) {
		if vm.ip < 0 || vm.ip > len(bytecode) {
			return RuntimeError{Message: fmt.Sprintf("instruction pointer out of range: %d", vm.ip)}
		}

		instruction := bytecode[vm.ip]
		if vm.Trace {
			fmt.Fprintf(vm.traceOut, "current instruction: %04d %s\n", vm.ip, instruction)
		}

		switch instruction.Opcode {
		case compiler.OP_CONST:
			vm.push(NumberValue(instruction.Number))

		case compiler.OP_STR:
			vm.push(StringValue(instruction.Text))

		case compiler.OP_PRINT:
			value, err := vm.pop()
			if err != nil {
				return err
			}
			fmt.Fprintln(vm.out, value)

		case compiler.OP_ADD, compiler.OP_SUB, compiler.OP_MUL, compiler.OP_DIV, compiler.OP_LESS:
			if err := vm.binaryOp(instruction.Opcode); err != nil {
				return err
			}

		case compiler.OP_EQ:
			b, err := vm.pop()
			if err != nil {
				return err
			}
			a, err := vm.pop()
			if err != nil {
				return err
			}
			if a.Kind() != b.Kind() {
				return RuntimeError{
					Message: fmt.Sprintf("cannot compare %s and %s", a.Kind(), b.Kind()),
				}
			}
			vm.push(BoolValue(a.equals(b)))

		case compiler.OP_NOT:
			value, err := vm.pop()
			if err != nil {
				return err
			}
			if value.Kind() != BOOL {
				return RuntimeError{
					Message: fmt.Sprintf("unsupported operand type for '!': %s", value.Kind()),
				}
			}
			vm.push(BoolValue(!value.Bool()))

		case compiler.OP_FALSE:
			vm.push(BoolValue(false))

		case compiler.OP_NULL:
			vm.push(NullValue())

		case compiler.OP_JMP:
			vm.ip = instruction.Target
			if vm.Trace {
				fmt.Fprintf(vm.traceOut, "stack: %v\n", vm.stack)
			}
			continue

		case compiler.OP_JZ:
			value, err := vm.pop()
			if err != nil {
				return err
			}
			if value.Kind() != BOOL {
				return RuntimeError{
					Message: fmt.Sprintf("jump condition is not a bool but a %s", value.Kind()),
				}
			}
			if !value.Bool() {
				vm.ip = instruction.Target
				if vm.Trace {
					fmt.Fprintf(vm.traceOut, "stack: %v\n", vm.stack)
				}
				continue
			}

		case compiler.OP_INVOKE:
			// The return address is inserted *below* the arguments
			// already on the stack; they become slots 1..n of the
			// new frame.
			base := len(vm.stack) - instruction.ArgCount
			if base < 0 {
				return RuntimeError{Message: "not enough call arguments on the stack"}
			}
			vm.stack = append(vm.stack, Value{})
			copy(vm.stack[base+1:], vm.stack[base:])
			vm.stack[base] = BytecodePtrValue(vm.ip)
			vm.framePtrs = append(vm.framePtrs, base+1)
			// the post-dispatch increment enters the body at
			// header+1
			vm.ip = instruction.Target

		case compiler.OP_RET:
			returnValue, err := vm.pop()
			if err != nil {
				return err
			}
			if len(vm.framePtrs) == 0 {
				return RuntimeError{Message: "'return' without an active frame"}
			}
			framePtr := vm.framePtrs[len(vm.framePtrs)-1]
			vm.framePtrs = vm.framePtrs[:len(vm.framePtrs)-1]

			if framePtr-1 < 0 || framePtr-1 >= len(vm.stack) {
				return RuntimeError{Message: "corrupted frame: no return address on the stack"}
			}
			returnAddr := vm.stack[framePtr-1]
			if returnAddr.Kind() != BYTECODE_PTR {
				return RuntimeError{
					Message: fmt.Sprintf("corrupted frame: expected a return address, found %s", returnAddr.Kind()),
				}
			}
			// swap-remove the return address; with a collapsed
			// frame it is the stack top already
			vm.stack[framePtr-1] = vm.stack[len(vm.stack)-1]
			vm.stack = vm.stack[:len(vm.stack)-1]

			vm.push(returnValue)
			// the post-dispatch increment resumes the caller just
			// past the OP_INVOKE
			vm.ip = returnAddr.Ptr()

		case compiler.OP_DEEPGET:
			index, err := vm.slotIndex(instruction.Slot)
			if err != nil {
				return err
			}
			vm.push(vm.stack[index])

		case compiler.OP_DEEPSET:
			value, err := vm.pop()
			if err != nil {
				return err
			}
			index, err := vm.slotIndex(instruction.Slot)
			if err != nil {
				return err
			}
			vm.stack[index] = value

		case compiler.OP_POP:
			if _, err := vm.pop(); err != nil {
				return err
			}

		default:
			// NOTE: This should only happen in development mode.
			return fmt.Errorf("unknown opcode %v at ip %d", instruction.Opcode, vm.ip)
		}

		vm.ip++

		if vm.Trace {
			fmt.Fprintf(vm.traceOut, "stack: %v\n", vm.stack)
		}
	}

	return nil
}

// StackSize returns the number of values currently on the operand stack.
// After a normal run it holds only the program's top-level locals, which
// are never popped, so it is zero for a program that declares none.
func (vm *VM) StackSize() int {
	return len(vm.stack)
}
