// This package contains the bytecode representation and the AST-to-bytecode
// compiler for Reaper. The compiler walks the AST once, left-to-right, and
// appends instructions to a flat stream; forward jumps are emitted with a
// placeholder target and patched once the target index is known.
package compiler

import (
	"fmt"

	"github.com/cehteh/reaper/ast"
	"github.com/cehteh/reaper/token"
)

// placeholder marks a forward-jump target that has not been patched yet.
// Every placeholder is overwritten before the bytecode is handed to the VM.
const placeholder = 0xFFFF

// Compiler is a visitor that compiles AST nodes directly to bytecode.
// It implements both ast.ExpressionVisitor and ast.StmtVisitor interfaces
// to traverse and compile the abstract syntax tree to bytecode.
//
// The compiler keeps a single bundle of mutable state for the duration of
// one Compile call: the instruction stream under construction, the table of
// function entry points, and the lexical model of the locals in the frame
// currently being compiled.
type Compiler struct {

	// The resulting compiled bytecode.
	bytecode Bytecode

	// Maps a function name to the absolute index of its header OP_JMP.
	// The function body begins at header+1.
	functions map[string]int

	// The names of the locals of the frame being compiled, in declaration
	// order. The position in this list is the variable's slot relative to
	// the frame's base (0-based here, 1-based in the emitted instruction).
	locals []string

	// Current block depth. 0 at the top level, 1 inside a function body,
	// +1 for every nested block.
	depth int

	// popsAtDepth[d] counts the locals declared at exactly depth d. On
	// block exit the compiler emits that many OP_POPs and forgets the
	// names again.
	popsAtDepth []int
}

// New creates a new AST-to-bytecode compiler.
func New() *Compiler {
	return &Compiler{
		bytecode:    Bytecode{},
		functions:   make(map[string]int),
		popsAtDepth: make([]int, 8),
	}
}

// Compile compiles the provided statements into bytecode.
//
// Compilation is deterministic: compiling the same AST twice on two fresh
// compilers yields identical bytecode.
//
// Returns:
//   - Bytecode: The compiled instruction stream.
//   - error: A SemanticError for programs the compiler rejects (unknown
//     names, top-level return, ...) or a DeveloperError for malformed
//     AST shapes.
func (c *Compiler) Compile(statements []ast.Stmt) (b Bytecode, err error) {
	// The visitor methods panic on rejection; convert to an error at
	// the compiler boundary.
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case SemanticError:
				err = v
			case DeveloperError:
				err = v
			default:
				panic(r)
			}
		}
	}()

	for _, stmt := range statements {
		stmt.Accept(c)
	}
	return c.bytecode, nil
}

// emit appends the provided instructions to the instruction stream and
// returns the index of the first appended instruction.
func (c *Compiler) emit(instructions ...Instruction) int {
	c.bytecode = append(c.bytecode, instructions...)
	return len(c.bytecode) - len(instructions)
}

// patchJump overwrites the placeholder target of the jump emitted at
// jumpIdx with the current end of the instruction stream.
func (c *Compiler) patchJump(jumpIdx int) {
	c.bytecode[jumpIdx].Target = len(c.bytecode)
}

// resolveLocal searches the current frame's locals by name.
//
// Returns:
//   - int: The 0-based position of the local, or -1 if the name is
//     not declared.
func (c *Compiler) resolveLocal(name string) int {
	for idx, local := range c.locals {
		if local == name {
			return idx
		}
	}
	return -1
}

// declareLocal appends a name to the current frame's locals and counts it
// towards the pops owed at the current depth.
//
// Returns:
//   - int: The 0-based position of the new local.
func (c *Compiler) declareLocal(name string) int {
	c.locals = append(c.locals, name)
	for c.depth >= len(c.popsAtDepth) {
		c.popsAtDepth = append(c.popsAtDepth, 0)
	}
	c.popsAtDepth[c.depth]++
	return len(c.locals) - 1
}

// enterBlock increments the block depth and resets the pop counter of the
// new depth.
func (c *Compiler) enterBlock() {
	c.depth++
	for c.depth >= len(c.popsAtDepth) {
		c.popsAtDepth = append(c.popsAtDepth, 0)
	}
	c.popsAtDepth[c.depth] = 0
}

// exitBlock emits one OP_POP per local declared at the current depth,
// forgets those locals and decrements the block depth.
func (c *Compiler) exitBlock() {
	pops := c.popsAtDepth[c.depth]
	for i := 0; i < pops; i++ {
		c.emit(MakeOp(OP_POP))
	}
	c.locals = c.locals[:len(c.locals)-pops]
	c.depth--
}

// VisitPrintStmt compiles the expression and emits OP_PRINT.
func (c *Compiler) VisitPrintStmt(printStmt ast.PrintStmt) any {
	printStmt.Expression.Accept(c)
	c.emit(MakeOp(OP_PRINT))
	return nil
}

// VisitFnStmt compiles a function declaration.
//
// The emitted shape is:
//
//	header:  OP_JMP end     ; jumping *to* the header skips the body
//	body:    ...            ; arguments seeded as slots 1..n
//	         OP_POP * k     ; body block cleanup: arguments and depth-1 locals
//	         OP_NULL        ; implicit return value when the body
//	         OP_RET         ; falls off the end
//	end:
//
// The header index is registered in the function table; OP_INVOKE jumps
// past the header into the body.
func (c *Compiler) VisitFnStmt(fnStmt ast.FnStmt) any {
	name := fnStmt.Name.Lexeme
	if c.depth != 0 {
		panic(SemanticError{
			Message: fmt.Sprintf("function '%s' can only be declared at the top level", name),
		})
	}
	if _, exists := c.functions[name]; exists {
		panic(SemanticError{
			Message: fmt.Sprintf("redefinition of function '%s'", name),
		})
	}

	jmpIdx := c.emit(MakeJump(OP_JMP, placeholder))
	c.functions[name] = jmpIdx

	// The function gets a fresh locals list; the top-level locals are
	// set aside and restored once the body is compiled.
	outer := c.locals
	c.locals = nil

	// The body is compiled as a block at depth 1 whose pop counter is
	// seeded with the argument count: the arguments are the first
	// locals of the frame and are cleaned up like any other local.
	c.enterBlock()
	for _, argument := range fnStmt.Arguments {
		c.declareLocal(argument)
	}
	for _, stmt := range fnStmt.Body.Statements {
		stmt.Accept(c)
	}
	c.exitBlock()

	c.emit(MakeOp(OP_NULL), MakeOp(OP_RET))
	c.patchJump(jmpIdx)

	c.locals = outer
	return nil
}

// VisitReturnStmt compiles a return statement.
//
// OP_RET expects the return value at the stack top with the return address
// directly beneath it. The callee's locals still occupy the slots between,
// so the compiled sequence collapses the frame first: one OP_DEEPSET per
// live local, from the highest slot downward. Each OP_DEEPSET pops the top
// of the stack; the final OP_DEEPSET(1) leaves the return value as the only
// remnant of the frame, sitting directly on the return address.
func (c *Compiler) VisitReturnStmt(returnStmt ast.ReturnStmt) any {
	if c.depth == 0 {
		panic(SemanticError{
			Message: "'return' outside of a function",
		})
	}

	returnStmt.Expression.Accept(c)
	for slot := len(c.locals); slot > 0; slot-- {
		c.emit(MakeSlot(OP_DEEPSET, slot))
	}
	c.emit(MakeOp(OP_RET))
	return nil
}

// VisitIfStmt compiles a conditional statement.
//
// The condition is followed by an OP_JZ over the then branch; the then
// branch ends with an OP_JMP over the else branch. Both jumps are emitted
// with placeholder targets and patched once the branch ends are known.
// A missing else branch is the DummyStmt sentinel, which emits nothing,
// so the OP_JMP immediately falls through.
func (c *Compiler) VisitIfStmt(ifStmt ast.IfStmt) any {
	ifStmt.Condition.Accept(c)
	jzIdx := c.emit(MakeJump(OP_JZ, placeholder))
	ifStmt.Then.Accept(c)
	jmpIdx := c.emit(MakeJump(OP_JMP, placeholder))
	c.patchJump(jzIdx)
	ifStmt.Else.Accept(c)
	c.patchJump(jmpIdx)
	return nil
}

// VisitBlockStmt compiles a block statement. Locals declared inside the
// block only live until the closing brace; exitBlock pops them.
func (c *Compiler) VisitBlockStmt(blockStmt ast.BlockStmt) any {
	c.enterBlock()
	for _, stmt := range blockStmt.Statements {
		stmt.Accept(c)
	}
	c.exitBlock()
	return nil
}

// VisitDummyStmt compiles the missing-else sentinel: nothing.
func (c *Compiler) VisitDummyStmt(dummyStmt ast.DummyStmt) any {
	return nil
}

// VisitExpressionStmt compiles an expression used as a statement.
//
// A call leaves exactly one value on the stack, so a call statement is
// followed by OP_POP. An assignment statement leaves nothing behind (a
// declaration's pushed value *is* the new slot; OP_DEEPSET consumes the
// value), so it is compiled bare. Any other expression statement is
// compiled and its value discarded.
func (c *Compiler) VisitExpressionStmt(exprStmt ast.ExpressionStmt) any {
	switch expression := exprStmt.Expression.(type) {
	case ast.Assign:
		expression.Accept(c)
	default:
		expression.Accept(c)
		c.emit(MakeOp(OP_POP))
	}
	return nil
}

// VisitBinary handles binary expressions (+, -, *, /, <, ==, !=).
// `!=` has no opcode of its own: it compiles to OP_EQ followed by OP_NOT.
func (c *Compiler) VisitBinary(binary ast.Binary) any {

	// NOTE: Left expression is compiled first to ensure correct evaluation order
	binary.Left.Accept(c)
	binary.Right.Accept(c)

	switch binary.Operator.TokenType {
	case token.ADD:
		c.emit(MakeOp(OP_ADD))
	case token.SUB:
		c.emit(MakeOp(OP_SUB))
	case token.MULT:
		c.emit(MakeOp(OP_MUL))
	case token.DIV:
		c.emit(MakeOp(OP_DIV))
	case token.LESS:
		c.emit(MakeOp(OP_LESS))
	case token.EQUAL_EQUAL:
		c.emit(MakeOp(OP_EQ))
	case token.NOT_EQUAL:
		c.emit(MakeOp(OP_EQ), MakeOp(OP_NOT))
	default:
		panic(DeveloperError{
			Message: fmt.Sprintf("unknown binary operator '%s'", binary.Operator.Lexeme),
		})
	}

	return nil
}

// VisitUnary handles the unary operator "!".
func (c *Compiler) VisitUnary(unary ast.Unary) any {
	unary.Right.Accept(c)

	switch unary.Operator.TokenType {
	case token.BANG:
		c.emit(MakeOp(OP_NOT))
	default:
		panic(DeveloperError{
			Message: fmt.Sprintf("unknown unary operator '%s'", unary.Operator.Lexeme),
		})
	}
	return nil
}

// VisitLiteral handles literal values (numbers, strings, booleans, null).
// `true` has no opcode of its own: it compiles to OP_FALSE, OP_NOT.
func (c *Compiler) VisitLiteral(literal ast.Literal) any {
	switch value := literal.Value.(type) {
	case float64:
		c.emit(MakeConst(value))
	case string:
		c.emit(MakeStr(value))
	case bool:
		if value {
			c.emit(MakeOp(OP_FALSE), MakeOp(OP_NOT))
		} else {
			c.emit(MakeOp(OP_FALSE))
		}
	case nil:
		c.emit(MakeOp(OP_NULL))
	default:
		panic(DeveloperError{
			Message: fmt.Sprintf("unknown literal type %T", literal.Value),
		})
	}
	return nil
}

// VisitGrouping handles parenthesized expressions
func (c *Compiler) VisitGrouping(grouping ast.Grouping) any {
	// Recursively compile the inner expression
	grouping.Expression.Accept(c)
	return nil
}

// VisitVariableExpression handles variable expressions and emits
// an OP_DEEPGET so the VM can copy the variable's slot to the stack top.
// Reading a name that was never declared is a compile-time error.
func (c *Compiler) VisitVariableExpression(variable ast.Variable) any {
	identifier := variable.Name.Lexeme
	idx := c.resolveLocal(identifier)
	if idx == -1 {
		panic(SemanticError{
			Message: fmt.Sprintf("name '%s' is not defined", identifier),
		})
	}

	c.emit(MakeSlot(OP_DEEPGET, idx+1))
	return nil
}

// VisitAssignExpression handles an assignment expression.
//
// Assignment to a known name compiles the value and stores it into the
// existing slot with OP_DEEPSET. Assignment to an unknown name is a
// declaration: the compiled value stays on the stack and its position
// becomes the new local's slot.
func (c *Compiler) VisitAssignExpression(assign ast.Assign) any {
	assign.Value.Accept(c)

	identifier := assign.Name.Lexeme
	idx := c.resolveLocal(identifier)
	if idx == -1 {
		c.declareLocal(identifier)
		return nil
	}

	c.emit(MakeSlot(OP_DEEPSET, idx+1))
	return nil
}

// VisitCallExpression handles a function call expression.
//
// The arguments are compiled left-to-right, pushing each result; they
// become slots 1..n of the callee's frame. OP_INVOKE carries the argument
// count and the callee's header index. Calling an unknown function is a
// compile-time error.
func (c *Compiler) VisitCallExpression(call ast.Call) any {
	name := call.Name.Lexeme
	entry, exists := c.functions[name]
	if !exists {
		panic(SemanticError{
			Message: fmt.Sprintf("function '%s' is not defined", name),
		})
	}

	for _, argument := range call.Arguments {
		argument.Accept(c)
	}
	c.emit(MakeInvoke(len(call.Arguments), entry))
	return nil
}
