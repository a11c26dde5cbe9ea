// End-to-end tests running the complete pipeline:
// source -> tokens -> AST -> bytecode -> execution.
package compiler_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cehteh/reaper/compiler"
	"github.com/cehteh/reaper/lexer"
	"github.com/cehteh/reaper/parser"
	"github.com/cehteh/reaper/vm"
)

// execute runs the source through the whole pipeline and returns the VM
// and everything the program printed.
func execute(t *testing.T, source string) (*vm.VM, string) {
	t.Helper()

	tokens, err := lexer.New(source).Scan()
	require.NoError(t, err, "lexing failed")

	statements, parseErrors := parser.Make(tokens).Parse()
	require.Empty(t, parseErrors, "parsing failed")

	bytecode, err := compiler.New().Compile(statements)
	require.NoError(t, err, "compilation failed")

	var out bytes.Buffer
	machine := vm.NewWithOutput(&out)
	require.NoError(t, machine.Run(bytecode), "execution failed")
	return machine, out.String()
}

func TestPrograms(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "arithmetic precedence",
			source: "print 1+2*3;",
			want:   "7\n",
		},
		{
			name:   "identity function",
			source: "fn id(x) { return x; } print id(42);",
			want:   "42\n",
		},
		{
			name:   "recursive fibonacci",
			source: "fn fib(n) { if (n < 2) return n; return fib(n-1) + fib(n-2); } print fib(10);",
			want:   "55\n",
		},
		{
			name:   "argument mutation",
			source: "fn f(a,b) { a = a + b; return a; } print f(3, 4);",
			want:   "7\n",
		},
		{
			name:   "if else",
			source: "if (1 < 2) print 10; else print 20;",
			want:   "10\n",
		},
		{
			name:   "nested block shares the outer local",
			source: "fn k() { x = 1; { x = x + 1; } return x; } print k();",
			want:   "2\n",
		},
		{
			name:   "if without else falls through",
			source: "if (2 < 1) print 1;",
			want:   "",
		},
		{
			name:   "booleans and null",
			source: "print true; print false; print null;",
			want:   "true\nfalse\nnull\n",
		},
		{
			name:   "strings print verbatim",
			source: `print "hello world";`,
			want:   "hello world\n",
		},
		{
			name:   "equality and negated equality",
			source: "print 1 == 1; print 1 != 1; print !true;",
			want:   "true\nfalse\nfalse\n",
		},
		{
			name:   "grouping overrides precedence",
			source: "print (1+2)*3;",
			want:   "9\n",
		},
		{
			name:   "block scoped locals",
			source: "fn f() { a = 1; { b = a + 1; a = b * 2; } return a; } print f();",
			want:   "4\n",
		},
		{
			name:   "call as a bare statement",
			source: "fn shout(s) { print s; return s; } shout(\"hi\");",
			want:   "hi\n",
		},
		{
			name:   "multiple calls reuse the function",
			source: "fn double(n) { return n + n; } print double(2); print double(21);",
			want:   "4\n42\n",
		},
		{
			name:   "function falling off the end returns null",
			source: "fn nop() { } print nop();",
			want:   "null\n",
		},
		{
			name:   "trailing commas",
			source: "fn id(x,) { return x; } print id(42,);",
			want:   "42\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine, out := execute(t, tt.source)
			assert.Equal(t, tt.want, out)

			// the operand stack of a well-formed program drains
			// completely (none of these declare top-level locals)
			assert.Equal(t, 0, machine.StackSize())
		})
	}
}

func TestTopLevelLocals(t *testing.T) {
	// top-level declarations live until the end of the program: their
	// slots are never popped
	machine, out := execute(t, "x = 2; y = x * 3; print y - x;")
	assert.Equal(t, "4\n", out)
	assert.Equal(t, 2, machine.StackSize())
}

func TestRuntimeFaultSurfacesFromThePipeline(t *testing.T) {
	tokens, err := lexer.New("print 1 + true;").Scan()
	require.NoError(t, err)
	statements, parseErrors := parser.Make(tokens).Parse()
	require.Empty(t, parseErrors)
	bytecode, err := compiler.New().Compile(statements)
	require.NoError(t, err)

	var out bytes.Buffer
	machine := vm.NewWithOutput(&out)
	err = machine.Run(bytecode)
	require.Error(t, err)
	assert.IsType(t, vm.RuntimeError{}, err)
	assert.Contains(t, err.Error(), "unsupported operand types")
}
