package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cehteh/reaper/ast"
	"github.com/cehteh/reaper/lexer"
	"github.com/cehteh/reaper/token"
)

// parse lexes and parses the source, requiring both phases to succeed.
func parse(t *testing.T, source string) []ast.Stmt {
	t.Helper()
	tokens, err := lexer.New(source).Scan()
	require.NoError(t, err, "lexing failed")
	statements, errors := Make(tokens).Parse()
	require.Empty(t, errors, "parsing failed")
	return statements
}

// parseErrors lexes and parses the source and returns the parse errors.
func parseErrors(t *testing.T, source string) []error {
	t.Helper()
	tokens, err := lexer.New(source).Scan()
	require.NoError(t, err, "lexing failed")
	_, errors := Make(tokens).Parse()
	return errors
}

func TestParsePrintStatement(t *testing.T) {
	statements := parse(t, "print 1;")
	require.Len(t, statements, 1)

	printStmt, ok := statements[0].(ast.PrintStmt)
	require.True(t, ok, "expected a PrintStmt, got %T", statements[0])
	literal, ok := printStmt.Expression.(ast.Literal)
	require.True(t, ok, "expected a Literal, got %T", printStmt.Expression)
	assert.Equal(t, 1.0, literal.Value)
}

func TestParseBinaryPrecedence(t *testing.T) {
	statements := parse(t, "print 1+2*3;")
	require.Len(t, statements, 1)

	printStmt := statements[0].(ast.PrintStmt)
	add, ok := printStmt.Expression.(ast.Binary)
	require.True(t, ok, "expected a Binary, got %T", printStmt.Expression)
	assert.Equal(t, token.TokenType(token.ADD), add.Operator.TokenType)

	// the multiplication binds tighter and ends up on the right
	mul, ok := add.Right.(ast.Binary)
	require.True(t, ok, "expected a Binary, got %T", add.Right)
	assert.Equal(t, token.TokenType(token.MULT), mul.Operator.TokenType)
}

func TestParseFnStatement(t *testing.T) {
	statements := parse(t, "fn add(a, b) { return a + b; }")
	require.Len(t, statements, 1)

	fnStmt, ok := statements[0].(ast.FnStmt)
	require.True(t, ok, "expected a FnStmt, got %T", statements[0])
	assert.Equal(t, "add", fnStmt.Name.Lexeme)
	assert.Equal(t, []string{"a", "b"}, fnStmt.Arguments)
	require.Len(t, fnStmt.Body.Statements, 1)

	_, ok = fnStmt.Body.Statements[0].(ast.ReturnStmt)
	assert.True(t, ok, "expected a ReturnStmt, got %T", fnStmt.Body.Statements[0])
}

func TestParseFnTrailingComma(t *testing.T) {
	statements := parse(t, "fn id(x,) { return x; }")
	fnStmt := statements[0].(ast.FnStmt)
	assert.Equal(t, []string{"x"}, fnStmt.Arguments)
}

func TestParseFnNoParameters(t *testing.T) {
	statements := parse(t, "fn nop() { }")
	fnStmt := statements[0].(ast.FnStmt)
	assert.Empty(t, fnStmt.Arguments)
	assert.Empty(t, fnStmt.Body.Statements)
}

func TestParseIfElse(t *testing.T) {
	statements := parse(t, "if (1 < 2) print 10; else print 20;")
	require.Len(t, statements, 1)

	ifStmt, ok := statements[0].(ast.IfStmt)
	require.True(t, ok, "expected an IfStmt, got %T", statements[0])

	condition, ok := ifStmt.Condition.(ast.Binary)
	require.True(t, ok, "expected a Binary, got %T", ifStmt.Condition)
	assert.Equal(t, token.TokenType(token.LESS), condition.Operator.TokenType)

	_, ok = ifStmt.Then.(ast.PrintStmt)
	assert.True(t, ok, "expected a PrintStmt, got %T", ifStmt.Then)
	_, ok = ifStmt.Else.(ast.PrintStmt)
	assert.True(t, ok, "expected a PrintStmt, got %T", ifStmt.Else)
}

func TestParseIfWithoutElse(t *testing.T) {
	statements := parse(t, "if (true) print 1;")
	ifStmt := statements[0].(ast.IfStmt)

	_, ok := ifStmt.Else.(ast.DummyStmt)
	assert.True(t, ok, "expected the DummyStmt sentinel, got %T", ifStmt.Else)
}

func TestParseCallExpression(t *testing.T) {
	statements := parse(t, "fib(n - 1, 2,);")
	exprStmt := statements[0].(ast.ExpressionStmt)

	call, ok := exprStmt.Expression.(ast.Call)
	require.True(t, ok, "expected a Call, got %T", exprStmt.Expression)
	assert.Equal(t, "fib", call.Name.Lexeme)
	assert.Len(t, call.Arguments, 2)
}

func TestParseAssignment(t *testing.T) {
	statements := parse(t, "x = 1;")
	exprStmt := statements[0].(ast.ExpressionStmt)

	assign, ok := exprStmt.Expression.(ast.Assign)
	require.True(t, ok, "expected an Assign, got %T", exprStmt.Expression)
	assert.Equal(t, "x", assign.Name.Lexeme)
}

func TestParseGrouping(t *testing.T) {
	statements := parse(t, "print (1 + 2) * 3;")
	printStmt := statements[0].(ast.PrintStmt)

	mul, ok := printStmt.Expression.(ast.Binary)
	require.True(t, ok, "expected a Binary, got %T", printStmt.Expression)
	assert.Equal(t, token.TokenType(token.MULT), mul.Operator.TokenType)

	_, ok = mul.Left.(ast.Grouping)
	assert.True(t, ok, "expected a Grouping, got %T", mul.Left)
}

func TestParseUnary(t *testing.T) {
	statements := parse(t, "print !true;")
	printStmt := statements[0].(ast.PrintStmt)

	unary, ok := printStmt.Expression.(ast.Unary)
	require.True(t, ok, "expected a Unary, got %T", printStmt.Expression)
	assert.Equal(t, token.TokenType(token.BANG), unary.Operator.TokenType)
}

func TestParseEquality(t *testing.T) {
	statements := parse(t, "print 1 != 2;")
	printStmt := statements[0].(ast.PrintStmt)

	neq, ok := printStmt.Expression.(ast.Binary)
	require.True(t, ok, "expected a Binary, got %T", printStmt.Expression)
	assert.Equal(t, token.TokenType(token.NOT_EQUAL), neq.Operator.TokenType)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{name: "missing semicolon", source: "print 1"},
		{name: "invalid assignment target", source: "1 = 2;"},
		{name: "calling a literal", source: "1(2);"},
		{name: "missing closing paren", source: "print (1;"},
		{name: "missing condition parens", source: "if true print 1;"},
		{name: "missing fn body", source: "fn f()"},
		{name: "lone expression keyword", source: "else;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errors := parseErrors(t, tt.source)
			assert.NotEmpty(t, errors, "expected parse errors for %q", tt.source)
		})
	}
}
