package token

import (
	"testing"
)

func TestCreateToken(t *testing.T) {
	tok := CreateToken(EQUAL_EQUAL, 3, 10)
	if tok.TokenType != EQUAL_EQUAL {
		t.Errorf("CreateToken() TokenType = %v, want %v", tok.TokenType, EQUAL_EQUAL)
	}
	if tok.Lexeme != "==" {
		t.Errorf("CreateToken() Lexeme = %q, want %q", tok.Lexeme, "==")
	}
	if tok.Literal != nil {
		t.Errorf("CreateToken() Literal = %v, want nil", tok.Literal)
	}
	if tok.Line != 3 || tok.Column != 10 {
		t.Errorf("CreateToken() position = (%d,%d), want (3,10)", tok.Line, tok.Column)
	}
}

func TestCreateLiteralToken(t *testing.T) {
	tok := CreateLiteralToken(NUMBER, 42.0, "42", 0, 0)
	if tok.TokenType != NUMBER {
		t.Errorf("CreateLiteralToken() TokenType = %v, want %v", tok.TokenType, NUMBER)
	}
	if tok.Literal != 42.0 {
		t.Errorf("CreateLiteralToken() Literal = %v, want 42.0", tok.Literal)
	}
	if tok.Lexeme != "42" {
		t.Errorf("CreateLiteralToken() Lexeme = %q, want %q", tok.Lexeme, "42")
	}
}

func TestKeyWords(t *testing.T) {
	keywords := map[string]TokenType{
		"fn":     FUNC,
		"print":  PRINT,
		"return": RETURN,
		"if":     IF,
		"else":   ELSE,
		"true":   TRUE,
		"false":  FALSE,
		"null":   NULL,
	}
	for lexeme, want := range keywords {
		got, ok := KeyWords[lexeme]
		if !ok {
			t.Errorf("KeyWords[%q] missing", lexeme)
			continue
		}
		if got != want {
			t.Errorf("KeyWords[%q] = %v, want %v", lexeme, got, want)
		}
	}
	if _, ok := KeyWords["while"]; ok {
		t.Errorf("KeyWords should not contain %q", "while")
	}
}

func TestTokenString(t *testing.T) {
	tok := CreateLiteralToken(NUMBER, 123.0, "123", 3, 10)
	want := `Token {Type: NUMBER, Value: "123"}`
	if tok.String() != want {
		t.Errorf("Token.String() = %q, want %q", tok.String(), want)
	}
}
