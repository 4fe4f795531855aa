package asm

import "testing"

func lexAll(t *testing.T, src string) []Token {
	t.Helper()
	lex := NewLexer(src, "<test>")
	var toks []Token
	for {
		tok, err := lex.NextToken()
		if err != nil {
			t.Fatalf("lex error: %v", err)
		}
		toks = append(toks, tok)
		if tok.Kind == TokenEOF {
			break
		}
	}
	return toks
}

func TestLexerInstructionLine(t *testing.T) {
	toks := lexAll(t, "addi a0, zero, 5 # comment\n")
	kinds := []TokenKind{TokenSymbol, TokenSymbol, TokenComma, TokenSymbol, TokenComma, TokenIntLiteral, TokenNewline, TokenEOF}
	if len(toks) != len(kinds) {
		t.Fatalf("expected %d tokens, got %d: %+v", len(kinds), len(toks), toks)
	}
	for i, k := range kinds {
		if toks[i].Kind != k {
			t.Fatalf("token %d: expected kind %v got %v", i, k, toks[i].Kind)
		}
	}
}

func TestLexerHexAndBinaryLiterals(t *testing.T) {
	toks := lexAll(t, "0x1F 0b101\n")
	if toks[0].IntVal != 0x1F {
		t.Fatalf("expected 0x1F, got %d", toks[0].IntVal)
	}
	if toks[1].IntVal != 0b101 {
		t.Fatalf("expected 0b101, got %d", toks[1].IntVal)
	}
}

func TestLexerDirectiveToken(t *testing.T) {
	toks := lexAll(t, ".word 4\n")
	if toks[0].Kind != TokenSymbol || toks[0].Text != ".word" {
		t.Fatalf("expected .word symbol token, got %+v", toks[0])
	}
}

func TestLexerStringLiteral(t *testing.T) {
	toks := lexAll(t, `.string "hi\n"` + "\n")
	if toks[1].Kind != TokenStrLiteral || toks[1].StrVal != "hi\n" {
		t.Fatalf("unexpected string literal token: %+v", toks[1])
	}
}
