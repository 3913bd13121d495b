package lexer_test

import (
	"testing"

	"github.com/pdxiv/basset-lang/lexer"
	"github.com/pdxiv/basset-lang/token"
)

func allTokens(t *testing.T, src string) []token.Token {
	t.Helper()
	l := lexer.New(src)
	var toks []token.Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return toks
}

func typesOf(toks []token.Token) []token.Type {
	out := make([]token.Type, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

func assertTypes(t *testing.T, src string, want []token.Type) {
	t.Helper()
	got := typesOf(allTokens(t, src))
	if len(got) != len(want) {
		t.Fatalf("%q: got %v, want %v", src, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%q: token %d: got %s, want %s (full: %v)", src, i, got[i], want[i], got)
		}
	}
}

func TestLexerKeywordsNeedParenForFunctions(t *testing.T) {
	// INT( is the function; bare INT is an identifier since INT has no
	// meaning as a statement keyword on its own here.
	assertTypes(t, "INT(5)", []token.Type{token.INT, token.LPAREN, token.NUMBER, token.RPAREN, token.EOF})
	assertTypes(t, "INTEGER", []token.Type{token.IDENT, token.EOF})
}

func TestLexerStringVariableSuffix(t *testing.T) {
	assertTypes(t, "A$", []token.Type{token.IDENT, token.EOF})
	toks := allTokens(t, "A$=\"X\"")
	if toks[0].Lexeme != "A$" {
		t.Fatalf("expected ident lexeme A$, got %q", toks[0].Lexeme)
	}
}

func TestLexerIdentifierSplitOnEmbeddedKeyword(t *testing.T) {
	// A bare run of letters with keywords embedded in it splits into the
	// keywords and the identifier between them ("IFFPRINT" is IF F PRINT)
	// rather than being swallowed whole as one identifier.
	toks := allTokens(t, "IFFPRINT")
	if toks[0].Type != token.IF || toks[1].Type != token.IDENT || toks[1].Lexeme != "F" || toks[2].Type != token.PRINT {
		t.Fatalf("expected IF, IDENT F, PRINT, got %v", toks)
	}
}

func TestLexerNumberWithExponent(t *testing.T) {
	toks := allTokens(t, "1.5E+10")
	if toks[0].Type != token.NUMBER || toks[0].Num != 1.5e10 {
		t.Fatalf("got %+v", toks[0])
	}
}

func TestLexerNumberRejectsFalseExponent(t *testing.T) {
	// "E" not followed by digits (or sign+digits) isn't an exponent; it
	// should be left for the next token to pick up as an identifier.
	toks := allTokens(t, "5E")
	if toks[0].Type != token.NUMBER || toks[0].Num != 5 {
		t.Fatalf("got %+v", toks[0])
	}
	if toks[1].Type != token.IDENT || toks[1].Lexeme != "E" {
		t.Fatalf("got %+v", toks[1])
	}
}

func TestLexerStringLiteral(t *testing.T) {
	toks := allTokens(t, `"HELLO WORLD"`)
	if toks[0].Type != token.STRING || toks[0].Str != "HELLO WORLD" {
		t.Fatalf("got %+v", toks[0])
	}
}

func TestLexerUnterminatedStringAtEOF(t *testing.T) {
	toks := allTokens(t, `"NO CLOSING QUOTE`)
	if toks[0].Type != token.STRING || toks[0].Str != "NO CLOSING QUOTE" {
		t.Fatalf("got %+v", toks[0])
	}
}

func TestLexerRemConsumesRestOfLine(t *testing.T) {
	toks := allTokens(t, "REM this is not tokenized\nPRINT 1")
	if toks[0].Type != token.REM {
		t.Fatalf("got %+v", toks[0])
	}
	if toks[1].Type != token.STRING || toks[1].Str != " this is not tokenized" {
		t.Fatalf("got %+v", toks[1])
	}
	if toks[2].Type != token.EOL {
		t.Fatalf("expected EOL after REM text, got %+v", toks[2])
	}
	if toks[3].Type != token.PRINT {
		t.Fatalf("expected PRINT after REM line, got %+v", toks[3])
	}
}

func TestLexerApostropheCommentAliasesRem(t *testing.T) {
	toks := allTokens(t, "' a comment\n")
	if toks[0].Type != token.REM {
		t.Fatalf("got %+v", toks[0])
	}
}

func TestLexerTwoCharOperators(t *testing.T) {
	assertTypes(t, "<=,>=,<>", []token.Type{
		token.LE, token.COMMA, token.GE, token.COMMA, token.NE, token.EOF,
	})
}

func TestLexerUnknownCharacterIsSkippedAndRecorded(t *testing.T) {
	l := lexer.New("A = 1 @ 2")
	for {
		tok := l.Next()
		if tok.Type == token.EOF {
			break
		}
	}
	unk := l.Unknowns()
	if len(unk) != 1 || unk[0].Ch != '@' {
		t.Fatalf("expected one skipped '@', got %+v", unk)
	}
}

func TestLexerPeekDoesNotConsume(t *testing.T) {
	l := lexer.New("PRINT 1")
	first := l.Peek()
	second := l.Peek()
	if first.Type != second.Type || first.Type != token.PRINT {
		t.Fatalf("Peek should be idempotent, got %+v then %+v", first, second)
	}
	third := l.Next()
	if third.Type != token.PRINT {
		t.Fatalf("Next after Peek should return the same token, got %+v", third)
	}
}

func TestLexerMarkResetRestoresPosition(t *testing.T) {
	l := lexer.New("10 PRINT 20")
	l.Next() // 10
	mark := l.Mark()
	l.Next() // PRINT
	l.Next() // 20
	l.Reset(mark)
	tok := l.Next()
	if tok.Type != token.PRINT {
		t.Fatalf("expected Reset to rewind to PRINT, got %+v", tok)
	}
}

func TestLexerEndOfLineToken(t *testing.T) {
	toks := allTokens(t, "A=1\nB=2")
	var sawEOL bool
	for _, tk := range toks {
		if tk.Type == token.EOL {
			sawEOL = true
		}
	}
	if !sawEOL {
		t.Fatalf("expected an EOL token, got %v", toks)
	}
}
