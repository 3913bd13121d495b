package parser_test

import (
	"testing"

	"github.com/pdxiv/basset-lang/ast"
	"github.com/pdxiv/basset-lang/parser"
	"github.com/pdxiv/basset-lang/token"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := parser.New(src)
	prog, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse returned an error: %v", err)
	}
	if n := p.Errors().Len(); n != 0 {
		for _, e := range p.Errors().Errors() {
			t.Logf("diagnostic: %v", e)
		}
		t.Fatalf("expected no diagnostics, got %d", n)
	}
	return prog
}

func TestParseSimpleAssignment(t *testing.T) {
	prog := mustParse(t, "10 A=1+2\n")
	if len(prog.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Statements))
	}
	stmt := prog.Statements[0]
	if stmt.Kind != ast.KindAssignment {
		t.Fatalf("expected assignment, got %v", stmt.Kind)
	}
	if stmt.Children[0].Name != "A" {
		t.Fatalf("expected target A, got %q", stmt.Children[0].Name)
	}
}

func TestParseColonSeparatedStatements(t *testing.T) {
	prog := mustParse(t, "10 A=1:B=2:C=3\n")
	if len(prog.Statements) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(prog.Statements))
	}
	for _, s := range prog.Statements {
		if s.Line != 10 {
			t.Fatalf("expected all statements on line 10, got %d", s.Line)
		}
	}
}

func TestParseIfThenElse(t *testing.T) {
	prog := mustParse(t, "10 IF X=1 THEN PRINT \"A\" ELSE PRINT \"B\"\n")
	stmt := prog.Statements[0]
	if stmt.Tok != token.IF {
		t.Fatalf("expected IF, got %v", stmt.Tok)
	}
	if len(stmt.Children) != 3 {
		t.Fatalf("expected cond+then+else children, got %d", len(stmt.Children))
	}
	if stmt.Children[1].Tok != token.THEN || stmt.Children[2].Tok != token.ELSE {
		t.Fatalf("expected THEN/ELSE blocks, got %v/%v", stmt.Children[1].Tok, stmt.Children[2].Tok)
	}
}

func TestParseIfThenBareNumberIsGoto(t *testing.T) {
	prog := mustParse(t, "10 IF X THEN 100\n100 END\n")
	ifStmt := prog.Statements[0]
	thenBlock := ifStmt.Children[1]
	if len(thenBlock.Children) != 1 || thenBlock.Children[0].Tok != token.GOTO {
		t.Fatalf("expected IF...THEN <number> to desugar to GOTO, got %+v", thenBlock.Children)
	}
}

func TestParseForWithImplicitStep(t *testing.T) {
	prog := mustParse(t, "10 FOR I=1 TO 10\n20 NEXT I\n")
	forStmt := prog.Statements[0]
	if forStmt.Tok != token.FOR || forStmt.Name != "I" {
		t.Fatalf("expected FOR over I, got %+v", forStmt)
	}
	step := forStmt.Children[2]
	if step.Kind != ast.KindConstant || step.Value != 1 {
		t.Fatalf("expected implicit step 1, got %+v", step)
	}
}

func TestParseExpressionPrecedence(t *testing.T) {
	prog := mustParse(t, "10 A=2+3*4\n")
	value := prog.Statements[0].Children[1]
	if value.Tok != token.PLUS {
		t.Fatalf("expected top-level PLUS (lowest precedence), got %v", value.Tok)
	}
	if value.Children[1].Tok != token.STAR {
		t.Fatalf("expected right side to be the MUL subtree, got %v", value.Children[1].Tok)
	}
}

func TestParseExpressionRightAssociativePower(t *testing.T) {
	prog := mustParse(t, "10 A=2^3^2\n")
	value := prog.Statements[0].Children[1]
	if value.Tok != token.CARET {
		t.Fatalf("expected CARET at top, got %v", value.Tok)
	}
	// right-associative: 2^(3^2), so the right child is itself a CARET node.
	if value.Children[1].Tok != token.CARET {
		t.Fatalf("expected right-associative grouping, got %+v", value)
	}
}

func TestParseDataWithNullEntries(t *testing.T) {
	prog := mustParse(t, "10 DATA 1,,\"X\"\n")
	data := prog.Statements[0]
	if len(data.Children) != 3 {
		t.Fatalf("expected 3 data entries, got %d", len(data.Children))
	}
	if data.Children[1].Tok != token.ILLEGAL {
		t.Fatalf("expected null entry to be ILLEGAL marker, got %v", data.Children[1].Tok)
	}
}

func TestParseGotoUndefinedTargetIsDiagnosed(t *testing.T) {
	p := parser.New("10 GOTO 999\n")
	_, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse returned an error: %v", err)
	}
	errs := p.Errors().Errors()
	if len(errs) != 1 || errs[0].Kind != parser.ErrUndefinedTarget {
		t.Fatalf("expected one ErrUndefinedTarget diagnostic, got %+v", errs)
	}
}

func TestParseOnGotoValidatesEveryTarget(t *testing.T) {
	p := parser.New("10 ON X GOTO 20,999\n20 END\n")
	p.Parse()
	errs := p.Errors().Errors()
	if len(errs) != 1 || errs[0].Kind != parser.ErrUndefinedTarget {
		t.Fatalf("expected exactly one undefined-target diagnostic for 999, got %+v", errs)
	}
}

func TestParseLineNumberOutOfOrderIsDiagnosed(t *testing.T) {
	p := parser.New("20 PRINT 1\n10 PRINT 2\n")
	p.Parse()
	errs := p.Errors().Errors()
	if len(errs) != 1 || errs[0].Kind != parser.ErrLineOutOfOrder {
		t.Fatalf("expected one ErrLineOutOfOrder diagnostic, got %+v", errs)
	}
}

func TestParseDuplicateLineNumberIsDiagnosed(t *testing.T) {
	p := parser.New("10 PRINT 1\n10 PRINT 2\n")
	p.Parse()
	errs := p.Errors().Errors()
	if len(errs) != 1 || errs[0].Kind != parser.ErrLineOutOfOrder {
		t.Fatalf("expected duplicate line number to be flagged as out-of-order, got %+v", errs)
	}
}

func TestParseUnknownStatementKeywordIsDiagnosed(t *testing.T) {
	p := parser.New("10 BOGUS 1\n")
	p.Parse()
	errs := p.Errors().Errors()
	if len(errs) != 1 || errs[0].Kind != parser.ErrUnknownStatement {
		t.Fatalf("expected one ErrUnknownStatement diagnostic, got %+v", errs)
	}
}

func TestParseMidFunctionArityError(t *testing.T) {
	p := parser.New("10 PRINT MID$(\"X\")\n")
	p.Parse()
	errs := p.Errors().Errors()
	if len(errs) != 1 || errs[0].Kind != parser.ErrArity {
		t.Fatalf("expected one ErrArity diagnostic for MID$ with 1 arg, got %+v", errs)
	}
}

func TestParseStringVariableSuffixDetection(t *testing.T) {
	prog := mustParse(t, "10 A$=\"X\"\n")
	target := prog.Statements[0].Children[0]
	if !target.IsStringVar() {
		t.Fatalf("expected A$ to be detected as a string variable")
	}
}

func TestParseArrayTargetWithTwoSubscripts(t *testing.T) {
	prog := mustParse(t, "10 DIM A(5,5)\n20 A(1,2)=9\n")
	dim := prog.Statements[0]
	if len(dim.Children[0].Children) != 2 {
		t.Fatalf("expected 2D DIM to carry two bound expressions, got %d", len(dim.Children[0].Children))
	}
	assign := prog.Statements[1]
	target := assign.Children[0]
	if len(target.Children) != 2 {
		t.Fatalf("expected 2D array target to carry two subscripts, got %d", len(target.Children))
	}
}

func TestParseRemTextIsPreserved(t *testing.T) {
	prog := mustParse(t, "10 REM a note to self\n")
	rem := prog.Statements[0]
	if rem.Tok != token.REM {
		t.Fatalf("expected REM statement, got %v", rem.Tok)
	}
	if len(rem.Children) != 1 {
		t.Fatalf("expected REM text child, got %+v", rem.Children)
	}
}

func TestParsePrintSeparatorsAreOperatorNodes(t *testing.T) {
	prog := mustParse(t, "10 PRINT \"A\";\"B\",\"C\"\n")
	print := prog.Statements[0]
	var sawSemi, sawComma bool
	for _, c := range print.Children {
		if c.Kind == ast.KindOperator && c.Tok == token.SEMI {
			sawSemi = true
		}
		if c.Kind == ast.KindOperator && c.Tok == token.COMMA {
			sawComma = true
		}
	}
	if !sawSemi || !sawComma {
		t.Fatalf("expected both separator kinds as operator nodes, got %+v", print.Children)
	}
}

func TestParseOnGosubRecordsKindInName(t *testing.T) {
	prog := mustParse(t, "10 ON X GOSUB 20\n20 RETURN\n")
	on := prog.Statements[0]
	if on.Name != token.GOSUB.String() {
		t.Fatalf("expected ON...GOSUB to record GOSUB in Name, got %q", on.Name)
	}
}

func TestParseLineOutOfRangeIsDiagnosed(t *testing.T) {
	p := parser.New("99999 PRINT 1\n")
	p.Parse()
	errs := p.Errors().Errors()
	if len(errs) != 1 || errs[0].Kind != parser.ErrLineOutOfRange {
		t.Fatalf("expected one ErrLineOutOfRange diagnostic, got %+v", errs)
	}
}
