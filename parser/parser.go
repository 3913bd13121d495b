// Package parser turns a token stream into an ast.Program: a recursive-
// descent statement parser (a switch on the leading token) layered over a
// precedence-climbing expression sub-parser driven by package grammar's
// operator and function-arity tables.
package parser

import (
	"fmt"
	"strings"

	"github.com/pdxiv/basset-lang/ast"
	"github.com/pdxiv/basset-lang/grammar"
	"github.com/pdxiv/basset-lang/lexer"
	"github.com/pdxiv/basset-lang/token"
)

// maxDepth bounds statement recursion (parseStatement, e.g. the statements
// nested after IF ... THEN) so a pathological or adversarial input fails
// with a diagnostic instead of exhausting the stack. Expression nesting is
// not counted against it.
const maxDepth = 2000

// Parser holds the engine's mutable state across one Parse call.
type Parser struct {
	lex   *lexer.Lexer
	errors *ErrorList
	lines []string

	lineTextByBasic map[int]string

	currentBasicLine  int
	currentSourceText string

	depth int
}

// New creates a parser over BASIC source text.
func New(src string) *Parser {
	return &Parser{
		lex:             lexer.New(src),
		errors:          &ErrorList{},
		lines:           strings.Split(src, "\n"),
		lineTextByBasic: make(map[int]string),
	}
}

// Errors returns every diagnostic accumulated during Parse.
func (p *Parser) Errors() *ErrorList { return p.errors }

// Parse consumes the whole token stream and returns the resulting program.
// Parse errors are accumulated in the parser's ErrorList rather than
// aborting, and the returned error is always nil: callers should check
// p.Errors().Len() after Parse returns.
func (p *Parser) Parse() (*ast.Program, error) {
	prog := ast.NewProgram()
	lastLine := -1

	for {
		for p.lex.Peek().Type == token.EOL {
			p.lex.Next()
		}
		if p.lex.Peek().Type == token.EOF {
			break
		}

		lineTok := p.lex.Peek()
		if lineTok.Type != token.NUMBER {
			p.errorf(ErrSyntax, lineTok.Pos, "expected a line number, got %s", lineTok.Type)
			p.skipToEOL()
			continue
		}
		p.lex.Next()

		lineNum := int(lineTok.Num)
		p.currentBasicLine = lineNum
		p.currentSourceText = p.physicalLine(lineTok.Pos.Line)
		p.lineTextByBasic[lineNum] = p.currentSourceText

		if lineNum < 0 || lineNum > 32767 {
			p.errorf(ErrLineOutOfRange, lineTok.Pos, "line number %d out of range (0-32767)", lineNum)
		} else if lineNum <= lastLine {
			p.errorf(ErrLineOutOfOrder, lineTok.Pos, "line number %d does not follow previous line %d", lineNum, lastLine)
		} else {
			lastLine = lineNum
		}
		prog.Lines[lineNum] = true

		for {
			stmt := p.parseStatement()
			if stmt != nil {
				stmt.Line = lineNum
				prog.Statements = append(prog.Statements, stmt)
			}
			if p.lex.Peek().Type == token.COLON {
				p.lex.Next()
				continue
			}
			break
		}

		switch p.lex.Peek().Type {
		case token.EOL:
			p.lex.Next()
		case token.EOF:
		default:
			tk := p.lex.Peek()
			p.errorf(ErrUnexpectedToken, tk.Pos, "unexpected %s after statement", tk.Type)
			p.skipToEOL()
		}
	}

	p.validateReferences(prog)
	return prog, nil
}

func (p *Parser) physicalLine(n int) string {
	idx := n - 1
	if idx < 0 || idx >= len(p.lines) {
		return ""
	}
	return strings.TrimRight(p.lines[idx], "\r")
}

// --- statement dispatch -----------------------------------------------

func (p *Parser) parseStatement() *ast.Node {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxDepth {
		p.errorf(ErrSyntax, p.lex.Peek().Pos, "statement nesting too deep")
		p.skipToEOL()
		return nil
	}

	t := p.lex.Peek()
	switch t.Type {
	case token.EOL, token.EOF, token.COLON:
		return nil
	case token.REM:
		return p.parseRem()
	case token.DATA:
		return p.parseData()
	case token.INPUT:
		return p.parseInput()
	case token.LET:
		return p.parseLet(true)
	case token.IDENT:
		return p.parseLet(false)
	case token.IF:
		return p.parseIf()
	case token.FOR:
		return p.parseFor()
	case token.NEXT:
		return p.parseNext()
	case token.GOTO:
		return p.parseGotoOrGosub(token.GOTO)
	case token.GOSUB:
		return p.parseGotoOrGosub(token.GOSUB)
	case token.RETURN:
		return p.parseSimple(token.RETURN)
	case token.TRAP:
		return p.parseTrap()
	case token.CLOSE:
		return p.parseClose()
	case token.CLR:
		return p.parseSimple(token.CLR)
	case token.DEG:
		return p.parseSimple(token.DEG)
	case token.RAD:
		return p.parseSimple(token.RAD)
	case token.DIM:
		return p.parseDim()
	case token.END:
		return p.parseSimple(token.END)
	case token.OPEN:
		return p.parseOpen()
	case token.STATUS:
		return p.parseStatus()
	case token.NOTE:
		return p.parseNote()
	case token.POINT:
		return p.parsePoint()
	case token.XIO:
		return p.parseXio()
	case token.ON:
		return p.parseOn()
	case token.POKE:
		return p.parsePoke()
	case token.PRINT, token.QUESTION:
		return p.parsePrint()
	case token.READ:
		return p.parseRead()
	case token.RESTORE:
		return p.parseRestore()
	case token.STOP:
		return p.parseSimple(token.STOP)
	case token.POP:
		return p.parseSimple(token.POP)
	case token.GET:
		return p.parseGet()
	case token.PUT:
		return p.parsePut()
	case token.RANDOMIZE:
		return p.parseRandomize()
	default:
		p.lex.Next()
		p.errorf(ErrUnknownStatement, t.Pos, "unknown statement keyword %q", t.Lexeme)
		p.skipToStatementEnd()
		return nil
	}
}

func (p *Parser) parseSimple(tok token.Type) *ast.Node {
	p.lex.Next()
	return ast.NewNode(ast.KindStatement, tok)
}

func (p *Parser) parseRem() *ast.Node {
	p.lex.Next()
	text := ""
	if p.lex.Peek().Type == token.STRING {
		text = p.lex.Next().Str
	}
	return ast.NewNode(ast.KindStatement, token.REM,
		&ast.Node{Kind: ast.KindConstant, Tok: token.STRING, Str: text})
}

func (p *Parser) parseLet(explicit bool) *ast.Node {
	if explicit {
		p.lex.Next()
	}
	start := p.lex.Peek().Pos
	target := p.parseVariableTarget()
	if p.lex.Peek().Type != token.EQ {
		if explicit {
			p.errorf(ErrExpected, p.lex.Peek().Pos, "expected '=' in assignment")
		} else {
			p.errorf(ErrUnknownStatement, start, "unknown statement %q", target.Name)
		}
		p.skipToStatementEnd()
		return nil
	}
	p.lex.Next()
	value := p.parseExpr(0)
	return ast.NewNode(ast.KindAssignment, token.LET, target, value)
}

func (p *Parser) parseIf() *ast.Node {
	p.lex.Next()
	cond := p.parseExpr(0)
	p.expect(token.THEN)
	thenStmts := p.parseStatementBlock(true)
	node := ast.NewNode(ast.KindStatement, token.IF, cond)
	thenBlock := ast.NewNode(ast.KindStatement, token.THEN)
	thenBlock.Children = thenStmts
	node.Add(thenBlock)
	if p.lex.Peek().Type == token.ELSE {
		p.lex.Next()
		elseStmts := p.parseStatementBlock(false)
		elseBlock := ast.NewNode(ast.KindStatement, token.ELSE)
		elseBlock.Children = elseStmts
		node.Add(elseBlock)
	}
	return node
}

// parseStatementBlock parses the colon-separated statement run that follows
// THEN or ELSE. A bare NUMBER in statement position is the classic
// "IF x THEN 100" shorthand for GOTO 100.
func (p *Parser) parseStatementBlock(stopAtElse bool) []*ast.Node {
	var stmts []*ast.Node
	for {
		pk := p.lex.Peek().Type
		if pk == token.EOL || pk == token.EOF {
			break
		}
		if stopAtElse && pk == token.ELSE {
			break
		}
		if pk == token.NUMBER {
			n := p.lex.Next()
			g := ast.NewNode(ast.KindStatement, token.GOTO,
				&ast.Node{Kind: ast.KindConstant, Tok: token.NUMBER, Value: n.Num})
			stmts = append(stmts, g)
		} else {
			if s := p.parseStatement(); s != nil {
				stmts = append(stmts, s)
			}
		}
		if p.lex.Peek().Type == token.COLON {
			p.lex.Next()
			continue
		}
		break
	}
	return stmts
}

func (p *Parser) parseFor() *ast.Node {
	p.lex.Next()
	v := p.expectIdentTok()
	p.expect(token.EQ)
	start := p.parseExpr(0)
	p.expect(token.TO)
	limit := p.parseExpr(0)
	var step *ast.Node
	if p.lex.Peek().Type == token.STEP {
		p.lex.Next()
		step = p.parseExpr(0)
	} else {
		step = &ast.Node{Kind: ast.KindConstant, Tok: token.NUMBER, Value: 1}
	}
	node := ast.NewNode(ast.KindStatement, token.FOR, start, limit, step)
	node.Name = v.Lexeme
	return node
}

func (p *Parser) parseNext() *ast.Node {
	p.lex.Next()
	node := ast.NewNode(ast.KindStatement, token.NEXT)
	for p.lex.Peek().Type == token.IDENT {
		idt := p.lex.Next()
		node.Add(&ast.Node{Kind: ast.KindVariable, Tok: token.IDENT, Name: idt.Lexeme})
		if p.lex.Peek().Type == token.COMMA {
			p.lex.Next()
			continue
		}
		break
	}
	return node
}

func (p *Parser) parseGotoOrGosub(tok token.Type) *ast.Node {
	p.lex.Next()
	node := ast.NewNode(ast.KindStatement, tok)
	if p.lex.Peek().Type == token.NUMBER {
		n := p.lex.Next()
		node.Add(&ast.Node{Kind: ast.KindConstant, Tok: token.NUMBER, Value: n.Num})
	} else {
		node.Add(p.parseExpr(0))
	}
	return node
}

func (p *Parser) parseTrap() *ast.Node {
	p.lex.Next()
	n := p.expect(token.NUMBER)
	return ast.NewNode(ast.KindStatement, token.TRAP,
		&ast.Node{Kind: ast.KindConstant, Tok: token.NUMBER, Value: n.Num})
}

func (p *Parser) parseRestore() *ast.Node {
	p.lex.Next()
	node := ast.NewNode(ast.KindStatement, token.RESTORE)
	if p.lex.Peek().Type == token.NUMBER {
		n := p.lex.Next()
		node.Add(&ast.Node{Kind: ast.KindConstant, Tok: token.NUMBER, Value: n.Num})
	}
	return node
}

func (p *Parser) parseDim() *ast.Node {
	p.lex.Next()
	node := ast.NewNode(ast.KindStatement, token.DIM)
	for {
		idt := p.expectIdentTok()
		p.expect(token.LPAREN)
		v := &ast.Node{Kind: ast.KindVariable, Tok: token.IDENT, Name: idt.Lexeme}
		v.Add(p.parseExpr(0))
		if p.lex.Peek().Type == token.COMMA {
			p.lex.Next()
			v.Add(p.parseExpr(0))
		}
		p.expect(token.RPAREN)
		node.Add(v)
		if p.lex.Peek().Type == token.COMMA {
			p.lex.Next()
			continue
		}
		break
	}
	return node
}

// parseData implements the comma-delimited DATA grammar, including the
// null-entry convention ("DATA 1,,3" yields a null between the 1 and the 3).
// A bare "DATA" with nothing following it produces zero entries.
func (p *Parser) parseData() *ast.Node {
	p.lex.Next()
	node := ast.NewNode(ast.KindStatement, token.DATA)
	if pk := p.lex.Peek().Type; pk == token.EOL || pk == token.EOF || pk == token.COLON {
		return node
	}
	for {
		pk := p.lex.Peek().Type
		if pk == token.COMMA || pk == token.EOL || pk == token.EOF || pk == token.COLON {
			node.Add(&ast.Node{Kind: ast.KindConstant, Tok: token.ILLEGAL})
		} else {
			node.Add(p.parseDataEntry())
		}
		if p.lex.Peek().Type == token.COMMA {
			p.lex.Next()
			continue
		}
		break
	}
	return node
}

func (p *Parser) parseDataEntry() *ast.Node {
	switch p.lex.Peek().Type {
	case token.NUMBER:
		n := p.lex.Next()
		return &ast.Node{Kind: ast.KindConstant, Tok: token.NUMBER, Value: n.Num}
	case token.STRING:
		s := p.lex.Next()
		return &ast.Node{Kind: ast.KindConstant, Tok: token.STRING, Str: s.Str}
	case token.IDENT:
		idt := p.lex.Next()
		return &ast.Node{Kind: ast.KindConstant, Tok: token.STRING, Str: idt.Lexeme}
	case token.PLUS, token.MINUS:
		sign := p.lex.Next()
		n := p.expect(token.NUMBER)
		v := n.Num
		if sign.Type == token.MINUS {
			v = -v
		}
		return &ast.Node{Kind: ast.KindConstant, Tok: token.NUMBER, Value: v}
	default:
		tk := p.lex.Next()
		p.errorf(ErrSyntax, tk.Pos, "invalid DATA value %q", tk.Lexeme)
		return &ast.Node{Kind: ast.KindConstant, Tok: token.ILLEGAL}
	}
}

func (p *Parser) parseRead() *ast.Node {
	p.lex.Next()
	node := ast.NewNode(ast.KindStatement, token.READ)
	for {
		node.Add(p.parseVariableTarget())
		if p.lex.Peek().Type == token.COMMA {
			p.lex.Next()
			continue
		}
		break
	}
	return node
}

func (p *Parser) parseInput() *ast.Node {
	p.lex.Next()
	node := ast.NewNode(ast.KindStatement, token.INPUT)
	if p.lex.Peek().Type == token.STRING {
		s := p.lex.Next()
		node.Add(&ast.Node{Kind: ast.KindConstant, Tok: token.STRING, Str: s.Str})
		if pk := p.lex.Peek().Type; pk == token.SEMI || pk == token.COMMA {
			p.lex.Next()
		}
	}
	for {
		node.Add(p.parseVariableTarget())
		if p.lex.Peek().Type == token.COMMA {
			p.lex.Next()
			continue
		}
		break
	}
	return node
}

// parsePrint collects items and separators as a flat child list; a leading
// "#ch," channel selector is wrapped so the compiler can distinguish it from
// a plain print item.
func (p *Parser) parsePrint() *ast.Node {
	p.lex.Next()
	node := ast.NewNode(ast.KindStatement, token.PRINT)
	if p.lex.Peek().Type == token.HASH {
		p.lex.Next()
		ch := p.parseExpr(0)
		node.Add(ast.NewNode(ast.KindExpression, token.HASH, ch))
		if p.lex.Peek().Type == token.COMMA {
			p.lex.Next()
		}
	}
	for {
		pk := p.lex.Peek().Type
		if pk == token.EOL || pk == token.EOF || pk == token.COLON || pk == token.ELSE {
			break
		}
		switch pk {
		case token.COMMA:
			p.lex.Next()
			node.Add(ast.NewNode(ast.KindOperator, token.COMMA))
		case token.SEMI:
			p.lex.Next()
			node.Add(ast.NewNode(ast.KindOperator, token.SEMI))
		default:
			node.Add(p.parseExpr(0))
		}
	}
	return node
}

func (p *Parser) parseOn() *ast.Node {
	p.lex.Next()
	expr := p.parseExpr(0)
	kind := token.GOTO
	switch p.lex.Peek().Type {
	case token.GOTO:
		kind = token.GOTO
	case token.GOSUB:
		kind = token.GOSUB
	default:
		p.errorf(ErrExpected, p.lex.Peek().Pos, "expected GOTO or GOSUB after ON")
	}
	p.lex.Next()
	node := ast.NewNode(ast.KindStatement, token.ON, expr)
	node.Name = kind.String()
	for {
		n := p.expect(token.NUMBER)
		node.Add(&ast.Node{Kind: ast.KindConstant, Tok: token.NUMBER, Value: n.Num})
		if p.lex.Peek().Type == token.COMMA {
			p.lex.Next()
			continue
		}
		break
	}
	return node
}

func (p *Parser) parsePoke() *ast.Node {
	p.lex.Next()
	addr := p.parseExpr(0)
	p.expect(token.COMMA)
	val := p.parseExpr(0)
	return ast.NewNode(ast.KindStatement, token.POKE, addr, val)
}

func (p *Parser) parseRandomize() *ast.Node {
	p.lex.Next()
	node := ast.NewNode(ast.KindStatement, token.RANDOMIZE)
	pk := p.lex.Peek().Type
	if pk != token.EOL && pk != token.EOF && pk != token.COLON {
		node.Add(p.parseExpr(0))
	}
	return node
}

func (p *Parser) parseOpen() *ast.Node {
	p.lex.Next()
	if p.lex.Peek().Type == token.HASH {
		p.lex.Next()
	}
	ch := p.parseExpr(0)
	p.expect(token.COMMA)
	mode := p.parseExpr(0)
	p.expect(token.COMMA)
	aux := p.parseExpr(0)
	p.expect(token.COMMA)
	file := p.parseExpr(0)
	return ast.NewNode(ast.KindStatement, token.OPEN, ch, mode, aux, file)
}

func (p *Parser) parseHashExpr() *ast.Node {
	if p.lex.Peek().Type == token.HASH {
		p.lex.Next()
	}
	return p.parseExpr(0)
}

func (p *Parser) parseClose() *ast.Node {
	p.lex.Next()
	ch := p.parseHashExpr()
	return ast.NewNode(ast.KindStatement, token.CLOSE, ch)
}

func (p *Parser) parseGet() *ast.Node {
	p.lex.Next()
	ch := p.parseHashExpr()
	p.expect(token.COMMA)
	v := p.parseVariableTarget()
	return ast.NewNode(ast.KindStatement, token.GET, ch, v)
}

func (p *Parser) parsePut() *ast.Node {
	p.lex.Next()
	ch := p.parseHashExpr()
	p.expect(token.COMMA)
	v := p.parseExpr(0)
	return ast.NewNode(ast.KindStatement, token.PUT, ch, v)
}

func (p *Parser) parseNote() *ast.Node {
	p.lex.Next()
	ch := p.parseHashExpr()
	p.expect(token.COMMA)
	v1 := p.parseVariableTarget()
	p.expect(token.COMMA)
	v2 := p.parseVariableTarget()
	return ast.NewNode(ast.KindStatement, token.NOTE, ch, v1, v2)
}

func (p *Parser) parsePoint() *ast.Node {
	p.lex.Next()
	ch := p.parseHashExpr()
	p.expect(token.COMMA)
	e1 := p.parseExpr(0)
	p.expect(token.COMMA)
	e2 := p.parseExpr(0)
	return ast.NewNode(ast.KindStatement, token.POINT, ch, e1, e2)
}

func (p *Parser) parseStatus() *ast.Node {
	p.lex.Next()
	ch := p.parseHashExpr()
	p.expect(token.COMMA)
	v := p.parseVariableTarget()
	return ast.NewNode(ast.KindStatement, token.STATUS, ch, v)
}

// parseXio parses "XIO cmd, #ch, filename" (filename optional for commands
// like close/delete that only need a channel).
func (p *Parser) parseXio() *ast.Node {
	p.lex.Next()
	cmd := p.parseExpr(0)
	p.expect(token.COMMA)
	ch := p.parseHashExpr()
	file := &ast.Node{Kind: ast.KindConstant, Tok: token.STRING}
	if p.lex.Peek().Type == token.COMMA {
		p.lex.Next()
		file = p.parseExpr(0)
	}
	return ast.NewNode(ast.KindStatement, token.XIO, cmd, ch, file)
}

// --- variable targets ---------------------------------------------------

func (p *Parser) parseVariableTarget() *ast.Node {
	idt := p.expectIdentTok()
	v := &ast.Node{Kind: ast.KindVariable, Tok: token.IDENT, Name: idt.Lexeme}
	if p.lex.Peek().Type == token.LPAREN {
		p.lex.Next()
		v.Add(p.parseExpr(0))
		if p.lex.Peek().Type == token.COMMA {
			p.lex.Next()
			v.Add(p.parseExpr(0))
		}
		p.expect(token.RPAREN)
	}
	return v
}

// --- expressions (precedence climbing) ----------------------------------

func (p *Parser) parseExpr(minBP int) *ast.Node {
	t := p.lex.Next()
	left := p.nud(t)
	for {
		peek := p.lex.Peek()
		info, ok := grammar.Operators[peek.Type]
		if !ok || info.Led != grammar.LedBinaryOp || info.LBP < minBP {
			break
		}
		op := p.lex.Next()
		nextMin := info.LBP + 1
		if grammar.RightAssociative[op.Type] {
			nextMin = info.LBP
		}
		right := p.parseExpr(nextMin)
		left = ast.NewNode(ast.KindOperator, op.Type, left, right)
	}
	return left
}

func (p *Parser) nud(t token.Token) *ast.Node {
	info, ok := grammar.Operators[t.Type]
	if !ok {
		p.errorf(ErrSyntax, t.Pos, "unexpected %s in expression", t.Type)
		return &ast.Node{Kind: ast.KindConstant, Tok: token.NUMBER}
	}
	switch info.Nud {
	case grammar.NudNumberLiteral:
		return &ast.Node{Kind: ast.KindConstant, Tok: token.NUMBER, Value: t.Num}
	case grammar.NudStringLiteral:
		return &ast.Node{Kind: ast.KindConstant, Tok: token.STRING, Str: t.Str}
	case grammar.NudVariable:
		return p.parseVariableRef(t)
	case grammar.NudParenthesized:
		e := p.parseExpr(0)
		p.expect(token.RPAREN)
		return e
	case grammar.NudUnaryPlus:
		return p.parseExpr(grammar.UnaryBindingPower)
	case grammar.NudUnaryMinus:
		operand := p.parseExpr(grammar.UnaryBindingPower)
		return ast.NewNode(ast.KindOperator, token.MINUS, operand)
	case grammar.NudUnaryNot:
		operand := p.parseExpr(grammar.UnaryBindingPower)
		return ast.NewNode(ast.KindOperator, token.NOT, operand)
	case grammar.NudFunctionCall:
		return p.parseFunctionCall(t)
	default:
		p.errorf(ErrSyntax, t.Pos, "unexpected %s in expression", t.Type)
		return &ast.Node{Kind: ast.KindConstant, Tok: token.NUMBER}
	}
}

func (p *Parser) parseVariableRef(t token.Token) *ast.Node {
	v := &ast.Node{Kind: ast.KindVariable, Tok: token.IDENT, Name: t.Lexeme}
	if p.lex.Peek().Type == token.LPAREN {
		p.lex.Next()
		v.Add(p.parseExpr(0))
		if p.lex.Peek().Type == token.COMMA {
			p.lex.Next()
			v.Add(p.parseExpr(0))
		}
		p.expect(token.RPAREN)
	}
	return v
}

func (p *Parser) parseFunctionCall(t token.Token) *ast.Node {
	node := ast.NewNode(ast.KindFunctionCall, t.Type)
	node.Name = t.Lexeme
	p.expect(token.LPAREN)
	if p.lex.Peek().Type != token.RPAREN {
		for {
			node.Add(p.parseExpr(0))
			if p.lex.Peek().Type == token.COMMA {
				p.lex.Next()
				continue
			}
			break
		}
	}
	p.expect(token.RPAREN)
	if ar, ok := grammar.FunctionArities[t.Type]; ok {
		n := len(node.Children)
		if n < ar.Min || n > ar.Max {
			p.errorf(ErrArity, t.Pos, "%s expects %d to %d argument(s), got %d", t.Lexeme, ar.Min, ar.Max, n)
		}
	}
	return node
}

// --- token helpers -------------------------------------------------------

func (p *Parser) expect(tt token.Type) token.Token {
	t := p.lex.Peek()
	if t.Type != tt {
		p.errorf(ErrExpected, t.Pos, "expected %s, got %s", tt, t.Type)
		return token.Token{Type: tt, Pos: t.Pos}
	}
	return p.lex.Next()
}

func (p *Parser) expectIdentTok() token.Token {
	t := p.lex.Peek()
	if t.Type != token.IDENT {
		p.errorf(ErrExpected, t.Pos, "expected identifier, got %s", t.Type)
		return token.Token{Type: token.IDENT, Pos: t.Pos}
	}
	return p.lex.Next()
}

func (p *Parser) skipToStatementEnd() {
	for {
		t := p.lex.Peek().Type
		if t == token.COLON || t == token.EOL || t == token.EOF {
			return
		}
		p.lex.Next()
	}
}

func (p *Parser) skipToEOL() {
	for {
		t := p.lex.Peek().Type
		if t == token.EOL {
			p.lex.Next()
			return
		}
		if t == token.EOF {
			return
		}
		p.lex.Next()
	}
}

// --- cross-reference validation ------------------------------------------

func (p *Parser) validateReferences(prog *ast.Program) {
	for _, stmt := range prog.Statements {
		p.checkTargets(stmt, prog)
	}
}

func (p *Parser) checkTargets(n *ast.Node, prog *ast.Program) {
	if n == nil {
		return
	}
	if n.Kind == ast.KindStatement {
		switch n.Tok {
		case token.GOTO, token.GOSUB:
			if len(n.Children) == 1 && n.Children[0].Kind == ast.KindConstant && n.Children[0].Tok == token.NUMBER {
				p.checkTarget(n, int(n.Children[0].Value), prog)
			}
		case token.ON:
			for i := 1; i < len(n.Children); i++ {
				p.checkTarget(n, int(n.Children[i].Value), prog)
			}
		}
	}
	for _, c := range n.Children {
		p.checkTargets(c, prog)
	}
}

func (p *Parser) checkTarget(n *ast.Node, target int, prog *ast.Program) {
	if prog.Lines[target] {
		return
	}
	p.errors.add(&Error{
		Kind:    ErrUndefinedTarget,
		Line:    n.Line,
		Column:  1,
		Message: fmt.Sprintf("undefined line number %d", target),
		Source:  p.lineTextByBasic[n.Line],
	})
}
