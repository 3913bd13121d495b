// Package grammar holds the BNF-style tables the parser interprets: the
// expression operator table (precedence + nud/led actions) and the
// function-call arity table. Keeping these as plain data, rather than
// function pointers, means the grammar itself can be inspected and tested
// independently of the recursive-descent engine that drives it.
package grammar

import "github.com/pdxiv/basset-lang/token"

// NudAction is the closed set of "null denotation" actions a token can
// trigger when it starts an expression.
type NudAction int

const (
	NudNone NudAction = iota
	NudNumberLiteral
	NudStringLiteral
	NudVariable
	NudParenthesized
	NudUnaryPlus
	NudUnaryMinus
	NudUnaryNot
	NudFunctionCall
)

// LedAction is the closed set of "left denotation" actions a token can
// trigger when it follows an already-parsed expression.
type LedAction int

const (
	LedNone LedAction = iota
	LedBinaryOp
)

// UnaryBindingPower is the right-binding power used for unary +, -, NOT.
const UnaryBindingPower = 7

// OpInfo is one row of the operator precedence table.
type OpInfo struct {
	Tok token.Type
	LBP int // left-binding power: how strongly this op grabs what's to its left
	RBP int // right-binding power: precedence used recursing into the RHS
	Nud NudAction
	Led LedAction
}

// RightAssociative marks operators (just '^') that recurse with the same
// precedence instead of prec+1, so a^b^c parses as a^(b^c).
var RightAssociative = map[token.Type]bool{token.CARET: true}

// Operators is the precedence-climbing table, keyed by token type. Binary
// operators are listed lowest-precedence first; unary forms share a token
// with a binary one (PLUS, MINUS) and are disambiguated by parser position
// (nud vs led).
var Operators = map[token.Type]OpInfo{
	token.OR:     {Tok: token.OR, LBP: 1, RBP: 2, Led: LedBinaryOp},
	token.AND:    {Tok: token.AND, LBP: 2, RBP: 3, Led: LedBinaryOp},
	token.NOT:    {Tok: token.NOT, RBP: UnaryBindingPower, Nud: NudUnaryNot},
	token.EQ:     {Tok: token.EQ, LBP: 3, RBP: 4, Led: LedBinaryOp},
	token.NE:     {Tok: token.NE, LBP: 3, RBP: 4, Led: LedBinaryOp},
	token.LT:     {Tok: token.LT, LBP: 3, RBP: 4, Led: LedBinaryOp},
	token.LE:     {Tok: token.LE, LBP: 3, RBP: 4, Led: LedBinaryOp},
	token.GT:     {Tok: token.GT, LBP: 3, RBP: 4, Led: LedBinaryOp},
	token.GE:     {Tok: token.GE, LBP: 3, RBP: 4, Led: LedBinaryOp},
	token.PLUS:   {Tok: token.PLUS, LBP: 5, RBP: 6, Nud: NudUnaryPlus, Led: LedBinaryOp},
	token.MINUS:  {Tok: token.MINUS, LBP: 5, RBP: 6, Nud: NudUnaryMinus, Led: LedBinaryOp},
	token.STAR:   {Tok: token.STAR, LBP: 6, RBP: 7, Led: LedBinaryOp},
	token.SLASH:  {Tok: token.SLASH, LBP: 6, RBP: 7, Led: LedBinaryOp},
	token.MOD:    {Tok: token.MOD, LBP: 6, RBP: 7, Led: LedBinaryOp},
	token.CARET:  {Tok: token.CARET, LBP: 8, RBP: 8, Led: LedBinaryOp},
	token.NUMBER: {Tok: token.NUMBER, Nud: NudNumberLiteral},
	token.STRING: {Tok: token.STRING, Nud: NudStringLiteral},
	token.IDENT:  {Tok: token.IDENT, Nud: NudVariable},
	token.LPAREN: {Tok: token.LPAREN, Nud: NudParenthesized},

	// Function keywords: all parsed via the same FunctionCall nud, argument
	// count checked afterward against FunctionArities.
	token.STRFN:   {Tok: token.STRFN, Nud: NudFunctionCall},
	token.CHRFN:   {Tok: token.CHRFN, Nud: NudFunctionCall},
	token.ASC:     {Tok: token.ASC, Nud: NudFunctionCall},
	token.VAL:     {Tok: token.VAL, Nud: NudFunctionCall},
	token.LEN:     {Tok: token.LEN, Nud: NudFunctionCall},
	token.ATN:     {Tok: token.ATN, Nud: NudFunctionCall},
	token.COS:     {Tok: token.COS, Nud: NudFunctionCall},
	token.SIN:     {Tok: token.SIN, Nud: NudFunctionCall},
	token.TAN:     {Tok: token.TAN, Nud: NudFunctionCall},
	token.PEEK:    {Tok: token.PEEK, Nud: NudFunctionCall},
	token.RND:     {Tok: token.RND, Nud: NudFunctionCall},
	token.EXPFN:   {Tok: token.EXPFN, Nud: NudFunctionCall},
	token.LOG:     {Tok: token.LOG, Nud: NudFunctionCall},
	token.CLOG:    {Tok: token.CLOG, Nud: NudFunctionCall},
	token.SQR:     {Tok: token.SQR, Nud: NudFunctionCall},
	token.SGN:     {Tok: token.SGN, Nud: NudFunctionCall},
	token.ABS:     {Tok: token.ABS, Nud: NudFunctionCall},
	token.INT:     {Tok: token.INT, Nud: NudFunctionCall},
	token.LEFTFN:  {Tok: token.LEFTFN, Nud: NudFunctionCall},
	token.RIGHTFN: {Tok: token.RIGHTFN, Nud: NudFunctionCall},
	token.MID:     {Tok: token.MID, Nud: NudFunctionCall},
	token.TAB:     {Tok: token.TAB, Nud: NudFunctionCall},
}

// FunctionArities bounds FunctionCall argument counts, checked when the
// parser closes the argument list. Token types drawn from the token
// package's function keywords (token.STRFN, etc.).
type Arity struct{ Min, Max int }

var FunctionArities = map[token.Type]Arity{
	token.MID:     {2, 3},
	token.LEFTFN:  {2, 2},
	token.RIGHTFN: {2, 2},
	token.STRFN:   {1, 1},
	token.CHRFN:   {1, 1},
	token.ASC:     {1, 1},
	token.VAL:     {1, 1},
	token.LEN:     {1, 1},
	token.ATN:     {1, 1},
	token.COS:     {1, 1},
	token.SIN:     {1, 1},
	token.TAN:     {1, 1},
	token.PEEK:    {1, 1},
	token.RND:     {1, 1},
	token.EXPFN:   {1, 1},
	token.LOG:     {1, 1},
	token.CLOG:    {1, 1},
	token.SQR:     {1, 1},
	token.SGN:     {1, 1},
	token.ABS:     {1, 1},
	token.INT:     {1, 1},
	token.TAB:     {1, 1},
}

// StatementStart is the set of tokens that can begin a statement.
// PRINT/REM/DATA are parsed by dedicated routines (spec.md §4.2 "Statement
// quirks") rather than a generic grammar rule, but they still appear here.
// The parser does not read this table: its statement loop dispatches on the
// leading token with its own switch.
var StatementStart = map[token.Type]bool{
	token.REM: true, token.DATA: true, token.INPUT: true, token.LET: true,
	token.IDENT: true, // bare `V = expr` (implicit LET)
	token.IF: true, token.FOR: true, token.NEXT: true, token.GOTO: true,
	token.GOSUB: true, token.RETURN: true, token.TRAP: true, token.CLOSE: true,
	token.CLR: true, token.DEG: true, token.RAD: true, token.DIM: true,
	token.END: true, token.OPEN: true, token.STATUS: true, token.NOTE: true,
	token.POINT: true, token.XIO: true, token.ON: true, token.POKE: true,
	token.PRINT: true, token.QUESTION: true, token.READ: true,
	token.RESTORE: true, token.STOP: true, token.POP: true, token.GET: true,
	token.PUT: true, token.RANDOMIZE: true,
}
