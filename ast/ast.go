// Package ast defines the parse tree shape produced by the parser and
// consumed by the compiler.
package ast

import "github.com/pdxiv/basset-lang/token"

// Kind tags the variant a Node represents.
type Kind int

const (
	KindStatement Kind = iota
	KindExpression
	KindVariable
	KindConstant
	KindOperator
	KindFunctionCall
	KindAssignment
)

// Node is a tagged variant AST node. Parse trees own their children;
// freeing the root frees the tree (Go's GC does this automatically, but the
// ownership discipline, no external pointers retained past Parse, still
// holds, see compiler.Compile).
type Node struct {
	Kind Kind
	Tok  token.Type // originating token tag; identifies statement/op/function kind

	Name  string  // identifier or function name, when applicable
	Value float64 // numeric literal value, when applicable
	Str   string  // string literal text, when Tok == token.STRING

	Line int // BASIC line number, set on statement roots only

	Children []*Node
}

// NewNode builds a node with the given kind/token and children.
func NewNode(kind Kind, tok token.Type, children ...*Node) *Node {
	return &Node{Kind: kind, Tok: tok, Children: children}
}

// IsStringVar reports whether a Variable node names a string-typed variable.
func (n *Node) IsStringVar() bool {
	return n.Kind == KindVariable && len(n.Name) > 0 && n.Name[len(n.Name)-1] == '$'
}

// Add appends a child and returns the node, for compact tree-building.
func (n *Node) Add(child *Node) *Node {
	if child != nil {
		n.Children = append(n.Children, child)
	}
	return n
}

// Program is the parse result: statements in source order, plus the set of
// line numbers that were actually declared (used for GOTO/GOSUB validation).
type Program struct {
	Statements []*Node
	Lines      map[int]bool
}

// NewProgram creates an empty program.
func NewProgram() *Program {
	return &Program{Lines: make(map[int]bool)}
}

// IsStringExpr applies the shallow structural heuristic used to classify a
// PRINT argument (or any expression) as string- vs numeric-valued: a literal
// string constant, a `$`-suffixed variable/array access, a call to a
// string-returning function, or string concatenation via '+' on two string
// operands. Everything else is treated as numeric.
func IsStringExpr(n *Node) bool {
	if n == nil {
		return false
	}
	switch n.Kind {
	case KindConstant:
		return n.Tok == token.STRING
	case KindVariable:
		return n.IsStringVar()
	case KindFunctionCall:
		switch n.Tok {
		case token.STRFN, token.CHRFN, token.LEFTFN, token.RIGHTFN, token.MID:
			return true
		}
		return false
	case KindOperator:
		// string concatenation via '+' on two string operands
		if n.Tok == token.PLUS && len(n.Children) == 2 {
			return IsStringExpr(n.Children[0]) && IsStringExpr(n.Children[1])
		}
	}
	return false
}
