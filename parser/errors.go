package parser

import (
	"fmt"
	"strings"

	"github.com/pdxiv/basset-lang/token"
)

// Kind categorizes a compile-time diagnostic (spec.md §7).
type Kind int

const (
	ErrLineOutOfRange Kind = iota
	ErrLineOutOfOrder
	ErrUnknownStatement
	ErrSyntax
	ErrUnexpectedToken
	ErrExpected
	ErrArity
	ErrUndefinedTarget
)

// Error is a single parser diagnostic: BASIC line, source text, and a caret
// column, matching the format spec.md §7 pins down.
type Error struct {
	Kind    Kind
	Line    int
	Column  int
	Message string
	Source  string
}

func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ERROR at line %d: %s\n", e.Line, e.Message)
	fmt.Fprintf(&sb, "  %s\n", e.Source)
	col := e.Column
	if col < 1 {
		col = 1
	}
	fmt.Fprintf(&sb, "  %s^\n", strings.Repeat(" ", col-1))
	return sb.String()
}

// ErrorList accumulates parser diagnostics without aborting the parse.
type ErrorList struct {
	errs []*Error
}

func (l *ErrorList) add(e *Error) { l.errs = append(l.errs, e) }

// Errors returns every accumulated diagnostic, in source order.
func (l *ErrorList) Errors() []*Error { return l.errs }

// Len reports the number of diagnostics recorded.
func (l *ErrorList) Len() int { return len(l.errs) }

func (p *Parser) errorf(kind Kind, pos token.Position, format string, args ...interface{}) {
	p.errors.add(&Error{
		Kind:    kind,
		Line:    p.currentBasicLine,
		Column:  pos.Column,
		Message: fmt.Sprintf(format, args...),
		Source:  p.currentSourceText,
	})
}
