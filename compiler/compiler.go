// Package compiler lowers a parsed program into a bytecode.CompiledProgram:
// a variable-discovery pass that assigns stable slots, followed by a
// code-generation pass that walks statements in source order, emitting
// fixed-width instructions and backpatching forward line references.
package compiler

import (
	"fmt"
	"strings"

	"github.com/pdxiv/basset-lang/ast"
	"github.com/pdxiv/basset-lang/bytecode"
	"github.com/pdxiv/basset-lang/token"
)

// Default variable-table limits, used when a Compiler is built with New
// rather than NewWithLimits.
const (
	DefaultMaxNumericVars = 128
	DefaultMaxStringVars  = 128
	DefaultMaxArrayVars   = 64
)

// fixup records a forward GOTO/GOSUB reference to a BASIC line whose PC
// isn't known yet; resolveFixups patches the operand once every line has
// been emitted.
type fixup struct {
	pc   uint32
	line int
}

// Compiler turns an ast.Program into a bytecode.CompiledProgram.
type Compiler struct {
	prog *bytecode.CompiledProgram

	vars       map[string]*bytecode.VariableInfo
	numCount   int
	strCount   int
	arrayCount int

	fixups []fixup
	errs   []*Error

	maxNumericVars int
	maxStringVars  int
	maxArrayVars   int
}

// New returns a Compiler ready to compile a program, using the default
// variable-table limits.
func New() *Compiler {
	return NewWithLimits(DefaultMaxNumericVars, DefaultMaxStringVars, DefaultMaxArrayVars)
}

// NewWithLimits returns a Compiler whose variable-table limits are drawn
// from config.Config's Compiler section rather than the defaults.
func NewWithLimits(maxNumericVars, maxStringVars, maxArrayVars int) *Compiler {
	return &Compiler{
		prog:           bytecode.NewCompiledProgram(),
		vars:           make(map[string]*bytecode.VariableInfo),
		maxNumericVars: maxNumericVars,
		maxStringVars:  maxStringVars,
		maxArrayVars:   maxArrayVars,
	}
}

// Errors returns the diagnostics accumulated during Compile.
func (c *Compiler) Errors() []*Error { return c.errs }

// Compile lowers prog into a CompiledProgram. Diagnostics are non-fatal and
// collected in Errors; the returned program is always usable, though it may
// be nonsensical if errors were recorded.
func (c *Compiler) Compile(prog *ast.Program) *bytecode.CompiledProgram {
	c.discoverProgram(prog)

	lastLine := -1
	for _, stmt := range prog.Statements {
		if stmt.Line != lastLine {
			c.prog.LineMap = append(c.prog.LineMap, bytecode.LineMapping{
				Line: stmt.Line,
				PC:   uint32(len(c.prog.Code)),
			})
			lastLine = stmt.Line
		}
		c.compileStatement(stmt)
	}

	c.resolveFixups()
	return c.prog
}

func (c *Compiler) errorf(line int, format string, args ...interface{}) {
	c.errs = append(c.errs, &Error{Kind: ErrUnresolvedOpcode, Line: line, Message: fmt.Sprintf(format, args...)})
}

// ---- variable discovery -------------------------------------------------

func (c *Compiler) resolveVar(name string, arrayDims int) *bytecode.VariableInfo {
	if v, ok := c.vars[name]; ok {
		return v
	}

	isString := strings.HasSuffix(name, "$")
	var typ bytecode.VarType
	switch {
	case arrayDims == 1:
		typ = bytecode.VarArray1D
	case arrayDims == 2:
		typ = bytecode.VarArray2D
	case isString:
		typ = bytecode.VarString
	default:
		typ = bytecode.VarNumeric
	}

	switch {
	case arrayDims > 0:
		if c.arrayCount >= c.maxArrayVars {
			c.errs = append(c.errs, &Error{Kind: ErrVariableLimit, Message: "too many array variables: " + name})
		}
		c.arrayCount++
	case isString:
		if c.strCount >= c.maxStringVars {
			c.errs = append(c.errs, &Error{Kind: ErrVariableLimit, Message: "too many string variables: " + name})
		}
		c.strCount++
	default:
		if c.numCount >= c.maxNumericVars {
			c.errs = append(c.errs, &Error{Kind: ErrVariableLimit, Message: "too many numeric variables: " + name})
		}
		c.numCount++
	}

	slot := uint16(len(c.prog.VarTable))
	vi := bytecode.VariableInfo{Name: name, Slot: slot, Type: typ}
	c.prog.VarTable = append(c.prog.VarTable, vi)
	ptr := &c.prog.VarTable[len(c.prog.VarTable)-1]
	c.vars[name] = ptr
	return ptr
}

func (c *Compiler) setArrayDims(name string, dims []*ast.Node) {
	vi := c.vars[name]
	if vi == nil {
		return
	}
	if len(dims) >= 1 && dims[0].Kind == ast.KindConstant {
		vi.Dim1 = uint16(dims[0].Value)
	}
	if len(dims) >= 2 && dims[1].Kind == ast.KindConstant {
		vi.Dim2 = uint16(dims[1].Value)
	}
}

func (c *Compiler) discoverProgram(prog *ast.Program) {
	for _, stmt := range prog.Statements {
		c.discoverStatement(stmt)
	}
}

func (c *Compiler) discoverStatement(n *ast.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.KindVariable:
		c.resolveVar(n.Name, len(n.Children))
		for _, ch := range n.Children {
			c.discoverStatement(ch)
		}
		return
	}
	switch n.Tok {
	case token.FOR:
		c.resolveVar(n.Name, 0)
	case token.NEXT:
		for _, v := range n.Children {
			c.resolveVar(v.Name, 0)
		}
		return
	case token.DIM:
		for _, target := range n.Children {
			c.resolveVar(target.Name, len(target.Children))
			c.setArrayDims(target.Name, target.Children)
		}
		return
	}
	for _, ch := range n.Children {
		c.discoverStatement(ch)
	}
}

// ---- statement dispatch -------------------------------------------------

func (c *Compiler) emit(op bytecode.Op, flags uint8, operand uint16) uint32 {
	return c.prog.Emit(op, flags, operand)
}

func (c *Compiler) patchJump(pc uint32, target uint32) {
	c.prog.Code[pc].Operand = uint16(target)
}

func (c *Compiler) compileStatement(n *ast.Node) {
	if n == nil {
		return
	}
	if n.Kind == ast.KindAssignment {
		c.compileAssignment(n)
		return
	}

	switch n.Tok {
	case token.REM:
		// no code

	case token.PRINT, token.QUESTION:
		c.compilePrint(n)

	case token.IF:
		c.compileIf(n)

	case token.FOR:
		c.compileFor(n)

	case token.NEXT:
		c.compileNext(n)

	case token.GOTO:
		c.compileGotoOrGosub(n, bytecode.Jump, bytecode.JumpLine)

	case token.GOSUB:
		c.compileGotoOrGosub(n, bytecode.Gosub, bytecode.GosubLine)

	case token.RETURN:
		c.emit(bytecode.Return, 0, 0)

	case token.TRAP:
		c.compileTrap(n)

	case token.CLOSE:
		c.compileExpr(n.Children[0])
		c.emit(bytecode.CloseFile, 0, 0)

	case token.CLR:
		c.emit(bytecode.Clr, 0, 0)

	case token.DEG:
		c.emit(bytecode.Deg, 0, 0)

	case token.RAD:
		c.emit(bytecode.Rad, 0, 0)

	case token.DIM:
		// sizes already recorded during discovery; DIM still emits the
		// runtime allocation.
		c.compileDim(n)

	case token.END:
		c.emit(bytecode.End, 0, 0)

	case token.OPEN:
		for _, ch := range n.Children {
			c.compileExpr(ch)
		}
		c.emit(bytecode.OpenFile, 0, 0)

	case token.STATUS:
		c.compileExpr(n.Children[0])
		c.emit(bytecode.StatusFile, 0, 0)
		c.compileScalarStore(n.Children[1])

	case token.NOTE:
		c.compileExpr(n.Children[0])
		c.emit(bytecode.NoteFile, 0, 0)
		c.compileScalarStore(n.Children[1])
		c.compileScalarStore(n.Children[2])

	case token.POINT:
		for _, ch := range n.Children {
			c.compileExpr(ch)
		}
		c.emit(bytecode.PointFile, 0, 0)

	case token.XIO:
		for _, ch := range n.Children {
			c.compileExpr(ch)
		}
		c.emit(bytecode.XioFile, 0, 0)

	case token.ON:
		c.compileOn(n)

	case token.POKE:
		c.compileExpr(n.Children[0])
		c.compileExpr(n.Children[1])
		c.emit(bytecode.Poke, 0, 0)

	case token.READ:
		c.compileRead(n)

	case token.RESTORE:
		c.compileRestore(n)

	case token.STOP:
		c.emit(bytecode.Stop, 0, 0)

	case token.POP:
		c.emit(bytecode.PopGosub, 0, 0)

	case token.GET:
		c.compileExpr(n.Children[0])
		c.emit(bytecode.GetFile, 0, 0)
		c.compileScalarStore(n.Children[1])

	case token.PUT:
		c.compileExpr(n.Children[0])
		c.compileExpr(n.Children[1])
		c.emit(bytecode.PutFile, 0, 0)

	case token.RANDOMIZE:
		if len(n.Children) > 0 {
			c.compileExpr(n.Children[0])
		} else {
			c.emit(bytecode.PushConst, 0, c.prog.InternConst(0))
		}
		c.emit(bytecode.Randomize, 0, 0)

	case token.DATA:
		c.compileData(n)

	case token.INPUT:
		c.compileInput(n)

	default:
		c.errorf(n.Line, "cannot compile statement %s", n.Tok)
	}
}

// compileScalarStore pops the top of the matching stack into a simple
// variable. Subscripted targets aren't supported here: NOTE/STATUS/GET feed
// their value from the opcode itself, so subscripts can't be evaluated
// before the value the way ARRAY_SET expects.
func (c *Compiler) compileScalarStore(v *ast.Node) {
	if len(v.Children) != 0 {
		c.errorf(v.Line, "subscripted target not supported in this statement: %s", v.Name)
		return
	}
	vi := c.resolveVar(v.Name, 0)
	if strings.HasSuffix(v.Name, "$") {
		c.emit(bytecode.StrPopVar, 0, vi.Slot)
	} else {
		c.emit(bytecode.PopVar, 0, vi.Slot)
	}
}

func (c *Compiler) compileAssignment(n *ast.Node) {
	target := n.Children[0]
	value := n.Children[1]
	isStr := strings.HasSuffix(target.Name, "$")

	if len(target.Children) == 0 {
		c.compileExpr(value)
		vi := c.resolveVar(target.Name, 0)
		if isStr {
			c.emit(bytecode.StrPopVar, 0, vi.Slot)
		} else {
			c.emit(bytecode.PopVar, 0, vi.Slot)
		}
		return
	}

	for _, sub := range target.Children {
		c.compileExpr(sub)
	}
	c.compileExpr(value)
	vi := c.resolveVar(target.Name, len(target.Children))
	switch {
	case len(target.Children) == 1 && isStr:
		c.emit(bytecode.StrArraySet1D, 0, vi.Slot)
	case len(target.Children) == 1:
		c.emit(bytecode.ArraySet1D, 0, vi.Slot)
	case isStr:
		c.emit(bytecode.StrArraySet2D, 0, vi.Slot)
	default:
		c.emit(bytecode.ArraySet2D, 0, vi.Slot)
	}
}

func (c *Compiler) compileIf(n *ast.Node) {
	cond := n.Children[0]
	thenBlock := n.Children[1]
	var elseBlock *ast.Node
	if len(n.Children) > 2 {
		elseBlock = n.Children[2]
	}

	c.compileExpr(cond)
	jf := c.emit(bytecode.JumpIfFalse, 0, bytecode.PendingFixup)
	for _, s := range thenBlock.Children {
		c.compileStatement(s)
	}
	if elseBlock != nil {
		j := c.emit(bytecode.Jump, 0, bytecode.PendingFixup)
		c.patchJump(jf, uint32(len(c.prog.Code)))
		for _, s := range elseBlock.Children {
			c.compileStatement(s)
		}
		c.patchJump(j, uint32(len(c.prog.Code)))
	} else {
		c.patchJump(jf, uint32(len(c.prog.Code)))
	}
}

func (c *Compiler) compileFor(n *ast.Node) {
	c.compileExpr(n.Children[0])
	c.compileExpr(n.Children[1])
	c.compileExpr(n.Children[2])
	vi := c.resolveVar(n.Name, 0)
	c.emit(bytecode.ForInit, 0, vi.Slot)
}

func (c *Compiler) compileNext(n *ast.Node) {
	if len(n.Children) == 0 {
		c.emit(bytecode.ForNext, 0, bytecode.AnyForFrame)
		return
	}
	for _, v := range n.Children {
		vi := c.resolveVar(v.Name, 0)
		c.emit(bytecode.ForNext, 0, vi.Slot)
	}
}

func (c *Compiler) compileGotoOrGosub(n *ast.Node, constOp, exprOp bytecode.Op) {
	target := n.Children[0]
	if target.Kind == ast.KindConstant && target.Tok == token.NUMBER {
		pc := c.emit(constOp, 0, bytecode.PendingFixup)
		c.fixups = append(c.fixups, fixup{pc: pc, line: int(target.Value)})
		return
	}
	c.compileExpr(target)
	c.emit(exprOp, 0, 0)
}

// compileTrap mirrors the reference VM: the operand is the raw target line,
// resolved to a PC at error time rather than at compile time, and TRAP 0
// behaves as TRAP_DISABLE because trap_line>0 gates the redirect.
func (c *Compiler) compileTrap(n *ast.Node) {
	line := int(n.Children[0].Value)
	if line == 0 {
		c.emit(bytecode.TrapDisable, 0, 0)
		return
	}
	c.emit(bytecode.Trap, 0, uint16(line))
}

// compileRestore matches the reference implementation's RESTORE_LINE, which
// resets the data cursor to zero regardless of the line argument; per-line
// DATA positioning was never finished upstream.
func (c *Compiler) compileRestore(n *ast.Node) {
	if len(n.Children) == 0 {
		c.emit(bytecode.Restore, 0, 0)
		return
	}
	c.emit(bytecode.RestoreLine, 0, uint16(n.Children[0].Value))
}

func (c *Compiler) compileDim(n *ast.Node) {
	for _, target := range n.Children {
		vi := c.resolveVar(target.Name, len(target.Children))
		for _, sub := range target.Children {
			c.compileExpr(sub)
		}
		if len(target.Children) == 1 {
			c.emit(bytecode.Dim1D, 0, vi.Slot)
		} else {
			c.emit(bytecode.Dim2D, 0, vi.Slot)
		}
	}
}

func (c *Compiler) compileOn(n *ast.Node) {
	selector := n.Children[0]
	targets := n.Children[1:]
	c.compileExpr(selector)

	var op bytecode.Op
	if n.Name == token.GOSUB.String() {
		op = bytecode.OnGosub
	} else {
		op = bytecode.OnGoto
	}
	c.emit(op, 0, uint16(len(targets)))
	for _, t := range targets {
		tpc := c.emit(bytecode.Nop, 0, bytecode.PendingFixup)
		c.fixups = append(c.fixups, fixup{pc: tpc, line: int(t.Value)})
	}
}

func (c *Compiler) compileData(n *ast.Node) {
	for _, item := range n.Children {
		switch {
		case item.Tok == token.ILLEGAL:
			c.prog.DataEntries = append(c.prog.DataEntries, bytecode.DataEntry{Kind: bytecode.DataNull})
		case item.Tok == token.STRING:
			idx := uint32(len(c.prog.DataStringPool))
			c.prog.DataStringPool = append(c.prog.DataStringPool, item.Str)
			c.prog.DataEntries = append(c.prog.DataEntries, bytecode.DataEntry{Kind: bytecode.DataString, PoolIndex: idx})
		default:
			idx := uint32(len(c.prog.DataNumericPool))
			c.prog.DataNumericPool = append(c.prog.DataNumericPool, item.Value)
			c.prog.DataEntries = append(c.prog.DataEntries, bytecode.DataEntry{Kind: bytecode.DataNumeric, PoolIndex: idx})
		}
	}
}

func (c *Compiler) compileRead(n *ast.Node) {
	for _, target := range n.Children {
		for _, sub := range target.Children {
			c.compileExpr(sub)
		}
		vi := c.resolveVar(target.Name, len(target.Children))
		isStr := strings.HasSuffix(target.Name, "$")
		if isStr {
			c.emit(bytecode.DataReadStr, 0, vi.Slot)
		} else {
			c.emit(bytecode.DataReadNum, 0, vi.Slot)
		}
	}
}

func (c *Compiler) compilePrint(n *ast.Node) {
	children := n.Children
	if len(children) > 0 && children[0].Kind == ast.KindExpression && children[0].Tok == token.HASH {
		c.compileExpr(children[0].Children[0])
		c.emit(bytecode.SetPrintChannel, 0, 0)
		children = children[1:]
	}

	trailingSep := false
	for _, item := range children {
		switch {
		case item.Kind == ast.KindOperator && item.Tok == token.COMMA:
			c.emit(bytecode.PrintTab, 0, 0)
			trailingSep = true
		case item.Kind == ast.KindOperator && item.Tok == token.SEMI:
			c.emit(bytecode.PrintNosep, 0, 0)
			trailingSep = true
		case item.Tok == token.TAB:
			c.compileFunctionCall(item)
			trailingSep = false
		default:
			c.compileExpr(item)
			if ast.IsStringExpr(item) {
				c.emit(bytecode.PrintStr, 0, 0)
			} else {
				c.emit(bytecode.PrintNum, 0, 0)
			}
			trailingSep = false
		}
	}
	if !trailingSep {
		c.emit(bytecode.PrintNewline, 0, 0)
	}
}

func (c *Compiler) compileInput(n *ast.Node) {
	children := n.Children
	if len(children) > 0 && children[0].Kind == ast.KindConstant && children[0].Tok == token.STRING {
		c.emit(bytecode.StrPush, 0, c.prog.InternString(children[0].Str))
		c.emit(bytecode.InputPrompt, 0, 0)
		children = children[1:]
	}
	for _, target := range children {
		for _, sub := range target.Children {
			c.compileExpr(sub)
		}
		vi := c.resolveVar(target.Name, len(target.Children))
		if strings.HasSuffix(target.Name, "$") {
			c.emit(bytecode.InputStr, 0, vi.Slot)
		} else {
			c.emit(bytecode.InputNum, 0, vi.Slot)
		}
	}
}

// ---- expressions ----------------------------------------------------

func (c *Compiler) compileExpr(n *ast.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.KindConstant:
		if n.Tok == token.STRING {
			c.emit(bytecode.StrPush, 0, c.prog.InternString(n.Str))
		} else {
			c.emit(bytecode.PushConst, 0, c.prog.InternConst(n.Value))
		}

	case ast.KindVariable:
		c.compileVarRef(n)

	case ast.KindOperator:
		c.compileOperator(n)

	case ast.KindFunctionCall:
		c.compileFunctionCall(n)

	default:
		c.errorf(n.Line, "cannot compile expression node %v", n.Kind)
	}
}

func (c *Compiler) compileVarRef(n *ast.Node) {
	isStr := strings.HasSuffix(n.Name, "$")
	vi := c.resolveVar(n.Name, len(n.Children))

	if len(n.Children) == 0 {
		if isStr {
			c.emit(bytecode.StrPushVar, 0, vi.Slot)
		} else {
			c.emit(bytecode.PushVar, 0, vi.Slot)
		}
		return
	}

	for _, sub := range n.Children {
		c.compileExpr(sub)
	}
	switch {
	case len(n.Children) == 1 && isStr:
		c.emit(bytecode.StrArrayGet1D, 0, vi.Slot)
	case len(n.Children) == 1:
		c.emit(bytecode.ArrayGet1D, 0, vi.Slot)
	case isStr:
		c.emit(bytecode.StrArrayGet2D, 0, vi.Slot)
	default:
		c.emit(bytecode.ArrayGet2D, 0, vi.Slot)
	}
}

var binaryOps = map[token.Type]bytecode.Op{
	token.PLUS:     bytecode.Add,
	token.MINUS:    bytecode.Sub,
	token.STAR:     bytecode.Mul,
	token.SLASH:    bytecode.Div,
	token.MOD:      bytecode.Mod,
	token.CARET:    bytecode.Pow,
	token.EQ:       bytecode.Eq,
	token.NE:       bytecode.Ne,
	token.LT:       bytecode.Lt,
	token.LE:       bytecode.Le,
	token.GT:       bytecode.Gt,
	token.GE:       bytecode.Ge,
	token.AND:      bytecode.And,
	token.OR:       bytecode.Or,
}

func (c *Compiler) compileOperator(n *ast.Node) {
	if len(n.Children) == 1 {
		c.compileExpr(n.Children[0])
		switch n.Tok {
		case token.MINUS:
			c.emit(bytecode.Neg, 0, 0)
		case token.NOT:
			c.emit(bytecode.Not, 0, 0)
		default:
			c.errorf(n.Line, "cannot compile unary operator %s", n.Tok)
		}
		return
	}

	left, right := n.Children[0], n.Children[1]
	c.compileExpr(left)
	c.compileExpr(right)

	if n.Tok == token.PLUS && ast.IsStringExpr(left) && ast.IsStringExpr(right) {
		c.emit(bytecode.StrConcat, 0, 0)
		return
	}

	op, ok := binaryOps[n.Tok]
	if !ok {
		c.errorf(n.Line, "cannot compile binary operator %s", n.Tok)
		return
	}
	c.emit(op, 0, 0)
}

var funcOps = map[token.Type]bytecode.Op{
	token.SIN:   bytecode.FuncSin,
	token.COS:   bytecode.FuncCos,
	token.TAN:   bytecode.FuncTan,
	token.ATN:   bytecode.FuncAtn,
	token.EXPFN: bytecode.FuncExp,
	token.LOG:   bytecode.FuncLog,
	token.CLOG:  bytecode.FuncClog,
	token.SQR:   bytecode.FuncSqr,
	token.ABS:   bytecode.FuncAbs,
	token.INT:   bytecode.FuncInt,
	token.RND:   bytecode.FuncRnd,
	token.SGN:   bytecode.FuncSgn,
	token.PEEK:  bytecode.FuncPeek,
	token.ASC:   bytecode.StrAsc,
	token.VAL:   bytecode.StrVal,
	token.LEN:   bytecode.StrLen,
	token.CHRFN: bytecode.StrChr,
	token.STRFN: bytecode.StrStr,
}

func (c *Compiler) compileFunctionCall(n *ast.Node) {
	for _, arg := range n.Children {
		c.compileExpr(arg)
	}

	switch n.Tok {
	case token.LEFTFN:
		c.emit(bytecode.StrLeft, 0, 0)
		return
	case token.RIGHTFN:
		c.emit(bytecode.StrRight, 0, 0)
		return
	case token.MID:
		if len(n.Children) == 3 {
			c.emit(bytecode.StrMid, 0, 0)
		} else {
			c.emit(bytecode.StrMid2, 0, 0)
		}
		return
	case token.TAB:
		c.emit(bytecode.TabFunc, 0, 0)
		return
	}

	op, ok := funcOps[n.Tok]
	if !ok {
		c.errorf(n.Line, "cannot compile function call %s", n.Tok)
		return
	}
	c.emit(op, 0, 0)
}

// ---- fixups --------------------------------------------------------

func (c *Compiler) resolveFixups() {
	for _, fx := range c.fixups {
		pc, ok := c.prog.PCForLine(fx.line)
		if !ok {
			c.errs = append(c.errs, &Error{Kind: ErrUndefinedForward, Line: fx.line, Message: fmt.Sprintf("undefined line %d", fx.line)})
			continue
		}
		c.prog.Code[fx.pc].Operand = uint16(pc)
	}
}
