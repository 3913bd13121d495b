package vm

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pdxiv/basset-lang/bytecode"
)

// dispatch executes one instruction. Opcodes that change control flow set
// vm.pc themselves and return before the trailing increment; everything
// else falls through to it.
func (vm *VM) dispatch(ins bytecode.Instruction) error {
	switch ins.Opcode {

	case bytecode.PushConst:
		vm.pushValue(vm.prog.ConstPool[ins.Operand])
	case bytecode.PushVar:
		vm.pushValue(vm.NumVars[ins.Operand])
	case bytecode.PopVar:
		v, err := vm.popValue()
		if err != nil {
			return err
		}
		vm.NumVars[ins.Operand] = v
	case bytecode.StrPushVar:
		vm.pushString(vm.StrVars[ins.Operand])
	case bytecode.StrPopVar:
		s, err := vm.popString()
		if err != nil {
			return err
		}
		vm.StrVars[ins.Operand] = s
	case bytecode.Dup:
		v, ok := vm.peekValue()
		if !ok {
			return errStackUnderflow
		}
		vm.pushValue(v)
	case bytecode.Pop:
		if _, err := vm.popValue(); err != nil {
			return err
		}

	case bytecode.Add, bytecode.Sub, bytecode.Mul, bytecode.Div, bytecode.Mod, bytecode.Pow:
		if err := vm.execArith(ins.Opcode); err != nil {
			return err
		}
	case bytecode.Neg:
		v, err := vm.popValue()
		if err != nil {
			return err
		}
		vm.pushValue(-v)

	case bytecode.Eq, bytecode.Ne, bytecode.Lt, bytecode.Le, bytecode.Gt, bytecode.Ge:
		if err := vm.execCompare(ins.Opcode); err != nil {
			return err
		}
	case bytecode.And:
		b, err := vm.popValue()
		if err != nil {
			return err
		}
		a, err := vm.popValue()
		if err != nil {
			return err
		}
		vm.pushValue(boolToNum(a != 0 && b != 0))
	case bytecode.Or:
		b, err := vm.popValue()
		if err != nil {
			return err
		}
		a, err := vm.popValue()
		if err != nil {
			return err
		}
		vm.pushValue(boolToNum(a != 0 || b != 0))
	case bytecode.Not:
		a, err := vm.popValue()
		if err != nil {
			return err
		}
		vm.pushValue(boolToNum(a == 0))

	case bytecode.StrPush:
		vm.pushString(vm.prog.StringPool[ins.Operand])
	case bytecode.StrConcat:
		b, err := vm.popString()
		if err != nil {
			return err
		}
		a, err := vm.popString()
		if err != nil {
			return err
		}
		vm.pushString(a + b)
	case bytecode.StrLen:
		s, err := vm.popString()
		if err != nil {
			return err
		}
		vm.pushValue(float64(len(s)))
	case bytecode.StrVal:
		s, err := vm.popString()
		if err != nil {
			return err
		}
		v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
		vm.pushValue(v)
	case bytecode.StrChr:
		v, err := vm.popValue()
		if err != nil {
			return err
		}
		vm.pushString(string(rune(int(v) & 0xFF)))
	case bytecode.StrStr:
		v, err := vm.popValue()
		if err != nil {
			return err
		}
		vm.pushString(strconv.FormatFloat(v, 'g', 12, 64))
	case bytecode.StrAsc:
		s, err := vm.popString()
		if err != nil {
			return err
		}
		if len(s) == 0 {
			vm.pushValue(0)
		} else {
			vm.pushValue(float64(s[0]))
		}
	case bytecode.StrLeft:
		n, err := vm.popValue()
		if err != nil {
			return err
		}
		s, err := vm.popString()
		if err != nil {
			return err
		}
		vm.pushString(strLeft(s, int(n)))
	case bytecode.StrRight:
		n, err := vm.popValue()
		if err != nil {
			return err
		}
		s, err := vm.popString()
		if err != nil {
			return err
		}
		vm.pushString(strRight(s, int(n)))
	case bytecode.StrMid:
		length, err := vm.popValue()
		if err != nil {
			return err
		}
		start, err := vm.popValue()
		if err != nil {
			return err
		}
		s, err := vm.popString()
		if err != nil {
			return err
		}
		vm.pushString(strMid(s, int(start), int(length)))
	case bytecode.StrMid2:
		start, err := vm.popValue()
		if err != nil {
			return err
		}
		s, err := vm.popString()
		if err != nil {
			return err
		}
		vm.pushString(strMid(s, int(start), len(s)))

	case bytecode.ArrayGet1D:
		if err := vm.execArrayGet1D(ins.Operand); err != nil {
			return err
		}
	case bytecode.ArraySet1D:
		if err := vm.execArraySet1D(ins.Operand); err != nil {
			return err
		}
	case bytecode.ArrayGet2D:
		if err := vm.execArrayGet2D(ins.Operand); err != nil {
			return err
		}
	case bytecode.ArraySet2D:
		if err := vm.execArraySet2D(ins.Operand); err != nil {
			return err
		}
	case bytecode.StrArrayGet1D:
		if err := vm.execStrArrayGet1D(ins.Operand); err != nil {
			return err
		}
	case bytecode.StrArraySet1D:
		if err := vm.execStrArraySet1D(ins.Operand); err != nil {
			return err
		}
	case bytecode.StrArrayGet2D:
		if err := vm.execStrArrayGet2D(ins.Operand); err != nil {
			return err
		}
	case bytecode.StrArraySet2D:
		if err := vm.execStrArraySet2D(ins.Operand); err != nil {
			return err
		}
	case bytecode.Dim1D:
		b1, err := vm.popValue()
		if err != nil {
			return err
		}
		vm.dimSlot(ins.Operand, int(b1), -1)
	case bytecode.Dim2D:
		b2, err := vm.popValue()
		if err != nil {
			return err
		}
		b1, err := vm.popValue()
		if err != nil {
			return err
		}
		vm.dimSlot(ins.Operand, int(b1), int(b2))

	case bytecode.Jump:
		vm.pc = uint32(ins.Operand)
		return nil
	case bytecode.JumpIfFalse:
		v, err := vm.popValue()
		if err != nil {
			return err
		}
		if v == 0 {
			vm.pc = uint32(ins.Operand)
			return nil
		}
	case bytecode.JumpIfTrue:
		v, err := vm.popValue()
		if err != nil {
			return err
		}
		if v != 0 {
			vm.pc = uint32(ins.Operand)
			return nil
		}
	case bytecode.JumpLine:
		line, err := vm.popValue()
		if err != nil {
			return err
		}
		pc, ok := vm.prog.PCForLine(int(line))
		if !ok {
			return errUndefStatement
		}
		vm.pc = pc
		return nil
	case bytecode.Gosub:
		vm.pushCall(vm.pc + 1)
		vm.pc = uint32(ins.Operand)
		return nil
	case bytecode.GosubLine:
		line, err := vm.popValue()
		if err != nil {
			return err
		}
		pc, ok := vm.prog.PCForLine(int(line))
		if !ok {
			return errUndefStatement
		}
		vm.pushCall(vm.pc + 1)
		vm.pc = pc
		return nil
	case bytecode.Return:
		pc, err := vm.popCall()
		if err != nil {
			return err
		}
		vm.pc = pc
		return nil
	case bytecode.OnGoto, bytecode.OnGosub:
		next, err := vm.execOn(ins)
		if err != nil {
			return err
		}
		vm.pc = next
		return nil
	case bytecode.ForInit:
		if err := vm.execForInit(ins.Operand); err != nil {
			return err
		}
	case bytecode.ForNext:
		next, err := vm.execForNext(ins.Operand)
		if err != nil {
			return err
		}
		vm.pc = next
		return nil

	case bytecode.PrintNum:
		if err := vm.execPrintNum(); err != nil {
			return err
		}
	case bytecode.PrintStr:
		if err := vm.execPrintStr(); err != nil {
			return err
		}
	case bytecode.PrintNewline:
		vm.execPrintNewline()
	case bytecode.PrintTab:
		vm.execPrintTab()
	case bytecode.TabFunc:
		if err := vm.execTabFunc(); err != nil {
			return err
		}
	case bytecode.PrintNosep:
		vm.execPrintNosep()
	case bytecode.SetPrintChannel:
		if err := vm.execSetPrintChannel(); err != nil {
			return err
		}
	case bytecode.InputPrompt:
		s, err := vm.popString()
		if err != nil {
			return err
		}
		fmt.Fprint(vm.Stdout, s)
	case bytecode.InputNum:
		if err := vm.execInputNum(ins.Operand); err != nil {
			return err
		}
	case bytecode.InputStr:
		if err := vm.execInputStr(ins.Operand); err != nil {
			return err
		}

	case bytecode.OpenFile:
		if err := vm.execOpen(); err != nil {
			return err
		}
	case bytecode.CloseFile:
		if err := vm.execClose(); err != nil {
			return err
		}
	case bytecode.GetFile:
		if err := vm.execGet(); err != nil {
			return err
		}
	case bytecode.PutFile:
		if err := vm.execPut(); err != nil {
			return err
		}
	case bytecode.NoteFile:
		if err := vm.execNote(); err != nil {
			return err
		}
	case bytecode.PointFile:
		if err := vm.execPoint(); err != nil {
			return err
		}
	case bytecode.StatusFile:
		if err := vm.execStatus(); err != nil {
			return err
		}
	case bytecode.XioFile:
		if err := vm.execXio(); err != nil {
			return err
		}

	case bytecode.DataReadNum:
		if err := vm.execDataReadNum(ins.Operand); err != nil {
			return err
		}
	case bytecode.DataReadStr:
		if err := vm.execDataReadStr(ins.Operand); err != nil {
			return err
		}
	case bytecode.Restore:
		vm.dataPointer = 0
	case bytecode.RestoreLine:
		// Matches the reference VM: per-line DATA positioning was never
		// finished upstream, so this resets to the beginning like RESTORE.
		vm.dataPointer = 0

	case bytecode.FuncSin:
		vm.unaryMathOp(func(v float64) float64 { return math.Sin(vm.toRadians(v)) })
	case bytecode.FuncCos:
		vm.unaryMathOp(func(v float64) float64 { return math.Cos(vm.toRadians(v)) })
	case bytecode.FuncTan:
		vm.unaryMathOp(func(v float64) float64 { return math.Tan(vm.toRadians(v)) })
	case bytecode.FuncAtn:
		vm.unaryMathOp(func(v float64) float64 { return vm.fromRadians(math.Atan(v)) })
	case bytecode.FuncExp:
		vm.unaryMathOp(math.Exp)
	case bytecode.FuncLog:
		v, err := vm.popValue()
		if err != nil {
			return err
		}
		if v <= 0 {
			return errLogOfNegative
		}
		vm.pushValue(math.Log(v))
	case bytecode.FuncClog:
		v, err := vm.popValue()
		if err != nil {
			return err
		}
		if v <= 0 {
			return errLogOfNegative
		}
		vm.pushValue(math.Log10(v))
	case bytecode.FuncSqr:
		v, err := vm.popValue()
		if err != nil {
			return err
		}
		if v < 0 {
			return errSqrtOfNegative
		}
		vm.pushValue(math.Sqrt(v))
	case bytecode.FuncAbs:
		vm.unaryMathOp(math.Abs)
	case bytecode.FuncInt:
		vm.unaryMathOp(math.Floor)
	case bytecode.FuncRnd:
		v, err := vm.popValue()
		if err != nil {
			return err
		}
		vm.pushValue(vm.rnd(v))
	case bytecode.FuncSgn:
		v, err := vm.popValue()
		if err != nil {
			return err
		}
		switch {
		case v > 0:
			vm.pushValue(1)
		case v < 0:
			vm.pushValue(-1)
		default:
			vm.pushValue(0)
		}
	case bytecode.FuncPeek:
		v, err := vm.popValue()
		if err != nil {
			return err
		}
		b, perr := vm.memory.Peek(int(v))
		if perr != nil {
			return perr
		}
		vm.pushValue(float64(b))

	case bytecode.Trap:
		vm.trapLine = int(ins.Operand)
		vm.trapEnabled = true
	case bytecode.TrapDisable:
		vm.trapEnabled = false
	case bytecode.End, bytecode.Stop, bytecode.Halt:
		vm.Halted = true
		return nil
	case bytecode.Deg:
		vm.degrees = true
	case bytecode.Rad:
		vm.degrees = false
	case bytecode.Randomize:
		v, err := vm.popValue()
		if err != nil {
			return err
		}
		vm.randomize(v)
	case bytecode.Clr:
		for i := range vm.NumVars {
			vm.NumVars[i] = 0
		}
		for i := range vm.StrVars {
			vm.StrVars[i] = ""
		}
		vm.numArrays = make(map[uint16][]float64)
		vm.numArrayDims = make(map[uint16]arrayDims)
		vm.strArrays = make(map[uint16][]string)
		vm.strArrayDims = make(map[uint16]arrayDims)
	case bytecode.PopGosub:
		if _, err := vm.popCall(); err != nil {
			return err
		}
	case bytecode.Poke:
		val, err := vm.popValue()
		if err != nil {
			return err
		}
		addr, err := vm.popValue()
		if err != nil {
			return err
		}
		if perr := vm.memory.Poke(int(addr), int(val)); perr != nil {
			return perr
		}
	case bytecode.Nop:
		// jump-table slot consumed directly by ON_GOTO/ON_GOSUB

	default:
		return runtimeErrorf("unimplemented opcode %s", ins.Opcode)
	}

	vm.pc++
	return nil
}

func boolToNum(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// toRadians/fromRadians convert a trig argument/result according to the
// DEG/RAD mode set by the last DEG or RAD statement (RAD by default).
func (vm *VM) toRadians(v float64) float64 {
	if vm.degrees {
		return v * math.Pi / 180
	}
	return v
}

func (vm *VM) fromRadians(v float64) float64 {
	if vm.degrees {
		return v * 180 / math.Pi
	}
	return v
}

func (vm *VM) unaryMathOp(f func(float64) float64) {
	v, err := vm.popValue()
	if err != nil {
		return
	}
	vm.pushValue(f(v))
}

func (vm *VM) dimSlot(slot uint16, b1, b2 int) {
	// DIM_1D/2D is shared between numeric and string arrays and carries no
	// type, so the VM dimensions both maps for the slot and lets whichever
	// access opcodes (ARRAY_* vs STR_ARRAY_*) the program uses decide which
	// one is live.
	vm.dimNumArray(slot, b1, b2)
	vm.dimStrArray(slot, b1, b2)
}
