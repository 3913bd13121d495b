package vm

import (
	"math"
	"strconv"
	"strings"

	"github.com/pdxiv/basset-lang/bytecode"
)

func (vm *VM) execArith(op bytecode.Op) error {
	b, err := vm.popValue()
	if err != nil {
		return err
	}
	a, err := vm.popValue()
	if err != nil {
		return err
	}
	switch op {
	case bytecode.Add:
		vm.pushValue(a + b)
	case bytecode.Sub:
		vm.pushValue(a - b)
	case bytecode.Mul:
		vm.pushValue(a * b)
	case bytecode.Div:
		if b == 0 {
			return errDivisionByZero
		}
		vm.pushValue(a / b)
	case bytecode.Mod:
		vm.pushValue(math.Mod(a, b))
	case bytecode.Pow:
		vm.pushValue(powFloat(a, b))
	}
	return nil
}

func powFloat(a, b float64) float64 {
	if a == 0 && b == 0 {
		return 1
	}
	result := 1.0
	// Integer exponents go through repeated multiplication to match classic
	// BASIC's exactness for small integer powers; everything else uses the
	// general real-exponent case.
	if b == float64(int64(b)) && b >= 0 && b < 64 {
		for i := int64(0); i < int64(b); i++ {
			result *= a
		}
		return result
	}
	return math.Pow(a, b)
}

// execCompare peeks the string stack to decide numeric vs lexicographic
// comparison: string operands take precedence per the VM's shape note.
func (vm *VM) execCompare(op bytecode.Op) error {
	if len(vm.stringStack) >= 2 {
		b, err := vm.popString()
		if err != nil {
			return err
		}
		a, err := vm.popString()
		if err != nil {
			return err
		}
		vm.pushValue(boolToNum(compareStrings(op, a, b)))
		return nil
	}
	b, err := vm.popValue()
	if err != nil {
		return err
	}
	a, err := vm.popValue()
	if err != nil {
		return err
	}
	vm.pushValue(boolToNum(compareNums(op, a, b)))
	return nil
}

func compareNums(op bytecode.Op, a, b float64) bool {
	switch op {
	case bytecode.Eq:
		return a == b
	case bytecode.Ne:
		return a != b
	case bytecode.Lt:
		return a < b
	case bytecode.Le:
		return a <= b
	case bytecode.Gt:
		return a > b
	case bytecode.Ge:
		return a >= b
	}
	return false
}

func compareStrings(op bytecode.Op, a, b string) bool {
	switch op {
	case bytecode.Eq:
		return a == b
	case bytecode.Ne:
		return a != b
	case bytecode.Lt:
		return a < b
	case bytecode.Le:
		return a <= b
	case bytecode.Gt:
		return a > b
	case bytecode.Ge:
		return a >= b
	}
	return false
}

// ---- string builtins --------------------------------------------------

func strLeft(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if n >= len(s) {
		return s
	}
	return s[:n]
}

func strRight(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}

// strMid is 1-based, matching BASIC MID$(s, start, length); out-of-range
// indices clamp to the empty string or the available tail.
func strMid(s string, start, length int) string {
	if start < 1 {
		start = 1
	}
	i := start - 1
	if i >= len(s) || length <= 0 {
		return ""
	}
	end := i + length
	if end > len(s) {
		end = len(s)
	}
	return s[i:end]
}

// ---- arrays -------------------------------------------------------------

func (vm *VM) execArrayGet1D(slot uint16) error {
	idx, err := vm.popValue()
	if err != nil {
		return err
	}
	i, ierr := vm.numArrayIndex1D(slot, int(idx))
	if ierr != nil {
		return ierr
	}
	vm.pushValue(vm.numArrays[slot][i])
	return nil
}

func (vm *VM) execArraySet1D(slot uint16) error {
	val, err := vm.popValue()
	if err != nil {
		return err
	}
	idx, err := vm.popValue()
	if err != nil {
		return err
	}
	i, ierr := vm.numArrayIndex1D(slot, int(idx))
	if ierr != nil {
		return ierr
	}
	vm.numArrays[slot][i] = val
	return nil
}

func (vm *VM) execArrayGet2D(slot uint16) error {
	col, err := vm.popValue()
	if err != nil {
		return err
	}
	row, err := vm.popValue()
	if err != nil {
		return err
	}
	i, ierr := vm.numArrayIndex2D(slot, int(row), int(col))
	if ierr != nil {
		return ierr
	}
	vm.pushValue(vm.numArrays[slot][i])
	return nil
}

func (vm *VM) execArraySet2D(slot uint16) error {
	val, err := vm.popValue()
	if err != nil {
		return err
	}
	col, err := vm.popValue()
	if err != nil {
		return err
	}
	row, err := vm.popValue()
	if err != nil {
		return err
	}
	i, ierr := vm.numArrayIndex2D(slot, int(row), int(col))
	if ierr != nil {
		return ierr
	}
	vm.numArrays[slot][i] = val
	return nil
}

func (vm *VM) execStrArrayGet1D(slot uint16) error {
	idx, err := vm.popValue()
	if err != nil {
		return err
	}
	i, ierr := vm.strArrayIndex1D(slot, int(idx))
	if ierr != nil {
		return ierr
	}
	vm.pushString(vm.strArrays[slot][i])
	return nil
}

func (vm *VM) execStrArraySet1D(slot uint16) error {
	val, err := vm.popString()
	if err != nil {
		return err
	}
	idx, err := vm.popValue()
	if err != nil {
		return err
	}
	i, ierr := vm.strArrayIndex1D(slot, int(idx))
	if ierr != nil {
		return ierr
	}
	vm.strArrays[slot][i] = val
	return nil
}

func (vm *VM) execStrArrayGet2D(slot uint16) error {
	col, err := vm.popValue()
	if err != nil {
		return err
	}
	row, err := vm.popValue()
	if err != nil {
		return err
	}
	i, ierr := vm.strArrayIndex2D(slot, int(row), int(col))
	if ierr != nil {
		return ierr
	}
	vm.pushString(vm.strArrays[slot][i])
	return nil
}

func (vm *VM) execStrArraySet2D(slot uint16) error {
	val, err := vm.popString()
	if err != nil {
		return err
	}
	col, err := vm.popValue()
	if err != nil {
		return err
	}
	row, err := vm.popValue()
	if err != nil {
		return err
	}
	i, ierr := vm.strArrayIndex2D(slot, int(row), int(col))
	if ierr != nil {
		return ierr
	}
	vm.strArrays[slot][i] = val
	return nil
}

// ---- control flow helpers ------------------------------------------------

func (vm *VM) execOn(ins bytecode.Instruction) (uint32, error) {
	idxVal, err := vm.popValue()
	if err != nil {
		return 0, err
	}
	index := int(idxVal)
	count := int(ins.Operand)
	tableStart := vm.pc + 1
	if index >= 1 && index <= count {
		target := vm.prog.Code[tableStart+uint32(index-1)].Operand
		if ins.Opcode == bytecode.OnGosub {
			vm.pushCall(tableStart + uint32(count))
		}
		return uint32(target), nil
	}
	return tableStart + uint32(count), nil
}

func (vm *VM) execForInit(slot uint16) error {
	step, err := vm.popValue()
	if err != nil {
		return err
	}
	limit, err := vm.popValue()
	if err != nil {
		return err
	}
	start, err := vm.popValue()
	if err != nil {
		return err
	}
	vm.NumVars[slot] = start
	vm.pushFor(ForFrame{Slot: slot, Limit: limit, Step: step, LoopStart: vm.pc + 1})
	return nil
}

func (vm *VM) execForNext(slot uint16) (uint32, error) {
	frame, ok := vm.topFor()
	if !ok {
		return 0, errNextWithoutFor
	}
	if slot != bytecode.AnyForFrame && slot != frame.Slot {
		return 0, errNextVariableMismatch
	}

	v := vm.NumVars[frame.Slot] + frame.Step
	vm.NumVars[frame.Slot] = v

	done := (frame.Step > 0 && v > frame.Limit) || (frame.Step < 0 && v < frame.Limit)
	if !done {
		return frame.LoopStart, nil
	}
	vm.popFor()
	return vm.pc + 1, nil
}

// ---- DATA/READ ------------------------------------------------------

func (vm *VM) execDataReadNum(slot uint16) error {
	if vm.dataPointer >= len(vm.prog.DataEntries) {
		return errOutOfData
	}
	entry := vm.prog.DataEntries[vm.dataPointer]
	vm.dataPointer++
	switch entry.Kind {
	case bytecode.DataNumeric:
		vm.NumVars[slot] = vm.prog.DataNumericPool[entry.PoolIndex]
	case bytecode.DataString:
		s := vm.prog.DataStringPool[entry.PoolIndex]
		v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
		vm.NumVars[slot] = v
	case bytecode.DataNull:
		vm.NumVars[slot] = 0
	}
	return nil
}

func (vm *VM) execDataReadStr(slot uint16) error {
	if vm.dataPointer >= len(vm.prog.DataEntries) {
		return errOutOfData
	}
	entry := vm.prog.DataEntries[vm.dataPointer]
	vm.dataPointer++
	switch entry.Kind {
	case bytecode.DataString:
		vm.StrVars[slot] = vm.prog.DataStringPool[entry.PoolIndex]
	case bytecode.DataNumeric:
		vm.StrVars[slot] = strconv.FormatFloat(vm.prog.DataNumericPool[entry.PoolIndex], 'g', 12, 64)
	case bytecode.DataNull:
		vm.StrVars[slot] = ""
	default:
		return errTypeMismatchInData
	}
	return nil
}

// ---- INPUT ------------------------------------------------------------

func (vm *VM) readLine() (string, error) {
	line, err := vm.stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (vm *VM) execInputNum(slot uint16) error {
	line, err := vm.readLine()
	if err != nil {
		return runtimeErrorf("INPUT: %v", err)
	}
	v, _ := strconv.ParseFloat(strings.TrimSpace(line), 64)
	vm.NumVars[slot] = v
	return nil
}

func (vm *VM) execInputStr(slot uint16) error {
	line, err := vm.readLine()
	if err != nil {
		return runtimeErrorf("INPUT: %v", err)
	}
	vm.StrVars[slot] = line
	return nil
}
