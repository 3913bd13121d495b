// Package vm implements the stack-based virtual machine that executes a
// bytecode.CompiledProgram: fetch-decode-dispatch over fixed-width
// instructions, two operand stacks, variable slots, a 64 KiB PEEK/POKE
// buffer, and channels 1-7 for sequential file I/O.
package vm

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/pdxiv/basset-lang/bytecode"
)

// VM executes a single CompiledProgram to completion or error.
type VM struct {
	prog *bytecode.CompiledProgram
	pc   uint32

	valueStack  []float64
	stringStack []string
	callStack   []uint32
	forStack    []ForFrame

	NumVars []float64
	StrVars []string

	numArrays    map[uint16][]float64
	numArrayDims map[uint16]arrayDims
	strArrays    map[uint16][]string
	strArrayDims map[uint16]arrayDims

	memory *Memory
	files  [8]*fileChannel
	print  printer

	dataPointer int

	trapEnabled bool
	trapLine    int

	degrees bool

	rngSeed uint32
	rngLast float64

	Halted    bool
	LastError error

	Stdout io.Writer
	stdin  *bufio.Reader
}

// NewVM prepares a VM to execute prog, using the default memory size and
// print width. Variable and array storage is sized from prog.VarTable; the
// VM never mutates prog itself.
func NewVM(prog *bytecode.CompiledProgram) *VM {
	return NewVMWithConfig(prog, DefaultMemorySize, DefaultPrintWidth)
}

// NewVMWithConfig prepares a VM the same way NewVM does, but draws the
// PEEK/POKE buffer size and PRINT column width from config.Config's VM and
// Print sections rather than the defaults.
func NewVMWithConfig(prog *bytecode.CompiledProgram, memorySize, printWidth int) *VM {
	vm := &VM{
		prog:         prog,
		NumVars:      make([]float64, len(prog.VarTable)),
		StrVars:      make([]string, len(prog.VarTable)),
		numArrays:    make(map[uint16][]float64),
		numArrayDims: make(map[uint16]arrayDims),
		strArrays:    make(map[uint16][]string),
		strArrayDims: make(map[uint16]arrayDims),
		memory:       NewMemory(memorySize),
		print:        newPrinter(printWidth),
		rngSeed:      1,
		Stdout:       os.Stdout,
		stdin:        bufio.NewReader(os.Stdin),
	}
	return vm
}

// SetInput redirects INPUT statements to read from r instead of os.Stdin.
func (vm *VM) SetInput(r *bufio.Reader) {
	vm.stdin = r
}

// PC returns the program counter of the next instruction to execute, for
// debugger line lookups.
func (vm *VM) PC() uint32 { return vm.pc }

// Program returns the CompiledProgram this VM is executing.
func (vm *VM) Program() *bytecode.CompiledProgram { return vm.prog }

// ForStack returns a copy of the current FOR-loop frames, innermost last.
func (vm *VM) ForStack() []ForFrame {
	out := make([]ForFrame, len(vm.forStack))
	copy(out, vm.forStack)
	return out
}

// CallStack returns a copy of the current GOSUB return addresses,
// innermost last.
func (vm *VM) CallStack() []uint32 {
	out := make([]uint32, len(vm.callStack))
	copy(out, vm.callStack)
	return out
}

// CurrentLine returns the BASIC line number containing PC: LineMap only
// records line-start PCs, so this reports the line with the highest start
// PC <= PC (the later line when several share that PC), or 0 when no line
// starts at or before PC.
func (vm *VM) CurrentLine() int {
	line := 0
	var bestPC uint32
	found := false
	for _, lm := range vm.prog.LineMap {
		if lm.PC <= vm.pc && (!found || lm.PC >= bestPC) {
			line = lm.Line
			bestPC = lm.PC
			found = true
		}
	}
	return line
}

// Run executes until the program halts (END/STOP/fall-through/untrapped
// error) or an internal error makes further execution impossible.
func (vm *VM) Run() error {
	for !vm.Halted {
		if err := vm.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step executes a single instruction, handling any runtime error via the
// TRAP redirect or by halting.
func (vm *VM) Step() error {
	if int(vm.pc) >= len(vm.prog.Code) {
		vm.Halted = true
		return nil
	}
	ins := vm.prog.Code[vm.pc]

	if err := vm.dispatch(ins); err != nil {
		return vm.handleRuntimeError(err)
	}
	return nil
}

func (vm *VM) handleRuntimeError(err error) error {
	if vm.trapEnabled && vm.trapLine > 0 {
		pc, ok := vm.prog.PCForLine(vm.trapLine)
		vm.trapEnabled = false
		if !ok {
			vm.Halted = true
			fmt.Fprintf(os.Stderr, "ERROR - %s\n", err)
			vm.LastError = err
			return nil
		}
		vm.clearStacks()
		vm.pc = pc
		return nil
	}
	vm.Halted = true
	vm.LastError = err
	fmt.Fprintf(os.Stderr, "ERROR - %s\n", err)
	return nil
}
