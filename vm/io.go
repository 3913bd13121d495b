package vm

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pdxiv/basset-lang/bytecode"
)

// DefaultPrintWidth is the PRINT column width used when a VM is built with
// NewVM rather than NewVMWithConfig.
const DefaultPrintWidth = 80

// printer tracks the channel and column/after-tab state PRINT formatting
// needs; the channel goes back to stdout at PRINT_NEWLINE, and when the
// channel it names is closed.
type printer struct {
	channel  int
	column   int
	afterTab bool
	width    int
}

func newPrinter(width int) printer {
	return printer{channel: 0, column: 1, width: width}
}

func (vm *VM) currentOutput() io.Writer {
	if vm.print.channel == 0 {
		return vm.Stdout
	}
	f := vm.files[vm.print.channel]
	if f == nil {
		fmt.Fprintf(os.Stderr, "WARNING: File channel %d not open, using stdout\n", vm.print.channel)
		return vm.Stdout
	}
	return f.handle
}

func (vm *VM) execSetPrintChannel() error {
	v, err := vm.popValue()
	if err != nil {
		return err
	}
	ch := int(v)
	if ch < 0 || ch > 7 {
		fmt.Fprintf(os.Stderr, "WARNING: Invalid print channel %d, using stdout\n", ch)
		ch = 0
	}
	vm.print.channel = ch
	return nil
}

func (vm *VM) execPrintNum() error {
	v, err := vm.popValue()
	if err != nil {
		return err
	}
	out := vm.currentOutput()
	text := strconv.FormatFloat(v, 'g', 12, 64)

	if !vm.print.afterTab {
		fmt.Fprint(out, " ")
		vm.print.column++
	}
	fmt.Fprint(out, text)
	vm.print.column += len(text)

	if int(vm.pc)+1 < len(vm.prog.Code) {
		next := vm.prog.Code[vm.pc+1].Opcode
		if next != bytecode.PrintNewline && next != bytecode.PrintTab && next != bytecode.PrintNosep {
			fmt.Fprint(out, " ")
			vm.print.column++
		}
	}
	vm.print.afterTab = false
	return nil
}

func (vm *VM) execPrintStr() error {
	s, err := vm.popString()
	if err != nil {
		return err
	}
	out := vm.currentOutput()
	fmt.Fprint(out, s)
	vm.print.column += len(s)
	vm.print.afterTab = false
	return nil
}

func (vm *VM) execPrintNewline() {
	fmt.Fprint(vm.currentOutput(), "\n")
	vm.print.afterTab = false
	vm.print.column = 1
	vm.print.channel = 0
}

func (vm *VM) execPrintTab() {
	fmt.Fprint(vm.currentOutput(), " ")
	vm.print.column++
	vm.print.afterTab = true
}

func (vm *VM) execPrintNosep() {
	vm.print.afterTab = true
}

func (vm *VM) execTabFunc() error {
	v, err := vm.popValue()
	if err != nil {
		return err
	}
	target := int(v)
	if target < 1 {
		target = 1
	}
	if target > vm.print.width {
		target = target % vm.print.width
		if target == 0 {
			target = vm.print.width
		}
	}
	out := vm.currentOutput()
	if vm.print.column >= target {
		fmt.Fprint(out, "\n")
		vm.print.column = 1
	}
	for vm.print.column < target {
		fmt.Fprint(out, " ")
		vm.print.column++
	}
	vm.print.afterTab = true
	return nil
}

// ---- file channels --------------------------------------------------

type fileChannel struct {
	handle *os.File
	status int
	mode   int
}

const (
	statusOK        = 0
	statusEOF       = 3
	statusNotFound  = 170
	statusIOError   = 144
	statusInvalid   = 1
	sectorSizeBytes = 125
)

func (vm *VM) checkChannel(ch int) error {
	if ch < 1 || ch > 7 {
		return errInvalidChannel
	}
	return nil
}

func (vm *VM) execOpen() error {
	file, err := vm.popString()
	if err != nil {
		return err
	}
	aux, err := vm.popValue()
	if err != nil {
		return err
	}
	mode, err := vm.popValue()
	if err != nil {
		return err
	}
	chv, err := vm.popValue()
	if err != nil {
		return err
	}
	_ = aux
	ch := int(chv)
	if err := vm.checkChannel(ch); err != nil {
		return err
	}

	var f *os.File
	var ferr error
	switch int(mode) {
	case 4:
		f, ferr = os.Open(file)
	case 8:
		f, ferr = os.Create(file)
	case 12:
		f, ferr = os.OpenFile(file, os.O_RDWR|os.O_CREATE, 0o644)
	default:
		f, ferr = os.OpenFile(file, os.O_RDWR|os.O_CREATE, 0o644)
	}
	if ferr != nil {
		vm.files[ch] = &fileChannel{status: statusNotFound, mode: int(mode)}
		return errCannotOpenFile
	}
	vm.files[ch] = &fileChannel{handle: f, status: statusOK, mode: int(mode)}
	return nil
}

func (vm *VM) execClose() error {
	v, err := vm.popValue()
	if err != nil {
		return err
	}
	ch := int(v)
	if err := vm.checkChannel(ch); err != nil {
		return err
	}
	if fc := vm.files[ch]; fc != nil && fc.handle != nil {
		fc.handle.Close()
	}
	vm.files[ch] = nil
	if vm.print.channel == ch {
		vm.print.channel = 0
	}
	return nil
}

func (vm *VM) execGet() error {
	v, err := vm.popValue()
	if err != nil {
		return err
	}
	ch := int(v)
	if err := vm.checkChannel(ch); err != nil {
		return err
	}
	fc := vm.files[ch]
	if fc == nil || fc.handle == nil {
		return errChannelNotOpen
	}
	var buf [1]byte
	n, rerr := fc.handle.Read(buf[:])
	if n == 0 || rerr != nil {
		fc.status = statusEOF
		vm.pushValue(0)
		return nil
	}
	fc.status = statusOK
	vm.pushValue(float64(buf[0]))
	return nil
}

func (vm *VM) execPut() error {
	val, err := vm.popValue()
	if err != nil {
		return err
	}
	chv, err := vm.popValue()
	if err != nil {
		return err
	}
	ch := int(chv)
	if err := vm.checkChannel(ch); err != nil {
		return err
	}
	fc := vm.files[ch]
	if fc == nil || fc.handle == nil {
		return errChannelNotOpen
	}
	_, werr := fc.handle.Write([]byte{byte(int(val) & 0xFF)})
	if werr != nil {
		fc.status = statusIOError
		return errCannotOpenFile
	}
	fc.status = statusOK
	return nil
}

// execNote pushes offset then sector, so that the two POP_VARs the compiler
// emits afterward (one per NOTE target, in source order) land sector in the
// first target and offset in the second.
func (vm *VM) execNote() error {
	v, err := vm.popValue()
	if err != nil {
		return err
	}
	ch := int(v)
	if err := vm.checkChannel(ch); err != nil {
		return err
	}
	fc := vm.files[ch]
	if fc == nil || fc.handle == nil {
		return errChannelNotOpen
	}
	pos, _ := fc.handle.Seek(0, io.SeekCurrent)
	sector := pos / sectorSizeBytes
	offset := pos % sectorSizeBytes
	vm.pushValue(float64(offset))
	vm.pushValue(float64(sector))
	return nil
}

func (vm *VM) execPoint() error {
	offset, err := vm.popValue()
	if err != nil {
		return err
	}
	sector, err := vm.popValue()
	if err != nil {
		return err
	}
	v, err := vm.popValue()
	if err != nil {
		return err
	}
	ch := int(v)
	if err := vm.checkChannel(ch); err != nil {
		return err
	}
	fc := vm.files[ch]
	if fc == nil || fc.handle == nil {
		return errChannelNotOpen
	}
	pos := int64(sector)*sectorSizeBytes + int64(offset)
	_, serr := fc.handle.Seek(pos, io.SeekStart)
	if serr != nil {
		fc.status = statusIOError
		return errCannotOpenFile
	}
	fc.status = statusOK
	return nil
}

func (vm *VM) execStatus() error {
	v, err := vm.popValue()
	if err != nil {
		return err
	}
	ch := int(v)
	if err := vm.checkChannel(ch); err != nil {
		return err
	}
	fc := vm.files[ch]
	if fc == nil {
		vm.pushValue(statusInvalid)
		return nil
	}
	vm.pushValue(float64(fc.status))
	return nil
}

// execXio dispatches the XIO command byte: 3=open-read, 8=open-write,
// 12=close, 34=delete.
func (vm *VM) execXio() error {
	file, err := vm.popString()
	if err != nil {
		return err
	}
	chv, err := vm.popValue()
	if err != nil {
		return err
	}
	cmdv, err := vm.popValue()
	if err != nil {
		return err
	}
	ch := int(chv)
	cmd := int(cmdv)

	switch cmd {
	case 3, 8:
		if err := vm.checkChannel(ch); err != nil {
			return err
		}
		var f *os.File
		var ferr error
		if cmd == 3 {
			f, ferr = os.Open(file)
		} else {
			f, ferr = os.Create(file)
		}
		if ferr != nil {
			vm.files[ch] = &fileChannel{status: statusNotFound}
			return errCannotOpenFile
		}
		vm.files[ch] = &fileChannel{handle: f, status: statusOK}
	case 12:
		if err := vm.checkChannel(ch); err != nil {
			return err
		}
		if fc := vm.files[ch]; fc != nil && fc.handle != nil {
			fc.handle.Close()
		}
		vm.files[ch] = nil
	case 34:
		if rerr := os.Remove(file); rerr != nil {
			return errCannotOpenFile
		}
	}
	return nil
}
