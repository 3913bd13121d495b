// Package debugger steps a vm.VM one BASIC line at a time, tracking
// breakpoints and exposing variable/loop state the way commands.go and
// tui.go render it.
package debugger

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/pdxiv/basset-lang/bytecode"
	"github.com/pdxiv/basset-lang/vm"
)

// outputRing keeps the last N lines written to it, for the TUI's Output
// panel; it wraps no other writer, so output written to it goes nowhere
// else.
type outputRing struct {
	buf   bytes.Buffer
	lines []string
	max   int
}

func newOutputRing(max int) *outputRing {
	return &outputRing{max: max}
}

func (r *outputRing) Write(p []byte) (int, error) {
	r.buf.Write(p)
	for {
		line, err := r.buf.ReadString('\n')
		if err != nil {
			r.buf.WriteString(line)
			break
		}
		r.appendLine(strings.TrimRight(line, "\n"))
	}
	return len(p), nil
}

func (r *outputRing) appendLine(line string) {
	r.lines = append(r.lines, line)
	if len(r.lines) > r.max {
		r.lines = r.lines[len(r.lines)-r.max:]
	}
}

// Lines returns the retained output lines, oldest first.
func (r *outputRing) Lines() []string { return r.lines }

// Debugger wraps a VM with line-granularity stepping and breakpoints.
type Debugger struct {
	Machine     *vm.VM
	Program     *bytecode.CompiledProgram
	Source      []string // BASIC source, one entry per physical line
	Breakpoints *BreakpointManager
	Output      *outputRing

	lastLine int
	stopped  bool
}

// New builds a Debugger around prog, rendering to an internally tracked
// output ring the TUI and CLI both read from. The VM underneath uses the
// default memory size and print width.
func New(prog *bytecode.CompiledProgram, source []string) *Debugger {
	return newDebugger(vm.NewVM(prog), prog, source)
}

// NewWithConfig builds a Debugger the same way New does, but draws the
// underlying VM's memory size and print width from config.Config.
func NewWithConfig(prog *bytecode.CompiledProgram, source []string, memorySize, printWidth int) *Debugger {
	return newDebugger(vm.NewVMWithConfig(prog, memorySize, printWidth), prog, source)
}

func newDebugger(machine *vm.VM, prog *bytecode.CompiledProgram, source []string) *Debugger {
	ring := newOutputRing(200)
	machine.Stdout = ring
	return &Debugger{
		Machine:     machine,
		Program:     prog,
		Source:      source,
		Breakpoints: NewBreakpointManager(),
		Output:      ring,
	}
}

// SetInput redirects INPUT statements to read from r.
func (d *Debugger) SetInput(r *bufio.Reader) {
	d.Machine.SetInput(r)
}

// StepLine executes instructions until the VM is about to start a new
// BASIC line (or halts), returning the line it stopped at.
func (d *Debugger) StepLine() (int, error) {
	start := d.Machine.CurrentLine()
	for {
		if d.Machine.Halted {
			return d.Machine.CurrentLine(), nil
		}
		if err := d.Machine.Step(); err != nil {
			return 0, err
		}
		if d.Machine.Halted {
			return d.Machine.CurrentLine(), nil
		}
		line := d.Machine.CurrentLine()
		if line != start {
			d.lastLine = line
			return line, nil
		}
	}
}

// Continue runs StepLine in a loop until a breakpoint is hit or the VM
// halts.
func (d *Debugger) Continue() (int, bool, error) {
	for {
		line, err := d.StepLine()
		if err != nil {
			return line, false, err
		}
		if d.Machine.Halted {
			return line, false, nil
		}
		if bp := d.Breakpoints.At(line); bp != nil && bp.Enabled {
			d.Breakpoints.Hit(line)
			return line, true, nil
		}
	}
}

// SourceAt returns the raw source text for a BASIC line, or "" if the line
// isn't present in Source (Source is indexed by physical position, not
// BASIC line number, so this does a linear scan for the "N ..." prefix).
func (d *Debugger) SourceAt(line int) string {
	prefix := fmt.Sprintf("%d ", line)
	for _, s := range d.Source {
		if strings.HasPrefix(strings.TrimSpace(s), prefix) || strings.TrimSpace(s) == fmt.Sprintf("%d", line) {
			return s
		}
	}
	return ""
}

// Variables renders every scalar variable's current value, skipping slots
// only ever used as arrays.
func (d *Debugger) Variables() []string {
	var out []string
	for _, v := range d.Program.VarTable {
		switch v.Type {
		case bytecode.VarString:
			out = append(out, fmt.Sprintf("%s = %q", v.Name, d.Machine.StrVars[v.Slot]))
		case bytecode.VarNumeric:
			out = append(out, fmt.Sprintf("%s = %g", v.Name, d.Machine.NumVars[v.Slot]))
		}
	}
	return out
}

// ForFrames renders the active FOR-loop stack, innermost last.
func (d *Debugger) ForFrames() []string {
	var out []string
	for _, f := range d.Machine.ForStack() {
		out = append(out, fmt.Sprintf("slot %d: limit=%g step=%g", f.Slot, f.Limit, f.Step))
	}
	return out
}
