package debugger

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// RunCLI drives an interactive line-mode debugger session over in/out,
// dispatching the small command set a BASIC line debugger needs.
func RunCLI(d *Debugger, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(out, "BASSET debugger. Type 'help' for commands.")
	for {
		fmt.Fprint(out, "(basset) ")
		if !scanner.Scan() {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		switch strings.ToLower(cmd) {
		case "help", "h", "?":
			printHelp(out)
		case "quit", "q", "exit":
			return nil
		case "step", "s":
			cmdStep(d, out)
		case "continue", "c":
			cmdContinue(d, out)
		case "break", "b":
			cmdBreak(d, out, args)
		case "delete", "d":
			cmdDelete(d, out, args)
		case "breakpoints", "bl":
			cmdListBreakpoints(d, out)
		case "vars", "v":
			cmdVars(d, out)
		case "for":
			cmdFor(d, out)
		case "list", "l":
			cmdList(d, out)
		case "print", "p":
			cmdPrintOutput(d, out)
		default:
			fmt.Fprintf(out, "unknown command %q (try 'help')\n", cmd)
		}

		if d.Machine.Halted {
			fmt.Fprintln(out, "program halted.")
			if d.Machine.LastError != nil {
				fmt.Fprintf(out, "last error: %v\n", d.Machine.LastError)
			}
		}
	}
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, `commands:
  step, s              execute to the start of the next BASIC line
  continue, c          run until a breakpoint fires or the program halts
  break N, b N         set a breakpoint at BASIC line N
  delete N, d N        remove breakpoint with ID N
  breakpoints, bl      list breakpoints
  vars, v              show every scalar variable's current value
  for                  show the active FOR-loop stack
  list, l              show the source line about to execute
  print, p             print everything the program has written so far
  quit, q              exit the debugger`)
}

func cmdStep(d *Debugger, out io.Writer) {
	line, err := d.StepLine()
	if err != nil {
		fmt.Fprintf(out, "runtime error: %v\n", err)
		return
	}
	if !d.Machine.Halted {
		fmt.Fprintf(out, "-> line %d: %s\n", line, strings.TrimSpace(d.SourceAt(line)))
	}
}

func cmdContinue(d *Debugger, out io.Writer) {
	line, hitBP, err := d.Continue()
	if err != nil {
		fmt.Fprintf(out, "runtime error: %v\n", err)
		return
	}
	if hitBP {
		fmt.Fprintf(out, "breakpoint hit at line %d\n", line)
	}
}

func cmdBreak(d *Debugger, out io.Writer, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(out, "usage: break <line>")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(out, "bad line number %q\n", args[0])
		return
	}
	bp := d.Breakpoints.Add(n, false)
	fmt.Fprintf(out, "breakpoint %d at line %d\n", bp.ID, bp.Line)
}

func cmdDelete(d *Debugger, out io.Writer, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(out, "usage: delete <id>")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(out, "bad breakpoint id %q\n", args[0])
		return
	}
	if err := d.Breakpoints.Delete(n); err != nil {
		fmt.Fprintln(out, err)
	}
}

func cmdListBreakpoints(d *Debugger, out io.Writer) {
	bps := d.Breakpoints.All()
	if len(bps) == 0 {
		fmt.Fprintln(out, "no breakpoints set")
		return
	}
	for _, bp := range bps {
		fmt.Fprintf(out, "%d: line %d (hits: %d)\n", bp.ID, bp.Line, bp.HitCount)
	}
}

func cmdVars(d *Debugger, out io.Writer) {
	vars := d.Variables()
	if len(vars) == 0 {
		fmt.Fprintln(out, "no variables")
		return
	}
	for _, v := range vars {
		fmt.Fprintln(out, v)
	}
}

func cmdFor(d *Debugger, out io.Writer) {
	frames := d.ForFrames()
	if len(frames) == 0 {
		fmt.Fprintln(out, "no active FOR loops")
		return
	}
	for i, f := range frames {
		fmt.Fprintf(out, "%d: %s\n", i, f)
	}
}

func cmdList(d *Debugger, out io.Writer) {
	line := d.Machine.CurrentLine()
	fmt.Fprintf(out, "%d: %s\n", line, strings.TrimSpace(d.SourceAt(line)))
}

func cmdPrintOutput(d *Debugger, out io.Writer) {
	for _, l := range d.Output.Lines() {
		fmt.Fprintln(out, l)
	}
}
