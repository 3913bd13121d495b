package debugger_test

import (
	"strings"
	"testing"

	"github.com/pdxiv/basset-lang/compiler"
	"github.com/pdxiv/basset-lang/debugger"
	"github.com/pdxiv/basset-lang/parser"
)

func mustCompile(t *testing.T, src string) (*debugger.Debugger, []string) {
	t.Helper()
	p := parser.New(src)
	prog, err := p.Parse()
	if err != nil || p.Errors().Len() != 0 {
		t.Fatalf("parse failed: err=%v diagnostics=%v", err, p.Errors().Errors())
	}
	c := compiler.New()
	compiled := c.Compile(prog)
	if len(c.Errors()) != 0 {
		t.Fatalf("compile failed: %v", c.Errors())
	}
	lines := strings.Split(src, "\n")
	return debugger.New(compiled, lines), lines
}

func TestDebuggerStepLineAdvancesOneLineAtATime(t *testing.T) {
	d, _ := mustCompile(t, "10 A=1\n20 A=A+1\n30 A=A+1\n")

	line, err := d.StepLine()
	if err != nil {
		t.Fatalf("StepLine error: %v", err)
	}
	if line != 20 {
		t.Fatalf("expected to stop at line 20, got %d", line)
	}

	line, err = d.StepLine()
	if err != nil {
		t.Fatalf("StepLine error: %v", err)
	}
	if line != 30 {
		t.Fatalf("expected to stop at line 30, got %d", line)
	}
}

func TestDebuggerContinueStopsAtBreakpoint(t *testing.T) {
	d, _ := mustCompile(t, "10 A=1\n20 A=A+1\n30 A=A+1\n40 A=A+1\n")
	d.Breakpoints.Add(30, false)

	line, hit, err := d.Continue()
	if err != nil {
		t.Fatalf("Continue error: %v", err)
	}
	if !hit {
		t.Fatal("expected the breakpoint to be hit")
	}
	if line != 30 {
		t.Fatalf("expected to stop at line 30, got %d", line)
	}
}

func TestDebuggerContinueRunsToHaltWithoutBreakpoints(t *testing.T) {
	d, _ := mustCompile(t, "10 A=1\n20 END\n")

	_, hit, err := d.Continue()
	if err != nil {
		t.Fatalf("Continue error: %v", err)
	}
	if hit {
		t.Fatal("did not expect a breakpoint hit")
	}
	if !d.Machine.Halted {
		t.Fatal("expected the machine to be halted")
	}
}

func TestDebuggerVariablesReflectsAssignments(t *testing.T) {
	d, _ := mustCompile(t, "10 A=42\n20 B$=\"HI\"\n30 END\n")

	if _, _, err := d.Continue(); err != nil {
		t.Fatalf("Continue error: %v", err)
	}

	vars := d.Variables()
	var sawA, sawB bool
	for _, v := range vars {
		if v == "A = 42" {
			sawA = true
		}
		if v == `B$ = "HI"` {
			sawB = true
		}
	}
	if !sawA || !sawB {
		t.Fatalf("expected A and B$ to appear in Variables(), got %v", vars)
	}
}

func TestDebuggerForFramesReflectsActiveLoop(t *testing.T) {
	d, _ := mustCompile(t, "10 FOR I=1 TO 3\n20 NEXT I\n30 END\n")

	if _, err := d.StepLine(); err != nil {
		t.Fatalf("StepLine error: %v", err)
	}

	frames := d.ForFrames()
	if len(frames) != 1 {
		t.Fatalf("expected one active FOR frame, got %d", len(frames))
	}
}

func TestDebuggerOutputCapturesPrint(t *testing.T) {
	d, _ := mustCompile(t, "10 PRINT \"HELLO\"\n20 END\n")

	if _, _, err := d.Continue(); err != nil {
		t.Fatalf("Continue error: %v", err)
	}

	lines := d.Output.Lines()
	found := false
	for _, l := range lines {
		if strings.Contains(l, "HELLO") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected output to contain HELLO, got %v", lines)
	}
}
