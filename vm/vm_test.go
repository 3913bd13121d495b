package vm_test

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/pdxiv/basset-lang/bytecode"
	"github.com/pdxiv/basset-lang/compiler"
	"github.com/pdxiv/basset-lang/parser"
	"github.com/pdxiv/basset-lang/vm"
)

func mustRun(t *testing.T, src string) (string, *vm.VM) {
	t.Helper()
	p := parser.New(src)
	prog, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse returned an error: %v", err)
	}
	if n := p.Errors().Len(); n != 0 {
		t.Fatalf("expected no parse diagnostics, got %d", n)
	}
	c := compiler.New()
	compiled := c.Compile(prog)
	if errs := c.Errors(); len(errs) != 0 {
		t.Fatalf("expected no compile diagnostics, got %d", len(errs))
	}

	var out bytes.Buffer
	machine := vm.NewVM(compiled)
	machine.Stdout = &out
	if err := machine.Run(); err != nil {
		t.Fatalf("Run returned an error: %v", err)
	}
	return out.String(), machine
}

func TestRunHelloPrint(t *testing.T) {
	out, _ := mustRun(t, "10 PRINT \"HELLO\"\n")
	if out != "HELLO\n" {
		t.Fatalf("got %q", out)
	}
}

func TestRunArithmeticAndSpacing(t *testing.T) {
	out, _ := mustRun(t, "10 PRINT 2+3*4\n")
	if out != " 14\n" {
		t.Fatalf("got %q", out)
	}
}

func TestRunForStepLoop(t *testing.T) {
	out, _ := mustRun(t, "10 FOR I=1 TO 3\n20 PRINT I\n30 NEXT I\n")
	want := " 1\n 2\n 3\n"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestRunForStepDescending(t *testing.T) {
	out, _ := mustRun(t, "10 FOR I=3 TO 1 STEP -1\n20 PRINT I\n30 NEXT I\n")
	want := " 3\n 2\n 1\n"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestRunGosubReturn(t *testing.T) {
	src := "10 GOSUB 100\n20 PRINT \"BACK\"\n30 END\n100 PRINT \"SUB\"\n110 RETURN\n"
	out, _ := mustRun(t, src)
	want := "SUB\nBACK\n"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestRunDataRead(t *testing.T) {
	src := "10 DATA 1,2,3\n20 READ A,B,C\n30 PRINT A+B+C\n"
	out, _ := mustRun(t, src)
	if out != " 6\n" {
		t.Fatalf("got %q", out)
	}
}

func TestRunTrapCatchesDivisionByZero(t *testing.T) {
	src := "10 TRAP 100\n20 PRINT 1/0\n30 END\n100 PRINT \"CAUGHT\"\n"
	out, m := mustRun(t, src)
	if !strings.Contains(out, "CAUGHT") {
		t.Fatalf("expected trap handler output, got %q", out)
	}
	if m.Halted && m.LastError != nil {
		t.Fatalf("trap should have cleared the error, got %v", m.LastError)
	}
}

func TestRunUntrappedDivisionByZeroHalts(t *testing.T) {
	_, m := mustRun(t, "10 PRINT 1/0\n")
	if !m.Halted {
		t.Fatalf("expected VM to halt on untrapped error")
	}
	if m.LastError == nil {
		t.Fatalf("expected LastError to be set")
	}
}

func TestRunStringConcatAndFunctions(t *testing.T) {
	out, _ := mustRun(t, "10 PRINT \"AB\"+\"CD\"\n")
	if out != "ABCD\n" {
		t.Fatalf("got %q", out)
	}
}

func TestRunMidWithLength(t *testing.T) {
	out, _ := mustRun(t, "10 PRINT MID$(\"HELLOWORLD\",3,4)\n")
	if out != "LLOW\n" {
		t.Fatalf("got %q", out)
	}
}

func TestRunMidWithoutLength(t *testing.T) {
	out, _ := mustRun(t, "10 PRINT MID$(\"HELLOWORLD\",6)\n")
	if out != "WORLD\n" {
		t.Fatalf("got %q", out)
	}
}

func TestRunComparisonPrintsOneOrZero(t *testing.T) {
	out, _ := mustRun(t, "10 PRINT 1=1\n20 PRINT 1=2\n")
	if out != " 1\n 0\n" {
		t.Fatalf("got %q", out)
	}
}

func TestRunModUsesFloatingPointRemainder(t *testing.T) {
	out, _ := mustRun(t, "10 PRINT 5.5 MOD 2\n")
	if out != " 1.5\n" {
		t.Fatalf("got %q", out)
	}
}

func TestRunModByZeroIsNotAnError(t *testing.T) {
	src := "10 PRINT 5 MOD 0\n"
	_, m := mustRun(t, src)
	if m.LastError != nil {
		t.Fatalf("expected MOD by zero not to error, got %v", m.LastError)
	}
}

func TestRunArrayAssignmentAndRead(t *testing.T) {
	src := "10 DIM A(10)\n20 A(5)=42\n30 PRINT A(5)\n"
	out, _ := mustRun(t, src)
	if out != " 42\n" {
		t.Fatalf("got %q", out)
	}
}

func TestRunArrayBoundsError(t *testing.T) {
	src := "10 DIM A(5)\n20 PRINT A(99)\n"
	_, m := mustRun(t, src)
	if m.LastError == nil {
		t.Fatalf("expected an array bounds error")
	}
}

func TestRunOnGoto(t *testing.T) {
	src := "10 ON 2 GOTO 100,200\n20 END\n100 PRINT \"ONE\"\n110 END\n200 PRINT \"TWO\"\n"
	out, _ := mustRun(t, src)
	if out != "TWO\n" {
		t.Fatalf("got %q", out)
	}
}

func TestRunPeekPokeRoundtrip(t *testing.T) {
	src := "10 POKE 100,42\n20 PRINT PEEK(100)\n"
	out, _ := mustRun(t, src)
	if out != " 42\n" {
		t.Fatalf("got %q", out)
	}
}

func TestRndDeterministicWithSeed(t *testing.T) {
	src := "10 RANDOMIZE 7\n20 PRINT RND(1)\n"
	out1, _ := mustRun(t, src)
	out2, _ := mustRun(t, src)
	if out1 != out2 {
		t.Fatalf("expected deterministic RND from same seed: %q vs %q", out1, out2)
	}
}

func TestRndReplaysLastValueOnZero(t *testing.T) {
	src := "10 RANDOMIZE 7\n20 PRINT RND(1)\n30 PRINT RND(0)\n"
	out, _ := mustRun(t, src)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 || lines[0] != lines[1] {
		t.Fatalf("expected RND(0) to replay the prior value, got %q", out)
	}
}

func TestInputNumReadsFromStdin(t *testing.T) {
	p := parser.New("10 INPUT N\n20 PRINT N*2\n")
	prog, err := p.Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	c := compiler.New()
	compiled := c.Compile(prog)
	if errs := c.Errors(); len(errs) != 0 {
		t.Fatalf("compile errors: %v", errs)
	}
	var out bytes.Buffer
	machine := vm.NewVM(compiled)
	machine.Stdout = &out
	machine.SetInput(bufio.NewReader(strings.NewReader("21\n")))
	if err := machine.Run(); err != nil {
		t.Fatalf("run error: %v", err)
	}
	if out.String() != " 42\n" {
		t.Fatalf("got %q", out.String())
	}
}

func TestNextWithoutForErrors(t *testing.T) {
	_, m := mustRun(t, "10 NEXT I\n")
	if m.LastError == nil {
		t.Fatalf("expected NEXT WITHOUT FOR error")
	}
}

func TestReturnWithoutGosubErrors(t *testing.T) {
	_, m := mustRun(t, "10 RETURN\n")
	if m.LastError == nil {
		t.Fatalf("expected RETURN WITHOUT GOSUB error")
	}
}

func TestOpcodeStringIsReadable(t *testing.T) {
	if got := bytecode.Add.String(); got == "" {
		t.Fatalf("expected non-empty opcode name")
	}
}
