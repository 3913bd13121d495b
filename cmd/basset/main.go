// Command basset is the BASSET front door: compile BASIC source to the
// .abc bytecode format, execute a compiled image, inspect one with the
// disassembler or tokenizer, or step it in the debugger.
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdxiv/basset-lang/bytecode"
	"github.com/pdxiv/basset-lang/compiler"
	"github.com/pdxiv/basset-lang/config"
	"github.com/pdxiv/basset-lang/debugger"
	"github.com/pdxiv/basset-lang/lexer"
	"github.com/pdxiv/basset-lang/parser"
	"github.com/pdxiv/basset-lang/token"
	"github.com/pdxiv/basset-lang/vm"
)

// Version is overridden at build time with -ldflags "-X ...Version=...".
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "-help", "--help", "help":
		printUsage()
		return
	case "-version", "--version", "version":
		fmt.Printf("basset %s\n", Version)
		return
	case "compile":
		err = runCompile(cfg, os.Args[2:])
	case "vm":
		err = runVM(cfg, os.Args[2:])
	case "disasm":
		err = runDisasm(os.Args[2:])
	case "asm":
		err = runAsm(os.Args[2:])
	case "tokenize":
		err = runTokenize(os.Args[2:])
	case "debug":
		err = runDebug(cfg, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`basset - classic line-numbered BASIC compiler and VM

Usage:
  basset compile <src.bas> [<out.abc>]   compile to bytecode
  basset vm <image.abc>                  execute a compiled image
  basset disasm <image.abc> [<out>]      disassemble to text (stdout default)
  basset asm <text.basm> <image.abc>     assemble disasm output back to .abc
  basset tokenize <src.bas>              print the token stream
  basset debug [-tui] <src.bas>          step the program in the debugger
  basset -version                        show version information
  basset -help                           show this message
`)
}

// compileSource parses and compiles src, returning diagnostics-rendered
// errors on failure (never a partially-compiled program). Variable-table
// limits come from cfg.Compiler.
func compileSource(cfg *config.Config, src string) (*bytecode.CompiledProgram, error) {
	p := parser.New(src)
	prog, err := p.Parse()
	if err != nil {
		return nil, err
	}
	if n := p.Errors().Len(); n > 0 {
		var sb strings.Builder
		for _, e := range p.Errors().Errors() {
			sb.WriteString(e.Error())
		}
		fmt.Fprint(os.Stderr, sb.String())
		return nil, fmt.Errorf("%d parse error(s)", n)
	}

	c := compiler.NewWithLimits(cfg.Compiler.MaxNumericVars, cfg.Compiler.MaxStringVars, cfg.Compiler.MaxArrays)
	compiled := c.Compile(prog)
	if errs := c.Errors(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		return nil, fmt.Errorf("%d compile error(s)", len(errs))
	}
	return compiled, nil
}

func runCompile(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: basset compile <src.bas> [<out.abc>]")
	}
	srcPath := args[0]
	outPath := args[1:]

	data, err := os.ReadFile(srcPath) // #nosec G304 -- user-specified source path
	if err != nil {
		return fmt.Errorf("reading %s: %w", srcPath, err)
	}

	compiled, err := compileSource(cfg, string(data))
	if err != nil {
		return err
	}

	out := strings.TrimSuffix(srcPath, filepath.Ext(srcPath)) + ".abc"
	if len(outPath) > 0 {
		out = outPath[0]
	}

	if err := bytecode.Save(out, compiled); err != nil {
		return err
	}

	fmt.Printf("%d instructions, %d variables, %d string literals\n",
		len(compiled.Code), len(compiled.VarTable), len(compiled.StringPool))
	fmt.Println("Success!")
	return nil
}

func runVM(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: basset vm <image.abc>")
	}
	prog, err := bytecode.Load(args[0])
	if err != nil {
		return err
	}

	machine := vm.NewVMWithConfig(prog, cfg.VM.MemorySize, cfg.Print.Width)
	if err := machine.Run(); err != nil {
		return err
	}
	if machine.LastError != nil {
		return machine.LastError
	}
	return nil
}

func runDisasm(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: basset disasm <image.abc> [<out>]")
	}
	prog, err := bytecode.Load(args[0])
	if err != nil {
		return err
	}

	out := os.Stdout
	if len(args) > 1 {
		f, err := os.Create(args[1]) // #nosec G304 -- user-specified output path
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	for pc, ins := range prog.Code {
		fmt.Fprintf(out, "%04d  %-18s flags=%d operand=%d\n", pc, ins.Opcode, ins.Flags, ins.Operand)
	}
	fmt.Fprintln(out, "; const_pool:", prog.ConstPool)
	fmt.Fprintln(out, "; string_pool:", prog.StringPool)
	for _, v := range prog.VarTable {
		fmt.Fprintf(out, "; var %s slot=%d type=%d dim1=%d dim2=%d\n", v.Name, v.Slot, v.Type, v.Dim1, v.Dim2)
	}
	for _, lm := range prog.LineMap {
		fmt.Fprintf(out, "; line %d -> pc %d\n", lm.Line, lm.PC)
	}
	return nil
}

// runAsm parses the line-oriented text runDisasm's instruction lines use
// ("PC  OPCODE flags=F operand=O") and re-encodes the instruction stream
// into a fresh .abc image. It is the disassembler's inverse for the code
// section only: pools, var table, and line map are not reconstructible
// from that text and are left empty, matching a raw bytecode round-trip
// rather than a full recompile.
func runAsm(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: basset asm <text.basm> <image.abc>")
	}
	data, err := os.ReadFile(args[0]) // #nosec G304 -- user-specified source path
	if err != nil {
		return err
	}

	prog := bytecode.NewCompiledProgram()
	names := inverseOpNames()

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		op, ok := names[fields[1]]
		if !ok {
			return fmt.Errorf("unknown opcode mnemonic %q", fields[1])
		}
		var flags, operand uint64
		for _, f := range fields[2:] {
			if v, ok := strings.CutPrefix(f, "flags="); ok {
				flags, _ = strconv.ParseUint(v, 10, 8)
			}
			if v, ok := strings.CutPrefix(f, "operand="); ok {
				operand, _ = strconv.ParseUint(v, 10, 16)
			}
		}
		prog.Emit(op, uint8(flags), uint16(operand))
	}

	return bytecode.Save(args[1], prog)
}

func inverseOpNames() map[string]bytecode.Op {
	out := make(map[string]bytecode.Op)
	for op := bytecode.Op(0); op < 0xFF; op++ {
		if s := op.String(); s != "UNKNOWN_OP" {
			out[s] = op
		}
	}
	return out
}

func runTokenize(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: basset tokenize <src.bas>")
	}
	data, err := os.ReadFile(args[0]) // #nosec G304 -- user-specified source path
	if err != nil {
		return err
	}

	l := lexer.New(string(data))
	for {
		t := l.Next()
		fmt.Printf("%-4d:%-3d %-12s %q\n", t.Pos.Line, t.Pos.Column, t.Type, t.Lexeme)
		if t.Type == token.EOF {
			break
		}
	}
	for _, u := range l.Unknowns() {
		fmt.Fprintf(os.Stderr, "warning: unknown character %q at %d:%d\n", u.Ch, u.Pos.Line, u.Pos.Column)
	}
	return nil
}

func runDebug(cfg *config.Config, args []string) error {
	tui := false
	var srcPath string
	for _, a := range args {
		if a == "-tui" {
			tui = true
			continue
		}
		srcPath = a
	}
	if srcPath == "" {
		return fmt.Errorf("usage: basset debug [-tui] <src.bas>")
	}

	data, err := os.ReadFile(srcPath) // #nosec G304 -- user-specified source path
	if err != nil {
		return err
	}

	compiled, err := compileSource(cfg, string(data))
	if err != nil {
		return err
	}

	lines := strings.Split(string(data), "\n")
	dbg := debugger.NewWithConfig(compiled, lines, cfg.VM.MemorySize, cfg.Print.Width)
	dbg.SetInput(bufio.NewReader(os.Stdin))

	if tui {
		return debugger.NewTUI(dbg).Run()
	}
	return debugger.RunCLI(dbg, os.Stdin, os.Stdout)
}
