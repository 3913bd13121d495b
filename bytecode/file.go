package bytecode

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// FileMagic and FileVersion pin the .abc header spec.md §6 requires.
var FileMagic = [4]byte{'A', 'B', 'C', 0}

const FileVersion uint16 = 1

// Save writes prog to path in the .abc binary format.
func Save(path string, prog *CompiledProgram) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("bytecode: create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := writeProgram(w, prog); err != nil {
		return fmt.Errorf("bytecode: write %s: %w", path, err)
	}
	return w.Flush()
}

// Load reads a CompiledProgram from path, rejecting mismatched magic or
// version.
func Load(path string) (*CompiledProgram, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("bytecode: open %s: %w", path, err)
	}
	defer f.Close()

	return readProgram(bufio.NewReader(f))
}

func writeProgram(w io.Writer, prog *CompiledProgram) error {
	if err := binary.Write(w, binary.LittleEndian, FileMagic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, FileVersion); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(0)); err != nil {
		return err
	}

	if err := writeCount(w, len(prog.Code)); err != nil {
		return err
	}
	for _, ins := range prog.Code {
		if err := binary.Write(w, binary.LittleEndian, ins.Opcode); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, ins.Flags); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, ins.Operand); err != nil {
			return err
		}
	}

	if err := writeCount(w, len(prog.ConstPool)); err != nil {
		return err
	}
	for _, c := range prog.ConstPool {
		if err := binary.Write(w, binary.LittleEndian, c); err != nil {
			return err
		}
	}

	if err := writeCount(w, len(prog.StringPool)); err != nil {
		return err
	}
	for _, s := range prog.StringPool {
		if err := writeString(w, s); err != nil {
			return err
		}
	}

	if err := writeCount(w, len(prog.VarTable)); err != nil {
		return err
	}
	for _, v := range prog.VarTable {
		if err := writeString(w, v.Name); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, v.Slot); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint8(v.Type)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, v.Dim1); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, v.Dim2); err != nil {
			return err
		}
	}

	if err := writeCount(w, len(prog.LineMap)); err != nil {
		return err
	}
	for _, lm := range prog.LineMap {
		if err := binary.Write(w, binary.LittleEndian, uint16(lm.Line)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, lm.PC); err != nil {
			return err
		}
	}

	if err := writeCount(w, len(prog.DataNumericPool)); err != nil {
		return err
	}
	for _, v := range prog.DataNumericPool {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	if err := writeCount(w, len(prog.DataStringPool)); err != nil {
		return err
	}
	for _, s := range prog.DataStringPool {
		if err := writeString(w, s); err != nil {
			return err
		}
	}

	if err := writeCount(w, len(prog.DataEntries)); err != nil {
		return err
	}
	for _, e := range prog.DataEntries {
		if err := binary.Write(w, binary.LittleEndian, uint8(e.Kind)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, e.PoolIndex); err != nil {
			return err
		}
	}

	return nil
}

func readProgram(r io.Reader) (*CompiledProgram, error) {
	var magic [4]byte
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if magic != FileMagic {
		return nil, fmt.Errorf("invalid file format (bad magic)")
	}
	var version, reserved uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if version != FileVersion {
		return nil, fmt.Errorf("unsupported file version %d", version)
	}
	if err := binary.Read(r, binary.LittleEndian, &reserved); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	prog := NewCompiledProgram()

	codeLen, err := readCount(r)
	if err != nil {
		return nil, err
	}
	prog.Code = make([]Instruction, codeLen)
	for i := range prog.Code {
		var opcode Op
		var flags uint8
		var operand uint16
		if err := binary.Read(r, binary.LittleEndian, &opcode); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &flags); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &operand); err != nil {
			return nil, err
		}
		prog.Code[i] = Instruction{Opcode: opcode, Flags: flags, Operand: operand}
	}

	constLen, err := readCount(r)
	if err != nil {
		return nil, err
	}
	prog.ConstPool = make([]float64, constLen)
	for i := range prog.ConstPool {
		if err := binary.Read(r, binary.LittleEndian, &prog.ConstPool[i]); err != nil {
			return nil, err
		}
	}

	strLen, err := readCount(r)
	if err != nil {
		return nil, err
	}
	prog.StringPool = make([]string, strLen)
	for i := range prog.StringPool {
		s, err := readString(r)
		if err != nil {
			return nil, err
		}
		prog.StringPool[i] = s
	}

	varLen, err := readCount(r)
	if err != nil {
		return nil, err
	}
	prog.VarTable = make([]VariableInfo, varLen)
	for i := range prog.VarTable {
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		var slot uint16
		var typ uint8
		var d1, d2 uint16
		if err := binary.Read(r, binary.LittleEndian, &slot); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &typ); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &d1); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &d2); err != nil {
			return nil, err
		}
		prog.VarTable[i] = VariableInfo{Name: name, Slot: slot, Type: VarType(typ), Dim1: d1, Dim2: d2}
	}

	lineLen, err := readCount(r)
	if err != nil {
		return nil, err
	}
	prog.LineMap = make([]LineMapping, lineLen)
	for i := range prog.LineMap {
		var line uint16
		var pc uint32
		if err := binary.Read(r, binary.LittleEndian, &line); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &pc); err != nil {
			return nil, err
		}
		prog.LineMap[i] = LineMapping{Line: int(line), PC: pc}
	}

	dataNumLen, err := readCount(r)
	if err != nil {
		return nil, err
	}
	prog.DataNumericPool = make([]float64, dataNumLen)
	for i := range prog.DataNumericPool {
		if err := binary.Read(r, binary.LittleEndian, &prog.DataNumericPool[i]); err != nil {
			return nil, err
		}
	}

	dataStrLen, err := readCount(r)
	if err != nil {
		return nil, err
	}
	prog.DataStringPool = make([]string, dataStrLen)
	for i := range prog.DataStringPool {
		s, err := readString(r)
		if err != nil {
			return nil, err
		}
		prog.DataStringPool[i] = s
	}

	entryLen, err := readCount(r)
	if err != nil {
		return nil, err
	}
	prog.DataEntries = make([]DataEntry, entryLen)
	for i := range prog.DataEntries {
		var kind uint8
		var idx uint32
		if err := binary.Read(r, binary.LittleEndian, &kind); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &idx); err != nil {
			return nil, err
		}
		prog.DataEntries[i] = DataEntry{Kind: DataKind(kind), PoolIndex: idx}
	}

	return prog, nil
}

func writeCount(w io.Writer, n int) error {
	return binary.Write(w, binary.LittleEndian, uint32(n))
}

func readCount(r io.Reader) (int, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return 0, err
	}
	return int(n), nil
}

func writeString(w io.Writer, s string) error {
	if err := writeCount(w, len(s)); err != nil {
		return err
	}
	if len(s) == 0 {
		return nil
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	n, err := readCount(r)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
