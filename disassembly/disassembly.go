// This file is part of armrecomp.
//
// armrecomp is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// armrecomp is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with armrecomp.  If not, see <https://www.gnu.org/licenses/>.

// Package disassembly produces a human-readable listing of an ARM ELF
// binary: the function symbols of the symbol tables followed by the
// decoded instructions of the .text and .plt sections.
package disassembly

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/jetsetilly/armrecomp/arm"
	"github.com/jetsetilly/armrecomp/curated"
)

// sentinel errors for the FromFile and Write functions.
const (
	NotAnElf           = "not an elf file: %v"
	MissingTextSection = "elf: no .text section"
)

// FromFile disassembles the ELF binary at pathToELF, writing the listing
// to output.
func FromFile(output io.Writer, pathToELF string) error {
	ef, err := elf.Open(pathToELF)
	if err != nil {
		return curated.Errorf(NotAnElf, err)
	}
	defer ef.Close()

	return Write(output, ef)
}

// Write disassembles an already opened ELF binary.
//
// THUMB code is not recognised; a section containing THUMB instructions
// will disassemble to nonsense (and typically to invalid instructions).
func Write(output io.Writer, ef *elf.File) error {
	if symtab, err := ef.Symbols(); err == nil {
		if sec := ef.Section(".symtab"); sec != nil {
			writeSymbols(output, sec, symtab)
		}
	}
	if dynsym, err := ef.DynamicSymbols(); err == nil {
		if sec := ef.Section(".dynsym"); sec != nil {
			writeSymbols(output, sec, dynsym)
		}
	}

	text := ef.Section(".text")
	if text == nil {
		return curated.Errorf(MissingTextSection)
	}

	if err := writeInstructions(output, text); err != nil {
		return err
	}

	plt := ef.Section(".plt")
	if plt == nil {
		return nil
	}
	return writeInstructions(output, plt)
}

func writeSectionHeader(output io.Writer, sec *elf.Section) {
	fmt.Fprintf(output, "SECTION %q (addr 0x%x, size %d):\n", sec.Name, sec.Addr, sec.Size)
}

// writeSymbols lists the function symbols of a symbol table, one line per
// symbol.
func writeSymbols(output io.Writer, sec *elf.Section, symbols []elf.Symbol) {
	writeSectionHeader(output, sec)

	for _, sym := range symbols {
		if elf.ST_TYPE(sym.Info) != elf.STT_FUNC {
			continue
		}
		fmt.Fprintf(output, "\t0x%x: %s\n", sym.Value, sym.Name)
	}

	fmt.Fprintln(output)
}

// writeInstructions decodes and lists every word of a section.
func writeInstructions(output io.Writer, sec *elf.Section) error {
	writeSectionHeader(output, sec)

	data, err := sec.Data()
	if err != nil {
		return curated.Errorf("elf: %v", err)
	}

	for i := 0; i+4 <= len(data); i += 4 {
		instr := arm.Decode(binary.LittleEndian.Uint32(data[i:]))
		fmt.Fprintf(output, "\t0x%x: %s\n", uint32(sec.Addr)+uint32(i), instr)
	}

	fmt.Fprintln(output)
	return nil
}
