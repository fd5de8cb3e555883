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

package recomp

import (
	"debug/elf"
	"encoding/binary"

	"github.com/jetsetilly/armrecomp/curated"
)

// sentinel errors for the sanity checks performed on the input binary.
const (
	NotAnElf           = "not an elf file: %v"
	WrongMachine       = "elf: is not ARM"
	WrongClass         = "elf: is not 32-bit"
	WrongEndian        = "elf: is not little-endian"
	MissingTextSection = "elf: no .text section"
)

// Function is a function referenced by the binary, either a dependency
// resolved through the GOT or a function the binary itself exports.
type Function struct {
	Name       string
	Address    uint32
	IsExternal bool
}

// GOTMapping records one entry of the dynamic relocation table: the GOT
// offset and the value of the symbol it refers to.
type GOTMapping struct {
	Offset uint32
	Value  uint32
}

// Recompiler loads an ARM ELF binary and analyses it in preparation for
// emission. The three analysis maps are valid after Analyze() returns.
type Recompiler struct {
	minify bool

	ef        *elf.File
	text      *elf.Section
	textIndex elf.SectionIndex
	plt       *elf.Section
	relPlt    *elf.Section
	relDyn    *elf.Section
	dynsym    []elf.Symbol

	// GOTMappings preserves the order of the dynamic relocation table
	GOTMappings []GOTMapping

	// Deps is keyed by GOT offset. the map owns the Function values;
	// PLTMap references them
	Deps map[uint32]*Function

	// Exports is keyed by .text address
	Exports map[uint32]*Function

	// PLTMap assigns every byte address inside a PLT entry to the
	// dependency the entry dispatches to
	PLTMap map[uint32]*Function
}

// NewRecompiler loads the ELF binary at pathToELF and verifies that it is
// something that can be recompiled: 32-bit, little-endian ARM with a
// .text section.
func NewRecompiler(pathToELF string, minify bool) (*Recompiler, error) {
	ef, err := elf.Open(pathToELF)
	if err != nil {
		return nil, curated.Errorf(NotAnElf, err)
	}

	rec, err := newRecompiler(ef, minify)
	if err != nil {
		ef.Close()
		return nil, err
	}
	return rec, nil
}

func newRecompiler(ef *elf.File, minify bool) (*Recompiler, error) {
	if ef.Machine != elf.EM_ARM {
		return nil, curated.Errorf(WrongMachine)
	}
	if ef.Class != elf.ELFCLASS32 {
		return nil, curated.Errorf(WrongClass)
	}
	if ef.Data != elf.ELFDATA2LSB {
		return nil, curated.Errorf(WrongEndian)
	}

	rec := &Recompiler{
		minify:  minify,
		ef:      ef,
		plt:     ef.Section(".plt"),
		Deps:    make(map[uint32]*Function),
		Exports: make(map[uint32]*Function),
		PLTMap:  make(map[uint32]*Function),
	}

	for i, sec := range ef.Sections {
		if sec.Name == ".text" {
			rec.text = sec
			rec.textIndex = elf.SectionIndex(i)
			break
		}
	}
	if rec.text == nil {
		return nil, curated.Errorf(MissingTextSection)
	}

	// either REL or RELA forms may be present
	if rec.relPlt = ef.Section(".rel.plt"); rec.relPlt == nil {
		rec.relPlt = ef.Section(".rela.plt")
	}
	if rec.relDyn = ef.Section(".rel.dyn"); rec.relDyn == nil {
		rec.relDyn = ef.Section(".rela.dyn")
	}

	// a binary with no dynamic symbols at all is acceptable. the analysis
	// steps that need them are skipped
	rec.dynsym, _ = ef.DynamicSymbols()

	return rec, nil
}

// Close the underlying ELF file.
func (rec *Recompiler) Close() error {
	return rec.ef.Close()
}

// relocation is one entry of a REL or RELA section.
type relocation struct {
	Offset    uint32
	SymbolIdx uint32
	Type      uint32
}

// relocations extracts the entries of a REL or RELA section. there is no
// explicit 32-bit relocation entry type in the Go library so the data is
// walked manually.
func (rec *Recompiler) relocations(sec *elf.Section) ([]relocation, error) {
	data, err := sec.Data()
	if err != nil {
		return nil, curated.Errorf("elf: %v", err)
	}

	entrySize := 8
	if sec.Type == elf.SHT_RELA {
		entrySize = 12
	}

	rels := make([]relocation, 0, len(data)/entrySize)
	for i := 0; i+entrySize <= len(data); i += entrySize {
		offset := binary.LittleEndian.Uint32(data[i : i+4])
		info := binary.LittleEndian.Uint32(data[i+4 : i+8])
		rels = append(rels, relocation{
			Offset:    offset,
			SymbolIdx: info >> 8,
			Type:      info & 0xff,
		})
	}

	return rels, nil
}

// dynamicSymbol looks up a symbol by the index used in relocation
// entries. index zero is the null symbol and the Go library's symbol
// slice begins at index one.
func (rec *Recompiler) dynamicSymbol(idx uint32) (elf.Symbol, bool) {
	if idx == 0 || int(idx) > len(rec.dynsym) {
		return elf.Symbol{}, false
	}
	return rec.dynsym[idx-1], true
}
