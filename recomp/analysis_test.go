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
	"bytes"
	"debug/elf"
	"encoding/binary"
	"testing"

	"github.com/jetsetilly/armrecomp/curated"
	"github.com/jetsetilly/armrecomp/test"
)

// testSection describes a section for buildELF. the section header link
// and info fields use final section indices: the null section is index
// zero and user sections follow in order.
type testSection struct {
	name    string
	typ     elf.SectionType
	addr    uint32
	link    uint32
	info    uint32
	entsize uint32
	data    []byte
}

// buildELF assembles a minimal 32-bit little-endian ELF image in memory.
func buildELF(machine elf.Machine, sections []testSection) []byte {
	const ehsize = 52
	const shentsize = 40

	// section name string table, always the last section
	shstrtab := []byte{0}
	nameOffsets := make([]uint32, len(sections)+1)
	for i, sec := range sections {
		nameOffsets[i] = uint32(len(shstrtab))
		shstrtab = append(shstrtab, []byte(sec.name)...)
		shstrtab = append(shstrtab, 0)
	}
	nameOffsets[len(sections)] = uint32(len(shstrtab))
	shstrtab = append(shstrtab, []byte(".shstrtab")...)
	shstrtab = append(shstrtab, 0)

	// lay out section data after the file header
	offsets := make([]uint32, len(sections)+1)
	offset := uint32(ehsize)
	for i, sec := range sections {
		offsets[i] = offset
		offset += uint32(len(sec.data))
		offset = (offset + 3) &^ 3
	}
	offsets[len(sections)] = offset
	offset += uint32(len(shstrtab))
	offset = (offset + 3) &^ 3
	shoff := offset

	le16 := binary.LittleEndian.PutUint16
	le32 := binary.LittleEndian.PutUint32

	header := make([]byte, ehsize)
	copy(header, []byte{0x7f, 'E', 'L', 'F', 1, 1, 1})
	le16(header[16:], uint16(elf.ET_DYN))
	le16(header[18:], uint16(machine))
	le32(header[20:], 1)
	le32(header[32:], shoff)
	le16(header[40:], ehsize)
	le16(header[42:], 32)
	le16(header[46:], shentsize)
	le16(header[48:], uint16(len(sections)+2))
	le16(header[50:], uint16(len(sections)+1))

	image := make([]byte, shoff+uint32(shentsize*(len(sections)+2)))
	copy(image, header)
	for i, sec := range sections {
		copy(image[offsets[i]:], sec.data)
	}
	copy(image[offsets[len(sections)]:], shstrtab)

	writeSection := func(idx int, nameOff uint32, typ elf.SectionType, addr, off, size, link, info, entsize uint32) {
		sh := image[shoff+uint32(idx*shentsize):]
		le32(sh[0:], nameOff)
		le32(sh[4:], uint32(typ))
		le32(sh[8:], uint32(elf.SHF_ALLOC))
		le32(sh[12:], addr)
		le32(sh[16:], off)
		le32(sh[20:], size)
		le32(sh[24:], link)
		le32(sh[28:], info)
		le32(sh[32:], 4)
		le32(sh[36:], entsize)
	}

	// the null section header is left zeroed
	for i, sec := range sections {
		writeSection(i+1, nameOffsets[i], sec.typ, sec.addr, offsets[i], uint32(len(sec.data)), sec.link, sec.info, sec.entsize)
	}
	writeSection(len(sections)+1, nameOffsets[len(sections)], elf.SHT_STRTAB,
		0, offsets[len(sections)], uint32(len(shstrtab)), 0, 0, 0)

	return image
}

func words(ws ...uint32) []byte {
	b := make([]byte, 0, len(ws)*4)
	for _, w := range ws {
		b = binary.LittleEndian.AppendUint32(b, w)
	}
	return b
}

// symbol32 encodes one .dynsym entry.
func symbol32(nameOff, value uint32, info uint8, shndx uint16) []byte {
	b := make([]byte, 16)
	binary.LittleEndian.PutUint32(b[0:], nameOff)
	binary.LittleEndian.PutUint32(b[4:], value)
	b[12] = info
	binary.LittleEndian.PutUint16(b[14:], shndx)
	return b
}

// rel32 encodes one REL entry.
func rel32(offset, symIdx, relType uint32) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b[0:], offset)
	binary.LittleEndian.PutUint32(b[4:], symIdx<<8|relType&0xff)
	return b
}

// testBinary builds a shared object with one exported function and one
// PLT entry that dispatches through the GOT offset 0x4000.
//
// The PLT stub walks the intra-procedure-call register to 0x4004 and
// finishes with a load into the program counter:
//
//	0x300: add ip, pc, #0x3c00
//	0x304: add ip, ip, #0xf0
//	0x308: ldr pc, [ip, #8]!
func testBinary(t *testing.T) *elf.File {
	t.Helper()

	dynstr := []byte("\x00open\x00init\x00")

	dynsym := symbol32(0, 0, 0, 0)
	dynsym = append(dynsym, symbol32(1, 0, 0x12, 0)...)         // open: external function
	dynsym = append(dynsym, symbol32(6, 0x100, 0x12, 1)...)     // init: function in .text

	image := buildELF(elf.EM_ARM, []testSection{
		{name: ".text", typ: elf.SHT_PROGBITS, addr: 0x100,
			data: words(0xe3a00000, 0xe12fff1e)},
		{name: ".plt", typ: elf.SHT_PROGBITS, addr: 0x300,
			data: words(0xe28fcc3c, 0xe28cc0f0, 0xe5bcf008)},
		{name: ".dynsym", typ: elf.SHT_DYNSYM, link: 4, info: 1, entsize: 16,
			data: dynsym},
		{name: ".dynstr", typ: elf.SHT_STRTAB,
			data: dynstr},
		{name: ".rel.plt", typ: elf.SHT_REL, link: 3, entsize: 8,
			data: rel32(0x4000, 1, 22)},
		{name: ".rel.dyn", typ: elf.SHT_REL, link: 3, entsize: 8,
			data: rel32(0x5000, 2, 21)},
	})

	ef, err := elf.NewFile(bytes.NewReader(image))
	if err != nil {
		t.Fatalf("building test binary: %v", err)
	}
	return ef
}

func TestNewRecompiler_sanityChecks(t *testing.T) {
	image := buildELF(elf.EM_386, []testSection{
		{name: ".text", typ: elf.SHT_PROGBITS, addr: 0x100, data: words(0xe3a00000)},
	})
	ef, err := elf.NewFile(bytes.NewReader(image))
	test.ExpectedSuccess(t, err)

	_, err = newRecompiler(ef, false)
	test.ExpectedFailure(t, err)
	test.Equate(t, curated.Is(err, WrongMachine), true)

	// no .text section
	image = buildELF(elf.EM_ARM, []testSection{
		{name: ".data", typ: elf.SHT_PROGBITS, addr: 0x100, data: words(0)},
	})
	ef, err = elf.NewFile(bytes.NewReader(image))
	test.ExpectedSuccess(t, err)

	_, err = newRecompiler(ef, false)
	test.ExpectedFailure(t, err)
	test.Equate(t, curated.Is(err, MissingTextSection), true)
}

func TestAnalyze(t *testing.T) {
	rec, err := newRecompiler(testBinary(t), false)
	test.ExpectedSuccess(t, err)

	err = rec.Analyze()
	test.ExpectedSuccess(t, err)

	// dynamic relocations
	test.DemandEquality(t, len(rec.GOTMappings), 1)
	test.DemandEquality(t, rec.GOTMappings[0].Offset, 0x5000)
	test.DemandEquality(t, rec.GOTMappings[0].Value, 0x100)

	// dependencies from the PLT relocation table
	test.DemandEquality(t, len(rec.Deps), 1)
	dep := rec.Deps[0x4000]
	if dep == nil {
		t.Fatal("no dependency recorded for GOT offset 0x4000")
	}
	test.DemandEquality(t, dep.Name, "open")
	test.DemandEquality(t, dep.Address, 0x4000)
	test.Equate(t, dep.IsExternal, true)

	// exports
	test.DemandEquality(t, len(rec.Exports), 1)
	exp := rec.Exports[0x100]
	if exp == nil {
		t.Fatal("no export recorded for address 0x100")
	}
	test.DemandEquality(t, exp.Name, "init")
	test.Equate(t, exp.IsExternal, false)
}

func TestAnalyze_pltWalk(t *testing.T) {
	rec, err := newRecompiler(testBinary(t), false)
	test.ExpectedSuccess(t, err)

	err = rec.Analyze()
	test.ExpectedSuccess(t, err)

	// every byte of the stub maps to the dependency
	test.DemandEquality(t, len(rec.PLTMap), 12)
	for addr := uint32(0x300); addr < 0x30c; addr++ {
		if rec.PLTMap[addr] != rec.Deps[0x4000] {
			t.Fatalf("plt address %#x does not map to the dependency", addr)
		}
	}
}

func TestAnalyze_noPLT(t *testing.T) {
	// a binary with no .plt section analyses without error and without
	// dependencies
	image := buildELF(elf.EM_ARM, []testSection{
		{name: ".text", typ: elf.SHT_PROGBITS, addr: 0x100, data: words(0xe3a00000)},
	})
	ef, err := elf.NewFile(bytes.NewReader(image))
	test.ExpectedSuccess(t, err)

	rec, err := newRecompiler(ef, false)
	test.ExpectedSuccess(t, err)

	err = rec.Analyze()
	test.ExpectedSuccess(t, err)
	test.DemandEquality(t, len(rec.Deps), 0)
	test.DemandEquality(t, len(rec.PLTMap), 0)
}
