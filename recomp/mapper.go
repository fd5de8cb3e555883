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

	"github.com/jetsetilly/armrecomp/curated"
	"github.com/jetsetilly/armrecomp/emulator"
	"github.com/jetsetilly/armrecomp/logger"
)

// sectionMapper translates guest addresses against the loaded section
// data of an ELF binary instead of the emulator's stack and heap. it is
// used only during PLT emulation and the access is read-only in practice.
type sectionMapper struct {
	sections []mappedSection
}

type mappedSection struct {
	name string
	addr uint32
	size uint32
	data []byte
}

// newSectionMapper loads the data of every section except those with both
// a zero address and a zero size. the SHF_ALLOC flag is not consulted, so
// a non-allocated section with a non-zero size is mapped at its recorded
// address. sections with no data in the file (NOBITS) are mapped with a nil data slice and
// fail resolution if an address ever falls inside them.
func newSectionMapper(ef *elf.File) (*sectionMapper, error) {
	sm := &sectionMapper{}

	for _, sec := range ef.Sections {
		if sec.Addr == 0 && sec.Size == 0 {
			continue
		}

		m := mappedSection{
			name: sec.Name,
			addr: uint32(sec.Addr),
			size: uint32(sec.Size),
		}
		if sec.Type != elf.SHT_NOBITS {
			data, err := sec.Data()
			if err != nil {
				return nil, curated.Errorf("elf: %v", err)
			}
			m.data = data
		}

		sm.sections = append(sm.sections, m)
	}

	return sm, nil
}

// Resolve implements the emulator.AddressMapper interface.
func (sm *sectionMapper) Resolve(addr uint32) (emulator.HostAddr, error) {
	for i, sec := range sm.sections {
		if addr < sec.addr || addr >= sec.addr+sec.size {
			continue
		}

		if sec.data == nil {
			logger.Logf(logger.Allow, "recomp", "section %s has no data", sec.name)
			return emulator.HostAddr{}, curated.Errorf(emulator.AddressNotMapped, addr)
		}

		return emulator.HostAddr{
			Area:    emulator.AreaSection,
			Section: i,
			Offset:  addr - sec.addr,
		}, nil
	}

	return emulator.HostAddr{}, curated.Errorf(emulator.AddressNotMapped, addr)
}

// Map implements the emulator.AddressMapper interface.
func (sm *sectionMapper) Map(host emulator.HostAddr) (uint32, error) {
	if host.Area != emulator.AreaSection || host.Section >= len(sm.sections) {
		return 0, curated.Errorf(emulator.AddressNotMapped, host.Offset)
	}

	sec := sm.sections[host.Section]
	if host.Offset >= sec.size {
		return 0, curated.Errorf(emulator.AddressNotMapped, host.Offset)
	}

	return sec.addr + host.Offset, nil
}

// Slice implements the emulator.AddressMapper interface.
func (sm *sectionMapper) Slice(host emulator.HostAddr) ([]byte, error) {
	if host.Area != emulator.AreaSection || host.Section >= len(sm.sections) {
		return nil, curated.Errorf(emulator.AddressNotMapped, host.Offset)
	}

	sec := sm.sections[host.Section]
	if sec.data == nil || host.Offset >= uint32(len(sec.data)) {
		return nil, curated.Errorf(emulator.AddressNotMapped, host.Offset)
	}

	return sec.data[host.Offset:], nil
}
