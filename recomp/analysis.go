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
	"fmt"

	"github.com/jetsetilly/armrecomp/arm"
	"github.com/jetsetilly/armrecomp/curated"
	"github.com/jetsetilly/armrecomp/emulator"
	"github.com/jetsetilly/armrecomp/logger"
)

// Analyze builds the GOT, dependency and export maps by walking the
// binary's relocation and symbol tables and by emulating the procedure
// linkage table.
//
// The PLT-dependent steps run only if the binary has both a .plt section
// and dynamic symbols. A missing dynamic relocation table is not an
// error.
func (rec *Recompiler) Analyze() error {
	if err := rec.analyzeRelocDyn(); err != nil {
		return err
	}

	// only analyze the PLT if we have both
	if rec.plt != nil && len(rec.dynsym) > 0 {
		if err := rec.analyzeRelocPLT(); err != nil {
			return err
		}
		if err := rec.analyzeMapPLT(); err != nil {
			return err
		}
	}

	return rec.analyzeExports()
}

// analyzeRelocDyn collects the entries of the dynamic relocation table.
// they are later used to build the virtual GOT of the regenerated
// project.
func (rec *Recompiler) analyzeRelocDyn() error {
	if rec.relDyn == nil {
		logger.Log(logger.Allow, "recomp", "dynamic relocation table is not present")
		return nil
	}

	rels, err := rec.relocations(rec.relDyn)
	if err != nil {
		return err
	}

	for _, rel := range rels {
		sym, ok := rec.dynamicSymbol(rel.SymbolIdx)
		if !ok {
			continue
		}
		rec.GOTMappings = append(rec.GOTMappings, GOTMapping{
			Offset: rel.Offset,
			Value:  uint32(sym.Value),
		})
	}

	logger.Logf(logger.Allow, "recomp", "mapped %d symbols from dynamic relocations", len(rec.GOTMappings))
	return nil
}

// analyzeRelocPLT walks the PLT relocation table for the functions the
// binary depends on. a dependency with a zero symbol value is expected to
// be provided by the linker (external); a non-zero value means the
// function lives in the binary itself.
func (rec *Recompiler) analyzeRelocPLT() error {
	rels, err := rec.relocations(rec.relPlt)
	if err != nil {
		return err
	}

	for _, rel := range rels {
		sym, ok := rec.dynamicSymbol(rel.SymbolIdx)
		name := sym.Name
		if !ok || name == "" {
			name = fmt.Sprintf("unnamed_0x%x", rel.Offset)
		}

		value := uint32(sym.Value)
		address := value
		if value == 0 {
			address = rel.Offset
		} else {
			logger.Logf(logger.Allow, "recomp", "%s is internal", name)
		}

		rec.Deps[rel.Offset] = &Function{
			Name:       name,
			Address:    address,
			IsExternal: value == 0,
		}
	}

	logger.Logf(logger.Allow, "recomp", "found %d dependency functions", len(rec.Deps))
	return nil
}

// analyzeMapPLT emulates the procedure linkage table to decide which
// range of PLT addresses dispatches to which dependency.
//
// Each PLT entry finishes with a load into the program counter whose base
// register has been walked to the GOT entry of the dependency. when such
// an instruction executes, every address from the start of the current
// entry to the instruction after the load maps to that dependency.
func (rec *Recompiler) analyzeMapPLT() error {
	mapper, err := newSectionMapper(rec.ef)
	if err != nil {
		return err
	}

	state := emulator.NewExecutionState(emulator.NewMemoryMap())
	state.Mem = mapper

	emu := emulator.NewEmulator(state, uint32(rec.plt.Addr))
	start := uint32(rec.plt.Addr)

	var instr arm.Instruction
	for {
		ok, err := emu.Step(&instr)
		if !ok {
			// the program counter has walked off the end of the mapped
			// sections. this is the expected terminator
			break
		}
		if err != nil {
			// an unmapped data access also terminates the walk. anything
			// else may be a decoder problem and is worth surfacing
			if !curated.Has(err, emulator.AddressNotMapped) {
				logger.Logf(logger.Allow, "recomp", "plt walk: %v", err)
			}
			break
		}

		if instr.Group != arm.GroupSingleDataTransfer || !instr.DataTrans.Load || instr.DataTrans.Rd != arm.PC {
			continue
		}

		// the base register has overshot the GOT entry by the pipeline
		// read bias of the first add in the stub
		result := state.R[instr.DataTrans.Rn] - 4
		fn, ok := rec.Deps[result]
		if !ok {
			continue
		}

		end := state.R[arm.PC] - emulator.PCReadBias
		for i := start; i < end; i++ {
			rec.PLTMap[i] = fn
		}
		start = end
	}

	logger.Logf(logger.Allow, "recomp", "mapped %d plt addresses", len(rec.PLTMap))
	return nil
}

// analyzeExports collects the functions the binary exports: global or
// weak function symbols defined in the .text section.
func (rec *Recompiler) analyzeExports() error {
	for _, sym := range rec.dynsym {
		bind := elf.ST_BIND(sym.Info)
		if bind != elf.STB_GLOBAL && bind != elf.STB_WEAK {
			continue
		}
		if elf.ST_TYPE(sym.Info) != elf.STT_FUNC {
			continue
		}
		if sym.Section == elf.SHN_UNDEF || sym.Section != rec.textIndex {
			continue
		}

		rec.Exports[uint32(sym.Value)] = &Function{
			Name:       sym.Name,
			Address:    uint32(sym.Value),
			IsExternal: false,
		}
	}

	logger.Logf(logger.Allow, "recomp", "found %d exported functions", len(rec.Exports))
	return nil
}
