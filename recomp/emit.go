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
	"bufio"
	"debug/elf"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jetsetilly/armrecomp/arm"
	"github.com/jetsetilly/armrecomp/curated"
	"github.com/jetsetilly/armrecomp/logger"
)

// Emit runs the analysis and writes the regenerated project to
// outputDir: a Makefile, code and data headers, a data source with the
// virtual GOT, and a code source that replays every instruction of the
// .text section through the runtime support library. instructions of
// other sections, .plt included, are not emitted.
func (rec *Recompiler) Emit(outputDir string) error {
	if err := rec.Analyze(); err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return curated.Errorf("emit: %v", err)
	}

	for _, e := range []struct {
		filename string
		emit     func(io.Writer) error
	}{
		{"Makefile", rec.emitMakefile},
		{"program.h", rec.emitCodeHeader},
		{"program.cpp", rec.emitCodeSource},
		{"data.h", rec.emitDataHeader},
		{"data.cpp", rec.emitDataSource},
	} {
		if err := rec.emitFile(outputDir, e.filename, e.emit); err != nil {
			return err
		}
	}

	return nil
}

func (rec *Recompiler) emitFile(outputDir string, filename string, emit func(io.Writer) error) error {
	f, err := os.Create(filepath.Join(outputDir, filename))
	if err != nil {
		return curated.Errorf("emit: %v", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := emit(w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return curated.Errorf("emit: %v", err)
	}

	logger.Logf(logger.Allow, "recomp", "wrote %s", filename)
	return nil
}

func (rec *Recompiler) emitMakefile(w io.Writer) error {
	fmt.Fprintln(w, "CXX ?= g++")
	fmt.Fprintln(w, "CXXFLAGS += -std=c++17 -O2 -I.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "all: program.o data.o")
	fmt.Fprintln(w)
	io.WriteString(w, "%.o: %.cpp program.h data.h\n")
	fmt.Fprintln(w, "\t$(CXX) $(CXXFLAGS) -c $< -o $@")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "clean:")
	fmt.Fprintln(w, "\trm -f program.o data.o")
	return nil
}

func (rec *Recompiler) emitDataHeader(w io.Writer) error {
	fmt.Fprintln(w, "#pragma once")
	fmt.Fprintln(w, "#include <cstdint>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "struct GotMapping {")
	fmt.Fprintln(w, "  uint32_t offset;")
	fmt.Fprintln(w, "  uint32_t value;")
	fmt.Fprintln(w, "};")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "extern const GotMapping got_mappings[%d];\n", len(rec.GOTMappings))
	return nil
}

func (rec *Recompiler) emitDataSource(w io.Writer) error {
	fmt.Fprintln(w, "#include \"data.h\"")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "const GotMapping got_mappings[%d] = {\n", len(rec.GOTMappings))
	for _, m := range rec.GOTMappings {
		fmt.Fprintf(w, "  {0x%x, 0x%x},\n", m.Offset, m.Value)
	}
	fmt.Fprintln(w, "};")
	return nil
}

// sortedFunctions returns the values of a function map in address order
// so that emission is deterministic from run to run.
func sortedFunctions(m map[uint32]*Function) []*Function {
	funcs := make([]*Function, 0, len(m))
	for _, f := range m {
		funcs = append(funcs, f)
	}
	sort.Slice(funcs, func(i, j int) bool {
		return funcs[i].Address < funcs[j].Address
	})
	return funcs
}

func (rec *Recompiler) emitCodeHeader(w io.Writer) error {
	fmt.Fprintln(w, "#pragma once")
	fmt.Fprintln(w, "#include <liblayer/liblayer.hpp>")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "// dependency functions. external dependencies are expected to be")
	fmt.Fprintln(w, "// provided by the layer library or by the linking program")
	for _, f := range sortedFunctions(rec.Deps) {
		fmt.Fprintf(w, "void %s(ExecutionState &ps);\n", f.Name)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "// exported functions")
	for _, f := range sortedFunctions(rec.Exports) {
		fmt.Fprintf(w, "void %s(ExecutionState &ps);\n", f.Name)
	}

	return nil
}

func (rec *Recompiler) emitCodeSource(w io.Writer) error {
	fmt.Fprintln(w, "#include \"program.h\"")
	fmt.Fprintln(w, "#include \"data.h\"")
	fmt.Fprintln(w, "#include <stdexcept>")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "static void run(ExecutionState &ps, uint32_t addr);")
	fmt.Fprintln(w)

	// exported functions enter the translated section at their address
	for _, f := range sortedFunctions(rec.Exports) {
		fmt.Fprintf(w, "void %s(ExecutionState &ps) { run(ps, 0x%x); }\n", f.Name, f.Address)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "static void run(ExecutionState &ps, uint32_t addr) {")
	fmt.Fprintln(w, "  switch (addr) {")

	if err := rec.emitCodeSection(w, rec.text); err != nil {
		return err
	}

	fmt.Fprintln(w, "  default:")
	fmt.Fprintln(w, "    throw std::runtime_error(\"run: unknown address\");")
	fmt.Fprintln(w, "  }")
	fmt.Fprintln(w, "}")
	return nil
}

// emitCodeSection translates every word of a section. each instruction
// becomes a case label, so that execution can enter at any address, and
// falls through to the next.
func (rec *Recompiler) emitCodeSection(w io.Writer, sec *elf.Section) error {
	data, err := sec.Data()
	if err != nil {
		return curated.Errorf("emit: %v", err)
	}

	for i := 0; i+4 <= len(data); i += 4 {
		addr := uint32(sec.Addr) + uint32(i)
		instr := arm.Decode(binary.LittleEndian.Uint32(data[i:]))

		if rec.minify {
			fmt.Fprintf(w, "  case 0x%x:\n", addr)
		} else {
			fmt.Fprintf(w, "  case 0x%x: // %s\n", addr, instr)
		}
		rec.emitCodeARM(w, instr, addr)
	}

	return nil
}

// guarded wraps stmt in the condition macro of the instruction. the
// macros expand to nothing being executed when the flags do not satisfy
// the condition.
func guarded(instr arm.Instruction, stmt string) string {
	if instr.Cond == arm.AL {
		return fmt.Sprintf("%s;", stmt)
	}
	return fmt.Sprintf("COND_%s(%s;);", strings.ToUpper(instr.Cond.String()), stmt)
}

// operand2 renders the second operand of a data operation: an immediate
// value or a barrel-shifter expression.
func operand2(isImm bool, imm uint32, shift arm.Shifter) string {
	if isImm {
		return fmt.Sprintf("0x%x", imm)
	}

	amount := fmt.Sprintf("%d", shift.AmountOrRs)
	if shift.IsReg {
		amount = fmt.Sprintf("ps.r[%d]", shift.AmountOrRs)
	}
	return fmt.Sprintf("op2_%s(ps.r[%d], %s)", shift.Type, shift.Rm, amount)
}

func cbool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func (rec *Recompiler) emitCodeARM(w io.Writer, instr arm.Instruction, addr uint32) {
	indent := "    "

	switch instr.Group {
	case arm.GroupDataProcessing:
		stmt := fmt.Sprintf("ps.arm_%s(%s, %d, %d, %s)",
			instr.Data.Op, cbool(instr.SetCond), instr.Data.Rd, instr.Data.Rn,
			operand2(instr.IsImm, instr.Data.Imm, instr.Data.Shift))
		fmt.Fprintf(w, "%s%s\n", indent, guarded(instr, stmt))

	case arm.GroupMultiply:
		name := "arm_mul"
		if instr.Mul.Accumulate {
			name = "arm_mla"
		}
		stmt := fmt.Sprintf("ps.%s(%s, %d, %d, %d, %d)",
			name, cbool(instr.SetCond), instr.Mul.Rd, instr.Mul.Rn, instr.Mul.Rs, instr.Mul.Rm)
		fmt.Fprintf(w, "%s%s\n", indent, guarded(instr, stmt))

	case arm.GroupMultiplyLong:
		name := "arm_mull"
		if instr.MulLong.Accumulate {
			name = "arm_mlal"
		}
		stmt := fmt.Sprintf("ps.%s(%s, %s, %d, %d, %d, %d)",
			name, cbool(instr.SetCond), cbool(instr.MulLong.Signed),
			instr.MulLong.RdHi, instr.MulLong.RdLo, instr.MulLong.Rs, instr.MulLong.Rm)
		fmt.Fprintf(w, "%s%s\n", indent, guarded(instr, stmt))

	case arm.GroupSingleDataTransfer:
		name := "arm_str"
		if instr.DataTrans.Load {
			name = "arm_ldr"
		}
		offset := fmt.Sprintf("0x%x", instr.DataTrans.OffsetImm)
		if !instr.IsImm {
			offset = operand2(false, 0, instr.DataTrans.OffsetShift)
		}
		stmt := fmt.Sprintf("ps.%s(%s, %s, %s, %s, %d, %d, %s, true)",
			name, cbool(instr.DataTrans.PreIndex), cbool(instr.DataTrans.Add),
			cbool(instr.DataTrans.Byte), cbool(instr.DataTrans.WriteBack),
			instr.DataTrans.Rn, instr.DataTrans.Rd, offset)
		fmt.Fprintf(w, "%s%s\n", indent, guarded(instr, stmt))

	case arm.GroupHalfwordDataTransfer:
		name := "arm_strh"
		if instr.HwTrans.Load {
			name = "arm_ldrh"
		}
		offset := fmt.Sprintf("0x%x", instr.HwTrans.OffsetImm)
		if !instr.IsImm {
			offset = fmt.Sprintf("ps.r[%d]", instr.HwTrans.Rm)
		}
		stmt := fmt.Sprintf("ps.%s(%s, %s, %s, %d, %d, %d, %s)",
			name, cbool(instr.HwTrans.PreIndex), cbool(instr.HwTrans.Add),
			cbool(instr.HwTrans.WriteBack), instr.HwTrans.Rn, instr.HwTrans.Rd,
			instr.HwTrans.Type, offset)
		fmt.Fprintf(w, "%s%s\n", indent, guarded(instr, stmt))

	case arm.GroupBlockDataTransfer:
		name := "arm_stm"
		if instr.BlkTrans.Load {
			name = "arm_ldm"
		}
		stmt := fmt.Sprintf("ps.%s(%s, %s, %s, %d, 0x%x, true)",
			name, cbool(instr.BlkTrans.PreIndex), cbool(instr.BlkTrans.Add),
			cbool(instr.BlkTrans.WriteBack), instr.BlkTrans.Rn, instr.BlkTrans.RegList)
		fmt.Fprintf(w, "%s%s\n", indent, guarded(instr, stmt))

	case arm.GroupBranch:
		// the branch target is relative to the executing address plus the
		// pipeline bias
		target := addr + 8 + uint32(instr.Branch.Offset)
		stmt := fmt.Sprintf("run(ps, 0x%x); return", target)
		if instr.Branch.Link {
			stmt = fmt.Sprintf("ps.r[REG_LR] = 0x%x; run(ps, 0x%x)", addr+4, target)
		}
		fmt.Fprintf(w, "%s%s\n", indent, guarded(instr, stmt))

	case arm.GroupBranchExchange:
		if instr.BranchEx.Rm == arm.LR {
			fmt.Fprintf(w, "%s%s\n", indent, guarded(instr, "return"))
		} else {
			stmt := fmt.Sprintf("run(ps, ps.r[%d]); return", instr.BranchEx.Rm)
			fmt.Fprintf(w, "%s%s\n", indent, guarded(instr, stmt))
		}

	case arm.GroupSingleDataSwap, arm.GroupSoftwareInterrupt:
		rec.emitCodeInvalid(w, instr, addr, "unsupported instruction")

	case arm.GroupInvalid:
		rec.emitCodeInvalid(w, instr, addr, "invalid instruction")
	}
}

func (rec *Recompiler) emitCodeInvalid(w io.Writer, instr arm.Instruction, addr uint32, detail string) {
	fmt.Fprintf(w, "    throw std::runtime_error(\"%s (addr = 0x%x, raw = 0x%08x)\");\n",
		detail, addr, instr.Raw)
}
