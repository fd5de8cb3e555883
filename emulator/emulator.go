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

package emulator

import (
	"encoding/binary"

	"github.com/jetsetilly/armrecomp/arm"
	"github.com/jetsetilly/armrecomp/curated"
)

// InvalidInstruction is a sentinel error for words that decode to no
// instruction group.
const InvalidInstruction = "invalid instruction: %#08x"

// Emulator runs the fetch/decode/dispatch loop over an ExecutionState.
//
// Only the instruction groups encountered in procedure-linkage-table
// stubs are dispatched: data-processing, multiply and single data
// transfer. GroupInvalid is an error; every other group is a no-op.
type Emulator struct {
	State *ExecutionState
}

// NewEmulator is the preferred method of initialisation for the Emulator
// type.
func NewEmulator(state *ExecutionState, addr uint32) *Emulator {
	emu := &Emulator{State: state}
	emu.SetAddress(addr)
	return emu
}

// SetAddress seats the program counter so that the instruction at addr is
// the next to execute. the register carries the pipeline read bias.
func (emu *Emulator) SetAddress(addr uint32) {
	emu.State.R[arm.PC] = addr + PCReadBias
}

// Step executes a single instruction, writing the decoded form to instr.
//
// The return value is false only when the program counter can no longer
// be resolved to host memory, which marks the end of reachable code. a
// failed condition check is not an error; the instruction is skipped.
func (emu *Emulator) Step(instr *arm.Instruction) (bool, error) {
	st := emu.State

	host, err := st.Mem.Resolve(st.R[arm.PC] - PCReadBias)
	if err != nil {
		return false, nil
	}
	s, err := st.Mem.Slice(host)
	if err != nil || len(s) < 4 {
		return false, nil
	}

	raw := binary.LittleEndian.Uint32(s)
	st.R[arm.PC] += 4

	*instr = arm.Decode(raw)

	if !st.CheckCondition(instr.Cond) {
		return true, nil
	}

	switch instr.Group {
	case arm.GroupDataProcessing:
		emu.dataProcessing(instr)

	case arm.GroupMultiply:
		if instr.Mul.Accumulate {
			st.Mla(instr.SetCond, instr.Mul.Rd, instr.Mul.Rn, instr.Mul.Rs, instr.Mul.Rm)
		} else {
			st.Mul(instr.SetCond, instr.Mul.Rd, instr.Mul.Rn, instr.Mul.Rs, instr.Mul.Rm)
		}

	case arm.GroupSingleDataTransfer:
		var offset uint32
		if instr.IsImm {
			offset = uint32(instr.DataTrans.OffsetImm)
		} else {
			offset = st.ShifterOperand(instr.DataTrans.OffsetShift)
		}

		// the transfer itself is not performed. only the addressing and
		// the write-back are needed to follow a PLT stub, and a load into
		// the program counter must not divert the walk
		if instr.DataTrans.Load {
			err = st.Ldr(instr.DataTrans.PreIndex, instr.DataTrans.Add,
				instr.DataTrans.Byte, instr.DataTrans.WriteBack,
				instr.DataTrans.Rn, instr.DataTrans.Rd, offset, false)
		} else {
			err = st.Str(instr.DataTrans.PreIndex, instr.DataTrans.Add,
				instr.DataTrans.Byte, instr.DataTrans.WriteBack,
				instr.DataTrans.Rn, instr.DataTrans.Rd, offset, false)
		}
		if err != nil {
			return true, err
		}

	case arm.GroupInvalid:
		return true, curated.Errorf(InvalidInstruction, instr.Raw)

	default:
		// sufficient for PLT stubs
	}

	return true, nil
}

func (emu *Emulator) dataProcessing(instr *arm.Instruction) {
	st := emu.State

	var operand uint32
	if instr.IsImm {
		operand = instr.Data.Imm
	} else {
		operand = st.ShifterOperand(instr.Data.Shift)
	}

	op := dataOperations[instr.Data.Op&0x0f]
	op(st, instr.SetCond, instr.Data.Rd, instr.Data.Rn, operand)
}

// dataOperations dispatches a data-processing opcode to its semantic
// operation, in encoding order.
var dataOperations = [16]func(st *ExecutionState, s bool, rd, rn arm.Register, imm uint32){
	arm.AND: (*ExecutionState).And,
	arm.EOR: (*ExecutionState).Eor,
	arm.SUB: (*ExecutionState).Sub,
	arm.RSB: (*ExecutionState).Rsb,
	arm.ADD: (*ExecutionState).Add,
	arm.ADC: (*ExecutionState).Adc,
	arm.SBC: (*ExecutionState).Sbc,
	arm.RSC: (*ExecutionState).Rsc,
	arm.TST: (*ExecutionState).Tst,
	arm.TEQ: (*ExecutionState).Teq,
	arm.CMP: (*ExecutionState).Cmp,
	arm.CMN: (*ExecutionState).Cmn,
	arm.ORR: (*ExecutionState).Orr,
	arm.MOV: (*ExecutionState).Mov,
	arm.BIC: (*ExecutionState).Bic,
	arm.MVN: (*ExecutionState).Mvn,
}
