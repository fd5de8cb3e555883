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

package emulator_test

import (
	"encoding/binary"
	"testing"

	"github.com/jetsetilly/armrecomp/arm"
	"github.com/jetsetilly/armrecomp/curated"
	"github.com/jetsetilly/armrecomp/emulator"
	"github.com/jetsetilly/armrecomp/test"
)

// loadProgram writes instruction words into the heap window and returns
// an emulator ready to execute them.
func loadProgram(state *emulator.ExecutionState, words ...uint32) *emulator.Emulator {
	for i, w := range words {
		binary.LittleEndian.PutUint32(state.Memory[i*4:], w)
	}
	return emulator.NewEmulator(state, state.MMap.MemoryBase)
}

func TestStep_addCarry(t *testing.T) {
	state := emulator.NewExecutionState(emulator.NewMemoryMap())
	state.R[arm.R0] = 0xffffffff

	// adds r1, r0, #1
	emu := loadProgram(state, 0xe2901001)

	var instr arm.Instruction
	running, err := emu.Step(&instr)
	test.Equate(t, running, true)
	test.ExpectedSuccess(t, err)

	test.DemandEquality(t, state.R[arm.R1], 0)
	test.Equate(t, state.Negative, false)
	test.Equate(t, state.Zero, true)
	test.Equate(t, state.Carry, true)
	test.Equate(t, state.Overflow, false)
}

func TestStep_conditionSkip(t *testing.T) {
	state := emulator.NewExecutionState(emulator.NewMemoryMap())

	// addeq r1, r0, #1 with Z clear must change nothing but the program
	// counter
	emu := loadProgram(state, 0x02801001)

	registers := state.R
	var instr arm.Instruction
	running, err := emu.Step(&instr)
	test.Equate(t, running, true)
	test.ExpectedSuccess(t, err)

	test.DemandEquality(t, state.R[arm.PC], registers[arm.PC]+4)
	for i := 0; i < int(arm.PC); i++ {
		test.DemandEquality(t, state.R[i], registers[i])
	}
	test.Equate(t, state.Negative, false)
	test.Equate(t, state.Zero, false)
	test.Equate(t, state.Carry, false)
	test.Equate(t, state.Overflow, false)
}

func TestStep_pcReadBias(t *testing.T) {
	state := emulator.NewExecutionState(emulator.NewMemoryMap())

	// add r1, pc, #0. the program counter has advanced past the
	// instruction by the time the operand is read
	emu := loadProgram(state, 0xe28f1000)

	var instr arm.Instruction
	_, err := emu.Step(&instr)
	test.ExpectedSuccess(t, err)
	test.DemandEquality(t, state.R[arm.R1], state.MMap.MemoryBase+12)
}

func TestStep_invalidInstruction(t *testing.T) {
	state := emulator.NewExecutionState(emulator.NewMemoryMap())
	emu := loadProgram(state, 0xec000000)

	var instr arm.Instruction
	running, err := emu.Step(&instr)
	test.Equate(t, running, true)
	test.ExpectedFailure(t, err)
	test.Equate(t, curated.Is(err, emulator.InvalidInstruction), true)
}

func TestStep_endOfCode(t *testing.T) {
	state := emulator.NewExecutionState(emulator.NewMemoryMap())
	emu := emulator.NewEmulator(state, 0x00000000)

	// address zero is outside both the stack and heap windows
	var instr arm.Instruction
	running, err := emu.Step(&instr)
	test.Equate(t, running, false)
	test.ExpectedSuccess(t, err)
}

func TestStep_noOpGroups(t *testing.T) {
	state := emulator.NewExecutionState(emulator.NewMemoryMap())

	// branches are not modelled. the program counter advances linearly
	emu := loadProgram(state, 0xeafffffe, 0xe3a01005)

	var instr arm.Instruction
	_, err := emu.Step(&instr)
	test.ExpectedSuccess(t, err)
	test.DemandEquality(t, instr.Group, arm.GroupBranch)

	_, err = emu.Step(&instr)
	test.ExpectedSuccess(t, err)
	test.DemandEquality(t, instr.Group, arm.GroupDataProcessing)
	test.DemandEquality(t, state.R[arm.R1], 5)
}
