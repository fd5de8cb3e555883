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

package arm_test

import (
	"testing"

	"github.com/jetsetilly/armrecomp/arm"
	"github.com/jetsetilly/armrecomp/test"
)

func TestDecode_conditionField(t *testing.T) {
	// the condition field must be populated for every word, including
	// words that decode to no instruction group
	words := []uint32{
		0x00000000, 0xffffffff, 0xe3a01005, 0x1afffffe,
		0x8e000000, 0x712fff11, 0xc0810002, 0x46123456,
	}

	for _, w := range words {
		instr := arm.Decode(w)
		test.DemandEquality(t, uint8(instr.Cond), uint8(w>>28))
	}
}

func TestDecode_dataProcessingImmediate(t *testing.T) {
	// mov r1, #5
	instr := arm.Decode(0xe3a01005)
	test.DemandEquality(t, instr.Group, arm.GroupDataProcessing)
	test.DemandEquality(t, instr.Cond, arm.AL)
	test.DemandEquality(t, instr.Data.Op, arm.MOV)
	test.DemandEquality(t, instr.Data.Rd, arm.R1)
	test.Equate(t, instr.IsImm, true)
	test.Equate(t, instr.SetCond, false)
	test.DemandEquality(t, instr.Data.Imm, 5)
}

func TestDecode_immediateRotation(t *testing.T) {
	// mov r0, #0x3f000000 is encoded as 0x3f rotated right by 8 (rotate
	// field of 4)
	instr := arm.Decode(0xe3a0043f)
	test.DemandEquality(t, instr.Group, arm.GroupDataProcessing)
	test.DemandEquality(t, instr.Data.Imm, 0x3f000000)

	// rotation by zero leaves the 8-bit value in place
	instr = arm.Decode(0xe3a000ff)
	test.DemandEquality(t, instr.Data.Imm, 0xff)
}

func TestDecode_dataProcessingShifter(t *testing.T) {
	// add r3, r1, r2, lsl #4
	instr := arm.Decode(0xe0813202)
	test.DemandEquality(t, instr.Group, arm.GroupDataProcessing)
	test.DemandEquality(t, instr.Data.Op, arm.ADD)
	test.DemandEquality(t, instr.Data.Rd, arm.R3)
	test.DemandEquality(t, instr.Data.Rn, arm.R1)
	test.Equate(t, instr.IsImm, false)
	test.DemandEquality(t, instr.Data.Shift.Type, arm.LSL)
	test.DemandEquality(t, instr.Data.Shift.Rm, arm.R2)
	test.Equate(t, instr.Data.Shift.IsReg, false)
	test.DemandEquality(t, instr.Data.Shift.AmountOrRs, 4)

	// add r3, r1, r2, lsr r5
	instr = arm.Decode(0xe0813532)
	test.DemandEquality(t, instr.Data.Shift.Type, arm.LSR)
	test.Equate(t, instr.Data.Shift.IsReg, true)
	test.DemandEquality(t, instr.Data.Shift.AmountOrRs, 5)
}

func TestDecode_multiply(t *testing.T) {
	// mul r1, r2, r3
	instr := arm.Decode(0xe0010392)
	test.DemandEquality(t, instr.Group, arm.GroupMultiply)
	test.Equate(t, instr.Mul.Accumulate, false)
	test.DemandEquality(t, instr.Mul.Rd, arm.R1)
	test.DemandEquality(t, instr.Mul.Rs, arm.R3)
	test.DemandEquality(t, instr.Mul.Rm, arm.R2)

	// mla r1, r2, r3, r4
	instr = arm.Decode(0xe0214392)
	test.DemandEquality(t, instr.Group, arm.GroupMultiply)
	test.Equate(t, instr.Mul.Accumulate, true)
	test.DemandEquality(t, instr.Mul.Rn, arm.R4)
}

func TestDecode_multiplyLong(t *testing.T) {
	// umull r1, r2, r3, r4
	instr := arm.Decode(0xe0821493)
	test.DemandEquality(t, instr.Group, arm.GroupMultiplyLong)
	test.Equate(t, instr.MulLong.Signed, false)
	test.Equate(t, instr.MulLong.Accumulate, false)
	test.DemandEquality(t, instr.MulLong.RdHi, arm.R2)
	test.DemandEquality(t, instr.MulLong.RdLo, arm.R1)
	test.DemandEquality(t, instr.MulLong.Rs, arm.R4)
	test.DemandEquality(t, instr.MulLong.Rm, arm.R3)

	// smlal r1, r2, r3, r4
	instr = arm.Decode(0xe0e21493)
	test.Equate(t, instr.MulLong.Signed, true)
	test.Equate(t, instr.MulLong.Accumulate, true)
}

func TestDecode_singleDataSwap(t *testing.T) {
	// swp r1, r2, [r3]
	instr := arm.Decode(0xe1031092)
	test.DemandEquality(t, instr.Group, arm.GroupSingleDataSwap)
	test.Equate(t, instr.Swap.Byte, false)
	test.DemandEquality(t, instr.Swap.Rn, arm.R3)
	test.DemandEquality(t, instr.Swap.Rd, arm.R1)
	test.DemandEquality(t, instr.Swap.Rm, arm.R2)

	// swpb r1, r2, [r3]
	instr = arm.Decode(0xe1431092)
	test.DemandEquality(t, instr.Group, arm.GroupSingleDataSwap)
	test.Equate(t, instr.Swap.Byte, true)
}

func TestDecode_branchExchange(t *testing.T) {
	// bx lr
	instr := arm.Decode(0xe12fff1e)
	test.DemandEquality(t, instr.Group, arm.GroupBranchExchange)
	test.DemandEquality(t, instr.BranchEx.Rm, arm.LR)
}

func TestDecode_halfwordDataTransfer(t *testing.T) {
	// ldrh r1, [r2, #0x21] with the offset split across the two nibbles
	instr := arm.Decode(0xe1d212b1)
	test.DemandEquality(t, instr.Group, arm.GroupHalfwordDataTransfer)
	test.Equate(t, instr.IsImm, true)
	test.Equate(t, instr.HwTrans.Load, true)
	test.DemandEquality(t, instr.HwTrans.Rn, arm.R2)
	test.DemandEquality(t, instr.HwTrans.Rd, arm.R1)
	test.DemandEquality(t, instr.HwTrans.Type, arm.TransferUnsignedHalfword)
	test.DemandEquality(t, instr.HwTrans.OffsetImm, 0x21)

	// ldrsb r1, [r2, r3]
	instr = arm.Decode(0xe19210d3)
	test.DemandEquality(t, instr.Group, arm.GroupHalfwordDataTransfer)
	test.Equate(t, instr.IsImm, false)
	test.DemandEquality(t, instr.HwTrans.Type, arm.TransferSignedByte)
	test.DemandEquality(t, instr.HwTrans.Rm, arm.R3)
}

func TestDecode_singleDataTransfer(t *testing.T) {
	// ldr r1, [r2, #8]
	instr := arm.Decode(0xe5921008)
	test.DemandEquality(t, instr.Group, arm.GroupSingleDataTransfer)
	test.Equate(t, instr.IsImm, true)
	test.Equate(t, instr.DataTrans.PreIndex, true)
	test.Equate(t, instr.DataTrans.Add, true)
	test.Equate(t, instr.DataTrans.Load, true)
	test.DemandEquality(t, instr.DataTrans.Rn, arm.R2)
	test.DemandEquality(t, instr.DataTrans.Rd, arm.R1)
	test.DemandEquality(t, instr.DataTrans.OffsetImm, uint16(8))

	// strb r1, [r2], -r3
	instr = arm.Decode(0xe6421003)
	test.DemandEquality(t, instr.Group, arm.GroupSingleDataTransfer)
	test.Equate(t, instr.IsImm, false)
	test.Equate(t, instr.DataTrans.PreIndex, false)
	test.Equate(t, instr.DataTrans.Add, false)
	test.Equate(t, instr.DataTrans.Byte, true)
	test.Equate(t, instr.DataTrans.Load, false)
	test.DemandEquality(t, instr.DataTrans.OffsetShift.Rm, arm.R3)
}

func TestDecode_blockDataTransfer(t *testing.T) {
	// push {r4, r5, lr} (stmdb sp!, ...)
	instr := arm.Decode(0xe92d4030)
	test.DemandEquality(t, instr.Group, arm.GroupBlockDataTransfer)
	test.Equate(t, instr.BlkTrans.PreIndex, true)
	test.Equate(t, instr.BlkTrans.Add, false)
	test.Equate(t, instr.BlkTrans.WriteBack, true)
	test.Equate(t, instr.BlkTrans.Load, false)
	test.DemandEquality(t, instr.BlkTrans.Rn, arm.SP)
	test.DemandEquality(t, instr.BlkTrans.RegList, uint16(0x4030))
}

func TestDecode_branch(t *testing.T) {
	// b . (branch to self is an offset of -8)
	instr := arm.Decode(0xeafffffe)
	test.DemandEquality(t, instr.Group, arm.GroupBranch)
	test.DemandEquality(t, instr.Cond, arm.AL)
	test.Equate(t, instr.Branch.Link, false)
	test.DemandEquality(t, instr.Branch.Offset, int32(-8))

	// bl with a positive offset
	instr = arm.Decode(0xeb000010)
	test.Equate(t, instr.Branch.Link, true)
	test.DemandEquality(t, instr.Branch.Offset, int32(0x40))
}

func TestDecode_softwareInterrupt(t *testing.T) {
	instr := arm.Decode(0xef000042)
	test.DemandEquality(t, instr.Group, arm.GroupSoftwareInterrupt)
}

func TestDecode_invalid(t *testing.T) {
	// coprocessor data transfer is not a recognised group
	instr := arm.Decode(0xec000000)
	test.DemandEquality(t, instr.Group, arm.GroupInvalid)
	test.DemandEquality(t, instr.Cond, arm.AL)
}
