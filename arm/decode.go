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

package arm

import (
	"math/bits"
)

// getBits returns the w bits of v starting at bit n.
func getBits(v uint32, n, w int) uint32 {
	return (v >> n) & ((1 << w) - 1)
}

func getBit(v uint32, n int) bool {
	return (v>>n)&0x01 == 0x01
}

// signExtend treats value as a two's complement number of the given width.
func signExtend(value uint32, width int) int32 {
	if getBit(value, width-1) {
		return int32(value | ^uint32(0)<<width)
	}
	return int32(value)
}

// Decode a raw 32-bit instruction word. Decoding has no failure path;
// encodings that match no instruction group return an Instruction with
// GroupInvalid and the condition field populated.
func Decode(word uint32) Instruction {
	instr := Instruction{
		Raw:   word,
		Cond:  Condition(getBits(word, 28, 4)),
		Group: GroupInvalid,
	}

	switch getBits(word, 26, 2) {
	case 0b00:
		switch getBits(word, 4, 4) {
		case 0b1001:
			// multiply / multiply long / single data swap
			sel := getBits(word, 23, 5)

			if sel == 0b00000 {
				instr.decodeMultiply(word)
				return instr
			}
			if sel == 0b00001 {
				instr.decodeMultiplyLong(word)
				return instr
			}
			if sel == 0b00010 && getBits(word, 8, 4) == 0b0000 {
				instr.decodeSingleDataSwap(word)
				return instr
			}

		case 0b0001:
			if getBits(word, 4, 24) == 0b0001_0010_1111_1111_1111_0001 {
				instr.decodeBranchExchange(word)
				return instr
			}
		}

		// halfword data transfer. the immediate variant is selected by bit
		// 22; the register variant additionally requires bits 11..8 clear
		if !getBit(word, 25) && getBit(word, 7) && getBit(word, 4) {
			if getBit(word, 22) {
				instr.decodeHalfwordDataTransfer(word, true)
				return instr
			} else if getBits(word, 8, 4) == 0b0000 {
				instr.decodeHalfwordDataTransfer(word, false)
				return instr
			}
		}

		instr.decodeDataProcessing(word)

	case 0b01:
		instr.decodeSingleDataTransfer(word)

	case 0b10:
		if getBit(word, 25) {
			instr.decodeBranch(word)
		} else {
			instr.decodeBlockDataTransfer(word)
		}

	case 0b11:
		// both bits 25..24 must be set for SWI. anything else in this
		// quadrant is a coprocessor encoding, which is not supported
		if getBits(word, 24, 2) == 0b11 {
			instr.Group = GroupSoftwareInterrupt
		}
	}

	return instr
}

func (instr *Instruction) decodeDataProcessing(word uint32) {
	instr.Group = GroupDataProcessing

	instr.IsImm = getBit(word, 25)
	instr.SetCond = getBit(word, 20)

	instr.Data.Op = Opcode(getBits(word, 21, 4))
	instr.Data.Rn = Register(getBits(word, 16, 4))
	instr.Data.Rd = Register(getBits(word, 12, 4))

	if instr.IsImm {
		// an 8-bit value rotated right by twice the 4-bit rotate field
		rotate := int(getBits(word, 8, 4)) * 2
		instr.Data.Imm = bits.RotateLeft32(getBits(word, 0, 8), -rotate)
	} else {
		instr.Data.Shift = decodeShifter(word)
	}
}

func (instr *Instruction) decodeMultiply(word uint32) {
	instr.Group = GroupMultiply

	instr.Mul.Accumulate = getBit(word, 21)
	instr.SetCond = getBit(word, 20)

	instr.Mul.Rd = Register(getBits(word, 16, 4))
	instr.Mul.Rn = Register(getBits(word, 12, 4))
	instr.Mul.Rs = Register(getBits(word, 8, 4))
	instr.Mul.Rm = Register(getBits(word, 0, 4))
}

func (instr *Instruction) decodeMultiplyLong(word uint32) {
	instr.Group = GroupMultiplyLong

	instr.MulLong.Signed = getBit(word, 22)
	instr.MulLong.Accumulate = getBit(word, 21)
	instr.SetCond = getBit(word, 20)

	instr.MulLong.RdHi = Register(getBits(word, 16, 4))
	instr.MulLong.RdLo = Register(getBits(word, 12, 4))
	instr.MulLong.Rs = Register(getBits(word, 8, 4))
	instr.MulLong.Rm = Register(getBits(word, 0, 4))
}

func (instr *Instruction) decodeSingleDataTransfer(word uint32) {
	instr.Group = GroupSingleDataTransfer

	// note the inverted sense of the immediate bit for this group
	instr.IsImm = !getBit(word, 25)

	instr.DataTrans.PreIndex = getBit(word, 24)
	instr.DataTrans.Add = getBit(word, 23)
	instr.DataTrans.Byte = getBit(word, 22)
	instr.DataTrans.WriteBack = getBit(word, 21)
	instr.DataTrans.Load = getBit(word, 20)

	instr.DataTrans.Rn = Register(getBits(word, 16, 4))
	instr.DataTrans.Rd = Register(getBits(word, 12, 4))

	if instr.IsImm {
		instr.DataTrans.OffsetImm = uint16(getBits(word, 0, 12))
	} else {
		instr.DataTrans.OffsetShift = decodeShifter(word)
	}
}

func (instr *Instruction) decodeHalfwordDataTransfer(word uint32, imm bool) {
	instr.Group = GroupHalfwordDataTransfer

	instr.IsImm = imm

	instr.HwTrans.PreIndex = getBit(word, 24)
	instr.HwTrans.Add = getBit(word, 23)
	instr.HwTrans.WriteBack = getBit(word, 21)
	instr.HwTrans.Load = getBit(word, 20)

	instr.HwTrans.Rn = Register(getBits(word, 16, 4))
	instr.HwTrans.Rd = Register(getBits(word, 12, 4))
	instr.HwTrans.Type = TransferType(getBits(word, 5, 2))

	if imm {
		// the 8-bit offset is split across two nibbles of the word
		instr.HwTrans.OffsetImm = uint8(getBits(word, 8, 4)<<4 | getBits(word, 0, 4))
	} else {
		instr.HwTrans.Rm = Register(getBits(word, 0, 4))
	}
}

func (instr *Instruction) decodeSingleDataSwap(word uint32) {
	instr.Group = GroupSingleDataSwap

	instr.Swap.Byte = getBit(word, 22)
	instr.Swap.Rn = Register(getBits(word, 16, 4))
	instr.Swap.Rd = Register(getBits(word, 12, 4))
	instr.Swap.Rm = Register(getBits(word, 0, 4))
}

func (instr *Instruction) decodeBranch(word uint32) {
	instr.Group = GroupBranch

	instr.Branch.Link = getBit(word, 24)

	// the 24-bit offset is in words. shift up and sign extend from the
	// resulting 26 bits
	instr.Branch.Offset = signExtend(getBits(word, 0, 24)<<2, 26)
}

func (instr *Instruction) decodeBranchExchange(word uint32) {
	instr.Group = GroupBranchExchange
	instr.BranchEx.Rm = Register(getBits(word, 0, 4))
}

func (instr *Instruction) decodeBlockDataTransfer(word uint32) {
	instr.Group = GroupBlockDataTransfer

	instr.BlkTrans.PreIndex = getBit(word, 24)
	instr.BlkTrans.Add = getBit(word, 23)
	instr.BlkTrans.PSR = getBit(word, 22)
	instr.BlkTrans.WriteBack = getBit(word, 21)
	instr.BlkTrans.Load = getBit(word, 20)

	instr.BlkTrans.Rn = Register(getBits(word, 16, 4))
	instr.BlkTrans.RegList = uint16(getBits(word, 0, 16))
}

func decodeShifter(word uint32) Shifter {
	shift := Shifter{
		Type:  ShiftType(getBits(word, 5, 2)),
		Rm:    Register(getBits(word, 0, 4)),
		IsReg: getBit(word, 4),
	}

	if shift.IsReg {
		shift.AmountOrRs = uint8(getBits(word, 8, 4))
	} else {
		shift.AmountOrRs = uint8(getBits(word, 7, 5))
	}

	return shift
}
