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

// Group is the top-level discriminant of a decoded instruction. Only the
// payload field matching the group is meaningful.
type Group uint8

const (
	GroupDataProcessing Group = iota
	GroupMultiply
	GroupMultiplyLong
	GroupSingleDataSwap
	GroupBranchExchange
	GroupHalfwordDataTransfer
	GroupSingleDataTransfer
	GroupBlockDataTransfer
	GroupBranch
	GroupSoftwareInterrupt
	GroupInvalid
)

// Shifter describes a barrel-shifted register operand. The shift amount is
// either a 5-bit immediate or the value of the Rs register, selected by
// IsReg.
type Shifter struct {
	Type ShiftType
	Rm   Register

	IsReg      bool
	AmountOrRs uint8
}

// DataProcessing is the payload for GroupDataProcessing. Operand 2 is
// either Imm (already rotated to its 32-bit value) or Shift, selected by
// the instruction's IsImm field.
type DataProcessing struct {
	Op     Opcode
	Rd, Rn Register

	Imm   uint32
	Shift Shifter
}

// Multiply is the payload for GroupMultiply.
type Multiply struct {
	Accumulate     bool
	Rd, Rn, Rs, Rm Register
}

// MultiplyLong is the payload for GroupMultiplyLong. RdLo and RdHi form
// the 64-bit result.
type MultiplyLong struct {
	Signed     bool
	Accumulate bool
	RdHi, RdLo Register
	Rs, Rm     Register
}

// SingleDataTransfer is the payload for GroupSingleDataTransfer. The
// offset is either OffsetImm (12 bits) or OffsetShift, selected by the
// instruction's IsImm field.
type SingleDataTransfer struct {
	PreIndex  bool // offset applied before (true) or after (false) transfer
	Add       bool // offset added (true) or subtracted (false) from base
	Byte      bool
	WriteBack bool // write effective address back into base
	Load      bool // load (true) or store (false)

	Rn, Rd Register

	OffsetImm   uint16
	OffsetShift Shifter
}

// HalfwordDataTransfer is the payload for GroupHalfwordDataTransfer. The
// offset is either OffsetImm (8 bits) or the Rm register, selected by the
// instruction's IsImm field.
type HalfwordDataTransfer struct {
	PreIndex  bool
	Add       bool
	WriteBack bool
	Load      bool

	Rn, Rd Register
	Type   TransferType

	OffsetImm uint8
	Rm        Register
}

// SingleDataSwap is the payload for GroupSingleDataSwap.
type SingleDataSwap struct {
	Byte       bool
	Rn, Rd, Rm Register
}

// Branch is the payload for GroupBranch. Offset is relative to the
// executing instruction plus the pipeline bias, always word-aligned and
// within +/-32MB.
type Branch struct {
	Link   bool
	Offset int32
}

// BranchExchange is the payload for GroupBranchExchange.
type BranchExchange struct {
	Rm Register
}

// BlockDataTransfer is the payload for GroupBlockDataTransfer. RegList is
// a bitmap over the 16 registers.
type BlockDataTransfer struct {
	PreIndex  bool
	Add       bool
	PSR       bool
	WriteBack bool
	Load      bool

	Rn      Register
	RegList uint16
}

// Instruction is a decoded ARM instruction. The Group field selects which
// payload is valid. Instructions are decoded once and never mutated.
//
// The SWI comment field is discarded during decoding so the
// software-interrupt group carries no payload.
type Instruction struct {
	Raw  uint32
	Cond Condition

	Group   Group
	IsImm   bool
	SetCond bool

	Data      DataProcessing
	Mul       Multiply
	MulLong   MultiplyLong
	DataTrans SingleDataTransfer
	HwTrans   HalfwordDataTransfer
	Swap      SingleDataSwap
	Branch    Branch
	BranchEx  BranchExchange
	BlkTrans  BlockDataTransfer
}
