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
	"fmt"
	"strings"
)

// String returns the disassembled form of the instruction. the condition
// is always included, in brackets, even when it is AL.
func (instr Instruction) String() string {
	s := strings.Builder{}
	s.WriteString(fmt.Sprintf("(%s) ", instr.Cond))

	switch instr.Group {
	case GroupDataProcessing:
		s.WriteString(fmt.Sprintf("%s %s, %s, ", instr.Data.Op, instr.Data.Rd, instr.Data.Rn))
		if instr.IsImm {
			s.WriteString(fmt.Sprintf("#%d", instr.Data.Imm))
		} else {
			s.WriteString(shifterString(instr.Data.Shift))
		}

	case GroupMultiply:
		if instr.Mul.Accumulate {
			s.WriteString(fmt.Sprintf("mla %s, %s, %s, %s", instr.Mul.Rd, instr.Mul.Rm, instr.Mul.Rs, instr.Mul.Rn))
		} else {
			s.WriteString(fmt.Sprintf("mul %s, %s, %s", instr.Mul.Rd, instr.Mul.Rm, instr.Mul.Rs))
		}

	case GroupMultiplyLong:
		if instr.MulLong.Signed {
			s.WriteString("s")
		} else {
			s.WriteString("u")
		}
		if instr.MulLong.Accumulate {
			s.WriteString("mlal ")
		} else {
			s.WriteString("mull ")
		}
		s.WriteString(fmt.Sprintf("%s, %s, %s, %s", instr.MulLong.RdLo, instr.MulLong.RdHi, instr.MulLong.Rm, instr.MulLong.Rs))

	case GroupSingleDataSwap:
		if instr.Swap.Byte {
			s.WriteString("swpb ")
		} else {
			s.WriteString("swp ")
		}
		s.WriteString(fmt.Sprintf("%s, %s, [%s]", instr.Swap.Rd, instr.Swap.Rm, instr.Swap.Rn))

	case GroupBranchExchange:
		s.WriteString(fmt.Sprintf("bx %s", instr.BranchEx.Rm))

	case GroupHalfwordDataTransfer:
		if instr.HwTrans.Load {
			s.WriteString("ldr")
		} else {
			s.WriteString("str")
		}
		switch instr.HwTrans.Type {
		case TransferSwap:
			s.WriteString("swp")
		case TransferUnsignedHalfword:
			s.WriteString("h")
		case TransferSignedByte:
			s.WriteString("sb")
		case TransferSignedHalfword:
			s.WriteString("sh")
		}
		s.WriteString(fmt.Sprintf(" %s, [%s", instr.HwTrans.Rd, instr.HwTrans.Rn))
		if instr.IsImm {
			if instr.HwTrans.OffsetImm != 0 {
				s.WriteString(fmt.Sprintf(", #%d", instr.HwTrans.OffsetImm))
			}
		} else {
			s.WriteString(fmt.Sprintf(", %s", instr.HwTrans.Rm))
		}
		s.WriteString("]")
		if instr.HwTrans.WriteBack {
			s.WriteString("!")
		}

	case GroupSingleDataTransfer:
		if instr.DataTrans.Load {
			s.WriteString("ldr")
		} else {
			s.WriteString("str")
		}
		if instr.DataTrans.Byte {
			s.WriteString("b")
		}
		s.WriteString(fmt.Sprintf(" %s, [%s", instr.DataTrans.Rd, instr.DataTrans.Rn))
		if instr.IsImm {
			if instr.DataTrans.OffsetImm != 0 {
				if instr.DataTrans.Add {
					s.WriteString(fmt.Sprintf(", #%d", instr.DataTrans.OffsetImm))
				} else {
					s.WriteString(fmt.Sprintf(", #-%d", instr.DataTrans.OffsetImm))
				}
			}
		} else {
			s.WriteString(", ")
			s.WriteString(shifterString(instr.DataTrans.OffsetShift))
		}
		s.WriteString("]")
		if instr.DataTrans.WriteBack {
			s.WriteString("!")
		}

	case GroupBlockDataTransfer:
		// stack idiom: a block transfer through SP with writeback
		if instr.BlkTrans.WriteBack && instr.BlkTrans.Rn == SP {
			if instr.BlkTrans.Load {
				s.WriteString("pop")
			} else {
				s.WriteString("push")
			}
		} else {
			if instr.BlkTrans.Load {
				s.WriteString("ldm ")
			} else {
				s.WriteString("stm ")
			}
			s.WriteString(instr.BlkTrans.Rn.String())
		}

		s.WriteString(", {")
		first := true
		for i := 0; i < int(NumRegisters); i++ {
			if instr.BlkTrans.RegList&(1<<i) != 0 {
				if !first {
					s.WriteString(", ")
				}
				s.WriteString(Register(i).String())
				first = false
			}
		}
		s.WriteString("}")

	case GroupBranch:
		if instr.Branch.Link {
			s.WriteString("bl ")
		} else {
			s.WriteString("b ")
		}
		s.WriteString(fmt.Sprintf("#%d", instr.Branch.Offset))

	case GroupSoftwareInterrupt:
		s.WriteString("swi")

	case GroupInvalid:
		s.WriteString("invalid")
	}

	return s.String()
}

// shifterString renders a barrel-shifted register operand. an immediate
// shift amount of zero is not printed.
func shifterString(shift Shifter) string {
	s := strings.Builder{}
	s.WriteString(shift.Rm.String())

	if shift.IsReg || shift.AmountOrRs != 0 {
		s.WriteString(fmt.Sprintf(", %s ", shift.Type))
		if shift.IsReg {
			s.WriteString(Register(shift.AmountOrRs).String())
		} else {
			s.WriteString(fmt.Sprintf("#%d", shift.AmountOrRs))
		}
	}

	return s.String()
}
