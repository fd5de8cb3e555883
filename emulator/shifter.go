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
	"math/bits"

	"github.com/jetsetilly/armrecomp/arm"
)

// Shift applies a barrel-shifter operation to value.
//
// An amount of zero returns the value unchanged for all four types. the
// architectural special cases for a zero amount (LSR #0 meaning LSR #32,
// ROR #0 meaning RRX) are deliberately not modelled.
func Shift(stype arm.ShiftType, value uint32, amount uint32) uint32 {
	if amount == 0 {
		return value
	}

	switch stype {
	case arm.LSL:
		if amount >= 32 {
			return 0
		}
		return value << amount

	case arm.LSR:
		if amount >= 32 {
			return 0
		}
		return value >> amount

	case arm.ASR:
		if amount >= 32 {
			if value&0x80000000 == 0x80000000 {
				return 0xffffffff
			}
			return 0
		}
		return uint32(int32(value) >> amount)

	case arm.ROR:
		return bits.RotateLeft32(value, -int(amount&0x1f))
	}

	return value
}

// ShifterOperand evaluates a decoded shifter operand against the current
// register file.
func (st *ExecutionState) ShifterOperand(shift arm.Shifter) uint32 {
	value := st.R[shift.Rm]

	var amount uint32
	if shift.IsReg {
		amount = st.R[shift.AmountOrRs&0x0f]
	} else {
		amount = uint32(shift.AmountOrRs)
	}

	return Shift(shift.Type, value, amount)
}
