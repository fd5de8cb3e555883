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
	"github.com/jetsetilly/armrecomp/arm"
)

// conditionTable maps every condition code to its predicate over the flag
// tuple, in encoding order.
var conditionTable = [16]func(n, z, c, v bool) bool{
	arm.EQ: func(n, z, c, v bool) bool { return z },
	arm.NE: func(n, z, c, v bool) bool { return !z },
	arm.CS: func(n, z, c, v bool) bool { return c },
	arm.CC: func(n, z, c, v bool) bool { return !c },
	arm.MI: func(n, z, c, v bool) bool { return n },
	arm.PL: func(n, z, c, v bool) bool { return !n },
	arm.VS: func(n, z, c, v bool) bool { return v },
	arm.VC: func(n, z, c, v bool) bool { return !v },
	arm.HI: func(n, z, c, v bool) bool { return c && !z },
	arm.LS: func(n, z, c, v bool) bool { return !c || z },
	arm.GE: func(n, z, c, v bool) bool { return n == v },
	arm.LT: func(n, z, c, v bool) bool { return n != v },
	arm.GT: func(n, z, c, v bool) bool { return !z && n == v },
	arm.LE: func(n, z, c, v bool) bool { return z || n != v },
	arm.AL: func(n, z, c, v bool) bool { return true },
	arm.NV: func(n, z, c, v bool) bool { return false },
}

// CheckCondition evaluates a condition code against the current flags.
func (st *ExecutionState) CheckCondition(cond arm.Condition) bool {
	return conditionTable[cond&0x0f](st.Negative, st.Zero, st.Carry, st.Overflow)
}
