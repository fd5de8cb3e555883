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
	"github.com/jetsetilly/armrecomp/curated"
	"github.com/jetsetilly/armrecomp/logger"
)

// UnsupportedInstruction is a sentinel error for instruction forms the
// emulator does not model.
const UnsupportedInstruction = "unsupported instruction: %s"

// the semantic operations below take the set-flags bit, register indices
// and a pre-resolved second operand. if the operand came from the barrel
// shifter it has already been shifted.
//
// all arithmetic is on 32-bit unsigned words. carry-in for the
// with-carry operations is the current carry flag; subtraction is
// performed as addition of the complement so that the carry flag finishes
// as NOT borrow.

func (st *ExecutionState) carryIn() uint32 {
	if st.Carry {
		return 1
	}
	return 0
}

// Add implements rd <- rn + imm.
func (st *ExecutionState) Add(s bool, rd, rn arm.Register, imm uint32) {
	a := st.R[rn]
	st.R[rd] = a + imm
	if s {
		st.setCarry(a, imm, 0)
		st.setOverflow(a, imm, 0)
		st.setNegativeZero(st.R[rd])
	}
}

// Adc implements rd <- rn + imm + C.
func (st *ExecutionState) Adc(s bool, rd, rn arm.Register, imm uint32) {
	a := st.R[rn]
	c := st.carryIn()
	st.R[rd] = a + imm + c
	if s {
		st.setCarry(a, imm, c)
		st.setOverflow(a, imm, c)
		st.setNegativeZero(st.R[rd])
	}
}

// Sub implements rd <- rn - imm.
func (st *ExecutionState) Sub(s bool, rd, rn arm.Register, imm uint32) {
	a := st.R[rn]
	st.R[rd] = a - imm
	if s {
		st.setCarry(a, ^imm, 1)
		st.setOverflow(a, ^imm, 1)
		st.setNegativeZero(st.R[rd])
	}
}

// Sbc implements rd <- rn - imm - NOT C.
func (st *ExecutionState) Sbc(s bool, rd, rn arm.Register, imm uint32) {
	a := st.R[rn]
	c := st.carryIn()
	st.R[rd] = a + ^imm + c
	if s {
		st.setCarry(a, ^imm, c)
		st.setOverflow(a, ^imm, c)
		st.setNegativeZero(st.R[rd])
	}
}

// Rsb implements rd <- imm - rn.
func (st *ExecutionState) Rsb(s bool, rd, rn arm.Register, imm uint32) {
	a := st.R[rn]
	st.R[rd] = imm - a
	if s {
		st.setCarry(imm, ^a, 1)
		st.setOverflow(imm, ^a, 1)
		st.setNegativeZero(st.R[rd])
	}
}

// Rsc implements rd <- imm - rn - NOT C.
func (st *ExecutionState) Rsc(s bool, rd, rn arm.Register, imm uint32) {
	a := st.R[rn]
	c := st.carryIn()
	st.R[rd] = imm + ^a + c
	if s {
		st.setCarry(imm, ^a, c)
		st.setOverflow(imm, ^a, c)
		st.setNegativeZero(st.R[rd])
	}
}

// And implements rd <- rn AND imm.
func (st *ExecutionState) And(s bool, rd, rn arm.Register, imm uint32) {
	st.R[rd] = st.R[rn] & imm
	if s {
		st.setNegativeZero(st.R[rd])
	}
}

// Eor implements rd <- rn EOR imm.
func (st *ExecutionState) Eor(s bool, rd, rn arm.Register, imm uint32) {
	st.R[rd] = st.R[rn] ^ imm
	if s {
		st.setNegativeZero(st.R[rd])
	}
}

// Orr implements rd <- rn OR imm.
func (st *ExecutionState) Orr(s bool, rd, rn arm.Register, imm uint32) {
	st.R[rd] = st.R[rn] | imm
	if s {
		st.setNegativeZero(st.R[rd])
	}
}

// Bic implements rd <- rn AND NOT imm.
func (st *ExecutionState) Bic(s bool, rd, rn arm.Register, imm uint32) {
	st.R[rd] = st.R[rn] &^ imm
	if s {
		st.setNegativeZero(st.R[rd])
	}
}

// Mov implements rd <- imm. rn is unused but kept for uniformity with the
// other data operations.
func (st *ExecutionState) Mov(s bool, rd, rn arm.Register, imm uint32) {
	st.R[rd] = imm
	if s {
		st.setNegativeZero(st.R[rd])
	}
}

// Mvn implements rd <- NOT imm.
func (st *ExecutionState) Mvn(s bool, rd, rn arm.Register, imm uint32) {
	st.R[rd] = ^imm
	if s {
		st.setNegativeZero(st.R[rd])
	}
}

// Tst computes rn AND imm, discards the result and sets N and Z. the
// set-flags bit is implied by the instruction encoding.
func (st *ExecutionState) Tst(s bool, rd, rn arm.Register, imm uint32) {
	st.setNegativeZero(st.R[rn] & imm)
}

// Teq computes rn EOR imm, discards the result and sets N and Z.
func (st *ExecutionState) Teq(s bool, rd, rn arm.Register, imm uint32) {
	st.setNegativeZero(st.R[rn] ^ imm)
}

// Cmp computes rn - imm, discards the result and sets all four flags.
func (st *ExecutionState) Cmp(s bool, rd, rn arm.Register, imm uint32) {
	a := st.R[rn]
	st.setCarry(a, ^imm, 1)
	st.setOverflow(a, ^imm, 1)
	st.setNegativeZero(a - imm)
}

// Cmn computes rn + imm, discards the result and sets all four flags.
func (st *ExecutionState) Cmn(s bool, rd, rn arm.Register, imm uint32) {
	a := st.R[rn]
	st.setCarry(a, imm, 0)
	st.setOverflow(a, imm, 0)
	st.setNegativeZero(a + imm)
}

// Mul implements rd <- rm * rs.
func (st *ExecutionState) Mul(s bool, rd, rn, rs, rm arm.Register) {
	st.R[rd] = st.R[rm] * st.R[rs]
	if s {
		st.setNegativeZero(st.R[rd])
	}
}

// Mla implements rd <- rm * rs + rn.
func (st *ExecutionState) Mla(s bool, rd, rn, rs, rm arm.Register) {
	st.R[rd] = st.R[rm]*st.R[rs] + st.R[rn]
	if s {
		st.setNegativeZero(st.R[rd])
	}
}

// Mull implements {rdHi:rdLo} <- rm * rs, signed or unsigned.
func (st *ExecutionState) Mull(s bool, signed bool, rdHi, rdLo, rs, rm arm.Register) {
	result := mul64(signed, st.R[rm], st.R[rs])
	st.R[rdLo] = uint32(result)
	st.R[rdHi] = uint32(result >> 32)
	if s {
		st.setFlags64(result)
	}
}

// Mlal implements {rdHi:rdLo} <- rm * rs + {rdHi:rdLo}.
func (st *ExecutionState) Mlal(s bool, signed bool, rdHi, rdLo, rs, rm arm.Register) {
	acc := uint64(st.R[rdHi])<<32 | uint64(st.R[rdLo])
	acc += mul64(signed, st.R[rm], st.R[rs])
	st.R[rdLo] = uint32(acc)
	st.R[rdHi] = uint32(acc >> 32)
	if s {
		st.setFlags64(acc)
	}
}

func mul64(signed bool, a, b uint32) uint64 {
	if signed {
		return uint64(int64(int32(a)) * int64(int32(b)))
	}
	return uint64(a) * uint64(b)
}

func (st *ExecutionState) setFlags64(v uint64) {
	st.Negative = v&0x8000000000000000 == 0x8000000000000000
	st.Zero = v == 0
}

// effectiveAddress applies the pre-indexed offset if required.
func effectiveAddress(preIndex, add bool, base, offset uint32) uint32 {
	if !preIndex {
		return base
	}
	if add {
		return base + offset
	}
	return base - offset
}

// writeBack updates the base register with the post-indexed address when
// the addressing mode requires it. writeback with the program counter as
// the base register is architecturally unpredictable; it is logged and
// performed anyway.
func (st *ExecutionState) writeBack(preIndex, add, writeBack bool, rn arm.Register, base, offset uint32) {
	if !writeBack && preIndex {
		return
	}
	if rn == arm.PC {
		logger.Log(logger.Allow, "emulator", "unpredictable: write-back with pc as the base register")
	}
	if add {
		st.R[rn] = base + offset
	} else {
		st.R[rn] = base - offset
	}
}

// storeValue returns the value of rd for a store, applying the extra
// store bias when rd is the program counter.
func (st *ExecutionState) storeValue(rd arm.Register) uint32 {
	value := st.R[rd]
	if rd == arm.PC {
		value += pcStoreBias
	}
	return value
}

// Ldr loads a word or a byte into rd. when copy is false the memory
// transfer itself is skipped and only the addressing and write-back take
// effect.
func (st *ExecutionState) Ldr(preIndex, add, byteTransfer, wb bool, rn, rd arm.Register, offset uint32, copy bool) error {
	base := st.R[rn]
	addr := effectiveAddress(preIndex, add, base, offset)

	if copy {
		n := 4
		if byteTransfer {
			n = 1
		}
		value, err := st.read(addr, n)
		if err != nil {
			return err
		}
		st.R[rd] = value
	}

	st.writeBack(preIndex, add, wb, rn, base, offset)
	return nil
}

// Str stores a word or a byte from rd. when copy is false the memory
// transfer itself is skipped and only the addressing and write-back take
// effect.
func (st *ExecutionState) Str(preIndex, add, byteTransfer, wb bool, rn, rd arm.Register, offset uint32, copy bool) error {
	base := st.R[rn]
	addr := effectiveAddress(preIndex, add, base, offset)

	if copy {
		n := 4
		if byteTransfer {
			n = 1
		}
		if err := st.write(addr, st.storeValue(rd), n); err != nil {
			return err
		}
	}

	st.writeBack(preIndex, add, wb, rn, base, offset)
	return nil
}

// Ldrh loads a halfword or a signed byte/halfword into rd, sign extending
// as required by the transfer type.
func (st *ExecutionState) Ldrh(preIndex, add, wb bool, rn, rd arm.Register, ttype arm.TransferType, offset uint32) error {
	base := st.R[rn]
	addr := effectiveAddress(preIndex, add, base, offset)

	switch ttype {
	case arm.TransferSwap:
		return curated.Errorf(UnsupportedInstruction, "ldrh: swap")

	case arm.TransferUnsignedHalfword:
		value, err := st.read(addr, 2)
		if err != nil {
			return err
		}
		st.R[rd] = value

	case arm.TransferSignedByte:
		value, err := st.read(addr, 1)
		if err != nil {
			return err
		}
		st.R[rd] = uint32(int32(int8(value)))

	case arm.TransferSignedHalfword:
		value, err := st.read(addr, 2)
		if err != nil {
			return err
		}
		st.R[rd] = uint32(int32(int16(value)))
	}

	st.writeBack(preIndex, add, wb, rn, base, offset)
	return nil
}

// Strh stores a halfword or a byte from rd.
func (st *ExecutionState) Strh(preIndex, add, wb bool, rn, rd arm.Register, ttype arm.TransferType, offset uint32) error {
	base := st.R[rn]
	addr := effectiveAddress(preIndex, add, base, offset)
	value := st.storeValue(rd)

	switch ttype {
	case arm.TransferSwap:
		return curated.Errorf(UnsupportedInstruction, "strh: swap")

	case arm.TransferUnsignedHalfword, arm.TransferSignedHalfword:
		if err := st.write(addr, value, 2); err != nil {
			return err
		}

	case arm.TransferSignedByte:
		if err := st.write(addr, value, 1); err != nil {
			return err
		}
	}

	st.writeBack(preIndex, add, wb, rn, base, offset)
	return nil
}

// blockStart returns the lowest transfer address for a block transfer.
// registers are always transferred lowest-register-to-lowest-address so
// the four pre/post up/down combinations reduce to a starting address.
func blockStart(preIndex, add bool, base uint32, n uint32) uint32 {
	if add {
		if preIndex {
			return base + 4
		}
		return base
	}
	if preIndex {
		return base - n*4
	}
	return base - n*4 + 4
}

// Ldm loads every register in the list from consecutive words. when copy
// is false only the write-back takes effect.
func (st *ExecutionState) Ldm(preIndex, add, wb bool, rn arm.Register, regList uint16, copy bool) error {
	base := st.R[rn]
	n := uint32(bits.OnesCount16(regList))
	addr := blockStart(preIndex, add, base, n)

	if wb {
		if add {
			st.R[rn] = base + n*4
		} else {
			st.R[rn] = base - n*4
		}
	}

	if !copy {
		return nil
	}

	for i := 0; i < int(arm.NumRegisters); i++ {
		if regList&(1<<i) == 0 {
			continue
		}
		value, err := st.read(addr, 4)
		if err != nil {
			return err
		}
		st.R[i] = value
		addr += 4
	}

	return nil
}

// Stm stores every register in the list to consecutive words. when copy
// is false only the write-back takes effect.
func (st *ExecutionState) Stm(preIndex, add, wb bool, rn arm.Register, regList uint16, copy bool) error {
	base := st.R[rn]
	n := uint32(bits.OnesCount16(regList))
	addr := blockStart(preIndex, add, base, n)

	if !copy {
		if wb {
			if add {
				st.R[rn] = base + n*4
			} else {
				st.R[rn] = base - n*4
			}
		}
		return nil
	}

	for i := 0; i < int(arm.NumRegisters); i++ {
		if regList&(1<<i) == 0 {
			continue
		}
		if err := st.write(addr, st.R[i], 4); err != nil {
			return err
		}
		addr += 4

		// write-back is performed after the first transfer so that a base
		// register that is the lowest register in the list stores its
		// original value
		if wb {
			if add {
				st.R[rn] = base + n*4
			} else {
				st.R[rn] = base - n*4
			}
			wb = false
		}
	}

	return nil
}
