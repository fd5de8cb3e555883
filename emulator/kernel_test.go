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
	"fmt"
	"testing"

	"github.com/jetsetilly/armrecomp/arm"
	"github.com/jetsetilly/armrecomp/curated"
	"github.com/jetsetilly/armrecomp/emulator"
	"github.com/jetsetilly/armrecomp/test"
)

func newState() *emulator.ExecutionState {
	return emulator.NewExecutionState(emulator.NewMemoryMap())
}

func TestAdd_flags(t *testing.T) {
	add := []struct {
		x, y       uint32
		result     uint32
		n, z, c, v bool
	}{
		{0x00000001, 0x00000001, 0x00000002, false, false, false, false},
		{0xffffffff, 0x00000001, 0x00000000, false, true, true, false},
		{0x7fffffff, 0x00000001, 0x80000000, true, false, false, true},
		{0x80000000, 0x80000000, 0x00000000, false, true, true, true},
		{0xfffffffe, 0x00000001, 0xffffffff, true, false, false, false},
	}

	for _, a := range add {
		state := newState()
		state.R[arm.R0] = a.x
		state.Add(true, arm.R1, arm.R0, a.y)

		tag := fmt.Sprintf("add %#x + %#x", a.x, a.y)
		test.DemandEquality(t, state.R[arm.R1], a.result, tag)
		test.DemandEquality(t, state.Negative, a.n, tag)
		test.DemandEquality(t, state.Zero, a.z, tag)
		test.DemandEquality(t, state.Carry, a.c, tag)
		test.DemandEquality(t, state.Overflow, a.v, tag)
	}
}

func TestSub_flags(t *testing.T) {
	sub := []struct {
		x, y       uint32
		result     uint32
		n, z, c, v bool
	}{
		{0x00000002, 0x00000001, 0x00000001, false, false, true, false},
		{0x00000001, 0x00000001, 0x00000000, false, true, true, false},
		{0x00000000, 0x00000001, 0xffffffff, true, false, false, false},
		{0x80000000, 0x00000001, 0x7fffffff, false, false, true, true},
		{0x7fffffff, 0xffffffff, 0x80000000, true, false, false, true},
	}

	for _, s := range sub {
		state := newState()
		state.R[arm.R0] = s.x
		state.Sub(true, arm.R1, arm.R0, s.y)

		tag := fmt.Sprintf("sub %#x - %#x", s.x, s.y)
		test.DemandEquality(t, state.R[arm.R1], s.result, tag)
		test.DemandEquality(t, state.Negative, s.n, tag)
		test.DemandEquality(t, state.Zero, s.z, tag)
		test.DemandEquality(t, state.Carry, s.c, tag)
		test.DemandEquality(t, state.Overflow, s.v, tag)
	}
}

func TestAdcSbc_carryIn(t *testing.T) {
	state := newState()

	// adc with carry set adds one more
	state.Carry = true
	state.R[arm.R0] = 10
	state.Adc(false, arm.R1, arm.R0, 5)
	test.DemandEquality(t, state.R[arm.R1], 16)

	// sbc with carry clear subtracts one more
	state.Carry = false
	state.R[arm.R0] = 10
	state.Sbc(false, arm.R1, arm.R0, 5)
	test.DemandEquality(t, state.R[arm.R1], 4)

	// sbc with carry set is a plain subtraction
	state.Carry = true
	state.Sbc(false, arm.R1, arm.R0, 5)
	test.DemandEquality(t, state.R[arm.R1], 5)
}

func TestRsbRsc(t *testing.T) {
	state := newState()

	state.R[arm.R0] = 3
	state.Rsb(true, arm.R1, arm.R0, 10)
	test.DemandEquality(t, state.R[arm.R1], 7)
	test.Equate(t, state.Carry, true)

	state.Carry = false
	state.Rsc(false, arm.R1, arm.R0, 10)
	test.DemandEquality(t, state.R[arm.R1], 6)
}

func TestLogical(t *testing.T) {
	state := newState()

	state.R[arm.R0] = 0xf0f0f0f0
	state.And(true, arm.R1, arm.R0, 0x80000001)
	test.DemandEquality(t, state.R[arm.R1], 0x80000000)
	test.Equate(t, state.Negative, true)
	test.Equate(t, state.Zero, false)

	state.Eor(true, arm.R1, arm.R0, 0xf0f0f0f0)
	test.DemandEquality(t, state.R[arm.R1], 0)
	test.Equate(t, state.Zero, true)

	state.Orr(false, arm.R1, arm.R0, 0x0f0f0f0f)
	test.DemandEquality(t, state.R[arm.R1], 0xffffffff)

	state.Bic(false, arm.R1, arm.R0, 0xf0000000)
	test.DemandEquality(t, state.R[arm.R1], 0x00f0f0f0)

	state.Mvn(false, arm.R1, arm.R0, 0x0000ffff)
	test.DemandEquality(t, state.R[arm.R1], 0xffff0000)
}

func TestCompare(t *testing.T) {
	state := newState()

	// cmp of equal values: result discarded, Z set, C set (no borrow)
	state.R[arm.R1] = 42
	state.R[arm.R2] = 99
	state.Cmp(true, arm.R2, arm.R1, 42)
	test.DemandEquality(t, state.R[arm.R2], 99)
	test.Equate(t, state.Zero, true)
	test.Equate(t, state.Carry, true)

	// tst sets N and Z only
	state.R[arm.R1] = 0x80000000
	state.Tst(true, arm.R2, arm.R1, 0x80000000)
	test.Equate(t, state.Negative, true)
	test.Equate(t, state.Zero, false)
}

func TestMultiply(t *testing.T) {
	state := newState()

	state.R[arm.R2] = 6
	state.R[arm.R3] = 7
	state.Mul(true, arm.R1, arm.R0, arm.R3, arm.R2)
	test.DemandEquality(t, state.R[arm.R1], 42)
	test.Equate(t, state.Zero, false)

	state.R[arm.R0] = 8
	state.Mla(false, arm.R1, arm.R0, arm.R3, arm.R2)
	test.DemandEquality(t, state.R[arm.R1], 50)
}

func TestMultiplyLong(t *testing.T) {
	state := newState()

	// unsigned: 0xffffffff * 2 = 0x1_fffffffe
	state.R[arm.R2] = 0xffffffff
	state.R[arm.R3] = 2
	state.Mull(true, false, arm.R1, arm.R0, arm.R3, arm.R2)
	test.DemandEquality(t, state.R[arm.R0], 0xfffffffe)
	test.DemandEquality(t, state.R[arm.R1], 1)
	test.Equate(t, state.Negative, false)

	// signed: -1 * 2 = -2
	state.Mull(true, true, arm.R1, arm.R0, arm.R3, arm.R2)
	test.DemandEquality(t, state.R[arm.R0], 0xfffffffe)
	test.DemandEquality(t, state.R[arm.R1], 0xffffffff)
	test.Equate(t, state.Negative, true)

	// accumulate on top of the previous -2: -2 + -2 = -4
	state.Mlal(false, true, arm.R1, arm.R0, arm.R3, arm.R2)
	test.DemandEquality(t, state.R[arm.R0], 0xfffffffc)
	test.DemandEquality(t, state.R[arm.R1], 0xffffffff)
}

func TestLdrStr(t *testing.T) {
	state := newState()
	mmap := state.MMap

	// store a word to the bottom of the stack window and load it back
	state.R[arm.R0] = 0xcafe1234
	state.R[arm.R1] = mmap.StackBase
	err := state.Str(true, true, false, false, arm.R1, arm.R0, 16, true)
	test.ExpectedSuccess(t, err)

	err = state.Ldr(true, true, false, false, arm.R1, arm.R2, 16, true)
	test.ExpectedSuccess(t, err)
	test.DemandEquality(t, state.R[arm.R2], 0xcafe1234)

	// byte transfer truncates and zero extends
	err = state.Ldr(true, true, true, false, arm.R1, arm.R3, 16, true)
	test.ExpectedSuccess(t, err)
	test.DemandEquality(t, state.R[arm.R3], 0x34)

	// post-indexing updates the base register
	state.R[arm.R1] = mmap.StackBase
	err = state.Ldr(false, true, false, false, arm.R1, arm.R4, 16, true)
	test.ExpectedSuccess(t, err)
	test.DemandEquality(t, state.R[arm.R1], mmap.StackBase+16)

	// an unmapped address is an error
	err = state.Ldr(true, true, false, false, arm.R5, arm.R4, 0, true)
	test.ExpectedFailure(t, err)
	test.Equate(t, curated.Is(err, emulator.AddressNotMapped), true)
}

func TestStr_programCounter(t *testing.T) {
	state := newState()

	// a stored program counter is the executing address plus 12. the
	// register itself carries the +8 read bias
	state.R[arm.PC] = 0x1008
	state.R[arm.R1] = state.MMap.StackBase
	err := state.Str(true, true, false, false, arm.R1, arm.PC, 0, true)
	test.ExpectedSuccess(t, err)

	value, err := readWord(state, state.MMap.StackBase)
	test.ExpectedSuccess(t, err)
	test.DemandEquality(t, value, 0x100c)
}

// readWord is a helper for inspecting emulated memory in tests.
func readWord(state *emulator.ExecutionState, addr uint32) (uint32, error) {
	host, err := state.Mem.Resolve(addr)
	if err != nil {
		return 0, err
	}
	s, err := state.Mem.Slice(host)
	if err != nil {
		return 0, err
	}
	return uint32(s[0]) | uint32(s[1])<<8 | uint32(s[2])<<16 | uint32(s[3])<<24, nil
}

func TestLdrh(t *testing.T) {
	state := newState()
	base := state.MMap.StackBase

	state.R[arm.R0] = 0xffff8765
	state.R[arm.R1] = base
	err := state.Strh(true, true, false, arm.R1, arm.R0, arm.TransferUnsignedHalfword, 0)
	test.ExpectedSuccess(t, err)

	// unsigned halfword load zero extends
	err = state.Ldrh(true, true, false, arm.R1, arm.R2, arm.TransferUnsignedHalfword, 0)
	test.ExpectedSuccess(t, err)
	test.DemandEquality(t, state.R[arm.R2], 0x8765)

	// signed halfword load sign extends
	err = state.Ldrh(true, true, false, arm.R1, arm.R2, arm.TransferSignedHalfword, 0)
	test.ExpectedSuccess(t, err)
	test.DemandEquality(t, state.R[arm.R2], 0xffff8765)

	// signed byte load sign extends
	err = state.Ldrh(true, true, false, arm.R1, arm.R2, arm.TransferSignedByte, 0)
	test.ExpectedSuccess(t, err)
	test.DemandEquality(t, state.R[arm.R2], 0x65)

	// the swap subtype is reserved
	err = state.Ldrh(true, true, false, arm.R1, arm.R2, arm.TransferSwap, 0)
	test.ExpectedFailure(t, err)
	test.Equate(t, curated.Is(err, emulator.UnsupportedInstruction), true)
}

func TestLdmStm(t *testing.T) {
	state := newState()
	base := state.MMap.StackBase + 64

	// store r4, r5, r6 descending-before (the push idiom) and load them
	// back ascending-after (the pop idiom)
	state.R[arm.R4] = 0x44444444
	state.R[arm.R5] = 0x55555555
	state.R[arm.R6] = 0x66666666
	state.R[arm.SP] = base

	err := state.Stm(true, false, true, arm.SP, 0x0070, true)
	test.ExpectedSuccess(t, err)
	test.DemandEquality(t, state.R[arm.SP], base-12)

	state.R[arm.R4] = 0
	state.R[arm.R5] = 0
	state.R[arm.R6] = 0

	err = state.Ldm(false, true, true, arm.SP, 0x0070, true)
	test.ExpectedSuccess(t, err)
	test.DemandEquality(t, state.R[arm.SP], base)
	test.DemandEquality(t, state.R[arm.R4], 0x44444444)
	test.DemandEquality(t, state.R[arm.R5], 0x55555555)
	test.DemandEquality(t, state.R[arm.R6], 0x66666666)
}
