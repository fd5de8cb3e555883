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
	"sync"

	"github.com/jetsetilly/armrecomp/arm"
	"github.com/jetsetilly/armrecomp/curated"
)

// AddressNotMapped is a sentinel error returned when a guest address or a
// host address falls outside every known memory area.
const AddressNotMapped = "address not mapped: %#08x"

// the ARM pipeline biases. these two constants are the only place in the
// package where the bias values appear.
//
// PCReadBias: the program counter register is seated at the address of
// the next instruction plus 8 (see Emulator.SetAddress). Step advances the
// register by 4 before dispatch, so an instruction executed by Step that
// reads the program counter as an operand observes its own address plus
// 12.
//
// pcStoreBias: a store of the program counter writes the address plus 12.
// the register already carries the +8 read bias so the store adds 4 more.
const (
	PCReadBias  = 8
	pcStoreBias = 4
)

// Area identifies the backing buffer of a host address.
type Area int

const (
	AreaStack Area = iota
	AreaHeap
	AreaSection
)

// HostAddr locates a byte in host memory as an (area, offset) pair. the
// Section field is meaningful only when Area is AreaSection.
type HostAddr struct {
	Area    Area
	Section int
	Offset  uint32
}

// AddressMapper translates between 32-bit guest addresses and host
// addresses.
//
// Resolve and Map are inverses. Slice returns the backing bytes from the
// host address to the end of its area.
type AddressMapper interface {
	Resolve(addr uint32) (HostAddr, error)
	Map(host HostAddr) (uint32, error)
	Slice(host HostAddr) ([]byte, error)
}

// ExecutionState is the mutable state of an emulated ARM program: the
// register file, the four condition flags, the stack buffer and the heap
// arena.
//
// The semantic operations (Add, Ldr, Stm, etc) are methods on this type.
// An ExecutionState must not be mutated concurrently; only Alloc and Free
// serialise internally.
type ExecutionState struct {
	R [arm.NumRegisters]uint32

	Negative bool
	Zero     bool
	Carry    bool
	Overflow bool

	MMap   MemoryMap
	Stack  []byte
	Memory []byte

	// Mem translates guest addresses for all loads and stores. it defaults
	// to the state's own stack/heap translation
	Mem AddressMapper

	// arena critical section. address translation does not lock
	crit sync.Mutex
}

// NewExecutionState is the preferred method of initialisation for the
// ExecutionState type. The heap arena is initialised to a chain of free
// blocks and the stack pointer is seated at the top of the stack window.
func NewExecutionState(mmap MemoryMap) *ExecutionState {
	st := &ExecutionState{
		MMap:   mmap,
		Stack:  make([]byte, mmap.StackSize),
		Memory: make([]byte, mmap.MemorySize),
	}
	st.Mem = st
	st.R[arm.SP] = mmap.StackBase + mmap.StackSize - 1
	st.initArena()
	return st
}

// Resolve implements the AddressMapper interface for the stack and heap
// windows.
func (st *ExecutionState) Resolve(addr uint32) (HostAddr, error) {
	if st.MMap.InStack(addr) {
		return HostAddr{Area: AreaStack, Offset: addr - st.MMap.StackBase}, nil
	}
	if st.MMap.InMemory(addr) {
		return HostAddr{Area: AreaHeap, Offset: addr - st.MMap.MemoryBase}, nil
	}
	return HostAddr{}, curated.Errorf(AddressNotMapped, addr)
}

// Map implements the AddressMapper interface.
func (st *ExecutionState) Map(host HostAddr) (uint32, error) {
	switch host.Area {
	case AreaStack:
		if host.Offset < st.MMap.StackSize {
			return st.MMap.StackBase + host.Offset, nil
		}
	case AreaHeap:
		if host.Offset < st.MMap.MemorySize {
			return st.MMap.MemoryBase + host.Offset, nil
		}
	}
	return 0, curated.Errorf(AddressNotMapped, host.Offset)
}

// Slice implements the AddressMapper interface.
func (st *ExecutionState) Slice(host HostAddr) ([]byte, error) {
	switch host.Area {
	case AreaStack:
		if host.Offset < uint32(len(st.Stack)) {
			return st.Stack[host.Offset:], nil
		}
	case AreaHeap:
		if host.Offset < uint32(len(st.Memory)) {
			return st.Memory[host.Offset:], nil
		}
	}
	return nil, curated.Errorf(AddressNotMapped, host.Offset)
}

// read transfers n bytes (1, 2 or 4) from the guest address.
func (st *ExecutionState) read(addr uint32, n int) (uint32, error) {
	host, err := st.Mem.Resolve(addr)
	if err != nil {
		return 0, err
	}
	s, err := st.Mem.Slice(host)
	if err != nil {
		return 0, err
	}
	if len(s) < n {
		return 0, curated.Errorf(AddressNotMapped, addr)
	}

	switch n {
	case 1:
		return uint32(s[0]), nil
	case 2:
		return uint32(binary.LittleEndian.Uint16(s)), nil
	}
	return binary.LittleEndian.Uint32(s), nil
}

// write transfers the low n bytes (1, 2 or 4) of value to the guest
// address.
func (st *ExecutionState) write(addr uint32, value uint32, n int) error {
	host, err := st.Mem.Resolve(addr)
	if err != nil {
		return err
	}
	s, err := st.Mem.Slice(host)
	if err != nil {
		return err
	}
	if len(s) < n {
		return curated.Errorf(AddressNotMapped, addr)
	}

	switch n {
	case 1:
		s[0] = uint8(value)
	case 2:
		binary.LittleEndian.PutUint16(s, uint16(value))
	default:
		binary.LittleEndian.PutUint32(s, value)
	}
	return nil
}

// flag helpers. the carry and overflow calculations take the two operands
// and a carry-in; subtraction is expressed as addition of the complement.

func (st *ExecutionState) setNegativeZero(v uint32) {
	st.Negative = v&0x80000000 == 0x80000000
	st.Zero = v == 0
}

func (st *ExecutionState) setCarry(a, b, c uint32) {
	d := (a & 0x7fffffff) + (b & 0x7fffffff) + c
	d = (d >> 31) + (a >> 31) + (b >> 31)
	st.Carry = d&0x02 == 0x02
}

func (st *ExecutionState) setOverflow(a, b, c uint32) {
	d := (a & 0x7fffffff) + (b & 0x7fffffff) + c
	d >>= 31
	e := (d & 0x01) + ((a >> 31) & 0x01) + ((b >> 31) & 0x01)
	e >>= 1
	st.Overflow = (d^e)&0x01 == 0x01
}
