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

// default memory geometry. guest addresses in the stack and memory
// windows translate to the stack buffer and the heap arena respectively.
const (
	DefaultStackBase  = 0xc0000000
	DefaultStackSize  = 1024 * 1024
	DefaultMemoryBase = 0x10000000
	DefaultMemorySize = 1024 * 1024 * 16

	// the smallest block the arena allocator will split off
	DefaultMinBlockSize = 64
)

// MemoryMap defines the guest address space geometry of an
// ExecutionState.
type MemoryMap struct {
	StackBase uint32
	StackSize uint32

	MemoryBase uint32
	MemorySize uint32

	MinBlockSize uint32
}

// NewMemoryMap returns a MemoryMap with the default geometry.
func NewMemoryMap() MemoryMap {
	return MemoryMap{
		StackBase:    DefaultStackBase,
		StackSize:    DefaultStackSize,
		MemoryBase:   DefaultMemoryBase,
		MemorySize:   DefaultMemorySize,
		MinBlockSize: DefaultMinBlockSize,
	}
}

// InStack returns true if the guest address falls inside the stack window.
func (mmap MemoryMap) InStack(addr uint32) bool {
	return addr >= mmap.StackBase && addr < mmap.StackBase+mmap.StackSize
}

// InMemory returns true if the guest address falls inside the memory
// window.
func (mmap MemoryMap) InMemory(addr uint32) bool {
	return addr >= mmap.MemoryBase && addr < mmap.MemoryBase+mmap.MemorySize
}
