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
)

// every block in the heap arena begins with a header: an allocated flag
// and the payload size, both 32-bit little-endian words.
const blockHeaderSize = 8

func (st *ExecutionState) readBlockHeader(offset uint32) (allocated bool, size uint32) {
	allocated = binary.LittleEndian.Uint32(st.Memory[offset:]) != 0
	size = binary.LittleEndian.Uint32(st.Memory[offset+4:])
	return allocated, size
}

func (st *ExecutionState) writeBlockHeader(offset uint32, allocated bool, size uint32) {
	var a uint32
	if allocated {
		a = 1
	}
	binary.LittleEndian.PutUint32(st.Memory[offset:], a)
	binary.LittleEndian.PutUint32(st.Memory[offset+4:], size)
}

// the uniform block size the arena is divided into on construction
const initBlockSize = 64

// initArena divides the heap into a chain of uniformly-sized free blocks.
// any remainder too small for a block is left unusable.
func (st *ExecutionState) initArena() {
	const block = uint32(initBlockSize)

	var offset uint32
	for offset+block <= st.MMap.MemorySize {
		st.writeBlockHeader(offset, false, block-blockHeaderSize)
		offset += block
	}

	if remainder := st.MMap.MemorySize - offset; remainder >= blockHeaderSize+4 {
		st.writeBlockHeader(offset, false, remainder-blockHeaderSize)
	}
}

// Alloc reserves size bytes in the heap arena and returns the guest
// address of the payload. The zero address indicates failure: a zero size
// request or an exhausted arena.
//
// Blocks are found first-fit. A free block larger than the request is
// split when the residual is at least the arena's minimum block size; a
// free block smaller than the request absorbs contiguous free successors
// until the accumulated size suffices.
func (st *ExecutionState) Alloc(size uint32) uint32 {
	if size == 0 {
		return 0
	}

	st.crit.Lock()
	defer st.crit.Unlock()

	// allocation sizes are word aligned
	size = (size + 3) &^ 3

	var offset uint32
	for offset+blockHeaderSize <= st.MMap.MemorySize {
		allocated, blockSize := st.readBlockHeader(offset)
		if allocated {
			offset += blockHeaderSize + blockSize
			continue
		}

		// forward coalesce: grow the block over contiguous free
		// successors, absorbing their headers, until it is large enough
		avail := blockSize
		next := offset + blockHeaderSize + avail
		for avail < size && next+blockHeaderSize <= st.MMap.MemorySize {
			nextAllocated, nextSize := st.readBlockHeader(next)
			if nextAllocated {
				break
			}
			avail += blockHeaderSize + nextSize
			next += blockHeaderSize + nextSize
		}

		if avail < size {
			// the free run ends before the request is satisfied. continue
			// scanning beyond it. nothing has been written so the chain is
			// intact
			offset = next
			continue
		}

		// split the residual into a trailing free block if it is worth it
		residual := avail - size
		if residual >= st.MMap.MinBlockSize && residual >= blockHeaderSize+4 {
			st.writeBlockHeader(offset+blockHeaderSize+size, false, residual-blockHeaderSize)
		} else {
			size = avail
		}

		st.writeBlockHeader(offset, true, size)
		return st.MMap.MemoryBase + offset + blockHeaderSize
	}

	return 0
}

// Free returns the block at the guest address to the arena. Freeing the
// zero address is a no-op. Adjacent free blocks are coalesced lazily by
// the next Alloc that needs them.
func (st *ExecutionState) Free(addr uint32) {
	if addr == 0 {
		return
	}
	if !st.MMap.InMemory(addr) || addr-st.MMap.MemoryBase < blockHeaderSize {
		return
	}

	st.crit.Lock()
	defer st.crit.Unlock()

	offset := addr - st.MMap.MemoryBase - blockHeaderSize
	_, size := st.readBlockHeader(offset)
	st.writeBlockHeader(offset, false, size)
}
