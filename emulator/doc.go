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

// Package emulator is a partial interpreter for ARMv4 machine code. It
// models the sixteen word-sized registers, the four condition flags, a
// stack buffer and a heap arena, and the semantic operations of the
// data-processing, multiply and data-transfer instruction groups.
//
// It is not a complete dynamic emulator. It models only what is needed to
// trace procedure-linkage-table stubs during recompiler analysis, which is
// the sole reason it exists. The Emulator type drives the fetch/decode/
// dispatch loop; the ExecutionState type holds all mutable state and the
// per-opcode semantic operations.
//
// Guest addresses are 32-bit values in the emulated program's address
// space. Host addresses are (area, offset) pairs - there is no raw pointer
// identity between the two. Translation in both directions goes through
// the AddressMapper interface; the ExecutionState itself implements the
// interface for its stack and heap windows and the recompiler substitutes
// a mapper backed by ELF section data.
package emulator
