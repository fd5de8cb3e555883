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

// Package recomp drives the static recompilation of an ARM ELF binary.
//
// The Recompiler analyses the binary's dynamic-symbol, dynamic-relocation
// and PLT-relocation tables and combines them with emulated execution of
// the procedure linkage table. The analysis produces three maps:
//
//   - GOT offset to symbol value, from the dynamic relocation table
//   - GOT offset to dependency function, from the PLT relocation table
//   - text address to exported function, from the dynamic symbol table
//
// and, by stepping the PLT through the emulator, a map from every byte
// address inside a PLT entry to the dependency the entry dispatches to.
// The results are consumed by the emission step, which regenerates a
// source project that links against a runtime support library.
package recomp
