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

// Package arm describes the 32-bit ARMv4 instruction set. The Decode()
// function takes a raw instruction word and returns an Instruction value,
// a tagged record that is sufficient both for emulation and for rendering
// to text.
//
// ARM instructions are fixed-width and the instruction group is selected by
// a small number of well-known bit patterns. Decoding never fails; words
// that match no group decode to GroupInvalid with the condition field still
// populated.
//
// THUMB decoding is not implemented.
//
// ARM Documentation:
// https://iitd-plos.github.io/col718/ref/arm-instructionset.pdf
package arm
