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

//go:build !statsview
// +build !statsview

package statsview

import (
	"io"
)

const Address = ""

// Launch does not start a stats server in this build; it only writes a
// message saying so to output. the server is included only when the
// project is built with the statsview build constraint.
func Launch(output io.Writer) {
	output.Write([]byte("this build of armrecomp does not include the statsview\n"))
}

// Available returns true if a statsview is available to launch.
func Available() bool {
	return false
}
