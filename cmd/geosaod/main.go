/*
Copyright © 2026 the GEOSAOD authors.
This file is part of GEOSAOD.

GEOSAOD is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

GEOSAOD is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with GEOSAOD.  If not, see <http://www.gnu.org/licenses/>.
*/

// Command geosaod is a command-line interface for GEOS-IT aerosol
// optical depth post-processing.
package main

import (
	"fmt"
	"os"

	"github.com/spatialaerosol/geosaod/geosaodutil"
)

func main() {
	if err := geosaodutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
