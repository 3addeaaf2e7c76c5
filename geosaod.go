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

// Package geosaod post-processes GEOS-IT aerosol reanalysis output into
// spectral-band aerosol optical properties.
//
// For each aerosol species, per-cell mass mixing ratios are converted into
// layer extinction and scattering optical depth and an asymmetry parameter
// using tabulated aerosol optics, then sub-sampled onto a coarser grid.
// Per-species results are combined into an externally mixed total ("AER")
// with a scattering-weighted ensemble asymmetry parameter.
package geosaod

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Version is the processing version recorded in output file provenance.
const Version = "v0.2"

const (
	// gEarth is the gravitational acceleration [m s-2] used in the
	// hydrostatic conversion from pressure thickness to layer mass.
	gEarth = 9.8

	// tauThresh is the minimum scattering optical depth below which the
	// asymmetry parameter is undefined and forced to zero.
	tauThresh = 1.0e-5
)

// Log is the package logger. The command layer sets its level and output.
var Log = logrus.StandardLogger()

// TimeSteps returns the 3-hourly synoptic times from start through end,
// inclusive of both endpoints.
func TimeSteps(start, end time.Time) []time.Time {
	var out []time.Time
	for t := start; !t.After(end); t = t.Add(3 * time.Hour) {
		out = append(out, t)
	}
	return out
}
