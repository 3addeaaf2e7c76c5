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

package geosaod

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
)

// LayerOpticalField holds the converter output for one time step on the
// native (level, lat, lon) grid.
type LayerOpticalField struct {
	DELP, TauExt, TauSca, Asym *sparse.DenseArray

	// Lat and Lon are the grid coordinates in degrees.
	Lat, Lon []float64
}

// SubsampledField is a LayerOpticalField reduced to one third of the
// vertical levels and half the horizontal resolution, with the optical
// fields clipped to their physical ranges.
type SubsampledField struct {
	DELP, TauExt, TauSca, Asym *sparse.DenseArray
	Lat, Lon                   []float64
}

// checkGrid validates the preconditions of the sub-sampling scheme: an
// odd latitude count (pole-to-pole grid recentred onto an even number of
// rows), a level count divisible by three, and an even longitude count.
func checkGrid(nlev, nlat, nlon int) error {
	if nlat%2 == 0 {
		return fmt.Errorf("geosaod: subsample: latitude count %d must be odd", nlat)
	}
	if nlev%3 != 0 {
		return fmt.Errorf("geosaod: subsample: level count %d must be divisible by 3", nlev)
	}
	if nlon%2 != 0 {
		return fmt.Errorf("geosaod: subsample: longitude count %d must be even", nlon)
	}
	return nil
}

// latMidpoints recentres a pole-to-pole latitude axis: adjacent-row
// midpoints, then pair averages, yielding (nlat-1)/2 rows.
func latMidpoints(lat []float64) []float64 {
	mid := make([]float64, len(lat)-1)
	for j := range mid {
		mid[j] = 0.5 * (lat[j] + lat[j+1])
	}
	sub := make([]float64, len(mid)/2)
	for j := range sub {
		sub[j] = 0.5 * (mid[2*j] + mid[2*j+1])
	}
	return sub
}

// reduce block-averages one native field onto the sub-sampled grid.
// Values are first averaged between adjacent latitude rows, then, per
// output level, combined across three consecutive native levels (summed
// when extensive is true, averaged otherwise), taking even-index
// longitude columns and averaging the even/odd aligned latitude pairs.
func reduce(a *sparse.DenseArray, extensive bool) *sparse.DenseArray {
	nlev, nlat, nlon := a.Shape[0], a.Shape[1], a.Shape[2]
	out := sparse.ZerosDense(nlev/3, (nlat-1)/2, nlon/2)
	for i := 0; i < nlev/3; i++ {
		for j := 0; j < (nlat-1)/2; j++ {
			for k := 0; k < nlon/2; k++ {
				var even, odd float64
				for l := 3 * i; l < 3*i+3; l++ {
					even += 0.5 * (a.Get(l, 2*j, 2*k) + a.Get(l, 2*j+1, 2*k))
					odd += 0.5 * (a.Get(l, 2*j+1, 2*k) + a.Get(l, 2*j+2, 2*k))
				}
				if !extensive {
					even /= 3
					odd /= 3
				}
				out.Set(0.5*(even+odd), i, j, k)
			}
		}
	}
	return out
}

// clip limits every element of a to [lo, hi] in place.
func clip(a *sparse.DenseArray, lo, hi float64) {
	for i, v := range a.Elements {
		a.Elements[i] = math.Min(math.Max(v, lo), hi)
	}
}

// Subsample reduces a native-grid field to one third of the vertical
// levels and half the horizontal resolution, then clips extinction to
// [0,10], scattering to [0, extinction] and asymmetry to [-1,1] to guard
// against interpolation artifacts. The grid shape must satisfy the
// scheme's preconditions; after recentring, the latitude row nearest the
// equator must land on 0°.
func Subsample(f *LayerOpticalField) (*SubsampledField, error) {
	nlev, nlat, nlon := f.TauExt.Shape[0], f.TauExt.Shape[1], f.TauExt.Shape[2]
	if err := checkGrid(nlev, nlat, nlon); err != nil {
		return nil, err
	}
	if eq := f.Lat[nlat/2]; math.Abs(eq) > 1e-6 {
		return nil, fmt.Errorf("geosaod: subsample: grid is not centred on the equator (middle latitude %g°)", eq)
	}

	out := &SubsampledField{
		DELP:   reduce(f.DELP, true),
		TauExt: reduce(f.TauExt, true),
		TauSca: reduce(f.TauSca, true),
		Asym:   reduce(f.Asym, false),
		Lat:    latMidpoints(f.Lat),
	}
	out.Lon = make([]float64, nlon/2)
	for k := range out.Lon {
		out.Lon[k] = f.Lon[2*k]
	}

	clip(out.TauExt, 0, 10)
	for i, ext := range out.TauExt.Elements {
		out.TauSca.Elements[i] = math.Min(math.Max(out.TauSca.Elements[i], 0), ext)
	}
	clip(out.Asym, -1, 1)
	return out, nil
}

// columnSum collapses the leading (level) axis of a 3-D array by
// summation.
func columnSum(a *sparse.DenseArray) *sparse.DenseArray {
	out := sparse.ZerosDense(a.Shape[1], a.Shape[2])
	for l := 0; l < a.Shape[0]; l++ {
		for j := 0; j < a.Shape[1]; j++ {
			for k := 0; k < a.Shape[2]; k++ {
				out.AddVal(a.Get(l, j, k), j, k)
			}
		}
	}
	return out
}
