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
	"path/filepath"

	"github.com/ctessum/sparse"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// gridXYZ adapts a 2-D (lat, lon) field and its coordinates to the
// plotter.GridXYZ interface.
type gridXYZ struct {
	data     *sparse.DenseArray
	lat, lon []float64
}

func (g gridXYZ) Dims() (int, int)   { return len(g.lon), len(g.lat) }
func (g gridXYZ) X(c int) float64    { return g.lon[c] }
func (g gridXYZ) Y(r int) float64    { return g.lat[r] }
func (g gridXYZ) Z(c, r int) float64 { return g.data.Get(r, c) }

// readColumnAOD reads the column extinction optical depth and grid
// coordinates from an output file.
func readColumnAOD(filename string) (*sparse.DenseArray, []float64, []float64, error) {
	f, ff, err := openNCF(filename)
	if err != nil {
		return nil, nil, nil, err
	}
	defer f.Close()
	field, err := readFull(ff, columnVarName)
	if err != nil {
		return nil, nil, nil, err
	}
	lat, err := readCoord(ff, "lat")
	if err != nil {
		return nil, nil, nil, err
	}
	lon, err := readCoord(ff, "lon")
	if err != nil {
		return nil, nil, nil, err
	}
	return field, lat, lon, nil
}

// aodRange returns the plotted range for a column-AOD field: zero up to
// the field maximum, capped at 1.0.
func aodRange(a *sparse.DenseArray) (float64, float64) {
	vmax := 0.0
	for _, v := range a.Elements {
		if !math.IsNaN(v) && v > vmax {
			vmax = v
		}
	}
	if vmax <= 0 {
		vmax = 1
	}
	return 0, math.Min(vmax, 1)
}

// savePlot renders a heat map of field to a PNG. If the output directory
// is unwritable the plot is diverted to a process-local directory; a
// missing diagnostic plot never fails a run.
func savePlot(p *plot.Plot, plotFile string) error {
	dir := writableDir(filepath.Dir(plotFile))
	out := filepath.Join(dir, filepath.Base(plotFile))
	if err := p.Save(10*vg.Inch, 6*vg.Inch, out); err != nil {
		return fmt.Errorf("geosaod: saving plot %s: %v", out, err)
	}
	Log.Info(out)
	return nil
}

// PlotAOD renders the column extinction optical depth of one output file
// as a lon/lat heat map.
func PlotAOD(filename, plotFile, title string) error {
	field, lat, lon, err := readColumnAOD(filename)
	if err != nil {
		return err
	}
	lo, hi := aodRange(field)
	pal := palette.Heat(20, 1)
	hm := plotter.NewHeatMap(gridXYZ{data: field, lat: lat, lon: lon}, pal)
	hm.Min, hm.Max = lo, hi

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "longitude"
	p.Y.Label.Text = "latitude"
	p.Add(hm)
	return savePlot(p, plotFile)
}

// PlotAODDiff renders the column-AOD difference of two output files
// (A − B) with a symmetric diverging palette centred on zero.
func PlotAODDiff(fileA, fileB, plotFile, title string) error {
	fieldA, lat, lon, err := readColumnAOD(fileA)
	if err != nil {
		return err
	}
	fieldB, _, _, err := readColumnAOD(fileB)
	if err != nil {
		return err
	}
	if len(fieldA.Elements) != len(fieldB.Elements) {
		return fmt.Errorf("geosaod: plot: %s and %s are on different grids", fileA, fileB)
	}
	diff := fieldA.Copy()
	vmax := 0.0
	for i := range diff.Elements {
		diff.Elements[i] -= fieldB.Elements[i]
		if v := math.Abs(diff.Elements[i]); !math.IsNaN(v) && v > vmax {
			vmax = v
		}
	}
	if vmax <= 0 {
		vmax = 0.01
	}

	cm := moreland.SmoothBlueRed()
	cm.SetMin(-vmax)
	cm.SetMax(vmax)
	hm := plotter.NewHeatMap(gridXYZ{data: diff, lat: lat, lon: lon}, cm.Palette(21))
	hm.Min, hm.Max = -vmax, vmax

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "longitude"
	p.Y.Label.Text = "latitude"
	p.Add(hm)
	return savePlot(p, plotFile)
}
