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
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/sparse"
)

func TestGridXYZ(t *testing.T) {
	data := sparse.ZerosDense(2, 3)
	data.Set(7, 1, 2)
	g := gridXYZ{data: data, lat: []float64{-45, 45}, lon: []float64{0, 120, 240}}
	cols, rows := g.Dims()
	if cols != 3 || rows != 2 {
		t.Errorf("want dims (3, 2) but have (%d, %d)", cols, rows)
	}
	if g.X(1) != 120 || g.Y(1) != 45 {
		t.Errorf("unexpected coordinates (%g, %g)", g.X(1), g.Y(1))
	}
	if g.Z(2, 1) != 7 {
		t.Errorf("want Z 7 but have %g", g.Z(2, 1))
	}
}

func TestAODRange(t *testing.T) {
	a := sparse.ZerosDense(2, 2)
	a.Elements = []float64{0, 0.2, 0.4, 0.3}
	if lo, hi := aodRange(a); lo != 0 || hi != 0.4 {
		t.Errorf("want range [0, 0.4] but have [%g, %g]", lo, hi)
	}
	// The plotted range is capped at 1.
	a.Elements = []float64{0, 5, 2, 3}
	if _, hi := aodRange(a); hi != 1 {
		t.Errorf("want cap 1 but have %g", hi)
	}
	// A field with no positive signal falls back to [0, 1].
	a.Elements = []float64{0, 0, 0, 0}
	if _, hi := aodRange(a); hi != 1 {
		t.Errorf("want fallback 1 but have %g", hi)
	}
}

func TestPlotAOD(t *testing.T) {
	dir := t.TempDir()
	writeSpeciesFile(t, filepath.Join(dir, "field.nc4"), 0.1, 0.05, 0.5)
	plotFile := filepath.Join(dir, "plots", "field.png")
	if err := PlotAOD(filepath.Join(dir, "field.nc4"), plotFile, "test AOD"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(plotFile); err != nil {
		t.Errorf("plot not written: %v", err)
	}
}

func TestPlotAODDiff(t *testing.T) {
	dir := t.TempDir()
	fileA := filepath.Join(dir, "a.nc4")
	fileB := filepath.Join(dir, "b.nc4")
	writeSpeciesFile(t, fileA, 0.2, 0.1, 0.5)
	writeSpeciesFile(t, fileB, 0.1, 0.05, 0.5)
	plotFile := filepath.Join(dir, "plots", "diff.png")
	if err := PlotAODDiff(fileA, fileB, plotFile, "test diff"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(plotFile); err != nil {
		t.Errorf("plot not written: %v", err)
	}
}
