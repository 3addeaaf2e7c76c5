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
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/sparse"
)

// writeSpeciesFile writes a per-species output fixture with uniform
// layer values on a 1-level, 2×2 grid.
func writeSpeciesFile(t *testing.T, filename string, ext, sca, asm float64) {
	t.Helper()
	uniform := func(val float64, shape ...int) *sparse.DenseArray {
		a := sparse.ZerosDense(shape...)
		for i := range a.Elements {
			a.Elements[i] = val
		}
		return a
	}
	prov := provenance{
		datetime:      "2010-01-01_00Z",
		inputFilename: "synthetic",
		band:          "SW01",
		wvlMin:        0.2,
		wvlMax:        0.8,
		tool:          "convert",
	}
	lat, lon := []float64{-45, 45}, []float64{0, 180}
	h := defineGrid(1, lat, lon, prov)
	h.Define()
	fo, f, err := createNCF(filename, h)
	if err != nil {
		t.Fatal(err)
	}
	err = writeGrid(f, lat, lon,
		uniform(1000, 1, 2, 2),
		uniform(ext, 1, 2, 2),
		uniform(sca, 1, 2, 2),
		uniform(asm, 1, 2, 2),
		uniform(ext, 2, 2))
	if err != nil {
		t.Fatal(err)
	}
	if err := closeNCF(fo); err != nil {
		t.Fatal(err)
	}
}

func speciesFilename(dir, species string) string {
	return filepath.Join(dir, "GEOSIT",
		"GEOS.it.asm.aer_inst_3hr_glo_L288x180_v24.GEOS5294."+species+"_SW01.2010-01-01T0000.V01.nc4")
}

func mixPattern(dir string) string {
	return filepath.Join(dir, "GEOSIT",
		"GEOS.it.asm.aer_inst_3hr_glo_L288x180_v24.GEOS5294.*_SW01.2010-01-01T0000.V01.nc4")
}

func TestMixExternal(t *testing.T) {
	const tolerance = 1.0e-6
	dir := t.TempDir()
	writeSpeciesFile(t, speciesFilename(dir, "SO4"), 0.1, 0.05, 0.5)
	writeSpeciesFile(t, speciesFilename(dir, "DU001"), 0.2, 0.1, 0.8)
	// A stale aggregate must not contribute to the new one.
	writeSpeciesFile(t, speciesFilename(dir, "AER"), 99, 99, 0.9)

	if err := MixExternal(mixPattern(dir), AllSpecies()); err != nil {
		t.Fatal(err)
	}

	fo, ff, err := openNCF(speciesFilename(dir, "AER"))
	if err != nil {
		t.Fatal(err)
	}
	defer fo.Close()
	ext, err := readFull(ff, "Extinction_Layer_Optical_Depth")
	if err != nil {
		t.Fatal(err)
	}
	sca, err := readFull(ff, "Scattering_Layer_Optical_Depth")
	if err != nil {
		t.Fatal(err)
	}
	asm, err := readFull(ff, "Layer_Asymmetry_Parameter")
	if err != nil {
		t.Fatal(err)
	}
	wantAsm := (0.05*0.5 + 0.1*0.8) / 0.15
	for i := range ext.Elements {
		if math.Abs(ext.Elements[i]-0.3) > tolerance {
			t.Errorf("element %d: want ext 0.3 but have %g", i, ext.Elements[i])
		}
		if math.Abs(sca.Elements[i]-0.15) > tolerance {
			t.Errorf("element %d: want sca 0.15 but have %g", i, sca.Elements[i])
		}
		if math.Abs(asm.Elements[i]-wantAsm) > tolerance {
			t.Errorf("element %d: want asm %g but have %g", i, wantAsm, asm.Elements[i])
		}
	}

	// Band attributes carry over from the first contributor.
	if band, _ := ff.Header.GetAttribute("", "Langley_Fu_Liou_band").(string); band != "SW01" {
		t.Errorf("want band attribute SW01 but have %q", band)
	}
	if dt, _ := ff.Header.GetAttribute("", "datetime").(string); dt != "2010-01-01_00Z" {
		t.Errorf("want datetime attribute 2010-01-01_00Z but have %q", dt)
	}
}

func TestMixThreshold(t *testing.T) {
	dir := t.TempDir()
	// Scattering below the threshold leaves the ensemble asymmetry
	// undefined; it must come out exactly zero.
	writeSpeciesFile(t, speciesFilename(dir, "SO4"), 1e-6, 1e-8, 0.5)

	if err := MixExternal(mixPattern(dir), []string{"SO4"}); err != nil {
		t.Fatal(err)
	}
	fo, ff, err := openNCF(speciesFilename(dir, "AER"))
	if err != nil {
		t.Fatal(err)
	}
	defer fo.Close()
	asm, err := readFull(ff, "Layer_Asymmetry_Parameter")
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range asm.Elements {
		if v != 0 {
			t.Errorf("element %d: want asm 0 but have %g", i, v)
		}
	}
}

func TestMixNoFiles(t *testing.T) {
	dir := t.TempDir()
	if err := MixExternal(mixPattern(dir), AllSpecies()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(speciesFilename(dir, "AER")); err == nil {
		t.Error("no aggregate should be written when no species files match")
	}
}

func TestResolveSpeciesFilesLegacy(t *testing.T) {
	dir := t.TempDir()
	// Files only exist under the legacy tree.
	legacy := filepath.Join(dir, "GEOSIT_alpha_4",
		"GEOS.it.asm.aer_inst_3hr_glo_L288x180_v24.GEOS5294.SO4_SW01.2010-01-01T0000.V01.nc4")
	writeSpeciesFile(t, legacy, 0.1, 0.05, 0.5)

	files := resolveSpeciesFiles(mixPattern(dir), []string{"SO4"})
	if len(files) != 1 || files[0] != legacy {
		t.Errorf("want legacy file %s but have %v", legacy, files)
	}

	// Aliases resolve to canonical output names.
	files = resolveSpeciesFiles(mixPattern(dir), []string{"SU"})
	if len(files) != 1 {
		t.Errorf("alias SU should match the SO4 file but have %v", files)
	}
}
