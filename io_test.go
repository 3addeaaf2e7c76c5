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
	"path/filepath"
	"testing"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

func TestFillDateTemplate(t *testing.T) {
	date := time.Date(2010, 1, 5, 9, 0, 0, 0, time.UTC)
	template := "GEOSIT/YYYY/MM/GEOS.it.asm.aer_inst_3hr_glo_L576x361_v72.GEOS5294.YYYY-MM-DDTHH00.V01.nc4"
	want := "GEOSIT/2010/01/GEOS.it.asm.aer_inst_3hr_glo_L576x361_v72.GEOS5294.2010-01-05T0900.V01.nc4"
	if have := FillDateTemplate(template, date); have != want {
		t.Errorf("want %s but have %s", want, have)
	}
}

func TestLabelPath(t *testing.T) {
	path := "x/GEOS.it.asm.aer_inst_3hr_glo_L576x361_v72.GEOS5294.2010-01-01T0000.V01.nc4"
	want := "x/GEOS.it.asm.aer_inst_3hr_glo_L576x361_v72.GEOS5294.SO4_SW01.2010-01-01T0000.V01.nc4"
	if have := LabelPath(path, "SO4", "sw01"); have != want {
		t.Errorf("want %s but have %s", want, have)
	}
}

func TestSubsampledPath(t *testing.T) {
	path := "x/GEOS.it.asm.aer_inst_3hr_glo_L576x361_v72.GEOS5294.SO4_SW01.2010-01-01T0000.V01.nc4"
	want := "x/GEOS.it.asm.aer_inst_3hr_glo_L288x180_v24.GEOS5294.SO4_SW01.2010-01-01T0000.V01.nc4"
	if have := SubsampledPath(path); have != want {
		t.Errorf("want %s but have %s", want, have)
	}
}

func TestNCFRoundTrip(t *testing.T) {
	const tolerance = 1.0e-6
	filename := filepath.Join(t.TempDir(), "roundtrip.nc")

	data := sparse.ZerosDense(2, 3, 4)
	for i := range data.Elements {
		data.Elements[i] = float64(i) * 0.25
	}
	lat := []float64{-45, 0, 45}

	h := cdf.NewHeader([]string{"lev", "lat", "lon"}, []int{2, 3, 4})
	h.AddVariable("lat", []string{"lat"}, []float32{0})
	h.AddVariable("field", []string{"lev", "lat", "lon"}, []float32{0})
	h.AddAttribute("", "script_version", "geosaod test "+Version)
	h.Define()
	fo, f, err := createNCF(filename, h)
	if err != nil {
		t.Fatal(err)
	}
	if err := writeCoord(f, "lat", lat); err != nil {
		t.Fatal(err)
	}
	if err := writeVar(f, "field", data); err != nil {
		t.Fatal(err)
	}
	if err := closeNCF(fo); err != nil {
		t.Fatal(err)
	}

	fi, ff, err := openNCF(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer fi.Close()
	have, err := readFull(ff, "field")
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range data.Elements {
		if math.Abs(have.Elements[i]-want) > tolerance {
			t.Errorf("element %d: want %g but have %g", i, want, have.Elements[i])
		}
	}
	haveLat, err := readCoord(ff, "lat")
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range lat {
		if haveLat[i] != want {
			t.Errorf("lat %d: want %g but have %g", i, want, haveLat[i])
		}
	}
	if v, ok := ff.Header.GetAttribute("", "script_version").(string); !ok || v != "geosaod test "+Version {
		t.Errorf("script_version attribute: have %v", v)
	}
}

func TestReadRecord(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "records.nc")

	h := cdf.NewHeader([]string{"time", "lat", "lon"}, []int{2, 2, 2})
	h.AddVariable("field", []string{"time", "lat", "lon"}, []float32{0})
	h.Define()
	fo, f, err := createNCF(filename, h)
	if err != nil {
		t.Fatal(err)
	}
	data := sparse.ZerosDense(2, 2, 2)
	for i := range data.Elements {
		data.Elements[i] = float64(i)
	}
	if err := writeVar(f, "field", data); err != nil {
		t.Fatal(err)
	}
	if err := closeNCF(fo); err != nil {
		t.Fatal(err)
	}

	fi, ff, err := openNCF(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer fi.Close()
	rec, err := readRecord(ff, "field", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.Shape) != 2 || rec.Shape[0] != 2 || rec.Shape[1] != 2 {
		t.Fatalf("want shape [2 2] but have %v", rec.Shape)
	}
	for i, want := range []float64{4, 5, 6, 7} {
		if rec.Elements[i] != want {
			t.Errorf("element %d: want %g but have %g", i, want, rec.Elements[i])
		}
	}
}

func TestTimeSteps(t *testing.T) {
	start := time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2010, 1, 1, 21, 0, 0, 0, time.UTC)
	steps := TimeSteps(start, end)
	if len(steps) != 8 {
		t.Fatalf("want 8 steps but have %d", len(steps))
	}
	if !steps[7].Equal(end) {
		t.Errorf("want last step %v but have %v", end, steps[7])
	}
	if len(TimeSteps(start, start)) != 1 {
		t.Error("equal start and end should give one step")
	}
}
