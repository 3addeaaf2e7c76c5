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

package geosaodutil

import (
	"path/filepath"
	"testing"
	"time"
)

func TestParseTime(t *testing.T) {
	have, err := parseTime("2010-01-05T09")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2010, 1, 5, 9, 0, 0, 0, time.UTC)
	if !have.Equal(want) {
		t.Errorf("want %v but have %v", want, have)
	}
	have, err = parseTime("2010-01-05")
	if err != nil {
		t.Fatal(err)
	}
	if have.Hour() != 0 {
		t.Errorf("date-only parse should give hour 0 but gave %d", have.Hour())
	}
	if _, err := parseTime("01/05/2010"); err == nil {
		t.Error("unsupported format should be an error")
	}
}

func TestTimeRange(t *testing.T) {
	Cfg.Set("start", "2010-01-01T00")
	Cfg.Set("end", "2010-01-01T21")
	defer func() {
		Cfg.Set("start", "2010-01-01T00")
		Cfg.Set("end", "2010-01-01T00")
	}()
	steps, err := timeRange()
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != 8 {
		t.Errorf("want 8 steps but have %d", len(steps))
	}

	Cfg.Set("end", "2009-12-31T21")
	if _, err := timeRange(); err == nil {
		t.Error("end before start should be an error")
	}
}

func TestSubsampledFilename(t *testing.T) {
	date := time.Date(2010, 1, 5, 9, 0, 0, 0, time.UTC)
	want := filepath.Join("data", "GEOSIT", "2010", "01",
		"GEOS.it.asm.aer_inst_3hr_glo_L288x180_v24.GEOS5294.AER_SW01.2010-01-05T0900.V01.nc4")
	if have := subsampledFilename("data", "AER", "sw01", date); have != want {
		t.Errorf("want %s but have %s", want, have)
	}
}

func TestRootCommands(t *testing.T) {
	for _, name := range []string{"convert", "mix", "validate", "plot", "plotdiff", "version"} {
		found := false
		for _, cmd := range Root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing subcommand %s", name)
		}
	}
}
