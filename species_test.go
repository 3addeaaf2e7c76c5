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

import "testing"

func TestCanonicalSpecies(t *testing.T) {
	cases := map[string]string{
		"SU":    "SO4",
		"OCPHO": "OCPHOBIC",
		"OCPHI": "OCPHILIC",
		"BCPHO": "BCPHOBIC",
		"BCPHI": "BCPHILIC",
		"NI":    "NO3AN",
		"SS":    "SS",
		"SO4":   "SO4",
	}
	for alias, want := range cases {
		if have := CanonicalSpecies(alias); have != want {
			t.Errorf("%s: want %s but have %s", alias, want, have)
		}
	}
}

func TestSpeciesKinds(t *testing.T) {
	cases := []struct {
		name string
		kind SpeciesKind
	}{
		{"SU", Standard},
		{"SO4", Standard},
		{"OCPHI", Standard},
		{"OCPHO", Hydrophobic},
		{"BCPHO", Hydrophobic},
		{"SS", SizeBinned},
		{"DU", SizeBinned},
		{"NI", Nitrate},
	}
	for _, c := range cases {
		if s := NewSpecies(c.name); s.Kind != c.kind {
			t.Errorf("%s: want kind %v but have %v", c.name, c.kind, s.Kind)
		}
	}
	if NewSpecies("BCPHO").UsesHumidity() {
		t.Error("hydrophobic species should not use humidity")
	}
	if !NewSpecies("SU").UsesHumidity() {
		t.Error("sulfate should use humidity")
	}
}

func TestTracer(t *testing.T) {
	cases := []struct {
		species, sizeBin string
		tracer           string
		radiusBin        int
	}{
		{"SU", "001", "SO4", 0},
		{"OCPHO", "001", "OCPHOBIC", 0},
		{"SS", "003", "SS003", 2},
		{"DU", "005", "DU005", 4},
		{"NI", "001", "NO3AN1", 0},
	}
	for _, c := range cases {
		tracer, bin, err := NewSpecies(c.species).Tracer(c.sizeBin)
		if err != nil {
			t.Errorf("%s: %v", c.species, err)
			continue
		}
		if tracer != c.tracer || bin != c.radiusBin {
			t.Errorf("%s: want (%s, %d) but have (%s, %d)",
				c.species, c.tracer, c.radiusBin, tracer, bin)
		}
	}
	if _, _, err := NewSpecies("SS").Tracer("abc"); err == nil {
		t.Error("bad size bin should be an error")
	}
}

func TestSpeciesLists(t *testing.T) {
	if n := len(AllSpecies()); n != 16 {
		t.Errorf("want 16 species but have %d", n)
	}
	if n := len(AllBands()); n != 26 {
		t.Errorf("want 26 bands but have %d", n)
	}
	if have := OutputName("NI"); have != "NO3AN1" {
		t.Errorf("want NO3AN1 but have %s", have)
	}
	if have := SpeciesWithBin()[0]; have != "SS001" {
		t.Errorf("want SS001 but have %s", have)
	}
}
