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
	"strconv"
	"strings"
)

// SpeciesKind selects how a species resolves its humidity and radius bins.
type SpeciesKind int

const (
	// Standard species use the spatially varying relative-humidity bin
	// and radius bin 0.
	Standard SpeciesKind = iota
	// Hydrophobic species have optical properties that do not vary with
	// ambient humidity; they use humidity bin 0 unconditionally.
	Hydrophobic
	// SizeBinned species (sea salt, dust) carry one tracer per particle
	// radius bin and take the radius bin from the size-bin argument.
	SizeBinned
	// Nitrate carries size-binned tracers but only the first radius bin
	// is processed.
	Nitrate
)

// Species is one aerosol type from the GOCART external mixture.
type Species struct {
	// Name is the canonical tracer name, e.g. "SO4", "OCPHOBIC", "SS".
	Name string
	Kind SpeciesKind
}

// speciesAlias maps the short species labels used by the GEOS-IT
// production scripts to canonical tracer names.
var speciesAlias = map[string]string{
	"SU":    "SO4",
	"OCPHO": "OCPHOBIC",
	"OCPHI": "OCPHILIC",
	"BCPHO": "BCPHOBIC",
	"BCPHI": "BCPHILIC",
	"NI":    "NO3AN",
}

// CanonicalSpecies resolves a species label, which may be a short alias,
// to its canonical tracer name.
func CanonicalSpecies(name string) string {
	if canonical, ok := speciesAlias[name]; ok {
		return canonical
	}
	return name
}

// NewSpecies classifies a species label into its kind. The humidity and
// radius-bin resolution rules are fixed here, once, rather than re-derived
// per grid cell.
func NewSpecies(name string) Species {
	name = CanonicalSpecies(name)
	var kind SpeciesKind
	switch {
	case name == "SS" || name == "DU":
		kind = SizeBinned
	case strings.HasPrefix(name, "NO3AN"):
		kind = Nitrate
	case strings.Contains(name, "PHOBIC"):
		kind = Hydrophobic
	default:
		kind = Standard
	}
	return Species{Name: name, Kind: kind}
}

// UsesHumidity reports whether the species' optical properties vary with
// relative humidity.
func (s Species) UsesHumidity() bool { return s.Kind != Hydrophobic }

// Tracer returns the input-file variable name and the optics-table radius
// bin for this species. sizeBin is the 1-based, zero-padded size bin label
// (e.g. "001"); it is only consulted for size-binned species.
func (s Species) Tracer(sizeBin string) (string, int, error) {
	switch s.Kind {
	case SizeBinned:
		n, err := strconv.Atoi(sizeBin)
		if err != nil || n < 1 {
			return "", 0, fmt.Errorf("geosaod: invalid size bin %q for species %s", sizeBin, s.Name)
		}
		return s.Name + sizeBin, n - 1, nil
	case Nitrate:
		// Nitrate only uses the first size bin.
		return "NO3AN1", 0, nil
	default:
		return s.Name, 0, nil
	}
}

// OutputName returns the species label used in per-species output
// filenames for a species that carries no size bin.
func OutputName(name string) string {
	name = CanonicalSpecies(name)
	if name == "NO3AN" {
		return "NO3AN1"
	}
	return name
}

// SpeciesNoBin lists the canonical output labels of species without
// size-resolved variants.
var SpeciesNoBin = []string{"SO4", "OCPHOBIC", "OCPHILIC", "BCPHOBIC", "BCPHILIC", "NO3AN1"}

// SpeciesWithBin lists the output labels of the size-binned species,
// five bins each of sea salt and dust.
func SpeciesWithBin() []string {
	var out []string
	for _, prefix := range []string{"SS", "DU"} {
		for n := 1; n <= 5; n++ {
			out = append(out, fmt.Sprintf("%s%03d", prefix, n))
		}
	}
	return out
}

// AllSpecies lists every per-species output label contributing to the
// external mixture.
func AllSpecies() []string {
	return append(append([]string{}, SpeciesNoBin...), SpeciesWithBin()...)
}

// AllBands lists the Langley Fu-Liou band labels: 14 short-wave and
// 12 long-wave.
func AllBands() []string {
	var out []string
	for n := 1; n <= 14; n++ {
		out = append(out, fmt.Sprintf("SW%02d", n))
	}
	for n := 1; n <= 12; n++ {
		out = append(out, fmt.Sprintf("LW%02d", n))
	}
	return out
}
