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
	"path/filepath"
	"sort"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// pathStrategy is one way of locating per-species output files. The
// strategies are tried in order; any hit past the first strategy is a
// soft degradation logged at warning level.
type pathStrategy struct {
	name    string
	rewrite func(pattern string) string
}

// pathStrategies resolves per-species files first against the current
// production tree and then against the legacy alpha tree.
var pathStrategies = []pathStrategy{
	{"primary", func(p string) string { return p }},
	{"legacy", func(p string) string { return strings.Replace(p, "GEOSIT/", "GEOSIT_alpha_4/", 1) }},
}

// resolveSpeciesFiles locates the per-species files matching one
// (pattern, timestamp) unit. The pattern's "*_" slot is substituted with
// each canonical species label in turn. Pre-existing aggregate ("AER")
// files are excluded so re-runs never double-count. Species with no match
// under any strategy are logged and skipped.
func resolveSpeciesFiles(pattern string, speciesList []string) []string {
	var files []string
	for _, species := range speciesList {
		species = OutputName(species)
		speciesPattern := strings.Replace(pattern, "*_", species+"_", 1)
		var matched []string
		for i, strategy := range pathStrategies {
			candidates, err := filepath.Glob(strategy.rewrite(speciesPattern))
			if err != nil {
				Log.Warnf("bad file pattern %s: %v", speciesPattern, err)
				break
			}
			sort.Strings(candidates)
			for _, m := range candidates {
				if !strings.Contains(m, "_AER_") {
					matched = append(matched, m)
				}
			}
			if len(matched) > 0 {
				if i > 0 {
					Log.Warnf("using %s path for %s", strategy.name, strategy.rewrite(speciesPattern))
				}
				break
			}
		}
		if len(matched) == 0 {
			Log.Warnf("no files matched for %s", speciesPattern)
			continue
		}
		files = append(files, matched...)
	}
	return files
}

// Aggregate accumulates per-species optical fields into an external
// mixture. It is seeded zero-valued from the grid template of the first
// contributing file and owns its own storage; contributor arrays are
// never aliased.
type Aggregate struct {
	// TauExt and TauSca are elementwise sums across contributors.
	// Asym accumulates the scattering-weighted sum Σ τ_sca·g until
	// finalize converts it to the ensemble asymmetry parameter.
	TauExt, TauSca, Asym, Column *sparse.DenseArray

	// DELP and the coordinates are carried unchanged from the first
	// contributor; all contributors share the same grid and meteorology.
	DELP     *sparse.DenseArray
	Lat, Lon []float64

	// datetime and band attributes carried from the first contributor.
	datetime       string
	band           string
	wvlMin, wvlMax float64

	contributors []string
}

// newAggregate seeds an accumulator from the grid of a contributor file.
func newAggregate(ff *cdf.File) (*Aggregate, error) {
	delp, err := readFull(ff, "DELP")
	if err != nil {
		return nil, err
	}
	lat, err := readCoord(ff, "lat")
	if err != nil {
		return nil, err
	}
	lon, err := readCoord(ff, "lon")
	if err != nil {
		return nil, err
	}
	a := &Aggregate{
		TauExt: sparse.ZerosDense(delp.Shape...),
		TauSca: sparse.ZerosDense(delp.Shape...),
		Asym:   sparse.ZerosDense(delp.Shape...),
		Column: sparse.ZerosDense(delp.Shape[1], delp.Shape[2]),
		DELP:   delp,
		Lat:    lat,
		Lon:    lon,
	}
	if dt, ok := ff.Header.GetAttribute("", "datetime").(string); ok {
		a.datetime = dt
	}
	if band, ok := ff.Header.GetAttribute("", "Langley_Fu_Liou_band").(string); ok {
		a.band = band
	}
	if v, ok := ff.Header.GetAttribute("", "band_wvl_min_micron").([]float64); ok && len(v) > 0 {
		a.wvlMin = v[0]
	}
	if v, ok := ff.Header.GetAttribute("", "band_wvl_max_micron").([]float64); ok && len(v) > 0 {
		a.wvlMax = v[0]
	}
	return a, nil
}

// add accumulates one contributor into the aggregate.
func (a *Aggregate) add(filename string, ff *cdf.File) error {
	ext, err := readFull(ff, "Extinction_Layer_Optical_Depth")
	if err != nil {
		return err
	}
	sca, err := readFull(ff, "Scattering_Layer_Optical_Depth")
	if err != nil {
		return err
	}
	asm, err := readFull(ff, "Layer_Asymmetry_Parameter")
	if err != nil {
		return err
	}
	column, err := readFull(ff, columnVarName)
	if err != nil {
		return err
	}
	if len(ext.Elements) != len(a.TauExt.Elements) {
		return fmt.Errorf("geosaod: %s: grid shape %v does not match aggregate %v", filename, ext.Shape, a.TauExt.Shape)
	}
	floats.Add(a.TauExt.Elements, ext.Elements)
	floats.Add(a.TauSca.Elements, sca.Elements)
	floats.Add(a.Column.Elements, column.Elements)
	for i, s := range sca.Elements {
		a.Asym.Elements[i] += s * asm.Elements[i]
	}
	a.contributors = append(a.contributors, filename)
	return nil
}

// finalize converts the weighted-asymmetry accumulator into the ensemble
// asymmetry parameter. Where total scattering does not exceed the
// threshold the parameter is undefined and forced to zero.
func (a *Aggregate) finalize() {
	for i, s := range a.TauSca.Elements {
		if s <= tauThresh {
			a.Asym.Elements[i] = 0
		} else {
			a.Asym.Elements[i] /= s
		}
	}
}

// write serializes the aggregate with a provenance listing every
// contributor.
func (a *Aggregate) write(filename string) error {
	prov := provenance{
		datetime:      a.datetime,
		inputFilename: "[" + strings.Join(a.contributors, ", ") + "]",
		band:          a.band,
		wvlMin:        a.wvlMin,
		wvlMax:        a.wvlMax,
		tool:          "mix",
	}
	h := defineGrid(a.TauExt.Shape[0], a.Lat, a.Lon, prov)
	h.Define()
	fo, f, err := createNCF(filename, h)
	if err != nil {
		return err
	}
	if err := writeGrid(f, a.Lat, a.Lon, a.DELP, a.TauExt, a.TauSca, a.Asym, a.Column); err != nil {
		fo.Close()
		return err
	}
	Log.Info(filename)
	return closeNCF(fo)
}

// MixExternal combines the per-species files matching one (pattern,
// timestamp) unit into an externally mixed total, written to the
// pattern's "AER" slot. A unit with no contributing files is skipped
// without error; some timestamps legitimately have none.
func MixExternal(pattern string, speciesList []string) error {
	Log.Info(pattern)
	files := resolveSpeciesFiles(pattern, speciesList)
	if len(files) == 0 {
		Log.Warnf("no files matched pattern %s (or legacy); skipping", pattern)
		return nil
	}

	var agg *Aggregate
	for _, filename := range files {
		Log.Info(filename)
		f, ff, err := openNCF(filename)
		if err != nil {
			return err
		}
		if agg == nil {
			if agg, err = newAggregate(ff); err != nil {
				f.Close()
				return err
			}
		}
		err = agg.add(filename, ff)
		f.Close()
		if err != nil {
			return err
		}
	}
	Log.Infof("total AOD global mean %.3f", stat.Mean(agg.Column.Elements, nil))
	agg.finalize()
	return agg.write(strings.Replace(pattern, "*_", "AER_", 1))
}
