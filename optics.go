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
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// nRH is the number of relative-humidity bins in a resampled optics
// table: a uniform grid over [0,1) at 1% resolution.
const nRH = 100

// OpticsConfig maps species names to aerosol optics files. It is decoded
// from a TOML file of the form
//
//	filename_bands = "$AEROSOL_DATA/LFL_bands.nc"
//
//	[Types.SO4]
//	filename = "$AEROSOL_DATA/optics_SU.v5_7.MERRA2.nc"
//
// Paths may contain environment variables.
type OpticsConfig struct {
	// FilenameBands is the band-definition file mapping named spectral
	// bands to wavelength boundaries.
	FilenameBands string `toml:"filename_bands"`

	// Types maps species names to their optics source files.
	Types map[string]OpticsSource `toml:"Types"`
}

// OpticsSource locates the tabulated optics for one species.
type OpticsSource struct {
	Filename string `toml:"filename"`
}

// LoadOpticsConfig reads an optics configuration file and eagerly checks
// that every required species key is present.
func LoadOpticsConfig(filename string, required ...string) (*OpticsConfig, error) {
	cfg := new(OpticsConfig)
	if _, err := toml.DecodeFile(filename, cfg); err != nil {
		return nil, fmt.Errorf("geosaod: reading optics configuration %s: %v", filename, err)
	}
	if cfg.FilenameBands == "" {
		return nil, fmt.Errorf("geosaod: optics configuration %s is missing filename_bands", filename)
	}
	for _, species := range required {
		species = CanonicalSpecies(species)
		if _, ok := cfg.Types[species]; !ok {
			return nil, fmt.Errorf("geosaod: optics configuration %s has no entry for species %s", filename, species)
		}
	}
	return cfg, nil
}

// OpticsTable holds band-averaged aerosol optical coefficients tabulated
// by particle radius bin, relative-humidity bin and wavelength, with the
// humidity axis resampled to 1% resolution. It is immutable once loaded
// and shared read-only across all time steps of a run.
type OpticsTable struct {
	// Ext, Sca and Asym are the mass extinction efficiency, mass
	// scattering efficiency and asymmetry parameter, each shaped
	// [radius bin, humidity bin, wavelength].
	Ext, Sca, Asym *sparse.DenseArray

	// Wavelengths is the tabulated wavelength axis in micron.
	Wavelengths []float64
}

// BandTable holds the Langley Fu-Liou band wavelength boundaries in
// micron. Band n spans SW[n-1]..SW[n] (or LW).
type BandTable struct {
	SW, LW []float64
}

// LoadOpticsTable loads and resamples the optics table for one species.
// If the configured file is absent but a band-specific variant (with the
// MERRA2 token replaced by GEOSIT_<BAND>) exists, the variant is used
// and the substitution is logged. The resampled table is cached next to
// the source; failure to write the cache is logged but not fatal.
func LoadOpticsTable(cfg *OpticsConfig, species, band string) (*OpticsTable, error) {
	species = CanonicalSpecies(species)
	src, ok := cfg.Types[species]
	if !ok {
		return nil, fmt.Errorf("geosaod: no optics configured for species %s", species)
	}
	filename := os.ExpandEnv(src.Filename)
	if _, err := os.Stat(filename); err != nil {
		variant := strings.Replace(filename, "MERRA2", "GEOSIT_"+strings.ToUpper(band), 1)
		if _, err := os.Stat(variant); err != nil {
			return nil, fmt.Errorf("geosaod: optics file for species %s: neither %s nor %s exists", species, filename, variant)
		}
		Log.Warnf("MERRA2 optics missing; using %s", variant)
		filename = variant
	}
	Log.Info(filename)

	f, ff, err := openNCF(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table, err := resampleOptics(ff)
	if err != nil {
		return nil, fmt.Errorf("geosaod: optics file %s: %v", filename, err)
	}

	cache := strings.Replace(filename, ".nc", "_interp.nc", 1)
	if err := table.write(cache); err != nil {
		Log.Warnf("could not cache resampled optics: %v", err)
	}
	return table, nil
}

// LoadBandTable reads the band-definition file named by the optics
// configuration.
func LoadBandTable(cfg *OpticsConfig) (*BandTable, error) {
	filename := os.ExpandEnv(cfg.FilenameBands)
	Log.Debugf("bands file: %s", filename)
	f, ff, err := openNCF(filename)
	if err != nil {
		return nil, fmt.Errorf("geosaod: band-definition file: %v", err)
	}
	defer f.Close()
	sw, err := readCoord(ff, "LFL_SW_bands")
	if err != nil {
		return nil, err
	}
	lw, err := readCoord(ff, "LFL_LW_bands")
	if err != nil {
		return nil, err
	}
	return &BandTable{SW: sw, LW: lw}, nil
}

// resampleOptics reads the coarse-humidity optics variables bext, bsca
// and g (shaped [radius, rh, lambda]) and resamples them onto the uniform
// 1% humidity grid with per-(radius, wavelength) linear interpolation,
// extrapolating beyond the source humidity bounds.
func resampleOptics(ff *cdf.File) (*OpticsTable, error) {
	rhCoarse, err := readCoord(ff, "rh")
	if err != nil {
		return nil, err
	}
	lambda, err := readCoord(ff, "lambda")
	if err != nil {
		return nil, err
	}
	ext, err := readFull(ff, "bext")
	if err != nil {
		return nil, err
	}
	sca, err := readFull(ff, "bsca")
	if err != nil {
		return nil, err
	}
	asm, err := readFull(ff, "g")
	if err != nil {
		return nil, err
	}
	if len(ext.Shape) != 3 {
		return nil, fmt.Errorf("optics variable bext has %d dimensions; want 3", len(ext.Shape))
	}
	if len(rhCoarse) != ext.Shape[1] {
		return nil, fmt.Errorf("rh axis length %d does not match bext humidity dimension %d", len(rhCoarse), ext.Shape[1])
	}

	wavelengths := make([]float64, len(lambda))
	for i, l := range lambda {
		wavelengths[i] = l * 1.0e6 // m to micron
	}

	out := &OpticsTable{
		Ext:         resampleRH(ext, rhCoarse),
		Sca:         resampleRH(sca, rhCoarse),
		Asym:        resampleRH(asm, rhCoarse),
		Wavelengths: wavelengths,
	}
	return out, nil
}

// resampleRH resamples the middle (humidity) axis of a
// [radius, rh, lambda] array onto the uniform 1% grid.
func resampleRH(coarse *sparse.DenseArray, rhCoarse []float64) *sparse.DenseArray {
	nr, nl := coarse.Shape[0], coarse.Shape[2]
	fine := sparse.ZerosDense(nr, nRH, nl)
	ys := make([]float64, len(rhCoarse))
	for r := 0; r < nr; r++ {
		for k := 0; k < nl; k++ {
			for j := range rhCoarse {
				ys[j] = coarse.Get(r, j, k)
			}
			for b := 0; b < nRH; b++ {
				rh := float64(b) / nRH
				fine.Set(interpolate(rhCoarse, ys, rh), r, b, k)
			}
		}
	}
	return fine
}

// interpolate evaluates the piecewise-linear function through (xs, ys) at
// x, extrapolating linearly from the end segments outside the range of
// xs. xs must be monotonically increasing with at least two knots.
func interpolate(xs, ys []float64, x float64) float64 {
	n := len(xs)
	i := 0
	for i < n-2 && x >= xs[i+1] {
		i++
	}
	x0, x1 := xs[i], xs[i+1]
	y0, y1 := ys[i], ys[i+1]
	return y0 + (y1-y0)*(x-x0)/(x1-x0)
}

// write caches the resampled table as a NetCDF file.
func (o *OpticsTable) write(filename string) error {
	h := cdf.NewHeader(
		[]string{"radius", "rh", "lambda"},
		[]int{o.Ext.Shape[0], nRH, o.Ext.Shape[2]})
	h.AddVariable("lambda", []string{"lambda"}, []float32{0})
	h.AddAttribute("lambda", "units", "m")
	for _, v := range []string{"ext", "sca", "asm"} {
		h.AddVariable(v, []string{"radius", "rh", "lambda"}, []float32{0})
	}
	h.Define()
	fo, f, err := createNCF(filename, h)
	if err != nil {
		return err
	}
	lambda := make([]float64, len(o.Wavelengths))
	for i, w := range o.Wavelengths {
		lambda[i] = w * 1.0e-6
	}
	if err := writeCoord(f, "lambda", lambda); err != nil {
		fo.Close()
		return err
	}
	for v, data := range map[string]*sparse.DenseArray{
		"ext": o.Ext, "sca": o.Sca, "asm": o.Asym} {
		if err := writeVar(f, v, data); err != nil {
			fo.Close()
			return err
		}
	}
	return closeNCF(fo)
}

// Band is a spectral band fixed for a whole run: its label, wavelength
// boundaries, and the index of the nearest tabulated wavelength in the
// optics table.
type Band struct {
	Label          string  // upper-case, e.g. "SW01"
	WvlMin, WvlMax float64 // micron
	// WavelengthIndex selects the optics-table wavelength nearest the
	// band midpoint.
	WavelengthIndex int
}

// SelectBand parses a band label like "sw01" or "lw12", looks up its
// wavelength boundaries, and selects the tabulated wavelength nearest the
// band midpoint. Ties are broken by the first occurrence in table order.
func SelectBand(label string, bands *BandTable, o *OpticsTable) (Band, error) {
	lower := strings.ToLower(label)
	if len(lower) != 4 {
		return Band{}, fmt.Errorf("geosaod: invalid band label %q", label)
	}
	idx, err := strconv.Atoi(lower[2:4])
	if err != nil || idx < 1 {
		return Band{}, fmt.Errorf("geosaod: invalid band index in label %q", label)
	}
	var bounds []float64
	switch lower[0:2] {
	case "sw":
		bounds = bands.SW
	case "lw":
		bounds = bands.LW
	default:
		return Band{}, fmt.Errorf("geosaod: band label %q is neither short-wave nor long-wave", label)
	}
	if idx >= len(bounds) {
		return Band{}, fmt.Errorf("geosaod: band index %d out of range for label %q", idx, label)
	}
	wvlMin, wvlMax := bounds[idx-1], bounds[idx]
	mid := 0.5 * (wvlMin + wvlMax)
	Log.Infof("band %s: %.2f-%.2f micron, midpoint %.2f", strings.ToUpper(label), wvlMin, wvlMax, mid)

	best, bestDiff := 0, math.Inf(1)
	for i, w := range o.Wavelengths {
		if diff := math.Abs(w - mid); diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	Log.Infof("nearest tabulated wavelength: %.2f micron", o.Wavelengths[best])
	return Band{
		Label:           strings.ToUpper(label),
		WvlMin:          wvlMin,
		WvlMax:          wvlMax,
		WavelengthIndex: best,
	}, nil
}
