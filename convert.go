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
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/stat"
)

// Converter turns per-species mass mixing ratios into layer optical
// depths for one (species, band) combination. It holds no per-time-step
// state: processing the same input twice yields identical output.
type Converter struct {
	Optics  *OpticsTable
	Band    Band
	Species Species

	// SizeBin is the 1-based zero-padded size-bin label ("001"–"005")
	// for size-binned species; ignored otherwise.
	SizeBin string

	// WriteNative also writes the native-grid dataset next to the
	// sub-sampled one. Off by default; the sub-sampled file is the
	// production artifact.
	WriteNative bool
}

// rhBins maps a relative-humidity field to 0–99 humidity-bin indices by
// floor(rh*100) clamped to 99. Hydrophobic species ignore ambient
// humidity and take bin 0 everywhere.
func rhBins(rh *sparse.DenseArray, s Species) []int {
	bins := make([]int, len(rh.Elements))
	if !s.UsesHumidity() {
		return bins
	}
	for i, r := range rh.Elements {
		b := int(math.Floor(r * 100))
		if b > 99 {
			b = 99
		}
		if b < 0 {
			b = 0
		}
		bins[i] = b
	}
	return bins
}

// ProcessFile converts every record of one input file, writing one
// sub-sampled output (and optionally the native-grid output) per record.
// date is the synoptic time of the file's first record.
func (c *Converter) ProcessFile(filename, filenameOut string, date time.Time) error {
	Log.Info(filename)
	f, ff, err := openNCF(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	dims := ff.Header.Lengths("RH")
	if len(dims) != 4 {
		return fmt.Errorf("geosaod: %s: RH has %d dimensions; want (time, lev, lat, lon)", filename, len(dims))
	}
	ntime, nlev, nlat, nlon := dims[0], dims[1], dims[2], dims[3]
	if err := checkGrid(nlev, nlat, nlon); err != nil {
		return err
	}

	lat, err := readCoord(ff, "lat")
	if err != nil {
		return err
	}
	lon, err := readCoord(ff, "lon")
	if err != nil {
		return err
	}
	if eq := lat[nlat/2]; math.Abs(eq) > 0.25 {
		return fmt.Errorf("geosaod: %s: grid is not centred on the equator (middle latitude %g°)", filename, eq)
	}
	// The native axis stores the equator row with rounding slop.
	lat[nlat/2] = 0

	tracer, radiusBin, err := c.Species.Tracer(c.SizeBin)
	if err != nil {
		return err
	}
	if radiusBin >= c.Optics.Ext.Shape[0] {
		return fmt.Errorf("geosaod: radius bin %d out of range for species %s optics", radiusBin, c.Species.Name)
	}

	outName := LabelPath(filenameOut, tracer, c.Band.Label)
	for t := 0; t < ntime; t++ {
		field, err := c.convertRecord(ff, tracer, radiusBin, t)
		if err != nil {
			return fmt.Errorf("geosaod: %s record %d: %v", filename, t, err)
		}
		field.Lat, field.Lon = lat, lon

		column := columnSum(field.TauExt)
		Log.Infof("AOD global mean %.3f", stat.Mean(column.Elements, nil))

		sub, err := Subsample(field)
		if err != nil {
			return err
		}

		prov := provenance{
			datetime:      date.Format("2006-01-02") + fmt.Sprintf("_%02dZ", date.Hour()+3*t),
			inputFilename: filename,
			band:          c.Band.Label,
			wvlMin:        c.Band.WvlMin,
			wvlMax:        c.Band.WvlMax,
			tool:          "convert",
		}
		if c.WriteNative {
			ps, err := readRecord(ff, "PS", t)
			if err != nil {
				return err
			}
			if err := writeLayerFile(outName, field, column, ps, prov); err != nil {
				return err
			}
		}
		if err := writeSubsampledFile(SubsampledPath(outName), sub, prov); err != nil {
			return err
		}
	}
	return nil
}

// convertRecord computes the layer optical fields for one record. Per
// grid cell, extinction and scattering efficiencies and the asymmetry
// parameter are gathered from the optics table at (radius bin, humidity
// bin, wavelength index); the humidity bin varies cell by cell. Layer
// optical depth follows from hydrostatic balance: the mass per unit area
// of a layer is Δp/g, so τ = Δp·q·k/g.
func (c *Converter) convertRecord(ff *cdf.File, tracer string, radiusBin, rec int) (*LayerOpticalField, error) {
	rh, err := readRecord(ff, "RH", rec)
	if err != nil {
		return nil, err
	}
	delp, err := readRecord(ff, "DELP", rec)
	if err != nil {
		return nil, err
	}
	q, err := readRecord(ff, tracer, rec)
	if err != nil {
		return nil, err
	}

	bins := rhBins(rh, c.Species)
	w := c.Band.WavelengthIndex
	tauExt := sparse.ZerosDense(rh.Shape...)
	tauSca := sparse.ZerosDense(rh.Shape...)
	asym := sparse.ZerosDense(rh.Shape...)
	for i := range rh.Elements {
		kExt := c.Optics.Ext.Get(radiusBin, bins[i], w)
		kSca := c.Optics.Sca.Get(radiusBin, bins[i], w)
		layerMass := delp.Elements[i] * q.Elements[i] / gEarth
		tauExt.Elements[i] = layerMass * kExt
		tauSca.Elements[i] = layerMass * kSca
		asym.Elements[i] = c.Optics.Asym.Get(radiusBin, bins[i], w)
	}
	return &LayerOpticalField{DELP: delp, TauExt: tauExt, TauSca: tauSca, Asym: asym}, nil
}

// outVarNames are the layer optical variables shared by native and
// sub-sampled output files.
var outVarNames = []string{
	"Extinction_Layer_Optical_Depth",
	"Scattering_Layer_Optical_Depth",
	"Layer_Asymmetry_Parameter",
}

// columnVarName holds the vertically integrated extinction.
const columnVarName = "Extinction_Column_Optical_Depth"

// defineGrid sets up the common header structure of an output file.
func defineGrid(nlev int, lat, lon []float64, prov provenance) *cdf.Header {
	h := cdf.NewHeader(
		[]string{"lev", "lat", "lon"},
		[]int{nlev, len(lat), len(lon)})
	h.AddVariable("lat", []string{"lat"}, []float32{0})
	h.AddAttribute("lat", "long_name", "latitude")
	h.AddAttribute("lat", "units", "degrees_north")
	h.AddVariable("lon", []string{"lon"}, []float32{0})
	h.AddAttribute("lon", "long_name", "longitude")
	h.AddAttribute("lon", "units", "degrees_east")
	for _, v := range outVarNames {
		h.AddVariable(v, []string{"lev", "lat", "lon"}, []float32{0})
	}
	h.AddVariable("DELP", []string{"lev", "lat", "lon"}, []float32{0})
	h.AddAttribute("DELP", "units", "Pa")
	h.AddVariable(columnVarName, []string{"lat", "lon"}, []float32{0})
	prov.addTo(h)
	return h
}

// writeGrid writes the variables common to both output flavors.
func writeGrid(f *cdf.File, lat, lon []float64, delp, tauExt, tauSca, asym, column *sparse.DenseArray) error {
	if err := writeCoord(f, "lat", lat); err != nil {
		return err
	}
	if err := writeCoord(f, "lon", lon); err != nil {
		return err
	}
	for v, data := range map[string]*sparse.DenseArray{
		"DELP":                           delp,
		"Extinction_Layer_Optical_Depth": tauExt,
		"Scattering_Layer_Optical_Depth": tauSca,
		"Layer_Asymmetry_Parameter":      asym,
		columnVarName:                    column,
	} {
		if err := writeVar(f, v, data); err != nil {
			return err
		}
	}
	return nil
}

// writeLayerFile writes the native-grid dataset, which additionally
// carries the surface pressure.
func writeLayerFile(filename string, field *LayerOpticalField, column, ps *sparse.DenseArray, prov provenance) error {
	h := defineGrid(field.TauExt.Shape[0], field.Lat, field.Lon, prov)
	h.AddVariable("PS", []string{"lat", "lon"}, []float32{0})
	h.AddAttribute("PS", "units", "Pa")
	h.Define()
	fo, f, err := createNCF(filename, h)
	if err != nil {
		return err
	}
	if err := writeGrid(f, field.Lat, field.Lon, field.DELP, field.TauExt, field.TauSca, field.Asym, column); err != nil {
		fo.Close()
		return err
	}
	if err := writeVar(f, "PS", ps); err != nil {
		fo.Close()
		return err
	}
	Log.Infof("writing %s", filename)
	return closeNCF(fo)
}

// writeSubsampledFile writes the sub-sampled dataset, the production
// artifact of the converter.
func writeSubsampledFile(filename string, sub *SubsampledField, prov provenance) error {
	h := defineGrid(sub.TauExt.Shape[0], sub.Lat, sub.Lon, prov)
	h.Define()
	fo, f, err := createNCF(filename, h)
	if err != nil {
		return err
	}
	column := columnSum(sub.TauExt)
	if err := writeGrid(f, sub.Lat, sub.Lon, sub.DELP, sub.TauExt, sub.TauSca, sub.Asym, column); err != nil {
		fo.Close()
		return err
	}
	Log.Infof("writing %s", filename)
	return closeNCF(fo)
}
