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
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// provTimeFormat is the format of the processing_datetime provenance
// attribute (UTC).
const provTimeFormat = "2006/01/02_15:04:05"

// subsampledGridTag replaces nativeGridTag in the filenames of
// sub-sampled output.
const (
	nativeGridTag     = "L576x361_v72"
	subsampledGridTag = "L288x180_v24"
)

// FillDateTemplate substitutes the YYYY, MM, DD and HH placeholders in a
// path template with the corresponding fields of the given time. This
// convention is shared by every component and by the legacy production
// scripts; file names like
// GEOSIT/YYYY/MM/GEOS.it.asm.aer_inst_3hr_glo_L576x361_v72.GEOS5294.YYYY-MM-DDTHH00.V01.nc4
// depend on it.
func FillDateTemplate(template string, date time.Time) string {
	r := strings.NewReplacer(
		"YYYY", date.Format("2006"),
		"MM", date.Format("01"),
		"DD", date.Format("02"),
		"HH", date.Format("15"),
	)
	return r.Replace(template)
}

// LabelPath inserts the species and band labels into an output filename by
// widening the GEOS5294 collection token, e.g.
// "....GEOS5294.2010-01-01T0000..." becomes
// "....GEOS5294.SO4_SW01.2010-01-01T0000...".
func LabelPath(path, label, band string) string {
	return strings.Replace(path, "GEOS5294.",
		"GEOS5294."+label+"_"+strings.ToUpper(band)+".", 1)
}

// SubsampledPath converts a native-grid output filename to the
// corresponding sub-sampled-grid filename.
func SubsampledPath(path string) string {
	return strings.Replace(path, nativeGridTag, subsampledGridTag, 1)
}

// openNCF opens filename as a NetCDF file.
func openNCF(filename string) (*os.File, *cdf.File, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, nil, err
	}
	ff, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("geosaod: opening %s: %v", filename, err)
	}
	return f, ff, nil
}

// toFloat64s converts a NetCDF read buffer to float64 values.
func toFloat64s(buf interface{}) ([]float64, error) {
	switch b := buf.(type) {
	case []float32:
		out := make([]float64, len(b))
		for i, v := range b {
			out[i] = float64(v)
		}
		return out, nil
	case []float64:
		return b, nil
	case []int32:
		out := make([]float64, len(b))
		for i, v := range b {
			out[i] = float64(v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("geosaod: unsupported netcdf data type %T", buf)
	}
}

// readFull reads an entire variable from a NetCDF file.
func readFull(ff *cdf.File, varName string) (*sparse.DenseArray, error) {
	dims := ff.Header.Lengths(varName)
	if len(dims) == 0 {
		return nil, fmt.Errorf("geosaod: read netcdf: variable %s not in file", varName)
	}
	r := ff.Reader(varName, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("geosaod: read netcdf variable %s: %v", varName, err)
	}
	vals, err := toFloat64s(buf)
	if err != nil {
		return nil, err
	}
	data := sparse.ZerosDense(dims...)
	copy(data.Elements, vals)
	return data, nil
}

// readRecord reads one record of a variable whose leading dimension is
// time, dropping that dimension from the result.
func readRecord(ff *cdf.File, varName string, rec int) (*sparse.DenseArray, error) {
	dims := ff.Header.Lengths(varName)
	if len(dims) == 0 {
		return nil, fmt.Errorf("geosaod: read netcdf: variable %s not in file", varName)
	}
	dims = dims[1:]
	nread := 1
	for _, dim := range dims {
		nread *= dim
	}
	start, end := make([]int, len(dims)+1), make([]int, len(dims)+1)
	start[0], end[0] = rec, rec+1
	r := ff.Reader(varName, start, end)
	buf := r.Zero(nread)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("geosaod: read netcdf variable %s record %d: %v", varName, rec, err)
	}
	vals, err := toFloat64s(buf)
	if err != nil {
		return nil, err
	}
	data := sparse.ZerosDense(dims...)
	copy(data.Elements, vals)
	return data, nil
}

// readCoord reads a 1-D coordinate variable.
func readCoord(ff *cdf.File, varName string) ([]float64, error) {
	data, err := readFull(ff, varName)
	if err != nil {
		return nil, err
	}
	if len(data.Shape) != 1 {
		return nil, fmt.Errorf("geosaod: coordinate %s is not 1-D", varName)
	}
	return data.Elements, nil
}

// writeVar writes data into an already-defined variable as float32.
func writeVar(f *cdf.File, varName string, data *sparse.DenseArray) error {
	data32 := make([]float32, len(data.Elements))
	for i, e := range data.Elements {
		data32[i] = float32(e)
	}
	end := f.Header.Lengths(varName)
	start := make([]int, len(end))
	w := f.Writer(varName, start, end)
	if _, err := w.Write(data32); err != nil {
		return fmt.Errorf("geosaod: write netcdf variable %s: %v", varName, err)
	}
	return nil
}

// writeCoord writes a 1-D coordinate variable as float32.
func writeCoord(f *cdf.File, varName string, vals []float64) error {
	data := sparse.ZerosDense(len(vals))
	copy(data.Elements, vals)
	return writeVar(f, varName, data)
}

// createNCF creates filename (and any missing parent directories) and
// writes the given header to it.
func createNCF(filename string, h *cdf.Header) (*os.File, *cdf.File, error) {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return nil, nil, fmt.Errorf("geosaod: creating output directory: %v", err)
	}
	fo, err := os.Create(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("geosaod: creating %s: %v", filename, err)
	}
	f, err := cdf.Create(fo, h)
	if err != nil {
		fo.Close()
		return nil, nil, fmt.Errorf("geosaod: writing header of %s: %v", filename, err)
	}
	return fo, f, nil
}

// closeNCF finalizes and closes an output NetCDF file.
func closeNCF(fo *os.File) error {
	if err := cdf.UpdateNumRecs(fo); err != nil {
		fo.Close()
		return fmt.Errorf("geosaod: finalizing %s: %v", fo.Name(), err)
	}
	return fo.Close()
}

// provenance holds the attributes recorded on every output file.
type provenance struct {
	datetime      string
	inputFilename string
	band          string  // upper-case band label, empty if not band-specific
	wvlMin        float64 // micron
	wvlMax        float64 // micron
	tool          string  // producing component, e.g. "convert"
}

// addTo records the provenance as global attributes on a header being
// defined.
func (p provenance) addTo(h *cdf.Header) {
	h.AddAttribute("", "datetime", p.datetime)
	h.AddAttribute("", "input_filename", p.inputFilename)
	h.AddAttribute("", "processing_datetime", time.Now().UTC().Format(provTimeFormat))
	if p.band != "" {
		h.AddAttribute("", "Langley_Fu_Liou_band", p.band)
		h.AddAttribute("", "band_wvl_min_micron", []float64{p.wvlMin})
		h.AddAttribute("", "band_wvl_max_micron", []float64{p.wvlMax})
	}
	h.AddAttribute("", "script_version", "geosaod "+p.tool+" "+Version)
}

// writableDir returns dir if it can be written to, and otherwise a
// process-local fallback directory, logging the substitution. Used for
// reporting artifacts (plots, validation logs) only; data output paths
// fail hard instead.
func writableDir(dir string) string {
	if err := os.MkdirAll(dir, 0755); err == nil {
		probe, err := os.CreateTemp(dir, ".geosaod-*")
		if err == nil {
			probe.Close()
			os.Remove(probe.Name())
			return dir
		}
	}
	fallback := os.TempDir()
	Log.Warnf("directory %s is not writable; falling back to %s", dir, fallback)
	return fallback
}
