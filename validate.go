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
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"
)

// ValidatePattern is the expected-file pattern audited by the validator,
// with {label} and {band} slots in addition to the date placeholders.
const ValidatePattern = "GEOSIT/YYYY/MM/" +
	"GEOS.it.asm.aer_inst_3hr_glo_L288x180_v24.GEOS5294." +
	"{label}_{band}.YYYY-MM-DDTHH00.V01.nc4"

// ValidateConfig selects which output files a processing run is expected
// to have produced.
type ValidateConfig struct {
	DataDir     string
	FilePattern string    // defaults to ValidatePattern
	Start, End  time.Time // whole days; the validator covers 00Z–21Z
	SpeciesOnly bool      // skip the AER aggregates
	AerOnly     bool      // skip the per-species files
	DryRun      bool      // list expected files without checking disk
	LogDir      string    // where the missing/zero list is written
}

// ExpectedFiles enumerates every file a complete run covering the
// configured date range would produce: one file per 3-hourly timestamp
// per band per species, plus one AER aggregate per timestamp per band.
func ExpectedFiles(c ValidateConfig) ([]string, error) {
	if c.SpeciesOnly && c.AerOnly {
		return nil, fmt.Errorf("geosaod: validate: species-only and aer-only are mutually exclusive")
	}
	pattern := c.FilePattern
	if pattern == "" {
		pattern = ValidatePattern
	}
	var labels []string
	if !c.AerOnly {
		labels = AllSpecies()
	}
	if !c.SpeciesOnly {
		labels = append(labels, "AER")
	}
	var paths []string
	for _, date := range TimeSteps(c.Start, c.End.Add(21*time.Hour)) {
		dated := FillDateTemplate(pattern, date)
		for _, band := range AllBands() {
			for _, label := range labels {
				p := strings.Replace(dated, "{label}", label, 1)
				p = strings.Replace(p, "{band}", band, 1)
				paths = append(paths, filepath.Join(c.DataDir, p))
			}
		}
	}
	return paths, nil
}

// CheckFiles partitions paths into found, missing and zero-size sets.
func CheckFiles(paths []string) (found, missing, zeroSize []string) {
	for _, p := range paths {
		info, err := os.Stat(p)
		switch {
		case err != nil:
			missing = append(missing, p)
		case info.Size() == 0:
			zeroSize = append(zeroSize, p)
		default:
			found = append(found, p)
		}
	}
	return found, missing, zeroSize
}

// fileDay extracts the YYYY-MM-DD day from an output filename's
// timestamp token.
func fileDay(path string) string {
	parts := strings.Split(filepath.Base(path), ".")
	if len(parts) < 3 {
		return ""
	}
	stamp := parts[len(parts)-3] // YYYY-MM-DDTHH00
	if len(stamp) < 10 {
		return ""
	}
	return stamp[:10]
}

// Validate audits a processing run: it checks that every expected output
// file exists and is non-empty, prints a per-day summary table to w, and
// writes the full missing/zero-size list to a log file. The returned
// boolean is true iff the run is complete; callers map it to the process
// exit status.
func Validate(c ValidateConfig, w io.Writer) (bool, error) {
	paths, err := ExpectedFiles(c)
	if err != nil {
		return false, err
	}

	if c.DryRun {
		for _, p := range paths {
			fmt.Fprintln(w, p)
		}
		fmt.Fprintf(w, "\ntotal expected files: %d\n", len(paths))
		return true, nil
	}

	dayGroups := make(map[string][]string)
	for _, p := range paths {
		day := fileDay(p)
		dayGroups[day] = append(dayGroups[day], p)
	}
	days := make([]string, 0, len(dayGroups))
	for day := range dayGroups {
		days = append(days, day)
	}
	sort.Strings(days)

	var allMissing, allZero []string
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "Date\tExpected\tFound\tMissing\tZero-size\t")
	for _, day := range days {
		found, missing, zeroSize := CheckFiles(dayGroups[day])
		allMissing = append(allMissing, missing...)
		allZero = append(allZero, zeroSize...)
		status := "OK"
		if len(missing) > 0 || len(zeroSize) > 0 {
			status = "**"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\n",
			day, len(dayGroups[day]), len(found), len(missing), len(zeroSize), status)
	}
	fmt.Fprintf(tw, "TOTAL\t%d\t%d\t%d\t%d\t\n",
		len(paths), len(paths)-len(allMissing)-len(allZero), len(allMissing), len(allZero))
	tw.Flush()

	if len(allMissing) == 0 && len(allZero) == 0 {
		fmt.Fprintln(w, "\nall files present and non-empty")
		return true, nil
	}
	logPath := filepath.Join(writableDir(c.LogDir), "validate_run.log")
	lf, err := os.Create(logPath)
	if err != nil {
		return false, fmt.Errorf("geosaod: validate: writing %s: %v", logPath, err)
	}
	defer lf.Close()
	for _, p := range allMissing {
		fmt.Fprintf(lf, "MISSING  %s\n", p)
	}
	for _, p := range allZero {
		fmt.Fprintf(lf, "ZERO     %s\n", p)
	}
	fmt.Fprintf(w, "\nfull list written to %s\n", logPath)
	return false, nil
}
