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

// Package geosaodutil wires the geosaod library into a command-line
// application.
package geosaodutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialaerosol/geosaod"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to geosaod.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "debug",
			usage: `
              debug sets the logging level to debug.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "logfile",
			usage: `
              logfile directs log output to a file instead of standard
              output.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "datadir",
			usage: `
              datadir is the top-level input data directory.`,
			defaultVal: filepath.Join("${HOME}", "Data"),
			flagsets: []*pflag.FlagSet{convertCmd.Flags(), mixCmd.Flags(),
				validateCmd.Flags(), plotCmd.Flags(), plotDiffCmd.Flags()},
		},
		{
			name: "outdir",
			usage: `
              outdir is the top-level output directory for converted
              files.`,
			defaultVal: filepath.Join("${HOME}", "Data", "Output"),
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "plotdir",
			usage: `
              plotdir is the output directory for diagnostic plots.`,
			defaultVal: filepath.Join("${HOME}", "Plots"),
			flagsets:   []*pflag.FlagSet{plotCmd.Flags(), plotDiffCmd.Flags()},
		},
		{
			name: "aerosol",
			usage: `
              aerosol is the TOML aerosol optics configuration file,
              mapping species to optics tables and naming the band
              definition file.`,
			defaultVal: "aerosol.toml",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "species",
			usage: `
              species is the aerosol species to process, e.g. SU, OCPHO,
              SS, DU, NI, or AER for the aggregate total when plotting.`,
			defaultVal: "SU",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags(), plotCmd.Flags()},
		},
		{
			name: "size_bin",
			usage: `
              size_bin is the 1-based zero-padded particle size bin for
              size-binned species (sea salt, dust), e.g. 001.`,
			defaultVal: "001",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "band",
			usage: `
              band is the Langley Fu-Liou spectral band label, e.g. sw01
              or lw12.`,
			defaultVal: "sw01",
			flagsets: []*pflag.FlagSet{convertCmd.Flags(), mixCmd.Flags(),
				plotCmd.Flags(), plotDiffCmd.Flags()},
		},
		{
			name: "start",
			usage: `
              start is the first synoptic time to process
              (YYYY-MM-DDTHH).`,
			defaultVal: "2010-01-01T00",
			flagsets: []*pflag.FlagSet{convertCmd.Flags(), mixCmd.Flags(),
				validateCmd.Flags()},
		},
		{
			name: "end",
			usage: `
              end is the last synoptic time to process, inclusive
              (YYYY-MM-DDTHH).`,
			defaultVal: "2010-01-01T00",
			flagsets: []*pflag.FlagSet{convertCmd.Flags(), mixCmd.Flags(),
				validateCmd.Flags()},
		},
		{
			name: "datetime",
			usage: `
              datetime selects the synoptic time of the file to plot
              (YYYY-MM-DDTHH).`,
			defaultVal: "2010-01-01T00",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags(), plotDiffCmd.Flags()},
		},
		{
			name: "file_pattern",
			usage: `
              file_pattern is the native-grid input file path template
              relative to datadir, with YYYY, MM, DD and HH placeholders.`,
			defaultVal: filepath.Join("GEOSIT", "YYYY", "MM",
				"GEOS.it.asm.aer_inst_3hr_glo_L576x361_v72.GEOS5294.YYYY-MM-DDTHH00.V01.nc4"),
			flagsets: []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "mix_pattern",
			usage: `
              mix_pattern is the per-species sub-sampled file glob
              template relative to datadir, with a *_ species slot and a
              band token.`,
			defaultVal: filepath.Join("GEOSIT", "YYYY", "MM",
				"GEOS.it.asm.aer_inst_3hr_glo_L288x180_v24.GEOS5294.*_band.YYYY-MM-DDTHH00.V01.nc4"),
			flagsets: []*pflag.FlagSet{mixCmd.Flags()},
		},
		{
			name: "mix_species",
			usage: `
              mix_species lists the species labels to include in the
              external mixture (defaults to all).`,
			defaultVal: geosaod.AllSpecies(),
			flagsets:   []*pflag.FlagSet{mixCmd.Flags()},
		},
		{
			name: "species_a",
			usage: `
              species_a is the first species label of a difference plot.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{plotDiffCmd.Flags()},
		},
		{
			name: "species_b",
			usage: `
              species_b is the second species label of a difference
              plot.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{plotDiffCmd.Flags()},
		},
		{
			name: "write_native",
			usage: `
              write_native also writes the native-grid dataset next to
              the sub-sampled output.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "ceres",
			usage: `
              ceres switches to the CERES production paths and aerosol
              configuration.`,
			defaultVal: false,
			flagsets: []*pflag.FlagSet{convertCmd.Flags(), mixCmd.Flags(),
				validateCmd.Flags(), plotCmd.Flags(), plotDiffCmd.Flags()},
		},
		{
			name: "species-only",
			usage: `
              species-only restricts validation to per-species files,
              skipping the AER aggregates.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{validateCmd.Flags()},
		},
		{
			name: "aer-only",
			usage: `
              aer-only restricts validation to the AER aggregate files,
              skipping per-species files.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{validateCmd.Flags()},
		},
		{
			name: "dry-run",
			usage: `
              dry-run prints the expected file list without checking the
              disk.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{validateCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("GEOSAOD")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(convertCmd)
	Root.AddCommand(mixCmd)
	Root.AddCommand(validateCmd)
	Root.AddCommand(plotCmd)
	Root.AddCommand(plotDiffCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and configures logging.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("geosaod: problem reading configuration file: %v", err)
		}
	}
	if Cfg.GetBool("debug") {
		geosaod.Log.SetLevel(logrus.DebugLevel)
	}
	geosaod.Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if logfile := Cfg.GetString("logfile"); logfile != "" {
		f, err := os.OpenFile(logfile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("geosaod: opening log file: %v", err)
		}
		geosaod.Log.SetOutput(f)
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "geosaod",
	Short: "GEOS-IT aerosol optical depth post-processing.",
	Long: `geosaod converts GEOS-IT aerosol reanalysis output into spectral-band
aerosol optical properties for the Langley Fu-Liou radiative transfer bands.
Use the subcommands specified below to access the pipeline stages.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'GEOSAOD_var' where 'var'
is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of geosaod.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("geosaod %s\n", geosaod.Version)
	},
	DisableAutoGenTag: true,
}

// parseTime parses a YYYY-MM-DDTHH or YYYY-MM-DD timestamp.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02T15", s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("geosaod: invalid time %q; want YYYY-MM-DDTHH", s)
	}
	return t, nil
}

// timeRange parses the start and end options into the 3-hourly steps
// they span.
func timeRange() ([]time.Time, error) {
	start, err := parseTime(Cfg.GetString("start"))
	if err != nil {
		return nil, err
	}
	end, err := parseTime(Cfg.GetString("end"))
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("geosaod: end %v is before start %v", end, start)
	}
	return geosaod.TimeSteps(start, end), nil
}

// expandDir expands environment variables in a directory option.
func expandDir(key string) string {
	return os.ExpandEnv(Cfg.GetString(key))
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert species mixing ratios to layer optical depths.",
	Long: `convert processes one aerosol species over a range of synoptic times,
turning mass mixing ratios into layer extinction and scattering optical
depth and an asymmetry parameter on the sub-sampled output grid.`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		datadir, outdir := expandDir("datadir"), expandDir("outdir")
		aerosol := Cfg.GetString("aerosol")
		pattern := Cfg.GetString("file_pattern")
		if Cfg.GetBool("ceres") {
			aerosol = "aerosol_ceres.toml"
			datadir = "/CERES_prd/GMAO/"
			outdir = "/CERES/sarb/dfillmor/"
		}

		speciesArg := Cfg.GetString("species")
		band := Cfg.GetString("band")
		cfg, err := geosaod.LoadOpticsConfig(aerosol, speciesArg)
		if err != nil {
			return err
		}
		optics, err := geosaod.LoadOpticsTable(cfg, speciesArg, band)
		if err != nil {
			return err
		}
		bandTable, err := geosaod.LoadBandTable(cfg)
		if err != nil {
			return err
		}
		b, err := geosaod.SelectBand(band, bandTable, optics)
		if err != nil {
			return err
		}
		conv := &geosaod.Converter{
			Optics:      optics,
			Band:        b,
			Species:     geosaod.NewSpecies(speciesArg),
			SizeBin:     Cfg.GetString("size_bin"),
			WriteNative: Cfg.GetBool("write_native"),
		}

		dates, err := timeRange()
		if err != nil {
			return err
		}
		outPattern := pattern
		if Cfg.GetBool("ceres") {
			outPattern = strings.Replace(outPattern, "GEOSIT/", "GEOSIT_alpha_4/", 1)
		}
		for _, date := range dates {
			in := filepath.Join(datadir, geosaod.FillDateTemplate(pattern, date))
			out := filepath.Join(outdir, geosaod.FillDateTemplate(outPattern, date))
			if _, err := os.Stat(in); err != nil {
				geosaod.Log.Warnf("missing input %s; skipping", in)
				continue
			}
			if err := conv.ProcessFile(in, out, date); err != nil {
				return err
			}
		}
		return nil
	},
}

var mixCmd = &cobra.Command{
	Use:   "mix",
	Short: "Combine per-species optical depths into an external mixture.",
	Long: `mix sums per-species layer optical depths over a range of synoptic
times into an externally mixed total ("AER") with a scattering-weighted
ensemble asymmetry parameter.`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		datadir := expandDir("datadir")
		pattern := Cfg.GetString("mix_pattern")
		if Cfg.GetBool("ceres") {
			datadir = "/CERES/sarb/dfillmor/"
			pattern = strings.Replace(pattern, "GEOSIT/", "GEOSIT_alpha_4/", 1)
		}
		band := strings.ToUpper(Cfg.GetString("band"))
		speciesList, err := cast.ToStringSliceE(Cfg.Get("mix_species"))
		if err != nil {
			return fmt.Errorf("geosaod: mix_species: %v", err)
		}

		dates, err := timeRange()
		if err != nil {
			return err
		}
		for _, date := range dates {
			p := filepath.Join(datadir, geosaod.FillDateTemplate(pattern, date))
			p = strings.Replace(p, "band", band, 1)
			if err := geosaod.MixExternal(p, speciesList); err != nil {
				return err
			}
		}
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that a processing run produced every expected file.",
	Long: `validate audits the output tree of a processing run, reporting a
per-day summary and writing the list of missing or zero-size files to a
log. The exit status is 0 iff the run is complete.`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		datadir := expandDir("datadir")
		pattern := geosaod.ValidatePattern
		if Cfg.GetBool("ceres") {
			datadir = "/CERES/sarb/dfillmor/"
			pattern = strings.Replace(pattern, "GEOSIT/", "GEOSIT_alpha_4/", 1)
		}
		start, err := parseTime(Cfg.GetString("start"))
		if err != nil {
			return err
		}
		end, err := parseTime(Cfg.GetString("end"))
		if err != nil {
			return err
		}
		ok, err := geosaod.Validate(geosaod.ValidateConfig{
			DataDir:     datadir,
			FilePattern: pattern,
			Start:       start.Truncate(24 * time.Hour),
			End:         end.Truncate(24 * time.Hour),
			SpeciesOnly: Cfg.GetBool("species-only"),
			AerOnly:     Cfg.GetBool("aer-only"),
			DryRun:      Cfg.GetBool("dry-run"),
			LogDir:      ".",
		}, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("geosaod: validation failed")
		}
		return nil
	},
}

// subsampledFilename builds the path of one sub-sampled output file.
func subsampledFilename(datadir, species, band string, date time.Time) string {
	name := fmt.Sprintf(
		"GEOS.it.asm.aer_inst_3hr_glo_L288x180_v24.GEOS5294.%s_%s.%sT%02d00.V01.nc4",
		species, strings.ToUpper(band), date.Format("2006-01-02"), date.Hour())
	return filepath.Join(datadir, "GEOSIT", date.Format("2006"), date.Format("01"), name)
}

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Plot the column optical depth of one output file.",
	Long: `plot renders the column extinction optical depth of a per-species or
aggregate output file as a lon/lat heat map PNG.`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		datadir := expandDir("datadir")
		if Cfg.GetBool("ceres") {
			datadir = filepath.Join("/CERES/sarb/dfillmor/", "GEOSIT_alpha_4")
		}
		date, err := parseTime(Cfg.GetString("datetime"))
		if err != nil {
			return err
		}
		species := Cfg.GetString("species")
		band := Cfg.GetString("band")
		filename := subsampledFilename(datadir, species, band, date)
		plotFile := filepath.Join(expandDir("plotdir"),
			fmt.Sprintf("%s_%s_%s.png", species, strings.ToUpper(band), date.Format("20060102T15")))
		title := fmt.Sprintf("GEOSIT %s AOD %s", species, strings.ToUpper(band))
		return geosaod.PlotAOD(filename, plotFile, title)
	},
}

var plotDiffCmd = &cobra.Command{
	Use:   "plotdiff",
	Short: "Plot the column optical depth difference of two species.",
	Long: `plotdiff renders the difference of the column extinction optical
depth between two species files at the same synoptic time, on a symmetric
diverging color scale.`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		datadir := expandDir("datadir")
		if Cfg.GetBool("ceres") {
			datadir = filepath.Join("/CERES/sarb/dfillmor/", "GEOSIT_alpha_4")
		}
		date, err := parseTime(Cfg.GetString("datetime"))
		if err != nil {
			return err
		}
		speciesA, speciesB := Cfg.GetString("species_a"), Cfg.GetString("species_b")
		if speciesA == "" || speciesB == "" {
			return fmt.Errorf("geosaod: plotdiff requires --species_a and --species_b")
		}
		band := Cfg.GetString("band")
		fileA := subsampledFilename(datadir, speciesA, band, date)
		fileB := subsampledFilename(datadir, speciesB, band, date)
		for _, f := range []string{fileA, fileB} {
			if _, err := os.Stat(f); err != nil {
				return fmt.Errorf("geosaod: file not found: %s", f)
			}
		}
		plotFile := filepath.Join(expandDir("plotdir"),
			fmt.Sprintf("%s_minus_%s_%s_%s.png", speciesA, speciesB,
				strings.ToUpper(band), date.Format("20060102T15")))
		title := fmt.Sprintf("GEOSIT %s - %s AOD %s", speciesA, speciesB, strings.ToUpper(band))
		return geosaod.PlotAODDiff(fileA, fileB, plotFile, title)
	},
}
