// Command cornerpoint tessellates corner-point grids described by grid
// scripts and writes the meshes as STL, DXF or JSON.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/chazu/cornerpoint/pkg/mesh"
	"github.com/chazu/cornerpoint/pkg/tessellate"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
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
			name: "log-level",
			usage: `
              log-level is one of panic, fatal, error, warn, info, debug or trace.
              Skipped walls are logged at warn, the sweep summary at debug.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "epsilon",
			usage: `
              epsilon is the depth tolerance under which corner depths on a pillar
              are merged into one vertex. Values <= 0 select the default.`,
			defaultVal: tessellate.DefaultEpsilon,
			flagsets:   []*pflag.FlagSet{tessellateCmd.Flags(), statsCmd.Flags()},
		},
		{
			name: "synthetic-edges",
			usage: `
              synthetic-edges also emits the triangulation diagonals inside faces.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{tessellateCmd.Flags(), statsCmd.Flags()},
		},
		{
			name: "validate-invariants",
			usage: `
              validate-invariants checks the internal ordering invariants during
              the sweep and fails on the first broken one.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{tessellateCmd.Flags(), statsCmd.Flags()},
		},
		{
			name:       "stl",
			usage:      "stl is the path of the binary STL file to write.",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{tessellateCmd.Flags()},
		},
		{
			name:       "dxf",
			usage:      "dxf is the path of the DXF wireframe to write.",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{tessellateCmd.Flags()},
		},
		{
			name:       "json",
			usage:      "json is the path of the JSON mesh document to write.",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{tessellateCmd.Flags()},
		},
		{
			name:       "format",
			shorthand:  "f",
			usage:      "format of the report printed by stats and validate: text or json.",
			defaultVal: "text",
			flagsets:   []*pflag.FlagSet{statsCmd.Flags(), validateCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Environment variables look like CORNERPOINT_SYNTHETIC_EDGES.
	Cfg.SetEnvPrefix("CORNERPOINT")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, v, option.usage)
			case float64:
				set.Float64P(option.name, option.shorthand, v, option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}

	Root.AddCommand(tessellateCmd)
	Root.AddCommand(validateCmd)
	Root.AddCommand(statsCmd)
}

// setConfig reads in the configuration file, if there is one, and applies
// the log level.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("cornerpoint: problem reading configuration file: %v", err)
		}
	}
	level, err := logrus.ParseLevel(Cfg.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("cornerpoint: %v", err)
	}
	logrus.SetLevel(level)
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "cornerpoint",
	Short: "Tessellate corner-point grids.",
	Long: `cornerpoint turns corner-point grids into watertight triangle meshes.
Grids are described by grid scripts, for example:

    (grid :nx 4 :ny 3 :nz 5 :dx 100 :dy 100 :dz 10 :top 2000)
    (fault :i 2 :throw 15)
    (inactive 0 0 4)

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'CORNERPOINT_VAR' where 'VAR'
is the upper-cased option name with '-' replaced by '_'.`,
	SilenceUsage:      true,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var tessellateCmd = &cobra.Command{
	Use:   "tessellate SCRIPT",
	Short: "Tessellate a grid and write the mesh.",
	Long: `tessellate evaluates a grid script, tessellates the grid and writes the
mesh to the files given by --stl, --dxf and --json. Skipped walls are
reported as warnings; the command still succeeds.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, app, err := run(cmd, args[0])
		if err != nil {
			return err
		}
		var paths []string
		for _, format := range []string{"stl", "dxf", "json"} {
			if p := Cfg.GetString(format); p != "" {
				paths = append(paths, p)
			}
		}
		if len(paths) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no output requested; use --stl, --dxf or --json")
		}
		if err := app.Export(result, paths...); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d vertices, %d triangles, %d edges, %d intersections, %d skipped walls\n",
			result.Grid, len(result.Mesh.Vertices)/4, len(result.Mesh.Triangles)/3,
			len(result.Mesh.Edges)/2, result.Intersections, len(result.Problems))
		return nil
	},
	DisableAutoGenTag: true,
}

var validateCmd = &cobra.Command{
	Use:   "validate SCRIPT",
	Short: "Check a grid without tessellating it.",
	Long: `validate evaluates a grid script and runs the structural and geometric
checks on the grid. It fails when a structural check fails.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := readScript(cmd, args[0])
		if err != nil {
			return err
		}
		app := NewApp(tessellateOptions())
		g, errs, warnings := app.Load(source)
		if Cfg.GetString("format") == "json" {
			if err := printJSON(cmd.OutOrStdout(), struct {
				Errors   []EvalErrorData `json:"errors"`
				Warnings []EvalErrorData `json:"warnings"`
			}{errs, warnings}); err != nil {
				return err
			}
		} else {
			for _, w := range warnings {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", describe(w))
			}
			for _, e := range errs {
				fmt.Fprintf(cmd.OutOrStdout(), "error: %s\n", describe(e))
			}
		}
		if len(errs) > 0 {
			return fmt.Errorf("%s: %d errors", args[0], len(errs))
		}
		if Cfg.GetString("format") != "json" {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d warnings)\n", g, len(warnings))
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var statsCmd = &cobra.Command{
	Use:   "stats SCRIPT",
	Short: "Print mesh statistics for a grid.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, _, err := run(cmd, args[0])
		if err != nil {
			return err
		}
		s := result.Mesh.Stats
		if Cfg.GetString("format") == "json" {
			return printJSON(cmd.OutOrStdout(), s)
		}
		printStats(cmd, s)
		fmt.Fprintf(cmd.OutOrStdout(), "intersections %d\nwalls %d\nskipped walls %d\n",
			result.Intersections, result.Walls, len(result.Problems))
		return nil
	},
	DisableAutoGenTag: true,
}

// tessellateOptions builds tessellation options from the configuration.
func tessellateOptions() tessellate.Options {
	opts := tessellate.DefaultOptions()
	opts.Epsilon = Cfg.GetFloat64("epsilon")
	opts.SyntheticEdges = Cfg.GetBool("synthetic-edges")
	opts.Validate = Cfg.GetBool("validate-invariants")
	opts.Logger = logrus.StandardLogger()
	return opts
}

// run evaluates and tessellates the script at path, printing warnings.
func run(cmd *cobra.Command, path string) (EvalResult, *App, error) {
	source, err := readScript(cmd, path)
	if err != nil {
		return EvalResult{}, nil, err
	}
	app := NewApp(tessellateOptions())
	result := app.Evaluate(source)
	for _, w := range result.Warnings {
		cmd.PrintErrf("warning: %s\n", describe(w))
	}
	if !result.OK() {
		for _, e := range result.Errors {
			cmd.PrintErrf("error: %s\n", describe(e))
		}
		return result, app, fmt.Errorf("%s: %d errors", path, len(result.Errors))
	}
	return result, app, nil
}

// readScript reads a grid script from path, or from standard input when
// path is "-".
func readScript(cmd *cobra.Command, path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("cornerpoint: %v", err)
	}
	return string(data), nil
}

func describe(e EvalErrorData) string {
	switch {
	case e.Line > 0:
		return e.Error()
	case e.Where != "":
		return e.Where + ": " + e.Message
	}
	return e.Message
}

func printStats(cmd *cobra.Command, s mesh.Stats) {
	fmt.Fprintf(cmd.OutOrStdout(), "vertices %d\nedges %d (%d fault)\ntriangles %d (%d fault, %d boundary, %d cap)\ncells %d\n",
		s.Vertices, s.Edges, s.FaultEdges, s.Triangles, s.FaultTriangles,
		s.BoundaryTriangles, s.CapTriangles, s.Cells)
	if s.Triangles > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "area mean %.6g stddev %.6g min %.6g max %.6g\n",
			s.AreaMean, s.AreaStdDev, s.AreaMin, s.AreaMax)
	}
}

func printJSON(w io.Writer, v interface{}) error {
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}

func main() {
	if err := Root.Execute(); err != nil {
		os.Exit(1)
	}
}
