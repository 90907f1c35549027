package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Serve     *ServeCommand
	Install   *InstallCommand
	Uninstall *UninstallCommand
	Add       *AddCommand
	List      *ListCommand
	Report    *ReportCommand
	Plot      *PlotCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "vitalsmon"
	parser.LongDescription = "Collect real-user Core Web Vitals and report averages, histograms and ratings."

	cmds := &commands{
		Serve:     &ServeCommand{globals: &globals, version: version},
		Install:   &InstallCommand{globals: &globals, version: version},
		Uninstall: &UninstallCommand{globals: &globals, version: version},
		Add:       &AddCommand{globals: &globals, version: version},
		List:      &ListCommand{globals: &globals, version: version},
		Report:    &ReportCommand{globals: &globals, version: version},
		Plot:      &PlotCommand{globals: &globals, version: version},
	}

	parser.AddCommand("serve", "Run the HTTP collector", "Accept measurements from browsers and serve dashboard queries over HTTP.", cmds.Serve)
	parser.AddCommand("install", "Create the measurement table", "Create the measurement table and indexes. Safe to run repeatedly.", cmds.Install)
	parser.AddCommand("uninstall", "Drop ALL measurements", "Drop the measurement table. Destructive operation with safety prompt.", cmds.Uninstall)
	parser.AddCommand("add", "Record one measurement", "Validate and record a single measurement, as a browser would.", cmds.Add)
	parser.AddCommand("list", "List raw measurements", "List stored measurements matching a filter.", cmds.List)
	parser.AddCommand("report", "Show per-metric ratings", "Show average, p75 and rating for each metric, plus table statistics.", cmds.Report)
	parser.AddCommand("plot", "Print a value histogram", "Print a histogram of one metric's values in 10-unit buckets.", cmds.Plot)

	return parser, &globals, cmds
}

// Run is the main entry point for the vitalsmon CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// go-flags requires a subcommand, but --version is valid without one.
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("vitalsmon %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
