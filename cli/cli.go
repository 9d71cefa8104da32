package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/perfgo/timesign/component"
	"github.com/perfgo/timesign/gatherer"
	"github.com/perfgo/timesign/model"
)

const AppName = "timesign"

type App struct {
	logger zerolog.Logger
	cli    *cli.App

	// out receives command output; logs go to stderr
	out io.Writer
	// runner executes the pipeline commands, git the metadata lookups
	runner gatherer.Runner
	git    gatherer.Runner
}

func New() *App {
	return newApp(os.Stdout, gatherer.ExecRunner{}, gatherer.ExecRunner{Stderr: io.Discard})
}

func newApp(out io.Writer, runner, git gatherer.Runner) *App {

	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger :=
		log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
		})

	app := &App{
		logger: logger,
		out:    out,
		runner: runner,
		git:    git,
		cli: &cli.App{
			Name:   AppName,
			Usage:  "Collect per-signature timing samples from ECDSA implementations",
			Writer: out,
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "verbose",
					Usage: "Enable verbose (debug) logging",
				},
			},
			Before: func(ctx *cli.Context) error {
				if ctx.Bool("verbose") {
					zerolog.SetGlobalLevel(zerolog.DebugLevel)
				}
				return nil
			},
		},
	}
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "collect",
		Usage:  "Generate a key and random data, then sign it with a component's gatherer",
		Action: app.runCollect,
		Before: func(ctx *cli.Context) error {
			if ctx.Bool("verbose") {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return nil
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory where to place results (required)",
			},
			&cli.StringFlag{
				Name:    "curve",
				Aliases: []string{"c"},
				Usage:   "The curve by name e.g NIST256p, NIST384p etc. (required)",
			},
			&cli.IntFlag{
				Name:    "samples",
				Aliases: []string{"n"},
				Usage:   "Number of samples to create",
				Value:   model.DefaultSamples,
			},
			&cli.IntFlag{
				Name:    "size",
				Aliases: []string{"s"},
				Usage:   "Size of each data block",
				Value:   model.DefaultSampleSize,
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Print progress of every step",
			},
			&cli.BoolFlag{
				Name:  "run-in-32",
				Usage: "Build the native gatherer for 32 bit",
			},
			&cli.StringFlag{
				Name:  "gatherer",
				Usage: fmt.Sprintf("Path of the gatherer (default %s, %s for py-ecdsa, %s for golang)", component.DefaultNativeGatherer, component.DefaultScriptGatherer, component.DefaultManagedGatherer),
			},
			&cli.StringFlag{
				Name:  "component",
				Usage: "The component to test",
				Value: model.DefaultComponent,
			},
			&cli.StringFlag{
				Name:  "gcc-flags",
				Usage: "Flags to pass to gcc when compiling, replacing the component's defaults",
			},
			&cli.BoolFlag{
				Name:  "keep-flags",
				Usage: "Keep the default flags on top of the flags given with --gcc-flags",
			},
			&cli.BoolFlag{
				Name:  "list-components",
				Usage: "Print the available components and exit",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "TOML file with run settings; flags given on the command line take precedence",
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "components",
		Usage:  "List the available components",
		Action: app.components,
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "tsc-freq",
		Usage:     "Print the calibrated TSC frequency from DIR/processor-info",
		ArgsUsage: "[DIR]",
		Action:    app.tscFreq,
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "list",
		Usage:     "List previous collection runs",
		ArgsUsage: "[ROOT]",
		Action:    app.list,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "component",
				Usage: "Filter by component",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Limit number of results",
				Value:   20,
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:            "view",
		Usage:           "View a collection run",
		ArgsUsage:       "[ID|INDEX] [ROOT]",
		Action:          app.view,
		SkipFlagParsing: true,
		Description: `View a collection run found below ROOT (default: current directory).

Arguments:
  0           View the newest run (default)
  -1          View the 2nd newest run
  -2          View the 3rd newest run
  <id>        View the run whose ID starts with <id>

Examples:
  timesign view              # View the newest run
  timesign view -1 results   # View the 2nd newest run below results/`,
	})
	return app
}

func (a *App) Run(args []string) error {
	return a.cli.Run(args)
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if commit != "none" && len(commit) >= 8 {
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit[:8], date)
	}
}
