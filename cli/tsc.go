package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/perfgo/timesign/tsc"
)

func (a *App) tscFreq(ctx *cli.Context) error {
	line, err := tsc.Calibrate(ctx.Args().First())
	if err != nil {
		return fmt.Errorf("failed to calibrate TSC frequency: %w", err)
	}
	fmt.Fprintln(a.out, line)
	return nil
}
