package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/perfgo/timesign/component"
)

func (a *App) components(ctx *cli.Context) error {
	fmt.Fprintln(a.out, "Available components to test:")
	for i, c := range component.All() {
		fmt.Fprintf(a.out, " %d) %s\n", i+1, c.Name)
	}
	return nil
}
