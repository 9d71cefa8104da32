// Command golang is the Go gatherer run by the "golang" component:
//
//	go run ./gatherers/golang -i data -o sigs -t times -k priv_key.pem -s 32
package main

import (
	"crypto/rand"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/perfgo/timesign/gatherer"
	"github.com/perfgo/timesign/timesign"
)

func main() {
	app := &cli.App{
		Name:            "time_sign",
		Usage:           "Sign every record of a file and time each signature",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "i", Usage: "File with data to sign"},
			&cli.StringFlag{Name: "o", Usage: "File to write the signatures"},
			&cli.StringFlag{Name: "t", Usage: "File to write the time to sign each record"},
			&cli.StringFlag{Name: "k", Usage: "File with the private key in PEM format"},
			&cli.IntFlag{Name: "s", Usage: "Size of each block of data to sign"},
		},
		Action: func(ctx *cli.Context) error {
			inv := gatherer.Invocation{
				Input:      ctx.String("i"),
				Signatures: ctx.String("o"),
				Timings:    ctx.String("t"),
				Key:        ctx.String("k"),
				RecordSize: ctx.Int("s"),
			}
			_, err := timesign.RunFiles(inv, rand.Reader)
			return err
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
