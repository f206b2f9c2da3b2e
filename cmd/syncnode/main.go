package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 10 * time.Second

func main() {
	app := &cli.App{
		Name:  "syncnode",
		Usage: "Run the chain synchronization engine against a set of peers",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run the synchronizer until interrupted",
				Flags:  []cli.Flag{envFileFlag},
				Action: run,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
