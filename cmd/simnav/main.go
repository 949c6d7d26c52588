package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/vburojevic/simnav/internal/cli"
	"github.com/vburojevic/simnav/internal/config"
)

const quickStart = `simnav - drive a simulated rover to each corner of the arena

Quick start:
  simnav probe                          Check the relay and pick a navigation mode
  simnav run                            Visit NE, NW, SE, SW and report collisions
  simnav run --corners NE,SW -f text    Visit two corners, human-readable output
  simnav analyze frame.png              Run obstacle perception on a saved frame

For help:
  simnav --help                         All commands and flags
  simnav schema                         JSON Schema of the NDJSON records
`

func main() {
	// Show quick start if no args provided
	if len(os.Args) == 1 {
		fmt.Print(quickStart)
		return
	}

	// Load configuration from files/environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Default()
	}

	var c cli.CLI

	// Config values become flag defaults; explicit flags still win.
	vars := kong.Vars{
		"config_format": cfg.Format,
	}

	ctx := kong.Parse(&c,
		kong.Name("simnav"),
		kong.Description("simnav: goal-seeking navigation controller for a simulated rover"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		vars,
	)

	globals := cli.NewGlobalsWithConfig(&c, cfg)
	err = ctx.Run(globals)
	_ = globals.Logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
