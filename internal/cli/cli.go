// Package cli implements the simnav commands.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/vburojevic/simnav/internal/config"
	"go.uber.org/zap"
)

// CLI is the kong command tree
type CLI struct {
	Format     string `short:"f" enum:"ndjson,text" default:"${config_format}" help:"Output format (ndjson or text)"`
	Quiet      bool   `short:"q" help:"Only log errors on stderr"`
	Verbose    bool   `short:"v" help:"Debug logging; text output also shows every step"`
	ConfigFile string `name:"config" type:"existingfile" help:"Config file to load instead of the search path"`

	Run     RunCmd     `cmd:"" help:"Navigate to each corner in turn and report collisions"`
	Probe   ProbeCmd   `cmd:"" help:"Connect to the relay and run the vision self-test"`
	Analyze AnalyzeCmd `cmd:"" help:"Run obstacle perception over image files"`
	UI      UICmd      `cmd:"" name:"ui" help:"Run a batch in a live terminal view"`
	Config  ConfigCmd  `cmd:"" help:"Inspect or scaffold configuration"`
	Schema  SchemaCmd  `cmd:"" help:"Print JSON Schema for NDJSON output records"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// Globals carries resolved flags, config and shared writers into commands
type Globals struct {
	Format  string
	Quiet   bool
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer
	Config  *config.Config
	Logger  *zap.Logger
}

// NewGlobalsWithConfig resolves flags over the loaded config. An explicit
// --config file replaces the searched one.
func NewGlobalsWithConfig(c *CLI, cfg *config.Config) *Globals {
	if c.ConfigFile != "" {
		loaded, err := config.LoadFromFile(c.ConfigFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to load %s: %v\n", c.ConfigFile, err)
		} else {
			cfg = loaded
		}
	}
	if cfg == nil {
		cfg = config.Default()
	}

	g := &Globals{
		Format:  c.Format,
		Quiet:   c.Quiet || cfg.Quiet,
		Verbose: c.Verbose || cfg.Verbose,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Config:  cfg,
	}
	if g.Format == "" {
		g.Format = cfg.Format
	}
	cfg.Format, cfg.Quiet, cfg.Verbose = g.Format, g.Quiet, g.Verbose
	g.Logger = newLogger(g)
	return g
}

// Debug logs at debug level; it is a no-op unless --verbose is set
func (g *Globals) Debug(format string, args ...any) {
	g.log().Sugar().Debugf(format, args...)
}

// log returns the logger, building one on first use for hand-built Globals
func (g *Globals) log() *zap.Logger {
	if g.Logger == nil {
		g.Logger = newLogger(g)
	}
	return g.Logger
}
