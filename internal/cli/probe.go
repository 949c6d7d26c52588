package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/vburojevic/simnav/internal/output"
)

// ProbeCmd connects to the relay, runs the vision self-test once and exits
type ProbeCmd struct{}

// Run executes the probe command
func (c *ProbeCmd) Run(globals *Globals) error {
	if err := globals.Config.Validate(); err != nil {
		return outputErrorCommon(globals, codeInvalidConfig, err.Error(), "check 'simnav config show'")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := startStack(ctx, globals.Config, globals.log())
	defer s.stop()

	s.selectMode(ctx, output.New(globals.Format, globals.Stdout, globals.Verbose))
	return ctx.Err()
}
