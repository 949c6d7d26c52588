package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/sourcegraph/conc"
	"github.com/vburojevic/simnav/internal/domain"
	"github.com/vburojevic/simnav/internal/output"
	"github.com/vburojevic/simnav/internal/tui"
	"go.uber.org/zap"
)

// UICmd runs a batch in an interactive terminal view
type UICmd struct {
	Corners    []string `short:"c" sep:"," help:"Corners to visit in order (NE,NW,SE,SW). Default: run.corners from config"`
	BufferSize int      `default:"256" help:"Number of records buffered between the batch and the view"`
}

// Run executes the UI command
func (c *UICmd) Run(globals *Globals) error {
	out, ok := globals.Stdout.(*os.File)
	if !ok || !(isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd())) {
		return outputErrorCommon(globals, codeNotTerminal, "ui needs an interactive terminal", "use 'simnav run' when piping output")
	}
	corners, err := resolveCorners(c.Corners, globals.Config.Run.Corners)
	if err != nil {
		return outputErrorCommon(globals, codeInvalidCorner, err.Error(), "use NE, NW, SE or SW")
	}
	if err := globals.Config.Validate(); err != nil {
		return outputErrorCommon(globals, codeInvalidConfig, err.Error(), "check 'simnav config show'")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Logs would tear the alternate screen; keep only errors, after exit.
	log := zap.NewNop()
	if globals.Verbose {
		log = globals.log()
	}

	feed := tui.NewFeed(c.BufferSize)
	var (
		wg      conc.WaitGroup
		summary *domain.BatchSummary
		runErr  error
	)
	wg.Go(func() {
		defer feed.Close()
		s := startStack(ctx, globals.Config, log)
		defer s.stop()
		summary, runErr = s.runBatch(ctx, corners, feed)
		if summary != nil {
			_ = feed.WriteSummary(summary)
		}
	})

	p := tea.NewProgram(tui.New(feed.Events()), tea.WithAltScreen(), tea.WithOutput(out))

	// Handle context cancellation
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, teaErr := p.Run()

	// The view is gone; stop the batch and drain whatever it still emits.
	cancel()
	go func() {
		for range feed.Events() {
		}
	}()
	wg.Wait()

	if teaErr != nil {
		return fmt.Errorf("TUI error: %w", teaErr)
	}
	if summary == nil {
		if runErr == nil {
			return nil
		}
		return outputErrorCommon(globals, codeBatchFailed, runErr.Error())
	}
	return output.New(globals.Format, globals.Stdout, globals.Verbose).WriteSummary(summary)
}
