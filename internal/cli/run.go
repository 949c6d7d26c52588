package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vburojevic/simnav/internal/domain"
	"github.com/vburojevic/simnav/internal/output"
	"github.com/vburojevic/simnav/internal/report"
	"go.uber.org/zap"
)

// RunCmd navigates to every corner and reports the batch
type RunCmd struct {
	Corners    []string `short:"c" sep:"," help:"Corners to visit in order (NE,NW,SE,SW). Default: run.corners from config"`
	Report     string   `type:"path" help:"Write the batch report to this file"`
	SaveReport bool     `help:"Write the batch report to ~/.simnav/reports/<batch-id>.json"`
}

// Run executes the run command
func (c *RunCmd) Run(globals *Globals) error {
	if err := validateFlags(globals, c.Report, c.SaveReport); err != nil {
		return err
	}
	corners, err := resolveCorners(c.Corners, globals.Config.Run.Corners)
	if err != nil {
		return outputErrorCommon(globals, codeInvalidCorner, err.Error(), "use NE, NW, SE or SW")
	}
	if err := globals.Config.Validate(); err != nil {
		return outputErrorCommon(globals, codeInvalidConfig, err.Error(), "check 'simnav config show'")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := output.New(globals.Format, globals.Stdout, globals.Verbose)
	summary, err := c.execute(ctx, globals, corners, w)
	if summary == nil {
		return outputErrorCommon(globals, codeBatchFailed, err.Error())
	}
	if werr := w.WriteSummary(summary); werr != nil {
		return werr
	}
	if rerr := c.saveReport(globals, summary); rerr != nil {
		return outputErrorCommon(globals, codeReportFailed, rerr.Error())
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("batch interrupted after %d runs", summary.Attempted)
	}
	return err
}

func (c *RunCmd) execute(ctx context.Context, globals *Globals, corners []domain.Corner, w output.Writer) (*domain.BatchSummary, error) {
	s := startStack(ctx, globals.Config, globals.log())
	defer s.stop()
	return s.runBatch(ctx, corners, w)
}

func (c *RunCmd) saveReport(globals *Globals, summary *domain.BatchSummary) error {
	path := c.Report
	if path == "" && !c.SaveReport {
		return nil
	}
	if path == "" {
		var err error
		if path, err = report.DefaultPath(summary.BatchID); err != nil {
			return err
		}
	}
	if err := report.Save(path, summary); err != nil {
		return err
	}
	globals.log().Info("report saved", zap.String("path", path))
	return nil
}
