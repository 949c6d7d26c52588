// Package orchestrator sequences goal attempts across corners and aggregates
// their outcomes into a batch summary.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"
	"github.com/vburojevic/simnav/internal/domain"
	"go.uber.org/zap"
)

// ReasonInterrupted is the error recorded on a run stopped by the user
const ReasonInterrupted = "interrupted"

// Relay is the part of the relay surface the orchestrator drives directly
type Relay interface {
	Reset(ctx context.Context) (int, error)
	SetGoal(ctx context.Context, corner domain.Corner) (domain.Position, error)
	Collisions(ctx context.Context) (int, error)
}

// Navigator runs one goal attempt to a terminal phase
type Navigator interface {
	Run(ctx context.Context, st *domain.RunState) error
}

// Session is the part of the shared session reset between runs
type Session interface {
	ResetRun()
	Connected() bool
	Collisions() int
}

// Hooks observe batch progress. Every hook is optional.
type Hooks struct {
	OnRunStart func(*domain.RunStart)
	OnRunEnd   func(*domain.RunEnd)
}

// Options configures an Orchestrator
type Options struct {
	Relay     Relay
	Navigator Navigator
	Session   Session
	// Mode is the session mode chosen by the self-test.
	Mode          domain.Mode
	SettleDelay   time.Duration
	InterRunDelay time.Duration
	Clock         clock.Clock
	Hooks         Hooks
	Logger        *zap.Logger
	// NewID generates batch and run ids; defaults to random UUIDs.
	NewID func() string
}

// Orchestrator runs a batch of goal attempts
type Orchestrator struct {
	opts Options
	log  *zap.Logger
}

// New creates an orchestrator
func New(opts Options) *Orchestrator {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Orchestrator{opts: opts, log: opts.Logger.Named("orchestrator")}
}

// RunAll attempts every corner in order. A failed run is recorded as a
// failure sentinel and the batch continues. Only cancellation of ctx stops
// the batch early; the interrupted run is recorded and ctx's error returned
// alongside the partial summary.
func (o *Orchestrator) RunAll(ctx context.Context, corners []domain.Corner) (*domain.BatchSummary, error) {
	batchID := o.opts.NewID()
	started := o.opts.Clock.Now()
	outcomes := make([]domain.RunOutcome, 0, len(corners))

	o.log.Info("batch started",
		zap.String("batch_id", batchID),
		zap.Int("runs", len(corners)),
		zap.String("mode", string(o.opts.Mode)))

	var stopErr error
	for i, corner := range corners {
		if i > 0 {
			if err := o.sleep(ctx, o.opts.InterRunDelay); err != nil {
				stopErr = err
				break
			}
		}

		outcome := o.runOne(ctx, batchID, i+1, len(corners), corner)
		outcomes = append(outcomes, outcome)
		if ctx.Err() != nil {
			stopErr = ctx.Err()
			break
		}
	}

	summary := Summarize(batchID, o.opts.Mode, outcomes)
	summary.StartedAt = started.UTC().Format(time.RFC3339)
	summary.FinishedAt = o.opts.Clock.Now().UTC().Format(time.RFC3339)

	o.log.Info("batch finished",
		zap.String("batch_id", batchID),
		zap.Int("attempted", summary.Attempted),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Float64("mean_collisions", summary.MeanCollisions))
	return summary, stopErr
}

// runOne executes a single attempt and never panics: a panic in any layer
// below becomes a failure sentinel.
func (o *Orchestrator) runOne(ctx context.Context, batchID string, index, total int, corner domain.Corner) domain.RunOutcome {
	runID := o.opts.NewID()
	log := o.log.With(zap.String("run_id", runID), zap.String("corner", string(corner)))
	start := o.opts.Clock.Now()

	var outcome domain.RunOutcome
	var pc panics.Catcher
	pc.Try(func() {
		outcome = o.attempt(ctx, log, batchID, runID, index, total, corner)
	})
	if r := pc.Recovered(); r != nil {
		log.Error("run panicked", zap.Any("panic", r.Value), zap.ByteString("stack", r.Stack))
		outcome = domain.FailedOutcome(runID, corner, fmt.Errorf("%w: panic: %v", domain.ErrRunAborted, r.Value))
	}
	outcome.Duration = o.opts.Clock.Since(start)

	if o.opts.Hooks.OnRunEnd != nil {
		o.opts.Hooks.OnRunEnd(domain.NewRunEnd(outcome))
	}
	log.Info("run finished",
		zap.Bool("reached", outcome.Reached),
		zap.Int("collisions", outcome.Collisions),
		zap.Int("steps", outcome.Steps),
		zap.Bool("failed", outcome.Failed))
	return outcome
}

func (o *Orchestrator) attempt(ctx context.Context, log *zap.Logger, batchID, runID string, index, total int, corner domain.Corner) domain.RunOutcome {
	if _, err := o.opts.Relay.Reset(ctx); err != nil {
		log.Warn("reset failed", zap.Error(err))
	}
	// events from the previous run can land until the relay has reset
	o.opts.Session.ResetRun()
	if err := o.sleep(ctx, o.opts.SettleDelay); err != nil {
		return interrupted(runID, corner)
	}

	var goal *domain.Position
	if pos, err := o.opts.Relay.SetGoal(ctx, corner); err != nil {
		log.Warn("set goal failed", zap.Error(err))
	} else {
		goal = &pos
		log.Info("goal set", zap.Float64("x", pos.X), zap.Float64("z", pos.Z))
	}
	if err := o.sleep(ctx, o.opts.SettleDelay); err != nil {
		return interrupted(runID, corner)
	}

	mode := domain.ModeFallback
	if o.opts.Mode == domain.ModeVision && o.opts.Session.Connected() {
		mode = domain.ModeVision
	}

	if o.opts.Hooks.OnRunStart != nil {
		ev := domain.NewRunStart(batchID, runID, index, total, corner, mode)
		ev.Goal = goal
		o.opts.Hooks.OnRunStart(ev)
	}
	log.Info("run started", zap.Int("index", index), zap.Int("total", total), zap.String("mode", string(mode)))

	st := domain.NewRunState(runID, corner, mode)
	if err := o.opts.Navigator.Run(ctx, st); err != nil {
		if ctx.Err() != nil {
			out := interrupted(runID, corner)
			out.Steps = st.StepIndex
			out.Mode = mode
			return out
		}
		log.Error("run aborted", zap.Error(err))
		out := domain.FailedOutcome(runID, corner, fmt.Errorf("%w: %w", domain.ErrRunAborted, err))
		out.Mode = mode
		return out
	}

	collisions, err := o.opts.Relay.Collisions(ctx)
	if err != nil {
		collisions = o.opts.Session.Collisions()
		log.Warn("final collision count unavailable, using local count", zap.Int("local", collisions), zap.Error(err))
	}

	return domain.RunOutcome{
		RunID:      runID,
		Corner:     corner,
		Reached:    st.GoalReached,
		Collisions: collisions,
		Steps:      st.StepIndex,
		Mode:       mode,
		Degraded:   st.Degraded,
		Goal:       goal,
	}
}

func interrupted(runID string, corner domain.Corner) domain.RunOutcome {
	return domain.FailedOutcome(runID, corner, errors.New(ReasonInterrupted))
}

func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := o.opts.Clock.Timer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
