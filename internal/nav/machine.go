package nav

import (
	"context"
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/vburojevic/simnav/internal/config"
	"github.com/vburojevic/simnav/internal/domain"
	"go.uber.org/zap"
)

// Hooks observe a run as it progresses. Every hook is optional.
type Hooks struct {
	// OnStep is called after every executed action.
	OnStep func(domain.StepEvent)
}

// Machine runs one goal attempt at a time: ALIGNING, then STEPPING until the
// goal event arrives or the step budget is spent.
type Machine struct {
	cmd      Commander
	sess     Session
	vision   Policy
	fallback Policy
	clock    clock.Clock
	hooks    Hooks
	log      *zap.Logger
}

// MachineOptions configures a Machine
type MachineOptions struct {
	Config    *config.Config
	Commander Commander
	Session   Session
	Analyzer  Analyzer
	Clock     clock.Clock
	Hooks     Hooks
	Logger    *zap.Logger
}

// NewMachine creates a state machine with both stepping policies
func NewMachine(opts MachineOptions) *Machine {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	log := opts.Logger.Named("nav")
	return &Machine{
		cmd:      opts.Commander,
		sess:     opts.Session,
		vision:   NewVisionPolicy(opts.Config.Vision, opts.Commander, opts.Session, opts.Analyzer, log),
		fallback: NewFallbackPolicy(opts.Config.Fallback, opts.Commander, opts.Session, opts.Clock, log),
		clock:    opts.Clock,
		hooks:    opts.Hooks,
		log:      log,
	}
}

// Run drives st to a terminal phase. The run succeeds the moment the
// session's goal channel closes, regardless of step count. It returns a
// non-nil error only when ctx is cancelled; st then holds the partial run.
func (m *Machine) Run(ctx context.Context, st *domain.RunState) error {
	goal := m.sess.GoalDone()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-goal:
			cancel()
		case <-runCtx.Done():
		}
	}()
	reached := func() bool {
		select {
		case <-goal:
			return true
		default:
			return false
		}
	}

	log := m.log.With(zap.String("run_id", st.RunID), zap.String("corner", string(st.TargetCorner)))
	policy := m.policyFor(st.Mode)

	st.Phase = domain.PhaseAligning
	if err := m.begin(runCtx, st, policy); err != nil {
		return m.finish(ctx, st, reached(), log)
	}

	st.Phase = domain.PhaseStepping
	for st.StepIndex < policy.Budget() && !reached() && runCtx.Err() == nil {
		st.StepIndex++
		plan, err := policy.Step(runCtx, st)
		if errors.Is(err, domain.ErrFrameStarvation) {
			log.Warn("vision starved, degrading to fallback for the rest of the run",
				zap.Int("step", st.StepIndex), zap.Error(err))
			policy = m.degrade(st)
			if err := m.begin(runCtx, st, policy); err != nil {
				break
			}
			continue
		}
		if err != nil {
			break
		}
		m.execute(runCtx, st, plan)
		m.sleep(runCtx, policy.Interval())
	}

	return m.finish(ctx, st, reached(), log)
}

func (m *Machine) finish(ctx context.Context, st *domain.RunState, reached bool, log *zap.Logger) error {
	st.GoalReached = reached
	if reached {
		st.Phase = domain.PhaseSucceeded
		log.Info("goal reached", zap.Int("steps", st.StepIndex))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	st.Phase = domain.PhaseExhausted
	log.Info("step budget exhausted", zap.Int("steps", st.StepIndex))
	return nil
}

func (m *Machine) policyFor(mode domain.Mode) Policy {
	if mode == domain.ModeVision {
		return m.vision
	}
	return m.fallback
}

// degrade switches the run to the fallback policy for good. Steps already
// taken count against the fallback budget.
func (m *Machine) degrade(st *domain.RunState) Policy {
	st.Mode = domain.ModeFallback
	st.Degraded = true
	st.Phase = domain.PhaseAligning
	m.emit(st, Action{Kind: domain.ActionDegrade, Reason: "frame_starvation"})
	return m.fallback
}

func (m *Machine) begin(ctx context.Context, st *domain.RunState, policy Policy) error {
	plan, err := policy.Begin(ctx, st)
	if err != nil {
		return err
	}
	m.execute(ctx, st, plan)
	st.Phase = domain.PhaseStepping
	return ctx.Err()
}

// execute sends the plan in order. A failed command abandons the rest of the
// step; the loop moves on to the next step.
func (m *Machine) execute(ctx context.Context, st *domain.RunState, plan Plan) {
	for _, a := range plan {
		if ctx.Err() != nil {
			return
		}
		if a.Command == nil {
			st.CollisionCount = collisionCount(ctx, m.cmd, m.sess, m.log)
			m.log.Info("progress",
				zap.String("run_id", st.RunID),
				zap.Int("step", st.StepIndex),
				zap.Int("collisions", st.CollisionCount))
			m.emit(st, a)
			continue
		}

		if err := m.cmd.Send(ctx, a.Command); err != nil {
			if ctx.Err() != nil {
				return
			}
			m.log.Warn("command failed, skipping step",
				zap.String("run_id", st.RunID),
				zap.Int("step", st.StepIndex),
				zap.Stringer("command", a.Command),
				zap.Error(err))
			a.Reason = "command_failed"
			m.emit(st, a)
			return
		}
		if mv, ok := a.Command.(domain.MoveRelative); ok {
			st.HeadingDegrees = Normalize(st.HeadingDegrees + mv.Turn)
		}
		m.emit(st, a)
		m.sleep(ctx, a.Pause)
	}
}

func (m *Machine) emit(st *domain.RunState, a Action) {
	if m.hooks.OnStep == nil {
		return
	}
	ev := domain.StepEvent{
		Type:          "step",
		SchemaVersion: domain.SchemaVersion,
		RunID:         st.RunID,
		Step:          st.StepIndex,
		Mode:          st.Mode,
		Phase:         st.Phase,
		Action:        a.Kind,
		Heading:       st.HeadingDegrees,
		Stuck:         st.StuckLevel,
		Collisions:    st.CollisionCount,
		Obstacle:      a.Obstacle,
		Reason:        a.Reason,
	}
	if mv, ok := a.Command.(domain.MoveRelative); ok {
		ev.Turn = mv.Turn
		ev.Distance = mv.Distance
	}
	m.hooks.OnStep(ev)
}

func (m *Machine) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := m.clock.Timer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
