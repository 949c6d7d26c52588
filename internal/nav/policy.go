// Package nav is the navigation core: heading math, the vision self-test and
// the per-run state machine with its vision and fallback stepping policies.
package nav

import (
	"context"
	"time"

	"github.com/vburojevic/simnav/internal/domain"
	"go.uber.org/zap"
)

// Commander sends relay commands and reads the relay collision counter
type Commander interface {
	Send(ctx context.Context, cmd domain.Command) error
	Collisions(ctx context.Context) (int, error)
}

// Session is the slice of the shared session the navigator reads
type Session interface {
	ClearFrame()
	WaitFrame(ctx context.Context, timeout time.Duration) (*domain.Frame, bool)
	Collisions() int
	GoalDone() <-chan struct{}
}

// Analyzer turns a frame into an obstacle decision
type Analyzer interface {
	AnalyzeFrame(f *domain.Frame) domain.PerceptionResult
}

// Action is one command of a step plus the pause that follows it. An action
// with a nil Command is an informational collision read.
type Action struct {
	Command  domain.Command
	Pause    time.Duration
	Kind     string
	Obstacle bool
	Reason   string
}

// Plan is the ordered list of actions for one step
type Plan []Action

// Policy decides the actions of each step for one navigation mode
type Policy interface {
	Mode() domain.Mode
	// Budget is the total step count after which the run is exhausted.
	Budget() int
	// Interval is the pause after every step.
	Interval() time.Duration
	// Begin returns the actions taken before the first step.
	Begin(ctx context.Context, st *domain.RunState) (Plan, error)
	// Step returns the actions for step st.StepIndex. Returning
	// ErrFrameStarvation hands the run over to the fallback policy.
	Step(ctx context.Context, st *domain.RunState) (Plan, error)
}

// collisionCount reads the relay counter, falling back to the locally
// counted collision events when the relay cannot be reached.
func collisionCount(ctx context.Context, cmd Commander, sess Session, log *zap.Logger) int {
	n, err := cmd.Collisions(ctx)
	if err != nil {
		local := sess.Collisions()
		if ctx.Err() == nil {
			log.Debug("collision count unavailable, using local count", zap.Int("local", local), zap.Error(err))
		}
		return local
	}
	return n
}
