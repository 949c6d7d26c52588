package nav

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/samber/lo"
	"github.com/vburojevic/simnav/internal/config"
	"github.com/vburojevic/simnav/internal/domain"
	"go.uber.org/zap"
)

// FallbackPolicy steers blind, using collision feedback and the fixed
// per-corner heading.
type FallbackPolicy struct {
	cmd  Commander
	sess Session
	cfg  config.FallbackConfig
	rng  *rand.Rand
	log  *zap.Logger
}

// NewFallbackPolicy creates the collision-feedback policy. A zero seed seeds
// the avoidance turn generator from clk.
func NewFallbackPolicy(cfg config.FallbackConfig, cmd Commander, sess Session, clk clock.Clock, log *zap.Logger) *FallbackPolicy {
	seed := cfg.Seed
	if seed == 0 {
		seed = clk.Now().UnixNano()
	}
	return &FallbackPolicy{
		cmd:  cmd,
		sess: sess,
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(seed)),
		log:  log,
	}
}

func (p *FallbackPolicy) Mode() domain.Mode       { return domain.ModeFallback }
func (p *FallbackPolicy) Budget() int             { return p.cfg.StepBudget }
func (p *FallbackPolicy) Interval() time.Duration { return p.cfg.StepInterval }

// Begin rotates toward the corner when the heading error exceeds the
// alignment threshold.
func (p *FallbackPolicy) Begin(ctx context.Context, st *domain.RunState) (Plan, error) {
	e := HeadingError(st.HeadingDegrees, st.TargetCorner)
	if math.Abs(e) <= p.cfg.AlignThreshold {
		return nil, nil
	}
	return Plan{{Command: domain.Turn(e), Pause: p.cfg.TurnPause, Kind: domain.ActionAlign}}, nil
}

// Step compares the collision counter with the previous step. A new collision
// escalates the stuck level and turns away; otherwise the stuck level decays,
// the heading is corrected periodically and the agent advances.
func (p *FallbackPolicy) Step(ctx context.Context, st *domain.RunState) (Plan, error) {
	current := collisionCount(ctx, p.cmd, p.sess, p.log)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	collided := current > st.LastCollisionCount
	st.CollisionCount = current
	st.LastCollisionCount = current

	if collided {
		st.StuckLevel++
		turn := p.avoidanceTurn(st.StuckLevel)
		p.log.Info("collision detected, avoiding",
			zap.Int("step", st.StepIndex),
			zap.Int("collisions", current),
			zap.Int("stuck", st.StuckLevel),
			zap.Float64("turn", turn))
		return Plan{
			{Command: domain.Turn(turn), Pause: p.cfg.TurnPause, Kind: domain.ActionAvoid},
			{Command: domain.Forward(p.cfg.AvoidDistance), Kind: domain.ActionForward},
		}, nil
	}

	st.StuckLevel = max(0, st.StuckLevel-1)

	var plan Plan
	if p.cfg.CorrectionEvery > 0 && st.StepIndex%p.cfg.CorrectionEvery == 0 {
		if e := HeadingError(st.HeadingDegrees, st.TargetCorner); math.Abs(e) > p.cfg.CorrectionThreshold {
			plan = append(plan, Action{
				Command: domain.Turn(e * p.cfg.CorrectionGain),
				Pause:   p.cfg.CorrectionPause,
				Kind:    domain.ActionCorrect,
			})
		}
	}
	return append(plan, Action{Command: domain.Forward(p.cfg.ForwardDistance), Kind: domain.ActionForward}), nil
}

// avoidanceTurn draws from the small-angle set until the stuck level reaches
// the escalation point, then from the large-angle set.
func (p *FallbackPolicy) avoidanceTurn(stuck int) float64 {
	set := p.cfg.SmallTurns
	if stuck >= p.cfg.EscalateAfter {
		set = p.cfg.LargeTurns
	}
	return lo.SampleBy(set, p.rng.Intn)
}
