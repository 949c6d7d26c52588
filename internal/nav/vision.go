package nav

import (
	"context"
	"fmt"
	"time"

	"github.com/vburojevic/simnav/internal/config"
	"github.com/vburojevic/simnav/internal/domain"
	"go.uber.org/zap"
)

// VisionPolicy steers from camera frames
type VisionPolicy struct {
	cmd      Commander
	sess     Session
	analyzer Analyzer
	cfg      config.VisionConfig
	log      *zap.Logger
}

// NewVisionPolicy creates the camera-driven policy
func NewVisionPolicy(cfg config.VisionConfig, cmd Commander, sess Session, analyzer Analyzer, log *zap.Logger) *VisionPolicy {
	return &VisionPolicy{cmd: cmd, sess: sess, analyzer: analyzer, cfg: cfg, log: log}
}

func (p *VisionPolicy) Mode() domain.Mode       { return domain.ModeVision }
func (p *VisionPolicy) Budget() int             { return p.cfg.StepBudget }
func (p *VisionPolicy) Interval() time.Duration { return p.cfg.StepInterval }

// Begin is a no-op: vision steers by what it sees, not by the target heading
func (p *VisionPolicy) Begin(ctx context.Context, st *domain.RunState) (Plan, error) {
	return nil, nil
}

// Step captures a frame and moves according to it. A failed capture or a
// missing frame moves cautiously; too many missing frames in a row is frame
// starvation.
func (p *VisionPolicy) Step(ctx context.Context, st *domain.RunState) (Plan, error) {
	plan, err := p.decide(ctx, st)
	if err != nil {
		return nil, err
	}
	if p.cfg.ProgressEvery > 0 && st.StepIndex%p.cfg.ProgressEvery == 0 {
		plan = append(plan, Action{Kind: domain.ActionProgress})
	}
	return plan, nil
}

func (p *VisionPolicy) decide(ctx context.Context, st *domain.RunState) (Plan, error) {
	p.sess.ClearFrame()
	if err := p.cmd.Send(ctx, domain.Capture{}); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.log.Warn("capture failed, moving cautiously", zap.Int("step", st.StepIndex), zap.Error(err))
		return p.cautious("capture_failed"), nil
	}

	frame, ok := p.sess.WaitFrame(ctx, p.cfg.FrameTimeout)
	if !ok {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		st.NoFrameStreak++
		if st.NoFrameStreak >= p.cfg.StarvationLimit {
			return nil, fmt.Errorf("%w: no frame for %d consecutive steps", domain.ErrFrameStarvation, st.NoFrameStreak)
		}
		p.log.Debug("no frame received", zap.Int("step", st.StepIndex), zap.Int("streak", st.NoFrameStreak))
		return p.cautious("no_frame"), nil
	}
	st.NoFrameStreak = 0

	res := p.analyzer.AnalyzeFrame(frame)
	if !res.ObstacleAhead {
		return Plan{{Command: domain.Forward(p.cfg.ClearDistance), Kind: domain.ActionForward}}, nil
	}
	return Plan{
		{Command: domain.Turn(res.RecommendedTurnDegrees), Pause: p.cfg.TurnPause, Kind: domain.ActionSteer, Obstacle: true},
		{Command: domain.Forward(p.cfg.ObstacleDistance), Kind: domain.ActionForward, Obstacle: true},
	}, nil
}

func (p *VisionPolicy) cautious(reason string) Plan {
	return Plan{{Command: domain.Forward(p.cfg.CautiousDistance), Kind: domain.ActionCautious, Reason: reason}}
}
