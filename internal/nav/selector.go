package nav

import (
	"context"
	"time"

	"github.com/vburojevic/simnav/internal/domain"
	"github.com/vburojevic/simnav/internal/perception"
	"go.uber.org/zap"
)

// Selection reasons
const (
	ReasonFrameOK       = "frame_ok"
	ReasonDisconnected  = "transport_disconnected"
	ReasonCaptureFailed = "capture_failed"
	ReasonTimeout       = "timeout"
	ReasonUndecodable   = "undecodable_frame"
)

// Selector runs the one-shot vision self-test
type Selector struct {
	cmd     Commander
	sess    Session
	timeout time.Duration
	log     *zap.Logger
}

// NewSelector creates a mode selector bounded by timeout
func NewSelector(cmd Commander, sess Session, timeout time.Duration, log *zap.Logger) *Selector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Selector{cmd: cmd, sess: sess, timeout: timeout, log: log.Named("selector")}
}

// SelectMode requests one capture and picks VISION only if a frame arrives
// before the deadline and decodes. Anything else is FALLBACK.
func (s *Selector) SelectMode(ctx context.Context, transportReady bool) (domain.Mode, string) {
	mode, reason := s.selectMode(ctx, transportReady)
	s.log.Info("navigation mode selected", zap.String("mode", string(mode)), zap.String("reason", reason))
	return mode, reason
}

func (s *Selector) selectMode(ctx context.Context, transportReady bool) (domain.Mode, string) {
	if !transportReady {
		return domain.ModeFallback, ReasonDisconnected
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.sess.ClearFrame()
	if err := s.cmd.Send(ctx, domain.Capture{}); err != nil {
		s.log.Warn("self-test capture failed", zap.Error(err))
		return domain.ModeFallback, ReasonCaptureFailed
	}

	frame, ok := s.sess.WaitFrame(ctx, s.timeout)
	if !ok {
		return domain.ModeFallback, ReasonTimeout
	}
	if _, err := perception.Decode(frame); err != nil {
		s.log.Warn("self-test frame undecodable", zap.Error(err))
		return domain.ModeFallback, ReasonUndecodable
	}
	return domain.ModeVision, ReasonFrameOK
}
