package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc"
	"github.com/vburojevic/simnav/internal/config"
	"github.com/vburojevic/simnav/internal/domain"
	"github.com/vburojevic/simnav/internal/nav"
	"github.com/vburojevic/simnav/internal/orchestrator"
	"github.com/vburojevic/simnav/internal/output"
	"github.com/vburojevic/simnav/internal/perception"
	"github.com/vburojevic/simnav/internal/relay"
	"github.com/vburojevic/simnav/internal/session"
	"github.com/vburojevic/simnav/internal/transport"
	"go.uber.org/zap"
)

// stack is the wiring shared by run, ui and probe: one session fed by a
// background event stream, and the relay HTTP client.
type stack struct {
	cfg    *config.Config
	log    *zap.Logger
	clock  clock.Clock
	sess   *session.State
	relay  *relay.Client
	events *transport.Client

	// closed once the event stream goroutine has given up
	streamDone chan struct{}
	cancel     context.CancelFunc
	wg         conc.WaitGroup
}

// startStack launches the event stream. It keeps reconnecting in the
// background until stop; an exhausted connect budget leaves the session
// HTTP-only.
func startStack(ctx context.Context, cfg *config.Config, log *zap.Logger) *stack {
	clk := clock.New()
	opts := transport.OptionsFromConfig(cfg)
	opts.Clock = clk
	opts.Logger = log

	s := &stack{
		cfg:    cfg,
		log:    log,
		clock:  clk,
		sess:   session.New(clk, log),
		relay:  relay.FromConfig(cfg.Relay, log),
		events: transport.New(opts),

		streamDone: make(chan struct{}),
	}

	streamCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Go(func() {
		defer close(s.streamDone)
		err := s.events.Run(streamCtx, s.sess, s.sess.Handle)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("event stream unavailable, continuing over HTTP only", zap.Error(err))
		}
	})
	return s
}

// stop tears the event stream down and waits for it
func (s *stack) stop() {
	s.cancel()
	s.wg.Wait()
}

// selectMode waits for the first connection and runs the vision self-test.
// The wait ends early once the event stream has stopped retrying.
func (s *stack) selectMode(ctx context.Context, w output.Writer) domain.Mode {
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.streamDone:
			cancel()
		case <-waitCtx.Done():
		}
	}()
	connected := s.sess.WaitConnected(waitCtx, s.cfg.Transport.ConnectWait)
	if !connected {
		s.log.Warn("event stream not connected, vision unavailable",
			zap.Duration("waited", s.cfg.Transport.ConnectWait))
	}

	selector := nav.NewSelector(s.relay, s.sess, s.cfg.Vision.SelfTestTimeout, s.log)
	mode, reason := selector.SelectMode(ctx, connected)
	s.sess.SetVisionAvailable(mode == domain.ModeVision)
	if w != nil {
		_ = w.WriteMode(domain.NewModeSelected(mode, connected, reason))
	}
	return mode
}

// runBatch selects the mode and runs every corner, streaming records to w.
// The summary is non-nil whenever the batch started.
func (s *stack) runBatch(ctx context.Context, corners []domain.Corner, w output.Writer) (*domain.BatchSummary, error) {
	analyzer, err := perception.NewAnalyzer(s.cfg.Perception, s.log)
	if err != nil {
		return nil, err
	}

	mode := s.selectMode(ctx, w)

	machine := nav.NewMachine(nav.MachineOptions{
		Config:    s.cfg,
		Commander: s.relay,
		Session:   s.sess,
		Analyzer:  analyzer,
		Clock:     s.clock,
		Hooks: nav.Hooks{
			OnStep: func(ev domain.StepEvent) { _ = w.WriteStep(&ev) },
		},
		Logger: s.log,
	})

	o := orchestrator.New(orchestrator.Options{
		Relay:         s.relay,
		Navigator:     machine,
		Session:       s.sess,
		Mode:          mode,
		SettleDelay:   s.cfg.Run.SettleDelay,
		InterRunDelay: s.cfg.Run.InterRunDelay,
		Clock:         s.clock,
		Hooks: orchestrator.Hooks{
			OnRunStart: func(ev *domain.RunStart) { _ = w.WriteRunStart(ev) },
			OnRunEnd:   func(ev *domain.RunEnd) { _ = w.WriteRunEnd(ev) },
		},
		Logger: s.log,
	})
	return o.RunAll(ctx, corners)
}

// resolveCorners parses --corners, falling back to the configured order
func resolveCorners(flag []string, configured []domain.Corner) ([]domain.Corner, error) {
	flag = lo.Reject(flag, func(s string, _ int) bool { return strings.TrimSpace(s) == "" })
	if len(flag) == 0 {
		return configured, nil
	}
	corners := make([]domain.Corner, 0, len(flag))
	for _, name := range flag {
		c, err := domain.ParseCorner(strings.TrimSpace(name))
		if err != nil {
			return nil, fmt.Errorf("--corners: %w", err)
		}
		corners = append(corners, c)
	}
	return corners, nil
}
