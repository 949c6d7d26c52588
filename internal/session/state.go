package session

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/vburojevic/simnav/internal/domain"
	"go.uber.org/zap"
)

// State is the process-wide session shared by the event-stream goroutine
// (writer) and the navigation goroutine (reader). Every field is guarded by mu;
// frame arrival and goal arrival are additionally signalled over channels so
// readers can wait with a deadline instead of polling.
type State struct {
	mu                 sync.Mutex
	transportConnected bool
	visionAvailable    bool
	latestFrame        *domain.Frame
	collisions         int
	goalReached        bool

	frameSignal chan struct{} // buffered(1), poked on every new frame
	goalDone    chan struct{} // closed once per run when the goal is reached
	connected   chan struct{} // closed while the transport is up

	clock clock.Clock
	log   *zap.Logger
}

// Snapshot is a consistent copy of the session fields
type Snapshot struct {
	TransportConnected bool
	VisionAvailable    bool
	HasFrame           bool
	Collisions         int
	GoalReached        bool
}

// New creates a new session state
func New(clk clock.Clock, log *zap.Logger) *State {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &State{
		frameSignal: make(chan struct{}, 1),
		goalDone:    make(chan struct{}),
		connected:   make(chan struct{}),
		clock:       clk,
		log:         log,
	}
}

// Handle applies one inbound event. It is the transport callback.
func (s *State) Handle(ev domain.InboundEvent) {
	switch ev.Kind {
	case domain.EventFrameCaptured:
		if ev.Frame != nil {
			s.PutFrame(ev.Frame)
		}
	case domain.EventCollision:
		n := s.RecordCollision()
		s.log.Info("collision reported", zap.Int("collisions", n))
	case domain.EventGoalReached:
		if s.MarkGoalReached() {
			s.log.Info("goal reached")
		}
	case domain.EventAck:
	default:
		s.log.Debug("ignoring event", zap.String("type", ev.WireType))
	}
}

// SetConnected records the transport state
func (s *State) SetConnected(up bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if up == s.transportConnected {
		return
	}
	s.transportConnected = up
	if up {
		close(s.connected)
	} else {
		s.connected = make(chan struct{})
	}
}

// Connected reports whether the event stream is currently up
func (s *State) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transportConnected
}

// WaitConnected blocks until the transport is up, the timeout elapses, or ctx
// is cancelled. It reports the connection state on return.
func (s *State) WaitConnected(ctx context.Context, timeout time.Duration) bool {
	s.mu.Lock()
	up := s.connected
	s.mu.Unlock()

	timer := s.clock.Timer(timeout)
	defer timer.Stop()

	select {
	case <-up:
	case <-timer.C:
	case <-ctx.Done():
	}
	return s.Connected()
}

// SetVisionAvailable records the self-test verdict
func (s *State) SetVisionAvailable(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visionAvailable = ok
}

// VisionAvailable reports the self-test verdict
func (s *State) VisionAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visionAvailable
}

// ClearFrame drops the latest frame so the next capture cannot be confused
// with a stale one. Call it before every capture request.
func (s *State) ClearFrame() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latestFrame = nil
	select {
	case <-s.frameSignal:
	default:
	}
}

// PutFrame stores a newly captured frame and wakes a waiting reader
func (s *State) PutFrame(f *domain.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latestFrame = f
	select {
	case s.frameSignal <- struct{}{}:
	default:
	}
}

// LatestFrame returns the current frame, or nil
func (s *State) LatestFrame() *domain.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latestFrame
}

// WaitFrame waits up to timeout for a frame to be present. It never blocks
// past the deadline, so a dead transport cannot stall the caller.
func (s *State) WaitFrame(ctx context.Context, timeout time.Duration) (*domain.Frame, bool) {
	if f := s.LatestFrame(); f != nil {
		return f, true
	}

	timer := s.clock.Timer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-s.frameSignal:
			if f := s.LatestFrame(); f != nil {
				return f, true
			}
		case <-timer.C:
			f := s.LatestFrame()
			return f, f != nil
		case <-ctx.Done():
			return nil, false
		}
	}
}

// RecordCollision increments the local collision counter
func (s *State) RecordCollision() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collisions++
	return s.collisions
}

// Collisions returns the locally counted collisions for the current run
func (s *State) Collisions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collisions
}

// MarkGoalReached latches the goal flag; it reports whether this call flipped it
func (s *State) MarkGoalReached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.goalReached {
		return false
	}
	s.goalReached = true
	close(s.goalDone)
	return true
}

// GoalReached reports whether the goal event arrived during the current run
func (s *State) GoalReached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goalReached
}

// GoalDone returns a channel closed when the goal of the current run is reached
func (s *State) GoalDone() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goalDone
}

// ResetRun clears the run-scoped fields before a new goal attempt
func (s *State) ResetRun() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.collisions = 0
	s.latestFrame = nil
	if s.goalReached {
		s.goalDone = make(chan struct{})
	}
	s.goalReached = false
	select {
	case <-s.frameSignal:
	default:
	}
}

// Snapshot returns a consistent copy of the session fields
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		TransportConnected: s.transportConnected,
		VisionAvailable:    s.visionAvailable,
		HasFrame:           s.latestFrame != nil,
		Collisions:         s.collisions,
		GoalReached:        s.goalReached,
	}
}
