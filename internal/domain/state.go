package domain

// Mode is the navigation strategy in force for a session or run
type Mode string

const (
	ModeVision   Mode = "vision"
	ModeFallback Mode = "fallback"
)

// Phase is the navigation state machine state
type Phase string

const (
	PhaseAligning  Phase = "aligning"
	PhaseStepping  Phase = "stepping"
	PhaseSucceeded Phase = "succeeded"
	PhaseExhausted Phase = "exhausted"
)

// Terminal reports whether the phase ends a run
func (p Phase) Terminal() bool {
	return p == PhaseSucceeded || p == PhaseExhausted
}

// RunState is the per-attempt state owned by the navigation state machine.
// It is created at run start and discarded when the run terminates.
type RunState struct {
	RunID          string
	TargetCorner   Corner
	Mode           Mode
	Phase          Phase
	GoalReached    bool
	CollisionCount int
	HeadingDegrees float64
	StuckLevel     int
	StepIndex      int

	// LastCollisionCount is the cumulative count observed at the end of the
	// previous fallback step.
	LastCollisionCount int
	// NoFrameStreak counts consecutive vision steps without a delivered frame.
	NoFrameStreak int
	// Degraded is set once vision starvation forced the fallback policy.
	Degraded bool
}

// NewRunState returns a fresh run state aimed at corner, heading 0
func NewRunState(runID string, corner Corner, mode Mode) *RunState {
	return &RunState{
		RunID:        runID,
		TargetCorner: corner,
		Mode:         mode,
		Phase:        PhaseAligning,
	}
}

// PerceptionResult is the decision derived from a single frame
type PerceptionResult struct {
	ObstacleAhead          bool    `json:"obstacle_ahead"`
	RecommendedTurnDegrees float64 `json:"recommended_turn_degrees"`
	// ObstaclePixels is the masked pixel count inside the forward region.
	ObstaclePixels int `json:"obstacle_pixels"`
	// SectorPixels holds left, center, right masked counts over the lower half.
	SectorPixels [3]int `json:"sector_pixels"`
}
