package domain

// StepEvent is a verbose record describing one navigation step decision.
type StepEvent struct {
	Type          string  `json:"type"` // step
	SchemaVersion int     `json:"schemaVersion"`
	RunID         string  `json:"run_id,omitempty"`
	Step          int     `json:"step"`
	Mode          Mode    `json:"mode"`
	Phase         Phase   `json:"phase"`
	Action        string  `json:"action"` // e.g. align, forward, avoid, correct, cautious
	Turn          float64 `json:"turn"`
	Distance      float64 `json:"distance"`
	Heading       float64 `json:"heading"`
	Stuck         int     `json:"stuck"`
	Collisions    int     `json:"collisions"`
	Obstacle      bool    `json:"obstacle,omitempty"`
	Reason        string  `json:"reason,omitempty"` // e.g. no_frame, capture_failed, command_failed
}

// Step actions
const (
	ActionAlign    = "align"
	ActionForward  = "forward"
	ActionAvoid    = "avoid"
	ActionSteer    = "steer"
	ActionCorrect  = "correct"
	ActionCautious = "cautious"
	ActionProgress = "progress"
	ActionDegrade  = "degrade"
)
