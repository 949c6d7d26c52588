package domain

import "time"

// SchemaVersion is stamped on every NDJSON record
const SchemaVersion = 1

// RunStart is emitted when a goal attempt begins
type RunStart struct {
	Type          string    `json:"type"`          // "run_start"
	SchemaVersion int       `json:"schemaVersion"` // 1
	BatchID       string    `json:"batch_id"`
	RunID         string    `json:"run_id"`
	Index         int       `json:"index"` // 1-based position in the batch
	Total         int       `json:"total"`
	Corner        Corner    `json:"corner"`
	Mode          Mode      `json:"mode"`
	Goal          *Position `json:"goal,omitempty"`
	Timestamp     string    `json:"timestamp"` // ISO8601 timestamp
}

// RunEnd is emitted when a goal attempt terminates, successfully or not
type RunEnd struct {
	Type            string  `json:"type"`          // "run_end"
	SchemaVersion   int     `json:"schemaVersion"` // 1
	RunID           string  `json:"run_id"`
	Corner          Corner  `json:"corner"`
	Reached         bool    `json:"reached"`
	Collisions      int     `json:"collisions"` // -1 when the run failed
	Steps           int     `json:"steps"`
	Mode            Mode    `json:"mode"`
	Degraded        bool    `json:"degraded,omitempty"` // vision fell back mid-run
	Failed          bool    `json:"failed,omitempty"`
	Error           string  `json:"error,omitempty"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// RunOutcome is the archived result of one goal attempt
type RunOutcome struct {
	RunID      string        `json:"run_id"`
	Corner     Corner        `json:"corner"`
	Reached    bool          `json:"reached"`
	Collisions int           `json:"collisions"`
	Steps      int           `json:"steps"`
	Mode       Mode          `json:"mode"`
	Degraded   bool          `json:"degraded,omitempty"`
	Goal       *Position     `json:"goal,omitempty"`
	Failed     bool          `json:"failed,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// FailedCollisions is the sentinel collision count of a failed run
const FailedCollisions = -1

// FailedOutcome builds the failure sentinel for a run that aborted
func FailedOutcome(runID string, corner Corner, err error) RunOutcome {
	o := RunOutcome{
		RunID:      runID,
		Corner:     corner,
		Collisions: FailedCollisions,
		Failed:     true,
	}
	if err != nil {
		o.Error = err.Error()
	}
	return o
}

// NewRunStart creates a new RunStart event
func NewRunStart(batchID, runID string, index, total int, corner Corner, mode Mode) *RunStart {
	return &RunStart{
		Type:          "run_start",
		SchemaVersion: SchemaVersion,
		BatchID:       batchID,
		RunID:         runID,
		Index:         index,
		Total:         total,
		Corner:        corner,
		Mode:          mode,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
}

// NewRunEnd creates a RunEnd event from an outcome
func NewRunEnd(o RunOutcome) *RunEnd {
	return &RunEnd{
		Type:            "run_end",
		SchemaVersion:   SchemaVersion,
		RunID:           o.RunID,
		Corner:          o.Corner,
		Reached:         o.Reached,
		Collisions:      o.Collisions,
		Steps:           o.Steps,
		Mode:            o.Mode,
		Degraded:        o.Degraded,
		Failed:          o.Failed,
		Error:           o.Error,
		DurationSeconds: o.Duration.Seconds(),
	}
}

// BatchSummary aggregates all runs of a batch
type BatchSummary struct {
	Type           string       `json:"type"` // "summary"
	SchemaVersion  int          `json:"schemaVersion"`
	BatchID        string       `json:"batch_id"`
	Mode           Mode         `json:"mode"` // mode chosen by the self-test
	Outcomes       []RunOutcome `json:"outcomes"`
	Attempted      int          `json:"attempted"`
	Succeeded      int          `json:"succeeded"`
	Failed         int          `json:"failed"`
	MeanCollisions float64      `json:"mean_collisions"`
	VisionUsed     bool         `json:"vision_used"`
	StartedAt      string       `json:"started_at,omitempty"`
	FinishedAt     string       `json:"finished_at,omitempty"`
}

// ModeSelected is emitted once after the vision self-test
type ModeSelected struct {
	Type          string `json:"type"` // "mode"
	SchemaVersion int    `json:"schemaVersion"`
	Mode          Mode   `json:"mode"`
	Connected     bool   `json:"transport_connected"`
	Reason        string `json:"reason"`
}

// NewModeSelected creates a ModeSelected event
func NewModeSelected(mode Mode, connected bool, reason string) *ModeSelected {
	return &ModeSelected{
		Type:          "mode",
		SchemaVersion: SchemaVersion,
		Mode:          mode,
		Connected:     connected,
		Reason:        reason,
	}
}
