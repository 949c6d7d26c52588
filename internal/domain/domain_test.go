package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCorner(t *testing.T) {
	tests := []struct {
		input    string
		expected Corner
		hasError bool
	}{
		{"NE", CornerNE, false},
		{"ne", CornerNE, false},
		{" sw ", CornerSW, false},
		{"Nw", CornerNW, false},
		{"SE", CornerSE, false},
		{"", "", true},
		{"N", "", true},
		{"TR", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCorner(tt.input)
			if tt.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCornerTargetHeading(t *testing.T) {
	assert.Equal(t, 45.0, CornerNE.TargetHeading())
	assert.Equal(t, 315.0, CornerNW.TargetHeading())
	assert.Equal(t, 135.0, CornerSE.TargetHeading())
	assert.Equal(t, 225.0, CornerSW.TargetHeading())
	assert.Equal(t, 45.0, Corner("XX").TargetHeading())
	assert.False(t, Corner("XX").Valid())
}

func TestPhaseTerminal(t *testing.T) {
	assert.False(t, PhaseAligning.Terminal())
	assert.False(t, PhaseStepping.Terminal())
	assert.True(t, PhaseSucceeded.Terminal())
	assert.True(t, PhaseExhausted.Terminal())
}

func TestFailedOutcome(t *testing.T) {
	o := FailedOutcome("run-2", CornerNW, errors.New("boom"))
	assert.True(t, o.Failed)
	assert.Equal(t, FailedCollisions, o.Collisions)
	assert.Equal(t, "boom", o.Error)
	assert.False(t, o.Reached)

	end := NewRunEnd(o)
	assert.Equal(t, "run_end", end.Type)
	assert.Equal(t, SchemaVersion, end.SchemaVersion)
	assert.True(t, end.Failed)
	assert.Equal(t, -1, end.Collisions)
}

func TestCommandStrings(t *testing.T) {
	assert.Equal(t, "move(turn=45.0, distance=0.0)", Turn(45).String())
	assert.Equal(t, "move(turn=0.0, distance=2.5)", Forward(2.5).String())
	assert.Equal(t, "goal(SW)", SetGoal{Corner: CornerSW}.String())
	assert.Equal(t, "capture", Capture{}.String())
	assert.Equal(t, "reset", Reset{}.String())
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "frame_captured", EventFrameCaptured.String())
	assert.Equal(t, "collision", EventCollision.String())
	assert.Equal(t, "goal_reached", EventGoalReached.String())
	assert.Equal(t, "ack", EventAck.String())
	assert.Equal(t, "unknown", EventUnknown.String())
}
