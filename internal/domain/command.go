package domain

import "fmt"

// Command is an outbound instruction for the relay
type Command interface {
	isCommand()
	fmt.Stringer
}

// MoveRelative turns by Turn degrees and then advances Distance units
type MoveRelative struct {
	Turn     float64
	Distance float64
}

// Capture requests a camera frame
type Capture struct{}

// SetGoal places the goal in a corner
type SetGoal struct {
	Corner Corner
}

// Reset resets the simulator and the relay's collision counter
type Reset struct{}

func (MoveRelative) isCommand() {}
func (Capture) isCommand()      {}
func (SetGoal) isCommand()      {}
func (Reset) isCommand()        {}

func (m MoveRelative) String() string {
	return fmt.Sprintf("move(turn=%.1f, distance=%.1f)", m.Turn, m.Distance)
}
func (Capture) String() string   { return "capture" }
func (g SetGoal) String() string { return fmt.Sprintf("goal(%s)", g.Corner) }
func (Reset) String() string     { return "reset" }

// Turn returns a pure rotation
func Turn(deg float64) MoveRelative { return MoveRelative{Turn: deg} }

// Forward returns a straight advance
func Forward(dist float64) MoveRelative { return MoveRelative{Distance: dist} }
