package domain

// EventKind tags an InboundEvent
type EventKind int

const (
	EventUnknown EventKind = iota
	EventFrameCaptured
	EventCollision
	EventGoalReached
	EventAck
)

func (k EventKind) String() string {
	switch k {
	case EventFrameCaptured:
		return "frame_captured"
	case EventCollision:
		return "collision"
	case EventGoalReached:
		return "goal_reached"
	case EventAck:
		return "ack"
	default:
		return "unknown"
	}
}

// Wire type discriminators on the relay event stream
const (
	WireCaptureImageResponse = "capture_image_response"
	WireCollision            = "collision"
	WireGoalReached          = "goal_reached"
	WireConfirmation         = "confirmation"
)

// Frame is one encoded camera capture as delivered by the relay
type Frame struct {
	// Data holds the encoded image bytes (PNG or JPEG).
	Data []byte
	// MediaType is taken from the data URL header when present.
	MediaType string
}

// InboundEvent is a decoded relay event stream message
type InboundEvent struct {
	Kind EventKind
	// Frame is set for EventFrameCaptured.
	Frame *Frame
	// WireType is the raw discriminator, kept for Unknown events.
	WireType string
}
