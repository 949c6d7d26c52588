package transport

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vburojevic/simnav/internal/domain"
)

// wireMessage is the union of every relay event stream payload
type wireMessage struct {
	Type  string `json:"type"`
	Image string `json:"image,omitempty"`
}

// Decode turns one event stream message into an InboundEvent. Unrecognized
// types decode to EventUnknown; only malformed payloads return an error.
func Decode(raw []byte) (domain.InboundEvent, error) {
	var msg wireMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return domain.InboundEvent{}, fmt.Errorf("malformed message: %w", err)
	}

	switch msg.Type {
	case domain.WireCaptureImageResponse:
		if msg.Image == "" {
			return domain.InboundEvent{}, errors.New("capture response without image")
		}
		frame, err := ParseDataURL(msg.Image)
		if err != nil {
			return domain.InboundEvent{}, err
		}
		return domain.InboundEvent{Kind: domain.EventFrameCaptured, Frame: frame, WireType: msg.Type}, nil
	case domain.WireCollision:
		return domain.InboundEvent{Kind: domain.EventCollision, WireType: msg.Type}, nil
	case domain.WireGoalReached:
		return domain.InboundEvent{Kind: domain.EventGoalReached, WireType: msg.Type}, nil
	case domain.WireConfirmation:
		return domain.InboundEvent{Kind: domain.EventAck, WireType: msg.Type}, nil
	default:
		return domain.InboundEvent{Kind: domain.EventUnknown, WireType: msg.Type}, nil
	}
}

// ParseDataURL decodes "data:image/png;base64,...." (or bare base64) into a frame
func ParseDataURL(s string) (*domain.Frame, error) {
	frame := &domain.Frame{}
	payload := s
	if header, body, ok := strings.Cut(s, ","); ok {
		payload = body
		header = strings.TrimPrefix(header, "data:")
		frame.MediaType, _, _ = strings.Cut(header, ";")
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("image payload: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("image payload is empty")
	}
	frame.Data = data
	return frame, nil
}

// EncodeDataURL is the inverse of ParseDataURL
func EncodeDataURL(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
