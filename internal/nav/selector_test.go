package nav

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vburojevic/simnav/internal/domain"
	"github.com/vburojevic/simnav/internal/session"
	"go.uber.org/zap/zaptest"
)

func pngFrame(t *testing.T) *domain.Frame {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return &domain.Frame{Data: buf.Bytes(), MediaType: "image/png"}
}

func TestSelectMode(t *testing.T) {
	tests := []struct {
		name      string
		connected bool
		onCapture func(sess *session.State) error
		mode      domain.Mode
		reason    string
	}{
		{
			name:      "disconnected transport",
			connected: false,
			mode:      domain.ModeFallback,
			reason:    ReasonDisconnected,
		},
		{
			name:      "capture rejected",
			connected: true,
			onCapture: func(*session.State) error { return domain.ErrCommandFailed },
			mode:      domain.ModeFallback,
			reason:    ReasonCaptureFailed,
		},
		{
			name:      "frame never arrives",
			connected: true,
			onCapture: func(*session.State) error { return nil },
			mode:      domain.ModeFallback,
			reason:    ReasonTimeout,
		},
		{
			name:      "frame arrives but does not decode",
			connected: true,
			onCapture: func(sess *session.State) error {
				sess.PutFrame(&domain.Frame{Data: []byte("garbage")})
				return nil
			},
			mode:   domain.ModeFallback,
			reason: ReasonUndecodable,
		},
		{
			name:      "frame arrives and decodes",
			connected: true,
			onCapture: func(sess *session.State) error {
				sess.PutFrame(pngFrame(t))
				return nil
			},
			mode:   domain.ModeVision,
			reason: ReasonFrameOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := zaptest.NewLogger(t)
			sess := session.New(clock.New(), log)
			relay := &fakeRelay{}
			if tt.onCapture != nil {
				relay.onSend = func(n int, cmd domain.Command) error { return tt.onCapture(sess) }
			}

			start := time.Now()
			mode, reason := NewSelector(relay, sess, 50*time.Millisecond, log).SelectMode(context.Background(), tt.connected)
			assert.Equal(t, tt.mode, mode)
			assert.Equal(t, tt.reason, reason)
			assert.Less(t, time.Since(start), 2*time.Second)

			if !tt.connected {
				assert.Empty(t, relay.Sent())
			} else {
				assert.Equal(t, []domain.Command{domain.Capture{}}, relay.Sent())
			}
		})
	}
}

func TestSelectModeIgnoresStaleFrame(t *testing.T) {
	log := zaptest.NewLogger(t)
	sess := session.New(clock.New(), log)
	sess.PutFrame(pngFrame(t))

	mode, reason := NewSelector(&fakeRelay{}, sess, 20*time.Millisecond, log).SelectMode(context.Background(), true)
	assert.Equal(t, domain.ModeFallback, mode)
	assert.Equal(t, ReasonTimeout, reason)
}
