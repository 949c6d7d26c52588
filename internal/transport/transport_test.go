package transport

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vburojevic/simnav/internal/domain"
	"github.com/vburojevic/simnav/internal/relaytest"
	"github.com/vburojevic/simnav/internal/session"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func TestDecode(t *testing.T) {
	png := []byte("\x89PNG fake")
	b64 := base64.StdEncoding.EncodeToString(png)

	tests := []struct {
		name    string
		raw     string
		kind    domain.EventKind
		wantErr bool
	}{
		{"capture with data url", `{"type":"capture_image_response","image":"data:image/png;base64,` + b64 + `"}`, domain.EventFrameCaptured, false},
		{"capture with bare base64", `{"type":"capture_image_response","image":"` + b64 + `"}`, domain.EventFrameCaptured, false},
		{"capture without image", `{"type":"capture_image_response"}`, 0, true},
		{"capture with bad base64", `{"type":"capture_image_response","image":"data:image/png;base64,!!!"}`, 0, true},
		{"collision", `{"type":"collision","collision":true}`, domain.EventCollision, false},
		{"goal", `{"type":"goal_reached"}`, domain.EventGoalReached, false},
		{"confirmation", `{"type":"confirmation","message":"ok"}`, domain.EventAck, false},
		{"unknown type", `{"type":"mystery"}`, domain.EventUnknown, false},
		{"missing type", `{"command":"reset"}`, domain.EventUnknown, false},
		{"not json", `not json`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Decode([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, ev.Kind)
			if ev.Kind == domain.EventFrameCaptured {
				require.NotNil(t, ev.Frame)
				assert.Equal(t, png, ev.Frame.Data)
			}
		})
	}
}

func TestParseDataURL(t *testing.T) {
	f, err := ParseDataURL(EncodeDataURL("image/jpeg", []byte{1, 2, 3}))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", f.MediaType)
	assert.Equal(t, []byte{1, 2, 3}, f.Data)

	_, err = ParseDataURL("data:image/png;base64,")
	assert.Error(t, err)
}

func TestConnectExhausted(t *testing.T) {
	srv := httptest.NewServer(nil)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	log, logs := observed()
	c := New(Options{URL: url, Attempts: 3, RetryDelay: time.Millisecond, Logger: log})

	conn, err := c.Connect(context.Background())
	assert.Nil(t, conn)
	assert.True(t, errors.Is(err, domain.ErrTransportExhausted))
	assert.Equal(t, 3, logs.FilterMessage("event stream connect failed").Len())
}

func TestConnectCancelled(t *testing.T) {
	c := New(Options{URL: "ws://127.0.0.1:1/events", Attempts: 5, RetryDelay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Connect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReceiveLoopDeliversEvents(t *testing.T) {
	relay := relaytest.New(t)
	log, logs := observed()
	c := New(Options{URL: relay.EventsURL(), Attempts: 1, Logger: log})

	conn, err := c.Connect(context.Background())
	require.NoError(t, err)
	require.True(t, relay.WaitClient(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan domain.InboundEvent, 8)
	done := make(chan error, 1)
	go func() {
		done <- c.ReceiveLoop(ctx, conn, func(ev domain.InboundEvent) { events <- ev })
	}()

	relay.BroadcastRaw([]byte("garbage"))
	relay.Collide()
	relay.ReachGoal()

	for _, want := range []domain.EventKind{domain.EventCollision, domain.EventGoalReached} {
		select {
		case ev := <-events:
			assert.Equal(t, want, ev.Kind)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
	assert.Equal(t, 1, logs.FilterMessage("dropping malformed message").Len())

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("receive loop did not stop on cancel")
	}
}

func TestRunReconnectsAfterDrop(t *testing.T) {
	relay := relaytest.New(t)
	sess := session.New(nil, nil)
	c := New(Options{URL: relay.EventsURL(), Attempts: 3, RetryDelay: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, sess, sess.Handle) }()

	require.True(t, sess.WaitConnected(ctx, 2*time.Second))
	require.True(t, relay.WaitClient(time.Second))

	relay.DropClients()
	require.True(t, relay.WaitClient(2*time.Second), "client should reconnect")
	require.Eventually(t, sess.Connected, 2*time.Second, 5*time.Millisecond)

	relay.Collide()
	require.Eventually(t, func() bool { return sess.Collisions() == 1 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop on cancel")
	}
	assert.False(t, sess.Connected())
}
