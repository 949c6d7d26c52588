// Package transport maintains the relay event stream: a websocket carrying
// frames, collision notices and goal notices from the simulator.
package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"github.com/vburojevic/simnav/internal/config"
	"github.com/vburojevic/simnav/internal/domain"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Conn is one established event stream connection
type Conn struct {
	ws   *websocket.Conn
	once sync.Once
	err  error
}

// Close closes the underlying socket; it is safe to call more than once
func (c *Conn) Close() error {
	c.once.Do(func() {
		deadline := time.Now().Add(time.Second)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		c.err = multierr.Append(
			ignoreClosed(c.ws.WriteControl(websocket.CloseMessage, msg, deadline)),
			c.ws.Close(),
		)
	})
	return c.err
}

func ignoreClosed(err error) error {
	if errors.Is(err, websocket.ErrCloseSent) {
		return nil
	}
	return err
}

// StatusSink receives connection state changes
type StatusSink interface {
	SetConnected(bool)
}

// Client dials the relay event stream with a bounded retry budget
type Client struct {
	url      string
	attempts int
	delay    time.Duration
	dialer   *websocket.Dialer
	clock    clock.Clock
	log      *zap.Logger
}

// Options configures a Client
type Options struct {
	URL              string
	Attempts         int
	RetryDelay       time.Duration
	HandshakeTimeout time.Duration
	Clock            clock.Clock
	Logger           *zap.Logger
}

// OptionsFromConfig maps relay and transport config to client options
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		URL:              cfg.Relay.EventsURL,
		Attempts:         cfg.Transport.ConnectAttempts,
		RetryDelay:       cfg.Transport.RetryDelay,
		HandshakeTimeout: cfg.Transport.HandshakeTimeout,
	}
}

// New creates a new event stream client
func New(opts Options) *Client {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Client{
		url:      opts.URL,
		attempts: opts.Attempts,
		delay:    opts.RetryDelay,
		dialer: &websocket.Dialer{
			HandshakeTimeout: opts.HandshakeTimeout,
		},
		clock: opts.Clock,
		log:   opts.Logger.Named("transport"),
	}
}

// Connect dials the relay, retrying up to the attempt budget with a fixed
// delay between attempts. Each call gets a fresh budget.
func (c *Client) Connect(ctx context.Context) (*Conn, error) {
	var errs error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		ws, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err == nil {
			c.log.Info("event stream connected", zap.String("url", c.url), zap.Int("attempt", attempt))
			return &Conn{ws: ws}, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		errs = multierr.Append(errs, err)
		c.log.Warn("event stream connect failed",
			zap.String("url", c.url),
			zap.Int("attempt", attempt),
			zap.Int("of", c.attempts),
			zap.Error(err))

		if attempt < c.attempts {
			if err := c.sleep(ctx, c.delay); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", domain.ErrTransportExhausted, c.attempts, errs)
}

// ReceiveLoop reads messages until the connection drops or ctx is cancelled,
// handing every decoded event to onEvent. Malformed messages are logged and
// dropped. The connection is closed on return.
func (c *Client) ReceiveLoop(ctx context.Context, conn *Conn, onEvent func(domain.InboundEvent)) error {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer conn.Close()

	for {
		kind, data, err := conn.ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
			continue
		}

		ev, err := Decode(data)
		if err != nil {
			c.log.Warn("dropping malformed message", zap.Error(err), zap.Int("bytes", len(data)))
			continue
		}
		if ev.Kind == domain.EventUnknown {
			c.log.Debug("unrecognized message type", zap.String("type", ev.WireType))
		}
		onEvent(ev)
	}
}

// Run keeps the event stream up until ctx is cancelled. After a disconnect it
// waits the retry delay and reconnects with a fresh attempt budget. It returns
// ErrTransportExhausted once a connect budget is spent; the caller then
// continues without the stream.
func (c *Client) Run(ctx context.Context, status StatusSink, onEvent func(domain.InboundEvent)) error {
	for {
		conn, err := c.Connect(ctx)
		if err != nil {
			return err
		}

		status.SetConnected(true)
		err = c.ReceiveLoop(ctx, conn, onEvent)
		status.SetConnected(false)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			c.log.Warn("event stream lost", zap.Error(err))
		} else {
			c.log.Info("event stream closed by relay")
		}

		if err := c.sleep(ctx, c.delay); err != nil {
			return err
		}
	}
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := c.clock.Timer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
