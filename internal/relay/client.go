// Package relay is the client for the relay's HTTP command surface.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vburojevic/simnav/internal/config"
	"github.com/vburojevic/simnav/internal/domain"
	"go.uber.org/zap"
)

// StatusError is a non-200 relay response
type StatusError struct {
	Op      string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: relay returned %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: relay returned %d", e.Op, e.Status)
}

// Unwrap lets callers test for domain.ErrCommandFailed
func (e *StatusError) Unwrap() error { return domain.ErrCommandFailed }

// Client sends commands to the relay. Every call is a single attempt with a
// bounded timeout; retrying is left to the caller.
type Client struct {
	base           string
	http           *http.Client
	captureTimeout time.Duration
	log            *zap.Logger
}

// New creates a relay client
func New(baseURL string, timeout, captureTimeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if captureTimeout <= 0 {
		captureTimeout = timeout
	}
	return &Client{
		base:           strings.TrimRight(baseURL, "/"),
		http:           &http.Client{Timeout: timeout},
		captureTimeout: captureTimeout,
		log:            log.Named("relay"),
	}
}

// FromConfig creates a relay client from config
func FromConfig(cfg config.RelayConfig, log *zap.Logger) *Client {
	return New(cfg.BaseURL, cfg.HTTPTimeout, cfg.CaptureTimeout, log)
}

// Send dispatches any outbound command
func (c *Client) Send(ctx context.Context, cmd domain.Command) error {
	switch cmd := cmd.(type) {
	case domain.MoveRelative:
		return c.Move(ctx, cmd.Turn, cmd.Distance)
	case domain.Capture:
		return c.Capture(ctx)
	case domain.SetGoal:
		_, err := c.SetGoal(ctx, cmd.Corner)
		return err
	case domain.Reset:
		_, err := c.Reset(ctx)
		return err
	default:
		return fmt.Errorf("%w: unsupported command %v", domain.ErrCommandFailed, cmd)
	}
}

type moveRequest struct {
	Turn     float64 `json:"turn"`
	Distance float64 `json:"distance"`
}

type goalRequest struct {
	Corner domain.Corner `json:"corner"`
}

type statusResponse struct {
	Status     string           `json:"status"`
	Error      string           `json:"error,omitempty"`
	Goal       *domain.Position `json:"goal,omitempty"`
	Collisions int              `json:"collisions"`
	Count      int              `json:"count"`
}

// Move turns by turn degrees and then advances distance units
func (c *Client) Move(ctx context.Context, turn, distance float64) error {
	_, err := c.do(ctx, "move", http.MethodPost, "/move_rel", moveRequest{Turn: turn, Distance: distance})
	return err
}

// Capture asks the simulator for a frame; it arrives on the event stream
func (c *Client) Capture(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.captureTimeout)
	defer cancel()
	_, err := c.do(ctx, "capture", http.MethodPost, "/capture", nil)
	return err
}

// SetGoal places the goal and returns its world position
func (c *Client) SetGoal(ctx context.Context, corner domain.Corner) (domain.Position, error) {
	resp, err := c.read(ctx, "goal", http.MethodPost, "/goal", goalRequest{Corner: corner})
	if err != nil {
		return domain.Position{}, err
	}
	if resp.Goal == nil {
		return domain.Position{}, nil
	}
	return *resp.Goal, nil
}

// Reset resets the simulator and returns the collision count after the reset
func (c *Client) Reset(ctx context.Context) (int, error) {
	resp, err := c.read(ctx, "reset", http.MethodPost, "/reset", nil)
	if err != nil {
		return 0, err
	}
	return resp.Collisions, nil
}

// Collisions returns the relay's cumulative collision count
func (c *Client) Collisions(ctx context.Context) (int, error) {
	resp, err := c.read(ctx, "collisions", http.MethodGet, "/collisions", nil)
	if err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// do sends a command whose reply body carries nothing the caller needs.
func (c *Client) do(ctx context.Context, op, method, path string, body any) (*statusResponse, error) {
	return c.roundTrip(ctx, op, method, path, body, false)
}

// read sends a command whose reply body must parse. A 200 with a body that
// is not the relay's JSON is a failed command, not a zero value.
func (c *Client) read(ctx context.Context, op, method, path string, body any) (*statusResponse, error) {
	return c.roundTrip(ctx, op, method, path, body, true)
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, body any, strict bool) (*statusResponse, error) {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrCommandFailed, op, err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrCommandFailed, op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrCommandFailed, op, err)
	}
	defer resp.Body.Close()

	var out statusResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out)

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Op: op, Status: resp.StatusCode, Message: out.Error}
	}
	if decodeErr != nil {
		if strict {
			return nil, fmt.Errorf("%w: %s: decode response: %w", domain.ErrCommandFailed, op, decodeErr)
		}
		if decodeErr != io.EOF {
			c.log.Debug("unparseable relay response", zap.String("op", op), zap.Error(decodeErr))
		}
	}
	c.log.Debug("relay command accepted", zap.String("op", op))
	return &out, nil
}
