// Package relaytest provides a scripted in-process relay for tests: the HTTP
// command surface plus the websocket event stream.
package relaytest

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vburojevic/simnav/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Reaction is what the simulated world does in response to a move
type Reaction struct {
	Collide bool
	Goal    bool
}

// Relay is a fake relay. The zero value is not usable; call New.
type Relay struct {
	mu         sync.Mutex
	commands   []domain.Command
	collisions int
	frame      []byte
	mediaType  string
	failures   map[string]int
	onMove     func(n int, m domain.MoveRelative) Reaction
	moves      int
	clients    map[*websocket.Conn]struct{}
	joined     chan struct{}

	srv *httptest.Server
}

// New starts a fake relay that is shut down with the test
func New(tb testing.TB) *Relay {
	r := &Relay{
		failures: make(map[string]int),
		clients:  make(map[*websocket.Conn]struct{}),
		joined:   make(chan struct{}, 16),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /events", r.handleEvents)
	mux.HandleFunc("POST /move_rel", r.handleMove)
	mux.HandleFunc("POST /capture", r.handleCapture)
	mux.HandleFunc("POST /goal", r.handleGoal)
	mux.HandleFunc("POST /reset", r.handleReset)
	mux.HandleFunc("GET /collisions", r.handleCollisions)

	r.srv = httptest.NewServer(mux)
	tb.Cleanup(r.Close)
	return r
}

// URL is the base URL of the HTTP surface
func (r *Relay) URL() string { return r.srv.URL }

// EventsURL is the websocket URL of the event stream
func (r *Relay) EventsURL() string {
	return "ws" + strings.TrimPrefix(r.srv.URL, "http") + "/events"
}

// Close drops every client and stops the server
func (r *Relay) Close() {
	r.DropClients()
	r.srv.Close()
}

// SetFrame sets the image delivered for each capture; nil disables replies
func (r *Relay) SetFrame(data []byte, mediaType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frame = data
	r.mediaType = mediaType
}

// OnMove installs a hook called for every accepted move, numbered from 1
func (r *Relay) OnMove(fn func(n int, m domain.MoveRelative) Reaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onMove = fn
}

// Fail makes every request to path answer with status; 0 clears it
func (r *Relay) Fail(path string, status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if status == 0 {
		delete(r.failures, path)
		return
	}
	r.failures[path] = status
}

// Collide records a collision and announces it on the event stream
func (r *Relay) Collide() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collisions++
	r.broadcastLocked(map[string]any{"type": domain.WireCollision})
}

// ReachGoal announces that the agent reached the goal
func (r *Relay) ReachGoal() {
	r.Broadcast(map[string]any{"type": domain.WireGoalReached})
}

// Broadcast sends msg as JSON to every connected client
func (r *Relay) Broadcast(msg any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(msg)
}

// BroadcastRaw sends data verbatim to every connected client
func (r *Relay) BroadcastRaw(data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for conn := range r.clients {
		_ = conn.WriteMessage(websocket.TextMessage, data)
	}
}

func (r *Relay) broadcastLocked(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	for conn := range r.clients {
		_ = conn.WriteMessage(websocket.TextMessage, data)
	}
}

// Collisions returns the relay-side collision counter
func (r *Relay) Collisions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.collisions
}

// Commands returns every accepted command in arrival order
func (r *Relay) Commands() []domain.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Command(nil), r.commands...)
}

// Moves returns only the accepted move commands
func (r *Relay) Moves() []domain.MoveRelative {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.MoveRelative
	for _, c := range r.commands {
		if m, ok := c.(domain.MoveRelative); ok {
			out = append(out, m)
		}
	}
	return out
}

// Clients returns the number of connected event stream clients
func (r *Relay) Clients() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// WaitClient blocks until a client joins the event stream or timeout
func (r *Relay) WaitClient(timeout time.Duration) bool {
	select {
	case <-r.joined:
		return true
	case <-time.After(timeout):
		return false
	}
}

// DropClients closes every event stream connection
func (r *Relay) DropClients() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for conn := range r.clients {
		_ = conn.Close()
		delete(r.clients, conn)
	}
}

func (r *Relay) handleEvents(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}

	r.mu.Lock()
	r.clients[conn] = struct{}{}
	r.mu.Unlock()
	select {
	case r.joined <- struct{}{}:
	default:
	}

	defer func() {
		r.mu.Lock()
		delete(r.clients, conn)
		r.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// failed answers with an injected failure, if any, and reports whether it did
func (r *Relay) failed(w http.ResponseWriter, path string) bool {
	r.mu.Lock()
	status, ok := r.failures[path]
	r.mu.Unlock()
	if ok {
		writeJSON(w, status, map[string]any{"error": "injected failure"})
	}
	return ok
}

func (r *Relay) handleMove(w http.ResponseWriter, req *http.Request) {
	if r.failed(w, "/move_rel") {
		return
	}
	var body struct {
		Turn     *float64 `json:"turn"`
		Distance *float64 `json:"distance"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Turn == nil || body.Distance == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": `Missing parameters. Please provide "turn" and "distance".`})
		return
	}
	move := domain.MoveRelative{Turn: *body.Turn, Distance: *body.Distance}

	r.mu.Lock()
	r.commands = append(r.commands, move)
	r.moves++
	n, hook := r.moves, r.onMove
	r.mu.Unlock()

	// the world reacts before the move is acknowledged so a following
	// GET /collisions already sees the collision
	if hook != nil {
		react := hook(n, move)
		if react.Collide {
			r.Collide()
		}
		if react.Goal {
			r.ReachGoal()
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "move relative command sent"})
}

func (r *Relay) handleCapture(w http.ResponseWriter, req *http.Request) {
	if r.failed(w, "/capture") {
		return
	}
	r.mu.Lock()
	r.commands = append(r.commands, domain.Capture{})
	frame, mediaType := r.frame, r.mediaType
	r.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"status": "capture command sent"})

	if frame != nil {
		r.Broadcast(map[string]any{
			"type":  domain.WireCaptureImageResponse,
			"image": EncodeDataURL(mediaType, frame),
		})
	}
}

func (r *Relay) handleGoal(w http.ResponseWriter, req *http.Request) {
	if r.failed(w, "/goal") {
		return
	}
	var body struct {
		Corner string `json:"corner"`
	}
	_ = json.NewDecoder(req.Body).Decode(&body)
	corner, err := domain.ParseCorner(body.Corner)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": `Provide {"corner":"NE|NW|SE|SW"}`})
		return
	}

	r.mu.Lock()
	r.commands = append(r.commands, domain.SetGoal{Corner: corner})
	r.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"status": "goal set", "goal": GoalPosition(corner)})
}

func (r *Relay) handleReset(w http.ResponseWriter, req *http.Request) {
	if r.failed(w, "/reset") {
		return
	}
	r.mu.Lock()
	r.commands = append(r.commands, domain.Reset{})
	r.collisions = 0
	r.broadcastLocked(map[string]any{"command": "reset"})
	r.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"status": "reset broadcast", "collisions": 0})
}

func (r *Relay) handleCollisions(w http.ResponseWriter, req *http.Request) {
	if r.failed(w, "/collisions") {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": r.Collisions()})
}

// GoalPosition mirrors the relay's corner placement: 5 units in from the
// edge of a 100x100 floor centred on the origin.
func GoalPosition(c domain.Corner) domain.Position {
	const inset = 50 - 5
	switch c {
	case domain.CornerNE:
		return domain.Position{X: inset, Z: -inset}
	case domain.CornerNW:
		return domain.Position{X: -inset, Z: -inset}
	case domain.CornerSE:
		return domain.Position{X: inset, Z: inset}
	default:
		return domain.Position{X: -inset, Z: inset}
	}
}

// EncodeDataURL wraps image bytes the way the simulator does
func EncodeDataURL(mediaType string, data []byte) string {
	if mediaType == "" {
		mediaType = "image/png"
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
