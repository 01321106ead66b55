package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Gauravprp/localNetChatBygs/internal/directory"
	"github.com/Gauravprp/localNetChatBygs/internal/logger"
	"github.com/Gauravprp/localNetChatBygs/internal/model"
)

const dirOpTimeout = 5 * time.Second

// bufPool pools bytes.Buffer for frame encoding on the fan-out paths.
var bufPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// Settings are the per-connection tunables, filled from config.
type Settings struct {
	MaxConns       int
	SendBufSize    int
	WriteTimeout   time.Duration
	PongTimeout    time.Duration
	MaxMessageSize int64
}

func (s *Settings) applyDefaults() {
	if s.MaxConns <= 0 {
		s.MaxConns = 10000
	}
	if s.SendBufSize <= 0 {
		s.SendBufSize = 256
	}
	if s.WriteTimeout <= 0 {
		s.WriteTimeout = 10 * time.Second
	}
	if s.PongTimeout <= 0 {
		s.PongTimeout = 60 * time.Second
	}
	if s.MaxMessageSize <= 0 {
		s.MaxMessageSize = 1 << 20
	}
}

// Hub owns the connection registry and dispatches inbound frames to the
// router, the chat-request relay, and the group lifecycle. One goroutine
// pair per connection; the hub event loop owns register/unregister.
type Hub struct {
	dir      directory.Directory
	registry *Registry
	settings Settings

	mu      sync.Mutex
	conns   map[*Client]struct{}
	total   int

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub(dir directory.Directory, settings Settings) *Hub {
	settings.applyDefaults()
	return &Hub{
		dir:        dir,
		registry:   NewRegistry(),
		settings:   settings,
		conns:      make(map[*Client]struct{}),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		done:       make(chan struct{}),
	}
}

// Registry exposes the connection registry (read paths: handlers, tests).
func (h *Hub) Registry() *Registry { return h.registry }

// Run processes connection lifecycle events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			h.addConn(c)
		case c := <-h.unregister:
			h.removeConn(c)
		}
	}
}

func (h *Hub) shutdown() {
	// Collect under the lock, close outside it (network I/O).
	h.mu.Lock()
	all := make([]*Client, 0, h.total)
	for c := range h.conns {
		all = append(all, c)
	}
	h.conns = make(map[*Client]struct{})
	h.total = 0
	h.mu.Unlock()

	for _, c := range all {
		c.Close()
	}
	for _, c := range all {
		c.Wait()
	}
}

func (h *Hub) addConn(c *Client) {
	h.mu.Lock()
	if h.total >= h.settings.MaxConns {
		h.mu.Unlock()
		logger.Errorf("ws connection limit reached (%d), rejecting addr=%s", h.settings.MaxConns, c.addr)
		c.Close()
		return
	}
	h.conns[c] = struct{}{}
	h.total++
	h.mu.Unlock()
}

// removeConn tears a connection down. If it held a registry entry the entry
// is removed, the user is marked offline, and presence is rebroadcast —
// exactly once, even when teardown races a supersede by a new connection.
func (h *Hub) removeConn(c *Client) {
	h.mu.Lock()
	if _, ok := h.conns[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, c)
	h.total--
	h.mu.Unlock()

	c.Close()

	name := c.Name()
	if name == "" || !h.registry.Remove(name, c) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dirOpTimeout)
	defer cancel()
	if err := h.dir.SetStatus(ctx, name, model.StatusOffline); err != nil && !errors.Is(err, directory.ErrNotFound) {
		logger.Errorf("ws set offline user=%s: %v", name, err)
	}
	h.broadcastPresence(ctx)
}

// Register hands a freshly upgraded connection to the hub event loop.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.Close()
	}
}

// Unregister hands a closing connection to the hub event loop.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// HandleFrame dispatches one inbound frame. Malformed or out-of-order frames
// are logged and dropped; the connection stays alive.
func (h *Hub) HandleFrame(ctx context.Context, c *Client, frame Frame) {
	if frame.Type != EventRegister && c.Name() == "" {
		logger.Errorf("ws frame %q before register addr=%s, ignoring", frame.Type, c.addr)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, dirOpTimeout)
	defer cancel()

	switch frame.Type {
	case EventRegister:
		h.handleRegister(ctx, c, frame)
	case EventSetStatus:
		h.handleSetStatus(ctx, c, frame)
	case EventChatRequest:
		h.handleChatRequest(c, frame)
	case EventChatResponse:
		h.handleChatResponse(c, frame)
	case EventMessage:
		h.handleMessage(ctx, c, frame)
	case EventReaction:
		h.handleReaction(ctx, c, frame)
	case EventCreateGroup:
		h.handleCreateGroup(ctx, c, frame)
	case EventFile:
		h.handleFile(ctx, c, frame)
	default:
		h.sendError(c, "unknown event type")
	}
}

// handleRegister names the connection and binds it into the registry. A name
// conflict is resolved by superseding: the prior connection is force-closed,
// never merged with the new one. Its delayed teardown will find the registry
// already pointing at the new connection and skip the offline transition.
func (h *Hub) handleRegister(ctx context.Context, c *Client, frame Frame) {
	var p RegisterPayload
	if err := json.Unmarshal(frame.Data, &p); err != nil {
		logger.Errorf("ws register payload addr=%s: %v", c.addr, err)
		return
	}
	username := strings.TrimSpace(p.Username)
	if username == "" || len(username) > 64 || strings.Contains(username, ":") {
		h.sendError(c, "invalid username")
		return
	}
	if c.Name() != "" {
		logger.Errorf("ws duplicate register addr=%s user=%s, ignoring", c.addr, c.Name())
		return
	}

	if _, err := h.dir.GetUser(ctx, username); err != nil {
		if !errors.Is(err, directory.ErrNotFound) {
			logger.Errorf("ws register lookup user=%s: %v", username, err)
			return
		}
		if _, err := h.dir.CreateUser(ctx, username); err != nil && !errors.Is(err, directory.ErrUserExists) {
			logger.Errorf("ws register create user=%s: %v", username, err)
			return
		}
	}

	c.setName(username)
	if prior := h.registry.Register(username, c); prior != nil {
		logger.Infof("ws superseding connection user=%s old=%s new=%s", username, prior.addr, c.addr)
		prior.Close()
	}

	if err := h.dir.SetStatus(ctx, username, model.StatusOnline); err != nil {
		logger.Errorf("ws set online user=%s: %v", username, err)
	}
	h.broadcastPresence(ctx)
}

func (h *Hub) handleSetStatus(ctx context.Context, c *Client, frame Frame) {
	var p SetStatusPayload
	if err := json.Unmarshal(frame.Data, &p); err != nil {
		logger.Errorf("ws setStatus payload user=%s: %v", c.Name(), err)
		return
	}
	if !p.Status.Valid() {
		h.sendError(c, "invalid status")
		return
	}
	if err := h.dir.SetStatus(ctx, c.Name(), p.Status); err != nil {
		logger.Errorf("ws set status user=%s: %v", c.Name(), err)
		return
	}
	h.broadcastPresence(ctx)
}

// broadcastPresence reads the full user list from the directory, reconciles
// it with registry liveness (anyone without a live connection is offline),
// serializes the users frame once, and pushes the identical bytes to every
// connected client. Recipients filter themselves out client-side.
func (h *Hub) broadcastPresence(ctx context.Context) {
	defer logger.DeferLogDuration("ws.broadcastPresence", time.Now())()
	users, err := h.dir.ListUsers(ctx)
	if err != nil {
		logger.Errorf("ws presence list users: %v", err)
		return
	}
	for i := range users {
		if !h.registry.Connected(users[i].Username) {
			users[i] = users[i].WithStatus(model.StatusOffline)
		}
	}

	frame, err := encodeFrame(EventUsers, users)
	if err != nil {
		logger.Errorf("ws presence encode: %v", err)
		return
	}
	for _, c := range h.registry.Clients() {
		c.enqueue(frame)
	}
}

// sendToUser delivers a pre-encoded frame to username's connection, if any.
// An absent or concurrently closed recipient is a silent drop.
func (h *Hub) sendToUser(username string, frame []byte) {
	if c, ok := h.registry.Lookup(username); ok {
		c.enqueue(frame)
	}
}

func (h *Hub) sendError(c *Client, msg string) {
	frame, err := encodeFrame(EventError, ErrorPayload{Error: msg})
	if err != nil {
		return
	}
	c.enqueue(frame)
}

// encodeFrame serializes a frame once so fan-outs enqueue identical bytes.
func encodeFrame(t EventType, data any) ([]byte, error) {
	buf := bufPool.Get().(*bytes.Buffer)
	defer bufPool.Put(buf)
	buf.Reset()
	enc := json.NewEncoder(buf)
	if err := enc.Encode(outgoingFrame{Type: t, Data: data}); err != nil {
		return nil, err
	}
	b := buf.Bytes()
	// json.Encoder appends '\n'; trim it for WebSocket text frames.
	if n := len(b); n > 0 && b[n-1] == '\n' {
		b = b[:n-1]
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// outgoingFrame mirrors Frame with an open payload type for encoding.
type outgoingFrame struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}
