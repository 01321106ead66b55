package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Gauravprp/localNetChatBygs/internal/logger"
)

// Client owns one WebSocket connection and its outbound queue.
// Lifecycle: NewClient -> Start(ctx, cancel) -> [readPump, writePump] ->
// Close -> Wait. A connection is anonymous until its register frame names it.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	addr string
	send chan []byte

	nameMu   sync.RWMutex
	username string

	// done is the non-blocking guard for enqueue.
	done chan struct{}
	// cancel stops the pumps via the context passed to Start.
	cancel context.CancelFunc
	once   sync.Once
	wg     sync.WaitGroup
}

func NewClient(hub *Hub, conn *websocket.Conn, addr string) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		addr: addr,
		send: make(chan []byte, hub.settings.SendBufSize),
		done: make(chan struct{}),
	}
}

// Name returns the username bound by the register frame, or "" while the
// connection is still anonymous.
func (c *Client) Name() string {
	c.nameMu.RLock()
	defer c.nameMu.RUnlock()
	return c.username
}

func (c *Client) setName(name string) {
	c.nameMu.Lock()
	c.username = name
	c.nameMu.Unlock()
}

// Start launches the pump goroutines. ctx controls pump lifetime; cancel is
// stored for Close.
func (c *Client) Start(ctx context.Context, cancel context.CancelFunc) {
	c.cancel = cancel
	c.wg.Add(2)
	go c.writePump(ctx)
	go c.readPump(ctx)
}

// Wait blocks until both pumps have exited.
func (c *Client) Wait() {
	c.wg.Wait()
}

// Close signals the client to stop. Safe to call multiple times from any
// goroutine, including concurrently with in-flight enqueues.
func (c *Client) Close() {
	c.once.Do(func() {
		if c.cancel != nil {
			c.cancel()
		}
		close(c.done)
		if c.conn != nil {
			// Unblocks both pumps: ReadMessage/WriteMessage will error.
			c.conn.Close()
		}
	})
}

// enqueue hands a pre-encoded frame to the write pump without blocking.
// A send racing the connection's teardown is silently dropped; a full buffer
// means the client is too slow to keep and it is closed.
func (c *Client) enqueue(frame []byte) {
	select {
	case c.send <- frame:
	case <-c.done:
	default:
		logger.Errorf("ws send buffer full, closing slow client addr=%s", c.addr)
		c.Close()
	}
}

// readPump reads frames from the connection and dispatches them to the hub.
// Exits on read error (triggered by conn.Close from Close or writePump exit).
func (c *Client) readPump(ctx context.Context) {
	defer c.wg.Done()
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	pongWait := c.hub.settings.PongTimeout
	c.conn.SetReadLimit(c.hub.settings.MaxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logger.Errorf("ws set read deadline addr=%s: %v", c.addr, err)
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Errorf("ws read error addr=%s: %v", c.addr, err)
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			// Malformed frame: drop it, keep the connection.
			logger.Errorf("ws unmarshal error addr=%s: %v", c.addr, err)
			continue
		}

		c.hub.HandleFrame(ctx, c, frame)
	}
}

// writePump writes queued frames and pings to the connection.
// Exits on ctx cancellation, write error, or connection close.
func (c *Client) writePump(ctx context.Context) {
	defer c.wg.Done()
	pingPeriod := (c.hub.settings.PongTimeout * 9) / 10
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			if err := c.conn.WriteMessage(websocket.CloseMessage, nil); err != nil {
				logger.Errorf("ws close message addr=%s: %v", c.addr, err)
			}
			return
		case frame := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.hub.settings.WriteTimeout)); err != nil {
				logger.Errorf("ws set write deadline addr=%s: %v", c.addr, err)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.hub.settings.WriteTimeout)); err != nil {
				logger.Errorf("ws set write deadline addr=%s: %v", c.addr, err)
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
