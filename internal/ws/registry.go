package ws

import (
	"errors"
	"sync"
)

// ErrNameInUse is reported when a registration conflicts with a live
// connection. Under the supersede policy it is resolved by closing the prior
// connection, never by merging two channels under one name.
var ErrNameInUse = errors.New("username already connected")

// Registry maps a live username to its open connection. It is the single
// source of truth for who can currently receive a push. All operations are
// guarded by one mutex; callers never touch the map directly.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Client)}
}

// Register binds username to c. If another connection currently holds the
// name it is displaced and returned so the caller can close it (supersede
// policy); at most one live entry per name ever exists.
func (r *Registry) Register(username string, c *Client) (prior *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prior = r.conns[username]
	if prior == c {
		return nil
	}
	r.conns[username] = c
	return prior
}

// Remove unbinds username only if c is still the current holder, and reports
// whether it removed anything. A teardown racing a supersede therefore cannot
// evict the replacement, and the caller can gate the offline transition on
// the return value so it fires exactly once.
func (r *Registry) Remove(username string, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conns[username] != c {
		return false
	}
	delete(r.conns, username)
	return true
}

// Lookup returns the connection for username, if any.
func (r *Registry) Lookup(username string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[username]
	return c, ok
}

// Connected reports whether username has a live connection.
func (r *Registry) Connected(username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[username]
	return ok
}

// AllConnected returns the usernames with a live connection.
func (r *Registry) AllConnected() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.conns))
	for name := range r.conns {
		names = append(names, name)
	}
	return names
}

// Clients returns a snapshot of all registered connections, for fan-out.
func (r *Registry) Clients() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clients := make([]*Client, 0, len(r.conns))
	for _, c := range r.conns {
		clients = append(clients, c)
	}
	return clients
}

// Len returns the number of live registrations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
