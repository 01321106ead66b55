// Package memory is the in-process directory backend. It is the default for
// single-binary deployments and for tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Gauravprp/localNetChatBygs/internal/directory"
	"github.com/Gauravprp/localNetChatBygs/internal/model"
)

type Client struct {
	mu     sync.RWMutex
	users  map[string]model.User
	groups map[string]model.GroupChat
}

func New() *Client {
	return &Client{
		users:  make(map[string]model.User),
		groups: make(map[string]model.GroupChat),
	}
}

func (c *Client) Close() error { return nil }

func (c *Client) CreateUser(ctx context.Context, username string) (*model.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.users[username]; ok {
		return nil, directory.ErrUserExists
	}
	u := model.User{Username: username}.WithStatus(model.StatusOnline)
	c.users[username] = u
	return &u, nil
}

func (c *Client) GetUser(ctx context.Context, username string) (*model.User, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.users[username]
	if !ok {
		return nil, directory.ErrNotFound
	}
	return &u, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	users := make([]model.User, 0, len(c.users))
	for _, u := range c.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (c *Client) SetStatus(ctx context.Context, username string, status model.Status) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.users[username]
	if !ok {
		return directory.ErrNotFound
	}
	c.users[username] = u.WithStatus(status)
	return nil
}

func (c *Client) CreateGroup(ctx context.Context, g *model.GroupChat) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *g
	cp.Members = append([]string(nil), g.Members...)
	c.groups[g.ID] = cp
	return nil
}

func (c *Client) GetGroup(ctx context.Context, id string) (*model.GroupChat, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	g, ok := c.groups[id]
	if !ok {
		return nil, directory.ErrNotFound
	}
	cp := g
	cp.Members = append([]string(nil), g.Members...)
	return &cp, nil
}

func (c *Client) ListGroups(ctx context.Context) ([]model.GroupChat, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	groups := make([]model.GroupChat, 0, len(c.groups))
	for _, g := range c.groups {
		cp := g
		cp.Members = append([]string(nil), g.Members...)
		groups = append(groups, cp)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].CreatedAt.Before(groups[j].CreatedAt) })
	return groups, nil
}

func (c *Client) AddMember(ctx context.Context, groupID, username string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.groups[groupID]
	if !ok {
		return directory.ErrNotFound
	}
	for _, m := range g.Members {
		if m == username {
			return nil
		}
	}
	g.Members = append(append([]string(nil), g.Members...), username)
	c.groups[groupID] = g
	return nil
}

func (c *Client) RemoveMember(ctx context.Context, groupID, username string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.groups[groupID]
	if !ok {
		return directory.ErrNotFound
	}
	kept := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		if m != username {
			kept = append(kept, m)
		}
	}
	g.Members = kept
	c.groups[groupID] = g
	return nil
}
