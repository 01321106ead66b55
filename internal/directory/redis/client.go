// Package redis is the Redis-backed directory. Users and groups survive chat
// service restarts; liveness still comes from the in-process registry.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Gauravprp/localNetChatBygs/internal/directory"
	"github.com/Gauravprp/localNetChatBygs/internal/model"
)

// Key layout: users (set of names), user:{name} (hash: status),
// groups (set of ids), group:{id} (hash: name, created_by, created_at),
// group:{id}:members (set of names).
type Client struct {
	cli *redis.Client
}

func New(ctx context.Context, url string) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis parse url: %w", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		if closeErr := cli.Close(); closeErr != nil {
			return nil, fmt.Errorf("redis ping: %w (close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{cli: cli}, nil
}

func (c *Client) Close() error {
	return c.cli.Close()
}

func (c *Client) CreateUser(ctx context.Context, username string) (*model.User, error) {
	added, err := c.cli.SAdd(ctx, "users", username).Result()
	if err != nil {
		return nil, fmt.Errorf("redis create user: %w", err)
	}
	if added == 0 {
		return nil, directory.ErrUserExists
	}
	if err := c.cli.HSet(ctx, "user:"+username, "status", string(model.StatusOnline)).Err(); err != nil {
		return nil, fmt.Errorf("redis create user: %w", err)
	}
	u := model.User{Username: username}.WithStatus(model.StatusOnline)
	return &u, nil
}

func (c *Client) GetUser(ctx context.Context, username string) (*model.User, error) {
	ok, err := c.cli.SIsMember(ctx, "users", username).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get user: %w", err)
	}
	if !ok {
		return nil, directory.ErrNotFound
	}
	status, err := c.cli.HGet(ctx, "user:"+username, "status").Result()
	if err == redis.Nil {
		status = string(model.StatusOffline)
	} else if err != nil {
		return nil, fmt.Errorf("redis get user: %w", err)
	}
	u := model.User{Username: username}.WithStatus(model.Status(status))
	return &u, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	names, err := c.cli.SMembers(ctx, "users").Result()
	if err != nil {
		return nil, fmt.Errorf("redis list users: %w", err)
	}
	users := make([]model.User, 0, len(names))
	for _, name := range names {
		u, err := c.GetUser(ctx, name)
		if err != nil {
			if err == directory.ErrNotFound {
				continue
			}
			return nil, err
		}
		users = append(users, *u)
	}
	return users, nil
}

func (c *Client) SetStatus(ctx context.Context, username string, status model.Status) error {
	ok, err := c.cli.SIsMember(ctx, "users", username).Result()
	if err != nil {
		return fmt.Errorf("redis set status: %w", err)
	}
	if !ok {
		return directory.ErrNotFound
	}
	if err := c.cli.HSet(ctx, "user:"+username, "status", string(status)).Err(); err != nil {
		return fmt.Errorf("redis set status: %w", err)
	}
	return nil
}

func (c *Client) CreateGroup(ctx context.Context, g *model.GroupChat) error {
	pipe := c.cli.TxPipeline()
	pipe.SAdd(ctx, "groups", g.ID)
	pipe.HSet(ctx, "group:"+g.ID,
		"name", g.Name,
		"created_by", g.CreatedBy,
		"created_at", g.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if len(g.Members) > 0 {
		members := make([]any, 0, len(g.Members))
		for _, m := range g.Members {
			members = append(members, m)
		}
		pipe.SAdd(ctx, "group:"+g.ID+":members", members...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis create group: %w", err)
	}
	return nil
}

func (c *Client) GetGroup(ctx context.Context, id string) (*model.GroupChat, error) {
	fields, err := c.cli.HGetAll(ctx, "group:"+id).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get group: %w", err)
	}
	if len(fields) == 0 {
		return nil, directory.ErrNotFound
	}
	members, err := c.cli.SMembers(ctx, "group:"+id+":members").Result()
	if err != nil {
		return nil, fmt.Errorf("redis get group members: %w", err)
	}
	createdAt, _ := time.Parse(time.RFC3339Nano, fields["created_at"])
	return &model.GroupChat{
		ID:        id,
		Name:      fields["name"],
		Members:   members,
		CreatedBy: fields["created_by"],
		CreatedAt: createdAt,
	}, nil
}

func (c *Client) ListGroups(ctx context.Context) ([]model.GroupChat, error) {
	ids, err := c.cli.SMembers(ctx, "groups").Result()
	if err != nil {
		return nil, fmt.Errorf("redis list groups: %w", err)
	}
	groups := make([]model.GroupChat, 0, len(ids))
	for _, id := range ids {
		g, err := c.GetGroup(ctx, id)
		if err != nil {
			if err == directory.ErrNotFound {
				continue
			}
			return nil, err
		}
		groups = append(groups, *g)
	}
	return groups, nil
}

func (c *Client) AddMember(ctx context.Context, groupID, username string) error {
	ok, err := c.cli.SIsMember(ctx, "groups", groupID).Result()
	if err != nil {
		return fmt.Errorf("redis add member: %w", err)
	}
	if !ok {
		return directory.ErrNotFound
	}
	// SADD is idempotent.
	if err := c.cli.SAdd(ctx, "group:"+groupID+":members", username).Err(); err != nil {
		return fmt.Errorf("redis add member: %w", err)
	}
	return nil
}

func (c *Client) RemoveMember(ctx context.Context, groupID, username string) error {
	ok, err := c.cli.SIsMember(ctx, "groups", groupID).Result()
	if err != nil {
		return fmt.Errorf("redis remove member: %w", err)
	}
	if !ok {
		return directory.ErrNotFound
	}
	if err := c.cli.SRem(ctx, "group:"+groupID+":members", username).Err(); err != nil {
		return fmt.Errorf("redis remove member: %w", err)
	}
	return nil
}
