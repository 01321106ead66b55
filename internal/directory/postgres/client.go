// Package postgres is the Postgres-backed directory, for deployments that
// already run the database. Schema lives in migrations/001_init.sql.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Gauravprp/localNetChatBygs/internal/directory"
	"github.com/Gauravprp/localNetChatBygs/internal/logger"
	"github.com/Gauravprp/localNetChatBygs/internal/model"
)

type Client struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Client {
	return &Client{pool: pool}
}

func (c *Client) Close() error {
	c.pool.Close()
	return nil
}

func (c *Client) CreateUser(ctx context.Context, username string) (*model.User, error) {
	defer logger.DeferLogDuration("directory.CreateUser", time.Now())()
	tag, err := c.pool.Exec(ctx,
		`INSERT INTO users (username, status) VALUES ($1, $2) ON CONFLICT (username) DO NOTHING`,
		username, string(model.StatusOnline),
	)
	if err != nil {
		return nil, fmt.Errorf("directory.CreateUser: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, directory.ErrUserExists
	}
	u := model.User{Username: username}.WithStatus(model.StatusOnline)
	return &u, nil
}

func (c *Client) GetUser(ctx context.Context, username string) (*model.User, error) {
	defer logger.DeferLogDuration("directory.GetUser", time.Now())()
	var status string
	row := c.pool.QueryRow(ctx, `SELECT status FROM users WHERE username = $1`, username)
	if err := row.Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, directory.ErrNotFound
		}
		return nil, fmt.Errorf("directory.GetUser: %w", err)
	}
	u := model.User{Username: username}.WithStatus(model.Status(status))
	return &u, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	defer logger.DeferLogDuration("directory.ListUsers", time.Now())()
	rows, err := c.pool.Query(ctx, `SELECT username, status FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("directory.ListUsers: %w", err)
	}
	defer rows.Close()
	var users []model.User
	for rows.Next() {
		var name, status string
		if err := rows.Scan(&name, &status); err != nil {
			return nil, fmt.Errorf("directory.ListUsers scan: %w", err)
		}
		users = append(users, model.User{Username: name}.WithStatus(model.Status(status)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("directory.ListUsers rows: %w", err)
	}
	return users, nil
}

func (c *Client) SetStatus(ctx context.Context, username string, status model.Status) error {
	defer logger.DeferLogDuration("directory.SetStatus", time.Now())()
	tag, err := c.pool.Exec(ctx,
		`UPDATE users SET status = $1 WHERE username = $2`,
		string(status), username,
	)
	if err != nil {
		return fmt.Errorf("directory.SetStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return directory.ErrNotFound
	}
	return nil
}

func (c *Client) CreateGroup(ctx context.Context, g *model.GroupChat) error {
	defer logger.DeferLogDuration("directory.CreateGroup", time.Now())()
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("directory.CreateGroup begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO groups (id, name, created_by, created_at) VALUES ($1, $2, $3, $4)`,
		g.ID, g.Name, g.CreatedBy, g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("directory.CreateGroup: %w", err)
	}
	for _, m := range g.Members {
		_, err = tx.Exec(ctx,
			`INSERT INTO group_members (group_id, username) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			g.ID, m,
		)
		if err != nil {
			return fmt.Errorf("directory.CreateGroup member: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("directory.CreateGroup commit: %w", err)
	}
	return nil
}

func (c *Client) GetGroup(ctx context.Context, id string) (*model.GroupChat, error) {
	defer logger.DeferLogDuration("directory.GetGroup", time.Now())()
	g := &model.GroupChat{ID: id}
	row := c.pool.QueryRow(ctx, `SELECT name, created_by, created_at FROM groups WHERE id = $1`, id)
	if err := row.Scan(&g.Name, &g.CreatedBy, &g.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, directory.ErrNotFound
		}
		return nil, fmt.Errorf("directory.GetGroup: %w", err)
	}
	members, err := c.groupMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	g.Members = members
	return g, nil
}

func (c *Client) ListGroups(ctx context.Context) ([]model.GroupChat, error) {
	defer logger.DeferLogDuration("directory.ListGroups", time.Now())()
	rows, err := c.pool.Query(ctx, `SELECT id, name, created_by, created_at FROM groups ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("directory.ListGroups: %w", err)
	}
	defer rows.Close()
	var groups []model.GroupChat
	for rows.Next() {
		var g model.GroupChat
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedBy, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("directory.ListGroups scan: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("directory.ListGroups rows: %w", err)
	}
	for i := range groups {
		members, err := c.groupMembers(ctx, groups[i].ID)
		if err != nil {
			return nil, err
		}
		groups[i].Members = members
	}
	return groups, nil
}

func (c *Client) groupMembers(ctx context.Context, groupID string) ([]string, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT username FROM group_members WHERE group_id = $1 ORDER BY username`, groupID)
	if err != nil {
		return nil, fmt.Errorf("directory.groupMembers: %w", err)
	}
	defer rows.Close()
	var members []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("directory.groupMembers scan: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (c *Client) AddMember(ctx context.Context, groupID, username string) error {
	defer logger.DeferLogDuration("directory.AddMember", time.Now())()
	if _, err := c.GetGroup(ctx, groupID); err != nil {
		return err
	}
	_, err := c.pool.Exec(ctx,
		`INSERT INTO group_members (group_id, username) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		groupID, username,
	)
	if err != nil {
		return fmt.Errorf("directory.AddMember: %w", err)
	}
	return nil
}

func (c *Client) RemoveMember(ctx context.Context, groupID, username string) error {
	defer logger.DeferLogDuration("directory.RemoveMember", time.Now())()
	if _, err := c.GetGroup(ctx, groupID); err != nil {
		return err
	}
	_, err := c.pool.Exec(ctx,
		`DELETE FROM group_members WHERE group_id = $1 AND username = $2`,
		groupID, username,
	)
	if err != nil {
		return fmt.Errorf("directory.RemoveMember: %w", err)
	}
	return nil
}
