// Package directory defines the durable user and group records the chat core
// depends on. The core holds only transient usernames and group ids and
// re-reads current state before every broadcast; the directory is the single
// owner of User and GroupChat records.
package directory

import (
	"context"
	"errors"

	"github.com/Gauravprp/localNetChatBygs/internal/model"
)

var (
	// ErrNotFound is returned when a user or group does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUserExists is returned by CreateUser on a duplicate username.
	ErrUserExists = errors.New("user already exists")
)

// Directory holds user existence/status and group membership.
// Implementations: memory.Client (default), redis.Client, postgres.Client.
type Directory interface {
	CreateUser(ctx context.Context, username string) (*model.User, error)
	GetUser(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	SetStatus(ctx context.Context, username string, status model.Status) error

	CreateGroup(ctx context.Context, g *model.GroupChat) error
	GetGroup(ctx context.Context, id string) (*model.GroupChat, error)
	ListGroups(ctx context.Context) ([]model.GroupChat, error)
	// AddMember and RemoveMember are idempotent: adding an existing member or
	// removing an absent one is a no-op.
	AddMember(ctx context.Context, groupID, username string) error
	RemoveMember(ctx context.Context, groupID, username string) error

	Close() error
}
