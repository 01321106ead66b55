package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Gauravprp/localNetChatBygs/internal/directory"
	"github.com/Gauravprp/localNetChatBygs/internal/model"
)

func TestCreateUser(t *testing.T) {
	c := New()
	ctx := context.Background()

	u, err := c.CreateUser(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "alice", u.Username)
	require.Equal(t, model.StatusOnline, u.Status)
	require.True(t, u.Online)

	_, err = c.CreateUser(ctx, "alice")
	require.ErrorIs(t, err, directory.ErrUserExists)
}

func TestGetUserNotFound(t *testing.T) {
	c := New()
	_, err := c.GetUser(context.Background(), "nobody")
	require.ErrorIs(t, err, directory.ErrNotFound)
}

func TestSetStatus(t *testing.T) {
	c := New()
	ctx := context.Background()
	_, err := c.CreateUser(ctx, "alice")
	require.NoError(t, err)

	require.NoError(t, c.SetStatus(ctx, "alice", model.StatusAway))
	u, err := c.GetUser(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, model.StatusAway, u.Status)
	require.True(t, u.Online)

	require.NoError(t, c.SetStatus(ctx, "alice", model.StatusOffline))
	u, err = c.GetUser(ctx, "alice")
	require.NoError(t, err)
	require.False(t, u.Online)

	require.ErrorIs(t, c.SetStatus(ctx, "nobody", model.StatusOnline), directory.ErrNotFound)
}

func TestListUsersSorted(t *testing.T) {
	c := New()
	ctx := context.Background()
	for _, name := range []string{"carol", "alice", "bob"} {
		_, err := c.CreateUser(ctx, name)
		require.NoError(t, err)
	}

	users, err := c.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	require.Equal(t, "alice", users[0].Username)
	require.Equal(t, "bob", users[1].Username)
	require.Equal(t, "carol", users[2].Username)
}

func newGroup(name string, members ...string) *model.GroupChat {
	return &model.GroupChat{
		ID:        model.NewGroupID(),
		Name:      name,
		Members:   members,
		CreatedBy: members[0],
		CreatedAt: time.Now().UTC(),
	}
}

func TestGroupRoundTrip(t *testing.T) {
	c := New()
	ctx := context.Background()
	g := newGroup("team", "alice", "bob")

	require.NoError(t, c.CreateGroup(ctx, g))
	got, err := c.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	require.Equal(t, g.Name, got.Name)
	require.Equal(t, []string{"alice", "bob"}, got.Members)

	_, err = c.GetGroup(ctx, model.NewGroupID())
	require.ErrorIs(t, err, directory.ErrNotFound)
}

func TestGetGroupReturnsCopy(t *testing.T) {
	c := New()
	ctx := context.Background()
	g := newGroup("team", "alice", "bob")
	require.NoError(t, c.CreateGroup(ctx, g))

	got, err := c.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	got.Members[0] = "mallory"

	again, err := c.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "bob"}, again.Members)
}

func TestAddMemberIdempotent(t *testing.T) {
	c := New()
	ctx := context.Background()
	g := newGroup("team", "alice")
	require.NoError(t, c.CreateGroup(ctx, g))

	require.NoError(t, c.AddMember(ctx, g.ID, "bob"))
	require.NoError(t, c.AddMember(ctx, g.ID, "bob"))

	got, err := c.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "bob"}, got.Members)

	require.ErrorIs(t, c.AddMember(ctx, model.NewGroupID(), "bob"), directory.ErrNotFound)
}

func TestRemoveMember(t *testing.T) {
	c := New()
	ctx := context.Background()
	g := newGroup("team", "alice", "bob")
	require.NoError(t, c.CreateGroup(ctx, g))

	require.NoError(t, c.RemoveMember(ctx, g.ID, "bob"))
	// Removing an absent member is a no-op.
	require.NoError(t, c.RemoveMember(ctx, g.ID, "bob"))

	got, err := c.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"alice"}, got.Members)
}

func TestListGroupsOrderedByCreation(t *testing.T) {
	c := New()
	ctx := context.Background()

	first := newGroup("first", "alice")
	second := newGroup("second", "bob")
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	require.NoError(t, c.CreateGroup(ctx, second))
	require.NoError(t, c.CreateGroup(ctx, first))

	groups, err := c.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	require.Equal(t, "first", groups[0].Name)
	require.Equal(t, "second", groups[1].Name)
}
