package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusOnline, StatusAway, StatusBusy, StatusOffline} {
		require.True(t, s.Valid(), "status %q", s)
	}
	require.False(t, Status("invisible").Valid())
	require.False(t, Status("").Valid())
}

func TestWithStatusKeepsOnlineConsistent(t *testing.T) {
	u := User{Username: "alice"}

	u = u.WithStatus(StatusOnline)
	require.True(t, u.Online)

	u = u.WithStatus(StatusAway)
	require.True(t, u.Online)

	u = u.WithStatus(StatusOffline)
	require.False(t, u.Online)
	require.Equal(t, StatusOffline, u.Status)
}

func TestGroupIDNamespace(t *testing.T) {
	id := NewGroupID()
	require.True(t, IsGroupID(id))
	require.NotEqual(t, id, NewGroupID())

	require.False(t, IsGroupID("alice"))
	require.False(t, IsGroupID(""))
	// A username cannot fake its way into the namespace; ':' is rejected at
	// registration.
	require.True(t, IsGroupID(GroupIDPrefix+"anything"))
}

func TestGroupHasMember(t *testing.T) {
	g := GroupChat{Members: []string{"alice", "bob"}}
	require.True(t, g.HasMember("alice"))
	require.False(t, g.HasMember("carol"))
}

func TestAddReactionIdempotent(t *testing.T) {
	m := Message{From: "alice", To: "bob", Content: "hi", Timestamp: 42}

	m.AddReaction("👍", "bob")
	m.AddReaction("👍", "bob")
	m.AddReaction("👍", "carol")
	m.AddReaction("🎉", "bob")

	require.Len(t, m.Reactions, 2)
	require.Equal(t, "👍", m.Reactions[0].Emoji)
	require.Equal(t, []string{"bob", "carol"}, m.Reactions[0].Users)
	require.Equal(t, "🎉", m.Reactions[1].Emoji)
	require.Equal(t, []string{"bob"}, m.Reactions[1].Users)
}
