package ws

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Gauravprp/localNetChatBygs/internal/model"
)

func TestCreateGroupIncludesCreatorAndDedupes(t *testing.T) {
	h := newTestHub()
	alice := newTestClient(h, "a1")
	bob := newTestClient(h, "b1")
	register(t, h, alice, "alice")
	register(t, h, bob, "bob")
	drainFrames(alice)
	drainFrames(bob)

	group, err := h.CreateGroup(context.Background(), "alice", "team", []string{"bob", "bob", "  ", "alice"})
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(group.ID, model.GroupIDPrefix))
	require.Equal(t, "team", group.Name)
	require.Equal(t, "alice", group.CreatedBy)
	require.ElementsMatch(t, []string{"alice", "bob"}, group.Members)

	// Every connected member receives the groupUpdate, creator included.
	for _, c := range []*Client{alice, bob} {
		f := recvFrame(t, c)
		require.Equal(t, EventGroupUpdate, f.Type)
		var got model.GroupChat
		require.NoError(t, json.Unmarshal(f.Data, &got))
		require.Equal(t, group.ID, got.ID)
	}
}

func TestCreateGroupViaFrame(t *testing.T) {
	h := newTestHub()
	alice := newTestClient(h, "a1")
	register(t, h, alice, "alice")
	drainFrames(alice)

	h.HandleFrame(context.Background(), alice, Frame{Type: EventCreateGroup, Data: mustJSON(t, CreateGroupPayload{
		Name: "lunch", Members: []string{"bob"},
	})})

	f := recvFrame(t, alice)
	require.Equal(t, EventGroupUpdate, f.Type)
	var group model.GroupChat
	require.NoError(t, json.Unmarshal(f.Data, &group))
	require.ElementsMatch(t, []string{"alice", "bob"}, group.Members)

	groups, err := h.dir.ListGroups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 1)
}

func TestCreateGroupRequiresName(t *testing.T) {
	h := newTestHub()
	alice := newTestClient(h, "a1")
	register(t, h, alice, "alice")
	drainFrames(alice)

	h.HandleFrame(context.Background(), alice, Frame{Type: EventCreateGroup, Data: mustJSON(t, CreateGroupPayload{
		Name: "   ",
	})})

	f := recvFrame(t, alice)
	require.Equal(t, EventError, f.Type)
}

func TestAddGroupMemberNotifiesNewSet(t *testing.T) {
	h := newTestHub()
	alice, bob, carol, groupID := groupFixture(t, h)

	dave := newTestClient(h, "d1")
	register(t, h, dave, "dave")
	drainFrames(alice)
	drainFrames(bob)
	drainFrames(carol)
	drainFrames(dave)

	group, err := h.AddGroupMember(context.Background(), groupID, "dave")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"alice", "bob", "carol", "dave"}, group.Members)

	for _, c := range []*Client{alice, bob, carol, dave} {
		f := recvFrame(t, c)
		require.Equal(t, EventGroupUpdate, f.Type)
	}
}

func TestAddGroupMemberIdempotent(t *testing.T) {
	h := newTestHub()
	_, _, _, groupID := groupFixture(t, h)

	group, err := h.AddGroupMember(context.Background(), groupID, "bob")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"alice", "bob", "carol"}, group.Members)
}

func TestRemoveGroupMemberNotifiesRemovedUser(t *testing.T) {
	h := newTestHub()
	alice, bob, carol, groupID := groupFixture(t, h)

	group, err := h.RemoveGroupMember(context.Background(), groupID, "carol")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"alice", "bob"}, group.Members)

	for _, c := range []*Client{alice, bob} {
		f := recvFrame(t, c)
		require.Equal(t, EventGroupUpdate, f.Type)
	}

	// The removed member is told the membership changed.
	f := recvFrame(t, carol)
	require.Equal(t, EventGroupUpdate, f.Type)
	var got model.GroupChat
	require.NoError(t, json.Unmarshal(f.Data, &got))
	require.NotContains(t, got.Members, "carol")
}

func TestAddMemberToUnknownGroup(t *testing.T) {
	h := newTestHub()
	_, err := h.AddGroupMember(context.Background(), model.GroupIDPrefix+"missing", "bob")
	require.Error(t, err)
}
