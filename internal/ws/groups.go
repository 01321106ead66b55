package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/Gauravprp/localNetChatBygs/internal/logger"
	"github.com/Gauravprp/localNetChatBygs/internal/model"
)

func (h *Hub) handleCreateGroup(ctx context.Context, c *Client, frame Frame) {
	var p CreateGroupPayload
	if err := json.Unmarshal(frame.Data, &p); err != nil {
		logger.Errorf("ws createGroup payload user=%s: %v", c.Name(), err)
		return
	}
	if strings.TrimSpace(p.Name) == "" {
		h.sendError(c, "group name required")
		return
	}
	if _, err := h.CreateGroup(ctx, c.Name(), p.Name, p.Members); err != nil {
		logger.Errorf("ws create group by=%s: %v", c.Name(), err)
		h.sendError(c, "failed to create group")
	}
}

// CreateGroup stores a new group (members always include the creator, each
// name at most once) and pushes a groupUpdate to every connected member. The
// id lives in the group namespace, disjoint from usernames.
func (h *Hub) CreateGroup(ctx context.Context, creator, name string, members []string) (*model.GroupChat, error) {
	defer logger.DeferLogDuration("ws.CreateGroup", time.Now())()
	all := lo.Uniq(lo.Filter(append(members, creator), func(m string, _ int) bool {
		return strings.TrimSpace(m) != ""
	}))
	group := &model.GroupChat{
		ID:        model.NewGroupID(),
		Name:      name,
		Members:   all,
		CreatedBy: creator,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.dir.CreateGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	h.notifyGroupUpdate(group)
	return group, nil
}

// AddGroupMember adds username to the group (a no-op if already a member)
// and notifies the resulting member set. Presence is not rebroadcast.
func (h *Hub) AddGroupMember(ctx context.Context, groupID, username string) (*model.GroupChat, error) {
	if err := h.dir.AddMember(ctx, groupID, username); err != nil {
		return nil, err
	}
	group, err := h.dir.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	h.notifyGroupUpdate(group)
	return group, nil
}

// RemoveGroupMember removes username from the group (a no-op if absent) and
// notifies the remaining members plus the removed user.
func (h *Hub) RemoveGroupMember(ctx context.Context, groupID, username string) (*model.GroupChat, error) {
	if err := h.dir.RemoveMember(ctx, groupID, username); err != nil {
		return nil, err
	}
	group, err := h.dir.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	h.notifyGroupUpdate(group)
	h.notifyGroupUpdateTo(username, group)
	return group, nil
}

// notifyGroupUpdate pushes the full group record to every connected member,
// one serialization for the whole fan-out.
func (h *Hub) notifyGroupUpdate(group *model.GroupChat) {
	frame, err := encodeFrame(EventGroupUpdate, group)
	if err != nil {
		logger.Errorf("ws groupUpdate encode: %v", err)
		return
	}
	for _, member := range group.Members {
		h.sendToUser(member, frame)
	}
}

func (h *Hub) notifyGroupUpdateTo(username string, group *model.GroupChat) {
	frame, err := encodeFrame(EventGroupUpdate, group)
	if err != nil {
		return
	}
	h.sendToUser(username, frame)
}
