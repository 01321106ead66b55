package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// GroupIDPrefix namespaces group ids apart from usernames, so a message's
// `to` field resolves unambiguously. Usernames may not contain ':'.
const GroupIDPrefix = "group:"

// NewGroupID generates an id in the group namespace.
func NewGroupID() string {
	return GroupIDPrefix + uuid.New().String()
}

// IsGroupID reports whether the recipient id addresses a group.
func IsGroupID(id string) bool {
	return strings.HasPrefix(id, GroupIDPrefix)
}

// GroupChat is a named set of members. Groups are created once and never
// deleted; membership is mutated through the directory.
type GroupChat struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Members   []string  `json:"members"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasMember reports whether username is in the group.
func (g *GroupChat) HasMember(username string) bool {
	for _, m := range g.Members {
		if m == username {
			return true
		}
	}
	return false
}
