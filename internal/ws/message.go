package ws

import (
	"encoding/json"

	"github.com/Gauravprp/localNetChatBygs/internal/model"
)

type EventType string

const (
	EventRegister     EventType = "register"
	EventSetStatus    EventType = "setStatus"
	EventUsers        EventType = "users"
	EventChatRequest  EventType = "chatRequest"
	EventChatResponse EventType = "chatResponse"
	EventMessage      EventType = "message"
	EventReaction     EventType = "reaction"
	EventCreateGroup  EventType = "createGroup"
	EventGroupUpdate  EventType = "groupUpdate"
	EventFile         EventType = "file"
	EventError        EventType = "error"
)

// Frame is one typed JSON message on the wire. Data is decoded per type.
type Frame struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// RegisterPayload names a connection. Must be the first frame a client sends.
type RegisterPayload struct {
	Username string `json:"username"`
}

// SetStatusPayload changes the sender's presence status.
type SetStatusPayload struct {
	Status model.Status `json:"status"`
}

// ChatRequestPayload asks the target whether a 1:1 conversation may start.
type ChatRequestPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ChatResponsePayload answers a chat request. To is consumed for routing.
type ChatResponsePayload struct {
	From     string `json:"from"`
	To       string `json:"to,omitempty"`
	Accepted bool   `json:"accepted"`
}

// ChatResponseEvent is what the requester receives: the To field is dropped.
type ChatResponseEvent struct {
	From     string `json:"from"`
	Accepted bool   `json:"accepted"`
}

// ReactionPayload applies an emoji to a previously sent message, identified
// by its timestamp within the conversation.
type ReactionPayload struct {
	MessageTimestamp int64  `json:"messageTimestamp"`
	From             string `json:"from"`
	To               string `json:"to"`
	Emoji            string `json:"emoji"`
}

// ReactionEvent is the relayed shape; recipients merge it into their own
// view of the message (idempotently, including the sender's client).
type ReactionEvent struct {
	MessageTimestamp int64  `json:"messageTimestamp"`
	From             string `json:"from"`
	Emoji            string `json:"emoji"`
}

// CreateGroupPayload creates a group chat; the sender becomes a member.
type CreateGroupPayload struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// FilePayload carries a file as an inline-encoded payload. Type may be empty,
// in which case the MIME type is sniffed server-side.
type FilePayload struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Data    string `json:"data"`
	To      string `json:"to"`
	IsGroup bool   `json:"isGroup"`
}

// ErrorPayload is sent back for frames the server refuses outright (e.g. a
// rejected registration). Routing failures are never surfaced.
type ErrorPayload struct {
	Error string `json:"error"`
}
