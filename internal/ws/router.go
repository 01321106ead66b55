package ws

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/Gauravprp/localNetChatBygs/internal/directory"
	"github.com/Gauravprp/localNetChatBygs/internal/logger"
	"github.com/Gauravprp/localNetChatBygs/internal/model"
)

// Delivery is best-effort throughout: an unknown recipient, a missing group,
// or a channel that closed between lookup and write is a silent drop. The
// sender is never told — no delivery-receipt contract exists.

func (h *Hub) handleMessage(ctx context.Context, c *Client, frame Frame) {
	var msg model.Message
	if err := json.Unmarshal(frame.Data, &msg); err != nil {
		logger.Errorf("ws message payload user=%s: %v", c.Name(), err)
		return
	}
	if msg.To == "" {
		return
	}
	if msg.IsGroupMessage || model.IsGroupID(msg.To) {
		h.routeGroup(ctx, &msg)
		return
	}
	h.routeDirect(&msg)
}

// routeDirect delivers the message as-is to the single recipient.
func (h *Hub) routeDirect(msg *model.Message) {
	frame, err := encodeFrame(EventMessage, msg)
	if err != nil {
		logger.Errorf("ws route direct encode: %v", err)
		return
	}
	h.sendToUser(msg.To, frame)
}

// routeGroup fans the message out to every group member except the sender.
// The sender's own copy lives client-side; a group message is never echoed
// back to its author even though the author is a member.
func (h *Hub) routeGroup(ctx context.Context, msg *model.Message) {
	defer logger.DeferLogDuration("ws.routeGroup", time.Now())()
	group, err := h.dir.GetGroup(ctx, msg.To)
	if err != nil {
		if !errors.Is(err, directory.ErrNotFound) {
			logger.Errorf("ws route group %s: %v", msg.To, err)
		}
		return
	}
	msg.IsGroupMessage = true
	frame, err := encodeFrame(EventMessage, msg)
	if err != nil {
		logger.Errorf("ws route group encode: %v", err)
		return
	}
	for _, member := range group.Members {
		if member == msg.From {
			continue
		}
		h.sendToUser(member, frame)
	}
}

func (h *Hub) handleReaction(ctx context.Context, c *Client, frame Frame) {
	var p ReactionPayload
	if err := json.Unmarshal(frame.Data, &p); err != nil {
		logger.Errorf("ws reaction payload user=%s: %v", c.Name(), err)
		return
	}
	if p.To == "" || p.Emoji == "" {
		return
	}
	h.routeReaction(ctx, p)
}

// routeReaction forwards the reaction-applied event to the recipient set.
// The hub does not merge reaction state: each recipient applies the
// (timestamp, emoji, user) triple idempotently to its own view.
func (h *Hub) routeReaction(ctx context.Context, p ReactionPayload) {
	frame, err := encodeFrame(EventReaction, ReactionEvent{
		MessageTimestamp: p.MessageTimestamp,
		From:             p.From,
		Emoji:            p.Emoji,
	})
	if err != nil {
		logger.Errorf("ws route reaction encode: %v", err)
		return
	}
	if !model.IsGroupID(p.To) {
		h.sendToUser(p.To, frame)
		return
	}
	group, err := h.dir.GetGroup(ctx, p.To)
	if err != nil {
		if !errors.Is(err, directory.ErrNotFound) {
			logger.Errorf("ws route reaction group %s: %v", p.To, err)
		}
		return
	}
	for _, member := range group.Members {
		if member == p.From {
			continue
		}
		h.sendToUser(member, frame)
	}
}

func (h *Hub) handleFile(ctx context.Context, c *Client, frame Frame) {
	var p FilePayload
	if err := json.Unmarshal(frame.Data, &p); err != nil {
		logger.Errorf("ws file payload user=%s: %v", c.Name(), err)
		return
	}
	if p.Name == "" || p.To == "" {
		return
	}
	h.routeFile(ctx, c.Name(), p)
}

// routeFile wraps the file in a synthesized message with a single attachment
// and delegates to the direct or group route.
func (h *Hub) routeFile(ctx context.Context, from string, p FilePayload) {
	mime := p.Type
	if mime == "" {
		mime = sniffMime(p.Data)
	}
	msg := &model.Message{
		From:      from,
		To:        p.To,
		Content:   "Sent file: " + p.Name,
		Timestamp: time.Now().UnixMilli(),
		Attachments: []model.Attachment{
			{Name: p.Name, URL: p.Data, MimeType: mime},
		},
	}
	if p.IsGroup || model.IsGroupID(p.To) {
		h.routeGroup(ctx, msg)
		return
	}
	h.routeDirect(msg)
}

// sniffMime determines the MIME type of an inline-encoded payload: the
// data-URL header wins, otherwise the decoded bytes are sniffed.
func sniffMime(data string) string {
	if rest, ok := strings.CutPrefix(data, "data:"); ok {
		if mime, _, found := strings.Cut(rest, ";"); found && mime != "" {
			return mime
		}
	}
	raw := data
	if idx := strings.Index(raw, "base64,"); idx >= 0 {
		raw = raw[idx+len("base64,"):]
	}
	// Sniffing needs only the payload head.
	if len(raw) > 1024 {
		raw = raw[:1024]
	}
	decoded, err := base64.StdEncoding.WithPadding(base64.NoPadding).DecodeString(strings.TrimRight(raw, "="))
	if err != nil || len(decoded) == 0 {
		return "application/octet-stream"
	}
	return mimetype.Detect(decoded).String()
}
