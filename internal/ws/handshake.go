package ws

import (
	"encoding/json"

	"github.com/Gauravprp/localNetChatBygs/internal/logger"
)

// The chat-request handshake is a stateless relay. The hub never records a
// pending request and never checks that a response matches one; pairing is a
// client-side responsibility. A request to an offline target is dropped and
// the requester is not told — the same best-effort contract as messages.

func (h *Hub) handleChatRequest(c *Client, frame Frame) {
	var p ChatRequestPayload
	if err := json.Unmarshal(frame.Data, &p); err != nil {
		logger.Errorf("ws chatRequest payload user=%s: %v", c.Name(), err)
		return
	}
	if p.To == "" {
		return
	}
	out, err := encodeFrame(EventChatRequest, p)
	if err != nil {
		logger.Errorf("ws chatRequest encode: %v", err)
		return
	}
	h.sendToUser(p.To, out)
}

func (h *Hub) handleChatResponse(c *Client, frame Frame) {
	var p ChatResponsePayload
	if err := json.Unmarshal(frame.Data, &p); err != nil {
		logger.Errorf("ws chatResponse payload user=%s: %v", c.Name(), err)
		return
	}
	if p.To == "" {
		return
	}
	// The To field routes; only {from, accepted} is forwarded.
	out, err := encodeFrame(EventChatResponse, ChatResponseEvent{From: p.From, Accepted: p.Accepted})
	if err != nil {
		logger.Errorf("ws chatResponse encode: %v", err)
		return
	}
	h.sendToUser(p.To, out)
}
