package ws

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Gauravprp/localNetChatBygs/internal/directory/memory"
	"github.com/Gauravprp/localNetChatBygs/internal/model"
)

// Test clients are built without a network connection; the pumps are never
// started and frames are read straight off the send queue.

func newTestHub() *Hub {
	return NewHub(memory.New(), Settings{SendBufSize: 64})
}

func newTestClient(h *Hub, addr string) *Client {
	return NewClient(h, nil, addr)
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func register(t *testing.T, h *Hub, c *Client, name string) {
	t.Helper()
	h.HandleFrame(context.Background(), c, Frame{Type: EventRegister, Data: mustJSON(t, RegisterPayload{Username: name})})
	require.Equal(t, name, c.Name())
}

// recvFrame pops the next queued frame, failing if none is queued.
func recvFrame(t *testing.T, c *Client) Frame {
	t.Helper()
	select {
	case raw := <-c.send:
		var f Frame
		require.NoError(t, json.Unmarshal(raw, &f))
		return f
	default:
		t.Fatalf("no frame queued for %s", c.addr)
		return Frame{}
	}
}

// recvRaw pops the next queued frame without decoding it.
func recvRaw(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case raw := <-c.send:
		return raw
	default:
		t.Fatalf("no frame queued for %s", c.addr)
		return nil
	}
}

func requireNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.send:
		t.Fatalf("unexpected frame for %s: %s", c.addr, raw)
	default:
	}
}

func drainFrames(c *Client) {
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}

func decodeUsers(t *testing.T, f Frame) map[string]model.User {
	t.Helper()
	require.Equal(t, EventUsers, f.Type)
	var users []model.User
	require.NoError(t, json.Unmarshal(f.Data, &users))
	byName := make(map[string]model.User, len(users))
	for _, u := range users {
		byName[u.Username] = u
	}
	return byName
}

// lastUsersFrame drains the queue and returns the final users frame seen.
func lastUsersFrame(t *testing.T, c *Client) map[string]model.User {
	t.Helper()
	var last *Frame
	for {
		select {
		case raw := <-c.send:
			var f Frame
			require.NoError(t, json.Unmarshal(raw, &f))
			if f.Type == EventUsers {
				last = &f
			}
		default:
			require.NotNil(t, last, "no users frame queued for %s", c.addr)
			return decodeUsers(t, *last)
		}
	}
}

func isClosed(c *Client) bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
