package realtime

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattkerbyy/bubbly/backend/internal/presence"
)

func queuedClient(h *Hub, id string, userID uint) *Client {
	return &Client{
		id:     id,
		userID: userID,
		hub:    h,
		send:   make(chan []byte, 1024),
		done:   make(chan struct{}),
	}
}

// statusFrames drains c and returns the user-status values seen for userID, in order.
func statusFrames(t *testing.T, c *Client, userID uint) []string {
	t.Helper()
	var out []string
	for {
		select {
		case frame := <-c.send:
			var msg struct {
				Event string          `json:"event"`
				Data  json.RawMessage `json:"data"`
			}
			require.NoError(t, json.Unmarshal(frame, &msg))
			if msg.Event != EventUserStatus {
				continue
			}
			var p UserStatusPayload
			require.NoError(t, json.Unmarshal(msg.Data, &p))
			if p.UserID == userID {
				out = append(out, p.Status)
			}
		default:
			return out
		}
	}
}

func TestPresenceBroadcastsFollowTransitions(t *testing.T) {
	hub := NewHub(presence.NewRegistry(), nil)
	observer := queuedClient(hub, "observer", 2)
	hub.register(observer)

	// The last tab closes while a new one connects, over and over.
	prev := queuedClient(hub, "tab-0", 1)
	hub.register(prev)
	for i := 1; i <= 200; i++ {
		next := queuedClient(hub, fmt.Sprintf("tab-%d", i), 1)
		var wg sync.WaitGroup
		wg.Add(2)
		go func(c *Client) {
			defer wg.Done()
			hub.unregister(c)
		}(prev)
		go func(c *Client) {
			defer wg.Done()
			hub.register(c)
		}(next)
		wg.Wait()
		prev = next
	}

	require.True(t, hub.IsOnline(1))
	statuses := statusFrames(t, observer, 1)
	require.NotEmpty(t, statuses)
	for i, s := range statuses {
		want := StatusOnline
		if i%2 == 1 {
			want = StatusOffline
		}
		require.Equal(t, want, s, "status %d of %v", i, statuses)
	}
	assert.Equal(t, StatusOnline, statuses[len(statuses)-1])

	hub.unregister(prev)
	assert.False(t, hub.IsOnline(1))
	assert.Equal(t, []string{StatusOffline}, statusFrames(t, observer, 1))
}
