package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// queuedClient builds a client whose pumps never run, so frames pile up in
// the send queue where the test can inspect them.
func queuedClient(id string, userType UserType) *Client {
	sess := &Session{UserType: userType, GroupKey: "chat_testroom"}
	return newClient(id, sess, nil, nil, nil)
}

func drain(c *Client) [][]byte {
	var frames [][]byte
	for {
		select {
		case frame := <-c.Send:
			frames = append(frames, frame.data)
		default:
			return frames
		}
	}
}

func TestHub_JoinLeave(t *testing.T) {
	hub := NewHub()
	client := queuedClient("c1", GuestUser)

	hub.Join("chat_testroom", client)
	assert.Equal(t, 1, hub.GroupSize("chat_testroom"))

	hub.Leave("chat_testroom", client)
	assert.Equal(t, 0, hub.GroupSize("chat_testroom"))
}

func TestHub_BroadcastToAll(t *testing.T) {
	hub := NewHub()
	guest := queuedClient("guest", GuestUser)
	host := queuedClient("host", HostUser)
	hub.Join("chat_testroom", guest)
	hub.Join("chat_testroom", host)

	hub.Broadcast("chat_testroom", []byte(`{"type":"chat_message"}`), ToAll)

	assert.Len(t, drain(guest), 1)
	assert.Len(t, drain(host), 1)
}

func TestHub_BroadcastAudienceFiltering(t *testing.T) {
	hub := NewHub()
	guest := queuedClient("guest", GuestUser)
	host := queuedClient("host", HostUser)
	hub.Join("chat_testroom", guest)
	hub.Join("chat_testroom", host)

	hub.Broadcast("chat_testroom", []byte(`to-host`), ToHost)
	assert.Empty(t, drain(guest), "guest must never see host-only frames")
	require.Len(t, drain(host), 1)

	hub.Broadcast("chat_testroom", []byte(`to-guest`), ToGuest)
	require.Len(t, drain(guest), 1)
	assert.Empty(t, drain(host), "host must not receive guest-only frames")
}

func TestHub_BroadcastUnknownKeyIsNoop(t *testing.T) {
	hub := NewHub()
	// Nothing joined under this key; must neither panic nor block.
	hub.Broadcast("chat_nobody", []byte(`x`), ToAll)
}

func TestHub_SlowConsumerDropsFrame(t *testing.T) {
	hub := NewHub()
	client := queuedClient("slow", GuestUser)
	hub.Join("chat_testroom", client)

	for i := 0; i < cap(client.Send)+10; i++ {
		hub.Broadcast("chat_testroom", []byte(`frame`), ToAll)
	}

	assert.Len(t, drain(client), cap(client.Send), "overflow frames are dropped, not queued unboundedly")
}
