package broadcast

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()
	assert.Equal(t, 0, hub.ClientCount())

	hub.Register(&Client{ID: "conn-1"})
	hub.Register(&Client{ID: "conn-2"})
	assert.Equal(t, 2, hub.ClientCount())

	// Re-registering the same id replaces, never duplicates.
	hub.Register(&Client{ID: "conn-1"})
	assert.Equal(t, 2, hub.ClientCount())

	hub.Unregister("conn-1")
	assert.Equal(t, 1, hub.ClientCount())

	// Unregistering an unknown id is a no-op.
	hub.Unregister("conn-ghost")
	assert.Equal(t, 1, hub.ClientCount())
}

func TestHub_SendToUnknownClient(t *testing.T) {
	hub := NewHub()

	// Nothing registered: all delivery paths must be silent no-ops.
	hub.Send("conn-ghost", "room-created", map[string]string{"room_id": "AB12CD"})
	hub.SendError("conn-ghost", "room not found")
	hub.Broadcast([]string{"conn-ghost", "conn-other"}, "room-updated", nil)
	hub.BroadcastAll("rooms-updated", []string{})
}

func TestHub_Encode(t *testing.T) {
	hub := NewHub()

	data, ok := hub.encode("game-started", map[string]int{"round": 1})
	require.True(t, ok)

	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, "game-started", env.Type)
	assert.JSONEq(t, `{"round":1}`, string(env.Payload))
	assert.Empty(t, env.Error)
}

func TestHub_Encode_UnmarshalablePayload(t *testing.T) {
	hub := NewHub()

	_, ok := hub.encode("bad", make(chan int))
	assert.False(t, ok)
}

func TestEnvelope_ErrorShape(t *testing.T) {
	data, err := json.Marshal(Envelope{Type: "error", Error: "room is full"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"error","error":"room is full"}`, string(data))
}
