package lobby

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/example/game-lobby-demo/domain/lobby"
)

func TestRoomStore(t *testing.T) {
	store := NewRoomStore()
	assert.Equal(t, 0, store.Len())

	room := &domain.Room{ID: "AB12CD", Name: "Room AB12CD", Host: "conn-1"}
	store.Set(room)

	got, ok := store.Get("AB12CD")
	require.True(t, ok)
	assert.Equal(t, room, got)
	assert.Equal(t, 1, store.Len())

	_, ok = store.Get("ZZZZZZ")
	assert.False(t, ok)

	store.Delete("AB12CD")
	_, ok = store.Get("AB12CD")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestRoomStore_Values(t *testing.T) {
	store := NewRoomStore()
	store.Set(&domain.Room{ID: "ROOM01"})
	store.Set(&domain.Room{ID: "ROOM02"})
	store.Set(&domain.Room{ID: "ROOM03"})

	values := store.Values()
	require.Len(t, values, 3)

	ids := make(map[string]bool)
	for _, r := range values {
		ids[r.ID] = true
	}
	assert.True(t, ids["ROOM01"] && ids["ROOM02"] && ids["ROOM03"])
}

func TestConnectionRegistry(t *testing.T) {
	reg := NewConnectionRegistry()
	assert.Equal(t, 0, reg.Len())

	reg.Set("conn-1", "AB12CD")

	roomID, ok := reg.Get("conn-1")
	require.True(t, ok)
	assert.Equal(t, "AB12CD", roomID)

	// Re-pointing a connection overwrites, never duplicates.
	reg.Set("conn-1", "EF34GH")
	roomID, _ = reg.Get("conn-1")
	assert.Equal(t, "EF34GH", roomID)
	assert.Equal(t, 1, reg.Len())

	reg.Delete("conn-1")
	_, ok = reg.Get("conn-1")
	assert.False(t, ok)
	assert.Equal(t, 0, reg.Len())
}
