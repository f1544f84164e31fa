package lobby

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/example/game-lobby-demo/domain/lobby"
)

func TestService_CreateRoom(t *testing.T) {
	s := NewService(0)

	res, err := s.CreateRoom("conn-alice", "Alice", 2)
	require.NoError(t, err)
	require.NotNil(t, res.Room)
	assert.Nil(t, res.Left)

	room := res.Room
	assert.True(t, IsValidRoomID(room.ID))
	assert.Equal(t, "Room "+room.ID, room.Name)
	assert.Equal(t, "conn-alice", room.Host)
	assert.Equal(t, 2, room.MaxPlayers)
	assert.False(t, room.Started)
	assert.False(t, room.CreatedAt.IsZero())

	require.Len(t, room.Players, 1)
	creator := room.Players[0]
	assert.Equal(t, "player_conn-alice", creator.ID)
	assert.Equal(t, "conn-alice", creator.ConnectionID)
	assert.Equal(t, "Alice", creator.Name)
	assert.Equal(t, domain.DefaultHostType, creator.Type)
	assert.Equal(t, domain.DefaultCapital, creator.CapitalType)
	assert.False(t, creator.Ready)
}

func TestService_CreateRoom_DefaultCapacity(t *testing.T) {
	tests := []struct {
		name            string
		serviceDefault  int
		requestCapacity int
		want            int
	}{
		{"explicit capacity", 0, 4, 4},
		{"zero falls back to default", 0, 0, DefaultCapacity},
		{"negative falls back to default", 0, -5, DefaultCapacity},
		{"configured default", 30, 0, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewService(tt.serviceDefault)
			res, err := s.CreateRoom("conn-1", "Alice", tt.requestCapacity)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Room.MaxPlayers)
		})
	}
}

func TestService_CreateRoom_UniqueIDs(t *testing.T) {
	s := NewService(0)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		res, err := s.CreateRoom(fmt.Sprintf("conn-%d", i), "Player", 0)
		require.NoError(t, err)
		assert.False(t, seen[res.Room.ID], "duplicate room id %s among open rooms", res.Room.ID)
		seen[res.Room.ID] = true
	}
}

func TestService_JoinRoom(t *testing.T) {
	s := NewService(0)
	created, err := s.CreateRoom("conn-alice", "Alice", 2)
	require.NoError(t, err)
	roomID := created.Room.ID

	res, err := s.JoinRoom("conn-bob", roomID, "Bob")
	require.NoError(t, err)
	assert.Nil(t, res.Left)

	require.Len(t, res.Room.Players, 2)
	// Join order is preserved; the creator stays first.
	assert.Equal(t, "conn-alice", res.Room.Players[0].ConnectionID)
	assert.Equal(t, "conn-bob", res.Room.Players[1].ConnectionID)
	assert.Equal(t, domain.DefaultJoinerType, res.Player.Type)
	assert.False(t, res.Player.Ready)
}

func TestService_JoinRoom_NotFound(t *testing.T) {
	s := NewService(0)

	_, err := s.JoinRoom("conn-bob", "ZZZZZZ", "Bob")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestService_JoinRoom_Full(t *testing.T) {
	s := NewService(0)
	created, err := s.CreateRoom("conn-alice", "Alice", 2)
	require.NoError(t, err)
	roomID := created.Room.ID

	_, err = s.JoinRoom("conn-bob", roomID, "Bob")
	require.NoError(t, err)

	_, err = s.JoinRoom("conn-carol", roomID, "Carol")
	assert.ErrorIs(t, err, ErrRoomFull)

	// A rejected join mutates nothing.
	room, ok := s.RoomOf("conn-alice")
	require.True(t, ok)
	assert.Len(t, room.Players, 2)
	_, ok = s.RoomOf("conn-carol")
	assert.False(t, ok)
}

func TestService_JoinRoom_AfterStart(t *testing.T) {
	s := NewService(0)
	created, err := s.CreateRoom("conn-alice", "Alice", 4)
	require.NoError(t, err)
	roomID := created.Room.ID

	_, err = s.StartGame("conn-alice", json.RawMessage(`{"turn":1}`))
	require.NoError(t, err)

	_, err = s.JoinRoom("conn-bob", roomID, "Bob")
	assert.ErrorIs(t, err, ErrGameStarted)

	room, ok := s.RoomOf("conn-alice")
	require.True(t, ok)
	assert.Len(t, room.Players, 1)
}

func TestService_JoinRoom_AutoLeavesPreviousRoom(t *testing.T) {
	s := NewService(0)
	first, err := s.CreateRoom("conn-alice", "Alice", 4)
	require.NoError(t, err)
	second, err := s.CreateRoom("conn-bob", "Bob", 4)
	require.NoError(t, err)

	// Alice joins Bob's room while still occupying her own.
	res, err := s.JoinRoom("conn-alice", second.Room.ID, "Alice")
	require.NoError(t, err)

	require.NotNil(t, res.Left)
	assert.Equal(t, first.Room.ID, res.Left.RoomID)
	assert.True(t, res.Left.Deleted, "Alice was alone, her old room must be gone")

	// The registry points at exactly one room and that room holds exactly
	// one player record for the connection.
	room, ok := s.RoomOf("conn-alice")
	require.True(t, ok)
	assert.Equal(t, second.Room.ID, room.ID)
	count := 0
	for _, p := range room.Players {
		if p.ConnectionID == "conn-alice" {
			count++
		}
	}
	assert.Equal(t, 1, count)

	rooms, conns := s.Counts()
	assert.Equal(t, 1, rooms)
	assert.Equal(t, 2, conns)
}

func TestService_JoinRoom_OwnRoomIsNoOp(t *testing.T) {
	s := NewService(0)
	created, err := s.CreateRoom("conn-alice", "Alice", 4)
	require.NoError(t, err)
	roomID := created.Room.ID

	// A solo member re-joining their own room must not tear it down.
	res, err := s.JoinRoom("conn-alice", roomID, "Alice")
	require.NoError(t, err)
	assert.Nil(t, res.Left)
	assert.Equal(t, roomID, res.Room.ID)

	room, ok := s.RoomOf("conn-alice")
	require.True(t, ok, "membership must survive a same-room join")
	assert.Equal(t, roomID, room.ID)
	assert.Len(t, room.Players, 1)

	rooms, conns := s.Counts()
	assert.Equal(t, 1, rooms)
	assert.Equal(t, 1, conns)
}

func TestService_JoinRoom_HostRejoinKeepsHost(t *testing.T) {
	s := NewService(0)
	created, err := s.CreateRoom("conn-alice", "Alice", 4)
	require.NoError(t, err)
	roomID := created.Room.ID
	_, err = s.JoinRoom("conn-bob", roomID, "Bob")
	require.NoError(t, err)

	_, ok := s.ToggleReady("conn-alice")
	require.True(t, ok)

	res, err := s.JoinRoom("conn-alice", roomID, "Alice")
	require.NoError(t, err)
	assert.Nil(t, res.Left)

	// The existing record is confirmed, not replaced: host, role and ready
	// state all stay as they were.
	room, _ := s.RoomOf("conn-alice")
	assert.Equal(t, "conn-alice", room.Host)
	alice := room.PlayerByConn("conn-alice")
	require.NotNil(t, alice)
	assert.Equal(t, domain.DefaultHostType, alice.Type)
	assert.True(t, alice.Ready)
	assert.Len(t, room.Players, 2)
}

func TestService_CreateRoom_IDFailureKeepsOldMembership(t *testing.T) {
	s := NewService(0)
	created, err := s.CreateRoom("conn-alice", "Alice", 4)
	require.NoError(t, err)

	s.newRoomID = func() (string, error) {
		return "", errors.New("entropy exhausted")
	}

	_, err = s.CreateRoom("conn-alice", "Alice", 4)
	require.Error(t, err)

	// The failed create must not have run the auto-leave.
	room, ok := s.RoomOf("conn-alice")
	require.True(t, ok)
	assert.Equal(t, created.Room.ID, room.ID)
	rooms, conns := s.Counts()
	assert.Equal(t, 1, rooms)
	assert.Equal(t, 1, conns)
}

func TestService_ToggleReady(t *testing.T) {
	s := NewService(0)
	created, err := s.CreateRoom("conn-alice", "Alice", 4)
	require.NoError(t, err)
	_, err = s.JoinRoom("conn-bob", created.Room.ID, "Bob")
	require.NoError(t, err)

	// Alice readies up: not everyone is ready yet.
	res, ok := s.ToggleReady("conn-alice")
	require.True(t, ok)
	assert.True(t, res.Room.PlayerByConn("conn-alice").Ready)
	assert.False(t, res.AllReady)

	// Bob readies up: now the all-ready signal fires, exactly once.
	res, ok = s.ToggleReady("conn-bob")
	require.True(t, ok)
	assert.True(t, res.AllReady)

	// Toggling back off withdraws readiness.
	res, ok = s.ToggleReady("conn-bob")
	require.True(t, ok)
	assert.False(t, res.Room.PlayerByConn("conn-bob").Ready)
	assert.False(t, res.AllReady)
}

func TestService_ToggleReady_SoloPlayerNeverAllReady(t *testing.T) {
	s := NewService(0)
	_, err := s.CreateRoom("conn-alice", "Alice", 4)
	require.NoError(t, err)

	res, ok := s.ToggleReady("conn-alice")
	require.True(t, ok)
	assert.True(t, res.Room.Players[0].Ready)
	assert.False(t, res.AllReady, "a single ready player must not trigger all-players-ready")
}

func TestService_ToggleReady_NoRoom(t *testing.T) {
	s := NewService(0)

	_, ok := s.ToggleReady("conn-ghost")
	assert.False(t, ok)
}

func TestService_SelectPlayerType(t *testing.T) {
	s := NewService(0)
	_, err := s.CreateRoom("conn-alice", "Alice", 4)
	require.NoError(t, err)

	room, ok := s.SelectPlayerType("conn-alice", "BANK", "FOREIGN")
	require.True(t, ok)
	player := room.PlayerByConn("conn-alice")
	assert.Equal(t, "BANK", player.Type)
	assert.Equal(t, "FOREIGN", player.CapitalType)

	_, ok = s.SelectPlayerType("conn-ghost", "BANK", "FOREIGN")
	assert.False(t, ok)
}

func TestService_StartGame(t *testing.T) {
	s := NewService(0)
	created, err := s.CreateRoom("conn-alice", "Alice", 4)
	require.NoError(t, err)
	_, err = s.JoinRoom("conn-bob", created.Room.ID, "Bob")
	require.NoError(t, err)

	state := json.RawMessage(`{"round":1,"capital":1000}`)

	// Bob is not the host.
	_, err = s.StartGame("conn-bob", state)
	assert.ErrorIs(t, err, ErrNotHost)
	room, _ := s.RoomOf("conn-bob")
	assert.False(t, room.Started)

	// Alice starts; the payload is stored verbatim.
	room, err = s.StartGame("conn-alice", state)
	require.NoError(t, err)
	require.NotNil(t, room)
	assert.True(t, room.Started)
	assert.JSONEq(t, string(state), string(room.GameState))
}

func TestService_StartGame_Idempotent(t *testing.T) {
	s := NewService(0)
	_, err := s.CreateRoom("conn-alice", "Alice", 4)
	require.NoError(t, err)

	room, err := s.StartGame("conn-alice", json.RawMessage(`{"round":1}`))
	require.NoError(t, err)
	require.NotNil(t, room)

	// A queued duplicate start (host double-click) is a silent no-op: no
	// error, nothing to broadcast, state untouched.
	again, err := s.StartGame("conn-alice", json.RawMessage(`{"round":99}`))
	require.NoError(t, err)
	assert.Nil(t, again)

	current, _ := s.RoomOf("conn-alice")
	assert.JSONEq(t, `{"round":1}`, string(current.GameState))
}

func TestService_StartGame_NoRoom(t *testing.T) {
	s := NewService(0)

	room, err := s.StartGame("conn-ghost", nil)
	assert.NoError(t, err)
	assert.Nil(t, room)
}

func TestService_UpdateGameState(t *testing.T) {
	s := NewService(0)
	_, err := s.CreateRoom("conn-alice", "Alice", 4)
	require.NoError(t, err)

	room, ok := s.UpdateGameState("conn-alice", json.RawMessage(`{"round":2}`))
	require.True(t, ok)
	assert.JSONEq(t, `{"round":2}`, string(room.GameState))

	_, ok = s.UpdateGameState("conn-ghost", json.RawMessage(`{}`))
	assert.False(t, ok)
}

func TestService_Leave_HostTransfer(t *testing.T) {
	s := NewService(0)
	created, err := s.CreateRoom("conn-alice", "Alice", 4)
	require.NoError(t, err)
	_, err = s.JoinRoom("conn-bob", created.Room.ID, "Bob")
	require.NoError(t, err)
	_, err = s.JoinRoom("conn-carol", created.Room.ID, "Carol")
	require.NoError(t, err)

	res, ok := s.Leave("conn-alice")
	require.True(t, ok)
	assert.False(t, res.Deleted)
	// Succession by join order: Bob was the first remaining member.
	assert.Equal(t, "conn-bob", res.NewHost)
	assert.Equal(t, "conn-bob", res.Room.Host)
	require.Len(t, res.Room.Players, 2)
	assert.NotNil(t, res.Room.PlayerByConn(res.Room.Host), "host must always be a member")

	// A non-host departure transfers nothing.
	res, ok = s.Leave("conn-carol")
	require.True(t, ok)
	assert.Empty(t, res.NewHost)
	assert.Equal(t, "conn-bob", res.Room.Host)
}

func TestService_Leave_LastPlayerDeletesRoom(t *testing.T) {
	s := NewService(0)
	created, err := s.CreateRoom("conn-alice", "Alice", 2)
	require.NoError(t, err)
	_, err = s.JoinRoom("conn-bob", created.Room.ID, "Bob")
	require.NoError(t, err)

	_, ok := s.Leave("conn-alice")
	require.True(t, ok)

	res, ok := s.Leave("conn-bob")
	require.True(t, ok)
	assert.True(t, res.Deleted)
	assert.Nil(t, res.Room)

	// The room is gone the instant it emptied: no store entry, no listing.
	rooms, conns := s.Counts()
	assert.Equal(t, 0, rooms)
	assert.Equal(t, 0, conns)
	assert.Empty(t, s.OpenRooms())
}

func TestService_Leave_Idempotent(t *testing.T) {
	s := NewService(0)
	_, err := s.CreateRoom("conn-alice", "Alice", 2)
	require.NoError(t, err)

	_, ok := s.Leave("conn-alice")
	require.True(t, ok)

	// Explicit leave followed by the disconnect path: the second call is a
	// no-op, not an error.
	_, ok = s.Leave("conn-alice")
	assert.False(t, ok)
}

func TestService_OpenRooms_ExcludesStarted(t *testing.T) {
	s := NewService(0)
	first, err := s.CreateRoom("conn-alice", "Alice", 4)
	require.NoError(t, err)
	second, err := s.CreateRoom("conn-bob", "Bob", 4)
	require.NoError(t, err)

	require.Len(t, s.OpenRooms(), 2)

	_, err = s.StartGame("conn-alice", json.RawMessage(`{}`))
	require.NoError(t, err)

	open := s.OpenRooms()
	require.Len(t, open, 1)
	assert.Equal(t, second.Room.ID, open[0].ID)

	// Started rooms stay in the store (the match is live), just not listed.
	rooms, _ := s.Counts()
	assert.Equal(t, 2, rooms)
	_ = first
}

func TestService_RoomOf(t *testing.T) {
	s := NewService(0)
	created, err := s.CreateRoom("conn-alice", "Alice", 4)
	require.NoError(t, err)

	room, ok := s.RoomOf("conn-alice")
	require.True(t, ok)
	assert.Equal(t, created.Room.ID, room.ID)

	_, ok = s.RoomOf("conn-ghost")
	assert.False(t, ok)
}

func TestService_SnapshotsAreDetached(t *testing.T) {
	s := NewService(0)
	created, err := s.CreateRoom("conn-alice", "Alice", 4)
	require.NoError(t, err)

	// Mutating a returned snapshot must not leak into the store.
	created.Room.Players[0].Name = "Mallory"

	room, _ := s.RoomOf("conn-alice")
	assert.Equal(t, "Alice", room.Players[0].Name)
}
