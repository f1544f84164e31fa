package lobby

import (
	"encoding/json"
	"time"
)

// Player type and capital type defaults assigned on join. The server never
// validates combinations; clients change them freely until the game starts.
const (
	DefaultHostType   = "GOVERNMENT"
	DefaultJoinerType = "BANK"
	DefaultCapital    = "DOMESTIC"
)

// Player is a participant's identity within a room. The ID is stable for the
// lifetime of the membership and distinct from the transport connection id.
type Player struct {
	ID           string `json:"id"`
	ConnectionID string `json:"connection_id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	CapitalType  string `json:"capital_type"`
	Ready        bool   `json:"ready"`
}

// Room is a bounded multiplayer session container. Players are kept in join
// order; the first remaining player is the host-succession candidate.
type Room struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Host       string          `json:"host"` // connection id of the current host
	Players    []Player        `json:"players"`
	MaxPlayers int             `json:"max_players"`
	Started    bool            `json:"started"`
	GameState  json.RawMessage `json:"game_state,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// PlayerByConn returns a pointer into Players for the given connection id.
func (r *Room) PlayerByConn(connID string) *Player {
	for i := range r.Players {
		if r.Players[i].ConnectionID == connID {
			return &r.Players[i]
		}
	}
	return nil
}

// RemovePlayer removes the player with the given connection id, preserving
// join order, and returns the removed player.
func (r *Room) RemovePlayer(connID string) (Player, bool) {
	for i := range r.Players {
		if r.Players[i].ConnectionID == connID {
			p := r.Players[i]
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			return p, true
		}
	}
	return Player{}, false
}

// ConnectionIDs returns the connection ids of every player in join order.
func (r *Room) ConnectionIDs() []string {
	ids := make([]string, 0, len(r.Players))
	for _, p := range r.Players {
		ids = append(ids, p.ConnectionID)
	}
	return ids
}

// ConnectionIDsExcept returns every player's connection id except the given
// one. Used for state-update propagation so the originator does not
// double-apply a change it already applied locally.
func (r *Room) ConnectionIDsExcept(connID string) []string {
	ids := make([]string, 0, len(r.Players))
	for _, p := range r.Players {
		if p.ConnectionID != connID {
			ids = append(ids, p.ConnectionID)
		}
	}
	return ids
}

// AllReady reports whether every player has toggled ready.
func (r *Room) AllReady() bool {
	for _, p := range r.Players {
		if !p.Ready {
			return false
		}
	}
	return true
}

// Full reports whether the room is at capacity.
func (r *Room) Full() bool {
	return len(r.Players) >= r.MaxPlayers
}

// Snapshot returns a copy of the room safe to hand outside the service lock.
func (r *Room) Snapshot() *Room {
	c := *r
	c.Players = make([]Player, len(r.Players))
	copy(c.Players, r.Players)
	return &c
}
