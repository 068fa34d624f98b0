package models

import (
	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Player is one of the two fixed seats in a game. The slot a player occupies
// is their index in the game's Players slice, stable for the game's duration.
type Player struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Hand []Card    `json:"hand"`

	Connected bool            `json:"connected"`
	Conn      *websocket.Conn `json:"-"`
}

// HandSize returns the number of cards currently held.
func (p *Player) HandSize() int {
	return len(p.Hand)
}
