// internal/game/state.go
package game

import (
	"github.com/google/uuid"

	"github.com/BriKprojects/card-game-crazy8s/internal/models"
)

// PlayerPublic is the per-player information safe to show any observer:
// identity and hand size, never hand contents.
type PlayerPublic struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	HandSize int       `json:"hand_size"`
}

// GameState is the read-only projection broadcast to every observer.
type GameState struct {
	GameID            uuid.UUID      `json:"game_id"`
	State             LifecycleState `json:"state"`
	CurrentPlayerID   uuid.UUID      `json:"current_player_id"`
	CurrentPlayerName string         `json:"current_player_name,omitempty"`
	TopCard           string         `json:"top_card,omitempty"`
	ActiveSuit        models.Suit    `json:"active_suit,omitempty"`
	DeckSize          int            `json:"deck_size"`
	DiscardPileSize   int            `json:"discard_pile_size"`
	Players           []PlayerPublic `json:"players"`
	WinnerID          uuid.UUID      `json:"winner_id,omitempty"`
	WinnerName        string         `json:"winner_name,omitempty"`
}

// PlayerState is GameState plus the requesting player's own full hand. It
// never includes the opposing hand.
type PlayerState struct {
	GameState
	YourHand []string `json:"your_hand"`
}

// CurrentState builds the public projection. Assumes the caller holds Mu.
func (g *CrazyEights) CurrentState() GameState {
	state := GameState{
		GameID:          g.ID,
		State:           g.State,
		ActiveSuit:      g.ActiveSuit,
		DeckSize:        len(g.Deck),
		DiscardPileSize: len(g.DiscardPile),
		WinnerID:        g.WinnerID,
		WinnerName:      g.WinnerName,
		Players:         make([]PlayerPublic, 0, len(g.Players)),
	}
	if len(g.DiscardPile) > 0 {
		state.TopCard = g.DiscardPile[len(g.DiscardPile)-1].String()
	}
	if g.State != StateFinished && g.CurrentPlayerIndex >= 0 && g.CurrentPlayerIndex < len(g.Players) {
		current := g.Players[g.CurrentPlayerIndex]
		state.CurrentPlayerID = current.ID
		state.CurrentPlayerName = current.Name
	}
	for _, p := range g.Players {
		state.Players = append(state.Players, PlayerPublic{
			ID:       p.ID,
			Name:     p.Name,
			HandSize: len(p.Hand),
		})
	}
	return state
}

// StateForPlayer builds the projection for one slot, including that player's
// own hand. Assumes the caller holds Mu.
func (g *CrazyEights) StateForPlayer(slot int) PlayerState {
	ps := PlayerState{GameState: g.CurrentState()}
	if slot >= 0 && slot < len(g.Players) {
		hand := g.Players[slot].Hand
		ps.YourHand = make([]string, 0, len(hand))
		for _, c := range hand {
			ps.YourHand = append(ps.YourHand, c.String())
		}
	}
	return ps
}
