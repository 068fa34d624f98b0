// internal/game/snapshot.go
package game

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/BriKprojects/card-game-crazy8s/internal/models"
)

// snapshotPlayer is one seat in a persisted snapshot. Hands are enumerated
// fully; their order carries no meaning.
type snapshotPlayer struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Hand []string  `json:"hand"`
}

// Snapshot is the persistence format for a game instance. Cards are encoded
// as symbolic "<rank>:<suit>" tokens so the format stays stable across
// versions; deck and discard order are preserved exactly, which makes
// Deserialize(Serialize(g)) behaviorally indistinguishable from g.
type Snapshot struct {
	Deck             []string         `json:"deck"`
	DiscardPile      []string         `json:"discard_pile"`
	Players          []snapshotPlayer `json:"players"`
	CurrentPlayerIdx int              `json:"current_player_idx"`
	State            LifecycleState   `json:"state"`
	ActiveSuit       models.Suit      `json:"active_suit,omitempty"`
	WinnerID         string           `json:"winner_id,omitempty"`
	WinnerName       string           `json:"winner_name,omitempty"`
	DrawsThisTurn    int              `json:"draws_this_turn"`
	PassesInRow      int              `json:"passes_in_row"`
}

func encodeCards(cards []models.Card) []string {
	tokens := make([]string, len(cards))
	for i, c := range cards {
		tokens[i] = c.Token()
	}
	return tokens
}

func decodeCards(tokens []string) ([]models.Card, error) {
	cards := make([]models.Card, len(tokens))
	for i, tok := range tokens {
		card, err := models.ParseCard(tok)
		if err != nil {
			return nil, fmt.Errorf("card %d: %w", i, err)
		}
		cards[i] = card
	}
	return cards, nil
}

// Serialize produces the JSON snapshot of the full engine state. Assumes the
// caller holds Mu.
func (g *CrazyEights) Serialize() ([]byte, error) {
	snap := Snapshot{
		Deck:             encodeCards(g.Deck),
		DiscardPile:      encodeCards(g.DiscardPile),
		Players:          make([]snapshotPlayer, 0, len(g.Players)),
		CurrentPlayerIdx: g.CurrentPlayerIndex,
		State:            g.State,
		ActiveSuit:       g.ActiveSuit,
		WinnerName:       g.WinnerName,
		DrawsThisTurn:    g.DrawsThisTurn,
		PassesInRow:      g.PassesInRow,
	}
	if g.WinnerID != uuid.Nil {
		snap.WinnerID = g.WinnerID.String()
	}
	for _, p := range g.Players {
		snap.Players = append(snap.Players, snapshotPlayer{
			ID:   p.ID,
			Name: p.Name,
			Hand: encodeCards(p.Hand),
		})
	}
	return json.Marshal(snap)
}

// Deserialize reconstructs a game from a snapshot blob under the given game
// id. A malformed blob returns an error and no game; callers degrade to a
// fresh instance rather than failing the whole load.
func Deserialize(id uuid.UUID, data []byte) (*CrazyEights, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	g := NewCrazyEights()
	g.ID = id

	var err error
	if g.Deck, err = decodeCards(snap.Deck); err != nil {
		return nil, fmt.Errorf("deck: %w", err)
	}
	if g.DiscardPile, err = decodeCards(snap.DiscardPile); err != nil {
		return nil, fmt.Errorf("discard pile: %w", err)
	}
	if len(snap.Players) > MaxPlayers {
		return nil, fmt.Errorf("snapshot has %d players, max is %d", len(snap.Players), MaxPlayers)
	}
	for i, sp := range snap.Players {
		hand, err := decodeCards(sp.Hand)
		if err != nil {
			return nil, fmt.Errorf("player %d hand: %w", i, err)
		}
		g.Players = append(g.Players, &models.Player{
			ID:   sp.ID,
			Name: sp.Name,
			Hand: hand,
		})
	}

	// The cursor indexes Players everywhere downstream; an out-of-range value
	// must fail the load, not surface later as a panic.
	if snap.CurrentPlayerIdx < 0 || (snap.CurrentPlayerIdx > 0 && snap.CurrentPlayerIdx >= len(snap.Players)) {
		return nil, fmt.Errorf("turn cursor %d out of range for %d player(s)", snap.CurrentPlayerIdx, len(snap.Players))
	}
	g.CurrentPlayerIndex = snap.CurrentPlayerIdx
	switch snap.State {
	case StateWaiting, StateReady, StateActive, StateFinished:
		g.State = snap.State
	default:
		return nil, fmt.Errorf("unknown lifecycle state %q", snap.State)
	}
	if snap.ActiveSuit != "" && !snap.ActiveSuit.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidSuit, snap.ActiveSuit)
	}
	g.ActiveSuit = snap.ActiveSuit
	if snap.WinnerID != "" {
		winnerID, err := uuid.Parse(snap.WinnerID)
		if err != nil {
			return nil, fmt.Errorf("winner id: %w", err)
		}
		g.WinnerID = winnerID
	}
	g.WinnerName = snap.WinnerName
	g.DrawsThisTurn = snap.DrawsThisTurn
	g.PassesInRow = snap.PassesInRow
	return g, nil
}
