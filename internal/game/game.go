// internal/game/game.go
package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BriKprojects/card-game-crazy8s/internal/models"
)

// LifecycleState tracks where a game is in its lifetime. The progression is
// monotonic: waiting -> ready -> active -> finished, never backwards.
type LifecycleState string

const (
	StateWaiting  LifecycleState = "waiting"
	StateReady    LifecycleState = "ready"
	StateActive   LifecycleState = "active"
	StateFinished LifecycleState = "finished"
)

const (
	// HandSize is the number of cards dealt to each player at game start.
	HandSize = 7
	// DrawLimit is the maximum number of unplayable cards a player may draw
	// in one turn before the turn ends as a forced pass.
	DrawLimit = 3
	// MaxPlayers is fixed at two; turn advancement is strict alternation.
	MaxPlayers = 2
)

// CrazyEights holds the entire state for a single game instance in memory.
//
// Mu guards every field. The engine performs multi-step read-modify-write
// sequences, so callers must hold Mu across each engine call; the methods
// themselves do not lock. Distinct game instances are independent.
type CrazyEights struct {
	ID uuid.UUID

	Players     []*models.Player
	Deck        []models.Card
	DiscardPile []models.Card

	CurrentPlayerIndex int
	State              LifecycleState

	// ActiveSuit is the suit declared with the most recent eight. It is
	// non-empty only strictly between an eight being played and the next
	// accepted play, and constrains that next play only.
	ActiveSuit models.Suit

	WinnerID   uuid.UUID
	WinnerName string

	// DrawsThisTurn counts cards drawn by the current player this turn. It
	// resets whenever the turn ends and whenever a drawn card is playable.
	DrawsThisTurn int
	// PassesInRow counts immediately preceding turns that ended by forced
	// pass. Observational; not itself a terminal condition.
	PassesInRow int

	Mu sync.Mutex

	rng *rand.Rand
}

// NewCrazyEights builds an empty game in the waiting state.
func NewCrazyEights() *CrazyEights {
	id, _ := uuid.NewRandom()
	return &CrazyEights{
		ID:    id,
		State: StateWaiting,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// AddPlayer seats a player in the next free slot. The second successful
// admission transitions the game from waiting to ready.
func (g *CrazyEights) AddPlayer(playerID uuid.UUID, name string) error {
	for _, p := range g.Players {
		if p.ID == playerID {
			return ErrDuplicatePlayer
		}
	}
	if len(g.Players) >= MaxPlayers {
		return ErrGameFull
	}
	if g.State != StateWaiting {
		return ErrInvalidState
	}

	g.Players = append(g.Players, &models.Player{
		ID:   playerID,
		Name: name,
		Hand: []models.Card{},
	})
	if len(g.Players) == MaxPlayers {
		g.State = StateReady
	}
	return nil
}

// Start shuffles a fresh 52-card deck, deals seven cards to each player
// alternately, seeds the discard pile with a non-eight where possible, picks
// a random starting player, and activates the game.
func (g *CrazyEights) Start() error {
	if len(g.Players) != MaxPlayers {
		return ErrNotEnoughPlayers
	}
	if g.State == StateActive || g.State == StateFinished {
		return ErrInvalidState
	}

	g.WinnerID = uuid.Nil
	g.WinnerName = ""
	g.DrawsThisTurn = 0
	g.PassesInRow = 0
	g.ActiveSuit = ""
	g.DiscardPile = []models.Card{}

	g.Deck = models.NewDeck()
	g.shuffleDeck()

	// Deal alternately: slot 0, slot 1, repeated for seven rounds.
	for _, p := range g.Players {
		p.Hand = make([]models.Card, 0, HandSize)
	}
	for i := 0; i < HandSize; i++ {
		for _, p := range g.Players {
			card, ok := g.popDeck()
			if !ok {
				break
			}
			p.Hand = append(p.Hand, card)
		}
	}

	// Flip the first discard. An eight goes back into the deck and the deck
	// is reshuffled, repeated until a non-eight surfaces. The loop is bounded
	// by deck emptiness: if the deck runs out mid-search, the last drawn card
	// is used even if it is an eight.
	if first, ok := g.popDeck(); ok {
		for first.Rank == models.RankEight && len(g.Deck) > 0 {
			g.Deck = append(g.Deck, first)
			g.shuffleDeck()
			first, _ = g.popDeck()
		}
		g.DiscardPile = append(g.DiscardPile, first)
	}

	g.CurrentPlayerIndex = g.rng.Intn(len(g.Players))
	g.State = StateActive
	return nil
}

// CanPlay reports whether a card is legal against the current discard top
// and active suit. Rule priority: empty discard admits anything; an eight is
// always legal; a declared active suit constrains to that suit (or eights);
// otherwise suit-or-rank match against the top card.
func (g *CrazyEights) CanPlay(card models.Card) bool {
	if len(g.DiscardPile) == 0 {
		return true
	}
	if card.Rank == models.RankEight {
		return true
	}
	if g.ActiveSuit != "" {
		return card.Suit == g.ActiveSuit
	}
	top := g.DiscardPile[len(g.DiscardPile)-1]
	return card.Suit == top.Suit || card.Rank == top.Rank
}

// PlayResult describes a committed play for the caller and broadcast.
type PlayResult struct {
	CardPlayed   string      `json:"card_played"`
	PlayerID     uuid.UUID   `json:"player_id"`
	PlayerName   string      `json:"player_name"`
	HandSize     int         `json:"hand_size"`
	GameOver     bool        `json:"game_over"`
	WinnerID     uuid.UUID   `json:"winner_id,omitempty"`
	WinnerName   string      `json:"winner_name,omitempty"`
	DeclaredSuit models.Suit `json:"declared_suit,omitempty"`
}

// PlayCard plays a card from the slot's hand onto the discard pile. For an
// eight a valid declaredSuit is required, even on a game-ending play; the
// declaration is validated before any state is mutated, so a rejected play
// leaves the game exactly as it was.
func (g *CrazyEights) PlayCard(slot int, card models.Card, declaredSuit models.Suit) (*PlayResult, error) {
	if g.State != StateActive {
		return nil, ErrInvalidState
	}
	if slot != g.CurrentPlayerIndex {
		return nil, ErrNotYourTurn
	}

	player := g.Players[slot]
	handIdx := -1
	for i, c := range player.Hand {
		if c == card {
			handIdx = i
			break
		}
	}
	if handIdx == -1 {
		return nil, ErrCardNotInHand
	}
	if !g.CanPlay(card) {
		return nil, ErrIllegalMove
	}
	if card.Rank == models.RankEight && !declaredSuit.Valid() {
		return nil, ErrSuitDeclarationRequired
	}

	// All validation passed; commit.
	player.Hand = append(player.Hand[:handIdx], player.Hand[handIdx+1:]...)
	g.DiscardPile = append(g.DiscardPile, card)
	g.ActiveSuit = ""
	if card.Rank == models.RankEight {
		g.ActiveSuit = declaredSuit
	}

	result := &PlayResult{
		CardPlayed: card.String(),
		PlayerID:   player.ID,
		PlayerName: player.Name,
		HandSize:   len(player.Hand),
	}
	if card.Rank == models.RankEight {
		result.DeclaredSuit = declaredSuit
	}

	if len(player.Hand) == 0 {
		g.State = StateFinished
		g.WinnerID = player.ID
		g.WinnerName = player.Name
		result.GameOver = true
		result.WinnerID = player.ID
		result.WinnerName = player.Name
		return result, nil
	}

	g.advanceTurn()
	g.PassesInRow = 0
	return result, nil
}

// DrawResult describes the outcome of a draw attempt.
type DrawResult struct {
	PlayerID      uuid.UUID `json:"player_id"`
	DrewCard      bool      `json:"drew_card"`
	Card          string    `json:"card,omitempty"`
	HandSize      int       `json:"hand_size"`
	CardPlayable  bool      `json:"card_playable"`
	DrawsThisTurn int       `json:"draws_this_turn"`
	TurnEnded     bool      `json:"turn_ended"`
	Passed        bool      `json:"passed"`
}

// DrawCard pops the top deck card into the slot's hand. An empty deck ends
// the turn immediately as a forced pass. Drawing an unplayable card for the
// third time this turn also forces a pass; drawing a playable card resets
// the per-turn draw counter and leaves the turn open.
func (g *CrazyEights) DrawCard(slot int) (*DrawResult, error) {
	if g.State != StateActive {
		return nil, ErrInvalidState
	}
	if slot != g.CurrentPlayerIndex {
		return nil, ErrNotYourTurn
	}

	player := g.Players[slot]
	result := &DrawResult{PlayerID: player.ID}

	card, ok := g.popDeck()
	if !ok {
		// Nothing to draw: the turn ends as a forced pass.
		result.Passed = true
		result.TurnEnded = true
		result.HandSize = len(player.Hand)
		g.PassesInRow++
		g.advanceTurn()
		result.DrawsThisTurn = g.DrawsThisTurn
		return result, nil
	}

	player.Hand = append(player.Hand, card)
	g.DrawsThisTurn++

	result.DrewCard = true
	result.Card = card.String()
	result.HandSize = len(player.Hand)
	result.CardPlayable = g.CanPlay(card)

	switch {
	case result.CardPlayable:
		// A playable draw keeps the turn open and starts the unplayable
		// streak over.
		g.DrawsThisTurn = 0
		g.PassesInRow = 0
	case g.DrawsThisTurn >= DrawLimit:
		result.TurnEnded = true
		result.Passed = true
		g.PassesInRow++
		g.advanceTurn()
	}

	result.DrawsThisTurn = g.DrawsThisTurn
	return result, nil
}

// advanceTurn hands the turn to the other player and resets the per-turn
// draw counter.
func (g *CrazyEights) advanceTurn() {
	g.CurrentPlayerIndex = (g.CurrentPlayerIndex + 1) % len(g.Players)
	g.DrawsThisTurn = 0
}

// popDeck removes and returns the top deck card (end of the slice).
func (g *CrazyEights) popDeck() (models.Card, bool) {
	if len(g.Deck) == 0 {
		return models.Card{}, false
	}
	card := g.Deck[len(g.Deck)-1]
	g.Deck = g.Deck[:len(g.Deck)-1]
	return card, true
}

func (g *CrazyEights) shuffleDeck() {
	g.rng.Shuffle(len(g.Deck), func(i, j int) {
		g.Deck[i], g.Deck[j] = g.Deck[j], g.Deck[i]
	})
}

// PlayerSlot returns the slot index for a player id, or -1 if not seated.
func (g *CrazyEights) PlayerSlot(playerID uuid.UUID) int {
	for i, p := range g.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// PlayerByName returns the seated player with the given display name, if any.
func (g *CrazyEights) PlayerByName(name string) *models.Player {
	for _, p := range g.Players {
		if p.Name == name {
			return p
		}
	}
	return nil
}
