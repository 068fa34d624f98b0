// internal/models/card.go
package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSuit indicates a textual suit value that is neither a display
// symbol nor a canonical suit name.
var ErrInvalidSuit = errors.New("invalid suit")

// ErrInvalidRank indicates a textual rank value that is neither a display
// token nor a canonical rank name.
var ErrInvalidRank = errors.New("invalid rank")

// Suit is one of the four card suits, identified by its canonical name.
type Suit string

const (
	SuitHearts   Suit = "hearts"
	SuitDiamonds Suit = "diamonds"
	SuitClubs    Suit = "clubs"
	SuitSpades   Suit = "spades"
)

// Suits lists every suit in deck-construction order.
var Suits = []Suit{SuitHearts, SuitDiamonds, SuitClubs, SuitSpades}

var suitSymbols = map[Suit]string{
	SuitHearts:   "♥",
	SuitDiamonds: "♦",
	SuitClubs:    "♣",
	SuitSpades:   "♠",
}

// Symbol returns the single-character display symbol for the suit.
func (s Suit) Symbol() string {
	return suitSymbols[s]
}

// Valid reports whether s is one of the four playable suits.
func (s Suit) Valid() bool {
	_, ok := suitSymbols[s]
	return ok
}

// Rank is one of the thirteen card ranks, identified by its display token
// ("A", "2".."10", "J", "Q", "K").
type Rank string

const (
	RankAce   Rank = "A"
	RankTwo   Rank = "2"
	RankThree Rank = "3"
	RankFour  Rank = "4"
	RankFive  Rank = "5"
	RankSix   Rank = "6"
	RankSeven Rank = "7"
	RankEight Rank = "8"
	RankNine  Rank = "9"
	RankTen   Rank = "10"
	RankJack  Rank = "J"
	RankQueen Rank = "Q"
	RankKing  Rank = "K"
)

// Ranks lists every rank in deck-construction order.
var Ranks = []Rank{
	RankAce, RankTwo, RankThree, RankFour, RankFive, RankSix, RankSeven,
	RankEight, RankNine, RankTen, RankJack, RankQueen, RankKing,
}

var rankNames = map[Rank]string{
	RankAce: "ACE", RankTwo: "TWO", RankThree: "THREE", RankFour: "FOUR",
	RankFive: "FIVE", RankSix: "SIX", RankSeven: "SEVEN", RankEight: "EIGHT",
	RankNine: "NINE", RankTen: "TEN", RankJack: "JACK", RankQueen: "QUEEN",
	RankKing: "KING",
}

// Valid reports whether r is one of the thirteen playable ranks.
func (r Rank) Valid() bool {
	_, ok := rankNames[r]
	return ok
}

// Card is an immutable (rank, suit) pair. Equality and map-key semantics are
// by value, which is what the engine relies on for hand membership checks.
type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

// String renders the card for wire/display purposes: rank token immediately
// followed by the one-character suit symbol, e.g. "8♥".
func (c Card) String() string {
	return string(c.Rank) + c.Suit.Symbol()
}

// Token renders the card in the persistence-stable symbolic form
// "<rank>:<suit>", e.g. "8:hearts". Both halves are symbolic, never ordinal,
// so snapshots stay readable across versions.
func (c Card) Token() string {
	return string(c.Rank) + ":" + string(c.Suit)
}

// ParseSuit converts a user-provided suit string to a Suit. It accepts the
// display symbol ("♥") or the canonical name ("hearts"), case-insensitive.
func ParseSuit(value string) (Suit, error) {
	if value == "" {
		return "", fmt.Errorf("%w: empty value", ErrInvalidSuit)
	}
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, s := range Suits {
		if value == s.Symbol() || normalized == string(s) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSuit, value)
}

// ParseRank converts a user-provided rank string to a Rank. It accepts the
// display token ("8", "J") or the canonical name ("EIGHT", "jack"),
// case-insensitive for names.
func ParseRank(value string) (Rank, error) {
	if value == "" {
		return "", fmt.Errorf("%w: empty value", ErrInvalidRank)
	}
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for r, name := range rankNames {
		if normalized == string(r) || normalized == name {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRank, value)
}

// ParseCard parses a textual card. Two forms are accepted: the display form
// "<rank><suit-symbol>" (e.g. "8♥") and the token form "<rank>:<suit>"
// (e.g. "8:hearts", case-insensitive).
func ParseCard(value string) (Card, error) {
	value = strings.TrimSpace(value)

	if idx := strings.IndexByte(value, ':'); idx >= 0 {
		rank, err := ParseRank(value[:idx])
		if err != nil {
			return Card{}, err
		}
		suit, err := ParseSuit(value[idx+1:])
		if err != nil {
			return Card{}, err
		}
		return Card{Rank: rank, Suit: suit}, nil
	}

	runes := []rune(value)
	if len(runes) < 2 {
		return Card{}, fmt.Errorf("%w: card %q too short", ErrInvalidRank, value)
	}
	suit, err := ParseSuit(string(runes[len(runes)-1]))
	if err != nil {
		return Card{}, err
	}
	rank, err := ParseRank(string(runes[:len(runes)-1]))
	if err != nil {
		return Card{}, err
	}
	return Card{Rank: rank, Suit: suit}, nil
}

// NewDeck builds a full 52-card deck in construction order (unshuffled).
func NewDeck() []Card {
	deck := make([]Card, 0, len(Suits)*len(Ranks))
	for _, suit := range Suits {
		for _, rank := range Ranks {
			deck = append(deck, Card{Rank: rank, Suit: suit})
		}
	}
	return deck
}
