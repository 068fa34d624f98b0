// internal/game/errors.go
package game

import "errors"

// Engine error taxonomy. Every mutating operation either succeeds or fails
// with exactly one of these and leaves the game untouched. All of them are
// caller-recoverable validation failures, never process-fatal.
var (
	ErrDuplicatePlayer         = errors.New("player already in game")
	ErrGameFull                = errors.New("game is full (2 players max)")
	ErrInvalidState            = errors.New("operation not allowed in current game state")
	ErrNotEnoughPlayers        = errors.New("need exactly 2 players to start")
	ErrNotYourTurn             = errors.New("not this player's turn")
	ErrCardNotInHand           = errors.New("card not in player's hand")
	ErrIllegalMove             = errors.New("card cannot be played on current discard pile")
	ErrSuitDeclarationRequired = errors.New("must declare a valid suit when playing an eight")
)
