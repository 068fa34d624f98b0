package game

import (
	"sync"

	"github.com/google/uuid"
)

// GameStore is the process-wide registry of live game instances, keyed by
// game id. Instances are created on explicit creation or rehydration and
// removed on explicit deletion; the store never mutates game state itself.
type GameStore struct {
	mu    sync.Mutex
	games map[uuid.UUID]*CrazyEights
}

func NewGameStore() *GameStore {
	return &GameStore{
		games: make(map[uuid.UUID]*CrazyEights),
	}
}

func (s *GameStore) AddGame(g *CrazyEights) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.ID] = g
}

func (s *GameStore) GetGame(id uuid.UUID) (*CrazyEights, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, exists := s.games[id]
	return g, exists
}

func (s *GameStore) DeleteGame(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, id)
}

// Len returns the number of registered games.
func (s *GameStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.games)
}
