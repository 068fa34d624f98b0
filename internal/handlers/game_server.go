// internal/handlers/game_server.go
package handlers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BriKprojects/card-game-crazy8s/internal/cache"
	"github.com/BriKprojects/card-game-crazy8s/internal/database"
	"github.com/BriKprojects/card-game-crazy8s/internal/game"
)

// GameServer holds the process-wide game registry and the glue between the
// engine and its collaborators: persistence, the move feed, and the push
// channel. Engine mutations happen under each game's mutex; persistence and
// broadcast run after the mutation commits.
type GameServer struct {
	Store  *game.GameStore
	Logger *logrus.Logger
}

func NewGameServer(logger *logrus.Logger) *GameServer {
	return &GameServer{
		Store:  game.NewGameStore(),
		Logger: logger,
	}
}

// LoadPersistedGames rehydrates every stored game into the registry. An
// unreadable snapshot degrades to a fresh empty game under the same id
// rather than failing startup.
func (s *GameServer) LoadPersistedGames(ctx context.Context) {
	if database.DB == nil {
		return
	}
	rows, err := database.LoadAllGames(ctx)
	if err != nil {
		s.Logger.Errorf("failed to load persisted games: %v", err)
		return
	}
	for _, row := range rows {
		g, err := game.Deserialize(row.ID, row.StateData)
		if err != nil {
			s.Logger.Warnf("corrupt snapshot for game %s, starting fresh: %v", row.ID, err)
			g = game.NewCrazyEights()
			g.ID = row.ID
		}
		s.Store.AddGame(g)
	}
	s.Logger.Infof("rehydrated %d game(s) from database", len(rows))
}

// persistGame writes the latest snapshot blob for a game. Callers pass the
// blob and coarse columns captured under the game lock; the write itself
// happens outside it.
func (s *GameServer) persistGame(g *game.CrazyEights, blob []byte, state game.LifecycleState, winnerName string, startedAt, finishedAt *time.Time) {
	if database.DB == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := database.UpsertGameState(ctx, g.ID, blob, string(state), winnerName, startedAt, finishedAt); err != nil {
		s.Logger.Errorf("failed to persist game %s: %v", g.ID, err)
	}
}

// recordMove appends a move-history row and publishes the move to the Redis
// feed. Both are best-effort and never block the request path for long.
func (s *GameServer) recordMove(g *game.CrazyEights, rec cache.GameMoveRecord) {
	rec.GameID = g.ID
	rec.Timestamp = time.Now().UnixMilli()

	if database.DB != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := database.InsertGameMove(ctx, g.ID, rec.PlayerName, rec.MoveType, rec.Card, rec.DeclaredSuit); err != nil {
			s.Logger.Errorf("failed to record move for game %s: %v", g.ID, err)
		}
	}

	go func(rec cache.GameMoveRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.PublishGameMove(ctx, rec); err != nil {
			s.Logger.Errorf("failed to publish move to feed for game %s: %v", rec.GameID, err)
		}
	}(rec)
}
