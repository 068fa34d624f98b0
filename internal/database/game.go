// internal/database/game.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// InitSchema creates the games, game_sessions, and game_moves tables if they
// do not exist. The games table carries the latest serialized snapshot blob
// ("latest snapshot wins") plus coarse lifecycle/winner columns for querying.
func InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS games (
			id UUID PRIMARY KEY,
			state TEXT NOT NULL DEFAULT 'waiting',
			winner_name TEXT,
			state_data TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			started_at TIMESTAMPTZ,
			finished_at TIMESTAMPTZ
		);
		CREATE TABLE IF NOT EXISTS game_sessions (
			id UUID PRIMARY KEY,
			game_id UUID NOT NULL REFERENCES games(id) ON DELETE CASCADE,
			player_name TEXT NOT NULL,
			player_index INT NOT NULL,
			joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_game_sessions_game_id ON game_sessions(game_id);
		CREATE TABLE IF NOT EXISTS game_moves (
			id UUID PRIMARY KEY,
			game_id UUID NOT NULL REFERENCES games(id) ON DELETE CASCADE,
			player_name TEXT NOT NULL,
			move_type TEXT NOT NULL,
			card_played TEXT,
			declared_suit TEXT,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_game_moves_game_id ON game_moves(game_id);
	`
	if _, err := DB.Exec(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// GameRow is a persisted game: the snapshot blob plus queryable columns.
type GameRow struct {
	ID         uuid.UUID
	State      string
	WinnerName string
	StateData  []byte
}

// UpsertGameState writes the latest snapshot for a game. startedAt and
// finishedAt are only set when non-nil, so earlier values persist.
func UpsertGameState(ctx context.Context, gameID uuid.UUID, stateData []byte, state, winnerName string, startedAt, finishedAt *time.Time) error {
	q := `
		INSERT INTO games (id, state, winner_name, state_data, started_at, finished_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			state = EXCLUDED.state,
			winner_name = EXCLUDED.winner_name,
			state_data = EXCLUDED.state_data,
			started_at = COALESCE(games.started_at, EXCLUDED.started_at),
			finished_at = COALESCE(games.finished_at, EXCLUDED.finished_at)
	`
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, e := tx.Exec(ctx, q, gameID, state, winnerName, stateData, startedAt, finishedAt)
		return e
	})
	if err != nil {
		return fmt.Errorf("upsert game state: %w", err)
	}
	return nil
}

// LoadAllGames returns every persisted game row for startup rehydration.
func LoadAllGames(ctx context.Context) ([]GameRow, error) {
	rows, err := DB.Query(ctx, `SELECT id, state, COALESCE(winner_name, ''), state_data FROM games`)
	if err != nil {
		return nil, fmt.Errorf("load games: %w", err)
	}
	defer rows.Close()

	var out []GameRow
	for rows.Next() {
		var r GameRow
		var blob string
		if err := rows.Scan(&r.ID, &r.State, &r.WinnerName, &blob); err != nil {
			return nil, fmt.Errorf("scan game row: %w", err)
		}
		r.StateData = []byte(blob)
		out = append(out, r)
	}
	return out, rows.Err()
}

// InsertGameSession records a player's seat in a game.
func InsertGameSession(ctx context.Context, sessionID, gameID uuid.UUID, playerName string, playerIndex int) error {
	q := `
		INSERT INTO game_sessions (id, game_id, player_name, player_index)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := DB.Exec(ctx, q, sessionID, gameID, playerName, playerIndex); err != nil {
		return fmt.Errorf("insert game session: %w", err)
	}
	return nil
}

// InsertGameMove appends one row to the move history for a game.
func InsertGameMove(ctx context.Context, gameID uuid.UUID, playerName, moveType, cardPlayed, declaredSuit string) error {
	q := `
		INSERT INTO game_moves (id, game_id, player_name, move_type, card_played, declared_suit)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))
	`
	id, _ := uuid.NewRandom()
	if _, err := DB.Exec(ctx, q, id, gameID, playerName, moveType, cardPlayed, declaredSuit); err != nil {
		return fmt.Errorf("insert game move: %w", err)
	}
	return nil
}
