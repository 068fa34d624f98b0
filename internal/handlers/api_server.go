// internal/handlers/api_server.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BriKprojects/card-game-crazy8s/internal/auth"
	"github.com/BriKprojects/card-game-crazy8s/internal/cache"
	"github.com/BriKprojects/card-game-crazy8s/internal/database"
	"github.com/BriKprojects/card-game-crazy8s/internal/game"
	"github.com/BriKprojects/card-game-crazy8s/internal/models"
)

// ServeHTTP routes /games/... requests: creation, the per-game operations
// (join, start, state, play, draw), and the WebSocket push channel.
func (s *GameServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if path == "/games/create" {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "use POST")
			return
		}
		s.handleCreateGame(w, r)
		return
	}

	if strings.HasPrefix(path, "/games/ws/") {
		s.GameWSHandler(w, r)
		return
	}

	parts := strings.Split(strings.TrimPrefix(path, "/games/"), "/")
	if len(parts) != 2 {
		writeError(w, http.StatusNotFound, "unknown route")
		return
	}
	gameID, err := uuid.Parse(parts[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return
	}
	g, ok := s.Store.GetGame(gameID)
	if !ok {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}

	switch {
	case parts[1] == "join" && r.Method == http.MethodPost:
		s.handleJoinGame(w, r, g)
	case parts[1] == "start" && r.Method == http.MethodPost:
		s.handleStartGame(w, r, g)
	case parts[1] == "state" && r.Method == http.MethodGet:
		s.handleGetState(w, r, g)
	case parts[1] == "play" && r.Method == http.MethodPost:
		s.handlePlayCard(w, r, g)
	case parts[1] == "draw" && r.Method == http.MethodPost:
		s.handleDrawCard(w, r, g)
	default:
		writeError(w, http.StatusNotFound, "unknown route")
	}
}

// handleCreateGame registers a fresh game in the store and persists its
// initial (waiting) snapshot.
func (s *GameServer) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	g := game.NewCrazyEights()
	s.Store.AddGame(g)

	g.Mu.Lock()
	blob, err := g.Serialize()
	state := g.State
	g.Mu.Unlock()
	if err != nil {
		s.Logger.Errorf("failed to serialize new game %s: %v", g.ID, err)
	} else {
		s.persistGame(g, blob, state, "", nil, nil)
	}

	s.Logger.Infof("created game %s", g.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"game_id": g.ID,
		"message": "Game created successfully",
	})
}

type joinGameRequest struct {
	Name string `json:"name"`
}

// handleJoinGame admits a player into the next free slot. Joining again with
// a name already seated returns the existing seat with a fresh token instead
// of an error.
func (s *GameServer) handleJoinGame(w http.ResponseWriter, r *http.Request, g *game.CrazyEights) {
	var req joinGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "a non-empty player name is required")
		return
	}
	name := strings.TrimSpace(req.Name)

	g.Mu.Lock()
	if existing := g.PlayerByName(name); existing != nil {
		existingID := existing.ID
		g.Mu.Unlock()
		s.issuePlayerToken(w, existingID)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"player_id": existingID,
			"game_id":   g.ID,
			"message":   "Player " + name + " already joined",
		})
		return
	}

	playerID, _ := uuid.NewRandom()
	if err := g.AddPlayer(playerID, name); err != nil {
		g.Mu.Unlock()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	slot := len(g.Players) - 1
	blob, serErr := g.Serialize()
	state := g.State
	g.Mu.Unlock()

	if serErr == nil {
		s.persistGame(g, blob, state, "", nil, nil)
	}
	if database.DB != nil {
		if err := database.InsertGameSession(r.Context(), playerID, g.ID, name, slot); err != nil {
			s.Logger.Errorf("failed to record session for game %s: %v", g.ID, err)
		}
	}
	s.recordMove(g, cache.GameMoveRecord{
		PlayerID:   playerID,
		PlayerName: name,
		MoveType:   "join",
	})

	s.issuePlayerToken(w, playerID)
	s.broadcastGame(g, "player_joined", map[string]interface{}{
		"player_id":   playerID,
		"player_name": name,
	})

	s.Logger.Infof("player %s (%s) joined game %s at slot %d", name, playerID, g.ID, slot)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"player_id": playerID,
		"game_id":   g.ID,
		"message":   "Player " + name + " joined the game",
	})
}

// issuePlayerToken mints a session token for the player and sets it both as
// an HttpOnly cookie and in the X-Auth-Token response header.
func (s *GameServer) issuePlayerToken(w http.ResponseWriter, playerID uuid.UUID) {
	token, err := auth.CreatePlayerToken(playerID.String())
	if err != nil {
		s.Logger.Errorf("failed to create player token: %v", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		HttpOnly: true,
		Path:     "/",
	})
	w.Header().Set("X-Auth-Token", token)
}

// handleStartGame deals and activates the game. Starting a game that is
// already active reports success idempotently.
func (s *GameServer) handleStartGame(w http.ResponseWriter, r *http.Request, g *game.CrazyEights) {
	g.Mu.Lock()
	err := g.Start()
	if err != nil {
		alreadyActive := errors.Is(err, game.ErrInvalidState) && g.State == game.StateActive
		state := g.CurrentState()
		g.Mu.Unlock()
		if alreadyActive {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"message": "Game already started",
				"data":    state,
			})
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	blob, serErr := g.Serialize()
	state := g.State
	g.Mu.Unlock()

	now := time.Now()
	if serErr == nil {
		s.persistGame(g, blob, state, "", &now, nil)
	}
	s.recordMove(g, cache.GameMoveRecord{MoveType: "start"})
	s.broadcastGame(g, "game_started", nil)

	s.Logger.Infof("game %s started", g.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Game started"})
}

// handleGetState returns the player-scoped projection for the authenticated
// player.
func (s *GameServer) handleGetState(w http.ResponseWriter, r *http.Request, g *game.CrazyEights) {
	playerID, err := authenticatePlayer(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or missing player token")
		return
	}

	g.Mu.Lock()
	slot := g.PlayerSlot(playerID)
	if slot == -1 {
		g.Mu.Unlock()
		writeError(w, http.StatusUnauthorized, "player not in this game")
		return
	}
	ps := g.StateForPlayer(slot)
	g.Mu.Unlock()

	writeJSON(w, http.StatusOK, ps)
}

type playCardRequest struct {
	Card         string `json:"card"`
	DeclaredSuit string `json:"declared_suit,omitempty"`
}

// handlePlayCard plays a card for the authenticated player and, on success,
// persists the snapshot, records the move, and pushes the result to every
// connected player.
func (s *GameServer) handlePlayCard(w http.ResponseWriter, r *http.Request, g *game.CrazyEights) {
	playerID, err := authenticatePlayer(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or missing player token")
		return
	}

	var req playCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid play payload")
		return
	}
	card, err := models.ParseCard(req.Card)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var declared models.Suit
	if req.DeclaredSuit != "" {
		if declared, err = models.ParseSuit(req.DeclaredSuit); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	g.Mu.Lock()
	slot := g.PlayerSlot(playerID)
	if slot == -1 {
		g.Mu.Unlock()
		writeError(w, http.StatusUnauthorized, "player not in this game")
		return
	}
	result, err := g.PlayCard(slot, card, declared)
	if err != nil {
		g.Mu.Unlock()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	blob, serErr := g.Serialize()
	state := g.State
	winnerName := g.WinnerName
	g.Mu.Unlock()

	var finishedAt *time.Time
	if result.GameOver {
		now := time.Now()
		finishedAt = &now
	}
	if serErr == nil {
		s.persistGame(g, blob, state, winnerName, nil, finishedAt)
	}
	s.recordMove(g, cache.GameMoveRecord{
		PlayerID:     playerID,
		PlayerName:   result.PlayerName,
		MoveType:     "play_card",
		Card:         result.CardPlayed,
		DeclaredSuit: string(result.DeclaredSuit),
	})
	s.broadcastGame(g, "card_played", map[string]interface{}{"result": result})

	writeJSON(w, http.StatusOK, result)
}

// handleDrawCard draws a card for the authenticated player, with the same
// persistence and push flow as a play.
func (s *GameServer) handleDrawCard(w http.ResponseWriter, r *http.Request, g *game.CrazyEights) {
	playerID, err := authenticatePlayer(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or missing player token")
		return
	}

	g.Mu.Lock()
	slot := g.PlayerSlot(playerID)
	if slot == -1 {
		g.Mu.Unlock()
		writeError(w, http.StatusUnauthorized, "player not in this game")
		return
	}
	playerName := g.Players[slot].Name
	result, err := g.DrawCard(slot)
	if err != nil {
		g.Mu.Unlock()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	blob, serErr := g.Serialize()
	state := g.State
	g.Mu.Unlock()

	if serErr == nil {
		s.persistGame(g, blob, state, "", nil, nil)
	}
	s.recordMove(g, cache.GameMoveRecord{
		PlayerID:   playerID,
		PlayerName: playerName,
		MoveType:   "draw_card",
		Card:       result.Card,
	})
	s.broadcastGame(g, "card_drawn", map[string]interface{}{"result": result})

	writeJSON(w, http.StatusOK, result)
}

// HealthHandler is a trivial liveness probe.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
