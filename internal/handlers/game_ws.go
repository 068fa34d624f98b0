// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/BriKprojects/card-game-crazy8s/internal/game"
	"github.com/BriKprojects/card-game-crazy8s/internal/middleware"
)

// pushMessage is the envelope for every event pushed over the WebSocket:
// the event type, the public game state, the recipient's own player state,
// and the payload describing what just happened.
type pushMessage struct {
	Type string   `json:"type"`
	Data pushData `json:"data"`
}

type pushData struct {
	GameState   game.GameState    `json:"game_state"`
	PlayerState *game.PlayerState `json:"player_state,omitempty"`
	Event       interface{}       `json:"event,omitempty"`
}

// GameWSHandler upgrades the HTTP connection to WebSocket for a game's push
// channel: /games/ws/{game_id}. It authenticates the player token, verifies
// the player is seated in the game, registers the connection, sends the
// initial state, then holds the connection open until the client goes away.
func (s *GameServer) GameWSHandler(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/games/ws/"), "/")
	if len(pathParts) < 1 || pathParts[0] == "" {
		http.Error(w, "Missing game_id in path (/games/ws/{game_id})", http.StatusBadRequest)
		return
	}
	gameID, err := uuid.Parse(pathParts[0])
	if err != nil {
		http.Error(w, "Invalid game_id format", http.StatusBadRequest)
		return
	}
	g, ok := s.Store.GetGame(gameID)
	if !ok {
		http.Error(w, "Game not found", http.StatusNotFound)
		return
	}

	playerID, err := authenticatePlayer(r)
	if err != nil {
		http.Error(w, "Invalid or missing player token", http.StatusUnauthorized)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{"game"},
		OriginPatterns: []string{"*"}, // Adjust for production security.
	})
	if err != nil {
		s.Logger.Warnf("WebSocket accept error for game %s: %v", gameID, err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")
	middleware.LogWebSocketConnect(s.Logger, r.RemoteAddr, gameID.String())

	g.Mu.Lock()
	slot := g.PlayerSlot(playerID)
	if slot == -1 {
		g.Mu.Unlock()
		c.Close(websocket.StatusPolicyViolation, "You are not a player in this game.")
		return
	}
	player := g.Players[slot]
	player.Conn = c
	player.Connected = true
	connected := pushMessage{
		Type: "connected",
		Data: pushData{
			GameState:   g.CurrentState(),
			PlayerState: statePtr(g.StateForPlayer(slot)),
		},
	}
	g.Mu.Unlock()

	if data, err := json.Marshal(connected); err == nil {
		writeCtx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		if err := c.Write(writeCtx, websocket.MessageText, data); err != nil {
			s.Logger.Warnf("failed to send connected state to player %s in game %s: %v", playerID, gameID, err)
		}
		cancel()
	}

	// The push channel is server-to-client; the read loop only keeps the
	// connection alive and answers pings.
	readErr := s.readPushChannel(r.Context(), c, playerID, gameID)

	g.Mu.Lock()
	if player.Conn == c {
		player.Conn = nil
		player.Connected = false
	}
	g.Mu.Unlock()
	middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, gameID.String(), readErr)
}

func statePtr(ps game.PlayerState) *game.PlayerState {
	return &ps
}

// readPushChannel blocks reading client frames until the connection closes.
// A {"type":"ping"} frame gets a pong; everything else is ignored.
func (s *GameServer) readPushChannel(ctx context.Context, c *websocket.Conn, playerID, gameID uuid.UUID) error {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			continue
		}

		var msg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := c.Write(writeCtx, websocket.MessageText, []byte(`{"type":"pong"}`)); err != nil {
				s.Logger.Debugf("pong write failed for player %s in game %s: %v", playerID, gameID, err)
			}
			cancel()
		}
	}
}

// broadcastGame pushes an event to every connected player of a game: the
// shared public state plus each recipient's own player state. Snapshots are
// taken under the game lock; the writes happen outside it, and unreachable
// recipients are dropped silently (the read loop clears their registration).
func (s *GameServer) broadcastGame(g *game.CrazyEights, eventType string, event interface{}) {
	type target struct {
		conn     *websocket.Conn
		playerID uuid.UUID
		payload  []byte
	}

	g.Mu.Lock()
	gameState := g.CurrentState()
	targets := make([]target, 0, len(g.Players))
	for slot, p := range g.Players {
		if !p.Connected || p.Conn == nil {
			continue
		}
		msg := pushMessage{
			Type: eventType,
			Data: pushData{
				GameState:   gameState,
				PlayerState: statePtr(g.StateForPlayer(slot)),
				Event:       event,
			},
		}
		data, err := json.Marshal(msg)
		if err != nil {
			s.Logger.Errorf("failed to marshal push event %s for game %s: %v", eventType, g.ID, err)
			continue
		}
		targets = append(targets, target{conn: p.Conn, playerID: p.ID, payload: data})
	}
	g.Mu.Unlock()

	go func(targets []target, gameID uuid.UUID) {
		for _, t := range targets {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := t.conn.Write(ctx, websocket.MessageText, t.payload)
			cancel()
			if err != nil {
				s.Logger.Warnf("failed to push %s to player %s in game %s: %v", eventType, t.playerID, gameID, err)
			}
		}
	}(targets, g.ID)
}
