// internal/handlers/api_server_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BriKprojects/card-game-crazy8s/internal/auth"
	"github.com/BriKprojects/card-game-crazy8s/internal/game"
	"github.com/BriKprojects/card-game-crazy8s/internal/models"
)

func TestMain(m *testing.M) {
	auth.Init()
	os.Exit(m.Run())
}

func newTestServer() *GameServer {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewGameServer(logger)
}

// doJSON issues a request against the server mux and decodes the JSON body.
func doJSON(t *testing.T, s *GameServer, method, path, token string, payload interface{}) (int, map[string]interface{}, http.Header) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), "body: %s", rec.Body.String())
	}
	return rec.Code, decoded, rec.Result().Header
}

// createGame creates a game through the API and returns its id.
func createGame(t *testing.T, s *GameServer) uuid.UUID {
	t.Helper()
	code, body, _ := doJSON(t, s, http.MethodPost, "/games/create", "", nil)
	require.Equal(t, http.StatusOK, code)
	id, err := uuid.Parse(body["game_id"].(string))
	require.NoError(t, err)
	return id
}

// joinGame joins a player by name and returns their id and session token.
func joinGame(t *testing.T, s *GameServer, gameID uuid.UUID, name string) (uuid.UUID, string) {
	t.Helper()
	code, body, header := doJSON(t, s, http.MethodPost, "/games/"+gameID.String()+"/join", "",
		map[string]string{"name": name})
	require.Equal(t, http.StatusOK, code, "join failed: %v", body)
	id, err := uuid.Parse(body["player_id"].(string))
	require.NoError(t, err)
	token := header.Get("X-Auth-Token")
	require.NotEmpty(t, token)
	return id, token
}

func TestCreateAndJoinFlow(t *testing.T) {
	s := newTestServer()
	gameID := createGame(t, s)

	aliceID, aliceToken := joinGame(t, s, gameID, "Alice")
	assert.NotEmpty(t, aliceToken)

	// Joining again with the same name returns the existing seat.
	code, body, header := doJSON(t, s, http.MethodPost, "/games/"+gameID.String()+"/join", "",
		map[string]string{"name": "Alice"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, aliceID.String(), body["player_id"])
	assert.Contains(t, body["message"], "already joined")
	assert.NotEmpty(t, header.Get("X-Auth-Token"), "re-join issues a fresh token")

	bobID, _ := joinGame(t, s, gameID, "Bob")
	assert.NotEqual(t, aliceID, bobID)

	// A third distinct player is rejected.
	code, body, _ = doJSON(t, s, http.MethodPost, "/games/"+gameID.String()+"/join", "",
		map[string]string{"name": "Carol"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, game.ErrGameFull.Error(), body["error"])

	// A blank name is rejected before touching the engine.
	code, _, _ = doJSON(t, s, http.MethodPost, "/games/"+gameID.String()+"/join", "",
		map[string]string{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestStartGame(t *testing.T) {
	s := newTestServer()
	gameID := createGame(t, s)

	// Too few players.
	code, body, _ := doJSON(t, s, http.MethodPost, "/games/"+gameID.String()+"/start", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, game.ErrNotEnoughPlayers.Error(), body["error"])

	joinGame(t, s, gameID, "Alice")
	joinGame(t, s, gameID, "Bob")

	code, _, _ = doJSON(t, s, http.MethodPost, "/games/"+gameID.String()+"/start", "", nil)
	require.Equal(t, http.StatusOK, code)

	g, ok := s.Store.GetGame(gameID)
	require.True(t, ok)
	g.Mu.Lock()
	assert.Equal(t, game.StateActive, g.State)
	g.Mu.Unlock()

	// Starting again reports success instead of erroring.
	code, body, _ = doJSON(t, s, http.MethodPost, "/games/"+gameID.String()+"/start", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Game already started", body["message"])
}

func TestGetState(t *testing.T) {
	s := newTestServer()
	gameID := createGame(t, s)
	_, aliceToken := joinGame(t, s, gameID, "Alice")
	joinGame(t, s, gameID, "Bob")
	code, _, _ := doJSON(t, s, http.MethodPost, "/games/"+gameID.String()+"/start", "", nil)
	require.Equal(t, http.StatusOK, code)

	code, body, _ := doJSON(t, s, http.MethodGet, "/games/"+gameID.String()+"/state", aliceToken, nil)
	require.Equal(t, http.StatusOK, code)
	hand, ok := body["your_hand"].([]interface{})
	require.True(t, ok)
	assert.Len(t, hand, game.HandSize)
	assert.Equal(t, "active", body["state"])
	assert.NotEmpty(t, body["top_card"])
	assert.EqualValues(t, 37, body["deck_size"])

	// No token, bad token, and a token for a player not in this game.
	code, _, _ = doJSON(t, s, http.MethodGet, "/games/"+gameID.String()+"/state", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _, _ = doJSON(t, s, http.MethodGet, "/games/"+gameID.String()+"/state", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	stranger, err := auth.CreatePlayerToken(uuid.NewString())
	require.NoError(t, err)
	code, _, _ = doJSON(t, s, http.MethodGet, "/games/"+gameID.String()+"/state", stranger, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

// startedGame spins up a two-player active game through the API and returns
// the tokens keyed by slot.
func startedGame(t *testing.T, s *GameServer) (*game.CrazyEights, [2]string) {
	t.Helper()
	gameID := createGame(t, s)
	aliceID, aliceToken := joinGame(t, s, gameID, "Alice")
	_, bobToken := joinGame(t, s, gameID, "Bob")
	code, _, _ := doJSON(t, s, http.MethodPost, "/games/"+gameID.String()+"/start", "", nil)
	require.Equal(t, http.StatusOK, code)

	g, ok := s.Store.GetGame(gameID)
	require.True(t, ok)

	var tokens [2]string
	g.Mu.Lock()
	if g.Players[0].ID == aliceID {
		tokens = [2]string{aliceToken, bobToken}
	} else {
		tokens = [2]string{bobToken, aliceToken}
	}
	g.Mu.Unlock()
	return g, tokens
}

func TestDrawCard(t *testing.T) {
	s := newTestServer()
	g, tokens := startedGame(t, s)

	g.Mu.Lock()
	current := g.CurrentPlayerIndex
	g.Mu.Unlock()

	// Out of turn.
	code, body, _ := doJSON(t, s, http.MethodPost, "/games/"+g.ID.String()+"/draw", tokens[1-current], nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, game.ErrNotYourTurn.Error(), body["error"])

	code, body, _ = doJSON(t, s, http.MethodPost, "/games/"+g.ID.String()+"/draw", tokens[current], nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["drew_card"])
	assert.EqualValues(t, 8, body["hand_size"])
}

func TestPlayCard(t *testing.T) {
	s := newTestServer()
	g, tokens := startedGame(t, s)

	// Rig the current player's hand so the play is deterministic.
	legal := models.Card{Rank: models.RankAce, Suit: models.SuitHearts}
	g.Mu.Lock()
	current := g.CurrentPlayerIndex
	g.Players[current].Hand[0] = legal
	g.DiscardPile = []models.Card{{Rank: models.RankFive, Suit: models.SuitHearts}}
	g.ActiveSuit = ""
	g.Mu.Unlock()

	// Unparseable card.
	code, _, _ := doJSON(t, s, http.MethodPost, "/games/"+g.ID.String()+"/play", tokens[current],
		map[string]string{"card": "Z♥"})
	assert.Equal(t, http.StatusBadRequest, code)

	// Card not in hand.
	code, body, _ := doJSON(t, s, http.MethodPost, "/games/"+g.ID.String()+"/play", tokens[current],
		map[string]string{"card": "5:hearts"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, game.ErrCardNotInHand.Error(), body["error"])

	// No token.
	code, _, _ = doJSON(t, s, http.MethodPost, "/games/"+g.ID.String()+"/play", "",
		map[string]string{"card": legal.Token()})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body, _ = doJSON(t, s, http.MethodPost, "/games/"+g.ID.String()+"/play", tokens[current],
		map[string]string{"card": legal.Token()})
	require.Equal(t, http.StatusOK, code, "play failed: %v", body)
	assert.Equal(t, legal.String(), body["card_played"])
	assert.EqualValues(t, 6, body["hand_size"])
	assert.Equal(t, false, body["game_over"])

	g.Mu.Lock()
	assert.Equal(t, 1-current, g.CurrentPlayerIndex)
	g.Mu.Unlock()
}

func TestPlayEightDeclaresSuit(t *testing.T) {
	s := newTestServer()
	g, tokens := startedGame(t, s)

	eight := models.Card{Rank: models.RankEight, Suit: models.SuitClubs}
	g.Mu.Lock()
	current := g.CurrentPlayerIndex
	g.Players[current].Hand[0] = eight
	g.Mu.Unlock()

	// Missing declaration.
	code, body, _ := doJSON(t, s, http.MethodPost, "/games/"+g.ID.String()+"/play", tokens[current],
		map[string]string{"card": eight.Token()})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, game.ErrSuitDeclarationRequired.Error(), body["error"])

	// Unparseable declaration is rejected before the engine sees it.
	code, _, _ = doJSON(t, s, http.MethodPost, "/games/"+g.ID.String()+"/play", tokens[current],
		map[string]string{"card": eight.Token(), "declared_suit": "moons"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body, _ = doJSON(t, s, http.MethodPost, "/games/"+g.ID.String()+"/play", tokens[current],
		map[string]string{"card": eight.Token(), "declared_suit": "spades"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "spades", body["declared_suit"])

	g.Mu.Lock()
	assert.Equal(t, models.SuitSpades, g.ActiveSuit)
	g.Mu.Unlock()
}

func TestWinningPlayFinishesGame(t *testing.T) {
	s := newTestServer()
	g, tokens := startedGame(t, s)

	last := models.Card{Rank: models.RankAce, Suit: models.SuitHearts}
	g.Mu.Lock()
	current := g.CurrentPlayerIndex
	winnerName := g.Players[current].Name
	g.Players[current].Hand = []models.Card{last}
	g.DiscardPile = []models.Card{{Rank: models.RankFive, Suit: models.SuitHearts}}
	g.ActiveSuit = ""
	g.Mu.Unlock()

	code, body, _ := doJSON(t, s, http.MethodPost, "/games/"+g.ID.String()+"/play", tokens[current],
		map[string]string{"card": last.Token()})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["game_over"])
	assert.Equal(t, winnerName, body["winner_name"])

	// The game is terminal; both move endpoints reject further input.
	code, body, _ = doJSON(t, s, http.MethodPost, "/games/"+g.ID.String()+"/draw", tokens[1-current], nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, game.ErrInvalidState.Error(), body["error"])
}

func TestRouting(t *testing.T) {
	s := newTestServer()

	code, _, _ := doJSON(t, s, http.MethodGet, "/games/create", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, code)

	code, _, _ = doJSON(t, s, http.MethodPost, "/games/not-a-uuid/join", "", map[string]string{"name": "X"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _, _ = doJSON(t, s, http.MethodPost, "/games/"+uuid.NewString()+"/join", "", map[string]string{"name": "X"})
	assert.Equal(t, http.StatusNotFound, code)

	code, _, _ = doJSON(t, s, http.MethodGet, "/games/somewhere/else/entirely", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestGameWSHandlerRejections(t *testing.T) {
	s := newTestServer()
	gameID := createGame(t, s)
	joinGame(t, s, gameID, "Alice")

	// Invalid game id in path.
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/games/ws/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown game.
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/games/ws/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Missing token.
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/games/ws/"+gameID.String(), nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGameWSConnect(t *testing.T) {
	s := newTestServer()
	gameID := createGame(t, s)
	playerID, token := joinGame(t, s, gameID, "Alice")

	ts := httptest.NewServer(s)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/games/ws/%s?token=%s", ts.URL, gameID, token)
	c, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		Subprotocols: []string{"game"},
	})
	require.NoError(t, err)
	defer c.Close(websocket.StatusNormalClosure, "done")

	_, data, err := c.Read(ctx)
	require.NoError(t, err)

	var msg struct {
		Type string `json:"type"`
		Data struct {
			GameState   game.GameState    `json:"game_state"`
			PlayerState *game.PlayerState `json:"player_state"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "connected", msg.Type)
	assert.Equal(t, gameID, msg.Data.GameState.GameID)
	require.NotNil(t, msg.Data.PlayerState)
	assert.Empty(t, msg.Data.PlayerState.YourHand, "no cards before the game starts")

	g, ok := s.Store.GetGame(gameID)
	require.True(t, ok)
	g.Mu.Lock()
	slot := g.PlayerSlot(playerID)
	require.NotEqual(t, -1, slot)
	assert.True(t, g.Players[slot].Connected)
	g.Mu.Unlock()
}
