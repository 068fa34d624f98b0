package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/BriKprojects/card-game-crazy8s/internal/auth"
)

// extractCookieToken extracts a named cookie value from "Cookie" header, or returns empty if not found.
func extractCookieToken(cookieHeader, cookieName string) string {
	parts := strings.Split(cookieHeader, cookieName+"=")
	if len(parts) < 2 {
		return ""
	}
	token := parts[1]
	if idx := strings.Index(token, ";"); idx != -1 {
		token = token[:idx]
	}
	return token
}

// requestToken pulls the player session token from the auth_token cookie,
// the Authorization: Bearer header, or a token query parameter.
func requestToken(r *http.Request) string {
	if token := extractCookieToken(r.Header.Get("Cookie"), "auth_token"); token != "" {
		return token
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// authenticatePlayer resolves the request's session token to a player id.
func authenticatePlayer(r *http.Request) (uuid.UUID, error) {
	playerIDStr, err := auth.AuthenticatePlayerToken(requestToken(r))
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(playerIDStr)
}
