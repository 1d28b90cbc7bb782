package server

import (
	"errors"
	"net/http"
	"strings"
)

var (
	errNoSession            = errors.New("no valid session")
	errNoCoordinatorSession = errors.New("no valid coordinator session")
)

const coordinatorCookieName = "coordinator_session"

// playerFromRequest resolves the Bearer token to a team session. SSE and
// WebSocket clients cannot set headers, so a token query parameter is
// accepted as a fallback.
func playerFromRequest(r *http.Request, store Store) (playerSession, error) {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found || token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return playerSession{}, errNoSession
	}
	return store.PlayerFromToken(r.Context(), token)
}

func coordinatorFromRequest(r *http.Request, store Store) (coordinatorSession, error) {
	cookie, err := r.Cookie(coordinatorCookieName)
	if err != nil || cookie.Value == "" {
		return coordinatorSession{}, errNoCoordinatorSession
	}
	return store.CoordinatorFromSession(r.Context(), cookie.Value)
}
