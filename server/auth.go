package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lguibr/pongduel/game"
)

// SessionCookieName is the cookie carrying the opaque session token.
const SessionCookieName = "session"

// IdentityVerifier resolves the caller's identity from the request. The
// production implementation asks the external identity service; tests plug
// in a stub.
type IdentityVerifier interface {
	Verify(r *http.Request) (game.Identity, error)
}

// HTTPIdentityVerifier resolves the session cookie against the identity
// service.
type HTTPIdentityVerifier struct {
	baseURL string
	client  *http.Client
}

// NewHTTPIdentityVerifier builds a verifier for the given identity service
// base URL.
func NewHTTPIdentityVerifier(baseURL string) *HTTPIdentityVerifier {
	return &HTTPIdentityVerifier{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// Verify forwards the session cookie and expects {id, username} back.
func (v *HTTPIdentityVerifier) Verify(r *http.Request) (game.Identity, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return game.Identity{}, fmt.Errorf("missing session cookie")
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, v.baseURL+"/api/session", nil)
	if err != nil {
		return game.Identity{}, err
	}
	req.AddCookie(cookie)

	resp, err := v.client.Do(req)
	if err != nil {
		return game.Identity{}, fmt.Errorf("identity service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return game.Identity{}, fmt.Errorf("identity service rejected session (status %d)", resp.StatusCode)
	}

	var identity game.Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return game.Identity{}, fmt.Errorf("decoding identity response: %w", err)
	}
	if identity.ID == "" {
		return game.Identity{}, fmt.Errorf("identity service returned empty id")
	}
	if identity.Username == "" {
		identity.Username = identity.ID
	}
	return identity, nil
}
