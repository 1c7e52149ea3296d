package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

const sessionCookieName = "auth_token"

// EnsureSession returns the session id carried by the auth_token cookie. A browser arriving
// without a valid token gets a fresh anonymous session and a cookie for it.
func (s *Server) EnsureSession(w http.ResponseWriter, r *http.Request) (string, error) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		sessionID, err := s.Sessions.Authenticate(cookie.Value)
		if err == nil {
			return sessionID, nil
		}
		s.Logger.Debugf("discarding session cookie from %s: %v", r.RemoteAddr, err)
	}

	sessionID := uuid.NewString()
	token, err := s.Sessions.CreateToken(sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to create session token: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
	return sessionID, nil
}
