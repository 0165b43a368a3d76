package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	// CookieName is the name of the chat session cookie
	CookieName = "confidante_session"
	// SessionHeader carries the session ID for clients without cookies
	SessionHeader = "X-Session-Id"
	// CookieMaxAge bounds the cookie; the store expires idle sessions sooner
	CookieMaxAge = 24 * time.Hour
)

// SetSessionCookie sets an HTTP-only session cookie. It is marked Secure for
// TLS requests or when forced by configuration.
func SetSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(CookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure || r.TLS != nil,
	})
}

// getSessionID reads the session ID from the cookie, then the header.
// Values that are not UUIDs are ignored.
func getSessionID(r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil {
		if _, err := uuid.Parse(cookie.Value); err == nil {
			return cookie.Value
		}
	}
	if sid := r.Header.Get(SessionHeader); sid != "" {
		if _, err := uuid.Parse(sid); err == nil {
			return sid
		}
	}
	return ""
}

// getOrCreateSessionID returns the caller's session ID, issuing a new one and
// setting the cookie when there is none. The ID is echoed in a header.
func (s *Server) getOrCreateSessionID(w http.ResponseWriter, r *http.Request) string {
	sid := getSessionID(r)
	if sid == "" {
		sid = uuid.NewString()
		SetSessionCookie(w, r, sid, s.cfg.CookieSecure)
	}
	w.Header().Set(SessionHeader, sid)
	return sid
}
