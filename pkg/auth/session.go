package auth

import (
	"crypto/sha256"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

// SessionName is the name of the browser session cookie.
const SessionName = "smartbiz_session"

// sessionKeyToken is the session value holding the access token.
const sessionKeyToken = "token"

// SessionManager wraps a signed cookie store carrying the access token for
// browser clients. API clients use the Authorization header instead and
// never touch the session.
type SessionManager struct {
	store *sessions.CookieStore
}

// NewSessionManager builds a session manager. The secret can be any
// passphrase; it is SHA-256 hashed to derive a stable 32-byte signing key,
// so it must be consistent across restarts and replicas. maxAge should
// match the access-token lifetime. Settings come from DeriveCookieSettings.
func NewSessionManager(secret string, maxAge time.Duration, settings CookieSettings) *SessionManager {
	key := sha256.Sum256([]byte(secret))

	store := sessions.NewCookieStore(key[:])
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   settings.Domain,
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   settings.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{store: store}
}

// SetToken stores the access token in the session cookie.
func (m *SessionManager) SetToken(w http.ResponseWriter, r *http.Request, token string) error {
	session, err := m.store.Get(r, SessionName)
	if err != nil {
		// A tampered or stale cookie decodes to a fresh session; keep going.
		session, _ = m.store.New(r, SessionName)
	}
	session.Values[sessionKeyToken] = token
	return session.Save(r, w)
}

// Token retrieves the access token from the session cookie, if present.
func (m *SessionManager) Token(r *http.Request) (string, bool) {
	session, err := m.store.Get(r, SessionName)
	if err != nil {
		return "", false
	}
	token, ok := session.Values[sessionKeyToken].(string)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// Clear expires the session cookie.
func (m *SessionManager) Clear(w http.ResponseWriter, r *http.Request) error {
	session, err := m.store.Get(r, SessionName)
	if err != nil {
		session, _ = m.store.New(r, SessionName)
	}
	delete(session.Values, sessionKeyToken)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}
