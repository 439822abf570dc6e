package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestSessionManager() *SessionManager {
	return NewSessionManager("session-secret", 30*time.Minute, CookieSettings{})
}

// requestWithCookies builds a request carrying the cookies a recorder wrote.
func requestWithCookies(rec *httptest.ResponseRecorder, target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestSessionManager_TokenRoundTrip(t *testing.T) {
	sm := newTestSessionManager()

	rec := httptest.NewRecorder()
	if err := sm.SetToken(rec, httptest.NewRequest(http.MethodPost, "/login", nil), "tok-abc"); err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}

	token, ok := sm.Token(requestWithCookies(rec, "/me"))
	if !ok {
		t.Fatal("expected token in session")
	}
	if token != "tok-abc" {
		t.Errorf("expected tok-abc, got %q", token)
	}
}

func TestSessionManager_NoCookie(t *testing.T) {
	sm := newTestSessionManager()

	if _, ok := sm.Token(httptest.NewRequest(http.MethodGet, "/me", nil)); ok {
		t.Error("expected no token without a cookie")
	}
}

func TestSessionManager_TamperedCookie(t *testing.T) {
	sm := newTestSessionManager()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionName, Value: "forged-value"})

	if _, ok := sm.Token(req); ok {
		t.Error("expected tampered cookie to be rejected")
	}
}

func TestSessionManager_WrongSecretRejected(t *testing.T) {
	issuer := NewSessionManager("secret-a", 30*time.Minute, CookieSettings{})
	reader := NewSessionManager("secret-b", 30*time.Minute, CookieSettings{})

	rec := httptest.NewRecorder()
	if err := issuer.SetToken(rec, httptest.NewRequest(http.MethodPost, "/login", nil), "tok-abc"); err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}

	if _, ok := reader.Token(requestWithCookies(rec, "/me")); ok {
		t.Error("expected cookie signed with another secret to be rejected")
	}
}

func TestSessionManager_Clear(t *testing.T) {
	sm := newTestSessionManager()

	rec := httptest.NewRecorder()
	if err := sm.SetToken(rec, httptest.NewRequest(http.MethodPost, "/login", nil), "tok-abc"); err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}

	clearRec := httptest.NewRecorder()
	if err := sm.Clear(clearRec, requestWithCookies(rec, "/logout")); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	var cleared bool
	for _, c := range clearRec.Result().Cookies() {
		if c.Name == SessionName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected Clear to expire the session cookie")
	}
}
