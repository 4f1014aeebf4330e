package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sadopc/mealdeck/internal/api"
	"github.com/sadopc/mealdeck/internal/store"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()})
	s, err := tok.SignedString([]byte("test-key"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// ============================================================
// Refresh interval
// ============================================================

func TestRefreshIntervalHalvesRemainingLifetime(t *testing.T) {
	now := time.Now()
	tok := signedToken(t, now.Add(20*time.Minute))
	got := refreshInterval(tok, now)
	if got < 9*time.Minute || got > 11*time.Minute {
		t.Fatalf("expected ~10m, got %v", got)
	}
}

func TestRefreshIntervalClampedToDefault(t *testing.T) {
	now := time.Now()
	tok := signedToken(t, now.Add(24*time.Hour))
	if got := refreshInterval(tok, now); got != defaultRefreshInterval {
		t.Fatalf("expected cap at %v, got %v", defaultRefreshInterval, got)
	}
}

func TestRefreshIntervalFloorOneMinute(t *testing.T) {
	now := time.Now()
	tok := signedToken(t, now.Add(30*time.Second))
	if got := refreshInterval(tok, now); got != time.Minute {
		t.Fatalf("expected 1m floor, got %v", got)
	}
}

func TestRefreshIntervalOpaqueTokenUsesDefault(t *testing.T) {
	if got := refreshInterval("not-a-jwt", time.Now()); got != defaultRefreshInterval {
		t.Fatalf("expected default, got %v", got)
	}
	if got := refreshInterval("", time.Now()); got != defaultRefreshInterval {
		t.Fatalf("expected default for empty token, got %v", got)
	}
}

// ============================================================
// Session lifecycle
// ============================================================

func newTestSession(t *testing.T, handler http.Handler) (*Session, *store.Cell[string], *store.SessionScope, *store.SessionScope) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	durable := store.NewSessionScope()
	sess := store.NewSessionScope()
	token := store.NewCachedCell[string](sess, store.KeyToken, "")
	remember := store.NewCachedCell(durable, store.KeyRemember, false)

	client := api.NewClient(srv.URL, token.Get)
	s := NewSession(client, token, remember, durable, sess)
	return s, token, durable, sess
}

func TestLoginStoresTokenInDurableScopeWhenRemembered(t *testing.T) {
	s, token, durable, _ := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1"})
	}))

	if err := s.Login(context.Background(), "a@b.c", "pw", true); err != nil {
		t.Fatal(err)
	}
	if !s.LoggedIn() || token.Get() != "tok-1" {
		t.Fatalf("unexpected token state: %q", token.Get())
	}
	if raw, ok := durable.Load(store.KeyToken); !ok || string(raw) != `"tok-1"` {
		t.Fatalf("remembered token should be durable: %q %v", raw, ok)
	}
}

func TestLoginKeepsTokenInSessionScopeOtherwise(t *testing.T) {
	s, _, durable, sess := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1"})
	}))

	if err := s.Login(context.Background(), "a@b.c", "pw", false); err != nil {
		t.Fatal(err)
	}
	if _, ok := durable.Load(store.KeyToken); ok {
		t.Fatal("non-remembered token must not be durable")
	}
	if raw, ok := sess.Load(store.KeyToken); !ok || string(raw) != `"tok-1"` {
		t.Fatalf("token should live in the session scope: %q %v", raw, ok)
	}
}

func TestLogoutPurgesBothScopes(t *testing.T) {
	s, token, durable, sess := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1"})
	}))

	s.Login(context.Background(), "a@b.c", "pw", true)
	s.Logout()

	if s.LoggedIn() || token.Get() != "" {
		t.Fatal("token should be cleared")
	}
	if _, ok := durable.Load(store.KeyToken); ok {
		t.Fatal("durable scope should be purged")
	}
	if _, ok := sess.Load(store.KeyToken); ok {
		t.Fatal("session scope should be purged")
	}
}

func TestExpireNotifies(t *testing.T) {
	s, _, _, _ := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1"})
	}))

	expired := false
	s.SetOnExpired(func() { expired = true })
	s.Login(context.Background(), "a@b.c", "pw", false)
	s.Expire()
	if !expired {
		t.Fatal("expected expiry callback")
	}
	if s.LoggedIn() {
		t.Fatal("session should be torn down")
	}
}

func TestRefreshUpdatesToken(t *testing.T) {
	s, token, _, _ := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/token":
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1"})
		case "/api/auth/refresh":
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-2"})
		}
	}))

	s.Login(context.Background(), "a@b.c", "pw", false)
	if !s.Refresh(context.Background()) {
		t.Fatal("refresh should succeed")
	}
	if token.Get() != "tok-2" {
		t.Fatalf("expected rotated token, got %q", token.Get())
	}
}

func TestRefreshFailureReportsFalse(t *testing.T) {
	s, _, _, _ := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	if s.Refresh(context.Background()) {
		t.Fatal("refresh against a 401 should fail")
	}
}
