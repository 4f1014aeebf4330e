// Package auth owns the session token lifecycle: login, the background
// refresh cycle, and teardown when the server stops honoring the token.
package auth

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/robfig/cron/v3"

	"github.com/sadopc/mealdeck/internal/api"
	"github.com/sadopc/mealdeck/internal/store"
)

// defaultRefreshInterval is used when the token's expiry can't be read.
// It must stay comfortably below the server's token lifetime.
const defaultRefreshInterval = 20 * time.Minute

// Session manages the access token cell. The token lives in the durable
// scope when the user asked to be remembered, in the session scope otherwise;
// the remember preference itself is always durable.
type Session struct {
	client   *api.Client
	token    *store.Cell[string]
	remember *store.Cell[bool]
	durable  store.Scope
	session  store.Scope

	onExpired func()

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
}

func NewSession(client *api.Client, token *store.Cell[string], remember *store.Cell[bool], durable, session store.Scope) *Session {
	return &Session{
		client:   client,
		token:    token,
		remember: remember,
		durable:  durable,
		session:  session,
		cron:     cron.New(),
	}
}

// SetOnExpired registers the handler that runs when the session is torn down
// involuntarily (refresh failure or irrecoverable 401).
func (s *Session) SetOnExpired(fn func()) {
	s.onExpired = fn
}

func (s *Session) LoggedIn() bool {
	return s.token.Get() != ""
}

// Login exchanges credentials for a token, stores the remember preference,
// moves the token cell into the matching scope and starts the refresh cycle.
func (s *Session) Login(ctx context.Context, email, password string, remember bool) error {
	tok, err := s.client.Login(ctx, email, password, remember)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	s.remember.Set(remember)
	if remember {
		s.token.Rebind(s.durable)
	} else {
		s.token.Rebind(s.session)
	}
	s.token.Set(tok)
	s.Start()
	return nil
}

// Refresh trades the current token for a fresh one, reporting success. The
// gateway uses this as its 401 recovery callback.
func (s *Session) Refresh(ctx context.Context) bool {
	tok, err := s.client.RefreshToken(ctx)
	if err != nil {
		log.Printf("token refresh failed: %v", err)
		return false
	}
	s.token.Set(tok)
	s.reschedule()
	return true
}

// Start begins (or restarts) the background refresh cycle. Called on login
// and on startup when a persisted token is present.
func (s *Session) Start() {
	if !s.LoggedIn() {
		return
	}
	s.reschedule()
	s.cron.Start()
}

// Logout clears the token everywhere and stops the refresh cycle.
func (s *Session) Logout() {
	s.mu.Lock()
	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
		s.entryID = 0
	}
	s.mu.Unlock()
	s.token.Set("")
	s.token.Clear(s.durable, s.session)
}

// Expire tears the session down and notifies, for use when the server has
// stopped honoring the token.
func (s *Session) Expire() {
	s.Logout()
	if s.onExpired != nil {
		s.onExpired()
	}
}

func (s *Session) reschedule() {
	interval := refreshInterval(s.token.Get(), time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
	}
	id, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), s.refreshJob)
	if err != nil {
		log.Printf("schedule refresh: %v", err)
		return
	}
	s.entryID = id
}

func (s *Session) refreshJob() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if !s.Refresh(ctx) {
		s.Expire()
	}
}

// refreshInterval derives the refresh period from the token's exp claim:
// half the remaining lifetime, clamped to [1m, defaultRefreshInterval].
// Tokens that don't parse as JWTs use the default.
func refreshInterval(token string, now time.Time) time.Duration {
	if token == "" {
		return defaultRefreshInterval
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return defaultRefreshInterval
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return defaultRefreshInterval
	}
	half := exp.Time.Sub(now) / 2
	if half > defaultRefreshInterval {
		return defaultRefreshInterval
	}
	if half < time.Minute {
		return time.Minute
	}
	return half
}
