// Package session maps opaque cookie tokens to authenticated users.
//
// A Session is only ever constructed by Manager. Records live in a Store
// (in-memory or Redis) and expire after a fixed TTL; Logout deletes the
// record so a replayed token is treated as unauthenticated.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yukikurage/todo-app/internal/models"
	"github.com/yukikurage/todo-app/internal/utils"
)

// ErrSessionNotFound is returned by stores for unknown or expired tokens.
var ErrSessionNotFound = errors.New("session not found")

// Session is an authenticated browser session.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists sessions keyed by token.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
}

// CredentialVerifier checks a username/password pair.
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, username, password string) (*models.User, error)
}

// Manager issues, resolves and destroys sessions.
type Manager struct {
	store    Store
	verifier CredentialVerifier
	ttl      time.Duration
	now      func() time.Time
}

// NewManager creates a Manager whose sessions live for ttl.
func NewManager(store Store, verifier CredentialVerifier, ttl time.Duration) *Manager {
	return &Manager{
		store:    store,
		verifier: verifier,
		ttl:      ttl,
		now:      time.Now,
	}
}

// TTL returns the lifetime of newly issued sessions.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Login verifies the credentials and issues a new session. Credential
// failures are returned unchanged from the verifier.
func (m *Manager) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := m.verifier.VerifyCredentials(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return m.Issue(ctx, user)
}

// Issue creates a session for an already authenticated user.
func (m *Manager) Issue(ctx context.Context, user *models.User) (*Session, error) {
	token, err := utils.GenerateSessionToken()
	if err != nil {
		return nil, err
	}

	s := &Session{
		Token:     token,
		UserID:    user.ID,
		Username:  user.Username,
		ExpiresAt: m.now().Add(m.ttl),
	}
	if err := m.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return s, nil
}

// Logout invalidates the session immediately.
func (m *Manager) Logout(ctx context.Context, s *Session) error {
	if s == nil {
		return nil
	}
	if err := m.store.Delete(ctx, s.Token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Authenticate resolves a token into a live session. It never fails: missing,
// unknown and expired tokens, as well as store errors, yield nil.
func (m *Manager) Authenticate(ctx context.Context, token string) *Session {
	if token == "" {
		return nil
	}

	s, err := m.store.Get(ctx, token)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			log.Printf("session: lookup failed: %v", err)
		}
		return nil
	}

	if s.Expired(m.now()) {
		if err := m.store.Delete(ctx, token); err != nil {
			log.Printf("session: failed to delete expired session: %v", err)
		}
		return nil
	}

	return s
}
