// Package session keeps authoring sessions. A session holds the credential the
// admin logged in with; it is the only place that credential lives.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dfryer1193/artblog/blog/domain"
)

const (
	// CookieName is the cookie carrying the session ID.
	CookieName = "artblog_session"
	// PersistentTTL is how long a remembered session lives.
	PersistentTTL = 30 * 24 * time.Hour
	// EphemeralTTL bounds a memory-only session in a long-running process.
	EphemeralTTL = 12 * time.Hour
)

// Session is an authenticated authoring session.
type Session struct {
	ID        string
	Token     string
	Persist   bool
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session has lapsed at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Store is one durability tier of sessions.
type Store interface {
	Save(ctx context.Context, s *Session) error
	// Get returns domain.ErrNotFound for an unknown ID.
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// Verifier checks a credential before a session is issued for it.
type Verifier func(ctx context.Context, token string) error

// ErrUnauthorized is returned when a credential fails verification.
var ErrUnauthorized = errors.New("unauthorized")

// Manager issues and resolves sessions across the memory tier and an optional
// persistent tier.
type Manager struct {
	memory     Store
	persistent Store
	verify     Verifier
	now        func() time.Time
}

// NewManager creates a Manager. persistent may be nil, in which case remembered
// sessions are kept in memory only.
func NewManager(memory Store, persistent Store, verify Verifier) *Manager {
	if memory == nil {
		memory = NewMemoryStore()
	}
	return &Manager{
		memory:     memory,
		persistent: persistent,
		verify:     verify,
		now:        time.Now,
	}
}

// Login verifies token and opens a session for it.
func (m *Manager) Login(ctx context.Context, token string, persist bool) (*Session, error) {
	if token == "" {
		return nil, fmt.Errorf("token is required: %w", ErrUnauthorized)
	}
	if m.verify != nil {
		if err := m.verify(ctx, token); err != nil {
			return nil, fmt.Errorf("failed to verify token: %w: %w", ErrUnauthorized, err)
		}
	}

	now := m.now().UTC()
	s := &Session{
		ID:        uuid.NewString(),
		Token:     token,
		Persist:   persist,
		CreatedAt: now,
		ExpiresAt: now.Add(EphemeralTTL),
	}
	if persist {
		s.ExpiresAt = now.Add(PersistentTTL)
	}

	if err := m.memory.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	if persist && m.persistent != nil {
		if err := m.persistent.Save(ctx, s); err != nil {
			_ = m.memory.Delete(ctx, s.ID)
			return nil, fmt.Errorf("failed to persist session: %w", err)
		}
	}

	log.Info().Str("sessionID", s.ID).Bool("persist", persist).Msg("Opened session")
	return s, nil
}

// Lookup resolves a session ID, checking memory before the persistent tier.
// Sessions found only in the persistent tier are cached in memory.
func (m *Manager) Lookup(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, fmt.Errorf("session: %w", domain.ErrNotFound)
	}

	s, err := m.memory.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) && m.persistent != nil {
		s, err = m.persistent.Get(ctx, id)
		if err == nil {
			if err := m.memory.Save(ctx, s); err != nil {
				log.Warn().Err(err).Str("sessionID", id).Msg("Failed to cache persisted session")
			}
		}
	}
	if err != nil {
		return nil, err
	}

	if s.Expired(m.now()) {
		if err := m.Logout(ctx, id); err != nil {
			log.Warn().Err(err).Str("sessionID", id).Msg("Failed to drop expired session")
		}
		return nil, fmt.Errorf("session %s expired: %w", id, domain.ErrNotFound)
	}

	return s, nil
}

// Logout clears the session from both tiers.
func (m *Manager) Logout(ctx context.Context, id string) error {
	if err := m.memory.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if m.persistent != nil {
		if err := m.persistent.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
	}
	return nil
}

// MemoryStore keeps sessions for the life of the process.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

func (s *MemoryStore) Save(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return &sess, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
