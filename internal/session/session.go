// Package session stores the per-browser application state: the signed-in
// user, the cart and the resume-checkout-after-login flag.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

var ErrNotFound = errors.New("session not found")

type Session struct {
	ID                 string            `json:"id"`
	UserID             string            `json:"user_id,omitempty"`
	Cart               []domain.CartLine `json:"cart,omitempty"`
	CheckoutAfterLogin bool              `json:"checkout_after_login,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
}

// New returns an empty session with a fresh id.
func New() *Session {
	return &Session{ID: uuid.NewString(), CreatedAt: time.Now().UTC()}
}

func (s *Session) Authenticated() bool { return s.UserID != "" }

// Clone copies the cart lines so stored and working sessions never alias.
func (s *Session) Clone() *Session {
	cp := *s
	if s.Cart != nil {
		cp.Cart = make([]domain.CartLine, len(s.Cart))
		copy(cp.Cart, s.Cart)
	}
	return &cp
}

type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps sessions in process memory; expired entries are dropped on read.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]memoryEntry
}

type memoryEntry struct {
	session   *Session
	expiresAt time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store; ttl <= 0 keeps sessions forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, sessions: make(map[string]memoryEntry)}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !e.expiresAt.IsZero() && m.now().After(e.expiresAt) {
		delete(m.sessions, id)
		return nil, ErrNotFound
	}
	return e.session.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memoryEntry{session: s.Clone()}
	if m.ttl > 0 {
		e.expiresAt = m.now().Add(m.ttl)
	}
	m.sessions[s.ID] = e
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
