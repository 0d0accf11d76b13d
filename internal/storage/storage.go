package storage

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eugenenazirov/box-packer/internal/packing"
)

const (
	defaultMaxItems    = 200
	defaultMaxSessions = 1000
)

var (
	// ErrSessionNotFound indicates the session id is unknown or was deleted.
	ErrSessionNotFound = errors.New("session not found")
	// ErrItemNotFound indicates the session holds no item with the given name.
	ErrItemNotFound = errors.New("item not found")
	// ErrSessionFull indicates the session reached its item limit.
	ErrSessionFull = errors.New("session item limit reached")
	// ErrTooManySessions indicates the store reached its session limit.
	ErrTooManySessions = errors.New("session limit reached")
)

// Session is a snapshot of the items a user collected before packing.
type Session struct {
	ID        string             `json:"id"`
	CreatedAt time.Time          `json:"createdAt"`
	Items     []packing.ItemSpec `json:"items"`
}

// Storage keeps item sessions between requests.
type Storage interface {
	CreateSession() (Session, error)
	GetSession(id string) (Session, error)
	DeleteSession(id string) error
	AddItem(id string, item packing.ItemSpec) (Session, error)
	RemoveItem(id, name string) (Session, error)
	ClearItems(id string) (Session, error)
}

type session struct {
	createdAt time.Time
	items     []packing.ItemSpec
}

// MemoryStorage keeps sessions in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu          sync.RWMutex
	sessions    map[string]*session
	maxItems    int
	maxSessions int
	now         func() time.Time
	newID       func() string
}

// Option configures a MemoryStorage.
type Option func(*MemoryStorage)

// WithMaxItems bounds the number of items a single session may hold.
func WithMaxItems(n int) Option {
	return func(s *MemoryStorage) {
		if n > 0 {
			s.maxItems = n
		}
	}
}

// WithMaxSessions bounds the number of live sessions.
func WithMaxSessions(n int) Option {
	return func(s *MemoryStorage) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithClock overrides the session creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStorage) {
		s.now = now
	}
}

// NewMemoryStorage creates an empty session store.
func NewMemoryStorage(opts ...Option) *MemoryStorage {
	s := &MemoryStorage{
		sessions:    make(map[string]*session),
		maxItems:    defaultMaxItems,
		maxSessions: defaultMaxSessions,
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession registers a new empty session.
func (s *MemoryStorage) CreateSession() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sessions) >= s.maxSessions {
		return Session{}, ErrTooManySessions
	}

	id := s.newID()
	sess := &session{createdAt: s.now().UTC()}
	s.sessions[id] = sess
	return snapshot(id, sess), nil
}

// GetSession returns a defensive copy of the session.
func (s *MemoryStorage) GetSession(id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return snapshot(id, sess), nil
}

// DeleteSession drops the session and its items.
func (s *MemoryStorage) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

// AddItem validates the item and appends it to the session. Item names are
// unique within a session.
func (s *MemoryStorage) AddItem(id string, item packing.ItemSpec) (Session, error) {
	if err := packing.ValidateItem(item); err != nil {
		return Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if slices.ContainsFunc(sess.items, func(it packing.ItemSpec) bool { return it.Name == item.Name }) {
		return Session{}, &packing.ValidationError{Field: item.Name, Err: packing.ErrDuplicateItem}
	}
	if len(sess.items) >= s.maxItems {
		return Session{}, fmt.Errorf("%w: %d items", ErrSessionFull, s.maxItems)
	}

	sess.items = append(sess.items, item)
	return snapshot(id, sess), nil
}

// RemoveItem deletes the named item from the session.
func (s *MemoryStorage) RemoveItem(id, name string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	idx := slices.IndexFunc(sess.items, func(it packing.ItemSpec) bool { return it.Name == name })
	if idx < 0 {
		return Session{}, ErrItemNotFound
	}

	sess.items = slices.Delete(sess.items, idx, idx+1)
	return snapshot(id, sess), nil
}

// ClearItems empties the session but keeps it alive.
func (s *MemoryStorage) ClearItems(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	sess.items = nil
	return snapshot(id, sess), nil
}

func snapshot(id string, sess *session) Session {
	items := make([]packing.ItemSpec, len(sess.items))
	copy(items, sess.items)
	return Session{ID: id, CreatedAt: sess.createdAt, Items: items}
}
