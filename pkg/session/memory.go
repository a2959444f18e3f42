package session

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/meshmap/pkg/errors"
)

// MemoryStore keeps sessions in process memory. Pointer slots of deleted
// sessions are reused.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	free     []int
	next     int
	now      func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		next:     1, // slot 0 belongs to local input such as the terminal UI
		now:      time.Now,
	}
}

// Create starts a session.
func (s *MemoryStore) Create(_ context.Context, ttl time.Duration) (*Session, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	slot := s.next
	if n := len(s.free); n > 0 {
		slot = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		s.next++
	}

	now := s.now()
	sess := &Session{
		ID:        GenerateID(),
		Slot:      slot,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	s.sessions[sess.ID] = sess
	cp := *sess
	return &cp, nil
}

// Get returns a copy of the session, or nil if it is unknown or expired.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok || sess.expiredAt(s.now()) {
		return nil, nil
	}
	cp := *sess
	return &cp, nil
}

// Touch extends the session.
func (s *MemoryStore) Touch(_ context.Context, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok || sess.expiredAt(s.now()) {
		return errors.New(errors.ErrCodeNotFound, "session %s not found", sessionID)
	}
	sess.ExpiresAt = s.now().Add(ttl)
	return nil
}

// Delete removes the session and frees its slot.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(sessionID)
	return nil
}

// Cleanup drops expired sessions.
func (s *MemoryStore) Cleanup(context.Context) ([]*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var expired []*Session
	for id, sess := range s.sessions {
		if sess.expiredAt(now) {
			expired = append(expired, sess)
			s.remove(id)
		}
	}
	return expired, nil
}

// Len returns the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *MemoryStore) remove(id string) {
	if sess, ok := s.sessions[id]; ok {
		delete(s.sessions, id)
		s.free = append(s.free, sess.Slot)
	}
}
