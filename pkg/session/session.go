// Package session tracks the viewers of a live map.
//
// Every browser tab that talks to the server gets a [Session]. The session
// owns a block of pointer IDs so that pointers of different viewers never
// collide inside the shared scene: two people can drag two nodes at once.
//
// # Usage
//
//	store := session.NewMemoryStore()
//	sess, err := store.Create(ctx, session.DefaultTTL)
//	id := sess.Pointer(ev.PointerID) // scene-wide pointer ID
//
// Sessions expire after their TTL unless touched. [Store.Cleanup] returns
// the sessions it dropped so the caller can cancel their pointers.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Default durations.
const (
	// DefaultTTL is how long an idle viewer keeps its session.
	DefaultTTL = 10 * time.Minute
)

// PointerSpan is the number of pointer IDs reserved per session. Client
// pointer IDs are folded into this range.
const PointerSpan = 64

// Session stores one viewer's state.
type Session struct {
	ID        string    `json:"id"`
	Slot      int       `json:"slot"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return s.expiredAt(time.Now())
}

func (s *Session) expiredAt(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Pointer maps a client pointer ID into the session's block.
func (s *Session) Pointer(local int) int {
	off := local % PointerSpan
	if off < 0 {
		off = -off
	}
	return s.Slot*PointerSpan + off
}

// Pointers returns every scene pointer ID the session may use.
func (s *Session) Pointers() []int {
	ids := make([]int, PointerSpan)
	for i := range ids {
		ids[i] = s.Slot*PointerSpan + i
	}
	return ids
}

// Store is the interface for session storage backends.
type Store interface {
	// Create starts a session with a fresh ID and pointer block.
	Create(ctx context.Context, ttl time.Duration) (*Session, error)

	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Touch extends a session's expiry by ttl from now.
	Touch(ctx context.Context, sessionID string, ttl time.Duration) error

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error

	// Cleanup removes expired sessions and returns them.
	Cleanup(ctx context.Context) ([]*Session, error)
}

// GenerateID creates a random session ID.
func GenerateID() string {
	return uuid.NewString()
}
