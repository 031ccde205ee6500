package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/csrfkit/core/session"
)

// Store is an in-memory session store safe for concurrent use.
// Sessions are copied on read and write so callers never share state
// with the store. Intended for tests and development.
type Store[Data any] struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]session.Session[Data]
	byToken map[string]uuid.UUID
}

// New creates an empty in-memory session store.
func New[Data any]() *Store[Data] {
	return &Store[Data]{
		byID:    make(map[uuid.UUID]session.Session[Data]),
		byToken: make(map[string]uuid.UUID),
	}
}

// GetByID returns a copy of the session with the given ID.
func (s *Store[Data]) GetByID(ctx context.Context, id uuid.UUID) (*session.Session[Data], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.byID[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return &sess, nil
}

// GetByToken returns a copy of the session with the given token.
func (s *Store[Data]) GetByToken(ctx context.Context, token string) (*session.Session[Data], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byToken[token]
	if !ok {
		return nil, session.ErrNotFound
	}
	sess, ok := s.byID[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return &sess, nil
}

// Save stores a copy of the session, reindexing the token if it rotated.
func (s *Store[Data]) Save(ctx context.Context, sess *session.Session[Data]) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.byID[sess.ID]; ok && prev.Token != sess.Token {
		delete(s.byToken, prev.Token)
	}

	s.byID[sess.ID] = *sess
	s.byToken[sess.Token] = sess.ID
	return nil
}

// Delete removes a session and its token index entry.
func (s *Store[Data]) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byID[id]
	if !ok {
		return session.ErrNotFound
	}
	delete(s.byToken, sess.Token)
	delete(s.byID, id)
	return nil
}

// DeleteExpired removes all expired sessions and returns the count.
func (s *Store[Data]) DeleteExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var count int64
	for id, sess := range s.byID {
		if now.After(sess.ExpiresAt) {
			delete(s.byToken, sess.Token)
			delete(s.byID, id)
			count++
		}
	}
	return count, nil
}
