package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/csrfkit/core/csrf"
)

// Manager handles session lifecycle including creation, retrieval,
// expiration, and the binding between a session and its CSRF token.
// The touchInterval determines how often sessions are automatically
// extended on access, reducing write operations to the store.
type Manager[Data any] struct {
	store         Store[Data]
	ttl           time.Duration
	touchInterval time.Duration

	// csrfGroup deduplicates concurrent lazy CSRF-token creation per
	// session ID so two tabs never mint two different tokens.
	csrfGroup singleflight.Group
}

// NewManager creates a session manager with the specified store,
// time-to-live duration, and touch interval.
func NewManager[Data any](store Store[Data], ttl, touchInterval time.Duration) *Manager[Data] {
	return &Manager[Data]{
		store:         store,
		ttl:           ttl,
		touchInterval: touchInterval,
	}
}

// NewManagerFromConfig creates a session manager from configuration.
func NewManagerFromConfig[Data any](cfg Config, store Store[Data]) *Manager[Data] {
	return NewManager(store, cfg.TTL, cfg.TouchInterval)
}

// New creates and persists a fresh anonymous session.
func (m *Manager[Data]) New(ctx context.Context, params NewSessionParams) (Session[Data], error) {
	sess, err := New[Data](params, m.ttl)
	if err != nil {
		return Session[Data]{}, err
	}
	if err := m.store.Save(ctx, &sess); err != nil {
		return Session[Data]{}, errors.Join(ErrSaveSession, err)
	}
	return sess, nil
}

// GetByID retrieves a session by ID and validates expiration.
func (m *Manager[Data]) GetByID(ctx context.Context, id uuid.UUID) (Session[Data], error) {
	sess, err := m.store.GetByID(ctx, id)
	if err != nil {
		return Session[Data]{}, err
	}

	if sess.IsExpired() {
		return Session[Data]{}, ErrExpired
	}

	return *sess, nil
}

// GetByToken retrieves a session by token and validates expiration.
func (m *Manager[Data]) GetByToken(ctx context.Context, token string) (Session[Data], error) {
	sess, err := m.store.GetByToken(ctx, token)
	if err != nil {
		return Session[Data]{}, err
	}

	if sess.IsExpired() {
		return Session[Data]{}, ErrExpired
	}

	return *sess, nil
}

// Authenticate rotates the session and CSRF tokens for the login boundary
// and persists the authenticated session.
func (m *Manager[Data]) Authenticate(ctx context.Context, sess Session[Data], userID uuid.UUID, data ...Data) (Session[Data], error) {
	if err := sess.Authenticate(userID, data...); err != nil {
		return Session[Data]{}, err
	}
	if err := m.store.Save(ctx, &sess); err != nil {
		return Session[Data]{}, errors.Join(ErrSaveSession, err)
	}
	return sess, nil
}

// Logout deletes the current session and returns a fresh anonymous
// replacement with new tokens, closing the fixation window around the
// logout boundary.
func (m *Manager[Data]) Logout(ctx context.Context, sess Session[Data]) (Session[Data], error) {
	if err := m.store.Delete(ctx, sess.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return Session[Data]{}, errors.Join(ErrDeleteSession, err)
	}
	return m.New(ctx, NewSessionParams{IP: sess.IP, UserAgent: sess.UserAgent})
}

// Delete removes a session from the store.
func (m *Manager[Data]) Delete(ctx context.Context, id uuid.UUID) error {
	if err := m.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return errors.Join(ErrDeleteSession, err)
	}
	return nil
}

// Store handles all session persistence based on session state.
// Deleted sessions are removed; live sessions are touched and saved only
// when modified, keeping store writes proportional to actual changes.
func (m *Manager[Data]) Store(ctx context.Context, sess Session[Data]) error {
	if sess.IsDeleted() {
		if err := m.store.Delete(ctx, sess.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return errors.Join(ErrDeleteSession, err)
		}
		return nil
	}

	sess.Touch(m.ttl, m.touchInterval)

	if sess.IsModified() {
		if err := m.store.Save(ctx, &sess); err != nil {
			return errors.Join(ErrSaveSession, err)
		}
	}

	return nil
}

// CSRFToken returns the session's CSRF token, lazily generating and
// persisting one on first access. Lazy creation re-reads the store and is
// guarded by a per-session singleflight group, so concurrent requests for
// the same session (two tabs) observe a single token. The result is also
// written back to sess.
//
// No value is cached beyond this call: reads after RegenerateCSRF always
// see the new token.
func (m *Manager[Data]) CSRFToken(ctx context.Context, sess *Session[Data]) (string, error) {
	if sess.CSRFToken != "" {
		return sess.CSRFToken, nil
	}

	v, err, _ := m.csrfGroup.Do(sess.ID.String(), func() (any, error) {
		current, err := m.store.GetByID(ctx, sess.ID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if err == nil && current.CSRFToken != "" {
			return current.CSRFToken, nil
		}

		fresh := *sess
		if current != nil {
			fresh = *current
		}

		token, err := csrf.Generate()
		if err != nil {
			return nil, err
		}
		fresh.CSRFToken = token
		fresh.UpdatedAt = time.Now()
		fresh.isModified = true

		if err := m.store.Save(ctx, &fresh); err != nil {
			return nil, errors.Join(ErrSaveSession, err)
		}
		return token, nil
	})
	if err != nil {
		return "", err
	}

	token := v.(string)
	sess.CSRFToken = token
	return token, nil
}

// RegenerateCSRF forces a new CSRF token for the session and persists it
// immediately, invalidating the previous one. Call it whenever the session
// itself is regenerated outside Authenticate/Logout.
//
// A regenerate racing an in-flight validation resolves as deny: validation
// that read the old token fails against the new one, which is the accepted
// outcome for the narrow rotation window.
func (m *Manager[Data]) RegenerateCSRF(ctx context.Context, sess *Session[Data]) (string, error) {
	token, err := csrf.Generate()
	if err != nil {
		return "", err
	}

	sess.CSRFToken = token
	sess.UpdatedAt = time.Now()
	sess.isModified = true

	if err := m.store.Save(ctx, sess); err != nil {
		return "", errors.Join(ErrSaveSession, err)
	}
	return token, nil
}

// CleanupExpired removes all expired sessions from the store.
// Should be called periodically to prevent session table growth.
func (m *Manager[Data]) CleanupExpired(ctx context.Context) error {
	_, err := m.store.DeleteExpired(ctx)
	return err
}

// GetTTL returns the session time-to-live duration.
func (m *Manager[Data]) GetTTL() time.Duration {
	return m.ttl
}
