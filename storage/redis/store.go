package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/csrfkit/core/session"
)

const defaultKeyPrefix = "csrfkit"

// Store is a Redis-backed session store. Sessions are stored as JSON
// blobs keyed by ID, with a secondary token-to-ID index. Both keys expire
// with the session, so Redis handles expiration natively.
type Store[Data any] struct {
	client redis.UniversalClient
	prefix string
}

// StoreOption configures the Store.
type StoreOption[Data any] func(*Store[Data])

// WithKeyPrefix overrides the key namespace (default "csrfkit").
func WithKeyPrefix[Data any](prefix string) StoreOption[Data] {
	return func(s *Store[Data]) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewStore creates a Redis-backed session store on an established client.
func NewStore[Data any](client redis.UniversalClient, opts ...StoreOption[Data]) *Store[Data] {
	s := &Store[Data]{
		client: client,
		prefix: defaultKeyPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store[Data]) sessionKey(id uuid.UUID) string {
	return fmt.Sprintf("%s:session:%s", s.prefix, id)
}

func (s *Store[Data]) tokenKey(token string) string {
	return fmt.Sprintf("%s:token:%s", s.prefix, token)
}

// GetByID fetches and decodes a session by ID.
func (s *Store[Data]) GetByID(ctx context.Context, id uuid.UUID) (*session.Session[Data], error) {
	raw, err := s.client.Get(ctx, s.sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("redis store: get session %s: %w", id, err)
	}

	var record sessionRecord[Data]
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("redis store: decode session %s: %w", id, err)
	}

	sess := record.session()
	return &sess, nil
}

// GetByToken resolves the token index, then fetches the session.
func (s *Store[Data]) GetByToken(ctx context.Context, token string) (*session.Session[Data], error) {
	rawID, err := s.client.Get(ctx, s.tokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("redis store: resolve token: %w", err)
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("redis store: corrupt token index: %w", err)
	}

	return s.GetByID(ctx, id)
}

// Save encodes and stores the session. Both keys receive a TTL matching
// the session expiry; a rotated token removes the stale index entry in
// the same transaction.
func (s *Store[Data]) Save(ctx context.Context, sess *session.Session[Data]) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return session.ErrExpired
	}

	raw, err := json.Marshal(newSessionRecord(sess))
	if err != nil {
		return fmt.Errorf("redis store: encode session %s: %w", sess.ID, err)
	}

	// Fetch the previous token before writing so rotation can drop the
	// old index entry.
	var staleToken string
	if prev, err := s.GetByID(ctx, sess.ID); err == nil && prev.Token != sess.Token {
		staleToken = prev.Token
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.sessionKey(sess.ID), raw, ttl)
	pipe.Set(ctx, s.tokenKey(sess.Token), sess.ID.String(), ttl)
	if staleToken != "" {
		pipe.Del(ctx, s.tokenKey(staleToken))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis store: save session %s: %w", sess.ID, err)
	}
	return nil
}

// Delete removes the session and its token index entry.
func (s *Store[Data]) Delete(ctx context.Context, id uuid.UUID) error {
	sess, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.sessionKey(id))
	pipe.Del(ctx, s.tokenKey(sess.Token))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis store: delete session %s: %w", id, err)
	}
	return nil
}

// DeleteExpired is a no-op for Redis: keys carry TTLs and expire natively.
func (s *Store[Data]) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

// sessionRecord is the wire form of a session. It exists so the JSON
// layout is explicit and stable regardless of Session field changes.
type sessionRecord[Data any] struct {
	ID        uuid.UUID `json:"id"`
	Token     string    `json:"token"`
	CSRFToken string    `json:"csrf_token"`
	UserID    uuid.UUID `json:"user_id"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Data      Data      `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newSessionRecord[Data any](sess *session.Session[Data]) sessionRecord[Data] {
	return sessionRecord[Data]{
		ID:        sess.ID,
		Token:     sess.Token,
		CSRFToken: sess.CSRFToken,
		UserID:    sess.UserID,
		IP:        sess.IP,
		UserAgent: sess.UserAgent,
		Data:      sess.Data,
		ExpiresAt: sess.ExpiresAt,
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
	}
}

func (r sessionRecord[Data]) session() session.Session[Data] {
	return session.Session[Data]{
		ID:        r.ID,
		Token:     r.Token,
		CSRFToken: r.CSRFToken,
		UserID:    r.UserID,
		IP:        r.IP,
		UserAgent: r.UserAgent,
		Data:      r.Data,
		ExpiresAt: r.ExpiresAt,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
