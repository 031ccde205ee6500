package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/csrfkit/core/csrf"
)

// Session represents a user session with generic data storage.
// The Data type parameter allows custom session data structures specific
// to your application.
//
// Each session owns exactly one CSRF token at a time. The token is
// created with the session and replaced whenever the session crosses an
// authentication boundary (Authenticate, Logout via replacement) or is
// explicitly refreshed.
type Session[Data any] struct {
	// ID is the stable unique session identifier that never changes
	// during the session lifecycle.
	ID uuid.UUID

	// Token is the cryptographically secure session token (32 bytes
	// base64url) used as the signed cookie value.
	Token string

	// CSRFToken is the anti-forgery token bound to this session.
	// Opaque, random, never derived from user input or time.
	CSRFToken string

	// UserID identifies the authenticated user (uuid.Nil for anonymous sessions).
	UserID uuid.UUID

	IP        string
	UserAgent string

	// Data holds custom application-specific session information.
	Data Data

	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt time.Time

	// isModified tracks if the session needs saving
	isModified bool
}

// NewSessionParams contains parameters for creating a new session.
type NewSessionParams struct {
	IP        string
	UserAgent string
}

// New creates a new anonymous session with generated session and CSRF
// tokens. The session is marked as modified and ready to be saved.
func New[Data any](params NewSessionParams, ttl time.Duration) (Session[Data], error) {
	token, err := generateToken()
	if err != nil {
		return Session[Data]{}, errors.Join(ErrTokenGeneration, err)
	}

	csrfToken, err := csrf.Generate()
	if err != nil {
		return Session[Data]{}, err
	}

	now := time.Now()
	return Session[Data]{
		ID:         uuid.New(),
		Token:      token,
		CSRFToken:  csrfToken,
		UserID:     uuid.Nil,
		IP:         params.IP,
		UserAgent:  params.UserAgent,
		Data:       *new(Data),
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
		UpdatedAt:  now,
		isModified: true,
	}, nil
}

// Authenticate marks the session as belonging to userID. Both the session
// token and the CSRF token are rotated while the session ID is preserved,
// preventing fixation of either value across the login boundary.
// Optional data parameter sets session data.
func (s *Session[Data]) Authenticate(userID uuid.UUID, data ...Data) error {
	if err := s.rotateTokens(); err != nil {
		return err
	}
	s.UserID = userID
	if len(data) > 0 {
		s.Data = data[0]
	}
	s.UpdatedAt = time.Now()
	s.isModified = true
	return nil
}

// Refresh rotates the session token and CSRF token without changing
// authentication state or session ID. Useful for periodic rotation.
func (s *Session[Data]) Refresh() error {
	if err := s.rotateTokens(); err != nil {
		return err
	}
	s.UpdatedAt = time.Now()
	s.isModified = true
	return nil
}

// Logout marks the session for deletion by setting DeletedAt timestamp.
// The caller replaces it with a fresh anonymous session, which carries a
// fresh CSRF token.
func (s *Session[Data]) Logout() {
	s.DeletedAt = time.Now()
	s.isModified = true
}

// SetData updates the session's custom data.
func (s *Session[Data]) SetData(data Data) {
	s.Data = data
	s.UpdatedAt = time.Now()
	s.isModified = true
}

// Touch extends the session expiration if the touch interval has elapsed.
// This reduces write operations by only updating when sufficient time has passed.
func (s *Session[Data]) Touch(ttl, touchInterval time.Duration) {
	if time.Since(s.UpdatedAt) >= touchInterval {
		s.ExpiresAt = time.Now().Add(ttl)
		s.UpdatedAt = time.Now()
		s.isModified = true
	}
}

// IsAuthenticated returns true if the session has a valid user ID.
func (s Session[Data]) IsAuthenticated() bool {
	return s.UserID != uuid.Nil && s.Token != ""
}

// IsDeleted returns true if the session is marked for deletion.
func (s Session[Data]) IsDeleted() bool {
	return !s.DeletedAt.IsZero()
}

// IsModified returns true if the session has been modified and needs saving.
func (s Session[Data]) IsModified() bool {
	return s.isModified
}

// IsExpired returns true if the session has expired.
func (s Session[Data]) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// rotateTokens generates new session and CSRF tokens while preserving the
// session ID.
func (s *Session[Data]) rotateTokens() error {
	newToken, err := generateToken()
	if err != nil {
		return errors.Join(ErrTokenGeneration, err)
	}
	newCSRF, err := csrf.Generate()
	if err != nil {
		return err
	}
	s.Token = newToken
	s.CSRFToken = newCSRF
	s.isModified = true
	return nil
}

// generateToken creates a cryptographically secure random token using
// 32 bytes (256 bits) encoded as base64 URL-safe string without padding.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
