package sessiontransport

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/csrfkit/core/cookie"
	"github.com/dmitrymomot/csrfkit/core/session"
)

// Cookie provides HTTP cookie-based session transport.
// It stores Session.Token as the cookie value (signed via cookie.Manager)
// and exposes the session's CSRF token to the middleware layer.
type Cookie[Data any] struct {
	manager   *session.Manager[Data]
	cookieMgr *cookie.Manager
	name      string
}

// NewCookie creates a new cookie-based session transport.
func NewCookie[Data any](mgr *session.Manager[Data], cookieMgr *cookie.Manager, name string) *Cookie[Data] {
	return &Cookie[Data]{
		manager:   mgr,
		cookieMgr: cookieMgr,
		name:      name,
	}
}

// Load resolves the session for the request. A missing, invalid, or
// expired cookie degrades gracefully: a fresh anonymous session is
// created, persisted, and its cookie written to w.
func (c *Cookie[Data]) Load(w http.ResponseWriter, r *http.Request) (session.Session[Data], error) {
	if token, err := c.cookieMgr.GetSigned(r, c.name); err == nil {
		if sess, err := c.manager.GetByToken(r.Context(), token); err == nil {
			return sess, nil
		}
	}

	sess, err := c.manager.New(r.Context(), session.NewSessionParams{
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		return session.Session[Data]{}, err
	}

	if err := c.writeCookie(w, sess); err != nil {
		return session.Session[Data]{}, err
	}

	return sess, nil
}

// Save persists the session through the manager and refreshes the signed
// cookie so the client's MaxAge stays synchronized with server-side
// expiration.
func (c *Cookie[Data]) Save(w http.ResponseWriter, r *http.Request, sess session.Session[Data]) error {
	if err := c.manager.Store(r.Context(), sess); err != nil {
		return err
	}
	if sess.IsDeleted() {
		c.cookieMgr.Delete(w, c.name)
		return nil
	}
	return c.writeCookie(w, sess)
}

// Authenticate marks the current session as belonging to userID, rotating
// both the session token and the CSRF token, and re-issues the cookie.
func (c *Cookie[Data]) Authenticate(w http.ResponseWriter, r *http.Request, userID uuid.UUID) (session.Session[Data], error) {
	currentSess, err := c.Load(w, r)
	if err != nil {
		return session.Session[Data]{}, err
	}

	authSess, err := c.manager.Authenticate(r.Context(), currentSess, userID)
	if err != nil {
		return session.Session[Data]{}, err
	}

	if err := c.writeCookie(w, authSess); err != nil {
		return session.Session[Data]{}, err
	}

	return authSess, nil
}

// Logout replaces the current session with a fresh anonymous one and
// re-issues the cookie. The replacement carries fresh tokens.
func (c *Cookie[Data]) Logout(w http.ResponseWriter, r *http.Request) (session.Session[Data], error) {
	currentSess, err := c.Load(w, r)
	if err != nil {
		return session.Session[Data]{}, err
	}

	anonSess, err := c.manager.Logout(r.Context(), currentSess)
	if err != nil {
		return session.Session[Data]{}, err
	}

	if err := c.writeCookie(w, anonSess); err != nil {
		return session.Session[Data]{}, err
	}

	return anonSess, nil
}

// Delete removes the session from the store and expires the cookie.
func (c *Cookie[Data]) Delete(w http.ResponseWriter, r *http.Request) error {
	currentSess, err := c.Load(w, r)
	if err != nil {
		return err
	}

	if err := c.manager.Delete(r.Context(), currentSess.ID); err != nil {
		return err
	}

	c.cookieMgr.Delete(w, c.name)
	return nil
}

// CurrentToken returns the CSRF token for the request's session, creating
// session and token as needed. It implements the middleware TokenProvider
// contract and backs form/meta-tag helpers in application code.
func (c *Cookie[Data]) CurrentToken(w http.ResponseWriter, r *http.Request) (string, error) {
	sess, err := c.Load(w, r)
	if err != nil {
		return "", err
	}
	return c.manager.CSRFToken(r.Context(), &sess)
}

// RegenerateToken forces a new CSRF token for the request's session.
func (c *Cookie[Data]) RegenerateToken(w http.ResponseWriter, r *http.Request) (string, error) {
	sess, err := c.Load(w, r)
	if err != nil {
		return "", err
	}
	return c.manager.RegenerateCSRF(r.Context(), &sess)
}

func (c *Cookie[Data]) writeCookie(w http.ResponseWriter, sess session.Session[Data]) error {
	until := time.Until(sess.ExpiresAt)
	if until <= 0 {
		return fmt.Errorf("cannot save expired session (expired %v ago)", -until)
	}

	return c.cookieMgr.SetSigned(w, c.name, sess.Token,
		cookie.WithHTTPOnly(true),
		cookie.WithSameSite(http.SameSiteLaxMode),
		cookie.WithMaxAge(int(until.Seconds())),
	)
}

// clientIP extracts the client address, preferring the leftmost
// X-Forwarded-For entry, then X-Real-IP, then RemoteAddr.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		if ip := net.ParseIP(strings.TrimSpace(real)); ip != nil {
			return ip.String()
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
