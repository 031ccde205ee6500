package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/csrfkit/core/cookie"
	"github.com/dmitrymomot/csrfkit/core/csrf"
	"github.com/dmitrymomot/csrfkit/core/logger"
)

// Methods that require CSRF protection. Everything else is treated as
// safe and bypasses validation entirely.
var unsafeMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// csrfTokenKey is used as a key for storing the CSRF token in request context.
type csrfTokenKey struct{}

// TokenProvider supplies the CSRF token bound to the request's session.
// sessiontransport.Cookie implements it.
type TokenProvider interface {
	CurrentToken(w http.ResponseWriter, r *http.Request) (string, error)
}

// CSRFConfig configures the CSRF middleware.
type CSRFConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(r *http.Request) bool

	// Tokens resolves the session-bound CSRF token (required)
	Tokens TokenProvider

	// Cookies encrypts the side-channel cookie and decrypts echoed
	// double-submit headers (required)
	Cookies *cookie.Manager

	// CookieName is the side-channel cookie (default: "XSRF-TOKEN")
	CookieName string
	// HeaderName is the plain token header (default: "X-CSRF-TOKEN")
	HeaderName string
	// CookieHeaderName is the encrypted cookie-echo header (default: "X-XSRF-TOKEN")
	CookieHeaderName string
	// FormField is the hidden form field (default: "_token")
	FormField string

	// ExcludePaths lists exclusion patterns; a malformed pattern fails
	// middleware construction
	ExcludePaths []string

	// CookieMaxAge is the side-channel cookie lifetime in seconds
	// (0 = session cookie)
	CookieMaxAge int

	// TestMode allows every request. Explicit opt-in only; it is never
	// inferred from the environment.
	TestMode bool

	// Logger for structured logging (default: slog with io.Discard)
	Logger *slog.Logger

	// ErrorHandler maps a denial to a response (default: 403 with the
	// reason code; deployments preferring 419 override this)
	ErrorHandler func(w http.ResponseWriter, r *http.Request, decision csrf.Decision)
}

// CSRF creates CSRF middleware with default configuration.
// It panics if tokens or cookies is nil; use CSRFWithConfig to handle
// configuration errors as values.
func CSRF(tokens TokenProvider, cookies *cookie.Manager) func(http.Handler) http.Handler {
	mw, err := CSRFWithConfig(CSRFConfig{Tokens: tokens, Cookies: cookies})
	if err != nil {
		panic(err)
	}
	return mw
}

// CSRFFromConfig creates CSRF middleware from an environment-derived
// csrf.Config.
func CSRFFromConfig(cfg csrf.Config, tokens TokenProvider, cookies *cookie.Manager) (func(http.Handler) http.Handler, error) {
	return CSRFWithConfig(CSRFConfig{
		Tokens:           tokens,
		Cookies:          cookies,
		CookieName:       cfg.CookieName,
		HeaderName:       cfg.HeaderName,
		CookieHeaderName: cfg.CookieHeaderName,
		FormField:        cfg.FormField,
		ExcludePaths:     cfg.ExcludePaths,
		CookieMaxAge:     cfg.CookieMaxAge,
		TestMode:         cfg.TestMode,
	})
}

// CSRFWithConfig creates CSRF middleware with custom configuration.
//
// Per request the middleware walks a fixed state machine:
// method check, exclusion check, token validation. Safe methods and
// excluded paths pass without a token. State-changing requests must
// present the session's token through one of the three channels (form
// field, plain header, encrypted cookie-echo header). On success the
// token is stored in the request context, the encrypted side-channel
// cookie is refreshed, and the downstream handler runs. On denial the
// request is aborted before the downstream handler.
func CSRFWithConfig(cfg CSRFConfig) (func(http.Handler) http.Handler, error) {
	if cfg.Tokens == nil {
		return nil, ErrMissingTokenProvider
	}
	if cfg.Cookies == nil {
		return nil, ErrMissingCookieManager
	}
	if cfg.CookieName == "" {
		cfg.CookieName = csrf.DefaultCookieName
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}

	// Exclusion patterns are process-wide configuration: validate once,
	// fail construction on the first malformed pattern.
	matcher, err := csrf.NewMatcher(cfg.ExcludePaths...)
	if err != nil {
		return nil, err
	}

	validator := csrf.NewValidator(cfg.FormField, cfg.HeaderName, cfg.CookieHeaderName, cfg.Cookies.DecryptValue)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			token, err := cfg.Tokens.CurrentToken(w, r)
			if err != nil {
				// Token resolution fails only on environment errors
				// (randomness source, session store). Surface, don't retry.
				cfg.Logger.ErrorContext(r.Context(), "csrf token resolution failed",
					logger.Component("csrf"),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.Error(err),
				)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			r = r.WithContext(context.WithValue(r.Context(), csrfTokenKey{}, token))

			decision := decide(&cfg, matcher, validator, r, token)
			if !decision.Allowed {
				cfg.Logger.WarnContext(r.Context(), "csrf request rejected",
					logger.Component("csrf"),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.Reason(string(decision.Reason)),
				)
				cfg.ErrorHandler(w, r, decision)
				return
			}

			// Refresh the side-channel cookie on every allowed response so
			// clients always hold the current token after rotation.
			if err := cfg.Cookies.SetEncrypted(w, cfg.CookieName, token,
				cookie.WithHTTPOnly(false),
				cookie.WithMaxAge(cfg.CookieMaxAge),
			); err != nil {
				cfg.Logger.ErrorContext(r.Context(), "csrf cookie issuance failed",
					logger.Component("csrf"),
					logger.Error(err),
				)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}

// decide runs the per-request state machine.
func decide(cfg *CSRFConfig, matcher *csrf.Matcher, validator *csrf.Validator, r *http.Request, sessionToken string) csrf.Decision {
	if cfg.TestMode {
		return csrf.Allow(csrf.ReasonTestMode)
	}
	if !unsafeMethods[r.Method] {
		return csrf.Allow(csrf.ReasonSafeMethod)
	}
	if matcher.Matches(r) {
		return csrf.Allow(csrf.ReasonPathExcluded)
	}
	return validator.Validate(r, sessionToken)
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, decision csrf.Decision) {
	http.Error(w, "csrf protection: "+string(decision.Reason), http.StatusForbidden)
}

// TokenFromContext returns the CSRF token stored by the middleware, for
// embedding in forms or meta tags. Returns false when the middleware did
// not run for this request.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(csrfTokenKey{}).(string)
	return token, ok
}

// TokenHandler returns an HTTP handler that writes the current CSRF token
// as text/plain. Useful for SPAs that fetch the token and attach it to
// subsequent requests. Must be mounted behind the CSRF middleware.
func TokenHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := TokenFromContext(r.Context())
		if !ok {
			http.Error(w, "no token", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(token))
	})
}
