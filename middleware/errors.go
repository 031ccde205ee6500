package middleware

import "errors"

var (
	// ErrMissingTokenProvider is returned when CSRF middleware is
	// constructed without a TokenProvider.
	ErrMissingTokenProvider = errors.New("csrf middleware requires a token provider")

	// ErrMissingCookieManager is returned when CSRF middleware is
	// constructed without a cookie manager.
	ErrMissingCookieManager = errors.New("csrf middleware requires a cookie manager")
)
