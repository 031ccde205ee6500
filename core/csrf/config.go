package csrf

// Config provides environment-based configuration for CSRF protection.
// The exclusion list and all channel names are process-wide, loaded once,
// and read-only at request time.
type Config struct {
	// CookieName is the side-channel cookie carrying the encrypted token.
	CookieName string `env:"CSRF_COOKIE_NAME" envDefault:"XSRF-TOKEN"`

	// HeaderName is the plain token header.
	HeaderName string `env:"CSRF_HEADER_NAME" envDefault:"X-CSRF-TOKEN"`

	// CookieHeaderName is the header echoing the encrypted cookie value.
	CookieHeaderName string `env:"CSRF_COOKIE_HEADER_NAME" envDefault:"X-XSRF-TOKEN"`

	// FormField is the hidden form field carrying the token.
	FormField string `env:"CSRF_FORM_FIELD" envDefault:"_token"`

	// ExcludePaths lists exclusion patterns (exact, trailing-wildcard,
	// or full URI), comma-separated in the environment.
	ExcludePaths []string `env:"CSRF_EXCLUDE_PATHS" envSeparator:","`

	// CookieMaxAge is the side-channel cookie lifetime in seconds
	// (0 = session cookie).
	CookieMaxAge int `env:"CSRF_COOKIE_MAX_AGE" envDefault:"0"`

	// TestMode disables all protection. It must be set explicitly,
	// never inferred, to avoid accidentally shipping it to production.
	TestMode bool `env:"CSRF_TEST_MODE" envDefault:"false"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() Config {
	return Config{
		CookieName:       DefaultCookieName,
		HeaderName:       DefaultHeaderName,
		CookieHeaderName: DefaultCookieHeaderName,
		FormField:        DefaultFormField,
	}
}
