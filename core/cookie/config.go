package cookie

import "net/http"

// Config provides environment-based configuration for the cookie manager.
type Config struct {
	// Secrets is the ordered list of signing/encryption secrets.
	// The first secret is active; older secrets remain valid for
	// verification and decryption until rotated out.
	Secrets []string `env:"COOKIE_SECRETS,required" envSeparator:","`

	// Secure restricts cookies to HTTPS connections.
	Secure bool `env:"COOKIE_SECURE" envDefault:"true"`

	// Domain scopes cookies to a specific domain (empty = request host).
	Domain string `env:"COOKIE_DOMAIN"`
}

// NewFromConfig creates a cookie manager from configuration.
// Additional options override the configuration-derived defaults.
func NewFromConfig(cfg Config, opts ...Option) (*Manager, error) {
	base := []Option{
		WithSecure(cfg.Secure),
		WithSameSite(http.SameSiteLaxMode),
	}
	if cfg.Domain != "" {
		base = append(base, WithDomain(cfg.Domain))
	}
	return New(cfg.Secrets, append(base, opts...)...)
}
