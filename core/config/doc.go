// Package config provides type-safe environment variable loading with caching.
// Each configuration type is loaded once and cached for subsequent calls.
//
// The package automatically loads a .env file on first use and uses the
// caarlos0/env library for parsing environment variables into struct fields.
//
// Basic usage:
//
//	import "github.com/dmitrymomot/csrfkit/core/config"
//
//	type CookieConfig struct {
//		Secrets []string `env:"COOKIE_SECRETS,required" envSeparator:","`
//		Secure  bool     `env:"COOKIE_SECURE" envDefault:"true"`
//	}
//
//	func main() {
//		var cfg CookieConfig
//
//		// Load with error handling
//		if err := config.Load(&cfg); err != nil {
//			log.Fatal(err)
//		}
//
//		// Or panic on failure (useful for startup)
//		config.MustLoad(&cfg)
//	}
//
// # Caching Behavior
//
// Each configuration type is loaded only once per application lifetime:
//
//	var a CookieConfig
//	config.Load(&a) // Loads from environment
//
//	var b CookieConfig
//	config.Load(&b) // Returns cached value, a == b
//
// Different types are cached independently.
package config
