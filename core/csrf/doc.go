// Package csrf implements the token lifecycle and verification engine for
// cross-site request forgery protection: cryptographically random tokens,
// request validation with constant-time comparison, and path-exclusion
// matching.
//
// The package is transport-neutral. It produces Decision values with
// stable Reason codes; mapping a denial to an HTTP status belongs to the
// middleware and ultimately the application.
//
// # Token Channels
//
// A request may present its token through three channels, checked in
// order, first non-empty wins:
//
//  1. the hidden form field "_token" (classic server-rendered forms)
//  2. the "X-CSRF-TOKEN" header (AJAX with a meta-tag token)
//  3. the "X-XSRF-TOKEN" header (double-submit: the encrypted XSRF-TOKEN
//     cookie echoed back by the JavaScript framework, decrypted before
//     comparison)
//
// # Exclusions
//
// External callers such as payment webhooks cannot obtain a token, so
// their endpoints are excluded by pattern:
//
//	m, err := csrf.NewMatcher("stripe/*", "https://hooks.example.com/pay/*")
//
// Patterns are validated at load time; a malformed pattern is a fatal
// configuration error.
package csrf
