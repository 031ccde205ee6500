// Package session provides generic session management with CSRF-token
// binding and pluggable storage.
//
// A Session[Data] carries a stable ID, a rotating session token used as
// the cookie value, and exactly one CSRF token. Value semantics are used
// throughout: managers and stores exchange copies, so concurrent requests
// never share mutable session state.
//
// # CSRF Token Lifecycle
//
// The CSRF token is created with the session and replaced at every
// authentication boundary:
//
//	sess, _ := manager.New(ctx, session.NewSessionParams{IP: ip})
//	tok, _ := manager.CSRFToken(ctx, &sess)      // stable across calls
//	sess, _ = manager.Authenticate(ctx, sess, userID) // both tokens rotate
//	tok2, _ := manager.CSRFToken(ctx, &sess)     // tok2 != tok
//
// Lazy creation for sessions persisted without a token (e.g. records
// written by an older release) is guarded by a per-session-ID
// singleflight group, so two concurrent requests for the same session
// never mint two different tokens.
//
// # Storage
//
// The Store interface abstracts persistence. The module ships an
// in-memory implementation (storage/memory) for tests and development
// and a Redis implementation (storage/redis) for production.
package session
