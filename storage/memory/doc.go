// Package memory provides an in-memory session.Store implementation for
// tests and local development. It is safe for concurrent use and applies
// value semantics: sessions are copied on every read and write.
//
// State lives in the process; use storage/redis for anything that must
// survive a restart or be shared between instances.
package memory
