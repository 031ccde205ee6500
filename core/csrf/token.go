package csrf

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// TokenLength is the number of random bytes in a token before encoding.
const TokenLength = 32

// Generate creates a cryptographically secure random token using 32 bytes
// (256 bits) encoded as base64 URL-safe string without padding, suitable
// for headers, cookies, and form fields without escaping.
//
// A failure of the randomness source is an environment error: it is
// surfaced as ErrTokenGeneration and never retried.
func Generate() (string, error) {
	b := make([]byte, TokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
