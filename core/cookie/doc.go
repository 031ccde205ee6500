// Package cookie provides HTTP cookie management with HMAC signing and
// AES-256-GCM encryption.
//
// The Manager supports three storage modes:
//   - Plain: Set/Get for non-sensitive values
//   - Signed: SetSigned/GetSigned for tamper-evident values (HMAC-SHA256)
//   - Encrypted: SetEncrypted/GetEncrypted for confidential values (AES-256-GCM)
//
// Encryption keys are derived from the configured secrets via HKDF-SHA256,
// so a secret shared with another subsystem never produces the same AES key.
//
// # Key Rotation
//
// The manager accepts multiple secrets. The first secret signs and encrypts;
// verification and decryption try every secret in order. To rotate, prepend
// the new secret and keep the old one until outstanding cookies expire:
//
//	m, err := cookie.New([]string{newSecret, oldSecret})
//
// # Side-Channel Values
//
// EncryptValue and DecryptValue expose the encryption primitives directly
// for values that leave the cookie jar, such as a double-submit CSRF token
// that the client echoes back in a request header:
//
//	enc, _ := m.EncryptValue(token)          // distributed in XSRF-TOKEN cookie
//	tok, err := m.DecryptValue(headerValue)  // echoed back as X-XSRF-TOKEN
//
// # Usage
//
//	m, err := cookie.New([]string{secret},
//		cookie.WithSecure(true),
//		cookie.WithSameSite(http.SameSiteLaxMode),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	err = m.SetEncrypted(w, "XSRF-TOKEN", token,
//		cookie.WithHTTPOnly(false), // JavaScript must read it
//	)
package cookie
