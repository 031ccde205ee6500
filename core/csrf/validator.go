package csrf

import (
	"crypto/subtle"
	"net/http"
)

// Default channel names follow the common JavaScript-framework convention:
// axios and friends read the XSRF-TOKEN cookie and echo it back as the
// X-XSRF-TOKEN header without any application code.
const (
	DefaultFormField        = "_token"
	DefaultHeaderName       = "X-CSRF-TOKEN"
	DefaultCookieHeaderName = "X-XSRF-TOKEN"
	DefaultCookieName       = "XSRF-TOKEN"
)

// DecryptFunc decrypts an encrypted double-submit value. The validator
// applies it to the X-XSRF-TOKEN header, which carries back the encrypted
// side-channel cookie value.
type DecryptFunc func(string) (string, error)

// Validator extracts a candidate token from a request and compares it
// against the session's token in constant time.
//
// Extraction order, first non-empty wins (candidates are never aggregated):
//  1. form/body field (default "_token")
//  2. plain header (default "X-CSRF-TOKEN")
//  3. encrypted cookie-echo header (default "X-XSRF-TOKEN"), decrypted
//     before comparison
type Validator struct {
	formField        string
	headerName       string
	cookieHeaderName string
	decrypt          DecryptFunc
}

// NewValidator creates a validator. Empty names fall back to the defaults.
// decrypt may be nil when the deployment does not distribute an encrypted
// side-channel cookie; the X-XSRF-TOKEN channel then always denies.
func NewValidator(formField, headerName, cookieHeaderName string, decrypt DecryptFunc) *Validator {
	if formField == "" {
		formField = DefaultFormField
	}
	if headerName == "" {
		headerName = DefaultHeaderName
	}
	if cookieHeaderName == "" {
		cookieHeaderName = DefaultCookieHeaderName
	}
	return &Validator{
		formField:        formField,
		headerName:       headerName,
		cookieHeaderName: cookieHeaderName,
		decrypt:          decrypt,
	}
}

// Validate decides whether the request carries a token matching sessionToken.
//
// An empty sessionToken denies every candidate: a match against an absent
// expected value must never succeed. The comparison is constant-time to
// prevent timing side-channels.
func (v *Validator) Validate(r *http.Request, sessionToken string) Decision {
	candidate, encrypted := v.extract(r)

	if sessionToken == "" || candidate == "" {
		return Deny(ReasonTokenMissing)
	}

	if encrypted {
		if v.decrypt == nil {
			return Deny(ReasonTokenMalformed)
		}
		plain, err := v.decrypt(candidate)
		if err != nil {
			return Deny(ReasonTokenMalformed)
		}
		candidate = plain
	}

	if subtle.ConstantTimeCompare([]byte(candidate), []byte(sessionToken)) != 1 {
		return Deny(ReasonTokenMismatch)
	}

	return Allow(ReasonTokenMatch)
}

// extract returns the first non-empty candidate and whether it needs
// decryption before comparison.
func (v *Validator) extract(r *http.Request) (string, bool) {
	if field := r.PostFormValue(v.formField); field != "" {
		return field, false
	}
	if header := r.Header.Get(v.headerName); header != "" {
		return header, false
	}
	if header := r.Header.Get(v.cookieHeaderName); header != "" {
		return header, true
	}
	return "", false
}
