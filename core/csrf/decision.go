package csrf

// Reason is a stable code explaining a validation decision. Reasons are
// intended for logging and metrics; they never carry request data.
type Reason string

const (
	// ReasonSafeMethod allows requests whose method cannot change state.
	ReasonSafeMethod Reason = "safe_method"
	// ReasonTestMode allows every request when test mode is enabled.
	ReasonTestMode Reason = "test_mode"
	// ReasonPathExcluded allows requests matching an exclusion pattern.
	ReasonPathExcluded Reason = "path_excluded"
	// ReasonTokenMatch allows requests whose candidate token matched.
	ReasonTokenMatch Reason = "token_match"

	// ReasonTokenMissing denies requests with no candidate token, or any
	// request validated against a session that has no token yet.
	ReasonTokenMissing Reason = "token_missing"
	// ReasonTokenMismatch denies requests whose candidate token differs
	// from the session token.
	ReasonTokenMismatch Reason = "token_mismatch"
	// ReasonTokenMalformed denies requests whose candidate token failed
	// decoding or decryption.
	ReasonTokenMalformed Reason = "token_malformed"
)

// Decision is the outcome of CSRF validation for a single request.
// Decisions are plain values; mapping a denial to a transport-level
// response (403, 419, ...) is the HTTP layer's concern.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Allow builds an allowing decision with the given reason.
func Allow(reason Reason) Decision {
	return Decision{Allowed: true, Reason: reason}
}

// Deny builds a denying decision with the given reason.
func Deny(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// String implements fmt.Stringer for logging.
func (d Decision) String() string {
	if d.Allowed {
		return "allowed (" + string(d.Reason) + ")"
	}
	return "rejected (" + string(d.Reason) + ")"
}
