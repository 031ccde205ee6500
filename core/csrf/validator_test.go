package csrf_test

import (
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/csrfkit/core/csrf"
)

// reverseDecrypt stands in for cookie decryption: the "ciphertext" is the
// base64 of the plaintext.
func reverseDecrypt(s string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func formRequest(field, value string) *http.Request {
	form := url.Values{field: {value}}
	r := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestValidatorValidate(t *testing.T) {
	t.Parallel()

	const sessionToken = "expected-token-value"
	v := csrf.NewValidator("", "", "", reverseDecrypt)

	t.Run("form field match", func(t *testing.T) {
		t.Parallel()

		d := v.Validate(formRequest("_token", sessionToken), sessionToken)
		assert.True(t, d.Allowed)
		assert.Equal(t, csrf.ReasonTokenMatch, d.Reason)
	})

	t.Run("form field mismatch", func(t *testing.T) {
		t.Parallel()

		d := v.Validate(formRequest("_token", "forged"), sessionToken)
		assert.False(t, d.Allowed)
		assert.Equal(t, csrf.ReasonTokenMismatch, d.Reason)
	})

	t.Run("plain header match", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodPost, "/submit", nil)
		r.Header.Set("X-CSRF-TOKEN", sessionToken)
		d := v.Validate(r, sessionToken)
		assert.True(t, d.Allowed)
		assert.Equal(t, csrf.ReasonTokenMatch, d.Reason)
	})

	t.Run("encrypted header match after decryption", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodPost, "/submit", nil)
		r.Header.Set("X-XSRF-TOKEN", base64.StdEncoding.EncodeToString([]byte(sessionToken)))
		d := v.Validate(r, sessionToken)
		assert.True(t, d.Allowed)
		assert.Equal(t, csrf.ReasonTokenMatch, d.Reason)
	})

	t.Run("encrypted header decryption failure", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodPost, "/submit", nil)
		r.Header.Set("X-XSRF-TOKEN", "%%% not base64 %%%")
		d := v.Validate(r, sessionToken)
		assert.False(t, d.Allowed)
		assert.Equal(t, csrf.ReasonTokenMalformed, d.Reason)
	})

	t.Run("no candidate", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodPost, "/submit", nil)
		d := v.Validate(r, sessionToken)
		assert.False(t, d.Allowed)
		assert.Equal(t, csrf.ReasonTokenMissing, d.Reason)
	})

	t.Run("empty session token denies even a matching candidate", func(t *testing.T) {
		t.Parallel()

		d := v.Validate(formRequest("_token", ""), "")
		assert.False(t, d.Allowed)
		assert.Equal(t, csrf.ReasonTokenMissing, d.Reason)

		d = v.Validate(formRequest("_token", "anything"), "")
		assert.False(t, d.Allowed)
		assert.Equal(t, csrf.ReasonTokenMissing, d.Reason)
	})

	t.Run("form field takes precedence over headers", func(t *testing.T) {
		t.Parallel()

		// Valid header must not rescue a forged form value.
		r := formRequest("_token", "forged")
		r.Header.Set("X-CSRF-TOKEN", sessionToken)
		d := v.Validate(r, sessionToken)
		assert.False(t, d.Allowed)
		assert.Equal(t, csrf.ReasonTokenMismatch, d.Reason)
	})

	t.Run("plain header takes precedence over encrypted header", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodPost, "/submit", nil)
		r.Header.Set("X-CSRF-TOKEN", "forged")
		r.Header.Set("X-XSRF-TOKEN", base64.StdEncoding.EncodeToString([]byte(sessionToken)))
		d := v.Validate(r, sessionToken)
		assert.False(t, d.Allowed)
		assert.Equal(t, csrf.ReasonTokenMismatch, d.Reason)
	})
}

func TestValidatorCustomNames(t *testing.T) {
	t.Parallel()

	const sessionToken = "expected-token-value"
	v := csrf.NewValidator("csrf_field", "X-Custom-Token", "X-Custom-Echo", nil)

	t.Run("custom form field", func(t *testing.T) {
		t.Parallel()

		d := v.Validate(formRequest("csrf_field", sessionToken), sessionToken)
		assert.True(t, d.Allowed)
	})

	t.Run("default names are not consulted", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodPost, "/submit", nil)
		r.Header.Set("X-CSRF-TOKEN", sessionToken)
		d := v.Validate(r, sessionToken)
		assert.False(t, d.Allowed)
		assert.Equal(t, csrf.ReasonTokenMissing, d.Reason)
	})

	t.Run("nil decrypt denies encrypted channel", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodPost, "/submit", nil)
		r.Header.Set("X-Custom-Echo", sessionToken)
		d := v.Validate(r, sessionToken)
		assert.False(t, d.Allowed)
		assert.Equal(t, csrf.ReasonTokenMalformed, d.Reason)
	})
}

func TestValidatorDecryptError(t *testing.T) {
	t.Parallel()

	failing := func(string) (string, error) { return "", errors.New("bad ciphertext") }
	v := csrf.NewValidator("", "", "", failing)

	r := httptest.NewRequest(http.MethodPost, "/submit", nil)
	r.Header.Set("X-XSRF-TOKEN", "whatever")
	d := v.Validate(r, "token")
	require.False(t, d.Allowed)
	assert.Equal(t, csrf.ReasonTokenMalformed, d.Reason)
}
