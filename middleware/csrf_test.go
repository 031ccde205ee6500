package middleware_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/csrfkit/core/cookie"
	"github.com/dmitrymomot/csrfkit/core/csrf"
	"github.com/dmitrymomot/csrfkit/core/session"
	"github.com/dmitrymomot/csrfkit/core/sessiontransport"
	"github.com/dmitrymomot/csrfkit/middleware"
	"github.com/dmitrymomot/csrfkit/storage/memory"
)

type testData struct{}

type testApp struct {
	handler   http.Handler
	cookies   *cookie.Manager
	transport *sessiontransport.Cookie[testData]
}

// newTestApp wires the full stack behind the middleware: an OK handler at
// every path plus the token endpoint at /csrf-token.
func newTestApp(t *testing.T, cfg middleware.CSRFConfig) *testApp {
	t.Helper()

	cookies, err := cookie.New(
		[]string{"middleware-test-secret-0123456789abcdef0123"},
		cookie.WithSecure(false),
	)
	require.NoError(t, err)

	mgr := session.NewManager(memory.New[testData](), time.Hour, 5*time.Minute)
	transport := sessiontransport.NewCookie(mgr, cookies, "__session")

	cfg.Tokens = transport
	cfg.Cookies = cookies

	protect, err := middleware.CSRFWithConfig(cfg)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.Handle("/csrf-token", middleware.TokenHandler())
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "ok")
	})

	return &testApp{handler: protect(mux), cookies: cookies, transport: transport}
}

// bootstrap performs the initial GET that establishes a session, returning
// the issued token and the cookies to carry on subsequent requests.
func (a *testApp) bootstrap(t *testing.T) (string, []*http.Cookie) {
	t.Helper()

	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/csrf-token", nil))
	require.Equal(t, http.StatusOK, w.Code)

	token := w.Body.String()
	require.NotEmpty(t, token)
	return token, w.Result().Cookies()
}

func (a *testApp) do(t *testing.T, r *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	for _, c := range cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, r)
	return w
}

func postForm(target string, form url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func sideChannelCookie(t *testing.T, cookies []*http.Cookie) *http.Cookie {
	t.Helper()
	for _, c := range cookies {
		if c.Name == csrf.DefaultCookieName {
			return c
		}
	}
	t.Fatal("side-channel cookie not issued")
	return nil
}

func TestCSRFSafeMethods(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, middleware.CSRFConfig{})

	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		t.Run(method, func(t *testing.T) {
			w := app.do(t, httptest.NewRequest(method, "/page", nil), nil)
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestCSRFSideChannelCookie(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, middleware.CSRFConfig{})
	token, cookies := app.bootstrap(t)

	// The cookie is readable by scripts and decrypts to the session token.
	xsrf := sideChannelCookie(t, cookies)
	assert.False(t, xsrf.HttpOnly, "double-submit cookie must be script-readable")

	plain, err := app.cookies.DecryptValue(xsrf.Value)
	require.NoError(t, err)
	assert.Equal(t, token, plain)
}

func TestCSRFFormSubmission(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, middleware.CSRFConfig{})
	token, cookies := app.bootstrap(t)

	t.Run("valid token allowed", func(t *testing.T) {
		w := app.do(t, postForm("/submit", url.Values{"_token": {token}}), cookies)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Result().Cookies(), "allowed responses refresh the side-channel cookie")
	})

	t.Run("missing token rejected", func(t *testing.T) {
		w := app.do(t, postForm("/submit", url.Values{}), cookies)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), string(csrf.ReasonTokenMissing))
	})

	t.Run("forged token rejected", func(t *testing.T) {
		w := app.do(t, postForm("/submit", url.Values{"_token": {"forged-token"}}), cookies)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), string(csrf.ReasonTokenMismatch))
	})

	t.Run("token from another session rejected", func(t *testing.T) {
		otherToken, _ := app.bootstrap(t)
		w := app.do(t, postForm("/submit", url.Values{"_token": {otherToken}}), cookies)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), string(csrf.ReasonTokenMismatch))
	})
}

func TestCSRFHeaderChannels(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, middleware.CSRFConfig{})
	token, cookies := app.bootstrap(t)

	t.Run("plain header allowed", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/update", nil)
		r.Header.Set(csrf.DefaultHeaderName, token)
		w := app.do(t, r, cookies)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("echoed encrypted cookie allowed", func(t *testing.T) {
		// An axios-style client reads XSRF-TOKEN and echoes it verbatim.
		r := httptest.NewRequest(http.MethodPost, "/api/update", nil)
		r.Header.Set(csrf.DefaultCookieHeaderName, sideChannelCookie(t, cookies).Value)
		w := app.do(t, r, cookies)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("garbage in encrypted channel rejected as malformed", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/update", nil)
		r.Header.Set(csrf.DefaultCookieHeaderName, "garbage-ciphertext")
		w := app.do(t, r, cookies)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), string(csrf.ReasonTokenMalformed))
	})

	t.Run("plaintext token in encrypted channel rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/update", nil)
		r.Header.Set(csrf.DefaultCookieHeaderName, token)
		w := app.do(t, r, cookies)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestCSRFExcludedPaths(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, middleware.CSRFConfig{
		ExcludePaths: []string{"webhooks/*", "ping"},
	})

	t.Run("wildcard exclusion bypasses validation", func(t *testing.T) {
		w := app.do(t, httptest.NewRequest(http.MethodPost, "/webhooks/stripe", nil), nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("exact exclusion bypasses validation", func(t *testing.T) {
		w := app.do(t, httptest.NewRequest(http.MethodPost, "/ping", nil), nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("non-excluded path still protected", func(t *testing.T) {
		w := app.do(t, httptest.NewRequest(http.MethodPost, "/webhookx", nil), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestCSRFTestMode(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, middleware.CSRFConfig{TestMode: true})

	w := app.do(t, httptest.NewRequest(http.MethodPost, "/submit", nil), nil)
	assert.Equal(t, http.StatusOK, w.Code, "test mode allows tokenless mutations")
}

func TestCSRFSkip(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, middleware.CSRFConfig{
		Skip: func(r *http.Request) bool {
			return r.Header.Get("X-Internal") == "1"
		},
	})

	t.Run("skipped request bypasses everything", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/internal", nil)
		r.Header.Set("X-Internal", "1")
		w := app.do(t, r, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("other requests still validated", func(t *testing.T) {
		w := app.do(t, httptest.NewRequest(http.MethodPost, "/internal", nil), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestCSRFCustomErrorHandler(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, middleware.CSRFConfig{
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, decision csrf.Decision) {
			// Laravel-compatible clients expect 419 for expired/invalid tokens.
			http.Error(w, string(decision.Reason), 419)
		},
	})

	w := app.do(t, httptest.NewRequest(http.MethodPost, "/submit", nil), nil)
	assert.Equal(t, 419, w.Code)
	assert.Contains(t, w.Body.String(), string(csrf.ReasonTokenMissing))
}

func TestCSRFCustomChannelNames(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, middleware.CSRFConfig{
		CookieName: "MY-XSRF",
		HeaderName: "X-My-Token",
		FormField:  "authenticity_token",
	})
	token, cookies := app.bootstrap(t)

	t.Run("custom cookie name issued", func(t *testing.T) {
		var found bool
		for _, c := range cookies {
			if c.Name == "MY-XSRF" {
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("custom form field accepted", func(t *testing.T) {
		w := app.do(t, postForm("/submit", url.Values{"authenticity_token": {token}}), cookies)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("custom header accepted", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/submit", nil)
		r.Header.Set("X-My-Token", token)
		w := app.do(t, r, cookies)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("default field ignored", func(t *testing.T) {
		w := app.do(t, postForm("/submit", url.Values{"_token": {token}}), cookies)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestCSRFTokenFromContext(t *testing.T) {
	t.Parallel()

	t.Run("token available downstream", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t, middleware.CSRFConfig{})
		token, cookies := app.bootstrap(t)

		var seen string
		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			seen, _ = middleware.TokenFromContext(r.Context())
		})

		protect, err := middleware.CSRFWithConfig(middleware.CSRFConfig{
			Tokens:  app.transport,
			Cookies: app.cookies,
		})
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		for _, c := range cookies {
			r.AddCookie(c)
		}
		protect(mux).ServeHTTP(httptest.NewRecorder(), r)
		assert.Equal(t, token, seen)
	})

	t.Run("absent without the middleware", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		_, ok := middleware.TokenFromContext(r.Context())
		assert.False(t, ok)
	})
}

func TestCSRFConstructors(t *testing.T) {
	t.Parallel()

	t.Run("missing dependencies", func(t *testing.T) {
		t.Parallel()

		_, err := middleware.CSRFWithConfig(middleware.CSRFConfig{})
		assert.ErrorIs(t, err, middleware.ErrMissingTokenProvider)

		assert.Panics(t, func() {
			middleware.CSRF(nil, nil)
		})
	})

	t.Run("invalid exclusion pattern fails construction", func(t *testing.T) {
		t.Parallel()

		cookies, err := cookie.New([]string{"middleware-test-secret-0123456789abcdef0123"})
		require.NoError(t, err)
		mgr := session.NewManager(memory.New[testData](), time.Hour, 0)
		transport := sessiontransport.NewCookie(mgr, cookies, "__session")

		_, err = middleware.CSRFWithConfig(middleware.CSRFConfig{
			Tokens:       transport,
			Cookies:      cookies,
			ExcludePaths: []string{"bad/*/pattern"},
		})
		assert.ErrorIs(t, err, csrf.ErrInvalidExcludePattern)
	})

	t.Run("from environment-derived config", func(t *testing.T) {
		t.Parallel()

		cookies, err := cookie.New([]string{"middleware-test-secret-0123456789abcdef0123"})
		require.NoError(t, err)
		mgr := session.NewManager(memory.New[testData](), time.Hour, 0)
		transport := sessiontransport.NewCookie(mgr, cookies, "__session")

		mw, err := middleware.CSRFFromConfig(csrf.DefaultConfig(), transport, cookies)
		require.NoError(t, err)
		assert.NotNil(t, mw)
	})
}
