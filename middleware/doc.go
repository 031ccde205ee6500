// Package middleware provides net/http middleware for CSRF protection.
//
// The middleware composes explicitly with any net/http stack:
//
//	protect, err := middleware.CSRFWithConfig(middleware.CSRFConfig{
//		Tokens:       transport, // sessiontransport.Cookie
//		Cookies:      cookies,   // cookie.Manager
//		ExcludePaths: []string{"stripe/*"},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	http.ListenAndServe(":8080", protect(mux))
//
// # Request Lifecycle
//
// Safe methods (GET, HEAD, OPTIONS, ...) pass through and still receive
// the encrypted XSRF-TOKEN cookie, so a page load always equips the
// client for its next mutation. State-changing methods (POST, PUT,
// PATCH, DELETE) must present the session's token via the "_token" form
// field, the X-CSRF-TOKEN header, or the X-XSRF-TOKEN header carrying
// the echoed cookie value.
//
// Denials are aborted before the downstream handler with a stable reason
// code. The default handler answers 403; override Config.ErrorHandler to
// map denials differently (e.g. 419 for Laravel-compatible clients).
//
// # Templates and SPAs
//
// Handlers read the token for rendering via TokenFromContext:
//
//	tok, _ := middleware.TokenFromContext(r.Context())
//	fmt.Fprintf(w, `<input type="hidden" name="_token" value="%s">`, tok)
//
// SPAs can fetch it from a dedicated endpoint:
//
//	mux.Handle("/csrf-token", middleware.TokenHandler())
package middleware
