// Package sessiontransport binds sessions to HTTP requests via a signed
// cookie.
//
// The Cookie transport stores Session.Token as an HMAC-signed cookie and
// degrades gracefully: requests without a valid session cookie receive a
// fresh anonymous session. It also implements the CSRF middleware's
// TokenProvider contract: CurrentToken resolves the request's session
// and returns its anti-forgery token, creating either as needed.
//
//	transport := sessiontransport.NewCookie(manager, cookies, "__session")
//
//	protect, err := middleware.CSRFWithConfig(middleware.CSRFConfig{
//		Tokens:  transport,
//		Cookies: cookies,
//	})
package sessiontransport
