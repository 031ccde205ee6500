package csrf

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Matcher evaluates whether a request is exempt from CSRF protection.
// Patterns are fixed at construction and read-only afterwards, so a
// Matcher is safe for concurrent use.
//
// Three pattern forms are supported:
//   - exact path: "webhooks/github" (leading slash optional)
//   - trailing-wildcard prefix: "stripe/*" matches "stripe/" and
//     "stripe/webhook" but not "stripex/webhook"
//   - full URI: "https://hooks.example.com/pay/*" matched against the
//     complete request URI, enabling host-specific exclusion
//
// Matching is case-sensitive and performed against the normalized path:
// decoded, duplicate slashes collapsed. A "*" is permitted only as the
// final character of a pattern.
type Matcher struct {
	rules []rule
}

type rule struct {
	pattern string
	prefix  bool
	fullURI bool
}

// NewMatcher compiles exclusion patterns. A malformed pattern is a
// configuration error and fails the whole set with ErrInvalidExcludePattern.
func NewMatcher(patterns ...string) (*Matcher, error) {
	rules := make([]rule, 0, len(patterns))
	for _, p := range patterns {
		r, err := compilePattern(p)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return &Matcher{rules: rules}, nil
}

// Matches reports whether any exclusion rule covers the request.
// The match is existential; rule order carries no meaning.
func (m *Matcher) Matches(r *http.Request) bool {
	if len(m.rules) == 0 {
		return false
	}

	path := normalizePath(r.URL.Path)
	uri := requestURI(r, path)

	for _, rule := range m.rules {
		target := path
		if rule.fullURI {
			target = uri
		}
		if rule.prefix {
			if strings.HasPrefix(target, rule.pattern) {
				return true
			}
		} else if target == rule.pattern {
			return true
		}
	}
	return false
}

func compilePattern(p string) (rule, error) {
	if p == "" {
		return rule{}, fmt.Errorf("%w: empty pattern", ErrInvalidExcludePattern)
	}
	if i := strings.IndexByte(p, '*'); i >= 0 && i != len(p)-1 {
		return rule{}, fmt.Errorf("%w: %q: wildcard allowed only at end", ErrInvalidExcludePattern, p)
	}

	prefix := strings.HasSuffix(p, "*")
	pattern := strings.TrimSuffix(p, "*")

	if strings.Contains(pattern, "://") {
		u, err := url.Parse(pattern)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return rule{}, fmt.Errorf("%w: %q: malformed URI", ErrInvalidExcludePattern, p)
		}
		normalized := u.Scheme + "://" + u.Host + "/" + normalizePath(u.Path)
		return rule{pattern: normalized, prefix: prefix, fullURI: true}, nil
	}

	return rule{pattern: normalizePath(pattern), prefix: prefix}, nil
}

// normalizePath collapses duplicate slashes and strips the leading slash,
// yielding the Laravel-style relative form patterns are written in.
// r.URL.Path arrives already percent-decoded.
func normalizePath(p string) string {
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	return strings.TrimPrefix(p, "/")
}

// requestURI reconstructs scheme://host/path for full-URI rules.
func requestURI(r *http.Request, normalizedPath string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/" + normalizedPath
}
