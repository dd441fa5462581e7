package client

import (
	"context"
	"net/http"
	"net/url"
)

// TokenSource supplies the bearer credential for outgoing requests. An empty
// string means no credential; the request is sent unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) string

func (f TokenFunc) Token(ctx context.Context) string { return f(ctx) }

// ChainTokenSource asks each source in order; the first non-empty token wins.
type ChainTokenSource []TokenSource

func (c ChainTokenSource) Token(ctx context.Context) string {
	for _, s := range c {
		if s == nil {
			continue
		}
		if t := s.Token(ctx); t != "" {
			return t
		}
	}
	return ""
}

// DefaultCookieNames are the cookie names a bearer token may be stored under.
var DefaultCookieNames = []string{"accessToken", "access_token", "token"}

// CookieTokenSource reads the token from cookies the backend has set in Jar
// for URL.
type CookieTokenSource struct {
	Jar   http.CookieJar
	URL   *url.URL
	Names []string
}

func (c CookieTokenSource) Token(_ context.Context) string {
	if c.Jar == nil || c.URL == nil {
		return ""
	}
	names := c.Names
	if len(names) == 0 {
		names = DefaultCookieNames
	}

	cookies := c.Jar.Cookies(c.URL)
	for _, name := range names {
		for _, ck := range cookies {
			if ck.Name == name && ck.Value != "" {
				return ck.Value
			}
		}
	}
	return ""
}
