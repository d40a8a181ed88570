package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/sheetlookup/internal/core"
	"github.com/JonMunkholm/sheetlookup/internal/searchlog"
	webmw "github.com/JonMunkholm/sheetlookup/internal/web/middleware"
)

// WithRequestMetadata adds IP and User-Agent to context for the search log.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, clientIP(r))
	ctx = core.ContextWithUserAgent(ctx, r.Header.Get("User-Agent"))
	return ctx
}

// sessionFromContext returns the visitor session, or a fresh one when the
// session middleware did not run.
func sessionFromContext(ctx context.Context) searchlog.Session {
	if s, ok := webmw.SessionFromContext(ctx); ok {
		return s
	}
	return searchlog.NewSession()
}

// clientIP strips the port from RemoteAddr. TrustedRealIP has already
// replaced it with the forwarded address when the proxy is trusted.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
