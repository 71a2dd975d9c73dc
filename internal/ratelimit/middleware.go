package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/Vovarama1992/go-utils/logger"
)

// Middleware limits every request by client IP and path. Forwarding headers
// are only read when trustProxy is set.
func Middleware(l *Limiter, zl *logger.ZapLogger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := CreateIdentifier(ClientIP(r, trustProxy), r.URL.Path)

			res, err := l.Limit(r.Context(), id)
			if err != nil {
				zl.Log(logger.LogEntry{Level: "warn", Message: "rate limit backend error, admitting", Service: "ratelimit", Error: err})
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.Reset.Unix(), 10))

			if !res.Success {
				h.Set("Retry-After", strconv.Itoa(retryAfter(l)))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func retryAfter(l *Limiter) int {
	return max(int(l.window.Seconds()), 1)
}

// ClientIP returns the connection address. Behind a trusted proxy it
// prefers the first X-Forwarded-For hop, then X-Real-IP. Clients can set
// both headers themselves, so they are ignored otherwise.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
