package middleware

import (
	"net"
	"net/http"

	pkgerrors "dopesheet/pkg/errors"
	"dopesheet/pkg/ratelimit"
)

// RateLimit rejects requests of clients over the limiter's budget with 429.
// Clients are told apart by remote address, so it must run after RealIP.
func RateLimit(limiter ratelimit.Limiter, errors *pkgerrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientKey(r)) {
				w.Header().Set("Retry-After", "1")
				errors.HandleStatus(w, r, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
