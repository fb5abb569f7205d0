package router

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// Limiter decides whether one more request for key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// RateLimitByIP rejects requests from a client address once limiter refuses
// them. Limiter errors fail open so a cache outage does not lock the door.
func RateLimitByIP(scope string, limiter Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, retryAfter, err := limiter.Allow(r.Context(), scope+":"+r.RemoteAddr)
			if err != nil {
				slog.WarnContext(r.Context(), "rate limiter unavailable, allowing request", "scope", scope, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				if retryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Round(time.Second)/time.Second)))
				}
				writeJSON(w, errorResponse{Message: "Too many requests"}, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
