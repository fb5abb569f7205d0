package router

import (
	"net"
	"net/http"
	"strings"
)

// middlewareIP rewrites RemoteAddr to the client address reported by the
// proxy headers, falling back to the connection host.
func middlewareIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ip := realIP(r); ip != "" {
			r.RemoteAddr = ip
		}
		next.ServeHTTP(w, r)
	})
}

func realIP(r *http.Request) string {
	candidates := []string{
		r.Header.Get("True-Client-IP"),
		r.Header.Get("X-Real-IP"),
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		candidates = append(candidates, first)
	}

	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" && net.ParseIP(c) != nil {
			return c
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && net.ParseIP(host) != nil {
		return host
	}

	return ""
}
