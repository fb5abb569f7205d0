package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/gatepass/internal/pkg/jwt"
)

func middlewareAuthentication(verifier jwt.JWT, isPublic func(method, path string) bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || isPublic(r.Method, matchedRoutePath(r)) {
				next.ServeHTTP(w, r)
				return
			}

			if verifier == nil {
				writeJSON(w, errorResponse{Message: "Authentication unavailable"}, http.StatusServiceUnavailable)
				return
			}

			scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
				return
			}

			claims, err := verifier.Verify(strings.TrimSpace(token))
			if err != nil {
				writeJSON(w, errorResponse{Message: "Invalid or expired token"}, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), claims)))
		})
	}
}
