package router

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/shandysiswandi/gatepass/internal/pkg/stacktrace"
)

func middlewareRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}

			//nolint:errorlint // the sentinel is compared by identity
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			stack := debug.Stack()
			if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
				slog.ErrorContext(r.Context(), "panic on the server", "because", rvr, "stack", paths)
			} else {
				slog.ErrorContext(r.Context(), "panic on the server", "because", rvr, "stack", string(stack))
			}

			writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}
