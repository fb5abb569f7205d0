package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/gatepass/internal/pkg/instrument"
	"github.com/shandysiswandi/gatepass/internal/pkg/uid"
)

const (
	// HeaderCorrelationID is the canonical header used to track requests end-to-end.
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderRequestID is an accepted alternative set by some proxies.
	HeaderRequestID = "X-Request-ID"

	maxCIDLength = 128
)

// normalizeCID drops values carrying line breaks and caps the length.
func normalizeCID(v string) string {
	v = strings.TrimSpace(v)
	switch {
	case strings.ContainsAny(v, "\r\n"):
		return ""
	case len(v) > maxCIDLength:
		return v[:maxCIDLength]
	default:
		return v
	}
}

// cidHeaders are read in order. The first usable value wins.
var cidHeaders = [...]string{HeaderCorrelationID, HeaderRequestID}

func incomingCID(h http.Header) string {
	for _, name := range cidHeaders {
		if v := normalizeCID(h.Get(name)); v != "" {
			return v
		}
	}

	return ""
}

// middlewareCorrelationID echoes or mints a correlation ID and stores it in
// the request context for logs and audit events.
func middlewareCorrelationID(gen uid.StringID) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := incomingCID(r.Header)
			if cid == "" && gen != nil {
				cid = gen.Generate()
			}
			if cid == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set(HeaderCorrelationID, cid)
			next.ServeHTTP(w, r.WithContext(instrument.SetCorrelationID(r.Context(), cid)))
		})
	}
}
