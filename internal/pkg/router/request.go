package router

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/gatepass/internal/pkg/goerror"
)

const maxBodyBytes = 1 << 20

// Request wraps http.Request with helpers for inbound handlers.
type Request struct {
	*http.Request
}

// GetParam reads a path parameter stored by httprouter.
func (r *Request) GetParam(key string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(key)
}

// GetQuery returns the trimmed query value for key.
func (r *Request) GetQuery(key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// GetQueryInt returns the query value for key as int, or 0 when absent.
func (r *Request) GetQueryInt(key string) (int, error) {
	v := r.GetQuery(key)
	if v == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, goerror.NewInvalidFormat("Invalid query " + key)
	}

	return n, nil
}

// ClientIP returns the client address resolved by the IP middleware.
func (r *Request) ClientIP() string {
	return r.RemoteAddr
}

// DecodeBody decodes a single JSON object into dst and rejects unknown fields.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return goerror.NewInvalidFormat()
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return goerror.NewInvalidFormat()
	}

	return nil
}
