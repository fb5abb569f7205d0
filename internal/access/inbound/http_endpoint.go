package inbound

import (
	"math"

	"github.com/samber/lo"
	"github.com/shandysiswandi/gatepass/internal/access/entity"
	"github.com/shandysiswandi/gatepass/internal/access/usecase"
	"github.com/shandysiswandi/gatepass/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc uc
}

// Verify checks a scanned token. The body is written without the envelope
// because door scanners read `success` at the top level.
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.Verify(r.Context(), usecase.VerifyInput{Token: req.Token, Source: "http:" + r.ClientIP()})
	if err != nil {
		return nil, err
	}

	return router.Raw{Body: toVerifyResponse(out)}, nil
}

func toVerifyResponse(out *usecase.VerifyOutput) VerifyResponse {
	resp := VerifyResponse{Success: out.Success, Message: out.Message}
	if !out.Success {
		return resp
	}

	if out.Credential != nil {
		resp.User = &VerifyUserResponse{ID: out.Credential.ID, Name: out.Credential.HolderName}
	}
	resp.DoorTriggered = out.DoorTriggered
	if out.Door != nil {
		resp.DoorStatus = &DoorStatusResponse{
			Success: out.Door.Success,
			Message: out.Door.Message,
			Details: out.Door.Details,
		}
	}

	return resp
}

// GetPass returns the holder's current QR payload. It is public so a phone
// can render the pass without an admin session.
func (h *HTTPEndpoint) GetPass(r *router.Request) (any, error) {
	pass, err := h.uc.GetPass(r.Context(), usecase.CredentialIDInput{ID: r.GetParam("id")})
	if err != nil {
		return nil, err
	}

	return PassResponse{
		Name:             pass.HolderName,
		Payload:          pass.Payload,
		RemainingSeconds: int(math.Ceil(pass.Remaining.Seconds())),
		ExpiresAt:        pass.ExpiresAt,
	}, nil
}

func (h *HTTPEndpoint) CreateCredential(r *router.Request) (any, error) {
	var req CreateCredentialRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	detail, err := h.uc.CreateCredential(r.Context(), usecase.CreateCredentialInput{
		Name:        req.Name,
		IsTemporary: req.IsTemporary,
		ExpiryDays:  req.ExpiryDays,
	})
	if err != nil {
		return nil, err
	}

	resp := toCredentialDetailResponse(detail)
	resp.created = true

	return resp, nil
}

func (h *HTTPEndpoint) GetCredential(r *router.Request) (any, error) {
	detail, err := h.uc.GetCredential(r.Context(), usecase.CredentialIDInput{ID: r.GetParam("id")})
	if err != nil {
		return nil, err
	}

	return toCredentialDetailResponse(detail), nil
}

func (h *HTTPEndpoint) ListCredentials(r *router.Request) (any, error) {
	items, err := h.uc.ListCredentials(r.Context())
	if err != nil {
		return nil, err
	}

	return CredentialsResponse{
		Credentials: lo.Map(items, func(c entity.CredentialSummary, _ int) CredentialResponse {
			return toCredentialResponse(c)
		}),
	}, nil
}

func (h *HTTPEndpoint) ToggleCredential(r *router.Request) (any, error) {
	c, err := h.uc.ToggleCredential(r.Context(), usecase.CredentialIDInput{ID: r.GetParam("id")})
	if err != nil {
		return nil, err
	}

	return toCredentialResponse(*c), nil
}

func (h *HTTPEndpoint) DeleteCredential(r *router.Request) (any, error) {
	return nil, h.uc.DeleteCredential(r.Context(), usecase.CredentialIDInput{ID: r.GetParam("id")})
}

func (h *HTTPEndpoint) ListLogs(r *router.Request) (any, error) {
	limit, err := r.GetQueryInt("limit")
	if err != nil {
		return nil, err
	}

	entries, err := h.uc.ListLogs(r.Context(), usecase.ListLogsInput{Limit: limit})
	if err != nil {
		return nil, err
	}

	return AuditEntriesResponse{
		Logs: lo.Map(entries, func(e entity.AuditEntry, _ int) AuditEntryResponse {
			return toAuditEntryResponse(e)
		}),
	}, nil
}

func (h *HTTPEndpoint) ExportLogs(r *router.Request) (any, error) {
	out, err := h.uc.ExportLogs(r.Context())
	if err != nil {
		return nil, err
	}

	return ExportLogsResponse{URL: out.URL, Key: out.Key, Count: out.Count, ExpiresAt: out.ExpiresAt}, nil
}

func (h *HTTPEndpoint) Status(r *router.Request) (any, error) {
	st, err := h.uc.Status(r.Context())
	if err != nil {
		return nil, err
	}

	resp := StatusResponse{
		UptimeSeconds:         int64(st.CurrentTime.Sub(st.StartTime).Seconds()),
		StartTime:             st.StartTime,
		CurrentTime:           st.CurrentTime,
		CredentialCount:       st.CredentialCount,
		ActiveCredentialCount: st.ActiveCredentialCount,
		LogCount:              st.LogCount,
	}
	if st.LastActivity != nil {
		last := toAuditEntryResponse(*st.LastActivity)
		resp.LastActivity = &last
	}

	return resp, nil
}

func toCredentialResponse(c entity.CredentialSummary) CredentialResponse {
	return CredentialResponse{
		ID:          c.ID,
		Name:        c.HolderName,
		IsDisabled:  c.IsDisabled,
		IsTemporary: c.IsTemporary,
		ExpiresAt:   c.ExpiresAt,
		CreatedAt:   c.CreatedAt,
	}
}

func toCredentialDetailResponse(d *usecase.CredentialDetail) CredentialDetailResponse {
	return CredentialDetailResponse{
		CredentialResponse: toCredentialResponse(d.Summary()),
		Secret:             d.Secret,
		ProvisioningURI:    d.ProvisioningURI,
	}
}

func toAuditEntryResponse(e entity.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:           e.ID,
		CredentialID: lo.EmptyableToPtr(e.CredentialID),
		Name:         e.HolderName,
		Action:       e.Action,
		CreatedAt:    e.CreatedAt,
	}
}
