package inbound

import (
	"strconv"

	"github.com/shandysiswandi/gatepass/internal/admin/usecase"
	"github.com/shandysiswandi/gatepass/internal/pkg/goerror"
	"github.com/shandysiswandi/gatepass/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc uc
}

func adminID(r *router.Request) (int64, error) {
	id, err := strconv.ParseInt(r.GetParam("id"), 10, 64)
	if err != nil {
		return 0, goerror.NewInvalidFormat("Invalid admin id")
	}

	return id, nil
}

func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.Login(r.Context(), usecase.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return nil, err
	}

	return LoginResponse{AccessToken: out.AccessToken, TokenType: "Bearer"}, nil
}

func (h *HTTPEndpoint) Me(r *router.Request) (any, error) {
	a, err := h.uc.Me(r.Context())
	if err != nil {
		return nil, err
	}

	return toAdminResponse(*a), nil
}

func (h *HTTPEndpoint) ListAdmins(r *router.Request) (any, error) {
	admins, err := h.uc.ListAdmins(r.Context())
	if err != nil {
		return nil, err
	}

	resp := ListAdminsResponse{Admins: make([]AdminResponse, 0, len(admins))}
	for _, a := range admins {
		resp.Admins = append(resp.Admins, toAdminResponse(a))
	}

	return resp, nil
}

func (h *HTTPEndpoint) CreateAdmin(r *router.Request) (any, error) {
	var req CreateAdminRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	a, err := h.uc.CreateAdmin(r.Context(), usecase.CreateAdminInput{Email: req.Email, Name: req.Name, Password: req.Password})
	if err != nil {
		return nil, err
	}

	return CreateAdminResponse(toAdminResponse(*a)), nil
}

func (h *HTTPEndpoint) DeleteAdmin(r *router.Request) (any, error) {
	id, err := adminID(r)
	if err != nil {
		return nil, err
	}

	return nil, h.uc.DeleteAdmin(r.Context(), usecase.AdminIDInput{ID: id})
}

func (h *HTTPEndpoint) ToggleAdminStatus(r *router.Request) (any, error) {
	id, err := adminID(r)
	if err != nil {
		return nil, err
	}

	a, err := h.uc.ToggleAdminStatus(r.Context(), usecase.AdminIDInput{ID: id})
	if err != nil {
		return nil, err
	}

	return toAdminResponse(*a), nil
}

func (h *HTTPEndpoint) SetAdminPassword(r *router.Request) (any, error) {
	id, err := adminID(r)
	if err != nil {
		return nil, err
	}

	var req SetPasswordRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.SetAdminPassword(r.Context(), usecase.SetAdminPasswordInput{ID: id, NewPassword: req.NewPassword}); err != nil {
		return nil, err
	}

	return PasswordUpdatedResponse{}, nil
}

func (h *HTTPEndpoint) UpdateMyName(r *router.Request) (any, error) {
	var req UpdateNameRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	a, err := h.uc.UpdateMyName(r.Context(), usecase.UpdateMyNameInput{Name: req.Name})
	if err != nil {
		return nil, err
	}

	return toAdminResponse(*a), nil
}

func (h *HTTPEndpoint) UpdateMyPassword(r *router.Request) (any, error) {
	var req UpdatePasswordRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	err := h.uc.UpdateMyPassword(r.Context(), usecase.UpdateMyPasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		return nil, err
	}

	return PasswordUpdatedResponse{}, nil
}

func (h *HTTPEndpoint) UpdateMyEmail(r *router.Request) (any, error) {
	var req UpdateEmailRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	a, err := h.uc.UpdateMyEmail(r.Context(), usecase.UpdateMyEmailInput{Email: req.Email})
	if err != nil {
		return nil, err
	}

	return toAdminResponse(*a), nil
}
