package inbound

import (
	"net/http"
	"time"

	"github.com/shandysiswandi/gatepass/internal/admin/entity"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (LoginResponse) Message() string { return "login successful" }

type AdminResponse struct {
	ID          int64      `json:"id,string"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	IsDisabled  bool       `json:"is_disabled"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toAdminResponse(a entity.Admin) AdminResponse {
	return AdminResponse{
		ID:          a.ID,
		Email:       a.Email,
		Name:        a.Name,
		IsDisabled:  a.IsDisabled,
		LastLoginAt: a.LastLoginAt,
		CreatedAt:   a.CreatedAt,
	}
}

type ListAdminsResponse struct {
	Admins []AdminResponse `json:"admins"`
}

type CreateAdminRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type CreateAdminResponse AdminResponse

func (CreateAdminResponse) Message() string { return "admin created" }

func (CreateAdminResponse) StatusCode() int { return http.StatusCreated }

type SetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

type PasswordUpdatedResponse struct{}

func (PasswordUpdatedResponse) Message() string { return "password updated" }

type UpdateNameRequest struct {
	Name string `json:"name"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type UpdateEmailRequest struct {
	Email string `json:"email"`
}
