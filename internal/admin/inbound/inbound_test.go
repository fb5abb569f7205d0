package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/gatepass/internal/admin/entity"
	"github.com/shandysiswandi/gatepass/internal/admin/usecase"
	"github.com/shandysiswandi/gatepass/internal/pkg/clock"
	"github.com/shandysiswandi/gatepass/internal/pkg/config"
	"github.com/shandysiswandi/gatepass/internal/pkg/goerror"
	"github.com/shandysiswandi/gatepass/internal/pkg/instrument"
	"github.com/shandysiswandi/gatepass/internal/pkg/jwt"
	"github.com/shandysiswandi/gatepass/internal/pkg/router"
	"github.com/shandysiswandi/gatepass/internal/pkg/uid"
)

type fakeUC struct {
	loginIn    usecase.LoginInput
	createIn   usecase.CreateAdminInput
	deletedID  int64
	passwordIn usecase.SetAdminPasswordInput
	myPassword usecase.UpdateMyPasswordInput
}

func (f *fakeUC) Login(_ context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error) {
	f.loginIn = in
	if in.Password != "s3cret!" {
		return nil, goerror.NewBusiness("invalid email or password", goerror.CodeUnauthorized)
	}
	return &usecase.LoginOutput{AccessToken: "jwt"}, nil
}

func (f *fakeUC) Me(ctx context.Context) (*entity.Admin, error) {
	return &entity.Admin{ID: jwt.GetAuth(ctx).AdminID, Email: "root@gatepass.local", Name: "Root"}, nil
}

func (f *fakeUC) ListAdmins(context.Context) ([]entity.Admin, error) {
	return []entity.Admin{
		{ID: 1, Email: "root@gatepass.local", Name: "Root", LastLoginAt: &testLogin},
		{ID: 2, Email: "ops@gatepass.local", Name: "Ops", IsDisabled: true},
	}, nil
}

func (f *fakeUC) CreateAdmin(_ context.Context, in usecase.CreateAdminInput) (*entity.Admin, error) {
	f.createIn = in
	return &entity.Admin{ID: 9, Email: in.Email, Name: in.Name}, nil
}

func (f *fakeUC) DeleteAdmin(_ context.Context, in usecase.AdminIDInput) error {
	f.deletedID = in.ID
	if in.ID == 1234567890123 {
		return goerror.NewBusiness("Cannot delete the signed-in admin", goerror.CodeForbidden)
	}
	return nil
}

func (f *fakeUC) ToggleAdminStatus(_ context.Context, in usecase.AdminIDInput) (*entity.Admin, error) {
	if in.ID == 5 {
		return nil, goerror.NewBusiness("At least one active admin must remain", goerror.CodeConflict)
	}
	return &entity.Admin{ID: in.ID, IsDisabled: true}, nil
}

func (f *fakeUC) SetAdminPassword(_ context.Context, in usecase.SetAdminPasswordInput) error {
	f.passwordIn = in
	return nil
}

func (f *fakeUC) UpdateMyName(ctx context.Context, in usecase.UpdateMyNameInput) (*entity.Admin, error) {
	return &entity.Admin{ID: jwt.GetAuth(ctx).AdminID, Name: in.Name}, nil
}

func (f *fakeUC) UpdateMyPassword(_ context.Context, in usecase.UpdateMyPasswordInput) error {
	f.myPassword = in
	if in.CurrentPassword != "s3cret!" {
		return goerror.NewBusiness("Current password is incorrect", goerror.CodeInvalidInput)
	}
	return nil
}

func (f *fakeUC) UpdateMyEmail(ctx context.Context, in usecase.UpdateMyEmailInput) (*entity.Admin, error) {
	return &entity.Admin{ID: jwt.GetAuth(ctx).AdminID, Email: in.Email}, nil
}

var testLogin = time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

func newHandler(t *testing.T, uc uc) (http.Handler, string) {
	t.Helper()

	j, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(strings.Repeat("k", 64)),
		Issuer:    "gatepass",
		Audiences: []string{"gatepass-admin"},
		TTL:       time.Hour,
		Clock:     clock.New(),
		UUID:      uid.NewUUID(),
	})
	if err != nil {
		t.Fatalf("NewHS512 error: %v", err)
	}
	token, err := j.Generate(jwt.Subject{ID: 1234567890123, Email: "root@gatepass.local"})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  name: gatepass\n"))
	if err != nil {
		t.Fatalf("config error: %v", err)
	}

	r := router.NewRouter(router.Config{Config: cfg, UUID: uid.NewUUID(), JWT: j, Instrument: instrument.NewNoop()})
	RegisterHTTPEndpoint(r, uc, nil)

	return r, token
}

func call(t *testing.T, h http.Handler, method, path, body, token string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code == http.StatusNoContent {
		return rec.Code, nil
	}

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, rec.Body.String())
	}

	return rec.Code, out
}

func TestHTTPEndpoint_Login(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "success", body: `{"email":"root@gatepass.local","password":"s3cret!"}`, status: http.StatusOK},
		{name: "wrong password", body: `{"email":"root@gatepass.local","password":"x"}`, status: http.StatusUnauthorized},
		{name: "unknown field", body: `{"email":"root@gatepass.local","pass":"x"}`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			h, _ := newHandler(t, &fakeUC{})

			// Act
			status, out := call(t, h, http.MethodPost, "/api/v1/admin/login", tt.body, "")

			// Assert
			if status != tt.status {
				t.Fatalf("status = %d, want %d (%v)", status, tt.status, out)
			}
			if tt.status == http.StatusOK {
				data, _ := out["data"].(map[string]any)
				if data["access_token"] != "jwt" || data["token_type"] != "Bearer" || out["message"] != "login successful" {
					t.Fatalf("body = %v", out)
				}
			}
		})
	}
}

func TestHTTPEndpoint_Me(t *testing.T) {
	h, token := newHandler(t, &fakeUC{})

	anon, _ := call(t, h, http.MethodGet, "/api/v1/admin/me", "", "")
	status, out := call(t, h, http.MethodGet, "/api/v1/admin/me", "", token)

	if anon != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d", anon)
	}
	data, _ := out["data"].(map[string]any)
	if status != http.StatusOK || data["id"] != "1234567890123" || data["name"] != "Root" {
		t.Fatalf("status = %d body = %v", status, out)
	}
}

func TestHTTPEndpoint_ListAdmins(t *testing.T) {
	h, token := newHandler(t, &fakeUC{})

	status, out := call(t, h, http.MethodGet, "/api/v1/admin/admins", "", token)

	data, _ := out["data"].(map[string]any)
	admins, _ := data["admins"].([]any)
	if status != http.StatusOK || len(admins) != 2 {
		t.Fatalf("status = %d body = %v", status, out)
	}
	first, _ := admins[0].(map[string]any)
	second, _ := admins[1].(map[string]any)
	if first["id"] != "1" || first["last_login_at"] != "2026-03-04T09:00:00Z" || second["is_disabled"] != true || second["last_login_at"] != nil {
		t.Fatalf("admins = %v", admins)
	}
}

func TestHTTPEndpoint_CreateAdmin(t *testing.T) {
	// Arrange
	uc := &fakeUC{}
	h, token := newHandler(t, uc)

	// Act
	status, out := call(t, h, http.MethodPost, "/api/v1/admin/admins", `{"email":"new@gatepass.local","name":"New","password":"longenough"}`, token)
	anon, _ := call(t, h, http.MethodPost, "/api/v1/admin/admins", `{}`, "")

	// Assert
	if status != http.StatusCreated || out["message"] != "admin created" {
		t.Fatalf("status = %d body = %v", status, out)
	}
	if uc.createIn != (usecase.CreateAdminInput{Email: "new@gatepass.local", Name: "New", Password: "longenough"}) {
		t.Fatalf("createIn = %+v", uc.createIn)
	}
	if anon != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d", anon)
	}
}

func TestHTTPEndpoint_AdminByID(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{name: "delete", method: http.MethodDelete, path: "/api/v1/admin/admins/42", status: http.StatusNoContent},
		{name: "delete self", method: http.MethodDelete, path: "/api/v1/admin/admins/1234567890123", status: http.StatusForbidden},
		{name: "delete bad id", method: http.MethodDelete, path: "/api/v1/admin/admins/abc", status: http.StatusBadRequest},
		{name: "toggle", method: http.MethodPost, path: "/api/v1/admin/admins/42/toggle-status", status: http.StatusOK},
		{name: "toggle last active", method: http.MethodPost, path: "/api/v1/admin/admins/5/toggle-status", status: http.StatusConflict},
		{name: "set password", method: http.MethodPost, path: "/api/v1/admin/admins/42/password", body: `{"new_password":"brand-new-pass"}`, status: http.StatusOK},
		{name: "set password unknown field", method: http.MethodPost, path: "/api/v1/admin/admins/42/password", body: `{"password":"x"}`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			uc := &fakeUC{}
			h, token := newHandler(t, uc)

			// Act
			status, out := call(t, h, tt.method, tt.path, tt.body, token)

			// Assert
			if status != tt.status {
				t.Fatalf("status = %d, want %d (%v)", status, tt.status, out)
			}
		})
	}
}

func TestHTTPEndpoint_UpdateMe(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		field  string
		want   any
	}{
		{name: "name", path: "/api/v1/admin/me/name", body: `{"name":"Superuser"}`, status: http.StatusOK, field: "name", want: "Superuser"},
		{name: "email", path: "/api/v1/admin/me/email", body: `{"email":"boss@gatepass.local"}`, status: http.StatusOK, field: "email", want: "boss@gatepass.local"},
		{name: "password", path: "/api/v1/admin/me/password", body: `{"current_password":"s3cret!","new_password":"even-better"}`, status: http.StatusOK},
		{name: "wrong password", path: "/api/v1/admin/me/password", body: `{"current_password":"x","new_password":"even-better"}`, status: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			h, token := newHandler(t, &fakeUC{})

			// Act
			status, out := call(t, h, http.MethodPut, tt.path, tt.body, token)

			// Assert
			if status != tt.status {
				t.Fatalf("status = %d, want %d (%v)", status, tt.status, out)
			}
			if tt.field != "" {
				data, _ := out["data"].(map[string]any)
				if data[tt.field] != tt.want || data["id"] != "1234567890123" {
					t.Fatalf("body = %v", out)
				}
			}
		})
	}
}
