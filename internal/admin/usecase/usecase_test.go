package usecase

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/gatepass/internal/admin/entity"
	"github.com/shandysiswandi/gatepass/internal/pkg/clock"
	"github.com/shandysiswandi/gatepass/internal/pkg/config"
	"github.com/shandysiswandi/gatepass/internal/pkg/goerror"
	"github.com/shandysiswandi/gatepass/internal/pkg/goroutine"
	"github.com/shandysiswandi/gatepass/internal/pkg/hash"
	"github.com/shandysiswandi/gatepass/internal/pkg/instrument"
	"github.com/shandysiswandi/gatepass/internal/pkg/jwt"
	"github.com/shandysiswandi/gatepass/internal/pkg/validator"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

type fakeDB struct {
	admins   []entity.Admin
	countErr error
	writeErr error
	// guardErr stands in for a concurrent change that left the target as
	// the last enabled admin.
	guardErr error
}

func (f *fakeDB) GetAdminByEmail(_ context.Context, email string) (*entity.Admin, error) {
	for _, a := range f.admins {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeDB) GetAdminByID(_ context.Context, id int64) (*entity.Admin, error) {
	for _, a := range f.admins {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeDB) CountAdmins(context.Context) (int64, error) {
	return int64(len(f.admins)), f.countErr
}

func (f *fakeDB) CreateAdmin(_ context.Context, a entity.Admin) error {
	for _, x := range f.admins {
		if x.Email == a.Email {
			return goerror.ErrConflict
		}
	}
	f.admins = append(f.admins, a)
	return nil
}

func (f *fakeDB) ListAdmins(context.Context) ([]entity.Admin, error) {
	return f.admins, f.writeErr
}

func (f *fakeDB) change(id int64, fn func(a *entity.Admin) error) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	for i := range f.admins {
		if f.admins[i].ID == id {
			return fn(&f.admins[i])
		}
	}
	return goerror.ErrNotFound
}

func (f *fakeDB) lastActive(id int64) bool {
	var active []int64
	for _, a := range f.admins {
		if !a.IsDisabled {
			active = append(active, a.ID)
		}
	}
	return len(active) == 1 && active[0] == id
}

func (f *fakeDB) SetAdminPassword(_ context.Context, id int64, hashed string) error {
	return f.change(id, func(a *entity.Admin) error { a.PasswordHash = hashed; return nil })
}

func (f *fakeDB) SetAdminName(_ context.Context, id int64, name string) error {
	return f.change(id, func(a *entity.Admin) error { a.Name = name; return nil })
}

func (f *fakeDB) SetAdminEmail(_ context.Context, id int64, email string) error {
	for _, x := range f.admins {
		if x.Email == email && x.ID != id {
			return goerror.ErrConflict
		}
	}
	return f.change(id, func(a *entity.Admin) error { a.Email = email; return nil })
}

func (f *fakeDB) SetAdminDisabled(_ context.Context, id int64, disabled bool) error {
	if f.guardErr != nil {
		return f.guardErr
	}
	if disabled && f.lastActive(id) {
		return entity.ErrLastActiveAdmin
	}
	return f.change(id, func(a *entity.Admin) error { a.IsDisabled = disabled; return nil })
}

func (f *fakeDB) DeleteAdmin(_ context.Context, id int64) error {
	if f.guardErr != nil {
		return f.guardErr
	}
	if f.lastActive(id) {
		return entity.ErrLastActiveAdmin
	}
	return f.change(id, func(*entity.Admin) error {
		f.admins = slices.DeleteFunc(f.admins, func(a entity.Admin) bool { return a.ID == id })
		return nil
	})
}

func (f *fakeDB) TouchLastLogin(_ context.Context, id int64, at time.Time) error {
	return f.change(id, func(a *entity.Admin) error { a.LastLoginAt = &at; return nil })
}

type fakeMQ struct {
	mu      sync.Mutex
	routine *goroutine.Manager
	entries []entity.AuditEntry
}

func (f *fakeMQ) PublishAdminAudit(_ context.Context, e entity.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

// audits waits for background publishes and returns "actor|action" pairs.
func (f *fakeMQ) audits(t *testing.T) []string {
	t.Helper()

	if err := f.routine.Wait(); err != nil {
		t.Fatalf("background error: %v", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Actor+"|"+e.Action)
	}
	return out
}

type fakeJWT struct{ sub jwt.Subject }

func (f *fakeJWT) Generate(sub jwt.Subject) (string, error) {
	f.sub = sub
	return "token-for-" + sub.Email, nil
}

func (f *fakeJWT) Verify(string) (jwt.Claims, error) { return jwt.Claims{}, errors.New("unused") }

type fixedID int64

func (f fixedID) Generate() int64 { return int64(f) }

func newUsecase(t *testing.T, db *fakeDB, yaml string) (*Usecase, *fakeJWT, *fakeMQ) {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	if err != nil {
		t.Fatalf("config error: %v", err)
	}
	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator error: %v", err)
	}
	j := &fakeJWT{}
	mq := &fakeMQ{routine: goroutine.NewManager(10)}

	return New(Dependency{
		RepoDB:     db,
		RepoMQ:     mq,
		Config:     cfg,
		Bcrypt:     hash.NewBcrypt(bcrypt.MinCost, "pep"),
		JWT:        j,
		UID:        fixedID(77),
		Clock:      clock.Fixed(testNow),
		Validator:  v,
		Instrument: instrument.NewNoop(),
		Goroutine:  mq.routine,
	}), j, mq
}

func TestUsecase_Login(t *testing.T) {
	hashed, err := hash.NewBcrypt(bcrypt.MinCost, "pep").Hash("s3cret!")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	tests := []struct {
		name      string
		in        LoginInput
		wantCode  goerror.Code
		wantErr   bool
		wantAudit []string
	}{
		{
			name:      "success with mixed case email",
			in:        LoginInput{Email: " Root@Gatepass.local ", Password: "s3cret!"},
			wantAudit: []string{"root@gatepass.local|admin_login"},
		},
		{
			name: "wrong password", in: LoginInput{Email: "root@gatepass.local", Password: "nope"},
			wantErr: true, wantCode: goerror.CodeUnauthorized,
			wantAudit: []string{"root@gatepass.local|admin_login_failed"},
		},
		{
			name: "unknown email", in: LoginInput{Email: "who@gatepass.local", Password: "s3cret!"},
			wantErr: true, wantCode: goerror.CodeUnauthorized,
			wantAudit: []string{"who@gatepass.local|admin_login_failed"},
		},
		{
			name: "disabled account", in: LoginInput{Email: "off@gatepass.local", Password: "s3cret!"},
			wantErr: true, wantCode: goerror.CodeUnauthorized,
			wantAudit: []string{"off@gatepass.local|admin_login_failed"},
		},
		{
			name: "invalid email", in: LoginInput{Email: "root", Password: "s3cret!"},
			wantErr: true, wantCode: goerror.CodeInvalidInput,
			wantAudit: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			db := &fakeDB{admins: []entity.Admin{
				{ID: 5, Email: "root@gatepass.local", Name: "Root", PasswordHash: string(hashed)},
				{ID: 6, Email: "off@gatepass.local", Name: "Off", PasswordHash: string(hashed), IsDisabled: true},
			}}
			uc, j, mq := newUsecase(t, db, "app:\n  name: gatepass\n")

			// Act
			out, err := uc.Login(context.Background(), tt.in)

			// Assert
			if got := mq.audits(t); !slices.Equal(got, tt.wantAudit) {
				t.Fatalf("audits = %v, want %v", got, tt.wantAudit)
			}
			if tt.wantErr {
				if !goerror.IsCode(err, tt.wantCode) {
					t.Fatalf("err = %v, want code %v", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login error: %v", err)
			}
			if out.AccessToken != "token-for-root@gatepass.local" || j.sub.ID != 5 || j.sub.Name != "Root" {
				t.Fatalf("out = %+v sub = %+v", out, j.sub)
			}
			if at := db.admins[0].LastLoginAt; at == nil || !at.Equal(testNow) {
				t.Fatalf("last login = %v", at)
			}
		})
	}
}

func TestUsecase_Me(t *testing.T) {
	db := &fakeDB{admins: []entity.Admin{{ID: 5, Email: "root@gatepass.local", Name: "Root"}}}
	uc, _, _ := newUsecase(t, db, "app:\n  name: gatepass\n")

	got, err := uc.Me(jwt.SetAuth(context.Background(), jwt.Claims{AdminID: 5}))
	if err != nil || got.Name != "Root" {
		t.Fatalf("Me = %+v, %v", got, err)
	}

	if _, err := uc.Me(context.Background()); !goerror.IsCode(err, goerror.CodeUnauthorized) {
		t.Fatalf("Me without auth err = %v", err)
	}
	if _, err := uc.Me(jwt.SetAuth(context.Background(), jwt.Claims{AdminID: 9})); !goerror.IsCode(err, goerror.CodeNotFound) {
		t.Fatalf("Me for deleted admin err = %v", err)
	}

	db.admins[0].IsDisabled = true
	if _, err := uc.Me(jwt.SetAuth(context.Background(), jwt.Claims{AdminID: 5})); !goerror.IsCode(err, goerror.CodeForbidden) {
		t.Fatalf("Me for disabled admin err = %v", err)
	}
}

func TestUsecase_Seed(t *testing.T) {
	const seedCfg = "admin:\n  seed:\n    email: Root@Gatepass.local\n    password: s3cret!\n"

	t.Run("creates the first admin", func(t *testing.T) {
		// Arrange
		db := &fakeDB{}
		uc, _, _ := newUsecase(t, db, seedCfg)

		// Act
		err := uc.Seed(context.Background())

		// Assert
		if err != nil {
			t.Fatalf("Seed error: %v", err)
		}
		if len(db.admins) != 1 {
			t.Fatalf("admins = %+v", db.admins)
		}
		a := db.admins[0]
		if a.ID != 77 || a.Email != "root@gatepass.local" || a.Name != "Administrator" || !a.CreatedAt.Equal(testNow) {
			t.Fatalf("seeded = %+v", a)
		}
		if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte("s3cret!pep")) != nil {
			t.Fatalf("password hash does not match")
		}
	})

	t.Run("keeps existing admins", func(t *testing.T) {
		db := &fakeDB{admins: []entity.Admin{{ID: 1, Email: "a@b.co"}}}
		uc, _, _ := newUsecase(t, db, seedCfg)

		if err := uc.Seed(context.Background()); err != nil || len(db.admins) != 1 {
			t.Fatalf("Seed err = %v admins = %d", err, len(db.admins))
		}
	})

	t.Run("not configured", func(t *testing.T) {
		db := &fakeDB{}
		uc, _, _ := newUsecase(t, db, "app:\n  name: gatepass\n")

		if err := uc.Seed(context.Background()); err != nil || len(db.admins) != 0 {
			t.Fatalf("Seed err = %v admins = %d", err, len(db.admins))
		}
	})

	t.Run("count failure", func(t *testing.T) {
		db := &fakeDB{countErr: errors.New("db down")}
		uc, _, _ := newUsecase(t, db, seedCfg)

		if err := uc.Seed(context.Background()); err == nil {
			t.Fatalf("Seed err = nil, want error")
		}
	})
}
