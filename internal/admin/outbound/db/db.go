package db

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/gatepass/internal/admin/entity"
	"github.com/shandysiswandi/gatepass/internal/pkg/goerror"
	"github.com/shandysiswandi/gatepass/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

//go:embed schema.sql
var schema string

const adminColumns = `id, email, name, password_hash, is_disabled, last_login_at, created_at`

type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, ins: ins}
}

func (s *DB) Migrate(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, schema)
	return err
}

type adminRow struct {
	ID           int64      `db:"id"`
	Email        string     `db:"email"`
	Name         string     `db:"name"`
	PasswordHash string     `db:"password_hash"`
	IsDisabled   bool       `db:"is_disabled"`
	LastLoginAt  *time.Time `db:"last_login_at"`
	CreatedAt    time.Time  `db:"created_at"`
}

func (r adminRow) entity() entity.Admin {
	return entity.Admin{
		ID:           r.ID,
		Email:        r.Email,
		Name:         r.Name,
		PasswordHash: r.PasswordHash,
		IsDisabled:   r.IsDisabled,
		LastLoginAt:  r.LastLoginAt,
		CreatedAt:    r.CreatedAt,
	}
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("admin.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	switch {
	case err == nil,
		errors.Is(err, goerror.ErrNotFound),
		errors.Is(err, goerror.ErrConflict),
		errors.Is(err, entity.ErrLastActiveAdmin):
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func mapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) getOne(ctx context.Context, where string, arg any) (*entity.Admin, error) {
	rows, err := s.conn.Query(ctx, `SELECT `+adminColumns+` FROM admins WHERE `+where+` = $1`, arg)
	if err != nil {
		return nil, mapError(err)
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[adminRow])
	if err != nil {
		return nil, mapError(err)
	}

	a := row.entity()

	return &a, nil
}

func (s *DB) GetAdminByEmail(ctx context.Context, email string) (_ *entity.Admin, err error) {
	ctx, span := s.startSpan(ctx, "GetAdminByEmail")
	defer func() { s.endSpan(span, err) }()

	return s.getOne(ctx, "lower(email)", email)
}

func (s *DB) GetAdminByID(ctx context.Context, id int64) (_ *entity.Admin, err error) {
	ctx, span := s.startSpan(ctx, "GetAdminByID")
	defer func() { s.endSpan(span, err) }()

	return s.getOne(ctx, "id", id)
}

func (s *DB) CountAdmins(ctx context.Context) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "CountAdmins")
	defer func() { s.endSpan(span, err) }()

	var n int64
	err = s.conn.QueryRow(ctx, `SELECT count(*) FROM admins`).Scan(&n)

	return n, mapError(err)
}

func (s *DB) CreateAdmin(ctx context.Context, a entity.Admin) (err error) {
	ctx, span := s.startSpan(ctx, "CreateAdmin")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`INSERT INTO admins (id, email, name, password_hash, is_disabled, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.Email, a.Name, a.PasswordHash, a.IsDisabled, a.CreatedAt)

	return mapError(err)
}
