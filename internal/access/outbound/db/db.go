package db

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/gatepass/internal/access/entity"
	"github.com/shandysiswandi/gatepass/internal/pkg/goerror"
	"github.com/shandysiswandi/gatepass/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

//go:embed schema.sql
var schema string

type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, ins: ins}
}

// Migrate creates the access tables when they do not exist.
func (s *DB) Migrate(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, schema)
	return err
}

// - 23505 unique_violation → goerror.ErrConflict
// - 23503 foreign_key_violation → goerror.ErrNotFound (the referenced credential is gone)
func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return goerror.ErrConflict
		case "23503":
			return goerror.ErrNotFound
		}
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("access.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

type credentialRow struct {
	ID          string     `db:"id"`
	HolderName  string     `db:"holder_name"`
	Secret      string     `db:"secret"`
	IsDisabled  bool       `db:"is_disabled"`
	IsTemporary bool       `db:"is_temporary"`
	ExpiresAt   *time.Time `db:"expires_at"`
	CreatedAt   time.Time  `db:"created_at"`
}

func (r credentialRow) entity() entity.Credential {
	return entity.Credential{
		ID:          r.ID,
		HolderName:  r.HolderName,
		Secret:      r.Secret,
		IsDisabled:  r.IsDisabled,
		IsTemporary: r.IsTemporary,
		ExpiresAt:   r.ExpiresAt,
		CreatedAt:   r.CreatedAt,
	}
}

type auditRow struct {
	ID           int64     `db:"id"`
	CredentialID *string   `db:"credential_id"`
	HolderName   string    `db:"holder_name"`
	Action       string    `db:"action"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r auditRow) entity() entity.AuditEntry {
	e := entity.AuditEntry{ID: r.ID, HolderName: r.HolderName, Action: r.Action, CreatedAt: r.CreatedAt}
	if r.CredentialID != nil {
		e.CredentialID = *r.CredentialID
	}

	return e
}
