package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/gatepass/internal/access/entity"
)

const auditColumns = `id, credential_id, holder_name, action, created_at`

func (s *DB) CreateAuditEntry(ctx context.Context, e entity.AuditEntry) (err error) {
	ctx, span := s.startSpan(ctx, "CreateAuditEntry")
	defer func() { s.endSpan(span, err) }()

	var credentialID *string
	if e.CredentialID != "" {
		credentialID = &e.CredentialID
	}

	_, err = s.conn.Exec(ctx,
		`INSERT INTO access_logs (`+auditColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		e.ID, credentialID, e.HolderName, e.Action, e.CreatedAt)

	return s.mapError(err)
}

func (s *DB) ListAuditEntries(ctx context.Context, limit int) (_ []entity.AuditEntry, err error) {
	ctx, span := s.startSpan(ctx, "ListAuditEntries")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `SELECT `+auditColumns+` FROM access_logs ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, s.mapError(err)
	}

	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[auditRow])
	if err != nil {
		return nil, s.mapError(err)
	}

	out := make([]entity.AuditEntry, 0, len(items))
	for _, r := range items {
		out = append(out, r.entity())
	}

	return out, nil
}

func (s *DB) CountAuditEntries(ctx context.Context) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "CountAuditEntries")
	defer func() { s.endSpan(span, err) }()

	var n int64
	err = s.conn.QueryRow(ctx, `SELECT count(*) FROM access_logs`).Scan(&n)

	return n, s.mapError(err)
}

func (s *DB) LastAuditEntry(ctx context.Context) (_ *entity.AuditEntry, err error) {
	ctx, span := s.startSpan(ctx, "LastAuditEntry")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `SELECT `+auditColumns+` FROM access_logs ORDER BY created_at DESC, id DESC LIMIT 1`)
	if err != nil {
		return nil, s.mapError(err)
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[auditRow])
	if err != nil {
		return nil, s.mapError(err)
	}

	e := row.entity()

	return &e, nil
}
