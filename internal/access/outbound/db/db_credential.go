package db

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/gatepass/internal/access/entity"
	"github.com/shandysiswandi/gatepass/internal/pkg/goerror"
)

const credentialColumns = `id, holder_name, secret, is_disabled, is_temporary, expires_at, created_at`

func (s *DB) queryCredentials(ctx context.Context, sql string, args ...any) ([]entity.Credential, error) {
	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[credentialRow])
	if err != nil {
		return nil, err
	}

	out := make([]entity.Credential, 0, len(items))
	for _, r := range items {
		out = append(out, r.entity())
	}

	return out, nil
}

// GetActive returns every stored credential. Eligibility is decided by the
// caller at verification time.
func (s *DB) GetActive(ctx context.Context) (_ []entity.Credential, err error) {
	ctx, span := s.startSpan(ctx, "GetActive")
	defer func() { s.endSpan(span, err) }()

	items, err := s.queryCredentials(ctx, `SELECT `+credentialColumns+` FROM access_credentials ORDER BY created_at, id`)

	return items, s.mapError(err)
}

// GetByIDPrefix narrows by ID prefix. LIKE may fold case under some
// collations, so the result is filtered again here.
func (s *DB) GetByIDPrefix(ctx context.Context, prefix string) (_ []entity.Credential, err error) {
	ctx, span := s.startSpan(ctx, "GetByIDPrefix")
	defer func() { s.endSpan(span, err) }()

	items, err := s.queryCredentials(ctx,
		`SELECT `+credentialColumns+` FROM access_credentials WHERE id LIKE $1 ORDER BY created_at, id`,
		escapeLike(prefix)+"%")
	if err != nil {
		return nil, s.mapError(err)
	}

	out := items[:0]
	for _, c := range items {
		if strings.HasPrefix(c.ID, prefix) {
			out = append(out, c)
		}
	}

	return out, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (s *DB) GetByID(ctx context.Context, id string) (_ *entity.Credential, err error) {
	ctx, span := s.startSpan(ctx, "GetByID")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `SELECT `+credentialColumns+` FROM access_credentials WHERE id = $1`, id)
	if err != nil {
		return nil, s.mapError(err)
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[credentialRow])
	if err != nil {
		return nil, s.mapError(err)
	}

	c := row.entity()

	return &c, nil
}

func (s *DB) ExistsByHolderName(ctx context.Context, name string) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ExistsByHolderName")
	defer func() { s.endSpan(span, err) }()

	var exists bool
	err = s.conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM access_credentials WHERE holder_name = $1)`, name).Scan(&exists)

	return exists, s.mapError(err)
}

func (s *DB) CreateCredential(ctx context.Context, c entity.Credential) (err error) {
	ctx, span := s.startSpan(ctx, "CreateCredential")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`INSERT INTO access_credentials (`+credentialColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.HolderName, c.Secret, c.IsDisabled, c.IsTemporary, c.ExpiresAt, c.CreatedAt)

	return s.mapError(err)
}

func (s *DB) ListCredentials(ctx context.Context) (_ []entity.CredentialSummary, err error) {
	ctx, span := s.startSpan(ctx, "ListCredentials")
	defer func() { s.endSpan(span, err) }()

	items, err := s.queryCredentials(ctx, `SELECT `+credentialColumns+` FROM access_credentials ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, s.mapError(err)
	}

	out := make([]entity.CredentialSummary, 0, len(items))
	for _, c := range items {
		out = append(out, c.Summary())
	}

	return out, nil
}

func (s *DB) SetDisabled(ctx context.Context, id string, disabled bool) (err error) {
	ctx, span := s.startSpan(ctx, "SetDisabled")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `UPDATE access_credentials SET is_disabled = $2 WHERE id = $1`, id, disabled)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

// DeleteCredential removes the credential's audit entries and then the
// credential in one transaction.
func (s *DB) DeleteCredential(ctx context.Context, id string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteCredential")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return s.mapError(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `DELETE FROM access_logs WHERE credential_id = $1`, id); err != nil {
		return s.mapError(err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM access_credentials WHERE id = $1`, id)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		err = goerror.ErrNotFound
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

func (s *DB) CountCredentials(ctx context.Context, now time.Time) (total, active int64, err error) {
	ctx, span := s.startSpan(ctx, "CountCredentials")
	defer func() { s.endSpan(span, err) }()

	err = s.conn.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE NOT is_disabled AND (NOT is_temporary OR expires_at IS NULL OR expires_at > $1))
		FROM access_credentials`, now).Scan(&total, &active)

	return total, active, s.mapError(err)
}
