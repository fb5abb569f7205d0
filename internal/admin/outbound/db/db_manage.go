package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/gatepass/internal/admin/entity"
	"github.com/shandysiswandi/gatepass/internal/pkg/goerror"
)

func (s *DB) ListAdmins(ctx context.Context) (_ []entity.Admin, err error) {
	ctx, span := s.startSpan(ctx, "ListAdmins")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `SELECT `+adminColumns+` FROM admins ORDER BY created_at, id`)
	if err != nil {
		return nil, mapError(err)
	}

	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[adminRow])
	if err != nil {
		return nil, mapError(err)
	}

	out := make([]entity.Admin, 0, len(items))
	for _, it := range items {
		out = append(out, it.entity())
	}

	return out, nil
}

func (s *DB) update(ctx context.Context, query string, args ...any) error {
	tag, err := s.conn.Exec(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *DB) SetAdminPassword(ctx context.Context, id int64, hash string) (err error) {
	ctx, span := s.startSpan(ctx, "SetAdminPassword")
	defer func() { s.endSpan(span, err) }()

	return s.update(ctx, `UPDATE admins SET password_hash = $2 WHERE id = $1`, id, hash)
}

func (s *DB) SetAdminName(ctx context.Context, id int64, name string) (err error) {
	ctx, span := s.startSpan(ctx, "SetAdminName")
	defer func() { s.endSpan(span, err) }()

	return s.update(ctx, `UPDATE admins SET name = $2 WHERE id = $1`, id, name)
}

// SetAdminEmail yields goerror.ErrConflict when another admin owns email.
func (s *DB) SetAdminEmail(ctx context.Context, id int64, email string) (err error) {
	ctx, span := s.startSpan(ctx, "SetAdminEmail")
	defer func() { s.endSpan(span, err) }()

	return s.update(ctx, `UPDATE admins SET email = $2 WHERE id = $1`, id, email)
}

func (s *DB) TouchLastLogin(ctx context.Context, id int64, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "TouchLastLogin")
	defer func() { s.endSpan(span, err) }()

	return s.update(ctx, `UPDATE admins SET last_login_at = $2 WHERE id = $1`, id, at)
}

// guardLastActive locks every enabled admin and fails when id is the only
// one left. Concurrent callers serialize on those row locks.
func guardLastActive(ctx context.Context, tx pgx.Tx, id int64) error {
	rows, err := tx.Query(ctx, `SELECT id FROM admins WHERE NOT is_disabled ORDER BY id FOR UPDATE`)
	if err != nil {
		return mapError(err)
	}

	active, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return mapError(err)
	}
	if len(active) == 1 && active[0] == id {
		return entity.ErrLastActiveAdmin
	}

	return nil
}

func (s *DB) inTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return mapError(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	return mapError(tx.Commit(ctx))
}

func execOne(ctx context.Context, tx pgx.Tx, query string, args ...any) error {
	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

// SetAdminDisabled refuses, with entity.ErrLastActiveAdmin, to disable the
// only enabled admin.
func (s *DB) SetAdminDisabled(ctx context.Context, id int64, disabled bool) (err error) {
	ctx, span := s.startSpan(ctx, "SetAdminDisabled")
	defer func() { s.endSpan(span, err) }()

	return s.inTx(ctx, func(tx pgx.Tx) error {
		if disabled {
			if err := guardLastActive(ctx, tx, id); err != nil {
				return err
			}
		}

		return execOne(ctx, tx, `UPDATE admins SET is_disabled = $2 WHERE id = $1`, id, disabled)
	})
}

// DeleteAdmin refuses, with entity.ErrLastActiveAdmin, to delete the only
// enabled admin.
func (s *DB) DeleteAdmin(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteAdmin")
	defer func() { s.endSpan(span, err) }()

	return s.inTx(ctx, func(tx pgx.Tx) error {
		if err := guardLastActive(ctx, tx, id); err != nil {
			return err
		}

		return execOne(ctx, tx, `DELETE FROM admins WHERE id = $1`, id)
	})
}
