package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"log/slog"
	"strconv"
	"time"

	"github.com/shandysiswandi/gatepass/internal/access/entity"
	"github.com/shandysiswandi/gatepass/internal/pkg/goerror"
)

const (
	maxLogLimit      = 100
	maxExportEntries = 10000
	exportURLTTL     = 15 * time.Minute
)

type (
	ListLogsInput struct {
		Limit int `validate:"gte=0"`
	}

	ExportLogsOutput struct {
		URL       string
		Key       string
		Count     int
		ExpiresAt time.Time
	}
)

// ListLogs returns the newest audit entries first. Limit defaults to and is
// capped at 100.
func (s *Usecase) ListLogs(ctx context.Context, in ListLogsInput) ([]entity.AuditEntry, error) {
	ctx, span := s.startSpan(ctx, "ListLogs")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if in.Limit == 0 || in.Limit > maxLogLimit {
		in.Limit = maxLogLimit
	}

	items, err := s.repoDB.ListAuditEntries(ctx, in.Limit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list audit entries", "error", err)
		return nil, goerror.NewServer(err)
	}

	return items, nil
}

// ExportLogs writes recent audit entries as CSV to the archive and returns a
// download link.
func (s *Usecase) ExportLogs(ctx context.Context) (*ExportLogsOutput, error) {
	ctx, span := s.startSpan(ctx, "ExportLogs")
	defer span.End()

	if s.repoArchive == nil {
		return nil, goerror.NewBusiness("Log export is not configured", goerror.CodeUnavailable)
	}

	items, err := s.repoDB.ListAuditEntries(ctx, maxExportEntries)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list audit entries for export", "error", err)
		return nil, goerror.NewServer(err)
	}

	data, err := encodeAuditCSV(items)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode audit csv", "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now().UTC()
	key := "access-logs/" + now.Format("2006/01/02") + "/access-logs-" + now.Format("20060102T150405Z") + ".csv"

	url, err := s.repoArchive.Upload(ctx, key, data, "text/csv")
	if err != nil {
		slog.ErrorContext(ctx, "failed to upload audit export", "key", key, "error", err)
		return nil, goerror.NewUnavailable(err, "Export storage unavailable")
	}

	slog.InfoContext(ctx, "audit log exported", "key", key, "count", len(items), "admin_id", adminID(ctx))

	return &ExportLogsOutput{URL: url, Key: key, Count: len(items), ExpiresAt: now.Add(exportURLTTL)}, nil
}

func encodeAuditCSV(items []entity.AuditEntry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"id", "credential_id", "holder_name", "action", "created_at"}); err != nil {
		return nil, err
	}
	for _, e := range items {
		if err := w.Write([]string{
			strconv.FormatInt(e.ID, 10),
			e.CredentialID,
			e.HolderName,
			e.Action,
			e.CreatedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return nil, err
		}
	}
	w.Flush()

	return buf.Bytes(), w.Error()
}
