package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/gatepass/internal/access/entity"
	"github.com/shandysiswandi/gatepass/internal/pkg/goerror"
	"github.com/shandysiswandi/gatepass/internal/pkg/jwt"
)

var errCredentialNotFound = goerror.NewBusiness("Credential not found", goerror.CodeNotFound)

type (
	CreateCredentialInput struct {
		Name        string `validate:"required,min=1,max=100,holdername"`
		IsTemporary bool
		ExpiryDays  int `validate:"gte=0,lte=3650"`
	}

	CredentialIDInput struct {
		ID string `validate:"required,alphanum,max=32"`
	}

	CredentialDetail struct {
		entity.Credential
		ProvisioningURI string
	}
)

func adminID(ctx context.Context) int64 {
	if clm := jwt.GetAuth(ctx); clm != nil {
		return clm.AdminID
	}

	return 0
}

func (s *Usecase) CreateCredential(ctx context.Context, in CreateCredentialInput) (*CredentialDetail, error) {
	ctx, span := s.startSpan(ctx, "CreateCredential")
	defer span.End()

	in.Name = strings.TrimSpace(in.Name)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	exists, err := s.repoDB.ExistsByHolderName(ctx, in.Name)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo check holder name", "holder", in.Name, "error", err)
		return nil, goerror.NewServer(err)
	}
	if exists {
		return nil, goerror.NewBusiness("Holder name already exists", goerror.CodeConflict)
	}

	secret, uri, err := s.otp.NewSecret(in.Name)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate totp secret", "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	c := entity.Credential{
		ID:          s.credID.Generate(),
		HolderName:  in.Name,
		Secret:      secret,
		IsTemporary: in.IsTemporary,
		CreatedAt:   now,
	}
	if in.IsTemporary && in.ExpiryDays > 0 {
		exp := now.Add(time.Duration(in.ExpiryDays) * 24 * time.Hour)
		c.ExpiresAt = &exp
	}

	if err := s.repoDB.CreateCredential(ctx, c); err != nil {
		if errors.Is(err, goerror.ErrConflict) {
			return nil, goerror.NewBusiness("Holder name already exists", goerror.CodeConflict)
		}
		slog.ErrorContext(ctx, "failed to repo create credential", "holder", in.Name, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "credential created", "credential_id", c.ID, "holder", c.HolderName, "temporary", c.IsTemporary, "admin_id", adminID(ctx))
	s.recordAudit(ctx, c.ID, c.HolderName, entity.ActionCreatedByAdmin)

	return &CredentialDetail{Credential: c, ProvisioningURI: uri}, nil
}

func (s *Usecase) getCredential(ctx context.Context, in CredentialIDInput) (*entity.Credential, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, errCredentialNotFound
	}

	c, err := s.repoDB.GetByID(ctx, in.ID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, errCredentialNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get credential", "credential_id", in.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return c, nil
}

func (s *Usecase) GetCredential(ctx context.Context, in CredentialIDInput) (*CredentialDetail, error) {
	ctx, span := s.startSpan(ctx, "GetCredential")
	defer span.End()

	c, err := s.getCredential(ctx, in)
	if err != nil {
		return nil, err
	}

	uri, err := s.otp.ProvisioningURI(c.HolderName, c.Secret)
	if err != nil {
		slog.ErrorContext(ctx, "stored secret is not valid base32", "credential_id", c.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &CredentialDetail{Credential: *c, ProvisioningURI: uri}, nil
}

func (s *Usecase) ListCredentials(ctx context.Context) ([]entity.CredentialSummary, error) {
	ctx, span := s.startSpan(ctx, "ListCredentials")
	defer span.End()

	items, err := s.repoDB.ListCredentials(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list credentials", "error", err)
		return nil, goerror.NewServer(err)
	}

	return items, nil
}

// ToggleCredential flips the disabled flag and returns the new state.
func (s *Usecase) ToggleCredential(ctx context.Context, in CredentialIDInput) (*entity.CredentialSummary, error) {
	ctx, span := s.startSpan(ctx, "ToggleCredential")
	defer span.End()

	c, err := s.getCredential(ctx, in)
	if err != nil {
		return nil, err
	}

	disabled := !c.IsDisabled
	if err := s.repoDB.SetDisabled(ctx, c.ID, disabled); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, errCredentialNotFound
		}
		slog.ErrorContext(ctx, "failed to repo set credential disabled", "credential_id", c.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	action := entity.ActionEnabledByAdmin
	if disabled {
		action = entity.ActionDisabledByAdmin
	}
	slog.InfoContext(ctx, "credential status changed", "credential_id", c.ID, "disabled", disabled, "admin_id", adminID(ctx))
	s.recordAudit(ctx, c.ID, c.HolderName, action)

	c.IsDisabled = disabled
	summary := c.Summary()

	return &summary, nil
}

// DeleteCredential removes the credential and its audit entries. The
// deletion itself is audited without a credential reference.
func (s *Usecase) DeleteCredential(ctx context.Context, in CredentialIDInput) error {
	ctx, span := s.startSpan(ctx, "DeleteCredential")
	defer span.End()

	c, err := s.getCredential(ctx, in)
	if err != nil {
		return err
	}

	if err := s.repoDB.DeleteCredential(ctx, c.ID); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return errCredentialNotFound
		}
		slog.ErrorContext(ctx, "failed to repo delete credential", "credential_id", c.ID, "error", err)
		return goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "credential deleted", "credential_id", c.ID, "holder", c.HolderName, "admin_id", adminID(ctx))
	s.recordAudit(ctx, "", c.HolderName, entity.ActionDeletedByAdmin)

	return nil
}
