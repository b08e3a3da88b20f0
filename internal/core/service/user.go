package service

import (
	"context"
	"strings"

	"todoapi/internal/core/domain"
	"todoapi/internal/core/port"
	tel "todoapi/internal/core/telemetry"
)

type UserService struct {
	repo      port.UserRepository
	telemetry port.Telemetry
}

func NewUserService(repo port.UserRepository, telemetry port.Telemetry) *UserService {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &UserService{repo: repo, telemetry: telemetry}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (us *UserService) Create(ctx context.Context, user domain.NewUser) (_ *domain.User, err error) {
	ctx, done := observe(ctx, us.telemetry, "user", "Create", map[string]interface{}{"user.external_id": user.ExternalID})
	defer done(&err)

	user.Email = normalizeEmail(user.Email)
	user.DisplayName = strings.TrimSpace(user.DisplayName)

	created, err := us.repo.Create(ctx, user)

	if err != nil {
		return nil, err
	}

	us.telemetry.RecordBusinessEvent(ctx, "user.created", "user", created.ID.String(), nil)

	return created, nil
}

func (us *UserService) FindByExternalID(ctx context.Context, externalID string) (_ *domain.User, err error) {
	ctx, done := observe(ctx, us.telemetry, "user", "FindByExternalID", map[string]interface{}{"user.external_id": externalID})
	defer done(&err)

	user, err := us.repo.GetByExternalID(ctx, externalID)

	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, domain.NewNotFoundError("User")
	}

	return user, nil
}

func (us *UserService) FindByEmail(ctx context.Context, email string) (_ *domain.User, err error) {
	ctx, done := observe(ctx, us.telemetry, "user", "FindByEmail", nil)
	defer done(&err)

	user, err := us.repo.GetByEmail(ctx, normalizeEmail(email))

	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, domain.NewNotFoundError("User")
	}

	return user, nil
}

func (us *UserService) Update(ctx context.Context, externalID string, changes domain.UserChanges) (_ *domain.User, err error) {
	ctx, done := observe(ctx, us.telemetry, "user", "Update", map[string]interface{}{"user.external_id": externalID})
	defer done(&err)

	if changes.IsEmpty() {
		return nil, noFieldsError()
	}

	if changes.DisplayName.Present {
		changes.DisplayName.Value = strings.TrimSpace(changes.DisplayName.Value)

		if !changes.DisplayName.Valid || changes.DisplayName.Value == "" {
			return nil, domain.NewValidationError("Validation failed", []domain.FieldError{
				{Field: "displayName", Message: "displayName cannot be empty"},
			})
		}
	}

	return us.repo.Update(ctx, externalID, changes)
}

func (us *UserService) TouchLastLogin(ctx context.Context, externalID string) (_ *domain.User, err error) {
	ctx, done := observe(ctx, us.telemetry, "user", "TouchLastLogin", map[string]interface{}{"user.external_id": externalID})
	defer done(&err)

	return us.repo.TouchLastLogin(ctx, externalID)
}

func (us *UserService) SoftDelete(ctx context.Context, externalID string) (err error) {
	ctx, done := observe(ctx, us.telemetry, "user", "SoftDelete", map[string]interface{}{"user.external_id": externalID})
	defer done(&err)

	if err := us.repo.SoftDelete(ctx, externalID); err != nil {
		return err
	}

	us.telemetry.RecordBusinessEvent(ctx, "user.deactivated", "user", externalID, nil)

	return nil
}
