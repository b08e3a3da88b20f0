package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"todoapi/internal/adapter/database/sqlite"
	"todoapi/internal/core/domain"
	"todoapi/internal/core/port"
	tel "todoapi/internal/core/telemetry"
)

var userColumns = []string{
	"id", "external_id", "email", "display_name", "photo_url", "email_verified", "is_active",
	"last_login_at", "created_at", "updated_at", "deleted_at",
}

type UserRepository struct {
	db        *sqlite.DB
	telemetry port.Telemetry
	now       func() time.Time
}

func NewUserRepository(db *sqlite.DB, telemetry port.Telemetry) *UserRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &UserRepository{
		db:        db,
		telemetry: telemetry,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (ur *UserRepository) Create(ctx context.Context, user domain.NewUser) (_ *domain.User, err error) {
	ctx, done := observe(ctx, ur.telemetry, "Create", "user", "users", map[string]interface{}{"user.external_id": user.ExternalID})
	defer done(&err)

	now := ur.now()

	stmt, args, err := ur.db.QueryBuilder.Insert("users").
		Columns("id", "external_id", "email", "display_name", "photo_url", "email_verified", "is_active", "created_at", "updated_at").
		Values(uuid.New().String(), user.ExternalID, user.Email, user.DisplayName, user.PhotoURL, user.EmailVerified, true, now, now).
		Suffix("RETURNING " + strings.Join(userColumns, ", ")).
		ToSql()

	if err != nil {
		return nil, domain.NewInternalError("Failed to build query", err)
	}

	created, err := scanUser(ur.db.QueryRowContext(ctx, stmt, args...))

	if err != nil {
		return nil, sqlite.MapError(err)
	}

	return created, nil
}

func (ur *UserRepository) GetByExternalID(ctx context.Context, externalID string) (_ *domain.User, err error) {
	ctx, done := observe(ctx, ur.telemetry, "GetByExternalID", "user", "users", map[string]interface{}{"user.external_id": externalID})
	defer done(&err)

	return ur.findOne(ctx, sq.Eq{"external_id": externalID, "deleted_at": nil})
}

func (ur *UserRepository) GetByEmail(ctx context.Context, email string) (_ *domain.User, err error) {
	ctx, done := observe(ctx, ur.telemetry, "GetByEmail", "user", "users", nil)
	defer done(&err)

	return ur.findOne(ctx, sq.Eq{"email": email, "deleted_at": nil})
}

// findOne returns nil without an error when no live user matches.
func (ur *UserRepository) findOne(ctx context.Context, where sq.Eq) (*domain.User, error) {
	stmt, args, err := ur.db.QueryBuilder.Select(userColumns...).
		From("users").
		Where(where).
		Limit(1).
		ToSql()

	if err != nil {
		return nil, domain.NewInternalError("Failed to build query", err)
	}

	user, err := scanUser(ur.db.QueryRowContext(ctx, stmt, args...))

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, sqlite.MapError(err)
	}

	return user, nil
}

func (ur *UserRepository) Update(ctx context.Context, externalID string, changes domain.UserChanges) (_ *domain.User, err error) {
	ctx, done := observe(ctx, ur.telemetry, "Update", "user", "users", map[string]interface{}{"user.external_id": externalID})
	defer done(&err)

	return ur.update(ctx, externalID, changes.Columns())
}

func (ur *UserRepository) TouchLastLogin(ctx context.Context, externalID string) (_ *domain.User, err error) {
	ctx, done := observe(ctx, ur.telemetry, "TouchLastLogin", "user", "users", map[string]interface{}{"user.external_id": externalID})
	defer done(&err)

	return ur.update(ctx, externalID, map[string]any{"last_login_at": ur.now()})
}

func (ur *UserRepository) update(ctx context.Context, externalID string, columns map[string]any) (*domain.User, error) {
	stmt, args, err := ur.db.QueryBuilder.Update("users").
		SetMap(columns).
		Set("updated_at", ur.now()).
		Where(sq.Eq{"external_id": externalID, "deleted_at": nil}).
		Suffix("RETURNING " + strings.Join(userColumns, ", ")).
		ToSql()

	if err != nil {
		return nil, domain.NewInternalError("Failed to build query", err)
	}

	user, err := scanUser(ur.db.QueryRowContext(ctx, stmt, args...))

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("User")
	}

	if err != nil {
		return nil, sqlite.MapError(err)
	}

	return user, nil
}

func (ur *UserRepository) SoftDelete(ctx context.Context, externalID string) (err error) {
	ctx, done := observe(ctx, ur.telemetry, "SoftDelete", "user", "users", map[string]interface{}{"user.external_id": externalID})
	defer done(&err)

	now := ur.now()

	result, err := ur.db.QueryBuilder.Update("users").
		Set("deleted_at", now).
		Set("is_active", false).
		Set("updated_at", now).
		Where(sq.Eq{"external_id": externalID, "deleted_at": nil}).
		RunWith(ur.db.DB).
		ExecContext(ctx)

	if err != nil {
		return sqlite.MapError(err)
	}

	affected, err := result.RowsAffected()

	if err != nil {
		return sqlite.MapError(err)
	}

	if affected == 0 {
		return domain.NewNotFoundError("User")
	}

	return nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User

	err := row.Scan(
		&user.ID,
		&user.ExternalID,
		&user.Email,
		&user.DisplayName,
		&user.PhotoURL,
		&user.EmailVerified,
		&user.IsActive,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.DeletedAt,
	)

	if err != nil {
		return nil, err
	}

	return &user, nil
}
