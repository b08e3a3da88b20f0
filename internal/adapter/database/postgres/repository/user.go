package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"

	"todoapi/internal/adapter/database/postgres"
	"todoapi/internal/core/domain"
	"todoapi/internal/core/port"
	tel "todoapi/internal/core/telemetry"
)

var userColumns = []string{
	"id", "external_id", "email", "display_name", "photo_url", "email_verified", "is_active",
	"last_login_at", "created_at", "updated_at", "deleted_at",
}

type UserRepository struct {
	db        *postgres.DB
	queries   userQueries
	telemetry port.Telemetry
}

func NewUserRepository(db *postgres.DB, telemetry port.Telemetry) *UserRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &UserRepository{
		db:        db,
		queries:   userQueries{builder: *db.QueryBuilder},
		telemetry: telemetry,
	}
}

func (ur *UserRepository) Create(ctx context.Context, user domain.NewUser) (_ *domain.User, err error) {
	ctx, done := observe(ctx, ur.telemetry, "users", "INSERT", attribute.String("user.external_id", user.ExternalID))
	defer done(&err)

	stmt, args, err := ur.queries.insert(user, time.Now().UTC())

	if err != nil {
		return nil, domain.NewInternalError("Failed to build query", err)
	}

	return ur.queryOne(ctx, stmt, args, false)
}

func (ur *UserRepository) GetByExternalID(ctx context.Context, externalID string) (_ *domain.User, err error) {
	ctx, done := observe(ctx, ur.telemetry, "users", "SELECT", attribute.String("user.external_id", externalID))
	defer done(&err)

	stmt, args, err := ur.queries.find(sq.Eq{"external_id": externalID, "deleted_at": nil})

	if err != nil {
		return nil, domain.NewInternalError("Failed to build query", err)
	}

	return ur.queryOne(ctx, stmt, args, true)
}

func (ur *UserRepository) GetByEmail(ctx context.Context, email string) (_ *domain.User, err error) {
	ctx, done := observe(ctx, ur.telemetry, "users", "SELECT")
	defer done(&err)

	stmt, args, err := ur.queries.find(sq.Eq{"email": email, "deleted_at": nil})

	if err != nil {
		return nil, domain.NewInternalError("Failed to build query", err)
	}

	return ur.queryOne(ctx, stmt, args, true)
}

func (ur *UserRepository) Update(ctx context.Context, externalID string, changes domain.UserChanges) (_ *domain.User, err error) {
	ctx, done := observe(ctx, ur.telemetry, "users", "UPDATE", attribute.String("user.external_id", externalID))
	defer done(&err)

	stmt, args, err := ur.queries.update(externalID, changes.Columns(), time.Now().UTC())

	if err != nil {
		return nil, domain.NewInternalError("Failed to build query", err)
	}

	return ur.queryOne(ctx, stmt, args, false)
}

func (ur *UserRepository) TouchLastLogin(ctx context.Context, externalID string) (_ *domain.User, err error) {
	ctx, done := observe(ctx, ur.telemetry, "users", "UPDATE", attribute.String("user.external_id", externalID))
	defer done(&err)

	now := time.Now().UTC()

	stmt, args, err := ur.queries.update(externalID, map[string]any{"last_login_at": now}, now)

	if err != nil {
		return nil, domain.NewInternalError("Failed to build query", err)
	}

	return ur.queryOne(ctx, stmt, args, false)
}

func (ur *UserRepository) SoftDelete(ctx context.Context, externalID string) (err error) {
	ctx, done := observe(ctx, ur.telemetry, "users", "UPDATE", attribute.String("user.external_id", externalID))
	defer done(&err)

	stmt, args, err := ur.queries.softDelete(externalID, time.Now().UTC())

	if err != nil {
		return domain.NewInternalError("Failed to build query", err)
	}

	conn, err := ur.db.Conn(ctx)

	if err != nil {
		return postgres.MapError(err)
	}

	defer conn.Release()

	tag, err := conn.Exec(ctx, stmt, args...)

	if err != nil {
		return postgres.MapError(err)
	}

	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("User")
	}

	return nil
}

// queryOne runs a single-row statement. A missing row is (nil, nil) for
// lookups and NotFound for writes.
func (ur *UserRepository) queryOne(ctx context.Context, stmt string, args []any, lookup bool) (*domain.User, error) {
	conn, err := ur.db.Conn(ctx)

	if err != nil {
		return nil, postgres.MapError(err)
	}

	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, stmt, args...))

	if errors.Is(err, pgx.ErrNoRows) {
		if lookup {
			return nil, nil
		}

		return nil, domain.NewNotFoundError("User")
	}

	if err != nil {
		return nil, postgres.MapError(err)
	}

	return user, nil
}

type userQueries struct {
	builder sq.StatementBuilderType
}

func (q userQueries) insert(user domain.NewUser, now time.Time) (string, []any, error) {
	return q.builder.Insert("users").
		Columns("id", "external_id", "email", "display_name", "photo_url", "email_verified", "is_active", "created_at", "updated_at").
		Values(uuid.New(), user.ExternalID, user.Email, user.DisplayName, user.PhotoURL, user.EmailVerified, true, now, now).
		Suffix("RETURNING " + strings.Join(userColumns, ", ")).
		ToSql()
}

func (q userQueries) find(where sq.Eq) (string, []any, error) {
	return q.builder.Select(userColumns...).
		From("users").
		Where(where).
		Limit(1).
		ToSql()
}

func (q userQueries) update(externalID string, columns map[string]any, now time.Time) (string, []any, error) {
	return q.builder.Update("users").
		SetMap(columns).
		Set("updated_at", now).
		Where(sq.Eq{"external_id": externalID, "deleted_at": nil}).
		Suffix("RETURNING " + strings.Join(userColumns, ", ")).
		ToSql()
}

func (q userQueries) softDelete(externalID string, now time.Time) (string, []any, error) {
	return q.builder.Update("users").
		Set("deleted_at", now).
		Set("is_active", false).
		Set("updated_at", now).
		Where(sq.Eq{"external_id": externalID, "deleted_at": nil}).
		ToSql()
}

func scanUser(row pgx.Row) (*domain.User, error) {
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
