package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"todoapi/internal/core/domain"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	notNullViolation    = "23502"
	checkViolation      = "23514"
)

var conflictMessages = map[string]string{
	"users_email_key":       "Email already registered",
	"users_external_id_key": "Account already exists",
}

// MapError translates driver errors into the domain taxonomy.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *domain.Error
	if errors.As(err, &appErr) {
		return err
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return domain.NewDatabaseError(err)
	}

	switch pgErr.Code {
	case uniqueViolation:
		message, ok := conflictMessages[pgErr.ConstraintName]
		if !ok {
			message = "Resource already exists"
		}
		return domain.NewConflictError(message, err)
	case foreignKeyViolation:
		return domain.NewConstraintError(domain.CodeForeignKeyViolation, "Referenced record does not exist", err)
	case checkViolation:
		return domain.NewConstraintError(domain.CodeConstraintViolation, "Data violates a constraint", err)
	case notNullViolation:
		return domain.NewConstraintError(domain.CodeMissingRequiredField, "A required field is missing", err)
	}

	return domain.NewDatabaseError(err)
}
