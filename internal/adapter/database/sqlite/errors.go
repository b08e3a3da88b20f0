package sqlite

import (
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"

	"todoapi/internal/core/domain"
)

// MapError translates driver errors into the domain taxonomy.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *domain.Error
	if errors.As(err, &appErr) {
		return err
	}

	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return domain.NewDatabaseError(err)
	}

	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return domain.NewConflictError(conflictMessage(sqliteErr.Error()), err)
	case sqlite3.ErrConstraintForeignKey:
		return domain.NewConstraintError(domain.CodeForeignKeyViolation, "Referenced record does not exist", err)
	case sqlite3.ErrConstraintCheck:
		return domain.NewConstraintError(domain.CodeConstraintViolation, "Data violates a constraint", err)
	case sqlite3.ErrConstraintNotNull:
		return domain.NewConstraintError(domain.CodeMissingRequiredField, "A required field is missing", err)
	}

	return domain.NewDatabaseError(err)
}

func conflictMessage(detail string) string {
	switch {
	case strings.Contains(detail, "users.email"), strings.Contains(detail, "users_email_key"):
		return "Email already registered"
	case strings.Contains(detail, "users.external_id"), strings.Contains(detail, "users_external_id_key"):
		return "Account already exists"
	default:
		return "Resource already exists"
	}
}
