package domain

import (
	"errors"
	"fmt"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindAuthentication ErrorKind = "authentication"
	KindAuthorization  ErrorKind = "authorization"
	KindNotFound       ErrorKind = "not_found"
	KindConflict       ErrorKind = "conflict"
	KindDatabase       ErrorKind = "database"
	KindInternal       ErrorKind = "internal"
)

const (
	CodeValidation           = "VALIDATION_ERROR"
	CodeNoFieldsToUpdate     = "NO_FIELDS_TO_UPDATE"
	CodeForeignKeyViolation  = "FOREIGN_KEY_VIOLATION"
	CodeConstraintViolation  = "CONSTRAINT_VIOLATION"
	CodeMissingRequiredField = "MISSING_REQUIRED_FIELD"
	CodeAuthentication       = "AUTHENTICATION_ERROR"
	CodeTokenMissing         = "AUTH_TOKEN_MISSING"
	CodeTokenInvalid         = "AUTH_TOKEN_INVALID"
	CodeTokenExpired         = "AUTH_TOKEN_EXPIRED"
	CodeEmailMismatch        = "AUTH_EMAIL_MISMATCH"
	CodeInvalidCredentials   = "AUTH_INVALID_CREDENTIALS"
	CodeAuthorization        = "AUTHORIZATION_ERROR"
	CodeAccountDisabled      = "ACCOUNT_DISABLED"
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeDatabase             = "DATABASE_ERROR"
	CodeInternal             = "INTERNAL_ERROR"
	CodeRateLimitExceeded    = "RATE_LIMIT_EXCEEDED"
)

// Error is the single error type that crosses the service boundary. The HTTP
// layer renders it without knowing where it was raised.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Details any

	cause error
}

// FieldError describes one failing input field of a ValidationError.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.cause != nil && e.cause.Error() != e.Message {
		return fmt.Sprintf("%s: %s", e.Message, e.cause.Error())
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	return pkgerrors.Cause(e.cause)
}

// Stack returns the stack captured when the error was created.
func (e *Error) Stack() string {
	if e.cause == nil {
		return ""
	}

	return fmt.Sprintf("%+v", e.cause)
}

func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func newError(kind ErrorKind, code, message string, cause error) *Error {
	if cause == nil {
		cause = pkgerrors.New(message)
	} else {
		cause = pkgerrors.WithStack(cause)
	}

	return &Error{Kind: kind, Code: code, Message: message, cause: cause}
}

func NewValidationError(message string, details any) *Error {
	err := newError(KindValidation, CodeValidation, message, nil)
	err.Details = details
	return err
}

// NewConstraintError is a validation failure detected by the store rather
// than by request validation.
func NewConstraintError(code, message string, cause error) *Error {
	return newError(KindValidation, code, message, cause)
}

func NewAuthenticationError(code, message string) *Error {
	return newError(KindAuthentication, code, message, nil)
}

func NewAuthorizationError(code, message string) *Error {
	return newError(KindAuthorization, code, message, nil)
}

func NewNotFoundError(resource string) *Error {
	return newError(KindNotFound, CodeNotFound, resource+" not found", nil)
}

func NewConflictError(message string, cause error) *Error {
	return newError(KindConflict, CodeConflict, message, cause)
}

func NewDatabaseError(cause error) *Error {
	return newError(KindDatabase, CodeDatabase, "Database operation failed", cause)
}

func NewInternalError(message string, cause error) *Error {
	return newError(KindInternal, CodeInternal, message, cause)
}

// AsError extracts a *Error from err, wrapping unknown errors as internal.
func AsError(err error) *Error {
	var appErr *Error

	if errors.As(err, &appErr) {
		return appErr
	}

	return NewInternalError("Internal server error", err)
}

func IsKind(err error, kind ErrorKind) bool {
	var appErr *Error

	return errors.As(err, &appErr) && appErr.Kind == kind
}

func IsNotFound(err error) bool {
	return IsKind(err, KindNotFound)
}
