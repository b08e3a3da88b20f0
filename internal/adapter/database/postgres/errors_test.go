package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	. "github.com/onsi/gomega"

	"todoapi/internal/core/domain"
)

func TestMapError(t *testing.T) {
	RegisterTestingT(t)

	err := MapError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	Expect(domain.IsKind(err, domain.KindConflict)).To(BeTrue())
	Expect(domain.AsError(err).Message).To(Equal("Email already registered"))

	err = MapError(&pgconn.PgError{Code: "23505", ConstraintName: "users_external_id_key"})
	Expect(domain.AsError(err).Message).To(Equal("Account already exists"))

	err = MapError(&pgconn.PgError{Code: "23503"})
	Expect(domain.AsError(err).Code).To(Equal(domain.CodeForeignKeyViolation))
	Expect(domain.AsError(err).StatusCode()).To(Equal(400))

	err = MapError(&pgconn.PgError{Code: "23514", ConstraintName: "todos_title_length"})
	Expect(domain.AsError(err).Code).To(Equal(domain.CodeConstraintViolation))

	err = MapError(&pgconn.PgError{Code: "23502"})
	Expect(domain.AsError(err).Code).To(Equal(domain.CodeMissingRequiredField))

	err = MapError(&pgconn.PgError{Code: "57014"})
	Expect(domain.IsKind(err, domain.KindDatabase)).To(BeTrue())
	Expect(domain.AsError(err).Message).To(Equal("Database operation failed"))
}

func TestMapError_Passthrough(t *testing.T) {
	RegisterTestingT(t)

	notFound := domain.NewNotFoundError("Todo")

	Expect(MapError(nil)).To(BeNil())
	Expect(MapError(notFound)).To(BeIdenticalTo(notFound))
	Expect(domain.IsKind(MapError(errors.New("conn reset")), domain.KindDatabase)).To(BeTrue())
}
