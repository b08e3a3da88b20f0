package service_test

import (
	"context"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/suite"

	"todoapi/internal/adapter/database/sqlite/repository"
	"todoapi/internal/core/domain"
	"todoapi/internal/core/service"
	. "todoapi/pkg/test"
	"todoapi/pkg/test/factory"
)

type UserServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	service *service.UserService
}

func (s *UserServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.service = service.NewUserService(repository.NewUserRepository(InitTestDB(), nil), nil)
}

func TestUserServiceTestSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(UserServiceTestSuite))
}

func (s *UserServiceTestSuite) TestCreate_NormalizesEmail() {
	user, err := s.service.Create(s.ctx, factory.NewUser(map[string]any{"Email": "  Alice@Example.COM "}))

	Expect(err).ToNot(HaveOccurred())
	Expect(user.Email).To(Equal("alice@example.com"))

	found, err := s.service.FindByEmail(s.ctx, "ALICE@example.com")
	Expect(err).ToNot(HaveOccurred())
	Expect(found.ID).To(Equal(user.ID))
}

func (s *UserServiceTestSuite) TestCreate_DuplicateEmailIsConflict() {
	_, err := s.service.Create(s.ctx, factory.NewUser(map[string]any{"Email": "dup@example.com"}))
	s.Require().NoError(err)

	_, err = s.service.Create(s.ctx, factory.NewUser(map[string]any{"Email": "DUP@example.com"}))

	Expect(domain.IsKind(err, domain.KindConflict)).To(BeTrue())
}

func (s *UserServiceTestSuite) TestFind_MissingIsNotFound() {
	_, err := s.service.FindByExternalID(s.ctx, "missing")
	Expect(domain.IsNotFound(err)).To(BeTrue())

	_, err = s.service.FindByEmail(s.ctx, "missing@example.com")
	Expect(domain.IsNotFound(err)).To(BeTrue())
}

func (s *UserServiceTestSuite) TestUpdate() {
	user, err := s.service.Create(s.ctx, factory.NewUser())
	s.Require().NoError(err)

	_, err = s.service.Update(s.ctx, user.ExternalID, domain.UserChanges{})
	Expect(domain.AsError(err).Code).To(Equal(domain.CodeNoFieldsToUpdate))

	_, err = s.service.Update(s.ctx, user.ExternalID, domain.UserChanges{DisplayName: domain.Some(" ")})
	Expect(domain.IsKind(err, domain.KindValidation)).To(BeTrue())

	updated, err := s.service.Update(s.ctx, user.ExternalID, domain.UserChanges{DisplayName: domain.Some("New Name")})
	Expect(err).ToNot(HaveOccurred())
	Expect(updated.DisplayName).To(Equal("New Name"))
	Expect(updated.Email).To(Equal(user.Email))
}

func (s *UserServiceTestSuite) TestSoftDelete() {
	user, err := s.service.Create(s.ctx, factory.NewUser())
	s.Require().NoError(err)

	Expect(s.service.SoftDelete(s.ctx, user.ExternalID)).To(Succeed())

	_, err = s.service.FindByExternalID(s.ctx, user.ExternalID)
	Expect(domain.IsNotFound(err)).To(BeTrue())

	Expect(domain.IsNotFound(s.service.SoftDelete(s.ctx, user.ExternalID))).To(BeTrue())
}
