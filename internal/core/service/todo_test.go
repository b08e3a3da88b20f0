package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"todoapi/internal/adapter/database/sqlite/repository"
	"todoapi/internal/core/domain"
	"todoapi/internal/core/port"
	"todoapi/internal/core/service"
	"todoapi/internal/core/telemetry"
	. "todoapi/pkg/test"
	"todoapi/pkg/test/factory"
)

// vanishingTodos finds the todo on read but matches no row on write, as when
// it is deleted between the two statements.
type vanishingTodos struct {
	port.TodoRepository
	todo      *domain.Todo
	updateErr error
}

func (v vanishingTodos) GetByID(ctx context.Context, id string, ownerExternalID string) (*domain.Todo, error) {
	return v.todo, nil
}

func (v vanishingTodos) Update(ctx context.Context, id string, ownerExternalID string, changes domain.TodoChanges) (*domain.Todo, error) {
	return nil, v.updateErr
}

type TodoServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	service *service.TodoService
	alice   *domain.User
	bob     *domain.User
}

func (s *TodoServiceTestSuite) SetupTest() {
	db := InitTestDB()
	probe := telemetry.NewNoOpProbe()
	users := repository.NewUserRepository(db, probe)

	s.ctx = context.Background()
	s.service = service.NewTodoService(repository.NewTodoRepository(db, probe), probe)

	var err error

	s.alice, err = users.Create(s.ctx, factory.NewUser())
	s.Require().NoError(err)

	s.bob, err = users.Create(s.ctx, factory.NewUser())
	s.Require().NoError(err)
}

func TestTodoServiceTestSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(TodoServiceTestSuite))
}

func (s *TodoServiceTestSuite) TestCreate_Defaults() {
	todo, err := s.service.Create(s.ctx, s.alice.ExternalID, domain.NewTodo{Title: "  Buy milk  "})

	Expect(err).ToNot(HaveOccurred())
	Expect(todo.Title).To(Equal("Buy milk"))
	Expect(todo.Status).To(Equal(domain.TodoStatusPending))
	Expect(todo.Priority).To(Equal(domain.TodoPriorityMedium))
	Expect(todo.Starred).To(BeFalse())
	Expect(todo.Position).To(Equal(1))
}

func (s *TodoServiceTestSuite) TestCreate_RejectsBlankTitle() {
	_, err := s.service.Create(s.ctx, s.alice.ExternalID, domain.NewTodo{Title: "   "})

	Expect(domain.IsKind(err, domain.KindValidation)).To(BeTrue())
}

func (s *TodoServiceTestSuite) TestCreate_NormalizesTags() {
	todo, err := s.service.Create(s.ctx, s.alice.ExternalID, domain.NewTodo{
		Title: "Tagged",
		Tags:  []string{" home ", "home", "", "work"},
	})

	Expect(err).ToNot(HaveOccurred())
	Expect(todo.Tags).To(Equal([]string{"home", "work"}))
}

func (s *TodoServiceTestSuite) TestPositionsIncreasePerOwner() {
	var positions []int

	for i := 0; i < 3; i++ {
		todo, err := s.service.Create(s.ctx, s.alice.ExternalID, factory.NewTodo())
		s.Require().NoError(err)
		positions = append(positions, todo.Position)
	}

	other, err := s.service.Create(s.ctx, s.bob.ExternalID, factory.NewTodo())
	s.Require().NoError(err)

	Expect(positions).To(Equal([]int{1, 2, 3}))
	Expect(other.Position).To(Equal(1))
}

func (s *TodoServiceTestSuite) TestOwnershipIsolation() {
	todo, err := s.service.Create(s.ctx, s.alice.ExternalID, factory.NewTodo())
	s.Require().NoError(err)

	found, err := s.service.GetByID(s.ctx, todo.ID.String(), s.bob.ExternalID)
	Expect(err).ToNot(HaveOccurred())
	Expect(found).To(BeNil())

	items, page, err := s.service.List(s.ctx, s.bob.ExternalID, domain.TodoFilter{})
	Expect(err).ToNot(HaveOccurred())
	Expect(items).To(BeEmpty())
	Expect(page.Total).To(Equal(0))

	_, err = s.service.Update(s.ctx, todo.ID.String(), s.bob.ExternalID, domain.TodoChanges{Title: domain.Some("mine now")})
	Expect(domain.IsNotFound(err)).To(BeTrue())

	err = s.service.SoftDelete(s.ctx, todo.ID.String(), s.bob.ExternalID)
	Expect(domain.IsNotFound(err)).To(BeTrue())

	found, err = s.service.GetByID(s.ctx, todo.ID.String(), s.alice.ExternalID)
	Expect(err).ToNot(HaveOccurred())
	Expect(found.Title).To(Equal(todo.Title))
}

func (s *TodoServiceTestSuite) TestGetByID_MalformedID() {
	found, err := s.service.GetByID(s.ctx, "not-a-uuid", s.alice.ExternalID)

	Expect(err).ToNot(HaveOccurred())
	Expect(found).To(BeNil())
}

func (s *TodoServiceTestSuite) TestUpdate_CompletedAtFollowsStatus() {
	todo, err := s.service.Create(s.ctx, s.alice.ExternalID, factory.NewTodo())
	s.Require().NoError(err)

	completed, err := s.service.Update(s.ctx, todo.ID.String(), s.alice.ExternalID, domain.TodoChanges{
		Status: domain.Some(domain.TodoStatusCompleted),
	})
	Expect(err).ToNot(HaveOccurred())
	Expect(completed.CompletedAt).ToNot(BeNil())

	reopened, err := s.service.Update(s.ctx, todo.ID.String(), s.alice.ExternalID, domain.TodoChanges{
		Status: domain.Some(domain.TodoStatusPending),
	})
	Expect(err).ToNot(HaveOccurred())
	Expect(reopened.CompletedAt).To(BeNil())

	for _, status := range domain.TodoStatuses {
		updated, err := s.service.Update(s.ctx, todo.ID.String(), s.alice.ExternalID, domain.TodoChanges{Status: domain.Some(status)})
		Expect(err).ToNot(HaveOccurred())
		Expect(updated.Status == domain.TodoStatusCompleted).To(Equal(updated.CompletedAt != nil))
	}
}

func (s *TodoServiceTestSuite) TestUpdate_RejectsEmptyChanges() {
	todo, err := s.service.Create(s.ctx, s.alice.ExternalID, factory.NewTodo())
	s.Require().NoError(err)

	_, err = s.service.Update(s.ctx, todo.ID.String(), s.alice.ExternalID, domain.TodoChanges{})

	Expect(domain.AsError(err).Code).To(Equal(domain.CodeNoFieldsToUpdate))
	Expect(domain.AsError(err).StatusCode()).To(Equal(400))
}

func (s *TodoServiceTestSuite) TestUpdate_MissingTodoBeforeEmptyCheck() {
	_, err := s.service.Update(s.ctx, "0b6f0c3e-8f1e-4c59-9d55-8d1b7f3c2a10", s.alice.ExternalID, domain.TodoChanges{})

	Expect(domain.IsNotFound(err)).To(BeTrue())
}

func (s *TodoServiceTestSuite) TestUpdate_RejectsBlankTitle() {
	todo, err := s.service.Create(s.ctx, s.alice.ExternalID, factory.NewTodo())
	s.Require().NoError(err)

	_, err = s.service.Update(s.ctx, todo.ID.String(), s.alice.ExternalID, domain.TodoChanges{Title: domain.Null[string]()})
	Expect(domain.IsKind(err, domain.KindValidation)).To(BeTrue())

	_, err = s.service.Update(s.ctx, todo.ID.String(), s.alice.ExternalID, domain.TodoChanges{Title: domain.Some("  ")})
	Expect(domain.IsKind(err, domain.KindValidation)).To(BeTrue())
}

func (s *TodoServiceTestSuite) TestUpdate_RowGoneBeforeWrite() {
	existing := &domain.Todo{ID: uuid.New(), Title: "Stale", Status: domain.TodoStatusPending}

	for _, updateErr := range []error{domain.NewNotFoundError("Todo"), nil} {
		todos := service.NewTodoService(vanishingTodos{todo: existing, updateErr: updateErr}, telemetry.NewNoOpProbe())

		todo, err := todos.Update(s.ctx, existing.ID.String(), s.alice.ExternalID, domain.TodoChanges{
			Status: domain.Some(domain.TodoStatusCompleted),
		})

		Expect(todo).To(BeNil())
		Expect(domain.IsNotFound(err)).To(BeTrue())
	}
}

func (s *TodoServiceTestSuite) TestSoftDelete_RepeatedFailsWithNotFound() {
	todo, err := s.service.Create(s.ctx, s.alice.ExternalID, factory.NewTodo())
	s.Require().NoError(err)

	assert.NoError(s.T(), s.service.SoftDelete(s.ctx, todo.ID.String(), s.alice.ExternalID))

	err = s.service.SoftDelete(s.ctx, todo.ID.String(), s.alice.ExternalID)
	assert.True(s.T(), domain.IsNotFound(err))

	err = s.service.SoftDelete(s.ctx, "garbage", s.alice.ExternalID)
	assert.True(s.T(), domain.IsNotFound(err))
}

func (s *TodoServiceTestSuite) TestList_PagesCoverEveryTodo() {
	const total = 7
	const limit = 3

	for i := 0; i < total; i++ {
		_, err := s.service.Create(s.ctx, s.alice.ExternalID, factory.NewTodo())
		s.Require().NoError(err)
	}

	seen := map[string]bool{}
	var last domain.PageInfo

	for page := 1; page <= 3; page++ {
		items, info, err := s.service.List(s.ctx, s.alice.ExternalID, domain.TodoFilter{Page: page, Limit: limit})
		s.Require().NoError(err)

		for _, item := range items {
			seen[item.ID.String()] = true
		}

		Expect(info.Total).To(Equal(total))
		Expect(info.TotalPages).To(Equal(3))
		last = info
	}

	Expect(seen).To(HaveLen(total))
	Expect(last.HasMore).To(BeFalse())

	items, info, err := s.service.List(s.ctx, s.alice.ExternalID, domain.TodoFilter{Page: 10, Limit: limit})
	Expect(err).ToNot(HaveOccurred())
	Expect(items).To(BeEmpty())
	Expect(info.Total).To(Equal(total))
	Expect(info.HasMore).To(BeFalse())
}

func (s *TodoServiceTestSuite) TestList_EnormousPageIsEmpty() {
	for i := 0; i < 3; i++ {
		_, err := s.service.Create(s.ctx, s.alice.ExternalID, factory.NewTodo())
		s.Require().NoError(err)
	}

	items, info, err := s.service.List(s.ctx, s.alice.ExternalID, domain.TodoFilter{Page: 4611686018427387905, Limit: 100})

	Expect(err).ToNot(HaveOccurred())
	Expect(items).To(BeEmpty())
	Expect(info.Total).To(Equal(3))
	Expect(info.Page).To(Equal(4611686018427387905))
	Expect(info.HasMore).To(BeFalse())
}

func (s *TodoServiceTestSuite) TestList_SearchMatchesDescription() {
	description := "Remember the MILK on the way home"

	_, err := s.service.Create(s.ctx, s.alice.ExternalID, domain.NewTodo{Title: "Errands", Description: &description})
	s.Require().NoError(err)

	_, err = s.service.Create(s.ctx, s.alice.ExternalID, domain.NewTodo{Title: "Gym"})
	s.Require().NoError(err)

	items, _, err := s.service.List(s.ctx, s.alice.ExternalID, domain.TodoFilter{Search: "milk"})

	Expect(err).ToNot(HaveOccurred())
	Expect(items).To(HaveLen(1))
	Expect(items[0].Title).To(Equal("Errands"))
}

func (s *TodoServiceTestSuite) TestList_CombinedFilters() {
	status := domain.TodoStatusInProgress
	priority := domain.TodoPriorityHigh

	s.service.Create(s.ctx, s.alice.ExternalID, domain.NewTodo{Title: "match", Status: status, Priority: priority, Tags: []string{"b"}})
	s.service.Create(s.ctx, s.alice.ExternalID, domain.NewTodo{Title: "wrong tag", Status: status, Priority: priority, Tags: []string{"c"}})
	s.service.Create(s.ctx, s.alice.ExternalID, domain.NewTodo{Title: "wrong priority", Status: status, Priority: domain.TodoPriorityLow, Tags: []string{"a"}})
	s.service.Create(s.ctx, s.alice.ExternalID, domain.NewTodo{Title: "wrong status", Priority: priority, Tags: []string{"a"}})

	items, info, err := s.service.List(s.ctx, s.alice.ExternalID, domain.TodoFilter{
		Status:   &status,
		Priority: &priority,
		Tags:     []string{"a", "b"},
	})

	Expect(err).ToNot(HaveOccurred())
	Expect(info.Total).To(Equal(1))

	for _, item := range items {
		Expect(item.Status).To(Equal(status))
		Expect(item.Priority).To(Equal(priority))
		Expect(item.Tags).To(ContainElement(BeElementOf("a", "b")))
	}
}

func (s *TodoServiceTestSuite) TestStats() {
	_, err := s.service.Create(s.ctx, s.alice.ExternalID, domain.NewTodo{Title: "done", Status: domain.TodoStatusCompleted, Starred: true})
	s.Require().NoError(err)

	stats, err := s.service.Stats(s.ctx, s.alice.ExternalID)

	Expect(err).ToNot(HaveOccurred())
	Expect(stats.Total).To(Equal(1))
	Expect(stats.CompletedToday).To(Equal(1))
	Expect(stats.Starred).To(Equal(1))
}
