package repository

import (
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	. "github.com/onsi/gomega"

	"todoapi/internal/core/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func TestTodoQueries_List(t *testing.T) {
	RegisterTestingT(t)

	queries := todoQueries{builder: psql}
	filter := domain.TodoFilter{
		Search:    "milk",
		Tags:      []string{"home"},
		Page:      2,
		Limit:     10,
		SortBy:    "due_date",
		SortOrder: domain.SortAsc,
	}

	stmt, args, err := queries.list("uid-1", filter)

	Expect(err).ToNot(HaveOccurred())
	Expect(stmt).To(ContainSubstring("deleted_at IS NULL"))
	Expect(stmt).To(ContainSubstring("user_id = (SELECT id FROM users WHERE external_id = $1 AND deleted_at IS NULL)"))
	Expect(stmt).To(ContainSubstring("(title ILIKE $2 OR description ILIKE $3)"))
	Expect(stmt).To(ContainSubstring("tags && $4"))
	Expect(stmt).To(ContainSubstring("ORDER BY due_date ASC NULLS LAST, id ASC"))
	Expect(stmt).To(ContainSubstring("LIMIT 10 OFFSET 10"))
	Expect(args).To(Equal([]any{"uid-1", "%milk%", "%milk%", []string{"home"}}))

	countStmt, countArgs, err := queries.count("uid-1", filter)

	Expect(err).ToNot(HaveOccurred())
	Expect(countStmt).To(HavePrefix("SELECT COUNT(*) FROM todos"))
	Expect(countStmt).ToNot(ContainSubstring("LIMIT"))
	Expect(countArgs).To(Equal(args))
}

func TestTodoQueries_ListRejectsUnknownSort(t *testing.T) {
	RegisterTestingT(t)

	stmt, _, err := todoQueries{builder: psql}.list("uid-1", domain.TodoFilter{SortBy: "id; DROP TABLE todos"})

	Expect(err).ToNot(HaveOccurred())
	Expect(stmt).To(ContainSubstring("ORDER BY created_at DESC NULLS LAST, id DESC"))
	Expect(stmt).ToNot(ContainSubstring("DROP"))
	Expect(stmt).To(ContainSubstring("LIMIT 20 OFFSET 0"))
}

func TestTodoQueries_InsertComputesPosition(t *testing.T) {
	RegisterTestingT(t)

	userID := uuid.New()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	stmt, args, err := todoQueries{builder: psql}.insert(userID, domain.NewTodo{Title: "Plan trip"}.WithDefaults(), now)

	Expect(err).ToNot(HaveOccurred())
	Expect(stmt).To(HavePrefix("INSERT INTO todos"))
	Expect(stmt).To(ContainSubstring("(SELECT COALESCE(MAX(position), 0) + 1 FROM todos WHERE user_id = $9)"))
	Expect(stmt).To(ContainSubstring("RETURNING id, user_id"))
	Expect(args[1]).To(Equal(userID))
	Expect(args[2]).To(Equal("Plan trip"))
	Expect(args[4]).To(Equal("pending"))
	Expect(args[7]).To(BeNil())
	Expect(args[8]).To(Equal(userID))
}

func TestTodoQueries_UpdateScopesToOwner(t *testing.T) {
	RegisterTestingT(t)

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	stmt, args, err := todoQueries{builder: psql}.update("todo-1", "uid-1", domain.TodoChanges{
		Status: domain.Some(domain.TodoStatusCompleted),
	}, now)

	Expect(err).ToNot(HaveOccurred())
	Expect(stmt).To(HavePrefix("UPDATE todos SET"))
	Expect(stmt).To(ContainSubstring("completed_at = $"))
	Expect(stmt).To(ContainSubstring("status = $"))
	Expect(stmt).To(ContainSubstring("updated_at = $"))
	Expect(stmt).To(ContainSubstring("deleted_at IS NULL"))
	Expect(stmt).To(ContainSubstring("external_id = $"))
	Expect(args).To(ContainElement("todo-1"))
	Expect(args).To(ContainElement("uid-1"))
	Expect(args).To(ContainElement(now))
}

func TestTodoQueries_Stats(t *testing.T) {
	RegisterTestingT(t)

	now := time.Date(2026, 5, 1, 12, 30, 0, 0, time.UTC)

	stmt, args, err := todoQueries{builder: psql}.stats("uid-1", now)

	Expect(err).ToNot(HaveOccurred())
	Expect(stmt).To(ContainSubstring("COUNT(*) FILTER (WHERE status = $1)"))
	Expect(stmt).To(ContainSubstring("COUNT(*) FILTER (WHERE starred)"))
	Expect(stmt).To(ContainSubstring("status NOT IN ('completed', 'archived')"))
	Expect(args).To(HaveLen(len(domain.TodoStatuses) + len(domain.TodoPriorities) + 6))
	Expect(args).To(ContainElement(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)))
	Expect(args).To(ContainElement(time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)))
	Expect(args).To(ContainElement(now.Add(domain.DueSoonWindow)))
	Expect(args[len(args)-1]).To(Equal("uid-1"))
}

func TestUserQueries(t *testing.T) {
	RegisterTestingT(t)

	queries := userQueries{builder: psql}
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	stmt, args, err := queries.find(sq.Eq{"email": "a@example.com", "deleted_at": nil})

	Expect(err).ToNot(HaveOccurred())
	Expect(stmt).To(ContainSubstring("FROM users WHERE deleted_at IS NULL AND email = $1 LIMIT 1"))
	Expect(args).To(Equal([]any{"a@example.com"}))

	stmt, args, err = queries.softDelete("uid-1", now)

	Expect(err).ToNot(HaveOccurred())
	Expect(stmt).To(Equal("UPDATE users SET deleted_at = $1, is_active = $2, updated_at = $3 WHERE deleted_at IS NULL AND external_id = $4"))
	Expect(args).To(Equal([]any{now, false, now, "uid-1"}))
}
