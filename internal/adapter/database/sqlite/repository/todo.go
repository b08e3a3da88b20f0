package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"todoapi/internal/adapter/database/sqlite"
	"todoapi/internal/core/domain"
	"todoapi/internal/core/port"
	tel "todoapi/internal/core/telemetry"
)

var todoColumns = []string{
	"id", "user_id", "title", "description", "status", "priority", "due_date", "completed_at",
	"position", "tags", "starred", "reminder_at", "created_at", "updated_at", "deleted_at",
}

// SQLite has no enum ordering, so priority and status sort by rank.
var todoSortExpressions = map[string]string{
	"priority": "CASE priority WHEN 'low' THEN 1 WHEN 'medium' THEN 2 WHEN 'high' THEN 3 WHEN 'critical' THEN 4 END",
	"status":   "CASE status WHEN 'pending' THEN 1 WHEN 'in_progress' THEN 2 WHEN 'completed' THEN 3 WHEN 'archived' THEN 4 END",
}

const ownerScope = "user_id = (SELECT id FROM users WHERE external_id = ? AND deleted_at IS NULL)"

type TodoRepository struct {
	db        *sqlite.DB
	telemetry port.Telemetry
	now       func() time.Time
}

func NewTodoRepository(db *sqlite.DB, telemetry port.Telemetry) *TodoRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &TodoRepository{
		db:        db,
		telemetry: telemetry,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (tr *TodoRepository) trace(ctx context.Context, operation string, attrs map[string]interface{}) (context.Context, func(*error)) {
	return observe(ctx, tr.telemetry, operation, "todo", "todos", attrs)
}

func (tr *TodoRepository) Create(ctx context.Context, ownerExternalID string, input domain.NewTodo) (_ *domain.Todo, err error) {
	ctx, done := tr.trace(ctx, "Create", map[string]interface{}{"owner": ownerExternalID})
	defer done(&err)

	var userID string

	err = tr.db.QueryBuilder.Select("id").
		From("users").
		Where(sq.Eq{"external_id": ownerExternalID, "deleted_at": nil}).
		RunWith(tr.db.DB).
		QueryRowContext(ctx).
		Scan(&userID)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("User")
	}

	if err != nil {
		return nil, sqlite.MapError(err)
	}

	tags, err := encodeTags(input.Tags)

	if err != nil {
		return nil, domain.NewInternalError("Failed to encode tags", err)
	}

	now := tr.now()

	var completedAt *time.Time
	if input.Status == domain.TodoStatusCompleted {
		completedAt = &now
	}

	query := tr.db.QueryBuilder.Insert("todos").
		Columns(
			"id", "user_id", "title", "description", "status", "priority", "due_date", "completed_at",
			"position", "tags", "starred", "reminder_at", "created_at", "updated_at",
		).
		Values(
			uuid.New().String(),
			userID,
			input.Title,
			input.Description,
			string(input.Status),
			string(input.Priority),
			utcPtr(input.DueDate),
			completedAt,
			sq.Expr("(SELECT COALESCE(MAX(position), 0) + 1 FROM todos WHERE user_id = ?)", userID),
			tags,
			input.Starred,
			utcPtr(input.ReminderAt),
			now,
			now,
		).
		Suffix("RETURNING " + strings.Join(todoColumns, ", "))

	stmt, args, err := query.ToSql()

	if err != nil {
		return nil, domain.NewInternalError("Failed to build query", err)
	}

	todo, err := scanTodo(tr.db.QueryRowContext(ctx, stmt, args...))

	if err != nil {
		return nil, sqlite.MapError(err)
	}

	return todo, nil
}

func (tr *TodoRepository) GetByID(ctx context.Context, id string, ownerExternalID string) (_ *domain.Todo, err error) {
	ctx, done := tr.trace(ctx, "GetByID", map[string]interface{}{"todo.id": id})
	defer done(&err)

	stmt, args, err := tr.db.QueryBuilder.Select(todoColumns...).
		From("todos").
		Where(sq.Eq{"id": id, "deleted_at": nil}).
		Where(ownerScope, ownerExternalID).
		Limit(1).
		ToSql()

	if err != nil {
		return nil, domain.NewInternalError("Failed to build query", err)
	}

	todo, err := scanTodo(tr.db.QueryRowContext(ctx, stmt, args...))

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, sqlite.MapError(err)
	}

	return todo, nil
}

func (tr *TodoRepository) filters(ownerExternalID string, filter domain.TodoFilter) sq.And {
	conditions := sq.And{
		sq.Eq{"deleted_at": nil},
		sq.Expr(ownerScope, ownerExternalID),
	}

	if filter.Status != nil {
		conditions = append(conditions, sq.Eq{"status": string(*filter.Status)})
	}

	if filter.Priority != nil {
		conditions = append(conditions, sq.Eq{"priority": string(*filter.Priority)})
	}

	if filter.Starred != nil {
		conditions = append(conditions, sq.Eq{"starred": *filter.Starred})
	}

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		conditions = append(conditions, sq.Or{
			sq.Like{"title": pattern},
			sq.Like{"description": pattern},
		})
	}

	if filter.DueDateFrom != nil {
		conditions = append(conditions, sq.GtOrEq{"due_date": filter.DueDateFrom.UTC()})
	}

	if filter.DueDateTo != nil {
		conditions = append(conditions, sq.LtOrEq{"due_date": filter.DueDateTo.UTC()})
	}

	if len(filter.Tags) > 0 {
		conditions = append(conditions,
			sq.Expr("EXISTS (SELECT 1 FROM json_each(todos.tags) WHERE json_each.value IN ("+sq.Placeholders(len(filter.Tags))+"))",
				toArgs(filter.Tags)...))
	}

	return conditions
}

func (tr *TodoRepository) List(ctx context.Context, ownerExternalID string, filter domain.TodoFilter) (_ []domain.Todo, _ int, err error) {
	filter = filter.Normalize()

	ctx, done := tr.trace(ctx, "List", map[string]interface{}{
		"pagination.page":  filter.Page,
		"pagination.limit": filter.Limit,
		"sort.by":          filter.SortBy,
	})
	defer done(&err)

	conditions := tr.filters(ownerExternalID, filter)

	var total int

	err = tr.db.QueryBuilder.Select("COUNT(*)").
		From("todos").
		Where(conditions).
		RunWith(tr.db.DB).
		QueryRowContext(ctx).
		Scan(&total)

	if err != nil {
		return nil, 0, sqlite.MapError(err)
	}

	sortExpr, ok := todoSortExpressions[filter.SortBy]
	if !ok {
		sortExpr = filter.SortBy
	}

	direction := strings.ToUpper(string(filter.SortOrder))

	stmt, args, err := tr.db.QueryBuilder.Select(todoColumns...).
		From("todos").
		Where(conditions).
		OrderBy(fmt.Sprintf("%s %s NULLS LAST", sortExpr, direction), "id "+direction).
		Limit(uint64(filter.Limit)).
		Offset(filter.Offset()).
		ToSql()

	if err != nil {
		return nil, 0, domain.NewInternalError("Failed to build query", err)
	}

	rows, err := tr.db.QueryContext(ctx, stmt, args...)

	if err != nil {
		return nil, 0, sqlite.MapError(err)
	}

	defer rows.Close()

	todos := []domain.Todo{}

	for rows.Next() {
		todo, err := scanTodo(rows)

		if err != nil {
			return nil, 0, sqlite.MapError(err)
		}

		todos = append(todos, *todo)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, sqlite.MapError(err)
	}

	return todos, total, nil
}

func (tr *TodoRepository) Update(ctx context.Context, id string, ownerExternalID string, changes domain.TodoChanges) (_ *domain.Todo, err error) {
	ctx, done := tr.trace(ctx, "Update", map[string]interface{}{"todo.id": id})
	defer done(&err)

	now := tr.now()
	columns := changes.Columns(now)

	for column, value := range columns {
		switch v := value.(type) {
		case []string:
			encoded, err := encodeTags(v)
			if err != nil {
				return nil, domain.NewInternalError("Failed to encode tags", err)
			}
			columns[column] = encoded
		case *time.Time:
			columns[column] = utcPtr(v)
		case time.Time:
			columns[column] = v.UTC()
		}
	}

	stmt, args, err := tr.db.QueryBuilder.Update("todos").
		SetMap(columns).
		Set("updated_at", now).
		Where(sq.Eq{"id": id, "deleted_at": nil}).
		Where(ownerScope, ownerExternalID).
		Suffix("RETURNING " + strings.Join(todoColumns, ", ")).
		ToSql()

	if err != nil {
		return nil, domain.NewInternalError("Failed to build query", err)
	}

	todo, err := scanTodo(tr.db.QueryRowContext(ctx, stmt, args...))

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("Todo")
	}

	if err != nil {
		return nil, sqlite.MapError(err)
	}

	return todo, nil
}

func (tr *TodoRepository) SoftDelete(ctx context.Context, id string, ownerExternalID string) (err error) {
	ctx, done := tr.trace(ctx, "SoftDelete", map[string]interface{}{"todo.id": id})
	defer done(&err)

	now := tr.now()

	result, err := tr.db.QueryBuilder.Update("todos").
		Set("deleted_at", now).
		Set("updated_at", now).
		Where(sq.Eq{"id": id, "deleted_at": nil}).
		Where(ownerScope, ownerExternalID).
		RunWith(tr.db.DB).
		ExecContext(ctx)

	if err != nil {
		return sqlite.MapError(err)
	}

	affected, err := result.RowsAffected()

	if err != nil {
		return sqlite.MapError(err)
	}

	if affected == 0 {
		return domain.NewNotFoundError("Todo")
	}

	return nil
}

func (tr *TodoRepository) Stats(ctx context.Context, ownerExternalID string) (_ *domain.TodoStats, err error) {
	ctx, done := tr.trace(ctx, "Stats", map[string]interface{}{"owner": ownerExternalID})
	defer done(&err)

	now := tr.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	endOfDay := startOfDay.AddDate(0, 0, 1)

	query := tr.db.QueryBuilder.Select("COUNT(*)")

	for _, status := range domain.TodoStatuses {
		query = query.Column(sq.Expr("COUNT(*) FILTER (WHERE status = ?)", string(status)))
	}

	for _, priority := range domain.TodoPriorities {
		query = query.Column(sq.Expr("COUNT(*) FILTER (WHERE priority = ?)", string(priority)))
	}

	query = query.
		Column(sq.Expr("COUNT(*) FILTER (WHERE completed_at >= ? AND completed_at < ?)", startOfDay, endOfDay)).
		Column(sq.Expr("COUNT(*) FILTER (WHERE due_date >= ? AND due_date <= ? AND status <> 'completed')", now, now.Add(domain.DueSoonWindow))).
		Column(sq.Expr("COUNT(*) FILTER (WHERE due_date < ? AND status NOT IN ('completed', 'archived'))", now)).
		Column("COUNT(*) FILTER (WHERE starred)").
		From("todos").
		Where(sq.Eq{"deleted_at": nil}).
		Where(ownerScope, ownerExternalID)

	stats := &domain.TodoStats{
		ByStatus:   make(map[domain.TodoStatus]int, len(domain.TodoStatuses)),
		ByPriority: make(map[domain.TodoPriority]int, len(domain.TodoPriorities)),
	}

	statusCounts := make([]int, len(domain.TodoStatuses))
	priorityCounts := make([]int, len(domain.TodoPriorities))

	dest := []any{&stats.Total}
	for i := range statusCounts {
		dest = append(dest, &statusCounts[i])
	}
	for i := range priorityCounts {
		dest = append(dest, &priorityCounts[i])
	}
	dest = append(dest, &stats.CompletedToday, &stats.DueSoon, &stats.Overdue, &stats.Starred)

	if err := query.RunWith(tr.db.DB).QueryRowContext(ctx).Scan(dest...); err != nil {
		return nil, sqlite.MapError(err)
	}

	for i, status := range domain.TodoStatuses {
		stats.ByStatus[status] = statusCounts[i]
	}

	for i, priority := range domain.TodoPriorities {
		stats.ByPriority[priority] = priorityCounts[i]
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (*domain.Todo, error) {
	var (
		todo     domain.Todo
		status   string
		priority string
		tags     string
	)

	err := row.Scan(
		&todo.ID,
		&todo.UserID,
		&todo.Title,
		&todo.Description,
		&status,
		&priority,
		&todo.DueDate,
		&todo.CompletedAt,
		&todo.Position,
		&tags,
		&todo.Starred,
		&todo.ReminderAt,
		&todo.CreatedAt,
		&todo.UpdatedAt,
		&todo.DeletedAt,
	)

	if err != nil {
		return nil, err
	}

	todo.Status = domain.TodoStatus(status)
	todo.Priority = domain.TodoPriority(priority)

	if err := json.Unmarshal([]byte(tags), &todo.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}

	if todo.Tags == nil {
		todo.Tags = []string{}
	}

	return &todo, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}

	encoded, err := json.Marshal(tags)

	return string(encoded), err
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	utc := t.UTC()
	return &utc
}

func toArgs(values []string) []any {
	args := make([]any, len(values))

	for i, v := range values {
		args[i] = v
	}

	return args
}
