package repository

import (
	"context"
	"errors"
	"fmt"
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

var todoColumns = []string{
	"id", "user_id", "title", "description", "status::text", "priority::text", "due_date", "completed_at",
	"position", "tags", "starred", "reminder_at", "created_at", "updated_at", "deleted_at",
}

const ownerScope = "user_id = (SELECT id FROM users WHERE external_id = ? AND deleted_at IS NULL)"

type TodoRepository struct {
	db        *postgres.DB
	queries   todoQueries
	telemetry port.Telemetry
}

func NewTodoRepository(db *postgres.DB, telemetry port.Telemetry) *TodoRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &TodoRepository{
		db:        db,
		queries:   todoQueries{builder: *db.QueryBuilder},
		telemetry: telemetry,
	}
}

func (tr *TodoRepository) Create(ctx context.Context, ownerExternalID string, input domain.NewTodo) (_ *domain.Todo, err error) {
	ctx, done := observe(ctx, tr.telemetry, "todos", "INSERT", attribute.String("owner", ownerExternalID))
	defer done(&err)

	conn, err := tr.db.Conn(ctx)

	if err != nil {
		return nil, postgres.MapError(err)
	}

	defer conn.Release()

	var userID uuid.UUID

	stmt, args, err := tr.queries.ownerID(ownerExternalID)

	if err != nil {
		return nil, domain.NewInternalError("Failed to build query", err)
	}

	err = conn.QueryRow(ctx, stmt, args...).Scan(&userID)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewNotFoundError("User")
	}

	if err != nil {
		return nil, postgres.MapError(err)
	}

	stmt, args, err = tr.queries.insert(userID, input, time.Now().UTC())

	if err != nil {
		return nil, domain.NewInternalError("Failed to build query", err)
	}

	todo, err := scanTodo(conn.QueryRow(ctx, stmt, args...))

	if err != nil {
		return nil, postgres.MapError(err)
	}

	return todo, nil
}

func (tr *TodoRepository) GetByID(ctx context.Context, id string, ownerExternalID string) (_ *domain.Todo, err error) {
	ctx, done := observe(ctx, tr.telemetry, "todos", "SELECT", attribute.String("todo.id", id))
	defer done(&err)

	stmt, args, err := tr.queries.getByID(id, ownerExternalID)

	if err != nil {
		return nil, domain.NewInternalError("Failed to build query", err)
	}

	conn, err := tr.db.Conn(ctx)

	if err != nil {
		return nil, postgres.MapError(err)
	}

	defer conn.Release()

	todo, err := scanTodo(conn.QueryRow(ctx, stmt, args...))

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, postgres.MapError(err)
	}

	return todo, nil
}

func (tr *TodoRepository) List(ctx context.Context, ownerExternalID string, filter domain.TodoFilter) (_ []domain.Todo, _ int, err error) {
	filter = filter.Normalize()

	ctx, done := observe(ctx, tr.telemetry, "todos", "SELECT",
		attribute.Int("pagination.page", filter.Page),
		attribute.Int("pagination.limit", filter.Limit),
		attribute.String("sort.by", filter.SortBy),
	)
	defer done(&err)

	countStmt, countArgs, err := tr.queries.count(ownerExternalID, filter)

	if err != nil {
		return nil, 0, domain.NewInternalError("Failed to build query", err)
	}

	listStmt, listArgs, err := tr.queries.list(ownerExternalID, filter)

	if err != nil {
		return nil, 0, domain.NewInternalError("Failed to build query", err)
	}

	conn, err := tr.db.Conn(ctx)

	if err != nil {
		return nil, 0, postgres.MapError(err)
	}

	defer conn.Release()

	var total int

	if err := conn.QueryRow(ctx, countStmt, countArgs...).Scan(&total); err != nil {
		return nil, 0, postgres.MapError(err)
	}

	rows, err := conn.Query(ctx, listStmt, listArgs...)

	if err != nil {
		return nil, 0, postgres.MapError(err)
	}

	defer rows.Close()

	todos := []domain.Todo{}

	for rows.Next() {
		todo, err := scanTodo(rows)

		if err != nil {
			return nil, 0, postgres.MapError(err)
		}

		todos = append(todos, *todo)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, postgres.MapError(err)
	}

	return todos, total, nil
}

func (tr *TodoRepository) Update(ctx context.Context, id string, ownerExternalID string, changes domain.TodoChanges) (_ *domain.Todo, err error) {
	ctx, done := observe(ctx, tr.telemetry, "todos", "UPDATE", attribute.String("todo.id", id))
	defer done(&err)

	stmt, args, err := tr.queries.update(id, ownerExternalID, changes, time.Now().UTC())

	if err != nil {
		return nil, domain.NewInternalError("Failed to build query", err)
	}

	conn, err := tr.db.Conn(ctx)

	if err != nil {
		return nil, postgres.MapError(err)
	}

	defer conn.Release()

	todo, err := scanTodo(conn.QueryRow(ctx, stmt, args...))

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewNotFoundError("Todo")
	}

	if err != nil {
		return nil, postgres.MapError(err)
	}

	return todo, nil
}

func (tr *TodoRepository) SoftDelete(ctx context.Context, id string, ownerExternalID string) (err error) {
	ctx, done := observe(ctx, tr.telemetry, "todos", "UPDATE", attribute.String("todo.id", id))
	defer done(&err)

	stmt, args, err := tr.queries.softDelete(id, ownerExternalID, time.Now().UTC())

	if err != nil {
		return domain.NewInternalError("Failed to build query", err)
	}

	conn, err := tr.db.Conn(ctx)

	if err != nil {
		return postgres.MapError(err)
	}

	defer conn.Release()

	tag, err := conn.Exec(ctx, stmt, args...)

	if err != nil {
		return postgres.MapError(err)
	}

	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("Todo")
	}

	return nil
}

func (tr *TodoRepository) Stats(ctx context.Context, ownerExternalID string) (_ *domain.TodoStats, err error) {
	ctx, done := observe(ctx, tr.telemetry, "todos", "SELECT", attribute.String("owner", ownerExternalID))
	defer done(&err)

	stmt, args, err := tr.queries.stats(ownerExternalID, time.Now().UTC())

	if err != nil {
		return nil, domain.NewInternalError("Failed to build query", err)
	}

	conn, err := tr.db.Conn(ctx)

	if err != nil {
		return nil, postgres.MapError(err)
	}

	defer conn.Release()

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

	if err := conn.QueryRow(ctx, stmt, args...).Scan(dest...); err != nil {
		return nil, postgres.MapError(err)
	}

	for i, status := range domain.TodoStatuses {
		stats.ByStatus[status] = statusCounts[i]
	}

	for i, priority := range domain.TodoPriorities {
		stats.ByPriority[priority] = priorityCounts[i]
	}

	return stats, nil
}

// todoQueries builds every statement the repository runs.
type todoQueries struct {
	builder sq.StatementBuilderType
}

func (q todoQueries) ownerID(ownerExternalID string) (string, []any, error) {
	return q.builder.Select("id").
		From("users").
		Where(sq.Eq{"external_id": ownerExternalID, "deleted_at": nil}).
		ToSql()
}

func (q todoQueries) insert(userID uuid.UUID, input domain.NewTodo, now time.Time) (string, []any, error) {
	var completedAt *time.Time
	if input.Status == domain.TodoStatusCompleted {
		completedAt = &now
	}

	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}

	return q.builder.Insert("todos").
		Columns(
			"id", "user_id", "title", "description", "status", "priority", "due_date", "completed_at",
			"position", "tags", "starred", "reminder_at", "created_at", "updated_at",
		).
		Values(
			uuid.New(),
			userID,
			input.Title,
			input.Description,
			string(input.Status),
			string(input.Priority),
			input.DueDate,
			completedAt,
			sq.Expr("(SELECT COALESCE(MAX(position), 0) + 1 FROM todos WHERE user_id = ?)", userID),
			tags,
			input.Starred,
			input.ReminderAt,
			now,
			now,
		).
		Suffix("RETURNING " + strings.Join(todoColumns, ", ")).
		ToSql()
}

func (q todoQueries) getByID(id, ownerExternalID string) (string, []any, error) {
	return q.builder.Select(todoColumns...).
		From("todos").
		Where(sq.Eq{"id": id, "deleted_at": nil}).
		Where(ownerScope, ownerExternalID).
		Limit(1).
		ToSql()
}

func (q todoQueries) filters(ownerExternalID string, filter domain.TodoFilter) sq.And {
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
			sq.ILike{"title": pattern},
			sq.ILike{"description": pattern},
		})
	}

	if filter.DueDateFrom != nil {
		conditions = append(conditions, sq.GtOrEq{"due_date": *filter.DueDateFrom})
	}

	if filter.DueDateTo != nil {
		conditions = append(conditions, sq.LtOrEq{"due_date": *filter.DueDateTo})
	}

	if len(filter.Tags) > 0 {
		conditions = append(conditions, sq.Expr("tags && ?", filter.Tags))
	}

	return conditions
}

func (q todoQueries) count(ownerExternalID string, filter domain.TodoFilter) (string, []any, error) {
	return q.builder.Select("COUNT(*)").
		From("todos").
		Where(q.filters(ownerExternalID, filter)).
		ToSql()
}

func (q todoQueries) list(ownerExternalID string, filter domain.TodoFilter) (string, []any, error) {
	filter = filter.Normalize()
	direction := strings.ToUpper(string(filter.SortOrder))

	return q.builder.Select(todoColumns...).
		From("todos").
		Where(q.filters(ownerExternalID, filter)).
		OrderBy(fmt.Sprintf("%s %s NULLS LAST", filter.SortBy, direction), "id "+direction).
		Limit(uint64(filter.Limit)).
		Offset(filter.Offset()).
		ToSql()
}

func (q todoQueries) update(id, ownerExternalID string, changes domain.TodoChanges, now time.Time) (string, []any, error) {
	return q.builder.Update("todos").
		SetMap(changes.Columns(now)).
		Set("updated_at", now).
		Where(sq.Eq{"id": id, "deleted_at": nil}).
		Where(ownerScope, ownerExternalID).
		Suffix("RETURNING " + strings.Join(todoColumns, ", ")).
		ToSql()
}

func (q todoQueries) softDelete(id, ownerExternalID string, now time.Time) (string, []any, error) {
	return q.builder.Update("todos").
		Set("deleted_at", now).
		Set("updated_at", now).
		Where(sq.Eq{"id": id, "deleted_at": nil}).
		Where(ownerScope, ownerExternalID).
		ToSql()
}

func (q todoQueries) stats(ownerExternalID string, now time.Time) (string, []any, error) {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	endOfDay := startOfDay.AddDate(0, 0, 1)

	query := q.builder.Select("COUNT(*)")

	for _, status := range domain.TodoStatuses {
		query = query.Column(sq.Expr("COUNT(*) FILTER (WHERE status = ?)", string(status)))
	}

	for _, priority := range domain.TodoPriorities {
		query = query.Column(sq.Expr("COUNT(*) FILTER (WHERE priority = ?)", string(priority)))
	}

	return query.
		Column(sq.Expr("COUNT(*) FILTER (WHERE completed_at >= ? AND completed_at < ?)", startOfDay, endOfDay)).
		Column(sq.Expr("COUNT(*) FILTER (WHERE due_date >= ? AND due_date <= ? AND status <> 'completed')", now, now.Add(domain.DueSoonWindow))).
		Column(sq.Expr("COUNT(*) FILTER (WHERE due_date < ? AND status NOT IN ('completed', 'archived'))", now)).
		Column("COUNT(*) FILTER (WHERE starred)").
		From("todos").
		Where(sq.Eq{"deleted_at": nil}).
		Where(ownerScope, ownerExternalID).
		ToSql()
}

func scanTodo(row pgx.Row) (*domain.Todo, error) {
	var (
		todo     domain.Todo
		status   string
		priority string
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
		&todo.Tags,
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

	if todo.Tags == nil {
		todo.Tags = []string{}
	}

	return &todo, nil
}
