package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"todoapi/internal/core/domain"
	"todoapi/internal/core/port"
	tel "todoapi/internal/core/telemetry"
)

type TodoService struct {
	repo      port.TodoRepository
	telemetry port.Telemetry
}

func NewTodoService(repo port.TodoRepository, telemetry port.Telemetry) *TodoService {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &TodoService{repo: repo, telemetry: telemetry}
}

func (ts *TodoService) Create(ctx context.Context, ownerExternalID string, input domain.NewTodo) (_ *domain.Todo, err error) {
	ctx, done := observe(ctx, ts.telemetry, "todo", "Create", map[string]interface{}{"owner": ownerExternalID})
	defer done(&err)

	input.Title = strings.TrimSpace(input.Title)

	if input.Title == "" {
		return nil, blankTitleError()
	}

	input.Tags = normalizeTags(input.Tags)

	todo, err := ts.repo.Create(ctx, ownerExternalID, input.WithDefaults())

	if err != nil {
		return nil, err
	}

	ts.telemetry.RecordBusinessEvent(ctx, "todo.created", "todo", todo.ID.String(), map[string]interface{}{
		"priority": string(todo.Priority),
		"status":   string(todo.Status),
	})

	return todo, nil
}

// GetByID returns nil without an error when the todo does not exist or
// belongs to someone else.
func (ts *TodoService) GetByID(ctx context.Context, id string, ownerExternalID string) (_ *domain.Todo, err error) {
	ctx, done := observe(ctx, ts.telemetry, "todo", "GetByID", map[string]interface{}{"todo.id": id})
	defer done(&err)

	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	return ts.repo.GetByID(ctx, id, ownerExternalID)
}

func (ts *TodoService) List(ctx context.Context, ownerExternalID string, filter domain.TodoFilter) (_ []domain.Todo, _ domain.PageInfo, err error) {
	ctx, done := observe(ctx, ts.telemetry, "todo", "List", map[string]interface{}{"owner": ownerExternalID})
	defer done(&err)

	filter = filter.Normalize()
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Tags = normalizeTags(filter.Tags)

	todos, total, err := ts.repo.List(ctx, ownerExternalID, filter)

	if err != nil {
		return nil, domain.PageInfo{}, err
	}

	return todos, domain.NewPageInfo(filter.Page, filter.Limit, total), nil
}

func (ts *TodoService) Update(ctx context.Context, id string, ownerExternalID string, changes domain.TodoChanges) (_ *domain.Todo, err error) {
	ctx, done := observe(ctx, ts.telemetry, "todo", "Update", map[string]interface{}{"todo.id": id})
	defer done(&err)

	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.NewNotFoundError("Todo")
	}

	existing, err := ts.repo.GetByID(ctx, id, ownerExternalID)

	if err != nil {
		return nil, err
	}

	if existing == nil {
		return nil, domain.NewNotFoundError("Todo")
	}

	if changes.IsEmpty() {
		return nil, noFieldsError()
	}

	if changes.Title.Present {
		changes.Title.Value = strings.TrimSpace(changes.Title.Value)

		if !changes.Title.Valid || changes.Title.Value == "" {
			return nil, blankTitleError()
		}
	}

	if changes.Tags.Present {
		changes.Tags = domain.Some(normalizeTags(changes.Tags.Value))
	}

	todo, err := ts.repo.Update(ctx, id, ownerExternalID, changes)

	if err != nil {
		return nil, err
	}

	// Deleted between the read and the write.
	if todo == nil {
		return nil, domain.NewNotFoundError("Todo")
	}

	if changes.Status.Present && todo.Status != existing.Status {
		ts.telemetry.RecordBusinessEvent(ctx, "todo.status_changed", "todo", todo.ID.String(), map[string]interface{}{
			"from": string(existing.Status),
			"to":   string(todo.Status),
		})
	}

	return todo, nil
}

func (ts *TodoService) SoftDelete(ctx context.Context, id string, ownerExternalID string) (err error) {
	ctx, done := observe(ctx, ts.telemetry, "todo", "SoftDelete", map[string]interface{}{"todo.id": id})
	defer done(&err)

	if _, err := uuid.Parse(id); err != nil {
		return domain.NewNotFoundError("Todo")
	}

	if err := ts.repo.SoftDelete(ctx, id, ownerExternalID); err != nil {
		return err
	}

	ts.telemetry.RecordBusinessEvent(ctx, "todo.deleted", "todo", id, nil)

	return nil
}

func (ts *TodoService) Stats(ctx context.Context, ownerExternalID string) (_ *domain.TodoStats, err error) {
	ctx, done := observe(ctx, ts.telemetry, "todo", "Stats", map[string]interface{}{"owner": ownerExternalID})
	defer done(&err)

	return ts.repo.Stats(ctx, ownerExternalID)
}

// normalizeTags trims tags and drops blanks and duplicates, keeping order.
func normalizeTags(tags []string) []string {
	if tags == nil {
		return nil
	}

	seen := make(map[string]struct{}, len(tags))
	normalized := make([]string, 0, len(tags))

	for _, tag := range tags {
		tag = strings.TrimSpace(tag)

		if tag == "" {
			continue
		}

		if _, ok := seen[tag]; ok {
			continue
		}

		seen[tag] = struct{}{}
		normalized = append(normalized, tag)
	}

	return normalized
}

func noFieldsError() *domain.Error {
	err := domain.NewValidationError("No fields to update", nil)
	err.Code = domain.CodeNoFieldsToUpdate

	return err
}

func blankTitleError() *domain.Error {
	return domain.NewValidationError("Validation failed", []domain.FieldError{
		{Field: "title", Message: "title is required"},
	})
}
