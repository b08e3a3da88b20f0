package request

import (
	"strings"
	"time"

	"todoapi/internal/core/domain"
)

type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	Password    string `json:"password" validate:"required,min=8,max=128"`
	DisplayName string `json:"displayName" validate:"omitempty,min=2,max=100"`
}

func (r RegisterRequest) ToAccount() domain.NewAccount {
	return domain.NewAccount{
		Email:       r.Email,
		Password:    r.Password,
		DisplayName: r.DisplayName,
	}
}

type LoginRequest struct {
	Email   string `json:"email" validate:"required,email,max=255"`
	IDToken string `json:"idToken" validate:"required"`
}

type TokenRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	DisplayName domain.Optional[string] `json:"displayName" validate:"omitempty,min=2,max=100"`
	PhotoURL    domain.Optional[string] `json:"photoURL" validate:"omitempty,url,max=500"`
}

func (r UpdateProfileRequest) ToChanges() domain.UserChanges {
	return domain.UserChanges{
		DisplayName: r.DisplayName,
		PhotoURL:    r.PhotoURL,
	}
}

// NullNotAllowed lists the fields that were sent as null but cannot be
// cleared.
func (r UpdateProfileRequest) NullNotAllowed() []string {
	if r.DisplayName.IsNull() {
		return []string{"displayName"}
	}

	return nil
}

type CreateTodoRequest struct {
	Title       string              `json:"title" validate:"required,max=500"`
	Description *string             `json:"description" validate:"omitempty,max=5000"`
	Status      domain.TodoStatus   `json:"status" validate:"omitempty,oneof=pending in_progress completed archived"`
	Priority    domain.TodoPriority `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	DueDate     *time.Time          `json:"dueDate"`
	Tags        []string            `json:"tags" validate:"omitempty,max=10,dive,max=50"`
	Starred     bool                `json:"starred"`
	ReminderAt  *time.Time          `json:"reminderAt"`
}

// Normalize trims the title so length limits apply to the stored value.
func (r *CreateTodoRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
}

func (r CreateTodoRequest) ToNewTodo() domain.NewTodo {
	return domain.NewTodo{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Priority:    r.Priority,
		DueDate:     r.DueDate,
		Tags:        r.Tags,
		Starred:     r.Starred,
		ReminderAt:  r.ReminderAt,
	}
}

// UpdateTodoRequest distinguishes omitted fields from explicit nulls so that
// only supplied fields change.
type UpdateTodoRequest struct {
	Title       domain.Optional[string]              `json:"title" validate:"omitempty,max=500"`
	Description domain.Optional[string]              `json:"description" validate:"omitempty,max=5000"`
	Status      domain.Optional[domain.TodoStatus]   `json:"status" validate:"omitempty,oneof=pending in_progress completed archived"`
	Priority    domain.Optional[domain.TodoPriority] `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	DueDate     domain.Optional[time.Time]           `json:"dueDate"`
	Tags        domain.Optional[[]string]            `json:"tags" validate:"omitempty,max=10,dive,max=50"`
	Starred     domain.Optional[bool]                `json:"starred"`
	ReminderAt  domain.Optional[time.Time]           `json:"reminderAt"`
	Position    domain.Optional[int]                 `json:"position" validate:"omitempty,min=1"`
}

func (r *UpdateTodoRequest) Normalize() {
	if r.Title.Valid {
		r.Title.Value = strings.TrimSpace(r.Title.Value)
	}
}

func (r UpdateTodoRequest) ToChanges() domain.TodoChanges {
	return domain.TodoChanges{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Priority:    r.Priority,
		DueDate:     r.DueDate,
		Tags:        r.Tags,
		Starred:     r.Starred,
		ReminderAt:  r.ReminderAt,
		Position:    r.Position,
	}
}

func (r UpdateTodoRequest) NullNotAllowed() []string {
	var fields []string

	if r.Status.IsNull() {
		fields = append(fields, "status")
	}

	if r.Priority.IsNull() {
		fields = append(fields, "priority")
	}

	if r.Starred.IsNull() {
		fields = append(fields, "starred")
	}

	if r.Position.IsNull() {
		fields = append(fields, "position")
	}

	return fields
}

type ListTodosQuery struct {
	Status      string     `form:"status" validate:"omitempty,oneof=pending in_progress completed archived"`
	Priority    string     `form:"priority" validate:"omitempty,oneof=low medium high critical"`
	Starred     *bool      `form:"starred"`
	Search      string     `form:"search" validate:"max=200"`
	DueDateFrom *time.Time `form:"dueDateFrom" time_format:"2006-01-02T15:04:05Z07:00"`
	DueDateTo   *time.Time `form:"dueDateTo" time_format:"2006-01-02T15:04:05Z07:00"`
	Tags        []string   `form:"tags"`
	Page        int        `form:"page,default=1" validate:"min=1"`
	Limit       int        `form:"limit,default=20" validate:"min=1,max=100"`
	SortBy      string     `form:"sortBy,default=created_at" validate:"oneof=created_at updated_at due_date priority status position title"`
	SortOrder   string     `form:"sortOrder,default=desc" validate:"oneof=asc desc"`
}

func (q *ListTodosQuery) Normalize() {
	q.Search = strings.TrimSpace(q.Search)
}

// ToFilter accepts tags both repeated and comma separated.
func (q ListTodosQuery) ToFilter() domain.TodoFilter {
	filter := domain.TodoFilter{
		Starred:     q.Starred,
		Search:      q.Search,
		DueDateFrom: q.DueDateFrom,
		DueDateTo:   q.DueDateTo,
		Page:        q.Page,
		Limit:       q.Limit,
		SortBy:      q.SortBy,
		SortOrder:   domain.SortOrder(q.SortOrder),
	}

	if q.Status != "" {
		status := domain.TodoStatus(q.Status)
		filter.Status = &status
	}

	if q.Priority != "" {
		priority := domain.TodoPriority(q.Priority)
		filter.Priority = &priority
	}

	for _, raw := range q.Tags {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				filter.Tags = append(filter.Tags, tag)
			}
		}
	}

	return filter
}
