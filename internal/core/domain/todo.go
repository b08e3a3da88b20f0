package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

type TodoStatus string

const (
	TodoStatusPending    TodoStatus = "pending"
	TodoStatusInProgress TodoStatus = "in_progress"
	TodoStatusCompleted  TodoStatus = "completed"
	TodoStatusArchived   TodoStatus = "archived"
)

var TodoStatuses = []TodoStatus{
	TodoStatusPending,
	TodoStatusInProgress,
	TodoStatusCompleted,
	TodoStatusArchived,
}

func (s TodoStatus) String() string {
	return string(s)
}

func (s TodoStatus) IsValid() bool {
	for _, status := range TodoStatuses {
		if s == status {
			return true
		}
	}

	return false
}

func ParseTodoStatus(value string) (TodoStatus, error) {
	status := TodoStatus(value)

	if !status.IsValid() {
		return "", fmt.Errorf("invalid status: %s", value)
	}

	return status, nil
}

type TodoPriority string

const (
	TodoPriorityLow      TodoPriority = "low"
	TodoPriorityMedium   TodoPriority = "medium"
	TodoPriorityHigh     TodoPriority = "high"
	TodoPriorityCritical TodoPriority = "critical"
)

var TodoPriorities = []TodoPriority{
	TodoPriorityLow,
	TodoPriorityMedium,
	TodoPriorityHigh,
	TodoPriorityCritical,
}

func (p TodoPriority) String() string {
	return string(p)
}

func (p TodoPriority) IsValid() bool {
	for _, priority := range TodoPriorities {
		if p == priority {
			return true
		}
	}

	return false
}

const (
	MaxTitleLength       = 500
	MaxDescriptionLength = 5000
	MaxTags              = 10
	MaxTagLength         = 50
)

type Todo struct {
	ID          uuid.UUID    `json:"id"`
	UserID      uuid.UUID    `json:"userId"`
	Title       string       `json:"title"`
	Description *string      `json:"description"`
	Status      TodoStatus   `json:"status"`
	Priority    TodoPriority `json:"priority"`
	DueDate     *time.Time   `json:"dueDate"`
	CompletedAt *time.Time   `json:"completedAt"`
	Position    int          `json:"position"`
	Tags        []string     `json:"tags"`
	Starred     bool         `json:"starred"`
	ReminderAt  *time.Time   `json:"reminderAt"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	DeletedAt   *time.Time   `json:"-"`
}

func (t *Todo) IsDeleted() bool {
	return t.DeletedAt != nil
}

func (t *Todo) IsCompleted() bool {
	return t.Status == TodoStatusCompleted
}

// NewTodo is the validated input of a create.
type NewTodo struct {
	Title       string
	Description *string
	Status      TodoStatus
	Priority    TodoPriority
	DueDate     *time.Time
	Tags        []string
	Starred     bool
	ReminderAt  *time.Time
}

// WithDefaults fills the values a todo gets when the caller leaves them out.
func (n NewTodo) WithDefaults() NewTodo {
	if n.Status == "" {
		n.Status = TodoStatusPending
	}

	if n.Priority == "" {
		n.Priority = TodoPriorityMedium
	}

	if n.Tags == nil {
		n.Tags = []string{}
	}

	return n
}

// TodoChanges holds the fields of a partial update. Only present fields are
// written.
type TodoChanges struct {
	Title       Optional[string]
	Description Optional[string]
	Status      Optional[TodoStatus]
	Priority    Optional[TodoPriority]
	DueDate     Optional[time.Time]
	Tags        Optional[[]string]
	Starred     Optional[bool]
	ReminderAt  Optional[time.Time]
	Position    Optional[int]
}

func (c TodoChanges) IsEmpty() bool {
	return !c.Title.Present &&
		!c.Description.Present &&
		!c.Status.Present &&
		!c.Priority.Present &&
		!c.DueDate.Present &&
		!c.Tags.Present &&
		!c.Starred.Present &&
		!c.ReminderAt.Present &&
		!c.Position.Present
}

// Columns translates the changes to column values. A present status always
// drives completed_at so that completed_at is set iff status is completed.
func (c TodoChanges) Columns(now time.Time) map[string]any {
	columns := map[string]any{}

	if c.Title.Present {
		columns["title"] = c.Title.Value
	}

	if c.Description.Present {
		columns["description"] = c.Description.Ptr()
	}

	if c.Status.Present {
		columns["status"] = string(c.Status.Value)

		if c.Status.Value == TodoStatusCompleted {
			columns["completed_at"] = now
		} else {
			columns["completed_at"] = nil
		}
	}

	if c.Priority.Present {
		columns["priority"] = string(c.Priority.Value)
	}

	if c.DueDate.Present {
		columns["due_date"] = c.DueDate.Ptr()
	}

	if c.Tags.Present {
		tags := c.Tags.Value
		if tags == nil {
			tags = []string{}
		}
		columns["tags"] = tags
	}

	if c.Starred.Present {
		columns["starred"] = c.Starred.Value
	}

	if c.ReminderAt.Present {
		columns["reminder_at"] = c.ReminderAt.Ptr()
	}

	if c.Position.Present {
		columns["position"] = c.Position.Value
	}

	return columns
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortableTodoColumns is the whitelist of columns a list can be ordered by.
var SortableTodoColumns = []string{
	"created_at",
	"updated_at",
	"due_date",
	"priority",
	"status",
	"position",
	"title",
}

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
	DefaultSortBy   = "created_at"
)

func IsSortableTodoColumn(column string) bool {
	for _, c := range SortableTodoColumns {
		if c == column {
			return true
		}
	}

	return false
}

type TodoFilter struct {
	Status      *TodoStatus
	Priority    *TodoPriority
	Starred     *bool
	Search      string
	DueDateFrom *time.Time
	DueDateTo   *time.Time
	Tags        []string

	Page      int
	Limit     int
	SortBy    string
	SortOrder SortOrder
}

// Normalize clamps paging and sorting to the supported values.
func (f TodoFilter) Normalize() TodoFilter {
	if f.Page < 1 {
		f.Page = DefaultPage
	}

	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}

	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}

	if !IsSortableTodoColumn(f.SortBy) {
		f.SortBy = DefaultSortBy
	}

	if f.SortOrder != SortAsc {
		f.SortOrder = SortDesc
	}

	return f
}

// Offset saturates at math.MaxInt64 so a page far past the end still selects
// nothing instead of wrapping around.
func (f TodoFilter) Offset() uint64 {
	if f.Page <= 1 || f.Limit <= 0 {
		return 0
	}

	if f.Page-1 > math.MaxInt64/f.Limit {
		return math.MaxInt64
	}

	return uint64((f.Page - 1) * f.Limit)
}

type PageInfo struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasMore    bool `json:"hasMore"`
}

func NewPageInfo(page, limit, total int) PageInfo {
	totalPages := 0

	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return PageInfo{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasMore:    page < totalPages,
	}
}

type TodoStats struct {
	Total          int                  `json:"total"`
	ByStatus       map[TodoStatus]int   `json:"byStatus"`
	ByPriority     map[TodoPriority]int `json:"byPriority"`
	CompletedToday int                  `json:"completedToday"`
	DueSoon        int                  `json:"dueSoon"`
	Overdue        int                  `json:"overdue"`
	Starred        int                  `json:"starred"`
}

// DueSoonWindow is how far ahead a todo counts as due soon.
const DueSoonWindow = 7 * 24 * time.Hour
