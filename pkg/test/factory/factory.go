package factory

import (
	"strings"

	fab "github.com/Goldziher/fabricator"
	"github.com/google/uuid"

	"todoapi/internal/core/domain"
)

func build[T any](customData ...map[string]any) (T, map[string]bool) {
	given := map[string]bool{}

	for _, data := range customData {
		for key := range data {
			given[key] = true
		}
	}

	return fab.New(*new(T)).Build(customData...), given
}

// NewUser builds a registration payload with a unique external id and email.
func NewUser(customData ...map[string]any) domain.NewUser {
	user, given := build[domain.NewUser](customData...)
	suffix := uuid.NewString()[:8]

	if !given["ExternalID"] {
		user.ExternalID = "uid-" + suffix
	}

	if !given["Email"] {
		user.Email = "user-" + suffix + "@example.com"
	}

	if !given["DisplayName"] || strings.TrimSpace(user.DisplayName) == "" {
		user.DisplayName = "User " + suffix
	}

	if !given["PhotoURL"] {
		user.PhotoURL = nil
	}

	return user
}

// NewTodo builds a create payload that satisfies every table constraint.
// Fields not given fall back to the create defaults.
func NewTodo(customData ...map[string]any) domain.NewTodo {
	todo, given := build[domain.NewTodo](customData...)

	if !given["Title"] || strings.TrimSpace(todo.Title) == "" || len(todo.Title) > domain.MaxTitleLength {
		todo.Title = "Todo " + uuid.NewString()[:8]
	}

	if !given["Description"] {
		todo.Description = nil
	}

	if !given["Status"] {
		todo.Status = domain.TodoStatusPending
	}

	if !given["Priority"] {
		todo.Priority = domain.TodoPriorityMedium
	}

	if !given["Tags"] {
		todo.Tags = []string{}
	}

	if !given["Starred"] {
		todo.Starred = false
	}

	if !given["DueDate"] {
		todo.DueDate = nil
	}

	if !given["ReminderAt"] {
		todo.ReminderAt = nil
	}

	return todo.WithDefaults()
}
