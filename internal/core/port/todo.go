package port

import (
	"context"

	"todoapi/internal/core/domain"
)

type TodoRepository interface {
	Create(ctx context.Context, ownerExternalID string, todo domain.NewTodo) (*domain.Todo, error)
	GetByID(ctx context.Context, id string, ownerExternalID string) (*domain.Todo, error)
	List(ctx context.Context, ownerExternalID string, filter domain.TodoFilter) ([]domain.Todo, int, error)
	Update(ctx context.Context, id string, ownerExternalID string, changes domain.TodoChanges) (*domain.Todo, error)
	SoftDelete(ctx context.Context, id string, ownerExternalID string) error
	Stats(ctx context.Context, ownerExternalID string) (*domain.TodoStats, error)
}

type TodoService interface {
	Create(ctx context.Context, ownerExternalID string, todo domain.NewTodo) (*domain.Todo, error)
	GetByID(ctx context.Context, id string, ownerExternalID string) (*domain.Todo, error)
	List(ctx context.Context, ownerExternalID string, filter domain.TodoFilter) ([]domain.Todo, domain.PageInfo, error)
	Update(ctx context.Context, id string, ownerExternalID string, changes domain.TodoChanges) (*domain.Todo, error)
	SoftDelete(ctx context.Context, id string, ownerExternalID string) error
	Stats(ctx context.Context, ownerExternalID string) (*domain.TodoStats, error)
}
