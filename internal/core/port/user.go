package port

import (
	"context"

	"todoapi/internal/core/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user domain.NewUser) (*domain.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, externalID string, changes domain.UserChanges) (*domain.User, error)
	TouchLastLogin(ctx context.Context, externalID string) (*domain.User, error)
	SoftDelete(ctx context.Context, externalID string) error
}

type UserService interface {
	Create(ctx context.Context, user domain.NewUser) (*domain.User, error)
	FindByExternalID(ctx context.Context, externalID string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, externalID string, changes domain.UserChanges) (*domain.User, error)
	TouchLastLogin(ctx context.Context, externalID string) (*domain.User, error)
	SoftDelete(ctx context.Context, externalID string) error
}
