package port

import (
	"context"

	"todoapi/internal/core/domain"
)

// IdentityVerifier turns a bearer credential into a verified identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*domain.Identity, error)
}

// IdentityProvider manages accounts held by the identity provider.
type IdentityProvider interface {
	CreateAccount(ctx context.Context, account domain.NewAccount) (*domain.Account, error)
	UpdateAccount(ctx context.Context, uid string, changes domain.AccountChanges) error
	DeleteAccount(ctx context.Context, uid string) error
}

// PasswordSignIn is implemented by providers that can exchange a password for
// a bearer credential themselves.
type PasswordSignIn interface {
	SignIn(ctx context.Context, email, password string) (string, error)
}

type AuthService interface {
	Register(ctx context.Context, account domain.NewAccount) (*domain.User, error)
	Login(ctx context.Context, email, idToken string) (*domain.User, error)
	Me(ctx context.Context, subject string) (*domain.User, error)
	UpdateProfile(ctx context.Context, subject string, changes domain.UserChanges) (*domain.User, error)
	Deactivate(ctx context.Context, subject string) error
	IssueToken(ctx context.Context, email, password string) (string, error)
}
