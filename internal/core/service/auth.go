package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"todoapi/internal/core/domain"
	"todoapi/internal/core/port"
	tel "todoapi/internal/core/telemetry"
)

type AuthService struct {
	users     port.UserService
	verifier  port.IdentityVerifier
	provider  port.IdentityProvider
	logger    *zap.Logger
	telemetry port.Telemetry
}

func NewAuthService(
	users port.UserService,
	verifier port.IdentityVerifier,
	provider port.IdentityProvider,
	logger *zap.Logger,
	telemetry port.Telemetry,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}

	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &AuthService{
		users:     users,
		verifier:  verifier,
		provider:  provider,
		logger:    logger,
		telemetry: telemetry,
	}
}

// Register creates the identity-provider account and then the local user. A
// failed local insert deletes the provider account again.
func (as *AuthService) Register(ctx context.Context, account domain.NewAccount) (_ *domain.User, err error) {
	ctx, done := observe(ctx, as.telemetry, "auth", "Register", nil)
	defer done(&err)

	account.Email = normalizeEmail(account.Email)
	account.DisplayName = strings.TrimSpace(account.DisplayName)

	if account.DisplayName == "" {
		account.DisplayName = strings.SplitN(account.Email, "@", 2)[0]
	}

	existing, err := as.users.FindByEmail(ctx, account.Email)

	if err != nil && !domain.IsNotFound(err) {
		return nil, err
	}

	if existing != nil {
		return nil, domain.NewConflictError("Email already registered", nil)
	}

	created, err := as.provider.CreateAccount(ctx, account)

	if err != nil {
		return nil, err
	}

	user, err := as.users.Create(ctx, domain.NewUser{
		ExternalID:    created.UID,
		Email:         account.Email,
		DisplayName:   account.DisplayName,
		PhotoURL:      created.PhotoURL,
		EmailVerified: created.EmailVerified,
	})

	if err != nil {
		if rollbackErr := as.provider.DeleteAccount(ctx, created.UID); rollbackErr != nil {
			as.logger.Error("failed to roll back identity account after local insert failure",
				zap.String("uid", created.UID),
				zap.NamedError("insert_error", err),
				zap.NamedError("rollback_error", rollbackErr),
			)
		}

		return nil, err
	}

	return user, nil
}

func (as *AuthService) Login(ctx context.Context, email, idToken string) (_ *domain.User, err error) {
	ctx, done := observe(ctx, as.telemetry, "auth", "Login", nil)
	defer done(&err)

	identity, err := as.verifier.Verify(ctx, idToken)

	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(strings.TrimSpace(identity.Email), strings.TrimSpace(email)) {
		return nil, domain.NewAuthenticationError(domain.CodeEmailMismatch, "Email does not match the provided credential")
	}

	user, err := as.users.FindByExternalID(ctx, identity.Subject)

	if err != nil {
		if domain.IsNotFound(err) {
			notRegistered := domain.NewNotFoundError("User")
			notRegistered.Message = "User not registered. Please register first"
			return nil, notRegistered
		}

		return nil, err
	}

	if !user.IsActive {
		return nil, domain.NewAuthorizationError(domain.CodeAccountDisabled, "Account is disabled")
	}

	user, err = as.users.TouchLastLogin(ctx, identity.Subject)

	if err != nil {
		return nil, err
	}

	as.telemetry.RecordBusinessEvent(ctx, "user.login", "user", user.ID.String(), nil)

	return user, nil
}

func (as *AuthService) Me(ctx context.Context, subject string) (_ *domain.User, err error) {
	ctx, done := observe(ctx, as.telemetry, "auth", "Me", nil)
	defer done(&err)

	return as.users.FindByExternalID(ctx, subject)
}

// UpdateProfile changes the local user first. Propagating the change to the
// identity provider is best effort.
func (as *AuthService) UpdateProfile(ctx context.Context, subject string, changes domain.UserChanges) (_ *domain.User, err error) {
	ctx, done := observe(ctx, as.telemetry, "auth", "UpdateProfile", nil)
	defer done(&err)

	user, err := as.users.Update(ctx, subject, changes)

	if err != nil {
		return nil, err
	}

	if changes.DisplayName.Present || changes.PhotoURL.Present {
		accountChanges := domain.AccountChanges{
			DisplayName: changes.DisplayName,
			PhotoURL:    changes.PhotoURL,
		}

		if err := as.provider.UpdateAccount(ctx, subject, accountChanges); err != nil {
			as.logger.Warn("failed to propagate profile change to identity provider",
				zap.String("uid", subject),
				zap.Error(err),
			)
		}
	}

	return user, nil
}

func (as *AuthService) Deactivate(ctx context.Context, subject string) (err error) {
	ctx, done := observe(ctx, as.telemetry, "auth", "Deactivate", nil)
	defer done(&err)

	return as.users.SoftDelete(ctx, subject)
}

// IssueToken exchanges a password for a bearer credential. Only providers
// that hold passwords themselves support it.
func (as *AuthService) IssueToken(ctx context.Context, email, password string) (_ string, err error) {
	ctx, done := observe(ctx, as.telemetry, "auth", "IssueToken", nil)
	defer done(&err)

	signer, ok := as.provider.(port.PasswordSignIn)

	if !ok {
		return "", domain.NewAuthenticationError(domain.CodeAuthentication, "Password sign-in is not available")
	}

	return signer.SignIn(ctx, normalizeEmail(email), password)
}
