package identity

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"

	"todoapi/internal/core/domain"
)

type localAccount struct {
	account      domain.Account
	passwordHash []byte
}

// LocalProvider keeps identity accounts in process. It backs development and
// tests where no hosted identity service is available.
type LocalProvider struct {
	mu       sync.Mutex
	accounts *cache.Cache
	emails   *cache.Cache
	signer   *TokenSigner
	cost     int
}

func NewLocalProvider(signer *TokenSigner, bcryptCost int) *LocalProvider {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}

	return &LocalProvider{
		accounts: cache.New(cache.NoExpiration, 0),
		emails:   cache.New(cache.NoExpiration, 0),
		signer:   signer,
		cost:     bcryptCost,
	}
}

func (p *LocalProvider) CreateAccount(ctx context.Context, input domain.NewAccount) (*domain.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), p.cost)

	if err != nil {
		return nil, domain.NewInternalError("Failed to hash password", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.emails.Get(input.Email); exists {
		return nil, domain.NewConflictError("Email already registered", nil)
	}

	account := domain.Account{
		UID:         uuid.NewString(),
		Email:       input.Email,
		DisplayName: input.DisplayName,
	}

	p.accounts.SetDefault(account.UID, &localAccount{account: account, passwordHash: hash})
	p.emails.SetDefault(account.Email, account.UID)

	return &account, nil
}

func (p *LocalProvider) UpdateAccount(ctx context.Context, uid string, changes domain.AccountChanges) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	stored, ok := p.lookup(uid)

	if !ok {
		return domain.NewNotFoundError("Account")
	}

	if changes.DisplayName.Valid {
		stored.account.DisplayName = changes.DisplayName.Value
	}

	if changes.PhotoURL.Present {
		stored.account.PhotoURL = changes.PhotoURL.Ptr()
	}

	return nil
}

func (p *LocalProvider) DeleteAccount(ctx context.Context, uid string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	stored, ok := p.lookup(uid)

	if !ok {
		return domain.NewNotFoundError("Account")
	}

	p.accounts.Delete(uid)
	p.emails.Delete(stored.account.Email)

	return nil
}

func (p *LocalProvider) GetAccount(uid string) (*domain.Account, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	stored, ok := p.lookup(uid)

	if !ok {
		return nil, false
	}

	account := stored.account
	return &account, true
}

// SignIn checks the password and issues a bearer credential for the account.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (string, error) {
	invalid := domain.NewAuthenticationError(domain.CodeInvalidCredentials, "Invalid email or password")

	p.mu.Lock()
	uid, found := p.emails.Get(email)
	var stored *localAccount
	if found {
		stored, found = p.lookup(uid.(string))
	}
	p.mu.Unlock()

	if !found {
		return "", invalid
	}

	if err := bcrypt.CompareHashAndPassword(stored.passwordHash, []byte(password)); err != nil {
		return "", invalid
	}

	if stored.account.Disabled {
		return "", domain.NewAuthorizationError(domain.CodeAccountDisabled, "Account is disabled")
	}

	token, err := p.signer.Sign(domain.Identity{
		Subject:       stored.account.UID,
		Email:         stored.account.Email,
		EmailVerified: stored.account.EmailVerified,
	})

	if err != nil {
		return "", domain.NewInternalError("Failed to sign token", err)
	}

	return token, nil
}

func (p *LocalProvider) lookup(uid string) (*localAccount, bool) {
	value, ok := p.accounts.Get(uid)

	if !ok {
		return nil, false
	}

	return value.(*localAccount), true
}
