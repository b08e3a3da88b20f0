package identity

import (
	"context"
	"testing"

	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"todoapi/internal/core/domain"
)

func TestLocalProvider_Lifecycle(t *testing.T) {
	RegisterTestingT(t)

	ctx := context.Background()
	provider := NewLocalProvider(NewTokenSigner(testTokenConfig), bcrypt.MinCost)

	account, err := provider.CreateAccount(ctx, domain.NewAccount{
		Email:       "alice@example.com",
		Password:    "password123",
		DisplayName: "Alice",
	})

	Expect(err).ToNot(HaveOccurred())
	Expect(account.UID).ToNot(BeEmpty())

	_, err = provider.CreateAccount(ctx, domain.NewAccount{Email: "alice@example.com", Password: "password123"})
	Expect(domain.IsKind(err, domain.KindConflict)).To(BeTrue())

	err = provider.UpdateAccount(ctx, account.UID, domain.AccountChanges{DisplayName: domain.Some("Alice B")})
	Expect(err).ToNot(HaveOccurred())

	stored, ok := provider.GetAccount(account.UID)
	Expect(ok).To(BeTrue())
	Expect(stored.DisplayName).To(Equal("Alice B"))

	Expect(provider.DeleteAccount(ctx, account.UID)).To(Succeed())

	_, ok = provider.GetAccount(account.UID)
	Expect(ok).To(BeFalse())
	Expect(domain.IsNotFound(provider.DeleteAccount(ctx, account.UID))).To(BeTrue())
}

func TestLocalProvider_SignIn(t *testing.T) {
	RegisterTestingT(t)

	ctx := context.Background()
	provider := NewLocalProvider(NewTokenSigner(testTokenConfig), bcrypt.MinCost)

	account, err := provider.CreateAccount(ctx, domain.NewAccount{Email: "bob@example.com", Password: "password123"})
	Expect(err).ToNot(HaveOccurred())

	token, err := provider.SignIn(ctx, "bob@example.com", "password123")
	Expect(err).ToNot(HaveOccurred())

	identity, err := NewTokenVerifier(testTokenConfig).Verify(ctx, token)
	Expect(err).ToNot(HaveOccurred())
	Expect(identity.Subject).To(Equal(account.UID))

	_, err = provider.SignIn(ctx, "bob@example.com", "wrong-password")
	Expect(domain.AsError(err).Code).To(Equal(domain.CodeInvalidCredentials))

	_, err = provider.SignIn(ctx, "nobody@example.com", "password123")
	Expect(domain.AsError(err).Code).To(Equal(domain.CodeInvalidCredentials))
}
