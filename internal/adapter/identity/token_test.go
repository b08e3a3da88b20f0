package identity

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"todoapi/internal/core/domain"
)

var testTokenConfig = TokenConfig{
	Secret:   "test-secret-with-enough-entropy-123",
	Issuer:   "todoapi",
	Audience: "todoapi-clients",
	TTL:      time.Hour,
}

func TestTokenVerifier_RoundTrip(t *testing.T) {
	RegisterTestingT(t)

	token, err := NewTokenSigner(testTokenConfig).Sign(domain.Identity{
		Subject:       "uid-1",
		Email:         "alice@example.com",
		EmailVerified: true,
	})
	Expect(err).ToNot(HaveOccurred())

	identity, err := NewTokenVerifier(testTokenConfig).Verify(context.Background(), token)

	Expect(err).ToNot(HaveOccurred())
	Expect(identity.Subject).To(Equal("uid-1"))
	Expect(identity.Email).To(Equal("alice@example.com"))
	Expect(identity.EmailVerified).To(BeTrue())
}

func TestTokenVerifier_Rejects(t *testing.T) {
	RegisterTestingT(t)

	verifier := NewTokenVerifier(testTokenConfig)
	identity := domain.Identity{Subject: "uid-1", Email: "alice@example.com"}

	_, err := verifier.Verify(context.Background(), "")
	Expect(domain.AsError(err).Code).To(Equal(domain.CodeTokenMissing))

	_, err = verifier.Verify(context.Background(), "not-a-jwt")
	Expect(domain.AsError(err).Code).To(Equal(domain.CodeTokenInvalid))

	expiredConfig := testTokenConfig
	expiredConfig.TTL = -time.Minute
	expired, _ := NewTokenSigner(expiredConfig).Sign(identity)

	_, err = verifier.Verify(context.Background(), expired)
	Expect(domain.AsError(err).Code).To(Equal(domain.CodeTokenExpired))
	Expect(domain.AsError(err).StatusCode()).To(Equal(401))

	otherSecret := testTokenConfig
	otherSecret.Secret = "another-secret-with-enough-entropy"
	forged, _ := NewTokenSigner(otherSecret).Sign(identity)

	_, err = verifier.Verify(context.Background(), forged)
	Expect(domain.AsError(err).Code).To(Equal(domain.CodeTokenInvalid))

	otherAudience := testTokenConfig
	otherAudience.Audience = "someone-else"
	misdirected, _ := NewTokenSigner(otherAudience).Sign(identity)

	_, err = verifier.Verify(context.Background(), misdirected)
	Expect(domain.AsError(err).Code).To(Equal(domain.CodeTokenInvalid))
}
