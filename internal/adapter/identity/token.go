package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"todoapi/internal/core/domain"
)

type Claims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

type TokenConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// TokenVerifier checks HS256 bearer credentials issued for this API.
type TokenVerifier struct {
	config TokenConfig
}

func NewTokenVerifier(config TokenConfig) *TokenVerifier {
	return &TokenVerifier{config: config}
}

func (v *TokenVerifier) Verify(ctx context.Context, token string) (*domain.Identity, error) {
	token = strings.TrimSpace(token)

	if token == "" {
		return nil, domain.NewAuthenticationError(domain.CodeTokenMissing, "Authentication token is required")
	}

	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) {
			return []byte(v.config.Secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.config.Issuer),
		jwt.WithAudience(v.config.Audience),
		jwt.WithExpirationRequired(),
	)

	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, domain.NewAuthenticationError(domain.CodeTokenExpired, "Authentication token has expired")
	}

	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, domain.NewAuthenticationError(domain.CodeTokenInvalid, "Invalid authentication token")
	}

	return &domain.Identity{
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
	}, nil
}

// TokenSigner issues credentials the TokenVerifier accepts.
type TokenSigner struct {
	config TokenConfig
	now    func() time.Time
}

func NewTokenSigner(config TokenConfig) *TokenSigner {
	if config.TTL == 0 {
		config.TTL = time.Hour
	}

	return &TokenSigner{config: config, now: time.Now}
}

func (s *TokenSigner) Sign(identity domain.Identity) (string, error) {
	now := s.now()

	claims := Claims{
		Email:         identity.Email,
		EmailVerified: identity.EmailVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Subject,
			Issuer:    s.config.Issuer,
			Audience:  jwt.ClaimStrings{s.config.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
}
