package jwt

import (
	"context"
	"errors"

	"github.com/docker/libtrust"
	"github.com/golang-jwt/jwt/v4"
	"github.com/jonboulle/clockwork"

	"github.com/distribution-auth/ruleauth/auth"
	"github.com/distribution-auth/ruleauth/auth/authn"
)

type refreshClaims struct {
	jwt.RegisteredClaims

	Attributes map[string]string `json:"attributes,omitempty"`
}

// RefreshTokenIssuer issues self-contained refresh tokens and authenticates them.
type RefreshTokenIssuer struct {
	issuer     string
	signingKey libtrust.PrivateKey

	clock       Clock
	idGenerator IDGenerator
}

// NewRefreshTokenIssuer returns a new RefreshTokenIssuer.
func NewRefreshTokenIssuer(issuer string, signingKey libtrust.PrivateKey, opts ...RefreshTokenIssuerOption) RefreshTokenIssuer {
	i := RefreshTokenIssuer{
		issuer:     issuer,
		signingKey: signingKey,
	}

	for _, opt := range opts {
		opt.applyRefreshTokenIssuer(&i)
	}

	if i.clock == nil {
		i.clock = clockwork.NewRealClock()
	}

	if i.idGenerator == nil {
		i.idGenerator = uuidGenerator{}
	}

	return i
}

// IssueRefreshToken implements auth.RefreshTokenIssuer.
func (i RefreshTokenIssuer) IssueRefreshToken(_ context.Context, service string, subject auth.Subject) (string, error) {
	if subject == nil {
		return "", errors.New("refresh token: cannot issue a refresh token for an anonymous subject")
	}

	alg, err := detectSigningMethod(i.signingKey)
	if err != nil {
		return "", err
	}

	id, err := i.idGenerator.GenerateID()
	if err != nil {
		return "", err
	}

	now := i.clock.Now()

	claims := refreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   subject.ID(),
			Audience:  []string{service},
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        id,
		},
		Attributes: subject.Attributes(),
	}

	return sign(jwt.NewWithClaims(alg, claims), i.signingKey)
}

// AuthenticateRefreshToken implements auth.RefreshTokenAuthenticator.
//
// The token must be signed by the issuer's key and issued for service.
func (i RefreshTokenIssuer) AuthenticateRefreshToken(_ context.Context, service string, refreshToken string) (auth.Subject, error) {
	alg, err := detectSigningMethod(i.signingKey)
	if err != nil {
		return nil, err
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{alg.Alg()}), jwt.WithoutClaimsValidation())

	var claims refreshClaims

	_, err = parser.ParseWithClaims(refreshToken, &claims, func(_ *jwt.Token) (interface{}, error) {
		return i.signingKey.PublicKey().CryptoPublicKey(), nil
	})
	if err != nil {
		return nil, auth.ErrAuthenticationFailed
	}

	if !claims.VerifyIssuer(i.issuer, true) ||
		!claims.VerifyAudience(service, true) ||
		!claims.VerifyNotBefore(i.clock.Now(), true) ||
		claims.Subject == "" {
		return nil, auth.ErrAuthenticationFailed
	}

	return authn.NewSubject(claims.Subject, claims.Attributes), nil
}
