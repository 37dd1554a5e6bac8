package jwt

import (
	"context"
	"time"

	"github.com/docker/libtrust"
	"github.com/golang-jwt/jwt/v4"
	"github.com/jonboulle/clockwork"

	"github.com/distribution-auth/ruleauth/auth"
)

// DefaultExpiration is used when an AccessTokenIssuer is created without an expiration.
const DefaultExpiration = 5 * time.Minute

type accessClaims struct {
	jwt.RegisteredClaims

	Access []auth.Scope `json:"access"`
}

// AccessTokenIssuer issues tokens according to the [Token Authentication Specification] and [Token Authentication Implementation].
//
// [Token Authentication Specification]: https://github.com/distribution/distribution/blob/main/docs/spec/auth/token.md
// [Token Authentication Implementation]: https://github.com/distribution/distribution/blob/main/docs/spec/auth/jwt.md
type AccessTokenIssuer struct {
	issuer     string
	signingKey libtrust.PrivateKey
	expiration time.Duration

	clock       Clock
	idGenerator IDGenerator
}

// NewAccessTokenIssuer returns a new AccessTokenIssuer.
func NewAccessTokenIssuer(issuer string, signingKey libtrust.PrivateKey, expiration time.Duration, opts ...AccessTokenIssuerOption) AccessTokenIssuer {
	i := AccessTokenIssuer{
		issuer:     issuer,
		signingKey: signingKey,
		expiration: expiration,
	}

	for _, opt := range opts {
		opt.applyAccessTokenIssuer(&i)
	}

	if i.expiration == 0 {
		i.expiration = DefaultExpiration
	}

	if i.clock == nil {
		i.clock = clockwork.NewRealClock()
	}

	if i.idGenerator == nil {
		i.idGenerator = uuidGenerator{}
	}

	return i
}

// IssueAccessToken implements auth.AccessTokenIssuer.
//
// Anonymous (nil) subjects receive a token with an empty "sub" claim.
func (i AccessTokenIssuer) IssueAccessToken(_ context.Context, service string, subject auth.Subject, grantedScopes []auth.Scope) (auth.AccessToken, error) {
	alg, err := detectSigningMethod(i.signingKey)
	if err != nil {
		return auth.AccessToken{}, err
	}

	id, err := i.idGenerator.GenerateID()
	if err != nil {
		return auth.AccessToken{}, err
	}

	now := i.clock.Now()

	var sub string
	if subject != nil {
		sub = subject.ID()
	}

	if grantedScopes == nil {
		grantedScopes = []auth.Scope{}
	}

	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   sub,
			Audience:  []string{service},
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiration)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        id,
		},
		Access: grantedScopes,
	}

	signedToken, err := sign(jwt.NewWithClaims(alg, claims), i.signingKey)
	if err != nil {
		return auth.AccessToken{}, err
	}

	return auth.AccessToken{
		Payload:   signedToken,
		ExpiresIn: i.expiration,
		IssuedAt:  now,
	}, nil
}
