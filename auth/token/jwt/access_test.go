package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/docker/libtrust"
	"github.com/golang-jwt/jwt/v4"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distribution-auth/ruleauth/auth"
	"github.com/distribution-auth/ruleauth/auth/authn"
)

type idGeneratorStub struct {
	id string
}

func (g idGeneratorStub) GenerateID() (string, error) {
	return g.id, nil
}

func parseToken(t *testing.T, signingKey libtrust.PrivateKey, payload string, claims jwt.Claims) *jwt.Token {
	t.Helper()

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())

	token, err := parser.ParseWithClaims(payload, claims, func(_ *jwt.Token) (interface{}, error) {
		return signingKey.PublicKey().CryptoPublicKey(), nil
	})
	require.NoError(t, err)

	return token
}

func TestAccessTokenIssuer_IssueAccessToken(t *testing.T) {
	signingKey, err := libtrust.GenerateECP256PrivateKey()
	require.NoError(t, err)

	const (
		id         = "vb86v87g87g87g87bb897vcw2367fv723vc8236"
		issuer     = "issuer.example.com"
		service    = "service.example.com"
		expiration = 15 * time.Minute
	)

	now := time.Unix(1257894000, 0)
	clock := clockwork.NewFakeClockAt(now)

	tokenIssuer := NewAccessTokenIssuer(issuer, signingKey, expiration, WithClock(clock), WithIDGenerator(idGeneratorStub{id}))

	scopes := []auth.Scope{
		{
			Resource: auth.Resource{
				Type: "repository",
				Name: "path/to/repo",
			},
			Actions: []string{"pull", "push"},
		},
	}

	token, err := tokenIssuer.IssueAccessToken(context.Background(), service, authn.NewSubject("id", nil), scopes)
	require.NoError(t, err)

	assert.Equal(t, expiration, token.ExpiresIn)
	assert.Equal(t, now, token.IssuedAt)

	var claims accessClaims

	parsedToken := parseToken(t, signingKey, token.Payload, &claims)

	assert.Equal(t, "ES256", parsedToken.Method.Alg())
	assert.Equal(t, signingKey.KeyID(), parsedToken.Header["kid"])
	assert.Contains(t, parsedToken.Header, "jwk")

	assert.Equal(t, issuer, claims.Issuer)
	assert.Equal(t, "id", claims.Subject)
	assert.Equal(t, jwt.ClaimStrings{service}, claims.Audience)
	assert.Equal(t, id, claims.ID)
	assert.Equal(t, now.Add(expiration).Unix(), claims.ExpiresAt.Unix())
	assert.Equal(t, now.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, now.Unix(), claims.NotBefore.Unix())
	assert.Equal(t, scopes, claims.Access)
}

func TestAccessTokenIssuer_Anonymous(t *testing.T) {
	signingKey, err := libtrust.GenerateECP256PrivateKey()
	require.NoError(t, err)

	tokenIssuer := NewAccessTokenIssuer("issuer", signingKey, 0)

	token, err := tokenIssuer.IssueAccessToken(context.Background(), "service", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultExpiration, token.ExpiresIn)

	var claims accessClaims

	parseToken(t, signingKey, token.Payload, &claims)

	assert.Empty(t, claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, []auth.Scope{}, claims.Access)
}

func TestAccessTokenIssuer_RSA(t *testing.T) {
	signingKey, err := libtrust.GenerateRSA2048PrivateKey()
	require.NoError(t, err)

	tokenIssuer := NewAccessTokenIssuer("issuer", signingKey, time.Minute)

	token, err := tokenIssuer.IssueAccessToken(context.Background(), "service", nil, nil)
	require.NoError(t, err)

	var claims accessClaims

	parsedToken := parseToken(t, signingKey, token.Payload, &claims)

	assert.Equal(t, "RS256", parsedToken.Method.Alg())
}
