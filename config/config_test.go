package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/docker/libtrust"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/distribution-auth/ruleauth/auth"
	"github.com/distribution-auth/ruleauth/auth/authz"
	"github.com/distribution-auth/ruleauth/pkg/orany"
)

const configTemplate = `
authenticator:
  type: user
  config:
    entries:
      - enabled: true
        username: user
        passwordHash: %q
        attributes:
          type: robot

authorizer:
  type: rules
  config:
    allowAnonymous: true
    rules:
      - type: repository
        name: library/alpine
        actions: [pull]
      - subject: user
        type: repository
        name: "*"
        actions: ["*"]

accessTokenIssuer:
  type: jwt
  config:
    issuer: issuer.example.com
    privateKeyFile: %q
    expiration: 15m

refreshTokenIssuer:
  type: jwt
  config:
    issuer: issuer.example.com
    privateKeyFile: %q
`

func writeConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()

	signingKey, err := libtrust.GenerateECP256PrivateKey()
	require.NoError(t, err)

	keyFile := filepath.Join(dir, "private.pem")

	err = libtrust.SaveKey(keyFile, signingKey)
	require.NoError(t, err)

	passwordHash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)

	configFile := filepath.Join(dir, "config.yaml")

	err = os.WriteFile(configFile, []byte(fmt.Sprintf(configTemplate, string(passwordHash), keyFile, keyFile)), 0o600)
	require.NoError(t, err)

	return configFile
}

func TestLoad(t *testing.T) {
	config, err := Load(writeConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "user", config.Authenticator.Type)
	assert.Equal(t, "rules", config.Authorizer.Type)
	assert.Equal(t, "jwt", config.AccessTokenIssuer.Type)
	assert.Equal(t, "jwt", config.RefreshTokenIssuer.Type)

	rules, ok := config.Authorizer.Rules()
	require.True(t, ok)

	expected := authz.Rules{
		{
			Type:    orany.Some("repository"),
			Name:    orany.Some("library/alpine"),
			Actions: []orany.OrAny[string]{orany.Some("pull")},
		},
		{
			Subject: orany.Some("user"),
			Type:    orany.Some("repository"),
			Actions: []orany.OrAny[string]{orany.Any[string]()},
		},
	}

	assert.Equal(t, expected, rules)
	assert.Equal(t, []authz.Overlap{{First: 0, Second: 1}}, rules.Overlapping())
}

func TestConfig_CreateTokenService(t *testing.T) {
	config, err := Load(writeConfig(t))
	require.NoError(t, err)

	service, err := config.CreateTokenService(zaptest.NewLogger(t), prometheus.NewRegistry())
	require.NoError(t, err)

	scopes := auth.Scopes{
		{
			Resource: auth.Resource{Type: "repository", Name: "user/app"},
			Actions:  []string{"pull", "push"},
		},
	}

	response, err := service.OAuth2Handler(context.Background(), auth.OAuth2Request{
		GrantType:  "password",
		Service:    "registry.example.com",
		ClientID:   "docker",
		AccessType: "offline",
		Scopes:     scopes,
		Username:   "user",
		Password:   "password",
	})
	require.NoError(t, err)

	assert.Equal(t, "repository:user/app:pull,push", response.Scope)
	assert.NotEmpty(t, response.AccessToken)
	require.NotEmpty(t, response.RefreshToken)

	response, err = service.OAuth2Handler(context.Background(), auth.OAuth2Request{
		GrantType:    "refresh_token",
		Service:      "registry.example.com",
		ClientID:     "docker",
		Scopes:       scopes,
		RefreshToken: response.RefreshToken,
	})
	require.NoError(t, err)

	assert.Equal(t, "repository:user/app:pull,push", response.Scope)
}

func TestParse_Error(t *testing.T) {
	testCases := []struct {
		name     string
		document string
	}{
		{
			name:     "missing authenticator",
			document: `authorizer: {type: default}`,
		},
		{
			name:     "unknown authenticator",
			document: `authenticator: {type: ldap}`,
		},
		{
			name:     "unknown authenticator option",
			document: `authenticator: {type: user, config: {unknown: true}}`,
		},
		{
			name: "missing username",
			document: `
authenticator: {type: user, config: {entries: [{passwordHash: hash}]}}
authorizer: {type: default}
accessTokenIssuer: {type: jwt, config: {issuer: issuer, privateKeyFile: key.pem, expiration: 5m}}
`,
		},
		{
			name: "rule without actions",
			document: `
authenticator: {type: static, config: {users: {user: hash}}}
authorizer: {type: rules, config: {rules: [{name: "*"}]}}
accessTokenIssuer: {type: jwt, config: {issuer: issuer, privateKeyFile: key.pem, expiration: 5m}}
`,
		},
		{
			name: "rule with empty name",
			document: `
authenticator: {type: static, config: {users: {user: hash}}}
authorizer: {type: rules, config: {rules: [{name: "", actions: [pull]}]}}
accessTokenIssuer: {type: jwt, config: {issuer: issuer, privateKeyFile: key.pem, expiration: 5m}}
`,
		},
		{
			name: "missing access token issuer",
			document: `
authenticator: {type: static, config: {users: {user: hash}}}
authorizer: {type: default}
`,
		},
		{
			name: "missing expiration",
			document: `
authenticator: {type: static, config: {users: {user: hash}}}
authorizer: {type: default}
accessTokenIssuer: {type: jwt, config: {issuer: issuer, privateKeyFile: key.pem}}
`,
		},
		{
			name: "unknown refresh token issuer",
			document: `
authenticator: {type: static, config: {users: {user: hash}}}
authorizer: {type: default}
accessTokenIssuer: {type: jwt, config: {issuer: issuer, privateKeyFile: key.pem, expiration: 5m}}
refreshTokenIssuer: {type: database}
`,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase

		t.Run(testCase.name, func(t *testing.T) {
			_, err := Parse([]byte(testCase.document))
			require.Error(t, err)
		})
	}
}

func TestParse_Minimal(t *testing.T) {
	const document = `
authenticator: {type: static, config: {users: {user: hash}}}
authorizer: {type: default, config: {allowAnonymous: true}}
accessTokenIssuer: {type: jwt, config: {issuer: issuer, privateKeyFile: key.pem, expiration: 5m}}
refreshTokenIssuer: {type: memory}
`

	config, err := Parse([]byte(document))
	require.NoError(t, err)

	_, ok := config.Authorizer.Rules()
	assert.False(t, ok)

	assert.Equal(t, defaultAuthorizer{AllowAnonymous: true}, config.Authorizer.Config)
	assert.Equal(t, &staticAuthenticator{Users: map[string]string{"user": "hash"}}, config.Authenticator.Config)
}

func TestRegisterPasswordAuthenticatorFactory(t *testing.T) {
	assert.Panics(t, func() {
		RegisterPasswordAuthenticatorFactory("user", &userAuthenticator{})
	})

	assert.Panics(t, func() {
		RegisterPasswordAuthenticatorFactory("nil", nil)
	})
}
