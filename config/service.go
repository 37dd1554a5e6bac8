package config

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/distribution-auth/ruleauth/auth"
	"github.com/distribution-auth/ruleauth/auth/authz"
)

// CreateAuthorizer creates the configured auth.Authorizer.
// Authorization decisions are recorded in reg when it is not nil.
func (c Config) CreateAuthorizer(reg prometheus.Registerer) (auth.Authorizer, error) {
	authorizer, err := c.Authorizer.Config.CreateAuthorizer()
	if err != nil {
		return nil, err
	}

	if reg != nil {
		authorizer = authz.NewInstrumentedAuthorizer(authorizer, reg)
	}

	return authorizer, nil
}

// CreateTokenService wires every configured component into an auth.TokenServiceImpl.
func (c Config) CreateTokenService(logger *zap.Logger, reg prometheus.Registerer) (auth.TokenServiceImpl, error) {
	passwordAuthenticator, err := c.Authenticator.Config.CreatePasswordAuthenticator()
	if err != nil {
		return auth.TokenServiceImpl{}, err
	}

	authorizer, err := c.CreateAuthorizer(reg)
	if err != nil {
		return auth.TokenServiceImpl{}, err
	}

	accessTokenIssuer, err := c.AccessTokenIssuer.Config.CreateAccessTokenIssuer()
	if err != nil {
		return auth.TokenServiceImpl{}, err
	}

	service := auth.TokenServiceImpl{
		Authenticator: auth.Authenticator{
			PasswordAuthenticator: passwordAuthenticator,
		},
		Authorizer: authorizer,
		TokenIssuer: auth.TokenIssuer{
			AccessTokenIssuer: accessTokenIssuer,
		},
		Logger: logger,
	}

	if c.RefreshTokenIssuer.Type != "" {
		refreshTokenIssuer, refreshTokenAuthenticator, err := c.RefreshTokenIssuer.Config.CreateRefreshTokenIssuer()
		if err != nil {
			return auth.TokenServiceImpl{}, err
		}

		service.TokenIssuer.RefreshTokenIssuer = refreshTokenIssuer
		service.Authenticator.RefreshTokenAuthenticator = refreshTokenAuthenticator
	}

	return service, nil
}
