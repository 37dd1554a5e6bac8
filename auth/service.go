package auth

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// TokenService issues tokens for authenticated (or anonymous) clients.
type TokenService interface {
	// TokenHandler implements the [Docker Registry v2 authentication] specification.
	//
	// [Docker Registry v2 authentication]: https://github.com/distribution/distribution/blob/main/docs/spec/auth/token.md
	TokenHandler(ctx context.Context, r TokenRequest) (TokenResponse, error)

	// OAuth2Handler implements the [Docker Registry v2 OAuth2 authentication] specification.
	//
	// [Docker Registry v2 OAuth2 authentication]: https://github.com/distribution/distribution/blob/main/docs/spec/auth/oauth.md
	OAuth2Handler(ctx context.Context, r OAuth2Request) (OAuth2Response, error)
}

type TokenRequest struct {
	Service  string
	ClientID string
	Offline  bool
	Scopes   Scopes

	Anonymous bool
	Username  string
	Password  string
}

type TokenResponse struct {
	Token        string `json:"token"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	IssuedAt     string `json:"issued_at,omitempty"`
}

type OAuth2Request struct {
	GrantType string

	Service    string
	ClientID   string
	AccessType string
	Scopes     Scopes

	Username     string
	Password     string
	RefreshToken string
}

type OAuth2Response struct {
	AccessToken  string `json:"access_token"`
	Scope        string `json:"scope,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	IssuedAt     string `json:"issued_at,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Authenticator is a facade combining different type of authenticators.
type Authenticator struct {
	PasswordAuthenticator
	RefreshTokenAuthenticator
}

// TokenIssuer is a facade combining different type of token issuers.
type TokenIssuer struct {
	AccessTokenIssuer
	RefreshTokenIssuer
}

// TokenServiceImpl implements the [Docker Registry v2 authentication] specification.
//
// Refresh tokens are only issued and accepted when both RefreshTokenIssuer and RefreshTokenAuthenticator are set.
//
// [Docker Registry v2 authentication]: https://github.com/distribution/distribution/blob/main/docs/spec/auth/index.md
type TokenServiceImpl struct {
	Authenticator Authenticator
	Authorizer    Authorizer
	TokenIssuer   TokenIssuer

	Logger *zap.Logger
}

func (s TokenServiceImpl) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}

	return s.Logger
}

func (s TokenServiceImpl) refreshTokensEnabled() bool {
	return s.TokenIssuer.RefreshTokenIssuer != nil && s.Authenticator.RefreshTokenAuthenticator != nil
}

// TokenHandler implements the [Docker Registry v2 authentication] specification.
//
// [Docker Registry v2 authentication]: https://github.com/distribution/distribution/blob/main/docs/spec/auth/token.md
func (s TokenServiceImpl) TokenHandler(ctx context.Context, r TokenRequest) (TokenResponse, error) {
	if r.Service == "" {
		return TokenResponse{}, InvalidRequestError{Description: "missing service value"}
	}

	logger := s.logger().With(zap.String("service", r.Service), zap.String("client_id", r.ClientID))

	var subject Subject

	if !r.Anonymous {
		var err error

		subject, err = s.Authenticator.Authenticate(ctx, r.Username, r.Password)
		if err != nil {
			logger.Debug("authentication failed", zap.String("username", r.Username), zap.Error(err))

			return TokenResponse{}, err
		}
	}

	grantedScopes, err := s.Authorizer.Authorize(ctx, subject, r.Scopes)
	if err != nil {
		return TokenResponse{}, err
	}

	token, err := s.TokenIssuer.IssueAccessToken(ctx, r.Service, subject, grantedScopes)
	if err != nil {
		return TokenResponse{}, err
	}

	logger.Debug(
		"client authorized",
		zap.Bool("anonymous", subject == nil),
		zap.Stringer("requested", r.Scopes),
		zap.Stringer("granted", Scopes(grantedScopes)),
	)

	response := TokenResponse{
		Token:       token.Payload,
		AccessToken: token.Payload,
		ExpiresIn:   int(token.ExpiresIn.Seconds()),
		IssuedAt:    token.IssuedAt.Format(time.RFC3339),
	}

	if r.Offline && subject != nil && s.refreshTokensEnabled() {
		refreshToken, err := s.TokenIssuer.IssueRefreshToken(ctx, r.Service, subject)
		if err != nil {
			return TokenResponse{}, err
		}

		response.RefreshToken = refreshToken
	}

	return response, nil
}

// OAuth2Handler implements the [Docker Registry v2 OAuth2 authentication] specification.
//
// [Docker Registry v2 OAuth2 authentication]: https://github.com/distribution/distribution/blob/main/docs/spec/auth/oauth.md
func (s TokenServiceImpl) OAuth2Handler(ctx context.Context, r OAuth2Request) (OAuth2Response, error) {
	if r.GrantType == "" {
		return OAuth2Response{}, InvalidRequestError{Description: "missing grant_type value"}
	}

	if r.Service == "" {
		return OAuth2Response{}, InvalidRequestError{Description: "missing service value"}
	}

	if r.ClientID == "" {
		return OAuth2Response{}, InvalidRequestError{Description: "missing client_id value"}
	}

	if r.AccessType != "" && r.AccessType != "online" && r.AccessType != "offline" {
		return OAuth2Response{}, InvalidRequestError{Description: "unknown access_type value"}
	}

	logger := s.logger().With(
		zap.String("service", r.Service),
		zap.String("client_id", r.ClientID),
		zap.String("grant_type", r.GrantType),
	)

	var subject Subject
	var refreshToken string

	switch r.GrantType {
	case "refresh_token":
		refreshToken = r.RefreshToken
		if refreshToken == "" {
			return OAuth2Response{}, InvalidRequestError{Description: "missing refresh_token value"}
		}

		if !s.refreshTokensEnabled() {
			return OAuth2Response{}, UnsupportedGrantTypeError{GrantType: r.GrantType}
		}

		var err error

		subject, err = s.Authenticator.AuthenticateRefreshToken(ctx, r.Service, refreshToken)
		if err != nil {
			logger.Debug("refresh token authentication failed", zap.Error(err))

			return OAuth2Response{}, err
		}

	case "password":
		if r.Username == "" {
			return OAuth2Response{}, InvalidRequestError{Description: "missing username value"}
		}

		if r.Password == "" {
			return OAuth2Response{}, InvalidRequestError{Description: "missing password value"}
		}

		var err error

		subject, err = s.Authenticator.Authenticate(ctx, r.Username, r.Password)
		if err != nil {
			logger.Debug("authentication failed", zap.String("username", r.Username), zap.Error(err))

			return OAuth2Response{}, err
		}

	default:
		return OAuth2Response{}, UnsupportedGrantTypeError{GrantType: r.GrantType}
	}

	grantedScopes, err := s.Authorizer.Authorize(ctx, subject, r.Scopes)
	if err != nil {
		return OAuth2Response{}, err
	}

	token, err := s.TokenIssuer.IssueAccessToken(ctx, r.Service, subject, grantedScopes)
	if err != nil {
		return OAuth2Response{}, err
	}

	logger.Debug(
		"client authorized",
		zap.Stringer("requested", r.Scopes),
		zap.Stringer("granted", Scopes(grantedScopes)),
	)

	response := OAuth2Response{
		AccessToken: token.Payload,
		ExpiresIn:   int(token.ExpiresIn.Seconds()),
		IssuedAt:    token.IssuedAt.Format(time.RFC3339),
		Scope:       Scopes(grantedScopes).String(),
	}

	// A new refresh token is only issued for password grants, refresh grants return the original one.
	if r.AccessType == "offline" && r.GrantType == "password" && s.refreshTokensEnabled() {
		refreshToken, err = s.TokenIssuer.IssueRefreshToken(ctx, r.Service, subject)
		if err != nil {
			return OAuth2Response{}, err
		}
	}

	if refreshToken != "" {
		response.RefreshToken = refreshToken
	}

	return response, nil
}
