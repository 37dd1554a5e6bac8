package auth

import (
	"context"
)

// RefreshTokenIssuer issues a token that a client can use to issue a new token for a subject without presenting credentials again.
type RefreshTokenIssuer interface {
	IssueRefreshToken(ctx context.Context, service string, subject Subject) (string, error)
}

// RefreshTokenAuthenticator authenticates a refresh token.
//
// It returns an ErrAuthenticationFailed error in case the refresh token is invalid.
type RefreshTokenAuthenticator interface {
	AuthenticateRefreshToken(ctx context.Context, service string, refreshToken string) (Subject, error)
}
