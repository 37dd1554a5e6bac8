// Package refreshtoken issues opaque refresh tokens backed by a repository.
package refreshtoken

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"sync"

	"github.com/distribution-auth/ruleauth/auth"
)

// ErrNotFound is returned by a RefreshTokenRepository when a refresh token does not exist.
var ErrNotFound = errors.New("refresh token not found")

// Entry is stored for every issued refresh token.
type Entry struct {
	Service string
	Subject auth.Subject
}

// RefreshTokenRepository stores issued refresh tokens.
type RefreshTokenRepository interface {
	Find(ctx context.Context, refreshToken string) (Entry, error)
	Save(ctx context.Context, refreshToken string, entry Entry) error
}

// DefaultRefreshTokenIssuer is a naive random string generator.
type DefaultRefreshTokenIssuer struct {
	repository RefreshTokenRepository
}

// NewDefaultRefreshTokenIssuer returns a new DefaultRefreshTokenIssuer.
func NewDefaultRefreshTokenIssuer(repository RefreshTokenRepository) DefaultRefreshTokenIssuer {
	return DefaultRefreshTokenIssuer{
		repository: repository,
	}
}

// IssueRefreshToken implements auth.RefreshTokenIssuer.
func (i DefaultRefreshTokenIssuer) IssueRefreshToken(ctx context.Context, service string, subject auth.Subject) (string, error) {
	token, err := newRefreshToken()
	if err != nil {
		return "", err
	}

	err = i.repository.Save(ctx, token, Entry{Service: service, Subject: subject})
	if err != nil {
		return "", err
	}

	return token, nil
}

// DefaultRefreshTokenAuthenticator authenticates refresh tokens issued by DefaultRefreshTokenIssuer.
type DefaultRefreshTokenAuthenticator struct {
	repository RefreshTokenRepository
}

// NewDefaultRefreshTokenAuthenticator returns a new DefaultRefreshTokenAuthenticator.
func NewDefaultRefreshTokenAuthenticator(repository RefreshTokenRepository) DefaultRefreshTokenAuthenticator {
	return DefaultRefreshTokenAuthenticator{
		repository: repository,
	}
}

// AuthenticateRefreshToken implements auth.RefreshTokenAuthenticator.
//
// Refresh tokens are only valid for the service they were issued for.
func (a DefaultRefreshTokenAuthenticator) AuthenticateRefreshToken(ctx context.Context, service string, refreshToken string) (auth.Subject, error) {
	entry, err := a.repository.Find(ctx, refreshToken)
	if errors.Is(err, ErrNotFound) {
		return nil, auth.ErrAuthenticationFailed
	} else if err != nil {
		return nil, err
	}

	if entry.Service != service {
		return nil, auth.ErrAuthenticationFailed
	}

	return entry.Subject, nil
}

// randReader is the entropy source of refresh tokens.
var randReader io.Reader = rand.Reader

var refreshCharacters = []rune("0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

const refreshTokenLength = 15

func newRefreshToken() (string, error) {
	s := make([]rune, refreshTokenLength)
	n := big.NewInt(int64(len(refreshCharacters)))

	for i := range s {
		r, err := rand.Int(randReader, n)
		if err != nil {
			return "", fmt.Errorf("generating refresh token: %w", err)
		}

		s[i] = refreshCharacters[r.Int64()]
	}

	return string(s), nil
}

// InMemoryRefreshTokenRepository keeps refresh tokens in memory.
//
// The zero value is ready to use.
type InMemoryRefreshTokenRepository struct {
	entries map[string]Entry

	initOnce sync.Once
	mu       sync.RWMutex
}

func (r *InMemoryRefreshTokenRepository) init() {
	r.initOnce.Do(func() {
		if r.entries == nil {
			r.entries = make(map[string]Entry)
		}
	})
}

// Find implements RefreshTokenRepository.
func (r *InMemoryRefreshTokenRepository) Find(_ context.Context, refreshToken string) (Entry, error) {
	r.init()
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[refreshToken]
	if !ok {
		return Entry{}, ErrNotFound
	}

	return entry, nil
}

// Save implements RefreshTokenRepository.
func (r *InMemoryRefreshTokenRepository) Save(_ context.Context, refreshToken string, entry Entry) error {
	r.init()
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[refreshToken] = entry

	return nil
}
