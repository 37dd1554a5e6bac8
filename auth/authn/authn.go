package authn

import (
	"context"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/maps"

	"github.com/distribution-auth/ruleauth/auth"
)

type subject struct {
	id         string
	attributes map[string]string
}

func (s subject) ID() string {
	return s.id
}

func (s subject) Attribute(key string) (string, bool) {
	if s.attributes == nil {
		return "", false
	}

	v, ok := s.attributes[key]

	return v, ok
}

func (s subject) Attributes() map[string]string {
	return maps.Clone(s.attributes)
}

// NewSubject returns an auth.Subject with the given ID and attributes.
func NewSubject(id string, attributes map[string]string) auth.Subject {
	return subject{
		id:         id,
		attributes: maps.Clone(attributes),
	}
}

// StaticPasswordAuthenticator authenticates a subject from a static list of users.
type StaticPasswordAuthenticator struct {
	users map[string]string
}

// NewStaticPasswordAuthenticator returns a new StaticPasswordAuthenticator.
func NewStaticPasswordAuthenticator(users map[string]string) StaticPasswordAuthenticator {
	return StaticPasswordAuthenticator{
		users: maps.Clone(users),
	}
}

// Authenticate implements the PasswordAuthenticator interface.
func (a StaticPasswordAuthenticator) Authenticate(_ context.Context, username string, password string) (auth.Subject, error) {
	passwordHash, ok := a.users[username]
	if !ok {
		// timing attack paranoia
		_ = bcrypt.CompareHashAndPassword([]byte{}, []byte(password))

		return nil, auth.ErrAuthenticationFailed
	}

	err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password))
	if err != nil {
		return nil, auth.ErrAuthenticationFailed
	}

	return subject{
		id: username,
	}, nil
}

// User is an entry of UserAuthenticator.
type User struct {
	Enabled      bool
	Username     string
	PasswordHash string
	Attrs        map[string]string
}

// UserAuthenticator authenticates a subject from a list of users with attributes.
// Disabled users always fail authentication.
type UserAuthenticator struct {
	entries map[string]User
}

// NewUserAuthenticator returns a new UserAuthenticator.
// Later entries override earlier ones with the same username.
func NewUserAuthenticator(entries []User) UserAuthenticator {
	a := UserAuthenticator{
		entries: make(map[string]User, len(entries)),
	}

	for _, entry := range entries {
		entry.Attrs = maps.Clone(entry.Attrs)
		a.entries[entry.Username] = entry
	}

	return a
}

// Authenticate implements the PasswordAuthenticator interface.
func (a UserAuthenticator) Authenticate(_ context.Context, username string, password string) (auth.Subject, error) {
	entry, ok := a.entries[username]
	if !ok || !entry.Enabled {
		// timing attack paranoia
		_ = bcrypt.CompareHashAndPassword([]byte{}, []byte(password))

		return nil, auth.ErrAuthenticationFailed
	}

	err := bcrypt.CompareHashAndPassword([]byte(entry.PasswordHash), []byte(password))
	if err != nil {
		return nil, auth.ErrAuthenticationFailed
	}

	return subject{
		id:         entry.Username,
		attributes: maps.Clone(entry.Attrs),
	}, nil
}
