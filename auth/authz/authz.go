package authz

import (
	"context"
	"fmt"
	"strings"

	"github.com/distribution-auth/ruleauth/auth"
)

// DefaultAuthorizer implements a basic set of authorization rules
// and delegates authorization for repository resources.
// Access to everything else is denied.
type DefaultAuthorizer struct {
	repoAuthorizer RepositoryAuthorizer
	allowAnonymous bool
}

// RepositoryAuthorizer authorizes access requests to a specific repository.
//
// A nil subject represents an anonymous client.
type RepositoryAuthorizer interface {
	Authorize(ctx context.Context, name string, subject auth.Subject, requestedActions []string) ([]string, error)
}

// NewDefaultAuthorizer returns a new DefaultAuthorizer.
func NewDefaultAuthorizer(repoAuthorizer RepositoryAuthorizer, allowAnonymous bool) DefaultAuthorizer {
	return DefaultAuthorizer{
		repoAuthorizer: repoAuthorizer,
		allowAnonymous: allowAnonymous,
	}
}

// Authorize implements auth.Authorizer.
func (a DefaultAuthorizer) Authorize(ctx context.Context, subject auth.Subject, requestedScopes []auth.Scope) ([]auth.Scope, error) {
	if !a.allowAnonymous && subject == nil {
		return nil, auth.ErrUnauthorized
	}

	// Let's be optimistic about the amount of granted scopes
	grantedScopes := make([]auth.Scope, 0, len(requestedScopes))

	for _, scope := range requestedScopes {
		switch scope.Type {
		case "repository":
			grantedActions, err := a.repoAuthorizer.Authorize(ctx, scope.Name, subject, scope.Actions)
			if err != nil {
				return nil, err
			}

			// Don't add a scope with no actions
			if len(grantedActions) == 0 {
				continue
			}

			scope.Actions = grantedActions

		case "registry":
			// TODO: limit catalog access to admin subjects once subjects carry roles
			if scope.Name != "catalog" {
				continue
			}

		default:
			continue
		}

		grantedScopes = append(grantedScopes, scope)
	}

	return grantedScopes, nil
}

// DefaultRepositoryAuthorizer grants every requested action on repositories in the personal namespace of a subject.
type DefaultRepositoryAuthorizer struct {
	allowAnonymous bool
}

// NewDefaultRepositoryAuthorizer returns a new DefaultRepositoryAuthorizer.
func NewDefaultRepositoryAuthorizer(allowAnonymous bool) DefaultRepositoryAuthorizer {
	return DefaultRepositoryAuthorizer{
		allowAnonymous: allowAnonymous,
	}
}

// Authorize implements RepositoryAuthorizer.
func (a DefaultRepositoryAuthorizer) Authorize(_ context.Context, name string, subject auth.Subject, requestedActions []string) ([]string, error) {
	if subject == nil {
		if !a.allowAnonymous {
			return nil, auth.ErrUnauthorized
		}

		return []string{}, nil
	}

	if !strings.HasPrefix(name, fmt.Sprintf("%s/", auth.GetSubjectName(subject))) {
		return []string{}, nil
	}

	return requestedActions, nil
}
