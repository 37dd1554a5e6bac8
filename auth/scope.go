package auth

import (
	"fmt"
	"regexp"
	"strings"
)

// Resource describes a resource by type and name.
type Resource struct {
	Type  string `json:"type"`
	Class string `json:"class,omitempty"`
	Name  string `json:"name"`
}

// Scope is a resource with a list of actions (requested by a client or granted by an Authorizer).
//
// See the [Token Scope Documentation] for details.
//
// [Token Scope Documentation]: https://github.com/distribution/distribution/blob/main/docs/spec/auth/scope.md
type Scope struct {
	Resource
	Actions []string `json:"actions"`
}

// resourceType matches "type" or "type(class)".
var resourceType = regexp.MustCompile(`^([a-z0-9]+)(?:\(([a-z0-9]+)\))?$`)

// ParseScope parses a scope string: "type[(class)]:name:action[,action...]".
//
// The resource name may contain colons (eg. a registry host with a port),
// the last colon separates the list of actions.
func ParseScope(scope string) (Scope, error) {
	typeEnd := strings.Index(scope, ":")
	actionsStart := strings.LastIndex(scope, ":")

	if typeEnd < 0 || typeEnd == actionsStart {
		return Scope{}, fmt.Errorf("invalid scope %q: expected type:name:actions", scope)
	}

	match := resourceType.FindStringSubmatch(scope[:typeEnd])
	if match == nil {
		return Scope{}, fmt.Errorf("invalid scope %q: invalid resource type", scope)
	}

	name := scope[typeEnd+1 : actionsStart]
	if name == "" || strings.TrimSpace(name) != name {
		return Scope{}, fmt.Errorf("invalid scope %q: invalid resource name", scope)
	}

	var actions []string

	for _, action := range strings.Split(scope[actionsStart+1:], ",") {
		action = strings.TrimSpace(action)
		if action == "" {
			continue
		}

		actions = append(actions, action)
	}

	return Scope{
		Resource: Resource{
			Type:  match[1],
			Class: match[2],
			Name:  name,
		},
		Actions: actions,
	}, nil
}

// ParseScopes parses a list of scope parameters.
// A single parameter may contain multiple space separated scopes.
func ParseScopes(scopes []string) (Scopes, error) {
	var result Scopes

	for _, value := range scopes {
		for _, s := range strings.Fields(value) {
			scope, err := ParseScope(s)
			if err != nil {
				return nil, err
			}

			result = append(result, scope)
		}
	}

	return result, nil
}

// String formats the scope the way ParseScope expects it.
func (s Scope) String() string {
	resourceType := s.Type
	if s.Class != "" {
		resourceType = fmt.Sprintf("%s(%s)", s.Type, s.Class)
	}

	return fmt.Sprintf("%s:%s:%s", resourceType, s.Name, strings.Join(s.Actions, ","))
}

// Scopes is a list of Scope values.
type Scopes []Scope

// String returns the space separated list of scopes.
func (s Scopes) String() string {
	scopes := make([]string, 0, len(s))

	for _, scope := range s {
		scopes = append(scopes, scope.String())
	}

	return strings.Join(scopes, " ")
}
