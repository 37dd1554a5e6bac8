package authz

import (
	"context"
	"fmt"
	"strings"

	"github.com/distribution-auth/ruleauth/auth"
	"github.com/distribution-auth/ruleauth/pkg/orany"
	"github.com/distribution-auth/ruleauth/pkg/slices"
)

// Rule grants actions on matching resources to matching subjects.
//
// Every field is a pattern: a wildcard matches any value.
type Rule struct {
	// Subject is matched against the name of the subject (see auth.GetSubjectName).
	Subject orany.OrAny[string]

	// SubjectType is matched against the auth.SubjectType attribute of the subject.
	// Subjects without the attribute are matched with an empty string.
	SubjectType orany.OrAny[string]

	Type  orany.OrAny[string]
	Class orany.OrAny[string]
	Name  orany.OrAny[string]

	Actions []orany.OrAny[string]
}

// Matches reports whether the rule applies to a subject and a resource.
//
// Anonymous (nil) subjects are only matched by rules with wildcard subject patterns.
func (r Rule) Matches(subject auth.Subject, resource auth.Resource) bool {
	if subject == nil {
		if r.Subject.IsSome() || r.SubjectType.IsSome() {
			return false
		}
	} else {
		subjectType, _ := subject.Attribute(auth.SubjectType)

		if !orany.Contains(r.Subject, auth.GetSubjectName(subject)) || !orany.Contains(r.SubjectType, subjectType) {
			return false
		}
	}

	return orany.Contains(r.Type, resource.Type) &&
		orany.Contains(r.Class, resource.Class) &&
		orany.Contains(r.Name, resource.Name)
}

// Allows reports whether one of the action patterns of the rule contains action.
func (r Rule) Allows(action string) bool {
	for _, pattern := range r.Actions {
		if orany.Contains(pattern, action) {
			return true
		}
	}

	return false
}

// Overlaps reports whether there is a request that both rules apply to.
//
// Two patterns intersect exactly when they are equal in the wildcard sense,
// so two rules overlap when all of their patterns are equal and they share an action pattern.
func (r Rule) Overlaps(other Rule) bool {
	if !orany.Equal(r.Subject, other.Subject) ||
		!orany.Equal(r.SubjectType, other.SubjectType) ||
		!orany.Equal(r.Type, other.Type) ||
		!orany.Equal(r.Class, other.Class) ||
		!orany.Equal(r.Name, other.Name) {
		return false
	}

	for _, a := range r.Actions {
		for _, b := range other.Actions {
			if orany.Equal(a, b) {
				return true
			}
		}
	}

	return false
}

func (r Rule) String() string {
	actions := slices.Map(r.Actions, orany.OrAny[string].String)

	return fmt.Sprintf(
		"subject=%s subjectType=%s type=%s class=%s name=%s actions=%s",
		r.Subject, r.SubjectType, r.Type, r.Class, r.Name, strings.Join(actions, ","),
	)
}

// Rules is an ordered list of rules.
type Rules []Rule

// Overlap is a pair of rule indexes.
type Overlap struct {
	First  int
	Second int
}

// Overlapping returns every pair of overlapping rules.
func (r Rules) Overlapping() []Overlap {
	var overlaps []Overlap

	for i := range r {
		for j := i + 1; j < len(r); j++ {
			if r[i].Overlaps(r[j]) {
				overlaps = append(overlaps, Overlap{First: i, Second: j})
			}
		}
	}

	return overlaps
}

// RuleAuthorizer grants the union of the actions allowed by every rule matching a requested scope.
type RuleAuthorizer struct {
	rules          Rules
	allowAnonymous bool
}

// NewRuleAuthorizer returns a new RuleAuthorizer.
func NewRuleAuthorizer(rules Rules, allowAnonymous bool) RuleAuthorizer {
	return RuleAuthorizer{
		rules:          append(Rules(nil), rules...),
		allowAnonymous: allowAnonymous,
	}
}

// Authorize implements auth.Authorizer.
func (a RuleAuthorizer) Authorize(_ context.Context, subject auth.Subject, requestedScopes []auth.Scope) ([]auth.Scope, error) {
	if !a.allowAnonymous && subject == nil {
		return nil, auth.ErrUnauthorized
	}

	grantedScopes := make([]auth.Scope, 0, len(requestedScopes))

	for _, scope := range requestedScopes {
		grantedActions := a.grantedActions(subject, scope)

		// Don't add a scope with no actions
		if len(grantedActions) == 0 {
			continue
		}

		scope.Actions = grantedActions
		grantedScopes = append(grantedScopes, scope)
	}

	return grantedScopes, nil
}

func (a RuleAuthorizer) grantedActions(subject auth.Subject, scope auth.Scope) []string {
	var matching Rules

	for _, rule := range a.rules {
		if rule.Matches(subject, scope.Resource) {
			matching = append(matching, rule)
		}
	}

	if len(matching) == 0 {
		return nil
	}

	granted := make([]string, 0, len(scope.Actions))
	seen := make(map[string]bool, len(scope.Actions))

	for _, action := range scope.Actions {
		if seen[action] {
			continue
		}

		for _, rule := range matching {
			if rule.Allows(action) {
				seen[action] = true
				granted = append(granted, action)

				break
			}
		}
	}

	return granted
}
