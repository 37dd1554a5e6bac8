package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/distribution-auth/ruleauth/auth"
	"github.com/distribution-auth/ruleauth/auth/authz"
	"github.com/distribution-auth/ruleauth/pkg/orany"
	"github.com/distribution-auth/ruleauth/pkg/slices"
)

// Authorizer is the configuration for an auth.Authorizer.
type Authorizer struct {
	Type   string `yaml:"type"`
	Config AuthorizerFactory
}

func (c *Authorizer) UnmarshalYAML(value *yaml.Node) error {
	var rawConfig rawConfig

	err := value.Decode(&rawConfig)
	if err != nil {
		return err
	}

	var config AuthorizerFactory

	switch rawConfig.Type {
	case "default":
		var factory defaultAuthorizer

		err := decode(rawConfig.Config, &factory)
		if err != nil {
			return fmt.Errorf("authorizer: default: %w", err)
		}

		config = factory

	case "rules":
		var factory rulesAuthorizer

		err := decode(rawConfig.Config, &factory)
		if err != nil {
			return fmt.Errorf("authorizer: rules: %w", err)
		}

		config = factory

	default:
		return fmt.Errorf("unknown authorizer type: %s", rawConfig.Type)
	}

	c.Type = rawConfig.Type
	c.Config = config

	return nil
}

// Rules returns the access rules of a "rules" authorizer.
func (c Authorizer) Rules() (authz.Rules, bool) {
	factory, ok := c.Config.(rulesAuthorizer)
	if !ok {
		return nil, false
	}

	return factory.rules(), true
}

// AuthorizerFactory creates a new auth.Authorizer.
type AuthorizerFactory interface {
	CreateAuthorizer() (auth.Authorizer, error)
	Validate() error
}

type defaultAuthorizer struct {
	AllowAnonymous bool `mapstructure:"allowAnonymous"`
}

func (c defaultAuthorizer) CreateAuthorizer() (auth.Authorizer, error) {
	return authz.NewDefaultAuthorizer(authz.NewDefaultRepositoryAuthorizer(c.AllowAnonymous), c.AllowAnonymous), nil
}

func (c defaultAuthorizer) Validate() error {
	return nil
}

type rulesAuthorizer struct {
	AllowAnonymous bool   `mapstructure:"allowAnonymous"`
	Rules          []rule `mapstructure:"rules"`
}

// rule is an access rule. Omitted fields and "*" match anything.
type rule struct {
	Subject     *string  `mapstructure:"subject"`
	SubjectType *string  `mapstructure:"subjectType"`
	Type        *string  `mapstructure:"type"`
	Class       *string  `mapstructure:"class"`
	Name        *string  `mapstructure:"name"`
	Actions     []string `mapstructure:"actions"`
}

func pattern(value *string) orany.OrAny[string] {
	if value == nil {
		return orany.Any[string]()
	}

	return orany.Parse(*value)
}

func (c rulesAuthorizer) rules() authz.Rules {
	return slices.Map(c.Rules, func(r rule) authz.Rule {
		return authz.Rule{
			Subject:     pattern(r.Subject),
			SubjectType: pattern(r.SubjectType),
			Type:        pattern(r.Type),
			Class:       pattern(r.Class),
			Name:        pattern(r.Name),
			Actions:     orany.ParseAll(r.Actions),
		}
	})
}

func (c rulesAuthorizer) CreateAuthorizer() (auth.Authorizer, error) {
	return authz.NewRuleAuthorizer(c.rules(), c.AllowAnonymous), nil
}

func (c rulesAuthorizer) Validate() error {
	for i, r := range c.Rules {
		if len(r.Actions) == 0 {
			return fmt.Errorf("authorizer: rules: rule[%d]: at least one action is required", i)
		}

		for j, action := range r.Actions {
			if action == "" {
				return fmt.Errorf("authorizer: rules: rule[%d]: action[%d]: action cannot be empty", i, j)
			}
		}

		if r.Name != nil && *r.Name == "" {
			return fmt.Errorf("authorizer: rules: rule[%d]: name cannot be empty (omit it or use \"*\" to match any name)", i)
		}
	}

	return nil
}
