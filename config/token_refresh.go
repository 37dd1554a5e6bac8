package config

import (
	"fmt"

	"github.com/docker/libtrust"
	"gopkg.in/yaml.v3"

	"github.com/distribution-auth/ruleauth/auth"
	"github.com/distribution-auth/ruleauth/auth/refreshtoken"
	"github.com/distribution-auth/ruleauth/auth/token/jwt"
)

// RefreshTokenIssuer is the configuration for an auth.RefreshTokenIssuer and the matching auth.RefreshTokenAuthenticator.
type RefreshTokenIssuer struct {
	Type   string `yaml:"type"`
	Config RefreshTokenIssuerFactory
}

func (c *RefreshTokenIssuer) UnmarshalYAML(value *yaml.Node) error {
	var rawConfig rawConfig

	err := value.Decode(&rawConfig)
	if err != nil {
		return err
	}

	var config RefreshTokenIssuerFactory

	switch rawConfig.Type {
	case "jwt":
		var factory jwtRefreshTokenIssuer

		err := decode(rawConfig.Config, &factory)
		if err != nil {
			return fmt.Errorf("refresh token issuer: jwt: %w", err)
		}

		config = factory

	case "memory":
		config = memoryRefreshTokenIssuer{}

	default:
		return fmt.Errorf("unknown refresh token issuer type: %s", rawConfig.Type)
	}

	c.Type = rawConfig.Type
	c.Config = config

	return nil
}

// RefreshTokenIssuerFactory creates a new auth.RefreshTokenIssuer and an auth.RefreshTokenAuthenticator accepting its tokens.
type RefreshTokenIssuerFactory interface {
	CreateRefreshTokenIssuer() (auth.RefreshTokenIssuer, auth.RefreshTokenAuthenticator, error)
	Validate() error
}

type jwtRefreshTokenIssuer struct {
	Issuer         string `mapstructure:"issuer"`
	PrivateKeyFile string `mapstructure:"privateKeyFile"`
}

func (c jwtRefreshTokenIssuer) CreateRefreshTokenIssuer() (auth.RefreshTokenIssuer, auth.RefreshTokenAuthenticator, error) {
	signingKey, err := libtrust.LoadKeyFile(c.PrivateKeyFile)
	if err != nil {
		return nil, nil, err
	}

	issuer := jwt.NewRefreshTokenIssuer(c.Issuer, signingKey)

	return issuer, issuer, nil
}

func (c jwtRefreshTokenIssuer) Validate() error {
	if c.Issuer == "" {
		return fmt.Errorf("refresh token issuer: jwt: issuer is required")
	}

	if c.PrivateKeyFile == "" {
		return fmt.Errorf("refresh token issuer: jwt: privateKeyFile is required")
	}

	return nil
}

type memoryRefreshTokenIssuer struct{}

func (memoryRefreshTokenIssuer) CreateRefreshTokenIssuer() (auth.RefreshTokenIssuer, auth.RefreshTokenAuthenticator, error) {
	repository := &refreshtoken.InMemoryRefreshTokenRepository{}

	return refreshtoken.NewDefaultRefreshTokenIssuer(repository), refreshtoken.NewDefaultRefreshTokenAuthenticator(repository), nil
}

func (memoryRefreshTokenIssuer) Validate() error {
	return nil
}
