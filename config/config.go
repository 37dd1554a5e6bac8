package config

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config collects all configuration options.
type Config struct {
	Authenticator      PasswordAuthenticator `yaml:"authenticator"`
	Authorizer         Authorizer            `yaml:"authorizer"`
	AccessTokenIssuer  AccessTokenIssuer     `yaml:"accessTokenIssuer"`
	RefreshTokenIssuer RefreshTokenIssuer    `yaml:"refreshTokenIssuer"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	config, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}

	return config, nil
}

// Parse parses and validates a YAML configuration document.
func Parse(data []byte) (Config, error) {
	var config Config

	err := yaml.Unmarshal(data, &config)
	if err != nil {
		return Config{}, err
	}

	err = config.Validate()
	if err != nil {
		return Config{}, err
	}

	return config, nil
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Authenticator.Type == "" {
		return fmt.Errorf("authenticator type is required")
	}

	if err := c.Authenticator.Config.Validate(); err != nil {
		return err
	}

	if c.Authorizer.Type == "" {
		return fmt.Errorf("authorizer type is required")
	}

	if err := c.Authorizer.Config.Validate(); err != nil {
		return err
	}

	if c.AccessTokenIssuer.Type == "" {
		return fmt.Errorf("access token issuer type is required")
	}

	if err := c.AccessTokenIssuer.Config.Validate(); err != nil {
		return err
	}

	// refresh tokens are optional
	if c.RefreshTokenIssuer.Type != "" {
		if err := c.RefreshTokenIssuer.Config.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// rawConfig is a general struct to be used by other config structs to unmarshal yaml config first.
type rawConfig struct {
	Type   string                 `yaml:"type"`
	Config map[string]interface{} `yaml:"config"`
}

// decode decodes a raw config section into a factory.
func decode(input map[string]interface{}, output interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused: true,
		Result:      output,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(input)
}
