package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/distribution-auth/ruleauth/auth"
	"github.com/distribution-auth/ruleauth/auth/authn"
	"github.com/distribution-auth/ruleauth/config"
)

func app() *cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Usage:   "Path to config file",
		Aliases: []string{"c"},
		Value:   "config.yaml",
		Sources: cli.EnvVars("RULEAUTH_CONFIG"),
	}

	return &cli.Command{
		Name:  "ruleauth",
		Usage: "Docker registry token server with wildcard access rules",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level: debug/info/warn/error/off",
				Value:   "info",
				Sources: cli.EnvVars("RULEAUTH_LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Serve the token endpoint",
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Address to listen on (overrides RULEAUTH_ADDR)",
					},
					&cli.StringFlag{
						Name:  "tls-cert",
						Usage: "Certificate file for TLS (overrides RULEAUTH_TLS_CERT)",
					},
					&cli.StringFlag{
						Name:  "tls-key",
						Usage: "Certificate key for TLS (overrides RULEAUTH_TLS_KEY)",
					},
				},
				Action: serve,
			},
			{
				Name:  "verify",
				Usage: "Validate the config file and report overlapping access rules",
				Flags: []cli.Flag{
					configFlag,
					&cli.BoolFlag{
						Name:  "strict",
						Usage: "Treat overlapping access rules as an error",
					},
				},
				Action: verify,
			},
			{
				Name:  "check",
				Usage: "Print the scopes granted to a subject",

				// scopes contain commas
				DisableSliceFlagSeparator: true,

				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{
						Name:  "subject",
						Usage: "Subject name (anonymous if empty)",
					},
					&cli.StringFlag{
						Name:  "subject-type",
						Usage: "Subject type attribute",
					},
					&cli.StringSliceFlag{
						Name:     "scope",
						Usage:    "Requested scope, eg. repository:library/alpine:pull (repeatable)",
						Required: true,
					},
				},
				Action: check,
			},
		},
	}
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "off" {
		return zap.NewNop(), nil
	}

	l, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	config := zap.NewProductionConfig()
	if l == zapcore.DebugLevel {
		config = zap.NewDevelopmentConfig()
	}

	config.Level = zap.NewAtomicLevelAt(l)

	return config.Build()
}

func verify(_ context.Context, c *cli.Command) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	w := c.Root().Writer

	if rules, ok := cfg.Authorizer.Rules(); ok {
		overlaps := rules.Overlapping()

		for _, overlap := range overlaps {
			fmt.Fprintf(
				w,
				"rule[%d] overlaps rule[%d]\n  %s\n  %s\n",
				overlap.First, overlap.Second,
				rules[overlap.First], rules[overlap.Second],
			)
		}

		if len(overlaps) > 0 && c.Bool("strict") {
			return fmt.Errorf("%d overlapping access rule(s)", len(overlaps))
		}
	}

	fmt.Fprintln(w, "Configuration is valid.")

	return nil
}

func check(ctx context.Context, c *cli.Command) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	authorizer, err := cfg.CreateAuthorizer(nil)
	if err != nil {
		return err
	}

	if c.String("subject") == "" && c.String("subject-type") != "" {
		return errors.New("--subject-type requires --subject")
	}

	scopes, err := auth.ParseScopes(c.StringSlice("scope"))
	if err != nil {
		return err
	}

	var subject auth.Subject

	if name := c.String("subject"); name != "" {
		attrs := make(map[string]string)

		if subjectType := c.String("subject-type"); subjectType != "" {
			attrs[auth.SubjectType] = subjectType
		}

		subject = authn.NewSubject(name, attrs)
	}

	w := c.Root().Writer

	grantedScopes, err := authorizer.Authorize(ctx, subject, scopes)
	if errors.Is(err, auth.ErrUnauthorized) {
		fmt.Fprintln(w, "unauthorized")

		return nil
	} else if err != nil {
		return err
	}

	if len(grantedScopes) == 0 {
		fmt.Fprintln(w, "no access granted")

		return nil
	}

	for _, scope := range grantedScopes {
		fmt.Fprintln(w, scope)
	}

	return nil
}
